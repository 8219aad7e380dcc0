package controller

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/vibe-storefront/internal/app/service"
	apperrors "github.com/ikkim/vibe-storefront/internal/errors"
	"github.com/ikkim/vibe-storefront/internal/middleware"
)

// SessionCookie configures the cookie that carries the session token.
type SessionCookie struct {
	Name   string
	Secure bool
}

type AuthController struct {
	authService service.AuthService
	sessions    *middleware.AuthMiddleware
	cookie      SessionCookie
}

func NewAuthController(authService service.AuthService, sessions *middleware.AuthMiddleware, cookie SessionCookie) *AuthController {
	return &AuthController{
		authService: authService,
		sessions:    sessions,
		cookie:      cookie,
	}
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Login handles user login
// POST /v1/api/users/login
func (ctrl *AuthController) Login(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid login request", map[string]interface{}{
			"error": err.Error(),
		})
		respondBindError(c, err)
		return
	}

	user, session, err := ctrl.authService.Login(req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			apperrors.RespondWithError(c, http.StatusUnauthorized, apperrors.AuthInvalidCredentials, "invalid email or password")
			return
		}
		log.Error("Login failed", err, map[string]interface{}{
			"email": req.Email,
		})
		apperrors.ParseAndRespond(c, err, "log in")
		return
	}

	ctrl.setSessionCookie(c, session.Token, time.Until(session.ExpiresAt))

	log.Info("Login successful", map[string]interface{}{
		"user_id": user.ID,
	})
	respondOK(c, "Login successful", newUserResponse(user))
}

// Logout revokes the session and clears the cookie. It always succeeds.
// POST /v1/api/users/logout
func (ctrl *AuthController) Logout(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	if token := ctrl.sessions.SessionToken(c); token != "" {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()
		if err := ctrl.authService.Logout(ctx, token); err != nil {
			log.Error("Failed to revoke session during logout", err, nil)
		}
	}

	ctrl.setSessionCookie(c, "", -time.Second)
	respondOK(c, "Logged out successfully", nil)
}

// Profile returns the signed-in user
// GET /v1/api/users/profile
func (ctrl *AuthController) Profile(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, exists := middleware.GetUserID(c)
	if !exists {
		apperrors.Unauthorized(c, "")
		return
	}

	user, err := ctrl.authService.GetUserByID(userID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			log.Warn("Session refers to a missing user", map[string]interface{}{
				"user_id": userID,
			})
			apperrors.Unauthorized(c, "")
			return
		}
		log.Error("Failed to get user information", err, map[string]interface{}{
			"user_id": userID,
		})
		apperrors.ParseAndRespond(c, err, "fetch profile")
		return
	}

	respondOK(c, "", newUserResponse(user))
}

func (ctrl *AuthController) setSessionCookie(c *gin.Context, value string, ttl time.Duration) {
	maxAge := int(ttl / time.Second)
	if ttl < 0 {
		maxAge = -1
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(ctrl.cookie.Name, value, maxAge, "/", "", ctrl.cookie.Secure, true)
}
