package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/ikkim/vibe-storefront/internal/app/model"
	"github.com/ikkim/vibe-storefront/internal/app/repository"
	"github.com/ikkim/vibe-storefront/pkg/logger"
	"github.com/ikkim/vibe-storefront/pkg/redis"
	"github.com/ikkim/vibe-storefront/pkg/util"
	"gorm.io/gorm"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUserNotFound       = errors.New("user not found")
	ErrSessionRevoked     = errors.New("session has been signed out")
)

// Session is a signed session token and its expiry.
type Session struct {
	Token     string
	ExpiresAt time.Time
}

type AuthService interface {
	Login(email, password string) (*model.User, *Session, error)
	// Logout revokes token. Tokens that are already invalid are ignored.
	Logout(ctx context.Context, token string) error
	// Authenticate validates token and rejects revoked sessions.
	Authenticate(ctx context.Context, token string) (*util.SessionClaims, error)
	GetUserByID(id string) (*model.User, error)
}

type authService struct {
	userRepo      repository.UserRepository
	blacklist     redis.TokenBlacklist
	passwords     *util.PasswordHasher
	jwtSecret     string
	sessionExpiry time.Duration
}

func NewAuthService(
	userRepo repository.UserRepository,
	blacklist redis.TokenBlacklist,
	passwords *util.PasswordHasher,
	jwtSecret string,
	sessionExpiry time.Duration,
) AuthService {
	return &authService{
		userRepo:      userRepo,
		blacklist:     blacklist,
		passwords:     passwords,
		jwtSecret:     jwtSecret,
		sessionExpiry: sessionExpiry,
	}
}

func (s *authService) Login(email, password string) (*model.User, *Session, error) {
	email = strings.TrimSpace(email)
	logger.Info("Login attempt", map[string]interface{}{
		"email": email,
	})

	user, err := s.userRepo.FindByEmail(email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn("Login failed: user not found", map[string]interface{}{
				"email": email,
			})
			return nil, nil, ErrInvalidCredentials
		}
		logger.Error("Failed to find user", err, map[string]interface{}{
			"email": email,
		})
		return nil, nil, err
	}

	if !s.passwords.Verify(user.PasswordHash, password) {
		logger.Warn("Login failed: invalid password", map[string]interface{}{
			"user_id": user.ID,
		})
		return nil, nil, ErrInvalidCredentials
	}

	if s.passwords.NeedsRehash(user.PasswordHash) {
		s.rehashPassword(user, password)
	}

	token, expiresAt, err := util.GenerateSessionToken(user.ID, user.Email, s.jwtSecret, s.sessionExpiry)
	if err != nil {
		logger.Error("Failed to generate session token", err, map[string]interface{}{
			"user_id": user.ID,
		})
		return nil, nil, err
	}

	logger.Info("User logged in successfully", map[string]interface{}{
		"user_id": user.ID,
	})
	return user, &Session{Token: token, ExpiresAt: expiresAt}, nil
}

// rehashPassword upgrades a stored hash to the configured cost. Failures are
// logged only; the login itself already succeeded.
func (s *authService) rehashPassword(user *model.User, password string) {
	hash, err := s.passwords.Hash(password)
	if err == nil {
		err = s.userRepo.UpdatePasswordHash(user.ID, hash)
	}
	if err != nil {
		logger.Warn("Failed to upgrade password hash", map[string]interface{}{
			"user_id": user.ID,
			"error":   err.Error(),
		})
		return
	}
	user.PasswordHash = hash
	logger.Info("Password hash upgraded", map[string]interface{}{
		"user_id": user.ID,
		"cost":    s.passwords.Cost(),
	})
}

func (s *authService) Logout(ctx context.Context, token string) error {
	claims, err := util.ValidateToken(token, s.jwtSecret)
	if err != nil {
		logger.Debug("Logout without a valid session", map[string]interface{}{
			"error": err.Error(),
		})
		return nil
	}

	ttl := time.Until(claims.ExpiresAt.Time)
	if err := s.blacklist.Revoke(ctx, claims.ID, ttl); err != nil {
		logger.Error("Failed to revoke session", err, map[string]interface{}{
			"user_id": claims.UserID,
		})
		return err
	}

	logger.Info("User logged out", map[string]interface{}{
		"user_id": claims.UserID,
	})
	return nil
}

func (s *authService) Authenticate(ctx context.Context, token string) (*util.SessionClaims, error) {
	claims, err := util.ValidateToken(token, s.jwtSecret)
	if err != nil {
		return nil, err
	}

	revoked, err := s.blacklist.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, ErrSessionRevoked
	}
	return claims, nil
}

func (s *authService) GetUserByID(id string) (*model.User, error) {
	user, err := s.userRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		logger.Error("Failed to fetch user", err, map[string]interface{}{
			"user_id": id,
		})
		return nil, err
	}
	return user, nil
}
