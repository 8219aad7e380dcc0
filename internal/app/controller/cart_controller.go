package controller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/vibe-storefront/internal/app/service"
	apperrors "github.com/ikkim/vibe-storefront/internal/errors"
	"github.com/ikkim/vibe-storefront/internal/middleware"
)

type CartController struct {
	cartService     service.CartService
	checkoutService service.CheckoutService
}

func NewCartController(cartService service.CartService, checkoutService service.CheckoutService) *CartController {
	return &CartController{
		cartService:     cartService,
		checkoutService: checkoutService,
	}
}

type AddToCartRequest struct {
	ProductID string `json:"productId" binding:"required"`
	Qty       int    `json:"qty"`
}

type CheckoutLineRequest struct {
	ID        string `json:"_id" binding:"required"`
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity" binding:"gte=1"`
}

type BuyerRequest struct {
	Name  string `json:"name" binding:"required"`
	Email string `json:"email" binding:"required,email"`
}

type CheckoutRequest struct {
	CartItems []CheckoutLineRequest `json:"cartItems" binding:"dive"`
	Buyer     *BuyerRequest         `json:"buyer"`
}

// GetCart returns the user's cart with the server total
// GET /v1/api/cart
func (ctrl *CartController) GetCart(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	ctrl.respondWithCart(c, userID, "")
}

// AddToCart adds a product, qty defaults to 1
// POST /v1/api/cart
func (ctrl *CartController) AddToCart(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var req AddToCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid add to cart request", map[string]interface{}{
			"error": err.Error(),
		})
		respondBindError(c, err)
		return
	}
	if req.Qty == 0 {
		req.Qty = 1
	}

	if err := ctrl.cartService.AddToCart(userID, req.ProductID, req.Qty); err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidQuantity):
			apperrors.BadRequest(c, apperrors.ValidationInvalidRange, err.Error())
		case errors.Is(err, service.ErrProductNotFound):
			apperrors.NotFound(c, apperrors.ProductNotFound, "product not found")
		case errors.Is(err, service.ErrInsufficientStock):
			apperrors.BadRequest(c, apperrors.CartInsufficientStock, "not enough stock for the requested quantity")
		default:
			log.Error("Failed to add to cart", err, map[string]interface{}{
				"user_id":    userID,
				"product_id": req.ProductID,
			})
			apperrors.ParseAndRespond(c, err, "add to cart")
		}
		return
	}

	ctrl.respondWithCart(c, userID, "Added to cart")
}

// RemoveFromCart deletes one line of the user's cart
// DELETE /v1/api/cart/:itemId
func (ctrl *CartController) RemoveFromCart(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	itemID := c.Param("itemId")
	if err := ctrl.cartService.RemoveFromCart(userID, itemID); err != nil {
		if errors.Is(err, service.ErrCartItemNotFound) {
			apperrors.NotFound(c, apperrors.CartItemNotFound, "cart item not found")
			return
		}
		log.Error("Failed to remove from cart", err, map[string]interface{}{
			"user_id":      userID,
			"cart_item_id": itemID,
		})
		apperrors.ParseAndRespond(c, err, "remove cart item")
		return
	}

	ctrl.respondWithCart(c, userID, "Removed from cart")
}

// Checkout turns the cart into a receipt
// POST /v1/api/cart/checkout
func (ctrl *CartController) Checkout(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var req CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid checkout request", map[string]interface{}{
			"error": err.Error(),
		})
		respondBindError(c, err)
		return
	}

	lines := make([]service.CheckoutLine, 0, len(req.CartItems))
	for _, item := range req.CartItems {
		lines = append(lines, service.CheckoutLine{ID: item.ID, ProductID: item.ProductID, Quantity: item.Quantity})
	}
	var buyer *service.Buyer
	if req.Buyer != nil {
		buyer = &service.Buyer{Name: req.Buyer.Name, Email: req.Buyer.Email}
	}

	order, err := ctrl.checkoutService.Checkout(userID, lines, buyer)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmptyCart):
			apperrors.BadRequest(c, apperrors.CartEmpty, "cart is empty")
		case errors.Is(err, service.ErrCartChanged):
			apperrors.Conflict(c, apperrors.CartChanged, err.Error())
		case errors.Is(err, service.ErrInsufficientStock):
			apperrors.BadRequest(c, apperrors.CartInsufficientStock, "some items are no longer in stock")
		default:
			log.Error("Checkout failed", err, map[string]interface{}{
				"user_id": userID,
			})
			apperrors.ParseAndRespond(c, err, "check out")
		}
		return
	}

	log.Info("Checkout completed", map[string]interface{}{
		"user_id":    userID,
		"receipt_id": order.ID,
	})
	respondOK(c, "Checkout completed", newReceiptResponse(order))
}

func (ctrl *CartController) respondWithCart(c *gin.Context, userID, message string) {
	cart, err := ctrl.cartService.GetUserCart(userID)
	if err != nil {
		middleware.GetLoggerFromContext(c).Error("Failed to fetch cart", err, map[string]interface{}{
			"user_id": userID,
		})
		apperrors.ParseAndRespond(c, err, "fetch cart")
		return
	}
	respondOK(c, message, newCartResponse(cart))
}

func requireUser(c *gin.Context) (string, bool) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		apperrors.RespondWithError(c, http.StatusUnauthorized, apperrors.AuthUnauthorized, "login required")
	}
	return userID, ok
}
