package service

import (
	"errors"
	"time"

	"github.com/ikkim/vibe-storefront/internal/app/model"
	"github.com/ikkim/vibe-storefront/internal/app/repository"
	"github.com/ikkim/vibe-storefront/pkg/logger"
	"gorm.io/gorm"
)

var (
	ErrCartItemNotFound = errors.New("cart item not found")
	ErrInvalidQuantity  = errors.New("quantity must be at least 1")
)

type CartService interface {
	GetUserCart(userID string) (*model.Cart, error)
	// AddToCart adds qty of a product, merging into an existing line.
	AddToCart(userID, productID string, qty int) error
	RemoveFromCart(userID, itemID string) error
	// PurgeIdleItems deletes lines untouched for longer than ttl.
	PurgeIdleItems(ttl time.Duration) (int64, error)
}

type cartService struct {
	cartRepo    repository.CartRepository
	productRepo repository.ProductRepository
}

func NewCartService(cartRepo repository.CartRepository, productRepo repository.ProductRepository) CartService {
	return &cartService{
		cartRepo:    cartRepo,
		productRepo: productRepo,
	}
}

func (s *cartService) GetUserCart(userID string) (*model.Cart, error) {
	cart, err := s.cartRepo.FindOrCreateByUserID(userID)
	if err != nil {
		logger.Error("Failed to fetch user cart", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, err
	}

	logger.Debug("User cart fetched", map[string]interface{}{
		"user_id": userID,
		"lines":   len(cart.Items),
	})
	return cart, nil
}

func (s *cartService) AddToCart(userID, productID string, qty int) error {
	logger.Info("Adding item to cart", map[string]interface{}{
		"user_id":    userID,
		"product_id": productID,
		"quantity":   qty,
	})

	if qty < 1 {
		return ErrInvalidQuantity
	}

	product, err := s.productRepo.FindByID(productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn("Cannot add to cart: product not found", map[string]interface{}{
				"user_id":    userID,
				"product_id": productID,
			})
			return ErrProductNotFound
		}
		return err
	}

	cart, err := s.cartRepo.FindOrCreateByUserID(userID)
	if err != nil {
		return err
	}

	existingItem, err := s.cartRepo.FindItemByProduct(cart.ID, productID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		logger.Error("Failed to check existing cart item", err, map[string]interface{}{
			"cart_id":    cart.ID,
			"product_id": productID,
		})
		return err
	}

	requestedQuantity := qty
	if existingItem != nil {
		requestedQuantity = existingItem.Quantity + qty
	}

	if product.StockQuantity < requestedQuantity {
		logger.Warn("Cannot add to cart: insufficient product stock", map[string]interface{}{
			"user_id":    userID,
			"product_id": productID,
			"requested":  requestedQuantity,
			"available":  product.StockQuantity,
		})
		return ErrInsufficientStock
	}

	if existingItem != nil {
		existingItem.Quantity = requestedQuantity
		return s.cartRepo.UpdateItem(existingItem)
	}

	item := &model.CartItem{
		CartID:    cart.ID,
		ProductID: productID,
		Quantity:  qty,
	}
	if err := s.cartRepo.CreateItem(item); err != nil {
		return err
	}

	logger.Info("Cart item added successfully", map[string]interface{}{
		"cart_item_id": item.ID,
	})
	return nil
}

func (s *cartService) RemoveFromCart(userID, itemID string) error {
	logger.Info("Removing item from cart", map[string]interface{}{
		"user_id":      userID,
		"cart_item_id": itemID,
	})

	cart, err := s.cartRepo.FindOrCreateByUserID(userID)
	if err != nil {
		return err
	}

	if _, err := s.cartRepo.FindItem(cart.ID, itemID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn("Cannot remove cart item: not in the user's cart", map[string]interface{}{
				"user_id":      userID,
				"cart_item_id": itemID,
			})
			return ErrCartItemNotFound
		}
		return err
	}

	return s.cartRepo.DeleteItem(itemID)
}

func (s *cartService) PurgeIdleItems(ttl time.Duration) (int64, error) {
	cutoff := time.Now().Add(-ttl)
	removed, err := s.cartRepo.DeleteIdleItems(cutoff)
	if err != nil {
		return 0, err
	}

	logger.Info("Idle cart items purged", map[string]interface{}{
		"cutoff":  cutoff,
		"removed": removed,
	})
	return removed, nil
}
