package service

import (
	"errors"
	"fmt"

	"github.com/ikkim/vibe-storefront/internal/app/model"
	"github.com/ikkim/vibe-storefront/internal/app/repository"
	"github.com/ikkim/vibe-storefront/pkg/logger"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	ErrEmptyCart   = errors.New("cart is empty")
	ErrCartChanged = errors.New("cart changed since it was shown, review it and try again")
)

// CheckoutLine is a cart line the shopper agreed to buy.
type CheckoutLine struct {
	ID        string
	ProductID string
	Quantity  int
}

// Buyer is the optional contact information of a checkout.
type Buyer struct {
	Name  string
	Email string
}

type CheckoutService interface {
	// Checkout turns the user's cart into a completed order. When lines is
	// not empty it must describe the current cart exactly.
	Checkout(userID string, lines []CheckoutLine, buyer *Buyer) (*model.Order, error)
}

type checkoutService struct {
	cartRepo  repository.CartRepository
	orderRepo repository.OrderRepository
	db        *gorm.DB
}

func NewCheckoutService(
	cartRepo repository.CartRepository,
	orderRepo repository.OrderRepository,
	db *gorm.DB,
) CheckoutService {
	return &checkoutService{
		cartRepo:  cartRepo,
		orderRepo: orderRepo,
		db:        db,
	}
}

func (s *checkoutService) Checkout(userID string, lines []CheckoutLine, buyer *Buyer) (*model.Order, error) {
	logger.Info("Checking out cart", map[string]interface{}{
		"user_id": userID,
		"lines":   len(lines),
	})

	cart, err := s.cartRepo.FindOrCreateByUserID(userID)
	if err != nil {
		return nil, err
	}

	if len(cart.Items) == 0 {
		logger.Warn("Cannot check out: cart is empty", map[string]interface{}{
			"user_id": userID,
		})
		return nil, ErrEmptyCart
	}

	if len(lines) > 0 && !matchesCart(cart, lines) {
		logger.Warn("Cannot check out: cart changed", map[string]interface{}{
			"user_id":      userID,
			"server_lines": len(cart.Items),
			"agreed_lines": len(lines),
		})
		return nil, ErrCartChanged
	}

	order := &model.Order{
		UserID: userID,
		Total:  decimal.Zero,
		Status: model.OrderStatusCompleted,
	}
	if buyer != nil {
		order.BuyerName = buyer.Name
		order.BuyerEmail = buyer.Email
	}
	for _, item := range cart.Items {
		lineTotal := item.LineTotal()
		order.OrderItems = append(order.OrderItems, model.OrderItem{
			ProductID: item.ProductID,
			Name:      item.Product.Name,
			Price:     item.Product.Price,
			Quantity:  item.Quantity,
			ItemTotal: lineTotal,
		})
		order.Total = order.Total.Add(lineTotal)
	}

	tx := s.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			logger.Error("Panic during checkout, rolling back", fmt.Errorf("panic: %v", r), map[string]interface{}{
				"user_id": userID,
			})
		}
	}()

	for _, item := range cart.Items {
		result := tx.Model(&model.Product{}).
			Where("id = ? AND stock_quantity >= ?", item.ProductID, item.Quantity).
			Update("stock_quantity", gorm.Expr("stock_quantity - ?", item.Quantity))
		if result.Error != nil {
			tx.Rollback()
			logger.Error("Failed to update product stock", result.Error, map[string]interface{}{
				"user_id":    userID,
				"product_id": item.ProductID,
			})
			return nil, result.Error
		}
		if result.RowsAffected == 0 {
			tx.Rollback()
			logger.Warn("Cannot check out: insufficient stock", map[string]interface{}{
				"user_id":    userID,
				"product_id": item.ProductID,
				"requested":  item.Quantity,
			})
			return nil, ErrInsufficientStock
		}
	}

	if err := s.orderRepo.WithTx(tx).Create(order); err != nil {
		tx.Rollback()
		return nil, err
	}

	// Only the snapshot was charged; lines changed meanwhile keep the rest.
	if err := s.cartRepo.WithTx(tx).ClearItems(cart.ID, cart.Items); err != nil {
		tx.Rollback()
		logger.Error("Failed to clear cart after checkout", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		logger.Error("Failed to commit checkout transaction", err, map[string]interface{}{
			"user_id":  userID,
			"order_id": order.ID,
		})
		return nil, err
	}

	logger.Info("Checkout completed", map[string]interface{}{
		"user_id":  userID,
		"order_id": order.ID,
		"total":    order.Total.StringFixed(2),
		"items":    len(order.OrderItems),
	})

	return s.orderRepo.FindByID(order.ID)
}

// matchesCart reports whether lines name exactly the cart's lines with the
// same products and quantities.
func matchesCart(cart *model.Cart, lines []CheckoutLine) bool {
	if len(lines) != len(cart.Items) {
		return false
	}
	agreed := make(map[string]CheckoutLine, len(lines))
	for _, line := range lines {
		agreed[line.ID] = line
	}
	for _, item := range cart.Items {
		line, ok := agreed[item.ID]
		if !ok || line.Quantity != item.Quantity {
			return false
		}
		if line.ProductID != "" && line.ProductID != item.ProductID {
			return false
		}
	}
	return true
}
