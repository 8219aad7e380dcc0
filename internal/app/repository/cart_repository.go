package repository

import (
	"errors"
	"time"

	"github.com/ikkim/vibe-storefront/internal/app/model"
	"github.com/ikkim/vibe-storefront/pkg/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CartRepository interface {
	// FindOrCreateByUserID returns the user's cart with its lines and
	// their products, creating an empty cart on first use.
	FindOrCreateByUserID(userID string) (*model.Cart, error)
	FindItem(cartID, itemID string) (*model.CartItem, error)
	FindItemByProduct(cartID, productID string) (*model.CartItem, error)
	CreateItem(item *model.CartItem) error
	UpdateItem(item *model.CartItem) error
	DeleteItem(id string) error
	// ClearItems removes the charged quantities from the cart. A line whose
	// quantity grew after it was charged keeps the difference, and lines
	// added since are left alone.
	ClearItems(cartID string, charged []model.CartItem) error
	// DeleteIdleItems removes lines not touched since before.
	DeleteIdleItems(before time.Time) (int64, error)
	WithTx(tx *gorm.DB) CartRepository
}

type cartRepository struct {
	db *gorm.DB
}

func NewCartRepository(db *gorm.DB) CartRepository {
	return &cartRepository{db: db}
}

func (r *cartRepository) WithTx(tx *gorm.DB) CartRepository {
	return &cartRepository{db: tx}
}

func (r *cartRepository) withItems() *gorm.DB {
	return r.db.Preload("Items", func(db *gorm.DB) *gorm.DB {
		return db.Order("created_at ASC")
	}).Preload("Items.Product", func(db *gorm.DB) *gorm.DB {
		return db.Unscoped()
	})
}

func (r *cartRepository) FindOrCreateByUserID(userID string) (*model.Cart, error) {
	var cart model.Cart
	err := r.withItems().Where("user_id = ?", userID).First(&cart).Error
	if err == nil {
		return &cart, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		logger.Error("Failed to find cart by user ID in database", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, err
	}

	return r.createCart(userID)
}

// createCart inserts an empty cart for userID. When a concurrent request
// created it first, the existing cart is returned instead.
func (r *cartRepository) createCart(userID string) (*model.Cart, error) {
	cart := model.Cart{UserID: userID, Items: []model.CartItem{}}
	result := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoNothing: true,
	}).Create(&cart)
	if result.Error != nil {
		logger.Error("Failed to create cart in database", result.Error, map[string]interface{}{
			"user_id": userID,
		})
		return nil, result.Error
	}

	if result.RowsAffected == 0 {
		logger.Debug("Cart created concurrently, loading it", map[string]interface{}{
			"user_id": userID,
		})
		var existing model.Cart
		if err := r.withItems().Where("user_id = ?", userID).First(&existing).Error; err != nil {
			logger.Error("Failed to load concurrently created cart", err, map[string]interface{}{
				"user_id": userID,
			})
			return nil, err
		}
		return &existing, nil
	}

	logger.Debug("Cart created in database", map[string]interface{}{
		"cart_id": cart.ID,
		"user_id": userID,
	})
	return &cart, nil
}

func (r *cartRepository) FindItem(cartID, itemID string) (*model.CartItem, error) {
	var item model.CartItem
	err := r.db.Preload("Product").
		Where("id = ? AND cart_id = ?", itemID, cartID).
		First(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *cartRepository) FindItemByProduct(cartID, productID string) (*model.CartItem, error) {
	var item model.CartItem
	err := r.db.Where("cart_id = ? AND product_id = ?", cartID, productID).First(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *cartRepository) CreateItem(item *model.CartItem) error {
	logger.Debug("Creating cart item in database", map[string]interface{}{
		"cart_id":    item.CartID,
		"product_id": item.ProductID,
		"quantity":   item.Quantity,
	})

	if err := r.db.Omit("Product").Create(item).Error; err != nil {
		logger.Error("Failed to create cart item in database", err, map[string]interface{}{
			"cart_id":    item.CartID,
			"product_id": item.ProductID,
		})
		return err
	}
	return nil
}

func (r *cartRepository) UpdateItem(item *model.CartItem) error {
	logger.Debug("Updating cart item in database", map[string]interface{}{
		"cart_item_id": item.ID,
		"quantity":     item.Quantity,
	})

	if err := r.db.Omit("Product").Save(item).Error; err != nil {
		logger.Error("Failed to update cart item in database", err, map[string]interface{}{
			"cart_item_id": item.ID,
		})
		return err
	}
	return nil
}

func (r *cartRepository) DeleteItem(id string) error {
	logger.Debug("Deleting cart item from database", map[string]interface{}{
		"cart_item_id": id,
	})

	if err := r.db.Delete(&model.CartItem{}, "id = ?", id).Error; err != nil {
		logger.Error("Failed to delete cart item from database", err, map[string]interface{}{
			"cart_item_id": id,
		})
		return err
	}
	return nil
}

func (r *cartRepository) ClearItems(cartID string, charged []model.CartItem) error {
	for _, item := range charged {
		deleted := r.db.Where("id = ? AND cart_id = ? AND quantity <= ?", item.ID, cartID, item.Quantity).
			Delete(&model.CartItem{})
		if deleted.Error != nil {
			logger.Error("Failed to clear cart item in database", deleted.Error, map[string]interface{}{
				"cart_id":      cartID,
				"cart_item_id": item.ID,
			})
			return deleted.Error
		}
		if deleted.RowsAffected > 0 {
			continue
		}

		// The line grew after it was charged; keep what was added.
		err := r.db.Model(&model.CartItem{}).
			Where("id = ? AND cart_id = ? AND quantity > ?", item.ID, cartID, item.Quantity).
			Update("quantity", gorm.Expr("quantity - ?", item.Quantity)).Error
		if err != nil {
			logger.Error("Failed to reduce cart item in database", err, map[string]interface{}{
				"cart_id":      cartID,
				"cart_item_id": item.ID,
			})
			return err
		}
	}
	return nil
}

func (r *cartRepository) DeleteIdleItems(before time.Time) (int64, error) {
	result := r.db.Where("updated_at < ?", before).Delete(&model.CartItem{})
	if result.Error != nil {
		logger.Error("Failed to delete idle cart items", result.Error, map[string]interface{}{
			"before": before,
		})
		return 0, result.Error
	}
	return result.RowsAffected, nil
}
