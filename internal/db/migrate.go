package db

import (
	"errors"

	"github.com/ikkim/vibe-storefront/internal/app/model"
	"github.com/ikkim/vibe-storefront/pkg/logger"
	"github.com/ikkim/vibe-storefront/pkg/util"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Models lists every table of the storefront schema.
func Models() []interface{} {
	return []interface{}{
		&model.User{},
		&model.Product{},
		&model.Cart{},
		&model.CartItem{},
		&model.Order{},
		&model.OrderItem{},
	}
}

// Migrate creates or updates the storefront tables.
func Migrate(db *gorm.DB) error {
	logger.Info("Running database migrations...")

	models := Models()
	if err := db.AutoMigrate(models...); err != nil {
		logger.Error("Failed to run migrations", err)
		return err
	}

	logger.Info("Database migrations completed successfully", map[string]interface{}{
		"models_count": len(models),
	})
	return nil
}

// DemoUser is the shopper created by Seed.
var DemoUser = struct {
	Name     string
	Email    string
	Password string
}{
	Name:     "Demo Shopper",
	Email:    "demo@vibe.shop",
	Password: "password123",
}

// DemoProducts is the catalogue created by Seed.
func DemoProducts() []model.Product {
	return []model.Product{
		{Name: "Ceramic Mug", Description: "Stoneware mug, 350ml", Price: decimal.RequireFromString("10.00"), StockQuantity: 25},
		{Name: "Loose Leaf Tea", Description: "Darjeeling first flush, 100g", Price: decimal.RequireFromString("5.50"), StockQuantity: 40},
		{Name: "Notebook", Description: "A5 dotted, 120 pages", Price: decimal.RequireFromString("7.25"), StockQuantity: 15},
		{Name: "Desk Lamp", Description: "Warm white LED", Price: decimal.RequireFromString("34.90"), StockQuantity: 6, ImageURL: "/images/desk-lamp.png"},
		{Name: "Art Print", Description: "Limited edition, sold out", Price: decimal.RequireFromString("19.00"), StockQuantity: 0},
	}
}

// Seed adds the demo shopper and catalogue. Existing rows are left alone.
func Seed(db *gorm.DB, passwords *util.PasswordHasher) error {
	return SeedWith(db, passwords, DemoProducts())
}

// SeedWith creates the demo shopper and every product whose name is not in use yet.
func SeedWith(db *gorm.DB, passwords *util.PasswordHasher, products []model.Product) error {
	logger.Info("Seeding initial data...")

	if err := seedDemoUser(db, passwords); err != nil {
		logger.Error("Failed to seed demo user", err)
		return err
	}

	created, err := SeedProducts(db, products)
	if err != nil {
		logger.Error("Failed to seed products", err)
		return err
	}

	logger.Info("Initial data seeded successfully", map[string]interface{}{
		"products_created": created,
	})
	return nil
}

func seedDemoUser(db *gorm.DB, passwords *util.PasswordHasher) error {
	var existing model.User
	err := db.Where("email = ?", DemoUser.Email).First(&existing).Error
	if err == nil {
		logger.Info("Demo user already seeded, skipping...", map[string]interface{}{
			"email": DemoUser.Email,
		})
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	hash, err := passwords.Hash(DemoUser.Password)
	if err != nil {
		return err
	}
	return db.Create(&model.User{
		Name:         DemoUser.Name,
		Email:        DemoUser.Email,
		PasswordHash: hash,
	}).Error
}

// SeedProducts inserts products by name and returns how many were new.
func SeedProducts(db *gorm.DB, products []model.Product) (int, error) {
	created := 0
	for i := range products {
		product := products[i]
		var count int64
		if err := db.Model(&model.Product{}).Where("name = ?", product.Name).Count(&count).Error; err != nil {
			return created, err
		}
		if count > 0 {
			continue
		}
		if err := db.Create(&product).Error; err != nil {
			return created, err
		}
		created++
	}
	return created, nil
}
