package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type OrderStatus string

const (
	OrderStatusCompleted OrderStatus = "completed"
)

// Order is the server record of a checkout. Its ID is the receipt id.
type Order struct {
	ID         string          `gorm:"type:varchar(36);primaryKey" json:"receiptId"`
	UserID     string          `gorm:"type:varchar(36);not null;index" json:"userId"`
	BuyerName  string          `json:"buyer_name"`
	BuyerEmail string          `json:"buyer_email"`
	Total      decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"total"`
	Status     OrderStatus     `gorm:"type:varchar(20);default:'completed'" json:"status"`
	CreatedAt  time.Time       `json:"timestamp"`
	UpdatedAt  time.Time       `json:"updated_at"`

	OrderItems []OrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items"`
}

func (Order) TableName() string {
	return "orders"
}

func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	return nil
}

// OrderItem snapshots a purchased line; later catalogue changes do not affect it.
type OrderItem struct {
	ID        uint            `gorm:"primarykey" json:"-"`
	OrderID   string          `gorm:"type:varchar(36);not null;index" json:"-"`
	ProductID string          `gorm:"type:varchar(36);not null;index" json:"productId"`
	Name      string          `gorm:"not null" json:"name"`
	Price     decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price"`
	Quantity  int             `gorm:"not null" json:"quantity"`
	ItemTotal decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"itemTotal"`
	CreatedAt time.Time       `json:"-"`
}

func (OrderItem) TableName() string {
	return "order_items"
}
