package storefront

import (
	"context"

	"github.com/ikkim/vibe-storefront/pkg/shopapi"
)

// AuthAPI is the session part of the backend.
type AuthAPI interface {
	Login(ctx context.Context, email, password string) (*shopapi.User, error)
	Logout(ctx context.Context) error
	CurrentUser(ctx context.Context) (*shopapi.User, error)
}

// CatalogAPI lists products.
type CatalogAPI interface {
	ListProducts(ctx context.Context) ([]shopapi.Product, error)
}

// CartAPI mutates and reads the server-owned cart.
type CartAPI interface {
	GetCart(ctx context.Context) (*shopapi.Cart, error)
	AddToCart(ctx context.Context, productID string, qty int) error
	RemoveFromCart(ctx context.Context, itemID string) error
}

// CheckoutAPI turns the cart into a receipt.
type CheckoutAPI interface {
	Checkout(ctx context.Context, req shopapi.CheckoutRequest) (*shopapi.Receipt, error)
}

// API is everything the storefront needs from the backend.
type API interface {
	AuthAPI
	CatalogAPI
	CartAPI
	CheckoutAPI
}

var _ API = (*shopapi.Client)(nil)
