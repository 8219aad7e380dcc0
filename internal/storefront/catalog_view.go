package storefront

import (
	"context"
	"fmt"
	"sync"

	"github.com/ikkim/vibe-storefront/pkg/logger"
	"github.com/ikkim/vibe-storefront/pkg/shopapi"
)

// MaxQuantityChoice caps the quantity selector of a product card.
const MaxQuantityChoice = 10

// ProductCard is a product as the catalog presents it.
type ProductCard struct {
	Product shopapi.Product
	// Pending is true while an add for this product is in flight
	Pending bool
}

// QuantityChoices lists 1..min(10, stock). It is empty when out of stock.
func (c ProductCard) QuantityChoices() []int {
	n := min(MaxQuantityChoice, c.Product.StockCount())
	choices := make([]int, 0, n)
	for q := 1; q <= n; q++ {
		choices = append(choices, q)
	}
	return choices
}

// CanAdd reports whether the add control is enabled.
func (c ProductCard) CanAdd() bool {
	return c.Product.Available() && !c.Pending
}

// CatalogView lists products and forwards adds to the cart store.
type CatalogView struct {
	api  CatalogAPI
	cart *CartStore

	mu       sync.Mutex
	products []shopapi.Product
	err      error
	pending  map[string]bool
}

func NewCatalogView(api CatalogAPI, cart *CartStore) *CatalogView {
	return &CatalogView{
		api:      api,
		cart:     cart,
		products: []shopapi.Product{},
		pending:  make(map[string]bool),
	}
}

// Load fetches the catalogue. On failure the list is emptied.
func (v *CatalogView) Load(ctx context.Context) error {
	products, err := v.api.ListProducts(ctx)

	v.mu.Lock()
	defer v.mu.Unlock()
	if err != nil {
		logger.Warn("Failed to load products", map[string]interface{}{
			"error": err.Error(),
		})
		v.products = []shopapi.Product{}
		v.err = newRequestError("load products", err)
		return v.err
	}

	v.products = products
	v.err = nil
	return nil
}

// Err is the last load or add error.
func (v *CatalogView) Err() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.err
}

func (v *CatalogView) Cards() []ProductCard {
	v.mu.Lock()
	defer v.mu.Unlock()

	cards := make([]ProductCard, 0, len(v.products))
	for _, p := range v.products {
		cards = append(cards, ProductCard{Product: p, Pending: v.pending[p.ID]})
	}
	return cards
}

func (v *CatalogView) Card(productID string) (ProductCard, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.cardLocked(productID)
}

func (v *CatalogView) cardLocked(productID string) (ProductCard, bool) {
	for _, p := range v.products {
		if p.ID == productID {
			return ProductCard{Product: p, Pending: v.pending[p.ID]}, true
		}
	}
	return ProductCard{}, false
}

// Add checks qty against the card's choices and adds it to the cart.
func (v *CatalogView) Add(ctx context.Context, productID string, qty int) error {
	v.mu.Lock()
	card, ok := v.cardLocked(productID)
	switch {
	case !ok:
		v.mu.Unlock()
		return newValidationError("product", "product is not in the catalogue")
	case card.Pending:
		v.mu.Unlock()
		return ErrOperationPending
	case !card.Product.Available():
		v.mu.Unlock()
		return newValidationError("quantity", "product is out of stock")
	}
	if limit := len(card.QuantityChoices()); qty < 1 || qty > limit {
		v.mu.Unlock()
		return newValidationError("quantity", fmt.Sprintf("choose a quantity between 1 and %d", limit))
	}
	v.pending[productID] = true
	v.mu.Unlock()

	err := v.cart.Add(ctx, productID, qty)

	v.mu.Lock()
	delete(v.pending, productID)
	v.err = err
	v.mu.Unlock()
	return err
}
