package storefront

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"
)

// CartLine is one cart line as displayed.
type CartLine struct {
	ID        string
	ProductID string
	Name      string
	Price     decimal.Decimal
	Quantity  int
	// LineTotal is computed client side for display only
	LineTotal decimal.Decimal
	Pending   bool
}

// CartSummary is a read-only snapshot of the cart for rendering.
type CartSummary struct {
	Lines     []CartLine
	Subtotal  decimal.Decimal
	Total     decimal.Decimal
	ItemCount int
}

// Empty is true when the cart is absent or has no lines.
func (s CartSummary) Empty() bool {
	return len(s.Lines) == 0
}

func (s CartSummary) LineCount() int {
	return len(s.Lines)
}

// Discrepancy returns Total - Subtotal when the server total and the line
// totals disagree.
func (s CartSummary) Discrepancy() (decimal.Decimal, bool) {
	diff := s.Total.Sub(s.Subtotal)
	return diff, !diff.IsZero()
}

// CartView lists the cart, removes lines and launches checkout.
type CartView struct {
	cart     *CartStore
	checkout *CheckoutFlowFactory

	mu      sync.Mutex
	pending map[string]bool
	err     error
	flow    *CheckoutFlow
}

func NewCartView(cart *CartStore, checkout *CheckoutFlowFactory) *CartView {
	return &CartView{
		cart:     cart,
		checkout: checkout,
		pending:  make(map[string]bool),
	}
}

func (v *CartView) Summary() CartSummary {
	cart := v.cart.Cart()

	v.mu.Lock()
	defer v.mu.Unlock()

	summary := CartSummary{
		Lines:     []CartLine{},
		Subtotal:  cart.Subtotal(),
		Total:     decimal.Zero,
		ItemCount: cart.ItemCount(),
	}
	if cart == nil {
		return summary
	}
	summary.Total = cart.Total
	for _, item := range cart.Items {
		summary.Lines = append(summary.Lines, CartLine{
			ID:        item.ID,
			ProductID: item.Product.ID,
			Name:      item.Product.Name,
			Price:     item.Product.Price,
			Quantity:  item.Quantity,
			LineTotal: item.LineTotal(),
			Pending:   v.pending[item.ID],
		})
	}
	return summary
}

// Err is the last remove error.
func (v *CartView) Err() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.err
}

// Remove deletes a line. A second remove of the same line while the first
// is in flight is refused.
func (v *CartView) Remove(ctx context.Context, lineID string) error {
	v.mu.Lock()
	if v.pending[lineID] {
		v.mu.Unlock()
		return ErrOperationPending
	}
	v.pending[lineID] = true
	v.mu.Unlock()

	err := v.cart.Remove(ctx, lineID)

	v.mu.Lock()
	delete(v.pending, lineID)
	v.err = err
	v.mu.Unlock()
	return err
}

// StartCheckout opens a new checkout flow, tearing down any previous one.
func (v *CartView) StartCheckout() (*CheckoutFlow, error) {
	if v.cart.Cart().IsEmpty() {
		return nil, newValidationError("cart", "cart is empty")
	}

	flow := v.checkout.New()

	v.mu.Lock()
	prev := v.flow
	v.flow = flow
	v.mu.Unlock()

	if prev != nil {
		prev.Teardown()
	}
	return flow, nil
}

// ActiveFlow returns the checkout flow that is not closed yet, if any.
func (v *CartView) ActiveFlow() *CheckoutFlow {
	v.mu.Lock()
	flow := v.flow
	v.mu.Unlock()

	if flow == nil || flow.State() == StateClosed {
		return nil
	}
	return flow
}

// Teardown closes the checkout flow when the view goes away.
func (v *CartView) Teardown() {
	v.mu.Lock()
	flow := v.flow
	v.flow = nil
	v.mu.Unlock()

	if flow != nil {
		flow.Teardown()
	}
}
