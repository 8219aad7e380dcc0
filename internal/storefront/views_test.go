package storefront

import (
	"context"
	"errors"
	"testing"

	"github.com/ikkim/vibe-storefront/pkg/shopapi"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingCatalog struct{}

func (failingCatalog) ListProducts(context.Context) ([]shopapi.Product, error) {
	return nil, shopapi.ErrNetwork
}

func TestProductCard_QuantityChoices(t *testing.T) {
	tests := []struct {
		name   string
		stock  *int
		want   []int
		canAdd bool
	}{
		{name: "absent stock", stock: nil, want: []int{}, canAdd: false},
		{name: "out of stock", stock: intPtr(0), want: []int{}, canAdd: false},
		{name: "low stock", stock: intPtr(3), want: []int{1, 2, 3}, canAdd: true},
		{name: "capped at ten", stock: intPtr(50), want: []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, canAdd: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			card := ProductCard{Product: shopapi.Product{ID: "p", Stock: tt.stock}}
			assert.Equal(t, tt.want, card.QuantityChoices())
			assert.Equal(t, tt.canAdd, card.CanAdd())
		})
	}

	pending := ProductCard{Product: shopapi.Product{Stock: intPtr(2)}, Pending: true}
	assert.False(t, pending.CanAdd())
}

func TestCatalogView_LoadAndAdd(t *testing.T) {
	api, cart := setupCartStoreTest(t)
	view := NewCatalogView(api, cart)
	ctx := context.Background()

	require.NoError(t, view.Load(ctx))
	assert.Len(t, view.Cards(), 4)

	require.NoError(t, view.Add(ctx, "p2", 10))
	assert.Equal(t, 10, cart.ItemCount())

	var valErr *ValidationError
	require.ErrorAs(t, view.Add(ctx, "p2", 11), &valErr)
	require.ErrorAs(t, view.Add(ctx, "p3", 1), &valErr)
	assert.Contains(t, valErr.Fields["quantity"], "out of stock")
	require.ErrorAs(t, view.Add(ctx, "nope", 1), &valErr)
	assert.Equal(t, 10, cart.ItemCount())

	// Passes the card check but not the backend stock check.
	err := view.Add(ctx, "p1", 5)
	require.NoError(t, err)
	err = view.Add(ctx, "p1", 1)
	var reqErr *RequestError
	require.ErrorAs(t, err, &reqErr)
	assert.Equal(t, err, view.Err())

	card, ok := view.Card("p1")
	require.True(t, ok)
	assert.False(t, card.Pending)
}

func TestCatalogView_LoadFailureShowsEmptyList(t *testing.T) {
	view := NewCatalogView(failingCatalog{}, NewCartStore(newFakeAPI()))

	err := view.Load(context.Background())
	var reqErr *RequestError
	require.ErrorAs(t, err, &reqErr)
	assert.True(t, errors.Is(err, shopapi.ErrNetwork))
	assert.Empty(t, view.Cards())
	assert.Equal(t, "the shop is unreachable, try again", Message(view.Err()))
}

func TestCatalogView_PendingAddIsRefused(t *testing.T) {
	api, cart := setupCartStoreTest(t)
	view := NewCatalogView(api, cart)
	require.NoError(t, view.Load(context.Background()))

	view.mu.Lock()
	view.pending["p1"] = true
	view.mu.Unlock()

	card, _ := view.Card("p1")
	assert.False(t, card.CanAdd())
	assert.ErrorIs(t, view.Add(context.Background(), "p1", 1), ErrOperationPending)
}

func TestCartView_Summary(t *testing.T) {
	api, cart := setupCartStoreTest(t)
	view := NewCartView(cart, NewCheckoutFlowFactory(cart, ServerReceipts{API: api}, CheckoutOptions{}))
	ctx := context.Background()

	summary := view.Summary()
	assert.True(t, summary.Empty())
	assert.Equal(t, 0, summary.ItemCount)

	require.NoError(t, cart.Add(ctx, "p1", 2))
	require.NoError(t, cart.Add(ctx, "p2", 1))

	summary = view.Summary()
	assert.False(t, summary.Empty())
	assert.Equal(t, 2, summary.LineCount())
	assert.Equal(t, 3, summary.ItemCount)
	assert.True(t, summary.Lines[0].LineTotal.Equal(decimal.RequireFromString("20.00")))
	assert.True(t, summary.Subtotal.Equal(decimal.RequireFromString("25.50")))
	assert.True(t, summary.Total.Equal(summary.Subtotal))
	_, off := summary.Discrepancy()
	assert.False(t, off)
}

func TestCartSummary_DiscrepancyIsFlagged(t *testing.T) {
	summary := CartSummary{
		Subtotal: decimal.RequireFromString("25.50"),
		Total:    decimal.RequireFromString("26.00"),
	}
	diff, off := summary.Discrepancy()
	assert.True(t, off)
	assert.True(t, diff.Equal(decimal.RequireFromString("0.50")))
}

func TestCartView_RemoveAndCheckout(t *testing.T) {
	api, cart := setupCartStoreTest(t)
	view := NewCartView(cart, NewCheckoutFlowFactory(cart, ServerReceipts{API: api}, CheckoutOptions{}))
	ctx := context.Background()

	_, err := view.StartCheckout()
	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)

	require.NoError(t, cart.Add(ctx, "p1", 1))
	first, err := view.StartCheckout()
	require.NoError(t, err)
	assert.Same(t, first, view.ActiveFlow())

	second, err := view.StartCheckout()
	require.NoError(t, err)
	assert.Equal(t, StateClosed, first.State())
	assert.Same(t, second, view.ActiveFlow())

	line := view.Summary().Lines[0]
	require.NoError(t, view.Remove(ctx, line.ID))
	assert.True(t, view.Summary().Empty())

	err = view.Remove(ctx, line.ID)
	var reqErr *RequestError
	require.ErrorAs(t, err, &reqErr)
	assert.ErrorIs(t, err, shopapi.ErrNotFound)

	view.Teardown()
	assert.Nil(t, view.ActiveFlow())
	assert.Equal(t, StateClosed, second.State())
}
