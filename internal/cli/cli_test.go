package cli

import (
	"bytes"
	"context"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ikkim/vibe-storefront/internal/storefront"
	"github.com/ikkim/vibe-storefront/pkg/shopapi"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// shopStub is a single-user in-memory shop.
type shopStub struct {
	mu       sync.Mutex
	signedIn bool
	lines    []shopapi.CartItem
}

var stubProducts = []shopapi.Product{
	{ID: "p1", Name: "Mug", Price: decimal.RequireFromString("10.00"), Description: "Stoneware", Stock: stock(5)},
	{ID: "p2", Name: "Tea", Price: decimal.RequireFromString("5.50"), Image: "/img/tea.png", Stock: stock(20)},
	{ID: "p3", Name: "Poster", Price: decimal.RequireFromString("3.00")},
}

func stock(n int) *int { return &n }

func (s *shopStub) Login(_ context.Context, email, password string) (*shopapi.User, error) {
	if password != "secret" {
		return nil, shopapi.NewAPIError(http.StatusUnauthorized, "AUTH_INVALID_CREDENTIALS", "invalid email or password")
	}
	s.mu.Lock()
	s.signedIn = true
	s.mu.Unlock()
	return &shopapi.User{ID: "u1", Name: "Ada", Email: email}, nil
}

func (s *shopStub) Logout(context.Context) error {
	s.mu.Lock()
	s.signedIn = false
	s.mu.Unlock()
	return nil
}

func (s *shopStub) CurrentUser(context.Context) (*shopapi.User, error) {
	return nil, shopapi.NewAPIError(http.StatusUnauthorized, "AUTH_UNAUTHORIZED", "login required")
}

func (s *shopStub) ListProducts(context.Context) ([]shopapi.Product, error) {
	return stubProducts, nil
}

func (s *shopStub) GetCart(context.Context) (*shopapi.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cart := &shopapi.Cart{ID: "c1", UserID: "u1", Items: append([]shopapi.CartItem{}, s.lines...)}
	cart.Total = cart.Subtotal()
	return cart, nil
}

func (s *shopStub) AddToCart(_ context.Context, productID string, qty int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range stubProducts {
		if p.ID == productID {
			s.lines = append(s.lines, shopapi.CartItem{ID: "line-" + productID, Product: p, Quantity: qty})
			return nil
		}
	}
	return shopapi.NewAPIError(http.StatusNotFound, "PRODUCT_NOT_FOUND", "product not found")
}

func (s *shopStub) RemoveFromCart(_ context.Context, itemID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, line := range s.lines {
		if line.ID == itemID {
			s.lines = append(s.lines[:i], s.lines[i+1:]...)
			return nil
		}
	}
	return shopapi.NewAPIError(http.StatusNotFound, "CART_ITEM_NOT_FOUND", "cart item not found")
}

func (s *shopStub) Checkout(context.Context, shopapi.CheckoutRequest) (*shopapi.Receipt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	receipt := &shopapi.Receipt{ReceiptID: "order-1", UserID: "u1", Status: shopapi.StatusCompleted, Timestamp: time.Now()}
	for _, line := range s.lines {
		receipt.Items = append(receipt.Items, shopapi.ReceiptItem{
			ProductID: line.Product.ID, Name: line.Product.Name, Price: line.Product.Price,
			Quantity: line.Quantity, ItemTotal: line.LineTotal(),
		})
		receipt.Total = receipt.Total.Add(line.LineTotal())
	}
	s.lines = nil
	return receipt, nil
}

// syncBuffer is a bytes.Buffer safe for the countdown goroutine.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestCountdownBar_Render(t *testing.T) {
	bar := NewCountdownBar(4).SetWidth(8)

	assert.Equal(t, "Auto-closing in 4 seconds  [████████] 4/4", bar.Render(4))
	assert.Equal(t, "Auto-closing in 1 second  [██░░░░░░] 1/4", bar.Render(1))
	assert.Equal(t, "Auto-closing in 0 seconds  [░░░░░░░░] 0/4", bar.Render(-3))
}

func TestPrinter_Rendering(t *testing.T) {
	p := NewPrinter(&bytes.Buffer{})

	header := strings.Join(p.HeaderLines(storefront.Header{SignedIn: true, UserName: "Ada", CartCount: 3}), "\n")
	assert.Contains(t, header, "Hi, Ada")
	assert.Contains(t, header, "Cart (3)")

	var cards []storefront.ProductCard
	for _, prod := range stubProducts {
		cards = append(cards, storefront.ProductCard{Product: prod})
	}
	catalog := strings.Join(p.CatalogLines(cards), "\n")
	assert.Contains(t, catalog, " 1. Mug  $10.00  Stock: 5  [p1]")
	assert.Contains(t, catalog, "No Image")
	assert.Contains(t, catalog, "Image: /img/tea.png")
	assert.Contains(t, catalog, "Qty: 1-10")
	assert.Contains(t, catalog, "Out of Stock")

	cart := strings.Join(p.CartLines(storefront.CartSummary{
		Lines: []storefront.CartLine{{
			ID: "l1", Name: "Mug", Price: decimal.NewFromInt(10), Quantity: 2, LineTotal: decimal.NewFromInt(20),
		}},
		Subtotal:  decimal.NewFromInt(20),
		Total:     decimal.NewFromInt(21),
		ItemCount: 2,
	}), "\n")
	assert.Contains(t, cart, "1 item(s) in cart")
	assert.Contains(t, cart, "Mug  $10.00 x 2 = $20.00  [l1]")
	assert.Contains(t, cart, "differs from the line totals by $1.00")

	receipt := strings.Join(p.ReceiptLines(&shopapi.Receipt{
		ReceiptID: "RCP-1",
		Status:    "completed",
		Total:     decimal.RequireFromString("25.5"),
	}), "\n")
	assert.Contains(t, receipt, "Status:     Completed")
	assert.Contains(t, receipt, "Total: $25.50")
}

func TestREPL_ShoppingSession(t *testing.T) {
	stub := &shopStub{}
	shell := storefront.NewShell(stub, storefront.Options{
		Checkout: storefront.CheckoutOptions{
			CountdownFrom: 2,
			TickInterval:  5 * time.Millisecond,
			RefreshGrace:  time.Millisecond,
		},
	})
	defer shell.Close()

	script := strings.Join([]string{
		"products",
		"login ada@example.com wrong",
		"login ada@example.com secret",
		"products",
		"add 1 2",
		"add p2",
		"add 3",
		"cart",
		"remove 2",
		"checkout",
		"Ada Lovelace",
		"ada@example.com",
	}, "\n") + "\n"

	out := &syncBuffer{}
	repl := NewREPL(shell, strings.NewReader(script), NewPrinter(out))
	require.NoError(t, repl.Run(context.Background()))

	require.Eventually(t, func() bool {
		return strings.Contains(out.String(), "Receipt closed.")
	}, 2*time.Second, 5*time.Millisecond)

	text := out.String()
	assert.Contains(t, text, "Please sign in first")
	assert.Contains(t, text, "invalid email or password")
	assert.Contains(t, text, "Welcome back, Ada")
	assert.Contains(t, text, "Cart (2)")
	assert.Contains(t, text, "Cart (3)")
	assert.Contains(t, text, "product is out of stock")
	assert.Contains(t, text, "2 item(s) in cart")
	assert.Contains(t, text, "Removed from cart")
	assert.Contains(t, text, "Order Confirmed!")
	assert.Contains(t, text, "Total: $20.00")
	assert.Contains(t, text, "Auto-closing in 0 seconds")
}

func TestREPL_CheckoutValidationAndQuit(t *testing.T) {
	stub := &shopStub{}
	shell := storefront.NewShell(stub, storefront.Options{})
	defer shell.Close()

	script := "login ada@example.com secret\nadd p1\ncheckout\nAda\nnot-an-email\ndismiss\nfrobnicate\nquit\nproducts\n"
	out := &syncBuffer{}
	repl := NewREPL(shell, strings.NewReader(script), NewPrinter(out))
	require.NoError(t, repl.Run(context.Background()))

	text := out.String()
	assert.Contains(t, text, "email is not a valid address")
	assert.Contains(t, text, "No receipt to dismiss")
	assert.Contains(t, text, `Unknown command "frobnicate"`)
	assert.NotContains(t, text, "Products")
	assert.Equal(t, 1, shell.Cart.ItemCount())
}
