package storefront

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/ikkim/vibe-storefront/pkg/shopapi"
	"github.com/shopspring/decimal"
)

type fakeAccount struct {
	user     shopapi.User
	password string
}

// fakeAPI is an in-memory backend with a single shared cart.
type fakeAPI struct {
	mu sync.Mutex

	accounts map[string]fakeAccount
	current  *shopapi.User
	products []shopapi.Product
	lines    []shopapi.CartItem
	nextLine int

	logoutErr   error
	getCartErr  error
	checkoutErr error

	loginCalls    int
	profileCalls  int
	getCartCalls  int
	checkoutCalls []shopapi.CheckoutRequest
}

func intPtr(n int) *int { return &n }

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		accounts: map[string]fakeAccount{
			"ada@example.com": {
				user:     shopapi.User{ID: "u1", Name: "Ada", Email: "ada@example.com"},
				password: "secret",
			},
		},
		products: []shopapi.Product{
			{ID: "p1", Name: "Mug", Price: decimal.RequireFromString("10.00"), Stock: intPtr(5)},
			{ID: "p2", Name: "Tea", Price: decimal.RequireFromString("5.50"), Stock: intPtr(20)},
			{ID: "p3", Name: "Poster", Price: decimal.RequireFromString("3.00"), Stock: intPtr(0)},
			{ID: "p4", Name: "Sticker", Price: decimal.RequireFromString("1.25")},
		},
	}
}

func (f *fakeAPI) Login(_ context.Context, email, password string) (*shopapi.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loginCalls++

	account, ok := f.accounts[email]
	if !ok || account.password != password {
		return nil, shopapi.NewAPIError(http.StatusUnauthorized, "AUTH_INVALID_CREDENTIALS", "invalid email or password")
	}
	user := account.user
	f.current = &user
	return &user, nil
}

func (f *fakeAPI) Logout(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.logoutErr != nil {
		return f.logoutErr
	}
	f.current = nil
	return nil
}

func (f *fakeAPI) CurrentUser(_ context.Context) (*shopapi.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.profileCalls++
	if f.current == nil {
		return nil, shopapi.NewAPIError(http.StatusUnauthorized, "AUTH_UNAUTHORIZED", "login required")
	}
	user := *f.current
	return &user, nil
}

func (f *fakeAPI) ListProducts(_ context.Context) ([]shopapi.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]shopapi.Product(nil), f.products...), nil
}

func (f *fakeAPI) GetCart(_ context.Context) (*shopapi.Cart, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.getCartCalls++

	if f.getCartErr != nil {
		return nil, f.getCartErr
	}
	if f.current == nil {
		return nil, shopapi.NewAPIError(http.StatusUnauthorized, "AUTH_UNAUTHORIZED", "login required")
	}
	return f.cartLocked(), nil
}

func (f *fakeAPI) cartLocked() *shopapi.Cart {
	cart := &shopapi.Cart{
		ID:     "c1",
		UserID: f.current.ID,
		Items:  append([]shopapi.CartItem{}, f.lines...),
	}
	cart.Total = cart.Subtotal()
	return cart
}

func (f *fakeAPI) product(id string) (shopapi.Product, bool) {
	for _, p := range f.products {
		if p.ID == id {
			return p, true
		}
	}
	return shopapi.Product{}, false
}

func (f *fakeAPI) AddToCart(_ context.Context, productID string, qty int) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	product, ok := f.product(productID)
	if !ok {
		return shopapi.NewAPIError(http.StatusNotFound, "PRODUCT_NOT_FOUND", "product not found")
	}
	for i, line := range f.lines {
		if line.Product.ID == productID {
			if line.Quantity+qty > product.StockCount() {
				return shopapi.NewAPIError(http.StatusBadRequest, "CART_INSUFFICIENT_STOCK", "not enough stock")
			}
			f.lines[i].Quantity += qty
			return nil
		}
	}
	if qty > product.StockCount() {
		return shopapi.NewAPIError(http.StatusBadRequest, "CART_INSUFFICIENT_STOCK", "not enough stock")
	}
	f.nextLine++
	f.lines = append(f.lines, shopapi.CartItem{
		ID:       fmt.Sprintf("line-%d", f.nextLine),
		Product:  product,
		Quantity: qty,
	})
	return nil
}

func (f *fakeAPI) RemoveFromCart(_ context.Context, itemID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for i, line := range f.lines {
		if line.ID == itemID {
			f.lines = append(f.lines[:i], f.lines[i+1:]...)
			return nil
		}
	}
	return shopapi.NewAPIError(http.StatusNotFound, "CART_ITEM_NOT_FOUND", "cart item not found")
}

func (f *fakeAPI) Checkout(_ context.Context, req shopapi.CheckoutRequest) (*shopapi.Receipt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.checkoutCalls = append(f.checkoutCalls, req)

	if f.checkoutErr != nil {
		return nil, f.checkoutErr
	}
	if len(f.lines) == 0 {
		return nil, shopapi.NewAPIError(http.StatusBadRequest, "CART_EMPTY", "cart is empty")
	}

	cart := f.cartLocked()
	receipt := &shopapi.Receipt{
		ReceiptID: "order-1",
		UserID:    cart.UserID,
		Total:     cart.Total,
		Timestamp: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		Status:    shopapi.StatusCompleted,
	}
	for _, line := range cart.Items {
		receipt.Items = append(receipt.Items, shopapi.ReceiptItem{
			ProductID: line.Product.ID,
			Name:      line.Product.Name,
			Price:     line.Product.Price,
			Quantity:  line.Quantity,
			ItemTotal: line.LineTotal(),
		})
	}
	f.lines = nil
	return receipt, nil
}

func (f *fakeAPI) setCheckoutErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.checkoutErr = err
}

func (f *fakeAPI) cartCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.getCartCalls
}

func (f *fakeAPI) checkouts() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.checkoutCalls)
}

// manualTicker hands out a tick channel the test drives itself.
type manualTicker struct {
	ch       chan time.Time
	stopped  chan struct{}
	stopOnce sync.Once
}

func newManualTicker() *manualTicker {
	return &manualTicker{
		ch:      make(chan time.Time),
		stopped: make(chan struct{}),
	}
}

func (m *manualTicker) start(time.Duration) (<-chan time.Time, func()) {
	return m.ch, func() {
		m.stopOnce.Do(func() { close(m.stopped) })
	}
}

func (m *manualTicker) tick() {
	m.ch <- time.Now()
}

func (m *manualTicker) isStopped() bool {
	select {
	case <-m.stopped:
		return true
	default:
		return false
	}
}

// manualAfter records scheduled functions instead of running them.
type manualAfter struct {
	mu     sync.Mutex
	delays []time.Duration
	funcs  []func()
}

func (m *manualAfter) schedule(d time.Duration, fn func()) func() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.delays = append(m.delays, d)
	m.funcs = append(m.funcs, fn)
	return func() bool { return false }
}

func (m *manualAfter) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.funcs)
}

func (m *manualAfter) runAll() {
	m.mu.Lock()
	funcs := append([]func(){}, m.funcs...)
	m.mu.Unlock()
	for _, fn := range funcs {
		fn()
	}
}
