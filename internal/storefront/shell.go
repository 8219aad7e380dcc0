package storefront

import (
	"context"
	"sync"

	"github.com/ikkim/vibe-storefront/pkg/logger"
	"github.com/ikkim/vibe-storefront/pkg/shopapi"
)

// Screen is what the shell currently shows.
type Screen int

const (
	ScreenLoading Screen = iota
	ScreenLogin
	ScreenCatalog
	ScreenCart
)

func (s Screen) String() string {
	switch s {
	case ScreenLoading:
		return "loading"
	case ScreenLogin:
		return "login"
	case ScreenCatalog:
		return "catalog"
	case ScreenCart:
		return "cart"
	default:
		return "unknown"
	}
}

// Header is the data of the top bar.
type Header struct {
	SignedIn  bool
	UserName  string
	CartCount int
}

// Options configures a Shell.
type Options struct {
	Checkout CheckoutOptions
	// Receipts defaults to ServerReceipts over the shell's API
	Receipts ReceiptSource
}

// Shell owns the stores and views of one application run and gates them on
// the session.
type Shell struct {
	Session  *SessionStore
	Cart     *CartStore
	Catalog  *CatalogView
	CartView *CartView

	mu   sync.Mutex
	view Screen
}

func NewShell(api API, options Options) *Shell {
	receipts := options.Receipts
	if receipts == nil {
		receipts = ServerReceipts{API: api}
	}

	session := NewSessionStore(api)
	cart := NewCartStore(api)
	checkout := NewCheckoutFlowFactory(cart, receipts, options.Checkout)

	shell := &Shell{
		Session:  session,
		Cart:     cart,
		Catalog:  NewCatalogView(api, cart),
		CartView: NewCartView(cart, checkout),
		view:     ScreenCatalog,
	}

	session.OnUserChange(cart.HandleUserChange)
	session.OnUserChange(func(_ context.Context, _, next *shopapi.User) {
		if next == nil {
			shell.CartView.Teardown()
		}
	})
	return shell
}

// Start resolves the existing session.
func (s *Shell) Start(ctx context.Context) {
	s.Session.Init(ctx)
}

func (s *Shell) Screen() Screen {
	if s.Session.Loading() {
		return ScreenLoading
	}
	if s.Session.CurrentUser() == nil {
		return ScreenLogin
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view
}

// Navigate switches between catalog and cart. Leaving the cart tears down
// its checkout flow.
func (s *Shell) Navigate(to Screen) error {
	if to != ScreenCatalog && to != ScreenCart {
		return ErrUnknownView
	}
	if s.Session.CurrentUser() == nil {
		return &AuthError{Op: "navigate", Message: "login required"}
	}

	s.mu.Lock()
	from := s.view
	s.view = to
	s.mu.Unlock()

	if from == ScreenCart && to != ScreenCart {
		s.CartView.Teardown()
	}
	return nil
}

func (s *Shell) Header() Header {
	user := s.Session.CurrentUser()
	if user == nil {
		return Header{}
	}
	return Header{
		SignedIn:  true,
		UserName:  user.Name,
		CartCount: s.Cart.ItemCount(),
	}
}

// Login signs in and lands on the catalog.
func (s *Shell) Login(ctx context.Context, email, password string) (*shopapi.User, error) {
	user, err := s.Session.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.view = ScreenCatalog
	s.mu.Unlock()
	return user, nil
}

// Logout always ends up on the login screen with both stores cleared.
func (s *Shell) Logout(ctx context.Context) error {
	err := s.Session.Logout(ctx)
	s.mu.Lock()
	s.view = ScreenCatalog
	s.mu.Unlock()
	return err
}

// Close tears the application down.
func (s *Shell) Close() {
	s.CartView.Teardown()
	s.Cart.Clear()
	logger.Debug("Storefront shell closed", nil)
}
