package storefront

import (
	"context"
	"sync"

	"github.com/ikkim/vibe-storefront/pkg/logger"
	"github.com/ikkim/vibe-storefront/pkg/shopapi"
)

// CartListener receives the cart after every applied change. nil means absent.
type CartListener func(cart *shopapi.Cart)

// CartStore mirrors the server-owned cart of the signed-in shopper.
//
// Every mutation is followed by a full re-fetch. Mutations are serialized,
// and each fetch carries a sequence number so a response that is older than
// the last applied one, or that belongs to an ended session, is dropped.
type CartStore struct {
	api CartAPI

	// mutateMu serializes Add and Remove including their refresh.
	mutateMu sync.Mutex

	mu        sync.Mutex
	cart      *shopapi.Cart
	active    bool
	epoch     uint64
	seq       uint64
	applied   uint64
	listeners []CartListener
}

func NewCartStore(api CartAPI) *CartStore {
	return &CartStore{api: api}
}

// OnChange registers fn for every applied cart value.
func (s *CartStore) OnChange(fn CartListener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// Cart returns the last fetched cart, or nil when absent.
func (s *CartStore) Cart() *shopapi.Cart {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart
}

// ItemCount is the sum of quantities of the current cart.
func (s *CartStore) ItemCount() int {
	return s.Cart().ItemCount()
}

// HandleUserChange keeps the cart bound to the session. It is registered
// with SessionStore.OnUserChange.
func (s *CartStore) HandleUserChange(ctx context.Context, prev, next *shopapi.User) {
	if next == nil {
		s.Clear()
		return
	}

	s.mu.Lock()
	s.epoch++
	s.active = true
	s.cart = nil
	s.mu.Unlock()

	logger.Debug("Cart bound to user", map[string]interface{}{
		"user_id": next.ID,
	})
	s.Refresh(ctx)
}

// Clear drops the cart and ignores every fetch still in flight.
func (s *CartStore) Clear() {
	s.mu.Lock()
	s.epoch++
	s.active = false
	s.cart = nil
	listeners := append([]CartListener(nil), s.listeners...)
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(nil)
	}
}

// Refresh re-fetches the cart. A failure leaves the cart absent and is only
// logged. Nothing is fetched while no shopper is signed in.
func (s *CartStore) Refresh(ctx context.Context) {
	s.mu.Lock()
	if !s.active {
		s.mu.Unlock()
		return
	}
	s.seq++
	seq, epoch := s.seq, s.epoch
	s.mu.Unlock()

	cart, err := s.api.GetCart(ctx)

	s.mu.Lock()
	if epoch != s.epoch || seq <= s.applied {
		s.mu.Unlock()
		logger.Debug("Discarding stale cart response", map[string]interface{}{
			"seq": seq,
		})
		return
	}
	s.applied = seq
	if err != nil {
		s.cart = nil
	} else {
		s.cart = cart
	}
	current := s.cart
	listeners := append([]CartListener(nil), s.listeners...)
	s.mu.Unlock()

	if err != nil {
		logger.Warn("Failed to fetch cart", map[string]interface{}{
			"error": err.Error(),
		})
	} else if !current.Subtotal().Equal(current.Total) {
		logger.Warn("Cart total differs from line totals", map[string]interface{}{
			"cart_id":  current.ID,
			"total":    current.Total.String(),
			"subtotal": current.Subtotal().String(),
		})
	}

	for _, fn := range listeners {
		fn(current)
	}
}

// Add puts qty units of a product in the cart. qty below 1 counts as 1.
// The cart is re-fetched whether or not the backend accepted the change.
func (s *CartStore) Add(ctx context.Context, productID string, qty int) error {
	if qty < 1 {
		qty = 1
	}

	s.mutateMu.Lock()
	defer s.mutateMu.Unlock()

	var reqErr error
	if err := s.api.AddToCart(ctx, productID, qty); err != nil {
		logger.Warn("Failed to add to cart", map[string]interface{}{
			"product_id": productID,
			"quantity":   qty,
			"error":      err.Error(),
		})
		reqErr = newRequestError("add to cart", err)
	} else {
		logger.Info("Product added to cart", map[string]interface{}{
			"product_id": productID,
			"quantity":   qty,
		})
	}

	s.Refresh(ctx)
	return reqErr
}

// Remove deletes a cart line, then re-fetches.
func (s *CartStore) Remove(ctx context.Context, lineID string) error {
	s.mutateMu.Lock()
	defer s.mutateMu.Unlock()

	var reqErr error
	if err := s.api.RemoveFromCart(ctx, lineID); err != nil {
		logger.Warn("Failed to remove cart line", map[string]interface{}{
			"line_id": lineID,
			"error":   err.Error(),
		})
		reqErr = newRequestError("remove from cart", err)
	} else {
		logger.Info("Cart line removed", map[string]interface{}{
			"line_id": lineID,
		})
	}

	s.Refresh(ctx)
	return reqErr
}
