package storefront

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/ikkim/vibe-storefront/pkg/logger"
	"github.com/ikkim/vibe-storefront/pkg/shopapi"
)

// CheckoutState is the stage of one checkout attempt.
type CheckoutState int

const (
	StateCollectingInfo CheckoutState = iota
	StateSubmitting
	StateShowingReceipt
	StateClosed
)

func (s CheckoutState) String() string {
	switch s {
	case StateCollectingInfo:
		return "collecting_info"
	case StateSubmitting:
		return "submitting"
	case StateShowingReceipt:
		return "showing_receipt"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// CheckoutOptions tunes the receipt confirmation.
type CheckoutOptions struct {
	// CountdownFrom is the number of ticks before the receipt closes itself
	CountdownFrom int
	// TickInterval is the time between two countdown ticks
	TickInterval time.Duration
	// RefreshGrace delays the cart refresh after the flow closes
	RefreshGrace time.Duration

	NewTicker TickerFunc
	AfterFunc AfterFunc
}

// DefaultCheckoutOptions closes the receipt after 4 one-second ticks.
func DefaultCheckoutOptions() CheckoutOptions {
	return CheckoutOptions{
		CountdownFrom: 4,
		TickInterval:  time.Second,
		RefreshGrace:  500 * time.Millisecond,
	}
}

func (o CheckoutOptions) withDefaults() CheckoutOptions {
	def := DefaultCheckoutOptions()
	if o.CountdownFrom < 1 {
		o.CountdownFrom = def.CountdownFrom
	}
	if o.TickInterval <= 0 {
		o.TickInterval = def.TickInterval
	}
	if o.RefreshGrace < 0 {
		o.RefreshGrace = def.RefreshGrace
	}
	if o.NewTicker == nil {
		o.NewTicker = systemTicker
	}
	if o.AfterFunc == nil {
		o.AfterFunc = systemAfterFunc
	}
	return o
}

type buyerInput struct {
	Name  string `validate:"required"`
	Email string `validate:"required,email"`
}

var buyerValidator = validator.New()

func validateBuyer(buyer shopapi.Buyer) error {
	err := buyerValidator.Struct(buyerInput{Name: buyer.Name, Email: buyer.Email})
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	verr := &ValidationError{Fields: map[string]string{}}
	for _, fe := range fieldErrs {
		field := strings.ToLower(fe.Field())
		switch fe.Tag() {
		case "required":
			verr.Fields[field] = field + " is required"
		case "email":
			verr.Fields[field] = "email is not a valid address"
		default:
			verr.Fields[field] = field + " is invalid"
		}
	}
	return verr
}

// CheckoutFlowFactory creates one CheckoutFlow per checkout attempt.
type CheckoutFlowFactory struct {
	cart     *CartStore
	receipts ReceiptSource
	options  CheckoutOptions
}

func NewCheckoutFlowFactory(cart *CartStore, receipts ReceiptSource, options CheckoutOptions) *CheckoutFlowFactory {
	return &CheckoutFlowFactory{
		cart:     cart,
		receipts: receipts,
		options:  options.withDefaults(),
	}
}

// New starts a fresh attempt in StateCollectingInfo.
func (f *CheckoutFlowFactory) New() *CheckoutFlow {
	return &CheckoutFlow{
		cart:     f.cart,
		receipts: f.receipts,
		options:  f.options,
		state:    StateCollectingInfo,
	}
}

// CheckoutFlow drives CollectingInfo -> Submitting -> ShowingReceipt -> Closed.
// Closed is terminal.
type CheckoutFlow struct {
	cart     *CartStore
	receipts ReceiptSource
	options  CheckoutOptions

	mu        sync.Mutex
	state     CheckoutState
	name      string
	email     string
	err       error
	receipt   *shopapi.Receipt
	remaining int
	countdown *countdown
	finished  bool

	tickListeners  []func(remaining int)
	closeListeners []func(receipt *shopapi.Receipt)
}

func (f *CheckoutFlow) State() CheckoutState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Err is the last validation or submission error, cleared on a new submit.
func (f *CheckoutFlow) Err() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.err
}

// Receipt is set once the backend confirmed the order.
func (f *CheckoutFlow) Receipt() *shopapi.Receipt {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.receipt
}

// Remaining is the countdown value while the receipt is shown.
func (f *CheckoutFlow) Remaining() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.remaining
}

// CountdownFrom is the value the receipt countdown starts at.
func (f *CheckoutFlow) CountdownFrom() int {
	return f.options.CountdownFrom
}

func (f *CheckoutFlow) Buyer() shopapi.Buyer {
	f.mu.Lock()
	defer f.mu.Unlock()
	return shopapi.Buyer{Name: f.name, Email: f.email}
}

// OnTick registers fn for every countdown decrement.
func (f *CheckoutFlow) OnTick(fn func(remaining int)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tickListeners = append(f.tickListeners, fn)
}

// OnClose registers fn for the close of a shown receipt. It fires at most once.
func (f *CheckoutFlow) OnClose(fn func(receipt *shopapi.Receipt)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closeListeners = append(f.closeListeners, fn)
}

func (f *CheckoutFlow) SetName(name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state != StateCollectingInfo {
		return ErrInvalidTransition
	}
	f.name = name
	return nil
}

func (f *CheckoutFlow) SetEmail(email string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state != StateCollectingInfo {
		return ErrInvalidTransition
	}
	f.email = email
	return nil
}

// Submit validates the buyer, checks out the current cart and on success
// shows the receipt and starts the countdown. Any failure keeps the flow in
// StateCollectingInfo with Err set.
func (f *CheckoutFlow) Submit(ctx context.Context) (*shopapi.Receipt, error) {
	f.mu.Lock()
	if f.state != StateCollectingInfo {
		f.mu.Unlock()
		return nil, ErrInvalidTransition
	}

	buyer := shopapi.Buyer{
		Name:  strings.TrimSpace(f.name),
		Email: strings.TrimSpace(f.email),
	}
	if err := validateBuyer(buyer); err != nil {
		f.err = err
		f.mu.Unlock()
		return nil, err
	}

	cart := f.cart.Cart()
	if cart.IsEmpty() {
		err := newValidationError("cart", "cart is empty")
		f.err = err
		f.mu.Unlock()
		return nil, err
	}

	f.state = StateSubmitting
	f.err = nil
	f.mu.Unlock()

	logger.Info("Checkout submitted", map[string]interface{}{
		"cart_id":    cart.ID,
		"item_count": cart.ItemCount(),
		"total":      cart.Total.String(),
	})

	receipt, err := f.receipts.CreateReceipt(ctx, cart, buyer)

	f.mu.Lock()
	if err != nil {
		reqErr := newRequestError("checkout", err)
		if f.state == StateSubmitting {
			f.state = StateCollectingInfo
			f.err = reqErr
		}
		f.mu.Unlock()

		logger.Warn("Checkout failed", map[string]interface{}{
			"cart_id": cart.ID,
			"error":   err.Error(),
		})
		return nil, reqErr
	}

	f.receipt = receipt
	if f.state != StateSubmitting {
		// Torn down while the request was in flight. The order exists, so
		// the cart still has to catch up.
		f.mu.Unlock()
		logger.Info("Checkout completed after the flow was closed", map[string]interface{}{
			"receipt_id": receipt.ReceiptID,
		})
		f.finish(false)
		return receipt, nil
	}

	cd := newCountdown()
	f.state = StateShowingReceipt
	f.remaining = f.options.CountdownFrom
	f.countdown = cd
	go cd.run(f.options.CountdownFrom, f.options.TickInterval, f.options.NewTicker, func(remaining int) bool {
		return f.handleTick(cd, remaining)
	})
	f.mu.Unlock()

	logger.Info("Checkout completed", map[string]interface{}{
		"receipt_id": receipt.ReceiptID,
		"total":      receipt.Total.String(),
	})
	return receipt, nil
}

func (f *CheckoutFlow) handleTick(cd *countdown, remaining int) bool {
	f.mu.Lock()
	if f.state != StateShowingReceipt || f.countdown != cd {
		f.mu.Unlock()
		return false
	}
	f.remaining = remaining
	closing := remaining <= 0
	if closing {
		f.state = StateClosed
		f.countdown = nil
	}
	listeners := append(([]func(int))(nil), f.tickListeners...)
	f.mu.Unlock()

	for _, fn := range listeners {
		fn(remaining)
	}
	if closing {
		f.finish(true)
	}
	return !closing
}

// Dismiss closes the receipt before the countdown ran out.
func (f *CheckoutFlow) Dismiss() error {
	f.mu.Lock()
	if f.state != StateShowingReceipt {
		f.mu.Unlock()
		return ErrInvalidTransition
	}
	cd := f.countdown
	f.countdown = nil
	f.state = StateClosed
	f.mu.Unlock()

	if cd != nil {
		cd.stop()
	}
	f.finish(true)
	return nil
}

// Teardown ends the flow when its view goes away. The close callbacks are
// not called. It is safe to call in any state and more than once.
func (f *CheckoutFlow) Teardown() {
	f.mu.Lock()
	prev := f.state
	cd := f.countdown
	f.countdown = nil
	f.state = StateClosed
	f.mu.Unlock()

	if cd != nil {
		cd.stop()
	}
	if prev == StateShowingReceipt {
		f.finish(false)
	}
}

// finish runs once per flow: optionally notifies close listeners, then
// schedules the grace refresh of the cart if an order was placed.
func (f *CheckoutFlow) finish(notify bool) {
	f.mu.Lock()
	if f.finished {
		f.mu.Unlock()
		return
	}
	f.finished = true
	receipt := f.receipt
	listeners := append(([]func(*shopapi.Receipt))(nil), f.closeListeners...)
	f.mu.Unlock()

	if notify {
		for _, fn := range listeners {
			fn(receipt)
		}
	}
	if receipt != nil && f.cart != nil {
		f.options.AfterFunc(f.options.RefreshGrace, func() {
			f.cart.Refresh(context.Background())
		})
	}
}
