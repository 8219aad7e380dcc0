package shopapi

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// The storefront backend speaks plain JSON numbers for money.
	decimal.MarshalJSONWithoutQuotes = true
}

// StatusCompleted is the receipt status of a successful checkout.
const StatusCompleted = "completed"

// Product is a catalogue entry. It is owned by the backend and never mutated by the client.
type Product struct {
	ID          string          `json:"_id"`
	Name        string          `json:"name"`
	Price       decimal.Decimal `json:"price"`
	Description string          `json:"description"`
	Image       string          `json:"image,omitempty"`
	Stock       *int            `json:"stock,omitempty"`
}

// StockCount returns the stock level, treating an absent or negative value as 0.
func (p Product) StockCount() int {
	if p.Stock == nil || *p.Stock < 0 {
		return 0
	}
	return *p.Stock
}

// Available reports whether the product can be purchased at all.
func (p Product) Available() bool {
	return p.StockCount() > 0
}

// CartItem is one line of a cart. Its ID names the line, not the product.
type CartItem struct {
	ID       string  `json:"_id"`
	Product  Product `json:"product"`
	Quantity int     `json:"quantity"`
}

// LineTotal is price * quantity of the embedded product snapshot.
func (i CartItem) LineTotal() decimal.Decimal {
	return i.Product.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Cart is the server-owned cart of one user. Total is computed by the server.
type Cart struct {
	ID     string          `json:"_id"`
	UserID string          `json:"userId"`
	Items  []CartItem      `json:"items"`
	Total  decimal.Decimal `json:"total"`
}

// ItemCount is the sum of all line quantities; 0 for a nil cart.
func (c *Cart) ItemCount() int {
	if c == nil {
		return 0
	}
	count := 0
	for _, item := range c.Items {
		count += item.Quantity
	}
	return count
}

// Subtotal is the client-side sum of line totals; it should equal Total.
func (c *Cart) Subtotal() decimal.Decimal {
	sum := decimal.Zero
	if c == nil {
		return sum
	}
	for _, item := range c.Items {
		sum = sum.Add(item.LineTotal())
	}
	return sum
}

// IsEmpty reports whether the cart is absent or has no lines.
func (c *Cart) IsEmpty() bool {
	return c == nil || len(c.Items) == 0
}

// Find returns the line with the given id.
func (c *Cart) Find(lineID string) (CartItem, bool) {
	if c == nil {
		return CartItem{}, false
	}
	for _, item := range c.Items {
		if item.ID == lineID {
			return item, true
		}
	}
	return CartItem{}, false
}

// User is the authenticated shopper.
type User struct {
	ID    string `json:"_id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// ReceiptItem is a purchased-line snapshot.
type ReceiptItem struct {
	ProductID string          `json:"productId"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
	ItemTotal decimal.Decimal `json:"itemTotal"`
}

// Receipt is the immutable record of a completed checkout.
type Receipt struct {
	ReceiptID string          `json:"receiptId"`
	UserID    string          `json:"userId"`
	Items     []ReceiptItem   `json:"items"`
	Total     decimal.Decimal `json:"total"`
	Timestamp time.Time       `json:"timestamp"`
	Status    string          `json:"status"`
}

// ItemsTotal sums ItemTotal over all receipt lines.
func (r *Receipt) ItemsTotal() decimal.Decimal {
	sum := decimal.Zero
	if r == nil {
		return sum
	}
	for _, item := range r.Items {
		sum = sum.Add(item.ItemTotal)
	}
	return sum
}

// LoginRequest is the body of POST /users/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AddToCartRequest is the body of POST /cart.
type AddToCartRequest struct {
	ProductID string `json:"productId"`
	Qty       int    `json:"qty"`
}

// CheckoutLine identifies a cart line the shopper agreed to buy.
type CheckoutLine struct {
	ID        string `json:"_id"`
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// Buyer is the contact information collected at checkout.
type Buyer struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// CheckoutRequest is the body of POST /cart/checkout.
type CheckoutRequest struct {
	CartItems []CheckoutLine `json:"cartItems"`
	Buyer     *Buyer         `json:"buyer,omitempty"`
}

// NewCheckoutRequest lists every line of cart as the agreed purchase.
func NewCheckoutRequest(cart *Cart, buyer *Buyer) CheckoutRequest {
	req := CheckoutRequest{CartItems: []CheckoutLine{}, Buyer: buyer}
	if cart == nil {
		return req
	}
	for _, item := range cart.Items {
		req.CartItems = append(req.CartItems, CheckoutLine{
			ID:        item.ID,
			ProductID: item.Product.ID,
			Quantity:  item.Quantity,
		})
	}
	return req
}

// Envelope is the success body of every endpoint.
type Envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// ErrorResponse is the error body of every endpoint.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
