package shopapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(Config{BaseURL: server.URL + "/v1/api", Timeout: 5 * time.Second})
	require.NoError(t, err)
	return client
}

func writeData(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	raw, _ := json.Marshal(data)
	json.NewEncoder(w).Encode(Envelope{Success: true, Data: raw})
}

func writeErr(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorResponse{Error: code, Message: message})
}

func TestNewClient_InvalidConfig(t *testing.T) {
	tests := []struct {
		name   string
		config Config
	}{
		{name: "empty base url", config: Config{Timeout: time.Second}},
		{name: "relative base url", config: Config{BaseURL: "/v1/api", Timeout: time.Second}},
		{name: "zero timeout", config: Config{BaseURL: DefaultBaseURL}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := NewClient(tt.config)
			assert.Nil(t, client)
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestClient_SessionCookieIsSentAfterLogin(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/api/users/login", func(w http.ResponseWriter, r *http.Request) {
		var req LoginRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if req.Password != "secret" {
			writeErr(w, http.StatusUnauthorized, "AUTH_INVALID_CREDENTIALS", "invalid email or password")
			return
		}
		http.SetCookie(w, &http.Cookie{Name: "vibe_session", Value: "token-1", Path: "/", HttpOnly: true})
		writeData(w, http.StatusOK, User{ID: "u1", Name: "Ada", Email: req.Email})
	})
	mux.HandleFunc("/v1/api/users/profile", func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie("vibe_session")
		if err != nil || cookie.Value != "token-1" {
			writeErr(w, http.StatusUnauthorized, "AUTH_UNAUTHORIZED", "login required")
			return
		}
		writeData(w, http.StatusOK, User{ID: "u1", Name: "Ada", Email: "ada@example.com"})
	})

	client := newTestClient(t, mux)
	ctx := context.Background()

	_, err := client.CurrentUser(ctx)
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = client.Login(ctx, "ada@example.com", "wrong")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Equal(t, "AUTH_INVALID_CREDENTIALS", apiErr.Code)

	user, err := client.Login(ctx, "ada@example.com", "secret")
	require.NoError(t, err)
	assert.Equal(t, "Ada", user.Name)

	me, err := client.CurrentUser(ctx)
	require.NoError(t, err)
	assert.Equal(t, "u1", me.ID)
}

func TestClient_CartOperations(t *testing.T) {
	var added AddToCartRequest
	var removedPath string
	var checkout CheckoutRequest

	mux := http.NewServeMux()
	mux.HandleFunc("/v1/api/cart", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			io.WriteString(w, `{"success":true,"data":{"_id":"c1","userId":"u1","items":[{"_id":"l1","product":{"_id":"p1","name":"Mug","price":10.00,"description":"","stock":3},"quantity":2}],"total":20}}`)
		case http.MethodPost:
			require.NoError(t, json.NewDecoder(r.Body).Decode(&added))
			writeData(w, http.StatusCreated, nil)
		}
	})
	mux.HandleFunc("/v1/api/cart/", func(w http.ResponseWriter, r *http.Request) {
		removedPath = r.URL.EscapedPath()
		writeData(w, http.StatusOK, nil)
	})
	mux.HandleFunc("/v1/api/cart/checkout", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&checkout))
		writeData(w, http.StatusOK, Receipt{
			ReceiptID: "r1",
			UserID:    "u1",
			Items: []ReceiptItem{{
				ProductID: "p1", Name: "Mug", Price: decimal.NewFromInt(10), Quantity: 2, ItemTotal: decimal.NewFromInt(20),
			}},
			Total:  decimal.NewFromInt(20),
			Status: StatusCompleted,
		})
	})

	client := newTestClient(t, mux)
	ctx := context.Background()

	cart, err := client.GetCart(ctx)
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 2, cart.ItemCount())
	assert.True(t, cart.Total.Equal(decimal.NewFromInt(20)))
	assert.True(t, cart.Subtotal().Equal(cart.Total))

	require.NoError(t, client.AddToCart(ctx, "p1", 3))
	assert.Equal(t, AddToCartRequest{ProductID: "p1", Qty: 3}, added)

	require.NoError(t, client.RemoveFromCart(ctx, "l 1/x"))
	assert.Equal(t, "/v1/api/cart/l%201%2Fx", removedPath)

	receipt, err := client.Checkout(ctx, NewCheckoutRequest(cart, &Buyer{Name: "Ada", Email: "ada@example.com"}))
	require.NoError(t, err)
	assert.Equal(t, "r1", receipt.ReceiptID)
	assert.Equal(t, []CheckoutLine{{ID: "l1", ProductID: "p1", Quantity: 2}}, checkout.CartItems)
	assert.Equal(t, "ada@example.com", checkout.Buyer.Email)
}

func TestClient_ErrorMapping(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		sentinel error
		code     string
	}{
		{name: "out of stock", status: http.StatusBadRequest, body: `{"error":"CART_INSUFFICIENT_STOCK","message":"not enough stock"}`, sentinel: ErrBadRequest, code: "CART_INSUFFICIENT_STOCK"},
		{name: "missing line", status: http.StatusNotFound, body: `{"error":"CART_ITEM_NOT_FOUND","message":"cart item not found"}`, sentinel: ErrNotFound, code: "CART_ITEM_NOT_FOUND"},
		{name: "cart changed", status: http.StatusConflict, body: `{"error":"CART_CHANGED","message":"cart changed"}`, sentinel: ErrConflict, code: "CART_CHANGED"},
		{name: "plain text 502", status: http.StatusBadGateway, body: "upstream down", sentinel: ErrServer},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				io.WriteString(w, tt.body)
			}))

			err := client.AddToCart(context.Background(), "p1", 1)
			assert.ErrorIs(t, err, tt.sentinel)

			var apiErr *APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tt.status, apiErr.StatusCode)
			assert.Equal(t, tt.code, apiErr.Code)
			assert.NotEmpty(t, apiErr.Message)
		})
	}
}

func TestClient_NetworkError(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	server.Close()

	client, err := NewClient(Config{BaseURL: server.URL + "/v1/api/", Timeout: time.Second})
	require.NoError(t, err)

	_, err = client.GetCart(context.Background())
	assert.ErrorIs(t, err, ErrNetwork)
}

func TestClient_ListProductsNullData(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"success":true,"data":null}`)
	}))

	products, err := client.ListProducts(context.Background())
	require.NoError(t, err)
	assert.Empty(t, products)
}

func TestClient_ProfileWithoutData(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"success":false}`)
	}))

	_, err := client.CurrentUser(context.Background())
	assert.True(t, errors.Is(err, ErrUnauthorized))
}

func TestDecimalEncodesAsNumber(t *testing.T) {
	raw, err := json.Marshal(ReceiptItem{Price: decimal.RequireFromString("5.50"), Quantity: 1, ItemTotal: decimal.RequireFromString("5.50")})
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"price":5.5`)
}

func TestCartHelpers(t *testing.T) {
	var nilCart *Cart
	assert.Equal(t, 0, nilCart.ItemCount())
	assert.True(t, nilCart.IsEmpty())
	assert.True(t, nilCart.Subtotal().IsZero())

	stock := 0
	p := Product{ID: "p", Stock: &stock}
	assert.False(t, p.Available())
	assert.Equal(t, 0, Product{}.StockCount())
}
