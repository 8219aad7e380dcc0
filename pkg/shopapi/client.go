package shopapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/ikkim/vibe-storefront/pkg/logger"
	"golang.org/x/net/publicsuffix"
)

const maxResponseBytes = 4 << 20

// Client represents a storefront API client. The session cookie set by the
// backend is kept in the client's jar and sent with every request.
type Client struct {
	config     Config
	baseURL    *url.URL
	httpClient *http.Client
}

// NewClient creates a new storefront client with the given configuration
func NewClient(config Config) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	base, err := url.Parse(config.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if !strings.HasSuffix(base.Path, "/") {
		base.Path += "/"
	}

	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}

	return &Client{
		config:  config,
		baseURL: base,
		httpClient: &http.Client{
			Timeout: config.Timeout,
			Jar:     jar,
		},
	}, nil
}

// GetConfig returns the client configuration
func (c *Client) GetConfig() Config {
	return c.config
}

// Login submits credentials and returns the authenticated user
func (c *Client) Login(ctx context.Context, email, password string) (*User, error) {
	var user User
	if err := c.doRequest(ctx, http.MethodPost, "users/login", LoginRequest{Email: email, Password: password}, &user); err != nil {
		return nil, fmt.Errorf("failed to login: %w", err)
	}
	return &user, nil
}

// Logout asks the backend to terminate the session
func (c *Client) Logout(ctx context.Context) error {
	if err := c.doRequest(ctx, http.MethodPost, "users/logout", nil, nil); err != nil {
		return fmt.Errorf("failed to logout: %w", err)
	}
	return nil
}

// CurrentUser resolves the session's user. ErrUnauthorized means no session.
func (c *Client) CurrentUser(ctx context.Context) (*User, error) {
	var user User
	err := c.doRequest(ctx, http.MethodGet, "users/profile", nil, &user)
	if errors.Is(err, ErrEmptyData) {
		return nil, fmt.Errorf("failed to fetch profile: %w", ErrUnauthorized)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch profile: %w", err)
	}
	return &user, nil
}

// ListProducts returns the whole catalogue
func (c *Client) ListProducts(ctx context.Context) ([]Product, error) {
	var products []Product
	err := c.doRequest(ctx, http.MethodGet, "products", nil, &products)
	if err != nil && !errors.Is(err, ErrEmptyData) {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	if products == nil {
		products = []Product{}
	}
	return products, nil
}

// GetCart returns the authenticated user's cart
func (c *Client) GetCart(ctx context.Context) (*Cart, error) {
	var cart Cart
	if err := c.doRequest(ctx, http.MethodGet, "cart", nil, &cart); err != nil {
		return nil, fmt.Errorf("failed to fetch cart: %w", err)
	}
	if cart.Items == nil {
		cart.Items = []CartItem{}
	}
	return &cart, nil
}

// AddToCart adds qty units of a product, creating or incrementing a line
func (c *Client) AddToCart(ctx context.Context, productID string, qty int) error {
	if err := c.doRequest(ctx, http.MethodPost, "cart", AddToCartRequest{ProductID: productID, Qty: qty}, nil); err != nil {
		return fmt.Errorf("failed to add to cart: %w", err)
	}
	return nil
}

// RemoveFromCart deletes a cart line by its line id
func (c *Client) RemoveFromCart(ctx context.Context, itemID string) error {
	if err := c.doRequest(ctx, http.MethodDelete, "cart/"+url.PathEscape(itemID), nil, nil); err != nil {
		return fmt.Errorf("failed to remove from cart: %w", err)
	}
	return nil
}

// Checkout submits the agreed cart lines and returns the backend's receipt
func (c *Client) Checkout(ctx context.Context, req CheckoutRequest) (*Receipt, error) {
	var receipt Receipt
	if err := c.doRequest(ctx, http.MethodPost, "cart/checkout", req, &receipt); err != nil {
		return nil, fmt.Errorf("failed to checkout: %w", err)
	}
	return &receipt, nil
}

// doRequest performs an HTTP request and decodes the envelope's data into out
func (c *Client) doRequest(ctx context.Context, method, path string, payload, out interface{}) error {
	var body io.Reader
	if payload != nil {
		reqBody, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		body = bytes.NewReader(reqBody)
	}

	ref, err := url.Parse(strings.TrimPrefix(path, "/"))
	if err != nil {
		return fmt.Errorf("failed to build request url: %w", err)
	}
	endpoint := c.baseURL.ResolveReference(ref)

	req, err := http.NewRequestWithContext(ctx, method, endpoint.String(), body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.config.UserAgent != "" {
		req.Header.Set("User-Agent", c.config.UserAgent)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		logger.Debug("Storefront API request failed", map[string]interface{}{
			"method": method,
			"path":   endpoint.Path,
			"error":  err.Error(),
		})
		return fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes+1))
	if err != nil {
		return fmt.Errorf("%w: failed to read response body: %v", ErrNetwork, err)
	}
	if len(respBody) > maxResponseBytes {
		return ErrResponseTooLarge
	}

	logger.Debug("Storefront API request completed", map[string]interface{}{
		"method":      method,
		"path":        endpoint.Path,
		"status_code": resp.StatusCode,
		"latency_ms":  time.Since(start).Milliseconds(),
	})

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeError(resp.StatusCode, respBody)
	}

	if out == nil {
		return nil
	}

	var envelope Envelope
	if err := json.Unmarshal(respBody, &envelope); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}
	if len(envelope.Data) == 0 || string(envelope.Data) == "null" {
		return ErrEmptyData
	}
	if err := json.Unmarshal(envelope.Data, out); err != nil {
		return fmt.Errorf("failed to unmarshal response data: %w", err)
	}
	return nil
}

func decodeError(status int, body []byte) error {
	var errResp ErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && (errResp.Error != "" || errResp.Message != "") {
		message := errResp.Message
		if message == "" {
			message = errResp.Error
		}
		return NewAPIError(status, errResp.Error, message)
	}

	message := strings.TrimSpace(string(body))
	if len(message) > 256 {
		message = message[:256] + "...(truncated)"
	}
	if message == "" {
		message = http.StatusText(status)
	}
	return NewAPIError(status, "", message)
}
