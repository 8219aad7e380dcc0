package shopapi

import (
	"net/url"
	"time"
)

// DefaultBaseURL is the local reference backend.
const DefaultBaseURL = "http://localhost:8080/v1/api/"

// Config represents the configuration for the storefront API client
type Config struct {
	// BaseURL is the API root, e.g. https://shop.example.com/v1/api/
	BaseURL string

	// Timeout bounds every request including reading the body
	Timeout time.Duration

	// UserAgent is sent with every request when set
	UserAgent string
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return ErrInvalidConfig
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return ErrInvalidConfig
	}
	if c.Timeout <= 0 {
		return ErrInvalidConfig
	}
	return nil
}
