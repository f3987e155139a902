package payment

import (
	"errors"
	"net/url"
	"strings"
	"time"
)

// IntegrationBaseURL is the Transbank integration (testing) environment
const IntegrationBaseURL = "https://webpay3gint.transbank.cl"

// WebpayConfig contains configuration for the Webpay Plus REST API
type WebpayConfig struct {
	// BaseURL is the Transbank environment, e.g. IntegrationBaseURL
	BaseURL string
	// CommerceCode is sent as Tbk-Api-Key-Id
	CommerceCode string
	// APIKey is sent as Tbk-Api-Key-Secret
	APIKey string
	// Timeout bounds each API call; zero means 30 seconds
	Timeout time.Duration
}

// Errors for configuration validation
var (
	ErrWebpayMissingBaseURL      = errors.New("webpay: missing base URL")
	ErrWebpayInvalidBaseURL      = errors.New("webpay: invalid base URL")
	ErrWebpayMissingCommerceCode = errors.New("webpay: missing commerce code")
	ErrWebpayMissingAPIKey       = errors.New("webpay: missing API key")
)

// Validate validates the configuration
func (c *WebpayConfig) Validate() error {
	if c.BaseURL == "" {
		return ErrWebpayMissingBaseURL
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return ErrWebpayInvalidBaseURL
	}
	if c.CommerceCode == "" {
		return ErrWebpayMissingCommerceCode
	}
	if c.APIKey == "" {
		return ErrWebpayMissingAPIKey
	}
	return nil
}

func (c *WebpayConfig) baseURL() string {
	return strings.TrimRight(c.BaseURL, "/")
}

func (c *WebpayConfig) timeout() time.Duration {
	if c.Timeout <= 0 {
		return 30 * time.Second
	}
	return c.Timeout
}
