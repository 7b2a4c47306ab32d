// Package yahooquote provides a client for the Yahoo Finance quote API.
package yahooquote

import (
	"os"
	"time"
)

// DefaultUserAgent is sent when YAHOO_QUOTE_USER_AGENT is not configured.
// The provider rejects requests without a browser-like user agent.
const DefaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36"

// WarmUpSymbol is a known-good symbol used to refresh the provider session.
const WarmUpSymbol = "AAPL"

// Config holds configuration for the Yahoo Finance quote client.
type Config struct {
	BaseURL   string        // Base URL for the API (e.g., "https://query1.finance.yahoo.com")
	UserAgent string        // User-Agent header sent with every request
	Timeout   time.Duration // HTTP request timeout
}

// LoadConfig loads quote client configuration from environment variables.
func LoadConfig() Config {
	base := os.Getenv("YAHOO_QUOTE_BASE_URL")
	if base == "" {
		base = "https://query1.finance.yahoo.com"
	}
	ua := os.Getenv("YAHOO_QUOTE_USER_AGENT")
	if ua == "" {
		ua = DefaultUserAgent
	}
	return Config{
		BaseURL:   base,
		UserAgent: ua,
		Timeout:   5 * time.Second,
	}
}
