package carrier

import (
	"time"

	"github.com/retailcore/shipping/internal/domain/shipping"
)

// Config holds carrier API client configuration
type Config struct {
	// BaseURL is the carrier API root, e.g. "https://services.giaohangtietkiem.vn"
	BaseURL string
	// Token is the partner API token sent on every request. Required.
	Token string
	// PartnerCode identifies the integrating partner (X-Client-Source header)
	PartnerCode string
	// TimeoutSeconds bounds a single HTTP round trip
	TimeoutSeconds int
	// MaxRetries bounds retries on 5xx/network failure
	MaxRetries int
	// RetryBaseDelay is multiplied by the attempt number for linear backoff
	RetryBaseDelay time.Duration
}

// Validate checks the configuration. A missing token is a fatal
// configuration error raised before any network call.
func (c *Config) Validate() error {
	if c == nil || c.Token == "" {
		return shipping.ErrMissingCredentials
	}
	return nil
}

// withDefaults fills unset optional fields
func (c *Config) withDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = "https://services.giaohangtietkiem.vn"
	}
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = 30
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = 3
	}
	if c.RetryBaseDelay <= 0 {
		c.RetryBaseDelay = 500 * time.Millisecond
	}
}
