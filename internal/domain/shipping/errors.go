package shipping

import "errors"

// Carrier gateway errors
var (
	// ErrMissingCredentials is a configuration error raised before any
	// network call when the carrier token is absent.
	ErrMissingCredentials = errors.New("shipping: carrier credentials not configured")

	// ErrInvalidCredentials maps carrier 401/403 responses. Never retried.
	ErrInvalidCredentials = errors.New("shipping: carrier rejected credentials")

	// ErrCarrierUnavailable is returned after the transient-failure retry
	// budget is exhausted.
	ErrCarrierUnavailable = errors.New("shipping: carrier temporarily unavailable")

	// ErrCarrierRequestFailed covers non-retryable carrier-side rejections.
	ErrCarrierRequestFailed = errors.New("shipping: carrier request failed")

	// ErrAddressRejected is returned when the carrier rejects every address
	// variant for a creation request.
	ErrAddressRejected = errors.New("shipping: carrier rejected delivery address")

	// ErrOrderNotFound is returned when the carrier does not recognize an
	// order code.
	ErrOrderNotFound = errors.New("shipping: carrier order not found")
)

// Webhook errors
var (
	ErrInvalidSignature = errors.New("shipping: invalid webhook signature")
	ErrMalformedPayload = errors.New("shipping: malformed webhook payload")
)
