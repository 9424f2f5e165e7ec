package polar

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingCredentials is returned before any network call when the
	// access token or organization id is not configured.
	ErrMissingCredentials = errors.New("polar: access token and organization id are required")
	// ErrMissingWebhookSecret means webhooks cannot be verified at all.
	ErrMissingWebhookSecret = errors.New("polar: webhook secret is not configured")
)

// APIError is a non-2xx provider response. Rate limited calls that exhausted
// their retries surface as an APIError with StatusCode 429.
type APIError struct {
	Endpoint   string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("polar %s request failed: status=%d body=%s", e.Endpoint, e.StatusCode, e.Body)
}

// WebhookVerificationError rejects an unauthenticated webhook delivery.
type WebhookVerificationError struct {
	Reason string
}

func (e *WebhookVerificationError) Error() string {
	return "webhook verification failed: " + e.Reason
}
