package relay

import (
	"errors"
	"fmt"
)

// ErrNotConfigured is returned by New when no webhook URL is set.
var ErrNotConfigured = errors.New("relay webhook URL is not configured")

// DeliveryError reports a failed delivery. StatusCode is set when the webhook
// answered with a non-2xx status; otherwise Err holds the transport error.
type DeliveryError struct {
	StatusCode int
	Err        error
}

func (e *DeliveryError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("relay returned status %d", e.StatusCode)
	}
	if e.Err != nil {
		return fmt.Sprintf("relay request failed: %v", e.Err)
	}
	return "relay delivery failed"
}

func (e *DeliveryError) Unwrap() error {
	return e.Err
}
