package hub

import "errors"

var (
	// ErrIntegrationNotFound is returned for an unknown integration ID.
	ErrIntegrationNotFound = errors.New("integration not found")

	// ErrUnsupported is returned when the integration has no OAuth connect path.
	ErrUnsupported = errors.New("integration is not supported yet")

	// ErrIdentityMissing is reported when a callback arrives without a stored identity.
	ErrIdentityMissing = errors.New("identity missing")

	// ErrInvalidIdentity wraps email validation failures.
	ErrInvalidIdentity = errors.New("invalid identity")

	// ErrConnectionInProgress is returned while a webhook delivery is outstanding.
	ErrConnectionInProgress = errors.New("a connection attempt is already in progress")
)
