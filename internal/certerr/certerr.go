package certerr

import (
	"errors"
	"fmt"
)

// Sentinel categories for the certificate lifecycle. Wrapped errors carry
// detail; handlers branch on the category with errors.Is.
var (
	// ErrValidation marks malformed or missing input to a lifecycle
	// transition. Rejected before any side effect.
	ErrValidation = errors.New("validation error")

	// ErrStateConflict marks a transition that is not legal from the
	// current status, e.g. issuing an already-issued request.
	ErrStateConflict = errors.New("state conflict")

	// ErrIdentifierCollision marks a uniqueness constraint violation on
	// certificate number or verification code.
	ErrIdentifierCollision = errors.New("identifier collision")

	// ErrExternalService marks a recoverable QR fetch or PDF render
	// failure. Downgraded to a warning by the asset pipeline.
	ErrExternalService = errors.New("external service failure")

	// ErrConfiguration marks a missing template (including the default),
	// fatal to asset generation but never to issuance.
	ErrConfiguration = errors.New("configuration error")

	ErrNotFound = errors.New("not found")
)

func Validation(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

func StateConflict(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrStateConflict, fmt.Sprintf(format, args...))
}

func IdentifierCollision(err error) error {
	return fmt.Errorf("%w: %v", ErrIdentifierCollision, err)
}

func ExternalService(service string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrExternalService, service, err)
}

func Configuration(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConfiguration, fmt.Sprintf(format, args...))
}
