package email

import (
	"fmt"

	"github.com/Alijeyrad/playcare_backend/pkg/apperr"
)

// ErrDisabled is returned by Send when email.enabled is false. Callers treat
// it as "nothing to do", not as a failure.
type ErrDisabled struct{}

func (e ErrDisabled) Error() string { return "email is disabled" }

type ErrInvalidMessage struct{ Reason string }

func (e ErrInvalidMessage) Error() string { return "invalid email message: " + e.Reason }

func (e ErrInvalidMessage) Is(target error) bool { return target == apperr.ErrValidation }

type ErrSend struct {
	Provider string
	Err      error
}

func (e ErrSend) Error() string { return fmt.Sprintf("email send failed (%s): %v", e.Provider, e.Err) }
func (e ErrSend) Unwrap() error { return e.Err }

// Is puts SMTP failures in the external service category.
func (e ErrSend) Is(target error) bool { return target == apperr.ErrExternalService }
