package pasetotoken

import "fmt"

// ErrConfig reports unusable keys or manager settings. It surfaces at start,
// never per request.
type ErrConfig struct{ Msg string }

func (e ErrConfig) Error() string { return "paseto config error: " + e.Msg }

// ErrInvalidToken wraps a parse or rule failure from go-paseto. The HTTP
// layer answers 401 for it without echoing the cause.
type ErrInvalidToken struct{ Err error }

func (e ErrInvalidToken) Error() string { return fmt.Sprintf("invalid token: %v", e.Err) }
func (e ErrInvalidToken) Unwrap() error { return e.Err }
