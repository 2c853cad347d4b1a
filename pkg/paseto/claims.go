package pasetotoken

import (
	"time"

	"github.com/Alijeyrad/playcare_backend/pkg/reqctx"
)

// Identity is what the auth service puts into an access token.
type Identity struct {
	UserID string
	Role   string
	Name   string
	Email  string
}

// Claims is the app-facing token payload.
type Claims struct {
	Identity

	Issuer   string
	Audience string

	IssuedAt  time.Time
	NotBefore time.Time
	ExpiresAt time.Time
	TokenID   string // jti
}

// Actor converts the claims into the request identity used by services.
func (c *Claims) Actor() reqctx.Actor {
	return reqctx.Actor{
		UserID: c.UserID,
		Role:   c.Role,
		Name:   c.Name,
		Email:  c.Email,
	}
}

func (c *Claims) IsExpired() bool {
	return time.Now().After(c.ExpiresAt)
}
