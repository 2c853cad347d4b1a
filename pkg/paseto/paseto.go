package pasetotoken

import (
	"fmt"
	"time"

	paseto "aidanwoods.dev/go-paseto"
	"github.com/google/uuid"
)

type Config struct {
	Mode Mode

	Issuer   string
	Audience string

	AccessTTL time.Duration

	// Implicit is the optional v4 implicit assertion; both sides must agree.
	Implicit []byte
}

// Manager verifies access tokens issued by the auth service. It can also
// issue tokens when it holds the private half of the keys.
type Manager struct {
	cfg   Config
	keys  Keys
	parse paseto.Parser
}

func New(cfg Config, keys Keys) (*Manager, error) {
	if cfg.Mode != keys.Mode {
		return nil, ErrConfig{Msg: "cfg.Mode must match keys.Mode"}
	}
	switch {
	case cfg.Mode == ModeLocal && keys.Symmetric == nil:
		return nil, ErrConfig{Msg: "missing symmetric key"}
	case cfg.Mode == ModePublic && keys.Public == nil:
		return nil, ErrConfig{Msg: "missing public key"}
	case cfg.Mode != ModeLocal && cfg.Mode != ModePublic:
		return nil, ErrConfig{Msg: "unknown mode " + string(cfg.Mode)}
	}
	if cfg.Issuer == "" {
		return nil, ErrConfig{Msg: "Issuer is required"}
	}
	if cfg.Audience == "" {
		return nil, ErrConfig{Msg: "Audience is required"}
	}
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = 15 * time.Minute
	}

	p := paseto.NewParser()
	p.AddRule(paseto.IssuedBy(cfg.Issuer))
	p.AddRule(paseto.ForAudience(cfg.Audience))
	p.AddRule(paseto.NotExpired())

	return &Manager{cfg: cfg, keys: keys, parse: p}, nil
}

// CanIssue reports whether the manager holds a key that can mint tokens.
// A public-mode manager configured with only the public key cannot.
func (m *Manager) CanIssue() bool {
	return m.cfg.Mode == ModeLocal || m.keys.Secret != nil
}

// Issue signs an access token. Production tokens come from the auth
// service; this is used by `system token` and tests.
func (m *Manager) Issue(id Identity) (string, error) {
	if id.UserID == "" || id.Role == "" {
		return "", ErrConfig{Msg: "identity needs a user id and a role"}
	}
	if !m.CanIssue() {
		return "", ErrConfig{Msg: "missing secret key"}
	}

	now := time.Now()
	tok := paseto.NewToken()
	tok.SetIssuer(m.cfg.Issuer)
	tok.SetAudience(m.cfg.Audience)
	tok.SetJti(uuid.NewString())
	tok.SetIssuedAt(now)
	tok.SetNotBefore(now)
	tok.SetExpiration(now.Add(m.cfg.AccessTTL))

	tok.SetSubject(id.UserID)
	tok.SetString(claimRole, id.Role)
	if id.Name != "" {
		tok.SetString(claimName, id.Name)
	}
	if id.Email != "" {
		tok.SetString(claimEmail, id.Email)
	}

	if m.cfg.Mode == ModeLocal {
		return tok.V4Encrypt(*m.keys.Symmetric, m.cfg.Implicit), nil
	}
	return tok.V4Sign(*m.keys.Secret, m.cfg.Implicit), nil
}

func (m *Manager) Verify(tokenStr string) (*Claims, error) {
	var (
		tok *paseto.Token
		err error
	)
	if m.cfg.Mode == ModeLocal {
		tok, err = m.parse.ParseV4Local(*m.keys.Symmetric, tokenStr, m.cfg.Implicit)
	} else {
		tok, err = m.parse.ParseV4Public(*m.keys.Public, tokenStr, m.cfg.Implicit)
	}
	if err != nil {
		return nil, ErrInvalidToken{Err: err}
	}

	claims, err := readClaims(tok)
	if err != nil {
		return nil, ErrInvalidToken{Err: err}
	}
	claims.Issuer = m.cfg.Issuer
	claims.Audience = m.cfg.Audience
	return claims, nil
}

const (
	claimRole  = "role"
	claimName  = "name"
	claimEmail = "email"
)

func readClaims(tok *paseto.Token) (*Claims, error) {
	var (
		c   Claims
		err error
	)
	// registered claims first; any missing one rejects the token
	steps := []func() error{
		func() error { c.TokenID, err = tok.GetJti(); return err },
		func() error { c.UserID, err = tok.GetSubject(); return err },
		func() error { c.IssuedAt, err = tok.GetIssuedAt(); return err },
		func() error { c.NotBefore, err = tok.GetNotBefore(); return err },
		func() error { c.ExpiresAt, err = tok.GetExpiration(); return err },
		func() error { c.Role, err = tok.GetString(claimRole); return err },
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return nil, err
		}
	}
	if c.UserID == "" || c.Role == "" {
		return nil, fmt.Errorf("token has an empty subject or role")
	}

	// display fields are optional
	if v, err := tok.GetString(claimName); err == nil {
		c.Name = v
	}
	if v, err := tok.GetString(claimEmail); err == nil {
		c.Email = v
	}
	return &c, nil
}
