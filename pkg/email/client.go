package email

import (
	"context"
	"crypto/tls"
	"log/slog"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"gopkg.in/gomail.v2"

	"github.com/Alijeyrad/playcare_backend/config"
)

// Sender delivers one message.
type Sender interface {
	Send(ctx context.Context, m Message) error
}

type Client struct {
	cfg Config
	// deliver performs one SMTP attempt; tests replace it.
	deliver func(*gomail.Message) error
	retry   time.Duration
}

// NewFromCentral creates a new email client from central config
func NewFromCentral(cfg config.EmailConfig) (*Client, error) {
	return New(FromCentralConfig(cfg))
}

func New(cfg Config) (*Client, error) {
	if cfg.Enabled && cfg.SMTPHost == "" {
		return nil, ErrInvalidMessage{Reason: "smtp host is required when email is enabled"}
	}
	c := &Client{cfg: cfg, retry: time.Second}
	d := c.newDialer()
	c.deliver = func(m *gomail.Message) error { return d.DialAndSend(m) }
	return c, nil
}

// Config returns the settings the client was built with.
func (c *Client) Config() Config { return c.cfg }

// Send validates and delivers m, retrying transient SMTP failures with
// exponential backoff. The whole call is bounded by the SMTP timeout or the
// context deadline, whichever is sooner.
func (c *Client) Send(ctx context.Context, m Message) error {
	if !c.cfg.Enabled {
		return ErrDisabled{}
	}

	msg, err := buildMessage(c.cfg.From, m)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.SMTPTimeout())
	defer cancel()

	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = c.retry

	attempt := 0
	_, err = backoff.Retry(ctx, func() (struct{}, error) {
		attempt++
		done := make(chan error, 1)
		go func() { done <- c.deliver(msg) }()

		select {
		case err := <-done:
			if err != nil {
				slog.WarnContext(ctx, "smtp attempt failed", "attempt", attempt, "error", err)
			}
			return struct{}{}, err
		case <-ctx.Done():
			return struct{}{}, backoff.Permanent(ctx.Err())
		}
	},
		backoff.WithBackOff(eb),
		backoff.WithMaxTries(c.cfg.maxAttempts()),
	)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return ErrSend{Provider: "gomail/smtp", Err: err}
	}
	return nil
}

func (c *Client) newDialer() *gomail.Dialer {
	d := gomail.NewDialer(c.cfg.SMTPHost, c.cfg.SMTPPort, c.cfg.SMTPUsername, c.cfg.SMTPPassword)
	d.SSL = c.cfg.SMTPUseTLS
	if c.cfg.SMTPUseTLS {
		d.TLSConfig = &tls.Config{ServerName: c.cfg.SMTPHost, MinVersion: tls.VersionTLS12}
	}
	return d
}

func buildMessage(from string, m Message) (*gomail.Message, error) {
	from = strings.TrimSpace(from)
	if from == "" {
		return nil, ErrInvalidMessage{Reason: "from is required"}
	}
	to := cleanAddrs(m.To)
	if len(to) == 0 {
		return nil, ErrInvalidMessage{Reason: "at least one recipient is required"}
	}
	subj := strings.TrimSpace(m.Subject)
	if subj == "" {
		return nil, ErrInvalidMessage{Reason: "subject is required"}
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", from)
	msg.SetHeader("To", to...)
	msg.SetHeader("Subject", subj)
	if id := strings.TrimSpace(m.ReportID); id != "" {
		msg.SetHeader(HeaderReportID, id)
	}

	hasText := strings.TrimSpace(m.TextBody) != ""
	hasHTML := strings.TrimSpace(m.HTMLBody) != ""
	switch {
	case hasText && hasHTML:
		msg.SetBody("text/plain", m.TextBody)
		msg.AddAlternative("text/html", m.HTMLBody)
	case hasHTML:
		msg.SetBody("text/html", m.HTMLBody)
	case hasText:
		msg.SetBody("text/plain", m.TextBody)
	default:
		return nil, ErrInvalidMessage{Reason: "either TextBody or HTMLBody is required"}
	}
	return msg, nil
}

func cleanAddrs(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
