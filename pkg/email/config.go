package email

import (
	"time"

	"github.com/Alijeyrad/playcare_backend/config"
)

// Config holds email service configuration
type Config struct {
	Enabled bool
	From    string

	// SMTP settings
	SMTPHost           string
	SMTPPort           int
	SMTPUsername       string
	SMTPPassword       string
	SMTPUseTLS         bool
	SMTPTimeoutSeconds int
	SMTPMaxAttempts    int

	// Template settings
	AppName string
	BaseURL string

	PrimaryColor string
}

// DefaultConfig returns sensible defaults for email configuration
func DefaultConfig() Config {
	return Config{
		Enabled:            false,
		SMTPPort:           587,
		SMTPUseTLS:         true,
		SMTPTimeoutSeconds: 30,
		SMTPMaxAttempts:    3,
		PrimaryColor:       "#0f766e",
		AppName:            "PlayCare",
	}
}

// SMTPTimeout returns the SMTP timeout as a duration
func (c Config) SMTPTimeout() time.Duration {
	if c.SMTPTimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.SMTPTimeoutSeconds) * time.Second
}

func (c Config) maxAttempts() uint {
	if c.SMTPMaxAttempts <= 0 {
		return 3
	}
	return uint(c.SMTPMaxAttempts)
}

// FromCentralConfig converts central config.EmailConfig to package Config
func FromCentralConfig(c config.EmailConfig) Config {
	return Config{
		Enabled:            c.Enabled,
		From:               c.From,
		SMTPHost:           c.SMTP.Host,
		SMTPPort:           c.SMTP.Port,
		SMTPUsername:       c.SMTP.Username,
		SMTPPassword:       c.SMTP.Password,
		SMTPUseTLS:         c.SMTP.UseTLS,
		SMTPTimeoutSeconds: c.SMTP.TimeoutSeconds,
		SMTPMaxAttempts:    c.SMTP.MaxAttempts,
		AppName:            c.AppName,
		BaseURL:            c.BaseURL,
		PrimaryColor:       DefaultConfig().PrimaryColor,
	}
}
