package codes

import "github.com/Alijeyrad/playcare_backend/config"

// Config holds settings for code generation
type Config struct {
	SessionTokenLength int
	PatientCodeLength  int

	// Charset is the character set used for alphanumeric codes
	// If empty, defaults to uppercase alphanumeric without ambiguous chars
	Charset string
}

// DefaultConfig returns sensible defaults for code generation
func DefaultConfig() Config {
	return Config{
		SessionTokenLength: 8,
		PatientCodeLength:  6,
		Charset:            charsetUpperAlphanumeric,
	}
}

// GetCharset returns the configured charset or the default if empty
func (c Config) GetCharset() string {
	if c.Charset == "" {
		return charsetUpperAlphanumeric
	}
	return c.Charset
}

func (c Config) sessionTokenLength() int {
	if c.SessionTokenLength <= 0 {
		return 8
	}
	return c.SessionTokenLength
}

func (c Config) patientCodeLength() int {
	if c.PatientCodeLength <= 0 {
		return 6
	}
	return c.PatientCodeLength
}

// FromCentralConfig converts central config.CodesConfig to package Config
func FromCentralConfig(c config.CodesConfig) Config {
	return Config{
		SessionTokenLength: c.SessionTokenLength,
		PatientCodeLength:  c.PatientCodeLength,
		Charset:            c.Charset,
	}
}
