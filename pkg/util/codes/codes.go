package codes

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
)

var (
	ErrInvalidLength = errors.New("invalid code length")
)

const (
	// Uppercase alphanumeric excluding ambiguous characters (0/O, 1/I/L),
	// so codes survive being read aloud or retyped between roles.
	charsetUpperAlphanumeric = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

	// GroupSize is the dash grouping used when displaying codes.
	GroupSize = 4
)

// Generator produces the copyable identifiers shown to staff.
type Generator struct {
	cfg Config
}

func NewGenerator(cfg Config) *Generator {
	return &Generator{cfg: cfg}
}

// SessionToken returns a display token such as "K7P2-QX9M".
func (g *Generator) SessionToken() (string, error) {
	code, err := GenerateCode(g.cfg.sessionTokenLength(), g.cfg.GetCharset())
	if err != nil {
		return "", err
	}
	return FormatCode(code, GroupSize), nil
}

// PatientCode returns the short code instructors type to load a patient.
func (g *Generator) PatientCode() (string, error) {
	return GenerateCode(g.cfg.patientCodeLength(), g.cfg.GetCharset())
}

// GenerateCode creates a code of specified length from a given character set.
func GenerateCode(length int, charset string) (string, error) {
	if length < 1 {
		return "", ErrInvalidLength
	}
	if len(charset) == 0 {
		return "", errors.New("charset cannot be empty")
	}

	return generateFromCharset(length, charset)
}

// NormalizeCode normalizes a code for comparison (uppercase, trim whitespace).
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// FormatCode formats a code with dashes for readability.
// e.g., "ABCD1234" -> "ABCD-1234" with groupSize=4
func FormatCode(code string, groupSize int) string {
	if groupSize < 1 || len(code) <= groupSize {
		return code
	}

	var parts []string
	for i := 0; i < len(code); i += groupSize {
		end := min(i+groupSize, len(code))
		parts = append(parts, code[i:end])
	}

	return strings.Join(parts, "-")
}

// ParseCode removes formatting (dashes, spaces) from a code.
func ParseCode(formatted string) string {
	code := strings.ReplaceAll(formatted, "-", "")
	code = strings.ReplaceAll(code, " ", "")
	return strings.ToUpper(strings.TrimSpace(code))
}

// CanonicalToken normalizes a pasted session token to its stored form.
func CanonicalToken(s string) string {
	return FormatCode(ParseCode(s), GroupSize)
}

func generateFromCharset(length int, charset string) (string, error) {
	result := make([]byte, length)
	max := big.NewInt(int64(len(charset)))

	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("failed to generate random character: %w", err)
		}
		result[i] = charset[n.Int64()]
	}

	return string(result), nil
}
