package document

import (
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// FileName returns "<patient-slug>_report_<YYYY-MM-DD>.pdf".
func FileName(patientName string, at time.Time) string {
	return Slug(patientName) + "_report_" + at.Format("2006-01-02") + ".pdf"
}

// Slug folds accents, lowercases and joins the remaining letters and digits
// with underscores. Names with nothing usable become "patient".
func Slug(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}

	var b strings.Builder
	sep := false
	for _, r := range strings.ToLower(folded) {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			if sep && b.Len() > 0 {
				b.WriteByte('_')
			}
			b.WriteRune(r)
			sep = false
			continue
		}
		sep = true
	}
	if b.Len() == 0 {
		return "patient"
	}
	return b.String()
}
