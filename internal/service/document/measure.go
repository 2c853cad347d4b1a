package document

import (
	"github.com/go-pdf/fpdf"
)

const (
	fontFamily = "Helvetica"
	ptToMM     = 25.4 / 72
)

// Measurer returns the printed width of s in millimetres.
type Measurer interface {
	Width(s string, size float64, bold bool) float64
}

// fontMeasurer uses the built-in Helvetica metrics, the same font the PDF
// writer draws with, so wrapped lines never overflow their column.
type fontMeasurer struct {
	pdf *fpdf.Fpdf
	tr  func(string) string
}

func newFontMeasurer() *fontMeasurer {
	pdf := fpdf.New("P", "mm", "A4", "")
	return &fontMeasurer{pdf: pdf, tr: pdf.UnicodeTranslatorFromDescriptor("")}
}

func (m *fontMeasurer) Width(s string, size float64, bold bool) float64 {
	m.pdf.SetFont(fontFamily, fontStyle(bold), size)
	return m.pdf.GetStringWidth(m.tr(s))
}

func fontStyle(bold bool) string {
	if bold {
		return "B"
	}
	return ""
}

func lineHeight(size float64) float64 {
	return size * ptToMM * 1.4
}
