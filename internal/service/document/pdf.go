package document

import (
	"bytes"
	"fmt"
	"io"
	"time"

	"github.com/go-pdf/fpdf"
)

// WritePDF serializes the laid-out pages. Positions are used as computed, so
// the PDF pages match doc.Pages one to one.
func (doc *PaginatedDocument) WritePDF(w io.Writer) error {
	g := doc.Geometry
	pdf := fpdf.NewCustom(&fpdf.InitType{
		UnitStr: "mm",
		Size:    fpdf.SizeType{Wd: g.PageWidth, Ht: g.PageHeight},
	})
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetMargins(g.SideMargin, g.TopMargin, g.SideMargin)
	pdf.SetTitle("Report "+doc.ReportID, true)
	pdf.SetCreator("playcare", true)
	pdf.SetCreationDate(time.Unix(0, 0).UTC())
	pdf.SetCatalogSort(true)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetDrawColor(160, 160, 160)
	pdf.SetFillColor(235, 240, 245)
	for _, p := range doc.Pages {
		pdf.AddPage()
		for _, e := range p.Elements {
			switch el := e.(type) {
			case Text:
				pdf.SetFont(fontFamily, fontStyle(el.Bold), el.Size)
				// fpdf places text on its baseline
				pdf.Text(el.X, el.Y+el.Size*ptToMM, tr(el.Value))
			case Rule:
				pdf.Line(el.X1, el.Y1, el.X2, el.Y2)
			case Box:
				style := "D"
				if el.Fill {
					style = "FD"
				}
				pdf.Rect(el.X, el.Y, el.W, el.H, style)
			default:
				panic(fmt.Sprintf("document: unhandled element %T", e))
			}
		}

		pdf.SetFont(fontFamily, "", footerSize)
		y := g.PageHeight - g.FooterMargin/2
		pdf.Text(g.SideMargin, y, tr(p.Footer.Label))
		label := tr(p.Footer.PageLabel)
		pdf.Text(g.PageWidth-g.SideMargin-pdf.GetStringWidth(label), y, label)
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

// PDF returns the serialized document.
func (doc *PaginatedDocument) PDF() ([]byte, error) {
	var buf bytes.Buffer
	if err := doc.WritePDF(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
