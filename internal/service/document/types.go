package document

import (
	"github.com/Alijeyrad/playcare_backend/config"
	"github.com/Alijeyrad/playcare_backend/pkg/apperr"
)

// Geometry is the page setup in millimetres.
type Geometry struct {
	PageWidth        float64
	PageHeight       float64
	TopMargin        float64
	FooterMargin     float64
	SideMargin       float64
	MinSectionHeight float64
}

// DefaultGeometry is A4 portrait.
func DefaultGeometry() Geometry {
	return Geometry{
		PageWidth:        210,
		PageHeight:       297,
		TopMargin:        20,
		FooterMargin:     20,
		SideMargin:       15,
		MinSectionHeight: 60,
	}
}

// GeometryFromConfig overlays the configured values on the A4 defaults.
func GeometryFromConfig(c config.DocumentConfig) Geometry {
	g := DefaultGeometry()
	if c.PageWidth > 0 {
		g.PageWidth = c.PageWidth
	}
	if c.PageHeight > 0 {
		g.PageHeight = c.PageHeight
	}
	if c.TopMargin > 0 {
		g.TopMargin = c.TopMargin
	}
	if c.FooterMargin > 0 {
		g.FooterMargin = c.FooterMargin
	}
	if c.MinSectionHeight > 0 {
		g.MinSectionHeight = c.MinSectionHeight
	}
	return g
}

func (g Geometry) validate() error {
	if g.PageWidth <= 2*g.SideMargin {
		return apperr.Invalid("document.page_width", "side margins leave no room for content")
	}
	if g.PageHeight <= g.TopMargin+g.FooterMargin {
		return apperr.Invalid("document.page_height", "margins leave no room for content")
	}
	return nil
}

func (g Geometry) contentWidth() float64 { return g.PageWidth - 2*g.SideMargin }

// bottom is the lowest y content may reach.
func (g Geometry) bottom() float64 { return g.PageHeight - g.FooterMargin }

// Element is one drawing primitive: Text, Rule or Box.
type Element interface {
	element()
}

// Text is a single line; Y is the top of the line box.
type Text struct {
	X, Y  float64
	Size  float64
	Bold  bool
	Value string
}

type Rule struct {
	X1, Y1, X2, Y2 float64
}

type Box struct {
	X, Y, W, H float64
	Fill       bool
}

func (Text) element() {}
func (Rule) element() {}
func (Box) element()  {}

type Footer struct {
	Label     string `json:"label"`
	PageLabel string `json:"pageLabel"`
}

type Page struct {
	Number   int       `json:"number"`
	Elements []Element `json:"-"`
	Footer   Footer    `json:"footer"`
}

// PaginatedDocument is a laid-out report ready to serialize.
type PaginatedDocument struct {
	ReportID string   `json:"reportId"`
	FileName string   `json:"fileName"`
	Geometry Geometry `json:"-"`
	Pages    []Page   `json:"pages"`
}

// Texts returns every text line on the page, in drawing order.
func (p *Page) Texts() []string {
	var out []string
	for _, e := range p.Elements {
		if t, ok := e.(Text); ok {
			out = append(out, t.Value)
		}
	}
	return out
}

// Therapist is the author block of a report.
type Therapist struct {
	ID    string
	Name  string
	Email string
}
