package document

import (
	"strings"
	"unicode/utf8"
)

// layout places elements top to bottom and opens pages as it goes.
type layout struct {
	g     Geometry
	m     Measurer
	pages []Page
	y     float64
}

func newLayout(g Geometry, m Measurer) *layout {
	l := &layout{g: g, m: m}
	l.newPage()
	return l
}

func (l *layout) newPage() {
	l.pages = append(l.pages, Page{Number: len(l.pages) + 1})
	l.y = l.g.TopMargin
}

func (l *layout) add(e Element) {
	p := &l.pages[len(l.pages)-1]
	p.Elements = append(p.Elements, e)
}

// remaining is the free height above the footer on the current page.
func (l *layout) remaining() float64 {
	return l.g.PageHeight - l.y - l.g.FooterMargin
}

// startSection breaks the page when less than the minimum section height is
// left, so no section begins squeezed against the footer.
func (l *layout) startSection() {
	if l.remaining() < l.g.MinSectionHeight && l.y > l.g.TopMargin {
		l.newPage()
	}
}

// ensure breaks the page when h does not fit.
func (l *layout) ensure(h float64) {
	if l.y+h > l.g.bottom() && l.y > l.g.TopMargin {
		l.newPage()
	}
}

func (l *layout) gap(h float64) {
	l.y += h
}

func (l *layout) text(s string, size float64, bold bool, indent float64) {
	lh := lineHeight(size)
	l.ensure(lh)
	l.add(Text{X: l.g.SideMargin + indent, Y: l.y, Size: size, Bold: bold, Value: s})
	l.y += lh
}

func (l *layout) paragraph(s string, size float64) {
	for _, line := range wrap(l.m, s, size, false, l.g.contentWidth()) {
		l.text(line, size, false, 0)
	}
}

func (l *layout) heading(s string) {
	l.text(s, headingSize, true, 0)
	l.add(Rule{X1: l.g.SideMargin, Y1: l.y, X2: l.g.PageWidth - l.g.SideMargin, Y2: l.y})
	l.gap(2)
}

type column struct {
	title string
	// share of the content width
	share float64
}

// table draws rows with a repeated header row on every page it spans.
func (l *layout) table(cols []column, rows [][]string) {
	const pad = 1.5
	lh := lineHeight(tableSize)
	width := l.g.contentWidth()

	widths := make([]float64, len(cols))
	for i, c := range cols {
		widths[i] = c.share * width
	}
	headerH := lh + 2*pad
	// a single row never grows beyond what an empty page can hold
	maxLines := max(1, int((l.g.bottom()-l.g.TopMargin-headerH-2*pad)/lh))

	drawRow := func(cells [][]string, h float64, header bool) {
		x := l.g.SideMargin
		for i, lines := range cells {
			l.add(Box{X: x, Y: l.y, W: widths[i], H: h, Fill: header})
			for j, line := range lines {
				l.add(Text{X: x + pad, Y: l.y + pad + float64(j)*lh, Size: tableSize, Bold: header, Value: line})
			}
			x += widths[i]
		}
		l.y += h
	}
	header := make([][]string, len(cols))
	for i, c := range cols {
		header[i] = []string{c.title}
	}

	l.ensure(headerH + lh + 2*pad)
	drawRow(header, headerH, true)

	for _, row := range rows {
		cells := make([][]string, len(cols))
		n := 1
		for i := range cols {
			var v string
			if i < len(row) {
				v = row[i]
			}
			lines := wrap(l.m, v, tableSize, false, widths[i]-2*pad)
			if len(lines) > maxLines {
				lines = lines[:maxLines]
				lines[maxLines-1] = ellipsize(l.m, lines[maxLines-1], widths[i]-2*pad)
			}
			cells[i] = lines
			n = max(n, len(lines))
		}
		h := float64(n)*lh + 2*pad

		if l.y+h > l.g.bottom() {
			l.newPage()
			drawRow(header, headerH, true)
		}
		drawRow(cells, h, false)
	}
}

// wrap breaks s into lines no wider than width. Explicit newlines are kept.
func wrap(m Measurer, s string, size float64, bold bool, width float64) []string {
	var out []string
	for _, para := range strings.Split(s, "\n") {
		words := strings.Fields(para)
		if len(words) == 0 {
			out = append(out, "")
			continue
		}
		var cur string
		for _, w := range words {
			for m.Width(w, size, bold) > width && utf8.RuneCountInString(w) > 1 {
				// the word alone is too wide: flush and hard-split it
				if cur != "" {
					out = append(out, cur)
					cur = ""
				}
				head, tail := splitToWidth(m, w, size, bold, width)
				out = append(out, head)
				w = tail
			}
			switch {
			case cur == "":
				cur = w
			case m.Width(cur+" "+w, size, bold) <= width:
				cur += " " + w
			default:
				out = append(out, cur)
				cur = w
			}
		}
		out = append(out, cur)
	}
	return out
}

func splitToWidth(m Measurer, w string, size float64, bold bool, width float64) (string, string) {
	runes := []rune(w)
	n := 1
	for n < len(runes) && m.Width(string(runes[:n+1]), size, bold) <= width {
		n++
	}
	return string(runes[:n]), string(runes[n:])
}

func ellipsize(m Measurer, s string, width float64) string {
	const dots = "..."
	runes := []rune(s)
	for len(runes) > 0 && m.Width(string(runes)+dots, tableSize, false) > width {
		runes = runes[:len(runes)-1]
	}
	return string(runes) + dots
}
