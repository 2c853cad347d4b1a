// Package document lays out finalized reports as paginated documents and
// writes them as PDF.
package document

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Alijeyrad/playcare_backend/internal/repo"
	"github.com/Alijeyrad/playcare_backend/pkg/apperr"
)

const (
	titleSize   = 18.0
	headingSize = 13.0
	bodySize    = 10.5
	metaSize    = 9.0
	tableSize   = 9.0
	footerSize  = 8.0

	notProvided = "Not provided."
)

var sessionColumns = []column{
	{title: "#", share: 0.06},
	{title: "Date", share: 0.15},
	{title: "Game", share: 0.18},
	{title: "Score", share: 0.10},
	{title: "Rating", share: 0.10},
	{title: "Review", share: 0.41},
}

type Renderer struct {
	geometry Geometry
	measurer func() Measurer
	now      func() time.Time
}

func New(g Geometry) *Renderer {
	return &Renderer{
		geometry: g,
		measurer: func() Measurer { return newFontMeasurer() },
		now:      time.Now,
	}
}

// Render lays out the report sections in their fixed order: header, patient,
// therapist, summary, progress, recommendations, sessions. The session rows
// come from sessions, or from the report's own snapshot when sessions is nil.
func (r *Renderer) Render(rep *repo.Report, patient *repo.Patient, therapist Therapist, sessions []repo.SessionSnapshot) (*PaginatedDocument, error) {
	if rep == nil {
		return nil, apperr.Invalid("report", "required")
	}
	if patient == nil {
		return nil, apperr.Invalid("patient", "required")
	}
	if err := r.geometry.validate(); err != nil {
		return nil, err
	}
	if sessions == nil {
		sessions = rep.Sessions
	}

	l := newLayout(r.geometry, r.measurer())

	// header
	l.text(rep.Data.Title, titleSize, true, 0)
	l.gap(1)
	l.text("Report ID: "+rep.ID, metaSize, false, 0)
	l.text("Created: "+rep.CreatedAt.Format("2006-01-02 15:04 MST"), metaSize, false, 0)
	l.gap(6)

	l.startSection()
	l.heading("Patient")
	l.text("Name: "+patient.Name, bodySize, false, 0)
	if patient.Age > 0 {
		l.text("Age: "+strconv.Itoa(patient.Age), bodySize, false, 0)
	}
	if patient.Condition != "" {
		l.paragraph("Condition: "+patient.Condition, bodySize)
	}
	l.text("Patient code: "+patient.UserCode, bodySize, false, 0)
	l.gap(5)

	l.startSection()
	l.heading("Therapist")
	name := therapist.Name
	if name == "" {
		name = therapist.ID
	}
	l.text("Name: "+name, bodySize, false, 0)
	if therapist.Email != "" {
		l.text("Email: "+therapist.Email, bodySize, false, 0)
	}
	l.gap(5)

	for _, sec := range []struct{ title, body string }{
		{"Summary", rep.Data.Summary},
		{"Progress Assessment", rep.Data.Progress},
		{"Recommendations", rep.Data.Recommendations},
	} {
		l.startSection()
		l.heading(sec.title)
		body := strings.TrimSpace(sec.body)
		if body == "" {
			body = notProvided
		}
		l.paragraph(body, bodySize)
		l.gap(5)
	}

	l.startSection()
	l.heading(fmt.Sprintf("Sessions (%d)", len(sessions)))
	rows := make([][]string, 0, len(sessions))
	for i, s := range sessions {
		rows = append(rows, sessionRow(i+1, s))
	}
	l.table(sessionColumns, rows)

	total := len(l.pages)
	for i := range l.pages {
		l.pages[i].Footer = Footer{
			Label:     "Report " + rep.ID,
			PageLabel: fmt.Sprintf("Page %d of %d", i+1, total),
		}
	}

	return &PaginatedDocument{
		ReportID: rep.ID,
		FileName: FileName(patient.Name, r.now()),
		Geometry: r.geometry,
		Pages:    l.pages,
	}, nil
}

func sessionRow(n int, s repo.SessionSnapshot) []string {
	score, rating, review := "-", "-", s.Review
	if s.Score != nil {
		score = strconv.FormatFloat(*s.Score, 'f', -1, 64)
	}
	if s.Rating != nil {
		rating = fmt.Sprintf("%d/5", *s.Rating)
	}
	if review == "" {
		review = "-"
	}
	return []string{
		strconv.Itoa(n),
		s.Date.Format("2006-01-02"),
		s.GameName,
		score,
		rating,
		review,
	}
}
