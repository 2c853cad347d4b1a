package report

import (
	"fmt"
	"strings"

	"github.com/Alijeyrad/playcare_backend/internal/repo"
)

const systemPrompt = `You help child therapists write progress reports about game-based therapy sessions.
Answer with a single JSON object and nothing else:
{"summary": "...", "progress": "...", "recommendations": "..."}
Write in a warm, professional tone. Do not invent sessions or scores.`

func buildPrompt(p *repo.Patient, sessions []*repo.Session, notes string) string {
	var b strings.Builder

	b.WriteString("Patient\n")
	fmt.Fprintf(&b, "- Name: %s\n", p.Name)
	if p.Age > 0 {
		fmt.Fprintf(&b, "- Age: %d\n", p.Age)
	}
	if p.Condition != "" {
		fmt.Fprintf(&b, "- Condition: %s\n", p.Condition)
	}

	fmt.Fprintf(&b, "\nSessions (%d)\n", len(sessions))
	for _, s := range sessions {
		fmt.Fprintf(&b, "- %s, %s", s.Date.Format("2006-01-02"), s.GameData.GameName)
		if s.GameData.Score != nil {
			fmt.Fprintf(&b, ", score %g", *s.GameData.Score)
		}
		if s.Rating != nil {
			fmt.Fprintf(&b, ", rating %d/5", *s.Rating)
		}
		if s.Review != nil && *s.Review != "" {
			fmt.Fprintf(&b, ", review: %q", *s.Review)
		}
		b.WriteString("\n")
	}

	if notes = strings.TrimSpace(notes); notes != "" {
		b.WriteString("\nTherapist notes\n")
		b.WriteString(notes)
		b.WriteString("\n")
	}
	return b.String()
}
