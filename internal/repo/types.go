package repo

import (
	"time"
)

type Patient struct {
	ID          string    `json:"id"`
	UserCode    string    `json:"userCode"`
	TherapistID string    `json:"therapistId"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Age         int       `json:"age"`
	Condition   string    `json:"condition"`
	CreatedAt   time.Time `json:"createdAt"`
}

type SessionStatus string

const (
	SessionActive SessionStatus = "active"
	SessionClosed SessionStatus = "closed"
)

type GameData struct {
	GameName  string         `json:"gameName"`
	Status    string         `json:"status,omitempty"`
	Score     *float64       `json:"score,omitempty"`
	Analytics map[string]any `json:"analytics,omitempty"`
}

type Session struct {
	ID           string        `json:"id"`
	Token        string        `json:"sessionId"`
	PatientID    string        `json:"patientId"`
	InstructorID string        `json:"instructorId"`
	TherapistID  string        `json:"therapistId"`
	GameData     GameData      `json:"gameData"`
	Rating       *int          `json:"rating,omitempty"`
	Review       *string       `json:"review,omitempty"`
	Date         time.Time     `json:"date"`
	Status       SessionStatus `json:"status"`
	ReviewedAt   *time.Time    `json:"reviewedAt,omitempty"`
	ClosedAt     *time.Time    `json:"closedAt,omitempty"`
}

// Reviewed reports whether a rating has been attached.
func (s *Session) Reviewed() bool { return s.Rating != nil }

// Clone returns a deep copy, so callers can mutate without touching shared state.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	out := *s
	out.GameData = s.GameData.clone()
	if s.Rating != nil {
		v := *s.Rating
		out.Rating = &v
	}
	if s.Review != nil {
		v := *s.Review
		out.Review = &v
	}
	if s.ReviewedAt != nil {
		v := *s.ReviewedAt
		out.ReviewedAt = &v
	}
	if s.ClosedAt != nil {
		v := *s.ClosedAt
		out.ClosedAt = &v
	}
	return &out
}

func (g GameData) clone() GameData {
	out := g
	if g.Score != nil {
		v := *g.Score
		out.Score = &v
	}
	if g.Analytics != nil {
		out.Analytics = CloneMap(g.Analytics)
	}
	return out
}

type SessionFilter struct {
	PatientID    string
	InstructorID string
	TherapistID  string
	Status       SessionStatus
	Tokens       []string
}

// GameConfig is the stored per-patient, per-game override document.
type GameConfig struct {
	PatientID string         `json:"patientId"`
	GameName  string         `json:"gameName"`
	Values    map[string]any `json:"values"`
	Version   int64          `json:"version"`
	UpdatedBy string         `json:"updatedBy,omitempty"`
	UpdatedAt time.Time      `json:"updatedAt"`
}

type AIDraftEcho struct {
	Summary         string `json:"summary"`
	Progress        string `json:"progress"`
	Recommendations string `json:"recommendations"`
	Structured      bool   `json:"structured"`
}

type ReportData struct {
	Title           string       `json:"title"`
	Summary         string       `json:"summary"`
	Progress        string       `json:"progress"`
	Recommendations string       `json:"recommendations"`
	AIGenerated     *AIDraftEcho `json:"aiGenerated,omitempty"`
}

// SessionSnapshot freezes the session fields a report shows.
type SessionSnapshot struct {
	SessionID string    `json:"sessionId"`
	Date      time.Time `json:"date"`
	GameName  string    `json:"gameName"`
	Score     *float64  `json:"score,omitempty"`
	Rating    *int      `json:"rating,omitempty"`
	Review    string    `json:"review,omitempty"`
	Status    string    `json:"status"`
}

type Report struct {
	ID          string            `json:"id"`
	TherapistID string            `json:"therapistId"`
	PatientID   string            `json:"patientId"`
	Data        ReportData        `json:"reportData"`
	SessionIDs  []string          `json:"sessionIds"`
	Sessions    []SessionSnapshot `json:"sessions"`
	CreatedAt   time.Time         `json:"createdAt"`
}

type ExportStatus string

const (
	ExportPending ExportStatus = "pending"
	ExportReady   ExportStatus = "ready"
	ExportFailed  ExportStatus = "failed"
)

// ReportExport tracks the rendered document of a report. It lives apart from
// the report so the report row stays write-once.
type ReportExport struct {
	ReportID  string       `json:"reportId"`
	Status    ExportStatus `json:"status"`
	FileName  string       `json:"fileName"`
	ObjectKey string       `json:"objectKey,omitempty"`
	Pages     int          `json:"pages"`
	Error     string       `json:"error,omitempty"`
	UpdatedAt time.Time    `json:"updatedAt"`
}

// CloneMap deep-copies nested map[string]any values; other values are shared.
func CloneMap(in map[string]any) map[string]any {
	if in == nil {
		return nil
	}
	out := make(map[string]any, len(in))
	for k, v := range in {
		if m, ok := v.(map[string]any); ok {
			out[k] = CloneMap(m)
			continue
		}
		out[k] = v
	}
	return out
}
