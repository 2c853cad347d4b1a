package patient

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/Alijeyrad/playcare_backend/internal/repo"
	"github.com/Alijeyrad/playcare_backend/pkg/apperr"
	"github.com/Alijeyrad/playcare_backend/pkg/reqctx"
	"github.com/Alijeyrad/playcare_backend/pkg/util/codes"
)

const codeAttempts = 5

// ---------------------------------------------------------------------------
// DTOs
// ---------------------------------------------------------------------------

type CreatePatientRequest struct {
	Name        string
	Email       string
	Age         int
	Condition   string
	TherapistID string
}

type Stats struct {
	TotalSessions      int     `json:"totalSessions"`
	ReviewedSessions   int     `json:"reviewedSessions"`
	AverageRating      float64 `json:"averageRating"`
	SessionsWithData   int     `json:"sessionsWithData"`
	DaysSinceFirstPlay int     `json:"daysSinceFirstPlay"`
}

// ---------------------------------------------------------------------------
// Service interface
// ---------------------------------------------------------------------------

type Service interface {
	Create(ctx context.Context, req CreatePatientRequest) (*repo.Patient, error)
	Get(ctx context.Context, patientID string) (*repo.Patient, error)
	// GetByCode loads a patient from the code an instructor types in.
	GetByCode(ctx context.Context, userCode string) (*repo.Patient, error)
	ListByTherapist(ctx context.Context, therapistID string) ([]*repo.Patient, error)
	Stats(ctx context.Context, patientID string) (*Stats, error)
}

// ---------------------------------------------------------------------------
// Implementation
// ---------------------------------------------------------------------------

type patientService struct {
	patients repo.PatientStore
	sessions repo.SessionStore
	codes    *codes.Generator
	now      func() time.Time
}

func New(patients repo.PatientStore, sessions repo.SessionStore, gen *codes.Generator) Service {
	return &patientService{patients: patients, sessions: sessions, codes: gen, now: time.Now}
}

func (s *patientService) Create(ctx context.Context, req CreatePatientRequest) (*repo.Patient, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	if req.Name == "" {
		return nil, apperr.Invalid("name", "required")
	}
	if req.Email != "" {
		if _, err := mail.ParseAddress(req.Email); err != nil {
			return nil, apperr.Invalid("email", "not a valid address")
		}
	}
	if req.Age < 0 || req.Age > 130 {
		return nil, apperr.Invalid("age", "must be between 0 and 130, got %d", req.Age)
	}
	if req.TherapistID == "" {
		req.TherapistID = reqctx.ActorID(ctx)
	}
	if req.TherapistID == "" {
		return nil, apperr.Invalid("therapistId", "required")
	}
	if !reqctx.Owns(ctx, req.TherapistID) {
		return nil, ErrAccessDenied
	}

	p := &repo.Patient{
		TherapistID: req.TherapistID,
		Name:        req.Name,
		Email:       req.Email,
		Age:         req.Age,
		Condition:   strings.TrimSpace(req.Condition),
	}
	for range codeAttempts {
		code, err := s.codes.PatientCode()
		if err != nil {
			return nil, fmt.Errorf("generate patient code: %w", err)
		}
		p.UserCode = code

		err = s.patients.CreatePatient(ctx, p)
		if errors.Is(err, repo.ErrDuplicate) {
			continue
		}
		if err != nil {
			return nil, apperr.Persistence("create patient", err)
		}
		slog.InfoContext(ctx, "patient_created", "patient_id", p.ID, "therapist_id", p.TherapistID)
		return p, nil
	}
	return nil, ErrCodeExhausted
}

func (s *patientService) Get(ctx context.Context, patientID string) (*repo.Patient, error) {
	p, err := s.patients.GetPatient(ctx, patientID)
	if err != nil {
		if repo.IsNotFound(err) {
			return nil, ErrPatientNotFound
		}
		return nil, apperr.Persistence("get patient", err)
	}
	return p, nil
}

func (s *patientService) GetByCode(ctx context.Context, userCode string) (*repo.Patient, error) {
	code := codes.ParseCode(userCode)
	if code == "" {
		return nil, apperr.Invalid("userCode", "required")
	}
	p, err := s.patients.GetPatientByCode(ctx, code)
	if err != nil {
		if repo.IsNotFound(err) {
			return nil, ErrPatientNotFound
		}
		return nil, apperr.Persistence("get patient by code", err)
	}
	return p, nil
}

func (s *patientService) ListByTherapist(ctx context.Context, therapistID string) ([]*repo.Patient, error) {
	if therapistID == "" {
		return nil, apperr.Invalid("therapistId", "required")
	}
	out, err := s.patients.ListPatientsByTherapist(ctx, therapistID)
	if err != nil {
		return nil, apperr.Persistence("list patients", err)
	}
	return out, nil
}

func (s *patientService) Stats(ctx context.Context, patientID string) (*Stats, error) {
	if _, err := s.Get(ctx, patientID); err != nil {
		return nil, err
	}
	sessions, err := s.sessions.ListSessions(ctx, repo.SessionFilter{PatientID: patientID})
	if err != nil {
		return nil, apperr.Persistence("list sessions", err)
	}

	st := &Stats{TotalSessions: len(sessions)}
	var (
		total int
		first time.Time
	)
	for _, sess := range sessions {
		if sess.Rating != nil {
			st.ReviewedSessions++
			total += *sess.Rating
		}
		if sess.GameData.Score != nil || len(sess.GameData.Analytics) > 0 {
			st.SessionsWithData++
		}
		if first.IsZero() || sess.Date.Before(first) {
			first = sess.Date
		}
	}
	if st.ReviewedSessions > 0 {
		st.AverageRating = float64(total) / float64(st.ReviewedSessions)
	}
	if !first.IsZero() {
		st.DaysSinceFirstPlay = int(s.now().Sub(first).Hours() / 24)
	}
	return st, nil
}
