// Package session runs the therapy session lifecycle: active, then closed.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Alijeyrad/playcare_backend/internal/repo"
	"github.com/Alijeyrad/playcare_backend/internal/service/gameconfig"
	"github.com/Alijeyrad/playcare_backend/pkg/apperr"
	"github.com/Alijeyrad/playcare_backend/pkg/events"
	"github.com/Alijeyrad/playcare_backend/pkg/lock"
	"github.com/Alijeyrad/playcare_backend/pkg/observability"
	"github.com/Alijeyrad/playcare_backend/pkg/reqctx"
	"github.com/Alijeyrad/playcare_backend/pkg/util/codes"
)

const (
	tokenAttempts = 5
	lockWait      = 5 * time.Second
)

// ---------------------------------------------------------------------------
// DTOs
// ---------------------------------------------------------------------------

type CreateRequest struct {
	PatientID    string
	InstructorID string
	GameName     string
}

type ReviewRequest struct {
	SessionID string
	Review
}

// UserType selects which participant column ListFilter.UserID matches.
type UserType string

const (
	UserTherapist  UserType = "therapist"
	UserInstructor UserType = "instructor"
	UserPatient    UserType = "patient"
)

// ListFilter selects sessions either by PatientID or by UserID and UserType.
type ListFilter struct {
	PatientID string
	UserID    string
	UserType  UserType
	Status    repo.SessionStatus
}

type TherapistStats struct {
	Patients      int     `json:"patients"`
	Sessions      int     `json:"sessions"`
	Active        int     `json:"active"`
	Reviewed      int     `json:"reviewed"`
	AverageRating float64 `json:"averageRating"`
}

// ---------------------------------------------------------------------------
// Service interface
// ---------------------------------------------------------------------------

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*repo.Session, error)
	AttachReview(ctx context.Context, req ReviewRequest) (*repo.Session, error)
	Close(ctx context.Context, sessionID string) (*repo.Session, error)
	Get(ctx context.Context, sessionID string) (*repo.Session, error)
	List(ctx context.Context, f ListFilter) ([]*repo.Session, error)
	// ListActive returns the sessions a review can be attached to.
	ListActive(ctx context.Context, patientID string) ([]*repo.Session, error)
	TherapistStats(ctx context.Context, therapistID string) (*TherapistStats, error)
}

// ---------------------------------------------------------------------------
// Implementation
// ---------------------------------------------------------------------------

type sessionService struct {
	patients repo.PatientStore
	sessions repo.SessionStore
	configs  gameconfig.Service
	locker   lock.Locker
	events   events.Publisher
	codes    *codes.Generator
	now      func() time.Time
}

func New(
	patients repo.PatientStore,
	sessions repo.SessionStore,
	configs gameconfig.Service,
	locker lock.Locker,
	pub events.Publisher,
	gen *codes.Generator,
) Service {
	return &sessionService{
		patients: patients,
		sessions: sessions,
		configs:  configs,
		locker:   locker,
		events:   pub,
		codes:    gen,
		now:      time.Now,
	}
}

func (s *sessionService) Create(ctx context.Context, req CreateRequest) (*repo.Session, error) {
	if req.PatientID == "" {
		return nil, apperr.Invalid("patientId", "required")
	}
	if req.InstructorID == "" {
		return nil, apperr.Invalid("instructorId", "required")
	}
	if req.GameName == "" {
		return nil, apperr.Invalid("gameName", "required")
	}

	patient, err := s.patients.GetPatient(ctx, req.PatientID)
	if err != nil {
		if repo.IsNotFound(err) {
			return nil, ErrPatientNotFound
		}
		return nil, apperr.Persistence("load patient", err)
	}

	cfg, err := s.configs.Get(ctx, req.PatientID, req.GameName)
	if err != nil {
		return nil, err
	}
	if !cfg.Enabled {
		return nil, ErrGameDisabled
	}

	sess := &repo.Session{
		PatientID:    patient.ID,
		InstructorID: req.InstructorID,
		TherapistID:  patient.TherapistID,
		GameData:     repo.GameData{GameName: req.GameName, Status: string(repo.SessionActive)},
		Date:         s.now().UTC(),
		Status:       repo.SessionActive,
	}

	for range tokenAttempts {
		token, err := s.codes.SessionToken()
		if err != nil {
			return nil, fmt.Errorf("generate session id: %w", err)
		}
		sess.Token = token

		err = s.sessions.CreateSession(ctx, sess)
		if errors.Is(err, repo.ErrDuplicate) {
			continue
		}
		if err != nil {
			return nil, apperr.Persistence("create session", err)
		}

		s.emit(ctx, events.SubjectSessionCreated, "created", sess)
		slog.InfoContext(ctx, "session_created",
			"session_id", sess.Token, "patient_id", sess.PatientID, "game", req.GameName)
		return sess.Clone(), nil
	}
	return nil, ErrTokenExhausted
}

func (s *sessionService) AttachReview(ctx context.Context, req ReviewRequest) (*repo.Session, error) {
	return s.mutate(ctx, req.SessionID, func(sess *repo.Session) error {
		return applyReview(sess, req.Review, s.now().UTC())
	}, events.SubjectSessionReviewed, "reviewed")
}

func (s *sessionService) Close(ctx context.Context, sessionID string) (*repo.Session, error) {
	return s.mutate(ctx, sessionID, func(sess *repo.Session) error {
		return applyClose(sess, s.now().UTC())
	}, events.SubjectSessionClosed, "closed")
}

// mutate runs one transition under the session's lock, so a review and a
// close for the same session never interleave.
func (s *sessionService) mutate(
	ctx context.Context,
	sessionID string,
	transition func(*repo.Session) error,
	subject, kind string,
) (*repo.Session, error) {
	token := codes.CanonicalToken(sessionID)
	if token == "" {
		return nil, apperr.Invalid("sessionId", "required")
	}

	lctx, cancel := context.WithTimeout(ctx, lockWait)
	release, err := s.locker.Lock(lctx, "session:"+token)
	cancel()
	if err != nil {
		if errors.Is(err, lock.ErrNotAcquired) {
			return nil, ErrSessionBusy
		}
		return nil, apperr.Persistence("lock session", err)
	}
	defer release()

	sess, err := s.load(ctx, token)
	if err != nil {
		return nil, err
	}
	if !reqctx.Owns(ctx, sess.TherapistID) && !reqctx.Owns(ctx, sess.InstructorID) {
		return nil, ErrNotParticipant
	}

	next := sess.Clone()
	if err := transition(next); err != nil {
		slog.InfoContext(ctx, "session_transition_rejected",
			"session_id", token, "kind", kind, "status", sess.Status, "error", err)
		return nil, err
	}
	if err := s.sessions.UpdateSession(ctx, next); err != nil {
		return nil, apperr.Persistence("update session", err)
	}

	s.emit(ctx, subject, kind, next)
	slog.InfoContext(ctx, "session_"+kind, "session_id", token, "patient_id", next.PatientID)
	return next, nil
}

func (s *sessionService) Get(ctx context.Context, sessionID string) (*repo.Session, error) {
	token := codes.CanonicalToken(sessionID)
	if token == "" {
		return nil, apperr.Invalid("sessionId", "required")
	}
	return s.load(ctx, token)
}

func (s *sessionService) List(ctx context.Context, f ListFilter) ([]*repo.Session, error) {
	filter := repo.SessionFilter{Status: f.Status}
	switch {
	case f.PatientID != "":
		filter.PatientID = f.PatientID
	case f.UserID != "":
		switch f.UserType {
		case UserTherapist:
			filter.TherapistID = f.UserID
		case UserInstructor:
			filter.InstructorID = f.UserID
		case UserPatient:
			filter.PatientID = f.UserID
		default:
			return nil, apperr.Invalid("userType", "must be therapist, instructor or patient, got %q", f.UserType)
		}
	default:
		return nil, apperr.Invalid("patientId", "either patientId or userId with userType is required")
	}
	if f.Status != "" && f.Status != repo.SessionActive && f.Status != repo.SessionClosed {
		return nil, apperr.Invalid("status", "unknown status %q", f.Status)
	}

	out, err := s.sessions.ListSessions(ctx, filter)
	if err != nil {
		return nil, apperr.Persistence("list sessions", err)
	}
	return out, nil
}

func (s *sessionService) ListActive(ctx context.Context, patientID string) ([]*repo.Session, error) {
	return s.List(ctx, ListFilter{PatientID: patientID, Status: repo.SessionActive})
}

func (s *sessionService) TherapistStats(ctx context.Context, therapistID string) (*TherapistStats, error) {
	patients, err := s.patients.ListPatientsByTherapist(ctx, therapistID)
	if err != nil {
		return nil, apperr.Persistence("list patients", err)
	}
	sessions, err := s.sessions.ListSessions(ctx, repo.SessionFilter{TherapistID: therapistID})
	if err != nil {
		return nil, apperr.Persistence("list sessions", err)
	}

	st := &TherapistStats{Patients: len(patients), Sessions: len(sessions)}
	total := 0
	for _, sess := range sessions {
		if sess.Status == repo.SessionActive {
			st.Active++
		}
		if sess.Rating != nil {
			st.Reviewed++
			total += *sess.Rating
		}
	}
	if st.Reviewed > 0 {
		st.AverageRating = float64(total) / float64(st.Reviewed)
	}
	return st, nil
}

func (s *sessionService) load(ctx context.Context, token string) (*repo.Session, error) {
	sess, err := s.sessions.GetSessionByToken(ctx, token)
	if err != nil {
		if repo.IsNotFound(err) {
			return nil, ErrSessionNotFound
		}
		return nil, apperr.Persistence("load session", err)
	}
	return sess, nil
}

// emit publishes a state change. Delivery is best effort: the transition is
// already stored.
func (s *sessionService) emit(ctx context.Context, subject, kind string, sess *repo.Session) {
	observability.SessionTransition(ctx, kind)
	err := s.events.Publish(ctx, subject, events.SessionEvent{
		SessionID:   sess.Token,
		PatientID:   sess.PatientID,
		TherapistID: sess.TherapistID,
		Status:      string(sess.Status),
	})
	if err != nil {
		slog.WarnContext(ctx, "session event not published", "subject", subject, "error", err)
	}
}
