// Package report drafts and finalizes therapist progress reports.
package report

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/google/uuid"

	"github.com/Alijeyrad/playcare_backend/config"
	"github.com/Alijeyrad/playcare_backend/internal/repo"
	"github.com/Alijeyrad/playcare_backend/pkg/apperr"
	"github.com/Alijeyrad/playcare_backend/pkg/events"
	"github.com/Alijeyrad/playcare_backend/pkg/llm"
	"github.com/Alijeyrad/playcare_backend/pkg/observability"
	"github.com/Alijeyrad/playcare_backend/pkg/reqctx"
	"github.com/Alijeyrad/playcare_backend/pkg/util/codes"
)

const defaultTitle = "Progress Report"

// ---------------------------------------------------------------------------
// DTOs
// ---------------------------------------------------------------------------

type DraftRequest struct {
	PatientID  string
	SessionIDs []string
	Notes      string
}

type FinalizeRequest struct {
	Title           string
	Summary         string
	Progress        string
	Recommendations string
	SessionIDs      []string
	PatientID       string
	TherapistID     string
	// AIDraft is the draft the text was edited from, kept as an echo.
	AIDraft *Draft
}

// Options bound the assistant call.
type Options struct {
	Timeout    time.Duration
	MaxRetries int
	RetryDelay time.Duration
}

func OptionsFromConfig(c config.AIConfig) Options {
	o := Options{
		Timeout:    time.Duration(c.TimeoutSeconds) * time.Second,
		MaxRetries: c.MaxRetries,
		RetryDelay: 500 * time.Millisecond,
	}
	if o.Timeout <= 0 {
		o.Timeout = 30 * time.Second
	}
	o.MaxRetries = min(max(o.MaxRetries, 0), 1)
	return o
}

// ---------------------------------------------------------------------------
// Service interface
// ---------------------------------------------------------------------------

type Service interface {
	// ComposeDraft asks the assistant for narrative text. Assistant failures
	// and unreadable replies come back as placeholder drafts, not errors.
	ComposeDraft(ctx context.Context, req DraftRequest) (*Draft, error)
	Finalize(ctx context.Context, req FinalizeRequest) (*repo.Report, error)
	Get(ctx context.Context, reportID string) (*repo.Report, error)
	List(ctx context.Context, therapistID string) ([]*repo.Report, error)
	Delete(ctx context.Context, reportID string) error
}

// ---------------------------------------------------------------------------
// Implementation
// ---------------------------------------------------------------------------

type reportService struct {
	patients  repo.PatientStore
	sessions  repo.SessionStore
	reports   repo.ReportStore
	assistant llm.Client
	events    events.Publisher
	opts      Options
	now       func() time.Time
}

func New(
	patients repo.PatientStore,
	sessions repo.SessionStore,
	reports repo.ReportStore,
	assistant llm.Client,
	pub events.Publisher,
	opts Options,
) Service {
	return &reportService{
		patients:  patients,
		sessions:  sessions,
		reports:   reports,
		assistant: assistant,
		events:    pub,
		opts:      opts,
		now:       time.Now,
	}
}

func (s *reportService) ComposeDraft(ctx context.Context, req DraftRequest) (*Draft, error) {
	patient, err := s.loadPatient(ctx, req.PatientID)
	if err != nil {
		return nil, err
	}
	sessions, err := s.patientSessions(ctx, patient.ID, req.SessionIDs)
	if err != nil {
		return nil, err
	}

	prompt := buildPrompt(patient, sessions, req.Notes)
	reply, err := s.ask(ctx, prompt)
	if err != nil {
		observability.DraftOutcome(ctx, string(SourceUnavailable))
		if ctx.Err() != nil {
			slog.InfoContext(ctx, "draft_cancelled", "patient_id", patient.ID)
		} else {
			slog.WarnContext(ctx, "draft_fallback",
				"patient_id", patient.ID, "reason", "assistant", "error", apperr.External("assistant", err))
		}
		d := unavailableDraft()
		return &d, nil
	}

	d := ParseDraft(reply).Draft()
	observability.DraftOutcome(ctx, string(d.Source))
	if d.Source == SourceRawFallback {
		slog.WarnContext(ctx, "draft_fallback", "patient_id", patient.ID, "reason", "unparsable reply")
	}
	return &d, nil
}

// ask calls the assistant with a per-attempt timeout and at most
// opts.MaxRetries retries. Cancelling ctx stops both.
func (s *reportService) ask(ctx context.Context, prompt string) (string, error) {
	attempt := func() (string, error) {
		actx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
		defer cancel()

		reply, err := s.assistant.Complete(actx, systemPrompt, prompt)
		if errors.Is(err, llm.ErrDisabled) {
			return "", backoff.Permanent(err)
		}
		return reply, err
	}

	return backoff.Retry(ctx, attempt,
		backoff.WithBackOff(backoff.NewConstantBackOff(s.opts.RetryDelay)),
		backoff.WithMaxTries(uint(s.opts.MaxRetries+1)),
	)
}

func (s *reportService) Finalize(ctx context.Context, req FinalizeRequest) (*repo.Report, error) {
	if len(req.SessionIDs) == 0 {
		return nil, apperr.Invalid("sessionIds", "select at least one session")
	}
	if strings.TrimSpace(req.Summary) == "" {
		return nil, apperr.Invalid("summary", "required")
	}

	patient, err := s.loadPatient(ctx, req.PatientID)
	if err != nil {
		return nil, err
	}
	if req.TherapistID == "" {
		req.TherapistID = patient.TherapistID
	}
	if req.TherapistID != patient.TherapistID || !reqctx.Owns(ctx, req.TherapistID) {
		return nil, ErrNotOwner
	}

	sessions, err := s.patientSessions(ctx, patient.ID, req.SessionIDs)
	if err != nil {
		return nil, err
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		title = defaultTitle
	}
	r := &repo.Report{
		ID:          uuid.NewString(),
		TherapistID: req.TherapistID,
		PatientID:   patient.ID,
		Data: repo.ReportData{
			Title:           title,
			Summary:         strings.TrimSpace(req.Summary),
			Progress:        strings.TrimSpace(req.Progress),
			Recommendations: strings.TrimSpace(req.Recommendations),
		},
		CreatedAt: s.now().UTC(),
	}
	if d := req.AIDraft; d != nil {
		r.Data.AIGenerated = &repo.AIDraftEcho{
			Summary:         d.Summary,
			Progress:        d.Progress,
			Recommendations: d.Recommendations,
			Structured:      d.Source == SourceStructured,
		}
	}
	for _, sess := range sessions {
		r.SessionIDs = append(r.SessionIDs, sess.Token)
		r.Sessions = append(r.Sessions, snapshot(sess))
	}

	if err := s.reports.CreateReport(ctx, r); err != nil {
		return nil, apperr.Persistence("create report", err)
	}

	err = s.events.Publish(ctx, events.SubjectReportFinalized, events.ReportEvent{
		ReportID:    r.ID,
		PatientID:   r.PatientID,
		TherapistID: r.TherapistID,
		Sessions:    len(r.Sessions),
	})
	if err != nil {
		slog.WarnContext(ctx, "report event not published", "report_id", r.ID, "error", err)
	}
	slog.InfoContext(ctx, "report_finalized",
		"report_id", r.ID, "patient_id", r.PatientID, "sessions", len(r.Sessions))
	return r, nil
}

func (s *reportService) Get(ctx context.Context, reportID string) (*repo.Report, error) {
	r, err := s.reports.GetReport(ctx, reportID)
	if err != nil {
		if repo.IsNotFound(err) {
			return nil, ErrReportNotFound
		}
		return nil, apperr.Persistence("get report", err)
	}
	if !reqctx.Owns(ctx, r.TherapistID) {
		return nil, ErrNotOwner
	}
	return r, nil
}

func (s *reportService) List(ctx context.Context, therapistID string) ([]*repo.Report, error) {
	if therapistID == "" {
		return nil, apperr.Invalid("therapistId", "required")
	}
	if !reqctx.Owns(ctx, therapistID) {
		return nil, ErrNotOwner
	}
	out, err := s.reports.ListReports(ctx, therapistID)
	if err != nil {
		return nil, apperr.Persistence("list reports", err)
	}
	return out, nil
}

func (s *reportService) Delete(ctx context.Context, reportID string) error {
	if _, err := s.Get(ctx, reportID); err != nil {
		return err
	}
	if err := s.reports.DeleteReport(ctx, reportID); err != nil {
		if repo.IsNotFound(err) {
			return ErrReportNotFound
		}
		return apperr.Persistence("delete report", err)
	}
	slog.InfoContext(ctx, "report_deleted", "report_id", reportID)
	return nil
}

func (s *reportService) loadPatient(ctx context.Context, patientID string) (*repo.Patient, error) {
	if patientID == "" {
		return nil, apperr.Invalid("patientId", "required")
	}
	p, err := s.patients.GetPatient(ctx, patientID)
	if err != nil {
		if repo.IsNotFound(err) {
			return nil, ErrPatientNotFound
		}
		return nil, apperr.Persistence("load patient", err)
	}
	return p, nil
}

// patientSessions loads the requested sessions in request order and fails
// when any of them is unknown or belongs to another patient.
func (s *reportService) patientSessions(ctx context.Context, patientID string, ids []string) ([]*repo.Session, error) {
	tokens := make([]string, 0, len(ids))
	for _, id := range ids {
		tok := codes.CanonicalToken(id)
		if tok == "" || slices.Contains(tokens, tok) {
			continue
		}
		tokens = append(tokens, tok)
	}
	if len(tokens) == 0 {
		return nil, nil
	}

	found, err := s.sessions.ListSessions(ctx, repo.SessionFilter{PatientID: patientID, Tokens: tokens})
	if err != nil {
		return nil, apperr.Persistence("list sessions", err)
	}
	byToken := make(map[string]*repo.Session, len(found))
	for _, sess := range found {
		byToken[sess.Token] = sess
	}

	out := make([]*repo.Session, 0, len(tokens))
	for _, tok := range tokens {
		sess, ok := byToken[tok]
		if !ok {
			return nil, apperr.Invalid("sessionIds", "session %s does not belong to this patient", tok)
		}
		out = append(out, sess)
	}
	return out, nil
}

func snapshot(s *repo.Session) repo.SessionSnapshot {
	snap := repo.SessionSnapshot{
		SessionID: s.Token,
		Date:      s.Date,
		GameName:  s.GameData.GameName,
		Status:    string(s.Status),
	}
	if s.GameData.Score != nil {
		v := *s.GameData.Score
		snap.Score = &v
	}
	if s.Rating != nil {
		v := *s.Rating
		snap.Rating = &v
	}
	if s.Review != nil {
		snap.Review = *s.Review
	}
	return snap
}
