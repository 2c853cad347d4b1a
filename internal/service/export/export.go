// Package export turns finalized reports into downloadable documents, inline
// for small reports and through a background job for large ones.
package export

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/Alijeyrad/playcare_backend/config"
	"github.com/Alijeyrad/playcare_backend/internal/repo"
	"github.com/Alijeyrad/playcare_backend/internal/service/document"
	"github.com/Alijeyrad/playcare_backend/internal/service/report"
	"github.com/Alijeyrad/playcare_backend/pkg/apperr"
	"github.com/Alijeyrad/playcare_backend/pkg/email"
	"github.com/Alijeyrad/playcare_backend/pkg/events"
	"github.com/Alijeyrad/playcare_backend/pkg/observability"
	"github.com/Alijeyrad/playcare_backend/pkg/reqctx"
	"github.com/Alijeyrad/playcare_backend/pkg/s3"
)

const (
	pathInline     = "inline"
	pathBackground = "background"
)

// ---------------------------------------------------------------------------
// Collaborators
// ---------------------------------------------------------------------------

// Storage keeps rendered documents. *s3.Client implements it.
type Storage interface {
	Put(ctx context.Context, key, contentType, downloadName string, body []byte) error
	PresignGet(ctx context.Context, key string) (string, time.Time, error)
}

type Renderer interface {
	Render(rep *repo.Report, patient *repo.Patient, therapist document.Therapist, sessions []repo.SessionSnapshot) (*document.PaginatedDocument, error)
}

// ---------------------------------------------------------------------------
// DTOs
// ---------------------------------------------------------------------------

type Options struct {
	// Reports with more sessions than this render in the background.
	BackgroundThreshold int
	MaxConcurrentRender int
	// Queued publishes jobs for a worker pool; otherwise they run in-process.
	Queued bool
	// JobTimeout bounds one background render, upload and mail.
	JobTimeout time.Duration
	AppName    string
}

func OptionsFromConfig(c *config.Config) Options {
	return Options{
		BackgroundThreshold: c.Document.BackgroundThreshold,
		MaxConcurrentRender: c.Document.MaxConcurrentRender,
		Queued:              c.Nats.Enabled,
		AppName:             c.Email.AppName,
	}
}

// Result answers an export request. Document is set only when the export
// was rendered inline.
type Result struct {
	Export   *repo.ReportExport `json:"export"`
	Inline   bool               `json:"inline"`
	Document []byte             `json:"-"`
}

type Link struct {
	URL       string    `json:"url"`
	FileName  string    `json:"fileName"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// ---------------------------------------------------------------------------
// Service interface
// ---------------------------------------------------------------------------

type Service interface {
	Request(ctx context.Context, reportID string) (*Result, error)
	// Process runs one background job. Workers call it.
	Process(ctx context.Context, job events.ExportJob) error
	Status(ctx context.Context, reportID string) (*repo.ReportExport, error)
	Download(ctx context.Context, reportID string) (*Link, error)
}

// ---------------------------------------------------------------------------
// Implementation
// ---------------------------------------------------------------------------

type exportService struct {
	reports  report.Service
	patients repo.PatientStore
	exports  repo.ReportStore
	renderer Renderer
	storage  Storage
	mailer   email.Sender
	jobs     events.Publisher
	sem      *semaphore.Weighted
	opts     Options
	now      func() time.Time
}

// New builds the export service. storage may be nil when no bucket is
// configured; every export is then rendered inline and nothing is kept.
func New(
	reports report.Service,
	patients repo.PatientStore,
	exports repo.ReportStore,
	renderer Renderer,
	storage Storage,
	mailer email.Sender,
	jobs events.Publisher,
	opts Options,
) Service {
	if opts.MaxConcurrentRender <= 0 {
		opts.MaxConcurrentRender = 2
	}
	if opts.BackgroundThreshold <= 0 {
		opts.BackgroundThreshold = 25
	}
	if opts.JobTimeout <= 0 {
		opts.JobTimeout = 2 * time.Minute
	}
	return &exportService{
		reports:  reports,
		patients: patients,
		exports:  exports,
		renderer: renderer,
		storage:  storage,
		mailer:   mailer,
		jobs:     jobs,
		sem:      semaphore.NewWeighted(int64(opts.MaxConcurrentRender)),
		opts:     opts,
		now:      time.Now,
	}
}

func (s *exportService) Request(ctx context.Context, reportID string) (*Result, error) {
	rep, err := s.reports.Get(ctx, reportID)
	if err != nil {
		return nil, err
	}
	actor, _ := reqctx.ActorFromContext(ctx)
	therapist := document.Therapist{ID: rep.TherapistID, Name: actor.Name, Email: actor.Email}

	if len(rep.Sessions) <= s.opts.BackgroundThreshold || s.storage == nil {
		return s.inline(ctx, rep, therapist)
	}

	pending := &repo.ReportExport{ReportID: rep.ID, Status: repo.ExportPending, UpdatedAt: s.now().UTC()}
	if err := s.exports.PutExport(ctx, pending); err != nil {
		return nil, apperr.Persistence("store export status", err)
	}

	job := events.ExportJob{
		ReportID:    rep.ID,
		RequestedBy: actor.UserID,
		NotifyName:  actor.Name,
		NotifyEmail: actor.Email,
	}
	if s.opts.Queued {
		if err := s.jobs.Publish(ctx, events.SubjectReportExport, job); err != nil {
			s.fail(context.WithoutCancel(ctx), rep.ID, err)
			return nil, apperr.External("export queue", err)
		}
	} else {
		go func() {
			jctx := context.WithoutCancel(ctx)
			if err := s.Process(jctx, job); err != nil {
				slog.ErrorContext(jctx, "export job failed", "report_id", job.ReportID, "error", err)
			}
		}()
	}

	slog.InfoContext(ctx, "export_queued", "report_id", rep.ID, "sessions", len(rep.Sessions))
	return &Result{Export: pending}, nil
}

func (s *exportService) inline(ctx context.Context, rep *repo.Report, therapist document.Therapist) (*Result, error) {
	exp, body, err := s.produce(ctx, rep, therapist, pathInline)
	if err != nil {
		return nil, err
	}
	return &Result{Export: exp, Inline: true, Document: body}, nil
}

func (s *exportService) Process(ctx context.Context, job events.ExportJob) error {
	ctx, cancel := context.WithTimeout(ctx, s.opts.JobTimeout)
	defer cancel()

	rep, err := s.reports.Get(ctx, job.ReportID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			// deleted while queued
			slog.InfoContext(ctx, "export job dropped", "report_id", job.ReportID)
			return nil
		}
		return err
	}

	therapist := document.Therapist{ID: rep.TherapistID, Name: job.NotifyName, Email: job.NotifyEmail}
	exp, _, err := s.produce(ctx, rep, therapist, pathBackground)
	if err != nil {
		s.fail(context.WithoutCancel(ctx), rep.ID, err)
		return err
	}

	if job.NotifyEmail != "" {
		s.notify(ctx, job, rep, exp)
	}
	return nil
}

// produce renders, serializes and, when storage is configured, uploads the
// document, then records the export as ready.
func (s *exportService) produce(ctx context.Context, rep *repo.Report, therapist document.Therapist, path string) (*repo.ReportExport, []byte, error) {
	patient, err := s.patients.GetPatient(ctx, rep.PatientID)
	if err != nil {
		return nil, nil, apperr.Persistence("load patient", err)
	}

	if err := s.sem.Acquire(ctx, 1); err != nil {
		return nil, nil, fmt.Errorf("wait for render slot: %w", err)
	}
	doc, err := s.renderer.Render(rep, patient, therapist, nil)
	var body []byte
	if err == nil {
		body, err = doc.PDF()
	}
	s.sem.Release(1)
	if err != nil {
		return nil, nil, err
	}
	observability.DocumentRendered(ctx, path, len(doc.Pages))

	exp := &repo.ReportExport{
		ReportID:  rep.ID,
		Status:    repo.ExportReady,
		FileName:  doc.FileName,
		Pages:     len(doc.Pages),
		UpdatedAt: s.now().UTC(),
	}
	if s.storage != nil {
		key := s3.ReportKey(rep.ID, doc.FileName)
		if err := s.storage.Put(ctx, key, s3.PDFContentType, doc.FileName, body); err != nil {
			return nil, nil, apperr.External("document storage", err)
		}
		exp.ObjectKey = key
	}
	if err := s.exports.PutExport(ctx, exp); err != nil {
		return nil, nil, apperr.Persistence("store export status", err)
	}

	slog.InfoContext(ctx, "report_exported",
		"report_id", rep.ID, "path", path, "pages", exp.Pages, "bytes", len(body))
	return exp, body, nil
}

func (s *exportService) fail(ctx context.Context, reportID string, cause error) {
	err := s.exports.PutExport(ctx, &repo.ReportExport{
		ReportID:  reportID,
		Status:    repo.ExportFailed,
		Error:     cause.Error(),
		UpdatedAt: s.now().UTC(),
	})
	if err != nil && !errors.Is(err, repo.ErrNotFound) {
		slog.ErrorContext(ctx, "could not record export failure", "report_id", reportID, "error", err)
	}
}

func (s *exportService) notify(ctx context.Context, job events.ExportJob, rep *repo.Report, exp *repo.ReportExport) {
	url, _, err := s.storage.PresignGet(ctx, exp.ObjectKey)
	if err != nil {
		slog.WarnContext(ctx, "export mail skipped", "report_id", rep.ID, "error", err)
		return
	}
	patient, err := s.patients.GetPatient(ctx, rep.PatientID)
	if err != nil {
		slog.WarnContext(ctx, "export mail skipped", "report_id", rep.ID, "error", err)
		return
	}

	msg := email.BuildReportReadyEmail(email.ReportReadyData{
		ReportID:      rep.ID,
		TherapistName: job.NotifyName,
		Email:         job.NotifyEmail,
		PatientName:   patient.Name,
		ReportTitle:   rep.Data.Title,
		FileName:      exp.FileName,
		Pages:         exp.Pages,
		DownloadURL:   url,
		AppName:       s.opts.AppName,
	})
	if err := s.mailer.Send(ctx, msg); err != nil {
		var disabled email.ErrDisabled
		if errors.As(err, &disabled) {
			slog.DebugContext(ctx, "export mail not sent, email disabled", "report_id", rep.ID)
			return
		}
		slog.WarnContext(ctx, "export mail failed", "report_id", rep.ID, "error", err)
	}
}

func (s *exportService) Status(ctx context.Context, reportID string) (*repo.ReportExport, error) {
	if _, err := s.reports.Get(ctx, reportID); err != nil {
		return nil, err
	}
	exp, err := s.exports.GetExport(ctx, reportID)
	if err != nil {
		if repo.IsNotFound(err) {
			return nil, ErrExportNotFound
		}
		return nil, apperr.Persistence("load export status", err)
	}
	return exp, nil
}

func (s *exportService) Download(ctx context.Context, reportID string) (*Link, error) {
	exp, err := s.Status(ctx, reportID)
	if err != nil {
		return nil, err
	}
	switch exp.Status {
	case repo.ExportPending:
		return nil, ErrExportNotReady
	case repo.ExportFailed:
		return nil, ErrExportFailed
	}
	if s.storage == nil || exp.ObjectKey == "" {
		return nil, ErrStorageDisabled
	}

	url, expires, err := s.storage.PresignGet(ctx, exp.ObjectKey)
	if err != nil {
		return nil, apperr.External("document storage", err)
	}
	return &Link{URL: url, FileName: exp.FileName, ExpiresAt: expires}, nil
}
