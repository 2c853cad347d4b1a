// Package repo defines the persisted entities and the store contracts the
// services depend on. Concrete stores live in sqlstore (postgres, sqlite)
// and memstore (in-process).
package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/Alijeyrad/playcare_backend/pkg/apperr"
)

var (
	ErrNotFound        = fmt.Errorf("record not found: %w", apperr.ErrNotFound)
	ErrDuplicate       = errors.New("duplicate record")
	ErrVersionMismatch = errors.New("version mismatch")
)

// IsNotFound reports whether err is a missing-record error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

type PatientStore interface {
	CreatePatient(ctx context.Context, p *Patient) error
	GetPatient(ctx context.Context, id string) (*Patient, error)
	GetPatientByCode(ctx context.Context, userCode string) (*Patient, error)
	ListPatientsByTherapist(ctx context.Context, therapistID string) ([]*Patient, error)
}

type SessionStore interface {
	// CreateSession fails with ErrDuplicate when the token is already taken.
	CreateSession(ctx context.Context, s *Session) error
	GetSessionByToken(ctx context.Context, token string) (*Session, error)
	ListSessions(ctx context.Context, f SessionFilter) ([]*Session, error)
	UpdateSession(ctx context.Context, s *Session) error
}

type GameConfigStore interface {
	GetGameConfig(ctx context.Context, patientID, gameName string) (*GameConfig, error)
	ListGameConfigs(ctx context.Context, patientID string) ([]*GameConfig, error)
	// PutGameConfig replaces the stored document when its version equals
	// expectedVersion (0 = must not exist yet) and returns the stored record
	// with the incremented version. Otherwise it fails with ErrVersionMismatch.
	PutGameConfig(ctx context.Context, c *GameConfig, expectedVersion int64) (*GameConfig, error)
}

type ReportStore interface {
	CreateReport(ctx context.Context, r *Report) error
	GetReport(ctx context.Context, id string) (*Report, error)
	ListReports(ctx context.Context, therapistID string) ([]*Report, error)
	DeleteReport(ctx context.Context, id string) error

	PutExport(ctx context.Context, e *ReportExport) error
	GetExport(ctx context.Context, reportID string) (*ReportExport, error)
}

// Store is the full persistence surface.
type Store interface {
	PatientStore
	SessionStore
	GameConfigStore
	ReportStore
	Close() error
}
