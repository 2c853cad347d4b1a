// Package gameconfig resolves and stores per-patient game settings.
package gameconfig

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Alijeyrad/playcare_backend/internal/repo"
	"github.com/Alijeyrad/playcare_backend/internal/service/catalog"
	"github.com/Alijeyrad/playcare_backend/pkg/apperr"
	"github.com/Alijeyrad/playcare_backend/pkg/observability"
	"github.com/Alijeyrad/playcare_backend/pkg/reqctx"
)

// ---------------------------------------------------------------------------
// DTOs
// ---------------------------------------------------------------------------

// Effective is the resolved configuration of one (patient, game) pair.
// Version 0 means nothing has been stored yet.
type Effective struct {
	PatientID string    `json:"patientId"`
	GameName  string    `json:"gameName"`
	Enabled   bool      `json:"enabled"`
	Values    Values    `json:"values"`
	Version   int64     `json:"version"`
	UpdatedBy string    `json:"updatedBy,omitempty"`
	UpdatedAt time.Time `json:"updatedAt,omitzero"`
}

type SaveRequest struct {
	PatientID string
	GameName  string
	// Values is the full map the editor submits. Missing fields fall back
	// to their defaults.
	Values          map[string]any
	ExpectedVersion int64
}

// ---------------------------------------------------------------------------
// Service interface
// ---------------------------------------------------------------------------

type Service interface {
	// Open returns the effective config, storing the resolved defaults the
	// first time a game is opened for a patient.
	Open(ctx context.Context, patientID, game string) (*Effective, error)
	// Get resolves without writing anything.
	Get(ctx context.Context, patientID, game string) (*Effective, error)
	ListForPatient(ctx context.Context, patientID string) ([]*Effective, error)
	Save(ctx context.Context, req SaveRequest) (*Effective, error)
	SetEnabled(ctx context.Context, patientID, game string, enabled bool, expectedVersion int64) (*Effective, error)
}

// ---------------------------------------------------------------------------
// Implementation
// ---------------------------------------------------------------------------

type gameConfigService struct {
	games    catalog.Service
	patients repo.PatientStore
	configs  repo.GameConfigStore
}

func New(games catalog.Service, patients repo.PatientStore, configs repo.GameConfigStore) Service {
	return &gameConfigService{games: games, patients: patients, configs: configs}
}

func (s *gameConfigService) Open(ctx context.Context, patientID, game string) (*Effective, error) {
	eff, err := s.Get(ctx, patientID, game)
	if err != nil || eff.Version > 0 {
		return eff, err
	}
	if err := s.requireOwner(ctx, patientID); err != nil {
		return nil, err
	}

	stored, err := s.configs.PutGameConfig(ctx, &repo.GameConfig{
		PatientID: patientID,
		GameName:  game,
		Values:    eff.Values,
		UpdatedBy: reqctx.ActorID(ctx),
	}, 0)
	if errors.Is(err, repo.ErrVersionMismatch) {
		// someone else opened it first
		return s.Get(ctx, patientID, game)
	}
	if err != nil {
		return nil, apperr.Persistence("store game config", err)
	}

	slog.InfoContext(ctx, "game_config_created", "patient_id", patientID, "game", game)
	return s.toEffective(stored, eff.Values), nil
}

func (s *gameConfigService) Get(ctx context.Context, patientID, game string) (*Effective, error) {
	def, err := s.games.Get(game)
	if err != nil {
		return nil, err
	}
	if err := s.patientExists(ctx, patientID); err != nil {
		return nil, err
	}

	stored, err := s.configs.GetGameConfig(ctx, patientID, game)
	if err != nil && !repo.IsNotFound(err) {
		return nil, apperr.Persistence("load game config", err)
	}
	return s.resolve(def, patientID, stored)
}

func (s *gameConfigService) ListForPatient(ctx context.Context, patientID string) ([]*Effective, error) {
	if err := s.patientExists(ctx, patientID); err != nil {
		return nil, err
	}

	rows, err := s.configs.ListGameConfigs(ctx, patientID)
	if err != nil {
		return nil, apperr.Persistence("list game configs", err)
	}
	byGame := make(map[string]*repo.GameConfig, len(rows))
	for _, r := range rows {
		byGame[r.GameName] = r
	}

	defs := s.games.List()
	out := make([]*Effective, 0, len(defs))
	for i := range defs {
		eff, err := s.resolve(&defs[i], patientID, byGame[defs[i].Name])
		if err != nil {
			return nil, err
		}
		out = append(out, eff)
	}
	return out, nil
}

func (s *gameConfigService) Save(ctx context.Context, req SaveRequest) (*Effective, error) {
	def, err := s.games.Get(req.GameName)
	if err != nil {
		return nil, err
	}
	if req.ExpectedVersion < 0 {
		return nil, apperr.Invalid("version", "must not be negative")
	}
	if unknown := UnknownKeys(def, req.Values); len(unknown) > 0 {
		observability.ConfigSave(ctx, "invalid")
		return nil, apperr.Invalid(unknown[0], "%s has no setting named %s", def.Name, strings.Join(unknown, ", "))
	}
	if err := s.requireOwner(ctx, req.PatientID); err != nil {
		return nil, err
	}

	values, err := Resolve(def, req.Values)
	if err != nil {
		observability.ConfigSave(ctx, "invalid")
		return nil, err
	}

	stored, err := s.configs.PutGameConfig(ctx, &repo.GameConfig{
		PatientID: req.PatientID,
		GameName:  req.GameName,
		Values:    values,
		UpdatedBy: reqctx.ActorID(ctx),
	}, req.ExpectedVersion)
	if errors.Is(err, repo.ErrVersionMismatch) {
		observability.ConfigSave(ctx, "conflict")
		slog.WarnContext(ctx, "game_config_conflict",
			"patient_id", req.PatientID, "game", req.GameName, "expected_version", req.ExpectedVersion)
		return nil, ErrVersionConflict
	}
	if err != nil {
		return nil, apperr.Persistence("store game config", err)
	}

	observability.ConfigSave(ctx, "ok")
	slog.InfoContext(ctx, "game_config_saved",
		"patient_id", req.PatientID, "game", req.GameName, "version", stored.Version)
	return s.toEffective(stored, values), nil
}

func (s *gameConfigService) SetEnabled(ctx context.Context, patientID, game string, enabled bool, expectedVersion int64) (*Effective, error) {
	cur, err := s.Get(ctx, patientID, game)
	if err != nil {
		return nil, err
	}
	if cur.Version != expectedVersion {
		observability.ConfigSave(ctx, "conflict")
		return nil, ErrVersionConflict
	}

	values := Values(repo.CloneMap(cur.Values))
	values[KeyEnabled] = enabled
	return s.Save(ctx, SaveRequest{
		PatientID:       patientID,
		GameName:        game,
		Values:          values,
		ExpectedVersion: expectedVersion,
	})
}

func (s *gameConfigService) resolve(def *catalog.GameDefinition, patientID string, stored *repo.GameConfig) (*Effective, error) {
	var overrides map[string]any
	if stored != nil {
		overrides = stored.Values
	}
	values, err := Resolve(def, overrides)
	if err != nil {
		return nil, fmt.Errorf("stored config for %s/%s: %w", patientID, def.Name, err)
	}
	if stored == nil {
		return &Effective{PatientID: patientID, GameName: def.Name, Enabled: values.Enabled(), Values: values}, nil
	}
	return s.toEffective(stored, values), nil
}

func (s *gameConfigService) toEffective(c *repo.GameConfig, values Values) *Effective {
	return &Effective{
		PatientID: c.PatientID,
		GameName:  c.GameName,
		Enabled:   values.Enabled(),
		Values:    values,
		Version:   c.Version,
		UpdatedBy: c.UpdatedBy,
		UpdatedAt: c.UpdatedAt,
	}
}

func (s *gameConfigService) patientExists(ctx context.Context, patientID string) error {
	if _, err := s.patients.GetPatient(ctx, patientID); err != nil {
		if repo.IsNotFound(err) {
			return ErrPatientNotFound
		}
		return apperr.Persistence("load patient", err)
	}
	return nil
}

func (s *gameConfigService) requireOwner(ctx context.Context, patientID string) error {
	p, err := s.patients.GetPatient(ctx, patientID)
	if err != nil {
		if repo.IsNotFound(err) {
			return ErrPatientNotFound
		}
		return apperr.Persistence("load patient", err)
	}
	if !reqctx.Owns(ctx, p.TherapistID) {
		return ErrNotOwner
	}
	return nil
}
