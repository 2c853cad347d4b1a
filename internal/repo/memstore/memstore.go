// Package memstore is an in-process repo.Store used by tests and by
// single-node demo deployments.
package memstore

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Alijeyrad/playcare_backend/internal/repo"
)

type gameKey struct {
	patientID string
	game      string
}

type Store struct {
	mu       sync.RWMutex
	patients map[string]*repo.Patient
	sessions map[string]*repo.Session // by token
	configs  map[gameKey]*repo.GameConfig
	reports  map[string]*repo.Report
	exports  map[string]*repo.ReportExport
	now      func() time.Time
}

var _ repo.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		patients: make(map[string]*repo.Patient),
		sessions: make(map[string]*repo.Session),
		configs:  make(map[gameKey]*repo.GameConfig),
		reports:  make(map[string]*repo.Report),
		exports:  make(map[string]*repo.ReportExport),
		now:      time.Now,
	}
}

func (s *Store) Close() error { return nil }

// ---------------------------------------------------------------------------
// Patients
// ---------------------------------------------------------------------------

func (s *Store) CreatePatient(_ context.Context, p *repo.Patient) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.patients {
		if existing.UserCode == p.UserCode {
			return repo.ErrDuplicate
		}
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = s.now().UTC()
	}
	cp := *p
	s.patients[p.ID] = &cp
	return nil
}

func (s *Store) GetPatient(_ context.Context, id string) (*repo.Patient, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.patients[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *Store) GetPatientByCode(_ context.Context, userCode string) (*repo.Patient, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, p := range s.patients {
		if p.UserCode == userCode {
			cp := *p
			return &cp, nil
		}
	}
	return nil, repo.ErrNotFound
}

func (s *Store) ListPatientsByTherapist(_ context.Context, therapistID string) ([]*repo.Patient, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*repo.Patient, 0)
	for _, p := range s.patients {
		if p.TherapistID == therapistID {
			cp := *p
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// ---------------------------------------------------------------------------
// Sessions
// ---------------------------------------------------------------------------

func (s *Store) CreateSession(_ context.Context, sess *repo.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.sessions[sess.Token]; taken {
		return repo.ErrDuplicate
	}
	if sess.ID == "" {
		sess.ID = uuid.NewString()
	}
	s.sessions[sess.Token] = sess.Clone()
	return nil
}

func (s *Store) GetSessionByToken(_ context.Context, token string) (*repo.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[token]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return sess.Clone(), nil
}

func (s *Store) ListSessions(_ context.Context, f repo.SessionFilter) ([]*repo.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*repo.Session, 0)
	for _, sess := range s.sessions {
		if !matches(sess, f) {
			continue
		}
		out = append(out, sess.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out, nil
}

func matches(s *repo.Session, f repo.SessionFilter) bool {
	if f.PatientID != "" && s.PatientID != f.PatientID {
		return false
	}
	if f.InstructorID != "" && s.InstructorID != f.InstructorID {
		return false
	}
	if f.TherapistID != "" && s.TherapistID != f.TherapistID {
		return false
	}
	if f.Status != "" && s.Status != f.Status {
		return false
	}
	if len(f.Tokens) > 0 && !slices.Contains(f.Tokens, s.Token) {
		return false
	}
	return true
}

func (s *Store) UpdateSession(_ context.Context, sess *repo.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[sess.Token]; !ok {
		return repo.ErrNotFound
	}
	s.sessions[sess.Token] = sess.Clone()
	return nil
}

// ---------------------------------------------------------------------------
// Game configs
// ---------------------------------------------------------------------------

func (s *Store) GetGameConfig(_ context.Context, patientID, gameName string) (*repo.GameConfig, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.configs[gameKey{patientID, gameName}]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return cloneConfig(c), nil
}

func (s *Store) ListGameConfigs(_ context.Context, patientID string) ([]*repo.GameConfig, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*repo.GameConfig, 0)
	for k, c := range s.configs {
		if k.patientID == patientID {
			out = append(out, cloneConfig(c))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].GameName < out[j].GameName })
	return out, nil
}

func (s *Store) PutGameConfig(_ context.Context, c *repo.GameConfig, expectedVersion int64) (*repo.GameConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := gameKey{c.PatientID, c.GameName}
	var current int64
	if existing, ok := s.configs[key]; ok {
		current = existing.Version
	}
	if current != expectedVersion {
		return nil, repo.ErrVersionMismatch
	}

	stored := cloneConfig(c)
	stored.Version = current + 1
	stored.UpdatedAt = s.now().UTC()
	s.configs[key] = stored
	return cloneConfig(stored), nil
}

func cloneConfig(c *repo.GameConfig) *repo.GameConfig {
	cp := *c
	cp.Values = repo.CloneMap(c.Values)
	return &cp
}

// ---------------------------------------------------------------------------
// Reports
// ---------------------------------------------------------------------------

func (s *Store) CreateReport(_ context.Context, r *repo.Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = s.now().UTC()
	}
	s.reports[r.ID] = cloneReport(r)
	return nil
}

func (s *Store) GetReport(_ context.Context, id string) (*repo.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.reports[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return cloneReport(r), nil
}

func (s *Store) ListReports(_ context.Context, therapistID string) ([]*repo.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*repo.Report, 0)
	for _, r := range s.reports {
		if r.TherapistID == therapistID {
			out = append(out, cloneReport(r))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) DeleteReport(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.reports[id]; !ok {
		return repo.ErrNotFound
	}
	delete(s.reports, id)
	delete(s.exports, id)
	return nil
}

func (s *Store) PutExport(_ context.Context, e *repo.ReportExport) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.reports[e.ReportID]; !ok {
		return repo.ErrNotFound
	}
	cp := *e
	if cp.UpdatedAt.IsZero() {
		cp.UpdatedAt = s.now().UTC()
	}
	s.exports[e.ReportID] = &cp
	return nil
}

func (s *Store) GetExport(_ context.Context, reportID string) (*repo.ReportExport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.exports[reportID]
	if !ok {
		return nil, repo.ErrNotFound
	}
	cp := *e
	return &cp, nil
}

func cloneReport(r *repo.Report) *repo.Report {
	cp := *r
	cp.SessionIDs = slices.Clone(r.SessionIDs)
	cp.Sessions = slices.Clone(r.Sessions)
	if r.Data.AIGenerated != nil {
		echo := *r.Data.AIGenerated
		cp.Data.AIGenerated = &echo
	}
	return &cp
}
