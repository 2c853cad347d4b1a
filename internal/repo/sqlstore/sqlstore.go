// Package sqlstore implements repo.Store on top of ent's SQL builder. It
// runs against postgres in production and sqlite for single-node setups.
package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"entgo.io/ent/dialect/sql/sqlgraph"
	"github.com/google/uuid"

	"github.com/Alijeyrad/playcare_backend/internal/repo"
	"github.com/Alijeyrad/playcare_backend/pkg/apperr"
)

const (
	tablePatients      = "patients"
	tableSessions      = "sessions"
	tableGameConfigs   = "game_configs"
	tableReports       = "reports"
	tableReportExports = "report_exports"
)

var (
	patientColumns = []string{"id", "user_code", "therapist_id", "name", "email", "age", "condition", "created_at"}
	sessionColumns = []string{
		"id", "token", "patient_id", "instructor_id", "therapist_id", "game_data",
		"rating", "review", "date", "status", "reviewed_at", "closed_at",
	}
	gameConfigColumns = []string{"patient_id", "game_name", "overrides", "version", "updated_by", "updated_at"}
	reportColumns     = []string{"id", "therapist_id", "patient_id", "report_data", "session_ids", "sessions", "created_at"}
	exportColumns     = []string{"report_id", "status", "file_name", "object_key", "pages", "error", "updated_at"}
)

type Store struct {
	drv *entsql.Driver
	db  *sql.DB
	now func() time.Time
}

var _ repo.Store = (*Store)(nil)

// New wraps an opened ent SQL driver. The schema must already exist; see
// the migrate package.
func New(drv *entsql.Driver) *Store {
	return &Store{drv: drv, db: drv.DB(), now: time.Now}
}

func (s *Store) Close() error { return s.drv.Close() }

func (s *Store) builder() *entsql.DialectBuilder {
	return entsql.Dialect(s.drv.Dialect())
}

func (s *Store) exec(ctx context.Context, q entsql.Querier) (sql.Result, error) {
	query, args := q.Query()
	return s.db.ExecContext(ctx, query, args...)
}

func (s *Store) query(ctx context.Context, q entsql.Querier) (*sql.Rows, error) {
	query, args := q.Query()
	return s.db.QueryContext(ctx, query, args...)
}

// ---------------------------------------------------------------------------
// Patients
// ---------------------------------------------------------------------------

func (s *Store) CreatePatient(ctx context.Context, p *repo.Patient) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = s.now().UTC()
	}

	ins := s.builder().Insert(tablePatients).
		Columns(patientColumns...).
		Values(p.ID, p.UserCode, p.TherapistID, p.Name, p.Email, p.Age, p.Condition, p.CreatedAt)
	if _, err := s.exec(ctx, ins); err != nil {
		if sqlgraph.IsUniqueConstraintError(err) {
			return repo.ErrDuplicate
		}
		return apperr.Persistence("insert patient", err)
	}
	return nil
}

func (s *Store) GetPatient(ctx context.Context, id string) (*repo.Patient, error) {
	return s.getPatient(ctx, entsql.EQ("id", id))
}

func (s *Store) GetPatientByCode(ctx context.Context, userCode string) (*repo.Patient, error) {
	return s.getPatient(ctx, entsql.EQ("user_code", userCode))
}

func (s *Store) getPatient(ctx context.Context, pred *entsql.Predicate) (*repo.Patient, error) {
	sel := s.builder().Select(patientColumns...).From(entsql.Table(tablePatients)).Where(pred).Limit(1)
	rows, err := s.query(ctx, sel)
	if err != nil {
		return nil, apperr.Persistence("get patient", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, apperr.Persistence("get patient", err)
		}
		return nil, repo.ErrNotFound
	}
	p, err := scanPatient(rows)
	if err != nil {
		return nil, apperr.Persistence("scan patient", err)
	}
	return p, nil
}

func (s *Store) ListPatientsByTherapist(ctx context.Context, therapistID string) ([]*repo.Patient, error) {
	sel := s.builder().Select(patientColumns...).
		From(entsql.Table(tablePatients)).
		Where(entsql.EQ("therapist_id", therapistID)).
		OrderBy("created_at")
	rows, err := s.query(ctx, sel)
	if err != nil {
		return nil, apperr.Persistence("list patients", err)
	}
	defer rows.Close()

	out := make([]*repo.Patient, 0)
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, apperr.Persistence("scan patient", err)
		}
		out = append(out, p)
	}
	return out, apperr.Persistence("list patients", rows.Err())
}

func scanPatient(rows *sql.Rows) (*repo.Patient, error) {
	var p repo.Patient
	if err := rows.Scan(&p.ID, &p.UserCode, &p.TherapistID, &p.Name, &p.Email, &p.Age, &p.Condition, &p.CreatedAt); err != nil {
		return nil, err
	}
	p.CreatedAt = p.CreatedAt.UTC()
	return &p, nil
}

// ---------------------------------------------------------------------------
// Sessions
// ---------------------------------------------------------------------------

func (s *Store) CreateSession(ctx context.Context, sess *repo.Session) error {
	if sess.ID == "" {
		sess.ID = uuid.NewString()
	}
	gameData, err := encodeJSON(sess.GameData)
	if err != nil {
		return apperr.Persistence("encode game data", err)
	}

	ins := s.builder().Insert(tableSessions).
		Columns(sessionColumns...).
		Values(
			sess.ID, sess.Token, sess.PatientID, sess.InstructorID, sess.TherapistID, gameData,
			nullInt(sess.Rating), nullString(sess.Review), sess.Date.UTC(), string(sess.Status),
			nullTime(sess.ReviewedAt), nullTime(sess.ClosedAt),
		)
	if _, err := s.exec(ctx, ins); err != nil {
		if sqlgraph.IsUniqueConstraintError(err) {
			return repo.ErrDuplicate
		}
		return apperr.Persistence("insert session", err)
	}
	return nil
}

func (s *Store) GetSessionByToken(ctx context.Context, token string) (*repo.Session, error) {
	sel := s.builder().Select(sessionColumns...).
		From(entsql.Table(tableSessions)).
		Where(entsql.EQ("token", token)).
		Limit(1)
	rows, err := s.query(ctx, sel)
	if err != nil {
		return nil, apperr.Persistence("get session", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, apperr.Persistence("get session", err)
		}
		return nil, repo.ErrNotFound
	}
	sess, err := scanSession(rows)
	if err != nil {
		return nil, apperr.Persistence("scan session", err)
	}
	return sess, nil
}

func (s *Store) ListSessions(ctx context.Context, f repo.SessionFilter) ([]*repo.Session, error) {
	var preds []*entsql.Predicate
	if f.PatientID != "" {
		preds = append(preds, entsql.EQ("patient_id", f.PatientID))
	}
	if f.InstructorID != "" {
		preds = append(preds, entsql.EQ("instructor_id", f.InstructorID))
	}
	if f.TherapistID != "" {
		preds = append(preds, entsql.EQ("therapist_id", f.TherapistID))
	}
	if f.Status != "" {
		preds = append(preds, entsql.EQ("status", string(f.Status)))
	}
	if len(f.Tokens) > 0 {
		tokens := make([]any, len(f.Tokens))
		for i, t := range f.Tokens {
			tokens[i] = t
		}
		preds = append(preds, entsql.In("token", tokens...))
	}

	sel := s.builder().Select(sessionColumns...).From(entsql.Table(tableSessions))
	if len(preds) > 0 {
		sel.Where(entsql.And(preds...))
	}
	sel.OrderBy(entsql.Desc("date"))

	rows, err := s.query(ctx, sel)
	if err != nil {
		return nil, apperr.Persistence("list sessions", err)
	}
	defer rows.Close()

	out := make([]*repo.Session, 0)
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, apperr.Persistence("scan session", err)
		}
		out = append(out, sess)
	}
	return out, apperr.Persistence("list sessions", rows.Err())
}

func (s *Store) UpdateSession(ctx context.Context, sess *repo.Session) error {
	gameData, err := encodeJSON(sess.GameData)
	if err != nil {
		return apperr.Persistence("encode game data", err)
	}

	upd := s.builder().Update(tableSessions).
		Set("game_data", gameData).
		Set("rating", nullInt(sess.Rating)).
		Set("review", nullString(sess.Review)).
		Set("status", string(sess.Status)).
		Set("reviewed_at", nullTime(sess.ReviewedAt)).
		Set("closed_at", nullTime(sess.ClosedAt)).
		Where(entsql.EQ("token", sess.Token))
	res, err := s.exec(ctx, upd)
	if err != nil {
		return apperr.Persistence("update session", err)
	}
	return affectedOrNotFound(res, "update session")
}

func scanSession(rows *sql.Rows) (*repo.Session, error) {
	var (
		sess       repo.Session
		gameData   string
		status     string
		rating     sql.NullInt64
		review     sql.NullString
		reviewedAt sql.NullTime
		closedAt   sql.NullTime
	)
	if err := rows.Scan(
		&sess.ID, &sess.Token, &sess.PatientID, &sess.InstructorID, &sess.TherapistID, &gameData,
		&rating, &review, &sess.Date, &status, &reviewedAt, &closedAt,
	); err != nil {
		return nil, err
	}
	if err := decodeJSON(gameData, &sess.GameData); err != nil {
		return nil, fmt.Errorf("decode game data: %w", err)
	}
	sess.Status = repo.SessionStatus(status)
	sess.Date = sess.Date.UTC()
	if rating.Valid {
		v := int(rating.Int64)
		sess.Rating = &v
	}
	if review.Valid {
		v := review.String
		sess.Review = &v
	}
	if reviewedAt.Valid {
		v := reviewedAt.Time.UTC()
		sess.ReviewedAt = &v
	}
	if closedAt.Valid {
		v := closedAt.Time.UTC()
		sess.ClosedAt = &v
	}
	return &sess, nil
}

// ---------------------------------------------------------------------------
// Game configs
// ---------------------------------------------------------------------------

func (s *Store) GetGameConfig(ctx context.Context, patientID, gameName string) (*repo.GameConfig, error) {
	sel := s.builder().Select(gameConfigColumns...).
		From(entsql.Table(tableGameConfigs)).
		Where(entsql.And(entsql.EQ("patient_id", patientID), entsql.EQ("game_name", gameName))).
		Limit(1)
	rows, err := s.query(ctx, sel)
	if err != nil {
		return nil, apperr.Persistence("get game config", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, apperr.Persistence("get game config", err)
		}
		return nil, repo.ErrNotFound
	}
	c, err := scanGameConfig(rows)
	if err != nil {
		return nil, apperr.Persistence("scan game config", err)
	}
	return c, nil
}

func (s *Store) ListGameConfigs(ctx context.Context, patientID string) ([]*repo.GameConfig, error) {
	sel := s.builder().Select(gameConfigColumns...).
		From(entsql.Table(tableGameConfigs)).
		Where(entsql.EQ("patient_id", patientID)).
		OrderBy("game_name")
	rows, err := s.query(ctx, sel)
	if err != nil {
		return nil, apperr.Persistence("list game configs", err)
	}
	defer rows.Close()

	out := make([]*repo.GameConfig, 0)
	for rows.Next() {
		c, err := scanGameConfig(rows)
		if err != nil {
			return nil, apperr.Persistence("scan game config", err)
		}
		out = append(out, c)
	}
	return out, apperr.Persistence("list game configs", rows.Err())
}

// PutGameConfig uses the version column as a compare-and-swap guard: the
// insert path relies on the primary key, the update path on the WHERE clause.
func (s *Store) PutGameConfig(ctx context.Context, c *repo.GameConfig, expectedVersion int64) (*repo.GameConfig, error) {
	values, err := encodeJSON(c.Values)
	if err != nil {
		return nil, apperr.Persistence("encode game config", err)
	}
	stored := *c
	stored.Values = repo.CloneMap(c.Values)
	stored.Version = expectedVersion + 1
	stored.UpdatedAt = s.now().UTC()

	if expectedVersion == 0 {
		ins := s.builder().Insert(tableGameConfigs).
			Columns(gameConfigColumns...).
			Values(c.PatientID, c.GameName, values, stored.Version, c.UpdatedBy, stored.UpdatedAt)
		if _, err := s.exec(ctx, ins); err != nil {
			if sqlgraph.IsUniqueConstraintError(err) {
				return nil, repo.ErrVersionMismatch
			}
			return nil, apperr.Persistence("insert game config", err)
		}
		return &stored, nil
	}

	upd := s.builder().Update(tableGameConfigs).
		Set("overrides", values).
		Set("version", stored.Version).
		Set("updated_by", c.UpdatedBy).
		Set("updated_at", stored.UpdatedAt).
		Where(entsql.And(
			entsql.EQ("patient_id", c.PatientID),
			entsql.EQ("game_name", c.GameName),
			entsql.EQ("version", expectedVersion),
		))
	res, err := s.exec(ctx, upd)
	if err != nil {
		return nil, apperr.Persistence("update game config", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, apperr.Persistence("update game config", err)
	}
	if n == 0 {
		return nil, repo.ErrVersionMismatch
	}
	return &stored, nil
}

func scanGameConfig(rows *sql.Rows) (*repo.GameConfig, error) {
	var (
		c      repo.GameConfig
		values string
	)
	if err := rows.Scan(&c.PatientID, &c.GameName, &values, &c.Version, &c.UpdatedBy, &c.UpdatedAt); err != nil {
		return nil, err
	}
	if err := decodeJSON(values, &c.Values); err != nil {
		return nil, fmt.Errorf("decode overrides: %w", err)
	}
	c.UpdatedAt = c.UpdatedAt.UTC()
	return &c, nil
}

// ---------------------------------------------------------------------------
// Reports
// ---------------------------------------------------------------------------

func (s *Store) CreateReport(ctx context.Context, r *repo.Report) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = s.now().UTC()
	}
	data, err := encodeJSON(r.Data)
	if err != nil {
		return apperr.Persistence("encode report data", err)
	}
	ids, err := encodeJSON(r.SessionIDs)
	if err != nil {
		return apperr.Persistence("encode session ids", err)
	}
	snapshots, err := encodeJSON(r.Sessions)
	if err != nil {
		return apperr.Persistence("encode session snapshots", err)
	}

	ins := s.builder().Insert(tableReports).
		Columns(reportColumns...).
		Values(r.ID, r.TherapistID, r.PatientID, data, ids, snapshots, r.CreatedAt)
	if _, err := s.exec(ctx, ins); err != nil {
		return apperr.Persistence("insert report", err)
	}
	return nil
}

func (s *Store) GetReport(ctx context.Context, id string) (*repo.Report, error) {
	sel := s.builder().Select(reportColumns...).
		From(entsql.Table(tableReports)).
		Where(entsql.EQ("id", id)).
		Limit(1)
	rows, err := s.query(ctx, sel)
	if err != nil {
		return nil, apperr.Persistence("get report", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, apperr.Persistence("get report", err)
		}
		return nil, repo.ErrNotFound
	}
	r, err := scanReport(rows)
	if err != nil {
		return nil, apperr.Persistence("scan report", err)
	}
	return r, nil
}

func (s *Store) ListReports(ctx context.Context, therapistID string) ([]*repo.Report, error) {
	sel := s.builder().Select(reportColumns...).
		From(entsql.Table(tableReports)).
		Where(entsql.EQ("therapist_id", therapistID)).
		OrderBy(entsql.Desc("created_at"))
	rows, err := s.query(ctx, sel)
	if err != nil {
		return nil, apperr.Persistence("list reports", err)
	}
	defer rows.Close()

	out := make([]*repo.Report, 0)
	for rows.Next() {
		r, err := scanReport(rows)
		if err != nil {
			return nil, apperr.Persistence("scan report", err)
		}
		out = append(out, r)
	}
	return out, apperr.Persistence("list reports", rows.Err())
}

func (s *Store) DeleteReport(ctx context.Context, id string) error {
	// report_exports cascades on delete, but sqlite only honours it with
	// foreign keys enabled, so drop the row explicitly too.
	if _, err := s.exec(ctx, s.builder().Delete(tableReportExports).Where(entsql.EQ("report_id", id))); err != nil {
		return apperr.Persistence("delete report export", err)
	}
	res, err := s.exec(ctx, s.builder().Delete(tableReports).Where(entsql.EQ("id", id)))
	if err != nil {
		return apperr.Persistence("delete report", err)
	}
	return affectedOrNotFound(res, "delete report")
}

func scanReport(rows *sql.Rows) (*repo.Report, error) {
	var (
		r                    repo.Report
		data, ids, snapshots string
	)
	if err := rows.Scan(&r.ID, &r.TherapistID, &r.PatientID, &data, &ids, &snapshots, &r.CreatedAt); err != nil {
		return nil, err
	}
	if err := decodeJSON(data, &r.Data); err != nil {
		return nil, fmt.Errorf("decode report data: %w", err)
	}
	if err := decodeJSON(ids, &r.SessionIDs); err != nil {
		return nil, fmt.Errorf("decode session ids: %w", err)
	}
	if err := decodeJSON(snapshots, &r.Sessions); err != nil {
		return nil, fmt.Errorf("decode session snapshots: %w", err)
	}
	r.CreatedAt = r.CreatedAt.UTC()
	return &r, nil
}

// ---------------------------------------------------------------------------
// Exports
// ---------------------------------------------------------------------------

func (s *Store) PutExport(ctx context.Context, e *repo.ReportExport) error {
	if _, err := s.GetReport(ctx, e.ReportID); err != nil {
		return err
	}
	if e.UpdatedAt.IsZero() {
		e.UpdatedAt = s.now().UTC()
	}

	upd := s.builder().Update(tableReportExports).
		Set("status", string(e.Status)).
		Set("file_name", e.FileName).
		Set("object_key", e.ObjectKey).
		Set("pages", e.Pages).
		Set("error", e.Error).
		Set("updated_at", e.UpdatedAt).
		Where(entsql.EQ("report_id", e.ReportID))
	res, err := s.exec(ctx, upd)
	if err != nil {
		return apperr.Persistence("update report export", err)
	}
	if n, err := res.RowsAffected(); err == nil && n > 0 {
		return nil
	}

	ins := s.builder().Insert(tableReportExports).
		Columns(exportColumns...).
		Values(e.ReportID, string(e.Status), e.FileName, e.ObjectKey, e.Pages, e.Error, e.UpdatedAt)
	if _, err := s.exec(ctx, ins); err != nil {
		return apperr.Persistence("insert report export", err)
	}
	return nil
}

func (s *Store) GetExport(ctx context.Context, reportID string) (*repo.ReportExport, error) {
	sel := s.builder().Select(exportColumns...).
		From(entsql.Table(tableReportExports)).
		Where(entsql.EQ("report_id", reportID)).
		Limit(1)
	rows, err := s.query(ctx, sel)
	if err != nil {
		return nil, apperr.Persistence("get report export", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, apperr.Persistence("get report export", err)
		}
		return nil, repo.ErrNotFound
	}
	var (
		e      repo.ReportExport
		status string
	)
	if err := rows.Scan(&e.ReportID, &status, &e.FileName, &e.ObjectKey, &e.Pages, &e.Error, &e.UpdatedAt); err != nil {
		return nil, apperr.Persistence("scan report export", err)
	}
	e.Status = repo.ExportStatus(status)
	e.UpdatedAt = e.UpdatedAt.UTC()
	return &e, nil
}

// ---------------------------------------------------------------------------
// helpers
// ---------------------------------------------------------------------------

// encodeJSON returns a string so lib/pq sends it as text; jsonb rejects bytea.
func encodeJSON(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func decodeJSON(raw string, v any) error {
	if raw == "" {
		return nil
	}
	return json.Unmarshal([]byte(raw), v)
}

func nullInt(v *int) any {
	if v == nil {
		return nil
	}
	return int64(*v)
}

func nullString(v *string) any {
	if v == nil {
		return nil
	}
	return *v
}

func nullTime(v *time.Time) any {
	if v == nil {
		return nil
	}
	return v.UTC()
}

func affectedOrNotFound(res sql.Result, op string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return apperr.Persistence(op, err)
	}
	if n == 0 {
		return repo.ErrNotFound
	}
	return nil
}
