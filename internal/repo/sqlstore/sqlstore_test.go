package sqlstore

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/Alijeyrad/playcare_backend/internal/repo"
	"github.com/Alijeyrad/playcare_backend/pkg/database"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	cfg := database.DefaultConfig()
	cfg.Driver = database.DriverSQLite
	cfg.Path = filepath.Join(t.TempDir(), "playcare.db")

	drv, err := database.NewEntDriverFromConfig(cfg)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := database.MigrateEnt(context.Background(), drv, cfg); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	s := New(drv)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestPatientRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	p := &repo.Patient{UserCode: "K7P2QX", TherapistID: "t1", Name: "Dana Levi", Age: 9, Condition: "ADHD"}
	if err := s.CreatePatient(ctx, p); err != nil {
		t.Fatalf("CreatePatient: %v", err)
	}

	got, err := s.GetPatientByCode(ctx, "K7P2QX")
	if err != nil {
		t.Fatalf("GetPatientByCode: %v", err)
	}
	if got.ID != p.ID || got.Name != "Dana Levi" || got.Age != 9 {
		t.Errorf("unexpected patient: %+v", got)
	}

	dup := &repo.Patient{UserCode: "K7P2QX", TherapistID: "t1", Name: "Someone Else"}
	if err := s.CreatePatient(ctx, dup); !errors.Is(err, repo.ErrDuplicate) {
		t.Errorf("expected ErrDuplicate, got %v", err)
	}

	list, err := s.ListPatientsByTherapist(ctx, "t1")
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 {
		t.Errorf("got %d patients, want 1", len(list))
	}

	if _, err := s.GetPatient(ctx, "missing"); !repo.IsNotFound(err) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestSessionRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	date := time.Date(2025, 4, 2, 15, 30, 0, 0, time.UTC)
	sess := &repo.Session{
		Token:        "AB12-CD34",
		PatientID:    "p1",
		InstructorID: "i1",
		TherapistID:  "t1",
		GameData:     repo.GameData{GameName: "bubble_game", Status: "started"},
		Date:         date,
		Status:       repo.SessionActive,
	}
	if err := s.CreateSession(ctx, sess); err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	if err := s.CreateSession(ctx, &repo.Session{Token: "AB12-CD34", PatientID: "p2", Date: date, Status: repo.SessionActive}); !errors.Is(err, repo.ErrDuplicate) {
		t.Errorf("expected ErrDuplicate, got %v", err)
	}

	rating, review, score := 5, "Great session", 42.0
	closedAt := date.Add(time.Hour)
	sess.Rating = &rating
	sess.Review = &review
	sess.GameData.Score = &score
	sess.GameData.Analytics = map[string]any{"popped": float64(12)}
	sess.Status = repo.SessionClosed
	sess.ClosedAt = &closedAt
	if err := s.UpdateSession(ctx, sess); err != nil {
		t.Fatalf("UpdateSession: %v", err)
	}

	got, err := s.GetSessionByToken(ctx, "AB12-CD34")
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != repo.SessionClosed {
		t.Errorf("status = %s, want closed", got.Status)
	}
	if got.Rating == nil || *got.Rating != 5 {
		t.Errorf("rating = %v, want 5", got.Rating)
	}
	if got.Review == nil || *got.Review != "Great session" {
		t.Errorf("review = %v", got.Review)
	}
	if got.GameData.Score == nil || *got.GameData.Score != 42 {
		t.Errorf("score = %v", got.GameData.Score)
	}
	if got.GameData.Analytics["popped"] != float64(12) {
		t.Errorf("analytics = %v", got.GameData.Analytics)
	}
	if got.ClosedAt == nil || !got.ClosedAt.Equal(closedAt) {
		t.Errorf("closedAt = %v, want %v", got.ClosedAt, closedAt)
	}

	if err := s.UpdateSession(ctx, &repo.Session{Token: "nope", Status: repo.SessionClosed}); !repo.IsNotFound(err) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestListSessionsByTokens(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	base := time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)

	for i, tok := range []string{"A", "B", "C"} {
		err := s.CreateSession(ctx, &repo.Session{
			Token:     tok,
			PatientID: "p1",
			Date:      base.Add(time.Duration(i) * time.Hour),
			Status:    repo.SessionActive,
		})
		if err != nil {
			t.Fatal(err)
		}
	}

	got, err := s.ListSessions(ctx, repo.SessionFilter{PatientID: "p1", Tokens: []string{"A", "C"}})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].Token != "C" || got[1].Token != "A" {
		t.Errorf("unexpected sessions: %+v", got)
	}
}

func TestPutGameConfigCompareAndSwap(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	cfg := &repo.GameConfig{
		PatientID: "p1",
		GameName:  "bubble_game",
		Values:    map[string]any{"enabled": true, "difficulty": "hard"},
		UpdatedBy: "t1",
	}

	v1, err := s.PutGameConfig(ctx, cfg, 0)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if v1.Version != 1 {
		t.Fatalf("version = %d, want 1", v1.Version)
	}

	if _, err := s.PutGameConfig(ctx, cfg, 0); !errors.Is(err, repo.ErrVersionMismatch) {
		t.Errorf("second create: expected ErrVersionMismatch, got %v", err)
	}
	if _, err := s.PutGameConfig(ctx, cfg, 7); !errors.Is(err, repo.ErrVersionMismatch) {
		t.Errorf("stale update: expected ErrVersionMismatch, got %v", err)
	}

	cfg.Values["difficulty"] = "easy"
	v2, err := s.PutGameConfig(ctx, cfg, 1)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if v2.Version != 2 {
		t.Errorf("version = %d, want 2", v2.Version)
	}

	got, err := s.GetGameConfig(ctx, "p1", "bubble_game")
	if err != nil {
		t.Fatal(err)
	}
	if got.Version != 2 || got.Values["difficulty"] != "easy" {
		t.Errorf("unexpected stored config: %+v", got)
	}

	all, err := s.ListGameConfigs(ctx, "p1")
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 1 {
		t.Errorf("got %d configs, want 1", len(all))
	}
}

func TestReportAndExport(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	rating := 4
	r := &repo.Report{
		TherapistID: "t1",
		PatientID:   "p1",
		Data:        repo.ReportData{Title: "Q1", Summary: "s", Progress: "p", Recommendations: "r"},
		SessionIDs:  []string{"A"},
		Sessions:    []repo.SessionSnapshot{{SessionID: "A", GameName: "bubble_game", Rating: &rating, Status: "closed"}},
	}
	if err := s.CreateReport(ctx, r); err != nil {
		t.Fatalf("CreateReport: %v", err)
	}

	got, err := s.GetReport(ctx, r.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Data.Title != "Q1" || len(got.Sessions) != 1 || *got.Sessions[0].Rating != 4 {
		t.Errorf("unexpected report: %+v", got)
	}

	exp := &repo.ReportExport{ReportID: r.ID, Status: repo.ExportPending, FileName: "dana_report_2025-04-02.pdf"}
	if err := s.PutExport(ctx, exp); err != nil {
		t.Fatalf("PutExport insert: %v", err)
	}
	exp.Status = repo.ExportReady
	exp.ObjectKey = r.ID + "/dana_report_2025-04-02.pdf"
	exp.Pages = 2
	exp.UpdatedAt = time.Time{}
	if err := s.PutExport(ctx, exp); err != nil {
		t.Fatalf("PutExport update: %v", err)
	}
	gotExp, err := s.GetExport(ctx, r.ID)
	if err != nil {
		t.Fatal(err)
	}
	if gotExp.Status != repo.ExportReady || gotExp.Pages != 2 {
		t.Errorf("unexpected export: %+v", gotExp)
	}

	if err := s.DeleteReport(ctx, r.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := s.GetReport(ctx, r.ID); !repo.IsNotFound(err) {
		t.Errorf("expected not found after delete, got %v", err)
	}
	if _, err := s.GetExport(ctx, r.ID); !repo.IsNotFound(err) {
		t.Errorf("expected export gone after delete, got %v", err)
	}
}
