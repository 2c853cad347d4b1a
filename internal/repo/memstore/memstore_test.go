package memstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Alijeyrad/playcare_backend/internal/repo"
	"github.com/Alijeyrad/playcare_backend/pkg/apperr"
)

func TestSessionTokenUnique(t *testing.T) {
	ctx := context.Background()
	s := New()

	first := &repo.Session{Token: "ABC123", PatientID: "p1", Status: repo.SessionActive, Date: time.Now()}
	if err := s.CreateSession(ctx, first); err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	if first.ID == "" {
		t.Error("expected storage id to be assigned")
	}

	dup := &repo.Session{Token: "ABC123", PatientID: "p2", Status: repo.SessionActive}
	if err := s.CreateSession(ctx, dup); !errors.Is(err, repo.ErrDuplicate) {
		t.Errorf("expected ErrDuplicate, got %v", err)
	}
}

func TestSessionReadsAreCopies(t *testing.T) {
	ctx := context.Background()
	s := New()

	score := 10.0
	sess := &repo.Session{
		Token:     "TOK",
		PatientID: "p1",
		Status:    repo.SessionActive,
		GameData:  repo.GameData{GameName: "bubble_game", Score: &score, Analytics: map[string]any{"hits": 3}},
	}
	if err := s.CreateSession(ctx, sess); err != nil {
		t.Fatal(err)
	}

	got, _ := s.GetSessionByToken(ctx, "TOK")
	*got.GameData.Score = 99
	got.GameData.Analytics["hits"] = 100
	got.Status = repo.SessionClosed

	again, _ := s.GetSessionByToken(ctx, "TOK")
	if *again.GameData.Score != 10 {
		t.Errorf("score leaked through copy: %v", *again.GameData.Score)
	}
	if again.GameData.Analytics["hits"] != 3 {
		t.Errorf("analytics leaked through copy: %v", again.GameData.Analytics["hits"])
	}
	if again.Status != repo.SessionActive {
		t.Errorf("status leaked through copy: %v", again.Status)
	}
}

func TestListSessionsFilter(t *testing.T) {
	ctx := context.Background()
	s := New()
	base := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	seed := []*repo.Session{
		{Token: "A", PatientID: "p1", InstructorID: "i1", Status: repo.SessionActive, Date: base},
		{Token: "B", PatientID: "p1", InstructorID: "i2", Status: repo.SessionClosed, Date: base.Add(time.Hour)},
		{Token: "C", PatientID: "p2", InstructorID: "i1", Status: repo.SessionActive, Date: base.Add(2 * time.Hour)},
	}
	for _, sess := range seed {
		if err := s.CreateSession(ctx, sess); err != nil {
			t.Fatal(err)
		}
	}

	tests := []struct {
		name   string
		filter repo.SessionFilter
		want   []string
	}{
		{"by patient, newest first", repo.SessionFilter{PatientID: "p1"}, []string{"B", "A"}},
		{"by instructor", repo.SessionFilter{InstructorID: "i1"}, []string{"C", "A"}},
		{"active for patient", repo.SessionFilter{PatientID: "p1", Status: repo.SessionActive}, []string{"A"}},
		{"by tokens", repo.SessionFilter{Tokens: []string{"A", "C"}}, []string{"C", "A"}},
		{"no match", repo.SessionFilter{PatientID: "nobody"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.ListSessions(ctx, tt.filter)
			if err != nil {
				t.Fatal(err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %d sessions, want %d", len(got), len(tt.want))
			}
			for i, sess := range got {
				if sess.Token != tt.want[i] {
					t.Errorf("[%d] token = %s, want %s", i, sess.Token, tt.want[i])
				}
			}
		})
	}
}

func TestPutGameConfigVersioning(t *testing.T) {
	ctx := context.Background()
	s := New()

	cfg := &repo.GameConfig{PatientID: "p1", GameName: "bubble_game", Values: map[string]any{"enabled": true}}

	stored, err := s.PutGameConfig(ctx, cfg, 0)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if stored.Version != 1 {
		t.Errorf("version = %d, want 1", stored.Version)
	}

	if _, err := s.PutGameConfig(ctx, cfg, 0); !errors.Is(err, repo.ErrVersionMismatch) {
		t.Errorf("stale create: expected ErrVersionMismatch, got %v", err)
	}

	cfg.Values["enabled"] = false
	stored, err = s.PutGameConfig(ctx, cfg, 1)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if stored.Version != 2 {
		t.Errorf("version = %d, want 2", stored.Version)
	}

	got, err := s.GetGameConfig(ctx, "p1", "bubble_game")
	if err != nil {
		t.Fatal(err)
	}
	if got.Values["enabled"] != false {
		t.Errorf("enabled = %v, want false", got.Values["enabled"])
	}
}

func TestNotFoundIsCategorized(t *testing.T) {
	ctx := context.Background()
	s := New()

	_, err := s.GetReport(ctx, "missing")
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("expected apperr.ErrNotFound, got %v", err)
	}
	if err := s.DeleteReport(ctx, "missing"); !repo.IsNotFound(err) {
		t.Errorf("expected not found on delete, got %v", err)
	}
}

func TestDeleteReportDropsExport(t *testing.T) {
	ctx := context.Background()
	s := New()

	r := &repo.Report{TherapistID: "t1", PatientID: "p1", SessionIDs: []string{"A"}}
	if err := s.CreateReport(ctx, r); err != nil {
		t.Fatal(err)
	}
	if err := s.PutExport(ctx, &repo.ReportExport{ReportID: r.ID, Status: repo.ExportReady}); err != nil {
		t.Fatal(err)
	}
	if err := s.DeleteReport(ctx, r.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := s.GetExport(ctx, r.ID); !repo.IsNotFound(err) {
		t.Errorf("expected export to be gone, got %v", err)
	}
}
