package session

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"sync"
	"testing"

	"github.com/Alijeyrad/playcare_backend/internal/repo"
	"github.com/Alijeyrad/playcare_backend/internal/repo/memstore"
	"github.com/Alijeyrad/playcare_backend/internal/service/catalog"
	"github.com/Alijeyrad/playcare_backend/internal/service/gameconfig"
	"github.com/Alijeyrad/playcare_backend/pkg/apperr"
	"github.com/Alijeyrad/playcare_backend/pkg/events"
	"github.com/Alijeyrad/playcare_backend/pkg/lock"
	"github.com/Alijeyrad/playcare_backend/pkg/reqctx"
	"github.com/Alijeyrad/playcare_backend/pkg/util/codes"
)

type recorder struct {
	mu       sync.Mutex
	subjects []string
}

func (r *recorder) Publish(_ context.Context, subject string, _ any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.subjects = append(r.subjects, subject)
	return nil
}

type fixture struct {
	svc    Service
	store  *memstore.Store
	events *recorder
	ctx    context.Context
	games  gameconfig.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	games, err := catalog.Load("")
	if err != nil {
		t.Fatalf("catalog.Load: %v", err)
	}
	store := memstore.New()
	ctx := context.Background()
	if err := store.CreatePatient(ctx, &repo.Patient{ID: "p1", UserCode: "CODE1", TherapistID: "t1", Name: "Sam"}); err != nil {
		t.Fatalf("CreatePatient: %v", err)
	}

	configs := gameconfig.New(games, store, store)
	rec := &recorder{}
	svc := New(store, store, configs, lock.NewLocal(), rec, codes.NewGenerator(codes.DefaultConfig()))
	return &fixture{
		svc:    svc,
		store:  store,
		events: rec,
		ctx:    reqctx.WithActor(ctx, reqctx.Actor{UserID: "t1", Role: "therapist"}),
		games:  configs,
	}
}

func (f *fixture) start(t *testing.T) *repo.Session {
	t.Helper()
	s, err := f.svc.Create(f.ctx, CreateRequest{PatientID: "p1", InstructorID: "i1", GameName: "bubble_game"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	return s
}

func TestCreateStartsActive(t *testing.T) {
	f := newFixture(t)
	s := f.start(t)

	if s.Status != repo.SessionActive {
		t.Errorf("status = %s, want active", s.Status)
	}
	if s.Rating != nil || s.Review != nil {
		t.Error("new session already carries a review")
	}
	if s.Token == "" || s.Token == s.ID {
		t.Errorf("token %q must be set and differ from storage id %q", s.Token, s.ID)
	}
	if s.TherapistID != "t1" {
		t.Errorf("therapist = %q, want t1 (from patient)", s.TherapistID)
	}
	if !reflect.DeepEqual(f.events.subjects, []string{events.SubjectSessionCreated}) {
		t.Errorf("events = %v", f.events.subjects)
	}
}

func TestCreateTokensAreUnique(t *testing.T) {
	f := newFixture(t)
	seen := make(map[string]bool)
	for range 50 {
		s := f.start(t)
		if seen[s.Token] {
			t.Fatalf("duplicate token %s", s.Token)
		}
		seen[s.Token] = true
	}
}

func TestCreateRejections(t *testing.T) {
	f := newFixture(t)
	if _, err := f.games.SetEnabled(f.ctx, "p1", "memory_cards", false, 0); err != nil {
		t.Fatalf("SetEnabled: %v", err)
	}

	tests := []struct {
		name string
		req  CreateRequest
		want error
	}{
		{"missing patient id", CreateRequest{InstructorID: "i1", GameName: "bubble_game"}, apperr.ErrValidation},
		{"unknown patient", CreateRequest{PatientID: "nobody", InstructorID: "i1", GameName: "bubble_game"}, ErrPatientNotFound},
		{"unknown game", CreateRequest{PatientID: "p1", InstructorID: "i1", GameName: "chess"}, apperr.ErrNotFound},
		{"disabled game", CreateRequest{PatientID: "p1", InstructorID: "i1", GameName: "memory_cards"}, ErrGameDisabled},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := f.svc.Create(f.ctx, tt.req); !errors.Is(err, tt.want) {
				t.Fatalf("Create error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestAttachReviewOnce(t *testing.T) {
	f := newFixture(t)
	s := f.start(t)

	score := 42.0
	got, err := f.svc.AttachReview(f.ctx, ReviewRequest{
		SessionID: strings.ToLower(s.Token),
		Review: Review{
			Rating:   5,
			Text:     "  Great session ",
			GameData: &repo.GameData{Score: &score, Analytics: map[string]any{"popped": 42}},
		},
	})
	if err != nil {
		t.Fatalf("AttachReview: %v", err)
	}
	if *got.Rating != 5 || *got.Review != "Great session" {
		t.Errorf("review = %d %q", *got.Rating, *got.Review)
	}
	if got.GameData.GameName != "bubble_game" || *got.GameData.Score != 42 {
		t.Errorf("game data = %+v", got.GameData)
	}
	if got.Status != repo.SessionActive {
		t.Errorf("review changed status to %s", got.Status)
	}

	_, err = f.svc.AttachReview(f.ctx, ReviewRequest{SessionID: s.Token, Review: Review{Rating: 1}})
	if !errors.Is(err, ErrAlreadyReviewed) || !errors.Is(err, apperr.ErrInvalidState) {
		t.Fatalf("second review: got %v", err)
	}
}

func TestAttachReviewOnClosedSessionLeavesItUnchanged(t *testing.T) {
	f := newFixture(t)
	s := f.start(t)

	closed, err := f.svc.Close(f.ctx, s.Token)
	if err != nil {
		t.Fatalf("Close: %v", err)
	}

	_, err = f.svc.AttachReview(f.ctx, ReviewRequest{SessionID: s.Token, Review: Review{Rating: 4, Text: "late"}})
	if !errors.Is(err, ErrSessionClosed) || !errors.Is(err, apperr.ErrInvalidState) {
		t.Fatalf("review on closed session: got %v", err)
	}

	after, err := f.svc.Get(f.ctx, s.Token)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !reflect.DeepEqual(after, closed) {
		t.Errorf("session changed:\n before %+v\n after  %+v", closed, after)
	}
}

func TestCloseTwiceFails(t *testing.T) {
	f := newFixture(t)
	s := f.start(t)

	if _, err := f.svc.Close(f.ctx, s.Token); err != nil {
		t.Fatalf("first Close: %v", err)
	}
	_, err := f.svc.Close(f.ctx, s.Token)
	if !errors.Is(err, ErrSessionClosed) || !errors.Is(err, apperr.ErrInvalidState) {
		t.Fatalf("second Close: got %v", err)
	}
}

func TestUnknownSession(t *testing.T) {
	f := newFixture(t)

	if _, err := f.svc.Get(f.ctx, "ZZZZ-ZZZZ"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("Get: got %v", err)
	}
	if _, err := f.svc.Close(f.ctx, "ZZZZ-ZZZZ"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Close: got %v", err)
	}
	if _, err := f.svc.AttachReview(f.ctx, ReviewRequest{SessionID: "ZZZZ-ZZZZ", Review: Review{Rating: 3}}); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("AttachReview: got %v", err)
	}
}

func TestReviewValidation(t *testing.T) {
	f := newFixture(t)
	s := f.start(t)

	for _, rating := range []int{0, 6, -1} {
		_, err := f.svc.AttachReview(f.ctx, ReviewRequest{SessionID: s.Token, Review: Review{Rating: rating}})
		if !errors.Is(err, apperr.ErrValidation) {
			t.Errorf("rating %d: got %v", rating, err)
		}
	}
	got, err := f.svc.Get(f.ctx, s.Token)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Reviewed() {
		t.Error("rejected review was stored")
	}
}

func TestOutsiderCannotMutate(t *testing.T) {
	f := newFixture(t)
	s := f.start(t)

	other := reqctx.WithActor(context.Background(), reqctx.Actor{UserID: "t9", Role: "therapist"})
	if _, err := f.svc.Close(other, s.Token); !errors.Is(err, apperr.ErrForbidden) {
		t.Fatalf("Close by outsider: got %v", err)
	}

	instructor := reqctx.WithActor(context.Background(), reqctx.Actor{UserID: "i1", Role: "instructor"})
	if _, err := f.svc.Close(instructor, s.Token); err != nil {
		t.Fatalf("Close by instructor: %v", err)
	}
}

func TestConcurrentReviewAndClose(t *testing.T) {
	f := newFixture(t)

	for range 20 {
		s := f.start(t)

		var wg sync.WaitGroup
		var reviewErr, closeErr error
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, reviewErr = f.svc.AttachReview(f.ctx, ReviewRequest{SessionID: s.Token, Review: Review{Rating: 3}})
		}()
		go func() {
			defer wg.Done()
			_, closeErr = f.svc.Close(f.ctx, s.Token)
		}()
		wg.Wait()

		if closeErr != nil {
			t.Fatalf("Close: %v", closeErr)
		}
		got, err := f.svc.Get(f.ctx, s.Token)
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if got.Status != repo.SessionClosed {
			t.Fatalf("status = %s", got.Status)
		}
		// either the review landed before the close, or it was rejected
		switch {
		case reviewErr == nil && !got.Reviewed():
			t.Fatal("accepted review was lost")
		case reviewErr != nil && !errors.Is(reviewErr, ErrSessionClosed):
			t.Fatalf("review: %v", reviewErr)
		case reviewErr != nil && got.Reviewed():
			t.Fatal("rejected review was stored")
		}
	}
}

func TestListAndStats(t *testing.T) {
	f := newFixture(t)
	a := f.start(t)
	b := f.start(t)
	f.start(t)

	if _, err := f.svc.AttachReview(f.ctx, ReviewRequest{SessionID: a.Token, Review: Review{Rating: 4}}); err != nil {
		t.Fatalf("AttachReview: %v", err)
	}
	if _, err := f.svc.AttachReview(f.ctx, ReviewRequest{SessionID: b.Token, Review: Review{Rating: 2}}); err != nil {
		t.Fatalf("AttachReview: %v", err)
	}
	if _, err := f.svc.Close(f.ctx, b.Token); err != nil {
		t.Fatalf("Close: %v", err)
	}

	tests := []struct {
		name   string
		filter ListFilter
		want   int
	}{
		{"by patient", ListFilter{PatientID: "p1"}, 3},
		{"by therapist", ListFilter{UserID: "t1", UserType: UserTherapist}, 3},
		{"by instructor", ListFilter{UserID: "i1", UserType: UserInstructor}, 3},
		{"other instructor", ListFilter{UserID: "i2", UserType: UserInstructor}, 0},
		{"closed only", ListFilter{PatientID: "p1", Status: repo.SessionClosed}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := f.svc.List(f.ctx, tt.filter)
			if err != nil {
				t.Fatalf("List: %v", err)
			}
			if len(got) != tt.want {
				t.Errorf("got %d sessions, want %d", len(got), tt.want)
			}
		})
	}

	if _, err := f.svc.List(f.ctx, ListFilter{UserID: "t1", UserType: "admin"}); !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("bad user type: got %v", err)
	}
	if _, err := f.svc.List(f.ctx, ListFilter{}); !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("empty filter: got %v", err)
	}

	active, err := f.svc.ListActive(f.ctx, "p1")
	if err != nil {
		t.Fatalf("ListActive: %v", err)
	}
	if len(active) != 2 {
		t.Errorf("active = %d, want 2", len(active))
	}

	st, err := f.svc.TherapistStats(f.ctx, "t1")
	if err != nil {
		t.Fatalf("TherapistStats: %v", err)
	}
	want := TherapistStats{Patients: 1, Sessions: 3, Active: 2, Reviewed: 2, AverageRating: 3}
	if *st != want {
		t.Errorf("stats = %+v, want %+v", *st, want)
	}
}

type brokenLocker struct{ err error }

func (b brokenLocker) Lock(context.Context, string) (func(), error) { return nil, b.err }

func TestLockFailuresAreCategorized(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"contended", lock.ErrNotAcquired, ErrSessionBusy},
		{"backend down", errors.New("dial tcp: connection refused"), apperr.ErrPersistence},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			s := f.start(t)

			svc := New(f.store, f.store, f.games, brokenLocker{err: tt.err}, f.events, codes.NewGenerator(codes.DefaultConfig()))
			_, err := svc.Close(f.ctx, s.Token)
			if !errors.Is(err, tt.want) {
				t.Fatalf("Close: got %v, want %v", err, tt.want)
			}
			if !apperr.Categorized(err) {
				t.Errorf("Close error %v carries no category", err)
			}
		})
	}
}
