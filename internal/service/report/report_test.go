package report

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Alijeyrad/playcare_backend/internal/repo"
	"github.com/Alijeyrad/playcare_backend/internal/repo/memstore"
	"github.com/Alijeyrad/playcare_backend/pkg/apperr"
	"github.com/Alijeyrad/playcare_backend/pkg/events"
	"github.com/Alijeyrad/playcare_backend/pkg/llm"
	"github.com/Alijeyrad/playcare_backend/pkg/reqctx"
)

// fakeAssistant replays canned replies, one per call.
type fakeAssistant struct {
	mu      sync.Mutex
	replies []string
	errs    []error
	calls   int
	prompts []string
	block   bool
}

func (f *fakeAssistant) Complete(ctx context.Context, _, prompt string) (string, error) {
	f.mu.Lock()
	i := f.calls
	f.calls++
	f.prompts = append(f.prompts, prompt)
	block := f.block
	f.mu.Unlock()

	if block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	var err error
	if i < len(f.errs) {
		err = f.errs[i]
	}
	if err != nil {
		return "", err
	}
	if i < len(f.replies) {
		return f.replies[i], nil
	}
	return "", errors.New("no more replies")
}

func (f *fakeAssistant) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fixture struct {
	svc   Service
	store *memstore.Store
	ai    *fakeAssistant
	ctx   context.Context
}

func newFixture(t *testing.T, ai *fakeAssistant) *fixture {
	t.Helper()
	store := memstore.New()
	ctx := context.Background()

	must := func(err error) {
		t.Helper()
		if err != nil {
			t.Fatal(err)
		}
	}
	must(store.CreatePatient(ctx, &repo.Patient{ID: "p1", UserCode: "C1", TherapistID: "t1", Name: "Sam Lee", Age: 8, Condition: "ADHD"}))
	must(store.CreatePatient(ctx, &repo.Patient{ID: "p2", UserCode: "C2", TherapistID: "t1", Name: "Ana"}))

	five := 5
	review := "Great session"
	score := 120.0
	base := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
	must(store.CreateSession(ctx, &repo.Session{
		Token: "AAAA-AAAA", PatientID: "p1", TherapistID: "t1", InstructorID: "i1",
		GameData: repo.GameData{GameName: "bubble_game", Score: &score},
		Rating:   &five, Review: &review, Date: base, Status: repo.SessionClosed,
	}))
	must(store.CreateSession(ctx, &repo.Session{
		Token: "BBBB-BBBB", PatientID: "p1", TherapistID: "t1", InstructorID: "i1",
		GameData: repo.GameData{GameName: "sound_match"}, Date: base.AddDate(0, 0, 7), Status: repo.SessionActive,
	}))
	must(store.CreateSession(ctx, &repo.Session{
		Token: "CCCC-CCCC", PatientID: "p2", TherapistID: "t1", InstructorID: "i1",
		GameData: repo.GameData{GameName: "bubble_game"}, Date: base, Status: repo.SessionActive,
	}))

	opts := Options{Timeout: 200 * time.Millisecond, MaxRetries: 1, RetryDelay: time.Millisecond}
	return &fixture{
		svc:   New(store, store, store, ai, events.Nop{}, opts),
		store: store,
		ai:    ai,
		ctx:   reqctx.WithActor(ctx, reqctx.Actor{UserID: "t1", Role: "therapist"}),
	}
}

func TestComposeDraftStructured(t *testing.T) {
	ai := &fakeAssistant{replies: []string{"```json {\"summary\":\"a\",\"progress\":\"b\",\"recommendations\":\"c\"} ```"}}
	f := newFixture(t, ai)

	d, err := f.svc.ComposeDraft(f.ctx, DraftRequest{PatientID: "p1", SessionIDs: []string{"aaaa-aaaa"}, Notes: "Focus improved."})
	if err != nil {
		t.Fatalf("ComposeDraft: %v", err)
	}
	want := Draft{Summary: "a", Progress: "b", Recommendations: "c", Source: SourceStructured}
	if *d != want {
		t.Errorf("draft = %+v, want %+v", *d, want)
	}

	prompt := ai.prompts[0]
	for _, part := range []string{"Sam Lee", "Age: 8", "ADHD", "2026-02-01", "bubble_game", "score 120", "rating 5/5", "Great session", "Focus improved."} {
		if !strings.Contains(prompt, part) {
			t.Errorf("prompt is missing %q:\n%s", part, prompt)
		}
	}
}

func TestComposeDraftRawFallback(t *testing.T) {
	f := newFixture(t, &fakeAssistant{replies: []string{"hello"}})

	d, err := f.svc.ComposeDraft(f.ctx, DraftRequest{PatientID: "p1"})
	if err != nil {
		t.Fatalf("ComposeDraft must not fail on malformed replies: %v", err)
	}
	want := Draft{Summary: "hello", Progress: ProgressPlaceholder, Recommendations: RecommendationsPlaceholder, Source: SourceRawFallback}
	if *d != want {
		t.Errorf("draft = %+v, want %+v", *d, want)
	}
}

func TestComposeDraftRetriesOnce(t *testing.T) {
	ai := &fakeAssistant{
		errs:    []error{errors.New("502 bad gateway")},
		replies: []string{"", `{"summary":"ok"}`},
	}
	f := newFixture(t, ai)

	d, err := f.svc.ComposeDraft(f.ctx, DraftRequest{PatientID: "p1"})
	if err != nil {
		t.Fatalf("ComposeDraft: %v", err)
	}
	if d.Source != SourceStructured || d.Summary != "ok" {
		t.Errorf("draft = %+v", d)
	}
	if ai.callCount() != 2 {
		t.Errorf("calls = %d, want 2", ai.callCount())
	}
}

func TestComposeDraftGivesUpAfterOneRetry(t *testing.T) {
	boom := errors.New("boom")
	ai := &fakeAssistant{errs: []error{boom, boom, boom}}
	f := newFixture(t, ai)

	d, err := f.svc.ComposeDraft(f.ctx, DraftRequest{PatientID: "p1"})
	if err != nil {
		t.Fatalf("ComposeDraft: %v", err)
	}
	if d.Source != SourceUnavailable || d.Progress != ProgressPlaceholder {
		t.Errorf("draft = %+v", d)
	}
	if ai.callCount() != 2 {
		t.Errorf("calls = %d, want 2", ai.callCount())
	}
}

func TestComposeDraftDisabledAssistantIsNotRetried(t *testing.T) {
	ai := &fakeAssistant{errs: []error{llm.ErrDisabled, llm.ErrDisabled}}
	f := newFixture(t, ai)

	d, err := f.svc.ComposeDraft(f.ctx, DraftRequest{PatientID: "p1"})
	if err != nil {
		t.Fatalf("ComposeDraft: %v", err)
	}
	if d.Source != SourceUnavailable {
		t.Errorf("source = %s", d.Source)
	}
	if ai.callCount() != 1 {
		t.Errorf("calls = %d, want 1", ai.callCount())
	}
}

func TestComposeDraftTimesOut(t *testing.T) {
	f := newFixture(t, &fakeAssistant{block: true})

	start := time.Now()
	d, err := f.svc.ComposeDraft(f.ctx, DraftRequest{PatientID: "p1"})
	if err != nil {
		t.Fatalf("ComposeDraft: %v", err)
	}
	if d.Source != SourceUnavailable {
		t.Errorf("source = %s", d.Source)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("took %s, the per-attempt timeout was not applied", elapsed)
	}
}

func TestComposeDraftCancelled(t *testing.T) {
	ai := &fakeAssistant{block: true}
	f := newFixture(t, ai)

	ctx, cancel := context.WithCancel(f.ctx)
	done := make(chan *Draft, 1)
	go func() {
		d, _ := f.svc.ComposeDraft(ctx, DraftRequest{PatientID: "p1"})
		done <- d
	}()

	for ai.callCount() == 0 {
		time.Sleep(time.Millisecond)
	}
	cancel()

	select {
	case d := <-done:
		if d == nil || d.Source != SourceUnavailable {
			t.Errorf("draft after cancel = %+v", d)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("ComposeDraft kept running after cancellation")
	}
}

func TestComposeDraftRejectsForeignSessions(t *testing.T) {
	ai := &fakeAssistant{}
	f := newFixture(t, ai)

	_, err := f.svc.ComposeDraft(f.ctx, DraftRequest{PatientID: "p1", SessionIDs: []string{"CCCC-CCCC"}})
	if !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("got %v, want validation error", err)
	}
	if ai.callCount() != 0 {
		t.Error("assistant was called for an invalid request")
	}
}

func TestFinalizeSnapshotsSessions(t *testing.T) {
	f := newFixture(t, &fakeAssistant{})

	draft := &Draft{Summary: "a", Progress: "b", Recommendations: "c", Source: SourceStructured}
	r, err := f.svc.Finalize(f.ctx, FinalizeRequest{
		Title:           "Spring review",
		Summary:         "Summary",
		Progress:        "Progress",
		Recommendations: "More bubbles",
		SessionIDs:      []string{"AAAA-AAAA", "aaaa-aaaa", "BBBB-BBBB"},
		PatientID:       "p1",
		TherapistID:     "t1",
		AIDraft:         draft,
	})
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if len(r.SessionIDs) != 2 || r.SessionIDs[0] != "AAAA-AAAA" {
		t.Fatalf("sessionIds = %v", r.SessionIDs)
	}
	if r.Data.AIGenerated == nil || !r.Data.AIGenerated.Structured {
		t.Errorf("ai echo = %+v", r.Data.AIGenerated)
	}

	// every referenced session belongs to the report's patient
	own, err := f.store.ListSessions(f.ctx, repo.SessionFilter{PatientID: r.PatientID})
	if err != nil {
		t.Fatalf("ListSessions: %v", err)
	}
	owned := make(map[string]bool)
	for _, s := range own {
		owned[s.Token] = true
	}
	for _, id := range r.SessionIDs {
		if !owned[id] {
			t.Errorf("session %s does not belong to %s", id, r.PatientID)
		}
	}

	// later edits to a session do not reach the stored report
	sess, err := f.store.GetSessionByToken(f.ctx, "AAAA-AAAA")
	if err != nil {
		t.Fatalf("GetSessionByToken: %v", err)
	}
	changed := "edited afterwards"
	one := 1
	sess.Review, sess.Rating = &changed, &one
	if err := f.store.UpdateSession(f.ctx, sess); err != nil {
		t.Fatalf("UpdateSession: %v", err)
	}

	got, err := f.svc.Get(f.ctx, r.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	snap := got.Sessions[0]
	if snap.Review != "Great session" || *snap.Rating != 5 || *snap.Score != 120 {
		t.Errorf("snapshot changed: %+v", snap)
	}
}

func TestFinalizeRejections(t *testing.T) {
	f := newFixture(t, &fakeAssistant{})

	valid := FinalizeRequest{Summary: "s", SessionIDs: []string{"AAAA-AAAA"}, PatientID: "p1", TherapistID: "t1"}
	tests := []struct {
		name   string
		ctx    context.Context
		mutate func(*FinalizeRequest)
		want   error
	}{
		{"no sessions", f.ctx, func(r *FinalizeRequest) { r.SessionIDs = nil }, apperr.ErrValidation},
		{"no summary", f.ctx, func(r *FinalizeRequest) { r.Summary = " " }, apperr.ErrValidation},
		{"session of another patient", f.ctx, func(r *FinalizeRequest) { r.SessionIDs = []string{"AAAA-AAAA", "CCCC-CCCC"} }, apperr.ErrValidation},
		{"unknown session", f.ctx, func(r *FinalizeRequest) { r.SessionIDs = []string{"ZZZZ-ZZZZ"} }, apperr.ErrValidation},
		{"unknown patient", f.ctx, func(r *FinalizeRequest) { r.PatientID = "nobody" }, ErrPatientNotFound},
		{"wrong therapist", f.ctx, func(r *FinalizeRequest) { r.TherapistID = "t2" }, ErrNotOwner},
		{
			"caller is not the therapist",
			reqctx.WithActor(context.Background(), reqctx.Actor{UserID: "t2", Role: "therapist"}),
			func(*FinalizeRequest) {},
			ErrNotOwner,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := valid
			tt.mutate(&req)
			if _, err := f.svc.Finalize(tt.ctx, req); !errors.Is(err, tt.want) {
				t.Fatalf("Finalize error = %v, want %v", err, tt.want)
			}
		})
	}

	list, err := f.svc.List(f.ctx, "t1")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 0 {
		t.Errorf("rejected finalize left %d reports behind", len(list))
	}
}

func TestListGetDelete(t *testing.T) {
	f := newFixture(t, &fakeAssistant{})

	r, err := f.svc.Finalize(f.ctx, FinalizeRequest{Summary: "s", SessionIDs: []string{"BBBB-BBBB"}, PatientID: "p1"})
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if r.Data.Title != defaultTitle || r.TherapistID != "t1" {
		t.Errorf("report = %+v", r.Data)
	}

	other := reqctx.WithActor(context.Background(), reqctx.Actor{UserID: "t2", Role: "therapist"})
	if _, err := f.svc.Get(other, r.ID); !errors.Is(err, ErrNotOwner) {
		t.Errorf("Get by other therapist: %v", err)
	}
	if err := f.svc.Delete(other, r.ID); !errors.Is(err, ErrNotOwner) {
		t.Errorf("Delete by other therapist: %v", err)
	}

	list, err := f.svc.List(f.ctx, "t1")
	if err != nil || len(list) != 1 {
		t.Fatalf("List = %d, %v", len(list), err)
	}

	if err := f.svc.Delete(f.ctx, r.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := f.svc.Get(f.ctx, r.ID); !errors.Is(err, ErrReportNotFound) {
		t.Errorf("Get after delete: %v", err)
	}
	if err := f.svc.Delete(f.ctx, r.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("second Delete: %v", err)
	}
}
