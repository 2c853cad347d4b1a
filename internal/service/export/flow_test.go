package export_test

import (
	"bytes"
	"context"
	"slices"
	"testing"

	"github.com/Alijeyrad/playcare_backend/config"
	"github.com/Alijeyrad/playcare_backend/internal/repo"
	"github.com/Alijeyrad/playcare_backend/internal/repo/memstore"
	"github.com/Alijeyrad/playcare_backend/internal/service/catalog"
	"github.com/Alijeyrad/playcare_backend/internal/service/document"
	"github.com/Alijeyrad/playcare_backend/internal/service/export"
	"github.com/Alijeyrad/playcare_backend/internal/service/gameconfig"
	"github.com/Alijeyrad/playcare_backend/internal/service/patient"
	"github.com/Alijeyrad/playcare_backend/internal/service/report"
	"github.com/Alijeyrad/playcare_backend/internal/service/session"
	"github.com/Alijeyrad/playcare_backend/pkg/email"
	"github.com/Alijeyrad/playcare_backend/pkg/events"
	"github.com/Alijeyrad/playcare_backend/pkg/llm"
	"github.com/Alijeyrad/playcare_backend/pkg/lock"
	"github.com/Alijeyrad/playcare_backend/pkg/reqctx"
	"github.com/Alijeyrad/playcare_backend/pkg/util/codes"
)

type noMail struct{}

func (noMail) Send(context.Context, email.Message) error { return email.ErrDisabled{} }

// TestReviewedSessionToDocument follows one session from creation to the
// rendered report.
func TestReviewedSessionToDocument(t *testing.T) {
	games, err := catalog.Load("")
	if err != nil {
		t.Fatalf("catalog.Load: %v", err)
	}
	store := memstore.New()
	gen := codes.NewGenerator(codes.DefaultConfig())
	ctx := reqctx.WithActor(context.Background(), reqctx.Actor{UserID: "t1", Role: "therapist", Name: "Dr. T"})

	patients := patient.New(store, store, gen)
	configs := gameconfig.New(games, store, store)
	sessions := session.New(store, store, configs, lock.NewLocal(), events.Nop{}, gen)
	reports := report.New(store, store, store, llm.NewFromCentral(config.AIConfig{}), events.Nop{}, report.Options{})
	renderer := document.New(document.DefaultGeometry())
	exports := export.New(reports, store, store, renderer, nil, noMail{}, events.Nop{}, export.Options{})

	p, err := patients.Create(ctx, patient.CreatePatientRequest{Name: "P"})
	if err != nil {
		t.Fatalf("create patient: %v", err)
	}
	s, err := sessions.Create(ctx, session.CreateRequest{PatientID: p.ID, InstructorID: "i1", GameName: gameconfig.BubbleGame})
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	if _, err := sessions.AttachReview(ctx, session.ReviewRequest{
		SessionID: s.Token,
		Review:    session.Review{Rating: 5, Text: "Great session"},
	}); err != nil {
		t.Fatalf("review: %v", err)
	}
	if _, err := sessions.Close(ctx, s.Token); err != nil {
		t.Fatalf("close: %v", err)
	}

	rep, err := reports.Finalize(ctx, report.FinalizeRequest{
		Summary:    "Steady progress.",
		SessionIDs: []string{s.Token},
		PatientID:  p.ID,
	})
	if err != nil {
		t.Fatalf("finalize: %v", err)
	}

	stored, err := store.GetPatient(ctx, p.ID)
	if err != nil {
		t.Fatal(err)
	}
	doc, err := renderer.Render(rep, stored, document.Therapist{ID: "t1", Name: "Dr. T"}, nil)
	if err != nil {
		t.Fatalf("render: %v", err)
	}

	var texts []string
	for i := range doc.Pages {
		texts = append(texts, doc.Pages[i].Texts()...)
	}
	if !slices.Contains(texts, "Name: P") {
		t.Errorf("patient block missing, texts = %q", texts)
	}
	rows := 0
	for _, txt := range texts {
		if txt == "5/5" {
			rows++
		}
	}
	if rows != 1 {
		t.Errorf("rating cells = %d, want exactly one session row", rows)
	}

	res, err := exports.Request(ctx, rep.ID)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if !res.Inline || !bytes.HasPrefix(res.Document, []byte("%PDF-")) {
		t.Errorf("export inline=%v, %d bytes", res.Inline, len(res.Document))
	}
	if res.Export.Status != repo.ExportReady || res.Export.FileName != doc.FileName {
		t.Errorf("export = %+v, want ready %s", res.Export, doc.FileName)
	}
}
