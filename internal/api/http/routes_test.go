package http

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	nethttp "net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Alijeyrad/playcare_backend/internal/service/export"
	"github.com/Alijeyrad/playcare_backend/pkg/events"
)

type downStorage struct{}

func (downStorage) Put(context.Context, string, string, string, []byte) error {
	return errors.New("bucket unreachable")
}

func (downStorage) PresignGet(context.Context, string) (string, time.Time, error) {
	return "", time.Time{}, errors.New("bucket unreachable")
}

type jobLog struct {
	mu       sync.Mutex
	subjects []string
}

func (j *jobLog) Publish(_ context.Context, subject string, _ any) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.subjects = append(j.subjects, subject)
	return nil
}

// seedPatient creates a patient owned by the token's therapist.
func (s *testServer) seedPatient(t *testing.T, token string) string {
	t.Helper()
	status, body := s.do(t, nethttp.MethodPost, "/api/v1/patients", token, `{"name":"Ada Lovelace","age":7}`)
	if status != nethttp.StatusCreated {
		t.Fatalf("create patient: status = %d (body %v)", status, body)
	}
	return data(t, body)["id"].(string)
}

func (s *testServer) startSession(t *testing.T, token, patientID string) string {
	t.Helper()
	status, body := s.do(t, nethttp.MethodPost, "/api/v1/sessions", token,
		fmt.Sprintf(`{"patientId":%q,"gameName":"bubble_game"}`, patientID))
	if status != nethttp.StatusCreated {
		t.Fatalf("create session: status = %d (body %v)", status, body)
	}
	d := data(t, body)
	if d["status"] != "active" {
		t.Fatalf("new session status = %v", d["status"])
	}
	return d["sessionId"].(string)
}

func (s *testServer) finalize(t *testing.T, token, patientID string, sessionIDs ...string) string {
	t.Helper()
	ids := `"` + strings.Join(sessionIDs, `","`) + `"`
	status, body := s.do(t, nethttp.MethodPost, "/api/v1/reports", token, fmt.Sprintf(
		`{"title":"Spring review","summary":"Steady focus.","progress":"Improving.","recommendations":"Keep going.","patientId":%q,"sessionIds":[%s]}`,
		patientID, ids))
	if status != nethttp.StatusCreated {
		t.Fatalf("finalize: status = %d (body %v)", status, body)
	}
	return data(t, body)["id"].(string)
}

type step struct {
	name   string
	method string
	path   string
	body   string
	want   int
}

func (s *testServer) run(t *testing.T, token string, steps []step) {
	t.Helper()
	for _, st := range steps {
		status, body := s.do(t, st.method, st.path, token, st.body)
		if status != st.want {
			t.Fatalf("%s: status = %d, want %d (body %v)", st.name, status, st.want, body)
		}
		switch {
		case status >= 400:
			if _, ok := body["error"]; !ok {
				t.Errorf("%s: error body missing: %v", st.name, body)
			}
		case status != nethttp.StatusNoContent:
			if _, ok := body["data"]; !ok {
				t.Errorf("%s: data body missing: %v", st.name, body)
			}
		}
	}
}

func TestSessionRoutes(t *testing.T) {
	s := newTestServer(t)
	therapist := s.token(t, "t1", "therapist")
	pid := s.seedPatient(t, therapist)
	tok := s.startSession(t, therapist, pid)
	tok2 := s.startSession(t, therapist, pid)
	path := "/api/v1/sessions/" + tok

	s.run(t, therapist, []step{
		{"close unreviewed", nethttp.MethodPost, "/api/v1/sessions/" + tok2 + "/close", "", nethttp.StatusOK},
		{"bad rating", nethttp.MethodPost, path + "/review", `{"rating":9}`, nethttp.StatusBadRequest},
		{"review", nethttp.MethodPost, path + "/review", `{"rating":4,"review":"focused"}`, nethttp.StatusOK},
		{"second review", nethttp.MethodPost, path + "/review", `{"rating":2,"review":"again"}`, nethttp.StatusConflict},
		{"close", nethttp.MethodPost, path + "/close", "", nethttp.StatusOK},
		{"close again", nethttp.MethodPost, path + "/close", "", nethttp.StatusConflict},
		{"review after close", nethttp.MethodPost, "/api/v1/sessions/" + tok2 + "/review", `{"rating":3}`, nethttp.StatusConflict},
		{"unknown session", nethttp.MethodPost, "/api/v1/sessions/ZZZZ-ZZZZ/close", "", nethttp.StatusNotFound},
		{"stats", nethttp.MethodGet, "/api/v1/therapists/t1/stats", "", nethttp.StatusOK},
	})

	status, body := s.do(t, nethttp.MethodGet, path, therapist, "")
	if status != nethttp.StatusOK {
		t.Fatalf("get session: status = %d", status)
	}
	d := data(t, body)
	if d["status"] != "closed" || d["rating"] != 4.0 {
		t.Errorf("session after close = %v", d)
	}
}

func TestGameConfigRoutes(t *testing.T) {
	s := newTestServer(t)
	therapist := s.token(t, "t1", "therapist")
	base := "/api/v1/patients/" + s.seedPatient(t, therapist) + "/configs/bubble_game"

	s.run(t, therapist, []step{
		{"open", nethttp.MethodPost, base + "/open", "", nethttp.StatusOK},
		{"save", nethttp.MethodPut, base, `{"values":{"bubbleSpeed":3},"expectedVersion":1}`, nethttp.StatusOK},
		{"stale save", nethttp.MethodPut, base, `{"values":{"bubbleSpeed":4},"expectedVersion":1}`, nethttp.StatusConflict},
		{"out of bounds", nethttp.MethodPut, base, `{"values":{"bubbleSpeed":99},"expectedVersion":2}`, nethttp.StatusBadRequest},
		{"stale toggle", nethttp.MethodPut, base + "/enabled", `{"enabled":false,"expectedVersion":1}`, nethttp.StatusConflict},
		{"unknown game", nethttp.MethodGet, strings.TrimSuffix(base, "bubble_game") + "no_such_game", "", nethttp.StatusNotFound},
	})

	status, body := s.do(t, nethttp.MethodGet, base, therapist, "")
	if status != nethttp.StatusOK {
		t.Fatalf("get config: status = %d", status)
	}
	d := data(t, body)
	values, _ := d["values"].(map[string]any)
	if d["version"] != 2.0 || values["bubbleSpeed"] != 3.0 {
		t.Errorf("config after save = %v", d)
	}
}

func TestReportRoutesWithInlineExport(t *testing.T) {
	s := newTestServer(t)
	therapist := s.token(t, "t1", "therapist")
	pid := s.seedPatient(t, therapist)
	tok := s.startSession(t, therapist, pid)

	status, body := s.do(t, nethttp.MethodPost, "/api/v1/reports/draft", therapist,
		fmt.Sprintf(`{"patientId":%q,"sessionIds":[%q],"notes":"calm week"}`, pid, tok))
	if status != nethttp.StatusOK {
		t.Fatalf("draft: status = %d (body %v)", status, body)
	}
	if d := data(t, body); d["source"] != "unavailable" || d["summary"] == "" {
		t.Errorf("draft without an assistant = %v", d)
	}

	id := s.finalize(t, therapist, pid, tok)
	rep := "/api/v1/reports/" + id

	resp, raw := s.send(t, nethttp.MethodPost, rep+"/export", therapist, "")
	if resp.StatusCode != nethttp.StatusOK {
		t.Fatalf("export: status = %d (body %s)", resp.StatusCode, raw)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/pdf" {
		t.Errorf("Content-Type = %q", ct)
	}
	cd := resp.Header.Get("Content-Disposition")
	if !strings.HasPrefix(cd, "attachment; filename=") || !strings.Contains(cd, ".pdf") {
		t.Errorf("Content-Disposition = %q", cd)
	}
	if !bytes.HasPrefix(raw, []byte("%PDF")) {
		t.Errorf("body is not a PDF: %q", raw[:min(len(raw), 16)])
	}

	s.run(t, therapist, []step{
		{"export status", nethttp.MethodGet, rep + "/export", "", nethttp.StatusOK},
		{"download without storage", nethttp.MethodGet, rep + "/download", "", nethttp.StatusConflict},
		{"finalize foreign session", nethttp.MethodPost, "/api/v1/reports",
			fmt.Sprintf(`{"summary":"x","patientId":%q,"sessionIds":["ZZZZ-ZZZZ"]}`, pid), nethttp.StatusBadRequest},
		{"delete", nethttp.MethodDelete, rep, "", nethttp.StatusNoContent},
		{"gone", nethttp.MethodGet, rep, "", nethttp.StatusNotFound},
	})
}

func TestReportExportUpstreamAndBackground(t *testing.T) {
	jobs := &jobLog{}
	s := newTestServerWith(t, exportDeps{
		storage: downStorage{},
		jobs:    jobs,
		opts:    export.Options{BackgroundThreshold: 1, Queued: true},
	})
	therapist := s.token(t, "t1", "therapist")
	pid := s.seedPatient(t, therapist)
	first := s.startSession(t, therapist, pid)
	second := s.startSession(t, therapist, pid)

	small := s.finalize(t, therapist, pid, first)
	large := s.finalize(t, therapist, pid, first, second)

	s.run(t, therapist, []step{
		{"storage failure maps to 502", nethttp.MethodPost, "/api/v1/reports/" + small + "/export", "", nethttp.StatusBadGateway},
	})

	status, body := s.do(t, nethttp.MethodPost, "/api/v1/reports/"+large+"/export", therapist, "")
	if status != nethttp.StatusAccepted {
		t.Fatalf("background export: status = %d (body %v)", status, body)
	}
	if d := data(t, body); d["status"] != "pending" || d["reportId"] != large {
		t.Errorf("pending export = %v", d)
	}
	jobs.mu.Lock()
	queued := append([]string(nil), jobs.subjects...)
	jobs.mu.Unlock()
	if len(queued) != 1 || queued[0] != events.SubjectReportExport {
		t.Errorf("queued jobs = %v", queued)
	}

	s.run(t, therapist, []step{
		{"download while pending", nethttp.MethodGet, "/api/v1/reports/" + large + "/download", "", nethttp.StatusConflict},
	})
}
