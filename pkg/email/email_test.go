package email

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"gopkg.in/gomail.v2"

	"github.com/Alijeyrad/playcare_backend/pkg/apperr"
)

func TestBuildReportReadyEmail(t *testing.T) {
	m := BuildReportReadyEmail(ReportReadyData{
		TherapistName: "Dr. Ada",
		Email:         "ada@example.com",
		PatientName:   "Sam <Lee>",
		ReportTitle:   "Spring review",
		FileName:      "sam_lee_report_2026-03-02.pdf",
		Pages:         3,
		DownloadURL:   "https://files.example.com/r1?sig=abc&x=1",
	})

	if len(m.To) != 1 || m.To[0] != "ada@example.com" {
		t.Errorf("To = %v", m.To)
	}
	if m.Subject != "Report for Sam <Lee> is ready" {
		t.Errorf("Subject = %q", m.Subject)
	}
	if !strings.Contains(m.TextBody, "https://files.example.com/r1?sig=abc&x=1") {
		t.Error("text body is missing the download link")
	}
	if !strings.Contains(m.HTMLBody, "Sam &lt;Lee&gt;") || !strings.Contains(m.HTMLBody, "sig=abc&amp;x=1") {
		t.Error("html body is not escaped")
	}
	if !strings.Contains(m.TextBody, "PlayCare") {
		t.Error("default app name missing")
	}
}

func TestBuildMessageReportHeader(t *testing.T) {
	m := BuildReportReadyEmail(ReportReadyData{
		ReportID:    "r-42",
		Email:       "ada@example.com",
		PatientName: "Sam",
		ReportTitle: "Spring review",
	})
	msg, err := buildMessage("noreply@example.com", m)
	if err != nil {
		t.Fatalf("buildMessage: %v", err)
	}
	if got := msg.GetHeader(HeaderReportID); len(got) != 1 || got[0] != "r-42" {
		t.Errorf("%s = %v, want [r-42]", HeaderReportID, got)
	}

	m.ReportID = ""
	msg, err = buildMessage("noreply@example.com", m)
	if err != nil {
		t.Fatalf("buildMessage: %v", err)
	}
	if got := msg.GetHeader(HeaderReportID); len(got) != 0 {
		t.Errorf("%s set without a report: %v", HeaderReportID, got)
	}
}

func TestBuildMessageValidation(t *testing.T) {
	tests := []struct {
		name string
		from string
		msg  Message
	}{
		{"no from", "", Message{To: []string{"a@b.c"}, Subject: "s", TextBody: "b"}},
		{"no recipients", "x@y.z", Message{To: []string{" "}, Subject: "s", TextBody: "b"}},
		{"no subject", "x@y.z", Message{To: []string{"a@b.c"}, TextBody: "b"}},
		{"no body", "x@y.z", Message{To: []string{"a@b.c"}, Subject: "s"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var invalid ErrInvalidMessage
			if _, err := buildMessage(tt.from, tt.msg); !errors.As(err, &invalid) {
				t.Fatalf("expected ErrInvalidMessage, got %v", err)
			}
		})
	}
}

func TestDisabledClient(t *testing.T) {
	c, err := New(DefaultConfig())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	err = c.Send(context.Background(), Message{To: []string{"a@b.c"}, Subject: "s", TextBody: "b"})
	var disabled ErrDisabled
	if !errors.As(err, &disabled) {
		t.Fatalf("expected ErrDisabled, got %v", err)
	}
}

func TestErrorCategories(t *testing.T) {
	cause := errors.New("dial tcp: refused")
	send := ErrSend{Provider: "gomail/smtp", Err: cause}
	if !errors.Is(send, apperr.ErrExternalService) {
		t.Error("ErrSend is not an external service error")
	}
	if !errors.Is(send, cause) {
		t.Error("ErrSend does not unwrap to its cause")
	}
	if !errors.Is(ErrInvalidMessage{Reason: "x"}, apperr.ErrValidation) {
		t.Error("ErrInvalidMessage is not a validation error")
	}
	if errors.Is(ErrDisabled{}, apperr.ErrExternalService) {
		t.Error("ErrDisabled must not be categorized as a failure")
	}
}

func enabledClient(t *testing.T, attempts int, deliver func(*gomail.Message) error) *Client {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Enabled = true
	cfg.From = "noreply@example.com"
	cfg.SMTPHost = "smtp.example.com"
	cfg.SMTPMaxAttempts = attempts
	c, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	c.deliver = deliver
	c.retry = time.Millisecond
	return c
}

func TestSendRetries(t *testing.T) {
	msg := Message{To: []string{"a@b.c"}, Subject: "s", TextBody: "b"}

	t.Run("transient failure then success", func(t *testing.T) {
		calls := 0
		c := enabledClient(t, 3, func(*gomail.Message) error {
			calls++
			if calls < 2 {
				return errors.New("421 try later")
			}
			return nil
		})
		if err := c.Send(context.Background(), msg); err != nil {
			t.Fatalf("Send: %v", err)
		}
		if calls != 2 {
			t.Errorf("calls = %d, want 2", calls)
		}
	})

	t.Run("gives up after max attempts", func(t *testing.T) {
		calls := 0
		c := enabledClient(t, 2, func(*gomail.Message) error {
			calls++
			return errors.New("550 rejected")
		})
		err := c.Send(context.Background(), msg)
		if !errors.Is(err, apperr.ErrExternalService) {
			t.Fatalf("Send = %v, want external service error", err)
		}
		if calls != 2 {
			t.Errorf("calls = %d, want 2", calls)
		}
	})

	t.Run("invalid message is not sent", func(t *testing.T) {
		c := enabledClient(t, 3, func(*gomail.Message) error {
			t.Error("deliver called for an invalid message")
			return nil
		})
		if err := c.Send(context.Background(), Message{To: []string{"a@b.c"}}); !errors.Is(err, apperr.ErrValidation) {
			t.Fatalf("Send = %v, want validation error", err)
		}
	})
}
