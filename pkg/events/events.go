// Package events publishes domain events on NATS. Payloads are JSON.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go"

	"github.com/Alijeyrad/playcare_backend/pkg/reqctx"
)

const (
	SubjectSessionCreated  = "playcare.session.created"
	SubjectSessionReviewed = "playcare.session.reviewed"
	SubjectSessionClosed   = "playcare.session.closed"
	SubjectReportFinalized = "playcare.report.finalized"
	SubjectReportExport    = "playcare.report.export"

	// QueueExportWorkers load-balances export jobs across replicas.
	QueueExportWorkers = "playcare-export"
)

type Publisher interface {
	Publish(ctx context.Context, subject string, payload any) error
}

// NATS publishes through a shared connection.
type NATS struct {
	nc *nats.Conn
}

func NewNATS(nc *nats.Conn) *NATS {
	return &NATS{nc: nc}
}

func (p *NATS) Publish(ctx context.Context, subject string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode %s: %w", subject, err)
	}
	msg := nats.NewMsg(subject)
	msg.Data = data
	if rid := reqctx.RequestIDFromContext(ctx); rid != "" {
		msg.Header.Set("X-Request-Id", rid)
	}
	if err := p.nc.PublishMsg(msg); err != nil {
		return fmt.Errorf("publish %s: %w", subject, err)
	}
	return nil
}

// Nop drops events. Used when NATS is disabled.
type Nop struct{}

func (Nop) Publish(_ context.Context, subject string, _ any) error {
	slog.Debug("event dropped, nats disabled", "subject", subject)
	return nil
}

// Decode unmarshals a message payload into v.
func Decode(msg *nats.Msg, v any) error {
	if err := json.Unmarshal(msg.Data, v); err != nil {
		return fmt.Errorf("decode %s: %w", msg.Subject, err)
	}
	return nil
}

// SessionEvent is published on every session state change.
type SessionEvent struct {
	SessionID   string `json:"sessionId"`
	PatientID   string `json:"patientId"`
	TherapistID string `json:"therapistId,omitempty"`
	Status      string `json:"status"`
}

// ReportEvent is published when a report is finalized.
type ReportEvent struct {
	ReportID    string `json:"reportId"`
	PatientID   string `json:"patientId"`
	TherapistID string `json:"therapistId"`
	Sessions    int    `json:"sessions"`
}

// ExportJob asks a worker to render and upload a report document.
type ExportJob struct {
	ReportID    string `json:"reportId"`
	RequestedBy string `json:"requestedBy"`
	NotifyName  string `json:"notifyName,omitempty"`
	NotifyEmail string `json:"notifyEmail,omitempty"`
}
