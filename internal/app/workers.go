package app

import (
	"context"
	"log/slog"

	"github.com/nats-io/nats.go"
	"go.uber.org/fx"

	"github.com/Alijeyrad/playcare_backend/internal/service/export"
	"github.com/Alijeyrad/playcare_backend/pkg/events"
)

// WorkerModule registers the NATS workers. Nothing is registered when NATS
// is disabled; exports then run in-process.
var WorkerModule = fx.Module("workers",
	fx.Invoke(RegisterWorkers),
)

type WorkerParams struct {
	fx.In

	Lc      fx.Lifecycle
	NC      *nats.Conn `optional:"true"`
	Exports export.Service
}

func RegisterWorkers(p WorkerParams) {
	if p.NC == nil {
		return
	}

	var subs []*nats.Subscription
	p.Lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			sub, err := startExportWorker(p.NC, p.Exports)
			if err != nil {
				return err
			}
			subs = append(subs, sub)

			sub, err = startActivityWorker(p.NC)
			if err != nil {
				return err
			}
			subs = append(subs, sub)
			return nil
		},
		OnStop: func(ctx context.Context) error {
			// connection drain is handled by ProvideNatsClient
			for _, sub := range subs {
				_ = sub.Unsubscribe()
			}
			return nil
		},
	})
}

// ---------------------------------------------------------------------------
// export_worker
// ---------------------------------------------------------------------------

func startExportWorker(nc *nats.Conn, exports export.Service) (*nats.Subscription, error) {
	sub, err := nc.QueueSubscribe(events.SubjectReportExport, events.QueueExportWorkers, func(msg *nats.Msg) {
		var job events.ExportJob
		if err := events.Decode(msg, &job); err != nil {
			slog.Warn("export_worker: bad job payload", "err", err)
			return
		}
		// Process records failures on the export row itself
		if err := exports.Process(context.Background(), job); err != nil {
			slog.Warn("export_worker: job failed", "report_id", job.ReportID, "err", err)
		}
	})
	if err != nil {
		slog.Error("export_worker: subscribe failed", "err", err)
		return nil, err
	}
	slog.Info("export_worker: started", "queue", events.QueueExportWorkers)
	return sub, nil
}

// ---------------------------------------------------------------------------
// activity_worker
// ---------------------------------------------------------------------------

// startActivityWorker logs session and report transitions so they show up in
// the aggregated log stream.
func startActivityWorker(nc *nats.Conn) (*nats.Subscription, error) {
	sub, err := nc.Subscribe("playcare.>", func(msg *nats.Msg) {
		switch msg.Subject {
		case events.SubjectSessionCreated, events.SubjectSessionReviewed, events.SubjectSessionClosed:
			var ev events.SessionEvent
			if err := events.Decode(msg, &ev); err != nil {
				return
			}
			slog.Info("activity: session", "subject", msg.Subject, "session_id", ev.SessionID, "patient_id", ev.PatientID, "status", ev.Status)
		case events.SubjectReportFinalized:
			var ev events.ReportEvent
			if err := events.Decode(msg, &ev); err != nil {
				return
			}
			slog.Info("activity: report finalized", "report_id", ev.ReportID, "patient_id", ev.PatientID, "sessions", ev.Sessions)
		}
	})
	if err != nil {
		slog.Error("activity_worker: subscribe failed", "err", err)
		return nil, err
	}
	slog.Info("activity_worker: started")
	return sub, nil
}
