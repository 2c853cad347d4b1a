package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Domain counters. They are created against the global meter provider, which
// forwards to the real provider once InitTelemetry has run and is a no-op
// before that, so tests need no setup.
var (
	meter = otel.Meter(tracerName)

	sessionTransitions, _ = meter.Int64Counter(
		"playcare_session_transitions_total",
		metric.WithDescription("Session state transitions by kind"),
	)
	configSaves, _ = meter.Int64Counter(
		"playcare_game_config_saves_total",
		metric.WithDescription("Game configuration saves by outcome"),
	)
	draftOutcomes, _ = meter.Int64Counter(
		"playcare_report_drafts_total",
		metric.WithDescription("AI draft requests by outcome"),
	)
	documentsRendered, _ = meter.Int64Counter(
		"playcare_documents_rendered_total",
		metric.WithDescription("Rendered report documents by path"),
	)
	renderPages, _ = meter.Int64Histogram(
		"playcare_document_pages",
		metric.WithDescription("Pages per rendered report document"),
	)
)

// SessionTransition counts a session event: created, reviewed or closed.
func SessionTransition(ctx context.Context, kind string) {
	sessionTransitions.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", kind)))
}

// ConfigSave counts a config save: ok, conflict or invalid.
func ConfigSave(ctx context.Context, outcome string) {
	configSaves.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

// DraftOutcome counts a draft: structured, raw_fallback or unavailable.
func DraftOutcome(ctx context.Context, outcome string) {
	draftOutcomes.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

// DocumentRendered records a rendered document; path is inline or background.
func DocumentRendered(ctx context.Context, path string, pages int) {
	attrs := metric.WithAttributes(attribute.String("path", path))
	documentsRendered.Add(ctx, 1, attrs)
	renderPages.Record(ctx, int64(pages), attrs)
}
