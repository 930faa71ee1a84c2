package serve

import (
	"context"
	"log/slog"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// LogSpanExporter implements the OpenTelemetry SpanExporter interface by
// writing each finished span to a structured logger. It stands in for a
// network exporter in deployments that collect traces from logs.
//
// Export failures cannot occur: logging errors are swallowed by the handler,
// and the exporter always returns nil to keep the trace pipeline intact.
type LogSpanExporter struct {
	logger *slog.Logger
}

// NewLogSpanExporter creates a LogSpanExporter writing to logger.
// A nil logger falls back to slog.Default().
func NewLogSpanExporter(logger *slog.Logger) *LogSpanExporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSpanExporter{logger: logger}
}

// ExportSpans writes one log record per span: name, trace identifiers,
// duration, status, and the span's attributes. It is called by the SDK's
// span processor as spans complete.
func (e *LogSpanExporter) ExportSpans(ctx context.Context, spans []sdktrace.ReadOnlySpan) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	for _, span := range spans {
		sc := span.SpanContext()

		args := []any{
			"name", span.Name(),
			"trace_id", sc.TraceID().String(),
			"span_id", sc.SpanID().String(),
			"duration", span.EndTime().Sub(span.StartTime()),
		}

		if parent := span.Parent(); parent.IsValid() {
			args = append(args, "parent_span_id", parent.SpanID().String())
		}

		status := span.Status()
		args = append(args, "status", status.Code.String())
		if status.Description != "" {
			args = append(args, "status_description", status.Description)
		}

		for _, attr := range span.Attributes() {
			args = append(args, string(attr.Key), attr.Value.AsInterface())
		}

		e.logger.Info("span completed", args...)
	}

	return nil
}

// Shutdown implements the SpanExporter interface. The logger needs no
// cleanup, so this is a no-op.
func (e *LogSpanExporter) Shutdown(ctx context.Context) error {
	return nil
}
