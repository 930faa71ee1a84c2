package serve

import (
	"context"
	"encoding/hex"
	"log/slog"

	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"
)

// instrumentationName identifies the SDK's tracer and meter scopes.
const instrumentationName = "ledgergraph-sdk"

// NewLogTracerProvider creates a TracerProvider whose finished spans are
// written to the logger by a LogSpanExporter. It is the default provider on
// the serve path, for deployments that collect traces from logs rather than
// running a trace backend.
//
// The provider uses a SimpleSpanProcessor, so each span is exported the
// moment it ends and log lines appear in completion order without batching
// delay.
//
// The caller owns the provider and should call Shutdown when done with it.
func NewLogTracerProvider(logger *slog.Logger) *sdktrace.TracerProvider {
	if logger == nil {
		logger = slog.Default()
	}

	exporter := NewLogSpanExporter(logger)
	processor := sdktrace.NewSimpleSpanProcessor(exporter)

	res, err := resource.New(
		context.Background(),
		resource.WithAttributes(
			semconv.ServiceNameKey.String(instrumentationName),
		),
	)
	if err != nil {
		logger.Warn("failed to create resource, using default", "error", err)
		res = resource.Default()
	}

	return sdktrace.NewTracerProvider(
		sdktrace.WithSpanProcessor(processor),
		sdktrace.WithResource(res),
	)
}

// ParentContext creates a context carrying a remote parent SpanContext built
// from hex-encoded traceID and parentSpanID strings. Request spans started
// under the returned context join the caller's trace, which links served
// retrievals to the client that requested them.
//
// Returns the original context unchanged when either ID is empty or cannot
// be decoded.
func ParentContext(ctx context.Context, traceID, parentSpanID string) context.Context {
	if traceID == "" || parentSpanID == "" {
		return ctx
	}

	traceIDBytes, err := hex.DecodeString(traceID)
	if err != nil || len(traceIDBytes) != 16 {
		return ctx
	}

	spanIDBytes, err := hex.DecodeString(parentSpanID)
	if err != nil || len(spanIDBytes) != 8 {
		return ctx
	}

	var tid trace.TraceID
	copy(tid[:], traceIDBytes)

	var sid trace.SpanID
	copy(sid[:], spanIDBytes)

	parent := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    tid,
		SpanID:     sid,
		TraceFlags: trace.FlagsSampled,
		Remote:     true,
	})

	return trace.ContextWithSpanContext(ctx, parent)
}
