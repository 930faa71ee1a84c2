package serve

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/metric"

	"github.com/ledgergraph-ai/sdk/multihop"
)

// Metrics holds the request counters recorded on the serve path.
// All counters are safe for concurrent use after creation.
type Metrics struct {
	// RunsStarted counts retrieval runs started over gRPC.
	RunsStarted metric.Int64Counter

	// HopsExecuted counts hops executed across all retrieval runs.
	HopsExecuted metric.Int64Counter

	// HopFailures counts hops that ended in an error.
	HopFailures metric.Int64Counter
}

// NewMetrics registers the serve counters on the provided meter.
// Returns an error if any counter registration fails.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}
	var err error

	m.RunsStarted, err = meter.Int64Counter(
		"retriever_runs_started_total",
		metric.WithDescription("Retrieval runs started over gRPC"),
		metric.WithUnit("{run}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create runs counter: %w", err)
	}

	m.HopsExecuted, err = meter.Int64Counter(
		"retriever_hops_executed_total",
		metric.WithDescription("Hops executed across retrieval runs"),
		metric.WithUnit("{hop}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create hops counter: %w", err)
	}

	m.HopFailures, err = meter.Int64Counter(
		"retriever_hop_failures_total",
		metric.WithDescription("Hops that ended in an error"),
		metric.WithUnit("{hop}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create hop failures counter: %w", err)
	}

	return m, nil
}

// ObserveRun records the hop counters for one finished run.
func (m *Metrics) ObserveRun(ctx context.Context, result *multihop.Result) {
	if result == nil {
		return
	}
	m.HopsExecuted.Add(ctx, int64(len(result.Hops)))
	m.HopFailures.Add(ctx, int64(len(result.FailedHops())))
}
