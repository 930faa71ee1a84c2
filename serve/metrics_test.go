package serve

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

// countingCounter is an Int64Counter double that tallies added values.
type countingCounter struct {
	noop.Int64Counter
	value atomic.Int64
}

func (c *countingCounter) Add(_ context.Context, incr int64, _ ...metric.AddOption) {
	c.value.Add(incr)
}

// countingMeter is a Meter double that hands out countingCounters by name.
type countingMeter struct {
	noop.Meter
	mu       sync.Mutex
	counters map[string]*countingCounter
}

func newCountingMeter() *countingMeter {
	return &countingMeter{counters: make(map[string]*countingCounter)}
}

func (m *countingMeter) Int64Counter(name string, _ ...metric.Int64CounterOption) (metric.Int64Counter, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.counters[name]
	if !ok {
		c = &countingCounter{}
		m.counters[name] = c
	}
	return c, nil
}

func (m *countingMeter) count(name string) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.counters[name]
	if !ok {
		return 0
	}
	return c.value.Load()
}

// failingMeter rejects every instrument registration.
type failingMeter struct {
	noop.Meter
}

func (failingMeter) Int64Counter(string, ...metric.Int64CounterOption) (metric.Int64Counter, error) {
	return nil, errors.New("registration rejected")
}

func TestNewMetrics(t *testing.T) {
	meter := noop.NewMeterProvider().Meter("test")

	m, err := NewMetrics(meter)
	require.NoError(t, err)
	assert.NotNil(t, m.RunsStarted)
	assert.NotNil(t, m.HopsExecuted)
	assert.NotNil(t, m.HopFailures)
}

func TestNewMetricsRegistersCounters(t *testing.T) {
	meter := newCountingMeter()

	_, err := NewMetrics(meter)
	require.NoError(t, err)

	for _, name := range []string{
		"retriever_runs_started_total",
		"retriever_hops_executed_total",
		"retriever_hop_failures_total",
	} {
		meter.mu.Lock()
		_, ok := meter.counters[name]
		meter.mu.Unlock()
		assert.True(t, ok, "counter %s not registered", name)
	}
}

func TestNewMetricsRegistrationError(t *testing.T) {
	_, err := NewMetrics(failingMeter{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "registration rejected")
}

func TestMetricsObserveRun(t *testing.T) {
	meter := newCountingMeter()
	m, err := NewMetrics(meter)
	require.NoError(t, err)

	m.ObserveRun(context.Background(), sampleRunResult())

	assert.Equal(t, int64(3), meter.count("retriever_hops_executed_total"))
	assert.Equal(t, int64(1), meter.count("retriever_hop_failures_total"))
	assert.Equal(t, int64(0), meter.count("retriever_runs_started_total"))
}

func TestMetricsObserveRunNilResult(t *testing.T) {
	m, err := NewMetrics(newCountingMeter())
	require.NoError(t, err)

	m.ObserveRun(context.Background(), nil)
}
