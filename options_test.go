package sdk

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/ledgergraph-ai/sdk/config"
	"github.com/ledgergraph-ai/sdk/graph"
	"github.com/ledgergraph-ai/sdk/guard"
	"github.com/ledgergraph-ai/sdk/inference"
	"github.com/ledgergraph-ai/sdk/runstore"
	"github.com/ledgergraph-ai/sdk/schema"
)

func TestClientOptions(t *testing.T) {
	cfg := config.Default()
	logger := testLogger()
	tracer := noop.NewTracerProvider().Tracer("test")
	gc := graph.NewMockClient()
	inf := inference.NewMock()
	store := runstore.NewMemoryStore()
	sch := schema.Default()
	policy := guard.DefaultPolicy()

	var c clientConfig
	for _, opt := range []Option{
		WithConfig(cfg),
		WithConfigFile("ledgergraph.yaml"),
		WithLogger(logger),
		WithTracer(tracer),
		WithGraphClient(gc),
		WithInferenceClient(inf),
		WithRunStore(store),
		WithSchema(sch),
		WithGuard(policy),
		WithMaxHops(5),
	} {
		opt(&c)
	}

	assert.Same(t, cfg, c.config)
	assert.Equal(t, "ledgergraph.yaml", c.configPath)
	assert.Same(t, logger, c.logger)
	assert.NotNil(t, c.tracer)
	assert.Same(t, gc, c.graph)
	assert.Same(t, inf, c.inference)
	assert.Same(t, store, c.store)
	assert.Same(t, sch, c.schema)
	assert.Same(t, policy, c.policy)
	assert.Equal(t, 5, c.maxHops)
}

func TestListOptions(t *testing.T) {
	var c listConfig
	for _, opt := range []ListOption{
		WithLimit(25),
		WithOffset(50),
		WithStatus(RunStatusCompleted),
	} {
		opt(&c)
	}

	assert.Equal(t, 25, c.limit)
	assert.Equal(t, 50, c.offset)
	assert.Equal(t, RunStatusCompleted, c.status)
}
