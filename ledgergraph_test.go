package sdk

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/ledgergraph-ai/sdk/config"
	"github.com/ledgergraph-ai/sdk/graph"
	"github.com/ledgergraph-ai/sdk/guard"
	"github.com/ledgergraph-ai/sdk/inference"
	"github.com/ledgergraph-ai/sdk/runstore"
	"github.com/ledgergraph-ai/sdk/schema"
	"github.com/ledgergraph-ai/sdk/serve"
)

func clearInferenceEnv(t *testing.T) {
	t.Helper()
	t.Setenv(config.EnvAPIKey, "")
	t.Setenv(config.EnvAPIKeyLegacy, "")
	t.Setenv(config.EnvRedisURL, "")
}

func TestNewClientFromEnv(t *testing.T) {
	clearInferenceEnv(t)
	t.Setenv(config.EnvAPIKey, "test-key")

	c, err := NewClient(WithLogger(testLogger()))
	require.NoError(t, err)
	require.NotNil(t, c)

	impl, ok := c.(*client)
	require.True(t, ok)
	assert.True(t, impl.ownsGraph)
	assert.True(t, impl.ownsStore)
	assert.Equal(t, 3, impl.maxHops)
	assert.NotNil(t, impl.orchestrator)
	assert.NotNil(t, impl.generator)
	assert.NotNil(t, impl.extractor)
}

func TestNewClientMissingAPIKey(t *testing.T) {
	clearInferenceEnv(t)

	_, err := NewClient(WithLogger(testLogger()))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidConfig)
	assert.Contains(t, err.Error(), "inference")
}

func TestNewClientInjectedBackends(t *testing.T) {
	// Injected backends make the corresponding config sections irrelevant:
	// no API key, no graph credentials, and no store backend are needed.
	clearInferenceEnv(t)

	cfg := config.Default()
	cfg.Inference.APIKey = ""
	cfg.Graph.URI = ""

	gc := graph.NewMockClient()
	store := runstore.NewMemoryStore()

	c, err := NewClient(
		WithConfig(cfg),
		WithInferenceClient(inference.NewMock()),
		WithGraphClient(gc),
		WithRunStore(store),
		WithLogger(testLogger()),
	)
	require.NoError(t, err)

	impl := c.(*client)
	assert.False(t, impl.ownsGraph)
	assert.False(t, impl.ownsStore)
	assert.Same(t, gc, impl.graph)
	assert.Same(t, store, impl.store)
}

func TestNewClientMaxHopsPrecedence(t *testing.T) {
	cfg := config.Default()
	cfg.Retrieval.MaxHops = 5

	base := []Option{
		WithConfig(cfg),
		WithInferenceClient(inference.NewMock()),
		WithGraphClient(graph.NewMockClient()),
		WithRunStore(runstore.NewMemoryStore()),
		WithLogger(testLogger()),
	}

	c, err := NewClient(base...)
	require.NoError(t, err)
	assert.Equal(t, 5, c.(*client).maxHops)

	c, err = NewClient(append(base, WithMaxHops(7))...)
	require.NoError(t, err)
	assert.Equal(t, 7, c.(*client).maxHops)

	cfg2 := config.Default()
	cfg2.Retrieval.MaxHops = 0
	c, err = NewClient(append(base, WithConfig(cfg2))...)
	require.NoError(t, err)
	assert.Equal(t, 3, c.(*client).maxHops)
}

func TestNewClientUnknownStoreBackend(t *testing.T) {
	cfg := config.Default()
	cfg.Store.Backend = "cassandra"

	_, err := NewClient(
		WithConfig(cfg),
		WithInferenceClient(inference.NewMock()),
		WithGraphClient(graph.NewMockClient()),
		WithLogger(testLogger()),
	)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidConfig)
	assert.Contains(t, err.Error(), "cassandra")
}

func TestNewClientConfigFile(t *testing.T) {
	clearInferenceEnv(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "ledgergraph.yaml")
	content := `
inference:
  api_key: file-key
retrieval:
  max_hops: 4
store:
  backend: memory
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	c, err := NewClient(
		WithConfigFile(path),
		WithGraphClient(graph.NewMockClient()),
		WithLogger(testLogger()),
	)
	require.NoError(t, err)
	assert.Equal(t, 4, c.(*client).maxHops)
}

func TestNewClientConfigFileInvalid(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "broken.yaml")
	require.NoError(t, os.WriteFile(path, []byte("inference: [not a mapping"), 0o644))

	_, err := NewClient(WithConfigFile(path), WithLogger(testLogger()))
	require.Error(t, err)

	var sdkErr *SDKError
	require.ErrorAs(t, err, &sdkErr)
	assert.Equal(t, KindConfiguration, sdkErr.Kind)
}

func TestNewClientWithTracer(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sdktrace.NewSimpleSpanProcessor(exporter)))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	mock := inference.NewMock()
	queuePlan(mock, "broken plan", "")

	c := newTestClient(t, mock, graph.NewMockClient(), WithTracer(tp.Tracer("test")))

	_, err := c.Retrieve(context.Background(), "a question")
	require.NoError(t, err)

	spans := exporter.GetSpans()
	var names []string
	for _, s := range spans {
		names = append(names, s.Name)
	}
	assert.Contains(t, names, "multihop.run")
}

func TestNewClientWithSchema(t *testing.T) {
	custom := &schema.Schema{
		Nodes: []schema.NodeDef{{Label: "Vessel", Properties: []string{"name", "flag"}}},
		Relationships: []schema.RelationshipDef{
			{Type: "OWNED_BY", From: "Vessel", To: "Vessel"},
		},
	}

	mock := inference.NewMock()
	queuePlan(mock, "broken plan", "")

	c := newTestClient(t, mock, graph.NewMockClient(), WithSchema(custom))

	_, err := c.Retrieve(context.Background(), "who owns the vessel?")
	require.NoError(t, err)

	calls := mock.Calls()
	require.NotEmpty(t, calls)
	var schemaContext string
	for _, in := range calls[0].Request.Inputs {
		if in.Name == "schema_context" {
			schemaContext = in.Value
		}
	}
	assert.Contains(t, schemaContext, "Vessel")
}

func TestNewClientWithGuard(t *testing.T) {
	// A policy rejecting every query fails each hop at the screening stage.
	policy := guard.MustNewPolicy(guard.Rule{
		Name:       "reject_all",
		Expression: `query.size() < 0`,
		Message:    "no queries today",
	})

	mock := inference.NewMock()
	queuePlan(mock, onePlanStep, "plan")
	queueHop(mock, "MATCH (c:Company) RETURN c")
	queueAnalysis(mock, "Nothing retrieved.", "incomplete")

	c := newTestClient(t, mock, graph.NewMockClient(), WithGuard(policy))

	result, err := c.Retrieve(context.Background(), "Which companies are rated AAA?")
	require.NoError(t, err)
	require.Len(t, result.Hops, 1)
	assert.True(t, result.Hops[0].Failed())
	assert.Contains(t, result.Hops[0].Error, "no queries today")
	assert.Empty(t, result.FinalNodes)
}

func TestServeExposesClient(t *testing.T) {
	c := newTestClient(t, inference.NewMock(), graph.NewMockClient())

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		errCh <- Serve(ctx, c,
			serve.WithAddress("127.0.0.1:0"),
			serve.WithLogger(testLogger()),
		)
	}()

	// Give the server a moment to come up, then stop it.
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not stop after cancellation")
	}
}

func TestStoreFromConfig(t *testing.T) {
	store, err := storeFromConfig(config.StoreConfig{Backend: "memory"})
	require.NoError(t, err)
	assert.IsType(t, &runstore.MemoryStore{}, store)

	store, err = storeFromConfig(config.StoreConfig{})
	require.NoError(t, err)
	assert.IsType(t, &runstore.MemoryStore{}, store)

	_, err = storeFromConfig(config.StoreConfig{Backend: "redis"})
	require.Error(t, err)

	_, err = storeFromConfig(config.StoreConfig{Backend: "sqlite"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sqlite")
}

func TestOpenRouterFromConfig(t *testing.T) {
	cfg := inference.DefaultConfig()
	cfg.APIKey = "sk-test"

	client, err := openRouterFromConfig(cfg)
	require.NoError(t, err)
	assert.NotNil(t, client)

	cfg.APIKey = ""
	_, err = openRouterFromConfig(cfg)
	require.Error(t, err)

	_, err = openRouterFromConfig(inference.Config{APIKey: "sk-test", Temperature: 3})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "temperature")
}
