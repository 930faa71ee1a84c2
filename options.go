package sdk

import (
	"log/slog"

	"go.opentelemetry.io/otel/trace"

	"github.com/ledgergraph-ai/sdk/config"
	"github.com/ledgergraph-ai/sdk/graph"
	"github.com/ledgergraph-ai/sdk/guard"
	"github.com/ledgergraph-ai/sdk/inference"
	"github.com/ledgergraph-ai/sdk/runstore"
	"github.com/ledgergraph-ai/sdk/schema"
)

// Option configures a Client during construction.
type Option func(*clientConfig)

// clientConfig holds the assembled configuration for NewClient.
type clientConfig struct {
	configPath string
	config     *config.Config
	logger     *slog.Logger
	tracer     trace.Tracer
	graph      graph.Client
	inference  inference.Client
	store      runstore.Store
	schema     *schema.Schema
	policy     *guard.Policy
	maxHops    int
}

// WithConfig provides the full configuration directly. It takes precedence
// over WithConfigFile.
func WithConfig(cfg *config.Config) Option {
	return func(c *clientConfig) {
		c.config = cfg
	}
}

// WithConfigFile loads configuration from a YAML file, falling back to
// defaults plus environment overrides when the file does not exist.
func WithConfigFile(path string) Option {
	return func(c *clientConfig) {
		c.configPath = path
	}
}

// WithLogger sets the logger for the client and every component it builds.
func WithLogger(logger *slog.Logger) Option {
	return func(c *clientConfig) {
		c.logger = logger
	}
}

// WithTracer sets the tracer used to span retrieval runs and hops.
func WithTracer(tracer trace.Tracer) Option {
	return func(c *clientConfig) {
		c.tracer = tracer
	}
}

// WithGraphClient injects a graph client instead of building one from the
// configuration. The caller keeps ownership; Shutdown will not close it.
func WithGraphClient(client graph.Client) Option {
	return func(c *clientConfig) {
		c.graph = client
	}
}

// WithInferenceClient injects an inference client instead of building an
// OpenRouter client from the configuration.
func WithInferenceClient(client inference.Client) Option {
	return func(c *clientConfig) {
		c.inference = client
	}
}

// WithRunStore injects a run store instead of building one from the
// configuration. The caller keeps ownership; Shutdown will not close it.
func WithRunStore(store runstore.Store) Option {
	return func(c *clientConfig) {
		c.store = store
	}
}

// WithSchema sets the graph vocabulary rendered into every prompt.
func WithSchema(s *schema.Schema) Option {
	return func(c *clientConfig) {
		c.schema = s
	}
}

// WithGuard sets the policy that screens generated queries before execution.
func WithGuard(p *guard.Policy) Option {
	return func(c *clientConfig) {
		c.policy = p
	}
}

// WithMaxHops caps the number of retrieval steps per run. Values below 1
// fall back to the configured default.
func WithMaxHops(n int) Option {
	return func(c *clientConfig) {
		c.maxHops = n
	}
}

// ListOption configures run ledger listing.
type ListOption func(*listConfig)

// listConfig holds the assembled configuration for ListRuns.
type listConfig struct {
	limit  int
	offset int
	status string
}

// WithLimit caps the number of runs returned. Values below 1 mean no limit.
func WithLimit(limit int) ListOption {
	return func(c *listConfig) {
		c.limit = limit
	}
}

// WithOffset skips the given number of runs, for pagination.
func WithOffset(offset int) ListOption {
	return func(c *listConfig) {
		c.offset = offset
	}
}

// WithStatus returns only runs with the given status, one of RunStatusRunning,
// RunStatusCompleted, or RunStatusFailed.
func WithStatus(status string) ListOption {
	return func(c *listConfig) {
		c.status = status
	}
}
