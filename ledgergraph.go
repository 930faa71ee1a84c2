package sdk

import (
	"context"
	"fmt"

	"github.com/ledgergraph-ai/sdk/config"
	"github.com/ledgergraph-ai/sdk/cypher"
	"github.com/ledgergraph-ai/sdk/graph"
	"github.com/ledgergraph-ai/sdk/guard"
	"github.com/ledgergraph-ai/sdk/inference"
	"github.com/ledgergraph-ai/sdk/multihop"
	"github.com/ledgergraph-ai/sdk/ner"
	"github.com/ledgergraph-ai/sdk/runstore"
	"github.com/ledgergraph-ai/sdk/schema"
	"github.com/ledgergraph-ai/sdk/serve"
)

// Client implementations carry the full gRPC service surface.
var _ serve.Service = Client(nil)

// NewClient assembles a Client from the given options. Backends not injected
// through options are constructed from the configuration: the inference
// client from the inference section, the graph client from the graph
// section, and the run store from the store section. Construction does not
// touch the network; call Start to connect.
//
// With no config options at all, NewClient starts from config.FromEnv:
// defaults plus OPENROUTER_API_KEY, NEO4J_URI, and REDIS_URL style
// environment overrides.
func NewClient(opts ...Option) (Client, error) {
	clientCfg := clientConfig{}
	for _, opt := range opts {
		opt(&clientCfg)
	}

	cfg := clientCfg.config
	if cfg == nil && clientCfg.configPath != "" {
		loaded, err := config.LoadWithDefaults(clientCfg.configPath)
		if err != nil {
			return nil, NewConfigurationError("NewClient", err)
		}
		cfg = loaded
	}
	if cfg == nil {
		cfg = config.FromEnv()
	}

	logger := clientCfg.logger
	if logger == nil {
		logger = cfg.Logging.Logger()
	}

	sch := clientCfg.schema
	if sch == nil {
		sch = schema.Default()
	}

	policy := clientCfg.policy
	if policy == nil {
		policy = guard.DefaultPolicy()
	}

	inf := clientCfg.inference
	if inf == nil {
		built, err := openRouterFromConfig(cfg.Inference)
		if err != nil {
			return nil, NewConfigurationError("NewClient", fmt.Errorf("%w: inference: %v", ErrInvalidConfig, err))
		}
		inf = built
	}

	g := clientCfg.graph
	ownsGraph := g == nil
	if g == nil {
		neo, err := graph.NewNeo4jClient(cfg.Graph)
		if err != nil {
			return nil, NewConfigurationError("NewClient", fmt.Errorf("%w: %v", ErrInvalidConfig, err))
		}
		g = neo
	}

	store := clientCfg.store
	ownsStore := store == nil
	if store == nil {
		built, err := storeFromConfig(cfg.Store)
		if err != nil {
			return nil, NewConfigurationError("NewClient", fmt.Errorf("%w: %v", ErrInvalidConfig, err))
		}
		store = built
	}

	maxHops := clientCfg.maxHops
	if maxHops <= 0 {
		maxHops = cfg.Retrieval.MaxHops
	}
	if maxHops <= 0 {
		maxHops = multihop.DefaultMaxHops
	}

	orchOpts := []multihop.OrchestratorOption{
		multihop.WithSchema(sch),
		multihop.WithPolicy(policy),
		multihop.WithLogger(logger),
	}
	if clientCfg.tracer != nil {
		orchOpts = append(orchOpts, multihop.WithTracer(clientCfg.tracer))
	}
	if cfg.Retrieval.ContextLimit > 0 {
		orchOpts = append(orchOpts, multihop.WithContextLimit(cfg.Retrieval.ContextLimit))
	}

	return &client{
		logger:       logger,
		graph:        g,
		store:        store,
		maxHops:      maxHops,
		orchestrator: multihop.NewOrchestrator(inf, g, orchOpts...),
		generator: cypher.NewGenerator(inf,
			cypher.WithSchema(sch),
			cypher.WithPolicy(policy),
			cypher.WithLogger(logger)),
		extractor: ner.NewExtractor(inf,
			ner.WithSchemaContext(sch.PromptContext()),
			ner.WithLogger(logger)),
		ownsGraph: ownsGraph,
		ownsStore: ownsStore,
		runs:      make(map[string]*Run),
	}, nil
}

// Serve exposes the client over gRPC until ctx is cancelled, registering the
// instance for discovery when a registry option is given. The client must be
// started before serving.
func Serve(ctx context.Context, c Client, opts ...serve.Option) error {
	return serve.Retriever(ctx, c, opts...)
}

func openRouterFromConfig(cfg inference.Config) (inference.Client, error) {
	var opts []inference.Option
	if cfg.BaseURL != "" {
		opts = append(opts, inference.WithBaseURL(cfg.BaseURL))
	}
	if cfg.Model != "" {
		opts = append(opts, inference.WithModel(cfg.Model))
	}
	if cfg.Temperature > 0 {
		opts = append(opts, inference.WithTemperature(cfg.Temperature))
	}
	if cfg.MaxTokens > 0 {
		opts = append(opts, inference.WithMaxTokens(cfg.MaxTokens))
	}
	if cfg.Timeout > 0 {
		opts = append(opts, inference.WithTimeout(cfg.Timeout))
	}
	return inference.NewOpenRouterClient(cfg.APIKey, opts...)
}

func storeFromConfig(cfg config.StoreConfig) (runstore.Store, error) {
	switch cfg.Backend {
	case "", "memory":
		return runstore.NewMemoryStore(), nil
	case "redis":
		rs, err := runstore.NewRedisStore(runstore.RedisOptions{
			URL: cfg.RedisURL,
			TTL: cfg.GetResultTTL(),
		})
		if err != nil {
			return nil, err
		}
		return rs, nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}
