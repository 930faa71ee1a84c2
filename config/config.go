// Package config loads and validates SDK configuration from YAML files,
// environment variables, and optional .env files. The resulting Config is
// assembled once at process start and passed into constructors; core logic
// never reads ambient process state.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/ledgergraph-ai/sdk/graph"
	"github.com/ledgergraph-ai/sdk/inference"
)

// Config is the root configuration for the LedgerGraph SDK.
type Config struct {
	// Inference configures the model client used for planning, query
	// generation, analysis, and extraction.
	Inference inference.Config `yaml:"inference"`

	// Graph configures the graph backend connection.
	Graph graph.Config `yaml:"graph"`

	// Retrieval configures the multi-hop orchestration loop.
	Retrieval RetrievalConfig `yaml:"retrieval"`

	// Store configures run result persistence.
	Store StoreConfig `yaml:"store"`

	// Registry configures service discovery.
	Registry RegistryConfig `yaml:"registry"`

	// Serve configures the gRPC server.
	Serve ServeConfig `yaml:"serve"`

	// Logging configures the process logger.
	Logging LoggingConfig `yaml:"logging"`
}

// RetrievalConfig contains multi-hop retrieval settings.
type RetrievalConfig struct {
	// MaxHops caps the number of retrieval steps executed per question.
	// Default: 3
	MaxHops int `yaml:"max_hops"`

	// ContextLimit caps the number of accumulated entities rendered into
	// each hop's prompt context.
	// Default: 50
	ContextLimit int `yaml:"context_limit"`
}

// StoreConfig contains run result persistence settings.
type StoreConfig struct {
	// Backend selects the store implementation: "memory" or "redis".
	// Default: "memory"
	Backend string `yaml:"backend"`

	// RedisURL is the connection URL for the redis backend
	// (e.g. "redis://localhost:6379/0"). Required when Backend is "redis".
	RedisURL string `yaml:"redis_url"`

	// ResultTTL is how long stored run results live before expiring.
	// Format: Go duration string (e.g. "24h"). Zero or empty means no expiry.
	ResultTTL string `yaml:"result_ttl,omitempty"`
}

// GetResultTTL parses the result TTL and returns a duration.
// Returns zero (no expiry) if not set or invalid.
func (s StoreConfig) GetResultTTL() time.Duration {
	if s.ResultTTL == "" {
		return 0
	}
	d, err := time.ParseDuration(s.ResultTTL)
	if err != nil {
		return 0
	}
	return d
}

// RegistryConfig contains etcd service discovery settings.
type RegistryConfig struct {
	// Enabled controls whether the instance registers itself on start.
	Enabled bool `yaml:"enabled"`

	// Endpoints is the list of etcd endpoints. Required when Enabled.
	Endpoints []string `yaml:"endpoints"`

	// Namespace is the prefix for all registry keys.
	// Default: "ledgergraph"
	Namespace string `yaml:"namespace"`

	// TTL is the lease time-to-live for the registration.
	// Format: Go duration string. Default: "30s"
	TTL string `yaml:"ttl,omitempty"`

	// DialTimeout bounds the initial etcd connection.
	// Format: Go duration string. Default: "5s"
	DialTimeout string `yaml:"dial_timeout,omitempty"`
}

// GetTTL parses the lease TTL and returns a duration.
// Returns the default value if not set or invalid.
func (r RegistryConfig) GetTTL() time.Duration {
	if r.TTL == "" {
		return 30 * time.Second
	}
	d, err := time.ParseDuration(r.TTL)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// GetDialTimeout parses the dial timeout and returns a duration.
// Returns the default value if not set or invalid.
func (r RegistryConfig) GetDialTimeout() time.Duration {
	if r.DialTimeout == "" {
		return 5 * time.Second
	}
	d, err := time.ParseDuration(r.DialTimeout)
	if err != nil {
		return 5 * time.Second
	}
	return d
}

// ServeConfig contains gRPC server settings.
type ServeConfig struct {
	// Address is the listen address.
	// Default: ":50051"
	Address string `yaml:"address"`

	// TLSCertFile is the path to the server certificate. TLS is enabled
	// when both TLSCertFile and TLSKeyFile are set.
	TLSCertFile string `yaml:"tls_cert_file,omitempty"`

	// TLSKeyFile is the path to the server private key.
	TLSKeyFile string `yaml:"tls_key_file,omitempty"`

	// Reflection enables gRPC server reflection.
	Reflection bool `yaml:"reflection"`

	// ShutdownTimeout is the time to wait for graceful shutdown.
	// Format: Go duration string. Default: "30s"
	ShutdownTimeout string `yaml:"shutdown_timeout,omitempty"`
}

// GetShutdownTimeout parses the shutdown timeout and returns a duration.
// Returns the default value if not set or invalid.
func (s ServeConfig) GetShutdownTimeout() time.Duration {
	if s.ShutdownTimeout == "" {
		return 30 * time.Second
	}
	d, err := time.ParseDuration(s.ShutdownTimeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// LoggingConfig contains process logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", or "error".
	// Default: "info"
	Level string `yaml:"level"`

	// Format selects the handler: "text" or "json".
	// Default: "text"
	Format string `yaml:"format"`
}

// Logger builds a slog.Logger writing to stderr per the configured level
// and format.
func (l LoggingConfig) Logger() *slog.Logger {
	var level slog.Level
	switch l.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if l.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

// Default returns a Config with sensible defaults for local development.
// The inference API key has no default and must come from the config file
// or the environment.
func Default() *Config {
	return &Config{
		Inference: inference.DefaultConfig(),
		Graph:     graph.DefaultConfig(),
		Retrieval: RetrievalConfig{
			MaxHops:      3,
			ContextLimit: 50,
		},
		Store: StoreConfig{
			Backend:   "memory",
			ResultTTL: "24h",
		},
		Registry: RegistryConfig{
			Enabled:     false,
			Namespace:   "ledgergraph",
			TTL:         "30s",
			DialTimeout: "5s",
		},
		Serve: ServeConfig{
			Address:         ":50051",
			Reflection:      false,
			ShutdownTimeout: "30s",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c == nil {
		return fmt.Errorf("configuration is nil")
	}
	if err := c.Inference.Validate(); err != nil {
		return fmt.Errorf("inference: %w", err)
	}
	if err := c.Graph.Validate(); err != nil {
		return fmt.Errorf("graph: %w", err)
	}
	if c.Retrieval.MaxHops < 1 {
		return fmt.Errorf("retrieval: max_hops must be at least 1")
	}
	if c.Retrieval.ContextLimit < 1 {
		return fmt.Errorf("retrieval: context_limit must be at least 1")
	}
	switch c.Store.Backend {
	case "memory":
	case "redis":
		if c.Store.RedisURL == "" {
			return fmt.Errorf("store: redis_url is required when backend is \"redis\"")
		}
	default:
		return fmt.Errorf("store: unknown backend %q", c.Store.Backend)
	}
	if c.Registry.Enabled && len(c.Registry.Endpoints) == 0 {
		return fmt.Errorf("registry: endpoints must be non-empty when enabled")
	}
	if c.Serve.Address == "" {
		return fmt.Errorf("serve: address cannot be empty")
	}
	if (c.Serve.TLSCertFile == "") != (c.Serve.TLSKeyFile == "") {
		return fmt.Errorf("serve: tls_cert_file and tls_key_file must be set together")
	}
	switch c.Logging.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging: unknown level %q", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("logging: unknown format %q", c.Logging.Format)
	}
	return nil
}
