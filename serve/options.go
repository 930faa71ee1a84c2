package serve

import (
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/ledgergraph-ai/sdk/registry"
)

// Option is a functional option for configuring a Server.
// Options provide a flexible way to customize server behavior
// without requiring a large number of constructor parameters.
type Option func(*Config)

// WithAddress sets the TCP address the gRPC server listens on.
// Use a ":0" port to automatically select an available port.
//
// Example:
//
//	serve.Retriever(ctx, client, serve.WithAddress(":8080"))
func WithAddress(address string) Option {
	return func(c *Config) {
		c.Address = address
	}
}

// WithGracefulShutdown sets the maximum duration to wait for active
// requests to complete during graceful shutdown.
// After this timeout, the server will force shutdown.
//
// Example:
//
//	serve.Retriever(ctx, client, serve.WithGracefulShutdown(60*time.Second))
func WithGracefulShutdown(timeout time.Duration) Option {
	return func(c *Config) {
		c.GracefulTimeout = timeout
	}
}

// WithTLS enables TLS encryption for the gRPC server.
// Both certFile and keyFile must be valid paths to PEM-encoded files.
//
// The certificate file should contain the server's certificate chain.
// The key file should contain the server's private key.
//
// Example:
//
//	serve.Retriever(ctx, client, serve.WithTLS("/etc/certs/server.crt", "/etc/certs/server.key"))
func WithTLS(certFile, keyFile string) Option {
	return func(c *Config) {
		c.TLSCertFile = certFile
		c.TLSKeyFile = keyFile
	}
}

// WithReflection enables the gRPC server reflection service. Reflection lets
// tools like grpcurl list the hosted services without a compiled descriptor.
func WithReflection() Option {
	return func(c *Config) {
		c.Reflection = true
	}
}

// WithLogger sets the logger for server lifecycle and request logs.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}

// WithServiceName sets the name the instance registers under and reports in
// logs. Default: financial-kg.
func WithServiceName(name string) Option {
	return func(c *Config) {
		c.ServiceName = name
	}
}

// WithServiceVersion sets the version the instance registers with.
func WithServiceVersion(version string) Option {
	return func(c *Config) {
		c.ServiceVersion = version
	}
}

// WithServiceMetadata attaches metadata to the instance's registry entry,
// e.g. the configured model or hop budget.
func WithServiceMetadata(metadata map[string]string) Option {
	return func(c *Config) {
		c.ServiceMetadata = metadata
	}
}

// WithAdvertiseAddress sets the address other services should use to reach
// this instance. When the address carries no port, the bound port is
// appended. Without this option the registry entry advertises localhost.
func WithAdvertiseAddress(address string) Option {
	return func(c *Config) {
		c.AdvertiseAddr = address
	}
}

// WithRegistry enables automatic service registration with the provided
// registry. The served instance registers itself after the gRPC server
// starts and deregisters during graceful shutdown.
//
// Example:
//
//	reg, _ := registry.NewClient(registry.Config{Endpoints: endpoints})
//	serve.Retriever(ctx, client, serve.WithRegistry(reg))
func WithRegistry(reg ServiceRegistry) Option {
	return func(c *Config) {
		c.Registry = reg
	}
}

// WithRegistryFromEnv creates a registry client from the ETCD_ENDPOINTS
// environment variable. If the variable is not set, registration is skipped
// silently: the instance works but is not discoverable. The created client
// is closed when serving stops.
func WithRegistryFromEnv() Option {
	return func(c *Config) {
		client, err := registry.NewClientFromEnv()
		if err != nil || client == nil {
			return
		}
		c.Registry = client
		c.closeRegistry = client.Close
	}
}

// WithTracerProvider sets the tracer provider for request spans. The caller
// keeps ownership: the provider is not shut down when serving stops.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(c *Config) {
		c.TracerProvider = tp
	}
}

// WithMeterProvider sets the meter provider for request counters.
// Defaults to the global provider.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(c *Config) {
		c.MeterProvider = mp
	}
}
