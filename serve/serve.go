package serve

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/ledgergraph-ai/sdk/registry"
)

const (
	// DefaultAddress is the TCP address the server listens on by default.
	DefaultAddress = ":50051"

	// DefaultGracefulTimeout bounds how long graceful shutdown waits for
	// active requests before forcing a stop.
	DefaultGracefulTimeout = 30 * time.Second

	// DefaultServiceName is the name a served instance registers under.
	DefaultServiceName = "financial-kg"

	// DefaultServiceVersion is the version a served instance registers with.
	DefaultServiceVersion = "dev"
)

// ServiceRegistry is the subset of registry.Registry the server uses to
// announce and withdraw a served instance.
type ServiceRegistry interface {
	Register(ctx context.Context, info registry.ServiceInfo) error
	Deregister(ctx context.Context, info registry.ServiceInfo) error
}

// Config holds serve configuration. It defines the server's network
// settings, graceful shutdown behavior, optional TLS settings, and the
// identity the instance registers under when a registry is configured.
type Config struct {
	// Address is the TCP address the gRPC server listens on.
	// Default: :50051
	Address string

	// GracefulTimeout is the maximum duration to wait for active requests
	// to complete during graceful shutdown.
	// Default: 30 seconds
	GracefulTimeout time.Duration

	// TLSCertFile is the path to the TLS certificate file.
	// If empty, TLS is disabled.
	TLSCertFile string

	// TLSKeyFile is the path to the TLS private key file.
	// If empty, TLS is disabled.
	TLSKeyFile string

	// Reflection enables the gRPC server reflection service, so tools like
	// grpcurl can list the hosted services.
	// Default: false
	Reflection bool

	// ServiceName is the name the instance registers under.
	// Default: financial-kg
	ServiceName string

	// ServiceVersion is the version the instance registers with.
	// Default: dev
	ServiceVersion string

	// ServiceMetadata is attached to the instance's registry entry.
	ServiceMetadata map[string]string

	// AdvertiseAddr is the address other services should use to reach this
	// instance. When empty, the registry entry advertises localhost with
	// the bound port.
	AdvertiseAddr string

	// Registry, when set, receives a registration for the served instance
	// after startup and a deregistration during shutdown.
	Registry ServiceRegistry

	// Logger receives lifecycle and request logs.
	// Defaults to slog.Default().
	Logger *slog.Logger

	// TracerProvider supplies the tracer for request spans. When nil, the
	// server builds a provider that writes finished spans through Logger
	// and shuts it down on exit.
	TracerProvider trace.TracerProvider

	// MeterProvider supplies the meter for request counters.
	// Defaults to the global provider.
	MeterProvider metric.MeterProvider

	// closeRegistry releases a registry client the serve layer created
	// itself, e.g. via WithRegistryFromEnv.
	closeRegistry func() error
}

// DefaultConfig returns default serve configuration.
// These defaults are suitable for local development and testing.
func DefaultConfig() *Config {
	return &Config{
		Address:         DefaultAddress,
		GracefulTimeout: DefaultGracefulTimeout,
		ServiceName:     DefaultServiceName,
		ServiceVersion:  DefaultServiceVersion,
	}
}

// Server wraps a gRPC server with lifecycle management. It handles server
// initialization, startup, graceful shutdown, and health check registration.
type Server struct {
	grpcServer   *grpc.Server
	listener     net.Listener
	config       *Config
	healthServer *health.Server
	logger       *slog.Logger
}

// NewServer creates a new gRPC server with the provided configuration.
// It sets up the gRPC server with the configured options (TLS, reflection)
// and registers the standard health check service.
func NewServer(cfg *Config) (*Server, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	address := cfg.Address
	if address == "" {
		address = DefaultAddress
	}

	if (cfg.TLSCertFile == "") != (cfg.TLSKeyFile == "") {
		return nil, fmt.Errorf("TLS requires both a certificate and a key file")
	}

	listener, err := net.Listen("tcp", address)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", address, err)
	}

	var opts []grpc.ServerOption
	if cfg.TLSCertFile != "" && cfg.TLSKeyFile != "" {
		creds, err := credentials.NewServerTLSFromFile(cfg.TLSCertFile, cfg.TLSKeyFile)
		if err != nil {
			listener.Close()
			return nil, fmt.Errorf("failed to load TLS credentials: %w", err)
		}
		opts = append(opts, grpc.Creds(creds))
	}

	grpcServer := grpc.NewServer(opts...)

	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)

	if cfg.Reflection {
		reflection.Register(grpcServer)
	}

	return &Server{
		grpcServer:   grpcServer,
		listener:     listener,
		config:       cfg,
		healthServer: healthServer,
		logger:       logger,
	}, nil
}

// GRPCServer returns the underlying gRPC server.
// This allows callers to register additional services.
func (s *Server) GRPCServer() *grpc.Server {
	return s.grpcServer
}

// HealthServer returns the health check server.
// This allows callers to set service health status.
func (s *Server) HealthServer() *health.Server {
	return s.healthServer
}

// Serve starts the gRPC server and blocks until shutdown.
// It handles graceful shutdown on SIGINT/SIGTERM signals.
// The context can be used to initiate shutdown programmatically.
func (s *Server) Serve(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		if err := s.grpcServer.Serve(s.listener); err != nil {
			errCh <- fmt.Errorf("gRPC server error: %w", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case <-ctx.Done():
		s.GracefulStop()
		return ctx.Err()
	case sig := <-sigCh:
		s.logger.Info("received signal, shutting down gracefully", "signal", sig.String())
		s.GracefulStop()
		return nil
	case err := <-errCh:
		return err
	}
}

// Stop immediately stops the gRPC server.
// Active RPCs will be terminated abruptly.
// This should only be used when graceful shutdown is not required.
func (s *Server) Stop() {
	s.grpcServer.Stop()
}

// GracefulStop gracefully stops the gRPC server. It stops accepting new
// connections and waits for active RPCs to complete within the configured
// timeout, after which it forces a stop.
func (s *Server) GracefulStop() {
	timeout := s.config.GracefulTimeout
	if timeout <= 0 {
		timeout = DefaultGracefulTimeout
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	done := make(chan struct{})
	go func() {
		s.grpcServer.GracefulStop()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("server stopped gracefully")
	case <-ctx.Done():
		s.logger.Warn("graceful shutdown timeout, forcing stop")
		s.grpcServer.Stop()
	}
}

// Addr returns the address the server is listening on. This is useful when
// listening on port 0 to learn the assigned port.
func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.config.Address
}

// Port returns the TCP port the server is listening on, or 0 when the
// listener address is not a TCP address.
func (s *Server) Port() int {
	if s.listener != nil {
		if addr, ok := s.listener.Addr().(*net.TCPAddr); ok {
			return addr.Port
		}
	}
	return 0
}
