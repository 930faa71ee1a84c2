// Package registry provides service discovery and registration for
// LedgerGraph retrieval services.
//
// Deployed retriever instances register themselves at startup so that
// gateways and operators can discover them dynamically. Registration is
// backed by etcd leases: instances maintain presence via lease keepalives
// and disappear automatically when they crash or lose connectivity.
// Deregister on graceful shutdown removes the entry immediately.
package registry

import (
	"context"
	"time"
)

// KindRetriever is the service kind registered by retrieval instances.
const KindRetriever = "retriever"

// ServiceInfo describes a registered service instance.
//
// Multiple instances of the same service can run simultaneously, each with
// a unique InstanceID.
type ServiceInfo struct {
	// Kind identifies the service type (e.g., KindRetriever).
	Kind string `json:"kind"`

	// Name is the service name (e.g., "financial-kg").
	Name string `json:"name"`

	// Version is the semantic version of the service (e.g., "1.2.3").
	Version string `json:"version"`

	// InstanceID is a unique identifier for this specific instance,
	// typically a UUID. It allows multiple instances of the same service
	// to run concurrently.
	InstanceID string `json:"instance_id"`

	// Endpoint is the network address where this instance can be reached,
	// in "host:port" form (e.g., "10.0.3.7:50051").
	Endpoint string `json:"endpoint"`

	// Metadata contains instance-specific attributes such as:
	//   - model: the inference model serving this instance
	//   - max_hops: the configured hop ceiling
	//   - schema: the graph vocabulary version
	Metadata map[string]string `json:"metadata"`

	// StartedAt is the timestamp when this instance started.
	StartedAt time.Time `json:"started_at"`
}

// Registry defines the service registration and discovery interface.
//
// Implementations must be safe for concurrent use. Entries are tied to
// leases with a TTL so that stale instances are removed automatically.
//
// Example usage:
//
//	reg, _ := registry.NewClient(cfg)
//	defer reg.Close()
//
//	info := registry.ServiceInfo{
//	    Kind:       registry.KindRetriever,
//	    Name:       "financial-kg",
//	    Version:    "1.0.0",
//	    InstanceID: uuid.NewString(),
//	    Endpoint:   "localhost:50051",
//	    StartedAt:  time.Now(),
//	}
//
//	reg.Register(ctx, info)
//	defer reg.Deregister(ctx, info)
type Registry interface {
	// Register adds this service instance to the registry. The instance is
	// discoverable immediately; a background goroutine renews the lease
	// every TTL/3 to maintain presence. Registering an InstanceID that is
	// already present updates the entry rather than duplicating it.
	Register(ctx context.Context, info ServiceInfo) error

	// Deregister removes this service instance from the registry by
	// revoking its lease. Called during graceful shutdown. Deregistering
	// an unknown instance is a no-op.
	Deregister(ctx context.Context, info ServiceInfo) error

	// Discover finds all instances of a service by kind and name. The
	// returned slice may be empty; instances come back in arbitrary order.
	Discover(ctx context.Context, kind, name string) ([]ServiceInfo, error)

	// DiscoverAll finds all instances of a given kind, across names.
	// Useful for status displays and dashboards.
	DiscoverAll(ctx context.Context, kind string) ([]ServiceInfo, error)

	// Watch returns a channel that receives the current instance list
	// whenever a service registers, deregisters, or its lease expires.
	// The initial state is sent immediately. The channel is closed when
	// the context is canceled or the registry is closed.
	Watch(ctx context.Context, kind, name string) (<-chan []ServiceInfo, error)

	// Close releases registry resources and stops all background
	// goroutines. After Close, all other methods return errors.
	Close() error
}

// Config holds registry connection configuration.
type Config struct {
	// Endpoints is the list of etcd endpoints.
	// Format: ["host1:2379", "host2:2379", "host3:2379"]
	Endpoints []string `json:"endpoints"`

	// Namespace is the etcd key prefix for all service entries.
	// Entries are stored under /{namespace}/services/{kind}/{name}/{instance-id}.
	// Default: "ledgergraph"
	Namespace string `json:"namespace"`

	// TTL is the lease time-to-live in seconds. Instances must renew
	// their lease within this interval or be removed.
	// Default: 30 seconds
	TTL int `json:"ttl"`

	// TLS holds TLS configuration for secure etcd communication.
	// If nil, TLS is disabled.
	TLS *TLSConfig `json:"tls"`
}

// TLSConfig holds TLS certificate configuration for secure registry
// communication. When enabled, all communication with etcd is encrypted and
// authenticated using mutual TLS.
type TLSConfig struct {
	// Enabled determines whether TLS is active.
	// If false, all other fields are ignored.
	Enabled bool `json:"enabled"`

	// CertFile is the path to the client certificate file (PEM format).
	CertFile string `json:"cert_file"`

	// KeyFile is the path to the client private key file (PEM format).
	KeyFile string `json:"key_file"`

	// CAFile is the path to the certificate authority file (PEM format),
	// used to verify the etcd server's certificate.
	CAFile string `json:"ca_file"`
}
