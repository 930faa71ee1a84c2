package graph

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrNotConnected indicates an operation was attempted before Connect
// succeeded or after Close.
var ErrNotConnected = errors.New("graph client not connected")

// Client provides an interface for knowledge graph operations.
// Implementations must be safe for concurrent use.
type Client interface {
	// Connect establishes a connection to the graph backend.
	// Returns an error if connection fails.
	Connect(ctx context.Context) error

	// Close releases all resources and closes the backend connection.
	// Should be called when the client is no longer needed.
	Close(ctx context.Context) error

	// Ping verifies the backend is reachable.
	Ping(ctx context.Context) error

	// Query executes a Cypher query with the given parameters and returns the
	// typed entities and relationships it matched.
	Query(ctx context.Context, cypher string, params map[string]any) (*QueryResult, error)

	// CreateEntity creates a node for the entity and returns the backend's
	// identifier for it.
	CreateEntity(ctx context.Context, e Entity) (string, error)

	// CreateRelationship creates a relationship between two existing nodes.
	CreateRelationship(ctx context.Context, r Relationship) error
}

// QueryResult represents the outcome of one Cypher query execution.
// Entities and relationships are unique within one result (a graph element
// matched by many rows appears once); whether duplicates across separate
// queries are merged is the caller's concern.
type QueryResult struct {
	// Entities contains the nodes matched by the query, in first-seen order.
	Entities []Entity

	// Relationships contains the edges matched by the query, in first-seen order.
	Relationships []Relationship

	// Summary contains metadata about the query execution.
	Summary QuerySummary
}

// QuerySummary provides metadata about query execution.
type QuerySummary struct {
	// ExecutionTime is the duration of query execution.
	ExecutionTime time.Duration

	// RecordCount is the number of result rows the backend returned.
	RecordCount int
}

// Config contains configuration options for graph backends.
type Config struct {
	// URI is the connection URI for the graph backend.
	// For Neo4j, use:
	//   - "bolt://host:port" for unencrypted connections
	//   - "bolt+s://host:port" for TLS encrypted connections
	//   - "neo4j://" or "neo4j+s://" for routing
	URI string `yaml:"uri"`

	// Username for authentication.
	Username string `yaml:"username"`

	// Password for authentication.
	Password string `yaml:"password"`

	// Database name to connect to.
	// Empty string uses the backend's default database.
	Database string `yaml:"database"`

	// MaxConnectionPoolSize limits the number of connections in the pool.
	// Zero or negative values use the driver default.
	MaxConnectionPoolSize int `yaml:"max_connection_pool_size"`

	// ConnectionTimeout is the maximum time to wait for a connection.
	ConnectionTimeout time.Duration `yaml:"connection_timeout"`

	// MaxTransactionRetryTime is the maximum time to retry failed transactions.
	MaxTransactionRetryTime time.Duration `yaml:"max_transaction_retry_time"`
}

// DefaultConfig returns a Config with sensible defaults for local development.
func DefaultConfig() Config {
	return Config{
		URI:                     "bolt://localhost:7687",
		Username:                "neo4j",
		Password:                "password",
		Database:                "",
		MaxConnectionPoolSize:   50,
		ConnectionTimeout:       30 * time.Second,
		MaxTransactionRetryTime: 30 * time.Second,
	}
}

// Validate checks if the configuration is valid.
func (c Config) Validate() error {
	if c.URI == "" {
		return fmt.Errorf("graph config: URI cannot be empty")
	}
	if c.Username == "" {
		return fmt.Errorf("graph config: Username cannot be empty")
	}
	if c.Password == "" {
		return fmt.Errorf("graph config: Password cannot be empty")
	}
	if c.ConnectionTimeout <= 0 {
		return fmt.Errorf("graph config: ConnectionTimeout must be positive")
	}
	if c.MaxTransactionRetryTime <= 0 {
		return fmt.Errorf("graph config: MaxTransactionRetryTime must be positive")
	}
	return nil
}
