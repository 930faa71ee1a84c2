package graph

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j/dbtype"
)

// Neo4jClient implements Client for Neo4j-compatible graph backends.
// It provides connection pooling, connect retries, and typed result conversion.
type Neo4jClient struct {
	config Config
	driver neo4j.DriverWithContext
}

// NewNeo4jClient creates a new Neo4j client with the given configuration.
// The client must be connected via Connect() before use.
func NewNeo4jClient(config Config) (*Neo4jClient, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &Neo4jClient{
		config: config,
	}, nil
}

// Connect establishes a connection to the Neo4j backend.
// Uses exponential backoff for connection retries.
func (c *Neo4jClient) Connect(ctx context.Context) error {
	auth := neo4j.BasicAuth(c.config.Username, c.config.Password, "")

	driverConfig := func(config *neo4j.Config) {
		config.MaxConnectionPoolSize = c.config.MaxConnectionPoolSize
		config.ConnectionAcquisitionTimeout = c.config.ConnectionTimeout
		config.MaxTransactionRetryTime = c.config.MaxTransactionRetryTime
		// Encryption is controlled by the URI scheme (bolt:// vs bolt+s://)
	}

	var driver neo4j.DriverWithContext
	var lastErr error
	maxRetries := 5
	baseDelay := 100 * time.Millisecond

	for attempt := 0; attempt < maxRetries; attempt++ {
		var err error
		driver, err = neo4j.NewDriverWithContext(c.config.URI, auth, driverConfig)
		if err == nil {
			err = driver.VerifyConnectivity(ctx)
			if err == nil {
				c.driver = driver
				return nil
			}
		}

		lastErr = err

		if ctx.Err() != nil {
			return fmt.Errorf("connection attempt cancelled: %w", ctx.Err())
		}

		// Backoff delay: baseDelay * 2^attempt, capped at the connection timeout
		delay := baseDelay * time.Duration(math.Pow(2, float64(attempt)))
		if delay > c.config.ConnectionTimeout {
			delay = c.config.ConnectionTimeout
		}

		select {
		case <-time.After(delay):
			continue
		case <-ctx.Done():
			return fmt.Errorf("connection attempt cancelled: %w", ctx.Err())
		}
	}

	return fmt.Errorf("failed to connect after %d attempts: %w", maxRetries, lastErr)
}

// Close releases all resources and closes the backend connection.
func (c *Neo4jClient) Close(ctx context.Context) error {
	if c.driver == nil {
		return nil
	}

	if err := c.driver.Close(ctx); err != nil {
		return fmt.Errorf("failed to close driver: %w", err)
	}

	c.driver = nil
	return nil
}

// Ping verifies the backend is reachable.
func (c *Neo4jClient) Ping(ctx context.Context) error {
	if c.driver == nil {
		return ErrNotConnected
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := c.driver.VerifyConnectivity(pingCtx); err != nil {
		return fmt.Errorf("connectivity check failed: %w", err)
	}
	return nil
}

// Query executes a Cypher query and converts the matched graph elements into
// typed entities and relationships.
func (c *Neo4jClient) Query(ctx context.Context, cypher string, params map[string]any) (*QueryResult, error) {
	if c.driver == nil {
		return nil, ErrNotConnected
	}

	startTime := time.Now()

	session := c.driver.NewSession(ctx, neo4j.SessionConfig{
		DatabaseName: c.config.Database,
	})
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		neoResult, err := tx.Run(ctx, cypher, params)
		if err != nil {
			return nil, err
		}

		records, err := neoResult.Collect(ctx)
		if err != nil {
			return nil, err
		}

		if _, err := neoResult.Consume(ctx); err != nil {
			return nil, err
		}

		return convertRecords(records), nil
	})

	if err != nil {
		return nil, fmt.Errorf("query execution failed: %w", err)
	}

	queryResult := result.(*QueryResult)
	queryResult.Summary.ExecutionTime = time.Since(startTime)

	return queryResult, nil
}

// CreateEntity creates a node for the entity and returns the backend's
// element ID for it. The entity's own ID, when set, is stored as the "id"
// property so queries can address it.
func (c *Neo4jClient) CreateEntity(ctx context.Context, e Entity) (string, error) {
	if c.driver == nil {
		return "", ErrNotConnected
	}
	if e.Label == "" {
		return "", fmt.Errorf("entity label is required")
	}

	props := make(map[string]any, len(e.Properties)+1)
	for k, v := range e.Properties {
		props[k] = v
	}
	if e.ID != "" {
		props["id"] = e.ID
	}

	cypher := fmt.Sprintf("CREATE (n:%s) SET n = $props RETURN elementId(n) as id", e.Label)

	session := c.driver.NewSession(ctx, neo4j.SessionConfig{
		DatabaseName: c.config.Database,
	})
	defer session.Close(ctx)

	result, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		neoResult, err := tx.Run(ctx, cypher, map[string]any{"props": props})
		if err != nil {
			return nil, err
		}

		record, err := neoResult.Single(ctx)
		if err != nil {
			return nil, err
		}

		id, ok := record.Get("id")
		if !ok {
			return nil, fmt.Errorf("id not found in result")
		}

		return id.(string), nil
	})

	if err != nil {
		return "", fmt.Errorf("failed to create entity: %w", err)
	}

	return result.(string), nil
}

// CreateRelationship creates a relationship between two existing nodes,
// addressed by their "id" property.
func (c *Neo4jClient) CreateRelationship(ctx context.Context, r Relationship) error {
	if c.driver == nil {
		return ErrNotConnected
	}
	if err := r.Validate(); err != nil {
		return err
	}

	cypher := fmt.Sprintf(`
		MATCH (from), (to)
		WHERE from.id = $fromId AND to.id = $toId
		CREATE (from)-[r:%s]->(to)
		SET r = $props
		RETURN r
	`, r.Label)

	params := map[string]any{
		"fromId": r.FromID,
		"toId":   r.ToID,
		"props":  r.Properties,
	}

	session := c.driver.NewSession(ctx, neo4j.SessionConfig{
		DatabaseName: c.config.Database,
	})
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		neoResult, err := tx.Run(ctx, cypher, params)
		if err != nil {
			return nil, err
		}

		_, err = neoResult.Single(ctx)
		return nil, err
	})

	if err != nil {
		return fmt.Errorf("failed to create relationship: %w", err)
	}

	return nil
}

// convertRecords walks result rows and collects the graph elements they
// contain. Nodes and relationships are keyed by element ID so an element
// matched by many rows appears once, in first-seen order. Paths are expanded
// into their constituent nodes and relationships.
func convertRecords(records []*neo4j.Record) *QueryResult {
	result := &QueryResult{
		Entities:      []Entity{},
		Relationships: []Relationship{},
		Summary:       QuerySummary{RecordCount: len(records)},
	}

	seenNodes := make(map[string]bool)
	seenRels := make(map[string]bool)

	var collect func(value any)
	collect = func(value any) {
		switch v := value.(type) {
		case dbtype.Node:
			if !seenNodes[v.ElementId] {
				seenNodes[v.ElementId] = true
				result.Entities = append(result.Entities, nodeToEntity(v))
			}
		case dbtype.Relationship:
			if !seenRels[v.ElementId] {
				seenRels[v.ElementId] = true
				result.Relationships = append(result.Relationships, edgeToRelationship(v))
			}
		case dbtype.Path:
			for _, n := range v.Nodes {
				collect(n)
			}
			for _, r := range v.Relationships {
				collect(r)
			}
		case []any:
			for _, item := range v {
				collect(item)
			}
		}
	}

	for _, record := range records {
		for _, value := range record.Values {
			collect(value)
		}
	}

	return result
}

// nodeToEntity converts a driver node into an Entity. The backend element ID
// is used as the entity identifier so relationship endpoints and entity IDs
// refer to the same namespace; any domain-level "id" stays in Properties.
func nodeToEntity(n dbtype.Node) Entity {
	label := ""
	if len(n.Labels) > 0 {
		label = n.Labels[0]
	}

	return Entity{
		ID:         n.ElementId,
		Label:      label,
		Properties: n.Props,
	}
}

// edgeToRelationship converts a driver relationship into a Relationship.
func edgeToRelationship(r dbtype.Relationship) Relationship {
	return Relationship{
		ID:         r.ElementId,
		FromID:     r.StartElementId,
		ToID:       r.EndElementId,
		Label:      r.Type,
		Properties: r.Props,
	}
}
