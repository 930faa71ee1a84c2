package graph

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// MockCall represents a recorded method call on the mock graph client.
type MockCall struct {
	Method    string
	Args      []any
	Timestamp time.Time
}

// MockClient is a mock implementation of Client for testing.
// It provides configurable responses and tracks all method calls for verification.
type MockClient struct {
	mu sync.RWMutex

	// State
	connected     bool
	entities      map[string]Entity
	relationships []Relationship
	calls         []MockCall
	nextEntityID  int

	// Configurable responses
	queryResults   []*QueryResult
	queryError     error
	connectError   error
	closeError     error
	pingError      error
	createEntError error
	createRelError error
}

// NewMockClient creates a new mock graph client for testing.
func NewMockClient() *MockClient {
	return &MockClient{
		entities:      make(map[string]Entity),
		relationships: make([]Relationship, 0),
		calls:         make([]MockCall, 0),
		queryResults:  make([]*QueryResult, 0),
		nextEntityID:  1,
	}
}

// Connect records the call and simulates connection.
func (m *MockClient) Connect(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls = append(m.calls, MockCall{
		Method:    "Connect",
		Args:      []any{},
		Timestamp: time.Now(),
	})

	if m.connectError != nil {
		return m.connectError
	}

	m.connected = true
	return nil
}

// Close records the call and simulates disconnection.
func (m *MockClient) Close(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls = append(m.calls, MockCall{
		Method:    "Close",
		Args:      []any{},
		Timestamp: time.Now(),
	})

	if m.closeError != nil {
		return m.closeError
	}

	m.connected = false
	return nil
}

// Ping records the call and reports the configured reachability.
func (m *MockClient) Ping(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls = append(m.calls, MockCall{
		Method:    "Ping",
		Args:      []any{},
		Timestamp: time.Now(),
	})

	if !m.connected {
		return ErrNotConnected
	}

	return m.pingError
}

// Query records the call and returns the configured query results (FIFO).
// When no results are queued an empty result is returned.
func (m *MockClient) Query(ctx context.Context, cypher string, params map[string]any) (*QueryResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls = append(m.calls, MockCall{
		Method:    "Query",
		Args:      []any{cypher, params},
		Timestamp: time.Now(),
	})

	if !m.connected {
		return nil, ErrNotConnected
	}

	if m.queryError != nil {
		return nil, m.queryError
	}

	if len(m.queryResults) > 0 {
		result := m.queryResults[0]
		m.queryResults = m.queryResults[1:]
		return result, nil
	}

	return &QueryResult{
		Entities:      []Entity{},
		Relationships: []Relationship{},
	}, nil
}

// CreateEntity records the call and stores a mock entity.
func (m *MockClient) CreateEntity(ctx context.Context, e Entity) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls = append(m.calls, MockCall{
		Method:    "CreateEntity",
		Args:      []any{e},
		Timestamp: time.Now(),
	})

	if !m.connected {
		return "", ErrNotConnected
	}

	if m.createEntError != nil {
		return "", m.createEntError
	}

	id := e.ID
	if id == "" {
		id = fmt.Sprintf("mock-entity-%d", m.nextEntityID)
		m.nextEntityID++
	}

	stored := e
	stored.ID = id
	m.entities[id] = stored

	return id, nil
}

// CreateRelationship records the call and stores a mock relationship.
// Both endpoints must have been created first.
func (m *MockClient) CreateRelationship(ctx context.Context, r Relationship) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls = append(m.calls, MockCall{
		Method:    "CreateRelationship",
		Args:      []any{r},
		Timestamp: time.Now(),
	})

	if !m.connected {
		return ErrNotConnected
	}

	if m.createRelError != nil {
		return m.createRelError
	}

	if _, exists := m.entities[r.FromID]; !exists {
		return fmt.Errorf("from entity not found: %s", r.FromID)
	}
	if _, exists := m.entities[r.ToID]; !exists {
		return fmt.Errorf("to entity not found: %s", r.ToID)
	}

	m.relationships = append(m.relationships, r)
	return nil
}

// SetQueryResults configures what Query() should return (FIFO queue).
func (m *MockClient) SetQueryResults(results []*QueryResult) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queryResults = results
}

// AddQueryResult adds a single query result to the queue.
func (m *MockClient) AddQueryResult(result *QueryResult) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queryResults = append(m.queryResults, result)
}

// SetConnectError configures Connect() to return an error.
func (m *MockClient) SetConnectError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.connectError = err
}

// SetCloseError configures Close() to return an error.
func (m *MockClient) SetCloseError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closeError = err
}

// SetPingError configures Ping() to return an error.
func (m *MockClient) SetPingError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pingError = err
}

// SetQueryError configures Query() to return an error.
func (m *MockClient) SetQueryError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queryError = err
}

// SetCreateEntityError configures CreateEntity() to return an error.
func (m *MockClient) SetCreateEntityError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.createEntError = err
}

// SetCreateRelationshipError configures CreateRelationship() to return an error.
func (m *MockClient) SetCreateRelationshipError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.createRelError = err
}

// GetCalls returns all recorded method calls.
func (m *MockClient) GetCalls() []MockCall {
	m.mu.RLock()
	defer m.mu.RUnlock()

	calls := make([]MockCall, len(m.calls))
	copy(calls, m.calls)
	return calls
}

// GetCallsByMethod returns all calls to a specific method.
func (m *MockClient) GetCallsByMethod(method string) []MockCall {
	m.mu.RLock()
	defer m.mu.RUnlock()

	calls := make([]MockCall, 0)
	for _, call := range m.calls {
		if call.Method == method {
			calls = append(calls, call)
		}
	}
	return calls
}

// CallCount returns the total number of method calls.
func (m *MockClient) CallCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.calls)
}

// GetEntities returns all stored entities.
func (m *MockClient) GetEntities() map[string]Entity {
	m.mu.RLock()
	defer m.mu.RUnlock()

	entities := make(map[string]Entity, len(m.entities))
	for k, v := range m.entities {
		entities[k] = v
	}
	return entities
}

// GetRelationships returns all stored relationships.
func (m *MockClient) GetRelationships() []Relationship {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rels := make([]Relationship, len(m.relationships))
	copy(rels, m.relationships)
	return rels
}

// IsConnected returns whether the mock is in connected state.
func (m *MockClient) IsConnected() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.connected
}

// Reset clears all recorded calls and resets the mock to its initial state.
func (m *MockClient) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.connected = false
	m.entities = make(map[string]Entity)
	m.relationships = make([]Relationship, 0)
	m.calls = make([]MockCall, 0)
	m.queryResults = make([]*QueryResult, 0)
	m.nextEntityID = 1
	m.queryError = nil
	m.connectError = nil
	m.closeError = nil
	m.pingError = nil
	m.createEntError = nil
	m.createRelError = nil
}
