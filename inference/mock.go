package inference

import (
	"context"
	"sync"
	"time"
)

// MockCall represents a recorded Infer call on the mock client.
type MockCall struct {
	Request   Request
	Timestamp time.Time
}

// Mock is an in-memory Client for testing.
// Responses are served from a FIFO queue, or from a handler when one is set.
type Mock struct {
	mu sync.Mutex

	calls     []MockCall
	responses []*Response
	inferErr  error
	handler   func(ctx context.Context, req Request) (*Response, error)
}

// NewMock creates a mock inference client.
func NewMock() *Mock {
	return &Mock{
		calls:     make([]MockCall, 0),
		responses: make([]*Response, 0),
	}
}

// Infer records the call and serves the configured response.
// Precedence: handler, then configured error, then the FIFO queue.
// With nothing configured it returns a response with empty outputs.
func (m *Mock) Infer(ctx context.Context, req Request) (*Response, error) {
	m.mu.Lock()

	m.calls = append(m.calls, MockCall{Request: req, Timestamp: time.Now()})

	if m.handler != nil {
		handler := m.handler
		m.mu.Unlock()
		return handler(ctx, req)
	}

	defer m.mu.Unlock()

	if m.inferErr != nil {
		return nil, m.inferErr
	}

	if len(m.responses) > 0 {
		resp := m.responses[0]
		m.responses = m.responses[1:]
		return resp, nil
	}

	return &Response{Outputs: map[string]string{}}, nil
}

// QueueResponse appends a response to the FIFO queue.
func (m *Mock) QueueResponse(resp *Response) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses = append(m.responses, resp)
}

// QueueOutputs appends a response built from the given outputs.
func (m *Mock) QueueOutputs(outputs map[string]string) {
	m.QueueResponse(&Response{Outputs: outputs})
}

// SetError configures Infer to return an error.
func (m *Mock) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inferErr = err
}

// SetHandler configures a function that serves every Infer call.
// A handler takes precedence over the queue and the configured error.
func (m *Mock) SetHandler(handler func(ctx context.Context, req Request) (*Response, error)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handler = handler
}

// Calls returns all recorded Infer calls.
func (m *Mock) Calls() []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()

	calls := make([]MockCall, len(m.calls))
	copy(calls, m.calls)
	return calls
}

// CallCount returns the number of recorded Infer calls.
func (m *Mock) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

// CallsForTask returns the recorded calls whose request task matches.
func (m *Mock) CallsForTask(task string) []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()

	calls := make([]MockCall, 0)
	for _, call := range m.calls {
		if call.Request.Task == task {
			calls = append(calls, call)
		}
	}
	return calls
}

// Reset clears recorded calls and configured behavior.
func (m *Mock) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls = make([]MockCall, 0)
	m.responses = make([]*Response, 0)
	m.inferErr = nil
	m.handler = nil
}
