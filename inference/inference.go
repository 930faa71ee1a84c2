package inference

import (
	"context"
	"fmt"
)

// Input is a named input field supplied to the model.
type Input struct {
	// Name identifies the field in the rendered prompt.
	Name string

	// Value is the field content.
	Value string
}

// Field declares an output field the model must produce.
type Field struct {
	// Name is the JSON key the model must use.
	Name string

	// Description tells the model what the field should contain.
	Description string
}

// Request represents one structured inference exchange.
// Inputs and Outputs are ordered so rendered prompts are deterministic.
type Request struct {
	// Task is a short instruction describing the operation to perform.
	Task string

	// Inputs contains the named input fields, in prompt order.
	Inputs []Input

	// Outputs declares the output fields the model must produce.
	Outputs []Field
}

// NewRequest creates a request for the given task.
func NewRequest(task string) *Request {
	return &Request{Task: task}
}

// WithInput appends a named input field and returns the request for chaining.
func (r *Request) WithInput(name, value string) *Request {
	r.Inputs = append(r.Inputs, Input{Name: name, Value: value})
	return r
}

// WithOutput declares an output field and returns the request for chaining.
func (r *Request) WithOutput(name, description string) *Request {
	r.Outputs = append(r.Outputs, Field{Name: name, Description: description})
	return r
}

// Validate checks that the request is well-formed.
func (r *Request) Validate() error {
	if r.Task == "" {
		return fmt.Errorf("task is required")
	}
	if len(r.Outputs) == 0 {
		return fmt.Errorf("at least one output field is required")
	}
	seen := make(map[string]bool, len(r.Outputs))
	for _, f := range r.Outputs {
		if f.Name == "" {
			return fmt.Errorf("output field name cannot be empty")
		}
		if seen[f.Name] {
			return fmt.Errorf("duplicate output field: %s", f.Name)
		}
		seen[f.Name] = true
	}
	return nil
}

// Response carries the model's named outputs.
type Response struct {
	// Outputs maps declared output field names to their values.
	// String-valued fields are unquoted; structured fields keep raw JSON text.
	Outputs map[string]string

	// Raw is the unprocessed model text the outputs were extracted from.
	Raw string

	// Usage contains token usage statistics, when the provider reports them.
	Usage TokenUsage
}

// Output returns the named output field, or "" when absent.
func (r *Response) Output(name string) string {
	if r == nil {
		return ""
	}
	return r.Outputs[name]
}

// TokenUsage tracks token consumption for a request.
type TokenUsage struct {
	// InputTokens is the number of tokens in the input/prompt.
	InputTokens int

	// OutputTokens is the number of tokens generated in the response.
	OutputTokens int

	// TotalTokens is the sum of input and output tokens.
	TotalTokens int
}

// Add combines two TokenUsage instances.
func (u TokenUsage) Add(other TokenUsage) TokenUsage {
	return TokenUsage{
		InputTokens:  u.InputTokens + other.InputTokens,
		OutputTokens: u.OutputTokens + other.OutputTokens,
		TotalTokens:  u.TotalTokens + other.TotalTokens,
	}
}

// Client is the prompted inference port.
// Implementations must be safe for concurrent use.
type Client interface {
	// Infer performs one structured exchange. It returns an *OutputError when
	// the model answered but its output could not be mapped onto the declared
	// fields; transport and provider failures return their own errors. Callers
	// treat both the same way.
	Infer(ctx context.Context, req Request) (*Response, error)
}

// OutputError reports model output that could not be mapped onto the
// declared output fields. Raw preserves the model text for diagnostics.
type OutputError struct {
	// Raw is the unprocessed model text.
	Raw string

	// Reason describes why the output was rejected.
	Reason string

	// Err is the underlying error, if any.
	Err error
}

// Error implements the error interface.
func (e *OutputError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("unusable model output: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("unusable model output: %s", e.Reason)
}

// Unwrap returns the underlying error.
func (e *OutputError) Unwrap() error {
	return e.Err
}
