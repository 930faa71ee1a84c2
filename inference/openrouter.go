package inference

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/ledgergraph-ai/sdk/parser"
)

const (
	// DefaultBaseURL is the OpenRouter API endpoint.
	DefaultBaseURL = "https://openrouter.ai/api/v1"

	// DefaultModel is the model used when none is configured.
	DefaultModel = "openai/gpt-4o-mini"

	// DefaultTemperature keeps generation focused and repeatable.
	DefaultTemperature = 0.1

	// DefaultMaxTokens bounds the generated output length.
	DefaultMaxTokens = 2000
)

// Config holds OpenRouter client configuration.
type Config struct {
	// APIKey authenticates requests. Required.
	APIKey string `yaml:"api_key" json:"-"`

	// BaseURL is the API endpoint. Any OpenAI-compatible endpoint works.
	BaseURL string `yaml:"base_url" json:"base_url"`

	// Model is the model identifier, in provider/model form for OpenRouter.
	Model string `yaml:"model" json:"model"`

	// Temperature controls randomness (0.0 to 2.0).
	Temperature float32 `yaml:"temperature" json:"temperature"`

	// MaxTokens limits the number of tokens generated per exchange.
	MaxTokens int `yaml:"max_tokens" json:"max_tokens"`

	// Timeout bounds each HTTP request.
	Timeout time.Duration `yaml:"timeout" json:"timeout"`
}

// DefaultConfig returns the configuration used when no options are given.
func DefaultConfig() Config {
	return Config{
		BaseURL:     DefaultBaseURL,
		Model:       DefaultModel,
		Temperature: DefaultTemperature,
		MaxTokens:   DefaultMaxTokens,
		Timeout:     60 * time.Second,
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("API key is required")
	}
	if c.BaseURL == "" {
		return fmt.Errorf("base URL is required")
	}
	if c.Model == "" {
		return fmt.Errorf("model is required")
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return fmt.Errorf("temperature must be between 0.0 and 2.0")
	}
	if c.MaxTokens <= 0 {
		return fmt.Errorf("max tokens must be positive")
	}
	return nil
}

// Option configures the OpenRouter client.
type Option func(*Config)

// WithBaseURL overrides the API endpoint.
func WithBaseURL(url string) Option {
	return func(c *Config) {
		c.BaseURL = url
	}
}

// WithModel sets the model identifier.
func WithModel(model string) Option {
	return func(c *Config) {
		c.Model = model
	}
}

// WithTemperature sets the sampling temperature.
func WithTemperature(t float32) Option {
	return func(c *Config) {
		c.Temperature = t
	}
}

// WithMaxTokens sets the generated output token limit.
func WithMaxTokens(n int) Option {
	return func(c *Config) {
		c.MaxTokens = n
	}
}

// WithTimeout sets the per-request HTTP timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Config) {
		c.Timeout = d
	}
}

// OpenRouterClient implements Client against the OpenRouter API or any
// OpenAI-compatible endpoint. It is safe for concurrent use.
type OpenRouterClient struct {
	config Config
	api    *openai.Client
}

// NewOpenRouterClient creates a client authenticated with the given API key.
func NewOpenRouterClient(apiKey string, opts ...Option) (*OpenRouterClient, error) {
	config := DefaultConfig()
	config.APIKey = apiKey
	for _, opt := range opts {
		opt(&config)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	apiConfig := openai.DefaultConfig(config.APIKey)
	apiConfig.BaseURL = config.BaseURL
	apiConfig.HTTPClient = &http.Client{Timeout: config.Timeout}

	return &OpenRouterClient{
		config: config,
		api:    openai.NewClientWithConfig(apiConfig),
	}, nil
}

// Model returns the configured model identifier.
func (c *OpenRouterClient) Model() string {
	return c.config.Model
}

// Infer implements Client.
func (c *OpenRouterClient) Infer(ctx context.Context, req Request) (*Response, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("invalid request: %w", err)
	}

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.config.Model,
		Temperature: c.config.Temperature,
		MaxTokens:   c.config.MaxTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: renderSystemPrompt(req)},
			{Role: openai.ChatMessageRoleUser, Content: renderUserPrompt(req)},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("chat completion failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("model returned no choices")
	}

	content := resp.Choices[0].Message.Content

	outputs, err := mapOutputs(content, req.Outputs)
	if err != nil {
		return nil, err
	}

	return &Response{
		Outputs: outputs,
		Raw:     content,
		Usage: TokenUsage{
			InputTokens:  resp.Usage.PromptTokens,
			OutputTokens: resp.Usage.CompletionTokens,
			TotalTokens:  resp.Usage.TotalTokens,
		},
	}, nil
}

// renderSystemPrompt builds the instruction message: the task followed by the
// output contract the model must honor.
func renderSystemPrompt(req Request) string {
	var b strings.Builder

	b.WriteString(req.Task)
	b.WriteString("\n\n")
	b.WriteString("Respond with a single JSON object containing exactly these fields:\n")
	for _, f := range req.Outputs {
		if f.Description != "" {
			fmt.Fprintf(&b, "- %q: %s\n", f.Name, f.Description)
		} else {
			fmt.Fprintf(&b, "- %q\n", f.Name)
		}
	}
	b.WriteString("\nDo not include any text outside the JSON object.")

	return b.String()
}

// renderUserPrompt builds the data message: one markdown section per input,
// in declaration order.
func renderUserPrompt(req Request) string {
	var b strings.Builder

	for i, in := range req.Inputs {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "## %s\n\n%s\n", in.Name, in.Value)
	}

	return b.String()
}

// mapOutputs extracts the JSON object from the model text and flattens the
// declared output fields.
func mapOutputs(content string, declared []Field) (map[string]string, error) {
	jsonText, err := parser.ExtractJSON(content)
	if err != nil {
		return nil, &OutputError{Raw: content, Reason: "no JSON found in model output", Err: err}
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(jsonText), &fields); err != nil {
		return nil, &OutputError{Raw: content, Reason: "model output is not a JSON object", Err: err}
	}

	outputs := make(map[string]string, len(declared))
	for _, f := range declared {
		raw, ok := fields[f.Name]
		if !ok {
			return nil, &OutputError{Raw: content, Reason: fmt.Sprintf("missing output field %q", f.Name)}
		}
		outputs[f.Name] = flattenField(raw)
	}

	return outputs, nil
}

// flattenField renders a JSON value as a string: string values are unquoted,
// everything else keeps its raw JSON text.
func flattenField(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return strings.TrimSpace(string(raw))
}
