package inference

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	if config.BaseURL != DefaultBaseURL {
		t.Errorf("expected base URL %q, got %q", DefaultBaseURL, config.BaseURL)
	}
	if config.Model != DefaultModel {
		t.Errorf("expected model %q, got %q", DefaultModel, config.Model)
	}
	if config.Temperature != DefaultTemperature {
		t.Errorf("expected temperature %v, got %v", DefaultTemperature, config.Temperature)
	}
	if config.MaxTokens != DefaultMaxTokens {
		t.Errorf("expected max tokens %d, got %d", DefaultMaxTokens, config.MaxTokens)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{
			name:    "valid config",
			mutate:  func(c *Config) {},
			wantErr: false,
		},
		{
			name:    "missing API key",
			mutate:  func(c *Config) { c.APIKey = "" },
			wantErr: true,
		},
		{
			name:    "missing base URL",
			mutate:  func(c *Config) { c.BaseURL = "" },
			wantErr: true,
		},
		{
			name:    "missing model",
			mutate:  func(c *Config) { c.Model = "" },
			wantErr: true,
		},
		{
			name:    "temperature too high",
			mutate:  func(c *Config) { c.Temperature = 2.5 },
			wantErr: true,
		},
		{
			name:    "zero max tokens",
			mutate:  func(c *Config) { c.MaxTokens = 0 },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultConfig()
			config.APIKey = "test-key"
			tt.mutate(&config)

			err := config.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestNewOpenRouterClient_Options(t *testing.T) {
	client, err := NewOpenRouterClient("test-key",
		WithModel("openai/gpt-4o"),
		WithTemperature(0.7),
		WithMaxTokens(500),
		WithBaseURL("https://example.com/v1"),
		WithTimeout(10*time.Second),
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if client.Model() != "openai/gpt-4o" {
		t.Errorf("expected model override, got %q", client.Model())
	}
	if client.config.Temperature != 0.7 {
		t.Errorf("expected temperature override, got %v", client.config.Temperature)
	}
	if client.config.MaxTokens != 500 {
		t.Errorf("expected max tokens override, got %d", client.config.MaxTokens)
	}
}

func TestNewOpenRouterClient_MissingKey(t *testing.T) {
	_, err := NewOpenRouterClient("")
	if err == nil {
		t.Fatal("expected error for missing API key")
	}
}

func TestRenderSystemPrompt(t *testing.T) {
	req := NewRequest("Analyze the retrieved evidence.").
		WithOutput("answer", "natural language answer").
		WithOutput("completeness", "one of: complete, partial, incomplete")

	prompt := renderSystemPrompt(*req)

	if !strings.HasPrefix(prompt, "Analyze the retrieved evidence.") {
		t.Errorf("expected prompt to start with the task, got %q", prompt)
	}
	if !strings.Contains(prompt, `"answer": natural language answer`) {
		t.Errorf("expected answer field contract, got %q", prompt)
	}
	if !strings.Contains(prompt, `"completeness"`) {
		t.Errorf("expected completeness field contract, got %q", prompt)
	}
	if !strings.Contains(prompt, "JSON object") {
		t.Errorf("expected JSON instruction, got %q", prompt)
	}
}

func TestRenderUserPrompt(t *testing.T) {
	req := NewRequest("task").
		WithInput("question", "Who rated Acme Corp?").
		WithInput("schema", "Company, Rating")

	prompt := renderUserPrompt(*req)

	questionIdx := strings.Index(prompt, "## question")
	schemaIdx := strings.Index(prompt, "## schema")

	if questionIdx == -1 || schemaIdx == -1 {
		t.Fatalf("expected one section per input, got %q", prompt)
	}
	if questionIdx > schemaIdx {
		t.Error("expected inputs rendered in declaration order")
	}
	if !strings.Contains(prompt, "Who rated Acme Corp?") {
		t.Errorf("expected input value in prompt, got %q", prompt)
	}
}

func TestMapOutputs(t *testing.T) {
	declared := []Field{{Name: "plan"}, {Name: "reasoning"}}

	tests := []struct {
		name       string
		content    string
		wantPlan   string
		wantErr    bool
		wantReason string
	}{
		{
			name:     "bare JSON object",
			content:  `{"plan": [{"step": 1}], "reasoning": "start broad"}`,
			wantPlan: `[{"step": 1}]`,
		},
		{
			name:     "fenced JSON object",
			content:  "```json\n{\"plan\": [], \"reasoning\": \"nothing to do\"}\n```",
			wantPlan: `[]`,
		},
		{
			name:       "no JSON at all",
			content:    "I cannot answer that.",
			wantErr:    true,
			wantReason: "no JSON found",
		},
		{
			name:       "JSON array instead of object",
			content:    `[1, 2, 3]`,
			wantErr:    true,
			wantReason: "not a JSON object",
		},
		{
			name:       "missing declared field",
			content:    `{"plan": []}`,
			wantErr:    true,
			wantReason: "missing output field",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			outputs, err := mapOutputs(tt.content, declared)

			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				var outErr *OutputError
				if !errors.As(err, &outErr) {
					t.Fatalf("expected *OutputError, got %T", err)
				}
				if outErr.Raw != tt.content {
					t.Errorf("expected raw output preserved, got %q", outErr.Raw)
				}
				if !strings.Contains(outErr.Reason, tt.wantReason) {
					t.Errorf("expected reason containing %q, got %q", tt.wantReason, outErr.Reason)
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if outputs["plan"] != tt.wantPlan {
				t.Errorf("expected plan %q, got %q", tt.wantPlan, outputs["plan"])
			}
		})
	}
}

func TestFlattenField(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{name: "string is unquoted", raw: `"hello world"`, want: "hello world"},
		{name: "array keeps raw JSON", raw: `[{"a":1}]`, want: `[{"a":1}]`},
		{name: "object keeps raw JSON", raw: `{"a":1}`, want: `{"a":1}`},
		{name: "number keeps raw text", raw: `3.5`, want: "3.5"},
		{name: "bool keeps raw text", raw: `true`, want: "true"},
		{name: "null keeps raw text", raw: `null`, want: "null"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := flattenField(json.RawMessage(tt.raw)); got != tt.want {
				t.Errorf("flattenField(%s) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

// chatStub serves OpenAI-shaped chat completion responses for client tests.
func chatStub(t *testing.T, content string) *httptest.Server {
	t.Helper()

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			http.NotFound(w, r)
			return
		}

		resp := map[string]any{
			"id":      "chatcmpl-test",
			"object":  "chat.completion",
			"created": 1700000000,
			"model":   "openai/gpt-4o-mini",
			"choices": []map[string]any{
				{
					"index":         0,
					"finish_reason": "stop",
					"message": map[string]any{
						"role":    "assistant",
						"content": content,
					},
				},
			},
			"usage": map[string]any{
				"prompt_tokens":     42,
				"completion_tokens": 10,
				"total_tokens":      52,
			},
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			t.Errorf("failed to encode stub response: %v", err)
		}
	}))
}

func TestOpenRouterClient_Infer(t *testing.T) {
	server := chatStub(t, "```json\n{\"answer\": \"Jane Doe is the CEO.\", \"confidence\": 0.9}\n```")
	defer server.Close()

	client, err := NewOpenRouterClient("test-key", WithBaseURL(server.URL+"/v1"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	req := NewRequest("Answer the question from the evidence.").
		WithInput("question", "Who is the CEO of Acme Corp?").
		WithOutput("answer", "the answer").
		WithOutput("confidence", "confidence between 0 and 1")

	resp, err := client.Infer(context.Background(), *req)
	if err != nil {
		t.Fatalf("Infer() error = %v", err)
	}

	if resp.Output("answer") != "Jane Doe is the CEO." {
		t.Errorf("expected answer output, got %q", resp.Output("answer"))
	}
	if resp.Output("confidence") != "0.9" {
		t.Errorf("expected confidence output '0.9', got %q", resp.Output("confidence"))
	}
	if resp.Usage.TotalTokens != 52 {
		t.Errorf("expected usage total 52, got %d", resp.Usage.TotalTokens)
	}
	if !strings.Contains(resp.Raw, "Jane Doe") {
		t.Errorf("expected raw model text preserved, got %q", resp.Raw)
	}
}

func TestOpenRouterClient_Infer_UnusableOutput(t *testing.T) {
	server := chatStub(t, "Sorry, I cannot help with that.")
	defer server.Close()

	client, err := NewOpenRouterClient("test-key", WithBaseURL(server.URL+"/v1"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	req := NewRequest("task").WithOutput("answer", "")

	_, err = client.Infer(context.Background(), *req)
	var outErr *OutputError
	if !errors.As(err, &outErr) {
		t.Fatalf("expected *OutputError, got %v", err)
	}
	if outErr.Raw != "Sorry, I cannot help with that." {
		t.Errorf("expected raw model text in error, got %q", outErr.Raw)
	}
}

func TestOpenRouterClient_Infer_InvalidRequest(t *testing.T) {
	client, err := NewOpenRouterClient("test-key")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err = client.Infer(context.Background(), Request{Task: "no outputs declared"})
	if err == nil {
		t.Fatal("expected error for request without outputs")
	}
}
