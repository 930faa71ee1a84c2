// Package inference provides the prompted inference port used by the
// LedgerGraph retrieval components.
//
// The port models a single structured exchange with a language model: a
// request names a task, supplies named input fields, and declares the output
// fields the model must produce; a response carries those outputs as strings.
// Components never build chat transcripts directly, which keeps them
// independent of any concrete model provider.
//
// # Requests
//
// Build requests with the fluent helpers:
//
//	req := inference.NewRequest("Plan the retrieval steps for a question").
//	    WithInput("question", "Which companies acquired fintech startups?").
//	    WithInput("schema", schemaContext).
//	    WithOutput("plan", "ordered list of retrieval steps as a JSON array").
//	    WithOutput("reasoning", "short explanation of the plan")
//
// # Clients
//
// Client is the provider abstraction. OpenRouterClient talks to the
// OpenRouter API (or any OpenAI-compatible endpoint); Mock is an in-memory
// implementation for tests:
//
//	client, err := inference.NewOpenRouterClient(apiKey,
//	    inference.WithModel("openai/gpt-4o-mini"),
//	    inference.WithTemperature(0.1),
//	)
//
// # Output handling
//
// Models are instructed to answer with a single JSON object keyed by the
// declared output field names. The client extracts that object (stripping
// markdown code fences when present) and flattens each field to a string:
// string values are unquoted, any other JSON value keeps its raw JSON text.
// When the model's answer cannot be mapped onto the declared fields the
// client returns an *OutputError carrying the raw model text, so callers can
// surface it in their own diagnostics.
package inference
