// Package sdk is the root of the LedgerGraph SDK, a toolkit for answering
// natural language questions against a financial knowledge graph.
//
// The SDK plans multi-hop retrievals with a language model, executes each
// hop as a screened Cypher query against the graph backend, and analyzes
// the accumulated evidence into an answer. Alongside the multi-hop loop it
// provides single-shot query translation and financial entity extraction.
//
// # Core Concepts
//
// The SDK is organized around a small number of concepts:
//
//   - Retrieval runs: one Retrieve call plans, executes, and analyzes a
//     multi-hop traversal; every run is recorded in the client's ledger
//     and its result persisted in the run store
//   - Translation: a single natural language question becomes one
//     screened openCypher query, with temporal intent detection
//   - Extraction: unstructured financial text becomes typed companies,
//     people, ratings, transactions, and regulatory events
//   - Guard policies: CEL rules that every generated query must pass
//     before it reaches the graph backend
//   - Schema: the graph vocabulary rendered into every prompt so the
//     model generates queries against real labels and relationship types
//
// # Getting Started
//
// Create a client, start it, and ask a question:
//
//	import (
//		"context"
//		"log"
//
//		sdk "github.com/ledgergraph-ai/sdk"
//	)
//
//	func main() {
//		ctx := context.Background()
//
//		client, err := sdk.NewClient(
//			sdk.WithConfigFile("ledgergraph.yaml"),
//			sdk.WithMaxHops(3),
//		)
//		if err != nil {
//			log.Fatal(err)
//		}
//		if err := client.Start(ctx); err != nil {
//			log.Fatal(err)
//		}
//		defer client.Shutdown(ctx)
//
//		result, err := client.Retrieve(ctx, "Who are the directors of companies rated AAA in 2023?")
//		if err != nil {
//			log.Fatal(err)
//		}
//		log.Printf("answer: %s (%d hops, %d entities)",
//			result.Reasoning, len(result.Hops), len(result.FinalNodes))
//	}
//
// With no options, NewClient reads its configuration from the environment:
// OPENROUTER_API_KEY (or the legacy OPEN_ROUTER_KEY) for inference,
// NEO4J_URI, NEO4J_USERNAME, and NEO4J_PASSWORD for the graph backend, and
// REDIS_URL for run persistence.
//
// # Architecture
//
// The root package is a facade over the subpackages, which are usable on
// their own:
//
//   - graph: entity and relationship model, Neo4j client, mock client
//   - inference: the prompted inference port and its OpenRouter client
//   - parser: tolerant extraction of JSON from model output
//   - multihop: plan, execute, accumulate, analyze orchestration
//   - cypher: single-shot translation with temporal handling
//   - ner: entity extraction and graph mapping
//   - guard: CEL query screening policies
//   - schema: graph vocabulary and prompt rendering
//   - config: YAML plus environment configuration
//   - runstore: in-memory and Redis run persistence
//   - health: backend health checks
//   - registry: etcd service discovery
//   - serve: gRPC server exposing a client as a retriever service
//   - eval: retrieval quality scoring
//
// # Serving
//
// A Client satisfies serve.Service, so exposing it over gRPC is one call:
//
//	err := sdk.Serve(ctx, client,
//		serve.WithAddress(":50051"),
//		serve.WithServiceName("financial-kg"),
//		serve.WithRegistryFromEnv(),
//	)
//
// # Error Handling
//
// Operations return *SDKError values that categorize failures by kind and
// support errors.Is and errors.As. Sentinel errors such as ErrRunNotFound
// and ErrGraphUnavailable identify common conditions:
//
//	_, err := client.GetRun(ctx, runID)
//	if errors.Is(err, sdk.ErrRunNotFound) {
//		// the run was deleted or never existed
//	}
//
// Retrieval failures are not errors: Retrieve returns a well-formed result
// whose Error field and per-hop outcomes describe what went wrong, so
// partial evidence survives a failed run.
package sdk
