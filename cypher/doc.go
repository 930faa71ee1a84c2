// Package cypher translates single natural-language questions into openCypher
// queries for the financial knowledge graph.
//
// Where package multihop decomposes a question into an orchestrated sequence
// of retrieval steps, this package is the one-shot path: one question in, one
// screened query out. The Generator renders the schema vocabulary and the
// question into a prompted inference request and records the outcome in a
// Result. Failures are recorded in the result with elapsed time rather than
// returned as errors, so callers always receive a complete record of the
// attempt.
//
// Temporal questions ("since 2023", "before the merger", "last quarter") are
// detected by keyword and routed through a time-aware task that additionally
// extracts a compact time context and explains the temporal filtering:
//
//	gen := cypher.NewGenerator(client)
//	result := gen.Translate(ctx, "Which companies were fined since 2023?")
//	if !result.Failed() {
//		records, err := result.Run(ctx, graphClient)
//		...
//	}
package cypher
