// Package multihop implements multi-step retrieval over a financial
// knowledge graph.
//
// A run decomposes a natural-language question into an ordered plan of
// retrieval steps, executes each step's generated Cypher against the graph
// backend while threading prior results forward as context, accumulates and
// deduplicates what the steps discover, and finally assesses whether the
// accumulated evidence answers the question.
//
// # Components
//
// The Orchestrator sequences four collaborators, each replaceable through an
// interface:
//
//   - Planner turns a question plus the schema vocabulary into []Step.
//   - StepExecutor generates and runs one concrete query per step.
//   - Accumulator keeps the run's entity and relationship sequences.
//   - Analyzer reduces the accumulated evidence to an answer and a
//     completeness verdict.
//
// The default implementations (LLMPlanner, LLMStepExecutor, LLMAnalyzer) use
// the prompted inference port from package inference.
//
// # Failure model
//
// A run degrades instead of aborting. A plan that cannot be parsed is the
// only fatal failure: it ends the run with zero hops and a populated error.
// A failing individual hop is recorded in its HopOutcome and the remaining
// hops still execute; analysis always runs, even over empty evidence. Any
// unexpected fault is caught at the Orchestrator boundary, which always
// returns a well-formed Result.
//
//	orch := multihop.NewOrchestrator(inferenceClient, graphClient)
//	result := orch.Run(ctx, "Find companies and their executives", 3)
//	for _, hop := range result.Hops {
//	    fmt.Printf("step %d: %d entities\n", hop.StepNumber, hop.EntitiesFound)
//	}
package multihop
