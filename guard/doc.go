// Package guard enforces policies on generated Cypher before it reaches the
// graph backend.
//
// Model-generated queries are untrusted input. A Policy holds a set of named
// CEL rules evaluated against each query string; any failing rule rejects the
// query with a RejectionError that records which rule fired. The default
// policy keeps retrieval read-only by rejecting mutating clauses.
//
//	policy := guard.DefaultPolicy()
//	if err := policy.Check(cypher); err != nil {
//	    // query never reaches the backend
//	}
//
// Rules are plain CEL boolean expressions over a `query` string variable, so
// deployments can tighten the policy without code changes:
//
//	policy, err := guard.NewPolicy(guard.Rule{
//	    Name:       "bounded",
//	    Expression: `query.matches('(?i)\\blimit\\b')`,
//	    Message:    "queries must carry an explicit LIMIT",
//	})
package guard
