// Package schema defines the financial knowledge graph vocabulary: the node
// labels, their property keys, and the relationship types between them.
//
// The vocabulary is what grounds prompted inference in the actual graph. Plan
// building, Cypher generation, and entity extraction all render the same
// Schema into their prompts, so the model proposes queries against labels and
// properties that exist.
//
// A built-in default covers the LedgerGraph financial graph (Company, Person,
// Rating, Transaction, RegulatoryEvent). Deployments with extended graphs load
// their own vocabulary from YAML:
//
//	s, err := schema.Load("vocabulary.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	client, err := sdk.NewClient(sdk.WithSchema(s))
package schema
