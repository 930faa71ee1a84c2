// Package graph defines the graph query port: the typed entities and
// relationships retrieved from the financial knowledge graph, the Client
// interface queries go through, a Neo4j-backed implementation, and a
// recording mock for tests.
//
// Retrieval code depends only on the Client interface. The Neo4j client is
// one backend; anything that can turn a Cypher string into entities and
// relationships can stand behind the same interface.
package graph
