// Package ner extracts typed financial entities from free text.
//
// The Extractor prompts the inference port with a report or article and an
// extraction schema, then parses and normalizes the model's JSON into an
// Extraction: companies, people, ratings, transactions, employments, and
// regulatory events. Normalization fills per-type defaults (sector "Unknown",
// currency "USD"), reduces date mentions to ISO timestamps, and parses money
// phrases like "$2.3 billion" into numeric values.
//
// An Extraction can be converted into graph entities and relationships and
// written to a graph backend:
//
//	ex, err := extractor.Extract(ctx, reportText)
//	if err != nil {
//		return err
//	}
//	created, err := ner.Ingest(ctx, graphClient, ex)
package ner
