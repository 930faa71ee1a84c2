// Package parser provides parsing utilities for structured model output.
//
// Language models return JSON wrapped in markdown code fences, prose, or
// both. This package extracts and decodes that JSON without caring which
// model produced it. Domain-specific response shapes live in the packages
// that own them.
package parser
