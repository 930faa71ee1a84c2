package ner

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	yearPattern   = regexp.MustCompile(`(\d{4})`)
	amountPattern = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*(million|billion|thousand|k|m|b)?`)
	amountCleaner = regexp.MustCompile(`[$,\s]`)
)

// ParseDate reduces a free-form date mention to an ISO timestamp anchored at
// January 1st of the mentioned year ("March 2024" -> "2024-01-01T00:00:00Z").
// Years outside 1900-2030 and strings without a 4-digit year are rejected.
func ParseDate(s string) (string, bool) {
	if s == "" {
		return "", false
	}
	match := yearPattern.FindStringSubmatch(s)
	if match == nil {
		return "", false
	}
	year, err := strconv.Atoi(match[1])
	if err != nil || year < 1900 || year > 2030 {
		return "", false
	}
	return fmt.Sprintf("%d-01-01T00:00:00Z", year), true
}

// ParseAmount extracts a numeric value from a money phrase, expanding
// thousand/million/billion words and k/m/b suffixes ("$2.3 billion" ->
// 2.3e9, "2,500" -> 2500).
func ParseAmount(s string) (float64, bool) {
	if s == "" {
		return 0, false
	}
	clean := amountCleaner.ReplaceAllString(strings.ToLower(s), "")

	match := amountPattern.FindStringSubmatch(clean)
	if match == nil {
		return 0, false
	}
	value, err := strconv.ParseFloat(match[1], 64)
	if err != nil {
		return 0, false
	}

	switch match[2] {
	case "billion", "b":
		value *= 1_000_000_000
	case "million", "m":
		value *= 1_000_000
	case "thousand", "k":
		value *= 1_000
	}
	return value, true
}

// Tolerant accessors over the model's loosely-typed entity objects.

func stringField(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return strings.TrimSpace(s)
}

func stringFieldOr(m map[string]any, key, fallback string) string {
	if s := stringField(m, key); s != "" {
		return s
	}
	return fallback
}

// amountField reads a numeric field that the model may emit as a number or
// as a money phrase.
func amountField(m map[string]any, key string) float64 {
	switch v := m[key].(type) {
	case float64:
		return v
	case string:
		value, _ := ParseAmount(v)
		return value
	default:
		return 0
	}
}

// intField reads an integer field that the model may emit as a number or a
// digit string ("2,500").
func intField(m map[string]any, key string) int {
	switch v := m[key].(type) {
	case float64:
		return int(v)
	case string:
		n, err := strconv.Atoi(strings.ReplaceAll(strings.TrimSpace(v), ",", ""))
		if err != nil {
			return 0
		}
		return n
	default:
		return 0
	}
}

// dateField reads a date field and reduces it to an ISO timestamp.
func dateField(m map[string]any, key string) string {
	raw := stringField(m, key)
	iso, ok := ParseDate(raw)
	if !ok {
		return ""
	}
	return iso
}
