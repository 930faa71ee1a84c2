package cypher

import (
	"fmt"
	"regexp"
	"strings"
)

// temporalPattern matches the keywords that mark a question as time-sensitive.
// Matching is eager: common prepositions like "from" and "to" count, and a
// false positive only routes the question through the time-aware task.
var temporalPattern = regexp.MustCompile(`(?i)\b(when|time|date|year|month|quarter|since|before|after|during|between|from|to|until|recent|last|past|current|202[0-5])\b`)

// IsTemporal reports whether the question contains temporal elements.
func IsTemporal(question string) bool {
	return temporalPattern.MatchString(question)
}

// TimeContext extracts a compact temporal context string from the question,
// assembled from recognized phrases ("year 2024; recent/latest events").
// Questions with no recognizable phrase yield "general temporal context".
func TimeContext(question string) string {
	q := strings.ToLower(question)
	phrases := make([]string, 0, 4)

	for year := 2020; year <= 2025; year++ {
		if strings.Contains(q, fmt.Sprintf("%d", year)) {
			phrases = append(phrases, fmt.Sprintf("year %d", year))
		}
	}
	if strings.Contains(q, "last quarter") {
		phrases = append(phrases, "last quarter")
	}
	if strings.Contains(q, "since") {
		phrases = append(phrases, "since specified date")
	}
	if strings.Contains(q, "recent") || strings.Contains(q, "latest") {
		phrases = append(phrases, "recent/latest events")
	}

	if len(phrases) == 0 {
		return "general temporal context"
	}
	return strings.Join(phrases, "; ")
}
