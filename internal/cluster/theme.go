package cluster

import "strings"

// themeBuckets are checked in order against the canonical text; the first
// bucket with a keyword hit wins.
var themeBuckets = []struct {
	name     string
	keywords []string
}{
	{"weather", []string{"weather", "rain", "sunny", "cloudy", "snow", "storm", "temperature", "forecast"}},
	{"work", []string{"work", "meeting", "project", "deadline", "office", "task", "schedule"}},
	{"energy", []string{"tired", "energy", "exhausted", "sleep", "awake", "rested"}},
	{"food", []string{"food", "eat", "lunch", "dinner", "breakfast", "hungry", "cooking"}},
}

var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "is": true, "are": true,
	"was": true, "were": true, "be": true, "been": true, "being": true,
	"have": true, "has": true, "had": true, "do": true, "does": true,
	"did": true, "will": true, "would": true, "could": true, "should": true,
	"may": true, "might": true, "must": true, "shall": true,
	"this": true, "that": true, "these": true, "those": true,
	"and": true, "or": true, "but": true, "if": true, "then": true,
	"for": true, "from": true, "with": true, "about": true, "into": true,
	"to": true, "of": true, "in": true, "on": true, "at": true, "by": true,
	"it": true, "its": true, "which": true, "who": true, "what": true,
	"when": true, "where": true, "how": true, "why": true,
	"yeah": true, "okay": true, "right": true, "well": true, "just": true,
	"need": true, "more": true, "some": true, "very": true, "really": true,
}

// AssignTheme derives a coarse topic tag from the canonical text. Keyword
// buckets are tried first; otherwise the first content word longer than 3
// characters becomes "<word>_topic"; with no such word the theme is
// general_conversation.
func AssignTheme(canonical string) string {
	lower := strings.ToLower(canonical)

	for _, bucket := range themeBuckets {
		for _, kw := range bucket.keywords {
			if strings.Contains(lower, kw) {
				return bucket.name
			}
		}
	}

	for _, word := range tokenize(lower) {
		if len(word) > 3 && !stopWords[word] {
			return word + "_topic"
		}
	}

	return "general_conversation"
}

// tokenize splits on non-alphanumeric runes, keeping underscores.
func tokenize(text string) []string {
	return strings.FieldsFunc(text, func(r rune) bool {
		return !((r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_')
	})
}
