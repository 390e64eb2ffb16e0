package textutil

import (
	"regexp"
	"strings"
)

var whitespaceRegex = regexp.MustCompile(`\s+`)

// NormalizeLabel lowercases a field label, collapses its whitespace and drops a trailing colon
// so that "Last Active:" and "last  active" compare equal.
func NormalizeLabel(label string) string {
	label = strings.ToLower(label)
	label = whitespaceRegex.ReplaceAllString(label, " ")
	label = strings.TrimSpace(label)
	label = strings.TrimSuffix(label, ":")
	return strings.TrimSpace(label)
}

func MatchLabel(label string, matchers ...string) bool {
	label = NormalizeLabel(label)
	for _, m := range matchers {
		if label == m {
			return true
		}
	}
	return false
}
