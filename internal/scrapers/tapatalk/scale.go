package tapatalk

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

var scaleSuffixes = map[string]float64{
	"":  1,
	"k": 1_000,
	"m": 1_000_000,
}

// the suffix must not be the start of a word, "3 messages" is 3 and not 3 million
var scaledRegex = regexp.MustCompile(`(\d+(?:[.,]\d+)*)(?:\s*([kKmM])(?:$|[^\p{L}]))?`)

var thousandsRegex = regexp.MustCompile(`^\d{1,3}(?:,\d{3})+$`)

func normalizeNumber(s string) string {
	switch {
	case strings.Contains(s, ".") && strings.Contains(s, ","):
		return strings.ReplaceAll(s, ",", "")
	case thousandsRegex.MatchString(s):
		return strings.ReplaceAll(s, ",", "")
	}
	return strings.ReplaceAll(s, ",", ".")
}

// ParseScaled reads the first humanized count in s ("1.2k Replies", "3m", "5") and rounds it half
// away from zero.
func ParseScaled(s string) (int64, error) {
	groups := scaledRegex.FindStringSubmatch(s)
	if groups == nil {
		return 0, fmt.Errorf("no count in %q", s)
	}
	value, err := strconv.ParseFloat(normalizeNumber(groups[1]), 64)
	if err != nil {
		return 0, fmt.Errorf("parse count %q: %w", groups[1], err)
	}
	factor := scaleSuffixes[strings.ToLower(groups[2])]
	return int64(math.Round(value * factor)), nil
}

// Scale is ParseScaled with 0 for anything unreadable.
func Scale(s string) int64 {
	n, err := ParseScaled(s)
	if err != nil {
		return 0
	}
	return n
}
