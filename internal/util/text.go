package util

import (
	"regexp"
	"strings"
)

var (
	reSpaces     = regexp.MustCompile(`\s+`)
	reNonAllowed = regexp.MustCompile(`[^A-Z0-9\-/+.%\s]`)
)

// CleanCell trims a raw cell value and strips a stray byte-order mark left
// over from decoding.
func CleanCell(input string) string {
	return strings.TrimSpace(strings.TrimPrefix(input, "\uFEFF"))
}

// CleanHeader lower-cases and trims a header cell for rule matching.
func CleanHeader(input string) string {
	return strings.ToLower(CleanCell(input))
}

// ParseBoolFlag converts a free-text truthy marker to the stored 0/1 flag.
func ParseBoolFlag(input string) int {
	switch strings.ToLower(strings.TrimSpace(input)) {
	case "yes", "true", "1", "y":
		return 1
	default:
		return 0
	}
}

// NormalizeName canonicalizes a medicine name for exact lookups and fuzzy
// scoring: upper-case, punctuation collapsed to spaces, single spacing.
func NormalizeName(input string) string {
	s := strings.ToUpper(input)
	s = reNonAllowed.ReplaceAllString(s, " ")
	s = reSpaces.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// Tokenize splits a normalized name into tokens of at least two runes.
func Tokenize(input string) []string {
	parts := strings.Split(NormalizeName(input), " ")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if len([]rune(p)) >= 2 {
			out = append(out, p)
		}
	}
	return out
}

// DiceCoefficient scores bigram overlap between two strings in [0,1].
func DiceCoefficient(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 1
	}

	pairs := func(s string) []string {
		r := []rune(s)
		if len(r) < 2 {
			return nil
		}
		out := make([]string, 0, len(r)-1)
		for i := 0; i < len(r)-1; i++ {
			out = append(out, string(r[i:i+2]))
		}
		return out
	}

	aPairs := pairs(a)
	bPairs := pairs(b)
	if len(aPairs) == 0 || len(bPairs) == 0 {
		return 0
	}

	bCount := map[string]int{}
	for _, p := range bPairs {
		bCount[p]++
	}
	inter := 0
	for _, p := range aPairs {
		if bCount[p] > 0 {
			inter++
			bCount[p]--
		}
	}

	return float64(2*inter) / float64(len(aPairs)+len(bPairs))
}
