package match

import (
	"math"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Similarity thresholds used by callers across the comparison views.
const (
	// MatchThreshold is the minimum similarity for "is this a match".
	MatchThreshold = 0.6
	// ExactThreshold is the minimum similarity for an "exact" overlap.
	ExactThreshold = 0.9
)

// Similarity computes a 0-1 similarity between two product or company name
// strings. It is a cheap heuristic, not edit distance: it tolerates partial
// and abbreviated names but does not catch synonyms. Rules in priority
// order, first match wins:
//
//  1. equal after folding: 1.0
//  2. one contains the other: 0.8
//  3. common whitespace-delimited words: min(0.7, common/max(lenA, lenB))
//  4. otherwise: 0
//
// Folding is lowercase + trim + accent strip, so "Proteção" and "protecao"
// compare equal. Symmetric in all branches.
func Similarity(a, b string) float64 {
	fa := foldName(a)
	fb := foldName(b)
	if fa == "" || fb == "" {
		return 0
	}
	if fa == fb {
		return 1.0
	}
	if strings.Contains(fa, fb) || strings.Contains(fb, fa) {
		return 0.8
	}

	wordsA := strings.Fields(fa)
	wordsB := strings.Fields(fb)
	common := commonWordCount(wordsA, wordsB)
	if common > 0 {
		longest := max(len(wordsA), len(wordsB))
		return math.Min(0.7, float64(common)/float64(longest))
	}
	return 0
}

// foldName lowercases, trims, and strips combining accent marks so that
// Portuguese names compare sanely regardless of diacritics.
func foldName(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return ""
	}
	stripper := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(stripper, s)
	if err != nil {
		return s
	}
	return folded
}

// commonWordCount counts distinct words present in both lists.
func commonWordCount(a, b []string) int {
	set := make(map[string]struct{}, len(a))
	for _, w := range a {
		set[w] = struct{}{}
	}
	seen := make(map[string]struct{})
	count := 0
	for _, w := range b {
		if _, ok := set[w]; !ok {
			continue
		}
		if _, dup := seen[w]; dup {
			continue
		}
		seen[w] = struct{}{}
		count++
	}
	return count
}
