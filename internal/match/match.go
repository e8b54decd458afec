// Package match provides the heading/content scoring heuristics shared by
// the anchor resolver and the execution engines. The scoring formula sits
// behind the Scorer interface so a stricter or fuzzier matcher can be
// swapped in without touching callers.
package match

import (
	"strings"

	"github.com/sahilm/fuzzy"
)

// MinScore is the threshold below which a best-match candidate is rejected.
// Chosen empirically: token-overlap scores for unrelated headings land well
// under it, while any genuine containment match clears it.
const MinScore = 0.1

// Scorer rates how well a candidate string matches a search string.
// Scores are in [0, 1]; 1 means an exact match after normalization.
type Scorer interface {
	Score(candidate, search string) float64
}

// Heuristic is the default scorer: exact match short-circuits at 1.0;
// containment scores as the length ratio of the shorter string to the
// longer, with containment of the search inside the candidate preferred
// over the reverse (which is weighted x0.5); otherwise the fraction of
// search tokens present in the candidate, weighted x0.3.
type Heuristic struct{}

func (Heuristic) Score(candidate, search string) float64 {
	c := normalize(candidate)
	s := normalize(search)
	if c == "" || s == "" {
		return 0
	}
	if c == s {
		return 1.0
	}
	if strings.Contains(c, s) {
		return float64(len(s)) / float64(len(c))
	}
	if strings.Contains(s, c) {
		return float64(len(c)) / float64(len(s)) * 0.5
	}
	sTokens := strings.Fields(s)
	if len(sTokens) == 0 {
		return 0
	}
	cTokens := make(map[string]bool)
	for _, t := range strings.Fields(c) {
		cTokens[t] = true
	}
	matched := 0
	for _, t := range sTokens {
		if cTokens[t] {
			matched++
		}
	}
	return float64(matched) / float64(len(sTokens)) * 0.3
}

// Subsequence is an alternative scorer built on sahilm/fuzzy subsequence
// matching. It is stricter than Heuristic about character order and looser
// about contiguity; exposed for callers that prefer editor-style matching.
type Subsequence struct{}

func (Subsequence) Score(candidate, search string) float64 {
	c := normalize(candidate)
	s := normalize(search)
	if c == "" || s == "" {
		return 0
	}
	if c == s {
		return 1.0
	}
	matches := fuzzy.Find(s, []string{c})
	if len(matches) == 0 {
		return 0
	}
	// fuzzy scores are unbounded; squash by matched-rune coverage of the
	// candidate, which keeps the [0,1] contract of Scorer.
	covered := float64(len(matches[0].MatchedIndexes)) / float64(len(c))
	if covered > 1 {
		covered = 1
	}
	return covered
}

// ByName maps a configuration value to a scorer: "subsequence" selects
// Subsequence, anything else the heuristic default. Config validation
// rejects unknown names before they reach this point.
func ByName(name string) Scorer {
	if name == "subsequence" {
		return Subsequence{}
	}
	return Heuristic{}
}

// Best returns the index of the highest-scoring candidate at or above
// MinScore, together with its score. An exact match wins immediately. When
// no candidate reaches the threshold, Best returns -1.
func Best(scorer Scorer, candidates []string, search string) (int, float64) {
	bestIdx, bestScore := -1, 0.0
	for i, c := range candidates {
		score := scorer.Score(c, search)
		if score == 1.0 {
			return i, score
		}
		if score > bestScore {
			bestIdx, bestScore = i, score
		}
	}
	if bestScore < MinScore {
		return -1, bestScore
	}
	return bestIdx, bestScore
}

// normalize lower-cases and trims surrounding whitespace, the comparison
// form used by every matching layer.
func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Loose reports the relation used by the anchor resolver's heading strategy:
// equality, containment either direction, after normalization. No scoring at
// that layer; first match in document order wins.
func Loose(candidate, search string) bool {
	c := normalize(candidate)
	s := normalize(search)
	if c == "" || s == "" {
		return false
	}
	return c == s || strings.Contains(c, s) || strings.Contains(s, c)
}
