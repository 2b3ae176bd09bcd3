package reconcile

import (
	"strings"

	"github.com/texttheater/golang-levenshtein/levenshtein"
)

// Blend weights for the two similarity terms. The token-overlap term
// dominates so reordered names ("Growth Fund Axis" vs "Axis Growth Fund")
// still score highly; the edit-distance term rewards near-identical
// spellings that token overlap alone would miss.
const (
	tokenOverlapWeight = 0.7
	editDistanceWeight = 0.3
)

// SimilarityScorer computes a bounded similarity score between two
// canonical fund names.
type SimilarityScorer struct{}

// NewSimilarityScorer creates a new similarity scorer
func NewSimilarityScorer() *SimilarityScorer {
	return &SimilarityScorer{}
}

// Score returns a similarity in [0,1] between two canonical strings.
// 1.0 means identical; disjoint token sets with high edit distance score
// near 0. Score is symmetric, and adding a token shared by both strings
// never decreases it.
func (s *SimilarityScorer) Score(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 1.0
	}

	tokenTerm := s.tokenOverlap(a, b)
	editTerm := s.editSimilarity(a, b)

	score := tokenOverlapWeight*tokenTerm + editDistanceWeight*editTerm
	if score > 1.0 {
		score = 1.0
	}
	if score < 0 {
		score = 0
	}
	return score
}

// tokenOverlap is a length-weighted Dice coefficient over the token sets.
// Weighting by token length keeps short tokens ("of", "100") from producing
// false positives on their own.
func (s *SimilarityScorer) tokenOverlap(a, b string) float64 {
	tokensA := tokenSet(a)
	tokensB := tokenSet(b)

	lenA := totalLength(tokensA)
	lenB := totalLength(tokensB)
	if lenA == 0 || lenB == 0 {
		return 0
	}

	shared := 0
	for tok := range tokensA {
		if tokensB[tok] {
			shared += len(tok)
		}
	}

	return float64(2*shared) / float64(lenA+lenB)
}

// editSimilarity is 1 minus the normalized Levenshtein distance over the
// full strings.
func (s *SimilarityScorer) editSimilarity(a, b string) float64 {
	runesA := []rune(a)
	runesB := []rune(b)

	longest := len(runesA)
	if len(runesB) > longest {
		longest = len(runesB)
	}
	if longest == 0 {
		return 0
	}

	distance := levenshtein.DistanceForStrings(runesA, runesB, levenshtein.DefaultOptions)
	return 1.0 - float64(distance)/float64(longest)
}

func tokenSet(s string) map[string]bool {
	set := make(map[string]bool)
	for _, tok := range strings.Fields(s) {
		set[tok] = true
	}
	return set
}

func totalLength(set map[string]bool) int {
	total := 0
	for tok := range set {
		total += len(tok)
	}
	return total
}
