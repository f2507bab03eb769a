// Package names scores free-text name similarity for duplicate detection.
package names

import (
	"strings"

	"github.com/Ramsey-B/laurel/pkg/models"
)

const (
	// scoreNicknameDirect is the confidence when one side is a canonical name
	// and the other one of its nicknames
	scoreNicknameDirect = 0.9
	// scoreNicknameShared is the confidence when both sides are distinct
	// nicknames of the same canonical name
	scoreNicknameShared = 0.85
	// scoreSubstring is the score when one normalized name contains the other
	scoreSubstring = 0.8
)

// Scorer compares names using edit-distance and token-overlap heuristics plus
// a nickname-equivalence dictionary. The dictionary is loaded once at startup
// and never mutated, so a Scorer is safe for concurrent use.
type Scorer struct {
	// canonicals maps a normalized canonical name to its normalized variants
	canonicals map[string]map[string]bool
	// variantOf maps a normalized nickname to the canonical names it shortens
	variantOf map[string]map[string]bool
}

// NewScorer builds a Scorer from a nickname dictionary
func NewScorer(nicknames Nicknames) *Scorer {
	s := &Scorer{
		canonicals: make(map[string]map[string]bool),
		variantOf:  make(map[string]map[string]bool),
	}
	for canonical, variants := range nicknames {
		normCanonical := Normalize(canonical)
		if normCanonical == "" {
			continue
		}
		set := make(map[string]bool, len(variants))
		for _, variant := range variants {
			normVariant := Normalize(variant)
			if normVariant == "" {
				continue
			}
			set[normVariant] = true
			if s.variantOf[normVariant] == nil {
				s.variantOf[normVariant] = make(map[string]bool)
			}
			s.variantOf[normVariant][normCanonical] = true
		}
		s.canonicals[normCanonical] = set
	}
	return s
}

// Normalize lower-cases a name, collapses internal whitespace, and trims.
// Empty or whitespace-only input normalizes to the empty string.
func Normalize(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), " ")
}

// Similarity returns a score in [0, 1] for two names. Equal normalized forms
// score 1.0; a substring relationship scores 0.8; otherwise the max of the
// edit-distance ratio and the token-overlap ratio. Empty input scores 0.0.
func (s *Scorer) Similarity(a, b string) float64 {
	normA := Normalize(a)
	normB := Normalize(b)

	if normA == "" || normB == "" {
		return 0.0
	}
	if normA == normB {
		return 1.0
	}
	if strings.Contains(normA, normB) || strings.Contains(normB, normA) {
		return scoreSubstring
	}

	editRatio := levenshteinRatio(normA, normB)
	tokenRatio := tokenOverlap(normA, normB)
	if tokenRatio > editRatio {
		return tokenRatio
	}
	return editRatio
}

// NicknameMatch reports whether two names are nickname-equivalent. A
// canonical/nickname pairing scores 0.9 regardless of order; two distinct
// nicknames of the same canonical name score 0.85.
func (s *Scorer) NicknameMatch(a, b string) (bool, float64) {
	normA := Normalize(a)
	normB := Normalize(b)
	if normA == "" || normB == "" {
		return false, 0.0
	}

	if variants, ok := s.canonicals[normA]; ok && variants[normB] {
		return true, scoreNicknameDirect
	}
	if variants, ok := s.canonicals[normB]; ok && variants[normA] {
		return true, scoreNicknameDirect
	}

	if normA != normB {
		for canonical := range s.variantOf[normA] {
			if s.variantOf[normB][canonical] {
				return true, scoreNicknameShared
			}
		}
	}

	return false, 0.0
}

// ConfidenceBand classifies a similarity score
func ConfidenceBand(score float64) models.ConfidenceLevel {
	switch {
	case score >= 0.9:
		return models.ConfidenceHigh
	case score >= 0.7:
		return models.ConfidenceMedium
	case score >= 0.5:
		return models.ConfidenceLow
	default:
		return models.ConfidenceVeryLow
	}
}

// levenshteinRatio converts edit distance over the two strings into a
// similarity ratio in [0, 1]
func levenshteinRatio(a, b string) float64 {
	maxLen := max(len(a), len(b))
	if maxLen == 0 {
		return 1.0
	}
	return 1.0 - float64(levenshteinDistance(a, b))/float64(maxLen)
}

func levenshteinDistance(a, b string) int {
	if a == b {
		return 0
	}
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	row := make([]int, len(b)+1)
	prevRow := make([]int, len(b)+1)

	for j := 0; j <= len(b); j++ {
		prevRow[j] = j
	}

	for i := 1; i <= len(a); i++ {
		row[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 0
			if a[i-1] != b[j-1] {
				cost = 1
			}
			row[j] = min(min(row[j-1]+1, prevRow[j]+1), prevRow[j-1]+cost)
		}
		row, prevRow = prevRow, row
	}

	return prevRow[len(b)]
}

// tokenOverlap is |common words| / |union of words| over the normalized forms
func tokenOverlap(a, b string) float64 {
	tokensA := strings.Fields(a)
	tokensB := strings.Fields(b)
	if len(tokensA) == 0 || len(tokensB) == 0 {
		return 0.0
	}

	setA := make(map[string]bool, len(tokensA))
	for _, token := range tokensA {
		setA[token] = true
	}

	union := make(map[string]bool, len(tokensA)+len(tokensB))
	for token := range setA {
		union[token] = true
	}

	common := 0
	seen := make(map[string]bool, len(tokensB))
	for _, token := range tokensB {
		if seen[token] {
			continue
		}
		seen[token] = true
		union[token] = true
		if setA[token] {
			common++
		}
	}

	return float64(common) / float64(len(union))
}
