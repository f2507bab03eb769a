package names

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Ramsey-B/laurel/pkg/models"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"lowercases", "John Smith", "john smith"},
		{"collapses internal whitespace", "John   Smith", "john smith"},
		{"trims", "  John Smith  ", "john smith"},
		{"tabs and newlines", "John\t\nSmith", "john smith"},
		{"empty", "", ""},
		{"whitespace only", "   ", ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, Normalize(tc.input))
		})
	}
}

func TestScorer_Similarity(t *testing.T) {
	scorer := NewScorer(DefaultNicknames())

	t.Run("identical names score 1.0", func(t *testing.T) {
		assert.Equal(t, 1.0, scorer.Similarity("John Smith", "John Smith"))
	})

	t.Run("equal after normalization scores 1.0", func(t *testing.T) {
		assert.Equal(t, 1.0, scorer.Similarity("  JOHN   smith ", "john smith"))
	})

	t.Run("empty input scores 0.0", func(t *testing.T) {
		assert.Equal(t, 0.0, scorer.Similarity("John Smith", ""))
		assert.Equal(t, 0.0, scorer.Similarity("", "John Smith"))
		assert.Equal(t, 0.0, scorer.Similarity("", ""))
	})

	t.Run("substring scores 0.8", func(t *testing.T) {
		assert.Equal(t, 0.8, scorer.Similarity("John Smith", "John Smith Jr"))
		assert.Equal(t, 0.8, scorer.Similarity("ann", "hannah"))
	})

	t.Run("symmetry", func(t *testing.T) {
		pairs := [][2]string{
			{"John Smith", "Jon Smyth"},
			{"Maria Garcia Lopez", "Maria Lopez"},
			{"abc", "xyz"},
		}
		for _, pair := range pairs {
			assert.Equal(t, scorer.Similarity(pair[0], pair[1]), scorer.Similarity(pair[1], pair[0]))
		}
	})

	t.Run("close spellings score high", func(t *testing.T) {
		score := scorer.Similarity("John Smith", "Jhon Smith")
		assert.Greater(t, score, 0.7)
		assert.Less(t, score, 1.0)
	})

	t.Run("token overlap wins for reordered names", func(t *testing.T) {
		// All tokens shared, so the token-overlap ratio dominates
		assert.Equal(t, 1.0, scorer.Similarity("Maria Garcia Lopez", "Lopez Garcia Maria"))
	})

	t.Run("unrelated names score low", func(t *testing.T) {
		assert.Less(t, scorer.Similarity("John Smith", "Wei Zhang"), 0.5)
	})
}

func TestScorer_NicknameMatch(t *testing.T) {
	scorer := NewScorer(Nicknames{
		"John Smith": {"Johnny"},
		"Robert":     {"Bob", "Bobby"},
		"Samuel":     {"Sam"},
		"Samantha":   {"Sam"},
	})

	t.Run("canonical and nickname match at 0.9", func(t *testing.T) {
		match, confidence := scorer.NicknameMatch("John Smith", "Johnny")
		assert.True(t, match)
		assert.Equal(t, 0.9, confidence)
	})

	t.Run("order independent", func(t *testing.T) {
		match, confidence := scorer.NicknameMatch("Johnny", "John Smith")
		assert.True(t, match)
		assert.Equal(t, 0.9, confidence)
	})

	t.Run("case and whitespace normalized", func(t *testing.T) {
		match, confidence := scorer.NicknameMatch("  JOHN  smith ", "johnny")
		assert.True(t, match)
		assert.Equal(t, 0.9, confidence)
	})

	t.Run("two distinct nicknames of the same canonical match at 0.85", func(t *testing.T) {
		match, confidence := scorer.NicknameMatch("Bob", "Bobby")
		assert.True(t, match)
		assert.Equal(t, 0.85, confidence)
	})

	t.Run("shared nickname of different canonicals is not a canonical pair", func(t *testing.T) {
		// Sam shortens both Samuel and Samantha; Samuel/Samantha are unrelated
		match, _ := scorer.NicknameMatch("Samuel", "Samantha")
		assert.False(t, match)
	})

	t.Run("no match for unrelated names", func(t *testing.T) {
		match, confidence := scorer.NicknameMatch("John Smith", "Robert")
		assert.False(t, match)
		assert.Equal(t, 0.0, confidence)
	})

	t.Run("empty input never matches", func(t *testing.T) {
		match, confidence := scorer.NicknameMatch("", "Johnny")
		assert.False(t, match)
		assert.Equal(t, 0.0, confidence)
	})
}

func TestConfidenceBand(t *testing.T) {
	tests := []struct {
		score    float64
		expected models.ConfidenceLevel
	}{
		{1.0, models.ConfidenceHigh},
		{0.9, models.ConfidenceHigh},
		{0.89, models.ConfidenceMedium},
		{0.7, models.ConfidenceMedium},
		{0.69, models.ConfidenceLow},
		{0.5, models.ConfidenceLow},
		{0.49, models.ConfidenceVeryLow},
		{0.0, models.ConfidenceVeryLow},
	}

	for _, tc := range tests {
		assert.Equal(t, tc.expected, ConfidenceBand(tc.score), "score %.2f", tc.score)
	}
}
