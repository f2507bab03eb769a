package detection

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/laurel/pkg/models"
	"github.com/Ramsey-B/laurel/pkg/names"
)

func ptr[T any](v T) *T {
	return &v
}

func newTestDetector() *Detector {
	return NewDetector(names.NewScorer(names.DefaultNicknames()), DefaultThreshold)
}

func TestDetector_FindCandidates(t *testing.T) {
	detector := newTestDetector()

	subject := &models.Client{ID: "new", FirstName: "John", LastName: "Smith"}
	pool := []models.Client{
		{ID: "c1", FirstName: "Wei", LastName: "Zhang"},
		{ID: "c2", FirstName: "John", LastName: "Smith"},
		{ID: "c3", FirstName: "Jhon", LastName: "Smith"},
		{ID: "c4", FirstName: "Alice", LastName: "Brown"},
	}

	matches := detector.FindCandidates(subject, pool)

	t.Run("never returns a match below the threshold", func(t *testing.T) {
		for _, match := range matches {
			assert.GreaterOrEqual(t, match.Score, DefaultThreshold)
		}
	})

	t.Run("sorted by score descending", func(t *testing.T) {
		require.NotEmpty(t, matches)
		for i := 1; i < len(matches); i++ {
			assert.GreaterOrEqual(t, matches[i-1].Score, matches[i].Score)
		}
		assert.Equal(t, "c2", matches[0].Client.ID)
		assert.Equal(t, 1.0, matches[0].Score)
	})

	t.Run("unrelated names are excluded", func(t *testing.T) {
		for _, match := range matches {
			assert.NotEqual(t, "c1", match.Client.ID)
			assert.NotEqual(t, "c4", match.Client.ID)
		}
	})

	t.Run("the subject itself is never a candidate", func(t *testing.T) {
		withSelf := append([]models.Client{{ID: "new", FirstName: "John", LastName: "Smith"}}, pool...)
		for _, match := range detector.FindCandidates(subject, withSelf) {
			assert.NotEqual(t, "new", match.Client.ID)
		}
	})
}

func TestDetector_FindCandidates_NicknamePath(t *testing.T) {
	scorer := names.NewScorer(names.Nicknames{"Robert Miller": {"Bob Miller"}})
	detector := NewDetector(scorer, DefaultThreshold)

	subject := &models.Client{ID: "new", FirstName: "Bob", LastName: "Miller"}
	pool := []models.Client{{ID: "c1", FirstName: "Robert", LastName: "Miller"}}

	matches := detector.FindCandidates(subject, pool)
	require.Len(t, matches, 1)
	assert.Equal(t, models.MatchTypeNickname, matches[0].MatchType)
	assert.Equal(t, 0.9, matches[0].Score)
}

func TestDetector_FindExactMatches(t *testing.T) {
	detector := newTestDetector()
	dob := time.Date(1990, 5, 12, 0, 0, 0, 0, time.UTC)

	t.Run("same normalized email", func(t *testing.T) {
		subject := &models.Client{ID: "new", FirstName: "Jon", LastName: "S", Email: ptr("John.Smith@Example.com ")}
		pool := []models.Client{{ID: "c1", FirstName: "John", LastName: "Smith", Email: ptr("john.smith@example.com")}}

		matches := detector.FindExactMatches(subject, pool)
		require.Len(t, matches, 1)
		assert.Equal(t, models.MatchTypeExactEmail, matches[0].MatchType)
		assert.Equal(t, 1.0, matches[0].Score)
	})

	t.Run("same normalized phone", func(t *testing.T) {
		subject := &models.Client{ID: "new", FirstName: "Jon", LastName: "S", Phone: ptr("(416) 555-0142")}
		pool := []models.Client{{ID: "c1", FirstName: "John", LastName: "Smith", Phone: ptr("4165550142")}}

		matches := detector.FindExactMatches(subject, pool)
		require.Len(t, matches, 1)
		assert.Equal(t, models.MatchTypeExactPhone, matches[0].MatchType)
	})

	t.Run("same name and date of birth", func(t *testing.T) {
		subject := &models.Client{ID: "new", FirstName: "John", LastName: "Smith Jr.", DateOfBirth: &dob}
		pool := []models.Client{{ID: "c1", FirstName: "John", LastName: "Smith", DateOfBirth: &dob}}

		matches := detector.FindExactMatches(subject, pool)
		require.Len(t, matches, 1)
		assert.Equal(t, models.MatchTypeNameDOB, matches[0].MatchType)
	})

	t.Run("no identifiers means no exact matches", func(t *testing.T) {
		subject := &models.Client{ID: "new", FirstName: "John", LastName: "Smith"}
		pool := []models.Client{{ID: "c1", FirstName: "John", LastName: "Smith", Email: ptr("x@example.com")}}

		assert.Empty(t, detector.FindExactMatches(subject, pool))
	})

	t.Run("exact matches always classify high", func(t *testing.T) {
		assert.Equal(t, models.ConfidenceHigh, ConfidenceFor(models.MatchTypeExactEmail, 0.1))
		assert.Equal(t, models.ConfidenceHigh, ConfidenceFor(models.MatchTypeNameDOB, 0.0))
		assert.Equal(t, models.ConfidenceMedium, ConfidenceFor(models.MatchTypeSimilarity, 0.75))
	})
}

func TestDetector_ShouldWarn(t *testing.T) {
	detector := newTestDetector()
	pool := []models.Client{{ID: "c1", FirstName: "John", LastName: "Smith"}}

	t.Run("email present suppresses the warning", func(t *testing.T) {
		subject := &models.Client{ID: "new", FirstName: "John", LastName: "Smith", Email: ptr("john@example.com")}
		assert.False(t, detector.ShouldWarn(subject, pool))
	})

	t.Run("phone present suppresses the warning", func(t *testing.T) {
		subject := &models.Client{ID: "new", FirstName: "John", LastName: "Smith", Phone: ptr("416-555-0142")}
		assert.False(t, detector.ShouldWarn(subject, pool))
	})

	t.Run("warns when a fuzzy candidate clears the threshold", func(t *testing.T) {
		subject := &models.Client{ID: "new", FirstName: "John", LastName: "Smith"}
		assert.True(t, detector.ShouldWarn(subject, pool))
	})

	t.Run("no warning when nothing scores above the threshold", func(t *testing.T) {
		subject := &models.Client{ID: "new", FirstName: "Wei", LastName: "Zhang"}
		assert.False(t, detector.ShouldWarn(subject, pool))
	})

	t.Run("empty identifier strings do not suppress", func(t *testing.T) {
		subject := &models.Client{ID: "new", FirstName: "John", LastName: "Smith", Email: ptr("  "), Phone: ptr("n/a")}
		assert.True(t, detector.ShouldWarn(subject, pool))
	})
}
