package enrollment

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/laurel/pkg/models"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func datePtr(y int, m time.Month, d int) *time.Time {
	t := date(y, m, d)
	return &t
}

func TestPolicy_RangesOverlapOrAdjacent(t *testing.T) {
	policy := NewPolicy(DefaultAdjacencyGapDays)

	tests := []struct {
		name     string
		startA   time.Time
		endA     *time.Time
		startB   time.Time
		endB     *time.Time
		expected bool
	}{
		{
			name:   "overlapping closed ranges",
			startA: date(2024, 1, 1), endA: datePtr(2024, 3, 1),
			startB: date(2024, 2, 15), endB: datePtr(2024, 4, 1),
			expected: true,
		},
		{
			name:   "disjoint closed ranges",
			startA: date(2024, 1, 1), endA: datePtr(2024, 1, 10),
			startB: date(2024, 2, 1), endB: datePtr(2024, 2, 10),
			expected: false,
		},
		{
			name:   "adjacent with one day gap",
			startA: date(2024, 1, 1), endA: datePtr(2024, 1, 10),
			startB: date(2024, 1, 11), endB: datePtr(2024, 2, 1),
			expected: true,
		},
		{
			name:   "three day gap is not adjacent",
			startA: date(2024, 1, 1), endA: datePtr(2024, 1, 10),
			startB: date(2024, 1, 13), endB: datePtr(2024, 2, 1),
			expected: false,
		},
		{
			name:   "adjacency works in either order",
			startA: date(2024, 1, 11), endA: datePtr(2024, 2, 1),
			startB: date(2024, 1, 1), endB: datePtr(2024, 1, 10),
			expected: true,
		},
		{
			name:   "both open ended",
			startA: date(2024, 1, 1), endA: nil,
			startB: date(2024, 6, 1), endB: nil,
			expected: true,
		},
		{
			name:   "open range absorbs later closed range",
			startA: date(2024, 1, 1), endA: nil,
			startB: date(2024, 6, 1), endB: datePtr(2024, 7, 1),
			expected: true,
		},
		{
			name:   "open range overlaps closed range ending after open start",
			startA: date(2024, 6, 1), endA: nil,
			startB: date(2024, 5, 1), endB: datePtr(2024, 6, 15),
			expected: true,
		},
		{
			name:   "closed range entirely before open start",
			startA: date(2024, 6, 1), endA: nil,
			startB: date(2024, 1, 1), endB: datePtr(2024, 2, 1),
			expected: false,
		},
		{
			name:   "identical single day ranges",
			startA: date(2024, 1, 1), endA: datePtr(2024, 1, 1),
			startB: date(2024, 1, 1), endB: datePtr(2024, 1, 1),
			expected: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, policy.RangesOverlapOrAdjacent(tc.startA, tc.endA, tc.startB, tc.endB))
		})
	}
}

func TestPolicy_ConfigurableGap(t *testing.T) {
	policy := NewPolicy(3)

	endA := datePtr(2024, 1, 10)
	assert.True(t, policy.RangesOverlapOrAdjacent(date(2024, 1, 1), endA, date(2024, 1, 13), datePtr(2024, 2, 1)))
	assert.False(t, policy.RangesOverlapOrAdjacent(date(2024, 1, 1), endA, date(2024, 1, 14), datePtr(2024, 2, 1)))

	t.Run("gap below one falls back to the default", func(t *testing.T) {
		assert.Equal(t, DefaultAdjacencyGapDays, NewPolicy(0).AdjacencyGapDays)
		assert.Equal(t, DefaultAdjacencyGapDays, NewPolicy(-5).AdjacencyGapDays)
	})
}

func TestPolicy_GroupOverlapping(t *testing.T) {
	policy := NewPolicy(DefaultAdjacencyGapDays)

	t.Run("overlapping pair forms one cluster", func(t *testing.T) {
		enrollments := []models.ClientProgramEnrollment{
			{ID: "a", StartDate: date(2024, 1, 1), EndDate: datePtr(2024, 3, 1)},
			{ID: "b", StartDate: date(2024, 2, 15), EndDate: datePtr(2024, 4, 1)},
		}

		clusters := policy.GroupOverlapping(enrollments)
		require.Len(t, clusters, 1)
		assert.Len(t, clusters[0], 2)
	})

	t.Run("chained ranges cluster transitively", func(t *testing.T) {
		// a-b overlap, b-c adjacent; a and c only connect through b
		enrollments := []models.ClientProgramEnrollment{
			{ID: "c", StartDate: date(2024, 3, 2), EndDate: datePtr(2024, 4, 1)},
			{ID: "a", StartDate: date(2024, 1, 1), EndDate: datePtr(2024, 2, 1)},
			{ID: "b", StartDate: date(2024, 1, 15), EndDate: datePtr(2024, 3, 1)},
		}

		clusters := policy.GroupOverlapping(enrollments)
		require.Len(t, clusters, 1)
		assert.Len(t, clusters[0], 3)
	})

	t.Run("disjoint groups cluster separately", func(t *testing.T) {
		enrollments := []models.ClientProgramEnrollment{
			{ID: "a", StartDate: date(2024, 1, 1), EndDate: datePtr(2024, 1, 10)},
			{ID: "b", StartDate: date(2024, 1, 5), EndDate: datePtr(2024, 1, 20)},
			{ID: "c", StartDate: date(2024, 6, 1), EndDate: datePtr(2024, 6, 10)},
			{ID: "d", StartDate: date(2024, 6, 8), EndDate: datePtr(2024, 6, 20)},
		}

		clusters := policy.GroupOverlapping(enrollments)
		require.Len(t, clusters, 2)
	})

	t.Run("singletons are not returned", func(t *testing.T) {
		enrollments := []models.ClientProgramEnrollment{
			{ID: "a", StartDate: date(2024, 1, 1), EndDate: datePtr(2024, 1, 10)},
			{ID: "b", StartDate: date(2024, 6, 1), EndDate: datePtr(2024, 6, 10)},
		}

		assert.Empty(t, policy.GroupOverlapping(enrollments))
	})

	t.Run("fewer than two enrollments never cluster", func(t *testing.T) {
		assert.Nil(t, policy.GroupOverlapping(nil))
		assert.Nil(t, policy.GroupOverlapping([]models.ClientProgramEnrollment{{ID: "a", StartDate: date(2024, 1, 1)}}))
	})
}
