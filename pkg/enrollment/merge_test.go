package enrollment

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/laurel/pkg/models"
)

func TestMergeCluster(t *testing.T) {
	t.Run("merged range spans earliest start to latest end", func(t *testing.T) {
		cluster := []models.ClientProgramEnrollment{
			{ID: "a", StartDate: date(2024, 1, 1), EndDate: datePtr(2024, 3, 1)},
			{ID: "b", StartDate: date(2024, 2, 15), EndDate: datePtr(2024, 4, 1)},
		}

		result, err := MergeCluster(cluster, "reconciler")
		require.NoError(t, err)

		assert.Equal(t, "a", result.Base.ID)
		assert.Equal(t, date(2024, 1, 1), result.Base.StartDate)
		assert.Equal(t, date(2024, 4, 1), *result.Base.EndDate)
		assert.Equal(t, []string{"b"}, result.ArchivedIDs)
		assert.False(t, result.Clamped)
		assert.Equal(t, "reconciler", *result.Base.UpdatedBy)
	})

	t.Run("base is the first non-archived member", func(t *testing.T) {
		cluster := []models.ClientProgramEnrollment{
			{ID: "a", StartDate: date(2024, 1, 1), EndDate: datePtr(2024, 2, 1), IsArchived: true},
			{ID: "b", StartDate: date(2024, 1, 15), EndDate: datePtr(2024, 3, 1)},
			{ID: "c", StartDate: date(2024, 2, 20), EndDate: datePtr(2024, 4, 1)},
		}

		result, err := MergeCluster(cluster, "reconciler")
		require.NoError(t, err)

		assert.Equal(t, "b", result.Base.ID)
		assert.False(t, result.Base.IsArchived)
		assert.ElementsMatch(t, []string{"a", "c"}, result.ArchivedIDs)
	})

	t.Run("falls back to the first member when all are archived", func(t *testing.T) {
		cluster := []models.ClientProgramEnrollment{
			{ID: "a", StartDate: date(2024, 1, 1), EndDate: datePtr(2024, 2, 1), IsArchived: true},
			{ID: "b", StartDate: date(2024, 1, 15), EndDate: datePtr(2024, 3, 1), IsArchived: true},
		}

		result, err := MergeCluster(cluster, "reconciler")
		require.NoError(t, err)
		assert.Equal(t, "a", result.Base.ID)
		assert.False(t, result.Base.IsArchived)
	})

	t.Run("stays open ended when no member has an end date", func(t *testing.T) {
		cluster := []models.ClientProgramEnrollment{
			{ID: "a", StartDate: date(2024, 1, 1)},
			{ID: "b", StartDate: date(2024, 2, 1)},
		}

		result, err := MergeCluster(cluster, "reconciler")
		require.NoError(t, err)
		assert.Nil(t, result.Base.EndDate)
		assert.NotContains(t, result.Base.Notes, "Discharge Date:")
	})

	t.Run("clamps an end date before the start instead of failing", func(t *testing.T) {
		// Archived base carries a start after the only end date in the cluster
		cluster := []models.ClientProgramEnrollment{
			{ID: "a", StartDate: date(2024, 5, 1), IsArchived: true},
			{ID: "b", StartDate: date(2024, 6, 1), EndDate: datePtr(2024, 3, 1), IsArchived: true},
		}

		result, err := MergeCluster(cluster, "reconciler")
		require.NoError(t, err)
		assert.True(t, result.Clamped)
		assert.Equal(t, result.Base.StartDate, *result.Base.EndDate)
	})

	t.Run("rejects clusters smaller than two", func(t *testing.T) {
		_, err := MergeCluster([]models.ClientProgramEnrollment{{ID: "a"}}, "reconciler")
		assert.Error(t, err)
	})
}

func TestMergeCluster_Notes(t *testing.T) {
	t.Run("discharge line with collected reasons", func(t *testing.T) {
		cluster := []models.ClientProgramEnrollment{
			{ID: "a", StartDate: date(2024, 1, 1), EndDate: datePtr(2024, 3, 1), Notes: "Initial intake"},
			{ID: "b", StartDate: date(2024, 2, 15), EndDate: datePtr(2024, 4, 1), Notes: "Discharge Date: 2024-04-01 | Reason: Housing found"},
		}

		result, err := MergeCluster(cluster, "reconciler")
		require.NoError(t, err)

		assert.Contains(t, result.Base.Notes, "Initial intake")
		assert.Contains(t, result.Base.Notes, "Discharge Date: 2024-04-01 | Reason: Housing found")
	})

	t.Run("distinct reasons are comma joined", func(t *testing.T) {
		cluster := []models.ClientProgramEnrollment{
			{ID: "a", StartDate: date(2024, 1, 1), EndDate: datePtr(2024, 3, 1), Notes: "Reason: Housing found|"},
			{ID: "b", StartDate: date(2024, 2, 15), EndDate: datePtr(2024, 4, 1), Notes: "Reason: Program completed|"},
			{ID: "c", StartDate: date(2024, 3, 15), EndDate: datePtr(2024, 4, 15), Notes: "Reason: Housing found|"},
		}

		result, err := MergeCluster(cluster, "reconciler")
		require.NoError(t, err)
		assert.Contains(t, result.Base.Notes, "Reason: Housing found, Program completed")
	})

	t.Run("base notes with a discharge marker are replaced", func(t *testing.T) {
		cluster := []models.ClientProgramEnrollment{
			{ID: "a", StartDate: date(2024, 1, 1), EndDate: datePtr(2024, 3, 1), Notes: "Discharge Date: 2024-03-01 | Reason: Old"},
			{ID: "b", StartDate: date(2024, 2, 15), EndDate: datePtr(2024, 4, 1)},
		}

		result, err := MergeCluster(cluster, "reconciler")
		require.NoError(t, err)

		assert.NotContains(t, result.Base.Notes, "2024-03-01")
		assert.Contains(t, result.Base.Notes, "Discharge Date: 2024-04-01")
	})

	t.Run("other members' notes carry the merged prefix without duplicates", func(t *testing.T) {
		cluster := []models.ClientProgramEnrollment{
			{ID: "a", StartDate: date(2024, 1, 1), EndDate: datePtr(2024, 3, 1), Notes: "Initial intake"},
			{ID: "b", StartDate: date(2024, 2, 1), EndDate: datePtr(2024, 3, 15), Notes: "Transferred from shelter"},
			{ID: "c", StartDate: date(2024, 3, 1), EndDate: datePtr(2024, 4, 1), Notes: "Transferred from shelter"},
		}

		result, err := MergeCluster(cluster, "reconciler")
		require.NoError(t, err)

		assert.Contains(t, result.Base.Notes, "Merged: Transferred from shelter")
		assert.Equal(t, 1, strings.Count(result.Base.Notes, "Merged: Transferred from shelter"))
	})
}

func TestAnyCurrent(t *testing.T) {
	now := time.Now().UTC()

	t.Run("open ended enrollment started in the past is current", func(t *testing.T) {
		enrollments := []models.ClientProgramEnrollment{{StartDate: now.AddDate(0, -1, 0)}}
		assert.True(t, anyCurrent(enrollments, now))
	})

	t.Run("closed enrollment that ended is not current", func(t *testing.T) {
		end := now.AddDate(0, -1, 0)
		enrollments := []models.ClientProgramEnrollment{{StartDate: now.AddDate(0, -2, 0), EndDate: &end}}
		assert.False(t, anyCurrent(enrollments, now))
	})

	t.Run("archived enrollments never count", func(t *testing.T) {
		enrollments := []models.ClientProgramEnrollment{{StartDate: now.AddDate(0, -1, 0), IsArchived: true}}
		assert.False(t, anyCurrent(enrollments, now))
	})
}
