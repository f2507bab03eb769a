package integration

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/laurel/pkg/logging"
	"github.com/Ramsey-B/laurel/pkg/merging"
	"github.com/Ramsey-B/laurel/pkg/models"
	"github.com/Ramsey-B/laurel/pkg/review"
)

func newWorkflow(tc *testContext) (*review.Workflow, *merging.Engine) {
	logger := logging.NewNop()
	engine := merging.NewEngine(logger, tc.db, tc.clientRepo, tc.candidateRepo, tc.enrollmentRepo, tc.dependentsRepo, tc.auditor, nil)
	return review.NewWorkflow(logger, tc.candidateRepo, tc.clientRepo, engine, tc.auditor, nil), engine
}

func TestDetectReviewMergeFlow(t *testing.T) {
	tc := setupTestContext(t)
	workflow, _ := newWorkflow(tc)

	email := uniqueEmail()
	dob := datePtr(1990, time.March, 12)

	primary := tc.createClient(t, "Jonathan", "Whitfield", func(c *models.Client) {
		c.Email = email
		c.DateOfBirth = dob
		c.ClientID = ptr("SMIS-7001")
		c.Source = models.SourceSMIS
	})
	duplicate := tc.createClient(t, "Jon", "Whitfield", func(c *models.Client) {
		c.Email = email
		c.Phone = ptr("416-555-0188")
		c.ClientID = ptr("EMH-4410")
		c.Source = models.SourceEMHware
	})

	created, err := tc.detection.DetectAndPersist(tc.ctx, duplicate.ID, models.DetectionSourceScan)
	require.NoError(t, err)
	require.GreaterOrEqual(t, created, 1)

	candidate, err := tc.candidateRepo.GetByPair(tc.ctx, primary.ID, duplicate.ID)
	require.NoError(t, err)
	require.NotNil(t, candidate)
	assert.Equal(t, models.MatchTypeExactEmail, candidate.MatchType)
	assert.Equal(t, models.ConfidenceHigh, candidate.ConfidenceLevel)
	assert.Equal(t, models.CandidateStatusPending, candidate.Status)

	t.Run("re-running detection is idempotent", func(t *testing.T) {
		again, err := tc.detection.DetectAndPersist(tc.ctx, duplicate.ID, models.DetectionSourceScan)
		require.NoError(t, err)
		assert.Zero(t, again)
	})

	t.Run("confirm and merge", func(t *testing.T) {
		confirmed, err := workflow.MarkDuplicate(tc.ctx, candidate.ID, "reviewer-a", "same person, intake typo")
		require.NoError(t, err)
		assert.Equal(t, models.CandidateStatusConfirmed, confirmed.Status)

		enrollment := tc.createEnrollment(t, duplicate.ID, primary.ID, date(2024, time.January, 1), nil)

		merged, err := workflow.Merge(tc.ctx, candidate.ID, map[string]models.FieldSelection{
			"phone": {Source: models.MergeSourceDuplicate},
		}, "reviewer-a", "")
		require.NoError(t, err)

		assert.Equal(t, primary.ID, merged.ID)
		require.NotNil(t, merged.Phone)
		assert.Equal(t, "416-555-0188", *merged.Phone)
		assert.True(t, merged.HasLegacyID(string(models.SourceSMIS), "SMIS-7001"))
		assert.True(t, merged.HasLegacyID(string(models.SourceEMHware), "EMH-4410"))
		require.NotNil(t, merged.SecondarySourceID)
		assert.Equal(t, "EMH-4410", *merged.SecondarySourceID)

		// Duplicate row is gone
		_, err = tc.clientRepo.Get(tc.ctx, duplicate.ID)
		require.Error(t, err)

		// Dependent rows now belong to the survivor
		moved, err := tc.enrollmentRepo.ListByClient(tc.ctx, primary.ID)
		require.NoError(t, err)
		found := false
		for _, e := range moved {
			if e.ID == enrollment.ID {
				found = true
			}
		}
		assert.True(t, found)

		// Candidate rows referencing either side are purged
		remaining, err := tc.candidateRepo.ListByClient(tc.ctx, primary.ID, "")
		require.NoError(t, err)
		assert.Empty(t, remaining)
	})
}

func TestNotDuplicateSuppressionIsPermanent(t *testing.T) {
	tc := setupTestContext(t)
	workflow, _ := newWorkflow(tc)

	email := uniqueEmail()
	a := tc.createClient(t, "Maria", "Sandoval", func(c *models.Client) { c.Email = email })
	b := tc.createClient(t, "Maria", "Sandoval", func(c *models.Client) { c.Email = email })

	created, err := tc.detection.DetectAndPersist(tc.ctx, b.ID, models.DetectionSourceScan)
	require.NoError(t, err)
	require.GreaterOrEqual(t, created, 1)

	candidate, err := tc.candidateRepo.GetByPair(tc.ctx, a.ID, b.ID)
	require.NoError(t, err)
	require.NotNil(t, candidate)

	dismissed, err := workflow.MarkNotDuplicate(tc.ctx, candidate.ID, "reviewer-b", "siblings")
	require.NoError(t, err)
	assert.Equal(t, models.CandidateStatusNotDuplicate, dismissed.Status)

	t.Run("detection never resurrects the pair", func(t *testing.T) {
		again, err := tc.detection.DetectAndPersist(tc.ctx, b.ID, models.DetectionSourceScan)
		require.NoError(t, err)
		assert.Zero(t, again)

		current, err := tc.candidateRepo.GetByPair(tc.ctx, a.ID, b.ID)
		require.NoError(t, err)
		require.NotNil(t, current)
		assert.Equal(t, models.CandidateStatusNotDuplicate, current.Status)
	})

	t.Run("review transitions require pending status", func(t *testing.T) {
		_, err := workflow.MarkDuplicate(tc.ctx, candidate.ID, "reviewer-b", "")
		var transition *models.InvalidTransitionError
		require.ErrorAs(t, err, &transition)
	})
}

func TestMergeRollsBackAsAUnit(t *testing.T) {
	tc := setupTestContext(t)
	_, engine := newWorkflow(tc)

	a := tc.createClient(t, "Devin", "Okafor", nil)
	b := tc.createClient(t, "Devin", "Okafor", nil)

	// Deleting the duplicate concurrently makes the merge observe a missing
	// row under lock and bail with no writes.
	require.NoError(t, tc.clientRepo.Delete(tc.ctx, b.ID))

	_, err := engine.Merge(tc.ctx, a.ID, b.ID, nil, "reviewer-c", "")
	require.ErrorIs(t, err, models.ErrStaleCandidate)

	survivor, err := tc.clientRepo.Get(tc.ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "Devin", survivor.FirstName)
	assert.Nil(t, survivor.SecondarySourceID)
}

func ptr[T any](v T) *T {
	return &v
}
