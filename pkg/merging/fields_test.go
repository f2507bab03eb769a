package merging

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/laurel/pkg/database"
	"github.com/Ramsey-B/laurel/pkg/models"
)

func ptr[T any](v T) *T {
	return &v
}

func TestApplyFieldSelections(t *testing.T) {
	dob := time.Date(1985, 3, 2, 0, 0, 0, 0, time.UTC)

	t.Run("copies selected duplicate values", func(t *testing.T) {
		primary := &models.Client{FirstName: "Jon", LastName: "Smith", Email: ptr("old@example.com")}
		duplicate := &models.Client{FirstName: "John", LastName: "Smyth", Email: ptr("new@example.com"), DateOfBirth: &dob}

		err := ApplyFieldSelections(primary, duplicate, map[string]models.FieldSelection{
			"first_name":    {Source: models.MergeSourceDuplicate},
			"email":         {Source: models.MergeSourceDuplicate},
			"date_of_birth": {Source: models.MergeSourceDuplicate},
		})
		require.NoError(t, err)

		assert.Equal(t, "John", primary.FirstName)
		assert.Equal(t, "new@example.com", *primary.Email)
		assert.Equal(t, dob, *primary.DateOfBirth)
		// Unselected field keeps the primary's value
		assert.Equal(t, "Smith", primary.LastName)
	})

	t.Run("primary selection keeps the primary value", func(t *testing.T) {
		primary := &models.Client{FirstName: "Jon"}
		duplicate := &models.Client{FirstName: "John"}

		err := ApplyFieldSelections(primary, duplicate, map[string]models.FieldSelection{
			"first_name": {Source: models.MergeSourcePrimary},
		})
		require.NoError(t, err)
		assert.Equal(t, "Jon", primary.FirstName)
	})

	t.Run("never overwrites with an empty duplicate value", func(t *testing.T) {
		primary := &models.Client{FirstName: "Jon", Email: ptr("keep@example.com"), Phone: ptr("4165550142")}
		duplicate := &models.Client{FirstName: "", Email: ptr(""), Phone: nil}

		err := ApplyFieldSelections(primary, duplicate, map[string]models.FieldSelection{
			"first_name": {Source: models.MergeSourceDuplicate},
			"email":      {Source: models.MergeSourceDuplicate},
			"phone":      {Source: models.MergeSourceDuplicate},
		})
		require.NoError(t, err)

		assert.Equal(t, "Jon", primary.FirstName)
		assert.Equal(t, "keep@example.com", *primary.Email)
		assert.Equal(t, "4165550142", *primary.Phone)
	})

	t.Run("rejects unknown field names", func(t *testing.T) {
		primary := &models.Client{}
		duplicate := &models.Client{}

		err := ApplyFieldSelections(primary, duplicate, map[string]models.FieldSelection{
			"shoe_size": {Source: models.MergeSourceDuplicate},
		})

		var unknownErr *models.UnknownMergeFieldError
		require.ErrorAs(t, err, &unknownErr)
		assert.Equal(t, "shoe_size", unknownErr.Field)
	})

	t.Run("rejects invalid sources", func(t *testing.T) {
		err := ApplyFieldSelections(&models.Client{}, &models.Client{}, map[string]models.FieldSelection{
			"first_name": {Source: "somewhere"},
		})

		var sourceErr *models.InvalidMergeSourceError
		require.ErrorAs(t, err, &sourceErr)
		assert.Equal(t, "first_name", sourceErr.Field)
		assert.Equal(t, models.MergeFieldSource("somewhere"), sourceErr.Source)
	})
}

func TestConsolidateLegacyIDs(t *testing.T) {
	t.Run("appends both external identifiers in order", func(t *testing.T) {
		primary := &models.Client{ClientID: ptr("SMIMS_123"), Source: models.SourceSMIS}
		duplicate := &models.Client{ClientID: ptr("EMH_456"), Source: models.SourceEMHware}

		ConsolidateLegacyIDs(primary, duplicate)

		assert.Equal(t, []models.LegacyClientID{
			{Source: "SMIS", ClientID: "SMIMS_123"},
			{Source: "EMHware", ClientID: "EMH_456"},
		}, primary.LegacyClientIDs.GetValue())
		assert.Equal(t, "EMH_456", *primary.SecondarySourceID)
	})

	t.Run("idempotent on already present pairs", func(t *testing.T) {
		primary := &models.Client{
			ClientID: ptr("SMIMS_123"),
			Source:   models.SourceSMIS,
			LegacyClientIDs: database.NewJSONB([]models.LegacyClientID{
				{Source: "SMIS", ClientID: "SMIMS_123"},
				{Source: "EMHware", ClientID: "EMH_456"},
			}),
		}
		duplicate := &models.Client{ClientID: ptr("EMH_456"), Source: models.SourceEMHware}

		ConsolidateLegacyIDs(primary, duplicate)

		assert.Len(t, primary.LegacyClientIDs.GetValue(), 2)
	})

	t.Run("existing entries are preserved ahead of new ones", func(t *testing.T) {
		primary := &models.Client{
			ClientID: ptr("SMIMS_123"),
			Source:   models.SourceSMIS,
			LegacyClientIDs: database.NewJSONB([]models.LegacyClientID{
				{Source: "EMHware", ClientID: "EMH_001"},
			}),
		}
		duplicate := &models.Client{ClientID: ptr("EMH_456"), Source: models.SourceEMHware}

		ConsolidateLegacyIDs(primary, duplicate)

		assert.Equal(t, []models.LegacyClientID{
			{Source: "EMHware", ClientID: "EMH_001"},
			{Source: "SMIS", ClientID: "SMIMS_123"},
			{Source: "EMHware", ClientID: "EMH_456"},
		}, primary.LegacyClientIDs.GetValue())
	})

	t.Run("secondary source id set even without a duplicate source", func(t *testing.T) {
		primary := &models.Client{}
		duplicate := &models.Client{ClientID: ptr("EXT_9")}

		ConsolidateLegacyIDs(primary, duplicate)

		assert.Empty(t, primary.LegacyClientIDs.GetValue())
		assert.Equal(t, "EXT_9", *primary.SecondarySourceID)
	})

	t.Run("no identifiers is a no-op", func(t *testing.T) {
		primary := &models.Client{}
		duplicate := &models.Client{}

		ConsolidateLegacyIDs(primary, duplicate)

		assert.Empty(t, primary.LegacyClientIDs.GetValue())
		assert.Nil(t, primary.SecondarySourceID)
	})
}
