package candidate

import (
	"errors"
	"net/http"
	"testing"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/stretchr/testify/assert"

	"github.com/Ramsey-B/laurel/pkg/models"
)

func TestMapReviewError(t *testing.T) {
	t.Run("invalid transition is a conflict", func(t *testing.T) {
		err := mapReviewError(&models.InvalidTransitionError{From: models.CandidateStatusNotDuplicate, Action: "merge"})
		assert.True(t, httperror.IsHTTPError(err))
		assert.Equal(t, http.StatusConflict, httperror.GetStatusCode(err))
	})

	t.Run("stale candidate is a conflict", func(t *testing.T) {
		err := mapReviewError(models.ErrStaleCandidate)
		assert.True(t, httperror.IsHTTPError(err))
		assert.Equal(t, http.StatusConflict, httperror.GetStatusCode(err))
	})

	t.Run("unknown merge field is a bad request", func(t *testing.T) {
		err := mapReviewError(&models.UnknownMergeFieldError{Field: "shoe_size"})
		assert.True(t, httperror.IsHTTPError(err))
		assert.Equal(t, http.StatusBadRequest, httperror.GetStatusCode(err))
	})

	t.Run("invalid merge source is a bad request", func(t *testing.T) {
		err := mapReviewError(&models.InvalidMergeSourceError{Field: "first_name", Source: "somewhere"})
		assert.True(t, httperror.IsHTTPError(err))
		assert.Equal(t, http.StatusBadRequest, httperror.GetStatusCode(err))
	})

	t.Run("other errors pass through", func(t *testing.T) {
		cause := errors.New("connection reset")
		assert.Equal(t, cause, mapReviewError(cause))
	})
}
