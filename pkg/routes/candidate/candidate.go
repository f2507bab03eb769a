package candidate

import (
	"context"
	"errors"
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/labstack/echo/v4"

	appctx "github.com/Ramsey-B/laurel/pkg/context"
	"github.com/Ramsey-B/laurel/pkg/models"
	"github.com/Ramsey-B/laurel/pkg/review"
)

// Handler handles duplicate candidate review API requests
type Handler struct {
	logger   ectologger.Logger
	workflow *review.Workflow
}

// NewHandler creates a new candidate handler
func NewHandler(logger ectologger.Logger, workflow *review.Workflow) *Handler {
	return &Handler{
		logger:   logger,
		workflow: workflow,
	}
}

// RegisterRoutes registers the candidate review routes
func (h *Handler) RegisterRoutes(g *echo.Group) {
	candidates := g.Group("/duplicate-candidates")
	candidates.GET("/:id/group", h.GetGroup)
	candidates.POST("/:id/mark-duplicate", h.MarkDuplicate)
	candidates.POST("/:id/mark-not-duplicate", h.MarkNotDuplicate)
	candidates.POST("/:id/merge", h.Merge)
}

// GetGroup handles GET /duplicate-candidates/:id/group
func (h *Handler) GetGroup(c echo.Context) error {
	ctx := c.Request().Context()

	id := c.Param("id")
	if id == "" {
		return httperror.NewHTTPError(http.StatusBadRequest, "missing id")
	}

	group, err := h.workflow.GetDuplicateGroup(ctx, id)
	if err != nil {
		return mapReviewError(err)
	}

	return c.JSON(http.StatusOK, group)
}

// MarkDuplicate handles POST /duplicate-candidates/:id/mark-duplicate
func (h *Handler) MarkDuplicate(c echo.Context) error {
	return h.review(c, h.workflow.MarkDuplicate)
}

// MarkNotDuplicate handles POST /duplicate-candidates/:id/mark-not-duplicate.
// The suppression is permanent: the pair is never re-proposed by detection.
func (h *Handler) MarkNotDuplicate(c echo.Context) error {
	return h.review(c, h.workflow.MarkNotDuplicate)
}

// Merge handles POST /duplicate-candidates/:id/merge
func (h *Handler) Merge(c echo.Context) error {
	ctx := c.Request().Context()

	id := c.Param("id")
	if id == "" {
		return httperror.NewHTTPError(http.StatusBadRequest, "missing id")
	}

	reviewer, err := requireReviewer(c)
	if err != nil {
		return err
	}

	var req models.MergeRequest
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	merged, err := h.workflow.Merge(ctx, id, req.FieldSelections, reviewer, req.Notes)
	if err != nil {
		return mapReviewError(err)
	}

	return c.JSON(http.StatusOK, merged)
}

func (h *Handler) review(c echo.Context, transition func(ctx context.Context, candidateID, reviewer, notes string) (*models.ClientDuplicateCandidate, error)) error {
	ctx := c.Request().Context()

	id := c.Param("id")
	if id == "" {
		return httperror.NewHTTPError(http.StatusBadRequest, "missing id")
	}

	reviewer, err := requireReviewer(c)
	if err != nil {
		return err
	}

	var req models.ReviewRequest
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	candidate, err := transition(ctx, id, reviewer, req.Notes)
	if err != nil {
		return mapReviewError(err)
	}

	return c.JSON(http.StatusOK, candidate)
}

func requireReviewer(c echo.Context) (string, error) {
	reviewer := appctx.GetReviewer(c.Request().Context())
	if reviewer == "" {
		return "", httperror.NewHTTPError(http.StatusBadRequest, "X-Reviewer header is required")
	}
	return reviewer, nil
}

func mapReviewError(err error) error {
	var transition *models.InvalidTransitionError
	if errors.As(err, &transition) {
		return httperror.NewHTTPError(http.StatusConflict, transition.Error())
	}
	if errors.Is(err, models.ErrStaleCandidate) {
		return httperror.NewHTTPError(http.StatusConflict, "candidate refers to a client that no longer exists")
	}
	var unknownField *models.UnknownMergeFieldError
	if errors.As(err, &unknownField) {
		return httperror.NewHTTPError(http.StatusBadRequest, unknownField.Error())
	}
	var badSource *models.InvalidMergeSourceError
	if errors.As(err, &badSource) {
		return httperror.NewHTTPError(http.StatusBadRequest, badSource.Error())
	}
	return err
}
