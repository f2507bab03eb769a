package reconciliation

import (
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/labstack/echo/v4"

	appctx "github.com/Ramsey-B/laurel/pkg/context"
	"github.com/Ramsey-B/laurel/pkg/enrollment"
)

// Handler handles enrollment reconciliation API requests
type Handler struct {
	logger     ectologger.Logger
	reconciler *enrollment.Reconciler
}

// NewHandler creates a new reconciliation handler
func NewHandler(logger ectologger.Logger, reconciler *enrollment.Reconciler) *Handler {
	return &Handler{
		logger:     logger,
		reconciler: reconciler,
	}
}

// RegisterRoutes registers the reconciliation routes
func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.POST("/reconciliation/enrollments", h.ReconcileEnrollments)
}

// ReconcileEnrollmentsRequest scopes a reconciliation run
type ReconcileEnrollmentsRequest struct {
	ClientID  string `json:"client_id,omitempty"`
	ProgramID string `json:"program_id,omitempty"`
}

// ReconcileEnrollments handles POST /reconciliation/enrollments. Pass
// ?dry_run=true to compute stats without writing anything.
func (h *Handler) ReconcileEnrollments(c echo.Context) error {
	ctx := c.Request().Context()

	var req ReconcileEnrollmentsRequest
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	dryRun := c.QueryParam("dry_run") == "true"

	actor := appctx.GetReviewer(ctx)
	if actor == "" {
		actor = "api"
	}

	stats, err := h.reconciler.ReconcileAll(ctx, enrollment.Filter{
		ClientID:  req.ClientID,
		ProgramID: req.ProgramID,
	}, dryRun, actor)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, stats)
}
