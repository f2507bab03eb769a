package client

import (
	"net/http"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	clientrepo "github.com/Ramsey-B/laurel/internal/repositories/client"
	"github.com/Ramsey-B/laurel/internal/repositories/duplicatecandidate"
	enrollmentrepo "github.com/Ramsey-B/laurel/internal/repositories/enrollment"
	"github.com/Ramsey-B/laurel/pkg/detection"
	"github.com/Ramsey-B/laurel/pkg/models"
)

// Handler handles client API requests
type Handler struct {
	logger         ectologger.Logger
	clientRepo     *clientrepo.Repository
	candidateRepo  *duplicatecandidate.Repository
	enrollmentRepo *enrollmentrepo.Repository
	detector       *detection.Detector
	detection      *detection.Service
	validate       *validator.Validate
}

// NewHandler creates a new client handler
func NewHandler(
	logger ectologger.Logger,
	clientRepo *clientrepo.Repository,
	candidateRepo *duplicatecandidate.Repository,
	enrollmentRepo *enrollmentrepo.Repository,
	detector *detection.Detector,
	detectionService *detection.Service,
) *Handler {
	return &Handler{
		logger:         logger,
		clientRepo:     clientRepo,
		candidateRepo:  candidateRepo,
		enrollmentRepo: enrollmentRepo,
		detector:       detector,
		detection:      detectionService,
		validate:       validator.New(),
	}
}

// RegisterRoutes registers the client routes
func (h *Handler) RegisterRoutes(g *echo.Group) {
	clients := g.Group("/clients")
	clients.POST("", h.Create)
	clients.GET("/:id", h.Get)
	clients.PUT("/:id", h.Update)
	clients.GET("/:id/candidates", h.ListCandidates)
	clients.GET("/:id/enrollments", h.ListEnrollments)
}

// CreateClientRequest is the request body for creating a client
type CreateClientRequest struct {
	FirstName   string  `json:"first_name" validate:"required"`
	LastName    string  `json:"last_name" validate:"required"`
	Email       *string `json:"email,omitempty"`
	Phone       *string `json:"phone,omitempty"`
	DateOfBirth *string `json:"date_of_birth,omitempty"` // YYYY-MM-DD
}

// UpdateClientRequest is the request body for updating a client
type UpdateClientRequest struct {
	FirstName   *string `json:"first_name,omitempty"`
	LastName    *string `json:"last_name,omitempty"`
	Email       *string `json:"email,omitempty"`
	Phone       *string `json:"phone,omitempty"`
	DateOfBirth *string `json:"date_of_birth,omitempty"`
}

// CreateClientResponse wraps the created client with the detection outcome
type CreateClientResponse struct {
	Client            *models.Client `json:"client"`
	DuplicateWarning  bool           `json:"duplicate_warning"`
	CandidatesCreated int            `json:"candidates_created"`
}

// Create handles POST /clients. Detection runs against the full pool after the
// write; the duplicate warning is suppressed when the record carries an email
// or phone because exact-field matching is the stronger signal there.
func (h *Handler) Create(c echo.Context) error {
	ctx := c.Request().Context()

	var req CreateClientRequest
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := h.validate.Struct(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	dob, err := parseDate(req.DateOfBirth)
	if err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid date_of_birth: expected YYYY-MM-DD")
	}

	created, err := h.clientRepo.Create(ctx, &models.Client{
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Email:       req.Email,
		Phone:       req.Phone,
		DateOfBirth: dob,
		Source:      models.SourceManual,
	})
	if err != nil {
		return err
	}

	pool, err := h.clientRepo.ListPool(ctx, created.ID)
	if err != nil {
		return err
	}
	warn := h.detector.ShouldWarn(created, pool)

	createdCount, err := h.detection.DetectAndPersist(ctx, created.ID, models.DetectionSourceManual)
	if err != nil {
		h.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"client_id": created.ID,
		}).Error("Detection failed after client creation")
	}

	return c.JSON(http.StatusCreated, CreateClientResponse{
		Client:            created,
		DuplicateWarning:  warn,
		CandidatesCreated: createdCount,
	})
}

// Get handles GET /clients/:id
func (h *Handler) Get(c echo.Context) error {
	ctx := c.Request().Context()

	id := c.Param("id")
	if id == "" {
		return httperror.NewHTTPError(http.StatusBadRequest, "missing id")
	}

	found, err := h.clientRepo.Get(ctx, id)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, found)
}

// Update handles PUT /clients/:id. Detection re-runs after the edit; candidate
// creation is idempotent so existing pairs are never duplicated.
func (h *Handler) Update(c echo.Context) error {
	ctx := c.Request().Context()

	id := c.Param("id")
	if id == "" {
		return httperror.NewHTTPError(http.StatusBadRequest, "missing id")
	}

	var req UpdateClientRequest
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	existing, err := h.clientRepo.Get(ctx, id)
	if err != nil {
		return err
	}

	if req.FirstName != nil && *req.FirstName != "" {
		existing.FirstName = *req.FirstName
	}
	if req.LastName != nil && *req.LastName != "" {
		existing.LastName = *req.LastName
	}
	if req.Email != nil {
		existing.Email = req.Email
	}
	if req.Phone != nil {
		existing.Phone = req.Phone
	}
	if req.DateOfBirth != nil {
		dob, err := parseDate(req.DateOfBirth)
		if err != nil {
			return httperror.NewHTTPError(http.StatusBadRequest, "invalid date_of_birth: expected YYYY-MM-DD")
		}
		existing.DateOfBirth = dob
	}

	if err := h.clientRepo.Update(ctx, existing); err != nil {
		return err
	}

	if _, err := h.detection.DetectAndPersist(ctx, existing.ID, models.DetectionSourceManual); err != nil {
		h.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"client_id": existing.ID,
		}).Error("Detection failed after client update")
	}

	return c.JSON(http.StatusOK, existing)
}

// ListCandidates handles GET /clients/:id/candidates with an optional status filter
func (h *Handler) ListCandidates(c echo.Context) error {
	ctx := c.Request().Context()

	id := c.Param("id")
	if id == "" {
		return httperror.NewHTTPError(http.StatusBadRequest, "missing id")
	}

	status := models.CandidateStatus(c.QueryParam("status"))

	candidates, err := h.candidateRepo.ListByClient(ctx, id, status)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, candidates)
}

// ListEnrollments handles GET /clients/:id/enrollments
func (h *Handler) ListEnrollments(c echo.Context) error {
	ctx := c.Request().Context()

	id := c.Param("id")
	if id == "" {
		return httperror.NewHTTPError(http.StatusBadRequest, "missing id")
	}

	enrollments, err := h.enrollmentRepo.ListByClient(ctx, id)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, enrollments)
}

func parseDate(s *string) (*time.Time, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", *s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
