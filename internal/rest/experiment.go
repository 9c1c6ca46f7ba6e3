package rest

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"basketReco/business/experiment"
	"basketReco/domain"

	"github.com/AMFarhan21/fres"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

type (
	ExperimentHandler struct {
		validate *validator.Validate
		service  ExperimentService
	}

	ExperimentService interface {
		ListActive(ctx context.Context, shop string) ([]domain.Experiment, error)
		Assign(ctx context.Context, experimentID, unitID string) (domain.VariantAssignment, error)
		Create(ctx context.Context, in experiment.CreateInput) (domain.Experiment, error)
		Start(ctx context.Context, id string) (domain.Experiment, error)
		Complete(ctx context.Context, id, winnerVariantID string) (domain.Experiment, error)
	}

	ListExperimentsQuery struct {
		Shop string `query:"shop" validate:"required,max=255"`
	}

	AssignmentQuery struct {
		UnitID string `query:"unit_id" validate:"required,max=128"`
	}

	CompleteRequest struct {
		WinnerVariantID string `json:"winnerVariantId"`
	}
)

func NewExperimentHandler(service ExperimentService) *ExperimentHandler {
	return &ExperimentHandler{
		validate: validator.New(),
		service:  service,
	}
}

// GET /api/v1/experiments?shop=
func (h *ExperimentHandler) List(c echo.Context) error {
	var q ListExperimentsQuery
	if err := c.Bind(&q); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}
	if err := h.validate.Struct(&q); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	exps, err := h.service.ListActive(c.Request().Context(), q.Shop)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, ResponseError{Message: err.Error()})
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(exps))
}

// GET /api/v1/experiments/:id/assignment?unit_id=
func (h *ExperimentHandler) Assignment(c echo.Context) error {
	var q AssignmentQuery
	if err := c.Bind(&q); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}
	if err := h.validate.Struct(&q); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	res, err := h.service.Assign(c.Request().Context(), c.Param("id"), strings.TrimSpace(q.UnitID))
	if err != nil {
		return c.JSON(experimentStatus(err), ResponseError{Message: err.Error()})
	}

	return c.JSON(http.StatusOK, res)
}

// POST /api/v1/admin/experiments
func (h *ExperimentHandler) Create(c echo.Context) error {
	var req experiment.CreateInput
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}
	if err := h.validate.Struct(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	exp, err := h.service.Create(c.Request().Context(), req)
	if err != nil {
		return c.JSON(experimentStatus(err), ResponseError{Message: err.Error()})
	}

	return c.JSON(http.StatusCreated, fres.Response.StatusCreated(exp))
}

// POST /api/v1/admin/experiments/:id/start
func (h *ExperimentHandler) Start(c echo.Context) error {
	exp, err := h.service.Start(c.Request().Context(), c.Param("id"))
	if err != nil {
		return c.JSON(experimentStatus(err), ResponseError{Message: err.Error()})
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(exp))
}

// POST /api/v1/admin/experiments/:id/complete
// body: { "winnerVariantId": "..." } (optional)
func (h *ExperimentHandler) Complete(c echo.Context) error {
	var req CompleteRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	exp, err := h.service.Complete(c.Request().Context(), c.Param("id"), strings.TrimSpace(req.WinnerVariantID))
	if err != nil {
		return c.JSON(experimentStatus(err), ResponseError{Message: err.Error()})
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(exp))
}

func experimentStatus(err error) int {
	switch {
	case errors.Is(err, domain.ErrExperimentNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidTransition):
		return http.StatusConflict
	case errors.Is(err, domain.ErrVariantNotFound), errors.Is(err, domain.ErrNoVariants):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
