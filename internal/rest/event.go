package rest

import (
	"context"
	"net/http"
	"time"

	"basketReco/domain"
	"basketReco/pkg/logger"

	"github.com/AMFarhan21/fres"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type (
	EventHandler struct {
		validate *validator.Validate
		sink     EventSink
		timeout  time.Duration
	}

	EventSink interface {
		SaveEvent(ctx context.Context, event domain.RecommendationEvent) error
	}

	EventRequest struct {
		Shop      string         `json:"shop" validate:"required,max=255"`
		ProductID string         `json:"productId" validate:"required"`
		EventType string         `json:"eventType" validate:"required,oneof=impression click"`
		UnitID    string         `json:"unitId" validate:"max=128"`
		VariantID string         `json:"variantId" validate:"max=64"`
		Context   map[string]any `json:"context"`
	}
)

func NewEventHandler(sink EventSink, timeout time.Duration) *EventHandler {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &EventHandler{
		validate: validator.New(),
		sink:     sink,
		timeout:  timeout,
	}
}

// POST /api/v1/events
// A failing sink is logged and still answered with 202.
func (h *EventHandler) Track(c echo.Context) error {
	var req EventRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}
	if err := h.validate.Struct(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	productID, ok := domain.ParseProductID(req.ProductID)
	if !ok {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: "invalid product_id"})
	}

	event := domain.RecommendationEvent{
		ID:        uuid.NewString(),
		Shop:      req.Shop,
		ProductID: productID,
		EventType: req.EventType,
		UnitID:    req.UnitID,
		VariantID: req.VariantID,
		Context:   req.Context,
		CreatedAt: time.Now(),
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	if err := h.sink.SaveEvent(ctx, event); err != nil {
		logger.Warn("event_sink_failed",
			"trace_id", c.Response().Header().Get(echo.HeaderXRequestID),
			"shop", req.Shop,
			"event_type", req.EventType,
			"error", err,
		)
	}

	return c.JSON(http.StatusAccepted, fres.Response.StatusOK("event accepted"))
}
