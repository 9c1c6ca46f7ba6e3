package rest

import (
	"context"
	"errors"
	"math"
	"net/http"
	"strconv"
	"strings"

	"basketReco/domain"

	"github.com/AMFarhan21/fres"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

const maxCartItems = 50

type (
	RecommendationHandler struct {
		validate *validator.Validate
		service  RecommendationService
	}

	RecommendationService interface {
		Recommend(ctx context.Context, req domain.RecommendationRequest) domain.RecommendationResult
		DebugRecommend(ctx context.Context, req domain.RecommendationRequest) ([]domain.DebugCandidate, error)
		Associations(ctx context.Context, shop string, limit int) ([]domain.PairAssociation, error)
	}

	RecommendQuery struct {
		Shop      string `query:"shop" validate:"required,max=255"`
		ProductID string `query:"product_id"`
		Cart      string `query:"cart"`
		Subtotal  string `query:"subtotal"`
		Limit     int    `query:"limit" validate:"omitempty,min=1,max=12"`
		UnitID    string `query:"unit_id" validate:"max=128"`
	}

	AssociationsQuery struct {
		Shop  string `query:"shop" validate:"required,max=255"`
		Limit int    `query:"limit" validate:"omitempty,min=1,max=500"`
	}
)

func NewRecommendationHandler(service RecommendationService) *RecommendationHandler {
	return &RecommendationHandler{
		validate: validator.New(),
		service:  service,
	}
}

// GET /api/v1/recommendations?shop=&product_id=&cart=1,2&subtotal=80&limit=4
func (h *RecommendationHandler) Recommend(c echo.Context) error {
	req, err := h.bindRequest(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	res := h.service.Recommend(c.Request().Context(), req)
	return c.JSON(http.StatusOK, res)
}

// GET /api/v1/recommendations/debug?shop=&product_id=
func (h *RecommendationHandler) DebugRecommend(c echo.Context) error {
	req, err := h.bindRequest(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	out, err := h.service.DebugRecommend(c.Request().Context(), req)
	if err != nil {
		return c.JSON(http.StatusBadGateway, ResponseError{Message: err.Error()})
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(out))
}

// GET /api/v1/admin/associations?shop=&limit=50
func (h *RecommendationHandler) Associations(c echo.Context) error {
	var q AssociationsQuery
	if err := c.Bind(&q); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}
	if err := h.validate.Struct(&q); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	pairs, err := h.service.Associations(c.Request().Context(), q.Shop, q.Limit)
	if err != nil {
		return c.JSON(http.StatusBadGateway, ResponseError{Message: err.Error()})
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(pairs))
}

func (h *RecommendationHandler) bindRequest(c echo.Context) (domain.RecommendationRequest, error) {
	var q RecommendQuery
	if err := c.Bind(&q); err != nil {
		return domain.RecommendationRequest{}, errors.New("invalid query parameters")
	}
	if err := h.validate.Struct(&q); err != nil {
		return domain.RecommendationRequest{}, err
	}

	req := domain.RecommendationRequest{
		Shop:      q.Shop,
		Limit:     q.Limit,
		UnitID:    strings.TrimSpace(q.UnitID),
		RequestID: c.Response().Header().Get(echo.HeaderXRequestID),
	}

	if strings.TrimSpace(q.ProductID) != "" {
		id, ok := domain.ParseProductID(q.ProductID)
		if !ok {
			return domain.RecommendationRequest{}, errors.New("invalid product_id")
		}
		req.AnchorID = id
	}

	if strings.TrimSpace(q.Cart) != "" {
		parts := strings.Split(q.Cart, ",")
		if len(parts) > maxCartItems {
			return domain.RecommendationRequest{}, errors.New("too many cart items")
		}
		for _, p := range parts {
			if strings.TrimSpace(p) == "" {
				continue
			}
			id, ok := domain.ParseProductID(p)
			if !ok {
				return domain.RecommendationRequest{}, errors.New("invalid cart item id")
			}
			req.CartIDs = append(req.CartIDs, id)
		}
	}

	if strings.TrimSpace(q.Subtotal) != "" {
		v, err := strconv.ParseFloat(strings.TrimSpace(q.Subtotal), 64)
		if err != nil || v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return domain.RecommendationRequest{}, errors.New("invalid subtotal")
		}
		req.Subtotal = &v
	}

	return req, nil
}
