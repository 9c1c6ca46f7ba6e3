package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"basketReco/business/reco"
	"basketReco/pkg/utils"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func okHandler(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

func serve(t *testing.T, h echo.HandlerFunc, header string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set(echo.HeaderAuthorization, header)
	}
	rec := httptest.NewRecorder()
	require.NoError(t, h(e.NewContext(req, rec)))
	return rec
}

func TestAuthMiddleware(t *testing.T) {
	utils.SetJWTSecret("test-secret")

	admin, err := utils.GenerateJWT("42", "admin", time.Hour)
	require.NoError(t, err)
	viewer, err := utils.GenerateJWT("7", "viewer", time.Hour)
	require.NoError(t, err)

	chain := AuthMiddleware()(AdminOnly()(okHandler))

	cases := []struct {
		name   string
		header string
		want   int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Token " + admin, http.StatusUnauthorized},
		{"garbage token", "Bearer not-a-jwt", http.StatusUnauthorized},
		{"non admin", "Bearer " + viewer, http.StatusForbidden},
		{"admin", "Bearer " + admin, http.StatusOK},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := serve(t, chain, tc.header)
			assert.Equal(t, tc.want, rec.Code)
		})
	}
}

func TestTraceID(t *testing.T) {
	var got string
	h := TraceID()(func(c echo.Context) error {
		got = reco.TraceIDFromContext(c.Request().Context())
		return c.NoContent(http.StatusNoContent)
	})

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Response().Header().Set(echo.HeaderXRequestID, "req-123")

	require.NoError(t, h(c))
	assert.Equal(t, "req-123", got)
}

func TestErrorHandler(t *testing.T) {
	e := echo.New()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	ErrorHandler(echo.NewHTTPError(http.StatusTooManyRequests, "rate limit exceeded"), e.NewContext(req, rec))

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Contains(t, rec.Body.String(), `"code":"RATE_LIMITED"`)
	assert.Contains(t, rec.Body.String(), "rate limit exceeded")

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	rec = httptest.NewRecorder()
	ErrorHandler(assert.AnError, e.NewContext(req, rec))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), `"code":"INTERNAL_SERVER_ERROR"`)
}
