package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"basketReco/pkg/logger"
	jsonres "basketReco/pkg/response"

	"github.com/labstack/echo/v4"
)

// ErrorHandler renders errors returned by handlers and middleware with the
// shared error body.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	message := http.StatusText(code)

	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		message = fmt.Sprint(he.Message)
	}

	if code >= http.StatusInternalServerError {
		logger.Error("request_failed",
			"trace_id", c.Response().Header().Get(echo.HeaderXRequestID),
			"path", c.Path(),
			"error", err,
		)
	}

	body := jsonres.Error(errorCode(code), message, nil)

	var writeErr error
	if c.Request().Method == http.MethodHead {
		writeErr = c.NoContent(code)
	} else {
		writeErr = c.JSON(code, body)
	}
	if writeErr != nil {
		logger.Error("error_response_failed", "error", writeErr)
	}
}

func errorCode(status int) string {
	switch status {
	case http.StatusTooManyRequests:
		return "RATE_LIMITED"
	case http.StatusNotFound:
		return "NOT_FOUND"
	case http.StatusMethodNotAllowed:
		return "METHOD_NOT_ALLOWED"
	}
	text := http.StatusText(status)
	if text == "" {
		return "ERROR"
	}
	return strings.ToUpper(strings.ReplaceAll(text, " ", "_"))
}
