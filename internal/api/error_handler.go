package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/clinicore/user-service/internal/core/domain"
)

const codeInternal = "INTERNAL_ERROR"

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// errorResponse is the canonical error envelope for all API errors.
type errorResponse struct {
	Error errorBody `json:"error"`
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps domain errors to the status code of their kind.
//   - Logs unexpected errors internally without leaking details to the client.
//   - Renders a consistent JSON envelope: {"error": {"code": ..., "message": ...}}.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, body := resolveError(err, log, c)
		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(code)
			return
		}
		_ = c.JSON(code, errorResponse{Error: body})
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, errorBody) {
	var de *domain.Error
	if errors.As(err, &de) {
		return de.HTTPStatus(), errorBody{Code: string(de.Kind), Message: de.Message}
	}

	// Echo's own errors (bind failures, 404 from router, auth middleware).
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, errorBody{Code: httpCode(he.Code), Message: fmt.Sprintf("%v", he.Message)}
	}

	// Unexpected error: log the real cause, return a generic message.
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Str("request_id", c.Response().Header().Get(echo.HeaderXRequestID)).
		Msg("unhandled error")

	return http.StatusInternalServerError, errorBody{Code: codeInternal, Message: "internal server error"}
}

// httpCode gives transport-level failures a stable code in the same
// namespace as domain kinds.
func httpCode(status int) string {
	switch status {
	case http.StatusUnauthorized:
		return "AUTH_UNAUTHENTICATED"
	case http.StatusForbidden:
		return string(domain.KindInsufficientPermissions)
	case http.StatusNotFound:
		return "NOT_FOUND"
	case http.StatusMethodNotAllowed:
		return "METHOD_NOT_ALLOWED"
	case http.StatusTooManyRequests:
		return "RATE_LIMITED"
	case http.StatusRequestEntityTooLarge:
		return "PAYLOAD_TOO_LARGE"
	case http.StatusBadRequest, http.StatusUnsupportedMediaType:
		return string(domain.KindValidationFailed)
	}
	if status >= http.StatusInternalServerError {
		return codeInternal
	}
	return "HTTP_" + fmt.Sprint(status)
}
