package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/clinicore/user-service/internal/api/middleware"
	"github.com/clinicore/user-service/internal/core/domain"
	"github.com/clinicore/user-service/internal/core/ports"
)

// callerFrom extracts the identity injected by the Auth middleware and fails
// fast before any service call when it is missing.
func callerFrom(c echo.Context) (ports.Caller, error) {
	id, _ := c.Get(middleware.CtxUserID).(string)
	role, _ := c.Get(middleware.CtxRole).(domain.Role)
	if id == "" || role == "" {
		return ports.Caller{}, echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}
	return ports.Caller{ID: id, Role: role}, nil
}

// bindAndValidate decodes the request into dst and runs the struct validator.
func bindAndValidate(c echo.Context, dst any) error {
	if err := c.Bind(dst); err != nil {
		return domain.NewError(domain.KindValidationFailed, "invalid payload")
	}
	return c.Validate(dst)
}
