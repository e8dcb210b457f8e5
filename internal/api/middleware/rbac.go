package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/clinicore/user-service/internal/core/domain"
)

// PermissionChecker is the slice of the role policy the middleware needs.
type PermissionChecker interface {
	HasPermission(r domain.Role, perm domain.Permission) bool
}

// RequirePermission rejects callers whose role lacks every one of perms.
// Passing several permissions means any of them is enough.
func RequirePermission(policy PermissionChecker, perms ...domain.Permission) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, _ := c.Get(CtxRole).(domain.Role)
			for _, p := range perms {
				if policy.HasPermission(role, p) {
					return next(c)
				}
			}
			return domain.ErrInsufficientPermissions
		}
	}
}
