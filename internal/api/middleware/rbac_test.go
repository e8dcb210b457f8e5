package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/clinicore/user-service/internal/core/domain"
	"github.com/clinicore/user-service/internal/core/policy"
)

func runRBAC(role any, perms ...domain.Permission) (bool, error) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	c := e.NewContext(req, httptest.NewRecorder())
	if role != nil {
		c.Set(CtxRole, role)
	}

	called := false
	handler := RequirePermission(policy.Default(), perms...)(func(c echo.Context) error {
		called = true
		return c.NoContent(http.StatusOK)
	})
	return called, handler(c)
}

func TestRequirePermission_Allows(t *testing.T) {
	called, err := runRBAC(domain.RoleAdmin, domain.PermUsersDelete)
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !called {
		t.Fatalf("next handler not called")
	}
}

func TestRequirePermission_AnyOf(t *testing.T) {
	called, err := runRBAC(domain.RolePatient, domain.PermUsersRead, domain.PermProfileReadOwn)
	if err != nil || !called {
		t.Fatalf("expected patient to pass on profile:read_own, err=%v", err)
	}
}

func TestRequirePermission_Forbids(t *testing.T) {
	cases := map[string]any{
		"patient":      domain.RolePatient,
		"no role":      nil,
		"string role":  "ADMIN",
		"unknown role": domain.Role("JANITOR"),
	}
	for name, role := range cases {
		called, err := runRBAC(role, domain.PermUsersDelete)
		if called {
			t.Fatalf("%s: should not reach next handler", name)
		}
		if !errors.Is(err, domain.ErrInsufficientPermissions) {
			t.Fatalf("%s: expected insufficient permissions, got %v", name, err)
		}
	}
}
