package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/clinicore/user-service/internal/core/domain"
)

// Context keys populated by Auth.
const (
	CtxUserID = "user_id"
	CtxRole   = "role"
)

// CallerLoader fetches the stored record behind a token subject.
// ports.UserRepository satisfies it.
type CallerLoader interface {
	FindByID(ctx context.Context, id string) (*domain.User, error)
}

// Auth validates the bearer JWT issued by login, loads the caller's record
// and injects its id and stored role into the request context. Deleted or
// disabled callers are rejected even while their token is unexpired, and the
// role claim is ignored in favour of the current one.
func Auth(jwtSecret string, callers CallerLoader) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header")
			}

			claims := jwt.MapClaims{}
			tkn, err := jwt.ParseWithClaims(parts[1], claims, func(token *jwt.Token) (interface{}, error) {
				return []byte(jwtSecret), nil
			}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
			if err != nil || !tkn.Valid {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			sub, _ := claims.GetSubject()
			role, _ := claims[CtxRole].(string)
			if sub == "" || role == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "token missing identity claims")
			}

			u, err := callers.FindByID(c.Request().Context(), sub)
			if errors.Is(err, domain.ErrUserNotFound) {
				return echo.NewHTTPError(http.StatusUnauthorized, "account no longer exists")
			}
			if err != nil {
				return err
			}
			if u.IsDeleted || !u.IsActive {
				return echo.NewHTTPError(http.StatusUnauthorized, "account is disabled")
			}

			c.Set(CtxUserID, u.ID)
			c.Set(CtxRole, u.Role)

			return next(c)
		}
	}
}
