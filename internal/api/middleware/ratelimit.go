package middleware

import (
	"net/http"
	"time"

	"github.com/didip/tollbooth/v7"
	"github.com/didip/tollbooth/v7/limiter"
	"github.com/labstack/echo/v4"
)

// NewLimiter builds a per-client-IP token bucket allowing perSecond requests.
func NewLimiter(perSecond float64) *limiter.Limiter {
	lmt := tollbooth.NewLimiter(perSecond, &limiter.ExpirableOptions{DefaultExpirationTTL: time.Hour})
	lmt.SetIPLookups([]string{"RemoteAddr", "X-Forwarded-For", "X-Real-IP"})
	lmt.SetMessage("too many requests, please try again later")
	return lmt
}

// RateLimit rejects requests over lmt's budget with 429.
func RateLimit(lmt *limiter.Limiter) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if httpErr := tollbooth.LimitByRequest(lmt, c.Response(), c.Request()); httpErr != nil {
				status := httpErr.StatusCode
				if status == 0 {
					status = http.StatusTooManyRequests
				}
				return echo.NewHTTPError(status, httpErr.Message)
			}
			return next(c)
		}
	}
}
