package api

import (
	"fmt"

	"github.com/didip/tollbooth/v7/limiter"
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	"github.com/clinicore/user-service/internal/api/handler"
	"github.com/clinicore/user-service/internal/api/middleware"
	"github.com/clinicore/user-service/internal/core/domain"
)

// RouterDeps carries everything the HTTP layer needs.
type RouterDeps struct {
	Users       *handler.UserHandler
	Auth        *handler.AuthHandler
	Health      *handler.HealthHandler
	Policy      middleware.PermissionChecker
	Callers     middleware.CallerLoader
	JWTSecret   string
	AuthLimiter *limiter.Limiter
	// MaxUploadBytes bounds the multipart body of the picture upload route.
	MaxUploadBytes int64
	// Registerer and Gatherer default to the prometheus globals.
	Registerer prometheus.Registerer
	Gatherer   prometheus.Gatherer
	Log        zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d RouterDeps) *echo.Echo {
	if d.Registerer == nil {
		d.Registerer = prometheus.DefaultRegisterer
	}
	if d.Gatherer == nil {
		d.Gatherer = prometheus.DefaultGatherer
	}
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(d.Log))
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Namespace:  "users",
		Registerer: d.Registerer,
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/metrics" || c.Path() == "/health" || c.Path() == "/health/ready"
		},
	}))

	// --- Operational endpoints (no auth required) ---
	e.GET("/health", d.Health.Liveness)        // liveness  – is the process alive?
	e.GET("/health/ready", d.Health.Readiness) // readiness – are dependencies up?
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: d.Gatherer}))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	v1 := e.Group("/v1")

	// --- Anonymous routes ---
	auth := v1.Group("/auth", middleware.RateLimit(d.AuthLimiter))
	auth.POST("/register", d.Auth.Register)
	auth.POST("/login", d.Auth.Login)
	auth.POST("/forgot-password", d.Auth.ForgotPassword)
	auth.POST("/reset-password", d.Auth.ResetPassword)
	v1.POST("/users/verify-email", d.Auth.VerifyEmail, middleware.RateLimit(d.AuthLimiter))

	// --- Authenticated routes ---
	users := v1.Group("/users", middleware.Auth(d.JWTSecret, d.Callers))
	can := func(perms ...domain.Permission) echo.MiddlewareFunc {
		return middleware.RequirePermission(d.Policy, perms...)
	}

	users.POST("", d.Users.Create, can(domain.PermUsersCreate))
	users.GET("", d.Users.List, can(domain.PermUsersRead))
	users.GET("/deleted", d.Users.ListDeleted, can(domain.PermUsersReadDeleted))

	users.GET("/me", d.Users.Me, can(domain.PermProfileReadOwn))
	users.PATCH("/me", d.Users.UpdateMe, can(domain.PermProfileUpdateOwn))
	users.POST("/me/password", d.Users.ChangePassword, can(domain.PermProfileUpdateOwn))

	// Self-or-permission checks for these live in the handler.
	users.GET("/:id", d.Users.Get)
	users.GET("/:id/permissions", d.Users.Permissions)
	users.POST("/:id/upload-picture", d.Users.UploadPicture, echomiddleware.BodyLimit(uploadLimit(d.MaxUploadBytes)))
	users.POST("/:id/resend-verification", d.Users.ResendVerification)

	users.PATCH("/:id", d.Users.Update, can(domain.PermUsersUpdate))
	users.DELETE("/:id", d.Users.Delete, can(domain.PermUsersDelete))
	users.POST("/:id/disable", d.Users.Disable, can(domain.PermUsersDisable))
	users.POST("/:id/enable", d.Users.Enable, can(domain.PermUsersDisable))
	users.POST("/:id/restore", d.Users.Restore, can(domain.PermUsersRestore))
	users.POST("/:id/role", d.Users.AssignRole, can(domain.PermUsersAssignRole))

	return e
}

// uploadLimit leaves headroom over the file cap for multipart framing; the
// service enforces the exact size.
func uploadLimit(maxBytes int64) string {
	if maxBytes <= 0 {
		maxBytes = 5 << 20
	}
	return fmt.Sprintf("%dK", maxBytes/1024+64)
}

func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogRemoteIP:  true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			evt := log.Info()
			if v.Status >= 500 {
				evt = log.Error().Err(v.Error)
			} else if v.Status >= 400 {
				evt = log.Warn()
			}
			evt.
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Str("remote_ip", v.RemoteIP).
				Msg("request")
			return nil
		},
	})
}
