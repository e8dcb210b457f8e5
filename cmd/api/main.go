// @title          Clinic User Service API
// @version        1.0
// @description    User accounts, roles and lifecycle for the clinic platform.
// @BasePath       /
//
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
// @description                 Type "Bearer" followed by a space and the JWT.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	_ "github.com/clinicore/user-service/docs"
	"github.com/clinicore/user-service/internal/api"
	"github.com/clinicore/user-service/internal/api/handler"
	"github.com/clinicore/user-service/internal/api/middleware"
	"github.com/clinicore/user-service/internal/core/policy"
	"github.com/clinicore/user-service/internal/core/ports"
	"github.com/clinicore/user-service/internal/core/service"
	"github.com/clinicore/user-service/internal/infrastructure/broker"
	"github.com/clinicore/user-service/internal/infrastructure/config"
	mongodb "github.com/clinicore/user-service/internal/infrastructure/db/mongo"
	redisdb "github.com/clinicore/user-service/internal/infrastructure/db/redis"
	"github.com/clinicore/user-service/internal/infrastructure/mail"
	"github.com/clinicore/user-service/internal/infrastructure/queue"
	"github.com/clinicore/user-service/internal/infrastructure/storage"
	"github.com/clinicore/user-service/pkg/logger"
)

const (
	serviceName     = "user-service"
	shutdownTimeout = 15 * time.Second
)

func main() {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", serviceName, err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  !cfg.IsProduction(),
		Service: serviceName,
	})

	// --- Storage ---
	mongoClient, db, err := mongodb.Connect(ctx, mongodb.Config{
		URI:         cfg.Mongo.URI,
		Database:    cfg.Mongo.Database,
		AppName:     serviceName,
		MaxPoolSize: cfg.Mongo.MaxPoolSize,
	})
	if err != nil {
		return err
	}
	defer disconnect(mongoClient.Disconnect, log, "mongodb")

	users := mongodb.NewUserRepository(db)
	patients := mongodb.NewPatientRepository(db)
	if err := users.EnsureIndexes(ctx); err != nil {
		return err
	}
	if err := patients.EnsureIndexes(ctx); err != nil {
		return err
	}
	if err := mongodb.EnsureAuditIndexes(ctx, db); err != nil {
		return err
	}

	rdb, err := redisdb.Connect(ctx, redisdb.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		return err
	}
	defer disconnect(func(context.Context) error { return rdb.Close() }, log, "redis")

	files, err := storage.NewLocalStore(cfg.Storage.UploadDir)
	if err != nil {
		return err
	}

	// --- Notifications ---
	transport, closeTransport, err := newTransport(cfg, logger.Component("notifier"))
	if err != nil {
		return err
	}
	defer disconnect(closeTransport, log, "notification transport")

	dispatcher := queue.NewDispatcher(cfg.Workers.NotifyWorkers, cfg.Workers.NotifyBuffer, transport, logger.Component("dispatcher"))
	dispatcher.Start()

	// --- Services ---
	pol := policy.Default()
	audit := mongodb.NewAuditRepository(db)

	userService := service.NewUserService(service.UserServiceDeps{
		Users:    users,
		Audit:    audit,
		Notifier: dispatcher,
		Files:    files,
		Cooldown: redisdb.NewCooldown(rdb),
		Hooks:    service.NewPatientProfileSync(patients, logger.Component("patient_sync")),
		Policy:   pol,
	}, service.UserServiceConfig{
		RequireEmailVerification: cfg.App.RequireEmailVerification,
		VerificationTTL:          cfg.App.VerificationTTL,
		ResetTTL:                 cfg.App.ResetTTL,
		ResendCooldown:           cfg.App.ResendCooldown,
		MaxUploadBytes:           cfg.Storage.MaxUploadBytes,
		AppBaseURL:               cfg.App.BaseURL,
	}, logger.Component("user_service"))

	authService := service.NewAuthService(users, audit, cfg.JWTSecret, cfg.JWTTTL, logger.Component("auth_service"))

	// --- HTTP ---
	e := api.NewRouter(api.RouterDeps{
		Users: handler.NewUserHandler(userService, pol),
		Auth:  handler.NewAuthHandler(authService, userService),
		Health: handler.NewHealthHandler(map[string]handler.Checker{
			"mongodb": func(ctx context.Context) error { return mongodb.Ping(ctx, mongoClient) },
			"redis":   func(ctx context.Context) error { return redisdb.Ping(ctx, rdb) },
		}),
		Policy:         pol,
		Callers:        users,
		JWTSecret:      cfg.JWTSecret,
		AuthLimiter:    middleware.NewLimiter(cfg.RateLimit.AuthPerSecond),
		MaxUploadBytes: cfg.Storage.MaxUploadBytes,
		Log:            logger.Component("http"),
	})

	srvErr := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("server starting")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			srvErr <- err
		}
		close(srvErr)
	}()

	select {
	case err := <-srvErr:
		drainNotifications(dispatcher, log)
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}
	// Queued notifications drain after the server stops accepting requests.
	drainNotifications(dispatcher, log)

	return nil
}

func drainNotifications(d *queue.Dispatcher, log zerolog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := d.Shutdown(ctx); err != nil {
		log.Warn().Err(err).Msg("notification drain incomplete")
	}
}

// newTransport picks the delivery mechanism behind the dispatcher.
func newTransport(cfg *config.Config, log zerolog.Logger) (ports.Notifier, func(context.Context) error, error) {
	noop := func(context.Context) error { return nil }

	switch cfg.Workers.NotifyTransport {
	case "smtp":
		return mail.NewSMTPMailer(mail.Config{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			Username: cfg.SMTP.Username,
			Password: cfg.SMTP.Password,
			From:     cfg.SMTP.From,
		}), noop, nil
	case "amqp":
		pub, err := broker.Dial(cfg.AMQP.URL, cfg.AMQP.Queue)
		if err != nil {
			return nil, nil, err
		}
		return pub, func(context.Context) error { return pub.Close() }, nil
	default:
		return mail.NewLogNotifier(log), noop, nil
	}
}

func disconnect(fn func(context.Context) error, log zerolog.Logger, name string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := fn(ctx); err != nil {
		log.Warn().Err(err).Str("dependency", name).Msg("close failed")
	}
}
