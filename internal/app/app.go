package app

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/temcen/fitpair/internal/config"
	"github.com/temcen/fitpair/internal/database"
	"github.com/temcen/fitpair/internal/handlers"
	"github.com/temcen/fitpair/internal/middleware"
	"github.com/temcen/fitpair/internal/services"
	"github.com/temcen/fitpair/internal/validation"
)

type App struct {
	config     *config.Config
	logger     *logrus.Logger
	db         *database.Database
	services   *services.Services
	handlers   *handlers.Handlers
	validation *middleware.ValidationMiddleware
	router     *gin.Engine

	cancelConsumer context.CancelFunc
	consumerDone   sync.WaitGroup
}

func New(cfg *config.Config) (*App, error) {
	app := &App{
		config: cfg,
		logger: setupLogger(cfg),
	}

	schemas, err := validation.NewDefaultValidator()
	if err != nil {
		return nil, fmt.Errorf("failed to load request schemas: %w", err)
	}
	app.validation = middleware.NewValidationMiddleware(schemas)

	db, err := database.New(cfg, app.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	svcs, err := services.New(cfg, app.logger, db)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}
	app.services = svcs

	app.handlers = handlers.New(cfg, app.logger, svcs)
	app.setupRouter()

	return app, nil
}

func (a *App) Router() *gin.Engine {
	return a.router
}

// StartConsumers runs the interaction event consumer that keeps cached
// recommendations fresh across instances. It stops on Shutdown.
func (a *App) StartConsumers(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	a.cancelConsumer = cancel

	a.consumerDone.Add(1)
	go func() {
		defer a.consumerDone.Done()
		err := a.services.EventBus.Consume(ctx, a.services.Recommendations.HandleInteractionEvent)
		if err != nil && !errors.Is(err, context.Canceled) {
			a.logger.WithError(err).Error("Interaction event consumer stopped")
		}
	}()

	a.logger.Info("Interaction event consumer started")
}

func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info("Shutting down application...")

	if a.cancelConsumer != nil {
		a.cancelConsumer()
		done := make(chan struct{})
		go func() {
			a.consumerDone.Wait()
			close(done)
		}()
		select {
		case <-done:
		case <-ctx.Done():
			a.logger.Warn("Timed out waiting for the event consumer to stop")
		}
	}

	var errs []error
	if err := a.services.Close(); err != nil {
		a.logger.WithError(err).Error("Error closing event bus")
		errs = append(errs, err)
	}
	if err := a.db.Close(); err != nil {
		a.logger.WithError(err).Error("Error closing database connections")
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

func setupLogger(cfg *config.Config) *logrus.Logger {
	logger := logrus.New()

	level, err := logrus.ParseLevel(cfg.Logging.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if cfg.Logging.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}

	return logger
}

func (a *App) setupRouter() {
	if a.config.Server.Mode == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	a.router = newRouter(a.config, a.logger, a.handlers, a.validation, a.services.Auth, a.services.RateLimit)
}

func newRouter(
	cfg *config.Config,
	logger *logrus.Logger,
	h *handlers.Handlers,
	vm *middleware.ValidationMiddleware,
	auth middleware.TokenValidator,
	limiter middleware.Limiter,
) *gin.Engine {
	router := gin.New()

	// Global middleware
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(logger))
	router.Use(middleware.Recovery(logger))
	router.Use(middleware.CORS(cfg.Security.CORS))
	router.Use(middleware.Compression())

	// Health check and metrics (no auth required)
	router.GET("/health", h.Health.Check)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Token exchange (API key in body, no auth header)
	router.POST("/api/v1/auth/token", vm.ValidateBody(validation.AuthRequest), h.Auth.Token)

	api := router.Group("/api/v1")
	{
		api.Use(middleware.Auth(auth, logger))
		api.Use(middleware.RateLimit(limiter, logger))

		partners := api.Group("/partners")
		{
			partners.GET("/recommendations/:userId", h.Partner.Recommendations)
			partners.POST("/search", vm.ValidateBody(validation.SearchRequest), h.Partner.Search)
			partners.POST("/connect", vm.ValidateBody(validation.ConnectRequest), h.Partner.Connect)
			partners.POST("/respond", vm.ValidateBody(validation.RespondRequest), h.Partner.Respond)
			partners.GET("/matches/:userId", h.Partner.Matches)
		}

		api.POST("/interactions", vm.ValidateBody(validation.InteractionRequest), h.Interaction.Record)
	}

	return router
}
