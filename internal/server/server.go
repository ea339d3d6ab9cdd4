package server

import (
	"context"
	"sync"

	"field-data-be/internal/bootstrap"
	"field-data-be/internal/config"
	"field-data-be/internal/pkg/serverutils"
	"field-data-be/internal/service"
	"field-data-be/pkg/capture"
	"field-data-be/pkg/capture/relay"
	"field-data-be/pkg/export"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

type Server struct {
	app       *fiber.App
	cfg       *config.Config
	container *bootstrap.Container
}

func New(cfg *config.Config, container *bootstrap.Container) *Server {
	app := fiber.New(fiber.Config{
		BodyLimit:             10 * 1024 * 1024, // 10MB
		DisableStartupMessage: cfg.App.Environment == "production",
	})

	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.App.CorsAllowedOrigins,
		AllowCredentials: true,
		AllowHeaders:     "Origin, Content-Type, Accept",
		AllowMethods:     "GET, POST, PUT, DELETE, OPTIONS",
		ExposeHeaders:    "Content-Length, Content-Type, Content-Disposition, X-Record-Count",
	}))

	// OpenTelemetry tracing middleware (traces all HTTP requests)
	app.Use(otelfiber.Middleware())

	app.Use(serverutils.ErrorHandlerMiddleware())

	registerErrorStatuses()
	registerRoutes(app, container)

	return &Server{
		app:       app,
		cfg:       cfg,
		container: container,
	}
}

func (s *Server) GetApp() *fiber.App {
	return s.app
}

func (s *Server) Run() error {
	s.container.Logger.Info("Server", "Listening", map[string]interface{}{"port": s.cfg.App.Port})
	return s.app.Listen(":" + s.cfg.App.Port)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

var statusOnce sync.Once

func registerErrorStatuses() {
	statusOnce.Do(mapErrorStatuses)
}

func mapErrorStatuses() {
	serverutils.RegisterErrorStatus(fiber.StatusBadRequest,
		service.ErrEmptyNote,
		service.ErrBlankProjectName,
		service.ErrClearNotConfirmed,
		capture.ErrUnsupportedKind,
	)
	serverutils.RegisterErrorStatus(fiber.StatusForbidden, capture.ErrPermissionDenied)
	serverutils.RegisterErrorStatus(fiber.StatusNotFound,
		service.ErrNotFound,
		service.ErrProjectNotFound,
		capture.ErrSessionNotFound,
	)
	serverutils.RegisterErrorStatus(fiber.StatusConflict,
		capture.ErrInvalidTransition,
		capture.ErrNoFrame,
		capture.ErrEmptyRecording,
		relay.ErrAlreadyAttached,
	)
	serverutils.RegisterErrorStatus(fiber.StatusUnprocessableEntity, service.ErrMissingLocation)
	serverutils.RegisterErrorStatus(fiber.StatusInternalServerError, export.ErrSerialization, capture.ErrEncoding)
}

func registerRoutes(app *fiber.App, c *bootstrap.Container) {
	api := app.Group("/api")

	c.ProjectController.RegisterRoutes(api)
	c.RecordController.RegisterRoutes(api)
	c.CaptureController.RegisterRoutes(api)
	c.LocationController.RegisterRoutes(api)
	c.ExportController.RegisterRoutes(api)
	c.NoticeController.RegisterRoutes(api)

	c.StreamHandler.RegisterRoutes(api)
}
