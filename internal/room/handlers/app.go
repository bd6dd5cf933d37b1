package handlers

import (
	"io"
	"time"

	"room-studio/internal/common/middleware"
	"room-studio/internal/room/service"

	"github.com/charmbracelet/log"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/recover"
)

type AppConfig struct {
	Service        *service.RoomService
	Logger         *log.Logger
	AccessLog      io.Writer // nil - stdout
	Metrics        *middleware.HTTPMetrics
	MaxUploadBytes int64
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
}

// NewApp собирает fiber-приложение со всеми маршрутами сервиса.
func NewApp(cfg AppConfig) *fiber.App {
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = service.DefaultMaxUploadBytes
	}
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}

	app := fiber.New(fiber.Config{
		AppName:      "Room Studio",
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		// запас на multipart-обвязку вокруг файла
		BodyLimit:    int(cfg.MaxUploadBytes) + 1<<20,
		ErrorHandler: ErrorHandler,
	})

	// ============================================================
	// Global Middleware
	// ============================================================

	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(middleware.Logger(cfg.AccessLog))
	app.Use(middleware.CORS())
	app.Use(middleware.RequestLogger(cfg.Logger))
	if cfg.Metrics != nil {
		app.Use(cfg.Metrics.Handler())
	}

	// ============================================================
	// Health Check Routes
	// ============================================================

	app.Get("/health/live", LivenessProbe)
	app.Get("/health/ready", ReadinessProbe(cfg.Service))
	if cfg.Metrics != nil {
		app.Get("/metrics", cfg.Metrics.Endpoint())
	}

	app.Get("/docs", SwaggerUI)
	app.Get("/docs/openapi.yaml", OpenAPISpec)

	// ============================================================
	// Room Routes
	// ============================================================

	api := app.Group("/api/v1")
	api.Get("/", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"message": "Room Studio API v1",
			"status":  "ok",
		})
	})
	NewRoomHandler(cfg.Service, cfg.MaxUploadBytes).Register(api)

	return app
}
