package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"room-studio/internal/common/config"
	"room-studio/internal/common/logging"
	"room-studio/internal/common/middleware"
	"room-studio/internal/room/blob"
	"room-studio/internal/room/gemini"
	"room-studio/internal/room/handlers"
	"room-studio/internal/room/layout"
	"room-studio/internal/room/render"
	"room-studio/internal/room/repository"
	"room-studio/internal/room/service"
	"room-studio/internal/room/vision"

	"github.com/charmbracelet/log"
	"github.com/prometheus/client_golang/prometheus"
)

// ============================================================
// Room Service
// ============================================================

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("load config", "err", err)
	}
	logger := logging.New(os.Stderr, logging.ParseLevel(cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	backend, err := repository.Open(ctx, repository.Config{
		Driver:    repository.Driver(cfg.Store.Driver),
		DSN:       cfg.Store.DSN,
		RedisAddr: cfg.Store.RedisAddr,
		RedisDB:   cfg.Store.RedisDB,
		RedisPass: cfg.Store.RedisPass,
	})
	if err != nil {
		logger.Fatal("open layout store", "driver", cfg.Store.Driver, "err", err)
	}
	defer backend.Close()

	blobs, err := blob.Open(ctx, blob.Config{
		Driver: blob.Driver(cfg.Blob.Driver),
		Root:   cfg.Blob.Root,
		S3: blob.S3Config{
			Bucket:    cfg.Blob.S3Bucket,
			Region:    cfg.Blob.S3Region,
			Endpoint:  cfg.Blob.S3Endpoint,
			PathStyle: cfg.Blob.S3PathStyle,
		},
	})
	if err != nil {
		logger.Fatal("open blob store", "driver", cfg.Blob.Driver, "err", err)
	}

	analyzer, renderer, err := upstreams(ctx, cfg.Upstream)
	if err != nil {
		logger.Fatal("configure upstreams", "err", err)
	}

	opts, err := serviceOptions(cfg)
	if err != nil {
		logger.Fatal("invalid layout options", "err", err)
	}

	locks := service.NewSessionLocks()
	service.RegisterActiveSessions(prometheus.DefaultRegisterer, locks)

	svc := service.New(service.Deps{
		Store:    service.NewLayoutStore(backend),
		Blobs:    blobs,
		Analyzer: analyzer,
		Renderer: renderer,
		Locks:    locks,
		Metrics:  service.NewMetrics(prometheus.DefaultRegisterer),
		Logger:   logger,
	}, opts)

	app := handlers.NewApp(handlers.AppConfig{
		Service:        svc,
		Logger:         logger,
		Metrics:        middleware.NewHTTPMetrics(prometheus.DefaultRegisterer, prometheus.DefaultGatherer),
		MaxUploadBytes: cfg.Upload.MaxBytes,
		ReadTimeout:    time.Duration(cfg.ReadTimeout) * time.Second,
		WriteTimeout:   time.Duration(cfg.WriteTimeout) * time.Second,
	})

	// ============================================================
	// Server Start
	// ============================================================

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := app.ShutdownWithContext(shutdownCtx); err != nil {
			logger.Error("shutdown", "err", err)
		}
	}()

	addr := fmt.Sprintf(":%s", cfg.Port)
	logger.Info("starting room service", "addr", addr, "env", cfg.Environment,
		"store", cfg.Store.Driver, "blob", blobs.Driver(), "render", cfg.Upstream.RenderDriver)

	if err := app.Listen(addr); err != nil {
		logger.Fatal("failed to start server", "err", err)
	}
}

func serviceOptions(cfg *config.Config) (service.Options, error) {
	policy, err := layout.ParsePolicy(cfg.Layout.RangePolicy)
	if err != nil {
		return service.Options{}, err
	}
	base, err := service.ParseMergeBase(cfg.Layout.MergeBase)
	if err != nil {
		return service.Options{}, err
	}
	return service.Options{
		MergeBase:       base,
		RangePolicy:     policy,
		ValidateOnMerge: cfg.Layout.ValidateOnMerge,
		AnalyzeTimeout:  time.Duration(cfg.Upstream.AnalyzeTimeout) * time.Second,
		RenderTimeout:   time.Duration(cfg.Upstream.RenderTimeout) * time.Second,
		MaxUploadBytes:  cfg.Upload.MaxBytes,
	}, nil
}

// upstreams выбирает анализатор и рендерер. Клиент Gemini создаётся, только
// если он действительно нужен.
func upstreams(ctx context.Context, cfg config.UpstreamConfig) (vision.Analyzer, render.Renderer, error) {
	var models gemini.Generator
	needGemini := cfg.Fixture == "" || cfg.RenderDriver == "gemini" || cfg.RenderDriver == ""
	if needGemini {
		m, err := gemini.NewModels(ctx, cfg.GeminiAPIKey)
		if err != nil {
			return nil, nil, err
		}
		models = m
	}

	var analyzer vision.Analyzer
	if cfg.Fixture != "" {
		f, err := vision.NewFixtureFromFile(cfg.Fixture)
		if err != nil {
			return nil, nil, err
		}
		analyzer = f
	} else {
		analyzer = vision.NewGemini(models, cfg.VisionModel)
	}

	var renderer render.Renderer
	switch cfg.RenderDriver {
	case "gemini", "":
		renderer = render.NewGemini(models, cfg.ImageModel)
	case "sketch":
		renderer = render.NewSketch(render.FormatPNG)
	case "remote":
		if cfg.RenderURL == "" {
			return nil, nil, fmt.Errorf("render_url is required for the remote renderer")
		}
		renderer = render.NewRemote(cfg.RenderURL, &http.Client{})
	default:
		return nil, nil, fmt.Errorf("unknown render driver %q", cfg.RenderDriver)
	}
	return analyzer, renderer, nil
}
