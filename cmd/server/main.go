package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"cyoa-server/internal/app"
	"cyoa-server/internal/config"
	"cyoa-server/internal/handler"
	"cyoa-server/internal/logger"
	"cyoa-server/internal/middleware"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

//go:generate swag init -g main.go -d ./,../../internal/handler,../../internal/models,../../internal/service -o ../../docs

// @title						Story Graph API
// @version					1.0
// @description				Branching story graph, player progress and achievements.
// @BasePath					/api/story
// @accept						json
// @produce					json
func main() {
	_ = godotenv.Load()

	// Config is loaded before the logger exists, so its errors go to the standard log.
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	zapLogger, err := logger.New(logger.Config{Level: cfg.LogLevel, Encoding: cfg.LogEncoding})
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer func() { _ = zapLogger.Sync() }()
	zapLogger.Info("Starting story server",
		zap.String("port", cfg.Port),
		zap.String("storage", cfg.StorageDriver),
		zap.String("logLevel", cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := app.OpenStore(ctx, cfg, zapLogger)
	if err != nil {
		zapLogger.Fatal("Failed to open store", zap.Error(err))
	}
	defer closeStore()

	publisher, closePublisher, err := app.OpenPublisher(ctx, cfg, zapLogger)
	if err != nil {
		zapLogger.Fatal("Failed to open event publisher", zap.Error(err))
	}
	defer closePublisher()

	limiter, closeLimiter, err := app.OpenLimiter(ctx, cfg, zapLogger)
	if err != nil {
		zapLogger.Fatal("Failed to create rate limiter", zap.Error(err))
	}
	defer closeLimiter()

	services := app.NewServices(store, publisher, zapLogger)
	storyHandler := handler.NewStoryHandler(services.Graph, services.Branching, services.Progress, services.Images, zapLogger)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewRequestValidator()
	e.Use(echoMiddleware.Recover())
	e.Use(middleware.EchoZapLogger(zapLogger))
	e.Use(middleware.Metrics())
	e.Use(echoMiddleware.CORSWithConfig(echoMiddleware.CORSConfig{
		AllowOrigins: cfg.CORSAllowedOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, middleware.HeaderUserID},
	}))
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	var apiMiddleware []echo.MiddlewareFunc
	if limiter != nil {
		apiMiddleware = append(apiMiddleware, middleware.RateLimit(limiter, zapLogger))
	}
	storyHandler.RegisterRoutes(e, apiMiddleware...)

	go func() {
		zapLogger.Info("HTTP server listening", zap.String("address", ":"+cfg.Port))
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLogger.Error("HTTP server failed", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	zapLogger.Info("Shutdown signal received, stopping server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		zapLogger.Error("Graceful shutdown failed", zap.Error(err))
	}
	zapLogger.Info("Story server stopped")
}
