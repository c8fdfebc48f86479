package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"transcript-formatter/internal/adapters/parser"
	"transcript-formatter/internal/cache"
	"transcript-formatter/internal/core/services"
	applog "transcript-formatter/internal/log"
	"transcript-formatter/internal/pkg/config"
	"transcript-formatter/internal/pkg/geometry"
	"transcript-formatter/internal/server"
	"transcript-formatter/internal/server/usecase"
)

func main() {
	if err := run(); err != nil {
		slog.Error("application run failed", "error", err)
		os.Exit(1)
	}
}

// run инкапсулирует всю логику инициализации и запуска приложения.
func run() error {
	// 1. Загрузка конфигурации
	cfg, err := config.LoadConfig()
	if err != nil {
		// Логгер еще не инициализирован, выводим в stderr
		_, _ = fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 2. Инициализация логгера
	logger := applog.New(os.Stdout, cfg.Logging.Level, cfg.Logging.Format)
	slog.SetDefault(logger)

	// 3. Валидация конфигурации (после инициализации логгера)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	// 4. Инициализация зависимостей
	taskStore := server.NewTaskStore()
	cacheStore := cache.NewCacheStore()
	parserSvc := parser.NewJsonParser()
	formatterSvc := services.NewFormatter(
		services.WithStrict(cfg.Formatter.Strict),
		services.WithLogger(logger),
		services.WithMediaBounds(geometry.Bounds{Width: cfg.Formatter.MaxMediaWidth, Height: cfg.Formatter.MaxMediaHeight}),
		services.WithGroupWindow(cfg.Formatter.GroupWindow),
	)
	processor := usecase.NewFormatTranscriptUseCase(cfg, parserSvc, formatterSvc, cacheStore)

	// 5. Создание HTTP-сервера
	srv, err := server.New(cfg, processor, taskStore, cacheStore)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	// 6. Запуск сервера и graceful shutdown
	serverDone := make(chan struct{})
	go func() {
		defer close(serverDone)
		slog.Info("Starting server", "addr", cfg.Address(), "strict", cfg.Formatter.Strict)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server error", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("Signal received, shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
	}

	<-serverDone
	slog.Info("Application exited gracefully")
	return nil
}
