package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"household-meal-planner/internal/app"
	"household-meal-planner/internal/auth"
	"household-meal-planner/internal/config"
	"household-meal-planner/internal/httpapi"
	"household-meal-planner/internal/logger"
	"household-meal-planner/internal/telegram"

	"go.uber.org/zap"
)

func main() {
	// 1. Load Configuration
	cfg, err := config.NewFromEnv()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zlog, err := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat, Name: "server"})
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer zlog.Sync()

	ctx := context.Background()

	// 2. Initialize Infrastructure
	components, err := app.Bootstrap(ctx, cfg, zlog)
	if err != nil {
		zlog.Fatal("failed to initialize", zap.Error(err))
	}
	defer components.Close()

	var verifier *auth.Verifier
	if cfg.SessionSecret != "" {
		if verifier, err = auth.NewVerifier(cfg.SessionSecret); err != nil {
			zlog.Fatal("failed to create session verifier", zap.Error(err))
		}
	} else {
		zlog.Warn("SESSION_SECRET not set, every caller is anonymous")
	}

	// 3. HTTP API
	router := httpapi.NewHandler(components.Service, verifier, components.Collectors, components.DataDir, zlog).
		TrustProxies(cfg.TrustedProxies).
		Routes()

	// 4. Telegram Bot (optional)
	if cfg.TelegramBotToken != "" {
		bot, err := telegram.NewBot(cfg, components.Service, components.Metrics, components.Catalog.Cuisines(), components.DataDir, zlog)
		if err != nil {
			zlog.Fatal("failed to initialize telegram bot", zap.Error(err))
		}
		router.Post("/webhook", bot.HandleWebhook)
	}

	// 5. Start Server with Graceful Shutdown
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		zlog.Info("server listening", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zlog.Info("shutting down server")

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctxShutdown); err != nil {
		zlog.Error("server forced to shutdown", zap.Error(err))
	}

	zlog.Info("server exiting")
}
