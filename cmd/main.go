package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"retouch-bot/config"
	telegram "retouch-bot/internal/api"
	"retouch-bot/internal/container"
	"retouch-bot/internal/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zl, err := logger.New(cfg.Log.Mode)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync(zl)

	if cfg.Telegram.Token == "" {
		zl.Fatal("TELEGRAM_TOKEN is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Собираем бэкенд, хранилище документов и превью
	appContainer, err := container.New(ctx, cfg, zl)
	if err != nil {
		zl.Fatal("failed to build container", zap.Error(err))
	}
	defer appContainer.Close()

	// Создаём бота
	bot, err := telegram.NewBot(cfg.Telegram.Token, appContainer, zl)
	if err != nil {
		zl.Fatal("failed to create bot", zap.Error(err))
	}

	zl.Info("bot is running", zap.String("backend", appContainer.Backend.BaseURL()))
	if err := bot.Run(ctx); err != nil {
		zl.Fatal("bot error", zap.Error(err))
	}
	zl.Info("bot stopped")
}
