package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"smsrent/internal/activation"
	"smsrent/internal/bot"
	"smsrent/internal/config"
	"smsrent/internal/health"
	"smsrent/internal/logger"
	"smsrent/internal/provider"
	"smsrent/internal/session"
	"smsrent/internal/storage"
)

const defaultConfigPath = "config.yaml"

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "fatal:", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = defaultConfigPath
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	if err := logger.InitLogger(cfg); err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer func() {
		if err := logger.Shutdown(); err != nil {
			fmt.Fprintln(os.Stderr, "logger shutdown:", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var audit *storage.Log
	if cfg.Database.Enabled {
		if err := storage.RunMigrations(cfg.Database); err != nil {
			return fmt.Errorf("migrations: %w", err)
		}
		db, err := storage.Connect(cfg.Database)
		if err != nil {
			return fmt.Errorf("storage: %w", err)
		}
		defer db.Close()
		audit = storage.NewLog(db)
	} else {
		logger.DB.Info("activation log disabled", slog.String("event", "db.skip"))
	}

	if cfg.Health.Enabled {
		go func() {
			if err := health.Run(ctx, cfg.Health.Listen); err != nil {
				logger.L.Error("health listener stopped",
					slog.String("event", "health.stop"),
					slog.String("err", err.Error()),
				)
			}
		}()
	}

	api := provider.New(provider.Config{
		BaseURL: cfg.Provider.BaseURL,
		APIKey:  cfg.Provider.APIKey,
		Lang:    cfg.Provider.Lang,
		Timeout: time.Duration(cfg.Provider.TimeoutSeconds) * time.Second,
	})
	flow := activation.NewFlow(api)
	sessions := session.NewStore()
	handlers := bot.NewHandlers(api, flow, sessions, audit)

	logger.L.Info("starting",
		slog.String("event", "boot"),
		slog.String("run_mode", cfg.Telegram.RunMode),
		slog.Bool("db", cfg.Database.Enabled),
		slog.Bool("health", cfg.Health.Enabled),
	)

	if err := bot.Run(ctx, bot.RunOptions{
		Config:   cfg,
		Registry: bot.NewRegistry(),
		Handlers: handlers,
	}); err != nil {
		return fmt.Errorf("telegram: %w", err)
	}

	logger.L.Info("stopped", slog.String("event", "shutdown"))
	return nil
}
