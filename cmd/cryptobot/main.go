package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/lodygens/cryptobot/internal/bootstrap"
	"github.com/lodygens/cryptobot/internal/config"
	"github.com/lodygens/cryptobot/internal/infrastructure/logx"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

func init() { _ = godotenv.Load() }

func main() {
	replay := pflag.Bool("replay", false, "replay stored history to the notifier and exit")
	cfgPath := pflag.String("config", envOr("CONFIG_PATH", config.DefaultConfigPath), "path to the YAML config file")
	pflag.Parse()

	os.Exit(run(*cfgPath, *replay))
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func run(cfgPath string, replay bool) int {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		logx.L().Error("load config", zap.String("path", cfgPath), zap.Error(err))
		return 1
	}
	logx.SetLevel(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx = logx.WithRunID(ctx, uuid.NewString())
	log := logx.WithFields(ctx)
	defer func() { _ = log.Sync() }()

	app, cleanup, err := bootstrap.InitApp(ctx, cfg, log)
	defer cleanup()
	if err != nil {
		log.Error("bootstrap", zap.Error(err))
		return 1
	}

	if replay {
		report, err := app.RunReplay(ctx)
		if err != nil && !errors.Is(err, context.Canceled) {
			log.Error("replay failed", zap.Int("sent", report.Sent), zap.Error(err))
			return 1
		}
		return 0
	}

	log.Info("ingestion started", zap.Int("pairs", len(cfg.Pairs)), zap.Duration("interval", cfg.Interval.D()))
	if err := app.RunIngest(ctx); err != nil {
		log.Error("ingestion stopped", zap.Error(err))
		return 1
	}
	log.Info("shutdown complete")
	return 0
}
