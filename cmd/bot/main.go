package main

import (
	"context"

	"turbo_bot/internal/modules/config"
	"turbo_bot/internal/modules/gateway"
	"turbo_bot/internal/modules/health"
	"turbo_bot/internal/modules/journal"
	"turbo_bot/internal/modules/postgres"
	"turbo_bot/internal/modules/strategy"
	telegram "turbo_bot/internal/modules/telegram_bot"
	"turbo_bot/internal/runner"
	"turbo_bot/pkg/logger"
	"turbo_bot/pkg/tracing"

	"go.uber.org/fx"
)

func initTracing(lc fx.Lifecycle, cfg *config.Config) error {
	_, closer, err := tracing.InitTracer(tracing.Config{
		Host: cfg.Tracing.Host,
		Port: cfg.Tracing.Port,
	})
	if err != nil {
		return err
	}
	if cfg.Tracing.Host != "" {
		logger.Info("[TRACING] jaeger agent %s:%d", cfg.Tracing.Host, cfg.Tracing.Port)
	}
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			closer()
			return nil
		},
	})
	return nil
}

func main() {
	defer logger.Sync()

	app := fx.New(
		fx.Provide(
			func() context.Context {
				return context.Background()
			},
		),
		config.Module(),
		fx.Invoke(initTracing),
		health.Module(),
		postgres.Module(),
		journal.Module(),
		telegram.Module(),
		strategy.Module(),
		gateway.Module(),
		runner.Module(),
	)
	app.Run()
}
