package config

import (
	"turbo_bot/pkg/logger"
	"turbo_bot/pkg/tracing"

	"go.uber.org/fx"
)

// initLogging поднимает zap по конфигу и печатает эффективные настройки.
func initLogging(cfg *Config) error {
	logger.SetServiceName(cfg.Service.Name)
	tracing.SetServiceName(cfg.Service.Name)
	if err := logger.Init(cfg.Log.Level, cfg.Log.Development); err != nil {
		return err
	}
	logger.Debug("[CONFIG] effective config:\n%s", cfg.Dump())
	logger.Info("[CONFIG] instrument=%s tf=%dm mode=%s base=%.2f stop_gain=%.2f stop_loss=%.2f max_cycles=%d",
		cfg.Trading.Instrument, cfg.Trading.TimeframeMinutes, cfg.Trading.Mode(),
		cfg.Trading.BaseStake, cfg.Trading.StopGain, cfg.Trading.StopLoss, cfg.Trading.MaxCycles)
	return nil
}

func Module() fx.Option {
	return fx.Module("config",
		fx.Provide(
			NewConfig,
		),
		fx.Invoke(initLogging),
	)
}
