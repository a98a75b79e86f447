package strategy

import (
	"turbo_bot/internal/modules/config"
	"turbo_bot/internal/modules/strategy/service"
	"turbo_bot/pkg/logger"

	"go.uber.org/fx"
)

func newEngine(cfg *config.Config) service.Engine {
	s := cfg.Strategy
	e := service.NewEMARSI(service.Params{
		FastPeriod:    s.FastPeriod,
		SlowPeriod:    s.SlowPeriod,
		RSIPeriod:     s.RSIPeriod,
		BullThreshold: s.BullThreshold,
		BearThreshold: s.BearThreshold,
	})
	if cfg.Trading.HistoryBars < e.MinBars() {
		logger.Warn("[STRAT] history_bars=%d < %d: indicators stay undefined, no trades will be placed",
			cfg.Trading.HistoryBars, e.MinBars())
	}
	return e
}

func Module() fx.Option {
	return fx.Module("strategy",
		fx.Provide(
			newEngine,
		),
	)
}
