package gateway

import (
	"context"

	"turbo_bot/internal/modules/config"
	"turbo_bot/internal/modules/gateway/service"
	health "turbo_bot/internal/modules/health/service"
	"turbo_bot/pkg/logger"

	"go.uber.org/fx"
)

func newGateway(cfg *config.Config) service.Gateway {
	b := cfg.Broker
	switch b.Driver {
	case "bridge":
		logger.Info("[GATEWAY] using websocket bridge %s", b.URL)
		return service.NewBridge(service.BridgeConfig{
			URL:            b.URL,
			Email:          b.Email,
			Password:       b.Password,
			RequestTimeout: b.RequestTimeout,
		})
	default:
		logger.Info("[GATEWAY] using paper broker")
		return service.NewPaper(service.PaperConfig{
			Seed:   b.PaperSeed,
			Payout: b.PaperPayout,
		})
	}
}

func newRetryPolicy(cfg *config.Config, m *health.Metrics) service.RetryPolicy {
	p := service.DefaultRetryPolicy()
	p.Attempts = cfg.Retry.Attempts
	p.Backoff = service.LinearBackoff(cfg.Retry.Backoff)
	p.OnRetry = func(op string, attempt int, err error) {
		m.GatewayRetries.WithLabelValues(op).Inc()
	}
	return p
}

func Module() fx.Option {
	return fx.Module("gateway",
		fx.Provide(
			newGateway,
			newRetryPolicy,
			service.NewAdapter, // *service.Adapter
		),
		fx.Invoke(func(lc fx.Lifecycle, a *service.Adapter) {
			lc.Append(fx.Hook{
				OnStop: func(ctx context.Context) error {
					return a.Close()
				},
			})
		}),
	)
}
