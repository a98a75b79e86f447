package postgres

import (
	"context"
	"fmt"

	"turbo_bot/internal/modules/config"
	"turbo_bot/pkg/db"
	"turbo_bot/pkg/logger"

	"go.uber.org/fx"
)

// newTxManager пул поднимается только для журнала в postgres, иначе nil.
func newTxManager(ctx context.Context, lc fx.Lifecycle, cfg *config.Config) (*db.PgTxManager, error) {
	if cfg.Journal.Driver != "postgres" {
		return nil, nil
	}

	poolMaster, err := db.NewPool(ctx, db.PoolConfig{
		DSN:      cfg.DB,
		MaxConns: 4,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create poolMaster: %w", err)
	}

	err = poolMaster.Ping(ctx)
	if err != nil {
		poolMaster.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	logger.Info("[POSTGRES] pool ready")

	m := db.NewPgTxManager(poolMaster)
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			m.Close()
			return nil
		},
	})
	return m, nil
}

func Module() fx.Option {
	return fx.Module("postgres",
		fx.Provide(
			newTxManager,
		),
	)
}
