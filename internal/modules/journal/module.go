package journal

import (
	"context"

	"turbo_bot/internal/modules/config"
	"turbo_bot/internal/modules/journal/service"
	"turbo_bot/pkg/db"
	"turbo_bot/pkg/logger"

	"go.uber.org/fx"
)

func newJournal(ctx context.Context, lc fx.Lifecycle, cfg *config.Config, pg *db.PgTxManager) (service.Journal, error) {
	var (
		j   service.Journal
		err error
	)
	switch cfg.Journal.Driver {
	case "postgres":
		j, err = service.NewPostgres(ctx, pg)
	case "file":
		j, err = service.NewFile(cfg.Journal.Path)
	default:
		j = service.Nop{}
	}
	if err != nil {
		return nil, err
	}
	logger.Info("[JOURNAL] driver=%s", cfg.Journal.Driver)

	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return j.Close()
		},
	})
	return j, nil
}

func Module() fx.Option {
	return fx.Module("journal",
		fx.Provide(
			newJournal,
		),
	)
}
