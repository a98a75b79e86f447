package telegram

import (
	"turbo_bot/internal/modules/config"
	"turbo_bot/internal/modules/telegram_bot/service"
	"turbo_bot/internal/notify"
	"turbo_bot/pkg/logger"

	"go.uber.org/fx"
)

// newNotifier без токена или чата всё пишется в лог.
func newNotifier(cfg *config.Config) notify.Notifier {
	tg := cfg.Telegram
	if tg.Token == "" || tg.ChatID == 0 {
		logger.Info("[TG] token or chat_id not set, notifications go to log")
		return notify.NewLog()
	}

	t, err := service.NewTelegram(tg.Token, tg.ChatID)
	if err != nil {
		logger.Error("[TG] bot init failed, falling back to log: %v", err)
		return notify.NewLog()
	}
	return t
}

func Module() fx.Option {
	return fx.Module("telegram",
		fx.Provide(
			newNotifier,
		),
	)
}
