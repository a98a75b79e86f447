package service

import (
	"context"
	"fmt"
	"time"

	"turbo_bot/internal/notify"
	"turbo_bot/pkg/logger"

	tgbot "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Sender часть tgbot.BotAPI, которая нужна нотифайеру.
type Sender interface {
	Send(c tgbot.Chattable) (tgbot.Message, error)
}

// Telegram пассивный нотифайер в один чат оператора.
type Telegram struct {
	bot     Sender
	chatID  int64
	timeout time.Duration
}

var _ notify.Notifier = (*Telegram)(nil)

func NewTelegram(token string, chatID int64) (*Telegram, error) {
	b, err := tgbot.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	logger.Info("[TG] authorized as @%s", b.Self.UserName)
	return NewTelegramWithSender(b, chatID), nil
}

func NewTelegramWithSender(bot Sender, chatID int64) *Telegram {
	return &Telegram{bot: bot, chatID: chatID, timeout: 10 * time.Second}
}

// Send не блокирует цикл дольше timeout.
func (t *Telegram) Send(ctx context.Context, msg string) {
	if t == nil || t.bot == nil || t.chatID == 0 {
		return
	}

	done := make(chan error, 1)
	go func() {
		m := tgbot.NewMessage(t.chatID, msg)
		m.DisableWebPagePreview = true
		_, err := t.bot.Send(m)
		done <- err
	}()

	tmr := time.NewTimer(t.timeout)
	defer tmr.Stop()

	select {
	case err := <-done:
		if err != nil {
			logger.Warn("[TG] send failed: %v", err)
		}
	case <-tmr.C:
		logger.Warn("[TG] send timed out after %s", t.timeout)
	case <-ctx.Done():
	}
}

func (t *Telegram) Sendf(ctx context.Context, format string, args ...any) {
	t.Send(ctx, fmt.Sprintf(format, args...))
}
