package notify

import (
	"context"
	"fmt"

	"turbo_bot/pkg/logger"
)

// Notifier оповещения оператору. Доставка best effort, ошибки только логируются.
type Notifier interface {
	Send(ctx context.Context, msg string)
	Sendf(ctx context.Context, format string, args ...any)
}

// Log заглушка без телеграма: всё уходит в лог.
type Log struct{}

func NewLog() *Log { return &Log{} }

func (Log) Send(_ context.Context, msg string) { logger.Info("[NOTIFY] %s", msg) }

func (l Log) Sendf(ctx context.Context, format string, args ...any) {
	l.Send(ctx, fmt.Sprintf(format, args...))
}
