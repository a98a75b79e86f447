package service

import (
	"context"

	"turbo_bot/internal/models"
)

// Journal журнал циклов только на запись. Ошибка записи не останавливает торговлю.
type Journal interface {
	Append(ctx context.Context, rec models.CycleRecord) error
	Close() error
}

type Nop struct{}

func (Nop) Append(context.Context, models.CycleRecord) error { return nil }
func (Nop) Close() error                                     { return nil }
