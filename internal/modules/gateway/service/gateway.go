package service

import (
	"context"
	"time"

	"turbo_bot/internal/models"
)

// Gateway сессия у брокера. Одна на весь процесс, вызовы строго последовательные.
type Gateway interface {
	Connect(ctx context.Context) error
	SelectAccountMode(ctx context.Context, mode models.AccountMode) error
	// FetchHistory count свечей, заканчивающихся на asOf, от старых к новым.
	FetchHistory(ctx context.Context, instrument string, timeframe time.Duration, count int, asOf time.Time) ([]models.PriceBar, error)
	SubmitOrder(ctx context.Context, req models.OrderRequest) (models.OrderResult, error)
	// FetchSettlement ErrNotSettled, пока опцион не закрыт.
	FetchSettlement(ctx context.Context, orderID string) (float64, error)
	Close() error
}
