package runner

import (
	"context"
	"time"

	gateway "turbo_bot/internal/modules/gateway/service"
)

// Clock все ожидания цикла идут через него, в тестах время виртуальное.
type Clock interface {
	Now() time.Time
	Sleep(ctx context.Context, d time.Duration) error
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) Sleep(ctx context.Context, d time.Duration) error {
	return gateway.SleepContext(ctx, d)
}
