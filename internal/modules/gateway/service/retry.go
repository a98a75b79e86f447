package service

import (
	"context"
	"errors"
	"time"
)

// Backoff пауза перед следующей попыткой; attempt начинается с 1.
type Backoff func(attempt int) time.Duration

// LinearBackoff base, 2*base, 3*base...
func LinearBackoff(base time.Duration) Backoff {
	return func(attempt int) time.Duration {
		return time.Duration(attempt) * base
	}
}

// SleepContext спит d или до отмены ctx.
func SleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

type permanentError struct{ err error }

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent помечает ошибку, после которой Retry не повторяет.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

type RetryPolicy struct {
	Attempts int
	Backoff  Backoff
	Sleep    func(ctx context.Context, d time.Duration) error
	// OnRetry вызывается после каждой неудачной попытки, кроме последней.
	OnRetry func(op string, attempt int, err error)
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		Attempts: 5,
		Backoff:  LinearBackoff(time.Second),
		Sleep:    SleepContext,
	}
}

// Retry выполняет fn до p.Attempts раз. Отмена ctx прерывает сразу.
// Возвращает ошибку последней попытки и число сделанных попыток.
func Retry[T any](ctx context.Context, p RetryPolicy, op string, fn func(ctx context.Context) (T, error)) (T, int, error) {
	attempts := p.Attempts
	if attempts < 1 {
		attempts = 1
	}
	sleep := p.Sleep
	if sleep == nil {
		sleep = SleepContext
	}

	var (
		zero    T
		lastErr error
	)
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, attempt - 1, err
		}

		v, err := fn(ctx)
		if err == nil {
			return v, attempt, nil
		}
		lastErr = err
		var pe *permanentError
		if errors.As(err, &pe) {
			return zero, attempt, err
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			if ctx.Err() != nil {
				return zero, attempt, err
			}
		}
		if attempt == attempts {
			break
		}

		if p.OnRetry != nil {
			p.OnRetry(op, attempt, err)
		}
		var d time.Duration
		if p.Backoff != nil {
			d = p.Backoff(attempt)
		}
		if err := sleep(ctx, d); err != nil {
			return zero, attempt, err
		}
	}
	return zero, attempts, lastErr
}
