package service

import (
	"context"
	"math"
	"time"

	"turbo_bot/internal/models"
	"turbo_bot/pkg/logger"

	"github.com/pkg/errors"
)

// Adapter оборачивает каждый вызов Gateway в общий Retry и
// переводит исчерпание попыток в типизированные ошибки.
type Adapter struct {
	gw     Gateway
	policy RetryPolicy
}

func NewAdapter(gw Gateway, policy RetryPolicy) *Adapter {
	return &Adapter{gw: gw, policy: policy}
}

func (a *Adapter) exhausted(ctx context.Context, kind error, op string, attempts int, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return &ExhaustedError{Kind: kind, Op: op, Attempts: attempts, Last: err}
}

// Connect логин и выбор счёта одной операцией: повтор начинается с логина.
func (a *Adapter) Connect(ctx context.Context, mode models.AccountMode) error {
	_, n, err := Retry(ctx, a.policy, "connect", func(ctx context.Context) (struct{}, error) {
		if err := a.gw.Connect(ctx); err != nil {
			logger.Warn("[GATEWAY] connect failed: %v", err)
			return struct{}{}, errors.Wrap(err, "connect")
		}
		if err := a.gw.SelectAccountMode(ctx, mode); err != nil {
			logger.Warn("[GATEWAY] select account %s failed: %v", mode, err)
			return struct{}{}, errors.Wrapf(err, "select account %s", mode)
		}
		return struct{}{}, nil
	})
	if err != nil {
		return a.exhausted(ctx, ErrConnectionExhausted, "connect", n, err)
	}
	return nil
}

// History пустой или битый ответ считается сбоем и повторяется.
func (a *Adapter) History(ctx context.Context, instrument string, timeframe time.Duration, count int, asOf time.Time) ([]models.PriceBar, error) {
	bars, n, err := Retry(ctx, a.policy, "history", func(ctx context.Context) ([]models.PriceBar, error) {
		bars, err := a.gw.FetchHistory(ctx, instrument, timeframe, count, asOf)
		if err != nil {
			logger.Warn("[GATEWAY] history %s failed: %v", instrument, err)
			return nil, errors.Wrapf(err, "history %s", instrument)
		}
		if err := ValidateHistory(bars); err != nil {
			logger.Warn("[GATEWAY] history %s rejected: %v", instrument, err)
			return nil, err
		}
		return bars, nil
	})
	if err != nil {
		return nil, a.exhausted(ctx, ErrHistoryUnavailable, "history", n, err)
	}
	return bars, nil
}

// Submit отказ брокера (Accepted == false) не ошибка и не повторяется.
// Потерянный ответ тоже не повторяется: ордер мог уже стоять.
func (a *Adapter) Submit(ctx context.Context, req models.OrderRequest) (models.OrderResult, error) {
	res, n, err := Retry(ctx, a.policy, "submit", func(ctx context.Context) (models.OrderResult, error) {
		res, err := a.gw.SubmitOrder(ctx, req)
		if err != nil {
			if errors.Is(err, ErrResponseLost) {
				logger.Error("[GATEWAY] submit %s %s %.2f: response lost, not retrying: %v", req.Instrument, req.Side, req.Stake, err)
				return models.OrderResult{}, Permanent(errors.Wrap(err, "submit"))
			}
			logger.Warn("[GATEWAY] submit %s %s %.2f failed: %v", req.Instrument, req.Side, req.Stake, err)
			return models.OrderResult{}, errors.Wrap(err, "submit")
		}
		return res, nil
	})
	if err != nil {
		return models.OrderResult{}, a.exhausted(ctx, ErrOrderUnavailable, "submit", n, err)
	}
	if res.Accepted && res.OrderID == "" {
		logger.Error("[GATEWAY] broker accepted order without id, treating as rejected")
		return models.OrderResult{}, nil
	}
	if !res.Accepted {
		res.OrderID = ""
	}
	return res, nil
}

// Settlement опрашивает результат; ErrNotSettled тоже повторяется.
func (a *Adapter) Settlement(ctx context.Context, orderID string) (float64, error) {
	out, n, err := Retry(ctx, a.policy, "settlement", func(ctx context.Context) (float64, error) {
		v, err := a.gw.FetchSettlement(ctx, orderID)
		if err != nil {
			if !errors.Is(err, ErrNotSettled) {
				logger.Warn("[GATEWAY] settlement %s failed: %v", orderID, err)
			}
			return 0, errors.Wrapf(err, "settlement %s", orderID)
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, errors.Errorf("settlement %s: non-finite outcome", orderID)
		}
		return v, nil
	})
	if err != nil {
		return 0, a.exhausted(ctx, ErrSettlementUnknown, "settlement", n, err)
	}
	return out, nil
}

func (a *Adapter) Close() error {
	return a.gw.Close()
}

// ValidateHistory непусто, время строго растёт, закрытия конечные и > 0.
func ValidateHistory(bars []models.PriceBar) error {
	if len(bars) == 0 {
		return errors.Wrap(ErrMalformedHistory, "empty")
	}
	for i, b := range bars {
		if math.IsNaN(b.Close) || math.IsInf(b.Close, 0) || b.Close <= 0 {
			return errors.Wrapf(ErrMalformedHistory, "bar %d: close %v", i, b.Close)
		}
		if i > 0 && !b.Time.After(bars[i-1].Time) {
			return errors.Wrapf(ErrMalformedHistory, "bar %d: time %s not after %s", i, b.Time, bars[i-1].Time)
		}
	}
	return nil
}
