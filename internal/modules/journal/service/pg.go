package service

import (
	"context"

	"turbo_bot/internal/models"
	"turbo_bot/pkg/db"

	"github.com/pkg/errors"
)

const createCycleJournal = `
CREATE TABLE IF NOT EXISTS cycle_journal (
	id                 BIGSERIAL PRIMARY KEY,
	run_id             TEXT             NOT NULL,
	cycle              INT              NOT NULL,
	recorded_at        TIMESTAMPTZ      NOT NULL,
	instrument         TEXT             NOT NULL,
	side               TEXT             NOT NULL,
	fast               DOUBLE PRECISION,
	slow               DOUBLE PRECISION,
	rsi                DOUBLE PRECISION,
	stake              DOUBLE PRECISION NOT NULL,
	order_id           TEXT,
	result             TEXT             NOT NULL,
	outcome            DOUBLE PRECISION NOT NULL,
	accumulated_profit DOUBLE PRECISION NOT NULL,
	reinvest_streak    INT              NOT NULL,
	error              TEXT
)`

const insertCycle = `
INSERT INTO cycle_journal (
	run_id, cycle, recorded_at, instrument, side, fast, slow, rsi,
	stake, order_id, result, outcome, accumulated_profit, reinvest_streak, error
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NULLIF($10, ''), $11, $12, $13, $14, NULLIF($15, ''))`

type Postgres struct {
	tx db.TxManager
}

func NewPostgres(ctx context.Context, tx db.TxManager) (*Postgres, error) {
	err := tx.RunMaster(ctx, func(ctx context.Context, t db.Transaction) error {
		_, err := t.Exec(ctx, createCycleJournal)
		return err
	})
	if err != nil {
		return nil, errors.Wrap(err, "create cycle_journal")
	}
	return &Postgres{tx: tx}, nil
}

func (p *Postgres) Append(ctx context.Context, rec models.CycleRecord) error {
	return p.tx.RunMaster(ctx, func(ctx context.Context, t db.Transaction) error {
		_, err := t.Exec(ctx, insertCycle,
			rec.RunID, rec.Cycle, rec.RecordedAt, rec.Instrument, string(rec.Side),
			rec.Fast, rec.Slow, rec.RSI,
			rec.Stake, rec.OrderID, string(rec.Result), rec.Outcome,
			rec.AccumulatedProfit, rec.ReinvestStreak, rec.Error,
		)
		return err
	})
}

func (p *Postgres) Close() error { return nil }
