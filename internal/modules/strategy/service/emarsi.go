package service

import (
	"fmt"

	"turbo_bot/internal/models"
)

type Params struct {
	FastPeriod    int
	SlowPeriod    int
	RSIPeriod     int
	BullThreshold float64
	BearThreshold float64
}

func DefaultParams() Params {
	return Params{
		FastPeriod:    5,
		SlowPeriod:    12,
		RSIPeriod:     14,
		BullThreshold: 50,
		BearThreshold: 50,
	}
}

// EMARSI пересечение быстрой/медленной EMA с фильтром RSI.
// Состояния между вызовами нет: всё считается по переданной истории.
type EMARSI struct {
	p Params
}

var _ Engine = (*EMARSI)(nil)

func NewEMARSI(p Params) *EMARSI {
	return &EMARSI{p: p}
}

func (e *EMARSI) Name() string { return string(models.StrategyEMARSI) }

func (e *EMARSI) Params() Params { return e.p }

// MinBars сколько свечей нужно, чтобы все индикаторы были определены.
func (e *EMARSI) MinBars() int {
	n := e.p.SlowPeriod
	if e.p.FastPeriod > n {
		n = e.p.FastPeriod
	}
	if e.p.RSIPeriod+1 > n {
		n = e.p.RSIPeriod + 1
	}
	return n
}

func (e *EMARSI) Snapshot(closes []float64) models.Snapshot {
	var s models.Snapshot
	if v, ok := TrailingEMA(closes, e.p.FastPeriod); ok {
		s.Fast = &v
	}
	if v, ok := TrailingEMA(closes, e.p.SlowPeriod); ok {
		s.Slow = &v
	}
	if v, ok := WilderRSI(closes, e.p.RSIPeriod); ok {
		s.RSI = &v
	}
	return s
}

// Decide вход только когда тренд и импульс согласны.
func (e *EMARSI) Decide(s models.Snapshot) models.Side {
	if s.Fast == nil || s.Slow == nil || s.RSI == nil {
		return models.SideNone
	}
	fast, slow, rsi := *s.Fast, *s.Slow, *s.RSI

	switch {
	case fast > slow && rsi > e.p.BullThreshold:
		return models.SideLong
	case fast < slow && rsi < e.p.BearThreshold:
		return models.SideShort
	default:
		return models.SideNone
	}
}

func (e *EMARSI) Evaluate(instrument string, bars []models.PriceBar) (models.Snapshot, models.Signal) {
	snap := e.Snapshot(models.Closes(bars))
	side := e.Decide(snap)

	sig := models.Signal{
		Instrument: instrument,
		Side:       side,
		Strategy:   models.StrategyEMARSI,
	}
	if len(bars) > 0 {
		sig.Price = bars[len(bars)-1].Close
	}
	sig.Reason = fmt.Sprintf("EMA/RSI %s @ %.5f (%s)", side, sig.Price, snap)
	return snap, sig
}
