package runner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"turbo_bot/internal/helper"
	"turbo_bot/internal/models"
	"turbo_bot/internal/modules/config"
	gateway "turbo_bot/internal/modules/gateway/service"
	health "turbo_bot/internal/modules/health/service"
	journal "turbo_bot/internal/modules/journal/service"
	strategy "turbo_bot/internal/modules/strategy/service"
	"turbo_bot/internal/notify"
	"turbo_bot/internal/stake"
	"turbo_bot/pkg/logger"
	"turbo_bot/pkg/tracing"

	"github.com/google/uuid"
	pkgerrors "github.com/pkg/errors"
)

// Market то, что циклу нужно от адаптера брокера.
type Market interface {
	Connect(ctx context.Context, mode models.AccountMode) error
	History(ctx context.Context, instrument string, timeframe time.Duration, count int, asOf time.Time) ([]models.PriceBar, error)
	Submit(ctx context.Context, req models.OrderRequest) (models.OrderResult, error)
	Settlement(ctx context.Context, orderID string) (float64, error)
}

type Phase string

const (
	PhaseConnecting Phase = "connecting"
	PhaseRunning    Phase = "running"
	PhaseStopped    Phase = "stopped"
)

type StopReason string

const (
	ReasonStopGain      StopReason = "stop_gain"
	ReasonStopLoss      StopReason = "stop_loss"
	ReasonMaxCycles     StopReason = "max_cycles"
	ReasonInterrupted   StopReason = "interrupted"
	ReasonConnectFailed StopReason = "connect_failed"
)

type Summary struct {
	RunID    string
	Reason   StopReason
	Cycles   int
	Trades   int
	Wins     int
	Losses   int
	Unknown  int
	Rejected int
	Faults   int
	Stake    stake.State
}

func (s Summary) String() string {
	return fmt.Sprintf("reason=%s cycles=%d trades=%d wins=%d losses=%d unknown=%d rejected=%d faults=%d profit=%.2f",
		s.Reason, s.Cycles, s.Trades, s.Wins, s.Losses, s.Unknown, s.Rejected, s.Faults, s.Stake.AccumulatedProfit)
}

type Deps struct {
	Market   Market
	Engine   strategy.Engine
	Notifier notify.Notifier
	Journal  journal.Journal
	Metrics  *health.Metrics
	Health   *health.State
	Clock    Clock
}

// Runner цикл решений: один ордер за раз, состояние соросa живёт только в памяти.
type Runner struct {
	cfg config.Trading
	d   Deps

	runID string
	phase Phase
	stake stake.State
	sum   Summary
}

func New(cfg config.Trading, d Deps) *Runner {
	if d.Clock == nil {
		d.Clock = realClock{}
	}
	if d.Notifier == nil {
		d.Notifier = notify.NewLog()
	}
	if d.Journal == nil {
		d.Journal = journal.Nop{}
	}
	if d.Health == nil {
		d.Health = health.NewState()
	}
	runID := uuid.NewString()
	return &Runner{
		cfg:   cfg,
		d:     d,
		runID: runID,
		phase: PhaseConnecting,
		stake: stake.New(cfg.BaseStake, cfg.MaxReinvestStreak),
		sum:   Summary{RunID: runID},
	}
}

func NewFromConfig(
	cfg *config.Config,
	a *gateway.Adapter,
	e strategy.Engine,
	n notify.Notifier,
	j journal.Journal,
	m *health.Metrics,
	st *health.State,
) *Runner {
	return New(cfg.Trading, Deps{
		Market:   a,
		Engine:   e,
		Notifier: n,
		Journal:  j,
		Metrics:  m,
		Health:   st,
	})
}

func (r *Runner) Phase() Phase { return r.phase }

func (r *Runner) Stake() stake.State { return r.stake }

func (r *Runner) setPhase(p Phase) {
	r.phase = p
	r.d.Health.SetPhase(string(p))
	r.d.Health.SetReady(p == PhaseRunning)
	if p == PhaseStopped {
		r.d.Health.SetConnected(false)
	}
}

// Run блокирует до остановки. Ошибка возвращается только если не удалось подключиться.
func (r *Runner) Run(ctx context.Context) (Summary, error) {
	r.setPhase(PhaseConnecting)
	mode := r.cfg.Mode()

	logger.Info("[RUNNER] run %s: connecting (%s)", r.runID, mode)
	if err := r.d.Market.Connect(ctx, mode); err != nil {
		logger.Error("[RUNNER] connection failed: %v", err)
		r.d.Notifier.Sendf(ctx, "❌ Connection failed: %v", err)
		r.sum.Reason = ReasonConnectFailed
		r.setPhase(PhaseStopped)
		return r.summary(), err
	}
	r.d.Health.SetConnected(true)
	logger.Info("[RUNNER] connected, account=%s", mode)
	r.d.Notifier.Sendf(ctx, "✅ Connected (%s). %s %dm, base stake %.2f, stop gain %.2f / stop loss %.2f",
		mode, r.cfg.Instrument, r.cfg.TimeframeMinutes, r.cfg.BaseStake, r.cfg.StopGain, r.cfg.StopLoss)

	r.setPhase(PhaseRunning)
	r.observeStake()

	reason := ReasonMaxCycles
	for r.sum.Cycles < r.cfg.MaxCycles {
		if cond := r.stake.Stop(r.cfg.StopGain, r.cfg.StopLoss); cond != stake.StopNone {
			reason = StopReason(cond)
			break
		}
		if ctx.Err() != nil {
			reason = ReasonInterrupted
			break
		}

		r.sum.Cycles++
		err := r.cycle(ctx, r.sum.Cycles)
		if ctx.Err() != nil {
			reason = ReasonInterrupted
			break
		}
		if err != nil {
			r.sum.Faults++
			logger.Error("[RUNNER] cycle %d failed: %v", r.sum.Cycles, err)
			r.count(models.CycleFault)
			r.record(ctx, models.CycleRecord{Cycle: r.sum.Cycles, Result: models.CycleFault, Error: err.Error()})
			if err := r.d.Clock.Sleep(ctx, r.cfg.FaultDelay); err != nil {
				reason = ReasonInterrupted
				break
			}
			continue
		}

		wait := helper.UntilNextSlot(r.d.Clock.Now(), r.cfg.Timeframe(), r.cfg.SyncBuffer)
		logger.Debug("[RUNNER] next cycle in %s", wait)
		if err := r.d.Clock.Sleep(ctx, wait); err != nil {
			reason = ReasonInterrupted
			break
		}
	}

	// лимит мог сработать на последнем цикле
	if reason == ReasonMaxCycles {
		if cond := r.stake.Stop(r.cfg.StopGain, r.cfg.StopLoss); cond != stake.StopNone {
			reason = StopReason(cond)
		}
	}

	r.sum.Reason = reason
	r.setPhase(PhaseStopped)
	sum := r.summary()
	logger.Info("[RUNNER] stopped: %s", sum)
	// ctx может быть уже отменён, итог всё равно отправляем
	r.d.Notifier.Sendf(context.WithoutCancel(ctx), "⏹ Stopped: %s", sum)
	return sum, nil
}

func (r *Runner) summary() Summary {
	s := r.sum
	s.Stake = r.stake
	return s
}

// cycle один проход: история, сигнал, ставка, ордер, расчёт.
func (r *Runner) cycle(ctx context.Context, n int) (err error) {
	ctx, finish := tracing.StartSpan(ctx, "runner.cycle")
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic: %v", p)
		}
		finish(err)
	}()

	rec := models.CycleRecord{Cycle: n}
	tf := r.cfg.Timeframe()

	bars, err := r.d.Market.History(ctx, r.cfg.Instrument, tf, r.cfg.HistoryBars, r.d.Clock.Now())
	if err != nil {
		return pkgerrors.Wrap(err, "fetch history")
	}

	snap, sig := r.d.Engine.Evaluate(r.cfg.Instrument, bars)
	rec.Fast, rec.Slow, rec.RSI = snap.Fast, snap.Slow, snap.RSI
	rec.Side = sig.Side
	r.signal(sig.Side)
	logger.Info("[RUNNER] cycle %d: %s", n, sig.Reason)

	if sig.Side == models.SideNone {
		rec.Result = models.CycleNoSignal
		r.count(rec.Result)
		r.record(ctx, rec)
		return nil
	}

	amount := r.stake.NextStake()
	rec.Stake = amount
	res, err := r.d.Market.Submit(ctx, models.OrderRequest{
		Instrument:       r.cfg.Instrument,
		Side:             sig.Side,
		Stake:            amount,
		TimeframeMinutes: r.cfg.TimeframeMinutes,
	})
	if err != nil {
		r.order("failed")
		return pkgerrors.Wrap(err, "submit order")
	}
	logger.Info("[RUNNER] signal: %s | order sent: %v | stake %.2f", sig.Side, res.Accepted, amount)

	if !res.Accepted {
		r.sum.Rejected++
		r.order("rejected")
		rec.Result = models.CycleRejected
		r.count(rec.Result)
		r.record(ctx, rec)
		return nil
	}

	r.sum.Trades++
	r.order("accepted")
	rec.OrderID = res.OrderID
	r.d.Notifier.Sendf(ctx, "📈 %s %s stake %.2f (order %s)", r.cfg.Instrument, sig.Side, amount, res.OrderID)

	outcome, result, err := r.settle(ctx, res.OrderID, r.d.Clock.Now().Add(tf))
	if err != nil {
		return err
	}

	r.stake = r.stake.Apply(outcome)
	r.observeStake()

	rec.Result = result
	rec.Outcome = outcome
	r.count(result)
	r.record(ctx, rec)

	logger.Info("[RUNNER] order %s settled: %s %.2f | %s", res.OrderID, result, outcome, r.stake)
	r.d.Notifier.Sendf(ctx, "💰 %s %s %+.2f, total %.2f", res.OrderID, result, outcome, r.stake.AccumulatedProfit)
	return nil
}

// settle ждёт экспирацию плюс grace и только потом спрашивает результат.
// Неизвестный результат = 0 для учёта.
func (r *Runner) settle(ctx context.Context, orderID string, expiry time.Time) (float64, models.CycleResult, error) {
	wait := expiry.Add(r.cfg.SettlementGrace).Sub(r.d.Clock.Now())
	if err := r.d.Clock.Sleep(ctx, wait); err != nil {
		return 0, "", err
	}

	outcome, err := r.d.Market.Settlement(ctx, orderID)
	switch {
	case errors.Is(err, gateway.ErrSettlementUnknown):
		r.sum.Unknown++
		r.settlement(models.CycleUnknown)
		logger.Warn("[RUNNER] unknown result for order %s, counted as 0: %v", orderID, err)
		r.d.Notifier.Sendf(ctx, "⚠️ Unknown result for order %s, counted as 0", orderID)
		return 0, models.CycleUnknown, nil
	case err != nil:
		return 0, "", pkgerrors.Wrapf(err, "settlement %s", orderID)
	case outcome > 0:
		r.sum.Wins++
		r.settlement(models.CycleWin)
		return outcome, models.CycleWin, nil
	default:
		r.sum.Losses++
		r.settlement(models.CycleLoss)
		return outcome, models.CycleLoss, nil
	}
}

func (r *Runner) record(ctx context.Context, rec models.CycleRecord) {
	rec.RunID = r.runID
	rec.RecordedAt = r.d.Clock.Now().UTC()
	rec.Instrument = r.cfg.Instrument
	rec.AccumulatedProfit = r.stake.AccumulatedProfit
	rec.ReinvestStreak = r.stake.ReinvestStreak

	if err := r.d.Journal.Append(ctx, rec); err != nil {
		logger.Warn("[RUNNER] journal append failed: %v", err)
	}
	r.d.Health.TouchCycle(rec.Cycle, rec.RecordedAt, rec.AccumulatedProfit)
}

func (r *Runner) observeStake() {
	if r.d.Metrics == nil {
		return
	}
	r.d.Metrics.Profit.Set(r.stake.AccumulatedProfit)
	r.d.Metrics.NextStake.Set(r.stake.NextStake())
	r.d.Metrics.ReinvestStreak.Set(float64(r.stake.ReinvestStreak))
}

func (r *Runner) count(res models.CycleResult) {
	if r.d.Metrics != nil {
		r.d.Metrics.Cycles.WithLabelValues(string(res)).Inc()
	}
}

func (r *Runner) signal(side models.Side) {
	if r.d.Metrics != nil {
		r.d.Metrics.Signals.WithLabelValues(side.String()).Inc()
	}
}

func (r *Runner) order(result string) {
	if r.d.Metrics != nil {
		r.d.Metrics.Orders.WithLabelValues(result).Inc()
	}
}

func (r *Runner) settlement(res models.CycleResult) {
	if r.d.Metrics != nil {
		r.d.Metrics.Settlements.WithLabelValues(string(res)).Inc()
	}
}
