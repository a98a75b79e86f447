package runner

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"turbo_bot/internal/models"
	"turbo_bot/internal/modules/config"
	gateway "turbo_bot/internal/modules/gateway/service"
	health "turbo_bot/internal/modules/health/service"
	strategy "turbo_bot/internal/modules/strategy/service"

	"github.com/prometheus/client_golang/prometheus"
)

type fakeClock struct {
	now     time.Time
	sleeps  []time.Duration
	onSleep func()
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	c.sleeps = append(c.sleeps, d)
	if c.onSleep != nil {
		c.onSleep()
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if d > 0 {
		c.now = c.now.Add(d)
	}
	return nil
}

type fakeMarket struct {
	clock *fakeClock

	connectErr error
	historyErr map[int]error // по номеру вызова, с 1
	bars       []models.PriceBar
	accept     bool
	outcomes   []float64
	settleErr  error

	historyCalls int
	orders       []models.OrderRequest
	submittedAt  []time.Time
	settledAt    []time.Time
}

func (m *fakeMarket) Connect(ctx context.Context, mode models.AccountMode) error {
	return m.connectErr
}

func (m *fakeMarket) History(ctx context.Context, instrument string, tf time.Duration, count int, asOf time.Time) ([]models.PriceBar, error) {
	m.historyCalls++
	if err := m.historyErr[m.historyCalls]; err != nil {
		return nil, err
	}
	return m.bars, nil
}

func (m *fakeMarket) Submit(ctx context.Context, req models.OrderRequest) (models.OrderResult, error) {
	m.orders = append(m.orders, req)
	m.submittedAt = append(m.submittedAt, m.clock.Now())
	if !m.accept {
		return models.OrderResult{}, nil
	}
	return models.OrderResult{Accepted: true, OrderID: "ord"}, nil
}

func (m *fakeMarket) Settlement(ctx context.Context, orderID string) (float64, error) {
	m.settledAt = append(m.settledAt, m.clock.Now())
	if m.settleErr != nil {
		return 0, m.settleErr
	}
	i := len(m.settledAt) - 1
	if i >= len(m.outcomes) {
		i = len(m.outcomes) - 1
	}
	return m.outcomes[i], nil
}

// fakeEngine отдаёт заданные стороны по очереди, последняя повторяется.
type fakeEngine struct {
	sides   []models.Side
	calls   int
	panicOn int
}

func (e *fakeEngine) Evaluate(instrument string, bars []models.PriceBar) (models.Snapshot, models.Signal) {
	e.calls++
	if e.calls == e.panicOn {
		panic("boom")
	}
	i := e.calls - 1
	if i >= len(e.sides) {
		i = len(e.sides) - 1
	}
	return models.Snapshot{}, models.Signal{Instrument: instrument, Side: e.sides[i]}
}

func (e *fakeEngine) MinBars() int { return 1 }
func (e *fakeEngine) Name() string { return "fake" }

type memJournal struct {
	mu   sync.Mutex
	recs []models.CycleRecord
}

func (j *memJournal) Append(_ context.Context, r models.CycleRecord) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.recs = append(j.recs, r)
	return nil
}

func (j *memJournal) Close() error { return nil }

func trading() config.Trading {
	return config.Trading{
		Instrument:        "EURUSD",
		TimeframeMinutes:  1,
		AccountMode:       "PRACTICE",
		BaseStake:         20,
		MaxReinvestStreak: 2,
		StopGain:          200,
		StopLoss:          100,
		MaxCycles:         50,
		HistoryBars:       50,
		SettlementGrace:   10 * time.Second,
		SyncBuffer:        time.Second,
		FaultDelay:        5 * time.Second,
	}
}

type harness struct {
	clock   *fakeClock
	market  *fakeMarket
	engine  *fakeEngine
	journal *memJournal
	health  *health.State
	runner  *Runner
}

func newHarness(cfg config.Trading, sides ...models.Side) *harness {
	clk := &fakeClock{now: time.Date(2024, 6, 3, 9, 0, 12, 0, time.UTC)}
	h := &harness{
		clock:   clk,
		market:  &fakeMarket{clock: clk, accept: true, outcomes: []float64{0}},
		engine:  &fakeEngine{sides: sides},
		journal: &memJournal{},
		health:  health.NewState(),
	}
	h.runner = New(cfg, Deps{
		Market:  h.market,
		Engine:  h.engine,
		Journal: h.journal,
		Metrics: health.NewMetrics(prometheus.NewRegistry()),
		Health:  h.health,
		Clock:   clk,
	})
	return h
}

func TestRunStopsOnStopGain(t *testing.T) {
	h := newHarness(trading(), models.SideLong)
	h.market.outcomes = []float64{50}

	sum, err := h.runner.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if sum.Reason != ReasonStopGain {
		t.Fatalf("reason = %s", sum.Reason)
	}
	// 50, 100, 150, 200: стоп ровно после четвёртого расчёта
	if sum.Cycles != 4 || sum.Wins != 4 || sum.Stake.AccumulatedProfit != 200 {
		t.Fatalf("summary = %s", sum)
	}

	// 20, затем 20+50, серия сброшена на 2, затем 20+150
	wantStakes := []float64{20, 70, 20, 170}
	if len(h.market.orders) != len(wantStakes) {
		t.Fatalf("orders = %d, want %d", len(h.market.orders), len(wantStakes))
	}
	for i, o := range h.market.orders {
		if o.Stake != wantStakes[i] {
			t.Fatalf("order %d stake = %v, want %v", i, o.Stake, wantStakes[i])
		}
	}
	if h.runner.Phase() != PhaseStopped || h.health.Ready() || h.health.Connected() {
		t.Fatalf("phase = %s ready=%v connected=%v", h.runner.Phase(), h.health.Ready(), h.health.Connected())
	}
}

func TestRunStopsOnStopLoss(t *testing.T) {
	h := newHarness(trading(), models.SideShort)
	h.market.outcomes = []float64{-20}

	sum, err := h.runner.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if sum.Reason != ReasonStopLoss || sum.Cycles != 5 || sum.Stake.AccumulatedProfit != -100 {
		t.Fatalf("summary = %s", sum)
	}
	for i, o := range h.market.orders {
		if o.Stake != 20 || o.Side != models.SideShort {
			t.Fatalf("order %d = %+v", i, o)
		}
	}
}

func TestRunMaxCycles(t *testing.T) {
	cfg := trading()
	cfg.MaxCycles = 3
	h := newHarness(cfg, models.SideNone)

	sum, err := h.runner.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if sum.Reason != ReasonMaxCycles || sum.Cycles != 3 || sum.Trades != 0 {
		t.Fatalf("summary = %s", sum)
	}
	if len(h.market.orders) != 0 {
		t.Fatalf("orders placed without signal")
	}
	if len(h.journal.recs) != 3 || h.journal.recs[0].Result != models.CycleNoSignal {
		t.Fatalf("journal = %+v", h.journal.recs)
	}
}

func TestRejectedOrderLeavesStateUntouched(t *testing.T) {
	cfg := trading()
	cfg.MaxCycles = 3
	h := newHarness(cfg, models.SideLong)
	h.market.accept = false

	sum, err := h.runner.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if sum.Rejected != 3 || sum.Trades != 0 || len(h.market.settledAt) != 0 {
		t.Fatalf("summary = %s settlements=%d", sum, len(h.market.settledAt))
	}
	if sum.Stake.AccumulatedProfit != 0 || sum.Stake.ReinvestStreak != 0 {
		t.Fatalf("stake mutated: %s", sum.Stake)
	}
}

func TestUnknownSettlementCountsAsZero(t *testing.T) {
	cfg := trading()
	cfg.MaxCycles = 2
	h := newHarness(cfg, models.SideLong)
	h.market.outcomes = []float64{10}

	// первый расчёт выигрышный, дальше брокер молчит
	h.clock.onSleep = func() {
		if len(h.market.settledAt) == 1 {
			h.market.settleErr = &gateway.ExhaustedError{
				Kind: gateway.ErrSettlementUnknown, Op: "settlement", Attempts: 5, Last: gateway.ErrNotSettled,
			}
		}
	}

	sum, err := h.runner.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if sum.Unknown != 1 || sum.Wins != 1 {
		t.Fatalf("summary = %s", sum)
	}
	if sum.Stake.AccumulatedProfit != 10 || sum.Stake.ReinvestStreak != 0 {
		t.Fatalf("stake = %s", sum.Stake)
	}
	if h.market.orders[1].Stake != 30 {
		t.Fatalf("second stake = %v, want 30", h.market.orders[1].Stake)
	}
	last := h.journal.recs[len(h.journal.recs)-1]
	if last.Result != models.CycleUnknown || last.Outcome != 0 {
		t.Fatalf("journal = %+v", last)
	}
}

func TestSettlementNotPolledBeforeExpiry(t *testing.T) {
	cfg := trading()
	cfg.MaxCycles = 3
	h := newHarness(cfg, models.SideLong)
	h.market.outcomes = []float64{-1}

	if _, err := h.runner.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(h.market.settledAt) != 3 {
		t.Fatalf("settlements = %d", len(h.market.settledAt))
	}
	for i, at := range h.market.settledAt {
		expiry := h.market.submittedAt[i].Add(time.Minute)
		if at.Before(expiry.Add(cfg.SettlementGrace)) {
			t.Fatalf("settlement %d polled at %s, expiry %s", i, at, expiry)
		}
	}
}

func TestCycleFaultsAreSurvived(t *testing.T) {
	cfg := trading()
	cfg.MaxCycles = 3
	h := newHarness(cfg, models.SideNone)
	h.market.historyErr = map[int]error{1: gateway.ErrHistoryUnavailable}
	h.engine.panicOn = 1 // первый Evaluate приходится на второй цикл

	sum, err := h.runner.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if sum.Cycles != 3 || sum.Faults != 2 || sum.Reason != ReasonMaxCycles {
		t.Fatalf("summary = %s", sum)
	}

	faultDelays := 0
	for _, d := range h.clock.sleeps {
		if d == cfg.FaultDelay {
			faultDelays++
		}
	}
	if faultDelays < 2 {
		t.Fatalf("sleeps = %v", h.clock.sleeps)
	}
	if h.journal.recs[0].Result != models.CycleFault || h.journal.recs[0].Error == "" {
		t.Fatalf("journal = %+v", h.journal.recs[0])
	}
}

func TestConnectFailureIsFatal(t *testing.T) {
	h := newHarness(trading(), models.SideLong)
	h.market.connectErr = &gateway.ExhaustedError{Kind: gateway.ErrConnectionExhausted, Op: "connect", Attempts: 5, Last: errors.New("refused")}

	sum, err := h.runner.Run(context.Background())
	if !errors.Is(err, gateway.ErrConnectionExhausted) {
		t.Fatalf("err = %v", err)
	}
	if sum.Reason != ReasonConnectFailed || h.market.historyCalls != 0 {
		t.Fatalf("summary = %s history=%d", sum, h.market.historyCalls)
	}
}

func TestInterruptStopsRun(t *testing.T) {
	h := newHarness(trading(), models.SideNone)
	ctx, cancel := context.WithCancel(context.Background())
	h.clock.onSleep = func() {
		if len(h.clock.sleeps) == 2 {
			cancel()
		}
	}

	sum, err := h.runner.Run(ctx)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if sum.Reason != ReasonInterrupted || sum.Cycles != 2 {
		t.Fatalf("summary = %s", sum)
	}
}

func TestSyncToNextBoundary(t *testing.T) {
	cfg := trading()
	cfg.MaxCycles = 1
	h := newHarness(cfg, models.SideNone)

	if _, err := h.runner.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	// 09:00:12 -> 09:01:00 + 1s
	if len(h.clock.sleeps) != 1 || h.clock.sleeps[0] != 49*time.Second {
		t.Fatalf("sleeps = %v", h.clock.sleeps)
	}
}

func TestRisingSeriesPlacesCall(t *testing.T) {
	cfg := trading()
	cfg.MaxCycles = 1
	clk := &fakeClock{now: time.Date(2024, 6, 3, 9, 0, 12, 0, time.UTC)}
	market := &fakeMarket{clock: clk, accept: true, outcomes: []float64{16}}
	for i := 0; i < 15; i++ {
		px := 1.1 + float64(i)*0.0005
		market.bars = append(market.bars, models.PriceBar{Time: clk.now.Add(time.Duration(i-15) * time.Minute), Close: px})
	}

	r := New(cfg, Deps{
		Market: market,
		Engine: strategy.NewEMARSI(strategy.DefaultParams()),
		Clock:  clk,
	})
	sum, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(market.orders) != 1 || market.orders[0].Side != models.SideLong || market.orders[0].Stake != 20 {
		t.Fatalf("orders = %+v", market.orders)
	}
	if sum.Wins != 1 || sum.Stake.AccumulatedProfit != 16 || sum.Stake.ReinvestStreak != 1 {
		t.Fatalf("summary = %s", sum)
	}
}
