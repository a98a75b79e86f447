package service

import (
	"context"
	"math"
	"sync"
	"time"

	"turbo_bot/internal/models"
	"turbo_bot/pkg/logger"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

type PaperConfig struct {
	Seed   int64
	Payout float64 // доля выплаты при выигрыше, 0.8 = +80% к ставке
	Now    func() time.Time
}

type paperOrder struct {
	req    models.OrderRequest
	entry  float64
	expiry time.Time
}

// Paper офлайн-брокер: детерминированная цена от времени и seed,
// расчёт по цене на момент экспирации.
type Paper struct {
	cfg PaperConfig

	mu        sync.Mutex
	connected bool
	mode      models.AccountMode
	orders    map[string]paperOrder
}

var _ Gateway = (*Paper)(nil)

func NewPaper(cfg PaperConfig) *Paper {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Payout <= 0 {
		cfg.Payout = 0.8
	}
	return &Paper{cfg: cfg, orders: make(map[string]paperOrder)}
}

func (p *Paper) Connect(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.connected = true
	logger.Info("[PAPER] session opened (seed=%d payout=%.2f)", p.cfg.Seed, p.cfg.Payout)
	return nil
}

func (p *Paper) SelectAccountMode(ctx context.Context, mode models.AccountMode) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.connected {
		return ErrNotConnected
	}
	p.mode = mode
	return nil
}

func (p *Paper) FetchHistory(ctx context.Context, instrument string, timeframe time.Duration, count int, asOf time.Time) ([]models.PriceBar, error) {
	if !p.isConnected() {
		return nil, ErrNotConnected
	}
	if timeframe <= 0 || count <= 0 {
		return nil, errors.Errorf("paper: bad history request tf=%s count=%d", timeframe, count)
	}

	// последняя свеча = текущая, ещё не закрытая
	last := asOf.Truncate(timeframe)
	out := make([]models.PriceBar, 0, count)
	for i := count - 1; i >= 0; i-- {
		start := last.Add(-time.Duration(i) * timeframe)
		end := start.Add(timeframe - time.Second)
		if end.After(asOf) {
			end = asOf
		}
		open, closePx := p.priceAt(start), p.priceAt(end)
		out = append(out, models.PriceBar{
			Time:  start,
			Open:  open,
			High:  math.Max(open, closePx),
			Low:   math.Min(open, closePx),
			Close: closePx,
		})
	}
	return out, nil
}

func (p *Paper) SubmitOrder(ctx context.Context, req models.OrderRequest) (models.OrderResult, error) {
	if !p.isConnected() {
		return models.OrderResult{}, ErrNotConnected
	}
	if req.Stake <= 0 || req.Side == models.SideNone || req.TimeframeMinutes <= 0 {
		return models.OrderResult{Accepted: false}, nil
	}

	now := p.cfg.Now()
	id := uuid.NewString()

	p.mu.Lock()
	p.orders[id] = paperOrder{
		req:    req,
		entry:  p.priceAt(now),
		expiry: now.Add(time.Duration(req.TimeframeMinutes) * time.Minute),
	}
	p.mu.Unlock()

	return models.OrderResult{Accepted: true, OrderID: id}, nil
}

func (p *Paper) FetchSettlement(ctx context.Context, orderID string) (float64, error) {
	p.mu.Lock()
	o, ok := p.orders[orderID]
	p.mu.Unlock()
	if !ok {
		return 0, errors.Errorf("paper: unknown order %s", orderID)
	}
	if p.cfg.Now().Before(o.expiry) {
		return 0, ErrNotSettled
	}

	exit := p.priceAt(o.expiry)
	stake := decimal.NewFromFloat(o.req.Stake)

	var won bool
	switch {
	case exit == o.entry:
		return 0, nil
	case o.req.Side == models.SideLong:
		won = exit > o.entry
	default:
		won = exit < o.entry
	}
	if !won {
		return stake.Neg().InexactFloat64(), nil
	}
	return stake.Mul(decimal.NewFromFloat(p.cfg.Payout)).Round(2).InexactFloat64(), nil
}

func (p *Paper) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.connected = false
	return nil
}

func (p *Paper) isConnected() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.connected
}

// priceAt гладкая волна + шум, зависит только от времени и seed.
func (p *Paper) priceAt(t time.Time) float64 {
	s := float64(t.Unix())
	ph1 := float64(p.cfg.Seed%97) / 7
	ph2 := float64(p.cfg.Seed%89) / 5

	px := 1.1
	px += 0.0020 * math.Sin(s/540+ph1)
	px += 0.0010 * math.Sin(s/1380+ph2)
	px += 0.0003 * noise(uint64(p.cfg.Seed), uint64(t.Unix()/5))
	return math.Round(px*1e5) / 1e5
}

// noise splitmix64 в [-1, 1].
func noise(seed, i uint64) float64 {
	z := seed ^ (i + 0x9e3779b97f4a7c15)
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	z ^= z >> 31
	return float64(z%2001)/1000 - 1
}
