package service

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"turbo_bot/internal/models"
	"turbo_bot/pkg/logger"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

type BridgeConfig struct {
	URL            string
	Email          string
	Password       string
	RequestTimeout time.Duration
}

type bridgeRequest struct {
	ID     string `json:"id"`
	Method string `json:"method"`
	Params any    `json:"params,omitempty"`
}

type bridgeResponse struct {
	ID     string          `json:"id"`
	OK     bool            `json:"ok"`
	Error  string          `json:"error,omitempty"`
	Result json.RawMessage `json:"result,omitempty"`
}

type bridgeCandle struct {
	From  int64   `json:"from"`
	Open  float64 `json:"open"`
	Max   float64 `json:"max"`
	Min   float64 `json:"min"`
	Close float64 `json:"close"`
}

type bridgeBuy struct {
	Status bool   `json:"status"`
	ID     string `json:"id"`
}

type bridgeWin struct {
	Settled bool    `json:"settled"`
	Profit  float64 `json:"profit"`
}

// Bridge клиент к сайдкару брокера: JSON запрос/ответ по одному websocket.
// Оборванное соединение закрывается, следующий вызов переподключается и
// заново логинится с последним выбранным счётом.
type Bridge struct {
	cfg    BridgeConfig
	dialer *websocket.Dialer

	mu       sync.Mutex
	conn     *websocket.Conn
	loggedIn bool
	mode     models.AccountMode
}

var _ Gateway = (*Bridge)(nil)

func NewBridge(cfg BridgeConfig) *Bridge {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 15 * time.Second
	}
	return &Bridge{
		cfg:    cfg,
		dialer: &websocket.Dialer{HandshakeTimeout: cfg.RequestTimeout},
	}
}

func (b *Bridge) Connect(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.loggedIn = false
	if err := b.dialLocked(ctx); err != nil {
		return err
	}
	if err := b.loginLocked(ctx); err != nil {
		return err
	}
	logger.Info("[BRIDGE] connected to %s", b.cfg.URL)
	return nil
}

func (b *Bridge) SelectAccountMode(ctx context.Context, mode models.AccountMode) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.ensureLocked(ctx); err != nil {
		return err
	}
	if _, err := b.callLocked(ctx, "change_balance", map[string]any{"mode": string(mode)}); err != nil {
		return err
	}
	b.mode = mode
	return nil
}

func (b *Bridge) FetchHistory(ctx context.Context, instrument string, timeframe time.Duration, count int, asOf time.Time) ([]models.PriceBar, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.ensureLocked(ctx); err != nil {
		return nil, err
	}
	raw, err := b.callLocked(ctx, "get_candles", map[string]any{
		"instrument": instrument,
		"interval":   int64(timeframe / time.Second),
		"count":      count,
		"end":        asOf.Unix(),
	})
	if err != nil {
		return nil, err
	}

	var rows []bridgeCandle
	if err := sonic.Unmarshal(raw, &rows); err != nil {
		return nil, errors.Wrap(err, "decode candles")
	}
	bars := make([]models.PriceBar, 0, len(rows))
	for _, r := range rows {
		bars = append(bars, models.PriceBar{
			Time:  time.Unix(r.From, 0).UTC(),
			Open:  r.Open,
			High:  r.Max,
			Low:   r.Min,
			Close: r.Close,
		})
	}
	return bars, nil
}

func (b *Bridge) SubmitOrder(ctx context.Context, req models.OrderRequest) (models.OrderResult, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.ensureLocked(ctx); err != nil {
		return models.OrderResult{}, err
	}
	raw, err := b.callLocked(ctx, "buy", map[string]any{
		"amount":     decimal.NewFromFloat(req.Stake).StringFixed(2),
		"instrument": req.Instrument,
		"direction":  req.Side.Direction(),
		"expiration": req.TimeframeMinutes,
	})
	if err != nil {
		return models.OrderResult{}, err
	}

	var res bridgeBuy
	if err := sonic.Unmarshal(raw, &res); err != nil {
		return models.OrderResult{}, errors.Wrap(err, "decode buy")
	}
	if !res.Status {
		return models.OrderResult{Accepted: false}, nil
	}
	return models.OrderResult{Accepted: true, OrderID: res.ID}, nil
}

func (b *Bridge) FetchSettlement(ctx context.Context, orderID string) (float64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.ensureLocked(ctx); err != nil {
		return 0, err
	}
	raw, err := b.callLocked(ctx, "check_win", map[string]any{"id": orderID})
	if err != nil {
		return 0, err
	}

	var res bridgeWin
	if err := sonic.Unmarshal(raw, &res); err != nil {
		return 0, errors.Wrap(err, "decode check_win")
	}
	if !res.Settled {
		return 0, ErrNotSettled
	}
	return res.Profit, nil
}

func (b *Bridge) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.loggedIn = false
	if b.conn == nil {
		return nil
	}
	_ = b.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"),
		time.Now().Add(time.Second))
	err := b.conn.Close()
	b.conn = nil
	return err
}

func (b *Bridge) dialLocked(ctx context.Context) error {
	if b.conn != nil {
		_ = b.conn.Close()
		b.conn = nil
	}
	c, resp, err := b.dialer.DialContext(ctx, b.cfg.URL, http.Header{})
	if err != nil {
		if resp != nil {
			return errors.Wrapf(err, "dial %s: http %d", b.cfg.URL, resp.StatusCode)
		}
		return errors.Wrapf(err, "dial %s", b.cfg.URL)
	}
	b.conn = c
	return nil
}

func (b *Bridge) loginLocked(ctx context.Context) error {
	_, err := b.callLocked(ctx, "connect", map[string]any{
		"email":    b.cfg.Email,
		"password": b.cfg.Password,
	})
	if err != nil {
		return errors.Wrap(err, "login")
	}
	b.loggedIn = true
	return nil
}

// ensureLocked переподключение после обрыва, если сессия уже была.
func (b *Bridge) ensureLocked(ctx context.Context) error {
	if b.conn != nil && b.loggedIn {
		return nil
	}
	if b.conn == nil {
		logger.Warn("[BRIDGE] connection lost, redialing %s", b.cfg.URL)
		if err := b.dialLocked(ctx); err != nil {
			return err
		}
	}
	if err := b.loginLocked(ctx); err != nil {
		return err
	}
	if b.mode != "" {
		if _, err := b.callLocked(ctx, "change_balance", map[string]any{"mode": string(b.mode)}); err != nil {
			return err
		}
	}
	return nil
}

func (b *Bridge) deadline(ctx context.Context) time.Time {
	d := time.Now().Add(b.cfg.RequestTimeout)
	if cd, ok := ctx.Deadline(); ok && cd.Before(d) {
		return cd
	}
	return d
}

// callLocked один запрос и ожидание ответа с тем же id.
// Ошибка транспорта рвёт соединение; ошибка брокера (ok=false) нет.
func (b *Bridge) callLocked(ctx context.Context, method string, params any) (json.RawMessage, error) {
	if b.conn == nil {
		return nil, ErrNotConnected
	}

	req := bridgeRequest{ID: uuid.NewString(), Method: method, Params: params}
	payload, err := sonic.Marshal(req)
	if err != nil {
		return nil, errors.Wrapf(err, "encode %s", method)
	}

	dl := b.deadline(ctx)
	_ = b.conn.SetWriteDeadline(dl)
	if err := b.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		b.dropLocked()
		return nil, errors.Wrapf(err, "write %s", method)
	}

	_ = b.conn.SetReadDeadline(dl)
	for {
		_, msg, err := b.conn.ReadMessage()
		if err != nil {
			b.dropLocked()
			return nil, errors.Wrapf(ErrResponseLost, "read %s: %v", method, err)
		}

		var resp bridgeResponse
		if err := sonic.Unmarshal(msg, &resp); err != nil {
			logger.Warn("[BRIDGE] skip undecodable frame: %v", err)
			continue
		}
		if resp.ID != req.ID {
			// пуши сайдкара и ответы на брошенные запросы
			continue
		}
		if !resp.OK {
			return nil, errors.Errorf("%s: broker error: %s", method, resp.Error)
		}
		return resp.Result, nil
	}
}

func (b *Bridge) dropLocked() {
	if b.conn != nil {
		_ = b.conn.Close()
	}
	b.conn = nil
	b.loggedIn = false
}
