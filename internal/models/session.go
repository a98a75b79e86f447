package models

import "time"

// CycleResult чем закончился цикл.
type CycleResult string

const (
	CycleNoSignal CycleResult = "no_signal"
	CycleRejected CycleResult = "rejected"
	CycleWin      CycleResult = "win"
	CycleLoss     CycleResult = "loss"
	CycleUnknown  CycleResult = "unknown"
	CycleFault    CycleResult = "fault"
)

// CycleRecord строка журнала. Журнал только пишется, состояние из него не восстанавливается.
type CycleRecord struct {
	RunID             string      `json:"run_id"`
	Cycle             int         `json:"cycle"`
	RecordedAt        time.Time   `json:"recorded_at"`
	Instrument        string      `json:"instrument"`
	Side              Side        `json:"side"`
	Fast              *float64    `json:"fast,omitempty"`
	Slow              *float64    `json:"slow,omitempty"`
	RSI               *float64    `json:"rsi,omitempty"`
	Stake             float64     `json:"stake"`
	OrderID           string      `json:"order_id,omitempty"`
	Result            CycleResult `json:"result"`
	Outcome           float64     `json:"outcome"`
	AccumulatedProfit float64     `json:"accumulated_profit"`
	ReinvestStreak    int         `json:"reinvest_streak"`
	Error             string      `json:"error,omitempty"`
}
