package stake

import "fmt"

// StopCondition результат проверки лимитов по накопленной прибыли.
type StopCondition string

const (
	StopNone        StopCondition = ""
	StopGainReached StopCondition = "stop_gain"
	StopLossReached StopCondition = "stop_loss"
)

// State состояние соросa. Меняется только через Apply, который возвращает новое значение.
type State struct {
	BaseStake         float64
	AccumulatedProfit float64
	ReinvestStreak    int
	MaxReinvestStreak int
}

func New(base float64, maxStreak int) State {
	return State{BaseStake: base, MaxReinvestStreak: maxStreak}
}

// NextStake база, а в серии реинвеста база + накопленная прибыль (если она есть).
func (s State) NextStake() float64 {
	if s.ReinvestStreak == 0 {
		return s.BaseStake
	}
	if s.AccumulatedProfit > 0 {
		return s.BaseStake + s.AccumulatedProfit
	}
	return s.BaseStake
}

func (s State) Reinvesting() bool { return s.ReinvestStreak > 0 }

// Apply учитывает результат сделки. Выигрыш продлевает серию,
// на MaxReinvestStreak серия сбрасывается; ноль или минус сбрасывают сразу.
func (s State) Apply(outcome float64) State {
	next := s
	next.AccumulatedProfit += outcome

	if outcome > 0 {
		next.ReinvestStreak++
		if next.ReinvestStreak >= next.MaxReinvestStreak {
			next.ReinvestStreak = 0
		}
	} else {
		next.ReinvestStreak = 0
	}
	return next
}

// Stop stopGain и stopLoss положительные величины.
func (s State) Stop(stopGain, stopLoss float64) StopCondition {
	switch {
	case s.AccumulatedProfit >= stopGain:
		return StopGainReached
	case s.AccumulatedProfit < 0 && -s.AccumulatedProfit >= stopLoss:
		return StopLossReached
	default:
		return StopNone
	}
}

func (s State) String() string {
	return fmt.Sprintf("profit=%.2f streak=%d/%d next=%.2f",
		s.AccumulatedProfit, s.ReinvestStreak, s.MaxReinvestStreak, s.NextStake())
}
