package models

import "fmt"

type StrategyType string

const (
	StrategyEMARSI StrategyType = "emarsi"
)

type Signal struct {
	Instrument string
	Side       Side
	Price      float64
	Strategy   StrategyType
	Reason     string
}

// Side направление бинарного опциона, пустая строка = нет сигнала.
type Side string

const (
	SideNone  Side = ""
	SideLong  Side = "CALL"
	SideShort Side = "PUT"
)

func (s Side) String() string {
	if s == SideNone {
		return "NONE"
	}
	return string(s)
}

// Direction как ждёт брокер: call / put.
func (s Side) Direction() string {
	switch s {
	case SideLong:
		return "call"
	case SideShort:
		return "put"
	default:
		return ""
	}
}

// Snapshot значения индикаторов на последнем закрытии, nil = мало истории.
type Snapshot struct {
	Fast *float64
	Slow *float64
	RSI  *float64
}

func (s Snapshot) String() string {
	return fmt.Sprintf("fast=%s slow=%s rsi=%s", fmtOpt(s.Fast), fmtOpt(s.Slow), fmtOpt(s.RSI))
}

func fmtOpt(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.5f", *v)
}
