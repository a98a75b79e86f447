package service

import (
	"testing"
	"time"

	"turbo_bot/internal/models"
)

func f(v float64) *float64 { return &v }

func TestDecideNoneWhenAnyInputMissing(t *testing.T) {
	e := NewEMARSI(DefaultParams())
	vals := []*float64{nil, f(1.0), f(2.0)}
	rsis := []*float64{nil, f(10), f(90)}

	for _, fast := range vals {
		for _, slow := range vals {
			for _, rsi := range rsis {
				if fast != nil && slow != nil && rsi != nil {
					continue
				}
				got := e.Decide(models.Snapshot{Fast: fast, Slow: slow, RSI: rsi})
				if got != models.SideNone {
					t.Fatalf("fast=%v slow=%v rsi=%v: got %s, want NONE", fast, slow, rsi, got)
				}
			}
		}
	}
}

func TestDecideConjunctive(t *testing.T) {
	e := NewEMARSI(DefaultParams())
	cases := []struct {
		name            string
		fast, slow, rsi float64
		want            models.Side
	}{
		{"trend up, momentum up", 1.2, 1.1, 60, models.SideLong},
		{"trend down, momentum down", 1.1, 1.2, 40, models.SideShort},
		{"trend up, momentum down", 1.2, 1.1, 40, models.SideNone},
		{"trend down, momentum up", 1.1, 1.2, 60, models.SideNone},
		{"flat trend", 1.1, 1.1, 70, models.SideNone},
		{"rsi on threshold", 1.2, 1.1, 50, models.SideNone},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := e.Decide(models.Snapshot{Fast: f(tc.fast), Slow: f(tc.slow), RSI: f(tc.rsi)})
			if got != tc.want {
				t.Fatalf("got %s, want %s", got, tc.want)
			}
		})
	}
}

func TestDecideCustomThresholds(t *testing.T) {
	p := DefaultParams()
	p.BullThreshold = 70
	p.BearThreshold = 30
	e := NewEMARSI(p)

	if got := e.Decide(models.Snapshot{Fast: f(2), Slow: f(1), RSI: f(65)}); got != models.SideNone {
		t.Fatalf("rsi 65 under bull 70: got %s", got)
	}
	if got := e.Decide(models.Snapshot{Fast: f(1), Slow: f(2), RSI: f(25)}); got != models.SideShort {
		t.Fatalf("rsi 25 under bear 30: got %s", got)
	}
}

func bars(closes []float64) []models.PriceBar {
	start := time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC)
	out := make([]models.PriceBar, len(closes))
	for i, c := range closes {
		out[i] = models.PriceBar{Time: start.Add(time.Duration(i) * time.Minute), Open: c, High: c, Low: c, Close: c}
	}
	return out
}

func TestEvaluateRisingSeriesIsLong(t *testing.T) {
	e := NewEMARSI(DefaultParams())
	closes := make([]float64, 15)
	for i := range closes {
		closes[i] = 1.1000 + float64(i)*0.0005
	}

	snap, sig := e.Evaluate("EURUSD", bars(closes))
	if snap.Fast == nil || snap.Slow == nil || snap.RSI == nil {
		t.Fatalf("snapshot must be defined: %s", snap)
	}
	if *snap.Fast <= *snap.Slow {
		t.Fatalf("fast %v must be above slow %v", *snap.Fast, *snap.Slow)
	}
	if sig.Side != models.SideLong {
		t.Fatalf("side = %s, want CALL", sig.Side)
	}
	if sig.Price != closes[14] || sig.Instrument != "EURUSD" {
		t.Fatalf("unexpected signal: %+v", sig)
	}
}

func TestEvaluateShortHistoryIsNone(t *testing.T) {
	e := NewEMARSI(DefaultParams())
	closes := make([]float64, e.MinBars()-1)
	for i := range closes {
		closes[i] = 1 + float64(i)
	}
	snap, sig := e.Evaluate("EURUSD", bars(closes))
	if snap.RSI != nil {
		t.Fatalf("rsi must be undefined with %d bars", len(closes))
	}
	if sig.Side != models.SideNone {
		t.Fatalf("side = %s, want NONE", sig.Side)
	}
}
