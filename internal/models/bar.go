package models

import "time"

// PriceBar одна свеча, Time = начало интервала.
type PriceBar struct {
	Time  time.Time
	Open  float64
	High  float64
	Low   float64
	Close float64
}

// Closes в исходном порядке (от старых к новым).
func Closes(bars []PriceBar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.Close
	}
	return out
}
