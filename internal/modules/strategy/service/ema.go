package service

// TrailingEMA последнее значение EMA по ряду закрытий.
// Seed = SMA первых period значений, дальше v += k*(p-v), k = 2/(period+1).
// ok == false, если закрытий меньше period.
func TrailingEMA(closes []float64, period int) (float64, bool) {
	if period < 1 || len(closes) < period {
		return 0, false
	}

	var sum float64
	for _, p := range closes[:period] {
		sum += p
	}
	v := sum / float64(period)

	k := 2.0 / (float64(period) + 1)
	for _, p := range closes[period:] {
		v += k * (p - v)
	}
	return v, true
}
