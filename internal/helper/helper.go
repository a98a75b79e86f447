package helper

import (
	"time"
)

// NextSlot начало следующего интервала tf по Unix-сетке (как свечи у брокера).
func NextSlot(t time.Time, tf time.Duration) time.Time {
	step := int64(tf / time.Second)
	if step <= 0 {
		return t
	}
	sec := t.Unix()
	sec -= sec % step
	return time.Unix(sec+step, 0).In(t.Location())
}

// UntilNextSlot сколько ждать до следующего интервала плюс буфер.
func UntilNextSlot(now time.Time, tf, buffer time.Duration) time.Duration {
	return NextSlot(now, tf).Add(buffer).Sub(now)
}
