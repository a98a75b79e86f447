package service

import (
	"bufio"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"turbo_bot/internal/models"

	"github.com/bytedance/sonic"
)

func TestFileAppendsNDJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs", "journal.ndjson")
	j, err := NewFile(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	rsi := 63.2
	recs := []models.CycleRecord{
		{RunID: "r1", Cycle: 1, RecordedAt: time.Unix(1700000000, 0).UTC(), Instrument: "EURUSD", Result: models.CycleNoSignal},
		{RunID: "r1", Cycle: 2, RecordedAt: time.Unix(1700000060, 0).UTC(), Instrument: "EURUSD",
			Side: models.SideLong, RSI: &rsi, Stake: 2, OrderID: "o-1", Result: models.CycleWin, Outcome: 1.6,
			AccumulatedProfit: 1.6, ReinvestStreak: 1},
	}
	for _, r := range recs {
		if err := j.Append(context.Background(), r); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	if err := j.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer f.Close()

	var got []models.CycleRecord
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var r models.CycleRecord
		if err := sonic.Unmarshal(sc.Bytes(), &r); err != nil {
			t.Fatalf("decode line %q: %v", sc.Text(), err)
		}
		got = append(got, r)
	}
	if len(got) != 2 {
		t.Fatalf("lines = %d, want 2", len(got))
	}
	if got[1].Side != models.SideLong || got[1].RSI == nil || *got[1].RSI != rsi || got[1].OrderID != "o-1" {
		t.Fatalf("second record = %+v", got[1])
	}
	if got[0].RSI != nil || got[0].Result != models.CycleNoSignal {
		t.Fatalf("first record = %+v", got[0])
	}
}
