package service

import (
	"math"
	"sync/atomic"
	"time"
)

type State struct {
	ready     atomic.Bool
	startedAt time.Time

	connected     atomic.Bool
	phase         atomic.Value // string: connecting / running / stopped
	cycle         atomic.Int64
	lastCycleUnix atomic.Int64 // unix seconds
	profitBits    atomic.Uint64
}

func NewState() *State {
	s := &State{startedAt: time.Now()}
	s.ready.Store(false)
	s.phase.Store("connecting")
	return s
}

func (s *State) SetReady(v bool) { s.ready.Store(v) }
func (s *State) Ready() bool     { return s.ready.Load() }

func (s *State) SetConnected(v bool) { s.connected.Store(v) }
func (s *State) Connected() bool     { return s.connected.Load() }

func (s *State) SetPhase(p string) { s.phase.Store(p) }
func (s *State) Phase() string     { return s.phase.Load().(string) }

// TouchCycle отметка о завершённом цикле.
func (s *State) TouchCycle(n int, at time.Time, profit float64) {
	s.cycle.Store(int64(n))
	s.lastCycleUnix.Store(at.Unix())
	s.profitBits.Store(math.Float64bits(profit))
}

func (s *State) Cycle() int                 { return int(s.cycle.Load()) }
func (s *State) AccumulatedProfit() float64 { return math.Float64frombits(s.profitBits.Load()) }

func (s *State) LastCycle() time.Time {
	u := s.lastCycleUnix.Load()
	if u == 0 {
		return time.Time{}
	}
	return time.Unix(u, 0)
}

func (s *State) Uptime() time.Duration { return time.Since(s.startedAt) }
