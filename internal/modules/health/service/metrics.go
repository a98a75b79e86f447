package service

import (
	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	Cycles         *prometheus.CounterVec
	Signals        *prometheus.CounterVec
	Orders         *prometheus.CounterVec
	Settlements    *prometheus.CounterVec
	GatewayRetries *prometheus.CounterVec
	Profit         prometheus.Gauge
	NextStake      prometheus.Gauge
	ReinvestStreak prometheus.Gauge
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Cycles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "turbo_cycles_total",
			Help: "Completed decision cycles by result.",
		}, []string{"result"}),
		Signals: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "turbo_signals_total",
			Help: "Signals produced by side.",
		}, []string{"side"}),
		Orders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "turbo_orders_total",
			Help: "Order submissions by result.",
		}, []string{"result"}),
		Settlements: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "turbo_settlements_total",
			Help: "Settlements by result (win, loss, unknown).",
		}, []string{"result"}),
		GatewayRetries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "turbo_gateway_retries_total",
			Help: "Gateway call retries by operation.",
		}, []string{"op"}),
		Profit: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "turbo_accumulated_profit",
			Help: "Accumulated profit of the run.",
		}),
		NextStake: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "turbo_next_stake",
			Help: "Stake the next order will use.",
		}),
		ReinvestStreak: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "turbo_reinvest_streak",
			Help: "Current reinvestment streak.",
		}),
	}
	reg.MustRegister(
		m.Cycles, m.Signals, m.Orders, m.Settlements, m.GatewayRetries,
		m.Profit, m.NextStake, m.ReinvestStreak,
	)
	return m
}
