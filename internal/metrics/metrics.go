// Package metrics holds Prometheus instrumentation for the trading agent.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds all Prometheus metrics for the agent.
type Metrics struct {
	CyclesTotal prometheus.Counter
	CycleDur    prometheus.Histogram

	FetchDur    prometheus.Histogram
	FetchErrors prometheus.Counter

	OracleDur    prometheus.Histogram
	OracleErrors prometheus.Counter

	DecisionsTotal   *prometheus.CounterVec // labels: signal
	LedgerOpsTotal   *prometheus.CounterVec // labels: op, outcome
	PersistErrors    prometheus.Counter
	JournalErrors    prometheus.Counter
	OpenPositions    prometheus.Gauge
	AccountValue     prometheus.Gauge
	StreamClients    prometheus.Gauge
	StreamDropsTotal prometheus.Counter
}

// New registers and returns all Prometheus metrics.
func New() *Metrics {
	m := &Metrics{
		CyclesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "agentd_cycles_total",
			Help: "Total trading cycles run",
		}),
		CycleDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "agentd_cycle_duration_seconds",
			Help:    "Full trading cycle latency (fetch + oracle + execute)",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 20, 40, 60},
		}),
		FetchDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "agentd_fetch_duration_seconds",
			Help:    "Candle fetch latency per (market, timeframe)",
			Buckets: prometheus.DefBuckets,
		}),
		FetchErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "agentd_fetch_errors_total",
			Help: "Candle fetches that failed and degraded to empty snapshots",
		}),
		OracleDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "agentd_oracle_duration_seconds",
			Help:    "Decision oracle round-trip latency",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 20, 40, 60},
		}),
		OracleErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "agentd_oracle_errors_total",
			Help: "Oracle calls that failed or returned malformed decisions",
		}),
		DecisionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "agentd_decisions_total",
			Help: "Trade decisions executed (by signal)",
		}, []string{"signal"}),
		LedgerOpsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "agentd_ledger_ops_total",
			Help: "Ledger operations (by op and outcome)",
		}, []string{"op", "outcome"}),
		PersistErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "agentd_persist_errors_total",
			Help: "Failed account document saves (state stays in memory)",
		}),
		JournalErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "agentd_journal_errors_total",
			Help: "Failed history journal writes",
		}),
		OpenPositions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "agentd_open_positions",
			Help: "Currently open paper positions",
		}),
		AccountValue: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "agentd_account_value",
			Help: "Account total value (cash + margin + unrealized PnL)",
		}),
		StreamClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "agentd_stream_clients",
			Help: "Connected WebSocket stream clients",
		}),
		StreamDropsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "agentd_stream_drops_total",
			Help: "Messages dropped to slow WebSocket clients",
		}),
	}

	prometheus.MustRegister(
		m.CyclesTotal,
		m.CycleDur,
		m.FetchDur,
		m.FetchErrors,
		m.OracleDur,
		m.OracleErrors,
		m.DecisionsTotal,
		m.LedgerOpsTotal,
		m.PersistErrors,
		m.JournalErrors,
		m.OpenPositions,
		m.AccountValue,
		m.StreamClients,
		m.StreamDropsTotal,
	)

	return m
}
