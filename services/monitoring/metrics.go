// Package monitoring exposes Prometheus counters for the backtest
// server and batch tools.
package monitoring

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "backtest_runs_total", Help: "Backtest runs by final status"},
		[]string{"status"},
	)
	RowsProcessed = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "backtest_rows_processed_total", Help: "Tick rows read across all runs"},
	)
	TradesProduced = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "backtest_trades_produced_total", Help: "Trades produced across all runs"},
	)
	RunDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "backtest_run_duration_seconds",
			Help:    "Wall time of one pipeline run",
			Buckets: prometheus.DefBuckets,
		},
	)
)

func init() {
	prometheus.MustRegister(RunsTotal, RowsProcessed, TradesProduced, RunDuration)
}

// Serve starts a metrics endpoint on addr and returns the server so the
// caller can close it on shutdown.
func Serve(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() { _ = srv.ListenAndServe() }()
	return srv
}

// ObserveRun records one finished run in every run-level metric.
func ObserveRun(status string, rows, trades int, seconds float64) {
	RunsTotal.WithLabelValues(status).Inc()
	RowsProcessed.Add(float64(rows))
	TradesProduced.Add(float64(trades))
	RunDuration.Observe(seconds)
}
