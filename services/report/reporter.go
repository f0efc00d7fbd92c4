package report

import (
	"time"

	"go.uber.org/zap"

	"orb-backtest/services/engine"
)

// Multi fans events out to several reporters in order.
func Multi(reporters ...engine.Reporter) engine.Reporter { return multi(reporters) }

type multi []engine.Reporter

func (m multi) StageDone(stage string, elapsed time.Duration) {
	for _, r := range m {
		r.StageDone(stage, elapsed)
	}
}

func (m multi) Count(name string, n int) {
	for _, r := range m {
		r.Count(name, n)
	}
}

func (m multi) Summarize(s engine.Summary) {
	for _, r := range m {
		r.Summarize(s)
	}
}

// Zap mirrors pipeline events as structured log entries.
type Zap struct {
	L *zap.Logger
}

func (z *Zap) StageDone(stage string, elapsed time.Duration) {
	z.L.Info("stage complete",
		zap.String("stage", stage),
		zap.Duration("elapsed", elapsed),
	)
}

func (z *Zap) Count(name string, n int) {
	z.L.Info("pipeline count",
		zap.String("name", name),
		zap.Int("count", n),
	)
}

func (z *Zap) Summarize(s engine.Summary) {
	z.L.Info("performance summary",
		zap.Int("total_trades", s.TotalTrades),
		zap.Float64("total_pnl", s.TotalPnl),
		zap.Float64("max_drawdown", s.MaxDrawdown),
		zap.Float64("sharpe_ratio", s.SharpeRatio),
		zap.Float64("calmar_ratio", s.CalmarRatio),
		zap.Float64("win_rate", s.WinRate),
		zap.Int("wins", s.Wins),
		zap.Int("losses", s.Losses),
	)
}

// Recorder keeps every event as plain data, for the JSON run report and
// for job status endpoints. One Recorder belongs to one run; it is not
// safe for concurrent use.
type Recorder struct {
	Stages  map[string]time.Duration
	Counts  map[string]int
	Summary engine.Summary
}

func NewRecorder() *Recorder {
	return &Recorder{
		Stages: make(map[string]time.Duration),
		Counts: make(map[string]int),
	}
}

func (r *Recorder) StageDone(stage string, elapsed time.Duration) { r.Stages[stage] = elapsed }
func (r *Recorder) Count(name string, n int)                      { r.Counts[name] = n }
func (r *Recorder) Summarize(s engine.Summary)                    { r.Summary = s }
