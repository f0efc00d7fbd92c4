package report

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"

	"orb-backtest/services/engine"
)

// RunReport is the JSON artifact describing one complete run: the
// parameters it used, what the dataset looked like, how long each stage
// took and the final summary.
type RunReport struct {
	GeneratedAt  string            `json:"generated_at"`
	Input        string            `json:"input"`
	Output       string            `json:"output"`
	Interval     string            `json:"interval"`
	SignalTime   string            `json:"signal_time"`
	SessionOpen  string            `json:"session_open"`
	SessionClose string            `json:"session_close"`
	CostRate     float64           `json:"cost_rate"`
	Rows         int               `json:"rows"`
	DroppedRows  int               `json:"dropped_rows"`
	Bars         int               `json:"bars"`
	Gaps         int               `json:"gaps"`
	SignalDays   int               `json:"signal_days"`
	Signals      int               `json:"signals"`
	Durations    map[string]string `json:"stage_durations"`
	Summary      SummaryReport     `json:"summary"`
}

// SummaryReport renders engine.Summary for the report, with money and
// ratio fields as fixed-precision decimals.
type SummaryReport struct {
	TotalTrades int             `json:"total_trades"`
	TotalPnl    decimal.Decimal `json:"total_pnl"`
	MaxDrawdown decimal.Decimal `json:"max_drawdown"`
	SharpeRatio decimal.Decimal `json:"sharpe_ratio"`
	CalmarRatio decimal.Decimal `json:"calmar_ratio"`
	WinRate     decimal.Decimal `json:"win_rate"`
	AvgWin      decimal.Decimal `json:"avg_win"`
	AvgLoss     decimal.Decimal `json:"avg_loss"`
	Wins        int             `json:"wins"`
	Losses      int             `json:"losses"`
}

func NewSummaryReport(s engine.Summary) SummaryReport {
	round := func(v float64) decimal.Decimal { return decimal.NewFromFloat(v).Round(4) }
	return SummaryReport{
		TotalTrades: s.TotalTrades,
		TotalPnl:    round(s.TotalPnl),
		MaxDrawdown: round(s.MaxDrawdown),
		SharpeRatio: round(s.SharpeRatio),
		CalmarRatio: round(s.CalmarRatio),
		WinRate:     round(s.WinRate),
		AvgWin:      round(s.AvgWin),
		AvgLoss:     round(s.AvgLoss),
		Wins:        s.Wins,
		Losses:      s.Losses,
	}
}

// Build assembles a RunReport from the run's recorded events and result.
func Build(input, output string, p engine.Params, res engine.Result, dropped int, rec *Recorder) RunReport {
	durations := make(map[string]string, len(rec.Stages))
	for stage, d := range rec.Stages {
		durations[stage] = d.String()
	}
	return RunReport{
		GeneratedAt:  time.Now().UTC().Format(time.RFC3339),
		Input:        input,
		Output:       output,
		Interval:     p.Interval.String(),
		SignalTime:   p.SignalTime.String(),
		SessionOpen:  p.Session.Open.String(),
		SessionClose: p.Session.Close.String(),
		CostRate:     p.CostRate,
		Rows:         res.Rows,
		DroppedRows:  dropped,
		Bars:         len(res.Bars),
		Gaps:         res.Gaps,
		SignalDays:   res.SignalDays,
		Signals:      res.SignalCount,
		Durations:    durations,
		Summary:      NewSummaryReport(res.Summary),
	}
}

// WriteRunReport writes the report as indented JSON, creating parent
// directories as needed.
func WriteRunReport(path string, r RunReport) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o644)
}
