package engine

import "time"

// Stage and count labels used in Reporter events.
const (
	StageLoad     = "load"
	StageResample = "resample"
	StageClassify = "classify"
	StageSignals  = "signals"
	StageTrades   = "trades"
	StageEvaluate = "evaluate"

	CountRows       = "rows"
	CountDropped    = "dropped_rows"
	CountBars       = "bars"
	CountGaps       = "gaps"
	CountSignalDays = "signal_days"
	CountSignals    = "signals"
	CountTrades     = "trades"
)

// Reporter is the injected sink for pipeline progress. The engine hands
// over plain data (labels, durations, counts, the final Summary) and
// never formats or prints anything itself.
type Reporter interface {
	// StageDone reports one completed pipeline step and its wall time.
	StageDone(stage string, elapsed time.Duration)
	// Count reports a dataset cardinality keyed by one of the Count
	// labels above.
	Count(name string, n int)
	// Summarize delivers the final performance summary.
	Summarize(s Summary)
}

// NopReporter discards every event.
type NopReporter struct{}

func (NopReporter) StageDone(string, time.Duration) {}
func (NopReporter) Count(string, int)               {}
func (NopReporter) Summarize(Summary)               {}
