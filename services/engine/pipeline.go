package engine

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

// Params configure one pipeline run.
type Params struct {
	// Interval is the resampling bucket width; whole minutes only.
	Interval time.Duration
	// SignalTime is the time of day of the signal candle.
	SignalTime MinuteOfDay
	// Session is the trading window trades are restricted to. Its close
	// minute is also the preferred exit bar.
	Session Session
	// CostRate is the proportional transaction cost applied to the
	// absolute entry-to-exit price move.
	CostRate float64
}

// DefaultParams returns the standard configuration: 5-minute bars, a
// 09:25 signal candle, a 09:30-15:15 session and a 0.0012 cost rate.
func DefaultParams() Params {
	return Params{
		Interval:   5 * time.Minute,
		SignalTime: MinuteOfDay(9*60 + 25),
		Session:    Session{Open: MinuteOfDay(9*60 + 30), Close: MinuteOfDay(15*60 + 15)},
		CostRate:   0.0012,
	}
}

func (p Params) Validate() error {
	if p.Interval <= 0 {
		return errors.New("interval must be positive")
	}
	if p.Interval%time.Minute != 0 {
		return fmt.Errorf("interval %s not a whole number of minutes", p.Interval)
	}
	if p.Session.Close < p.Session.Open {
		return fmt.Errorf("session close %s before open %s", p.Session.Close, p.Session.Open)
	}
	if p.CostRate < 0 {
		return fmt.Errorf("cost rate %v negative", p.CostRate)
	}
	return nil
}

// Result carries everything one run produced, as plain data. Reporters
// and writers render it; the engine does not.
type Result struct {
	Bars        []Bar
	Trades      []Trade
	Summary     Summary
	Rows        int
	Gaps        int
	SignalDays  int
	SignalCount int
}

// Run executes the whole chain over raw ticks: stable sort, resample,
// classify, signal, trade construction, evaluation. Each step's elapsed
// time and output cardinality go to rep as it completes; pass nil to
// discard events. The run is deterministic: identical ticks always yield
// an identical Result. Ticks may be reordered in place.
func Run(ticks []Tick, p Params, rep Reporter) (Result, error) {
	if err := p.Validate(); err != nil {
		return Result{}, err
	}
	if rep == nil {
		rep = NopReporter{}
	}

	// Stable keeps file order for duplicate timestamps.
	sort.SliceStable(ticks, func(i, j int) bool { return ticks[i].Ts.Before(ticks[j].Ts) })

	res := Result{Rows: len(ticks)}

	start := time.Now()
	res.Bars = Resample(ticks, p.Interval)
	res.Gaps = len(DetectGaps(res.Bars, p.Interval))
	rep.StageDone(StageResample, time.Since(start))
	rep.Count(CountBars, len(res.Bars))
	rep.Count(CountGaps, res.Gaps)

	start = time.Now()
	res.SignalDays = ClassifySignalCandles(res.Bars, p.SignalTime)
	rep.StageDone(StageClassify, time.Since(start))
	rep.Count(CountSignalDays, res.SignalDays)

	start = time.Now()
	res.SignalCount = ApplySignals(res.Bars)
	rep.StageDone(StageSignals, time.Since(start))
	rep.Count(CountSignals, res.SignalCount)

	start = time.Now()
	res.Trades = BuildTrades(res.Bars, p.Session, p.CostRate)
	rep.StageDone(StageTrades, time.Since(start))
	rep.Count(CountTrades, len(res.Trades))

	start = time.Now()
	res.Summary = Evaluate(res.Trades)
	rep.StageDone(StageEvaluate, time.Since(start))
	rep.Summarize(res.Summary)

	return res, nil
}
