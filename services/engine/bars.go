// Package engine implements the intraday signal-candle backtest chain:
// tick resampling, per-day candle classification, signal generation, trade
// construction and performance evaluation. Everything in this package is
// pure in-memory computation; I/O lives with the callers.
package engine

import "time"

// Tick is one raw OHLCV row as ingested, before resampling.
type Tick struct {
	Ts     time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// CandleType is a trading day's signal-candle classification. The zero
// value means the day (or bar) is unclassified.
type CandleType string

const (
	CandleBullish CandleType = "bullish"
	CandleBearish CandleType = "bearish"
)

// Bar is a fixed-interval OHLCV bar. CandleType and CandleVal are filled
// in by ClassifySignalCandles for every bar of a classified date;
// CandleVal is meaningful only when CandleType is set. Signal is -1, 0
// or +1 and defaults to 0.
type Bar struct {
	Ts         time.Time
	Open       float64
	High       float64
	Low        float64
	Close      float64
	Volume     float64
	CandleType CandleType
	CandleVal  float64
	Signal     int
}

// BucketStart floors ts to the start of its enclosing interval bucket.
// It is a pure function of the timestamp: for a 5-minute interval the
// result has minute%5 == 0 and second == 0, independent of how ticks are
// ordered or grouped.
func BucketStart(ts time.Time, interval time.Duration) time.Time {
	step := int64(interval / time.Second)
	sec := ts.Unix()
	return time.Unix(sec-sec%step, 0).In(ts.Location())
}

// Resample aggregates chronologically sorted ticks into interval bars.
// Consecutive ticks whose timestamps floor to the same bucket start are
// merged: open from the first tick, close from the last, high/low are the
// extremes, volume the sum. A change of bucket start closes the current
// bar, so emission order follows input order and empty buckets are simply
// absent; gaps are never filled. Callers must pass ticks sorted
// ascending by timestamp.
func Resample(ticks []Tick, interval time.Duration) []Bar {
	bars := make([]Bar, 0, len(ticks))
	for _, t := range ticks {
		start := BucketStart(t.Ts, interval)
		if n := len(bars); n > 0 && bars[n-1].Ts.Equal(start) {
			b := &bars[n-1]
			if t.High > b.High {
				b.High = t.High
			}
			if t.Low < b.Low {
				b.Low = t.Low
			}
			b.Close = t.Close
			b.Volume += t.Volume
			continue
		}
		bars = append(bars, Bar{
			Ts:     start,
			Open:   t.Open,
			High:   t.High,
			Low:    t.Low,
			Close:  t.Close,
			Volume: t.Volume,
		})
	}
	return bars
}

// DetectGaps returns the timestamps of bars that are followed by a hole in
// the interval grid on the same trading date. Gaps are reported for data
// quality only; the pipeline never fills them.
func DetectGaps(bars []Bar, interval time.Duration) []time.Time {
	var gaps []time.Time
	for i := 1; i < len(bars); i++ {
		prev, cur := bars[i-1], bars[i]
		if !dateOf(prev.Ts).Equal(dateOf(cur.Ts)) {
			continue
		}
		if cur.Ts.Sub(prev.Ts) > interval {
			gaps = append(gaps, prev.Ts)
		}
	}
	return gaps
}
