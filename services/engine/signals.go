package engine

import "time"

type dayClass struct {
	Type CandleType
	Ref  float64
}

// ClassifySignalCandles finds, per calendar date, the bar whose time of
// day is exactly at, classifies it bullish when close > open and bearish
// otherwise (ties are bearish), and records a reference value: the bar's
// high when bullish, its low when bearish. The classification is then
// broadcast to every bar of that date, including bars earlier than the
// signal time: the strategy treats the day's bias as a property of the
// date, not of individual bars. Dates without a bar at exactly the
// signal time stay unclassified.
//
// Bars are annotated in place; the return value is the number of
// classified dates.
func ClassifySignalCandles(bars []Bar, at MinuteOfDay) int {
	classes := make(map[time.Time]dayClass)
	for _, b := range bars {
		if minuteOf(b.Ts) != at || b.Ts.Second() != 0 {
			continue
		}
		cl := dayClass{Type: CandleBearish, Ref: b.Low}
		if b.Close > b.Open {
			cl = dayClass{Type: CandleBullish, Ref: b.High}
		}
		classes[dateOf(b.Ts)] = cl
	}
	for i := range bars {
		if cl, ok := classes[dateOf(bars[i].Ts)]; ok {
			bars[i].CandleType = cl.Type
			bars[i].CandleVal = cl.Ref
		}
	}
	return len(classes)
}

// ApplySignals derives each bar's trading signal from its broadcast
// classification: -1 when a bearish day's bar closes below the reference
// value, +1 when a bullish day's bar closes above it, 0 otherwise.
// Unclassified bars always carry 0. Returns the number of nonzero
// signals.
func ApplySignals(bars []Bar) int {
	n := 0
	for i := range bars {
		b := &bars[i]
		b.Signal = 0
		switch {
		case b.CandleType == CandleBearish && b.Close < b.CandleVal:
			b.Signal = -1
		case b.CandleType == CandleBullish && b.Close > b.CandleVal:
			b.Signal = 1
		}
		if b.Signal != 0 {
			n++
		}
	}
	return n
}
