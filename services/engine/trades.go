package engine

import (
	"math"
	"sort"
	"time"
)

// Trade is one completed round trip. At most one trade exists per date.
type Trade struct {
	Date       time.Time
	EntryTime  time.Time
	EntryPrice float64
	ExitTime   time.Time
	ExitPrice  float64
	Signal     int
	GrossPnl   float64
	NetPnl     float64
}

// BuildTrades constructs at most one trade per calendar date from
// signal-annotated bars. Only bars inside the session window are
// considered. The entry is the chronologically first window bar with a
// nonzero signal; days are partitioned in encounter order (never map
// iteration order), so on sorted input the earliest matching bar always
// wins. The exit is the bar at exactly the session close when present,
// otherwise the last window bar of the day.
//
// Entry price is the entry bar's close, exit price the exit bar's open.
// Gross P&L is entry.close-exit.open for shorts and exit.open-entry.close
// for longs. The transaction cost is |exit.open-entry.close|*costRate
// regardless of direction; net = gross - cost. Trades are returned sorted
// ascending by date.
func BuildTrades(bars []Bar, s Session, costRate float64) []Trade {
	type dayGroup struct {
		date time.Time
		bars []Bar
	}
	var days []dayGroup
	index := make(map[time.Time]int)
	for _, b := range bars {
		if !s.Contains(b.Ts) {
			continue
		}
		d := dateOf(b.Ts)
		i, ok := index[d]
		if !ok {
			i = len(days)
			index[d] = i
			days = append(days, dayGroup{date: d})
		}
		days[i].bars = append(days[i].bars, b)
	}

	trades := make([]Trade, 0, len(days))
	for _, day := range days {
		entry := -1
		for i := range day.bars {
			if day.bars[i].Signal != 0 {
				entry = i
				break
			}
		}
		if entry < 0 {
			continue
		}
		exit := len(day.bars) - 1
		for i := range day.bars {
			if minuteOf(day.bars[i].Ts) == s.Close {
				exit = i
				break
			}
		}

		in, out := day.bars[entry], day.bars[exit]
		gross := out.Open - in.Close
		if in.Signal < 0 {
			gross = in.Close - out.Open
		}
		cost := math.Abs(out.Open-in.Close) * costRate
		trades = append(trades, Trade{
			Date:       day.date,
			EntryTime:  in.Ts,
			EntryPrice: in.Close,
			ExitTime:   out.Ts,
			ExitPrice:  out.Open,
			Signal:     in.Signal,
			GrossPnl:   gross,
			NetPnl:     gross - cost,
		})
	}

	sort.Slice(trades, func(i, j int) bool { return trades[i].Date.Before(trades[j].Date) })
	return trades
}
