package engine

import "math"

// Summary aggregates a trade sequence into headline performance numbers.
// All fields are zero for an empty sequence; that is a defined result,
// not an error.
type Summary struct {
	TotalTrades int
	TotalPnl    float64
	MaxDrawdown float64
	SharpeRatio float64
	CalmarRatio float64
	WinRate     float64
	AvgWin      float64
	AvgLoss     float64
	Wins        int
	Losses      int
}

// Evaluate reduces trades (in date order) to a Summary.
//
// Drawdown walks cumulative net P&L against its running maximum; the
// running maximum starts at zero, so an opening string of losses counts
// as drawdown from flat. MaxDrawdown is the most negative excursion and
// never positive. The Sharpe-like ratio is mean over population standard
// deviation (divide by n, not n-1), unannualized; the Calmar-like ratio
// is mean over |MaxDrawdown|. Both are zero when their denominator is.
// Trades with net P&L exactly zero count as neither wins nor losses.
func Evaluate(trades []Trade) Summary {
	var s Summary
	if len(trades) == 0 {
		return s
	}
	s.TotalTrades = len(trades)

	cum, runMax := 0.0, 0.0
	for _, t := range trades {
		s.TotalPnl += t.NetPnl
		cum += t.NetPnl
		if cum > runMax {
			runMax = cum
		}
		if dd := cum - runMax; dd < s.MaxDrawdown {
			s.MaxDrawdown = dd
		}
	}

	n := float64(len(trades))
	mean := s.TotalPnl / n
	variance := 0.0
	for _, t := range trades {
		d := t.NetPnl - mean
		variance += d * d
	}
	variance /= n
	if std := math.Sqrt(variance); std != 0 {
		s.SharpeRatio = mean / std
	}
	if s.MaxDrawdown != 0 {
		s.CalmarRatio = mean / math.Abs(s.MaxDrawdown)
	}

	var winSum, lossSum float64
	for _, t := range trades {
		switch {
		case t.NetPnl > 0:
			s.Wins++
			winSum += t.NetPnl
		case t.NetPnl < 0:
			s.Losses++
			lossSum += t.NetPnl
		}
	}
	s.WinRate = float64(s.Wins) / n * 100
	if s.Wins > 0 {
		s.AvgWin = winSum / float64(s.Wins)
	}
	if s.Losses > 0 {
		s.AvgLoss = lossSum / float64(s.Losses)
	}
	return s
}
