package engine

import (
	"math"
	"testing"
	"time"
)

func tradesFromNets(nets []float64) []Trade {
	trades := make([]Trade, len(nets))
	for i, n := range nets {
		trades[i] = Trade{
			Date:   time.Date(2024, time.January, 15+i, 0, 0, 0, 0, time.UTC),
			NetPnl: n,
		}
	}
	return trades
}

func TestEvaluateEmptyIsAllZero(t *testing.T) {
	s := Evaluate(nil)
	if s.TotalTrades != 0 || s.Wins != 0 || s.Losses != 0 {
		t.Fatalf("counts nonzero: %+v", s)
	}
	for name, v := range map[string]float64{
		"total_pnl":    s.TotalPnl,
		"max_drawdown": s.MaxDrawdown,
		"sharpe":       s.SharpeRatio,
		"calmar":       s.CalmarRatio,
		"win_rate":     s.WinRate,
		"avg_win":      s.AvgWin,
		"avg_loss":     s.AvgLoss,
	} {
		if v != 0 {
			t.Errorf("%s = %v, want 0", name, v)
		}
	}
}

func TestEvaluateDrawdownWalk(t *testing.T) {
	// net:    +10   -4    -8    +6    -1
	// cum:     10    6    -2     4     3
	// peak:    10   10    10    10    10
	// dd:       0   -4   -12    -6    -7   -> max drawdown -12
	s := Evaluate(tradesFromNets([]float64{10, -4, -8, 6, -1}))

	if math.Abs(s.TotalPnl-3) > 1e-9 {
		t.Errorf("total = %v, want 3", s.TotalPnl)
	}
	if math.Abs(s.MaxDrawdown-(-12)) > 1e-9 {
		t.Errorf("max drawdown = %v, want -12", s.MaxDrawdown)
	}
	if s.Wins != 2 || s.Losses != 3 {
		t.Errorf("wins/losses = %d/%d, want 2/3", s.Wins, s.Losses)
	}
	if math.Abs(s.WinRate-40) > 1e-9 {
		t.Errorf("win rate = %v, want 40", s.WinRate)
	}
	if math.Abs(s.AvgWin-8) > 1e-9 {
		t.Errorf("avg win = %v, want 8", s.AvgWin)
	}
	if math.Abs(s.AvgLoss-(-13.0/3)) > 1e-9 {
		t.Errorf("avg loss = %v, want %v", s.AvgLoss, -13.0/3)
	}
	// mean 0.6, population variance 43.04
	wantSharpe := 0.6 / math.Sqrt(43.04)
	if math.Abs(s.SharpeRatio-wantSharpe) > 0.0001 {
		t.Errorf("sharpe = %v, want %v", s.SharpeRatio, wantSharpe)
	}
	if math.Abs(s.CalmarRatio-0.05) > 0.0001 {
		t.Errorf("calmar = %v, want 0.05", s.CalmarRatio)
	}
}

// An opening loss draws down from flat: the running maximum starts at
// zero, not at the first cumulative value.
func TestEvaluateOpeningLossIsDrawdown(t *testing.T) {
	s := Evaluate(tradesFromNets([]float64{-5, 2}))
	if math.Abs(s.MaxDrawdown-(-5)) > 1e-9 {
		t.Errorf("max drawdown = %v, want -5", s.MaxDrawdown)
	}
}

// Divide by n, not n-1: nets {30, 10, 20}, mean 20, population variance
// (100+100+0)/3, so sharpe is 20/sqrt(200/3), not 20/10.
func TestEvaluateUsesPopulationVariance(t *testing.T) {
	s := Evaluate(tradesFromNets([]float64{30, 10, 20}))
	want := 20 / math.Sqrt(200.0/3)
	if math.Abs(s.SharpeRatio-want) > 0.0001 {
		t.Errorf("sharpe = %v, want %v (population std)", s.SharpeRatio, want)
	}
	if math.Abs(s.SharpeRatio-2) < 0.0001 {
		t.Error("sharpe matches the sample-variance value; variance must divide by n")
	}
}

func TestEvaluateZeroStdGivesZeroSharpe(t *testing.T) {
	s := Evaluate(tradesFromNets([]float64{5, 5, 5}))
	if s.SharpeRatio != 0 {
		t.Errorf("sharpe = %v, want 0 when std is 0", s.SharpeRatio)
	}
}

func TestEvaluateNoDrawdownGivesZeroCalmar(t *testing.T) {
	s := Evaluate(tradesFromNets([]float64{1, 2, 3}))
	if s.MaxDrawdown != 0 {
		t.Fatalf("max drawdown = %v, want 0", s.MaxDrawdown)
	}
	if s.CalmarRatio != 0 {
		t.Errorf("calmar = %v, want 0 when max drawdown is 0", s.CalmarRatio)
	}
}

// Flat trades belong to neither side of the book.
func TestEvaluateZeroPnlTradesCountNowhere(t *testing.T) {
	s := Evaluate(tradesFromNets([]float64{5, 0, -5}))
	if s.Wins != 1 || s.Losses != 1 {
		t.Errorf("wins/losses = %d/%d, want 1/1", s.Wins, s.Losses)
	}
	if math.Abs(s.WinRate-100.0/3) > 0.0001 {
		t.Errorf("win rate = %v, want %v", s.WinRate, 100.0/3)
	}
	if math.Abs(s.AvgWin-5) > 1e-9 || math.Abs(s.AvgLoss-(-5)) > 1e-9 {
		t.Errorf("avg win/loss = %v/%v, want 5/-5", s.AvgWin, s.AvgLoss)
	}
}

func TestEvaluateWinRateBounds(t *testing.T) {
	for _, nets := range [][]float64{
		{1, 2, 3},
		{-1, -2},
		{1, -1, 0},
		{0},
	} {
		s := Evaluate(tradesFromNets(nets))
		if s.WinRate < 0 || s.WinRate > 100 {
			t.Errorf("win rate %v out of [0,100] for %v", s.WinRate, nets)
		}
		if s.MaxDrawdown > 0 {
			t.Errorf("max drawdown %v positive for %v", s.MaxDrawdown, nets)
		}
	}
}
