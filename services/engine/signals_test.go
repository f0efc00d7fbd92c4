package engine

import (
	"testing"
	"time"
)

var signalAt = MinuteOfDay(9*60 + 25)

func TestClassifyBullishUsesHigh(t *testing.T) {
	bars := []Bar{
		{Ts: at(9, 25, 0), Open: 100, High: 102, Low: 99, Close: 101},
	}
	days := ClassifySignalCandles(bars, signalAt)
	if days != 1 {
		t.Fatalf("classified %d days, want 1", days)
	}
	if bars[0].CandleType != CandleBullish {
		t.Errorf("type = %q, want bullish", bars[0].CandleType)
	}
	if bars[0].CandleVal != 102 {
		t.Errorf("reference = %v, want high 102", bars[0].CandleVal)
	}
}

func TestClassifyBearishUsesLow(t *testing.T) {
	bars := []Bar{
		{Ts: at(9, 25, 0), Open: 101, High: 102, Low: 99, Close: 100},
	}
	ClassifySignalCandles(bars, signalAt)
	if bars[0].CandleType != CandleBearish {
		t.Errorf("type = %q, want bearish", bars[0].CandleType)
	}
	if bars[0].CandleVal != 99 {
		t.Errorf("reference = %v, want low 99", bars[0].CandleVal)
	}
}

func TestClassifyTieIsBearish(t *testing.T) {
	bars := []Bar{
		{Ts: at(9, 25, 0), Open: 100, High: 101, Low: 99, Close: 100},
	}
	ClassifySignalCandles(bars, signalAt)
	if bars[0].CandleType != CandleBearish {
		t.Errorf("close == open must classify bearish, got %q", bars[0].CandleType)
	}
}

// The day's classification applies to every bar of the date, including
// bars that precede the signal candle itself.
func TestBroadcastReachesEarlierBars(t *testing.T) {
	bars := []Bar{
		{Ts: at(9, 15, 0), Open: 99, High: 100, Low: 98, Close: 99.5},
		{Ts: at(9, 20, 0), Open: 99.5, High: 100.5, Low: 99, Close: 100},
		{Ts: at(9, 25, 0), Open: 100, High: 102, Low: 99.8, Close: 101},
		{Ts: at(9, 30, 0), Open: 101, High: 103, Low: 100.9, Close: 102.5},
	}
	ClassifySignalCandles(bars, signalAt)
	for i, b := range bars {
		if b.CandleType != CandleBullish || b.CandleVal != 102 {
			t.Errorf("bar %d (%v): type=%q val=%v, want bullish/102", i, b.Ts, b.CandleType, b.CandleVal)
		}
	}
}

func TestClassifySkipsDatesWithoutSignalBar(t *testing.T) {
	bars := []Bar{
		{Ts: at(9, 30, 0), Open: 100, High: 101, Low: 99, Close: 100.5},
		{Ts: at(9, 35, 0), Open: 100.5, High: 101, Low: 100, Close: 100.9},
	}
	if days := ClassifySignalCandles(bars, signalAt); days != 0 {
		t.Fatalf("classified %d days, want 0", days)
	}
	for _, b := range bars {
		if b.CandleType != "" {
			t.Errorf("bar %v classified as %q on a day without a signal candle", b.Ts, b.CandleType)
		}
	}
}

func TestClassifyOnePerDate(t *testing.T) {
	var bars []Bar
	for day := 15; day <= 17; day++ {
		for m := 0; m < 60; m += 5 {
			bars = append(bars, Bar{
				Ts: time.Date(2024, time.January, day, 9, m, 0, 0, time.UTC),
				Open: 100, High: 102, Low: 98, Close: 101,
			})
		}
	}
	if days := ClassifySignalCandles(bars, signalAt); days != 3 {
		t.Fatalf("classified %d days, want 3", days)
	}
}

func TestApplySignals(t *testing.T) {
	bars := []Bar{
		// bearish day, close below reference -> -1
		{Ts: at(10, 0, 0), Close: 98, CandleType: CandleBearish, CandleVal: 99},
		// bearish day, close at reference -> 0
		{Ts: at(10, 5, 0), Close: 99, CandleType: CandleBearish, CandleVal: 99},
		// bullish day, close above reference -> +1
		{Ts: at(10, 10, 0), Close: 103, CandleType: CandleBullish, CandleVal: 102},
		// bullish day, close at reference -> 0
		{Ts: at(10, 15, 0), Close: 102, CandleType: CandleBullish, CandleVal: 102},
		// unclassified -> 0
		{Ts: at(10, 20, 0), Close: 200},
	}
	n := ApplySignals(bars)
	if n != 2 {
		t.Fatalf("nonzero signals = %d, want 2", n)
	}
	want := []int{-1, 0, 1, 0, 0}
	for i, b := range bars {
		if b.Signal != want[i] {
			t.Errorf("bar %d signal = %d, want %d", i, b.Signal, want[i])
		}
	}
}
