// Package saver persists resampled bars in a choice of formats. The
// pipeline hands over plain engine bars; each saver owns its encoding.
package saver

import (
	"strings"

	"orb-backtest/services/engine"
)

// Bar is the serialization DTO shared by the CSV, JSON and Parquet
// savers. Time is formatted so a CSV export can be fed straight back
// into the tick reader.
type Bar struct {
	Time   string  `json:"date" parquet:"date"`
	Open   float64 `json:"open" parquet:"open"`
	High   float64 `json:"high" parquet:"high"`
	Low    float64 `json:"low" parquet:"low"`
	Close  float64 `json:"close" parquet:"close"`
	Volume float64 `json:"volume" parquet:"volume"`
	Signal int32   `json:"signal" parquet:"signal"`
}

const timeLayout = "2006-01-02 15:04:05"

// FromBars converts engine bars into the serialization DTO.
func FromBars(bars []engine.Bar) []Bar {
	out := make([]Bar, 0, len(bars))
	for _, b := range bars {
		out = append(out, Bar{
			Time:   b.Ts.Format(timeLayout),
			Open:   b.Open,
			High:   b.High,
			Low:    b.Low,
			Close:  b.Close,
			Volume: b.Volume,
			Signal: int32(b.Signal),
		})
	}
	return out
}

// BarSaver is the abstraction for persisting a batch of bars. Callers
// inject the implementation; consumers depend only on the interface.
type BarSaver interface {
	Save(bars []Bar, path string) error
	Extension() string
}

// NewBarSaver creates an implementation by format (csv, parquet, json).
// Returns nil if the format is not supported.
func NewBarSaver(format string) BarSaver {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "csv":
		return CSVSaver{}
	case "parquet":
		return ParquetSaver{}
	case "json":
		return JSONSaver{}
	default:
		return nil
	}
}
