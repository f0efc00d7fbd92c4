package csvio

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"

	"orb-backtest/services/engine"
)

var tradeHeader = []string{
	"date", "entry_time", "entry_price", "exit_time", "exit_price",
	"signal", "gross_pnl", "net_pnl",
}

// WriteTrades persists the trade table to path. Prices keep their
// shortest round-trip form; P&L columns are fixed to 4 decimal digits.
func WriteTrades(path string, trades []engine.Trade) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return WriteTradesTo(f, trades)
}

// WriteTradesTo writes the trade table to w, for HTTP responses and
// other non-file sinks.
func WriteTradesTo(out io.Writer, trades []engine.Trade) error {
	w := csv.NewWriter(out)
	if err := w.Write(tradeHeader); err != nil {
		return err
	}
	for _, t := range trades {
		rec := []string{
			t.Date.Format("2006-01-02"),
			t.EntryTime.Format("15:04:05"),
			formatPrice(t.EntryPrice),
			t.ExitTime.Format("15:04:05"),
			formatPrice(t.ExitPrice),
			strconv.Itoa(t.Signal),
			formatPnl(t.GrossPnl),
			formatPnl(t.NetPnl),
		}
		if err := w.Write(rec); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func formatPrice(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }
func formatPnl(v float64) string   { return strconv.FormatFloat(v, 'f', 4, 64) }
