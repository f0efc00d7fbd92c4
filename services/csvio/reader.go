// Package csvio reads raw tick CSVs and reads/writes the trade table.
// It is the pipeline's only contact with files; the engine never sees a
// path or an io.Reader.
package csvio

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"orb-backtest/services/engine"
)

// DatetimeLayouts are the accepted input datetime patterns, tried in
// order. The first one that parses wins, so ambiguous day/month strings
// resolve to the earlier layout.
var DatetimeLayouts = []string{
	"2006-01-02 15:04:05",
	"02-01-2006 15:04:05",
	"2006/01/02 15:04:05",
	"02/01/2006 15:04:05",
	"2006-01-02 15:04",
	"02-01-2006 15:04",
}

// ParseDatetime parses free-text datetimes against DatetimeLayouts.
func ParseDatetime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range DatetimeLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized datetime %q", s)
}

// ReadTicks loads a tick CSV from path. See ReadTicksFrom.
func ReadTicks(path string) ([]engine.Tick, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	defer f.Close()
	return ReadTicksFrom(f)
}

// ReadTicksFrom loads tick CSV data from in. The header is matched
// case-insensitively and must contain date, open, high, low, close and
// volume columns. Rows whose datetime matches no layout are dropped
// silently and counted in the second return value; any structural
// problem (a short row, a non-numeric price) fails the whole load.
// UTF-16 input with a byte-order mark is decoded transparently; a stray
// UTF-8 BOM on the header is stripped.
func ReadTicksFrom(in io.Reader) ([]engine.Tick, int, error) {
	br := bufio.NewReader(in)
	var src io.Reader = br
	// Peek leaves the BOM in place for the decoder to consume.
	if b, _ := br.Peek(2); len(b) == 2 && ((b[0] == 0xFF && b[1] == 0xFE) || (b[0] == 0xFE && b[1] == 0xFF)) {
		dec := unicode.UTF16(unicode.LittleEndian, unicode.ExpectBOM).NewDecoder()
		src = transform.NewReader(br, dec)
	}

	r := csv.NewReader(src)
	r.LazyQuotes = true

	header, err := r.Read()
	if err != nil {
		return nil, 0, fmt.Errorf("read header: %w", err)
	}
	colIdx := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.TrimPrefix(strings.TrimSpace(name), "\uFEFF")
		colIdx[strings.ToLower(name)] = i
	}
	for _, need := range []string{"date", "open", "high", "low", "close", "volume"} {
		if _, ok := colIdx[need]; !ok {
			return nil, 0, fmt.Errorf("missing column %q", need)
		}
	}

	var ticks []engine.Tick
	dropped := 0
	for row := 2; ; row++ {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, 0, fmt.Errorf("row %d: %w", row, err)
		}

		ts, err := ParseDatetime(rec[colIdx["date"]])
		if err != nil {
			dropped++
			continue
		}
		open, err := parseFloat(rec[colIdx["open"]])
		if err != nil {
			return nil, 0, fmt.Errorf("row %d open: %w", row, err)
		}
		high, err := parseFloat(rec[colIdx["high"]])
		if err != nil {
			return nil, 0, fmt.Errorf("row %d high: %w", row, err)
		}
		low, err := parseFloat(rec[colIdx["low"]])
		if err != nil {
			return nil, 0, fmt.Errorf("row %d low: %w", row, err)
		}
		closep, err := parseFloat(rec[colIdx["close"]])
		if err != nil {
			return nil, 0, fmt.Errorf("row %d close: %w", row, err)
		}
		volume, err := parseFloat(rec[colIdx["volume"]])
		if err != nil {
			return nil, 0, fmt.Errorf("row %d volume: %w", row, err)
		}

		ticks = append(ticks, engine.Tick{
			Ts:     ts,
			Open:   open,
			High:   high,
			Low:    low,
			Close:  closep,
			Volume: volume,
		})
	}
	return ticks, dropped, nil
}

// ReadTrades loads a trade table previously written by WriteTrades.
func ReadTrades(path string) ([]engine.Trade, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	colIdx := make(map[string]int, len(header))
	for i, name := range header {
		colIdx[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, need := range tradeHeader {
		if _, ok := colIdx[need]; !ok {
			return nil, fmt.Errorf("missing column %q", need)
		}
	}

	var trades []engine.Trade
	for row := 2; ; row++ {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", row, err)
		}

		date, err := time.Parse("2006-01-02", rec[colIdx["date"]])
		if err != nil {
			return nil, fmt.Errorf("row %d date: %w", row, err)
		}
		entryTime, err := onDate(date, rec[colIdx["entry_time"]])
		if err != nil {
			return nil, fmt.Errorf("row %d entry_time: %w", row, err)
		}
		exitTime, err := onDate(date, rec[colIdx["exit_time"]])
		if err != nil {
			return nil, fmt.Errorf("row %d exit_time: %w", row, err)
		}
		entryPrice, err := parseFloat(rec[colIdx["entry_price"]])
		if err != nil {
			return nil, fmt.Errorf("row %d entry_price: %w", row, err)
		}
		exitPrice, err := parseFloat(rec[colIdx["exit_price"]])
		if err != nil {
			return nil, fmt.Errorf("row %d exit_price: %w", row, err)
		}
		signal, err := strconv.Atoi(strings.TrimSpace(rec[colIdx["signal"]]))
		if err != nil {
			return nil, fmt.Errorf("row %d signal: %w", row, err)
		}
		gross, err := parseFloat(rec[colIdx["gross_pnl"]])
		if err != nil {
			return nil, fmt.Errorf("row %d gross_pnl: %w", row, err)
		}
		net, err := parseFloat(rec[colIdx["net_pnl"]])
		if err != nil {
			return nil, fmt.Errorf("row %d net_pnl: %w", row, err)
		}

		trades = append(trades, engine.Trade{
			Date:       date,
			EntryTime:  entryTime,
			EntryPrice: entryPrice,
			ExitTime:   exitTime,
			ExitPrice:  exitPrice,
			Signal:     signal,
			GrossPnl:   gross,
			NetPnl:     net,
		})
	}
	return trades, nil
}

func parseFloat(s string) (float64, error) {
	return strconv.ParseFloat(strings.TrimSpace(s), 64)
}

// onDate combines a HH:MM:SS clock string with d's calendar date.
func onDate(d time.Time, clock string) (time.Time, error) {
	t, err := time.Parse("15:04:05", strings.TrimSpace(clock))
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(d.Year(), d.Month(), d.Day(), t.Hour(), t.Minute(), t.Second(), 0, d.Location()), nil
}
