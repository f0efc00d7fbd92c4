package saver

import (
	"encoding/csv"
	"os"
	"strconv"
)

// CSVSaver writes bars as CSV with the same column names the tick
// reader accepts.
type CSVSaver struct{}

func (CSVSaver) Extension() string { return "csv" }

func (CSVSaver) Save(bars []Bar, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write([]string{"date", "open", "high", "low", "close", "volume", "signal"}); err != nil {
		return err
	}
	for _, b := range bars {
		if err := w.Write([]string{
			b.Time,
			floatStr(b.Open),
			floatStr(b.High),
			floatStr(b.Low),
			floatStr(b.Close),
			floatStr(b.Volume),
			strconv.FormatInt(int64(b.Signal), 10),
		}); err != nil {
			return err
		}
	}
	return nil
}

func floatStr(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) }
