package saver

import (
	"encoding/json"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"orb-backtest/services/csvio"
	"orb-backtest/services/engine"
)

func sampleBars() []engine.Bar {
	ts := time.Date(2024, 1, 15, 9, 25, 0, 0, time.UTC)
	return []engine.Bar{
		{Ts: ts, Open: 102.5, High: 103.1, Low: 102.2, Close: 102.9, Volume: 1500, Signal: 1},
		{Ts: ts.Add(5 * time.Minute), Open: 102.9, High: 103, Low: 102.4, Close: 102.6, Volume: 900, Signal: -1},
	}
}

func TestNewBarSaverFormats(t *testing.T) {
	cases := []struct {
		format string
		ext    string
	}{
		{"csv", "csv"},
		{"json", "json"},
		{"parquet", "parquet"},
		{" CSV ", "csv"},
		{"Parquet", "parquet"},
	}
	for _, tc := range cases {
		s := NewBarSaver(tc.format)
		if s == nil {
			t.Fatalf("NewBarSaver(%q) = nil", tc.format)
		}
		if s.Extension() != tc.ext {
			t.Errorf("NewBarSaver(%q).Extension() = %q, want %q", tc.format, s.Extension(), tc.ext)
		}
	}
	if s := NewBarSaver("xml"); s != nil {
		t.Errorf("unsupported format should return nil, got %T", s)
	}
}

func TestFromBars(t *testing.T) {
	got := FromBars(sampleBars())

	want := []Bar{
		{Time: "2024-01-15 09:25:00", Open: 102.5, High: 103.1, Low: 102.2, Close: 102.9, Volume: 1500, Signal: 1},
		{Time: "2024-01-15 09:30:00", Open: 102.9, High: 103, Low: 102.4, Close: 102.6, Volume: 900, Signal: -1},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("FromBars = %+v, want %+v", got, want)
	}
}

func TestCSVSaverOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bars.csv")
	if err := (CSVSaver{}).Save(FromBars(sampleBars()), path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want 3:\n%s", len(lines), data)
	}
	if lines[0] != "date,open,high,low,close,volume,signal" {
		t.Errorf("header = %q", lines[0])
	}
	if lines[1] != "2024-01-15 09:25:00,102.5,103.1,102.2,102.9,1500,1" {
		t.Errorf("row 1 = %q", lines[1])
	}
	if lines[2] != "2024-01-15 09:30:00,102.9,103,102.4,102.6,900,-1" {
		t.Errorf("row 2 = %q", lines[2])
	}
}

// A saved bar CSV is valid pipeline input again, so it can be resampled
// to a coarser interval in a second pass.
func TestCSVSaverFeedsTickReader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bars.csv")
	if err := (CSVSaver{}).Save(FromBars(sampleBars()), path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	ticks, dropped, err := csvio.ReadTicks(path)
	if err != nil {
		t.Fatalf("ReadTicks: %v", err)
	}
	if dropped != 0 {
		t.Errorf("dropped = %d, want 0", dropped)
	}
	if len(ticks) != 2 {
		t.Fatalf("got %d ticks, want 2", len(ticks))
	}
	if !ticks[0].Ts.Equal(time.Date(2024, 1, 15, 9, 25, 0, 0, time.UTC)) {
		t.Errorf("ticks[0].Ts = %v", ticks[0].Ts)
	}
	if ticks[1].Close != 102.6 || ticks[1].Volume != 900 {
		t.Errorf("ticks[1] = %+v", ticks[1])
	}
}

func TestJSONSaverRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bars.json")
	bars := FromBars(sampleBars())
	if err := (JSONSaver{}).Save(bars, path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var back []Bar
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !reflect.DeepEqual(back, bars) {
		t.Fatalf("round trip = %+v, want %+v", back, bars)
	}
}

func TestParquetSaverWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bars.parquet")
	if err := (ParquetSaver{}).Save(FromBars(sampleBars()), path); err != nil {
		t.Fatalf("Save: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Size() == 0 {
		t.Error("parquet file is empty")
	}
}

func TestSaversRejectBadPath(t *testing.T) {
	bad := filepath.Join(t.TempDir(), "missing", "bars.csv")
	for _, s := range []BarSaver{CSVSaver{}, JSONSaver{}} {
		if err := s.Save(nil, bad); err == nil {
			t.Errorf("%T should fail on missing directory", s)
		}
	}
}
