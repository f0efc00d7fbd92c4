// Command data_generator creates sample intraday tick data for testing
// the pipeline end to end: one row per minute of the 09:15-15:30
// session, weekdays only, with trending and choppy stretches so both
// long and short signal days show up.
package main

import (
	"encoding/csv"
	"fmt"
	"log"
	"math"
	"math/rand"
	"os"
	"time"

	"github.com/shopspring/decimal"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: data_generator <output_file.csv> [days]")
		fmt.Println("Example: data_generator ticks.csv 30")
		os.Exit(1)
	}

	outputFile := os.Args[1]
	days := 30
	if len(os.Args) > 2 {
		fmt.Sscanf(os.Args[2], "%d", &days)
	}

	fmt.Printf("Generating %d trading days of tick data to %s\n", days, outputFile)

	file, err := os.Create(outputFile)
	if err != nil {
		log.Fatalf("Failed to create file: %v", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	header := []string{"date", "open", "high", "low", "close", "volume"}
	if err := writer.Write(header); err != nil {
		log.Fatalf("Failed to write header: %v", err)
	}

	rand.Seed(42) // Fixed seed for reproducibility

	price := 22000.0
	day := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	ticks := 0

	for d := 0; d < days; day = day.AddDate(0, 0, 1) {
		if wd := day.Weekday(); wd == time.Saturday || wd == time.Sunday {
			continue
		}
		d++

		// Alternate regimes so signal candles land on both sides.
		trend := 0.0
		switch {
		case d%7 < 3:
			trend = 0.0002
		case d%7 < 5:
			trend = -0.0002
		}

		// 09:15 through 15:29, one tick per minute.
		for minute := 9*60 + 15; minute < 15*60+30; minute++ {
			change := (rand.Float64()-0.5)*0.002 + trend
			price *= (1 + change)
			if price < 15000 {
				price = 15000
			}
			if price > 30000 {
				price = 30000
			}

			open := price
			volatility := 0.0003 + rand.Float64()*0.0007
			high := open * (1 + volatility*rand.Float64())
			low := open * (1 - volatility*rand.Float64())
			close := open + (high-low)*(rand.Float64()-0.5)*0.8
			if high < open {
				high = open
			}
			if high < close {
				high = close
			}
			if low > open {
				low = open
			}
			if low > close {
				low = close
			}

			volume := 100 + rand.Float64()*900 + math.Abs(change)*1e6

			ts := time.Date(day.Year(), day.Month(), day.Day(), minute/60, minute%60, 0, 0, time.UTC)
			record := []string{
				ts.Format("2006-01-02 15:04:05"),
				decimal.NewFromFloat(open).Round(2).String(),
				decimal.NewFromFloat(high).Round(2).String(),
				decimal.NewFromFloat(low).Round(2).String(),
				decimal.NewFromFloat(close).Round(2).String(),
				decimal.NewFromFloat(volume).Round(0).String(),
			}
			if err := writer.Write(record); err != nil {
				log.Fatalf("Failed to write record: %v", err)
			}

			price = close
			ticks++
		}
	}

	fmt.Printf("Generated %d ticks across %d trading days successfully\n", ticks, days)
}
