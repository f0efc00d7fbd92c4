// Package arrowpipeline serializes resampled bars as Apache Arrow IPC
// so other engines and notebooks can consume a run's bars without
// re-parsing CSV.
package arrowpipeline

import (
	"bytes"
	"fmt"
	"time"

	"github.com/apache/arrow/go/v14/arrow"
	"github.com/apache/arrow/go/v14/arrow/array"
	"github.com/apache/arrow/go/v14/arrow/ipc"
	"github.com/apache/arrow/go/v14/arrow/memory"

	"orb-backtest/services/engine"
)

// Encoder turns bar slices into Arrow IPC streams. The zero value is
// not usable; create one with NewEncoder.
type Encoder struct {
	mem memory.Allocator
}

func NewEncoder() *Encoder {
	return &Encoder{mem: memory.NewGoAllocator()}
}

func barSchema() *arrow.Schema {
	return arrow.NewSchema([]arrow.Field{
		{Name: "timestamp", Type: arrow.PrimitiveTypes.Int64},
		{Name: "open", Type: arrow.PrimitiveTypes.Float64},
		{Name: "high", Type: arrow.PrimitiveTypes.Float64},
		{Name: "low", Type: arrow.PrimitiveTypes.Float64},
		{Name: "close", Type: arrow.PrimitiveTypes.Float64},
		{Name: "volume", Type: arrow.PrimitiveTypes.Float64},
		{Name: "signal", Type: arrow.PrimitiveTypes.Int32},
	}, nil)
}

// EncodeBars serializes bars as a single-record Arrow IPC stream.
// Timestamps are Unix milliseconds.
func (e *Encoder) EncodeBars(bars []engine.Bar) ([]byte, error) {
	if len(bars) == 0 {
		return nil, fmt.Errorf("no bars to encode")
	}

	schema := barSchema()

	timestamps := make([]int64, len(bars))
	opens := make([]float64, len(bars))
	highs := make([]float64, len(bars))
	lows := make([]float64, len(bars))
	closes := make([]float64, len(bars))
	volumes := make([]float64, len(bars))
	signals := make([]int32, len(bars))
	for i, b := range bars {
		timestamps[i] = b.Ts.UnixMilli()
		opens[i] = b.Open
		highs[i] = b.High
		lows[i] = b.Low
		closes[i] = b.Close
		volumes[i] = b.Volume
		signals[i] = int32(b.Signal)
	}

	tsBuilder := array.NewInt64Builder(e.mem)
	tsBuilder.AppendValues(timestamps, nil)
	tsArray := tsBuilder.NewInt64Array()

	openBuilder := array.NewFloat64Builder(e.mem)
	openBuilder.AppendValues(opens, nil)
	openArray := openBuilder.NewFloat64Array()

	highBuilder := array.NewFloat64Builder(e.mem)
	highBuilder.AppendValues(highs, nil)
	highArray := highBuilder.NewFloat64Array()

	lowBuilder := array.NewFloat64Builder(e.mem)
	lowBuilder.AppendValues(lows, nil)
	lowArray := lowBuilder.NewFloat64Array()

	closeBuilder := array.NewFloat64Builder(e.mem)
	closeBuilder.AppendValues(closes, nil)
	closeArray := closeBuilder.NewFloat64Array()

	volumeBuilder := array.NewFloat64Builder(e.mem)
	volumeBuilder.AppendValues(volumes, nil)
	volumeArray := volumeBuilder.NewFloat64Array()

	signalBuilder := array.NewInt32Builder(e.mem)
	signalBuilder.AppendValues(signals, nil)
	signalArray := signalBuilder.NewInt32Array()

	record := array.NewRecord(schema, []arrow.Array{
		tsArray,
		openArray,
		highArray,
		lowArray,
		closeArray,
		volumeArray,
		signalArray,
	}, int64(len(bars)))
	defer record.Release()

	var buf bytes.Buffer
	writer := ipc.NewWriter(&buf, ipc.WithSchema(schema))
	if err := writer.Write(record); err != nil {
		writer.Close()
		return nil, fmt.Errorf("write arrow record: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("close arrow writer: %w", err)
	}
	return buf.Bytes(), nil
}

// DecodeBars reads an IPC stream produced by EncodeBars back into
// bars. Timestamps come back in UTC; fields the stream does not carry
// (candle classification) stay zero.
func DecodeBars(data []byte) ([]engine.Bar, error) {
	reader, err := ipc.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open arrow stream: %w", err)
	}
	defer reader.Release()

	var bars []engine.Bar
	for reader.Next() {
		rec := reader.Record()
		ts := rec.Column(0).(*array.Int64)
		open := rec.Column(1).(*array.Float64)
		high := rec.Column(2).(*array.Float64)
		low := rec.Column(3).(*array.Float64)
		closep := rec.Column(4).(*array.Float64)
		volume := rec.Column(5).(*array.Float64)
		signal := rec.Column(6).(*array.Int32)

		for i := 0; i < int(rec.NumRows()); i++ {
			bars = append(bars, engine.Bar{
				Ts:     time.UnixMilli(ts.Value(i)).UTC(),
				Open:   open.Value(i),
				High:   high.Value(i),
				Low:    low.Value(i),
				Close:  closep.Value(i),
				Volume: volume.Value(i),
				Signal: int(signal.Value(i)),
			})
		}
	}
	if err := reader.Err(); err != nil {
		return nil, fmt.Errorf("read arrow stream: %w", err)
	}
	return bars, nil
}
