// Package arrowio serializes candle frames and equity curves as Arrow IPC
// streams, the interchange format consumed by downstream analysis tooling.
package arrowio

import (
	"bytes"
	"fmt"
	"time"

	"github.com/apache/arrow/go/v14/arrow"
	"github.com/apache/arrow/go/v14/arrow/array"
	"github.com/apache/arrow/go/v14/arrow/ipc"
	"github.com/apache/arrow/go/v14/arrow/memory"

	"github.com/phungvanthien/seerbot-backtest/services/candles"
	"github.com/phungvanthien/seerbot-backtest/services/engine"
	"github.com/phungvanthien/seerbot-backtest/services/indicators"
)

// Codec holds the allocator shared by encode and decode calls.
type Codec struct {
	pool memory.Allocator
}

func NewCodec() *Codec {
	return &Codec{pool: memory.NewGoAllocator()}
}

// EncodeFrame writes one annotated frame as a single-record IPC stream. The
// schema is the five OHLCV columns plus every computed indicator column.
func (c *Codec) EncodeFrame(f *indicators.Frame) ([]byte, error) {
	if f.Len() == 0 {
		return nil, fmt.Errorf("empty frame")
	}

	fields := []arrow.Field{
		{Name: "timestamp", Type: arrow.PrimitiveTypes.Uint64},
		{Name: "open", Type: arrow.PrimitiveTypes.Float64},
		{Name: "high", Type: arrow.PrimitiveTypes.Float64},
		{Name: "low", Type: arrow.PrimitiveTypes.Float64},
		{Name: "close", Type: arrow.PrimitiveTypes.Float64},
		{Name: "volume", Type: arrow.PrimitiveTypes.Float64},
	}
	extra := f.Columns()
	for _, name := range extra {
		fields = append(fields, arrow.Field{Name: name, Type: arrow.PrimitiveTypes.Float64})
	}
	meta := arrow.NewMetadata(
		[]string{"symbol", "timeframe"},
		[]string{f.Series.Symbol, f.Series.Timeframe},
	)
	schema := arrow.NewSchema(fields, &meta)

	n := f.Len()
	tsBuilder := array.NewUint64Builder(c.pool)
	defer tsBuilder.Release()
	for i := 0; i < n; i++ {
		tsBuilder.Append(uint64(f.At(i).Timestamp.UnixMilli()))
	}

	cols := []arrow.Array{tsBuilder.NewUint64Array()}
	appendF64 := func(values []float64) {
		b := array.NewFloat64Builder(c.pool)
		defer b.Release()
		b.AppendValues(values, nil)
		cols = append(cols, b.NewFloat64Array())
	}

	opens := make([]float64, n)
	highs := make([]float64, n)
	lows := make([]float64, n)
	closes := make([]float64, n)
	volumes := make([]float64, n)
	for i := 0; i < n; i++ {
		bar := f.At(i)
		opens[i], highs[i], lows[i] = bar.Open, bar.High, bar.Low
		closes[i], volumes[i] = bar.Close, bar.Volume
	}
	appendF64(opens)
	appendF64(highs)
	appendF64(lows)
	appendF64(closes)
	appendF64(volumes)
	for _, name := range extra {
		appendF64(f.Col(name))
	}

	record := array.NewRecord(schema, cols, int64(n))
	defer record.Release()

	var buf bytes.Buffer
	w := ipc.NewWriter(&buf, ipc.WithSchema(schema), ipc.WithAllocator(c.pool))
	if err := w.Write(record); err != nil {
		return nil, fmt.Errorf("write frame record: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("close frame writer: %w", err)
	}
	return buf.Bytes(), nil
}

// EncodeEquity writes a run's equity curve as a two-column IPC stream.
func (c *Codec) EncodeEquity(run *engine.RunResult) ([]byte, error) {
	if run == nil || len(run.Equity) == 0 {
		return nil, fmt.Errorf("empty equity curve")
	}
	meta := arrow.NewMetadata(
		[]string{"symbol", "timeframe", "strategy"},
		[]string{run.Symbol, run.Timeframe, run.Strategy},
	)
	schema := arrow.NewSchema([]arrow.Field{
		{Name: "timestamp", Type: arrow.PrimitiveTypes.Uint64},
		{Name: "equity", Type: arrow.PrimitiveTypes.Float64},
	}, &meta)

	tsBuilder := array.NewUint64Builder(c.pool)
	defer tsBuilder.Release()
	eqBuilder := array.NewFloat64Builder(c.pool)
	defer eqBuilder.Release()
	for _, p := range run.Equity {
		tsBuilder.Append(uint64(p.Timestamp.UnixMilli()))
		eqBuilder.Append(p.Value)
	}

	record := array.NewRecord(schema, []arrow.Array{
		tsBuilder.NewUint64Array(), eqBuilder.NewFloat64Array(),
	}, int64(len(run.Equity)))
	defer record.Release()

	var buf bytes.Buffer
	w := ipc.NewWriter(&buf, ipc.WithSchema(schema), ipc.WithAllocator(c.pool))
	if err := w.Write(record); err != nil {
		return nil, fmt.Errorf("write equity record: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("close equity writer: %w", err)
	}
	return buf.Bytes(), nil
}

// DecodeSeries reads candles back out of an IPC stream produced by
// EncodeFrame (indicator columns are ignored). Symbol and timeframe come
// from the schema metadata.
func (c *Codec) DecodeSeries(data []byte) (*candles.Series, error) {
	r, err := ipc.NewReader(bytes.NewReader(data), ipc.WithAllocator(c.pool))
	if err != nil {
		return nil, fmt.Errorf("open ipc reader: %w", err)
	}
	defer r.Release()

	schema := r.Schema()
	col := func(name string) int {
		for i, fld := range schema.Fields() {
			if fld.Name == name {
				return i
			}
		}
		return -1
	}
	for _, name := range []string{"timestamp", "open", "high", "low", "close", "volume"} {
		if col(name) < 0 {
			return nil, fmt.Errorf("stream missing column %q", name)
		}
	}

	var bars []candles.Candle
	for r.Next() {
		rec := r.Record()
		ts := rec.Column(col("timestamp")).(*array.Uint64)
		open := rec.Column(col("open")).(*array.Float64)
		high := rec.Column(col("high")).(*array.Float64)
		low := rec.Column(col("low")).(*array.Float64)
		closep := rec.Column(col("close")).(*array.Float64)
		volume := rec.Column(col("volume")).(*array.Float64)
		for i := 0; i < int(rec.NumRows()); i++ {
			bars = append(bars, candles.Candle{
				Timestamp: time.UnixMilli(int64(ts.Value(i))).UTC(),
				Open:      open.Value(i),
				High:      high.Value(i),
				Low:       low.Value(i),
				Close:     closep.Value(i),
				Volume:    volume.Value(i),
			})
		}
	}
	if err := r.Err(); err != nil {
		return nil, fmt.Errorf("read ipc stream: %w", err)
	}

	symbol, timeframe := "", ""
	md := schema.Metadata()
	if idx := md.FindKey("symbol"); idx >= 0 {
		symbol = md.Values()[idx]
	}
	if idx := md.FindKey("timeframe"); idx >= 0 {
		timeframe = md.Values()[idx]
	}
	return candles.NewSeries(symbol, timeframe, bars)
}
