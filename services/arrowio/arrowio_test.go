package arrowio

import (
	"bytes"
	"testing"
	"time"

	"github.com/apache/arrow/go/v14/arrow/array"
	"github.com/apache/arrow/go/v14/arrow/ipc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phungvanthien/seerbot-backtest/services/candles"
	"github.com/phungvanthien/seerbot-backtest/services/engine"
	"github.com/phungvanthien/seerbot-backtest/services/indicators"
)

func sampleFrame(t *testing.T) *indicators.Frame {
	t.Helper()
	base := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	var bars []candles.Candle
	price := 100.0
	for i := 0; i < 30; i++ {
		bars = append(bars, candles.Candle{
			Timestamp: base.Add(time.Duration(i) * time.Hour),
			Open:      price, High: price * 1.01, Low: price * 0.99,
			Close: price * 1.005, Volume: 1000,
		})
		price *= 1.005
	}
	s, err := candles.NewSeries("iETHUSDM", "1h", bars)
	require.NoError(t, err)
	f, err := indicators.Annotate(s, indicators.DefaultParams(), indicators.ColRSI, indicators.ColEMA20)
	require.NoError(t, err)
	return f
}

func TestFrameRoundTrip(t *testing.T) {
	codec := NewCodec()
	f := sampleFrame(t)

	data, err := codec.EncodeFrame(f)
	require.NoError(t, err)
	require.NotEmpty(t, data)

	got, err := codec.DecodeSeries(data)
	require.NoError(t, err)

	assert.Equal(t, "iETHUSDM", got.Symbol)
	assert.Equal(t, "1h", got.Timeframe)
	require.Equal(t, f.Len(), got.Len())
	for i := 0; i < f.Len(); i++ {
		want := f.At(i)
		have := got.At(i)
		assert.Equal(t, want.Timestamp, have.Timestamp)
		assert.Equal(t, want.Open, have.Open)
		assert.Equal(t, want.High, have.High)
		assert.Equal(t, want.Low, have.Low)
		assert.Equal(t, want.Close, have.Close)
		assert.Equal(t, want.Volume, have.Volume)
	}
}

func TestEncodeFrameIncludesIndicatorColumns(t *testing.T) {
	codec := NewCodec()
	data, err := codec.EncodeFrame(sampleFrame(t))
	require.NoError(t, err)

	r, err := ipc.NewReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer r.Release()

	names := make(map[string]bool)
	for _, fld := range r.Schema().Fields() {
		names[fld.Name] = true
	}
	assert.True(t, names[indicators.ColRSI])
	assert.True(t, names[indicators.ColEMA20])
	assert.True(t, names["close"])
}

func TestEquityEncoding(t *testing.T) {
	codec := NewCodec()
	base := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	run := &engine.RunResult{
		Symbol: "ADAUSDM", Timeframe: "4h", Strategy: "classic",
		Equity: []engine.EquityPoint{
			{Timestamp: base, Value: 10000},
			{Timestamp: base.Add(4 * time.Hour), Value: 10080},
		},
	}

	data, err := codec.EncodeEquity(run)
	require.NoError(t, err)

	r, err := ipc.NewReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer r.Release()

	md := r.Schema().Metadata()
	idx := md.FindKey("strategy")
	require.GreaterOrEqual(t, idx, 0)
	assert.Equal(t, "classic", md.Values()[idx])

	require.True(t, r.Next())
	rec := r.Record()
	require.EqualValues(t, 2, rec.NumRows())
	eq := rec.Column(1).(*array.Float64)
	assert.Equal(t, 10080.0, eq.Value(1))
}

func TestEncodeRejectsEmptyInput(t *testing.T) {
	codec := NewCodec()

	_, err := codec.EncodeEquity(&engine.RunResult{})
	assert.Error(t, err)

	_, err = codec.EncodeEquity(nil)
	assert.Error(t, err)
}
