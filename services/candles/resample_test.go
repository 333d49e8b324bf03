package candles

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTimeframe(t *testing.T) {
	cases := map[string]time.Duration{
		"15m":  15 * time.Minute,
		"5min": 5 * time.Minute,
		"4h":   4 * time.Hour,
		"4H":   4 * time.Hour,
		"1d":   24 * time.Hour,
		"30":   30 * time.Minute,
	}
	for label, want := range cases {
		got, err := ParseTimeframe(label)
		require.NoError(t, err, label)
		assert.Equal(t, want, got, label)
	}

	for _, label := range []string{"", "abc", "0m", "-5m"} {
		_, err := ParseTimeframe(label)
		assert.Error(t, err, label)
	}
}

func TestResampleAggregatesBuckets(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	var bars []Candle
	// Six hourly bars spanning two 4h buckets (bucket 2 only half-filled).
	prices := []struct{ o, h, l, c, v float64 }{
		{100, 105, 99, 101, 10},
		{101, 103, 98, 102, 10},
		{102, 110, 101, 108, 10},
		{108, 109, 104, 105, 10},
		{105, 106, 100, 101, 10},
		{101, 102, 95, 96, 10},
	}
	for i, p := range prices {
		bars = append(bars, bar(base.Add(time.Duration(i)*time.Hour), p.o, p.h, p.l, p.c, p.v))
	}
	s, err := NewSeries("RS", "1h", bars)
	require.NoError(t, err)

	out, err := Resample(s, "4h")
	require.NoError(t, err)
	require.Equal(t, 2, out.Len())

	first := out.At(0)
	assert.Equal(t, base, first.Timestamp)
	assert.Equal(t, 100.0, first.Open)
	assert.Equal(t, 110.0, first.High)
	assert.Equal(t, 98.0, first.Low)
	assert.Equal(t, 105.0, first.Close)
	assert.Equal(t, 40.0, first.Volume)

	second := out.At(1)
	assert.Equal(t, base.Add(4*time.Hour), second.Timestamp)
	assert.Equal(t, 105.0, second.Open)
	assert.Equal(t, 96.0, second.Close)
	assert.Equal(t, 20.0, second.Volume)
	assert.Equal(t, "4h", out.Timeframe)
}

func TestResampleDropsEmptyBuckets(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s, err := NewSeries("RS", "1h", []Candle{
		bar(base, 100, 101, 99, 100, 5),
		// A twelve-hour gap: the intervening 4h buckets must not appear.
		bar(base.Add(12*time.Hour), 100, 102, 99, 101, 5),
	})
	require.NoError(t, err)

	out, err := Resample(s, "4h")
	require.NoError(t, err)
	assert.Equal(t, 2, out.Len())
}

func TestCadence(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s, err := NewSeries("C", "1h", []Candle{
		bar(base, 1, 2, 0.5, 1, 1),
		bar(base.Add(time.Hour), 1, 2, 0.5, 1, 1),
		bar(base.Add(2*time.Hour), 1, 2, 0.5, 1, 1),
		// One gap does not change the dominant spacing.
		bar(base.Add(5*time.Hour), 1, 2, 0.5, 1, 1),
		bar(base.Add(6*time.Hour), 1, 2, 0.5, 1, 1),
	})
	require.NoError(t, err)
	assert.Equal(t, time.Hour, s.Cadence())
}

func TestSyntheticIntraday(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	daily, err := NewSeries("SYN", "1d", []Candle{
		bar(base, 100, 110, 95, 105, 2400),
		bar(base.AddDate(0, 0, 1), 105, 112, 101, 108, 2400),
	})
	require.NoError(t, err)

	got, err := SyntheticIntraday(daily, 4, 42)
	require.NoError(t, err)
	require.Equal(t, 12, got.Len())

	// Chained opens: first bar opens at the daily open, later bars at the
	// previous close; the last bar of each day closes at the daily close.
	assert.Equal(t, 100.0, got.At(0).Open)
	for i := 1; i < 6; i++ {
		assert.Equal(t, got.At(i-1).Close, got.At(i).Open)
	}
	assert.Equal(t, 105.0, got.At(5).Close)
	assert.Equal(t, 108.0, got.At(11).Close)

	for i := 0; i < got.Len(); i++ {
		c := got.At(i)
		assert.GreaterOrEqual(t, c.High, c.Low)
		assert.GreaterOrEqual(t, c.High, c.Close)
		assert.LessOrEqual(t, c.Low, c.Open)
	}

	// Deterministic for a fixed seed.
	again, err := SyntheticIntraday(daily, 4, 42)
	require.NoError(t, err)
	assert.Equal(t, got.Candles, again.Candles)

	_, err = SyntheticIntraday(daily, 5, 42)
	assert.Error(t, err)
}
