package candles

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
)

// columnAliases maps the header spellings seen in upstream exports to the
// canonical lowercase names.
var columnAliases = map[string]string{
	"timestamp": "timestamp", "timestamp_ms": "timestamp", "date": "timestamp", "time": "timestamp",
	"open": "open", "high": "high", "low": "low", "close": "close", "volume": "volume",
}

// LoadCSV reads an OHLCV CSV into a validated Series. The reader tolerates a
// UTF-8/UTF-16 BOM, a header row with aliased column names, out-of-order rows
// and duplicate timestamps. Timestamps may be unix milliseconds, unix seconds
// or RFC3339/date strings.
func LoadCSV(path, symbol, timeframe string) (*Series, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open candles csv: %w", err)
	}
	defer f.Close()
	return ReadCSV(f, symbol, timeframe)
}

// ReadCSV is LoadCSV over an arbitrary reader.
func ReadCSV(src io.Reader, symbol, timeframe string) (*Series, error) {
	bom := unicode.BOMOverride(unicode.UTF8.NewDecoder())
	r := csv.NewReader(bufio.NewReader(transform.NewReader(src, bom)))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	// Column order defaults to timestamp,open,high,low,close,volume when no
	// recognizable header is present.
	idx := map[string]int{"timestamp": 0, "open": 1, "high": 2, "low": 3, "close": 4, "volume": 5}

	var bars []Candle
	line := 0
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			line++
			continue
		}
		if line == 0 && isHeader(rec) {
			idx = headerIndex(rec)
			line++
			continue
		}
		line++
		if len(rec) < 5 {
			continue
		}
		c, err := parseRecord(rec, idx)
		if err != nil {
			continue
		}
		bars = append(bars, c)
	}
	return NewSeries(symbol, timeframe, bars)
}

func isHeader(rec []string) bool {
	if len(rec) == 0 {
		return false
	}
	_, ok := columnAliases[strings.ToLower(strings.TrimSpace(rec[0]))]
	if !ok {
		return false
	}
	_, err := strconv.ParseFloat(strings.TrimSpace(rec[0]), 64)
	return err != nil
}

func headerIndex(rec []string) map[string]int {
	idx := make(map[string]int, len(rec))
	for i, name := range rec {
		if canon, ok := columnAliases[strings.ToLower(strings.TrimSpace(name))]; ok {
			if _, seen := idx[canon]; !seen {
				idx[canon] = i
			}
		}
	}
	return idx
}

func parseRecord(rec []string, idx map[string]int) (Candle, error) {
	field := func(name string) (string, bool) {
		i, ok := idx[name]
		if !ok || i >= len(rec) {
			return "", false
		}
		return strings.TrimSpace(rec[i]), true
	}

	tsRaw, ok := field("timestamp")
	if !ok {
		return Candle{}, fmt.Errorf("missing timestamp column")
	}
	ts, err := ParseTimestamp(tsRaw)
	if err != nil {
		return Candle{}, err
	}

	num := func(name string) (float64, error) {
		raw, ok := field(name)
		if !ok {
			return 0, fmt.Errorf("missing %s column", name)
		}
		return strconv.ParseFloat(raw, 64)
	}

	open, err := num("open")
	if err != nil {
		return Candle{}, err
	}
	high, err := num("high")
	if err != nil {
		return Candle{}, err
	}
	low, err := num("low")
	if err != nil {
		return Candle{}, err
	}
	closeP, err := num("close")
	if err != nil {
		return Candle{}, err
	}
	volume, err := num("volume")
	if err != nil {
		volume = 0
	}

	return Candle{Timestamp: ts, Open: open, High: high, Low: low, Close: closeP, Volume: volume}, nil
}

// ParseTimestamp accepts unix milliseconds, unix seconds, RFC3339 or plain
// dates/datetimes.
func ParseTimestamp(raw string) (time.Time, error) {
	raw = strings.TrimPrefix(raw, "\ufeff")
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		// Heuristic: values past the year 2600 in seconds are milliseconds.
		if n > 20_000_000_000 {
			return time.UnixMilli(n).UTC(), nil
		}
		return time.Unix(n, 0).UTC(), nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", raw)
}

// WriteCSV writes the series in the canonical unix-millisecond layout consumed
// by LoadCSV.
func WriteCSV(s *Series, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create candles csv: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(bufio.NewWriter(f))
	if err := w.Write([]string{"timestamp", "open", "high", "low", "close", "volume"}); err != nil {
		return err
	}
	for _, c := range s.Candles {
		rec := []string{
			strconv.FormatInt(c.Timestamp.UnixMilli(), 10),
			strconv.FormatFloat(c.Open, 'f', -1, 64),
			strconv.FormatFloat(c.High, 'f', -1, 64),
			strconv.FormatFloat(c.Low, 'f', -1, 64),
			strconv.FormatFloat(c.Close, 'f', -1, 64),
			strconv.FormatFloat(c.Volume, 'f', -1, 64),
		}
		if err := w.Write(rec); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
