// Resamples a candle CSV to a coarser cadence.
package main

import (
	"flag"
	"fmt"

	"github.com/phungvanthien/seerbot-backtest/services/candles"
)

func main() {
	in := flag.String("in", "", "Input CSV (timestamp,open,high,low,close,volume)")
	out := flag.String("out", "", "Output CSV path")
	dst := flag.String("dst", "15m", "Target cadence (e.g., 15m, 4h, 1d)")
	flag.Parse()

	if *in == "" || *out == "" {
		panic("-in and -out are required")
	}

	series, err := candles.LoadCSV(*in, "resample", "src")
	if err != nil {
		panic(err)
	}

	resampled, err := candles.Resample(series, *dst)
	if err != nil {
		panic(err)
	}

	if err := candles.WriteCSV(resampled, *out); err != nil {
		panic(err)
	}
	fmt.Printf("Resampled %d -> %d bars (%s) into %s\n",
		series.Len(), resampled.Len(), *dst, *out)
}
