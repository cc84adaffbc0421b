// Package analytics derives the figures the API serves from stored daily
// bars: per-bar metrics, 52-week summaries, movers, volatility and
// comparisons.
package analytics

import (
	"math"

	"stockintel/internal/domain"
)

// MAWindow is the rolling-mean window of the ma_7 metric.
const MAWindow = 7

// Volatility classification thresholds, in percent of daily return stdev.
const (
	lowVolatility      = 1.5
	moderateVolatility = 3.0
)

// Round2 rounds v to two decimals, halves away from zero.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// DailyReturn is the intraday return of a bar in percent.
func DailyReturn(open, close float64) (float64, bool) {
	if open == 0 {
		return 0, false
	}
	return (close - open) / open * 100, true
}

// Derive fills DailyReturn and MA7 on bars, which must be one symbol's bars
// oldest first. MA7 stays nil until MAWindow closes are available. Prices
// and derived values are rounded to two decimals.
func Derive(bars []domain.Bar) {
	var sum float64
	for i := range bars {
		b := &bars[i]
		if r, ok := DailyReturn(b.Open, b.Close); ok {
			v := Round2(r)
			b.DailyReturn = &v
		}
		sum += b.Close
		if i >= MAWindow {
			sum -= bars[i-MAWindow].Close
		}
		if i >= MAWindow-1 {
			v := Round2(sum / MAWindow)
			b.MA7 = &v
		}
	}
	for i := range bars {
		b := &bars[i]
		b.Open, b.High, b.Low, b.Close = Round2(b.Open), Round2(b.High), Round2(b.Low), Round2(b.Close)
	}
}

// Mean returns the arithmetic mean of xs, or 0 for an empty slice.
func Mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// StdDev returns the sample standard deviation of xs, or 0 with fewer than
// two values.
func StdDev(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	m := Mean(xs)
	var ss float64
	for _, x := range xs {
		d := x - m
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(xs)-1))
}

// Classify labels a volatility score.
func Classify(score float64) string {
	switch {
	case score < lowVolatility:
		return domain.VolatilityLow
	case score < moderateVolatility:
		return domain.VolatilityModerate
	default:
		return domain.VolatilityHigh
	}
}

// Performance is the percentage by which the current price sits above the
// average close.
func Performance(s domain.Summary) (float64, bool) {
	if s.CurrentPrice == nil || s.AvgClose == 0 {
		return 0, false
	}
	return (*s.CurrentPrice - s.AvgClose) / s.AvgClose * 100, true
}
