package models

import "time"

// Candle represents one OHLCV observation for a fixed time bucket.
// Candle series are ordered by strictly increasing timestamp and are
// immutable once produced.
type Candle struct {
	Timestamp time.Time
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    float64
}

// TimeframeSeries is a candle series at a derived resolution. Buckets are
// non-overlapping, contiguous, and aligned to multiples of Duration measured
// from the base series' first timestamp.
type TimeframeSeries struct {
	Duration time.Duration
	Candles  []Candle
}

// Len returns the number of candles in the series.
func (s *TimeframeSeries) Len() int { return len(s.Candles) }

// Closes returns the close column of the series.
func (s *TimeframeSeries) Closes() []float64 {
	out := make([]float64, len(s.Candles))
	for i, c := range s.Candles {
		out[i] = c.Close
	}
	return out
}

// Volumes returns the volume column of the series.
func (s *TimeframeSeries) Volumes() []float64 {
	out := make([]float64, len(s.Candles))
	for i, c := range s.Candles {
		out[i] = c.Volume
	}
	return out
}
