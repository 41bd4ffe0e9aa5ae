package market

import "math"

// Indicator outputs are aligned one-to-one with the input series. The first
// period-1 values (period for RSI) are NaN, never zero-filled: downstream
// consumers must treat NaN as "not yet evaluable".

// IsDefined reports whether an indicator value is usable.
func IsDefined(v float64) bool { return !math.IsNaN(v) }

// EMA computes an exponential moving average with smoothing constant
// k = 2/(period+1), seeded with the simple average of the first period values.
func EMA(data []float64, period int) []float64 {
	out := nanSeries(len(data))
	if period < 1 || len(data) < period {
		return out
	}

	k := 2.0 / (float64(period) + 1.0)

	sum := 0.0
	for i := 0; i < period; i++ {
		sum += data[i]
	}
	out[period-1] = sum / float64(period)

	for i := period; i < len(data); i++ {
		out[i] = data[i]*k + out[i-1]*(1-k)
	}
	return out
}

// RSI computes the relative strength index with Wilder smoothing, bounded in
// [0,100]. The first period values are NaN.
func RSI(closes []float64, period int) []float64 {
	out := nanSeries(len(closes))
	if period < 1 || len(closes) < period+1 {
		return out
	}

	gains := make([]float64, len(closes)-1)
	losses := make([]float64, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		change := closes[i] - closes[i-1]
		if change > 0 {
			gains[i-1] = change
		} else {
			losses[i-1] = -change
		}
	}

	avgGain, avgLoss := 0.0, 0.0
	for i := 0; i < period; i++ {
		avgGain += gains[i]
		avgLoss += losses[i]
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)
	out[period] = rsiValue(avgGain, avgLoss)

	for i := period + 1; i < len(closes); i++ {
		avgGain = (avgGain*float64(period-1) + gains[i-1]) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + losses[i-1]) / float64(period)
		out[i] = rsiValue(avgGain, avgLoss)
	}
	return out
}

func rsiValue(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - 100/(1+rs)
}

// StochK computes the fast stochastic %K over the given lookback, bounded in
// [0,100]. A flat window (high == low) yields 50.
func StochK(highs, lows, closes []float64, period int) []float64 {
	out := nanSeries(len(closes))
	if period < 1 || len(closes) < period {
		return out
	}
	for i := period - 1; i < len(closes); i++ {
		hi, lo := highs[i], lows[i]
		for j := i - period + 1; j < i; j++ {
			if highs[j] > hi {
				hi = highs[j]
			}
			if lows[j] < lo {
				lo = lows[j]
			}
		}
		if hi == lo {
			out[i] = 50
			continue
		}
		out[i] = (closes[i] - lo) / (hi - lo) * 100
	}
	return out
}

// SMA computes a simple moving average; used for stochastic %D and ratio
// smoothing. Windows containing an undefined value stay undefined, so a NaN
// warmup prefix never leaks into later averages.
func SMA(data []float64, period int) []float64 {
	out := nanSeries(len(data))
	if period < 1 || len(data) < period {
		return out
	}
	for i := period - 1; i < len(data); i++ {
		sum := 0.0
		defined := true
		for j := i - period + 1; j <= i; j++ {
			if math.IsNaN(data[j]) {
				defined = false
				break
			}
			sum += data[j]
		}
		if defined {
			out[i] = sum / float64(period)
		}
	}
	return out
}

// VolumeRatio computes current volume divided by the trailing average volume
// over period bars (excluding the current bar). A zero trailing average
// yields NaN.
func VolumeRatio(volumes []float64, period int) []float64 {
	out := nanSeries(len(volumes))
	if period < 1 || len(volumes) < period+1 {
		return out
	}
	for i := period; i < len(volumes); i++ {
		sum := 0.0
		for j := i - period; j < i; j++ {
			sum += volumes[j]
		}
		avg := sum / float64(period)
		if avg <= 0 {
			continue
		}
		out[i] = volumes[i] / avg
	}
	return out
}

// BandWidth computes the width of a rolling mean ± 2σ envelope relative to
// the current price, as a percentage. A measure of recent volatility.
func BandWidth(closes []float64, period int) []float64 {
	out := nanSeries(len(closes))
	if period < 2 || len(closes) < period {
		return out
	}
	for i := period - 1; i < len(closes); i++ {
		_, sd := meanStd(closes[i-period+1 : i+1])
		if closes[i] <= 0 {
			continue
		}
		out[i] = 4 * sd / closes[i] * 100
	}
	return out
}

func meanStd(window []float64) (float64, float64) {
	n := float64(len(window))
	sum := 0.0
	for _, v := range window {
		sum += v
	}
	mean := sum / n
	var ss float64
	for _, v := range window {
		d := v - mean
		ss += d * d
	}
	return mean, math.Sqrt(ss / n)
}

func nanSeries(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}
