package market

import (
	"math"
	"testing"
)

func TestEMAWarmupAndSeed(t *testing.T) {
	data := []float64{2, 4, 6, 8, 10}
	out := EMA(data, 3)

	for i := 0; i < 2; i++ {
		if !math.IsNaN(out[i]) {
			t.Fatalf("index %d must be undefined during warmup, got %v", i, out[i])
		}
	}
	// Seeded with the simple average of the first 3 values.
	if out[2] != 4 {
		t.Fatalf("seed: want 4, got %v", out[2])
	}
	// k = 2/(3+1) = 0.5: 8*0.5 + 4*0.5 = 6
	if out[3] != 6 {
		t.Fatalf("want 6, got %v", out[3])
	}
}

func TestRSIWarmupAndBounds(t *testing.T) {
	closes := []float64{10, 11, 12, 11, 13, 14, 12, 15, 16, 14}
	out := RSI(closes, 4)

	for i := 0; i <= 3; i++ {
		if !math.IsNaN(out[i]) {
			t.Fatalf("index %d must be undefined during warmup, got %v", i, out[i])
		}
	}
	for i := 4; i < len(out); i++ {
		if out[i] < 0 || out[i] > 100 {
			t.Fatalf("index %d out of [0,100]: %v", i, out[i])
		}
	}
}

func TestRSIAllGainsIsHundred(t *testing.T) {
	closes := []float64{1, 2, 3, 4, 5, 6}
	out := RSI(closes, 3)
	if out[5] != 100 {
		t.Fatalf("monotone gains: want 100, got %v", out[5])
	}
}

func TestStochKFlatWindow(t *testing.T) {
	highs := []float64{5, 5, 5, 5}
	lows := []float64{5, 5, 5, 5}
	closes := []float64{5, 5, 5, 5}
	out := StochK(highs, lows, closes, 3)
	if out[3] != 50 {
		t.Fatalf("flat window: want 50, got %v", out[3])
	}
}

func TestSMASkipsUndefinedWindows(t *testing.T) {
	data := []float64{math.NaN(), math.NaN(), 3, 6, 9}
	out := SMA(data, 3)

	if !math.IsNaN(out[2]) || !math.IsNaN(out[3]) {
		t.Fatalf("windows overlapping the undefined prefix must stay undefined")
	}
	if out[4] != 6 {
		t.Fatalf("first clean window: want 6, got %v", out[4])
	}
}

func TestVolumeRatioExcludesCurrentBar(t *testing.T) {
	volumes := []float64{10, 10, 10, 30}
	out := VolumeRatio(volumes, 3)

	if !math.IsNaN(out[2]) {
		t.Fatalf("index 2 must be undefined, got %v", out[2])
	}
	// Trailing average over [10,10,10] is 10, current 30.
	if out[3] != 3 {
		t.Fatalf("want ratio 3, got %v", out[3])
	}
}

func TestBandWidthFlatSeriesIsZero(t *testing.T) {
	closes := []float64{50, 50, 50, 50, 50}
	out := BandWidth(closes, 4)
	if out[4] != 0 {
		t.Fatalf("flat series: want 0, got %v", out[4])
	}
}
