package market

import (
	"errors"
	"testing"
	"time"

	"github.com/OffGrid0xDAO/OffGrid-Scalp-Bot-sub004/internal/domain/models"
)

func mkCandles(n int, start time.Time, step time.Duration) []models.Candle {
	out := make([]models.Candle, n)
	price := 100.0
	for i := range out {
		out[i] = models.Candle{
			Timestamp: start.Add(time.Duration(i) * step),
			Open:      price,
			High:      price + 2,
			Low:       price - 1,
			Close:     price + 1,
			Volume:    10 + float64(i),
		}
		price = out[i].Close
	}
	return out
}

func TestResampleBucketAggregation(t *testing.T) {
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	base := mkCandles(10, start, time.Minute)

	ts, err := Resample(base, time.Minute, 5*time.Minute)
	if err != nil {
		t.Fatalf("resample: %v", err)
	}
	if ts.Len() != 2 {
		t.Fatalf("want 2 buckets, got %d", ts.Len())
	}

	for b, c := range ts.Candles {
		chunk := base[b*5 : (b+1)*5]
		if c.Open != chunk[0].Open {
			t.Errorf("bucket %d open: want %v, got %v", b, chunk[0].Open, c.Open)
		}
		if c.Close != chunk[4].Close {
			t.Errorf("bucket %d close: want %v, got %v", b, chunk[4].Close, c.Close)
		}
		if c.Timestamp != chunk[0].Timestamp {
			t.Errorf("bucket %d timestamp: want %v, got %v", b, chunk[0].Timestamp, c.Timestamp)
		}
		var hi, lo, vol float64
		hi, lo = chunk[0].High, chunk[0].Low
		for _, k := range chunk {
			if k.High > hi {
				hi = k.High
			}
			if k.Low < lo {
				lo = k.Low
			}
			vol += k.Volume
		}
		if c.High != hi || c.Low != lo {
			t.Errorf("bucket %d high/low: want %v/%v, got %v/%v", b, hi, lo, c.High, c.Low)
		}
		if c.Volume != vol {
			t.Errorf("bucket %d volume: want %v, got %v", b, vol, c.Volume)
		}
	}
}

func TestResampleDropsPartialBucket(t *testing.T) {
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	base := mkCandles(13, start, time.Minute)

	ts, err := Resample(base, time.Minute, 5*time.Minute)
	if err != nil {
		t.Fatalf("resample: %v", err)
	}
	if ts.Len() != 2 {
		t.Fatalf("trailing partial bucket must be dropped: want 2, got %d", ts.Len())
	}
}

func TestResampleRejectsNonMultiple(t *testing.T) {
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	base := mkCandles(10, start, time.Minute)

	_, err := Resample(base, time.Minute, 90*time.Second)
	if !errors.Is(err, models.ErrInvalidConfiguration) {
		t.Fatalf("want ErrInvalidConfiguration, got %v", err)
	}
}

func TestResampleInsufficientData(t *testing.T) {
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	base := mkCandles(3, start, time.Minute)

	_, err := Resample(base, time.Minute, 5*time.Minute)
	if !errors.Is(err, models.ErrInsufficientData) {
		t.Fatalf("want ErrInsufficientData, got %v", err)
	}
}

func TestResampleMultipleReusesBase(t *testing.T) {
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	base := mkCandles(12, start, time.Minute)

	frames, err := ResampleMultiple(base, time.Minute, []int{1, 3})
	if err != nil {
		t.Fatalf("resample multiple: %v", err)
	}
	if frames[1].Len() != 12 {
		t.Fatalf("multiplier 1 must reuse base: want 12 candles, got %d", frames[1].Len())
	}
	if frames[3].Len() != 4 {
		t.Fatalf("multiplier 3: want 4 buckets, got %d", frames[3].Len())
	}
}
