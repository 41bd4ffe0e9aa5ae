package market

import (
	"fmt"
	"time"

	"github.com/OffGrid0xDAO/OffGrid-Scalp-Bot-sub004/internal/domain/models"
)

// Resample derives a coarser TimeframeSeries from a base candle series.
// target must be a positive integer multiple of baseDur. Buckets are aligned
// to multiples of target measured from the first base timestamp; a trailing
// partial bucket is dropped rather than emitted with partial aggregation.
func Resample(base []models.Candle, baseDur, target time.Duration) (*models.TimeframeSeries, error) {
	if baseDur <= 0 || target <= 0 {
		return nil, fmt.Errorf("%w: non-positive duration", models.ErrInvalidConfiguration)
	}
	if target%baseDur != 0 {
		return nil, fmt.Errorf("%w: target %v is not a multiple of base %v", models.ErrInvalidConfiguration, target, baseDur)
	}
	mult := int(target / baseDur)
	buckets := len(base) / mult
	if buckets == 0 {
		return nil, fmt.Errorf("%w: %d base candles, need %d for one %v bucket", models.ErrInsufficientData, len(base), mult, target)
	}

	out := make([]models.Candle, 0, buckets)
	for b := 0; b < buckets; b++ {
		chunk := base[b*mult : (b+1)*mult]
		c := models.Candle{
			Timestamp: chunk[0].Timestamp,
			Open:      chunk[0].Open,
			High:      chunk[0].High,
			Low:       chunk[0].Low,
			Close:     chunk[len(chunk)-1].Close,
		}
		for _, k := range chunk {
			if k.High > c.High {
				c.High = k.High
			}
			if k.Low < c.Low {
				c.Low = k.Low
			}
			c.Volume += k.Volume
		}
		out = append(out, c)
	}

	return &models.TimeframeSeries{Duration: target, Candles: out}, nil
}

// ResampleMultiple resamples the base series into every configured timeframe
// multiplier. Multiplier 1 reuses the base candles directly.
func ResampleMultiple(base []models.Candle, baseDur time.Duration, multipliers []int) (map[int]*models.TimeframeSeries, error) {
	out := make(map[int]*models.TimeframeSeries, len(multipliers))
	for _, m := range multipliers {
		if m == 1 {
			out[1] = &models.TimeframeSeries{Duration: baseDur, Candles: base}
			continue
		}
		ts, err := Resample(base, baseDur, time.Duration(m)*baseDur)
		if err != nil {
			return nil, fmt.Errorf("resample x%d: %w", m, err)
		}
		out[m] = ts
	}
	return out, nil
}
