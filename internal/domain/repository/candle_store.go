package repository

import (
	"context"
	"time"

	"github.com/OffGrid0xDAO/OffGrid-Scalp-Bot-sub004/internal/domain/models"
)

// Timeframe represents the base candle resolution of a stored series.
type Timeframe string

const (
	TF1m  Timeframe = "1m"
	TF5m  Timeframe = "5m"
	TF15m Timeframe = "15m"
	TF1h  Timeframe = "1h"
)

// CandleStore provides read-only access to historical candle series. The
// engine treats the returned slice as already validated and immutable.
type CandleStore interface {
	GetCandles(ctx context.Context, symbol string, from, to time.Time, tf Timeframe) ([]models.Candle, error)
	GetLatestNCandles(ctx context.Context, symbol string, n int, tf Timeframe) ([]models.Candle, error)
}
