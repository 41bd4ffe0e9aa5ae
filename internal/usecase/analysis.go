package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/OffGrid0xDAO/OffGrid-Scalp-Bot-sub004/internal/domain/models"
	domrepo "github.com/OffGrid0xDAO/OffGrid-Scalp-Bot-sub004/internal/domain/repository"
	applogger "github.com/OffGrid0xDAO/OffGrid-Scalp-Bot-sub004/pkg/logger"
	"github.com/OffGrid0xDAO/OffGrid-Scalp-Bot-sub004/pkg/util"
)

// AnalysisUsecase fronts the engine for the API layer: it loads candles from
// the store, delegates to the runner or the optimizer, and shields transports
// from storage details.
type AnalysisUsecase struct {
	store     domrepo.CandleStore
	runner    *BacktestRunner
	optimizer *Optimizer
	l         *applogger.Logger
}

// NewAnalysisUsecase wires the engine facade.
func NewAnalysisUsecase(store domrepo.CandleStore, runner *BacktestRunner, optimizer *Optimizer) *AnalysisUsecase {
	return &AnalysisUsecase{store: store, runner: runner, optimizer: optimizer}
}

// SetLogger injects a structured logger.
func (u *AnalysisUsecase) SetLogger(l *applogger.Logger) { u.l = l }

// Candles returns the latest n stored candles, ascending.
func (u *AnalysisUsecase) Candles(ctx context.Context, symbol string, n int, tf domrepo.Timeframe) ([]models.Candle, error) {
	return u.store.GetLatestNCandles(ctx, symbol, n, tf)
}

// CandlesRange returns stored candles within [from, to], ascending. The range
// is aligned to the timeframe's step first.
func (u *AnalysisUsecase) CandlesRange(ctx context.Context, symbol string, from, to time.Time, tf domrepo.Timeframe) ([]models.Candle, error) {
	from, to = util.AlignRange(from, to, tf.Duration())
	return u.store.GetCandles(ctx, symbol, from, to, tf)
}

// Backtest loads the latest bars candles and runs one backtest on them.
func (u *AnalysisUsecase) Backtest(ctx context.Context, symbol string, bars int, tf domrepo.Timeframe, p *models.Params) (*models.BacktestReport, error) {
	candles, err := u.loadSeries(ctx, symbol, bars, tf, p)
	if err != nil {
		return nil, err
	}
	return u.runner.Run(symbol, candles, tf.Duration(), p)
}

// Optimize loads the latest bars candles and runs the optimizer loop on them.
func (u *AnalysisUsecase) Optimize(ctx context.Context, symbol string, bars int, tf domrepo.Timeframe, p *models.Params) (*OptimizationResult, error) {
	candles, err := u.loadSeries(ctx, symbol, bars, tf, p)
	if err != nil {
		return nil, err
	}
	return u.optimizer.Run(ctx, symbol, candles, tf.Duration(), p)
}

func (u *AnalysisUsecase) loadSeries(ctx context.Context, symbol string, bars int, tf domrepo.Timeframe, p *models.Params) ([]models.Candle, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	candles, err := u.store.GetLatestNCandles(ctx, symbol, bars, tf)
	if err != nil {
		return nil, fmt.Errorf("load candles: %w", err)
	}
	if len(candles) <= p.WarmupBars() {
		if u.l != nil {
			u.l.Warn("series too short",
				applogger.String("symbol", symbol),
				applogger.Int("have", len(candles)),
				applogger.Int("need", p.WarmupBars()+1),
			)
		}
		return nil, fmt.Errorf("%w: %d candles stored, warmup needs %d", models.ErrInsufficientData, len(candles), p.WarmupBars()+1)
	}
	return candles, nil
}
