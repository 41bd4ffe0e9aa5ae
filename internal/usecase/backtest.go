package usecase

import (
	"fmt"
	"math"
	"time"

	"github.com/OffGrid0xDAO/OffGrid-Scalp-Bot-sub004/internal/domain/models"
	domrepo "github.com/OffGrid0xDAO/OffGrid-Scalp-Bot-sub004/internal/domain/repository"
	"github.com/OffGrid0xDAO/OffGrid-Scalp-Bot-sub004/internal/services/confluence"
	"github.com/OffGrid0xDAO/OffGrid-Scalp-Bot-sub004/internal/services/market"
	"github.com/OffGrid0xDAO/OffGrid-Scalp-Bot-sub004/internal/services/ribbon"
	applogger "github.com/OffGrid0xDAO/OffGrid-Scalp-Bot-sub004/pkg/logger"
)

// profitFactorCap stands in for an infinite profit factor when a run has no
// losing trades; it keeps reports JSON-encodable and comparable.
const profitFactorCap = 999.0

// BacktestRunner drives one deterministic chronological pass over a
// historical series: resample, indicators, ribbon, confluence, lifecycle.
// Bars are processed strictly sequentially and never revisited.
type BacktestRunner struct {
	metrics domrepo.Metrics
	l       *applogger.Logger
}

// NewBacktestRunner creates a runner. Metrics may be nil.
func NewBacktestRunner(metrics domrepo.Metrics) *BacktestRunner {
	return &BacktestRunner{metrics: metrics}
}

// SetLogger injects a structured logger.
func (r *BacktestRunner) SetLogger(l *applogger.Logger) { r.l = l }

// Run executes a full backtest over the base series with the given
// configuration and returns one immutable report.
func (r *BacktestRunner) Run(symbol string, base []models.Candle, baseDur time.Duration, p *models.Params) (*models.BacktestReport, error) {
	start := time.Now()

	sess, err := newSession(base, baseDur, p)
	if err != nil {
		if r.metrics != nil {
			r.metrics.RecordError("backtest_setup")
		}
		return nil, err
	}

	engine := confluence.New(p)
	pm := NewPositionManager(p)
	trades := make([]models.ClosedTrade, 0, 16)

	for i := sess.warmup; i < len(base); i++ {
		bar := base[i]
		if pm.Open() {
			// Signals while a position is open are ignored: no
			// pyramiding, no reversal-on-signal.
			if tr := pm.Advance(bar); tr != nil {
				trades = append(trades, *tr)
			}
			continue
		}
		ev := engine.Evaluate(bar.Timestamp, sess.inputs(i))
		if ev.Direction == models.DirectionNone {
			continue
		}
		if _, err := pm.TryOpen(ev, bar); err != nil {
			return nil, fmt.Errorf("open position: %w", err)
		}
	}
	if tr := pm.CloseManual(base[len(base)-1]); tr != nil {
		trades = append(trades, *tr)
	}

	report := buildReport(trades)
	if r.metrics != nil {
		r.metrics.RecordBacktest(symbol, time.Since(start).Seconds())
		r.metrics.RecordTrades(symbol, report.TradeCount)
	}
	if r.l != nil {
		r.l.Info("backtest complete",
			applogger.String("symbol", symbol),
			applogger.Int("bars", len(base)),
			applogger.Int("trades", report.TradeCount),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return report, nil
}

// Signals evaluates the confluence engine over the series without managing
// positions. Used for signal inspection and scenario tests.
func (r *BacktestRunner) Signals(base []models.Candle, baseDur time.Duration, p *models.Params) ([]models.SignalEvent, error) {
	sess, err := newSession(base, baseDur, p)
	if err != nil {
		return nil, err
	}
	engine := confluence.New(p)
	out := make([]models.SignalEvent, 0, len(base)-sess.warmup)
	for i := sess.warmup; i < len(base); i++ {
		out = append(out, engine.Evaluate(base[i].Timestamp, sess.inputs(i)))
	}
	return out, nil
}

// session holds the precomputed per-bar inputs of one run. Everything is
// computed causally: coarse lines are read through a last-closed-bucket
// lookup, and every indicator marks its warmup prefix as missing, so reading
// index i never observes anything past bar i's close.
type session struct {
	base   []models.Candle
	warmup int

	clouds    []models.CloudState
	htfClouds []models.CloudState
	rsi       []float64
	stochK    []float64
	stochD    []float64
	volRatio  []float64
	bandWidth []float64
	realVol   []float64
}

func newSession(base []models.Candle, baseDur time.Duration, p *models.Params) (*session, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	warmup := p.WarmupBars()
	if len(base) <= warmup {
		return nil, fmt.Errorf("%w: %d bars, warmup needs %d", models.ErrInsufficientData, len(base), warmup+1)
	}

	frames, err := market.ResampleMultiple(base, baseDur, p.Timeframes)
	if err != nil {
		return nil, err
	}
	lines := ribbon.BuildLines(frames, p.Timeframes, p.MAPeriods)
	clouds := ribbon.New(p).Compute(base, lines)

	var htfClouds []models.CloudState
	if p.RequireHTFAgreement && len(p.PriorityTimeframes) > 0 {
		prio := make([]ribbon.Line, 0, len(lines))
		prioSet := make(map[int]bool, len(p.PriorityTimeframes))
		for _, m := range p.PriorityTimeframes {
			prioSet[m] = true
		}
		for _, ln := range lines {
			if prioSet[ln.Multiplier] {
				prio = append(prio, ln)
			}
		}
		pp := p.Clone()
		pp.RibbonMinLines = 1
		htfClouds = ribbon.New(pp).Compute(base, prio)
	}

	closes := make([]float64, len(base))
	highs := make([]float64, len(base))
	lows := make([]float64, len(base))
	volumes := make([]float64, len(base))
	for i, c := range base {
		closes[i], highs[i], lows[i], volumes[i] = c.Close, c.High, c.Low, c.Volume
	}

	stochK := market.StochK(highs, lows, closes, p.OscillatorPeriod)

	// rets[j] is the return of bar j+1, so rets[:i] is everything known at
	// bar i's close.
	rets := market.LogReturns(base)
	realVol := make([]float64, len(base))
	for i := range realVol {
		w := p.VolumePeriod
		if i < w {
			w = i
		}
		realVol[i] = market.RealizedVolatility(rets[:i], w)
	}

	return &session{
		base:      base,
		warmup:    warmup,
		clouds:    clouds,
		htfClouds: htfClouds,
		rsi:       market.RSI(closes, p.OscillatorPeriod),
		stochK:    stochK,
		stochD:    market.SMA(stochK, p.StochDPeriod),
		volRatio:  market.VolumeRatio(volumes, p.VolumePeriod),
		bandWidth: market.BandWidth(closes, p.VolumePeriod),
		realVol:   realVol,
	}, nil
}

func (s *session) inputs(i int) confluence.Inputs {
	in := confluence.Inputs{
		Price:       s.base[i].Close,
		Cloud:       s.clouds[i],
		Oscillator:  s.rsi[i],
		StochK:      s.stochK[i],
		StochD:      s.stochD[i],
		VolumeRatio: s.volRatio[i],
		BandWidth:   s.bandWidth[i],
		RealizedVol: s.realVol[i],
		HTFRatio:    math.NaN(),
	}
	if s.htfClouds != nil && s.htfClouds[i].Defined {
		in.HTFRatio = s.htfClouds[i].Ratio
	}
	return in
}

func buildReport(trades []models.ClosedTrade) *models.BacktestReport {
	report := &models.BacktestReport{
		TradeCount: len(trades),
		Trades:     trades,
	}
	if len(trades) == 0 {
		return report
	}

	var (
		wins, losses        int
		grossWin, grossLoss float64
		sumWin, sumLoss     float64
		equity, peak, maxDD float64
	)
	equity, peak = 1, 1
	for _, t := range trades {
		if t.ReturnPct > 0 {
			wins++
			grossWin += t.ReturnPct
			sumWin += t.ReturnPct
		} else {
			losses++
			grossLoss += -t.ReturnPct
			sumLoss += t.ReturnPct
		}
		equity *= 1 + t.ReturnPct/100
		if equity > peak {
			peak = equity
		}
		if dd := (peak - equity) / peak * 100; dd > maxDD {
			maxDD = dd
		}
	}

	report.WinRate = float64(wins) / float64(len(trades)) * 100
	switch {
	case grossLoss > 0:
		report.ProfitFactor = math.Min(grossWin/grossLoss, profitFactorCap)
	case grossWin > 0:
		report.ProfitFactor = profitFactorCap
	}
	report.TotalReturnPct = (equity - 1) * 100
	if wins > 0 {
		report.AvgWinPct = sumWin / float64(wins)
	}
	if losses > 0 {
		report.AvgLossPct = sumLoss / float64(losses)
	}
	report.MaxDrawdownPct = maxDD
	return report
}
