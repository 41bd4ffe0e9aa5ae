package ribbon

import (
	"math"
	"sort"

	"github.com/OffGrid0xDAO/OffGrid-Scalp-Bot-sub004/internal/domain/models"
	"github.com/OffGrid0xDAO/OffGrid-Scalp-Bot-sub004/internal/services/market"
)

// Line is one moving-average series on one timeframe. Values are aligned to
// that timeframe's own candles; the aggregator maps them back to base
// resolution through a last-closed-bucket index, never by mutating carry.
type Line struct {
	Multiplier int
	Period     int
	Values     []float64
}

// BuildLines computes an EMA line for every configured timeframe × period.
func BuildLines(frames map[int]*models.TimeframeSeries, multipliers, periods []int) []Line {
	lines := make([]Line, 0, len(multipliers)*len(periods))
	for _, m := range multipliers {
		ts, ok := frames[m]
		if !ok {
			continue
		}
		closes := ts.Closes()
		for _, p := range periods {
			lines = append(lines, Line{
				Multiplier: m,
				Period:     p,
				Values:     market.EMA(closes, p),
			})
		}
	}
	return lines
}

// Aggregator fuses N timeframes × M moving-average lines into one CloudState
// series at base resolution.
type Aggregator struct {
	smoothing     int
	minLines      int
	usePercentile bool
	upperPct      float64
	lowerPct      float64
	priority      map[int]bool
	prioWeight    float64
}

// New builds an aggregator from the strategy configuration.
func New(p *models.Params) *Aggregator {
	prio := make(map[int]bool, len(p.PriorityTimeframes))
	for _, m := range p.PriorityTimeframes {
		prio[m] = true
	}
	smoothing := p.RibbonSmoothing
	if smoothing < 1 {
		smoothing = 1
	}
	return &Aggregator{
		smoothing:     smoothing,
		minLines:      p.RibbonMinLines,
		usePercentile: p.UsePercentileBands,
		upperPct:      p.UpperPercentile,
		lowerPct:      p.LowerPercentile,
		priority:      prio,
		prioWeight:    p.PriorityWeight,
	}
}

// Compute produces one CloudState per base candle. A coarser line's value is
// only allowed to change at its own bucket boundaries: at base index i the
// last closed bucket of a multiplier-m line is (i+1)/m - 1, which is what the
// lookup reads. Bars with fewer than the configured minimum of defined lines
// yield an undefined CloudState.
func (a *Aggregator) Compute(base []models.Candle, lines []Line) []models.CloudState {
	out := make([]models.CloudState, len(base))
	rawRatios := make([]float64, 0, len(base))

	for i := range base {
		price := base[i].Close
		state := models.CloudState{Timestamp: base[i].Timestamp}

		var (
			values       []float64
			below, total float64
		)
		for _, ln := range lines {
			idx := lastClosedIndex(i, ln.Multiplier)
			if idx < 0 || idx >= len(ln.Values) {
				continue
			}
			v := ln.Values[idx]
			if !market.IsDefined(v) {
				continue
			}
			values = append(values, v)
			w := 1.0
			if a.priority[ln.Multiplier] {
				w = a.prioWeight
			}
			total += w
			if v < price {
				below += w
			}
		}

		if len(values) < a.minLines || total == 0 {
			out[i] = state // Defined stays false
			continue
		}

		ratio := below / total
		rawRatios = append(rawRatios, ratio)

		state.Defined = true
		state.Upper, state.Lower = a.bounds(values)
		state.Ratio = smoothTail(rawRatios, a.smoothing)
		state.Strength = state.Ratio * 100
		out[i] = state
	}
	return out
}

// lastClosedIndex returns the index of the most recently closed bucket of a
// multiplier-m series as of base index i, or -1 if none has closed yet.
func lastClosedIndex(baseIdx, mult int) int {
	if mult <= 1 {
		return baseIdx
	}
	return (baseIdx+1)/mult - 1
}

func (a *Aggregator) bounds(values []float64) (upper, lower float64) {
	if !a.usePercentile {
		upper, lower = values[0], values[0]
		for _, v := range values[1:] {
			if v > upper {
				upper = v
			}
			if v < lower {
				lower = v
			}
		}
		return upper, lower
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	return percentile(sorted, a.upperPct), percentile(sorted, a.lowerPct)
}

// percentile is nearest-rank on an ascending-sorted slice.
func percentile(sorted []float64, pct float64) float64 {
	n := len(sorted)
	idx := int(math.Ceil(pct/100*float64(n))) - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= n {
		idx = n - 1
	}
	return sorted[idx]
}

// smoothTail averages up to the last w raw ratios, including the current one.
func smoothTail(ratios []float64, w int) float64 {
	if w > len(ratios) {
		w = len(ratios)
	}
	sum := 0.0
	for _, r := range ratios[len(ratios)-w:] {
		sum += r
	}
	return sum / float64(w)
}
