package advisor

import (
	"context"
	"math"

	"github.com/OffGrid0xDAO/OffGrid-Scalp-Bot-sub004/internal/domain/models"
)

// Heuristic is a deterministic rule-based advisor used when no external
// advisory service is configured. Same inputs always produce the same delta,
// which keeps optimizer runs reproducible.
type Heuristic struct {
	step float64 // relative nudge per proposal, e.g. 0.1 for 10%
}

// NewHeuristic builds the fallback advisor.
func NewHeuristic() *Heuristic {
	return &Heuristic{step: 0.1}
}

// Propose applies the first matching rule: loosen entries when the strategy
// never trades, tighten them when the hit rate is poor, shrink the stop when
// losses outweigh wins, otherwise stretch the profit target.
func (h *Heuristic) Propose(_ context.Context, p *models.Params, report *models.BacktestReport) (models.ParameterDelta, error) {
	switch {
	case report.TradeCount == 0:
		return models.ParameterDelta{
			Changes: map[string]float64{
				"score_min": h.nudge("score_min", p.ScoreMin, -1),
				"gap_min":   h.nudge("gap_min", p.GapMin, -1),
			},
			Rationale: "no trades taken, loosening entry thresholds",
		}, nil
	case report.WinRate < 45:
		return models.ParameterDelta{
			Changes: map[string]float64{
				"score_min": h.nudge("score_min", p.ScoreMin, +1),
			},
			Rationale: "low win rate, demanding stronger confluence",
		}, nil
	case math.Abs(report.AvgLossPct) > report.AvgWinPct:
		return models.ParameterDelta{
			Changes: map[string]float64{
				"stop_loss_pct": h.nudge("stop_loss_pct", p.StopLossPct, -1),
			},
			Rationale: "average loss exceeds average win, tightening the stop",
		}, nil
	default:
		return models.ParameterDelta{
			Changes: map[string]float64{
				"take_profit_pct": h.nudge("take_profit_pct", p.TakeProfitPct, +1),
			},
			Rationale: "edge is positive, stretching the profit target",
		}, nil
	}
}

// nudge moves a value by one relative step in the given direction, clamped to
// the parameter's declared range.
func (h *Heuristic) nudge(name string, cur float64, dir float64) float64 {
	v := cur * (1 + dir*h.step)
	if tr, ok := models.Tunables[name]; ok {
		if v < tr.Min {
			v = tr.Min
		}
		if v > tr.Max {
			v = tr.Max
		}
	}
	return v
}
