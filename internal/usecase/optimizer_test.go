package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/OffGrid0xDAO/OffGrid-Scalp-Bot-sub004/internal/domain/models"
)

type advisorFunc func(ctx context.Context, p *models.Params, r *models.BacktestReport) (models.ParameterDelta, error)

func (f advisorFunc) Propose(ctx context.Context, p *models.Params, r *models.BacktestReport) (models.ParameterDelta, error) {
	return f(ctx, p, r)
}

func proposeOnce(changes map[string]float64) advisorFunc {
	return func(context.Context, *models.Params, *models.BacktestReport) (models.ParameterDelta, error) {
		return models.ParameterDelta{Changes: changes, Rationale: "test proposal"}, nil
	}
}

func optimizerParams() *models.Params {
	p := trendParams()
	p.Iterations = 2
	p.MinImprovement = 0.01
	p.MaxChangePct = 25
	p.MaxAdvisorFailures = 3
	return p
}

func TestOptimizerRejectsOutOfRangeDelta(t *testing.T) {
	start := optimizerParams()
	adv := proposeOnce(map[string]float64{"stop_loss_pct": 500})
	o := NewOptimizer(NewBacktestRunner(nil), adv, nil, nil)

	result, err := o.Run(context.Background(), "TEST", uptrend(100), time.Minute, start)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(result.History) != start.Iterations {
		t.Fatalf("want %d records, got %d", start.Iterations, len(result.History))
	}
	for _, rec := range result.History {
		if rec.Accepted {
			t.Fatal("out-of-range delta must never be accepted")
		}
		if !strings.Contains(rec.Reason, "outside") {
			t.Fatalf("want range rejection reason, got %q", rec.Reason)
		}
	}
	if result.BestParams.StopLossPct != start.StopLossPct {
		t.Fatalf("committed best must be untouched: want %v, got %v",
			start.StopLossPct, result.BestParams.StopLossPct)
	}
}

func TestOptimizerRejectsUnknownParameter(t *testing.T) {
	start := optimizerParams()
	adv := proposeOnce(map[string]float64{"leverage": 10})
	o := NewOptimizer(NewBacktestRunner(nil), adv, nil, nil)

	result, err := o.Run(context.Background(), "TEST", uptrend(100), time.Minute, start)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	for _, rec := range result.History {
		if rec.Accepted {
			t.Fatal("unknown parameter must never be accepted")
		}
		if !strings.Contains(rec.Reason, "unknown parameter") {
			t.Fatalf("want malformed rejection reason, got %q", rec.Reason)
		}
	}
}

func TestOptimizerEnforcesChangeCap(t *testing.T) {
	start := optimizerParams()
	start.MaxChangePct = 10
	// 50 -> 80 is a 60% move: in range, but over the per-iteration cap.
	adv := proposeOnce(map[string]float64{"score_min": 80})
	o := NewOptimizer(NewBacktestRunner(nil), adv, nil, nil)

	result, err := o.Run(context.Background(), "TEST", uptrend(100), time.Minute, start)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	for _, rec := range result.History {
		if rec.Accepted {
			t.Fatal("capped delta must never be accepted")
		}
		if !strings.Contains(rec.Reason, "exceeds cap") {
			t.Fatalf("want cap rejection reason, got %q", rec.Reason)
		}
	}
	if result.BestParams.ScoreMin != start.ScoreMin {
		t.Fatalf("committed best must be untouched: want %v, got %v",
			start.ScoreMin, result.BestParams.ScoreMin)
	}
}

func TestOptimizerObjectiveNeverRegresses(t *testing.T) {
	start := optimizerParams()
	start.Iterations = 6

	proposals := []map[string]float64{
		{"take_profit_pct": 2.6},
		{"score_min": 48},
		{"gap_min": 9},
	}
	i := 0
	adv := advisorFunc(func(context.Context, *models.Params, *models.BacktestReport) (models.ParameterDelta, error) {
		d := models.ParameterDelta{Changes: proposals[i%len(proposals)], Rationale: "sweep"}
		i++
		return d, nil
	})

	runner := NewBacktestRunner(nil)
	base := uptrend(100)

	baseline, err := runner.Run("TEST", base, time.Minute, start.Clone())
	if err != nil {
		t.Fatalf("baseline: %v", err)
	}
	baseObj := baseline.Objective(start.Objective)

	o := NewOptimizer(runner, adv, nil, nil)
	result, err := o.Run(context.Background(), "TEST", base, time.Minute, start)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(result.History) != start.Iterations {
		t.Fatalf("want %d records, got %d", start.Iterations, len(result.History))
	}

	committed := baseObj
	for _, rec := range result.History {
		if !rec.Accepted {
			continue
		}
		if rec.ObjectiveAfter-rec.ObjectiveBefore < start.MinImprovement {
			t.Fatalf("iteration %d accepted below the improvement threshold: %v -> %v",
				rec.Iteration, rec.ObjectiveBefore, rec.ObjectiveAfter)
		}
		if rec.ObjectiveAfter <= committed {
			t.Fatalf("iteration %d regressed the committed objective: %v -> %v",
				rec.Iteration, committed, rec.ObjectiveAfter)
		}
		committed = rec.ObjectiveAfter
	}

	if got := result.BestReport.Objective(start.Objective); got < baseObj {
		t.Fatalf("final best %v worse than baseline %v", got, baseObj)
	}
}

func TestOptimizerStopsAfterConsecutiveAdvisorFailures(t *testing.T) {
	start := optimizerParams()
	start.Iterations = 10
	adv := advisorFunc(func(context.Context, *models.Params, *models.BacktestReport) (models.ParameterDelta, error) {
		return models.ParameterDelta{}, fmt.Errorf("%w: advisor offline", models.ErrAdvisorTimeout)
	})
	o := NewOptimizer(NewBacktestRunner(nil), adv, nil, nil)

	result, err := o.Run(context.Background(), "TEST", uptrend(100), time.Minute, start)
	if err == nil {
		t.Fatal("persistent advisor failure must end the run with an error")
	}
	if !errors.Is(err, models.ErrAdvisorTimeout) {
		t.Fatalf("want wrapped advisor error, got %v", err)
	}
	if result == nil {
		t.Fatal("partial result must still be returned")
	}
	if len(result.History) != start.MaxAdvisorFailures {
		t.Fatalf("want %d failure records, got %d", start.MaxAdvisorFailures, len(result.History))
	}
	for _, rec := range result.History {
		if rec.Accepted || !strings.Contains(rec.Reason, "advisor:") {
			t.Fatalf("unexpected record: %+v", rec)
		}
	}
}

func TestOptimizerHonorsContextCancellation(t *testing.T) {
	start := optimizerParams()
	start.Iterations = 100
	o := NewOptimizer(NewBacktestRunner(nil), proposeOnce(map[string]float64{"gap_min": 9}), nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := o.Run(ctx, "TEST", uptrend(100), time.Minute, start)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("want context.Canceled, got %v", err)
	}
	if result == nil || result.BestParams == nil {
		t.Fatal("baseline result must survive cancellation")
	}
}
