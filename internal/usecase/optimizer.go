package usecase

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/OffGrid0xDAO/OffGrid-Scalp-Bot-sub004/internal/domain/models"
	domrepo "github.com/OffGrid0xDAO/OffGrid-Scalp-Bot-sub004/internal/domain/repository"
	"github.com/OffGrid0xDAO/OffGrid-Scalp-Bot-sub004/internal/domain/service"
	applogger "github.com/OffGrid0xDAO/OffGrid-Scalp-Bot-sub004/pkg/logger"
)

// Optimizer runs the iterative improvement loop: backtest the committed
// configuration, ask the advisor for a delta, validate it, re-backtest, and
// commit only on sufficient improvement. The committed best is never mutated;
// candidates are clones, so rejecting one is structural rollback.
type Optimizer struct {
	runner   *BacktestRunner
	advisor  service.Advisor
	history  domrepo.HistoryPublisher
	metrics  domrepo.Metrics
	l        *applogger.Logger
	progress func(models.IterationRecord)
}

// NewOptimizer wires the loop. History and metrics may be nil.
func NewOptimizer(runner *BacktestRunner, advisor service.Advisor, history domrepo.HistoryPublisher, metrics domrepo.Metrics) *Optimizer {
	return &Optimizer{
		runner:  runner,
		advisor: advisor,
		history: history,
		metrics: metrics,
	}
}

// SetLogger injects a structured logger.
func (o *Optimizer) SetLogger(l *applogger.Logger) { o.l = l }

// SetProgress registers a per-iteration callback, used to stream records to
// connected clients. The callback runs synchronously on the loop goroutine.
func (o *Optimizer) SetProgress(fn func(models.IterationRecord)) { o.progress = fn }

// OptimizationResult is the outcome of one optimizer run.
type OptimizationResult struct {
	RunID      string                   `json:"run_id"`
	BestParams *models.Params           `json:"best_params"`
	BestReport *models.BacktestReport   `json:"best_report"`
	History    []models.IterationRecord `json:"history"`
}

// Run executes the optimization loop over the given series, starting from
// start. The loop ends after the configured number of iterations, on context
// cancellation, or after too many consecutive advisor failures; in the last
// case the result accumulated so far is returned together with the error.
func (o *Optimizer) Run(ctx context.Context, symbol string, base []models.Candle, baseDur time.Duration, start *models.Params) (*OptimizationResult, error) {
	best := start.Clone()
	bestReport, err := o.runner.Run(symbol, base, baseDur, best)
	if err != nil {
		return nil, fmt.Errorf("baseline backtest: %w", err)
	}
	bestObj := bestReport.Objective(start.Objective)

	result := &OptimizationResult{
		RunID:      fmt.Sprintf("%s-%d", start.Hash(), time.Now().UnixNano()),
		BestParams: best,
		BestReport: bestReport,
		History:    make([]models.IterationRecord, 0, start.Iterations),
	}
	if o.metrics != nil {
		o.metrics.RecordBestObjective(start.Objective, bestObj)
	}

	consecutiveFailures := 0
	for it := 1; it <= start.Iterations; it++ {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		rec := models.IterationRecord{
			Iteration:       it,
			ObjectiveBefore: bestObj,
			ObjectiveAfter:  bestObj,
			MetricsBefore:   bestReport.Summary(),
		}

		// The advisor only ever sees a clone of the committed best.
		delta, err := o.advisor.Propose(ctx, best.Clone(), bestReport)
		if err != nil {
			consecutiveFailures++
			rec.Reason = fmt.Sprintf("advisor: %v", err)
			o.record(ctx, result, rec)
			if o.metrics != nil {
				o.metrics.RecordError(advisorErrorKind(err))
			}
			if consecutiveFailures >= start.MaxAdvisorFailures {
				return result, fmt.Errorf("%d consecutive advisor failures: %w", consecutiveFailures, err)
			}
			continue
		}
		consecutiveFailures = 0
		rec.Delta = delta

		candidate := best.Clone()
		if reason := applyDelta(candidate, delta, start.MaxChangePct); reason != "" {
			rec.Reason = reason
			o.record(ctx, result, rec)
			continue
		}
		if err := candidate.Validate(); err != nil {
			rec.Reason = fmt.Sprintf("candidate invalid: %v", err)
			o.record(ctx, result, rec)
			continue
		}

		report, err := o.runner.Run(symbol, base, baseDur, candidate)
		if err != nil {
			rec.Reason = fmt.Sprintf("candidate backtest: %v", err)
			o.record(ctx, result, rec)
			continue
		}
		obj := report.Objective(start.Objective)
		rec.ObjectiveAfter = obj
		rec.MetricsAfter = report.Summary()

		improvement := obj - bestObj
		if improvement <= 0 || improvement < start.MinImprovement {
			rec.Reason = fmt.Sprintf("improvement %.4f below threshold %.4f", improvement, start.MinImprovement)
			o.record(ctx, result, rec)
			continue
		}

		best = candidate
		bestReport = report
		bestObj = obj
		result.BestParams = best
		result.BestReport = bestReport

		rec.Accepted = true
		rec.Reason = delta.Rationale
		o.record(ctx, result, rec)
		if o.metrics != nil {
			o.metrics.RecordBestObjective(start.Objective, bestObj)
		}
		if o.l != nil {
			o.l.Info("iteration accepted",
				applogger.Int("iteration", it),
				applogger.String("objective", start.Objective),
				applogger.Any("value", bestObj),
			)
		}
	}
	return result, nil
}

// record appends the iteration to the run history and fans it out to the
// audit stream and progress listeners. Publish failures are logged, never
// fatal: the in-memory history stays authoritative.
func (o *Optimizer) record(ctx context.Context, result *OptimizationResult, rec models.IterationRecord) {
	result.History = append(result.History, rec)
	if o.metrics != nil {
		o.metrics.RecordIteration(iterationOutcome(rec.Accepted))
	}
	if o.history != nil {
		if err := o.history.PublishIteration(ctx, result.RunID, &rec); err != nil && o.l != nil {
			o.l.Warn("history publish failed",
				applogger.String("run_id", result.RunID),
				applogger.Int("iteration", rec.Iteration),
				applogger.Error(err),
			)
		}
	}
	if o.progress != nil {
		o.progress(rec)
	}
}

// applyDelta validates and applies an advisor proposal onto the candidate.
// Returns the rejection reason, or "" when every change was applied. Unknown
// parameter names are malformed input; known names are checked against their
// declared range and the configured per-iteration relative change cap before
// any of them is applied.
func applyDelta(candidate *models.Params, delta models.ParameterDelta, maxChangePct float64) string {
	if len(delta.Changes) == 0 {
		return "empty delta"
	}
	for name, v := range delta.Changes {
		tr, ok := models.Tunables[name]
		if !ok {
			return fmt.Sprintf("%v: unknown parameter %q", models.ErrAdvisorMalformed, name)
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Sprintf("%v: parameter %q is not finite", models.ErrAdvisorMalformed, name)
		}
		if v < tr.Min || v > tr.Max {
			return fmt.Sprintf("parameter %q value %.4f outside [%.4f, %.4f]", name, v, tr.Min, tr.Max)
		}
		cur := tr.Get(candidate)
		if cur != 0 {
			if changePct := math.Abs(v-cur) / math.Abs(cur) * 100; changePct > maxChangePct {
				return fmt.Sprintf("parameter %q change %.1f%% exceeds cap %.1f%%", name, changePct, maxChangePct)
			}
		}
	}
	for name, v := range delta.Changes {
		models.Tunables[name].Set(candidate, v)
	}
	return ""
}

func advisorErrorKind(err error) string {
	switch {
	case errors.Is(err, models.ErrAdvisorTimeout):
		return "advisor_timeout"
	case errors.Is(err, models.ErrAdvisorMalformed):
		return "advisor_malformed"
	default:
		return "advisor_error"
	}
}

func iterationOutcome(accepted bool) string {
	if accepted {
		return "accepted"
	}
	return "rejected"
}
