package service

import (
	"context"

	"github.com/OffGrid0xDAO/OffGrid-Scalp-Bot-sub004/internal/domain/models"
)

// Advisor proposes a parameter delta given the current configuration and the
// latest backtest report. The optimizer treats implementations as opaque and
// possibly unreliable: every proposal is range-validated before use.
type Advisor interface {
	Propose(ctx context.Context, params *models.Params, report *models.BacktestReport) (models.ParameterDelta, error)
}
