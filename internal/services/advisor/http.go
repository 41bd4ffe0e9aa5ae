package advisor

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/OffGrid0xDAO/OffGrid-Scalp-Bot-sub004/internal/domain/models"
)

// HTTPAdvisor asks an external advisory service for the next parameter delta.
// The service sees the current configuration, its performance and the tunable
// ranges; everything it answers is treated as untrusted until the optimizer
// validates it.
type HTTPAdvisor struct {
	*HTTPServiceBase
}

// NewHTTPAdvisor builds an advisor client against the given service URL.
func NewHTTPAdvisor(baseURL string, timeout time.Duration) *HTTPAdvisor {
	return &HTTPAdvisor{HTTPServiceBase: NewHTTPServiceBase(baseURL, timeout)}
}

type tunableRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

type proposeReq struct {
	Params   *models.Params                `json:"params"`
	Metrics  *models.BacktestReportSummary `json:"metrics"`
	Tunables map[string]tunableRange       `json:"tunables"`
}

type proposeResp struct {
	Changes   map[string]float64 `json:"changes"`
	Rationale string             `json:"rationale"`
}

// Propose posts the current state and decodes the proposed delta.
// Deadline errors map to the timeout failure class, undecodable or empty
// answers to the malformed one, so the optimizer can count and classify them.
func (a *HTTPAdvisor) Propose(ctx context.Context, p *models.Params, report *models.BacktestReport) (models.ParameterDelta, error) {
	ranges := make(map[string]tunableRange, len(models.Tunables))
	for name, tr := range models.Tunables {
		ranges[name] = tunableRange{Min: tr.Min, Max: tr.Max}
	}

	var resp proposeResp
	err := a.PostJSON(ctx, "/advisor/propose", proposeReq{
		Params:   p,
		Metrics:  report.Summary(),
		Tunables: ranges,
	}, &resp)
	if err != nil {
		if isTimeout(err) {
			return models.ParameterDelta{}, fmt.Errorf("%w: %v", models.ErrAdvisorTimeout, err)
		}
		return models.ParameterDelta{}, fmt.Errorf("%w: %v", models.ErrAdvisorMalformed, err)
	}
	if len(resp.Changes) == 0 {
		return models.ParameterDelta{}, fmt.Errorf("%w: empty changes", models.ErrAdvisorMalformed)
	}
	return models.ParameterDelta{Changes: resp.Changes, Rationale: resp.Rationale}, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
