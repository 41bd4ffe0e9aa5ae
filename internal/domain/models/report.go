package models

// BacktestReport holds aggregate performance metrics plus the full trade log
// for one backtest run. Produced once per run, immutable.
type BacktestReport struct {
	TradeCount     int           `json:"trade_count"`
	WinRate        float64       `json:"win_rate"`
	ProfitFactor   float64       `json:"profit_factor"`
	TotalReturnPct float64       `json:"total_return_pct"`
	AvgWinPct      float64       `json:"avg_win_pct"`
	AvgLossPct     float64       `json:"avg_loss_pct"`
	MaxDrawdownPct float64       `json:"max_drawdown_pct"`
	Trades         []ClosedTrade `json:"trades"`
}

// Objective extracts the named primary metric from the report.
// Unknown names fall back to total return.
func (r *BacktestReport) Objective(name string) float64 {
	switch name {
	case "win_rate":
		return r.WinRate
	case "profit_factor":
		return r.ProfitFactor
	case "total_return_pct":
		return r.TotalReturnPct
	default:
		return r.TotalReturnPct
	}
}

// ParameterDelta is an advisor proposal: parameter name to new value, plus a
// free-form rationale. Treated as untrusted until validated against declared
// parameter ranges.
type ParameterDelta struct {
	Changes   map[string]float64 `json:"changes"`
	Rationale string             `json:"rationale"`
}

// IterationRecord is one entry of the optimizer audit history.
type IterationRecord struct {
	Iteration       int                    `json:"iteration"`
	Delta           ParameterDelta         `json:"delta"`
	Accepted        bool                   `json:"accepted"`
	Reason          string                 `json:"reason"`
	ObjectiveBefore float64                `json:"objective_before"`
	ObjectiveAfter  float64                `json:"objective_after"`
	MetricsBefore   *BacktestReportSummary `json:"metrics_before,omitempty"`
	MetricsAfter    *BacktestReportSummary `json:"metrics_after,omitempty"`
}

// BacktestReportSummary is a report without the trade log, small enough to
// embed in audit records and publish on the history stream.
type BacktestReportSummary struct {
	TradeCount     int     `json:"trade_count"`
	WinRate        float64 `json:"win_rate"`
	ProfitFactor   float64 `json:"profit_factor"`
	TotalReturnPct float64 `json:"total_return_pct"`
	AvgWinPct      float64 `json:"avg_win_pct"`
	AvgLossPct     float64 `json:"avg_loss_pct"`
	MaxDrawdownPct float64 `json:"max_drawdown_pct"`
}

// Summary strips the trade log from a report.
func (r *BacktestReport) Summary() *BacktestReportSummary {
	if r == nil {
		return nil
	}
	return &BacktestReportSummary{
		TradeCount:     r.TradeCount,
		WinRate:        r.WinRate,
		ProfitFactor:   r.ProfitFactor,
		TotalReturnPct: r.TotalReturnPct,
		AvgWinPct:      r.AvgWinPct,
		AvgLossPct:     r.AvgLossPct,
		MaxDrawdownPct: r.MaxDrawdownPct,
	}
}
