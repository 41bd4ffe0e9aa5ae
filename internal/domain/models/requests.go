package models

// BacktestRequest is the API payload for one backtest run. Params defaults to
// the built-in configuration when omitted.
type BacktestRequest struct {
	Symbol string  `json:"symbol" validate:"required"`
	TF     string  `json:"tf" default:"5m"`
	Bars   int     `json:"bars" default:"2000" validate:"gte=100,lte=100000"`
	Params *Params `json:"params,omitempty"`
}

// OptimizeRequest is the API payload for one optimization run.
type OptimizeRequest struct {
	Symbol string  `json:"symbol" validate:"required"`
	TF     string  `json:"tf" default:"5m"`
	Bars   int     `json:"bars" default:"2000" validate:"gte=100,lte=100000"`
	Params *Params `json:"params,omitempty"`
}

// CandlesRequest is the API query for raw stored candles.
type CandlesRequest struct {
	Symbol string `json:"symbol" query:"symbol" validate:"required"`
	TF     string `json:"tf" query:"tf" default:"5m"`
	N      int    `json:"n" query:"n" default:"500" validate:"gte=1,lte=100000"`
}
