package models

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"

	"github.com/go-playground/validator/v10"
)

// Params is the versioned strategy configuration. The optimizer owns it and
// only ever operates on clones, so a committed snapshot is never mutated.
type Params struct {
	// Ribbon
	Timeframes         []int   `json:"timeframes" yaml:"timeframes" validate:"required,min=1,dive,gte=1"`
	MAPeriods          []int   `json:"ma_periods" yaml:"ma_periods" validate:"required,min=1,dive,gte=2"`
	RibbonSmoothing    int     `json:"ribbon_smoothing" yaml:"ribbon_smoothing" validate:"gte=1"`
	RibbonMinLines     int     `json:"ribbon_min_lines" yaml:"ribbon_min_lines" validate:"gte=1"`
	UsePercentileBands bool    `json:"use_percentile_bands" yaml:"use_percentile_bands"`
	UpperPercentile    float64 `json:"upper_percentile" yaml:"upper_percentile" validate:"gte=50,lte=100"`
	LowerPercentile    float64 `json:"lower_percentile" yaml:"lower_percentile" validate:"gte=0,lte=50"`
	PriorityTimeframes []int   `json:"priority_timeframes" yaml:"priority_timeframes" validate:"dive,gte=1"`
	PriorityWeight     float64 `json:"priority_weight" yaml:"priority_weight" validate:"gte=1,lte=10"`

	// Confluence
	ScoreMin         float64 `json:"score_min" yaml:"score_min" validate:"gte=0,lte=100"`
	GapMin           float64 `json:"gap_min" yaml:"gap_min" validate:"gte=0,lte=100"`
	QualityMin       float64 `json:"quality_min" yaml:"quality_min" validate:"gte=0,lte=100"`
	WeightDirection  float64 `json:"weight_direction" yaml:"weight_direction" validate:"gte=0,lte=100"`
	WeightVolume     float64 `json:"weight_volume" yaml:"weight_volume" validate:"gte=0,lte=100"`
	WeightOscillator float64 `json:"weight_oscillator" yaml:"weight_oscillator" validate:"gte=0,lte=100"`
	WeightStructure  float64 `json:"weight_structure" yaml:"weight_structure" validate:"gte=0,lte=100"`

	QualityWeightTrend      float64 `json:"quality_weight_trend" yaml:"quality_weight_trend" validate:"gte=0,lte=100"`
	QualityWeightVolume     float64 `json:"quality_weight_volume" yaml:"quality_weight_volume" validate:"gte=0,lte=100"`
	QualityWeightVolatility float64 `json:"quality_weight_volatility" yaml:"quality_weight_volatility" validate:"gte=0,lte=100"`

	OscillatorPeriod int     `json:"oscillator_period" yaml:"oscillator_period" validate:"gte=2"`
	OscLongMin       float64 `json:"osc_long_min" yaml:"osc_long_min" validate:"gte=0,lte=100"`
	OscLongMax       float64 `json:"osc_long_max" yaml:"osc_long_max" validate:"gte=0,lte=100"`
	OscShortMin      float64 `json:"osc_short_min" yaml:"osc_short_min" validate:"gte=0,lte=100"`
	OscShortMax      float64 `json:"osc_short_max" yaml:"osc_short_max" validate:"gte=0,lte=100"`

	VolumePeriod           int      `json:"volume_period" yaml:"volume_period" validate:"gte=2"`
	VolumeRatioMin         float64  `json:"volume_ratio_min" yaml:"volume_ratio_min" validate:"gte=0,lte=10"`
	ExcludedVolumeStatuses []string `json:"excluded_volume_statuses" yaml:"excluded_volume_statuses" validate:"dive,oneof=dead low normal high spike"`
	RequireHTFAgreement    bool     `json:"require_htf_agreement" yaml:"require_htf_agreement"`

	// Score shaping. The volume taxonomy boundaries, the tiered volume-score
	// multipliers, the stochastic midline, and the quality band window are
	// configuration, same as every other threshold the engine applies.
	StochMidline float64 `json:"stoch_midline" yaml:"stoch_midline" validate:"gte=0,lte=100"`
	StochDPeriod int     `json:"stoch_d_period" yaml:"stoch_d_period" validate:"gte=1"`

	VolumeDeadBelow   float64 `json:"volume_dead_below" yaml:"volume_dead_below" validate:"gte=0"`
	VolumeLowBelow    float64 `json:"volume_low_below" yaml:"volume_low_below" validate:"gte=0"`
	VolumeNormalBelow float64 `json:"volume_normal_below" yaml:"volume_normal_below" validate:"gte=0"`
	VolumeHighBelow   float64 `json:"volume_high_below" yaml:"volume_high_below" validate:"gte=0"`

	VolumeTierFullMult float64 `json:"volume_tier_full_mult" yaml:"volume_tier_full_mult" validate:"gte=1"`
	VolumeTierMidMult  float64 `json:"volume_tier_mid_mult" yaml:"volume_tier_mid_mult" validate:"gte=1"`
	VolumeTierMidFrac  float64 `json:"volume_tier_mid_frac" yaml:"volume_tier_mid_frac" validate:"gte=0,lte=1"`
	VolumeTierBaseFrac float64 `json:"volume_tier_base_frac" yaml:"volume_tier_base_frac" validate:"gte=0,lte=1"`

	QualityBandMin     float64 `json:"quality_band_min" yaml:"quality_band_min" validate:"gte=0"`
	QualityBandMax     float64 `json:"quality_band_max" yaml:"quality_band_max" validate:"gte=0"`
	QualityBandSoftMin float64 `json:"quality_band_soft_min" yaml:"quality_band_soft_min" validate:"gte=0"`
	QualityVolumeNorm  float64 `json:"quality_volume_norm" yaml:"quality_volume_norm" validate:"gt=0"`

	// Exits
	TakeProfitPct         float64  `json:"take_profit_pct" yaml:"take_profit_pct" validate:"gt=0,lte=100"`
	StopLossPct           float64  `json:"stop_loss_pct" yaml:"stop_loss_pct" validate:"gt=0,lte=100"`
	TrailingStopPct       float64  `json:"trailing_stop_pct" yaml:"trailing_stop_pct" validate:"gt=0,lte=100"`
	TrailingActivationPct float64  `json:"trailing_activation_pct" yaml:"trailing_activation_pct" validate:"gte=0,lte=100"`
	ProfitLockPct         float64  `json:"profit_lock_pct" yaml:"profit_lock_pct" validate:"gte=0,lte=100"`
	MaxHoldBars           int      `json:"max_hold_bars" yaml:"max_hold_bars" validate:"gte=1"`
	ExitPriority          []string `json:"exit_priority" yaml:"exit_priority" validate:"required,min=1,dive,oneof=stop_loss take_profit trailing_stop profit_lock max_hold"`
	FeePct                float64  `json:"fee_pct" yaml:"fee_pct" validate:"gte=0,lte=5"`

	// Optimizer
	Objective          string  `json:"objective" yaml:"objective" validate:"oneof=win_rate profit_factor total_return_pct"`
	Iterations         int     `json:"iterations" yaml:"iterations" validate:"gte=1,lte=1000"`
	MinImprovement     float64 `json:"min_improvement" yaml:"min_improvement" validate:"gte=0"`
	MaxChangePct       float64 `json:"max_change_pct" yaml:"max_change_pct" validate:"gt=0,lte=100"`
	MaxAdvisorFailures int     `json:"max_advisor_failures" yaml:"max_advisor_failures" validate:"gte=1"`
}

// DefaultParams returns a complete, valid starting configuration.
func DefaultParams() *Params {
	return &Params{
		Timeframes:         []int{1, 3, 5, 13},
		MAPeriods:          []int{8, 13, 21, 34, 55},
		RibbonSmoothing:    3,
		RibbonMinLines:     5,
		UsePercentileBands: false,
		UpperPercentile:    90,
		LowerPercentile:    10,
		PriorityTimeframes: []int{5, 13},
		PriorityWeight:     2,

		ScoreMin:         55,
		GapMin:           15,
		QualityMin:       50,
		WeightDirection:  40,
		WeightVolume:     20,
		WeightOscillator: 20,
		WeightStructure:  20,

		QualityWeightTrend:      40,
		QualityWeightVolume:     30,
		QualityWeightVolatility: 30,

		OscillatorPeriod: 14,
		OscLongMin:       40,
		OscLongMax:       75,
		OscShortMin:      25,
		OscShortMax:      60,

		VolumePeriod:           20,
		VolumeRatioMin:         0.8,
		ExcludedVolumeStatuses: []string{"dead"},
		RequireHTFAgreement:    false,

		StochMidline: 50,
		StochDPeriod: 3,

		VolumeDeadBelow:   0.3,
		VolumeLowBelow:    0.8,
		VolumeNormalBelow: 1.5,
		VolumeHighBelow:   2.5,

		VolumeTierFullMult: 2,
		VolumeTierMidMult:  1.5,
		VolumeTierMidFrac:  0.75,
		VolumeTierBaseFrac: 0.5,

		QualityBandMin:     1,
		QualityBandMax:     8,
		QualityBandSoftMin: 0.5,
		QualityVolumeNorm:  2,

		TakeProfitPct:         2.5,
		StopLossPct:           1.2,
		TrailingStopPct:       0.8,
		TrailingActivationPct: 1.0,
		ProfitLockPct:         1.5,
		MaxHoldBars:           96,
		ExitPriority:          []string{"stop_loss", "take_profit", "trailing_stop", "profit_lock", "max_hold"},
		FeePct:                0,

		Objective:          "total_return_pct",
		Iterations:         20,
		MinImprovement:     0.5,
		MaxChangePct:       25,
		MaxAdvisorFailures: 3,
	}
}

var paramsValidate = validator.New()

// Validate checks the configuration against its declared domain. Violations
// wrap ErrInvalidConfiguration so callers can classify them.
func (p *Params) Validate() error {
	if err := paramsValidate.Struct(p); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfiguration, err)
	}
	if p.OscLongMin > p.OscLongMax {
		return fmt.Errorf("%w: osc_long_min > osc_long_max", ErrInvalidConfiguration)
	}
	if p.OscShortMin > p.OscShortMax {
		return fmt.Errorf("%w: osc_short_min > osc_short_max", ErrInvalidConfiguration)
	}
	for _, tf := range p.PriorityTimeframes {
		if !containsInt(p.Timeframes, tf) {
			return fmt.Errorf("%w: priority timeframe %d not in timeframe list", ErrInvalidConfiguration, tf)
		}
	}
	if !(p.VolumeDeadBelow < p.VolumeLowBelow && p.VolumeLowBelow < p.VolumeNormalBelow && p.VolumeNormalBelow < p.VolumeHighBelow) {
		return fmt.Errorf("%w: volume status boundaries must be strictly ascending", ErrInvalidConfiguration)
	}
	if p.VolumeTierMidMult > p.VolumeTierFullMult {
		return fmt.Errorf("%w: volume_tier_mid_mult > volume_tier_full_mult", ErrInvalidConfiguration)
	}
	if p.VolumeTierBaseFrac > p.VolumeTierMidFrac {
		return fmt.Errorf("%w: volume_tier_base_frac > volume_tier_mid_frac", ErrInvalidConfiguration)
	}
	if p.QualityBandSoftMin > p.QualityBandMin || p.QualityBandMin > p.QualityBandMax {
		return fmt.Errorf("%w: quality band window must satisfy soft_min <= min <= max", ErrInvalidConfiguration)
	}
	return nil
}

// Clone returns a deep copy for copy-on-write snapshots.
func (p *Params) Clone() *Params {
	cp := *p
	cp.Timeframes = append([]int(nil), p.Timeframes...)
	cp.MAPeriods = append([]int(nil), p.MAPeriods...)
	cp.PriorityTimeframes = append([]int(nil), p.PriorityTimeframes...)
	cp.ExcludedVolumeStatuses = append([]string(nil), p.ExcludedVolumeStatuses...)
	cp.ExitPriority = append([]string(nil), p.ExitPriority...)
	return &cp
}

// Hash returns a stable digest of the configuration, used as a cache key
// component for backtest reports.
func (p *Params) Hash() string {
	b, err := json.Marshal(p)
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:8])
}

// TunableRange declares the valid domain of one optimizer-tunable parameter.
type TunableRange struct {
	Min float64
	Max float64
	Get func(*Params) float64
	Set func(*Params, float64)
}

// Tunables is the registry of parameters an advisor may propose changes to.
// Anything outside this registry is rejected as malformed.
var Tunables = map[string]TunableRange{
	"score_min":               {Min: 0, Max: 100, Get: func(p *Params) float64 { return p.ScoreMin }, Set: func(p *Params, v float64) { p.ScoreMin = v }},
	"gap_min":                 {Min: 0, Max: 100, Get: func(p *Params) float64 { return p.GapMin }, Set: func(p *Params, v float64) { p.GapMin = v }},
	"quality_min":             {Min: 0, Max: 100, Get: func(p *Params) float64 { return p.QualityMin }, Set: func(p *Params, v float64) { p.QualityMin = v }},
	"take_profit_pct":         {Min: 0.1, Max: 100, Get: func(p *Params) float64 { return p.TakeProfitPct }, Set: func(p *Params, v float64) { p.TakeProfitPct = v }},
	"stop_loss_pct":           {Min: 0.1, Max: 100, Get: func(p *Params) float64 { return p.StopLossPct }, Set: func(p *Params, v float64) { p.StopLossPct = v }},
	"trailing_stop_pct":       {Min: 0.1, Max: 100, Get: func(p *Params) float64 { return p.TrailingStopPct }, Set: func(p *Params, v float64) { p.TrailingStopPct = v }},
	"trailing_activation_pct": {Min: 0, Max: 100, Get: func(p *Params) float64 { return p.TrailingActivationPct }, Set: func(p *Params, v float64) { p.TrailingActivationPct = v }},
	"profit_lock_pct":         {Min: 0, Max: 100, Get: func(p *Params) float64 { return p.ProfitLockPct }, Set: func(p *Params, v float64) { p.ProfitLockPct = v }},
	"volume_ratio_min":        {Min: 0, Max: 10, Get: func(p *Params) float64 { return p.VolumeRatioMin }, Set: func(p *Params, v float64) { p.VolumeRatioMin = v }},
	"priority_weight":         {Min: 1, Max: 10, Get: func(p *Params) float64 { return p.PriorityWeight }, Set: func(p *Params, v float64) { p.PriorityWeight = v }},
	"osc_long_min":            {Min: 0, Max: 100, Get: func(p *Params) float64 { return p.OscLongMin }, Set: func(p *Params, v float64) { p.OscLongMin = v }},
	"osc_long_max":            {Min: 0, Max: 100, Get: func(p *Params) float64 { return p.OscLongMax }, Set: func(p *Params, v float64) { p.OscLongMax = v }},
	"osc_short_min":           {Min: 0, Max: 100, Get: func(p *Params) float64 { return p.OscShortMin }, Set: func(p *Params, v float64) { p.OscShortMin = v }},
	"osc_short_max":           {Min: 0, Max: 100, Get: func(p *Params) float64 { return p.OscShortMax }, Set: func(p *Params, v float64) { p.OscShortMax = v }},
	"stoch_midline":           {Min: 0, Max: 100, Get: func(p *Params) float64 { return p.StochMidline }, Set: func(p *Params, v float64) { p.StochMidline = v }},
	"quality_volume_norm":     {Min: 0.1, Max: 10, Get: func(p *Params) float64 { return p.QualityVolumeNorm }, Set: func(p *Params, v float64) { p.QualityVolumeNorm = v }},
	"ribbon_smoothing":        {Min: 1, Max: 50, Get: func(p *Params) float64 { return float64(p.RibbonSmoothing) }, Set: func(p *Params, v float64) { p.RibbonSmoothing = int(math.Round(v)) }},
	"ribbon_min_lines":        {Min: 1, Max: 100, Get: func(p *Params) float64 { return float64(p.RibbonMinLines) }, Set: func(p *Params, v float64) { p.RibbonMinLines = int(math.Round(v)) }},
	"max_hold_bars":           {Min: 1, Max: 5000, Get: func(p *Params) float64 { return float64(p.MaxHoldBars) }, Set: func(p *Params, v float64) { p.MaxHoldBars = int(math.Round(v)) }},
}

// MaxPeriod returns the largest configured MA period.
func (p *Params) MaxPeriod() int {
	max := 0
	for _, n := range p.MAPeriods {
		if n > max {
			max = n
		}
	}
	return max
}

// MaxTimeframe returns the largest configured timeframe multiplier.
func (p *Params) MaxTimeframe() int {
	max := 0
	for _, n := range p.Timeframes {
		if n > max {
			max = n
		}
	}
	return max
}

// WarmupBars is the minimum number of base candles needed before the first
// bar can be evaluated: the longest timeframe must close enough buckets to
// seed its longest moving average, plus one smoothing window.
func (p *Params) WarmupBars() int {
	return p.MaxTimeframe()*p.MaxPeriod() + p.RibbonSmoothing
}

func containsInt(xs []int, v int) bool {
	for _, x := range xs {
		if x == v {
			return true
		}
	}
	return false
}
