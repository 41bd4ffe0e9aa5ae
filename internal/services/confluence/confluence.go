package confluence

import (
	"math"
	"time"

	"github.com/OffGrid0xDAO/OffGrid-Scalp-Bot-sub004/internal/domain/models"
	"github.com/OffGrid0xDAO/OffGrid-Scalp-Bot-sub004/internal/services/market"
)

// VolumeStatus buckets the volume ratio into a coarse activity taxonomy.
// Both the bucket boundaries and which statuses disqualify an entry come from
// the configuration.
type VolumeStatus string

const (
	VolumeDead   VolumeStatus = "dead"
	VolumeLow    VolumeStatus = "low"
	VolumeNormal VolumeStatus = "normal"
	VolumeHigh   VolumeStatus = "high"
	VolumeSpike  VolumeStatus = "spike"
)

// ClassifyVolume maps a volume ratio onto its status bucket using the
// configured boundaries. An undefined ratio counts as dead.
func ClassifyVolume(ratio float64, p *models.Params) VolumeStatus {
	switch {
	case !market.IsDefined(ratio) || ratio < p.VolumeDeadBelow:
		return VolumeDead
	case ratio < p.VolumeLowBelow:
		return VolumeLow
	case ratio < p.VolumeNormalBelow:
		return VolumeNormal
	case ratio < p.VolumeHighBelow:
		return VolumeHigh
	default:
		return VolumeSpike
	}
}

// Inputs carries the current-bar indicator values the engine scores on.
// NaN marks a value that is not yet evaluable.
type Inputs struct {
	Price       float64
	Cloud       models.CloudState
	Oscillator  float64 // RSI-style, [0,100]
	StochK      float64
	StochD      float64
	VolumeRatio float64
	BandWidth   float64
	RealizedVol float64
	HTFRatio    float64 // priority-timeframe directional ratio, NaN when unused
}

// Engine converts indicator values into a directional entry signal with a
// quality score. Every threshold and weight comes from the configuration.
type Engine struct {
	p        *models.Params
	excluded map[string]bool
}

// New builds an engine bound to one configuration snapshot.
func New(p *models.Params) *Engine {
	ex := make(map[string]bool, len(p.ExcludedVolumeStatuses))
	for _, s := range p.ExcludedVolumeStatuses {
		ex[s] = true
	}
	return &Engine{p: p, excluded: ex}
}

// Evaluate scores one bar. An undefined cloud yields direction none without
// scoring; ambiguity (equal scores, both or neither side qualifying) also
// resolves to none, never to an error.
func (e *Engine) Evaluate(ts time.Time, in Inputs) models.SignalEvent {
	ev := models.SignalEvent{Timestamp: ts, Direction: models.DirectionNone}
	if !in.Cloud.Defined {
		ev.Filters = append(ev.Filters, "cloud_undefined")
		return ev
	}

	longScore := e.directionScore(in, true) + e.volumeScore(in) + e.oscillatorScore(in, true) + e.structureScore(in, true)
	shortScore := e.directionScore(in, false) + e.volumeScore(in) + e.oscillatorScore(in, false) + e.structureScore(in, false)
	ev.LongScore = longScore
	ev.ShortScore = shortScore
	ev.QualityScore = e.qualityScore(in)

	longOK, longFilters := e.filtersPass(in, true)
	shortOK, shortFilters := e.filtersPass(in, false)

	longQualifies := longOK &&
		longScore-shortScore >= e.p.GapMin &&
		longScore >= e.p.ScoreMin
	shortQualifies := shortOK &&
		shortScore-longScore >= e.p.GapMin &&
		shortScore >= e.p.ScoreMin

	// Equal scores can never open a gap, but keep the tie rule explicit:
	// ambiguity resolves to no signal, not to a side.
	if longScore == shortScore {
		return ev
	}

	switch {
	case longQualifies && !shortQualifies:
		ev.Direction = models.DirectionLong
		ev.Filters = longFilters
	case shortQualifies && !longQualifies:
		ev.Direction = models.DirectionShort
		ev.Filters = shortFilters
	}
	return ev
}

// directionScore maps the cloud's directional ratio onto the configured
// directional weight.
func (e *Engine) directionScore(in Inputs, long bool) float64 {
	r := in.Cloud.Ratio
	if !long {
		r = 1 - r
	}
	return r * e.p.WeightDirection
}

// volumeScore rewards activity above the configured minimum ratio, tiered.
func (e *Engine) volumeScore(in Inputs) float64 {
	vr := in.VolumeRatio
	if !market.IsDefined(vr) {
		return 0
	}
	w := e.p.WeightVolume
	min := e.p.VolumeRatioMin
	switch {
	case vr >= e.p.VolumeTierFullMult*min && min > 0:
		return w
	case vr >= e.p.VolumeTierMidMult*min:
		return w * e.p.VolumeTierMidFrac
	case vr >= min:
		return w * e.p.VolumeTierBaseFrac
	default:
		return 0
	}
}

// oscillatorScore rewards stochastic alignment with the candidate direction.
func (e *Engine) oscillatorScore(in Inputs, long bool) float64 {
	if !market.IsDefined(in.StochK) || !market.IsDefined(in.StochD) {
		return 0
	}
	w := e.p.WeightOscillator
	if long {
		if in.StochK > in.StochD && in.StochK > e.p.StochMidline {
			return w
		}
		if in.StochK > in.StochD {
			return w * 0.5
		}
		return 0
	}
	if in.StochK < in.StochD && in.StochK < e.p.StochMidline {
		return w
	}
	if in.StochK < in.StochD {
		return w * 0.5
	}
	return 0
}

// structureScore rewards price clearing the cloud envelope in the candidate
// direction; inside-cloud position earns half credit on the favorable half.
func (e *Engine) structureScore(in Inputs, long bool) float64 {
	w := e.p.WeightStructure
	mid := (in.Cloud.Upper + in.Cloud.Lower) / 2
	if long {
		switch {
		case in.Price > in.Cloud.Upper:
			return w
		case in.Price > mid:
			return w * 0.5
		default:
			return 0
		}
	}
	switch {
	case in.Price < in.Cloud.Lower:
		return w
	case in.Price < mid:
		return w * 0.5
	default:
		return 0
	}
}

// filtersPass applies the hard filters for one direction and returns the
// names of the ones that passed.
func (e *Engine) filtersPass(in Inputs, long bool) (bool, []string) {
	var passed []string

	status := string(ClassifyVolume(in.VolumeRatio, e.p))
	if e.excluded[status] {
		return false, nil
	}
	passed = append(passed, "volume_status:"+status)

	if !market.IsDefined(in.Oscillator) {
		return false, nil
	}
	lo, hi := e.p.OscLongMin, e.p.OscLongMax
	if !long {
		lo, hi = e.p.OscShortMin, e.p.OscShortMax
	}
	if in.Oscillator < lo || in.Oscillator > hi {
		return false, nil
	}
	passed = append(passed, "oscillator_range")

	if e.p.RequireHTFAgreement {
		if !market.IsDefined(in.HTFRatio) {
			return false, nil
		}
		if long && in.HTFRatio < 0.5 {
			return false, nil
		}
		if !long && in.HTFRatio > 0.5 {
			return false, nil
		}
		passed = append(passed, "htf_agreement")
	}

	return true, passed
}

// qualityScore is an independent composite used only as an extra acceptance
// gate; it never participates in direction selection.
func (e *Engine) qualityScore(in Inputs) float64 {
	total := e.p.QualityWeightTrend + e.p.QualityWeightVolume + e.p.QualityWeightVolatility
	if total <= 0 {
		return 0
	}

	// Trend decisiveness: distance of the smoothed ratio from 0.5.
	trend := math.Abs(in.Cloud.Ratio-0.5) * 2

	volume := 0.0
	if market.IsDefined(in.VolumeRatio) {
		volume = math.Min(in.VolumeRatio/e.p.QualityVolumeNorm, 1)
	}

	// Volatility sanity: band-width credit inside the configured window,
	// earned only when realized volatility is evaluable and nonzero. A flat
	// tape gets no credit no matter how the bands sit.
	vol := 0.0
	if market.IsDefined(in.BandWidth) && market.IsDefined(in.RealizedVol) && in.RealizedVol > 0 {
		switch {
		case in.BandWidth >= e.p.QualityBandMin && in.BandWidth <= e.p.QualityBandMax:
			vol = 1
		case in.BandWidth > e.p.QualityBandSoftMin:
			vol = 0.5
		}
	}

	score := trend*e.p.QualityWeightTrend + volume*e.p.QualityWeightVolume + vol*e.p.QualityWeightVolatility
	return score / total * 100
}
