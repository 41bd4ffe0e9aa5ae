package confluence

import (
	"math"
	"testing"
	"time"

	"github.com/OffGrid0xDAO/OffGrid-Scalp-Bot-sub004/internal/domain/models"
)

func engineParams() *models.Params {
	p := models.DefaultParams()
	p.ScoreMin = 50
	p.GapMin = 10
	p.OscLongMin = 0
	p.OscLongMax = 100
	p.OscShortMin = 0
	p.OscShortMax = 100
	p.ExcludedVolumeStatuses = nil
	p.RequireHTFAgreement = false
	return p
}

func definedCloud(ratio, lower, upper float64) models.CloudState {
	return models.CloudState{
		Upper:   upper,
		Lower:   lower,
		Ratio:   ratio,
		Defined: true,
	}
}

func TestClassifyVolume(t *testing.T) {
	p := models.DefaultParams()
	cases := []struct {
		ratio float64
		want  VolumeStatus
	}{
		{0.1, VolumeDead},
		{0.5, VolumeLow},
		{1.0, VolumeNormal},
		{2.0, VolumeHigh},
		{3.0, VolumeSpike},
		{math.NaN(), VolumeDead},
	}
	for _, c := range cases {
		if got := ClassifyVolume(c.ratio, p); got != c.want {
			t.Errorf("ratio %v: want %s, got %s", c.ratio, c.want, got)
		}
	}
}

func TestClassifyVolumeBoundariesFollowConfiguration(t *testing.T) {
	p := models.DefaultParams()
	p.VolumeDeadBelow = 0.5
	p.VolumeLowBelow = 1.0
	p.VolumeNormalBelow = 2.0
	p.VolumeHighBelow = 4.0
	if err := p.Validate(); err != nil {
		t.Fatalf("shifted boundaries must validate: %v", err)
	}
	if got := ClassifyVolume(0.4, p); got != VolumeDead {
		t.Errorf("0.4 under a 0.5 dead boundary: want dead, got %s", got)
	}
	if got := ClassifyVolume(3.0, p); got != VolumeHigh {
		t.Errorf("3.0 under a 4.0 high boundary: want high, got %s", got)
	}
}

func TestVolumeScoreTiersFollowConfiguration(t *testing.T) {
	p := engineParams()
	p.WeightVolume = 20
	p.VolumeRatioMin = 1.0
	e := New(p)
	// Full credit at the full multiple, the configured fractions at the mid
	// multiple and the bare minimum, nothing below.
	cases := []struct {
		ratio float64
		want  float64
	}{
		{2.0, 20},
		{1.5, 15},
		{1.0, 10},
		{0.9, 0},
	}
	for _, c := range cases {
		if got := e.volumeScore(Inputs{VolumeRatio: c.ratio}); got != c.want {
			t.Errorf("ratio %v: want %v, got %v", c.ratio, c.want, got)
		}
	}

	p2 := engineParams()
	p2.WeightVolume = 20
	p2.VolumeRatioMin = 1.0
	p2.VolumeTierFullMult = 3
	if got := New(p2).volumeScore(Inputs{VolumeRatio: 2.0}); got != 15 {
		t.Errorf("raising the full-tier multiple must demote 2.0 to the mid tier: want 15, got %v", got)
	}
}

func TestOscillatorMidlineFollowsConfiguration(t *testing.T) {
	p := engineParams()
	p.WeightOscillator = 20
	in := Inputs{StochK: 60, StochD: 40}
	if got := New(p).oscillatorScore(in, true); got != 20 {
		t.Fatalf("%%K above the default midline must earn full credit, got %v", got)
	}
	p.StochMidline = 70
	if got := New(p).oscillatorScore(in, true); got != 10 {
		t.Fatalf("%%K below a raised midline must earn half credit, got %v", got)
	}
}

func TestEvaluateUndefinedCloudYieldsNone(t *testing.T) {
	e := New(engineParams())
	ev := e.Evaluate(time.Now(), Inputs{Price: 100, Cloud: models.CloudState{}})
	if ev.Direction != models.DirectionNone {
		t.Fatalf("want none, got %s", ev.Direction)
	}
	if len(ev.Filters) != 1 || ev.Filters[0] != "cloud_undefined" {
		t.Fatalf("want cloud_undefined marker, got %v", ev.Filters)
	}
}

func TestEvaluateTieYieldsNone(t *testing.T) {
	e := New(engineParams())
	// Perfectly symmetric inputs: ratio 0.5, price at the midline, stochs
	// crossed flat. Both sides score identically.
	in := Inputs{
		Price:       100,
		Cloud:       definedCloud(0.5, 95, 105),
		Oscillator:  50,
		StochK:      50,
		StochD:      50,
		VolumeRatio: 1.0,
		BandWidth:   3,
		HTFRatio:    math.NaN(),
	}
	ev := e.Evaluate(time.Now(), in)
	if ev.LongScore != ev.ShortScore {
		t.Fatalf("expected tied scores, got %v vs %v", ev.LongScore, ev.ShortScore)
	}
	if ev.Direction != models.DirectionNone {
		t.Fatalf("tie must resolve to none, got %s", ev.Direction)
	}
}

func TestEvaluateStrongLong(t *testing.T) {
	e := New(engineParams())
	in := Inputs{
		Price:       110,
		Cloud:       definedCloud(1.0, 95, 105),
		Oscillator:  60,
		StochK:      80,
		StochD:      60,
		VolumeRatio: 2.0,
		BandWidth:   3,
		RealizedVol: 0.02,
		HTFRatio:    math.NaN(),
	}
	ev := e.Evaluate(time.Now(), in)
	if ev.Direction != models.DirectionLong {
		t.Fatalf("want long, got %s (scores %v vs %v)", ev.Direction, ev.LongScore, ev.ShortScore)
	}
	if ev.QualityScore <= 0 || ev.QualityScore > 100 {
		t.Fatalf("quality score out of range: %v", ev.QualityScore)
	}
}

func TestEvaluateExcludedVolumeBlocksEntry(t *testing.T) {
	p := engineParams()
	p.ExcludedVolumeStatuses = []string{"spike"}
	e := New(p)
	in := Inputs{
		Price:       110,
		Cloud:       definedCloud(1.0, 95, 105),
		Oscillator:  60,
		StochK:      80,
		StochD:      60,
		VolumeRatio: 5.0, // spike
		BandWidth:   3,
		HTFRatio:    math.NaN(),
	}
	ev := e.Evaluate(time.Now(), in)
	if ev.Direction != models.DirectionNone {
		t.Fatalf("excluded volume status must block the entry, got %s", ev.Direction)
	}
}

func TestEvaluateOscillatorRangeBlocksSide(t *testing.T) {
	p := engineParams()
	p.OscLongMax = 70
	e := New(p)
	in := Inputs{
		Price:       110,
		Cloud:       definedCloud(1.0, 95, 105),
		Oscillator:  85, // overbought beyond the long ceiling
		StochK:      80,
		StochD:      60,
		VolumeRatio: 2.0,
		BandWidth:   3,
		HTFRatio:    math.NaN(),
	}
	ev := e.Evaluate(time.Now(), in)
	if ev.Direction == models.DirectionLong {
		t.Fatal("long side must be filtered out by the oscillator range")
	}
}

func TestEvaluateHTFDisagreementBlocksLong(t *testing.T) {
	p := engineParams()
	p.RequireHTFAgreement = true
	e := New(p)
	in := Inputs{
		Price:       110,
		Cloud:       definedCloud(1.0, 95, 105),
		Oscillator:  60,
		StochK:      80,
		StochD:      60,
		VolumeRatio: 2.0,
		BandWidth:   3,
		HTFRatio:    0.2, // higher timeframes lean short
	}
	ev := e.Evaluate(time.Now(), in)
	if ev.Direction == models.DirectionLong {
		t.Fatal("long entry must require higher-timeframe agreement")
	}
}

func TestQualityVolatilityCreditRequiresRealizedVol(t *testing.T) {
	p := engineParams()
	e := New(p)
	in := Inputs{
		Price:       110,
		Cloud:       definedCloud(1.0, 95, 105),
		VolumeRatio: 2.0,
		BandWidth:   3,
		RealizedVol: 0.02,
		HTFRatio:    math.NaN(),
	}
	with := e.qualityScore(in)

	in.RealizedVol = math.NaN()
	without := e.qualityScore(in)

	total := p.QualityWeightTrend + p.QualityWeightVolume + p.QualityWeightVolatility
	wantDiff := p.QualityWeightVolatility / total * 100
	if diff := with - without; math.Abs(diff-wantDiff) > 1e-9 {
		t.Fatalf("volatility credit must vanish without realized volatility: diff %v, want %v", diff, wantDiff)
	}

	in.RealizedVol = 0
	if got := e.qualityScore(in); got != without {
		t.Fatalf("a flat tape must earn no volatility credit: got %v, want %v", got, without)
	}
}

func TestQualityBandWindowFollowsConfiguration(t *testing.T) {
	p := engineParams()
	e := New(p)
	in := Inputs{
		Cloud:       definedCloud(0.5, 95, 105),
		VolumeRatio: math.NaN(),
		BandWidth:   0.7,
		RealizedVol: 0.02,
	}
	// 0.7 sits between the soft floor and the full window: half credit.
	half := e.qualityScore(in)

	p2 := engineParams()
	p2.QualityBandMin = 0.5
	full := New(p2).qualityScore(in)
	if full <= half {
		t.Fatalf("widening the band window must raise the credit: %v vs %v", full, half)
	}
}
