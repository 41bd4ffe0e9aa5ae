package models

import (
	"errors"
	"testing"
)

func TestDefaultParamsValidate(t *testing.T) {
	if err := DefaultParams().Validate(); err != nil {
		t.Fatalf("defaults must validate: %v", err)
	}
}

func TestValidateVolumeBoundariesMustAscend(t *testing.T) {
	p := DefaultParams()
	p.VolumeLowBelow = p.VolumeNormalBelow
	err := p.Validate()
	if !errors.Is(err, ErrInvalidConfiguration) {
		t.Fatalf("equal adjacent boundaries must be rejected, got %v", err)
	}
}

func TestValidateVolumeTierOrdering(t *testing.T) {
	p := DefaultParams()
	p.VolumeTierMidMult = p.VolumeTierFullMult + 1
	if err := p.Validate(); !errors.Is(err, ErrInvalidConfiguration) {
		t.Fatalf("mid multiple above the full multiple must be rejected, got %v", err)
	}

	p = DefaultParams()
	p.VolumeTierBaseFrac = p.VolumeTierMidFrac + 0.1
	if err := p.Validate(); !errors.Is(err, ErrInvalidConfiguration) {
		t.Fatalf("base fraction above the mid fraction must be rejected, got %v", err)
	}
}

func TestValidateQualityBandWindow(t *testing.T) {
	p := DefaultParams()
	p.QualityBandMin = p.QualityBandMax + 1
	if err := p.Validate(); !errors.Is(err, ErrInvalidConfiguration) {
		t.Fatalf("inverted band window must be rejected, got %v", err)
	}

	p = DefaultParams()
	p.QualityBandSoftMin = p.QualityBandMin + 1
	if err := p.Validate(); !errors.Is(err, ErrInvalidConfiguration) {
		t.Fatalf("soft floor above the window must be rejected, got %v", err)
	}
}

func TestTunablesCoverScoreShaping(t *testing.T) {
	p := DefaultParams()
	for _, name := range []string{"stoch_midline", "quality_volume_norm"} {
		tr, ok := Tunables[name]
		if !ok {
			t.Fatalf("%s missing from the tunable registry", name)
		}
		tr.Set(p, tr.Get(p))
	}
	if err := p.Validate(); err != nil {
		t.Fatalf("round-tripping tunables must keep the configuration valid: %v", err)
	}
}
