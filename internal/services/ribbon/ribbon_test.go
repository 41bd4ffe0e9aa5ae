package ribbon

import (
	"testing"
	"time"

	"github.com/OffGrid0xDAO/OffGrid-Scalp-Bot-sub004/internal/domain/models"
	"github.com/OffGrid0xDAO/OffGrid-Scalp-Bot-sub004/internal/services/market"
)

func flatBase(n int, price float64) []models.Candle {
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	out := make([]models.Candle, n)
	for i := range out {
		out[i] = models.Candle{
			Timestamp: start.Add(time.Duration(i) * time.Minute),
			Open:      price, High: price, Low: price, Close: price,
			Volume: 10,
		}
	}
	return out
}

func testParams() *models.Params {
	p := models.DefaultParams()
	p.Timeframes = []int{1, 2}
	p.PriorityTimeframes = nil
	p.MAPeriods = []int{2, 3}
	p.RibbonSmoothing = 1
	p.RibbonMinLines = 1
	p.UsePercentileBands = false
	return p
}

func constLine(mult int, values ...float64) Line {
	return Line{Multiplier: mult, Period: 1, Values: values}
}

func TestComputeUpperAtLeastLower(t *testing.T) {
	base := flatBase(40, 100)
	for i := range base {
		base[i].Close = 100 + float64(i%7) - 3
		base[i].High = base[i].Close + 1
		base[i].Low = base[i].Close - 1
	}
	p := testParams()

	frames, err := market.ResampleMultiple(base, time.Minute, p.Timeframes)
	if err != nil {
		t.Fatalf("resample: %v", err)
	}
	lines := BuildLines(frames, p.Timeframes, p.MAPeriods)
	states := New(p).Compute(base, lines)

	if len(states) != len(base) {
		t.Fatalf("want %d states, got %d", len(base), len(states))
	}
	defined := 0
	for i, s := range states {
		if !s.Defined {
			continue
		}
		defined++
		if s.Upper < s.Lower {
			t.Fatalf("bar %d: upper %v < lower %v", i, s.Upper, s.Lower)
		}
		if s.Ratio < 0 || s.Ratio > 1 {
			t.Fatalf("bar %d: ratio %v out of [0,1]", i, s.Ratio)
		}
	}
	if defined == 0 {
		t.Fatal("no defined cloud states")
	}
}

func TestComputeReadsLastClosedBucketOnly(t *testing.T) {
	base := flatBase(8, 100)
	line := constLine(2, 10, 20, 30, 40)

	states := New(testParams()).Compute(base, []Line{line})

	if states[0].Defined {
		t.Fatal("bar 0: no multiplier-2 bucket has closed yet")
	}
	// The value visible at base index i is the one of bucket (i+1)/2 - 1.
	expect := map[int]float64{1: 10, 2: 10, 3: 20, 4: 20, 5: 30, 6: 30, 7: 40}
	for i, want := range expect {
		s := states[i]
		if !s.Defined {
			t.Fatalf("bar %d: expected defined state", i)
		}
		if s.Upper != want || s.Lower != want {
			t.Fatalf("bar %d: want envelope %v, got [%v, %v]", i, want, s.Lower, s.Upper)
		}
	}
}

func TestComputeUndefinedBelowMinLines(t *testing.T) {
	base := flatBase(8, 100)
	p := testParams()
	p.RibbonMinLines = 2

	states := New(p).Compute(base, []Line{constLine(1, 1, 1, 1, 1, 1, 1, 1, 1)})
	for i, s := range states {
		if s.Defined {
			t.Fatalf("bar %d: one line cannot satisfy min_lines=2", i)
		}
	}
}

func TestComputePercentileBounds(t *testing.T) {
	base := flatBase(2, 100)
	p := testParams()
	p.UsePercentileBands = true
	p.UpperPercentile = 80
	p.LowerPercentile = 20

	lines := []Line{
		constLine(1, 1, 1),
		constLine(1, 2, 2),
		constLine(1, 3, 3),
		constLine(1, 4, 4),
		constLine(1, 5, 5),
	}
	states := New(p).Compute(base, lines)

	s := states[1]
	if !s.Defined {
		t.Fatal("expected defined state")
	}
	// Nearest rank on [1..5]: 80th -> 4, 20th -> 1.
	if s.Upper != 4 || s.Lower != 1 {
		t.Fatalf("want [1, 4], got [%v, %v]", s.Lower, s.Upper)
	}
}

func TestComputePriorityWeighting(t *testing.T) {
	base := flatBase(8, 100)
	p := testParams()
	p.Timeframes = []int{1, 2}
	p.PriorityTimeframes = []int{2}
	p.PriorityWeight = 3

	lines := []Line{
		constLine(1, 90, 90, 90, 90, 90, 90, 90, 90), // below price
		constLine(2, 110, 110, 110, 110),             // above price, weight 3
	}
	states := New(p).Compute(base, lines)

	s := states[7]
	if !s.Defined {
		t.Fatal("expected defined state")
	}
	if got, want := s.Ratio, 0.25; got != want {
		t.Fatalf("weighted ratio: want %v, got %v", want, got)
	}
}
