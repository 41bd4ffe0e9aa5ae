package usecase

import (
	"testing"
	"time"

	"github.com/OffGrid0xDAO/OffGrid-Scalp-Bot-sub004/internal/domain/models"
)

func exitParams() *models.Params {
	p := models.DefaultParams()
	p.TakeProfitPct = 5
	p.StopLossPct = 1
	p.TrailingStopPct = 1
	p.TrailingActivationPct = 2
	p.ProfitLockPct = 2
	p.MaxHoldBars = 10
	p.QualityMin = 0
	p.FeePct = 0
	return p
}

func bar(ts time.Time, o, h, l, c float64) models.Candle {
	return models.Candle{Timestamp: ts, Open: o, High: h, Low: l, Close: c, Volume: 10}
}

func openLong(t *testing.T, pm *PositionManager, ts time.Time, price float64) {
	t.Helper()
	sig := models.SignalEvent{Timestamp: ts, Direction: models.DirectionLong, QualityScore: 100}
	ok, err := pm.TryOpen(sig, bar(ts, price, price, price, price))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if !ok {
		t.Fatal("open rejected")
	}
}

func TestStopFillsAtStopPriceNotBarExtreme(t *testing.T) {
	pm := NewPositionManager(exitParams())
	t0 := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	openLong(t, pm, t0, 100) // stop at 99

	tr := pm.Advance(bar(t0.Add(time.Minute), 100, 100.2, 98.5, 99.5))
	if tr == nil {
		t.Fatal("expected stop-loss exit")
	}
	if tr.ExitReason != models.ExitStopLoss {
		t.Fatalf("want stop_loss, got %s", tr.ExitReason)
	}
	if tr.ExitPrice != 99 {
		t.Fatalf("stop must fill at its level 99, got %v", tr.ExitPrice)
	}
	if tr.ReturnPct != -1 {
		t.Fatalf("want -1%%, got %v", tr.ReturnPct)
	}
}

func TestExitPriorityOrderDecidesAmbiguousBar(t *testing.T) {
	t0 := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	// A wide bar touching both the stop (99) and the target (105).
	wide := bar(t0.Add(time.Minute), 100, 106, 98, 102)

	p := exitParams()
	p.ExitPriority = []string{"stop_loss", "take_profit", "trailing_stop", "profit_lock", "max_hold"}
	pm := NewPositionManager(p)
	openLong(t, pm, t0, 100)
	tr := pm.Advance(wide)
	if tr == nil || tr.ExitReason != models.ExitStopLoss {
		t.Fatalf("stop-first priority: want stop_loss, got %+v", tr)
	}

	p2 := exitParams()
	p2.ExitPriority = []string{"take_profit", "stop_loss", "trailing_stop", "profit_lock", "max_hold"}
	pm2 := NewPositionManager(p2)
	openLong(t, pm2, t0, 100)
	tr2 := pm2.Advance(wide)
	if tr2 == nil || tr2.ExitReason != models.ExitTakeProfit {
		t.Fatalf("target-first priority: want take_profit, got %+v", tr2)
	}
}

func TestTrailingStopArmsAfterActivation(t *testing.T) {
	pm := NewPositionManager(exitParams())
	t0 := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	openLong(t, pm, t0, 100)

	// Favorable excursion beyond activation (2%): peak 103, trail at 102.
	// The bar low stays above the freshly armed stop.
	if tr := pm.Advance(bar(t0.Add(time.Minute), 102, 103, 102.1, 102.8)); tr != nil {
		t.Fatalf("unexpected exit: %+v", tr)
	}
	pos := pm.Position()
	if pos.TrailingStop == 0 {
		t.Fatal("trailing stop must be armed after activation")
	}
	want := pos.PeakPrice - pos.TrailingDistance
	if pos.TrailingStop != want {
		t.Fatalf("trailing stop: want %v, got %v", want, pos.TrailingStop)
	}

	tr := pm.Advance(bar(t0.Add(2*time.Minute), 102.5, 102.6, 101.5, 101.6))
	if tr == nil || tr.ExitReason != models.ExitTrailingStop {
		t.Fatalf("want trailing_stop exit, got %+v", tr)
	}
	if tr.ExitPrice != want {
		t.Fatalf("trailing stop must fill at its level %v, got %v", want, tr.ExitPrice)
	}
}

func TestProfitLockExitsAtBreakeven(t *testing.T) {
	p := exitParams()
	// Keep the trailing stop out of the way so the lock decides.
	p.TrailingActivationPct = 50
	p.ExitPriority = []string{"stop_loss", "take_profit", "profit_lock", "max_hold"}
	pm := NewPositionManager(p)
	t0 := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	openLong(t, pm, t0, 100)

	// +2% excursion arms the lock.
	if tr := pm.Advance(bar(t0.Add(time.Minute), 100, 102.5, 100.1, 102)); tr != nil {
		t.Fatalf("unexpected exit: %+v", tr)
	}
	if !pm.Position().ProfitLockArmed {
		t.Fatal("profit lock must be armed")
	}

	// Retrace through entry: exit at breakeven, not at the bar low.
	tr := pm.Advance(bar(t0.Add(2*time.Minute), 102, 102, 99.5, 99.8))
	if tr == nil || tr.ExitReason != models.ExitProfitLock {
		t.Fatalf("want profit_lock exit, got %+v", tr)
	}
	if tr.ExitPrice != 100 {
		t.Fatalf("profit lock must exit at entry 100, got %v", tr.ExitPrice)
	}
}

func TestMaxHoldExpires(t *testing.T) {
	p := exitParams()
	p.MaxHoldBars = 3
	pm := NewPositionManager(p)
	t0 := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	openLong(t, pm, t0, 100)

	var tr *models.ClosedTrade
	for i := 1; i <= 3; i++ {
		tr = pm.Advance(bar(t0.Add(time.Duration(i)*time.Minute), 100, 100.5, 99.5, 100.2))
		if i < 3 && tr != nil {
			t.Fatalf("bar %d: unexpected exit %+v", i, tr)
		}
	}
	if tr == nil || tr.ExitReason != models.ExitMaxHold {
		t.Fatalf("want max_hold_expired exit on bar 3, got %+v", tr)
	}
	if tr.ExitPrice != 100.2 {
		t.Fatalf("max hold exits at bar close, got %v", tr.ExitPrice)
	}
}

func TestExitTimeAfterEntryTime(t *testing.T) {
	pm := NewPositionManager(exitParams())
	t0 := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	openLong(t, pm, t0, 100)
	tr := pm.Advance(bar(t0.Add(time.Minute), 100, 100, 98, 98.5))
	if tr == nil {
		t.Fatal("expected exit")
	}
	if !tr.ExitTime.After(tr.EntryTime) {
		t.Fatalf("exit_time %v must be after entry_time %v", tr.ExitTime, tr.EntryTime)
	}
}

func TestCloseManualDiscardsSameBarPosition(t *testing.T) {
	pm := NewPositionManager(exitParams())
	t0 := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	b := bar(t0, 100, 100, 100, 100)
	openLong(t, pm, t0, 100)
	if tr := pm.CloseManual(b); tr != nil {
		t.Fatalf("a zero-bar position must be discarded, got %+v", tr)
	}
	if pm.Open() {
		t.Fatal("position must be cleared")
	}
}

func TestTryOpenRejectsLowQualityAndDoubleOpen(t *testing.T) {
	p := exitParams()
	p.QualityMin = 60
	pm := NewPositionManager(p)
	t0 := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	b := bar(t0, 100, 100, 100, 100)

	low := models.SignalEvent{Timestamp: t0, Direction: models.DirectionLong, QualityScore: 30}
	if ok, err := pm.TryOpen(low, b); err != nil || ok {
		t.Fatalf("low quality must be rejected without error, got ok=%v err=%v", ok, err)
	}

	good := models.SignalEvent{Timestamp: t0, Direction: models.DirectionLong, QualityScore: 90}
	if ok, err := pm.TryOpen(good, b); err != nil || !ok {
		t.Fatalf("open: ok=%v err=%v", ok, err)
	}
	if _, err := pm.TryOpen(good, b); err == nil {
		t.Fatal("double open must fail loudly")
	}
}

func TestShortFeeAndReturnAccounting(t *testing.T) {
	p := exitParams()
	p.FeePct = 0.1
	pm := NewPositionManager(p)
	t0 := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	sig := models.SignalEvent{Timestamp: t0, Direction: models.DirectionShort, QualityScore: 100}
	if ok, err := pm.TryOpen(sig, bar(t0, 100, 100, 100, 100)); err != nil || !ok {
		t.Fatalf("open short: ok=%v err=%v", ok, err)
	}

	// Short take profit at 95: +5% gross, minus fees on both sides.
	tr := pm.Advance(bar(t0.Add(time.Minute), 100, 100, 94.5, 94.8))
	if tr == nil || tr.ExitReason != models.ExitTakeProfit {
		t.Fatalf("want take_profit, got %+v", tr)
	}
	if got, want := tr.ReturnPct, 5.0-0.2; got != want {
		t.Fatalf("net return: want %v, got %v", want, got)
	}
}
