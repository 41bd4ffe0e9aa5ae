package usecase

import (
	"fmt"

	"github.com/OffGrid0xDAO/OffGrid-Scalp-Bot-sub004/internal/domain/models"
)

// PositionManager owns the zero-or-one open position of a run and advances
// it bar-by-bar. States are flat and open; transitions are open-on-signal and
// close-on-first-matching-exit-rule.
type PositionManager struct {
	p   *models.Params
	pos *models.Position
}

// NewPositionManager builds a manager bound to one configuration snapshot.
func NewPositionManager(p *models.Params) *PositionManager {
	return &PositionManager{p: p}
}

// Open reports whether a position is currently open.
func (m *PositionManager) Open() bool { return m.pos != nil }

// Position returns the open position, or nil when flat.
func (m *PositionManager) Position() *models.Position { return m.pos }

// TryOpen opens a position on an accepted signal at the bar's close.
// Returns false without error when the signal does not qualify (no direction
// or quality below the configured minimum). Opening while a position is
// already open is a contract violation and fails loudly.
func (m *PositionManager) TryOpen(sig models.SignalEvent, bar models.Candle) (bool, error) {
	if m.pos != nil {
		return false, fmt.Errorf("position already open since %v", m.pos.EntryTime)
	}
	if sig.Direction == models.DirectionNone {
		return false, nil
	}
	if sig.QualityScore < m.p.QualityMin {
		return false, nil
	}

	entry := bar.Close
	pos := &models.Position{
		Direction:        sig.Direction,
		EntryPrice:       entry,
		EntryTime:        bar.Timestamp,
		Size:             1,
		TrailingDistance: entry * m.p.TrailingStopPct / 100,
		PeakPrice:        entry,
	}
	if sig.Direction == models.DirectionLong {
		pos.StopLoss = entry * (1 - m.p.StopLossPct/100)
		pos.TakeProfit = entry * (1 + m.p.TakeProfitPct/100)
	} else {
		pos.StopLoss = entry * (1 + m.p.StopLossPct/100)
		pos.TakeProfit = entry * (1 - m.p.TakeProfitPct/100)
	}
	m.pos = pos
	return true, nil
}

// Advance moves the open position through one bar: update the favorable
// excursion, arm the profit lock, refresh the trailing stop, then run the
// exit rules in the configured priority order against the bar's high/low.
// Returns the closed trade when an exit fired, nil otherwise. Calling
// Advance while flat is a no-op.
func (m *PositionManager) Advance(bar models.Candle) *models.ClosedTrade {
	if m.pos == nil {
		return nil
	}
	pos := m.pos
	pos.BarsHeld++

	long := pos.Direction == models.DirectionLong
	if long {
		if bar.High > pos.PeakPrice {
			pos.PeakPrice = bar.High
		}
	} else {
		if bar.Low < pos.PeakPrice {
			pos.PeakPrice = bar.Low
		}
	}

	excursion := m.favorableExcursionPct()
	if m.p.ProfitLockPct > 0 && excursion >= m.p.ProfitLockPct {
		pos.ProfitLockArmed = true
	}
	if excursion >= m.p.TrailingActivationPct {
		if long {
			pos.TrailingStop = pos.PeakPrice - pos.TrailingDistance
		} else {
			pos.TrailingStop = pos.PeakPrice + pos.TrailingDistance
		}
	}

	for _, rule := range m.p.ExitPriority {
		if price, hit := m.checkExit(rule, bar); hit {
			return m.close(bar, price, exitReasonFor(rule))
		}
	}
	return nil
}

// CloseManual force-closes the position at the bar's close, used at the end
// of a run. A position opened on that same bar is discarded instead, since a
// trade must span at least one bar.
func (m *PositionManager) CloseManual(bar models.Candle) *models.ClosedTrade {
	if m.pos == nil {
		return nil
	}
	if m.pos.BarsHeld == 0 {
		m.pos = nil
		return nil
	}
	return m.close(bar, bar.Close, models.ExitManual)
}

func (m *PositionManager) favorableExcursionPct() float64 {
	pos := m.pos
	if pos.Direction == models.DirectionLong {
		return (pos.PeakPrice - pos.EntryPrice) / pos.EntryPrice * 100
	}
	return (pos.EntryPrice - pos.PeakPrice) / pos.EntryPrice * 100
}

// checkExit evaluates one named exit rule against the bar. Stop-class rules
// fill at the stop price, not the bar extreme: the stop is assumed filled at
// its level on an intrabar touch.
func (m *PositionManager) checkExit(rule string, bar models.Candle) (float64, bool) {
	pos := m.pos
	long := pos.Direction == models.DirectionLong

	switch rule {
	case "stop_loss":
		if long && bar.Low <= pos.StopLoss {
			return pos.StopLoss, true
		}
		if !long && bar.High >= pos.StopLoss {
			return pos.StopLoss, true
		}
	case "take_profit":
		if long && bar.High >= pos.TakeProfit {
			return pos.TakeProfit, true
		}
		if !long && bar.Low <= pos.TakeProfit {
			return pos.TakeProfit, true
		}
	case "trailing_stop":
		if pos.TrailingStop == 0 {
			return 0, false
		}
		if long && bar.Low <= pos.TrailingStop {
			return pos.TrailingStop, true
		}
		if !long && bar.High >= pos.TrailingStop {
			return pos.TrailingStop, true
		}
	case "profit_lock":
		if !pos.ProfitLockArmed {
			return 0, false
		}
		// Price retraced to breakeven or worse after the lock armed:
		// exit at entry, never at a loss.
		if long && bar.Low <= pos.EntryPrice {
			return pos.EntryPrice, true
		}
		if !long && bar.High >= pos.EntryPrice {
			return pos.EntryPrice, true
		}
	case "max_hold":
		if pos.BarsHeld >= m.p.MaxHoldBars {
			return bar.Close, true
		}
	}
	return 0, false
}

func (m *PositionManager) close(bar models.Candle, exitPrice float64, reason models.ExitReason) *models.ClosedTrade {
	pos := m.pos
	m.pos = nil

	ret := (exitPrice - pos.EntryPrice) / pos.EntryPrice * 100
	if pos.Direction == models.DirectionShort {
		ret = -ret
	}
	ret -= 2 * m.p.FeePct

	return &models.ClosedTrade{
		Direction:  pos.Direction,
		EntryTime:  pos.EntryTime,
		EntryPrice: pos.EntryPrice,
		ExitTime:   bar.Timestamp,
		ExitPrice:  exitPrice,
		ExitReason: reason,
		ReturnPct:  ret,
	}
}

func exitReasonFor(rule string) models.ExitReason {
	switch rule {
	case "stop_loss":
		return models.ExitStopLoss
	case "take_profit":
		return models.ExitTakeProfit
	case "trailing_stop":
		return models.ExitTrailingStop
	case "profit_lock":
		return models.ExitProfitLock
	case "max_hold":
		return models.ExitMaxHold
	default:
		return models.ExitManual
	}
}
