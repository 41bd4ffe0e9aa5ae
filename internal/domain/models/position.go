package models

import "time"

// ExitReason names the rule that closed a position.
type ExitReason string

const (
	ExitTakeProfit   ExitReason = "take_profit"
	ExitStopLoss     ExitReason = "stop_loss"
	ExitTrailingStop ExitReason = "trailing_stop"
	ExitProfitLock   ExitReason = "profit_lock"
	ExitMaxHold      ExitReason = "max_hold_expired"
	ExitManual       ExitReason = "manual"
)

// Position is the single open position of a run. Mutated bar-by-bar by the
// lifecycle manager until an exit rule fires.
type Position struct {
	Direction        Direction
	EntryPrice       float64
	EntryTime        time.Time
	Size             float64
	StopLoss         float64
	TakeProfit       float64
	TrailingDistance float64 // absolute price distance, derived from entry
	TrailingStop     float64 // active trailing stop level, 0 until armed
	PeakPrice        float64 // max favorable excursion
	ProfitLockArmed  bool
	BarsHeld         int
}

// ClosedTrade is an immutable record of a completed position, appended to
// the run's trade log.
type ClosedTrade struct {
	Direction  Direction  `json:"direction"`
	EntryTime  time.Time  `json:"entry_time"`
	EntryPrice float64    `json:"entry_price"`
	ExitTime   time.Time  `json:"exit_time"`
	ExitPrice  float64    `json:"exit_price"`
	ExitReason ExitReason `json:"exit_reason"`
	ReturnPct  float64    `json:"return_pct"`
}
