package models

import "time"

// Direction is the side a signal points to.
type Direction string

const (
	DirectionLong  Direction = "long"
	DirectionShort Direction = "short"
	DirectionNone  Direction = "none"
)

// CloudState is the fused ribbon envelope at one base-resolution timestamp.
// Ratio is the (optionally weighted) fraction of fused lines below price:
// 0 means every line sits above price, 1 means every line sits below it.
// Strength maps Ratio onto [0,100] after smoothing.
type CloudState struct {
	Timestamp time.Time
	Upper     float64
	Lower     float64
	Ratio     float64
	Strength  float64
	Defined   bool
}

// SignalEvent is the confluence engine's verdict for one evaluated bar.
// Never mutated after creation.
type SignalEvent struct {
	Timestamp    time.Time
	Direction    Direction
	LongScore    float64
	ShortScore   float64
	QualityScore float64
	Filters      []string
}
