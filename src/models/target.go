package models

import "time"

// Target alert directions
const (
	TargetAbove = "above"
	TargetBelow = "below"
)

// -----------------------------------------------------------------------------

// MTargetAlert is a user-authored watch condition on one instrument.
// Evaluation is stateless: the alert fires on every pass while the condition
// holds, there is no one-shot edge tracking.
type MTargetAlert struct {
	ID          int64     `json:"id"`
	Code        string    `json:"code"`
	TargetPrice float64   `json:"target_price"`
	Direction   string    `json:"direction"` // "above" or "below"
	CreatedAt   time.Time `json:"created_at"`
}

// -----------------------------------------------------------------------------

// Satisfied reports whether the live price currently meets the condition.
func (t MTargetAlert) Satisfied(livePrice float64) bool {
	switch t.Direction {
	case TargetAbove:
		return livePrice >= t.TargetPrice
	case TargetBelow:
		return livePrice <= t.TargetPrice
	}
	return false
}

// -----------------------------------------------------------------------------

// Valid reports whether the alert is well formed enough to evaluate.
func (t MTargetAlert) Valid() bool {
	if t.Code == "" || t.TargetPrice <= 0 {
		return false
	}
	return t.Direction == TargetAbove || t.Direction == TargetBelow
}
