package models

// Alert intents, in display priority order within a consolidated record:
// hilo reasons stack first, then target/mover.
const (
	IntentTarget    = "target"
	IntentHiloHigh  = "hilo-high"
	IntentHiloLow   = "hilo-low"
	IntentMoverUp   = "mover-up"
	IntentMoverDown = "mover-down"
)

// -----------------------------------------------------------------------------

// MAlertMatch is one underlying reason inside a consolidated record.
type MAlertMatch struct {
	Intent      string  `json:"intent"`
	TargetPrice float64 `json:"target_price,omitempty"` // set for target intent only
	Direction   string  `json:"direction,omitempty"`    // set for target intent only
}

// -----------------------------------------------------------------------------

// MAlertRecord is the unit emitted by the pipeline: one instrument with all of
// its alert reasons for the current pass. Recomputed every pass, never
// persisted.
type MAlertRecord struct {
	Code          string        `json:"code"`
	Name          string        `json:"name,omitempty"`
	LivePrice     float64       `json:"live_price"`
	ChangeAmount  float64       `json:"change_amount"`
	ChangePercent float64       `json:"change_percent"`
	Intent        string        `json:"intent"` // primary intent, Matches[0]
	Matches       []MAlertMatch `json:"matches"`
	IsPinned      bool          `json:"is_pinned"`
	IsCustom      bool          `json:"is_custom"` // carries at least one target match
}

// -----------------------------------------------------------------------------

// HasIntent reports whether any match carries the given intent.
func (r MAlertRecord) HasIntent(intent string) bool {
	for _, m := range r.Matches {
		if m.Intent == intent {
			return true
		}
	}
	return false
}

// -----------------------------------------------------------------------------

// MBadgeCounts is the pair of scalars driving the badge display.
type MBadgeCounts struct {
	Custom int `json:"custom"`
	Total  int `json:"total"`
}

// Badge display states. The machine re-evaluates on every data or preference
// change; there is no terminal state.
const (
	BadgeHidden       = "hidden"
	BadgeVisibleZero  = "visible-zero"
	BadgeVisibleCount = "visible-with-count"
)
