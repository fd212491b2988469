package models

import "time"

// MInstrumentSnapshot represents one instrument's market state at a fetch cycle.
// Snapshots are immutable once constructed; the next fetch supersedes them.
// All alias resolution against feed payloads happens at the feed boundary, so
// the rest of the application only ever sees this shape.
type MInstrumentSnapshot struct {
	Code          string    `json:"code"`
	Name          string    `json:"name,omitempty"`
	LivePrice     float64   `json:"live_price"`
	PreviousClose float64   `json:"previous_close"` // 0 = unknown
	ChangeAmount  float64   `json:"change_amount"`
	ChangePercent float64   `json:"change_percent"` // percent points, e.g. 2.5 = +2.5%
	Low52         float64   `json:"low_52,omitempty"`
	High52        float64   `json:"high_52,omitempty"`
	Sector        string    `json:"sector,omitempty"` // uppercase classification
	FetchedAt     int64     `json:"fetched_at"`
	CreatedAt     time.Time `json:"created_at"`
}

// -----------------------------------------------------------------------------

// DeriveChange fills ChangeAmount/ChangePercent from live and previous close
// when the feed did not supply them directly.
func (s *MInstrumentSnapshot) DeriveChange() {
	if s.PreviousClose <= 0 {
		return
	}
	s.ChangeAmount = s.LivePrice - s.PreviousClose
	s.ChangePercent = s.ChangeAmount / s.PreviousClose * 100.0
}
