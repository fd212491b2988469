package models

import "time"

// MWatchlistEntry is one instrument the user tracks. Sector and name are
// user-maintained metadata merged into snapshots at the feed boundary; Pinned
// promotes the instrument's alerts ahead of unpinned ones.
type MWatchlistEntry struct {
	Code      string    `json:"code"`
	Name      string    `json:"name,omitempty"`
	Sector    string    `json:"sector,omitempty"`
	Pinned    bool      `json:"pinned"`
	CreatedAt time.Time `json:"created_at"`
}
