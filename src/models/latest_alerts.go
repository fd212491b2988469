package models

// -----------------------------------------------------------------------------
// Server state structure pushed to websocket clients.
// -----------------------------------------------------------------------------

type MLatestAlerts struct {
	Type       string         `json:"type"` // "INITIAL", "UPDATE" or "NAVIGATE"
	Custom     []MAlertRecord `json:"custom"`
	Global     []MAlertRecord `json:"global"`
	Badge      MBadgeCounts   `json:"badge"`
	BadgeState string         `json:"badge_state"`
	Code       string         `json:"code,omitempty"` // NAVIGATE deep-link target
	Timestamp  int64          `json:"timestamp"`
}

// -----------------------------------------------------------------------------
// MClientCommand for incoming websocket client messages.
// -----------------------------------------------------------------------------

type MClientCommand struct {
	Command string `json:"command"` // "subscribe", "viewed" or "activate"
	Scope   string `json:"scope"`   // badge scope for subscribe/viewed
	Code    string `json:"code"`    // instrument code for activate
}
