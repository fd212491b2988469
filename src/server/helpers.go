package server

import (
	"portfolio-observer/src/models"
)

// -----------------------------------------------------------------------------

// scopePayload trims a payload to one badge scope. The custom scope drops the
// global list entirely; the all scope passes through untouched. NAVIGATE
// payloads carry no lists and are never trimmed.
func scopePayload(payload models.MLatestAlerts, scope string) models.MLatestAlerts {
	if payload.Type == "NAVIGATE" || scope != models.BadgeScopeCustom {
		return payload
	}

	payload.Global = []models.MAlertRecord{}
	return payload
}
