package server

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"portfolio-observer/src/models"
)

func recordCodes(records []models.MAlertRecord) []string {
	codes := make([]string, 0, len(records))
	for _, r := range records {
		codes = append(codes, r.Code)
	}
	return codes
}

func samplePayload() models.MLatestAlerts {
	return models.MLatestAlerts{
		Type: "UPDATE",
		Custom: []models.MAlertRecord{
			{Code: "CBA", Intent: models.IntentTarget},
		},
		Global: []models.MAlertRecord{
			{Code: "BHP", Intent: models.IntentMoverUp},
			{Code: "FMG", Intent: models.IntentMoverDown},
		},
		Badge:      models.MBadgeCounts{Custom: 1, Total: 3},
		BadgeState: models.BadgeVisibleCount,
		Timestamp:  1756512000,
	}
}

// -----------------------------------------------------------------------------

func TestScopePayloadAllPassesThrough(t *testing.T) {
	payload := samplePayload()
	out := scopePayload(payload, models.BadgeScopeAll)

	assert.Equal(t, payload, out)
	assert.Len(t, out.Global, 2)
}

func TestScopePayloadCustomDropsGlobal(t *testing.T) {
	out := scopePayload(samplePayload(), models.BadgeScopeCustom)

	assert.Empty(t, out.Global)
	assert.Equal(t, []string{"CBA"}, recordCodes(out.Custom))

	// Badge counts are scope-agnostic and pass through unchanged
	assert.Equal(t, 1, out.Badge.Custom)
	assert.Equal(t, 3, out.Badge.Total)
}

func TestScopePayloadNavigateNeverTrimmed(t *testing.T) {
	payload := models.MLatestAlerts{Type: "NAVIGATE", Code: "BHP"}
	out := scopePayload(payload, models.BadgeScopeCustom)

	assert.Equal(t, "NAVIGATE", out.Type)
	assert.Equal(t, "BHP", out.Code)
}

func TestScopePayloadDoesNotMutateOriginal(t *testing.T) {
	payload := samplePayload()
	_ = scopePayload(payload, models.BadgeScopeCustom)

	assert.Len(t, payload.Global, 2, "caller's payload must keep its global list")
}
