package alerts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"portfolio-observer/src/models"
)

// -----------------------------------------------------------------------------

func consolidated(custom, global int) ConsolidatedAlerts {
	var out ConsolidatedAlerts
	for i := 0; i < custom; i++ {
		out.Custom = append(out.Custom, models.MAlertRecord{Code: "C", IsCustom: true})
	}
	for i := 0; i < global; i++ {
		out.Global = append(out.Global, models.MAlertRecord{Code: "G"})
	}
	return out
}

// -----------------------------------------------------------------------------

func TestBadgeCountsTotalCoversCustom(t *testing.T) {
	b := NewBadgeCounter()
	counts := b.Update(consolidated(2, 3))

	assert.Equal(t, 2, counts.Custom)
	assert.Equal(t, 5, counts.Total)
	assert.GreaterOrEqual(t, counts.Total, counts.Custom)
}

// -----------------------------------------------------------------------------

func TestBadgeMarkViewedScopes(t *testing.T) {
	b := NewBadgeCounter()
	b.Update(consolidated(2, 3))

	// Viewing custom leaves the global remainder in the total
	counts := b.MarkViewed(models.BadgeScopeCustom)
	assert.Equal(t, 0, counts.Custom)
	assert.Equal(t, 3, counts.Total)

	// Viewing all clears both
	counts = b.MarkViewed(models.BadgeScopeAll)
	assert.Equal(t, 0, counts.Custom)
	assert.Equal(t, 0, counts.Total)
}

// -----------------------------------------------------------------------------

func TestBadgeWatermarkSurvivesShrinkingCounts(t *testing.T) {
	b := NewBadgeCounter()
	b.Update(consolidated(3, 5))
	b.MarkViewed(models.BadgeScopeAll)

	// Fewer records than the watermark: counts clamp at zero, never negative
	counts := b.Update(consolidated(1, 2))
	assert.Equal(t, 0, counts.Custom)
	assert.Equal(t, 0, counts.Total)

	// Growth past the watermark surfaces only the excess
	counts = b.Update(consolidated(4, 6))
	assert.Equal(t, 1, counts.Custom)
	assert.Equal(t, 2, counts.Total)
}

// -----------------------------------------------------------------------------

func TestBadgeObserverNotified(t *testing.T) {
	b := NewBadgeCounter()

	var seen []models.MBadgeCounts
	b.Subscribe(func(c models.MBadgeCounts) { seen = append(seen, c) })

	b.Update(consolidated(1, 1))
	b.Update(consolidated(2, 2))

	require.Len(t, seen, 2)
	assert.Equal(t, models.MBadgeCounts{Custom: 1, Total: 2}, seen[0])
	assert.Equal(t, models.MBadgeCounts{Custom: 2, Total: 4}, seen[1])
}

// -----------------------------------------------------------------------------

func TestBadgeStateMachine(t *testing.T) {
	rules := models.DefaultRuleSet()

	tests := []struct {
		name   string
		mutate func(*models.MRuleSet)
		counts ConsolidatedAlerts
		scope  string
		want   string
	}{
		{"visible with count", func(r *models.MRuleSet) {}, consolidated(0, 2), models.BadgeScopeAll, models.BadgeVisibleCount},
		{"visible zero", func(r *models.MRuleSet) {}, consolidated(0, 0), models.BadgeScopeAll, models.BadgeVisibleZero},
		{"show badge off hides", func(r *models.MRuleSet) { r.ShowBadge = false }, consolidated(0, 2), models.BadgeScopeAll, models.BadgeHidden},
		{"all categories off hides", func(r *models.MRuleSet) {
			r.MoversEnabled = false
			r.HiloEnabled = false
			r.PersonalEnabled = false
		}, consolidated(0, 2), models.BadgeScopeAll, models.BadgeHidden},
		{"custom scope shows zero when only global fires", func(r *models.MRuleSet) { r.BadgeScope = models.BadgeScopeCustom }, consolidated(0, 2), models.BadgeScopeCustom, models.BadgeVisibleZero},
		{"custom scope shows count on custom hits", func(r *models.MRuleSet) { r.BadgeScope = models.BadgeScopeCustom }, consolidated(1, 2), models.BadgeScopeCustom, models.BadgeVisibleCount},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewBadgeCounter()
			b.Update(tt.counts)
			r := rules
			tt.mutate(&r)
			assert.Equal(t, tt.want, b.State(r))
		})
	}
}
