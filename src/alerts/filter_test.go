package alerts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"portfolio-observer/src/models"
)

// -----------------------------------------------------------------------------

func TestNormalizeCode(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"BHP.AX", "BHP"},
		{"bhp.ax", "BHP"},
		{" cba ", "CBA"},
		{"VAS.AX.OLD", "VAS"},
		{"AUDUSD", "AUDUSD"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeCode(tt.in), "input %q", tt.in)
	}
}

// -----------------------------------------------------------------------------

func defaultRulesWithThreshold(pct float64) models.MRuleSet {
	rules := models.DefaultRuleSet()
	rules.Up = models.MDirectionRule{PercentThreshold: pct}
	rules.Down = models.MDirectionRule{PercentThreshold: pct}
	return rules
}

// -----------------------------------------------------------------------------

func TestFilterThresholds(t *testing.T) {
	raw := Aggregate(Pass{Snapshots: snapMap(
		snap("BHP", "MATERIALS", 41, 40, 0, 0),    // +2.5%
		snap("NAB", "FINANCIALS", 30.9, 30, 0, 0), // +3.0% exactly
		snap("FMG", "MATERIALS", 18, 19, 0, 0),    // -5.3%
	)})

	ctx := NewFilterContext(defaultRulesWithThreshold(3), nil)
	out := ApplyFilters(ctx, raw)

	assert.Equal(t, []string{"NAB"}, bucketCodes(out.MoversUp), "at-threshold passes, below fails")
	assert.Equal(t, []string{"FMG"}, bucketCodes(out.MoversDown))
}

// -----------------------------------------------------------------------------

func TestFilterDollarThresholdIsAlternative(t *testing.T) {
	// +2.5% but a $1.00 move; either criterion suffices
	raw := Aggregate(Pass{Snapshots: snapMap(snap("BHP", "MATERIALS", 41, 40, 0, 0))})

	rules := models.DefaultRuleSet()
	rules.Up = models.MDirectionRule{PercentThreshold: 3, DollarThreshold: 1}

	out := ApplyFilters(NewFilterContext(rules, nil), raw)
	assert.Equal(t, []string{"BHP"}, bucketCodes(out.MoversUp))
}

// -----------------------------------------------------------------------------

func TestFilterUnsetThresholdPassesEverything(t *testing.T) {
	raw := Aggregate(Pass{Snapshots: snapMap(snap("BHP", "MATERIALS", 40.01, 40, 0, 0))})

	out := ApplyFilters(NewFilterContext(models.DefaultRuleSet(), nil), raw)
	assert.Equal(t, []string{"BHP"}, bucketCodes(out.MoversUp))
}

// -----------------------------------------------------------------------------

func TestFilterDashboardExclusion(t *testing.T) {
	raw := Aggregate(Pass{
		Snapshots: snapMap(
			snap("XJO", "", 7900, 7800, 7000, 7900),   // index at 52w high, big move
			snap("AUDUSD", "", 0.70, 0.65, 0.6, 0.70), // currency
			snap("BHP", "MATERIALS", 44, 40, 0, 0),
		),
		Targets: []models.MTargetAlert{
			{ID: 1, Code: "XJO", TargetPrice: 7000, Direction: models.TargetAbove},
		},
	})

	// Even with the override on and the codes tracked, dashboard codes stay out
	rules := models.DefaultRuleSet()
	rules.ExcludePortfolio = true
	watchlist := []models.MWatchlistEntry{{Code: "XJO"}, {Code: "AUDUSD"}, {Code: "BHP"}}

	out := ApplyFilters(NewFilterContext(rules, watchlist), raw)

	assert.Equal(t, []string{"BHP"}, bucketCodes(out.MoversUp))
	assert.Empty(t, out.HiloHigh)
	assert.Empty(t, out.TargetHits, "dashboard exclusion applies to targets too")
}

// -----------------------------------------------------------------------------

func TestFilterSectorAllowList(t *testing.T) {
	raw := Aggregate(Pass{Snapshots: snapMap(
		snap("CBA", "FINANCIALS", 101, 97, 0, 0),
		snap("BHP", "MATERIALS", 44, 40, 0, 0),
		snap("XRO", "", 160, 148, 0, 0), // unclassified
	)})

	tests := []struct {
		name   string
		filter models.MSectorFilter
		want   []string
	}{
		{"all sectors", models.AllSectors(), []string{"BHP", "CBA", "XRO"}},
		{"explicit list", models.SelectedSectors("FINANCIALS"), []string{"CBA"}},
		{"lowercase input normalized", models.SelectedSectors("financials"), []string{"CBA"}},
		{"empty list passes nothing", models.SelectedSectors(), nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rules := models.DefaultRuleSet()
			rules.SectorFilter = tt.filter
			out := ApplyFilters(NewFilterContext(rules, nil), raw)
			assert.ElementsMatch(t, tt.want, bucketCodes(out.MoversUp))
		})
	}
}

// -----------------------------------------------------------------------------

func TestFilterOverrideBypassesSectorAndThreshold(t *testing.T) {
	raw := Aggregate(Pass{Snapshots: snapMap(
		snap("BHP", "MATERIALS", 41, 40, 0, 0), // +2.5%, wrong sector
	)})

	rules := defaultRulesWithThreshold(3)
	rules.SectorFilter = models.SelectedSectors("FINANCIALS")
	watchlist := []models.MWatchlistEntry{{Code: "BHP.AX"}}

	// Without the override flag: excluded
	out := ApplyFilters(NewFilterContext(rules, watchlist), raw)
	assert.Empty(t, out.MoversUp)

	// With it: included despite sector and threshold
	rules.ExcludePortfolio = true
	out = ApplyFilters(NewFilterContext(rules, watchlist), raw)
	assert.Equal(t, []string{"BHP"}, bucketCodes(out.MoversUp))
}

// -----------------------------------------------------------------------------

func TestFilterOverrideDoesNotBypassPriceFloor(t *testing.T) {
	raw := Aggregate(Pass{Snapshots: snapMap(
		snap("ZIP", "FINANCIALS", 0.55, 0.50, 0, 0),
	)})

	rules := models.DefaultRuleSet()
	rules.MinPrice = 1.0
	rules.ExcludePortfolio = true
	watchlist := []models.MWatchlistEntry{{Code: "ZIP"}}

	out := ApplyFilters(NewFilterContext(rules, watchlist), raw)
	assert.Empty(t, out.MoversUp, "price floor applies even under the override")
}

// -----------------------------------------------------------------------------

func TestFilterTargetsExemptFromSectorAndFloors(t *testing.T) {
	raw := Aggregate(Pass{
		Snapshots: snapMap(snap("ZIP", "FINANCIALS", 0.55, 0.50, 0, 0)),
		Targets: []models.MTargetAlert{
			{ID: 1, Code: "ZIP", TargetPrice: 0.50, Direction: models.TargetAbove},
		},
	})

	rules := defaultRulesWithThreshold(50)
	rules.SectorFilter = models.SelectedSectors("MATERIALS")
	rules.MinPrice = 1.0
	rules.HiloMinPrice = 1.0

	out := ApplyFilters(NewFilterContext(rules, nil), raw)
	require.Len(t, out.TargetHits, 1, "targets bypass sector, threshold and floors")
}

// -----------------------------------------------------------------------------

func TestFilterDisabledCategories(t *testing.T) {
	raw := Aggregate(Pass{
		Snapshots: snapMap(snap("CBA", "FINANCIALS", 101, 97, 90, 101)),
		Targets: []models.MTargetAlert{
			{ID: 1, Code: "CBA", TargetPrice: 100, Direction: models.TargetAbove},
		},
	})

	rules := models.DefaultRuleSet()
	rules.MoversEnabled = false
	rules.HiloEnabled = false
	rules.PersonalEnabled = false

	out := ApplyFilters(NewFilterContext(rules, nil), raw)
	assert.Empty(t, out.MoversUp)
	assert.Empty(t, out.MoversDown)
	assert.Empty(t, out.HiloHigh)
	assert.Empty(t, out.HiloLow)
	assert.Empty(t, out.TargetHits)
}

// -----------------------------------------------------------------------------

func TestFilterHiloUsesOwnFloor(t *testing.T) {
	raw := Aggregate(Pass{Snapshots: snapMap(
		snap("ZIP", "FINANCIALS", 0.55, 0.50, 0.20, 0.55),
	)})

	rules := models.DefaultRuleSet()
	rules.MinPrice = 0.1     // mover floor passes
	rules.HiloMinPrice = 1.0 // hilo floor does not

	out := ApplyFilters(NewFilterContext(rules, nil), raw)
	assert.Equal(t, []string{"ZIP"}, bucketCodes(out.MoversUp))
	assert.Empty(t, out.HiloHigh)
}
