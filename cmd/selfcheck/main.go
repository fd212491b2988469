package main

import (
	"fmt"
	"os"

	"portfolio-observer/src/alerts"
	"portfolio-observer/src/models"
)

// -----------------------------------------------------------------------------
// Offline pipeline check: runs the aggregate/filter/consolidate/badge chain
// over canned snapshots and verifies the expected outcomes. Exits non-zero on
// the first failure. No network, no database.
// -----------------------------------------------------------------------------

var failures int

func check(name string, ok bool, detail string) {
	if ok {
		fmt.Printf("PASS  %s\n", name)
		return
	}
	failures++
	fmt.Printf("FAIL  %s: %s\n", name, detail)
}

// -----------------------------------------------------------------------------

func snapshots() map[string]models.MInstrumentSnapshot {
	mk := func(code, sector string, live, prev, low, high float64) models.MInstrumentSnapshot {
		s := models.MInstrumentSnapshot{
			Code: code, Sector: sector,
			LivePrice: live, PreviousClose: prev,
			Low52: low, High52: high,
		}
		s.DeriveChange()
		return s
	}

	return map[string]models.MInstrumentSnapshot{
		"BHP": mk("BHP", "MATERIALS", 41.00, 40.00, 35.00, 50.00),  // +2.5%
		"CBA": mk("CBA", "FINANCIALS", 101.0, 97.00, 90.00, 101.0), // +4.1%, at 52w high
		"FMG": mk("FMG", "MATERIALS", 18.00, 19.00, 17.50, 26.00),  // -5.3%
		"NAB": mk("NAB", "FINANCIALS", 30.90, 30.00, 25.00, 34.00), // +3.0%
		"XJO": mk("XJO", "", 7900.0, 7800.0, 0, 0),                 // dashboard, never alerts
	}
}

// -----------------------------------------------------------------------------

func main() {
	snaps := snapshots()

	rules := models.DefaultRuleSet()
	rules.Up = models.MDirectionRule{PercentThreshold: 3}
	rules.Down = models.MDirectionRule{PercentThreshold: 3}

	watchlist := []models.MWatchlistEntry{
		{Code: "BHP", Sector: "MATERIALS", Pinned: true},
	}
	targets := []models.MTargetAlert{
		{ID: 1, Code: "CBA.AX", TargetPrice: 100, Direction: models.TargetAbove},
	}

	raw := alerts.Aggregate(alerts.Pass{Snapshots: snaps, Targets: targets})

	check("aggregate buckets movers by sign",
		len(raw.MoversUp) == 4 && len(raw.MoversDown) == 1,
		fmt.Sprintf("got %d up / %d down", len(raw.MoversUp), len(raw.MoversDown)))

	check("aggregate matches target through suffixed code",
		len(raw.TargetHits) == 1 && raw.TargetHits[0].Snapshot.Code == "CBA",
		fmt.Sprintf("got %d hits", len(raw.TargetHits)))

	check("aggregate flags 52-week high",
		len(raw.HiloHigh) == 1 && raw.HiloHigh[0].Code == "CBA",
		fmt.Sprintf("got %d hilo-high", len(raw.HiloHigh)))

	// --- threshold filtering ---------------------------------------------

	ctx := alerts.NewFilterContext(rules, nil)
	filtered := alerts.ApplyFilters(ctx, raw)

	up := codes(filtered.MoversUp)
	check("sub-threshold mover excluded",
		!contains(up, "BHP"),
		fmt.Sprintf("BHP at +2.5%% should miss the 3%% bar, got %v", up))
	check("at-threshold mover included",
		contains(up, "NAB") && contains(up, "CBA"),
		fmt.Sprintf("got %v", up))
	check("dashboard code never alerts",
		!contains(up, "XJO"),
		fmt.Sprintf("got %v", up))

	// --- watchlist override ----------------------------------------------

	override := rules
	override.ExcludePortfolio = true
	ctx = alerts.NewFilterContext(override, watchlist)
	filtered = alerts.ApplyFilters(ctx, raw)

	check("override re-includes tracked sub-threshold mover",
		contains(codes(filtered.MoversUp), "BHP"),
		fmt.Sprintf("got %v", codes(filtered.MoversUp)))

	// --- sector filter ----------------------------------------------------

	sectored := rules
	sectored.SectorFilter = models.SelectedSectors("FINANCIALS")
	ctx = alerts.NewFilterContext(sectored, nil)
	filtered = alerts.ApplyFilters(ctx, raw)

	check("sector allow-list drops other sectors",
		!contains(codes(filtered.MoversDown), "FMG"),
		fmt.Sprintf("got %v", codes(filtered.MoversDown)))
	check("sector allow-list keeps listed sectors",
		contains(codes(filtered.MoversUp), "CBA"),
		fmt.Sprintf("got %v", codes(filtered.MoversUp)))

	// --- target direction -------------------------------------------------

	below := []models.MTargetAlert{{ID: 2, Code: "CBA", TargetPrice: 99, Direction: models.TargetBelow}}
	rawBelow := alerts.Aggregate(alerts.Pass{Snapshots: snaps, Targets: below})
	check("below target does not fire above price",
		len(rawBelow.TargetHits) == 0,
		fmt.Sprintf("got %d hits", len(rawBelow.TargetHits)))

	// --- consolidation ----------------------------------------------------

	ctx = alerts.NewFilterContext(rules, watchlist)
	filtered = alerts.ApplyFilters(ctx, raw)
	consolidated := alerts.Consolidate(filtered, map[string]bool{"BHP": true})

	var cba *models.MAlertRecord
	for i := range consolidated.Custom {
		if consolidated.Custom[i].Code == "CBA" {
			cba = &consolidated.Custom[i]
		}
	}
	check("one record per code with stacked matches",
		cba != nil && len(cba.Matches) == 3,
		fmt.Sprintf("CBA should stack hilo-high + target + mover-up, got %+v", cba))
	check("hilo outranks target for record intent",
		cba != nil && cba.Intent == models.IntentHiloHigh,
		fmt.Sprintf("got %+v", cba))
	check("target match marks record custom",
		cba != nil && cba.IsCustom,
		"CBA should be custom")
	check("custom list holds only target-bearing records",
		len(consolidated.Custom) == 1 && consolidated.Custom[0].Code == "CBA",
		fmt.Sprintf("got %d custom", len(consolidated.Custom)))

	// --- badge state machine ----------------------------------------------

	badge := alerts.NewBadgeCounter()
	counts := badge.Update(consolidated)
	check("badge total covers both scopes",
		counts.Total >= counts.Custom && counts.Custom == 1,
		fmt.Sprintf("got %+v", counts))
	check("badge visible with count", badge.State(rules) == models.BadgeVisibleCount, badge.State(rules))

	counts = badge.MarkViewed(models.BadgeScopeAll)
	check("viewed watermark zeroes counts",
		counts.Custom == 0 && counts.Total == 0,
		fmt.Sprintf("got %+v", counts))
	check("badge visible zero after viewing", badge.State(rules) == models.BadgeVisibleZero, badge.State(rules))

	allOff := rules
	allOff.MoversEnabled = false
	allOff.HiloEnabled = false
	allOff.PersonalEnabled = false
	check("badge hidden when every category is off",
		badge.State(allOff) == models.BadgeHidden, badge.State(allOff))

	// ----------------------------------------------------------------------

	if failures > 0 {
		fmt.Printf("\n%d check(s) failed\n", failures)
		os.Exit(1)
	}
	fmt.Println("\nall checks passed")
}

// -----------------------------------------------------------------------------

func codes(snaps []models.MInstrumentSnapshot) []string {
	out := make([]string, 0, len(snaps))
	for _, s := range snaps {
		out = append(out, s.Code)
	}
	return out
}

func contains(list []string, item string) bool {
	for _, s := range list {
		if s == item {
			return true
		}
	}
	return false
}
