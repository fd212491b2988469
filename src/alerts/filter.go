package alerts

import (
	"math"
	"strings"

	"portfolio-observer/src/models"
)

// -----------------------------------------------------------------------------
// Filter pipeline. The stage order is fixed and load-bearing: the watchlist
// override bypasses sector and threshold filtering but never the dashboard
// code exclusion, which runs first. Filtering is deterministic for fixed
// inputs and never mutates the raw buckets.
// -----------------------------------------------------------------------------

// dashboardCodes are index, currency and commodity codes shown on the
// dashboard strip. They never produce alerts, override or not.
var dashboardCodes = map[string]struct{}{
	"XJO":    {},
	"XAO":    {},
	"XKO":    {},
	"XSO":    {},
	"AUDUSD": {},
	"AUDEUR": {},
	"AUDGBP": {},
	"GOLD":   {},
	"SILVER": {},
	"WTI":    {},
	"BRENT":  {},
	"BTCAUD": {},
}

// DashboardCodes returns the dashboard strip codes in stable order. The feed
// polls these alongside the watchlist even though they never alert.
func DashboardCodes() []string {
	return []string{
		"XJO", "XAO", "XKO", "XSO",
		"AUDUSD", "AUDEUR", "AUDGBP",
		"GOLD", "SILVER", "WTI", "BRENT", "BTCAUD",
	}
}

// -----------------------------------------------------------------------------

// NormalizeCode strips a trailing market suffix (e.g. "BHP.AX" -> "BHP") and
// uppercases the result.
func NormalizeCode(code string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	if i := strings.IndexByte(code, '.'); i > 0 {
		code = code[:i]
	}
	return code
}

// -----------------------------------------------------------------------------

// FilterContext carries the rule set and tracked-code state for one pass.
// It is built fresh per pass from the rule store and watchlist; the pipeline
// itself holds no ambient state.
type FilterContext struct {
	Rules   models.MRuleSet
	Tracked map[string]struct{} // normalized codes the user tracks
}

// NewFilterContext builds a context from a rule set and watchlist entries.
func NewFilterContext(rules models.MRuleSet, watchlist []models.MWatchlistEntry) FilterContext {
	tracked := make(map[string]struct{}, len(watchlist))
	for _, e := range watchlist {
		tracked[NormalizeCode(e.Code)] = struct{}{}
	}
	return FilterContext{Rules: rules, Tracked: tracked}
}

// -----------------------------------------------------------------------------

// overrideApplies reports whether the watchlist override exempts a code from
// sector and threshold filtering.
func (c FilterContext) overrideApplies(code string) bool {
	if !c.Rules.ExcludePortfolio {
		return false
	}
	_, ok := c.Tracked[NormalizeCode(code)]
	return ok
}

// -----------------------------------------------------------------------------

// ApplyFilters runs the pipeline over the raw buckets and returns new buckets.
// Disabled categories come back empty.
func ApplyFilters(ctx FilterContext, raw RawBuckets) RawBuckets {
	var out RawBuckets

	if ctx.Rules.PersonalEnabled {
		out.TargetHits = ctx.filterTargets(raw.TargetHits)
	}
	if ctx.Rules.MoversEnabled {
		out.MoversUp = ctx.filterMovers(raw.MoversUp, ctx.Rules.Up)
		out.MoversDown = ctx.filterMovers(raw.MoversDown, ctx.Rules.Down)
	}
	if ctx.Rules.HiloEnabled {
		out.HiloHigh = ctx.filterHilo(raw.HiloHigh)
		out.HiloLow = ctx.filterHilo(raw.HiloLow)
	}

	return out
}

// -----------------------------------------------------------------------------

// filterTargets applies only the dashboard exclusion. Personal targets are
// exempt from sector, threshold and floor rules: the user asked for them
// explicitly.
func (c FilterContext) filterTargets(hits []TargetHit) []TargetHit {
	var out []TargetHit
	for _, h := range hits {
		if _, excluded := dashboardCodes[NormalizeCode(h.Snapshot.Code)]; excluded {
			continue
		}
		out = append(out, h)
	}
	return out
}

// -----------------------------------------------------------------------------

// filterMovers runs the full pipeline for one mover direction:
// dashboard exclusion, sector allow-list, thresholds, minimum price floor.
func (c FilterContext) filterMovers(snaps []models.MInstrumentSnapshot, rule models.MDirectionRule) []models.MInstrumentSnapshot {
	var out []models.MInstrumentSnapshot
	for _, snap := range snaps {
		if _, excluded := dashboardCodes[NormalizeCode(snap.Code)]; excluded {
			continue
		}

		bypass := c.overrideApplies(snap.Code)

		if !bypass && !c.Rules.SectorFilter.Allows(snap.Sector) {
			continue
		}
		if !bypass && !passesThreshold(snap, rule) {
			continue
		}
		if c.Rules.MinPrice > 0 && snap.LivePrice < c.Rules.MinPrice {
			continue
		}
		out = append(out, snap)
	}
	return out
}

// -----------------------------------------------------------------------------

// filterHilo runs dashboard exclusion, sector allow-list and the hilo price
// floor. Thresholds do not apply to 52-week alerts.
func (c FilterContext) filterHilo(snaps []models.MInstrumentSnapshot) []models.MInstrumentSnapshot {
	var out []models.MInstrumentSnapshot
	for _, snap := range snaps {
		if _, excluded := dashboardCodes[NormalizeCode(snap.Code)]; excluded {
			continue
		}

		bypass := c.overrideApplies(snap.Code)

		if !bypass && !c.Rules.SectorFilter.Allows(snap.Sector) {
			continue
		}
		if c.Rules.HiloMinPrice > 0 && snap.LivePrice < c.Rules.HiloMinPrice {
			continue
		}
		out = append(out, snap)
	}
	return out
}

// -----------------------------------------------------------------------------

// passesThreshold checks the percent-OR-dollar movement criterion for one
// direction rule. When both thresholds are unset everything passes.
func passesThreshold(snap models.MInstrumentSnapshot, rule models.MDirectionRule) bool {
	if rule.Unset() {
		return true
	}
	if rule.PercentThreshold > 0 && math.Abs(snap.ChangePercent) >= rule.PercentThreshold {
		return true
	}
	if rule.DollarThreshold > 0 && math.Abs(snap.ChangeAmount) >= rule.DollarThreshold {
		return true
	}
	return false
}
