package models

import (
	"encoding/json"
	"math"
)

// Badge scope preference values
const (
	BadgeScopeCustom = "custom"
	BadgeScopeAll    = "all"
)

// -----------------------------------------------------------------------------

// MDirectionRule holds the movement thresholds for one direction.
// A zero threshold means "unset": that criterion is not applied.
type MDirectionRule struct {
	PercentThreshold float64 `json:"percent_threshold" yaml:"percent_threshold"`
	DollarThreshold  float64 `json:"dollar_threshold" yaml:"dollar_threshold"`
}

// Unset reports whether neither threshold is configured.
func (r MDirectionRule) Unset() bool {
	return r.PercentThreshold <= 0 && r.DollarThreshold <= 0
}

// -----------------------------------------------------------------------------

// MRuleSet is the complete configuration controlling alert filtering and the
// badge display.
type MRuleSet struct {
	Up               MDirectionRule `json:"up" yaml:"up"`
	Down             MDirectionRule `json:"down" yaml:"down"`
	MinPrice         float64        `json:"min_price" yaml:"min_price"`
	HiloMinPrice     float64        `json:"hilo_min_price" yaml:"hilo_min_price"`
	MoversEnabled    bool           `json:"movers_enabled" yaml:"movers_enabled"`
	HiloEnabled      bool           `json:"hilo_enabled" yaml:"hilo_enabled"`
	PersonalEnabled  bool           `json:"personal_enabled" yaml:"personal_enabled"`
	SectorFilter     MSectorFilter  `json:"sector_filter" yaml:"sector_filter"`
	ExcludePortfolio bool           `json:"exclude_portfolio" yaml:"exclude_portfolio"`
	BadgeScope       string         `json:"badge_scope" yaml:"badge_scope"`
	ShowBadge        bool           `json:"show_badge" yaml:"show_badge"`
}

// -----------------------------------------------------------------------------

// DefaultRuleSet returns the configuration used before a user has saved any.
func DefaultRuleSet() MRuleSet {
	return MRuleSet{
		MoversEnabled:   true,
		HiloEnabled:     true,
		PersonalEnabled: true,
		SectorFilter:    AllSectors(),
		BadgeScope:      BadgeScopeAll,
		ShowBadge:       true,
	}
}

// -----------------------------------------------------------------------------

// AllCategoriesDisabled reports whether every monitor category is off.
func (r MRuleSet) AllCategoriesDisabled() bool {
	return !r.MoversEnabled && !r.HiloEnabled && !r.PersonalEnabled
}

// -----------------------------------------------------------------------------

// Normalize coerces malformed numeric inputs to "unset" instead of rejecting
// them: negative or NaN thresholds and floors become zero, and an unknown badge
// scope falls back to "all".
func (r *MRuleSet) Normalize() {
	r.Up.PercentThreshold = coerceThreshold(r.Up.PercentThreshold)
	r.Up.DollarThreshold = coerceThreshold(r.Up.DollarThreshold)
	r.Down.PercentThreshold = coerceThreshold(r.Down.PercentThreshold)
	r.Down.DollarThreshold = coerceThreshold(r.Down.DollarThreshold)
	r.MinPrice = coerceThreshold(r.MinPrice)
	r.HiloMinPrice = coerceThreshold(r.HiloMinPrice)
	if r.BadgeScope != BadgeScopeCustom && r.BadgeScope != BadgeScopeAll {
		r.BadgeScope = BadgeScopeAll
	}
}

func coerceThreshold(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}

// -----------------------------------------------------------------------------

// MRulePatch is a partial rule update: only fields present in the payload
// overwrite the current value. Direction rules are replaced whole when
// present.
//
// SectorFilter is kept raw because a literal null is a meaningful value
// ("all sectors"), not an absent key: a pointer field would come back nil for
// both and the null could never be applied. An empty raw message means the
// key was absent.
type MRulePatch struct {
	Up               *MDirectionRule `json:"up,omitempty"`
	Down             *MDirectionRule `json:"down,omitempty"`
	MinPrice         *float64        `json:"min_price,omitempty"`
	HiloMinPrice     *float64        `json:"hilo_min_price,omitempty"`
	MoversEnabled    *bool           `json:"movers_enabled,omitempty"`
	HiloEnabled      *bool           `json:"hilo_enabled,omitempty"`
	PersonalEnabled  *bool           `json:"personal_enabled,omitempty"`
	SectorFilter     json.RawMessage `json:"sector_filter,omitempty"`
	ExcludePortfolio *bool           `json:"exclude_portfolio,omitempty"`
	BadgeScope       *string         `json:"badge_scope,omitempty"`
	ShowBadge        *bool           `json:"show_badge,omitempty"`
}

// SetSectorFilter encodes a filter value into the patch.
func (p *MRulePatch) SetSectorFilter(f MSectorFilter) {
	raw, err := json.Marshal(f)
	if err != nil {
		return
	}
	p.SectorFilter = raw
}

// -----------------------------------------------------------------------------

// ApplyTo merges the patch into a rule set and normalizes the result.
func (p MRulePatch) ApplyTo(r *MRuleSet) {
	if p.Up != nil {
		r.Up = *p.Up
	}
	if p.Down != nil {
		r.Down = *p.Down
	}
	if p.MinPrice != nil {
		r.MinPrice = *p.MinPrice
	}
	if p.HiloMinPrice != nil {
		r.HiloMinPrice = *p.HiloMinPrice
	}
	if p.MoversEnabled != nil {
		r.MoversEnabled = *p.MoversEnabled
	}
	if p.HiloEnabled != nil {
		r.HiloEnabled = *p.HiloEnabled
	}
	if p.PersonalEnabled != nil {
		r.PersonalEnabled = *p.PersonalEnabled
	}
	if len(p.SectorFilter) > 0 {
		// The filter's own unmarshaler maps null to "all sectors". A payload
		// that fails to decode leaves the current filter untouched, matching
		// the coercion policy for malformed numeric inputs.
		var f MSectorFilter
		if err := json.Unmarshal(p.SectorFilter, &f); err == nil {
			r.SectorFilter = f
		}
	}
	if p.ExcludePortfolio != nil {
		r.ExcludePortfolio = *p.ExcludePortfolio
	}
	if p.BadgeScope != nil {
		r.BadgeScope = *p.BadgeScope
	}
	if p.ShowBadge != nil {
		r.ShowBadge = *p.ShowBadge
	}
	r.Normalize()
}
