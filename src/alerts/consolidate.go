package alerts

import (
	"sort"

	"portfolio-observer/src/models"
)

// -----------------------------------------------------------------------------
// Consolidation: group all category hits by code so an instrument that is,
// say, both a 52-week high and a target hit is shown once with stacked
// reasons. Matches are ordered hilo-first, then target/mover.
// -----------------------------------------------------------------------------

// ConsolidatedAlerts is the pipeline output split by scope. Custom carries
// records with at least one target match; Global carries the rest.
type ConsolidatedAlerts struct {
	Custom []models.MAlertRecord
	Global []models.MAlertRecord
}

// -----------------------------------------------------------------------------

// Consolidate merges the filtered buckets into per-code records. pinned maps
// normalized codes to the user's pin flag.
//
// Ordering: pinned records sort before unpinned; within the custom list,
// target-intent records sort before all others regardless of pin state.
// Both sorts are stable, so equal-rank records keep discovery order.
func Consolidate(buckets RawBuckets, pinned map[string]bool) ConsolidatedAlerts {
	byCode := make(map[string]*models.MAlertRecord)
	var order []string

	record := func(snap models.MInstrumentSnapshot) *models.MAlertRecord {
		code := NormalizeCode(snap.Code)
		if rec, ok := byCode[code]; ok {
			return rec
		}
		rec := &models.MAlertRecord{
			Code:          code,
			Name:          snap.Name,
			LivePrice:     snap.LivePrice,
			ChangeAmount:  snap.ChangeAmount,
			ChangePercent: snap.ChangePercent,
			IsPinned:      pinned[code],
		}
		byCode[code] = rec
		order = append(order, code)
		return rec
	}

	// Hilo first: their matches stack ahead of target/mover reasons.
	for _, snap := range buckets.HiloHigh {
		rec := record(snap)
		rec.Matches = append(rec.Matches, models.MAlertMatch{Intent: models.IntentHiloHigh})
	}
	for _, snap := range buckets.HiloLow {
		rec := record(snap)
		rec.Matches = append(rec.Matches, models.MAlertMatch{Intent: models.IntentHiloLow})
	}
	for _, hit := range buckets.TargetHits {
		rec := record(hit.Snapshot)
		rec.Matches = append(rec.Matches, models.MAlertMatch{
			Intent:      models.IntentTarget,
			TargetPrice: hit.Target.TargetPrice,
			Direction:   hit.Target.Direction,
		})
		rec.IsCustom = true
	}
	for _, snap := range buckets.MoversUp {
		rec := record(snap)
		rec.Matches = append(rec.Matches, models.MAlertMatch{Intent: models.IntentMoverUp})
	}
	for _, snap := range buckets.MoversDown {
		rec := record(snap)
		rec.Matches = append(rec.Matches, models.MAlertMatch{Intent: models.IntentMoverDown})
	}

	var out ConsolidatedAlerts
	for _, code := range order {
		rec := byCode[code]
		rec.Intent = rec.Matches[0].Intent
		if rec.IsCustom {
			out.Custom = append(out.Custom, *rec)
		} else {
			out.Global = append(out.Global, *rec)
		}
	}

	// Pinned first, stable within rank.
	sort.SliceStable(out.Global, func(i, j int) bool {
		return out.Global[i].IsPinned && !out.Global[j].IsPinned
	})

	// Custom list: target-intent records lead regardless of pin state, then
	// pinned before unpinned.
	sort.SliceStable(out.Custom, func(i, j int) bool {
		ti, tj := out.Custom[i].Intent == models.IntentTarget, out.Custom[j].Intent == models.IntentTarget
		if ti != tj {
			return ti
		}
		return out.Custom[i].IsPinned && !out.Custom[j].IsPinned
	})

	return out
}
