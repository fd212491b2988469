package alerts

import (
	"sort"

	"portfolio-observer/src/models"
)

// -----------------------------------------------------------------------------
// Alert source aggregation: a pure function from one pass of snapshot and
// target data to five raw candidate buckets. No side effects, no network
// calls; thresholding and sector rules are applied later by the filter
// pipeline.
// -----------------------------------------------------------------------------

// Pass is the input to one aggregation cycle.
type Pass struct {
	Snapshots map[string]models.MInstrumentSnapshot
	Targets   []models.MTargetAlert
}

// -----------------------------------------------------------------------------

// TargetHit pairs a fired target with the snapshot that satisfied it.
type TargetHit struct {
	Target   models.MTargetAlert
	Snapshot models.MInstrumentSnapshot
}

// -----------------------------------------------------------------------------

// RawBuckets holds the candidate alerts for one pass, before filtering.
type RawBuckets struct {
	TargetHits []TargetHit
	MoversUp   []models.MInstrumentSnapshot
	MoversDown []models.MInstrumentSnapshot
	HiloHigh   []models.MInstrumentSnapshot
	HiloLow    []models.MInstrumentSnapshot
}

// -----------------------------------------------------------------------------

// Aggregate produces the raw buckets for a pass. Iteration is by sorted code
// so the output order is deterministic for identical inputs.
//
// Target evaluation is stateless: a target fires whenever its condition holds
// on the current snapshot, not as a one-time edge trigger. Targets referencing
// codes absent from the snapshot set are silently dropped. Instruments without
// 52-week bounds are excluded from the hilo buckets, never treated as a match.
func Aggregate(p Pass) RawBuckets {
	var out RawBuckets

	codes := make([]string, 0, len(p.Snapshots))
	for code := range p.Snapshots {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	for _, code := range codes {
		snap := p.Snapshots[code]

		switch {
		case snap.ChangePercent > 0:
			out.MoversUp = append(out.MoversUp, snap)
		case snap.ChangePercent < 0:
			out.MoversDown = append(out.MoversDown, snap)
		}

		if snap.High52 > 0 && snap.LivePrice >= snap.High52 {
			out.HiloHigh = append(out.HiloHigh, snap)
		}
		if snap.Low52 > 0 && snap.LivePrice <= snap.Low52 {
			out.HiloLow = append(out.HiloLow, snap)
		}
	}

	for _, target := range p.Targets {
		if !target.Valid() {
			continue
		}
		snap, ok := p.Snapshots[NormalizeCode(target.Code)]
		if !ok {
			continue
		}
		if target.Satisfied(snap.LivePrice) {
			out.TargetHits = append(out.TargetHits, TargetHit{Target: target, Snapshot: snap})
		}
	}

	return out
}
