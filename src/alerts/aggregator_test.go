package alerts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"portfolio-observer/src/models"
)

// -----------------------------------------------------------------------------

func snap(code, sector string, live, prev, low, high float64) models.MInstrumentSnapshot {
	s := models.MInstrumentSnapshot{
		Code:          code,
		Sector:        sector,
		LivePrice:     live,
		PreviousClose: prev,
		Low52:         low,
		High52:        high,
	}
	s.DeriveChange()
	return s
}

func snapMap(snaps ...models.MInstrumentSnapshot) map[string]models.MInstrumentSnapshot {
	m := make(map[string]models.MInstrumentSnapshot, len(snaps))
	for _, s := range snaps {
		m[s.Code] = s
	}
	return m
}

func bucketCodes(snaps []models.MInstrumentSnapshot) []string {
	out := make([]string, 0, len(snaps))
	for _, s := range snaps {
		out = append(out, s.Code)
	}
	return out
}

// -----------------------------------------------------------------------------

func TestAggregateMoverBuckets(t *testing.T) {
	raw := Aggregate(Pass{Snapshots: snapMap(
		snap("BHP", "MATERIALS", 41, 40, 0, 0),  // +2.5%
		snap("FMG", "MATERIALS", 18, 19, 0, 0),  // -5.3%
		snap("CSL", "HEALTHCARE", 50, 50, 0, 0), // flat
	)})

	assert.Equal(t, []string{"BHP"}, bucketCodes(raw.MoversUp))
	assert.Equal(t, []string{"FMG"}, bucketCodes(raw.MoversDown))
	assert.Empty(t, raw.HiloHigh)
	assert.Empty(t, raw.HiloLow)
}

// -----------------------------------------------------------------------------

func TestAggregateDeterministicOrder(t *testing.T) {
	snaps := snapMap(
		snap("WOW", "", 31, 30, 0, 0),
		snap("ANZ", "", 26, 25, 0, 0),
		snap("NAB", "", 31, 30, 0, 0),
	)

	first := Aggregate(Pass{Snapshots: snaps})
	for i := 0; i < 10; i++ {
		again := Aggregate(Pass{Snapshots: snaps})
		require.Equal(t, bucketCodes(first.MoversUp), bucketCodes(again.MoversUp))
	}
	// Sorted by code
	assert.Equal(t, []string{"ANZ", "NAB", "WOW"}, bucketCodes(first.MoversUp))
}

// -----------------------------------------------------------------------------

func TestAggregateHiloNeedsBounds(t *testing.T) {
	raw := Aggregate(Pass{Snapshots: snapMap(
		snap("CBA", "", 101, 97, 90, 101), // at high
		snap("FMG", "", 17.5, 18, 17.5, 26),
		snap("XRO", "", 150, 148, 0, 0), // no bounds published
	)})

	assert.Equal(t, []string{"CBA"}, bucketCodes(raw.HiloHigh))
	assert.Equal(t, []string{"FMG"}, bucketCodes(raw.HiloLow))
}

// -----------------------------------------------------------------------------

func TestAggregateTargets(t *testing.T) {
	snaps := snapMap(snap("CBA", "", 101, 97, 0, 0))

	tests := []struct {
		name   string
		target models.MTargetAlert
		hit    bool
	}{
		{"above satisfied at boundary", models.MTargetAlert{ID: 1, Code: "CBA", TargetPrice: 101, Direction: models.TargetAbove}, true},
		{"above satisfied beyond", models.MTargetAlert{ID: 2, Code: "CBA", TargetPrice: 100, Direction: models.TargetAbove}, true},
		{"above not reached", models.MTargetAlert{ID: 3, Code: "CBA", TargetPrice: 102, Direction: models.TargetAbove}, false},
		{"below not reached", models.MTargetAlert{ID: 4, Code: "CBA", TargetPrice: 99, Direction: models.TargetBelow}, false},
		{"suffixed code resolves", models.MTargetAlert{ID: 5, Code: "CBA.AX", TargetPrice: 100, Direction: models.TargetAbove}, true},
		{"unknown code dropped", models.MTargetAlert{ID: 6, Code: "BHP", TargetPrice: 1, Direction: models.TargetAbove}, false},
		{"invalid direction dropped", models.MTargetAlert{ID: 7, Code: "CBA", TargetPrice: 100, Direction: "sideways"}, false},
		{"non-positive price dropped", models.MTargetAlert{ID: 8, Code: "CBA", TargetPrice: 0, Direction: models.TargetAbove}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := Aggregate(Pass{Snapshots: snaps, Targets: []models.MTargetAlert{tt.target}})
			if tt.hit {
				require.Len(t, raw.TargetHits, 1)
				assert.Equal(t, tt.target.ID, raw.TargetHits[0].Target.ID)
				assert.Equal(t, "CBA", raw.TargetHits[0].Snapshot.Code)
			} else {
				assert.Empty(t, raw.TargetHits)
			}
		})
	}
}

// -----------------------------------------------------------------------------

// A target keeps firing on every pass while the condition holds.
func TestAggregateTargetRefires(t *testing.T) {
	snaps := snapMap(snap("CBA", "", 101, 97, 0, 0))
	target := models.MTargetAlert{ID: 1, Code: "CBA", TargetPrice: 100, Direction: models.TargetAbove}

	for pass := 0; pass < 3; pass++ {
		raw := Aggregate(Pass{Snapshots: snaps, Targets: []models.MTargetAlert{target}})
		require.Len(t, raw.TargetHits, 1, "pass %d", pass)
	}
}
