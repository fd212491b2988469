package alerts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"portfolio-observer/src/models"
)

// -----------------------------------------------------------------------------

func TestConsolidateStacksMatches(t *testing.T) {
	cba := snap("CBA", "FINANCIALS", 101, 97, 90, 101)

	buckets := RawBuckets{
		HiloHigh: []models.MInstrumentSnapshot{cba},
		MoversUp: []models.MInstrumentSnapshot{cba},
		TargetHits: []TargetHit{{
			Target:   models.MTargetAlert{ID: 1, Code: "CBA", TargetPrice: 100, Direction: models.TargetAbove},
			Snapshot: cba,
		}},
	}

	out := Consolidate(buckets, nil)

	require.Len(t, out.Custom, 1, "target match routes the record to custom")
	assert.Empty(t, out.Global)

	rec := out.Custom[0]
	require.Len(t, rec.Matches, 3)
	assert.Equal(t, models.IntentHiloHigh, rec.Matches[0].Intent, "hilo stacks first")
	assert.Equal(t, models.IntentTarget, rec.Matches[1].Intent)
	assert.Equal(t, models.IntentMoverUp, rec.Matches[2].Intent)
	assert.Equal(t, models.IntentHiloHigh, rec.Intent, "record intent follows the lead match")
	assert.True(t, rec.IsCustom)
	assert.Equal(t, 100.0, rec.Matches[1].TargetPrice)
}

// -----------------------------------------------------------------------------

func TestConsolidateNormalizesCodes(t *testing.T) {
	suffixed := snap("BHP.AX", "MATERIALS", 44, 40, 0, 0)
	bare := suffixed
	bare.Code = "BHP"

	buckets := RawBuckets{
		MoversUp: []models.MInstrumentSnapshot{suffixed},
		HiloHigh: []models.MInstrumentSnapshot{bare},
	}

	out := Consolidate(buckets, nil)
	require.Len(t, out.Global, 1, "suffixed and bare forms merge into one record")
	assert.Equal(t, "BHP", out.Global[0].Code)
	assert.Len(t, out.Global[0].Matches, 2)
}

// -----------------------------------------------------------------------------

func TestConsolidatePinnedOrdering(t *testing.T) {
	buckets := RawBuckets{
		MoversUp: []models.MInstrumentSnapshot{
			snap("ANZ", "", 26, 25, 0, 0),
			snap("BHP", "", 44, 40, 0, 0),
			snap("CBA", "", 101, 97, 0, 0),
		},
	}

	out := Consolidate(buckets, map[string]bool{"CBA": true})
	require.Len(t, out.Global, 3)
	assert.Equal(t, "CBA", out.Global[0].Code, "pinned leads")
	// Stable within rank: discovery order preserved
	assert.Equal(t, "ANZ", out.Global[1].Code)
	assert.Equal(t, "BHP", out.Global[2].Code)
	assert.True(t, out.Global[0].IsPinned)
}

// -----------------------------------------------------------------------------

func TestConsolidateCustomOrdering(t *testing.T) {
	// WES: pinned, hilo + target (intent hilo-high)
	// ANZ: unpinned, pure target (intent target)
	wes := snap("WES", "", 70, 68, 50, 70)
	anz := snap("ANZ", "", 26, 25, 0, 0)

	buckets := RawBuckets{
		HiloHigh: []models.MInstrumentSnapshot{wes},
		TargetHits: []TargetHit{
			{Target: models.MTargetAlert{ID: 1, Code: "WES", TargetPrice: 69, Direction: models.TargetAbove}, Snapshot: wes},
			{Target: models.MTargetAlert{ID: 2, Code: "ANZ", TargetPrice: 25, Direction: models.TargetAbove}, Snapshot: anz},
		},
	}

	out := Consolidate(buckets, map[string]bool{"WES": true})
	require.Len(t, out.Custom, 2)
	// Target intent outranks pin state in the custom list
	assert.Equal(t, "ANZ", out.Custom[0].Code)
	assert.Equal(t, "WES", out.Custom[1].Code)
}

// -----------------------------------------------------------------------------

func TestConsolidateEmptyBuckets(t *testing.T) {
	out := Consolidate(RawBuckets{}, nil)
	assert.Empty(t, out.Custom)
	assert.Empty(t, out.Global)
}
