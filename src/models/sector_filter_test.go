package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gopkg.in/yaml.v3"
)

// -----------------------------------------------------------------------------

func TestSectorFilterAllows(t *testing.T) {
	assert.True(t, AllSectors().Allows("MATERIALS"))
	assert.True(t, AllSectors().Allows(""))

	list := SelectedSectors("Financials", " energy ")
	assert.True(t, list.Allows("FINANCIALS"))
	assert.True(t, list.Allows("financials"))
	assert.True(t, list.Allows("ENERGY"))
	assert.False(t, list.Allows("MATERIALS"))
	assert.False(t, list.Allows(""))

	empty := SelectedSectors()
	assert.False(t, empty.Allows("MATERIALS"), "empty allow-list passes nothing")
	assert.False(t, empty.IsAll())
}

// -----------------------------------------------------------------------------

func TestSectorFilterJSONRoundTrip(t *testing.T) {
	tests := []struct {
		name   string
		filter MSectorFilter
		json   string
	}{
		{"all encodes as null", AllSectors(), `null`},
		{"list encodes as array", SelectedSectors("ENERGY", "FINANCIALS"), `["ENERGY","FINANCIALS"]`},
		{"empty list stays an array", SelectedSectors(), `[]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(tt.filter)
			require.NoError(t, err)
			assert.JSONEq(t, tt.json, string(data))

			var back MSectorFilter
			require.NoError(t, json.Unmarshal(data, &back))
			assert.Equal(t, tt.filter.IsAll(), back.IsAll())
			assert.Equal(t, tt.filter.Sectors(), back.Sectors())
		})
	}
}

// -----------------------------------------------------------------------------

func TestSectorFilterJSONInsideStruct(t *testing.T) {
	var rules MRuleSet
	require.NoError(t, json.Unmarshal([]byte(`{"sector_filter": null}`), &rules))
	assert.True(t, rules.SectorFilter.IsAll())

	require.NoError(t, json.Unmarshal([]byte(`{"sector_filter": []}`), &rules))
	assert.False(t, rules.SectorFilter.IsAll())
	assert.Empty(t, rules.SectorFilter.Sectors())

	require.NoError(t, json.Unmarshal([]byte(`{"sector_filter": ["materials"]}`), &rules))
	assert.Equal(t, []string{"MATERIALS"}, rules.SectorFilter.Sectors())
}

// -----------------------------------------------------------------------------

func TestSectorFilterYAML(t *testing.T) {
	var f MSectorFilter
	require.NoError(t, yaml.Unmarshal([]byte(`~`), &f))
	assert.True(t, f.IsAll())

	require.NoError(t, yaml.Unmarshal([]byte(`["energy"]`), &f))
	assert.Equal(t, []string{"ENERGY"}, f.Sectors())

	require.NoError(t, yaml.Unmarshal([]byte(`[]`), &f))
	assert.False(t, f.IsAll())
	assert.Empty(t, f.Sectors())
}
