package models

import (
	"encoding/json"
	"strings"

	"gopkg.in/yaml.v3"
)

// -----------------------------------------------------------------------------
// MSectorFilter is a tagged variant: either "all sectors" or an explicit
// uppercase allow-list. The distinction matters: a null/absent value means
// unrestricted, an empty list passes nothing. Encoding it as a variant instead
// of a nullable slice keeps that rule from silently degrading to nil checks.
// -----------------------------------------------------------------------------

type MSectorFilter struct {
	all     bool
	sectors []string
}

// -----------------------------------------------------------------------------

// AllSectors returns the unrestricted filter.
func AllSectors() MSectorFilter {
	return MSectorFilter{all: true}
}

// -----------------------------------------------------------------------------

// SelectedSectors returns an explicit allow-list filter. Sector names are
// normalized to uppercase. An empty list is a valid filter that passes nothing.
func SelectedSectors(sectors ...string) MSectorFilter {
	normalized := make([]string, 0, len(sectors))
	for _, s := range sectors {
		normalized = append(normalized, strings.ToUpper(strings.TrimSpace(s)))
	}
	return MSectorFilter{sectors: normalized}
}

// -----------------------------------------------------------------------------

// IsAll reports whether the filter is unrestricted.
func (f MSectorFilter) IsAll() bool {
	return f.all
}

// -----------------------------------------------------------------------------

// Sectors returns a copy of the explicit allow-list (nil when unrestricted).
func (f MSectorFilter) Sectors() []string {
	if f.all {
		return nil
	}
	out := make([]string, len(f.sectors))
	copy(out, f.sectors)
	return out
}

// -----------------------------------------------------------------------------

// Allows reports whether the sector passes the filter.
func (f MSectorFilter) Allows(sector string) bool {
	if f.all {
		return true
	}
	sector = strings.ToUpper(strings.TrimSpace(sector))
	for _, s := range f.sectors {
		if s == sector {
			return true
		}
	}
	return false
}

// -----------------------------------------------------------------------------
// JSON round-trip: null <-> all sectors, array <-> explicit list.
// -----------------------------------------------------------------------------

func (f MSectorFilter) MarshalJSON() ([]byte, error) {
	if f.all {
		return []byte("null"), nil
	}
	if f.sectors == nil {
		return json.Marshal([]string{})
	}
	return json.Marshal(f.sectors)
}

// -----------------------------------------------------------------------------

func (f *MSectorFilter) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*f = AllSectors()
		return nil
	}
	var sectors []string
	if err := json.Unmarshal(data, &sectors); err != nil {
		return err
	}
	*f = SelectedSectors(sectors...)
	return nil
}

// -----------------------------------------------------------------------------
// YAML round-trip, same semantics as JSON.
// -----------------------------------------------------------------------------

func (f MSectorFilter) MarshalYAML() (interface{}, error) {
	if f.all {
		return nil, nil
	}
	if f.sectors == nil {
		return []string{}, nil
	}
	return f.sectors, nil
}

// -----------------------------------------------------------------------------

func (f *MSectorFilter) UnmarshalYAML(node *yaml.Node) error {
	if node.Tag == "!!null" {
		*f = AllSectors()
		return nil
	}
	var sectors []string
	if err := node.Decode(&sectors); err != nil {
		return err
	}
	*f = SelectedSectors(sectors...)
	return nil
}
