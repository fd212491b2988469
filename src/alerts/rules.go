package alerts

import (
	"sync"

	"portfolio-observer/src/models"
)

// -----------------------------------------------------------------------------
// RuleStore holds the user's alert configuration. Pure configuration holder:
// no business logic beyond numeric coercion on write. Reads during a debounced
// persistence window may observe either the old or new value; no transactional
// guarantee is provided or required.
// -----------------------------------------------------------------------------

type RuleStore struct {
	mu    sync.RWMutex
	rules models.MRuleSet
}

// -----------------------------------------------------------------------------

// NewRuleStore creates a store seeded with the given rule set.
func NewRuleStore(seed models.MRuleSet) *RuleStore {
	seed.Normalize()
	return &RuleStore{rules: seed}
}

// -----------------------------------------------------------------------------

// Rules returns a copy of the current rule set.
func (s *RuleStore) Rules() models.MRuleSet {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rules
}

// -----------------------------------------------------------------------------

// Apply merges a partial update: only keys present in the patch overwrite.
// Malformed numeric inputs are coerced to unset rather than rejected.
// Returns the resulting rule set.
func (s *RuleStore) Apply(patch models.MRulePatch) models.MRuleSet {
	s.mu.Lock()
	defer s.mu.Unlock()
	patch.ApplyTo(&s.rules)
	return s.rules
}

// -----------------------------------------------------------------------------

// Replace swaps the whole rule set (used when loading persisted rules).
func (s *RuleStore) Replace(rules models.MRuleSet) {
	rules.Normalize()
	s.mu.Lock()
	s.rules = rules
	s.mu.Unlock()
}
