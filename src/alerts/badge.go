package alerts

import (
	"sync"

	"portfolio-observer/src/models"
)

// -----------------------------------------------------------------------------
// BadgeCounter reduces the consolidated output to the two scalars driving the
// UI badge, against per-scope "viewed" watermarks. Observers are explicit
// callback registrations, not a shared event bus.
// -----------------------------------------------------------------------------

type BadgeCounter struct {
	mu sync.Mutex

	rawCustom int
	rawGlobal int

	viewedCustom int // watermark: custom records already seen
	viewedGlobal int // watermark: global records already seen

	observers []func(models.MBadgeCounts)
}

// -----------------------------------------------------------------------------

func NewBadgeCounter() *BadgeCounter {
	return &BadgeCounter{}
}

// -----------------------------------------------------------------------------

// Subscribe registers a callback invoked with the fresh counts after every
// update. Registration is not removable; subscribers live as long as the
// counter.
func (b *BadgeCounter) Subscribe(fn func(models.MBadgeCounts)) {
	b.mu.Lock()
	b.observers = append(b.observers, fn)
	b.mu.Unlock()
}

// -----------------------------------------------------------------------------

// Update records the consolidated result of a pass and notifies observers.
func (b *BadgeCounter) Update(c ConsolidatedAlerts) models.MBadgeCounts {
	b.mu.Lock()
	b.rawCustom = len(c.Custom)
	b.rawGlobal = len(c.Global)
	counts := b.countsLocked()
	observers := make([]func(models.MBadgeCounts), len(b.observers))
	copy(observers, b.observers)
	b.mu.Unlock()

	for _, fn := range observers {
		fn(counts)
	}
	return counts
}

// -----------------------------------------------------------------------------

// Counts returns the current badge counts. Total >= Custom always holds:
// the total is the custom remainder plus the unviewed global remainder.
func (b *BadgeCounter) Counts() models.MBadgeCounts {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.countsLocked()
}

func (b *BadgeCounter) countsLocked() models.MBadgeCounts {
	custom := b.rawCustom - b.viewedCustom
	if custom < 0 {
		custom = 0
	}
	global := b.rawGlobal - b.viewedGlobal
	if global < 0 {
		global = 0
	}
	return models.MBadgeCounts{Custom: custom, Total: custom + global}
}

// -----------------------------------------------------------------------------

// MarkViewed records the current count as the new watermark for one scope.
// Viewing the custom scope does not touch the global watermark and vice versa;
// the "all" scope covers both.
func (b *BadgeCounter) MarkViewed(scope string) models.MBadgeCounts {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch scope {
	case models.BadgeScopeCustom:
		b.viewedCustom = b.rawCustom
	case models.BadgeScopeAll:
		b.viewedCustom = b.rawCustom
		b.viewedGlobal = b.rawGlobal
	}
	return b.countsLocked()
}

// -----------------------------------------------------------------------------

// State evaluates the badge display state machine for the given rules.
// Disabling every category or the badge preference forces hidden regardless
// of counts; otherwise the scoped count decides between visible-with-count
// and visible-zero. Re-evaluated on every data or preference change.
func (b *BadgeCounter) State(rules models.MRuleSet) string {
	if !rules.ShowBadge || rules.AllCategoriesDisabled() {
		return models.BadgeHidden
	}

	counts := b.Counts()
	displayed := counts.Total
	if rules.BadgeScope == models.BadgeScopeCustom {
		displayed = counts.Custom
	}
	if displayed > 0 {
		return models.BadgeVisibleCount
	}
	return models.BadgeVisibleZero
}
