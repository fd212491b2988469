package alerts

import (
	"sync"
	"time"

	"portfolio-observer/src/interfaces"
	"portfolio-observer/src/logger"
	"portfolio-observer/src/models"
)

// -----------------------------------------------------------------------------
// AlertEngine orchestrates one aggregation pass: rules -> aggregate -> filter
// -> consolidate -> badge. It is the only writer to the badge counter and the
// rule store, and owns the debounced persistence of rule changes. Snapshot and
// target data are supplied by the caller on each pass; the engine performs no
// network calls of its own.
// -----------------------------------------------------------------------------

type AlertEngine struct {
	Config *models.MConfig
	Logger *logger.Logger
	Rules  *RuleStore
	Badge  *BadgeCounter
	DB     interfaces.IDatabase

	mu        sync.RWMutex
	watchlist []models.MWatchlistEntry
	targets   []models.MTargetAlert
	latest    models.MLatestAlerts

	saveMu    sync.Mutex
	saveTimer *time.Timer
}

// -----------------------------------------------------------------------------

func NewAlertEngine(cfg *models.MConfig, db interfaces.IDatabase, log *logger.Logger) *AlertEngine {
	return &AlertEngine{
		Config: cfg,
		Logger: log,
		Rules:  NewRuleStore(cfg.RuleDefault),
		Badge:  NewBadgeCounter(),
		DB:     db,
		latest: models.MLatestAlerts{Type: "INITIAL"},
	}
}

// -----------------------------------------------------------------------------

// LoadPersisted pulls rules, targets and the watchlist from storage. A missing
// rule row keeps the configured defaults.
func (e *AlertEngine) LoadPersisted() error {
	rules, err := e.DB.LoadRules()
	if err != nil {
		return err
	}
	if rules != nil {
		e.Rules.Replace(*rules)
	}

	targets, err := e.DB.LoadTargets()
	if err != nil {
		return err
	}
	watchlist, err := e.DB.LoadWatchlist()
	if err != nil {
		return err
	}

	e.mu.Lock()
	e.targets = targets
	e.watchlist = watchlist
	e.mu.Unlock()

	e.Logger.Info("Loaded %d targets, %d watchlist entries", len(targets), len(watchlist))
	return nil
}

// -----------------------------------------------------------------------------

// Recompute runs the full pipeline over a snapshot set and returns the fresh
// payload. Partially stale snapshot data is acceptable; the engine just
// recomputes over whatever it is given.
func (e *AlertEngine) Recompute(snapshots map[string]models.MInstrumentSnapshot) models.MLatestAlerts {
	rules := e.Rules.Rules()

	e.mu.RLock()
	targets := make([]models.MTargetAlert, len(e.targets))
	copy(targets, e.targets)
	watchlist := make([]models.MWatchlistEntry, len(e.watchlist))
	copy(watchlist, e.watchlist)
	e.mu.RUnlock()

	raw := Aggregate(Pass{Snapshots: snapshots, Targets: targets})
	ctx := NewFilterContext(rules, watchlist)
	filtered := ApplyFilters(ctx, raw)

	pinned := make(map[string]bool, len(watchlist))
	for _, entry := range watchlist {
		pinned[NormalizeCode(entry.Code)] = entry.Pinned
	}
	consolidated := Consolidate(filtered, pinned)

	counts := e.Badge.Update(consolidated)

	payload := models.MLatestAlerts{
		Type:       "UPDATE",
		Custom:     consolidated.Custom,
		Global:     consolidated.Global,
		Badge:      counts,
		BadgeState: e.Badge.State(rules),
		Timestamp:  time.Now().Unix(),
	}

	e.mu.Lock()
	e.latest = payload
	e.mu.Unlock()

	return payload
}

// -----------------------------------------------------------------------------

// Latest returns the payload from the most recent pass.
func (e *AlertEngine) Latest() models.MLatestAlerts {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.latest
}

// -----------------------------------------------------------------------------

// UpdateRules applies a partial rule update and schedules a coalesced write to
// storage. Writes inside the debounce window collapse into one.
func (e *AlertEngine) UpdateRules(patch models.MRulePatch) models.MRuleSet {
	rules := e.Rules.Apply(patch)

	debounce := time.Duration(e.Config.Persistence.DebounceMillis) * time.Millisecond
	if debounce <= 0 {
		debounce = 400 * time.Millisecond
	}

	e.saveMu.Lock()
	if e.saveTimer != nil {
		e.saveTimer.Stop()
	}
	e.saveTimer = time.AfterFunc(debounce, func() {
		if err := e.DB.SaveRules(e.Rules.Rules()); err != nil {
			e.Logger.Error("Failed to persist rules: %v", err)
		}
	})
	e.saveMu.Unlock()

	return rules
}

// -----------------------------------------------------------------------------

// MarkViewed records the viewed watermark for a scope and returns the counts.
func (e *AlertEngine) MarkViewed(scope string) models.MBadgeCounts {
	return e.Badge.MarkViewed(scope)
}

// -----------------------------------------------------------------------------
// Target alert CRUD: storage write-through plus cache refresh.
// -----------------------------------------------------------------------------

func (e *AlertEngine) Targets() []models.MTargetAlert {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]models.MTargetAlert, len(e.targets))
	copy(out, e.targets)
	return out
}

func (e *AlertEngine) SaveTarget(target models.MTargetAlert) (models.MTargetAlert, error) {
	id, err := e.DB.UpsertTarget(target)
	if err != nil {
		return target, err
	}
	target.ID = id
	return target, e.reloadTargets()
}

func (e *AlertEngine) DeleteTarget(id int64) error {
	if err := e.DB.DeleteTarget(id); err != nil {
		return err
	}
	return e.reloadTargets()
}

func (e *AlertEngine) reloadTargets() error {
	targets, err := e.DB.LoadTargets()
	if err != nil {
		return err
	}
	e.mu.Lock()
	e.targets = targets
	e.mu.Unlock()
	return nil
}

// -----------------------------------------------------------------------------
// Watchlist CRUD
// -----------------------------------------------------------------------------

func (e *AlertEngine) Watchlist() []models.MWatchlistEntry {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]models.MWatchlistEntry, len(e.watchlist))
	copy(out, e.watchlist)
	return out
}

// WatchedCodes returns the codes the feed should poll.
func (e *AlertEngine) WatchedCodes() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	codes := make([]string, 0, len(e.watchlist))
	for _, entry := range e.watchlist {
		codes = append(codes, entry.Code)
	}
	return codes
}

func (e *AlertEngine) SaveWatchlistEntry(entry models.MWatchlistEntry) error {
	if err := e.DB.UpsertWatchlistEntry(entry); err != nil {
		return err
	}
	return e.reloadWatchlist()
}

func (e *AlertEngine) DeleteWatchlistEntry(code string) error {
	if err := e.DB.DeleteWatchlistEntry(code); err != nil {
		return err
	}
	return e.reloadWatchlist()
}

func (e *AlertEngine) reloadWatchlist() error {
	watchlist, err := e.DB.LoadWatchlist()
	if err != nil {
		return err
	}
	e.mu.Lock()
	e.watchlist = watchlist
	e.mu.Unlock()
	return nil
}

// -----------------------------------------------------------------------------

// Flush forces any pending debounced rule write to run now (shutdown path).
func (e *AlertEngine) Flush() {
	e.saveMu.Lock()
	timer := e.saveTimer
	e.saveTimer = nil
	e.saveMu.Unlock()

	if timer != nil && timer.Stop() {
		if err := e.DB.SaveRules(e.Rules.Rules()); err != nil {
			e.Logger.Error("Failed to persist rules on flush: %v", err)
		}
	}
}
