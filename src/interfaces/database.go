package interfaces

import "portfolio-observer/src/models"

// -----------------------------------------------------------------------------
// IDatabase defines the contract for storage operations.
// -----------------------------------------------------------------------------

type IDatabase interface {

	// -----------------------------------------------------------------------------

	// Initialize sets up the database schema and tables.
	Initialize() error

	// -----------------------------------------------------------------------------
	// Watchlist

	LoadWatchlist() ([]models.MWatchlistEntry, error)
	UpsertWatchlistEntry(entry models.MWatchlistEntry) error
	DeleteWatchlistEntry(code string) error

	// -----------------------------------------------------------------------------
	// Target alerts

	LoadTargets() ([]models.MTargetAlert, error)
	UpsertTarget(target models.MTargetAlert) (int64, error)
	DeleteTarget(id int64) error

	// -----------------------------------------------------------------------------
	// Rule set (single row; nil result means nothing persisted yet)

	LoadRules() (*models.MRuleSet, error)
	SaveRules(rules models.MRuleSet) error

	// -----------------------------------------------------------------------------

	// SaveSnapshots appends a fetch cycle's snapshots to the history table.
	SaveSnapshots(snaps []models.MInstrumentSnapshot) error

	// -----------------------------------------------------------------------------

	// CleanupOldData removes snapshot history older than the retention policy.
	CleanupOldData() error

	// -----------------------------------------------------------------------------

	// Close the database connection
	Close() error
}
