package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"portfolio-observer/src/logger"
	"portfolio-observer/src/models"
)

// -----------------------------------------------------------------------------

type AsyncSQLiteDB struct {
	Config *models.MConfig
	DB     *sql.DB
	Logger *logger.Logger
}

// -----------------------------------------------------------------------------

func NewAsyncSQLiteDB(cfg *models.MConfig, log *logger.Logger) (*AsyncSQLiteDB, error) {
	return &AsyncSQLiteDB{
		Config: cfg,
		Logger: log,
	}, nil
}

// -----------------------------------------------------------------------------

func (d *AsyncSQLiteDB) Initialize() error {
	dsn := d.Config.Storage.DBPath

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return err
	}

	if err := db.Ping(); err != nil {
		return err
	}

	d.DB = db

	// PRAGMA optimizations
	if _, err := db.Exec("PRAGMA journal_mode = WAL;"); err != nil {
		d.Logger.Warning("Failed to set WAL mode: %v", err)
	}
	if _, err := db.Exec("PRAGMA synchronous = NORMAL;"); err != nil {
		d.Logger.Warning("Failed to set synchronous mode: %v", err)
	}

	return d.ensureTables()
}

// -----------------------------------------------------------------------------

// ensureTables creates missing tables. Rules, targets and the watchlist must
// survive restarts, so nothing is ever dropped here.
func (d *AsyncSQLiteDB) ensureTables() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS watchlist (
			code TEXT PRIMARY KEY,
			name TEXT,
			sector TEXT,
			pinned INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);`,
		`CREATE TABLE IF NOT EXISTS target_alerts (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			code TEXT NOT NULL,
			target_price REAL NOT NULL,
			direction TEXT NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);`,
		`CREATE TABLE IF NOT EXISTS rule_sets (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			up_percent REAL,
			up_dollar REAL,
			down_percent REAL,
			down_dollar REAL,
			min_price REAL,
			hilo_min_price REAL,
			movers_enabled INTEGER,
			hilo_enabled INTEGER,
			personal_enabled INTEGER,
			sector_filter TEXT,
			exclude_portfolio INTEGER,
			badge_scope TEXT,
			show_badge INTEGER,
			updated_at TIMESTAMP
		);`,
		`CREATE TABLE IF NOT EXISTS snapshots (
			code TEXT,
			fetched_at INTEGER,
			live_price REAL,
			previous_close REAL,
			change_amount REAL,
			change_percent REAL,
			low_52 REAL,
			high_52 REAL,
			PRIMARY KEY (code, fetched_at)
		);`,
	}

	for _, query := range statements {
		if _, err := d.DB.Exec(query); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}
	return nil
}

// -----------------------------------------------------------------------------
// Watchlist

func (d *AsyncSQLiteDB) LoadWatchlist() ([]models.MWatchlistEntry, error) {
	rows, err := d.DB.Query(`SELECT code, name, sector, pinned, created_at FROM watchlist ORDER BY code`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []models.MWatchlistEntry
	for rows.Next() {
		var e models.MWatchlistEntry
		var pinned int
		if err := rows.Scan(&e.Code, &e.Name, &e.Sector, &pinned, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.Pinned = pinned != 0
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// -----------------------------------------------------------------------------

func (d *AsyncSQLiteDB) UpsertWatchlistEntry(entry models.MWatchlistEntry) error {
	_, err := d.DB.Exec(`
		INSERT INTO watchlist (code, name, sector, pinned, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (code) DO UPDATE SET
			name = excluded.name,
			sector = excluded.sector,
			pinned = excluded.pinned
	`, entry.Code, entry.Name, entry.Sector, boolToInt(entry.Pinned), time.Now().UTC())
	return err
}

// -----------------------------------------------------------------------------

func (d *AsyncSQLiteDB) DeleteWatchlistEntry(code string) error {
	_, err := d.DB.Exec(`DELETE FROM watchlist WHERE code = ?`, code)
	return err
}

// -----------------------------------------------------------------------------
// Target alerts

func (d *AsyncSQLiteDB) LoadTargets() ([]models.MTargetAlert, error) {
	rows, err := d.DB.Query(`SELECT id, code, target_price, direction, created_at FROM target_alerts ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var targets []models.MTargetAlert
	for rows.Next() {
		var t models.MTargetAlert
		if err := rows.Scan(&t.ID, &t.Code, &t.TargetPrice, &t.Direction, &t.CreatedAt); err != nil {
			return nil, err
		}
		targets = append(targets, t)
	}
	return targets, rows.Err()
}

// -----------------------------------------------------------------------------

func (d *AsyncSQLiteDB) UpsertTarget(target models.MTargetAlert) (int64, error) {
	if target.ID > 0 {
		_, err := d.DB.Exec(`
			UPDATE target_alerts SET code = ?, target_price = ?, direction = ? WHERE id = ?
		`, target.Code, target.TargetPrice, target.Direction, target.ID)
		return target.ID, err
	}

	res, err := d.DB.Exec(`
		INSERT INTO target_alerts (code, target_price, direction, created_at)
		VALUES (?, ?, ?, ?)
	`, target.Code, target.TargetPrice, target.Direction, time.Now().UTC())
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// -----------------------------------------------------------------------------

func (d *AsyncSQLiteDB) DeleteTarget(id int64) error {
	_, err := d.DB.Exec(`DELETE FROM target_alerts WHERE id = ?`, id)
	return err
}

// -----------------------------------------------------------------------------
// Rule set

func (d *AsyncSQLiteDB) LoadRules() (*models.MRuleSet, error) {
	row := d.DB.QueryRow(`
		SELECT up_percent, up_dollar, down_percent, down_dollar,
		       min_price, hilo_min_price,
		       movers_enabled, hilo_enabled, personal_enabled,
		       sector_filter, exclude_portfolio, badge_scope, show_badge
		FROM rule_sets WHERE id = 1
	`)

	var r models.MRuleSet
	var movers, hilo, personal, exclude, show int
	var sectorJSON string
	err := row.Scan(
		&r.Up.PercentThreshold, &r.Up.DollarThreshold,
		&r.Down.PercentThreshold, &r.Down.DollarThreshold,
		&r.MinPrice, &r.HiloMinPrice,
		&movers, &hilo, &personal,
		&sectorJSON, &exclude, &r.BadgeScope, &show,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	r.MoversEnabled = movers != 0
	r.HiloEnabled = hilo != 0
	r.PersonalEnabled = personal != 0
	r.ExcludePortfolio = exclude != 0
	r.ShowBadge = show != 0

	if err := json.Unmarshal([]byte(sectorJSON), &r.SectorFilter); err != nil {
		return nil, fmt.Errorf("corrupt sector filter: %w", err)
	}

	r.Normalize()
	return &r, nil
}

// -----------------------------------------------------------------------------

func (d *AsyncSQLiteDB) SaveRules(rules models.MRuleSet) error {
	sectorJSON, err := json.Marshal(rules.SectorFilter)
	if err != nil {
		return err
	}

	_, err = d.DB.Exec(`
		INSERT INTO rule_sets (
			id, up_percent, up_dollar, down_percent, down_dollar,
			min_price, hilo_min_price,
			movers_enabled, hilo_enabled, personal_enabled,
			sector_filter, exclude_portfolio, badge_scope, show_badge, updated_at
		) VALUES (1, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			up_percent = excluded.up_percent,
			up_dollar = excluded.up_dollar,
			down_percent = excluded.down_percent,
			down_dollar = excluded.down_dollar,
			min_price = excluded.min_price,
			hilo_min_price = excluded.hilo_min_price,
			movers_enabled = excluded.movers_enabled,
			hilo_enabled = excluded.hilo_enabled,
			personal_enabled = excluded.personal_enabled,
			sector_filter = excluded.sector_filter,
			exclude_portfolio = excluded.exclude_portfolio,
			badge_scope = excluded.badge_scope,
			show_badge = excluded.show_badge,
			updated_at = excluded.updated_at
	`,
		rules.Up.PercentThreshold, rules.Up.DollarThreshold,
		rules.Down.PercentThreshold, rules.Down.DollarThreshold,
		rules.MinPrice, rules.HiloMinPrice,
		boolToInt(rules.MoversEnabled), boolToInt(rules.HiloEnabled), boolToInt(rules.PersonalEnabled),
		string(sectorJSON), boolToInt(rules.ExcludePortfolio), rules.BadgeScope, boolToInt(rules.ShowBadge),
		time.Now().UTC(),
	)
	return err
}

// -----------------------------------------------------------------------------
// Snapshot history

func (d *AsyncSQLiteDB) SaveSnapshots(snaps []models.MInstrumentSnapshot) error {
	if len(snaps) == 0 {
		return nil
	}

	tx, err := d.DB.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO snapshots
			(code, fetched_at, live_price, previous_close, change_amount, change_percent, low_52, high_52)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, s := range snaps {
		_, err := stmt.Exec(s.Code, s.FetchedAt, s.LivePrice, s.PreviousClose,
			s.ChangeAmount, s.ChangePercent, s.Low52, s.High52)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// -----------------------------------------------------------------------------

func (d *AsyncSQLiteDB) CleanupOldData() error {
	retentionDays := d.Config.Storage.RetentionDays
	cutoff := time.Now().UTC().AddDate(0, 0, -retentionDays).Unix()

	if _, err := d.DB.Exec(`DELETE FROM snapshots WHERE fetched_at < ?`, cutoff); err != nil {
		d.Logger.Error("Cleanup snapshots error: %v", err)
		return err
	}

	d.Logger.Info("Cleanup completed (retention %d days)", retentionDays)
	return nil
}

// -----------------------------------------------------------------------------

func (d *AsyncSQLiteDB) Close() error {
	if d.DB != nil {
		return d.DB.Close()
	}
	return nil
}

// -----------------------------------------------------------------------------

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
