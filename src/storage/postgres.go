package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"portfolio-observer/src/helpers"
	"portfolio-observer/src/logger"
	"portfolio-observer/src/models"
)

// -----------------------------------------------------------------------------

type PostgresDB struct {
	Config *models.MConfig
	DB     *sql.DB
	Schema string
	Logger *logger.Logger
}

// -----------------------------------------------------------------------------

func NewPostgresDB(cfg *models.MConfig, log *logger.Logger) (*PostgresDB, error) {
	return &PostgresDB{
		Config: cfg,
		Schema: "portfolio_observer",
		Logger: log,
	}, nil
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) Initialize() error {
	dsn := d.Config.Storage.DBConnectionString
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return helpers.NewDatabaseError("failed to open postgres connection", err)
	}

	// Postgres may come up after us (compose ordering), so retry the ping
	if _, err := helpers.RetryWithBackoff("postgres ping", 5, time.Second, d.Logger, func() (interface{}, error) {
		return nil, db.Ping()
	}); err != nil {
		return helpers.NewDatabaseError("postgres is unreachable", err)
	}

	d.DB = db

	if _, err := d.DB.Exec(fmt.Sprintf(`CREATE SCHEMA IF NOT EXISTS "%s"`, d.Schema)); err != nil {
		return fmt.Errorf("failed to create schema %s: %w", d.Schema, err)
	}

	if err := d.ensureTables(); err != nil {
		return err
	}

	d.Logger.Info("PostgresDB initialized successfully (Schema: %s)", d.Schema)
	return nil
}

// -----------------------------------------------------------------------------

// ensureTables creates missing tables. User state must survive restarts so
// no table is ever dropped.
func (d *PostgresDB) ensureTables() error {
	statements := []string{
		fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS "%s"."watchlist" (
				code TEXT PRIMARY KEY,
				name TEXT,
				sector TEXT,
				pinned BOOLEAN NOT NULL DEFAULT FALSE,
				created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
			);
		`, d.Schema),
		fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS "%s"."target_alerts" (
				id BIGSERIAL PRIMARY KEY,
				code TEXT NOT NULL,
				target_price DOUBLE PRECISION NOT NULL,
				direction TEXT NOT NULL,
				created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
			);
		`, d.Schema),
		fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS "%s"."rule_sets" (
				id INTEGER PRIMARY KEY CHECK (id = 1),
				up_percent DOUBLE PRECISION,
				up_dollar DOUBLE PRECISION,
				down_percent DOUBLE PRECISION,
				down_dollar DOUBLE PRECISION,
				min_price DOUBLE PRECISION,
				hilo_min_price DOUBLE PRECISION,
				movers_enabled BOOLEAN,
				hilo_enabled BOOLEAN,
				personal_enabled BOOLEAN,
				sector_filter TEXT,
				exclude_portfolio BOOLEAN,
				badge_scope TEXT,
				show_badge BOOLEAN,
				updated_at TIMESTAMP
			);
		`, d.Schema),
		fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS "%s"."snapshots" (
				code TEXT,
				fetched_at BIGINT,
				live_price DOUBLE PRECISION,
				previous_close DOUBLE PRECISION,
				change_amount DOUBLE PRECISION,
				change_percent DOUBLE PRECISION,
				low_52 DOUBLE PRECISION,
				high_52 DOUBLE PRECISION,
				PRIMARY KEY (code, fetched_at)
			);
		`, d.Schema),
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

func (d *PostgresDB) LoadWatchlist() ([]models.MWatchlistEntry, error) {
	query := fmt.Sprintf(`SELECT code, name, sector, pinned, created_at FROM "%s"."watchlist" ORDER BY code`, d.Schema)
	rows, err := d.DB.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []models.MWatchlistEntry
	for rows.Next() {
		var e models.MWatchlistEntry
		if err := rows.Scan(&e.Code, &e.Name, &e.Sector, &e.Pinned, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) UpsertWatchlistEntry(entry models.MWatchlistEntry) error {
	query := fmt.Sprintf(`
		INSERT INTO "%s"."watchlist" (code, name, sector, pinned, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (code) DO UPDATE SET
			name = EXCLUDED.name,
			sector = EXCLUDED.sector,
			pinned = EXCLUDED.pinned
	`, d.Schema)
	_, err := d.DB.Exec(query, entry.Code, entry.Name, entry.Sector, entry.Pinned, time.Now().UTC())
	return err
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) DeleteWatchlistEntry(code string) error {
	query := fmt.Sprintf(`DELETE FROM "%s"."watchlist" WHERE code = $1`, d.Schema)
	_, err := d.DB.Exec(query, code)
	return err
}

// -----------------------------------------------------------------------------
// Target alerts

func (d *PostgresDB) LoadTargets() ([]models.MTargetAlert, error) {
	query := fmt.Sprintf(`SELECT id, code, target_price, direction, created_at FROM "%s"."target_alerts" ORDER BY id`, d.Schema)
	rows, err := d.DB.Query(query)
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

func (d *PostgresDB) UpsertTarget(target models.MTargetAlert) (int64, error) {
	if target.ID > 0 {
		query := fmt.Sprintf(`
			UPDATE "%s"."target_alerts" SET code = $1, target_price = $2, direction = $3 WHERE id = $4
		`, d.Schema)
		_, err := d.DB.Exec(query, target.Code, target.TargetPrice, target.Direction, target.ID)
		return target.ID, err
	}

	query := fmt.Sprintf(`
		INSERT INTO "%s"."target_alerts" (code, target_price, direction, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, d.Schema)

	var id int64
	err := d.DB.QueryRow(query, target.Code, target.TargetPrice, target.Direction, time.Now().UTC()).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) DeleteTarget(id int64) error {
	query := fmt.Sprintf(`DELETE FROM "%s"."target_alerts" WHERE id = $1`, d.Schema)
	_, err := d.DB.Exec(query, id)
	return err
}

// -----------------------------------------------------------------------------
// Rule set

func (d *PostgresDB) LoadRules() (*models.MRuleSet, error) {
	query := fmt.Sprintf(`
		SELECT up_percent, up_dollar, down_percent, down_dollar,
		       min_price, hilo_min_price,
		       movers_enabled, hilo_enabled, personal_enabled,
		       sector_filter, exclude_portfolio, badge_scope, show_badge
		FROM "%s"."rule_sets" WHERE id = 1
	`, d.Schema)

	var r models.MRuleSet
	var sectorJSON string
	err := d.DB.QueryRow(query).Scan(
		&r.Up.PercentThreshold, &r.Up.DollarThreshold,
		&r.Down.PercentThreshold, &r.Down.DollarThreshold,
		&r.MinPrice, &r.HiloMinPrice,
		&r.MoversEnabled, &r.HiloEnabled, &r.PersonalEnabled,
		&sectorJSON, &r.ExcludePortfolio, &r.BadgeScope, &r.ShowBadge,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(sectorJSON), &r.SectorFilter); err != nil {
		return nil, fmt.Errorf("corrupt sector filter: %w", err)
	}

	r.Normalize()
	return &r, nil
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) SaveRules(rules models.MRuleSet) error {
	sectorJSON, err := json.Marshal(rules.SectorFilter)
	if err != nil {
		return err
	}

	query := fmt.Sprintf(`
		INSERT INTO "%s"."rule_sets" (
			id, up_percent, up_dollar, down_percent, down_dollar,
			min_price, hilo_min_price,
			movers_enabled, hilo_enabled, personal_enabled,
			sector_filter, exclude_portfolio, badge_scope, show_badge, updated_at
		) VALUES (1, $1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (id) DO UPDATE SET
			up_percent = EXCLUDED.up_percent,
			up_dollar = EXCLUDED.up_dollar,
			down_percent = EXCLUDED.down_percent,
			down_dollar = EXCLUDED.down_dollar,
			min_price = EXCLUDED.min_price,
			hilo_min_price = EXCLUDED.hilo_min_price,
			movers_enabled = EXCLUDED.movers_enabled,
			hilo_enabled = EXCLUDED.hilo_enabled,
			personal_enabled = EXCLUDED.personal_enabled,
			sector_filter = EXCLUDED.sector_filter,
			exclude_portfolio = EXCLUDED.exclude_portfolio,
			badge_scope = EXCLUDED.badge_scope,
			show_badge = EXCLUDED.show_badge,
			updated_at = EXCLUDED.updated_at
	`, d.Schema)

	_, err = d.DB.Exec(query,
		rules.Up.PercentThreshold, rules.Up.DollarThreshold,
		rules.Down.PercentThreshold, rules.Down.DollarThreshold,
		rules.MinPrice, rules.HiloMinPrice,
		rules.MoversEnabled, rules.HiloEnabled, rules.PersonalEnabled,
		string(sectorJSON), rules.ExcludePortfolio, rules.BadgeScope, rules.ShowBadge,
		time.Now().UTC(),
	)
	return err
}

// -----------------------------------------------------------------------------
// Snapshot history

func (d *PostgresDB) SaveSnapshots(snaps []models.MInstrumentSnapshot) error {
	if len(snaps) == 0 {
		return nil
	}

	tx, err := d.DB.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := fmt.Sprintf(`
		INSERT INTO "%s"."snapshots"
			(code, fetched_at, live_price, previous_close, change_amount, change_percent, low_52, high_52)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (code, fetched_at) DO NOTHING
	`, d.Schema)
	stmt, err := tx.Prepare(query)
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

func (d *PostgresDB) CleanupOldData() error {
	retentionDays := d.Config.Storage.RetentionDays
	cutoff := time.Now().UTC().AddDate(0, 0, -retentionDays).Unix()

	query := fmt.Sprintf(`DELETE FROM "%s"."snapshots" WHERE fetched_at < $1`, d.Schema)
	if _, err := d.DB.Exec(query, cutoff); err != nil {
		d.Logger.Error("Cleanup snapshots error: %v", err)
		return err
	}

	d.Logger.Info("Cleanup completed (retention %d days)", retentionDays)
	return nil
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) Close() error {
	if d.DB != nil {
		return d.DB.Close()
	}
	return nil
}
