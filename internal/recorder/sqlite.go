package recorder

import (
	"database/sql"
	"fmt"
	"log/slog"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"tibprice/internal/price"
)

// SQLiteRecorder persists price history to a SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL mode for better concurrent read performance (dashboards read while
	// the daemon writes).
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	slog.Info("sqlite recorder opened", "path", dbPath)
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS price_points (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			starts_at   INTEGER NOT NULL UNIQUE,
			total       REAL NOT NULL,
			recorded_at INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_points_starts_at ON price_points(starts_at)`,

		`CREATE TABLE IF NOT EXISTS fetch_events (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp   INTEGER NOT NULL,
			outcome     TEXT,
			point_count INTEGER,
			installed   INTEGER,
			error       TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_fetch_ts ON fetch_events(timestamp)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

// RecordSeries stores every point of s, skipping start times already seen.
// Consecutive refreshes overlap on today's points, so duplicates are normal.
func (r *SQLiteRecorder) RecordSeries(s price.Series) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	now := time.Now().Unix()
	for _, p := range s.Points() {
		_, err := tx.Exec(`INSERT OR IGNORE INTO price_points
			(starts_at, total, recorded_at) VALUES (?,?,?)`,
			p.StartsAt.Unix(), p.Total, now,
		)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("insert price point: %w", err)
		}
	}
	return tx.Commit()
}

func (r *SQLiteRecorder) RecordFetch(evt *FetchEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	installed := 0
	if evt.Installed {
		installed = 1
	}
	_, err := r.db.Exec(`INSERT INTO fetch_events
		(timestamp, outcome, point_count, installed, error)
		VALUES (?,?,?,?,?)`,
		time.Now().Unix(), evt.Outcome,
		evt.PointCount, installed, evt.Error,
	)
	return err
}

func (r *SQLiteRecorder) Close() error {
	slog.Info("closing sqlite recorder")
	return r.db.Close()
}
