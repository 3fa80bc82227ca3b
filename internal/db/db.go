package db

import (
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

// DB wraps sql.DB for the settings store.
type DB struct {
	*sql.DB
}

// NewDB opens database at path and runs migrations.
func NewDB(path string) (*DB, error) {
	// SQLite tuning: WAL journal, 5s busy timeout.
	dsn := path + "?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	if err := createTables(db); err != nil {
		return nil, err
	}
	return &DB{db}, nil
}

func createTables(db *sql.DB) error {
	queries := []string{
		// Per-user generation preferences
		`CREATE TABLE IF NOT EXISTS user_settings (
			user_id INTEGER PRIMARY KEY,
			slot_count INTEGER NOT NULL,
			duration_minutes INTEGER NOT NULL,
			window_start TEXT NOT NULL,
			window_end TEXT NOT NULL,
			increment_minutes INTEGER NOT NULL,
			days_from_today INTEGER NOT NULL,
			max_slots_per_day INTEGER NOT NULL,
			avoid_days TEXT NOT NULL DEFAULT '',
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// Forbidden weekday intervals, one row per interval
		`CREATE TABLE IF NOT EXISTS avoid_times (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id INTEGER NOT NULL,
			weekday TEXT NOT NULL,
			start_time TEXT NOT NULL,
			end_time TEXT NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			UNIQUE(user_id, weekday, start_time, end_time)
		)`,

		// Indexes
		`CREATE INDEX IF NOT EXISTS idx_avoid_times_user ON avoid_times(user_id)`,
	}

	for _, q := range queries {
		if _, err := db.Exec(q); err != nil {
			return fmt.Errorf("exec migration %s: %w", trimSQL(q), err)
		}
	}
	return nil
}

func trimSQL(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > 60 {
		return s[:60] + "..."
	}
	return s
}
