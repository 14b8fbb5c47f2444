// Package database implements the schedule, policy, exception and booking
// stores on SQLite.
package database

import (
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

// DB wraps sql.DB for the availability service.
type DB struct {
	*sql.DB
}

// NewDB opens the database at path and runs migrations.
//
// _txlock=immediate makes every transaction take the write lock at BEGIN, so
// the check-then-insert transactions in the exception and hours stores
// serialize through busy_timeout instead of deadlocking on a shared-to-write
// lock upgrade. DSN options apply to every pooled connection, unlike a PRAGMA
// executed on a single one.
func NewDB(path string) (*DB, error) {
	dsn := path + "?_txlock=immediate&_busy_timeout=5000"
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := createTables(db); err != nil {
		return nil, err
	}
	return &DB{db}, nil
}

func createTables(db *sql.DB) error {
	queries := []string{
		// Weekly operating hours, one row per (org, weekday).
		`CREATE TABLE IF NOT EXISTS operating_hours (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			org_id TEXT NOT NULL,
			day_of_week INTEGER NOT NULL,
			is_open BOOLEAN NOT NULL DEFAULT 0,
			open_time TEXT,
			close_time TEXT,
			lunch_start TEXT,
			lunch_end TEXT,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			UNIQUE(org_id, day_of_week)
		)`,

		// One policy row per organization.
		`CREATE TABLE IF NOT EXISTS appointment_policies (
			org_id TEXT PRIMARY KEY,
			visit_duration_minutes INTEGER NOT NULL DEFAULT 60,
			slot_interval_minutes INTEGER NOT NULL DEFAULT 30,
			max_concurrent_visits INTEGER NOT NULL DEFAULT 1,
			min_advance_booking_hours INTEGER NOT NULL DEFAULT 24,
			max_advance_booking_days INTEGER NOT NULL DEFAULT 30,
			allow_weekend_bookings BOOLEAN NOT NULL DEFAULT 1,
			timezone TEXT NOT NULL DEFAULT 'UTC',
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// Date-ranged schedule overrides. Dates are ISO strings so range
		// comparisons work lexicographically.
		`CREATE TABLE IF NOT EXISTS availability_exceptions (
			id TEXT PRIMARY KEY,
			org_id TEXT NOT NULL,
			exception_type TEXT NOT NULL,
			start_date TEXT NOT NULL,
			end_date TEXT NOT NULL,
			start_time TEXT,
			end_time TEXT,
			reason TEXT,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// Visit bookings. The engine reads only confirmed rows.
		`CREATE TABLE IF NOT EXISTS bookings (
			id TEXT PRIMARY KEY,
			org_id TEXT NOT NULL,
			pet_id TEXT,
			adopter_id TEXT,
			start_time DATETIME NOT NULL,
			end_time DATETIME NOT NULL,
			status TEXT NOT NULL DEFAULT 'pending',
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// Indexes
		`CREATE INDEX IF NOT EXISTS idx_hours_org_day ON operating_hours(org_id, day_of_week)`,
		`CREATE INDEX IF NOT EXISTS idx_exceptions_org_range ON availability_exceptions(org_id, start_date, end_date)`,
		`CREATE INDEX IF NOT EXISTS idx_bookings_org_times ON bookings(org_id, start_time, end_time)`,
		`CREATE INDEX IF NOT EXISTS idx_bookings_status ON bookings(status)`,
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
