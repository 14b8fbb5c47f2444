package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"pawhaven/internal/apperrors"
	"pawhaven/internal/models"
)

// GetHours returns the operating-hours row for (orgID, dayOfWeek). The first
// query for a brand-new organization seeds the full default week, so every
// organization resolves to a complete weekly schedule. Returns nil (without
// error) when the day row was deleted, which reads as "closed".
func (db *DB) GetHours(ctx context.Context, orgID string, dayOfWeek int) (*models.OperatingHours, error) {
	if err := db.ensureWeek(ctx, orgID); err != nil {
		return nil, err
	}

	h, err := db.queryDay(ctx, orgID, dayOfWeek)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get hours: %w", err)
	}
	return h, nil
}

// ListWeek returns all configured weekday rows ordered by day, seeding
// defaults first for a brand-new organization.
func (db *DB) ListWeek(ctx context.Context, orgID string) ([]models.OperatingHours, error) {
	if err := db.ensureWeek(ctx, orgID); err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, `
		SELECT id, org_id, day_of_week, is_open, open_time, close_time,
		       lunch_start, lunch_end, created_at, updated_at
		FROM operating_hours
		WHERE org_id = ?
		ORDER BY day_of_week`,
		orgID,
	)
	if err != nil {
		return nil, fmt.Errorf("list week: %w", err)
	}
	defer rows.Close()

	var week []models.OperatingHours
	for rows.Next() {
		h, err := scanHours(rows)
		if err != nil {
			return nil, err
		}
		week = append(week, *h)
	}
	return week, rows.Err()
}

// UpsertHours validates and writes a single weekday row.
func (db *DB) UpsertHours(ctx context.Context, h *models.OperatingHours) error {
	if err := h.Validate(); err != nil {
		return err
	}

	now := time.Now()
	_, err := db.ExecContext(ctx, `
		INSERT INTO operating_hours (
			org_id, day_of_week, is_open, open_time, close_time,
			lunch_start, lunch_end, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(org_id, day_of_week) DO UPDATE SET
			is_open = excluded.is_open,
			open_time = excluded.open_time,
			close_time = excluded.close_time,
			lunch_start = excluded.lunch_start,
			lunch_end = excluded.lunch_end,
			updated_at = excluded.updated_at`,
		h.OrgID, h.DayOfWeek, h.IsOpen, nullable(h.OpenTime), nullable(h.CloseTime),
		nullable(h.LunchStart), nullable(h.LunchEnd), now, now,
	)
	if err != nil {
		return fmt.Errorf("upsert hours: %w", err)
	}
	return nil
}

// BulkSetWeek replaces the full weekly schedule in one transaction. Exactly
// seven specs are required, one per weekday.
func (db *DB) BulkSetWeek(ctx context.Context, orgID string, week []models.OperatingHours) error {
	if len(week) != 7 {
		return apperrors.Validation("week", "expected 7 day entries, got %d", len(week))
	}
	seen := make(map[int]bool, 7)
	for i := range week {
		week[i].OrgID = orgID
		if err := week[i].Validate(); err != nil {
			return err
		}
		if seen[week[i].DayOfWeek] {
			return apperrors.Validation("day_of_week", "duplicate entry for day %d", week[i].DayOfWeek)
		}
		seen[week[i].DayOfWeek] = true
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin bulk set week: %w", err)
	}
	defer tx.Rollback()

	now := time.Now()
	for _, h := range week {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO operating_hours (
				org_id, day_of_week, is_open, open_time, close_time,
				lunch_start, lunch_end, created_at, updated_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(org_id, day_of_week) DO UPDATE SET
				is_open = excluded.is_open,
				open_time = excluded.open_time,
				close_time = excluded.close_time,
				lunch_start = excluded.lunch_start,
				lunch_end = excluded.lunch_end,
				updated_at = excluded.updated_at`,
			h.OrgID, h.DayOfWeek, h.IsOpen, nullable(h.OpenTime), nullable(h.CloseTime),
			nullable(h.LunchStart), nullable(h.LunchEnd), now, now,
		); err != nil {
			return fmt.Errorf("bulk set day %d: %w", h.DayOfWeek, err)
		}
	}
	return tx.Commit()
}

// DeleteDay removes one weekday row; the day then resolves as closed.
func (db *DB) DeleteDay(ctx context.Context, orgID string, dayOfWeek int) error {
	res, err := db.ExecContext(ctx,
		"DELETE FROM operating_hours WHERE org_id = ? AND day_of_week = ?",
		orgID, dayOfWeek,
	)
	if err != nil {
		return fmt.Errorf("delete day: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("hours for day %d: %w", dayOfWeek, apperrors.ErrNotFound)
	}
	return nil
}

// ensureWeek seeds the default week when the organization has no hours rows
// at all. INSERT OR IGNORE keeps concurrent first reads idempotent.
func (db *DB) ensureWeek(ctx context.Context, orgID string) error {
	var count int
	err := db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM operating_hours WHERE org_id = ?", orgID,
	).Scan(&count)
	if err != nil {
		return fmt.Errorf("count hours: %w", err)
	}
	if count > 0 {
		return nil
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin seed week: %w", err)
	}
	defer tx.Rollback()

	now := time.Now()
	for _, h := range models.DefaultWeek(orgID) {
		if _, err := tx.ExecContext(ctx, `
			INSERT OR IGNORE INTO operating_hours (
				org_id, day_of_week, is_open, open_time, close_time,
				lunch_start, lunch_end, created_at, updated_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			h.OrgID, h.DayOfWeek, h.IsOpen, nullable(h.OpenTime), nullable(h.CloseTime),
			nullable(h.LunchStart), nullable(h.LunchEnd), now, now,
		); err != nil {
			return fmt.Errorf("seed day %d: %w", h.DayOfWeek, err)
		}
	}
	return tx.Commit()
}

func (db *DB) queryDay(ctx context.Context, orgID string, dayOfWeek int) (*models.OperatingHours, error) {
	row := db.QueryRowContext(ctx, `
		SELECT id, org_id, day_of_week, is_open, open_time, close_time,
		       lunch_start, lunch_end, created_at, updated_at
		FROM operating_hours
		WHERE org_id = ? AND day_of_week = ?
		LIMIT 1`,
		orgID, dayOfWeek,
	)
	return scanHours(row)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanHours(row rowScanner) (*models.OperatingHours, error) {
	var h models.OperatingHours
	var openTime, closeTime, lunchStart, lunchEnd sql.NullString
	err := row.Scan(
		&h.ID, &h.OrgID, &h.DayOfWeek, &h.IsOpen, &openTime, &closeTime,
		&lunchStart, &lunchEnd, &h.CreatedAt, &h.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	h.OpenTime = openTime.String
	h.CloseTime = closeTime.String
	h.LunchStart = lunchStart.String
	h.LunchEnd = lunchEnd.String
	return &h, nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
