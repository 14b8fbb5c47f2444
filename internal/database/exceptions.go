package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"pawhaven/internal/apperrors"
	"pawhaven/internal/models"
)

// CreateException validates and inserts a new exception. The write runs in a
// transaction that first checks the org's existing exceptions for a date-range
// intersection, upholding the non-overlap invariant under concurrent writers
// (SQLite serializes the write transactions themselves).
func (db *DB) CreateException(ctx context.Context, e *models.AvailabilityException) error {
	if err := e.Validate(); err != nil {
		return err
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create exception: %w", err)
	}
	defer tx.Rollback()

	if err := checkOverlap(ctx, tx, e.OrgID, e.StartDate, e.EndDate, ""); err != nil {
		return err
	}

	now := time.Now()
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO availability_exceptions (
			id, org_id, exception_type, start_date, end_date,
			start_time, end_time, reason, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.OrgID, e.Type, e.StartDate, e.EndDate,
		nullable(e.StartTime), nullable(e.EndTime), nullable(e.Reason), now, now,
	); err != nil {
		return fmt.Errorf("insert exception: %w", err)
	}
	e.CreatedAt = now
	e.UpdatedAt = now
	return tx.Commit()
}

// UpdateException merges the patch into the stored exception, re-validates
// the result and re-checks the non-overlap invariant against every other
// exception of the org.
func (db *DB) UpdateException(ctx context.Context, orgID, id string, patch models.ExceptionPatch) (*models.AvailabilityException, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin update exception: %w", err)
	}
	defer tx.Rollback()

	current, err := queryException(ctx, tx, orgID, id)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("exception %s: %w", id, apperrors.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load exception: %w", err)
	}

	merged := current.Merge(patch)
	if err := merged.Validate(); err != nil {
		return nil, err
	}
	if err := checkOverlap(ctx, tx, orgID, merged.StartDate, merged.EndDate, id); err != nil {
		return nil, err
	}

	merged.UpdatedAt = time.Now()
	if _, err := tx.ExecContext(ctx, `
		UPDATE availability_exceptions SET
			exception_type = ?, start_date = ?, end_date = ?,
			start_time = ?, end_time = ?, reason = ?, updated_at = ?
		WHERE id = ? AND org_id = ?`,
		merged.Type, merged.StartDate, merged.EndDate,
		nullable(merged.StartTime), nullable(merged.EndTime), nullable(merged.Reason),
		merged.UpdatedAt, id, orgID,
	); err != nil {
		return nil, fmt.Errorf("update exception: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &merged, nil
}

// DeleteException removes an exception by id in org scope.
func (db *DB) DeleteException(ctx context.Context, orgID, id string) error {
	res, err := db.ExecContext(ctx,
		"DELETE FROM availability_exceptions WHERE id = ? AND org_id = ?",
		id, orgID,
	)
	if err != nil {
		return fmt.Errorf("delete exception: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("exception %s: %w", id, apperrors.ErrNotFound)
	}
	return nil
}

// FindActive returns exceptions whose range has not fully passed as of
// today, ordered by start date.
func (db *DB) FindActive(ctx context.Context, orgID, today string) ([]models.AvailabilityException, error) {
	rows, err := db.QueryContext(ctx, exceptionSelect+`
		WHERE org_id = ? AND end_date >= ?
		ORDER BY start_date`,
		orgID, today,
	)
	if err != nil {
		return nil, fmt.Errorf("find active exceptions: %w", err)
	}
	return collectExceptions(rows)
}

// FindOverlapping returns exceptions whose date range intersects
// [startDate, endDate]. Pass the same date twice for a single day.
func (db *DB) FindOverlapping(ctx context.Context, orgID, startDate, endDate string) ([]models.AvailabilityException, error) {
	rows, err := db.QueryContext(ctx, exceptionSelect+`
		WHERE org_id = ? AND start_date <= ? AND end_date >= ?
		ORDER BY start_date`,
		orgID, endDate, startDate,
	)
	if err != nil {
		return nil, fmt.Errorf("find overlapping exceptions: %w", err)
	}
	return collectExceptions(rows)
}

// SeedHolidays inserts one blocked full-day exception per fixed holiday of
// the year. Dates that already collide with an existing exception are
// skipped, so the batch is best-effort and idempotent. Returns the number of
// exceptions created.
func (db *DB) SeedHolidays(ctx context.Context, orgID string, year int) (int, error) {
	created := 0
	for _, holiday := range models.FixedHolidays() {
		e := &models.AvailabilityException{
			OrgID:     orgID,
			Type:      models.ExceptionBlocked,
			StartDate: holiday.Date(year),
			EndDate:   holiday.Date(year),
			Reason:    holiday.Name,
		}
		err := db.CreateException(ctx, e)
		if apperrors.IsConflict(err) {
			continue
		}
		if err != nil {
			return created, fmt.Errorf("seed holiday %s: %w", holiday.Name, err)
		}
		created++
	}
	return created, nil
}

// PurgeExpired bulk-deletes exceptions that ended before yesterday. Returns
// the number of rows removed.
func (db *DB) PurgeExpired(ctx context.Context, orgID, yesterday string) (int64, error) {
	res, err := db.ExecContext(ctx,
		"DELETE FROM availability_exceptions WHERE org_id = ? AND end_date < ?",
		orgID, yesterday,
	)
	if err != nil {
		return 0, fmt.Errorf("purge exceptions: %w", err)
	}
	return res.RowsAffected()
}

const exceptionSelect = `
	SELECT id, org_id, exception_type, start_date, end_date,
	       start_time, end_time, reason, created_at, updated_at
	FROM availability_exceptions`

// checkOverlap rejects the [startDate, endDate] range when any other
// exception of the org intersects it. excludeID skips the record being
// updated.
func checkOverlap(ctx context.Context, tx *sql.Tx, orgID, startDate, endDate, excludeID string) error {
	row := tx.QueryRowContext(ctx, exceptionSelect+`
		WHERE org_id = ? AND id != ? AND start_date <= ? AND end_date >= ?
		ORDER BY start_date
		LIMIT 1`,
		orgID, excludeID, endDate, startDate,
	)
	existing, err := scanException(row)
	if err == sql.ErrNoRows {
		return nil
	}
	if err != nil {
		return fmt.Errorf("check exception overlap: %w", err)
	}

	reason := existing.Reason
	if reason == "" {
		reason = fmt.Sprintf("%s to %s", existing.StartDate, existing.EndDate)
	}
	return apperrors.Conflict("overlaps existing exception (%s)", reason)
}

func queryException(ctx context.Context, tx *sql.Tx, orgID, id string) (*models.AvailabilityException, error) {
	row := tx.QueryRowContext(ctx, exceptionSelect+`
		WHERE id = ? AND org_id = ?
		LIMIT 1`,
		id, orgID,
	)
	return scanException(row)
}

func scanException(row rowScanner) (*models.AvailabilityException, error) {
	var e models.AvailabilityException
	var startTime, endTime, reason sql.NullString
	err := row.Scan(
		&e.ID, &e.OrgID, &e.Type, &e.StartDate, &e.EndDate,
		&startTime, &endTime, &reason, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	e.StartTime = startTime.String
	e.EndTime = endTime.String
	e.Reason = reason.String
	return &e, nil
}

func collectExceptions(rows *sql.Rows) ([]models.AvailabilityException, error) {
	defer rows.Close()
	var out []models.AvailabilityException
	for rows.Next() {
		e, err := scanException(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}
