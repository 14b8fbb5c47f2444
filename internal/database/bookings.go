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

// ListConfirmedBetween returns confirmed bookings whose interval overlaps
// [from, to). The availability engine calls this with day boundaries.
func (db *DB) ListConfirmedBetween(ctx context.Context, orgID string, from, to time.Time) ([]models.Booking, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, org_id, pet_id, adopter_id, start_time, end_time, status,
		       created_at, updated_at
		FROM bookings
		WHERE org_id = ?
		AND start_time < ? AND end_time > ?
		AND status = ?
		ORDER BY start_time`,
		orgID, to, from, models.BookingConfirmed,
	)
	if err != nil {
		return nil, fmt.Errorf("list confirmed bookings: %w", err)
	}
	defer rows.Close()

	var bookings []models.Booking
	for rows.Next() {
		var b models.Booking
		var petID, adopterID sql.NullString
		if err := rows.Scan(
			&b.ID, &b.OrgID, &petID, &adopterID, &b.StartTime, &b.EndTime,
			&b.Status, &b.CreatedAt, &b.UpdatedAt,
		); err != nil {
			return nil, err
		}
		b.PetID = petID.String
		b.AdopterID = adopterID.String
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}

// CreateConfirmed persists a confirmed booking after re-checking the
// concurrency cap inside a write transaction. Two concurrent bookings for the
// same slot therefore cannot jointly exceed maxConcurrent: the count and the
// insert commit atomically, closing the read/commit race the read path
// cannot prevent.
func (db *DB) CreateConfirmed(ctx context.Context, b *models.Booking, maxConcurrent int) error {
	if !b.EndTime.After(b.StartTime) {
		return apperrors.Validation("scheduled_start_time", "must be before scheduled_end_time")
	}
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	b.Status = models.BookingConfirmed

	// Transactions begin immediate (see NewDB), so the overlap count cannot
	// go stale before the insert.
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin booking tx: %w", err)
	}
	defer tx.Rollback()

	var count int
	err = tx.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM bookings
		WHERE org_id = ?
		AND start_time < ? AND end_time > ?
		AND status = ?`,
		b.OrgID, b.EndTime, b.StartTime, models.BookingConfirmed,
	).Scan(&count)
	if err != nil {
		return fmt.Errorf("count overlapping bookings: %w", err)
	}
	if count >= maxConcurrent {
		return apperrors.Conflict("slot at %s is fully booked", b.StartTime.Format(time.RFC3339))
	}

	now := time.Now()
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO bookings (
			id, org_id, pet_id, adopter_id, start_time, end_time, status,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.ID, b.OrgID, nullable(b.PetID), nullable(b.AdopterID),
		b.StartTime, b.EndTime, b.Status, now, now,
	); err != nil {
		return fmt.Errorf("insert booking: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit booking: %w", err)
	}
	b.CreatedAt = now
	b.UpdatedAt = now
	return nil
}
