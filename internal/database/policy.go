package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"pawhaven/internal/models"
)

// GetOrCreatePolicy returns the organization's appointment policy,
// materializing the defaults on first access. Reading a policy never fails
// with not-found.
func (db *DB) GetOrCreatePolicy(ctx context.Context, orgID string) (*models.AppointmentPolicy, error) {
	p, err := db.queryPolicy(ctx, orgID)
	if err == nil {
		return p, nil
	}
	if err != sql.ErrNoRows {
		return nil, fmt.Errorf("get policy: %w", err)
	}

	def := models.DefaultPolicy(orgID)
	now := time.Now()
	// OR IGNORE keeps concurrent first reads from racing each other.
	if _, err := db.ExecContext(ctx, `
		INSERT OR IGNORE INTO appointment_policies (
			org_id, visit_duration_minutes, slot_interval_minutes,
			max_concurrent_visits, min_advance_booking_hours,
			max_advance_booking_days, allow_weekend_bookings, timezone,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		def.OrgID, def.VisitDurationMinutes, def.SlotIntervalMinutes,
		def.MaxConcurrentVisits, def.MinAdvanceBookingHours,
		def.MaxAdvanceBookingDays, def.AllowWeekendBookings, def.Timezone,
		now, now,
	); err != nil {
		return nil, fmt.Errorf("seed policy: %w", err)
	}

	p, err = db.queryPolicy(ctx, orgID)
	if err != nil {
		return nil, fmt.Errorf("reload policy: %w", err)
	}
	return p, nil
}

// UpsertPolicy merges the patch into the existing policy (or the defaults)
// and re-validates the merged record as a whole before writing it.
func (db *DB) UpsertPolicy(ctx context.Context, orgID string, patch models.PolicyPatch) (*models.AppointmentPolicy, error) {
	current, err := db.GetOrCreatePolicy(ctx, orgID)
	if err != nil {
		return nil, err
	}

	merged := current.Merge(patch)
	if err := merged.Validate(); err != nil {
		return nil, err
	}

	if _, err := db.ExecContext(ctx, `
		UPDATE appointment_policies SET
			visit_duration_minutes = ?,
			slot_interval_minutes = ?,
			max_concurrent_visits = ?,
			min_advance_booking_hours = ?,
			max_advance_booking_days = ?,
			allow_weekend_bookings = ?,
			timezone = ?,
			updated_at = ?
		WHERE org_id = ?`,
		merged.VisitDurationMinutes, merged.SlotIntervalMinutes,
		merged.MaxConcurrentVisits, merged.MinAdvanceBookingHours,
		merged.MaxAdvanceBookingDays, merged.AllowWeekendBookings,
		merged.Timezone, time.Now(), orgID,
	); err != nil {
		return nil, fmt.Errorf("update policy: %w", err)
	}
	return &merged, nil
}

func (db *DB) queryPolicy(ctx context.Context, orgID string) (*models.AppointmentPolicy, error) {
	var p models.AppointmentPolicy
	err := db.QueryRowContext(ctx, `
		SELECT org_id, visit_duration_minutes, slot_interval_minutes,
		       max_concurrent_visits, min_advance_booking_hours,
		       max_advance_booking_days, allow_weekend_bookings, timezone,
		       created_at, updated_at
		FROM appointment_policies
		WHERE org_id = ?
		LIMIT 1`,
		orgID,
	).Scan(
		&p.OrgID, &p.VisitDurationMinutes, &p.SlotIntervalMinutes,
		&p.MaxConcurrentVisits, &p.MinAdvanceBookingHours,
		&p.MaxAdvanceBookingDays, &p.AllowWeekendBookings, &p.Timezone,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
