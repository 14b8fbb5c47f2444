// Package availability turns an organization's weekly hours, appointment
// policy, calendar exceptions and confirmed bookings into bookable slots and
// dates. The engine is stateless; every query recomputes from current store
// contents, so it is safe to call concurrently without locking.
package availability

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"pawhaven/internal/apperrors"
	"pawhaven/internal/models"
	"pawhaven/internal/slots"
)

// Unavailability reasons attached to annotated slots.
const (
	ReasonTooSoon     = "too soon"
	ReasonFullyBooked = "fully booked"
)

// HoursStore resolves weekly operating hours.
type HoursStore interface {
	GetHours(ctx context.Context, orgID string, dayOfWeek int) (*models.OperatingHours, error)
}

// PolicyStore resolves the appointment policy, materializing defaults.
type PolicyStore interface {
	GetOrCreatePolicy(ctx context.Context, orgID string) (*models.AppointmentPolicy, error)
}

// ExceptionStore resolves calendar exceptions by date range.
type ExceptionStore interface {
	FindOverlapping(ctx context.Context, orgID, startDate, endDate string) ([]models.AvailabilityException, error)
}

// BookingSource supplies confirmed bookings; owned by the booking subsystem.
type BookingSource interface {
	ListConfirmedBetween(ctx context.Context, orgID string, from, to time.Time) ([]models.Booking, error)
}

// Engine computes day slots and month dates for one organization at a time.
type Engine struct {
	hours      HoursStore
	policies   PolicyStore
	exceptions ExceptionStore
	bookings   BookingSource
	now        func() time.Time
	logger     *zerolog.Logger
}

// NewEngine wires the engine to its stores. now may be nil (defaults to
// time.Now); tests inject a fixed clock.
func NewEngine(hours HoursStore, policies PolicyStore, exceptions ExceptionStore, bookings BookingSource, now func() time.Time, logger *zerolog.Logger) *Engine {
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Engine{
		hours:      hours,
		policies:   policies,
		exceptions: exceptions,
		bookings:   bookings,
		now:        now,
		logger:     logger,
	}
}

// GetDaySlots returns the annotated slot list for one date ("YYYY-MM-DD").
//
// A blocking exception covering the date empties the slot list even when it
// carries a time sub-range; day-level decisions ignore the sub-range, same
// as the month query.
func (e *Engine) GetDaySlots(ctx context.Context, orgID, date string) (*models.DaySlots, error) {
	day, err := time.Parse(models.DateFormat, date)
	if err != nil {
		return nil, apperrors.Validation("date", "expected YYYY-MM-DD, got %q", date)
	}

	policy, err := e.policies.GetOrCreatePolicy(ctx, orgID)
	if err != nil {
		return nil, fmt.Errorf("load policy: %w", err)
	}
	loc, err := time.LoadLocation(policy.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", policy.Timezone, err)
	}

	result := &models.DaySlots{Date: date, Slots: []models.Slot{}}

	weekday := int(day.Weekday())
	if isWeekend(weekday) && !policy.AllowWeekendBookings {
		return result, nil
	}

	hours, err := e.hours.GetHours(ctx, orgID, weekday)
	if err != nil {
		return nil, fmt.Errorf("load hours: %w", err)
	}
	if hours == nil || !hours.IsOpen {
		return result, nil
	}
	result.ScheduleSummary = models.ScheduleSummary{
		IsOpen:     true,
		OpenTime:   hours.OpenTime,
		CloseTime:  hours.CloseTime,
		LunchStart: hours.LunchStart,
		LunchEnd:   hours.LunchEnd,
	}

	covering, err := e.exceptions.FindOverlapping(ctx, orgID, date, date)
	if err != nil {
		return nil, fmt.Errorf("load exceptions: %w", err)
	}
	for _, exc := range covering {
		if exc.Type == models.ExceptionBlocked {
			e.logger.Debug().
				Str("org_id", orgID).
				Str("date", date).
				Str("reason", exc.Reason).
				Msg("day blocked by exception")
			return result, nil
		}
	}

	candidates := slots.Generate(day, hours, policy, loc)
	if len(candidates) == 0 {
		return result, nil
	}

	dayStart := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, loc)
	booked, err := e.bookings.ListConfirmedBetween(ctx, orgID, dayStart, dayStart.AddDate(0, 0, 1))
	if err != nil {
		return nil, fmt.Errorf("load bookings: %w", err)
	}

	// Boundary is inclusive: a slot starting exactly at now+minAdvance is
	// still bookable.
	minBookable := e.now().Add(time.Duration(policy.MinAdvanceBookingHours) * time.Hour)
	for _, slot := range candidates {
		switch {
		case slot.StartTime.Before(minBookable):
			slot.Reason = ReasonTooSoon
		case slots.CountOverlapping(booked, slot.StartTime, slot.EndTime) >= policy.MaxConcurrentVisits:
			slot.Reason = ReasonFullyBooked
		default:
			slot.Available = true
		}
		result.Slots = append(result.Slots, slot)
	}
	return result, nil
}

// GetMonthDates returns the bookable calendar dates of a month. A listed
// date is open, unblocked and inside the advance-booking window; per-slot
// capacity is not re-verified here, so a listed date can still be fully
// booked at slot level.
func (e *Engine) GetMonthDates(ctx context.Context, orgID string, year, month int) (*models.MonthDates, error) {
	if month < 1 || month > 12 {
		return nil, apperrors.Validation("month", "must be between 1 and 12, got %d", month)
	}
	if year < 1 || year > 9999 {
		return nil, apperrors.Validation("year", "out of range: %d", year)
	}

	policy, err := e.policies.GetOrCreatePolicy(ctx, orgID)
	if err != nil {
		return nil, fmt.Errorf("load policy: %w", err)
	}
	loc, err := time.LoadLocation(policy.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", policy.Timezone, err)
	}

	// Weekday hours are the same for every day of the month; resolve the
	// seven rows once.
	week := make(map[int]*models.OperatingHours, 7)
	for day := 0; day <= 6; day++ {
		h, err := e.hours.GetHours(ctx, orgID, day)
		if err != nil {
			return nil, fmt.Errorf("load hours for day %d: %w", day, err)
		}
		week[day] = h
	}

	first := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, loc)
	last := first.AddDate(0, 1, -1)
	blocked, err := e.exceptions.FindOverlapping(ctx, orgID,
		first.Format(models.DateFormat), last.Format(models.DateFormat))
	if err != nil {
		return nil, fmt.Errorf("load exceptions: %w", err)
	}

	now := e.now().In(loc)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)
	horizon := today.AddDate(0, 0, policy.MaxAdvanceBookingDays)

	result := &models.MonthDates{Year: year, Month: month, AvailableDates: []string{}}
	for d := first; !d.After(last); d = d.AddDate(0, 0, 1) {
		if d.Before(today) || d.After(horizon) {
			continue
		}
		weekday := int(d.Weekday())
		if isWeekend(weekday) && !policy.AllowWeekendBookings {
			continue
		}
		if h := week[weekday]; h == nil || !h.IsOpen {
			continue
		}
		date := d.Format(models.DateFormat)
		if isBlocked(blocked, date) {
			continue
		}
		result.AvailableDates = append(result.AvailableDates, date)
	}
	return result, nil
}

func isWeekend(weekday int) bool {
	return weekday == int(time.Saturday) || weekday == int(time.Sunday)
}

func isBlocked(exceptions []models.AvailabilityException, date string) bool {
	for _, exc := range exceptions {
		if exc.Type == models.ExceptionBlocked && exc.Covers(date) {
			return true
		}
	}
	return false
}
