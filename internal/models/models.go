package models

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"pawhaven/internal/apperrors"
)

// Exception types.
const (
	ExceptionBlocked   = "blocked"
	ExceptionAvailable = "available"
)

// Booking statuses. Only confirmed bookings occupy slots.
const (
	BookingPending   = "pending"
	BookingConfirmed = "confirmed"
	BookingCancelled = "cancelled"
)

// DateFormat is the wire format for calendar dates.
const DateFormat = "2006-01-02"

// OperatingHours describes one weekday of an organization's schedule.
// Times are "HH:mm" strings; DayOfWeek follows time.Weekday (0 = Sunday).
type OperatingHours struct {
	ID         int64     `json:"id"`
	OrgID      string    `json:"org_id"`
	DayOfWeek  int       `json:"day_of_week"`
	IsOpen     bool      `json:"is_open"`
	OpenTime   string    `json:"open_time"`
	CloseTime  string    `json:"close_time"`
	LunchStart string    `json:"lunch_start,omitempty"`
	LunchEnd   string    `json:"lunch_end,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// AppointmentPolicy is the per-organization booking configuration.
type AppointmentPolicy struct {
	OrgID                  string    `json:"org_id"`
	VisitDurationMinutes   int       `json:"visit_duration_minutes"`
	SlotIntervalMinutes    int       `json:"slot_interval_minutes"`
	MaxConcurrentVisits    int       `json:"max_concurrent_visits"`
	MinAdvanceBookingHours int       `json:"min_advance_booking_hours"`
	MaxAdvanceBookingDays  int       `json:"max_advance_booking_days"`
	AllowWeekendBookings   bool      `json:"allow_weekend_bookings"`
	Timezone               string    `json:"timezone"`
	CreatedAt              time.Time `json:"created_at"`
	UpdatedAt              time.Time `json:"updated_at"`
}

// PolicyPatch is a partial policy update. Nil fields keep the current value;
// the merged record is re-validated as a whole.
type PolicyPatch struct {
	VisitDurationMinutes   *int    `json:"visit_duration_minutes,omitempty"`
	SlotIntervalMinutes    *int    `json:"slot_interval_minutes,omitempty"`
	MaxConcurrentVisits    *int    `json:"max_concurrent_visits,omitempty"`
	MinAdvanceBookingHours *int    `json:"min_advance_booking_hours,omitempty"`
	MaxAdvanceBookingDays  *int    `json:"max_advance_booking_days,omitempty"`
	AllowWeekendBookings   *bool   `json:"allow_weekend_bookings,omitempty"`
	Timezone               *string `json:"timezone,omitempty"`
}

// AvailabilityException is a date-ranged override of the weekly schedule.
// Dates are "YYYY-MM-DD"; the optional time sub-range is "HH:mm".
type AvailabilityException struct {
	ID        string    `json:"id"`
	OrgID     string    `json:"org_id"`
	Type      string    `json:"exception_type"`
	StartDate string    `json:"start_date"`
	EndDate   string    `json:"end_date"`
	StartTime string    `json:"start_time,omitempty"`
	EndTime   string    `json:"end_time,omitempty"`
	Reason    string    `json:"reason,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ExceptionPatch is a partial exception update.
type ExceptionPatch struct {
	Type      *string `json:"exception_type,omitempty"`
	StartDate *string `json:"start_date,omitempty"`
	EndDate   *string `json:"end_date,omitempty"`
	StartTime *string `json:"start_time,omitempty"`
	EndTime   *string `json:"end_time,omitempty"`
	Reason    *string `json:"reason,omitempty"`
}

// Booking is a visit appointment. The engine only reads confirmed ones.
type Booking struct {
	ID        string    `json:"id"`
	OrgID     string    `json:"org_id"`
	PetID     string    `json:"pet_id,omitempty"`
	AdopterID string    `json:"adopter_id,omitempty"`
	StartTime time.Time `json:"scheduled_start_time"`
	EndTime   time.Time `json:"scheduled_end_time"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Slot is a derived candidate appointment interval; never persisted.
type Slot struct {
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	Available bool      `json:"available"`
	Reason    string    `json:"reason,omitempty"`
}

// ScheduleSummary describes the day's effective hours in a slot response.
type ScheduleSummary struct {
	IsOpen     bool   `json:"is_open"`
	OpenTime   string `json:"open_time,omitempty"`
	CloseTime  string `json:"close_time,omitempty"`
	LunchStart string `json:"lunch_start,omitempty"`
	LunchEnd   string `json:"lunch_end,omitempty"`
}

// DaySlots is the GetDaySlots result.
type DaySlots struct {
	Date            string          `json:"date"`
	Slots           []Slot          `json:"slots"`
	ScheduleSummary ScheduleSummary `json:"schedule_summary"`
}

// MonthDates is the GetMonthDates result. A listed date has at least one
// open, unblocked day inside the booking window; it is not slot-accurate,
// so a listed date can still have every individual slot taken.
type MonthDates struct {
	Year           int      `json:"year"`
	Month          int      `json:"month"`
	AvailableDates []string `json:"available_dates"`
}

var clockPattern = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)

// NormalizeClock strips a trailing ":ss" and validates "HH:mm" format.
func NormalizeClock(field, value string) (string, error) {
	v := value
	if parts := strings.Split(v, ":"); len(parts) == 3 {
		v = parts[0] + ":" + parts[1]
	}
	if !clockPattern.MatchString(v) {
		return "", apperrors.Validation(field, "expected HH:mm, got %q", value)
	}
	return v, nil
}

// ClockMinutes converts a normalized "HH:mm" string to minutes from midnight.
func ClockMinutes(v string) int {
	h, _ := strconv.Atoi(v[:2])
	m, _ := strconv.Atoi(v[3:])
	return h*60 + m
}

// Validate checks the weekday-row invariants, normalizing times in place.
func (h *OperatingHours) Validate() error {
	if h.DayOfWeek < 0 || h.DayOfWeek > 6 {
		return apperrors.Validation("day_of_week", "must be between 0 and 6, got %d", h.DayOfWeek)
	}
	if !h.IsOpen {
		return nil
	}

	var err error
	if h.OpenTime, err = NormalizeClock("open_time", h.OpenTime); err != nil {
		return err
	}
	if h.CloseTime, err = NormalizeClock("close_time", h.CloseTime); err != nil {
		return err
	}
	if ClockMinutes(h.OpenTime) >= ClockMinutes(h.CloseTime) {
		return apperrors.Validation("open_time", "must be before close_time")
	}

	if (h.LunchStart == "") != (h.LunchEnd == "") {
		return apperrors.Validation("lunch_start", "lunch_start and lunch_end must be set together")
	}
	if h.LunchStart != "" {
		if h.LunchStart, err = NormalizeClock("lunch_start", h.LunchStart); err != nil {
			return err
		}
		if h.LunchEnd, err = NormalizeClock("lunch_end", h.LunchEnd); err != nil {
			return err
		}
		ls, le := ClockMinutes(h.LunchStart), ClockMinutes(h.LunchEnd)
		if ls >= le {
			return apperrors.Validation("lunch_start", "must be before lunch_end")
		}
		if ls < ClockMinutes(h.OpenTime) || le > ClockMinutes(h.CloseTime) {
			return apperrors.Validation("lunch_start", "lunch break must be within operating hours")
		}
	}
	return nil
}

// Validate checks policy positivity and timezone invariants as a whole.
func (p *AppointmentPolicy) Validate() error {
	if p.VisitDurationMinutes < 15 {
		return apperrors.Validation("visit_duration_minutes", "must be at least 15, got %d", p.VisitDurationMinutes)
	}
	if p.SlotIntervalMinutes < 15 {
		return apperrors.Validation("slot_interval_minutes", "must be at least 15, got %d", p.SlotIntervalMinutes)
	}
	if p.MaxConcurrentVisits < 1 {
		return apperrors.Validation("max_concurrent_visits", "must be at least 1, got %d", p.MaxConcurrentVisits)
	}
	if p.MinAdvanceBookingHours < 0 {
		return apperrors.Validation("min_advance_booking_hours", "must not be negative, got %d", p.MinAdvanceBookingHours)
	}
	if p.MaxAdvanceBookingDays < 1 {
		return apperrors.Validation("max_advance_booking_days", "must be at least 1, got %d", p.MaxAdvanceBookingDays)
	}
	if p.Timezone == "" {
		p.Timezone = "UTC"
	}
	if _, err := time.LoadLocation(p.Timezone); err != nil {
		return apperrors.Validation("timezone", "unknown IANA timezone %q", p.Timezone)
	}
	return nil
}

// Merge applies a patch onto a copy of the policy and returns it; the caller
// re-validates the merged record as a whole.
func (p AppointmentPolicy) Merge(patch PolicyPatch) AppointmentPolicy {
	if patch.VisitDurationMinutes != nil {
		p.VisitDurationMinutes = *patch.VisitDurationMinutes
	}
	if patch.SlotIntervalMinutes != nil {
		p.SlotIntervalMinutes = *patch.SlotIntervalMinutes
	}
	if patch.MaxConcurrentVisits != nil {
		p.MaxConcurrentVisits = *patch.MaxConcurrentVisits
	}
	if patch.MinAdvanceBookingHours != nil {
		p.MinAdvanceBookingHours = *patch.MinAdvanceBookingHours
	}
	if patch.MaxAdvanceBookingDays != nil {
		p.MaxAdvanceBookingDays = *patch.MaxAdvanceBookingDays
	}
	if patch.AllowWeekendBookings != nil {
		p.AllowWeekendBookings = *patch.AllowWeekendBookings
	}
	if patch.Timezone != nil {
		p.Timezone = *patch.Timezone
	}
	return p
}

// Validate checks the exception invariants, normalizing times in place.
func (e *AvailabilityException) Validate() error {
	if e.Type != ExceptionBlocked && e.Type != ExceptionAvailable {
		return apperrors.Validation("exception_type", "must be %q or %q, got %q", ExceptionBlocked, ExceptionAvailable, e.Type)
	}
	start, err := time.Parse(DateFormat, e.StartDate)
	if err != nil {
		return apperrors.Validation("start_date", "expected YYYY-MM-DD, got %q", e.StartDate)
	}
	end, err := time.Parse(DateFormat, e.EndDate)
	if err != nil {
		return apperrors.Validation("end_date", "expected YYYY-MM-DD, got %q", e.EndDate)
	}
	if start.After(end) {
		return apperrors.Validation("start_date", "must not be after end_date")
	}

	if (e.StartTime == "") != (e.EndTime == "") {
		return apperrors.Validation("start_time", "start_time and end_time must be set together")
	}
	if e.StartTime != "" {
		if e.StartTime, err = NormalizeClock("start_time", e.StartTime); err != nil {
			return err
		}
		if e.EndTime, err = NormalizeClock("end_time", e.EndTime); err != nil {
			return err
		}
		if ClockMinutes(e.StartTime) >= ClockMinutes(e.EndTime) {
			return apperrors.Validation("start_time", "must be before end_time")
		}
	}
	return nil
}

// Merge applies a patch onto a copy of the exception and returns it.
func (e AvailabilityException) Merge(patch ExceptionPatch) AvailabilityException {
	if patch.Type != nil {
		e.Type = *patch.Type
	}
	if patch.StartDate != nil {
		e.StartDate = *patch.StartDate
	}
	if patch.EndDate != nil {
		e.EndDate = *patch.EndDate
	}
	if patch.StartTime != nil {
		e.StartTime = *patch.StartTime
	}
	if patch.EndTime != nil {
		e.EndTime = *patch.EndTime
	}
	if patch.Reason != nil {
		e.Reason = *patch.Reason
	}
	return e
}

// Covers reports whether the exception's date range includes the given
// "YYYY-MM-DD" date. ISO dates compare correctly as strings.
func (e *AvailabilityException) Covers(date string) bool {
	return e.StartDate <= date && date <= e.EndDate
}
