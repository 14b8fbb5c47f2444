package models

import (
	"fmt"
	"time"
)

// DefaultWeek returns the default weekly schedule seeded for a brand-new
// organization: Mon-Fri 09:00-18:00 with a 12:00-13:00 lunch break,
// Sat 09:00-13:00 without lunch, Sun closed.
func DefaultWeek(orgID string) []OperatingHours {
	week := make([]OperatingHours, 0, 7)
	for day := 0; day <= 6; day++ {
		h := OperatingHours{OrgID: orgID, DayOfWeek: day}
		switch time.Weekday(day) {
		case time.Sunday:
			// closed
		case time.Saturday:
			h.IsOpen = true
			h.OpenTime = "09:00"
			h.CloseTime = "13:00"
		default:
			h.IsOpen = true
			h.OpenTime = "09:00"
			h.CloseTime = "18:00"
			h.LunchStart = "12:00"
			h.LunchEnd = "13:00"
		}
		week = append(week, h)
	}
	return week
}

// DefaultPolicy returns the policy materialized on first access:
// 60 min visits every 30 min, one concurrent visit, bookable between
// 24 hours and 30 days ahead, weekends allowed.
func DefaultPolicy(orgID string) AppointmentPolicy {
	return AppointmentPolicy{
		OrgID:                  orgID,
		VisitDurationMinutes:   60,
		SlotIntervalMinutes:    30,
		MaxConcurrentVisits:    1,
		MinAdvanceBookingHours: 24,
		MaxAdvanceBookingDays:  30,
		AllowWeekendBookings:   true,
		Timezone:               "UTC",
	}
}

// Holiday is a fixed-date holiday used for bulk exception seeding.
type Holiday struct {
	Month time.Month
	Day   int
	Name  string
}

// FixedHolidays lists the holidays seeded by SeedHolidays. Only fixed-date
// holidays are included; movable ones need an explicit exception.
func FixedHolidays() []Holiday {
	return []Holiday{
		{time.January, 1, "New Year's Day"},
		{time.July, 4, "Independence Day"},
		{time.December, 24, "Christmas Eve"},
		{time.December, 25, "Christmas Day"},
		{time.December, 31, "New Year's Eve"},
	}
}

// Date renders the holiday for a given year as "YYYY-MM-DD".
func (h Holiday) Date(year int) string {
	return fmt.Sprintf("%04d-%02d-%02d", year, h.Month, h.Day)
}
