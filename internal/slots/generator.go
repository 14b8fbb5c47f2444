// Package slots generates candidate visit slots for a single calendar day
// and provides the interval-overlap primitives shared by the availability
// engine and the booking store.
package slots

import (
	"time"

	"pawhaven/internal/models"
)

// Generate tiles the working day described by hours into candidate slots of
// policy.VisitDurationMinutes, starting at the opening time and stepping by
// policy.SlotIntervalMinutes. Slots that would run past closing are dropped,
// as is any slot whose interval intersects the lunch break. Availability is
// left unset; the engine annotates it later.
//
// Slots are anchored to the given calendar date in loc. The caller is
// expected to have validated hours and policy already.
func Generate(date time.Time, hours *models.OperatingHours, policy *models.AppointmentPolicy, loc *time.Location) []models.Slot {
	if hours == nil || !hours.IsOpen {
		return nil
	}

	openMin := models.ClockMinutes(hours.OpenTime)
	closeMin := models.ClockMinutes(hours.CloseTime)

	hasLunch := hours.LunchStart != "" && hours.LunchEnd != ""
	var lunchStart, lunchEnd int
	if hasLunch {
		lunchStart = models.ClockMinutes(hours.LunchStart)
		lunchEnd = models.ClockMinutes(hours.LunchEnd)
	}

	midnight := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, loc)

	var out []models.Slot
	for start := openMin; start+policy.VisitDurationMinutes <= closeMin; start += policy.SlotIntervalMinutes {
		end := start + policy.VisitDurationMinutes
		if hasLunch && minutesOverlap(start, end, lunchStart, lunchEnd) {
			continue
		}
		out = append(out, models.Slot{
			StartTime: midnight.Add(time.Duration(start) * time.Minute),
			EndTime:   midnight.Add(time.Duration(end) * time.Minute),
		})
	}
	return out
}
