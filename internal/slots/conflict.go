package slots

import (
	"time"

	"pawhaven/internal/models"
)

// Overlaps reports whether the half-open intervals [aStart,aEnd) and
// [bStart,bEnd) intersect. Touching endpoints do not count as overlapping.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && aEnd.After(bStart)
}

// minutesOverlap is Overlaps on minute offsets from midnight.
func minutesOverlap(aStart, aEnd, bStart, bEnd int) bool {
	return aStart < bEnd && aEnd > bStart
}

// CountOverlapping counts confirmed bookings whose interval overlaps the
// given slot interval. Non-confirmed bookings never occupy capacity.
func CountOverlapping(bookings []models.Booking, start, end time.Time) int {
	count := 0
	for _, b := range bookings {
		if b.Status != models.BookingConfirmed {
			continue
		}
		if Overlaps(start, end, b.StartTime, b.EndTime) {
			count++
		}
	}
	return count
}
