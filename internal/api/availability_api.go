package api

import (
	"net/http"
	"strconv"
	"time"

	"pawhaven/internal/apperrors"
	"pawhaven/internal/metrics"
	"pawhaven/internal/models"
)

// handleDaySlots returns the annotated slot list for one date.
//
// Cached responses embed the clock-dependent available/"too soon" annotation,
// so a slot can read as available for up to the cache TTL after it crosses
// the advance-window boundary. The TTL bounds that staleness.
// GET /api/v1/orgs/{orgID}/availability/day?date=YYYY-MM-DD
func (s *Server) handleDaySlots(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("availability_day")

	orgID := r.PathValue("orgID")
	date := r.URL.Query().Get("date")
	if date == "" {
		writeError(w, http.StatusBadRequest, "date is required")
		return
	}

	key := s.cache.DayKey(r.Context(), orgID, date)
	var cached models.DaySlots
	if s.cache.GetJSON(r.Context(), key, &cached) {
		metrics.IncCacheResult("hit")
		writeJSON(w, http.StatusOK, &cached)
		return
	}
	metrics.IncCacheResult("miss")

	result, err := s.engine.GetDaySlots(r.Context(), orgID, date)
	if err != nil {
		s.respondError(w, err)
		return
	}
	metrics.IncAvailabilityQuery("day")

	s.cache.SetJSON(r.Context(), key, result)
	writeJSON(w, http.StatusOK, result)
}

// handleMonthDates returns bookable dates of a month.
// GET /api/v1/orgs/{orgID}/availability/month?year=YYYY&month=M
func (s *Server) handleMonthDates(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("availability_month")

	orgID := r.PathValue("orgID")
	year, err := strconv.Atoi(r.URL.Query().Get("year"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "year must be an integer")
		return
	}
	month, err := strconv.Atoi(r.URL.Query().Get("month"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "month must be an integer")
		return
	}

	key := s.cache.MonthKey(r.Context(), orgID, year, month)
	var cached models.MonthDates
	if s.cache.GetJSON(r.Context(), key, &cached) {
		metrics.IncCacheResult("hit")
		writeJSON(w, http.StatusOK, &cached)
		return
	}
	metrics.IncCacheResult("miss")

	result, err := s.engine.GetMonthDates(r.Context(), orgID, year, month)
	if err != nil {
		s.respondError(w, err)
		return
	}
	metrics.IncAvailabilityQuery("month")

	s.cache.SetJSON(r.Context(), key, result)
	writeJSON(w, http.StatusOK, result)
}

// BookingRequest is the body for POST /bookings.
type BookingRequest struct {
	StartTime string `json:"start_time"` // RFC3339
	PetID     string `json:"pet_id,omitempty"`
	AdopterID string `json:"adopter_id,omitempty"`
}

// handleCreateBooking records a confirmed visit. The capacity cap is
// re-checked transactionally at commit time, so the booking fails with 409
// when a concurrent write already filled the slot.
// POST /api/v1/orgs/{orgID}/bookings
func (s *Server) handleCreateBooking(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("booking_create")

	orgID := r.PathValue("orgID")
	var req BookingRequest
	if err := decodeBody(r, &req); err != nil {
		s.respondError(w, err)
		return
	}

	start, err := time.Parse(time.RFC3339, req.StartTime)
	if err != nil {
		s.respondError(w, apperrors.Validation("start_time", "expected RFC3339, got %q", req.StartTime))
		return
	}

	policy, err := s.db.GetOrCreatePolicy(r.Context(), orgID)
	if err != nil {
		s.respondError(w, err)
		return
	}

	booking := &models.Booking{
		OrgID:     orgID,
		PetID:     req.PetID,
		AdopterID: req.AdopterID,
		StartTime: start,
		EndTime:   start.Add(time.Duration(policy.VisitDurationMinutes) * time.Minute),
	}
	if err := s.db.CreateConfirmed(r.Context(), booking, policy.MaxConcurrentVisits); err != nil {
		s.respondError(w, err)
		return
	}

	s.cache.Invalidate(r.Context(), orgID)
	writeJSON(w, http.StatusCreated, booking)
}
