package api

import (
	"net/http"
	"strconv"
	"time"

	"pawhaven/internal/metrics"
	"pawhaven/internal/models"
)

// ExceptionSpec is the body for POST /exceptions.
type ExceptionSpec struct {
	Type      string `json:"exception_type"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	StartTime string `json:"start_time,omitempty"`
	EndTime   string `json:"end_time,omitempty"`
	Reason    string `json:"reason,omitempty"`
}

// handleListExceptions returns the org's active exceptions ordered by start
// date.
// GET /api/v1/orgs/{orgID}/exceptions
func (s *Server) handleListExceptions(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("exceptions_list")

	orgID := r.PathValue("orgID")
	today, err := s.orgToday(r.Context(), orgID)
	if err != nil {
		s.respondError(w, err)
		return
	}

	exceptions, err := s.db.FindActive(r.Context(), orgID, today)
	if err != nil {
		s.respondError(w, err)
		return
	}
	if exceptions == nil {
		exceptions = []models.AvailabilityException{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"exceptions": exceptions})
}

// handleCreateException inserts a new exception, rejecting range overlaps
// with 409.
// POST /api/v1/orgs/{orgID}/exceptions
func (s *Server) handleCreateException(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("exception_create")

	orgID := r.PathValue("orgID")
	var spec ExceptionSpec
	if err := decodeBody(r, &spec); err != nil {
		s.respondError(w, err)
		return
	}

	exc := models.AvailabilityException{
		OrgID:     orgID,
		Type:      spec.Type,
		StartDate: spec.StartDate,
		EndDate:   spec.EndDate,
		StartTime: spec.StartTime,
		EndTime:   spec.EndTime,
		Reason:    spec.Reason,
	}
	if err := s.db.CreateException(r.Context(), &exc); err != nil {
		s.respondError(w, err)
		return
	}

	s.cache.Invalidate(r.Context(), orgID)
	writeJSON(w, http.StatusCreated, &exc)
}

// handleUpdateException merges a partial update by id.
// PATCH /api/v1/orgs/{orgID}/exceptions/{id}
func (s *Server) handleUpdateException(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("exception_update")

	orgID := r.PathValue("orgID")
	var patch models.ExceptionPatch
	if err := decodeBody(r, &patch); err != nil {
		s.respondError(w, err)
		return
	}

	exc, err := s.db.UpdateException(r.Context(), orgID, r.PathValue("id"), patch)
	if err != nil {
		s.respondError(w, err)
		return
	}

	s.cache.Invalidate(r.Context(), orgID)
	writeJSON(w, http.StatusOK, exc)
}

// handleDeleteException removes an exception by id.
// DELETE /api/v1/orgs/{orgID}/exceptions/{id}
func (s *Server) handleDeleteException(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("exception_delete")

	orgID := r.PathValue("orgID")
	if err := s.db.DeleteException(r.Context(), orgID, r.PathValue("id")); err != nil {
		s.respondError(w, err)
		return
	}

	s.cache.Invalidate(r.Context(), orgID)
	w.WriteHeader(http.StatusNoContent)
}

// handleSeedHolidays bulk-creates blocked full-day exceptions for the fixed
// holidays of a year; dates already covered are skipped.
// POST /api/v1/orgs/{orgID}/exceptions/holidays?year=YYYY
func (s *Server) handleSeedHolidays(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("exception_seed_holidays")

	orgID := r.PathValue("orgID")
	year, err := strconv.Atoi(r.URL.Query().Get("year"))
	if err != nil || year < 1 || year > 9999 {
		writeError(w, http.StatusBadRequest, "year must be a four-digit integer")
		return
	}

	created, err := s.db.SeedHolidays(r.Context(), orgID, year)
	if err != nil {
		s.respondError(w, err)
		return
	}

	s.cache.Invalidate(r.Context(), orgID)
	writeJSON(w, http.StatusOK, map[string]int{"created": created})
}

// handlePurgeExpired removes exceptions that ended before yesterday.
// POST /api/v1/orgs/{orgID}/exceptions/purge
func (s *Server) handlePurgeExpired(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("exception_purge")

	orgID := r.PathValue("orgID")
	today, err := s.orgToday(r.Context(), orgID)
	if err != nil {
		s.respondError(w, err)
		return
	}
	day, _ := time.Parse(models.DateFormat, today)
	yesterday := day.AddDate(0, 0, -1).Format(models.DateFormat)

	purged, err := s.db.PurgeExpired(r.Context(), orgID, yesterday)
	if err != nil {
		s.respondError(w, err)
		return
	}

	s.cache.Invalidate(r.Context(), orgID)
	writeJSON(w, http.StatusOK, map[string]int64{"purged": purged})
}
