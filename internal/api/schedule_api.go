package api

import (
	"net/http"
	"strconv"

	"pawhaven/internal/metrics"
	"pawhaven/internal/models"
	"pawhaven/internal/report"
)

// HoursSpec is the body for hours writes.
type HoursSpec struct {
	DayOfWeek  int    `json:"day_of_week"`
	IsOpen     bool   `json:"is_open"`
	OpenTime   string `json:"open_time,omitempty"`
	CloseTime  string `json:"close_time,omitempty"`
	LunchStart string `json:"lunch_start,omitempty"`
	LunchEnd   string `json:"lunch_end,omitempty"`
}

func (spec HoursSpec) toModel(orgID string) models.OperatingHours {
	return models.OperatingHours{
		OrgID:      orgID,
		DayOfWeek:  spec.DayOfWeek,
		IsOpen:     spec.IsOpen,
		OpenTime:   spec.OpenTime,
		CloseTime:  spec.CloseTime,
		LunchStart: spec.LunchStart,
		LunchEnd:   spec.LunchEnd,
	}
}

// handleListHours returns the full weekly schedule, seeding defaults for a
// brand-new organization.
// GET /api/v1/orgs/{orgID}/hours
func (s *Server) handleListHours(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("hours_list")

	week, err := s.db.ListWeek(r.Context(), r.PathValue("orgID"))
	if err != nil {
		s.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"hours": week})
}

// handleUpsertDay writes one weekday row.
// PUT /api/v1/orgs/{orgID}/hours/{day}
func (s *Server) handleUpsertDay(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("hours_upsert")

	orgID := r.PathValue("orgID")
	day, err := strconv.Atoi(r.PathValue("day"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "day must be an integer between 0 and 6")
		return
	}

	var spec HoursSpec
	if err := decodeBody(r, &spec); err != nil {
		s.respondError(w, err)
		return
	}
	spec.DayOfWeek = day

	h := spec.toModel(orgID)
	if err := s.db.UpsertHours(r.Context(), &h); err != nil {
		s.respondError(w, err)
		return
	}

	s.cache.Invalidate(r.Context(), orgID)
	writeJSON(w, http.StatusOK, &h)
}

// handleBulkSetWeek replaces all seven weekday rows at once.
// PUT /api/v1/orgs/{orgID}/hours
func (s *Server) handleBulkSetWeek(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("hours_bulk_set")

	orgID := r.PathValue("orgID")
	var req struct {
		Week []HoursSpec `json:"week"`
	}
	if err := decodeBody(r, &req); err != nil {
		s.respondError(w, err)
		return
	}

	week := make([]models.OperatingHours, len(req.Week))
	for i, spec := range req.Week {
		week[i] = spec.toModel(orgID)
	}
	if err := s.db.BulkSetWeek(r.Context(), orgID, week); err != nil {
		s.respondError(w, err)
		return
	}

	s.cache.Invalidate(r.Context(), orgID)
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleDeleteDay removes a weekday row; the day then resolves as closed.
// DELETE /api/v1/orgs/{orgID}/hours/{day}
func (s *Server) handleDeleteDay(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("hours_delete")

	orgID := r.PathValue("orgID")
	day, err := strconv.Atoi(r.PathValue("day"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "day must be an integer between 0 and 6")
		return
	}

	if err := s.db.DeleteDay(r.Context(), orgID, day); err != nil {
		s.respondError(w, err)
		return
	}

	s.cache.Invalidate(r.Context(), orgID)
	w.WriteHeader(http.StatusNoContent)
}

// handleGetPolicy returns (and lazily creates) the appointment policy.
// GET /api/v1/orgs/{orgID}/policy
func (s *Server) handleGetPolicy(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("policy_get")

	policy, err := s.db.GetOrCreatePolicy(r.Context(), r.PathValue("orgID"))
	if err != nil {
		s.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, policy)
}

// handlePatchPolicy merges a partial update and re-validates the whole record.
// PATCH /api/v1/orgs/{orgID}/policy
func (s *Server) handlePatchPolicy(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("policy_patch")

	orgID := r.PathValue("orgID")
	var patch models.PolicyPatch
	if err := decodeBody(r, &patch); err != nil {
		s.respondError(w, err)
		return
	}

	policy, err := s.db.UpsertPolicy(r.Context(), orgID, patch)
	if err != nil {
		s.respondError(w, err)
		return
	}

	s.cache.Invalidate(r.Context(), orgID)
	writeJSON(w, http.StatusOK, policy)
}

// handleScheduleExport streams the schedule configuration as a workbook.
// GET /api/v1/orgs/{orgID}/schedule/export
func (s *Server) handleScheduleExport(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("schedule_export")

	orgID := r.PathValue("orgID")
	week, err := s.db.ListWeek(r.Context(), orgID)
	if err != nil {
		s.respondError(w, err)
		return
	}

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

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="schedule-`+orgID+`.xlsx"`)
	if err := report.WriteScheduleWorkbook(w, week, exceptions); err != nil {
		s.logger.Error().Err(err).Str("org_id", orgID).Msg("schedule export failed")
	}
}
