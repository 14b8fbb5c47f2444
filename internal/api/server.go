// Package api exposes the availability engine and its stores over HTTP.
// Read endpoints are public; management endpoints require an owner token
// resolved by the Authorizer collaborator.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"pawhaven/internal/apperrors"
	"pawhaven/internal/availability"
	"pawhaven/internal/cache"
	"pawhaven/internal/database"
	"pawhaven/internal/metrics"
)

// Authorizer answers whether the presented credential owns an organization.
// In production this is the identity service; tests and single-tenant
// deployments use StaticTokens.
type Authorizer interface {
	IsOwner(ctx context.Context, token, orgID string) bool
}

// StaticTokens maps management tokens to the org they own.
type StaticTokens map[string]string

func (s StaticTokens) IsOwner(_ context.Context, token, orgID string) bool {
	return token != "" && s[token] == orgID
}

// Server is the HTTP front of the availability service.
type Server struct {
	db      *database.DB
	engine  *availability.Engine
	cache   *cache.Cache
	auth    Authorizer
	limiter *ipLimiter
	logger  *zerolog.Logger
}

// NewServer wires the API. cache may be nil-backed; auth must not be nil.
func NewServer(db *database.DB, engine *availability.Engine, c *cache.Cache, auth Authorizer, rps float64, burst int, logger *zerolog.Logger) *Server {
	return &Server{
		db:      db,
		engine:  engine,
		cache:   c,
		auth:    auth,
		limiter: newIPLimiter(rps, burst),
		logger:  logger,
	}
}

// Handler returns the routed handler with rate limiting applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// Public reads
	mux.HandleFunc("GET /api/v1/orgs/{orgID}/availability/day", s.handleDaySlots)
	mux.HandleFunc("GET /api/v1/orgs/{orgID}/availability/month", s.handleMonthDates)
	mux.HandleFunc("GET /api/v1/orgs/{orgID}/hours", s.handleListHours)
	mux.HandleFunc("GET /api/v1/orgs/{orgID}/policy", s.handleGetPolicy)
	mux.HandleFunc("GET /api/v1/orgs/{orgID}/exceptions", s.handleListExceptions)

	// Owner management
	mux.HandleFunc("PUT /api/v1/orgs/{orgID}/hours", s.requireOwner(s.handleBulkSetWeek))
	mux.HandleFunc("PUT /api/v1/orgs/{orgID}/hours/{day}", s.requireOwner(s.handleUpsertDay))
	mux.HandleFunc("DELETE /api/v1/orgs/{orgID}/hours/{day}", s.requireOwner(s.handleDeleteDay))
	mux.HandleFunc("PATCH /api/v1/orgs/{orgID}/policy", s.requireOwner(s.handlePatchPolicy))
	mux.HandleFunc("POST /api/v1/orgs/{orgID}/exceptions", s.requireOwner(s.handleCreateException))
	mux.HandleFunc("PATCH /api/v1/orgs/{orgID}/exceptions/{id}", s.requireOwner(s.handleUpdateException))
	mux.HandleFunc("DELETE /api/v1/orgs/{orgID}/exceptions/{id}", s.requireOwner(s.handleDeleteException))
	mux.HandleFunc("POST /api/v1/orgs/{orgID}/exceptions/holidays", s.requireOwner(s.handleSeedHolidays))
	mux.HandleFunc("POST /api/v1/orgs/{orgID}/exceptions/purge", s.requireOwner(s.handlePurgeExpired))
	mux.HandleFunc("GET /api/v1/orgs/{orgID}/schedule/export", s.requireOwner(s.handleScheduleExport))
	mux.HandleFunc("POST /api/v1/orgs/{orgID}/bookings", s.requireOwner(s.handleCreateBooking))

	return s.limiter.middleware(mux)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// respondError maps the subsystem's error kinds to HTTP statuses.
func (s *Server) respondError(w http.ResponseWriter, err error) {
	switch {
	case apperrors.IsValidation(err):
		writeError(w, http.StatusBadRequest, err.Error())
	case apperrors.IsConflict(err):
		metrics.IncExceptionConflict()
		writeError(w, http.StatusConflict, err.Error())
	case apperrors.IsNotFound(err):
		writeError(w, http.StatusNotFound, err.Error())
	default:
		s.logger.Error().Err(err).Msg("internal error")
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func decodeBody(r *http.Request, dest any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dest); err != nil {
		return apperrors.Validation("body", "invalid JSON body")
	}
	return nil
}

// orgToday returns "today" as YYYY-MM-DD in the organization's timezone.
func (s *Server) orgToday(ctx context.Context, orgID string) (string, error) {
	policy, err := s.db.GetOrCreatePolicy(ctx, orgID)
	if err != nil {
		return "", fmt.Errorf("load policy: %w", err)
	}
	loc, err := time.LoadLocation(policy.Timezone)
	if err != nil {
		return "", fmt.Errorf("load timezone: %w", err)
	}
	return time.Now().In(loc).Format("2006-01-02"), nil
}
