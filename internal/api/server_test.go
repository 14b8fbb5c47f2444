package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pawhaven/internal/availability"
	"pawhaven/internal/cache"
	"pawhaven/internal/database"
	"pawhaven/internal/models"
)

const testToken = "owner-token"

func newTestHandler(t *testing.T) (http.Handler, *database.DB) {
	t.Helper()
	db, err := database.NewDB(filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	logger := zerolog.Nop()
	engine := availability.NewEngine(db, db, db, db, nil, &logger)
	srv := NewServer(db, engine, cache.New(nil, 0), StaticTokens{testToken: "org1"}, 1000, 1000, &logger)
	return srv.Handler(), db
}

func doJSON(t *testing.T, h http.Handler, method, target, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set(ownerTokenHeader, token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

// nextWeekday returns the first date at least three days out that falls on
// the wanted weekday, keeping every generated slot outside the default 24h
// advance window.
func nextWeekday(want time.Weekday) string {
	d := time.Now().UTC().AddDate(0, 0, 3)
	for d.Weekday() != want {
		d = d.AddDate(0, 0, 1)
	}
	return d.Format(models.DateFormat)
}

func TestDaySlotsEndpoint(t *testing.T) {
	h, _ := newTestHandler(t)

	date := nextWeekday(time.Monday)
	rec := doJSON(t, h, http.MethodGet, "/api/v1/orgs/org1/availability/day?date="+date, "", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var got models.DaySlots
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, date, got.Date)
	assert.True(t, got.ScheduleSummary.IsOpen)
	// default monday: 09:00-18:00, lunch 12-13, 60min visits every 30min
	assert.Len(t, got.Slots, 14)
	for _, s := range got.Slots {
		assert.True(t, s.Available)
	}
}

func TestDaySlotsEndpoint_BadInput(t *testing.T) {
	h, _ := newTestHandler(t)

	rec := doJSON(t, h, http.MethodGet, "/api/v1/orgs/org1/availability/day", "", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, h, http.MethodGet, "/api/v1/orgs/org1/availability/day?date=02-06-2025", "", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMonthDatesEndpoint(t *testing.T) {
	h, _ := newTestHandler(t)

	now := time.Now().UTC()
	target := fmt.Sprintf("/api/v1/orgs/org1/availability/month?year=%d&month=%d", now.Year(), int(now.Month()))
	rec := doJSON(t, h, http.MethodGet, target, "", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var got models.MonthDates
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, now.Year(), got.Year)
	for _, d := range got.AvailableDates {
		assert.GreaterOrEqual(t, d, now.Format(models.DateFormat))
	}
}

func TestMonthDatesEndpoint_BadInput(t *testing.T) {
	h, _ := newTestHandler(t)

	rec := doJSON(t, h, http.MethodGet, "/api/v1/orgs/org1/availability/month?year=2025&month=abc", "", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, h, http.MethodGet, "/api/v1/orgs/org1/availability/month?year=2025&month=13", "", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListHoursEndpoint(t *testing.T) {
	h, _ := newTestHandler(t)

	rec := doJSON(t, h, http.MethodGet, "/api/v1/orgs/org1/hours", "", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var got struct {
		Hours []models.OperatingHours `json:"hours"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Len(t, got.Hours, 7)
}

func TestOwnerAuth(t *testing.T) {
	h, _ := newTestHandler(t)
	body := `{"is_open":true,"open_time":"10:00","close_time":"16:00"}`

	rec := doJSON(t, h, http.MethodPut, "/api/v1/orgs/org1/hours/2", "", body)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = doJSON(t, h, http.MethodPut, "/api/v1/orgs/org1/hours/2", "wrong-token", body)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// the token owns org1, not org2
	rec = doJSON(t, h, http.MethodPut, "/api/v1/orgs/org2/hours/2", testToken, body)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = doJSON(t, h, http.MethodPut, "/api/v1/orgs/org1/hours/2", testToken, body)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestUpsertDayEndpoint_Validation(t *testing.T) {
	h, _ := newTestHandler(t)

	rec := doJSON(t, h, http.MethodPut, "/api/v1/orgs/org1/hours/2", testToken,
		`{"is_open":true,"open_time":"18:00","close_time":"09:00"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// unknown fields are rejected
	rec = doJSON(t, h, http.MethodPut, "/api/v1/orgs/org1/hours/2", testToken,
		`{"is_open":true,"open":"09:00"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPatchPolicyEndpoint(t *testing.T) {
	h, _ := newTestHandler(t)

	rec := doJSON(t, h, http.MethodPatch, "/api/v1/orgs/org1/policy", testToken,
		`{"visit_duration_minutes":90,"allow_weekend_bookings":false}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var got models.AppointmentPolicy
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, 90, got.VisitDurationMinutes)
	assert.False(t, got.AllowWeekendBookings)
	assert.Equal(t, 30, got.SlotIntervalMinutes)

	rec = doJSON(t, h, http.MethodPatch, "/api/v1/orgs/org1/policy", testToken,
		`{"slot_interval_minutes":5}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestExceptionEndpoints(t *testing.T) {
	h, _ := newTestHandler(t)
	nextYear := time.Now().Year() + 1

	body := fmt.Sprintf(`{"exception_type":"blocked","start_date":"%d-03-10","end_date":"%d-03-12","reason":"renovation"}`, nextYear, nextYear)
	rec := doJSON(t, h, http.MethodPost, "/api/v1/orgs/org1/exceptions", testToken, body)
	require.Equal(t, http.StatusCreated, rec.Code)

	var created models.AvailabilityException
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.NotEmpty(t, created.ID)

	// overlapping range conflicts
	overlap := fmt.Sprintf(`{"exception_type":"blocked","start_date":"%d-03-12","end_date":"%d-03-14"}`, nextYear, nextYear)
	rec = doJSON(t, h, http.MethodPost, "/api/v1/orgs/org1/exceptions", testToken, overlap)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = doJSON(t, h, http.MethodGet, "/api/v1/orgs/org1/exceptions", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var listed struct {
		Exceptions []models.AvailabilityException `json:"exceptions"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listed))
	require.Len(t, listed.Exceptions, 1)

	rec = doJSON(t, h, http.MethodPatch, "/api/v1/orgs/org1/exceptions/"+created.ID, testToken,
		`{"reason":"repainting"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, h, http.MethodDelete, "/api/v1/orgs/org1/exceptions/"+created.ID, testToken, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, h, http.MethodDelete, "/api/v1/orgs/org1/exceptions/"+created.ID, testToken, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSeedHolidaysEndpoint(t *testing.T) {
	h, _ := newTestHandler(t)
	nextYear := time.Now().Year() + 1

	rec := doJSON(t, h, http.MethodPost,
		fmt.Sprintf("/api/v1/orgs/org1/exceptions/holidays?year=%d", nextYear), testToken, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var got map[string]int
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, len(models.FixedHolidays()), got["created"])

	rec = doJSON(t, h, http.MethodPost, "/api/v1/orgs/org1/exceptions/holidays?year=abc", testToken, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPurgeExpiredEndpoint(t *testing.T) {
	h, db := newTestHandler(t)

	old := &models.AvailabilityException{
		OrgID: "org1", Type: models.ExceptionBlocked,
		StartDate: "2020-01-01", EndDate: "2020-01-02",
	}
	require.NoError(t, db.CreateException(t.Context(), old))

	rec := doJSON(t, h, http.MethodPost, "/api/v1/orgs/org1/exceptions/purge", testToken, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var got map[string]int64
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, int64(1), got["purged"])
}

func TestCreateBookingEndpoint(t *testing.T) {
	h, _ := newTestHandler(t)

	start := time.Now().UTC().AddDate(0, 0, 5).Truncate(time.Hour)
	body := fmt.Sprintf(`{"start_time":%q,"pet_id":"pet-7","adopter_id":"adopter-3"}`, start.Format(time.RFC3339))

	rec := doJSON(t, h, http.MethodPost, "/api/v1/orgs/org1/bookings", testToken, body)
	require.Equal(t, http.StatusCreated, rec.Code)

	var created models.Booking
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, models.BookingConfirmed, created.Status)
	assert.Equal(t, time.Hour, created.EndTime.Sub(created.StartTime))

	// default policy allows one concurrent visit
	rec = doJSON(t, h, http.MethodPost, "/api/v1/orgs/org1/bookings", testToken, body)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = doJSON(t, h, http.MethodPost, "/api/v1/orgs/org1/bookings", testToken,
		`{"start_time":"next tuesday"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestScheduleExportEndpoint(t *testing.T) {
	h, _ := newTestHandler(t)

	rec := doJSON(t, h, http.MethodGet, "/api/v1/orgs/org1/schedule/export", testToken, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t,
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "schedule-org1.xlsx")
	assert.NotZero(t, rec.Body.Len())
}

func TestRateLimit(t *testing.T) {
	db, err := database.NewDB(filepath.Join(t.TempDir(), "rl.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	logger := zerolog.Nop()
	engine := availability.NewEngine(db, db, db, db, nil, &logger)
	srv := NewServer(db, engine, cache.New(nil, 0), StaticTokens{}, 1, 1, &logger)
	h := srv.Handler()

	rec := doJSON(t, h, http.MethodGet, "/api/v1/orgs/org1/hours", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, h, http.MethodGet, "/api/v1/orgs/org1/hours", "", "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}
