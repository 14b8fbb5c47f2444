package database

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pawhaven/internal/apperrors"
	"pawhaven/internal/models"
)

func TestGetHours_SeedsDefaultWeek(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	monday, err := db.GetHours(ctx, "org1", 1)
	require.NoError(t, err)
	require.NotNil(t, monday)
	assert.True(t, monday.IsOpen)
	assert.Equal(t, "09:00", monday.OpenTime)
	assert.Equal(t, "18:00", monday.CloseTime)
	assert.Equal(t, "12:00", monday.LunchStart)

	week, err := db.ListWeek(ctx, "org1")
	require.NoError(t, err)
	require.Len(t, week, 7)
	assert.False(t, week[0].IsOpen, "sunday defaults to closed")

	// a second org gets its own seeded week
	week2, err := db.ListWeek(ctx, "org2")
	require.NoError(t, err)
	assert.Len(t, week2, 7)
}

func TestGetHours_ConcurrentFirstReads(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	// first reads race to seed the default week; none may fail and the week
	// must come out whole
	const readers = 8
	errs := make(chan error, readers)
	for i := 0; i < readers; i++ {
		go func() {
			_, err := db.GetHours(ctx, "org1", 1)
			errs <- err
		}()
	}
	for i := 0; i < readers; i++ {
		assert.NoError(t, <-errs)
	}

	week, err := db.ListWeek(ctx, "org1")
	require.NoError(t, err)
	assert.Len(t, week, 7)
}

func TestUpsertHours_UpdatesInPlace(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	h := &models.OperatingHours{
		OrgID: "org1", DayOfWeek: 2, IsOpen: true,
		OpenTime: "08:00", CloseTime: "16:00",
	}
	require.NoError(t, db.UpsertHours(ctx, h))

	got, err := db.GetHours(ctx, "org1", 2)
	require.NoError(t, err)
	assert.Equal(t, "08:00", got.OpenTime)
	assert.Empty(t, got.LunchStart)

	h.CloseTime = "17:00"
	h.LunchStart = "12:00"
	h.LunchEnd = "12:30"
	require.NoError(t, db.UpsertHours(ctx, h))

	got, err = db.GetHours(ctx, "org1", 2)
	require.NoError(t, err)
	assert.Equal(t, "17:00", got.CloseTime)
	assert.Equal(t, "12:00", got.LunchStart)

	// the seeded week stays at seven rows
	week, err := db.ListWeek(ctx, "org1")
	require.NoError(t, err)
	assert.Len(t, week, 7)
}

func TestUpsertHours_RejectsInvalid(t *testing.T) {
	db := testDB(t)

	h := &models.OperatingHours{
		OrgID: "org1", DayOfWeek: 2, IsOpen: true,
		OpenTime: "18:00", CloseTime: "09:00",
	}
	err := db.UpsertHours(context.Background(), h)
	assert.True(t, apperrors.IsValidation(err))
}

func TestBulkSetWeek(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	week := models.DefaultWeek("ignored")
	for i := range week {
		if week[i].IsOpen {
			week[i].OpenTime = "10:00"
		}
	}
	require.NoError(t, db.BulkSetWeek(ctx, "org1", week))

	got, err := db.ListWeek(ctx, "org1")
	require.NoError(t, err)
	require.Len(t, got, 7)
	for _, h := range got {
		assert.Equal(t, "org1", h.OrgID)
		if h.IsOpen {
			assert.Equal(t, "10:00", h.OpenTime)
		}
	}
}

func TestBulkSetWeek_RequiresSevenDays(t *testing.T) {
	db := testDB(t)

	err := db.BulkSetWeek(context.Background(), "org1", models.DefaultWeek("org1")[:5])
	assert.True(t, apperrors.IsValidation(err))
}

func TestBulkSetWeek_RejectsDuplicateDay(t *testing.T) {
	db := testDB(t)

	week := models.DefaultWeek("org1")
	week[6].DayOfWeek = 0
	err := db.BulkSetWeek(context.Background(), "org1", week)
	assert.True(t, apperrors.IsValidation(err))
}

func TestDeleteDay(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	// seed first
	_, err := db.ListWeek(ctx, "org1")
	require.NoError(t, err)

	require.NoError(t, db.DeleteDay(ctx, "org1", 1))

	// the deleted day now reads as closed, not as an error
	got, err := db.GetHours(ctx, "org1", 1)
	require.NoError(t, err)
	assert.Nil(t, got)

	err = db.DeleteDay(ctx, "org1", 1)
	assert.True(t, apperrors.IsNotFound(err))
}
