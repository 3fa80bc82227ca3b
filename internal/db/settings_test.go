package db

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"slotgen/internal/model"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	database, err := NewDB(path)
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	return database
}

func TestGetUserSettingsDefaults(t *testing.T) {
	database := testDB(t)
	ctx := context.Background()

	s, err := database.GetUserSettings(ctx, 42)
	require.NoError(t, err)

	assert.Equal(t, int64(42), s.UserID)
	assert.Equal(t, 10, s.SlotCount)
	assert.Equal(t, 150, s.DurationMinutes)
	assert.Equal(t, "09:00", s.WindowStart)
	assert.Equal(t, "16:30", s.WindowEnd)
	assert.Equal(t, 30, s.IncrementMinutes)
	assert.Equal(t, 7, s.DaysFromToday)
	assert.Equal(t, 1, s.MaxSlotsPerDay)
	assert.ElementsMatch(t, []time.Weekday{time.Saturday, time.Sunday}, s.AvoidDays)
}

func TestUpsertUserSettings(t *testing.T) {
	database := testDB(t)
	ctx := context.Background()

	s := model.DefaultUserSettings(7)
	s.SlotCount = 5
	s.DurationMinutes = 60
	s.WindowStart = "08:00"
	s.WindowEnd = "12:00"
	s.AvoidDays = []time.Weekday{time.Wednesday}
	require.NoError(t, database.UpsertUserSettings(ctx, s))

	got, err := database.GetUserSettings(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, 5, got.SlotCount)
	assert.Equal(t, 60, got.DurationMinutes)
	assert.Equal(t, "08:00", got.WindowStart)
	assert.Equal(t, "12:00", got.WindowEnd)
	assert.Equal(t, []time.Weekday{time.Wednesday}, got.AvoidDays)

	// Second upsert hits the conflict branch.
	got.SlotCount = 3
	got.AvoidDays = nil
	require.NoError(t, database.UpsertUserSettings(ctx, got))

	got, err = database.GetUserSettings(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, 3, got.SlotCount)
	assert.Empty(t, got.AvoidDays)
}

func TestToggleAvoidDay(t *testing.T) {
	database := testDB(t)
	ctx := context.Background()

	avoided, err := database.ToggleAvoidDay(ctx, 1, time.Monday)
	require.NoError(t, err)
	assert.True(t, avoided)

	s, err := database.GetUserSettings(ctx, 1)
	require.NoError(t, err)
	assert.ElementsMatch(t, []time.Weekday{time.Monday, time.Saturday, time.Sunday}, s.AvoidDays)

	avoided, err = database.ToggleAvoidDay(ctx, 1, time.Monday)
	require.NoError(t, err)
	assert.False(t, avoided)

	s, err = database.GetUserSettings(ctx, 1)
	require.NoError(t, err)
	assert.ElementsMatch(t, []time.Weekday{time.Saturday, time.Sunday}, s.AvoidDays)
}

func TestAvoidDaysRoundTripOrder(t *testing.T) {
	database := testDB(t)
	ctx := context.Background()

	s := model.DefaultUserSettings(9)
	s.AvoidDays = []time.Weekday{time.Sunday, time.Monday, time.Friday}
	require.NoError(t, database.UpsertUserSettings(ctx, s))

	got, err := database.GetUserSettings(ctx, 9)
	require.NoError(t, err)
	// Stored Monday-first regardless of input order.
	assert.Equal(t, []time.Weekday{time.Monday, time.Friday, time.Sunday}, got.AvoidDays)
}

func TestAvoidTimes(t *testing.T) {
	database := testDB(t)
	ctx := context.Background()

	id, err := database.AddAvoidTime(ctx, 5, time.Monday, "09:00", "10:30")
	require.NoError(t, err)
	assert.Greater(t, id, int64(0))

	_, err = database.AddAvoidTime(ctx, 5, time.Monday, "09:00", "10:30")
	assert.ErrorIs(t, err, ErrDuplicateAvoidTime)

	id2, err := database.AddAvoidTime(ctx, 5, time.Tuesday, "14:00", "15:00")
	require.NoError(t, err)

	// Same interval for another user is not a duplicate.
	_, err = database.AddAvoidTime(ctx, 6, time.Monday, "09:00", "10:30")
	require.NoError(t, err)

	times, err := database.ListAvoidTimes(ctx, 5)
	require.NoError(t, err)
	require.Len(t, times, 2)
	assert.Equal(t, time.Monday, times[0].Weekday)
	assert.Equal(t, "09:00", times[0].Start)
	assert.Equal(t, "10:30", times[0].End)
	assert.Equal(t, time.Tuesday, times[1].Weekday)

	require.NoError(t, database.DeleteAvoidTime(ctx, 5, id))

	times, err = database.ListAvoidTimes(ctx, 5)
	require.NoError(t, err)
	require.Len(t, times, 1)
	assert.Equal(t, id2, times[0].ID)

	err = database.DeleteAvoidTime(ctx, 5, id)
	assert.ErrorIs(t, err, ErrAvoidTimeNotFound)

	// Deleting another user's interval is not allowed.
	err = database.DeleteAvoidTime(ctx, 5, times[0].ID+100)
	assert.ErrorIs(t, err, ErrAvoidTimeNotFound)
}

func TestResetUserSettings(t *testing.T) {
	database := testDB(t)
	ctx := context.Background()

	s := model.DefaultUserSettings(11)
	s.SlotCount = 2
	require.NoError(t, database.UpsertUserSettings(ctx, s))
	_, err := database.AddAvoidTime(ctx, 11, time.Friday, "12:00", "13:00")
	require.NoError(t, err)

	require.NoError(t, database.ResetUserSettings(ctx, 11))

	got, err := database.GetUserSettings(ctx, 11)
	require.NoError(t, err)
	assert.Equal(t, 10, got.SlotCount)

	times, err := database.ListAvoidTimes(ctx, 11)
	require.NoError(t, err)
	assert.Empty(t, times)
}
