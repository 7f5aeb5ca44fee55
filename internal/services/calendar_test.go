package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/traincheck/timetable-backend/internal/models"
)

func weekdayCalendar(t *testing.T) *models.ServiceCalendar {
	return &models.ServiceCalendar{
		ServiceID: "WD",
		Monday:    true, Tuesday: true, Wednesday: true, Thursday: true, Friday: true,
		StartDate: mustDate(t, "2025-01-01"),
		EndDate:   mustDate(t, "2025-01-31"),
	}
}

func TestIsServiceActiveOn(t *testing.T) {
	friday := mustDate(t, "2025-01-10")
	saturday := mustDate(t, "2025-01-11")

	add := func(d time.Time) models.CalendarException {
		return models.CalendarException{ServiceID: "WD", Date: d, ExceptionType: models.ExceptionAdded}
	}
	remove := func(d time.Time) models.CalendarException {
		return models.CalendarException{ServiceID: "WD", Date: d, ExceptionType: models.ExceptionRemoved}
	}

	tests := []struct {
		name       string
		cal        *models.ServiceCalendar
		exceptions []models.CalendarException
		date       time.Time
		expected   bool
	}{
		{"No calendar and no exceptions", nil, nil, friday, false},
		{"Weekday inside range", weekdayCalendar(t), nil, friday, true},
		{"Weekend inside range", weekdayCalendar(t), nil, saturday, false},
		{"First day of range", weekdayCalendar(t), nil, mustDate(t, "2025-01-01"), true},
		{"Last day of range", weekdayCalendar(t), nil, mustDate(t, "2025-01-31"), true},
		{"Weekday after range", weekdayCalendar(t), nil, mustDate(t, "2025-02-03"), false},
		{"Added on weekend", weekdayCalendar(t), []models.CalendarException{add(saturday)}, saturday, true},
		{"Added outside range", weekdayCalendar(t), []models.CalendarException{add(mustDate(t, "2025-03-01"))}, mustDate(t, "2025-03-01"), true},
		{"Added without calendar", nil, []models.CalendarException{add(friday)}, friday, true},
		{"Removed on weekday", weekdayCalendar(t), []models.CalendarException{remove(friday)}, friday, false},
		{"Removed beats added", weekdayCalendar(t), []models.CalendarException{add(saturday), remove(saturday)}, saturday, false},
		{"Removed beats added in any order", nil, []models.CalendarException{remove(friday), add(friday)}, friday, false},
		{"Exception for another date ignored", weekdayCalendar(t), []models.CalendarException{remove(saturday)}, friday, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, IsServiceActiveOn(tc.cal, tc.exceptions, tc.date))
		})
	}
}

func TestIsServiceActiveOn_WeekdayMapping(t *testing.T) {
	// 2025-01-12 is a Sunday
	days := []struct {
		date string
		set  func(c *models.ServiceCalendar)
	}{
		{"2025-01-12", func(c *models.ServiceCalendar) { c.Sunday = true }},
		{"2025-01-13", func(c *models.ServiceCalendar) { c.Monday = true }},
		{"2025-01-14", func(c *models.ServiceCalendar) { c.Tuesday = true }},
		{"2025-01-15", func(c *models.ServiceCalendar) { c.Wednesday = true }},
		{"2025-01-16", func(c *models.ServiceCalendar) { c.Thursday = true }},
		{"2025-01-17", func(c *models.ServiceCalendar) { c.Friday = true }},
		{"2025-01-18", func(c *models.ServiceCalendar) { c.Saturday = true }},
	}

	for i, day := range days {
		cal := &models.ServiceCalendar{
			ServiceID: "ONE",
			StartDate: mustDate(t, "2025-01-01"),
			EndDate:   mustDate(t, "2025-12-31"),
		}
		day.set(cal)

		for j, other := range days {
			assert.Equal(t, i == j, IsServiceActiveOn(cal, nil, mustDate(t, other.date)),
				"flag for %s evaluated on %s", day.date, other.date)
		}
	}
}

func TestCalendarService_IsServiceActive(t *testing.T) {
	ctx := context.Background()

	t.Run("Active", func(t *testing.T) {
		store := newMemStore()
		store.addCalendar(*weekdayCalendar(t))
		service := NewCalendarService(store, testLogger())

		activity, err := service.IsServiceActive(ctx, "WD", "20250110")
		require.NoError(t, err)
		assert.True(t, activity.Active)
		assert.Equal(t, "2025-01-10", activity.Date)
		assert.Equal(t, "WD", activity.ServiceID)
	})

	t.Run("Unknown Service", func(t *testing.T) {
		service := NewCalendarService(newMemStore(), testLogger())

		activity, err := service.IsServiceActive(ctx, "NOPE", "2025-01-10")
		require.NoError(t, err)
		assert.False(t, activity.Active)
	})

	t.Run("Removed Date", func(t *testing.T) {
		store := newMemStore()
		store.addCalendar(*weekdayCalendar(t))
		require.NoError(t, store.UpsertCalendarException(ctx, "WD", "2025-01-10", models.ExceptionRemoved))
		service := NewCalendarService(store, testLogger())

		activity, err := service.IsServiceActive(ctx, "WD", "2025-01-10")
		require.NoError(t, err)
		assert.False(t, activity.Active)
	})

	t.Run("Invalid Date", func(t *testing.T) {
		store := newMemStore()
		service := NewCalendarService(store, testLogger())

		_, err := service.IsServiceActive(ctx, "WD", "10.01.2025")
		require.Error(t, err)
		assert.True(t, models.IsKind(err, models.ErrInvalidInput))
		assert.Zero(t, store.calls)
	})

	t.Run("Store Failure", func(t *testing.T) {
		store := newMemStore()
		store.failErr = errors.New("connection refused")
		service := NewCalendarService(store, testLogger())

		_, err := service.IsServiceActive(ctx, "WD", "2025-01-10")
		require.Error(t, err)
		assert.True(t, models.IsKind(err, models.ErrStoreUnavailable))
	})
}
