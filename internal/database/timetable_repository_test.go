package database

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/traincheck/timetable-backend/internal/models"
)

func TestServiceActiveClause(t *testing.T) {
	clause := serviceActiveClause("d.service_id", "$2")

	assert.Contains(t, clause, "c.service_id = d.service_id")
	assert.Contains(t, clause, "EXTRACT(DOW FROM $2::date)::int + 1")
	assert.Contains(t, clause, "WHEN 1 THEN c.sunday")
	assert.Contains(t, clause, "WHEN 7 THEN c.saturday")
	assert.Contains(t, clause, "cd.exception_type = 1")
	assert.Contains(t, clause, "NOT EXISTS")
	assert.Contains(t, clause, "cd.exception_type = 2")
	assert.True(t, strings.Index(clause, "NOT EXISTS") > strings.Index(clause, "cd.exception_type = 1"),
		"removal check must wrap the additive part")
}

func TestFindDepartureCandidates(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewTimetableRepository(db)
	ctx := context.Background()

	q := models.StationQuery{Station: "Kraków Główny", Date: "2025-01-10", MinSeconds: 32400, Limit: 10}

	t.Run("Success", func(t *testing.T) {
		mock.ExpectQuery(`FROM v_departures d`).
			WithArgs("Kraków Główny", "2025-01-10", 32400, 10).
			WillReturnRows(sqlmock.NewRows([]string{
				"trip_id", "route_id", "route_long_name", "route_short_name", "departure_time", "stop_sequence",
			}).
				AddRow("T1", "R1", "Kraków - Wieliczka", "SKA1", 33000, 1).
				AddRow("T2", "R1", "Kraków - Wieliczka", "SKA1", 34800, 3))

		candidates, err := repo.FindDepartureCandidates(ctx, q)
		require.NoError(t, err)
		require.Len(t, candidates, 2)
		assert.Equal(t, "T1", candidates[0].TripID)
		assert.Equal(t, 33000, candidates[0].DepartureTime)
		assert.Equal(t, 3, candidates[1].StationSequence)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Empty", func(t *testing.T) {
		mock.ExpectQuery(`FROM v_departures d`).
			WillReturnRows(sqlmock.NewRows([]string{"trip_id"}))

		candidates, err := repo.FindDepartureCandidates(ctx, q)
		require.NoError(t, err)
		assert.NotNil(t, candidates)
		assert.Empty(t, candidates)
	})

	t.Run("Database Error", func(t *testing.T) {
		mock.ExpectQuery(`FROM v_departures d`).
			WillReturnError(fmt.Errorf("connection refused"))

		_, err := repo.FindDepartureCandidates(ctx, q)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "error finding departure candidates")
	})
}

func TestFindArrivalCandidates(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewTimetableRepository(db)

	mock.ExpectQuery(`FROM v_arrivals a`).
		WithArgs("Wieliczka Rynek", "2025-01-10", 0, 5).
		WillReturnRows(sqlmock.NewRows([]string{
			"trip_id", "route_id", "route_long_name", "route_short_name", "arrival_time", "stop_sequence",
		}).AddRow("T1", "R1", "Kraków - Wieliczka", "SKA1", 35000, 4))

	candidates, err := repo.FindArrivalCandidates(context.Background(), models.StationQuery{
		Station: "Wieliczka Rynek", Date: "2025-01-10", MinSeconds: 0, Limit: 5,
	})
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, 35000, candidates[0].ArrivalTime)
	assert.Equal(t, 4, candidates[0].StationSequence)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindDirectConnectionCandidates(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewTimetableRepository(db)

	mock.ExpectQuery(`SELECT DISTINCT ON \(t.trip_id\)(.|\s)+b.stop_sequence > a.stop_sequence(.|\s)+ORDER BY t.trip_id, a.departure_time, b.arrival_time\s+\) c\s+ORDER BY c.departure_time, c.trip_id\s+LIMIT \$5`).
		WithArgs("A", "C", "2025-01-10", 28800, 10).
		WillReturnRows(sqlmock.NewRows([]string{
			"trip_id", "route_id", "route_long_name", "route_short_name",
			"departure_time", "arrival_time", "departure_sequence", "arrival_sequence",
		}).AddRow("T1", "R1", "A - C", "R1", 30000, 33600, 1, 3))

	candidates, err := repo.FindDirectConnectionCandidates(context.Background(), models.ConnectionQuery{
		StartStation: "A", EndStation: "C", Date: "2025-01-10", MinSeconds: 28800, Limit: 10,
	})
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, 1, candidates[0].DepartureSequence)
	assert.Equal(t, 3, candidates[0].ArrivalSequence)
	assert.Equal(t, 33600, candidates[0].ArrivalTime)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExpandTripStops(t *testing.T) {
	t.Run("Groups By Trip", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewTimetableRepository(db)

		mock.ExpectQuery(`FROM v_trip_stops`).
			WithArgs(sqlmock.AnyArg()).
			WillReturnRows(sqlmock.NewRows([]string{"trip_id", "stop_sequence", "stop_name"}).
				AddRow("T1", 1, "A").
				AddRow("T1", 2, "B").
				AddRow("T1", 3, "C").
				AddRow("T2", 5, "B").
				AddRow("T2", 9, "D"))

		stops, err := repo.ExpandTripStops(context.Background(), []string{"T1", "T2", "T1"})
		require.NoError(t, err)
		require.Len(t, stops, 2)
		require.Len(t, stops["T1"], 3)
		assert.Equal(t, "C", stops["T1"][2].StopName)
		assert.Equal(t, 9, stops["T2"][1].StopSequence)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Empty Input Skips Query", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewTimetableRepository(db)

		stops, err := repo.ExpandTripStops(context.Background(), nil)
		require.NoError(t, err)
		assert.Empty(t, stops)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Database Error", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewTimetableRepository(db)

		mock.ExpectQuery(`FROM v_trip_stops`).WillReturnError(fmt.Errorf("timeout"))

		_, err := repo.ExpandTripStops(context.Background(), []string{"T1"})
		assert.Error(t, err)
	})
}

func TestUniqueStrings(t *testing.T) {
	assert.Equal(t, []string{"b", "a", "c"}, uniqueStrings([]string{"b", "a", "b", "c", "a"}))
	assert.Empty(t, uniqueStrings(nil))
}

func TestGetServiceCalendar(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewTimetableRepository(db)
	ctx := context.Background()

	t.Run("Found", func(t *testing.T) {
		start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
		end := time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC)

		mock.ExpectQuery(`FROM calendar`).
			WithArgs("WD").
			WillReturnRows(sqlmock.NewRows([]string{
				"service_id", "monday", "tuesday", "wednesday", "thursday", "friday",
				"saturday", "sunday", "start_date", "end_date",
			}).AddRow("WD", int64(1), int64(1), int64(1), int64(1), int64(1), int64(0), int64(0), start, end))

		cal, err := repo.GetServiceCalendar(ctx, "WD")
		require.NoError(t, err)
		require.NotNil(t, cal)
		assert.True(t, cal.Monday)
		assert.False(t, cal.Sunday)
		assert.Equal(t, end, cal.EndDate)
	})

	t.Run("Missing", func(t *testing.T) {
		mock.ExpectQuery(`FROM calendar`).
			WithArgs("NOPE").
			WillReturnRows(sqlmock.NewRows([]string{"service_id"}))

		cal, err := repo.GetServiceCalendar(ctx, "NOPE")
		require.NoError(t, err)
		assert.Nil(t, cal)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetCalendarExceptions(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewTimetableRepository(db)

	date := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`FROM calendar_dates`).
		WithArgs("WD", "2025-01-10").
		WillReturnRows(sqlmock.NewRows([]string{"service_id", "date", "exception_type"}).
			AddRow("WD", date, 2))

	exceptions, err := repo.GetCalendarExceptions(context.Background(), "WD", "2025-01-10")
	require.NoError(t, err)
	require.Len(t, exceptions, 1)
	assert.Equal(t, models.ExceptionRemoved, exceptions[0].ExceptionType)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResolveStopIDByName(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewTimetableRepository(db)
	ctx := context.Background()

	t.Run("Lowest Id", func(t *testing.T) {
		mock.ExpectQuery(`ORDER BY stop_id LIMIT 1`).
			WithArgs("Tarnów").
			WillReturnRows(sqlmock.NewRows([]string{"stop_id"}).AddRow("100"))

		id, err := repo.ResolveStopIDByName(ctx, "Tarnów")
		require.NoError(t, err)
		assert.Equal(t, "100", id)
	})

	t.Run("Not Found", func(t *testing.T) {
		mock.ExpectQuery(`ORDER BY stop_id LIMIT 1`).
			WithArgs("Atlantyda").
			WillReturnRows(sqlmock.NewRows([]string{"stop_id"}))

		_, err := repo.ResolveStopIDByName(ctx, "Atlantyda")
		require.Error(t, err)
		assert.True(t, models.IsKind(err, models.ErrNotFound))
	})

	t.Run("Database Error", func(t *testing.T) {
		mock.ExpectQuery(`ORDER BY stop_id LIMIT 1`).
			WillReturnError(fmt.Errorf("broken pipe"))

		_, err := repo.ResolveStopIDByName(ctx, "Tarnów")
		require.Error(t, err)
		assert.False(t, models.IsKind(err, models.ErrNotFound))
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetAllStopNames(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewTimetableRepository(db)

	mock.ExpectQuery(`SELECT DISTINCT stop_name FROM stops`).
		WillReturnRows(sqlmock.NewRows([]string{"stop_name"}).AddRow("Bochnia").AddRow("Kraków Główny"))

	names, err := repo.GetAllStopNames(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Bochnia", "Kraków Główny"}, names)
	assert.NoError(t, mock.ExpectationsWereMet())
}
