package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/traincheck/timetable-backend/internal/models"
)

// TimetableRepository reads candidate trips, stop sequences and service
// calendars for the timetable engine
type TimetableRepository struct {
	db DB
}

// NewTimetableRepository creates a new timetable repository
func NewTimetableRepository(db DB) *TimetableRepository {
	return &TimetableRepository{db: db}
}

// serviceActiveClause renders the calendar predicate for the service id held
// in serviceExpr on the date bound at dateParam. Weekday index is
// 1=Sunday..7=Saturday, matching the calendar column order below.
func serviceActiveClause(serviceExpr, dateParam string) string {
	return fmt.Sprintf(`(
		(
			EXISTS (
				SELECT 1 FROM calendar c
				WHERE c.service_id = %[1]s
				  AND %[2]s::date BETWEEN c.start_date AND c.end_date
				  AND (CASE EXTRACT(DOW FROM %[2]s::date)::int + 1
					WHEN 1 THEN c.sunday
					WHEN 2 THEN c.monday
					WHEN 3 THEN c.tuesday
					WHEN 4 THEN c.wednesday
					WHEN 5 THEN c.thursday
					WHEN 6 THEN c.friday
					WHEN 7 THEN c.saturday
				  END) = 1
			)
			OR EXISTS (
				SELECT 1 FROM calendar_dates cd
				WHERE cd.service_id = %[1]s AND cd.date = %[2]s::date AND cd.exception_type = %[3]d
			)
		)
		AND NOT EXISTS (
			SELECT 1 FROM calendar_dates cd
			WHERE cd.service_id = %[1]s AND cd.date = %[2]s::date AND cd.exception_type = %[4]d
		)
	)`, serviceExpr, dateParam, models.ExceptionAdded, models.ExceptionRemoved)
}

// FindDepartureCandidates returns trips leaving the station at or after
// MinSeconds, excluding the trip's terminal stop
func (r *TimetableRepository) FindDepartureCandidates(ctx context.Context, q models.StationQuery) ([]models.DepartureCandidate, error) {
	query := `
		SELECT d.trip_id, d.route_id, d.route_long_name, d.route_short_name,
		       d.departure_time, d.stop_sequence
		FROM v_departures d
		WHERE d.stop_name = $1
		  AND d.departure_time >= $3
		  AND ` + serviceActiveClause("d.service_id", "$2") + `
		ORDER BY d.departure_time, d.trip_id
		LIMIT $4
	`

	candidates := []models.DepartureCandidate{}
	if err := r.db.SelectContext(ctx, &candidates, query, q.Station, q.Date, q.MinSeconds, q.Limit); err != nil {
		return nil, fmt.Errorf("error finding departure candidates: %w", err)
	}
	return candidates, nil
}

// FindArrivalCandidates returns trips reaching the station at or after
// MinSeconds, excluding the trip's first stop
func (r *TimetableRepository) FindArrivalCandidates(ctx context.Context, q models.StationQuery) ([]models.ArrivalCandidate, error) {
	query := `
		SELECT a.trip_id, a.route_id, a.route_long_name, a.route_short_name,
		       a.arrival_time, a.stop_sequence
		FROM v_arrivals a
		WHERE a.stop_name = $1
		  AND a.arrival_time >= $3
		  AND ` + serviceActiveClause("a.service_id", "$2") + `
		ORDER BY a.arrival_time, a.trip_id
		LIMIT $4
	`

	candidates := []models.ArrivalCandidate{}
	if err := r.db.SelectContext(ctx, &candidates, query, q.Station, q.Date, q.MinSeconds, q.Limit); err != nil {
		return nil, fmt.Errorf("error finding arrival candidates: %w", err)
	}
	return candidates, nil
}

// FindDirectConnectionCandidates returns trips visiting the start station
// before the end station. A trip passing both stations more than once yields
// one candidate: its earliest departure, then its earliest arrival after it.
func (r *TimetableRepository) FindDirectConnectionCandidates(ctx context.Context, q models.ConnectionQuery) ([]models.ConnectionCandidate, error) {
	query := `
		SELECT c.trip_id, c.route_id, c.route_long_name, c.route_short_name,
		       c.departure_time, c.arrival_time,
		       c.departure_sequence, c.arrival_sequence
		FROM (
			SELECT DISTINCT ON (t.trip_id)
			       t.trip_id, r.route_id, r.route_long_name, r.route_short_name,
			       a.departure_time, b.arrival_time,
			       a.stop_sequence AS departure_sequence,
			       b.stop_sequence AS arrival_sequence
			FROM stop_times a
			JOIN stops sa ON sa.stop_id = a.stop_id
			JOIN stop_times b ON b.trip_id = a.trip_id AND b.stop_sequence > a.stop_sequence
			JOIN stops sb ON sb.stop_id = b.stop_id
			JOIN trips t ON t.trip_id = a.trip_id
			JOIN routes r ON r.route_id = t.route_id
			WHERE sa.stop_name = $1
			  AND sb.stop_name = $2
			  AND a.departure_time >= $4
			  AND ` + serviceActiveClause("t.service_id", "$3") + `
			ORDER BY t.trip_id, a.departure_time, b.arrival_time
		) c
		ORDER BY c.departure_time, c.trip_id
		LIMIT $5
	`

	candidates := []models.ConnectionCandidate{}
	err := r.db.SelectContext(ctx, &candidates, query,
		q.StartStation, q.EndStation, q.Date, q.MinSeconds, q.Limit)
	if err != nil {
		return nil, fmt.Errorf("error finding connection candidates: %w", err)
	}
	return candidates, nil
}

// ExpandTripStops loads every stop of the given trips in sequence order
func (r *TimetableRepository) ExpandTripStops(ctx context.Context, tripIDs []string) (map[string][]models.TripStop, error) {
	ids := uniqueStrings(tripIDs)
	result := make(map[string][]models.TripStop, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	query := `
		SELECT trip_id, stop_sequence, stop_name
		FROM v_trip_stops
		WHERE trip_id = ANY($1)
		ORDER BY trip_id, stop_sequence
	`

	var rows []models.TripStop
	if err := r.db.SelectContext(ctx, &rows, query, pq.Array(ids)); err != nil {
		return nil, fmt.Errorf("error expanding trip stops: %w", err)
	}

	for _, row := range rows {
		result[row.TripID] = append(result[row.TripID], row)
	}
	return result, nil
}

// GetServiceCalendar returns the weekly pattern of a service, or nil when the
// service has no calendar row
func (r *TimetableRepository) GetServiceCalendar(ctx context.Context, serviceID string) (*models.ServiceCalendar, error) {
	query := `
		SELECT service_id, monday, tuesday, wednesday, thursday, friday,
		       saturday, sunday, start_date, end_date
		FROM calendar
		WHERE service_id = $1
	`

	var cal models.ServiceCalendar
	err := r.db.GetContext(ctx, &cal, query, serviceID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("error getting service calendar: %w", err)
	}
	return &cal, nil
}

// GetCalendarExceptions returns the exceptions for a service on one date
func (r *TimetableRepository) GetCalendarExceptions(ctx context.Context, serviceID, date string) ([]models.CalendarException, error) {
	query := `
		SELECT service_id, date, exception_type
		FROM calendar_dates
		WHERE service_id = $1 AND date = $2::date
	`

	exceptions := []models.CalendarException{}
	if err := r.db.SelectContext(ctx, &exceptions, query, serviceID, date); err != nil {
		return nil, fmt.Errorf("error getting calendar exceptions: %w", err)
	}
	return exceptions, nil
}

// ResolveStopIDByName picks the lowest stop id carrying the exact name
func (r *TimetableRepository) ResolveStopIDByName(ctx context.Context, name string) (string, error) {
	query := `SELECT stop_id FROM stops WHERE stop_name = $1 ORDER BY stop_id LIMIT 1`

	var stopID string
	err := r.db.GetContext(ctx, &stopID, query, name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", models.NewNotFound("station %q not found", name)
		}
		return "", fmt.Errorf("error resolving stop %q: %w", name, err)
	}
	return stopID, nil
}

// GetAllStopNames returns distinct stop names in ascending order
func (r *TimetableRepository) GetAllStopNames(ctx context.Context) ([]string, error) {
	names := []string{}
	err := r.db.SelectContext(ctx, &names, `SELECT DISTINCT stop_name FROM stops ORDER BY stop_name`)
	if err != nil {
		return nil, fmt.Errorf("error getting stop names: %w", err)
	}
	return names, nil
}

func uniqueStrings(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
