package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/traincheck/timetable-backend/internal/models"
)

const uniqueViolation = "23505"

// CustomTripRepository writes the rows of ad-hoc direct trips
type CustomTripRepository struct {
	db        DB
	timetable *TimetableRepository
}

// NewCustomTripRepository creates a new custom trip repository
func NewCustomTripRepository(db DB) *CustomTripRepository {
	return &CustomTripRepository{db: db, timetable: NewTimetableRepository(db)}
}

// UpsertAgency inserts the agency if its id is not taken yet
func (r *CustomTripRepository) UpsertAgency(ctx context.Context, agency models.Agency) error {
	query := `
		INSERT INTO agency (agency_id, agency_name, agency_url, agency_timezone)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (agency_id) DO NOTHING
	`
	_, err := r.db.ExecContext(ctx, query, agency.ID, agency.Name, agency.URL, agency.Timezone)
	if err != nil {
		return fmt.Errorf("error upserting agency: %w", err)
	}
	return nil
}

// UpsertRoute inserts the route or refreshes its long name. A route owned by
// another agency, such as an imported GTFS route, is left untouched.
func (r *CustomTripRepository) UpsertRoute(ctx context.Context, route models.Route) error {
	query := `
		INSERT INTO routes (route_id, agency_id, route_short_name, route_long_name, route_type)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (route_id) DO UPDATE SET route_long_name = EXCLUDED.route_long_name
		WHERE routes.agency_id = EXCLUDED.agency_id
	`
	_, err := r.db.ExecContext(ctx, query, route.ID, route.AgencyID, route.ShortName, route.LongName, route.Type)
	if err != nil {
		return fmt.Errorf("error upserting route: %w", err)
	}
	return nil
}

// InsertTrip inserts a new trip. A taken trip id yields a Conflict error.
func (r *CustomTripRepository) InsertTrip(ctx context.Context, trip models.Trip) error {
	query := `INSERT INTO trips (trip_id, route_id, service_id) VALUES ($1, $2, $3)`
	_, err := r.db.ExecContext(ctx, query, trip.ID, trip.RouteID, trip.ServiceID)
	if err != nil {
		if isUniqueViolation(err) {
			return models.NewConflict(fmt.Sprintf("trip %s already exists", trip.ID), err)
		}
		return fmt.Errorf("error inserting trip: %w", err)
	}
	return nil
}

// UpsertCalendarException writes the exception type for a service and date
func (r *CustomTripRepository) UpsertCalendarException(ctx context.Context, serviceID, date string, exceptionType int) error {
	query := `
		INSERT INTO calendar_dates (service_id, date, exception_type)
		VALUES ($1, $2::date, $3)
		ON CONFLICT (service_id, date) DO UPDATE SET exception_type = EXCLUDED.exception_type
	`
	_, err := r.db.ExecContext(ctx, query, serviceID, date, exceptionType)
	if err != nil {
		return fmt.Errorf("error upserting calendar exception: %w", err)
	}
	return nil
}

// InsertStopTimePair inserts sequence 1 at the start stop and sequence 2 at
// the end stop
func (r *CustomTripRepository) InsertStopTimePair(ctx context.Context, tripID, startStopID, endStopID string, departure, arrival int) error {
	query := `
		INSERT INTO stop_times (trip_id, stop_sequence, stop_id, arrival_time, departure_time)
		VALUES ($1, 1, $2, $4, $4), ($1, 2, $3, $5, $5)
	`
	_, err := r.db.ExecContext(ctx, query, tripID, startStopID, endStopID, departure, arrival)
	if err != nil {
		if isUniqueViolation(err) {
			return models.NewConflict(fmt.Sprintf("stop times for trip %s already exist", tripID), err)
		}
		return fmt.Errorf("error inserting stop times: %w", err)
	}
	return nil
}

// ResolveStopIDByName picks the lowest stop id carrying the exact name
func (r *CustomTripRepository) ResolveStopIDByName(ctx context.Context, name string) (string, error) {
	return r.timetable.ResolveStopIDByName(ctx, name)
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}
