package database

import (
	"context"
	"fmt"

	"github.com/traincheck/timetable-backend/internal/models"
)

// StatsRepository runs aggregate read queries
type StatsRepository struct {
	db DB
}

// NewStatsRepository creates a new stats repository
func NewStatsRepository(db DB) *StatsRepository {
	return &StatsRepository{db: db}
}

// GetTopStops returns the stops with the most stop-time rows
func (r *StatsRepository) GetTopStops(ctx context.Context, limit int) ([]models.StopUsage, error) {
	query := `
		SELECT s.stop_id, s.stop_name, COUNT(*) AS trip_count
		FROM stop_times st
		JOIN stops s ON s.stop_id = st.stop_id
		GROUP BY s.stop_id, s.stop_name
		ORDER BY trip_count DESC, s.stop_id
		LIMIT $1
	`

	stops := []models.StopUsage{}
	if err := r.db.SelectContext(ctx, &stops, query, limit); err != nil {
		return nil, fmt.Errorf("error getting top stops: %w", err)
	}
	return stops, nil
}

// GetAgencyActivity returns route and trip counts per agency
func (r *StatsRepository) GetAgencyActivity(ctx context.Context) ([]models.AgencyActivity, error) {
	query := `
		SELECT agency_id, agency_name, route_count, trip_count
		FROM v_agency_activity
		ORDER BY trip_count DESC, agency_id
	`

	rows := []models.AgencyActivity{}
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("error getting agency activity: %w", err)
	}
	return rows, nil
}

// GetRouteTripCounts returns the number of trips per route
func (r *StatsRepository) GetRouteTripCounts(ctx context.Context) ([]models.RouteTripCount, error) {
	query := `
		SELECT route_id, route_short_name, route_long_name, trip_count
		FROM v_route_trip_count
		ORDER BY trip_count DESC, route_id
	`

	rows := []models.RouteTripCount{}
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("error getting route trip counts: %w", err)
	}
	return rows, nil
}
