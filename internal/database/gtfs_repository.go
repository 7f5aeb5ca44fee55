package database

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/traincheck/timetable-backend/internal/models"
	"github.com/traincheck/timetable-backend/pkg/validator"
)

// gtfsTables lists the feed tables, dependents first
var gtfsTables = []string{"stop_times", "stops", "trips", "calendar_dates", "calendar", "routes", "agency"}

// GTFSRepository bulk loads and clears static feed tables
type GTFSRepository struct {
	db DB
}

// NewGTFSRepository creates a new GTFS repository
func NewGTFSRepository(db DB) *GTFSRepository {
	return &GTFSRepository{db: db}
}

func truncateStatement() string {
	return "TRUNCATE TABLE " + strings.Join(gtfsTables, ", ")
}

// TruncateTables removes every row of the feed tables. Users are kept.
func (r *GTFSRepository) TruncateTables(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, truncateStatement()); err != nil {
		return fmt.Errorf("error truncating GTFS tables: %w", err)
	}
	return nil
}

// ReplaceStaticFeed swaps the stored feed for the given one inside a single
// transaction
func (r *GTFSRepository) ReplaceStaticFeed(ctx context.Context, feed *models.StaticFeed) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("error starting import transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, truncateStatement()); err != nil {
		return fmt.Errorf("error truncating GTFS tables: %w", err)
	}

	err = copyRows(ctx, tx, "agency",
		[]string{"agency_id", "agency_name", "agency_url", "agency_timezone"},
		len(feed.Agencies), func(i int) []interface{} {
			a := feed.Agencies[i]
			return []interface{}{a.ID, a.Name, a.URL, a.Timezone}
		})
	if err != nil {
		return err
	}

	err = copyRows(ctx, tx, "routes",
		[]string{"route_id", "agency_id", "route_short_name", "route_long_name", "route_type"},
		len(feed.Routes), func(i int) []interface{} {
			rt := feed.Routes[i]
			return []interface{}{rt.ID, rt.AgencyID, rt.ShortName, rt.LongName, rt.Type}
		})
	if err != nil {
		return err
	}

	err = copyRows(ctx, tx, "calendar",
		[]string{"service_id", "monday", "tuesday", "wednesday", "thursday", "friday",
			"saturday", "sunday", "start_date", "end_date"},
		len(feed.Calendars), func(i int) []interface{} {
			c := feed.Calendars[i]
			return []interface{}{
				c.ServiceID,
				boolToInt(c.Monday), boolToInt(c.Tuesday), boolToInt(c.Wednesday),
				boolToInt(c.Thursday), boolToInt(c.Friday), boolToInt(c.Saturday),
				boolToInt(c.Sunday),
				c.StartDate.Format(validator.DateLayout), c.EndDate.Format(validator.DateLayout),
			}
		})
	if err != nil {
		return err
	}

	err = copyRows(ctx, tx, "calendar_dates",
		[]string{"service_id", "date", "exception_type"},
		len(feed.Exceptions), func(i int) []interface{} {
			e := feed.Exceptions[i]
			return []interface{}{e.ServiceID, e.Date.Format(validator.DateLayout), e.ExceptionType}
		})
	if err != nil {
		return err
	}

	err = copyRows(ctx, tx, "trips",
		[]string{"trip_id", "route_id", "service_id"},
		len(feed.Trips), func(i int) []interface{} {
			t := feed.Trips[i]
			return []interface{}{t.ID, t.RouteID, t.ServiceID}
		})
	if err != nil {
		return err
	}

	err = copyRows(ctx, tx, "stops",
		[]string{"stop_id", "stop_name", "stop_lat", "stop_lon"},
		len(feed.Stops), func(i int) []interface{} {
			s := feed.Stops[i]
			return []interface{}{s.ID, s.Name, s.Latitude, s.Longitude}
		})
	if err != nil {
		return err
	}

	err = copyRows(ctx, tx, "stop_times",
		[]string{"trip_id", "stop_sequence", "stop_id", "arrival_time", "departure_time"},
		len(feed.StopTimes), func(i int) []interface{} {
			st := feed.StopTimes[i]
			return []interface{}{st.TripID, st.StopSequence, st.StopID, st.ArrivalTime, st.DepartureTime}
		})
	if err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("error committing import transaction: %w", err)
	}
	return nil
}

// copyRows streams n rows into table with COPY FROM STDIN. Empty tables are
// skipped.
func copyRows(ctx context.Context, tx *sqlx.Tx, table string, columns []string, n int, row func(i int) []interface{}) error {
	if n == 0 {
		return nil
	}

	stmt, err := tx.PrepareContext(ctx, pq.CopyIn(table, columns...))
	if err != nil {
		return fmt.Errorf("error preparing copy into %s: %w", table, err)
	}
	defer stmt.Close()

	for i := 0; i < n; i++ {
		if _, err := stmt.ExecContext(ctx, row(i)...); err != nil {
			return fmt.Errorf("error copying row %d into %s: %w", i, table, err)
		}
	}

	if _, err := stmt.ExecContext(ctx); err != nil {
		return fmt.Errorf("error flushing copy into %s: %w", table, err)
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
