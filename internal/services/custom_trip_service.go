package services

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/traincheck/timetable-backend/internal/models"
	"github.com/traincheck/timetable-backend/pkg/validator"
)

// CustomTripStore is the write side used for ad-hoc trips
type CustomTripStore interface {
	UpsertAgency(ctx context.Context, agency models.Agency) error
	UpsertRoute(ctx context.Context, route models.Route) error
	InsertTrip(ctx context.Context, trip models.Trip) error
	UpsertCalendarException(ctx context.Context, serviceID, date string, exceptionType int) error
	ResolveStopIDByName(ctx context.Context, name string) (string, error)
	InsertStopTimePair(ctx context.Context, tripID, startStopID, endStopID string, departure, arrival int) error
}

// CustomTripService creates two-stop direct trips running on a single date
type CustomTripService struct {
	store    CustomTripStore
	timezone string
	logger   *logrus.Logger
}

// NewCustomTripService creates a new custom trip service
func NewCustomTripService(store CustomTripStore, timezone string, logger *logrus.Logger) *CustomTripService {
	return &CustomTripService{
		store:    store,
		timezone: timezone,
		logger:   logger,
	}
}

type customTripPlan struct {
	route     string
	date      string // YYYY-MM-DD
	compact   string // YYYYMMDD
	start     string
	end       string
	departure int
	arrival   int
}

func validateCustomTrip(req models.CustomTripRequest) (*customTripPlan, error) {
	fields := []struct {
		name  string
		value string
	}{
		{"route_name", req.RouteName},
		{"date", req.Date},
		{"start_station", req.StartStation},
		{"end_station", req.EndStation},
		{"departure_time", req.DepartureTime},
		{"arrival_time", req.ArrivalTime},
	}
	var missing []string
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return nil, models.NewInvalidInput("missing required fields: %s", strings.Join(missing, ", "))
	}

	day, err := validator.ParseDate(req.Date)
	if err != nil {
		return nil, models.NewInvalidInput("%s", err.Error())
	}
	departure, err := validator.ParseTimeOfDay(req.DepartureTime)
	if err != nil {
		return nil, models.NewInvalidInput("departure_time: %s", err.Error())
	}
	arrival, err := validator.ParseTimeOfDay(req.ArrivalTime)
	if err != nil {
		return nil, models.NewInvalidInput("arrival_time: %s", err.Error())
	}
	if arrival <= departure {
		return nil, models.NewInvalidInput("arrival_time must be later than departure_time")
	}
	if sameStation(req.StartStation, req.EndStation) {
		return nil, models.NewInvalidInput("start and end station must differ")
	}

	return &customTripPlan{
		route:     strings.TrimSpace(req.RouteName),
		date:      day.Format(validator.DateLayout),
		compact:   day.Format(validator.CompactDateLayout),
		start:     strings.TrimSpace(req.StartStation),
		end:       strings.TrimSpace(req.EndStation),
		departure: departure,
		arrival:   arrival,
	}, nil
}

// CreateCustomTrip validates the request and writes agency, route, trip,
// calendar exception and stop times in that order. The first failing step
// aborts the rest; earlier steps are not rolled back.
func (s *CustomTripService) CreateCustomTrip(ctx context.Context, req models.CustomTripRequest) (*models.CustomTripResult, error) {
	plan, err := validateCustomTrip(req)
	if err != nil {
		return nil, err
	}

	tripID := plan.route + "_" + plan.compact
	serviceID := tripID
	log := s.logger.WithFields(logrus.Fields{
		"route":   plan.route,
		"trip_id": tripID,
		"date":    plan.date,
	})

	agency := models.Agency{
		ID:       models.CustomAgencyID,
		Name:     models.CustomAgencyName,
		URL:      models.CustomAgencyURL,
		Timezone: s.timezone,
	}
	if err := s.store.UpsertAgency(ctx, agency); err != nil {
		return nil, storeError(s.logger, "upsert custom agency", err)
	}

	route := models.Route{
		ID:        plan.route,
		AgencyID:  models.CustomAgencyID,
		ShortName: models.CustomRouteShort,
		LongName:  plan.route,
		Type:      models.RouteTypeRail,
	}
	if err := s.store.UpsertRoute(ctx, route); err != nil {
		return nil, storeError(s.logger, "upsert custom route", err)
	}

	trip := models.Trip{ID: tripID, RouteID: plan.route, ServiceID: serviceID}
	if err := s.store.InsertTrip(ctx, trip); err != nil {
		if models.IsKind(err, models.ErrConflict) {
			log.Warn("Custom trip already exists")
		}
		return nil, storeError(s.logger, "insert custom trip", err)
	}

	if err := s.store.UpsertCalendarException(ctx, serviceID, plan.date, models.ExceptionAdded); err != nil {
		return nil, storeError(s.logger, "upsert calendar exception", err)
	}

	startStopID, err := s.store.ResolveStopIDByName(ctx, plan.start)
	if err != nil {
		return nil, storeError(s.logger, "resolve start station", err)
	}
	endStopID, err := s.store.ResolveStopIDByName(ctx, plan.end)
	if err != nil {
		return nil, storeError(s.logger, "resolve end station", err)
	}

	if err := s.store.InsertStopTimePair(ctx, tripID, startStopID, endStopID, plan.departure, plan.arrival); err != nil {
		return nil, storeError(s.logger, "insert custom stop times", err)
	}

	log.Info("Custom trip created")

	return &models.CustomTripResult{
		RouteID:       route.ID,
		RouteLongName: route.LongName,
		TripID:        tripID,
		ServiceID:     serviceID,
		Date:          plan.date,
	}, nil
}
