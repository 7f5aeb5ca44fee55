package services

import (
	"context"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/traincheck/timetable-backend/internal/config"
	"github.com/traincheck/timetable-backend/internal/models"
	"github.com/traincheck/timetable-backend/pkg/validator"
)

// TimetableStore is the read side of the timetable engine
type TimetableStore interface {
	FindDepartureCandidates(ctx context.Context, q models.StationQuery) ([]models.DepartureCandidate, error)
	FindArrivalCandidates(ctx context.Context, q models.StationQuery) ([]models.ArrivalCandidate, error)
	FindDirectConnectionCandidates(ctx context.Context, q models.ConnectionQuery) ([]models.ConnectionCandidate, error)
	ExpandTripStops(ctx context.Context, tripIDs []string) (map[string][]models.TripStop, error)
	GetAllStopNames(ctx context.Context) ([]string, error)
}

// TimetableService answers departure, arrival and direct connection queries.
// Candidates are selected first, then only the winning trips are expanded.
type TimetableService struct {
	store        TimetableStore
	defaultLimit int
	maxLimit     int
	logger       *logrus.Logger
}

// NewTimetableService creates a new timetable service. Limits are clamped
// to config.HardMaxLimit.
func NewTimetableService(store TimetableStore, cfg config.TimetableConfig, logger *logrus.Logger) *TimetableService {
	maxLimit := cfg.MaxLimit
	if maxLimit <= 0 || maxLimit > config.HardMaxLimit {
		maxLimit = config.HardMaxLimit
	}
	defaultLimit := cfg.DefaultLimit
	if defaultLimit <= 0 || defaultLimit > maxLimit {
		defaultLimit = maxLimit
	}

	return &TimetableService{
		store:        store,
		defaultLimit: defaultLimit,
		maxLimit:     maxLimit,
		logger:       logger,
	}
}

func (s *TimetableService) effectiveLimit(requested int) int {
	if requested <= 0 {
		return s.defaultLimit
	}
	if requested > s.maxLimit {
		return s.maxLimit
	}
	return requested
}

// parseDateTime validates the date and time strings of a query
func parseDateTime(date, clock string) (string, int, error) {
	normalized, err := validator.NormalizeDate(date)
	if err != nil {
		return "", 0, models.NewInvalidInput("%s", err.Error())
	}
	seconds, err := validator.ParseTimeOfDay(clock)
	if err != nil {
		return "", 0, models.NewInvalidInput("%s", err.Error())
	}
	return normalized, seconds, nil
}

func (s *TimetableService) stationQuery(req models.StationBoardRequest) (models.StationQuery, error) {
	station := strings.TrimSpace(req.StationName)
	if station == "" {
		return models.StationQuery{}, models.NewInvalidInput("stationName is required")
	}
	date, seconds, err := parseDateTime(req.Date, req.Time)
	if err != nil {
		return models.StationQuery{}, err
	}
	return models.StationQuery{
		Station:    station,
		Date:       date,
		MinSeconds: seconds,
		Limit:      s.effectiveLimit(req.Limit),
	}, nil
}

// Departures returns the next trips leaving a station
func (s *TimetableService) Departures(ctx context.Context, req models.StationBoardRequest) ([]models.Departure, error) {
	start := time.Now()

	q, err := s.stationQuery(req)
	if err != nil {
		return nil, err
	}

	candidates, err := s.store.FindDepartureCandidates(ctx, q)
	if err != nil {
		return nil, storeError(s.logger, "find departures", err)
	}
	if len(candidates) == 0 {
		return []models.Departure{}, nil
	}

	ids := make([]string, 0, len(candidates))
	for _, c := range candidates {
		ids = append(ids, c.TripID)
	}
	expanded, err := s.store.ExpandTripStops(ctx, ids)
	if err != nil {
		return nil, storeError(s.logger, "expand trip stops", err)
	}

	results := assembleDepartures(q.Station, candidates, expanded)

	s.logger.WithFields(logrus.Fields{
		"station":    q.Station,
		"date":       q.Date,
		"candidates": len(candidates),
		"results":    len(results),
		"elapsed_ms": time.Since(start).Milliseconds(),
	}).Info("Departures query completed")

	return results, nil
}

// Arrivals returns the next trips reaching a station
func (s *TimetableService) Arrivals(ctx context.Context, req models.StationBoardRequest) ([]models.Arrival, error) {
	start := time.Now()

	q, err := s.stationQuery(req)
	if err != nil {
		return nil, err
	}

	candidates, err := s.store.FindArrivalCandidates(ctx, q)
	if err != nil {
		return nil, storeError(s.logger, "find arrivals", err)
	}
	if len(candidates) == 0 {
		return []models.Arrival{}, nil
	}

	ids := make([]string, 0, len(candidates))
	for _, c := range candidates {
		ids = append(ids, c.TripID)
	}
	expanded, err := s.store.ExpandTripStops(ctx, ids)
	if err != nil {
		return nil, storeError(s.logger, "expand trip stops", err)
	}

	results := assembleArrivals(q.Station, candidates, expanded)

	s.logger.WithFields(logrus.Fields{
		"station":    q.Station,
		"date":       q.Date,
		"candidates": len(candidates),
		"results":    len(results),
		"elapsed_ms": time.Since(start).Milliseconds(),
	}).Info("Arrivals query completed")

	return results, nil
}

// Connections returns direct trips from the start station to the end station
func (s *TimetableService) Connections(ctx context.Context, req models.ConnectionRequest) ([]models.Connection, error) {
	start := time.Now()

	from := strings.TrimSpace(req.StartStation)
	to := strings.TrimSpace(req.EndStation)
	if from == "" || to == "" {
		return nil, models.NewInvalidInput("startStation and endStation are required")
	}
	if sameStation(from, to) {
		return nil, models.NewInvalidInput("start and end station must differ")
	}

	date, seconds, err := parseDateTime(req.Date, req.Time)
	if err != nil {
		return nil, err
	}

	q := models.ConnectionQuery{
		StartStation: from,
		EndStation:   to,
		Date:         date,
		MinSeconds:   seconds,
		Limit:        s.effectiveLimit(req.Limit),
	}

	candidates, err := s.store.FindDirectConnectionCandidates(ctx, q)
	if err != nil {
		return nil, storeError(s.logger, "find connections", err)
	}
	if len(candidates) == 0 {
		return []models.Connection{}, nil
	}

	ids := make([]string, 0, len(candidates))
	for _, c := range candidates {
		ids = append(ids, c.TripID)
	}
	expanded, err := s.store.ExpandTripStops(ctx, ids)
	if err != nil {
		return nil, storeError(s.logger, "expand trip stops", err)
	}

	results := assembleConnections(date, candidates, expanded)

	s.logger.WithFields(logrus.Fields{
		"from":       from,
		"to":         to,
		"date":       date,
		"results":    len(results),
		"elapsed_ms": time.Since(start).Milliseconds(),
	}).Info("Connections query completed")

	return results, nil
}

// AllStopNames returns every distinct station name
func (s *TimetableService) AllStopNames(ctx context.Context) ([]string, error) {
	names, err := s.store.GetAllStopNames(ctx)
	if err != nil {
		return nil, storeError(s.logger, "list stop names", err)
	}
	return names, nil
}
