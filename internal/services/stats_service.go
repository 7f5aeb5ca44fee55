package services

import (
	"context"

	"github.com/sirupsen/logrus"
	"github.com/traincheck/timetable-backend/internal/models"
)

const (
	defaultTopStops = 10
	maxTopStops     = 100
)

// StatsStore runs aggregate queries
type StatsStore interface {
	GetTopStops(ctx context.Context, limit int) ([]models.StopUsage, error)
	GetAgencyActivity(ctx context.Context) ([]models.AgencyActivity, error)
	GetRouteTripCounts(ctx context.Context) ([]models.RouteTripCount, error)
}

// StatsService exposes dataset statistics
type StatsService struct {
	store  StatsStore
	logger *logrus.Logger
}

// NewStatsService creates a new stats service
func NewStatsService(store StatsStore, logger *logrus.Logger) *StatsService {
	return &StatsService{store: store, logger: logger}
}

// TopStops returns the busiest stops. limit 0 means the default; other
// values outside 1..100 are rejected.
func (s *StatsService) TopStops(ctx context.Context, limit int) ([]models.StopUsage, error) {
	if limit == 0 {
		limit = defaultTopStops
	}
	if limit < 1 || limit > maxTopStops {
		return nil, models.NewInvalidInput("limit must be between 1 and %d", maxTopStops)
	}

	stops, err := s.store.GetTopStops(ctx, limit)
	if err != nil {
		return nil, storeError(s.logger, "get top stops", err)
	}
	return stops, nil
}

func (s *StatsService) AgencyActivity(ctx context.Context) ([]models.AgencyActivity, error) {
	rows, err := s.store.GetAgencyActivity(ctx)
	if err != nil {
		return nil, storeError(s.logger, "get agency activity", err)
	}
	return rows, nil
}

func (s *StatsService) RouteTripCounts(ctx context.Context) ([]models.RouteTripCount, error) {
	rows, err := s.store.GetRouteTripCounts(ctx)
	if err != nil {
		return nil, storeError(s.logger, "get route trip counts", err)
	}
	return rows, nil
}
