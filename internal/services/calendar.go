package services

import (
	"context"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/traincheck/timetable-backend/internal/models"
	"github.com/traincheck/timetable-backend/pkg/validator"
)

// CalendarStore reads service calendars and their dated exceptions
type CalendarStore interface {
	GetServiceCalendar(ctx context.Context, serviceID string) (*models.ServiceCalendar, error)
	GetCalendarExceptions(ctx context.Context, serviceID, date string) ([]models.CalendarException, error)
}

// IsServiceActiveOn evaluates whether a service runs on date. A REMOVE
// exception always wins, then an ADD exception, then the weekly pattern
// within its validity range. A nil calendar with no exceptions is inactive.
func IsServiceActiveOn(cal *models.ServiceCalendar, exceptions []models.CalendarException, date time.Time) bool {
	day := date.Format(validator.DateLayout)

	added := false
	for _, e := range exceptions {
		if e.Date.Format(validator.DateLayout) != day {
			continue
		}
		switch e.ExceptionType {
		case models.ExceptionRemoved:
			return false
		case models.ExceptionAdded:
			added = true
		}
	}
	if added {
		return true
	}

	if cal == nil {
		return false
	}

	// YYYY-MM-DD compares chronologically as a string
	if day < cal.StartDate.Format(validator.DateLayout) || day > cal.EndDate.Format(validator.DateLayout) {
		return false
	}
	weekday := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	return cal.RunsOnWeekday(validator.DayOfWeek(weekday))
}

// CalendarService answers service activity checks against the store
type CalendarService struct {
	store  CalendarStore
	logger *logrus.Logger
}

// NewCalendarService creates a new calendar service
func NewCalendarService(store CalendarStore, logger *logrus.Logger) *CalendarService {
	return &CalendarService{
		store:  store,
		logger: logger,
	}
}

// IsServiceActive reports whether serviceID runs on the given date.
// Unknown services are inactive.
func (s *CalendarService) IsServiceActive(ctx context.Context, serviceID, date string) (*models.ServiceActivity, error) {
	serviceID = strings.TrimSpace(serviceID)
	if serviceID == "" {
		return nil, models.NewInvalidInput("service id is required")
	}

	day, err := validator.ParseDate(date)
	if err != nil {
		return nil, models.NewInvalidInput("%s", err.Error())
	}
	normalized := day.Format(validator.DateLayout)

	cal, err := s.store.GetServiceCalendar(ctx, serviceID)
	if err != nil {
		return nil, storeError(s.logger, "load service calendar", err)
	}

	exceptions, err := s.store.GetCalendarExceptions(ctx, serviceID, normalized)
	if err != nil {
		return nil, storeError(s.logger, "load calendar exceptions", err)
	}

	active := IsServiceActiveOn(cal, exceptions, day)

	s.logger.WithFields(logrus.Fields{
		"service_id": serviceID,
		"date":       normalized,
		"active":     active,
	}).Debug("Service activity resolved")

	return &models.ServiceActivity{
		ServiceID: serviceID,
		Date:      normalized,
		Active:    active,
	}, nil
}
