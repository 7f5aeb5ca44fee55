package services

import (
	"context"
	"fmt"
	"io"
	"sort"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"github.com/traincheck/timetable-backend/internal/config"
	"github.com/traincheck/timetable-backend/internal/models"
	"github.com/traincheck/timetable-backend/pkg/validator"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

var testTimetableConfig = config.TimetableConfig{DefaultLimit: 10, MaxLimit: 50, LocalTimezone: "Europe/Warsaw"}

// memStore is an in-memory timetable that evaluates the same selection rules
// as the SQL repositories
type memStore struct {
	agencies   map[string]models.Agency
	routes     map[string]models.Route
	trips      map[string]models.Trip
	calendars  map[string]*models.ServiceCalendar
	exceptions map[string]models.CalendarException // service_id|date
	stops      []models.Stop
	stopTimes  map[string][]models.StopTime // by trip, sorted by sequence

	calls   int
	failErr error
}

func newMemStore() *memStore {
	return &memStore{
		agencies:   map[string]models.Agency{},
		routes:     map[string]models.Route{},
		trips:      map[string]models.Trip{},
		calendars:  map[string]*models.ServiceCalendar{},
		exceptions: map[string]models.CalendarException{},
		stopTimes:  map[string][]models.StopTime{},
	}
}

func mustDate(t *testing.T, raw string) time.Time {
	t.Helper()
	d, err := validator.ParseDate(raw)
	require.NoError(t, err)
	return d
}

func (m *memStore) addStop(id, name string) {
	m.stops = append(m.stops, models.Stop{ID: id, Name: name})
}

func (m *memStore) addCalendar(cal models.ServiceCalendar) {
	c := cal
	m.calendars[cal.ServiceID] = &c
}

// addTrip registers a trip whose stops are given as "stopID@HH:MM" in
// sequence order starting at seqStart with the given step
func (m *memStore) addTrip(t *testing.T, tripID, routeID, serviceID string, seqStart, step int, visits ...string) {
	t.Helper()
	if _, ok := m.routes[routeID]; !ok {
		m.routes[routeID] = models.Route{ID: routeID, AgencyID: "KML", ShortName: routeID, LongName: routeID + " line", Type: 2}
	}
	m.trips[tripID] = models.Trip{ID: tripID, RouteID: routeID, ServiceID: serviceID}
	seq := seqStart
	for _, v := range visits {
		var stopID, clock string
		for i := len(v) - 1; i >= 0; i-- {
			if v[i] == '@' {
				stopID, clock = v[:i], v[i+1:]
				break
			}
		}
		secs, err := validator.ParseTimeOfDay(clock)
		require.NoError(t, err)
		m.stopTimes[tripID] = append(m.stopTimes[tripID], models.StopTime{
			TripID: tripID, StopSequence: seq, StopID: stopID, ArrivalTime: secs, DepartureTime: secs,
		})
		seq += step
	}
}

func (m *memStore) enter() error {
	m.calls++
	return m.failErr
}

func (m *memStore) stopName(id string) string {
	for _, s := range m.stops {
		if s.ID == id {
			return s.Name
		}
	}
	return ""
}

func (m *memStore) exceptionsOn(serviceID, date string) []models.CalendarException {
	var out []models.CalendarException
	if e, ok := m.exceptions[serviceID+"|"+date]; ok {
		out = append(out, e)
	}
	return out
}

func (m *memStore) active(serviceID, date string) bool {
	d, _ := validator.ParseDate(date)
	return IsServiceActiveOn(m.calendars[serviceID], m.exceptionsOn(serviceID, date), d)
}

func (m *memStore) sortedTripIDs() []string {
	ids := make([]string, 0, len(m.trips))
	for id := range m.trips {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (m *memStore) FindDepartureCandidates(ctx context.Context, q models.StationQuery) ([]models.DepartureCandidate, error) {
	if err := m.enter(); err != nil {
		return nil, err
	}
	out := []models.DepartureCandidate{}
	for _, id := range m.sortedTripIDs() {
		trip := m.trips[id]
		if !m.active(trip.ServiceID, q.Date) {
			continue
		}
		sts := m.stopTimes[id]
		for i, st := range sts {
			if i == len(sts)-1 {
				break
			}
			if m.stopName(st.StopID) == q.Station && st.DepartureTime >= q.MinSeconds {
				r := m.routes[trip.RouteID]
				out = append(out, models.DepartureCandidate{
					TripID: id, RouteID: r.ID, RouteLongName: r.LongName, RouteShortName: r.ShortName,
					DepartureTime: st.DepartureTime, StationSequence: st.StopSequence,
				})
			}
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].DepartureTime != out[j].DepartureTime {
			return out[i].DepartureTime < out[j].DepartureTime
		}
		return out[i].TripID < out[j].TripID
	})
	if len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func (m *memStore) FindArrivalCandidates(ctx context.Context, q models.StationQuery) ([]models.ArrivalCandidate, error) {
	if err := m.enter(); err != nil {
		return nil, err
	}
	out := []models.ArrivalCandidate{}
	for _, id := range m.sortedTripIDs() {
		trip := m.trips[id]
		if !m.active(trip.ServiceID, q.Date) {
			continue
		}
		for i, st := range m.stopTimes[id] {
			if i == 0 {
				continue
			}
			if m.stopName(st.StopID) == q.Station && st.ArrivalTime >= q.MinSeconds {
				r := m.routes[trip.RouteID]
				out = append(out, models.ArrivalCandidate{
					TripID: id, RouteID: r.ID, RouteLongName: r.LongName, RouteShortName: r.ShortName,
					ArrivalTime: st.ArrivalTime, StationSequence: st.StopSequence,
				})
			}
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].ArrivalTime != out[j].ArrivalTime {
			return out[i].ArrivalTime < out[j].ArrivalTime
		}
		return out[i].TripID < out[j].TripID
	})
	if len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func (m *memStore) FindDirectConnectionCandidates(ctx context.Context, q models.ConnectionQuery) ([]models.ConnectionCandidate, error) {
	if err := m.enter(); err != nil {
		return nil, err
	}
	out := []models.ConnectionCandidate{}
	for _, id := range m.sortedTripIDs() {
		trip := m.trips[id]
		if !m.active(trip.ServiceID, q.Date) {
			continue
		}
		// one candidate per trip: earliest departure, then earliest arrival
		var best *models.ConnectionCandidate
		sts := m.stopTimes[id]
		for _, a := range sts {
			if m.stopName(a.StopID) != q.StartStation || a.DepartureTime < q.MinSeconds {
				continue
			}
			for _, b := range sts {
				if b.StopSequence <= a.StopSequence || m.stopName(b.StopID) != q.EndStation {
					continue
				}
				if best != nil && (best.DepartureTime < a.DepartureTime ||
					(best.DepartureTime == a.DepartureTime && best.ArrivalTime <= b.ArrivalTime)) {
					continue
				}
				r := m.routes[trip.RouteID]
				best = &models.ConnectionCandidate{
					TripID: id, RouteID: r.ID, RouteLongName: r.LongName, RouteShortName: r.ShortName,
					DepartureTime: a.DepartureTime, ArrivalTime: b.ArrivalTime,
					DepartureSequence: a.StopSequence, ArrivalSequence: b.StopSequence,
				}
			}
		}
		if best != nil {
			out = append(out, *best)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].DepartureTime != out[j].DepartureTime {
			return out[i].DepartureTime < out[j].DepartureTime
		}
		return out[i].TripID < out[j].TripID
	})
	if len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func (m *memStore) ExpandTripStops(ctx context.Context, tripIDs []string) (map[string][]models.TripStop, error) {
	if err := m.enter(); err != nil {
		return nil, err
	}
	out := map[string][]models.TripStop{}
	for _, id := range tripIDs {
		if _, done := out[id]; done {
			continue
		}
		for _, st := range m.stopTimes[id] {
			out[id] = append(out[id], models.TripStop{TripID: id, StopSequence: st.StopSequence, StopName: m.stopName(st.StopID)})
		}
	}
	return out, nil
}

func (m *memStore) GetAllStopNames(ctx context.Context) ([]string, error) {
	if err := m.enter(); err != nil {
		return nil, err
	}
	seen := map[string]bool{}
	names := []string{}
	for _, s := range m.stops {
		if !seen[s.Name] {
			seen[s.Name] = true
			names = append(names, s.Name)
		}
	}
	sort.Strings(names)
	return names, nil
}

func (m *memStore) GetServiceCalendar(ctx context.Context, serviceID string) (*models.ServiceCalendar, error) {
	if err := m.enter(); err != nil {
		return nil, err
	}
	return m.calendars[serviceID], nil
}

func (m *memStore) GetCalendarExceptions(ctx context.Context, serviceID, date string) ([]models.CalendarException, error) {
	if err := m.enter(); err != nil {
		return nil, err
	}
	return m.exceptionsOn(serviceID, date), nil
}

func (m *memStore) UpsertAgency(ctx context.Context, agency models.Agency) error {
	if err := m.enter(); err != nil {
		return err
	}
	if _, ok := m.agencies[agency.ID]; !ok {
		m.agencies[agency.ID] = agency
	}
	return nil
}

func (m *memStore) UpsertRoute(ctx context.Context, route models.Route) error {
	if err := m.enter(); err != nil {
		return err
	}
	if existing, ok := m.routes[route.ID]; ok {
		if existing.AgencyID == route.AgencyID {
			existing.LongName = route.LongName
			m.routes[route.ID] = existing
		}
		return nil
	}
	m.routes[route.ID] = route
	return nil
}

func (m *memStore) InsertTrip(ctx context.Context, trip models.Trip) error {
	if err := m.enter(); err != nil {
		return err
	}
	if _, ok := m.trips[trip.ID]; ok {
		return models.NewConflict(fmt.Sprintf("trip %s already exists", trip.ID), nil)
	}
	m.trips[trip.ID] = trip
	return nil
}

func (m *memStore) UpsertCalendarException(ctx context.Context, serviceID, date string, exceptionType int) error {
	if err := m.enter(); err != nil {
		return err
	}
	d, err := validator.ParseDate(date)
	if err != nil {
		return err
	}
	m.exceptions[serviceID+"|"+date] = models.CalendarException{ServiceID: serviceID, Date: d, ExceptionType: exceptionType}
	return nil
}

func (m *memStore) ResolveStopIDByName(ctx context.Context, name string) (string, error) {
	if err := m.enter(); err != nil {
		return "", err
	}
	best := ""
	for _, s := range m.stops {
		if s.Name == name && (best == "" || s.ID < best) {
			best = s.ID
		}
	}
	if best == "" {
		return "", models.NewNotFound("station %q not found", name)
	}
	return best, nil
}

func (m *memStore) InsertStopTimePair(ctx context.Context, tripID, startStopID, endStopID string, departure, arrival int) error {
	if err := m.enter(); err != nil {
		return err
	}
	m.stopTimes[tripID] = append(m.stopTimes[tripID],
		models.StopTime{TripID: tripID, StopSequence: 1, StopID: startStopID, ArrivalTime: departure, DepartureTime: departure},
		models.StopTime{TripID: tripID, StopSequence: 2, StopID: endStopID, ArrivalTime: arrival, DepartureTime: arrival},
	)
	return nil
}
