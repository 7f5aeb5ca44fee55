package services

import (
	"strings"

	"github.com/traincheck/timetable-backend/internal/models"
	"github.com/traincheck/timetable-backend/pkg/validator"
)

// sameStation compares station names the way users type them
func sameStation(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

// stopsBetween returns names of stops with sequence strictly between after
// and before, in sequence order
func stopsBetween(stops []models.TripStop, after, before int) []string {
	names := []string{}
	for _, st := range stops {
		if st.StopSequence > after && st.StopSequence < before {
			names = append(names, st.StopName)
		}
	}
	return names
}

func assembleDepartures(station string, candidates []models.DepartureCandidate, expanded map[string][]models.TripStop) []models.Departure {
	results := make([]models.Departure, 0, len(candidates))
	for _, c := range candidates {
		stops := expanded[c.TripID]
		if len(stops) == 0 {
			continue
		}
		last := stops[len(stops)-1]
		if sameStation(last.StopName, station) {
			continue
		}
		results = append(results, models.Departure{
			TripID:            c.TripID,
			RouteID:           c.RouteID,
			RouteLongName:     c.RouteLongName,
			RouteShortName:    c.RouteShortName,
			DepartureTime:     validator.FormatTimeOfDay(c.DepartureTime),
			Destination:       last.StopName,
			IntermediateStops: stopsBetween(stops, c.StationSequence, last.StopSequence),
		})
	}
	return results
}

func assembleArrivals(station string, candidates []models.ArrivalCandidate, expanded map[string][]models.TripStop) []models.Arrival {
	results := make([]models.Arrival, 0, len(candidates))
	for _, c := range candidates {
		stops := expanded[c.TripID]
		if len(stops) == 0 {
			continue
		}
		first := stops[0]
		if sameStation(first.StopName, station) {
			continue
		}
		results = append(results, models.Arrival{
			TripID:            c.TripID,
			RouteID:           c.RouteID,
			RouteLongName:     c.RouteLongName,
			RouteShortName:    c.RouteShortName,
			ArrivalTime:       validator.FormatTimeOfDay(c.ArrivalTime),
			Origin:            first.StopName,
			IntermediateStops: stopsBetween(stops, first.StopSequence, c.StationSequence),
		})
	}
	return results
}

func assembleConnections(date string, candidates []models.ConnectionCandidate, expanded map[string][]models.TripStop) []models.Connection {
	results := make([]models.Connection, 0, len(candidates))
	for _, c := range candidates {
		stops := expanded[c.TripID]
		if len(stops) == 0 {
			continue
		}
		results = append(results, models.Connection{
			TripID:            c.TripID,
			RouteID:           c.RouteID,
			RouteLongName:     c.RouteLongName,
			RouteShortName:    c.RouteShortName,
			DepartureDate:     date,
			DepartureTime:     validator.FormatTimeOfDay(c.DepartureTime),
			ArrivalTime:       validator.FormatTimeOfDay(c.ArrivalTime),
			TravelTime:        validator.FormatTimeOfDay(c.ArrivalTime - c.DepartureTime),
			Destination:       stops[len(stops)-1].StopName,
			IntermediateStops: stopsBetween(stops, c.DepartureSequence, c.ArrivalSequence),
		})
	}
	return results
}
