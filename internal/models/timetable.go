package models

// StationQuery selects departures or arrivals at one station
type StationQuery struct {
	Station    string
	Date       string // YYYY-MM-DD
	MinSeconds int
	Limit      int
}

// ConnectionQuery selects direct trips between two stations
type ConnectionQuery struct {
	StartStation string
	EndStation   string
	Date         string // YYYY-MM-DD
	MinSeconds   int
	Limit        int
}

// DepartureCandidate is a selector row for departures
type DepartureCandidate struct {
	TripID          string `db:"trip_id"`
	RouteID         string `db:"route_id"`
	RouteLongName   string `db:"route_long_name"`
	RouteShortName  string `db:"route_short_name"`
	DepartureTime   int    `db:"departure_time"`
	StationSequence int    `db:"stop_sequence"`
}

// ArrivalCandidate is a selector row for arrivals
type ArrivalCandidate struct {
	TripID          string `db:"trip_id"`
	RouteID         string `db:"route_id"`
	RouteLongName   string `db:"route_long_name"`
	RouteShortName  string `db:"route_short_name"`
	ArrivalTime     int    `db:"arrival_time"`
	StationSequence int    `db:"stop_sequence"`
}

// ConnectionCandidate is a selector row for direct connections
type ConnectionCandidate struct {
	TripID            string `db:"trip_id"`
	RouteID           string `db:"route_id"`
	RouteLongName     string `db:"route_long_name"`
	RouteShortName    string `db:"route_short_name"`
	DepartureTime     int    `db:"departure_time"`
	ArrivalTime       int    `db:"arrival_time"`
	DepartureSequence int    `db:"departure_sequence"`
	ArrivalSequence   int    `db:"arrival_sequence"`
}

// TripStop is one entry of an expanded trip
type TripStop struct {
	TripID       string `db:"trip_id"`
	StopSequence int    `db:"stop_sequence"`
	StopName     string `db:"stop_name"`
}

// Departure is a departures board row
type Departure struct {
	TripID            string   `json:"trip_id"`
	RouteID           string   `json:"route_id"`
	RouteLongName     string   `json:"route_long_name"`
	RouteShortName    string   `json:"route_short_name"`
	DepartureTime     string   `json:"departure_time"`
	Destination       string   `json:"destination"`
	IntermediateStops []string `json:"intermediate_stops"`
}

// Arrival is an arrivals board row
type Arrival struct {
	TripID            string   `json:"trip_id"`
	RouteID           string   `json:"route_id"`
	RouteLongName     string   `json:"route_long_name"`
	RouteShortName    string   `json:"route_short_name"`
	ArrivalTime       string   `json:"arrival_time"`
	Origin            string   `json:"origin"`
	IntermediateStops []string `json:"intermediate_stops"`
}

// Connection is a direct trip between two stations
type Connection struct {
	TripID            string   `json:"trip_id"`
	RouteID           string   `json:"route_id"`
	RouteLongName     string   `json:"route_long_name"`
	RouteShortName    string   `json:"route_short_name"`
	DepartureDate     string   `json:"departure_date"`
	DepartureTime     string   `json:"departure_time"`
	ArrivalTime       string   `json:"arrival_time"`
	TravelTime        string   `json:"travel_time"`
	Destination       string   `json:"destination"`
	IntermediateStops []string `json:"intermediate_stops"`
}

// StationBoardRequest is the body of departures/arrivals queries
type StationBoardRequest struct {
	StationName string `json:"stationName" binding:"required"`
	Date        string `json:"date" binding:"required"` // YYYY-MM-DD or YYYYMMDD
	Time        string `json:"time" binding:"required"` // HH:MM or HH:MM:SS
	Limit       int    `json:"limit,omitempty"`
}

// ConnectionRequest is the body of a direct connection query
type ConnectionRequest struct {
	StartStation string `json:"startStation" binding:"required"`
	EndStation   string `json:"endStation" binding:"required"`
	Date         string `json:"date" binding:"required"`
	Time         string `json:"time" binding:"required"`
	Limit        int    `json:"limit,omitempty"`
}

// ServiceActivity is the response of a calendar check
type ServiceActivity struct {
	ServiceID string `json:"service_id"`
	Date      string `json:"date"`
	Active    bool   `json:"active"`
}
