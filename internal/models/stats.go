package models

// StopUsage counts stop-time rows per stop
type StopUsage struct {
	StopID    string `json:"stop_id" db:"stop_id"`
	StopName  string `json:"stop_name" db:"stop_name"`
	TripCount int    `json:"trip_count" db:"trip_count"`
}

// AgencyActivity aggregates routes and trips per agency
type AgencyActivity struct {
	AgencyID   string `json:"agency_id" db:"agency_id"`
	AgencyName string `json:"agency_name" db:"agency_name"`
	RouteCount int    `json:"route_count" db:"route_count"`
	TripCount  int    `json:"trip_count" db:"trip_count"`
}

// RouteTripCount counts trips per route
type RouteTripCount struct {
	RouteID        string `json:"route_id" db:"route_id"`
	RouteShortName string `json:"route_short_name" db:"route_short_name"`
	RouteLongName  string `json:"route_long_name" db:"route_long_name"`
	TripCount      int    `json:"trip_count" db:"trip_count"`
}
