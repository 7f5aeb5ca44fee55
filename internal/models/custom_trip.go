package models

// Synthetic agency written by the custom trip writer
const (
	CustomAgencyID   = "custom"
	CustomAgencyName = "custom"
	CustomAgencyURL  = "custom"
	CustomRouteShort = "custom"
)

// CustomTripRequest describes an ad-hoc two-stop direct trip
type CustomTripRequest struct {
	RouteName     string `json:"route_name" binding:"required"`
	Date          string `json:"date" binding:"required"`
	StartStation  string `json:"start_station" binding:"required"`
	EndStation    string `json:"end_station" binding:"required"`
	DepartureTime string `json:"departure_time" binding:"required"`
	ArrivalTime   string `json:"arrival_time" binding:"required"`
}

// CustomTripResult identifies the rows created for a custom trip
type CustomTripResult struct {
	RouteID       string `json:"route_id"`
	RouteLongName string `json:"route_long_name"`
	TripID        string `json:"trip_id"`
	ServiceID     string `json:"service_id"`
	Date          string `json:"date"`
}
