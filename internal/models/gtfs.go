package models

import "time"

// Exception types stored in calendar_dates
const (
	ExceptionAdded   = 1
	ExceptionRemoved = 2
)

// RouteTypeRail is the GTFS route_type used for synthetic routes
const RouteTypeRail = 2

// Agency is an operator publishing routes
type Agency struct {
	ID       string `json:"agency_id" db:"agency_id"`
	Name     string `json:"agency_name" db:"agency_name"`
	URL      string `json:"agency_url" db:"agency_url"`
	Timezone string `json:"agency_timezone" db:"agency_timezone"`
}

// Route belongs to an agency
type Route struct {
	ID        string `json:"route_id" db:"route_id"`
	AgencyID  string `json:"agency_id" db:"agency_id"`
	ShortName string `json:"route_short_name" db:"route_short_name"`
	LongName  string `json:"route_long_name" db:"route_long_name"`
	Type      int    `json:"route_type" db:"route_type"`
}

// ServiceCalendar is the base weekly pattern of a service
type ServiceCalendar struct {
	ServiceID string    `json:"service_id" db:"service_id"`
	Monday    bool      `json:"monday" db:"monday"`
	Tuesday   bool      `json:"tuesday" db:"tuesday"`
	Wednesday bool      `json:"wednesday" db:"wednesday"`
	Thursday  bool      `json:"thursday" db:"thursday"`
	Friday    bool      `json:"friday" db:"friday"`
	Saturday  bool      `json:"saturday" db:"saturday"`
	Sunday    bool      `json:"sunday" db:"sunday"`
	StartDate time.Time `json:"start_date" db:"start_date"`
	EndDate   time.Time `json:"end_date" db:"end_date"`
}

// RunsOnWeekday reports the weekly flag for a 1=Sunday..7=Saturday index
func (c *ServiceCalendar) RunsOnWeekday(day int) bool {
	switch day {
	case 1:
		return c.Sunday
	case 2:
		return c.Monday
	case 3:
		return c.Tuesday
	case 4:
		return c.Wednesday
	case 5:
		return c.Thursday
	case 6:
		return c.Friday
	case 7:
		return c.Saturday
	}
	return false
}

// CalendarException adds or removes a service on one date
type CalendarException struct {
	ServiceID     string    `json:"service_id" db:"service_id"`
	Date          time.Time `json:"date" db:"date"`
	ExceptionType int       `json:"exception_type" db:"exception_type"`
}

// Trip is one scheduled run of a route
type Trip struct {
	ID        string `json:"trip_id" db:"trip_id"`
	RouteID   string `json:"route_id" db:"route_id"`
	ServiceID string `json:"service_id" db:"service_id"`
}

// Stop is a station. Names are not unique.
type Stop struct {
	ID        string   `json:"stop_id" db:"stop_id"`
	Name      string   `json:"stop_name" db:"stop_name"`
	Latitude  *float64 `json:"stop_lat,omitempty" db:"stop_lat"`
	Longitude *float64 `json:"stop_lon,omitempty" db:"stop_lon"`
}

// StopTime is one visit of a trip to a stop. Times are seconds since local
// midnight and may exceed 24h.
type StopTime struct {
	TripID        string `json:"trip_id" db:"trip_id"`
	StopSequence  int    `json:"stop_sequence" db:"stop_sequence"`
	StopID        string `json:"stop_id" db:"stop_id"`
	ArrivalTime   int    `json:"arrival_time" db:"arrival_time"`
	DepartureTime int    `json:"departure_time" db:"departure_time"`
}

// StaticFeed is a full GTFS static dataset ready to be loaded
type StaticFeed struct {
	Agencies   []Agency
	Routes     []Route
	Calendars  []ServiceCalendar
	Exceptions []CalendarException
	Trips      []Trip
	Stops      []Stop
	StopTimes  []StopTime
}

// ImportSummary reports row counts of a completed import
type ImportSummary struct {
	Feed       string `json:"feed"`
	Agencies   int    `json:"agencies"`
	Routes     int    `json:"routes"`
	Calendars  int    `json:"calendars"`
	Exceptions int    `json:"calendar_dates"`
	Trips      int    `json:"trips"`
	Stops      int    `json:"stops"`
	StopTimes  int    `json:"stop_times"`
	DurationMs int64  `json:"duration_ms"`
}

// Summarize counts the rows of a feed
func (f *StaticFeed) Summarize(name string) ImportSummary {
	return ImportSummary{
		Feed:       name,
		Agencies:   len(f.Agencies),
		Routes:     len(f.Routes),
		Calendars:  len(f.Calendars),
		Exceptions: len(f.Exceptions),
		Trips:      len(f.Trips),
		Stops:      len(f.Stops),
		StopTimes:  len(f.StopTimes),
	}
}

// ScheduledJob describes a background job registered with the scheduler
type ScheduledJob struct {
	Name     string     `json:"name"`
	Schedule string     `json:"schedule"`
	NextRun  *time.Time `json:"next_run,omitempty"`
	PrevRun  *time.Time `json:"prev_run,omitempty"`
}
