package domain

import (
	"strings"
	"time"
)

const DateLayout = "2006-01-02"

// Schedule is a recurring departure slot: a route served by one vehicle at a
// fixed time on a set of weekdays. Seat capacity is checked per schedule per
// calendar date.
type Schedule struct {
	ID            int64    `json:"id"`
	RouteID       int64    `json:"route_id"`
	VehicleID     int64    `json:"vehicle_id"`
	DepartureTime string   `json:"departure_time"` // HH:MM
	ArrivalTime   string   `json:"arrival_time"`   // HH:MM
	DaysOfWeek    []string `json:"days_of_week"`   // lowercase weekday names
	IsActive      bool     `json:"is_active"`
}

// RunsOn reports whether the schedule operates on the given calendar date.
// The weekday is derived from the date, never supplied by the caller.
func (s *Schedule) RunsOn(date time.Time) bool {
	day := strings.ToLower(date.Weekday().String())
	for _, d := range s.DaysOfWeek {
		if d == day {
			return true
		}
	}
	return false
}

// ParseDate parses a YYYY-MM-DD travel date.
func ParseDate(value string) (time.Time, error) {
	return time.Parse(DateLayout, value)
}

// ScheduleWithDetails is a schedule joined with its route, vehicle and the
// vehicle's driver for presentation. Driver is nil for unassigned vehicles.
type ScheduleWithDetails struct {
	Schedule
	Route   *Route   `json:"route,omitempty"`
	Vehicle *Vehicle `json:"vehicle,omitempty"`
	Driver  *User    `json:"driver,omitempty"`
}

// RouteWithSchedules is a route plus every schedule that serves it.
type RouteWithSchedules struct {
	Route
	Schedules []ScheduleWithDetails `json:"schedules"`
}
