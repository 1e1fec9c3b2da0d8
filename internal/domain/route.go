package domain

type RouteType string

const (
	RouteTypeSchool  RouteType = "school"
	RouteTypeWork    RouteType = "work"
	RouteTypeGeneral RouteType = "general"
	RouteTypeCustom  RouteType = "custom"
)

type Route struct {
	ID                int64     `json:"id"`
	Name              string    `json:"name"`
	Origin            string    `json:"origin"`
	Destination       string    `json:"destination"`
	PickupPoints      []string  `json:"pickup_points"`
	DropoffPoints     []string  `json:"dropoff_points"`
	BaseFareCents     int64     `json:"base_fare_cents"`
	EstimatedDuration int       `json:"estimated_duration"` // minutes
	MaxSeats          int       `json:"max_seats"`
	RouteType         RouteType `json:"route_type"`
	IsActive          bool      `json:"is_active"`
}

// HasPickupPoint reports whether name is one of the route's named stops.
func (r *Route) HasPickupPoint(name string) bool {
	return containsPoint(r.PickupPoints, name)
}

func (r *Route) HasDropoffPoint(name string) bool {
	return containsPoint(r.DropoffPoints, name)
}

func containsPoint(points []string, name string) bool {
	for _, p := range points {
		if p == name {
			return true
		}
	}
	return false
}
