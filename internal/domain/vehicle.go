package domain

import "time"

type Vehicle struct {
	ID            int64     `json:"id"`
	VehicleNumber string    `json:"vehicle_number"` // unique registration, e.g. "BUS-247"
	DriverID      *int64    `json:"driver_id,omitempty"`
	Capacity      int       `json:"capacity"`
	VehicleType   string    `json:"vehicle_type"`
	IsActive      bool      `json:"is_active"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
