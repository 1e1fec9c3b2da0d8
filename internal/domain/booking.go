package domain

import "time"

type BookingStatus string

const (
	BookingStatusPending           BookingStatus = "pending"
	BookingStatusPendingDriver     BookingStatus = "pending_driver_confirmation"
	BookingStatusConfirmed         BookingStatus = "confirmed"
	BookingStatusDriverAlternative BookingStatus = "driver_alternative"
	BookingStatusInTransit         BookingStatus = "in_transit"
	BookingStatusCompleted         BookingStatus = "completed"
	BookingStatusCancelled         BookingStatus = "cancelled"
)

type DriverResponse string

const (
	DriverResponseAccepted           DriverResponse = "accepted"
	DriverResponseAlternativeOffered DriverResponse = "alternative_offered"
	DriverResponseDeclined           DriverResponse = "declined"
)

type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusRefunded PaymentStatus = "refunded"
)

// Booking is the central entity. ScheduleID is nil for custom point-to-point
// requests that have no vehicle assigned yet; exactly one of the named or the
// custom pickup/dropoff pair is meaningful per side.
type Booking struct {
	ID                 int64           `json:"id"`
	BookingNumber      string          `json:"booking_number"`
	UserID             int64           `json:"user_id"`
	ScheduleID         *int64          `json:"schedule_id,omitempty"`
	PickupPoint        string          `json:"pickup_point,omitempty"`
	DropoffPoint       string          `json:"dropoff_point,omitempty"`
	CustomPickupPoint  *string         `json:"custom_pickup_point,omitempty"`
	CustomDropoffPoint *string         `json:"custom_dropoff_point,omitempty"`
	PickupCoordinates  *string         `json:"pickup_coordinates,omitempty"`  // "lat,lng"
	DropoffCoordinates *string         `json:"dropoff_coordinates,omitempty"` // "lat,lng"
	NumberOfSeats      int             `json:"number_of_seats"`
	TotalFareCents     int64           `json:"total_fare_cents"`
	Status             BookingStatus   `json:"status"`
	DriverResponse     *DriverResponse `json:"driver_response,omitempty"`
	AlternativePickup  *string         `json:"alternative_pickup,omitempty"`
	AlternativeDropoff *string         `json:"alternative_dropoff,omitempty"`
	DriverNotes        *string         `json:"driver_notes,omitempty"`
	PaymentStatus      PaymentStatus   `json:"payment_status"`
	PaymentMethod      *string         `json:"payment_method,omitempty"`
	BookingDate        time.Time       `json:"booking_date"`
	TravelDate         string          `json:"travel_date"` // YYYY-MM-DD
	UpdatedAt          time.Time       `json:"updated_at"`
}

// IsTerminal reports whether no further transitions are allowed.
func (s BookingStatus) IsTerminal() bool {
	return s == BookingStatusCompleted || s == BookingStatusCancelled
}

// bookingTransitions encodes the lifecycle as data. Terminal states have no
// outgoing edges.
var bookingTransitions = map[BookingStatus][]BookingStatus{
	BookingStatusPending:           {BookingStatusConfirmed, BookingStatusDriverAlternative, BookingStatusCancelled},
	BookingStatusPendingDriver:     {BookingStatusConfirmed, BookingStatusDriverAlternative, BookingStatusCancelled},
	BookingStatusDriverAlternative: {BookingStatusConfirmed, BookingStatusCancelled},
	BookingStatusConfirmed:         {BookingStatusInTransit, BookingStatusCancelled},
	BookingStatusInTransit:         {BookingStatusCompleted},
}

func CanTransition(from, to BookingStatus) bool {
	for _, next := range bookingTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// BookingWithDetails joins a booking with its schedule chain for presentation.
// All joined fields are nil for custom bookings; consumers fall back to the
// booking's own custom pickup/dropoff fields.
type BookingWithDetails struct {
	Booking
	Schedule *Schedule `json:"schedule,omitempty"`
	Route    *Route    `json:"route,omitempty"`
	Vehicle  *Vehicle  `json:"vehicle,omitempty"`
	Driver   *User     `json:"driver,omitempty"`
}
