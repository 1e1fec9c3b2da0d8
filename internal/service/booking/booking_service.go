package booking

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/tmakoni/omnibus/internal/domain"
	"github.com/tmakoni/omnibus/internal/kafka"
	"github.com/tmakoni/omnibus/internal/repository"
)

type BookingUseCase interface {
	CreateStandard(ctx context.Context, input StandardBookingInput) (*domain.Booking, error)
	CreateCustom(ctx context.Context, input CustomBookingInput) (*domain.Booking, error)
	Get(ctx context.Context, id int64) (*domain.BookingWithDetails, error)
	ListForUser(ctx context.Context, userID int64) ([]domain.BookingWithDetails, error)
	ListForDriver(ctx context.Context, driverID int64) ([]domain.BookingWithDetails, error)
	CheckCapacity(ctx context.Context, scheduleID int64, travelDate string, seats int) (*CapacityReport, error)
	ApplyDriverResponse(ctx context.Context, id int64, input DriverResponseInput) (*domain.Booking, error)
	ApplyUserResponse(ctx context.Context, id int64, accepted bool) (*domain.Booking, error)
	Start(ctx context.Context, id int64) (*domain.Booking, error)
	Complete(ctx context.Context, id int64) (*domain.Booking, error)
	Cancel(ctx context.Context, id int64) (*domain.Booking, error)
	CancelStale(ctx context.Context) ([]domain.Booking, error)
}

type Cache interface {
	AcquireHold(ctx context.Context, scheduleID int64, travelDate string, userID int64, ttl time.Duration) (bool, error)
	ReleaseHold(ctx context.Context, scheduleID int64, travelDate string, userID int64) error
}

type Producer interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
}

type BookingService struct {
	bookings           repository.BookingRepository
	schedules          repository.ScheduleRepository
	routes             repository.RouteRepository
	vehicles           repository.VehicleRepository
	cache              Cache
	producer           Producer
	bookingTopic       string
	notificationsTopic string
	serviceFeeCents    int64
	holdTTL            time.Duration
}

type StandardBookingInput struct {
	UserID        int64   `json:"user_id"`
	ScheduleID    int64   `json:"schedule_id"`
	TravelDate    string  `json:"travel_date"`
	PickupPoint   string  `json:"pickup_point"`
	DropoffPoint  string  `json:"dropoff_point"`
	NumberOfSeats int     `json:"number_of_seats"`
	PaymentMethod *string `json:"payment_method,omitempty"`
}

type CustomBookingInput struct {
	UserID             int64   `json:"user_id"`
	PickupPoint        string  `json:"pickup_point"`
	DropoffPoint       string  `json:"dropoff_point"`
	PickupCoordinates  *string `json:"pickup_coordinates,omitempty"`
	DropoffCoordinates *string `json:"dropoff_coordinates,omitempty"`
	TravelDate         string  `json:"travel_date"`
	NumberOfSeats      int     `json:"number_of_seats"`
	PaymentMethod      *string `json:"payment_method,omitempty"`
}

type DriverResponseInput struct {
	Response           domain.DriverResponse `json:"response"`
	AlternativePickup  *string               `json:"alternative_pickup,omitempty"`
	AlternativeDropoff *string               `json:"alternative_dropoff,omitempty"`
	Notes              *string               `json:"notes,omitempty"`
}

// CapacityReport answers "can N seats be booked on this departure for this
// date". SeatsAvailable is zero when the schedule does not run that day.
type CapacityReport struct {
	ScheduleID     int64  `json:"schedule_id"`
	TravelDate     string `json:"travel_date"`
	RunsOnDate     bool   `json:"runs_on_date"`
	Capacity       int    `json:"capacity"`
	SeatsCommitted int    `json:"seats_committed"`
	SeatsAvailable int    `json:"seats_available"`
	RequestedSeats int    `json:"requested_seats"`
	CanAccommodate bool   `json:"can_accommodate"`
}

type BookingServiceOption func(*BookingService)

func WithNotificationsTopic(topic string) BookingServiceOption {
	return func(s *BookingService) {
		s.notificationsTopic = topic
	}
}

func NewBookingService(
	bookings repository.BookingRepository,
	schedules repository.ScheduleRepository,
	routes repository.RouteRepository,
	vehicles repository.VehicleRepository,
	cache Cache,
	producer Producer,
	bookingTopic string,
	serviceFeeCents int64,
	holdTTL time.Duration,
	opts ...BookingServiceOption,
) *BookingService {
	service := &BookingService{
		bookings:        bookings,
		schedules:       schedules,
		routes:          routes,
		vehicles:        vehicles,
		cache:           cache,
		producer:        producer,
		bookingTopic:    bookingTopic,
		serviceFeeCents: serviceFeeCents,
		holdTTL:         holdTTL,
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

func (s *BookingService) CreateStandard(ctx context.Context, input StandardBookingInput) (*domain.Booking, error) {
	if input.NumberOfSeats < 1 {
		return nil, fmt.Errorf("number of seats must be at least 1: %w", domain.ErrValidation)
	}
	travelDate, err := domain.ParseDate(input.TravelDate)
	if err != nil {
		return nil, fmt.Errorf("travel date %q: %w", input.TravelDate, domain.ErrValidation)
	}

	schedule, err := s.schedules.GetByID(ctx, input.ScheduleID)
	if err != nil {
		return nil, err
	}
	if !schedule.IsActive {
		return nil, fmt.Errorf("schedule %d is inactive: %w", input.ScheduleID, domain.ErrNotFound)
	}
	if !schedule.RunsOn(travelDate) {
		return nil, fmt.Errorf("schedule %d does not run on %s: %w", input.ScheduleID, input.TravelDate, domain.ErrCapacityExceeded)
	}

	route, err := s.routes.GetByID(ctx, schedule.RouteID)
	if err != nil {
		return nil, err
	}
	if !route.HasPickupPoint(input.PickupPoint) {
		return nil, fmt.Errorf("pickup point %q is not on route %d: %w", input.PickupPoint, route.ID, domain.ErrValidation)
	}
	if !route.HasDropoffPoint(input.DropoffPoint) {
		return nil, fmt.Errorf("dropoff point %q is not on route %d: %w", input.DropoffPoint, route.ID, domain.ErrValidation)
	}

	held := false
	if s.cache != nil {
		ok, err := s.cache.AcquireHold(ctx, input.ScheduleID, input.TravelDate, input.UserID, s.holdTTL)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("booking for schedule %d on %s already in flight: %w", input.ScheduleID, input.TravelDate, domain.ErrHoldActive)
		}
		held = true
	}

	booking := &domain.Booking{
		UserID:         input.UserID,
		ScheduleID:     &input.ScheduleID,
		PickupPoint:    input.PickupPoint,
		DropoffPoint:   input.DropoffPoint,
		NumberOfSeats:  input.NumberOfSeats,
		TotalFareCents: route.BaseFareCents*int64(input.NumberOfSeats) + s.serviceFeeCents,
		Status:         domain.BookingStatusConfirmed,
		PaymentStatus:  domain.PaymentStatusPending,
		PaymentMethod:  input.PaymentMethod,
		TravelDate:     input.TravelDate,
	}

	err = s.bookings.CreateStandard(ctx, booking)
	// The hold only guards the window between accept and commit. A further
	// booking by the same user for the same departure is legitimate.
	if held {
		_ = s.cache.ReleaseHold(ctx, input.ScheduleID, input.TravelDate, input.UserID)
	}
	if err != nil {
		return nil, err
	}

	s.publish(ctx, "booking_created", booking)
	return booking, nil
}

func (s *BookingService) CreateCustom(ctx context.Context, input CustomBookingInput) (*domain.Booking, error) {
	if input.NumberOfSeats < 1 {
		return nil, fmt.Errorf("number of seats must be at least 1: %w", domain.ErrValidation)
	}
	if input.PickupPoint == "" || input.DropoffPoint == "" {
		return nil, fmt.Errorf("pickup and dropoff points are required: %w", domain.ErrValidation)
	}
	if _, err := domain.ParseDate(input.TravelDate); err != nil {
		return nil, fmt.Errorf("travel date %q: %w", input.TravelDate, domain.ErrValidation)
	}

	booking := &domain.Booking{
		UserID:             input.UserID,
		CustomPickupPoint:  &input.PickupPoint,
		CustomDropoffPoint: &input.DropoffPoint,
		PickupCoordinates:  input.PickupCoordinates,
		DropoffCoordinates: input.DropoffCoordinates,
		NumberOfSeats:      input.NumberOfSeats,
		TotalFareCents:     s.serviceFeeCents,
		Status:             domain.BookingStatusPendingDriver,
		PaymentStatus:      domain.PaymentStatusPending,
		PaymentMethod:      input.PaymentMethod,
		TravelDate:         input.TravelDate,
	}

	if err := s.bookings.CreateCustom(ctx, booking); err != nil {
		return nil, err
	}

	s.publish(ctx, "booking_created", booking)
	return booking, nil
}

func (s *BookingService) Get(ctx context.Context, id int64) (*domain.BookingWithDetails, error) {
	return s.bookings.GetWithDetails(ctx, id)
}

func (s *BookingService) ListForUser(ctx context.Context, userID int64) ([]domain.BookingWithDetails, error) {
	return s.bookings.ListForUser(ctx, userID)
}

func (s *BookingService) ListForDriver(ctx context.Context, driverID int64) ([]domain.BookingWithDetails, error) {
	return s.bookings.ListForDriver(ctx, driverID)
}

// CheckCapacity is advisory. The create path re-checks inside its transaction,
// so a positive answer here can still lose to a concurrent booking.
func (s *BookingService) CheckCapacity(ctx context.Context, scheduleID int64, travelDate string, seats int) (*CapacityReport, error) {
	parsed, err := domain.ParseDate(travelDate)
	if err != nil {
		return nil, fmt.Errorf("travel date %q: %w", travelDate, domain.ErrValidation)
	}

	schedule, err := s.schedules.GetByID(ctx, scheduleID)
	if err != nil {
		return nil, err
	}
	vehicle, err := s.vehicles.GetByID(ctx, schedule.VehicleID)
	if err != nil {
		return nil, err
	}

	report := &CapacityReport{
		ScheduleID:     scheduleID,
		TravelDate:     travelDate,
		RunsOnDate:     schedule.IsActive && schedule.RunsOn(parsed),
		Capacity:       vehicle.Capacity,
		RequestedSeats: seats,
	}
	if !report.RunsOnDate {
		return report, nil
	}

	committed, err := s.bookings.SeatsCommitted(ctx, scheduleID, travelDate)
	if err != nil {
		return nil, err
	}
	report.SeatsCommitted = committed
	report.SeatsAvailable = vehicle.Capacity - committed
	if report.SeatsAvailable < 0 {
		report.SeatsAvailable = 0
	}
	report.CanAccommodate = seats >= 1 && seats <= report.SeatsAvailable
	return report, nil
}

func (s *BookingService) ApplyDriverResponse(ctx context.Context, id int64, input DriverResponseInput) (*domain.Booking, error) {
	var status domain.BookingStatus
	switch input.Response {
	case domain.DriverResponseAccepted:
		status = domain.BookingStatusConfirmed
	case domain.DriverResponseAlternativeOffered:
		if input.AlternativePickup == nil || input.AlternativeDropoff == nil {
			return nil, fmt.Errorf("alternative pickup and dropoff are required: %w", domain.ErrValidation)
		}
		status = domain.BookingStatusDriverAlternative
	case domain.DriverResponseDeclined:
		if input.AlternativePickup != nil || input.AlternativeDropoff != nil {
			return nil, fmt.Errorf("declined response cannot carry alternatives: %w", domain.ErrValidation)
		}
		status = domain.BookingStatusCancelled
	default:
		return nil, fmt.Errorf("driver response %q: %w", input.Response, domain.ErrValidation)
	}

	updated, err := s.bookings.SetDriverResponse(ctx, id, input.Response, status, input.AlternativePickup, input.AlternativeDropoff, input.Notes)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, "driver_responded", updated)
	return updated, nil
}

// ApplyUserResponse settles a driver alternative. Acceptance confirms the
// booking, rejection cancels it. Valid only while the booking sits in
// driver_alternative.
func (s *BookingService) ApplyUserResponse(ctx context.Context, id int64, accepted bool) (*domain.Booking, error) {
	to := domain.BookingStatusConfirmed
	eventType := "booking_confirmed"
	if !accepted {
		to = domain.BookingStatusCancelled
		eventType = "booking_cancelled"
	}

	updated, err := s.bookings.UpdateStatus(ctx, id, domain.BookingStatusDriverAlternative, to)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, eventType, updated)
	return updated, nil
}

func (s *BookingService) Start(ctx context.Context, id int64) (*domain.Booking, error) {
	updated, err := s.bookings.UpdateStatus(ctx, id, domain.BookingStatusConfirmed, domain.BookingStatusInTransit)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, "trip_started", updated)
	return updated, nil
}

func (s *BookingService) Complete(ctx context.Context, id int64) (*domain.Booking, error) {
	updated, err := s.bookings.UpdateStatus(ctx, id, domain.BookingStatusInTransit, domain.BookingStatusCompleted)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, "trip_completed", updated)
	return updated, nil
}

// Cancel moves a booking to cancelled where the lifecycle allows it. An
// in-transit trip cannot be cancelled, only completed. Cancelling an already
// cancelled booking is a no-op; cancelling a completed one is an error.
// A cancelled row keeps its seats out of future capacity sums by status alone,
// nothing is deleted.
func (s *BookingService) Cancel(ctx context.Context, id int64) (*domain.Booking, error) {
	current, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.Status == domain.BookingStatusCancelled {
		return current, nil
	}
	if !domain.CanTransition(current.Status, domain.BookingStatusCancelled) {
		return nil, fmt.Errorf("booking %d is %s: %w", id, current.Status, domain.ErrInvalidState)
	}

	updated, err := s.bookings.UpdateStatus(ctx, id, current.Status, domain.BookingStatusCancelled)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, "booking_cancelled", updated)
	return updated, nil
}

// CancelStale cancels bookings still waiting on a driver answer once their
// travel date is behind us. Called from the worker sweep.
func (s *BookingService) CancelStale(ctx context.Context) ([]domain.Booking, error) {
	today := time.Now().Format(domain.DateLayout)
	cancelled, err := s.bookings.CancelUnansweredBefore(ctx, today)
	if err != nil {
		return nil, err
	}
	for i := range cancelled {
		s.publish(ctx, "booking_expired", &cancelled[i])
	}
	return cancelled, nil
}

func (s *BookingService) publish(ctx context.Context, eventType string, booking *domain.Booking) {
	if s.producer == nil || s.bookingTopic == "" {
		return
	}
	event := kafka.BookingEvent{
		Type:          eventType,
		BookingID:     booking.ID,
		BookingNumber: booking.BookingNumber,
		UserID:        booking.UserID,
		ScheduleID:    booking.ScheduleID,
		TravelDate:    booking.TravelDate,
		NumberOfSeats: booking.NumberOfSeats,
		Status:        string(booking.Status),
	}
	if err := s.producer.Publish(ctx, s.bookingTopic, booking.BookingNumber, event); err != nil {
		log.Printf("failed to publish %s event for booking %s: %v", eventType, booking.BookingNumber, err)
	}
	if s.notificationsTopic != "" {
		if err := s.producer.Publish(ctx, s.notificationsTopic, booking.BookingNumber, event); err != nil {
			log.Printf("failed to publish %s notification for booking %s: %v", eventType, booking.BookingNumber, err)
		}
	}
}

var _ BookingUseCase = (*BookingService)(nil)
