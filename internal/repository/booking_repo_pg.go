package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tmakoni/omnibus/internal/domain"
)

type BookingRepository interface {
	// CreateStandard inserts a schedule-bound booking. The seat-capacity check
	// and the insert run in one transaction holding a lock on the schedule row,
	// so two concurrent requests for the same departure serialize and the sum
	// of non-cancelled seats never exceeds the vehicle capacity.
	CreateStandard(ctx context.Context, booking *domain.Booking) error
	// CreateCustom inserts a point-to-point request with no schedule and no
	// capacity check.
	CreateCustom(ctx context.Context, booking *domain.Booking) error
	GetByID(ctx context.Context, id int64) (*domain.Booking, error)
	GetWithDetails(ctx context.Context, id int64) (*domain.BookingWithDetails, error)
	ListForUser(ctx context.Context, userID int64) ([]domain.BookingWithDetails, error)
	ListForDriver(ctx context.Context, driverID int64) ([]domain.BookingWithDetails, error)
	// UpdateStatus moves a booking from one status to another. The guard is in
	// the WHERE clause, so a concurrent transition loses cleanly instead of
	// overwriting.
	UpdateStatus(ctx context.Context, id int64, from, to domain.BookingStatus) (*domain.Booking, error)
	SetDriverResponse(ctx context.Context, id int64, response domain.DriverResponse, status domain.BookingStatus, altPickup, altDropoff, notes *string) (*domain.Booking, error)
	SeatsCommitted(ctx context.Context, scheduleID int64, travelDate string) (int, error)
	// CancelUnansweredBefore cancels bookings still awaiting a driver answer
	// whose travel date has already passed. Used by the worker sweep.
	CancelUnansweredBefore(ctx context.Context, travelDate string) ([]domain.Booking, error)
}

type PGBookingRepository struct {
	db *pgxpool.Pool
}

func NewBookingRepository(db *pgxpool.Pool) BookingRepository {
	return &PGBookingRepository{db: db}
}

const bookingColumns = `id, booking_number, user_id, schedule_id, pickup_point, dropoff_point,
	custom_pickup_point, custom_dropoff_point, pickup_coordinates, dropoff_coordinates,
	number_of_seats, total_fare_cents, status, driver_response, alternative_pickup,
	alternative_dropoff, driver_notes, payment_status, payment_method, booking_date, travel_date, updated_at`

const bookingInsert = `INSERT INTO bookings (id, booking_number, user_id, schedule_id, pickup_point, dropoff_point,
	custom_pickup_point, custom_dropoff_point, pickup_coordinates, dropoff_coordinates,
	number_of_seats, total_fare_cents, status, payment_status, payment_method, travel_date)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	RETURNING booking_date, updated_at`

func (r *PGBookingRepository) CreateStandard(ctx context.Context, booking *domain.Booking) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	// Lock the schedule row for the duration of the check-and-insert. Every
	// competing booking for this departure queues on the same lock.
	var capacity int
	err = tx.QueryRow(ctx, `SELECT v.capacity
		FROM schedules s
		JOIN vehicles v ON v.id = s.vehicle_id
		WHERE s.id = $1 AND s.is_active
		FOR UPDATE OF s`, *booking.ScheduleID).Scan(&capacity)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("schedule %d: %w", *booking.ScheduleID, domain.ErrNotFound)
		}
		return err
	}

	var committed int
	err = tx.QueryRow(ctx, `SELECT COALESCE(SUM(number_of_seats), 0)
		FROM bookings
		WHERE schedule_id = $1 AND travel_date = $2 AND status <> $3`,
		*booking.ScheduleID, booking.TravelDate, domain.BookingStatusCancelled).Scan(&committed)
	if err != nil {
		return err
	}
	if committed+booking.NumberOfSeats > capacity {
		return fmt.Errorf("schedule %d on %s: %d of %d seats taken, %d requested: %w",
			*booking.ScheduleID, booking.TravelDate, committed, capacity, booking.NumberOfSeats, domain.ErrCapacityExceeded)
	}

	if err := insertBooking(ctx, tx, booking); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *PGBookingRepository) CreateCustom(ctx context.Context, booking *domain.Booking) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := insertBooking(ctx, tx, booking); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// bookingNumber embeds the row id after the millisecond timestamp. The id is
// unique on its own, so two bookings created in the same millisecond still get
// distinct numbers.
func bookingNumber(at time.Time, id int64) string {
	return fmt.Sprintf("BK%d%d", at.UnixMilli(), id)
}

// insertBooking draws the row id up front so the booking number, which embeds
// it, can go into the same INSERT. booking_number is unique and not null.
func insertBooking(ctx context.Context, tx pgx.Tx, booking *domain.Booking) error {
	if err := tx.QueryRow(ctx, `SELECT nextval(pg_get_serial_sequence('bookings', 'id'))`).Scan(&booking.ID); err != nil {
		return err
	}
	booking.BookingNumber = bookingNumber(time.Now(), booking.ID)

	return tx.QueryRow(ctx, bookingInsert,
		booking.ID, booking.BookingNumber, booking.UserID, booking.ScheduleID,
		booking.PickupPoint, booking.DropoffPoint, booking.CustomPickupPoint, booking.CustomDropoffPoint,
		booking.PickupCoordinates, booking.DropoffCoordinates, booking.NumberOfSeats, booking.TotalFareCents,
		booking.Status, booking.PaymentStatus, booking.PaymentMethod, booking.TravelDate).
		Scan(&booking.BookingDate, &booking.UpdatedAt)
}

func (r *PGBookingRepository) GetByID(ctx context.Context, id int64) (*domain.Booking, error) {
	row := r.db.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id=$1`, id)
	var b domain.Booking
	if err := scanBooking(row, &b); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("booking %d: %w", id, domain.ErrNotFound)
		}
		return nil, err
	}
	return &b, nil
}

func (r *PGBookingRepository) UpdateStatus(ctx context.Context, id int64, from, to domain.BookingStatus) (*domain.Booking, error) {
	row := r.db.QueryRow(ctx, `UPDATE bookings SET status=$1, updated_at=now()
		WHERE id=$2 AND status=$3
		RETURNING `+bookingColumns, to, id, from)
	var b domain.Booking
	if err := scanBooking(row, &b); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, r.transitionConflict(ctx, id, from)
		}
		return nil, err
	}
	return &b, nil
}

func (r *PGBookingRepository) SetDriverResponse(ctx context.Context, id int64, response domain.DriverResponse, status domain.BookingStatus, altPickup, altDropoff, notes *string) (*domain.Booking, error) {
	row := r.db.QueryRow(ctx, `UPDATE bookings
		SET driver_response=$1, status=$2, alternative_pickup=$3, alternative_dropoff=$4, driver_notes=$5, updated_at=now()
		WHERE id=$6 AND status IN ($7, $8, $9)
		RETURNING `+bookingColumns,
		response, status, altPickup, altDropoff, notes, id,
		domain.BookingStatusPending, domain.BookingStatusPendingDriver, domain.BookingStatusDriverAlternative)
	var b domain.Booking
	if err := scanBooking(row, &b); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, r.responseConflict(ctx, id)
		}
		return nil, err
	}
	return &b, nil
}

// transitionConflict distinguishes a missing booking from one whose status has
// moved on since the caller read it.
func (r *PGBookingRepository) transitionConflict(ctx context.Context, id int64, expected domain.BookingStatus) error {
	var current domain.BookingStatus
	err := r.db.QueryRow(ctx, `SELECT status FROM bookings WHERE id=$1`, id).Scan(&current)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("booking %d: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return err
	}
	return fmt.Errorf("booking %d is %s, expected %s: %w", id, current, expected, domain.ErrInvalidState)
}

func (r *PGBookingRepository) responseConflict(ctx context.Context, id int64) error {
	var current domain.BookingStatus
	err := r.db.QueryRow(ctx, `SELECT status FROM bookings WHERE id=$1`, id).Scan(&current)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("booking %d: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return err
	}
	return fmt.Errorf("booking %d is %s, driver already answered or lifecycle moved on: %w", id, current, domain.ErrInvalidState)
}

func (r *PGBookingRepository) SeatsCommitted(ctx context.Context, scheduleID int64, travelDate string) (int, error) {
	var committed int
	err := r.db.QueryRow(ctx, `SELECT COALESCE(SUM(number_of_seats), 0)
		FROM bookings
		WHERE schedule_id = $1 AND travel_date = $2 AND status <> $3`,
		scheduleID, travelDate, domain.BookingStatusCancelled).Scan(&committed)
	return committed, err
}

func (r *PGBookingRepository) CancelUnansweredBefore(ctx context.Context, travelDate string) ([]domain.Booking, error) {
	rows, err := r.db.Query(ctx, `UPDATE bookings SET status=$1, updated_at=now()
		WHERE status IN ($2, $3) AND travel_date < $4
		RETURNING `+bookingColumns,
		domain.BookingStatusCancelled, domain.BookingStatusPending, domain.BookingStatusPendingDriver, travelDate)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cancelled []domain.Booking
	for rows.Next() {
		var b domain.Booking
		if err := scanBooking(rows, &b); err != nil {
			return nil, err
		}
		cancelled = append(cancelled, b)
	}
	return cancelled, rows.Err()
}

const bookingDetailQuery = `SELECT b.id, b.booking_number, b.user_id, b.schedule_id, b.pickup_point, b.dropoff_point,
	b.custom_pickup_point, b.custom_dropoff_point, b.pickup_coordinates, b.dropoff_coordinates,
	b.number_of_seats, b.total_fare_cents, b.status, b.driver_response, b.alternative_pickup,
	b.alternative_dropoff, b.driver_notes, b.payment_status, b.payment_method, b.booking_date, b.travel_date, b.updated_at,
	s.id, s.route_id, s.vehicle_id, s.departure_time, s.arrival_time, s.days_of_week, s.is_active,
	r.id, r.name, r.origin, r.destination, r.pickup_points, r.dropoff_points, r.base_fare_cents,
	r.estimated_duration, r.max_seats, r.route_type, r.is_active,
	v.id, v.vehicle_number, v.driver_id, v.capacity, v.vehicle_type, v.is_active, v.created_at, v.updated_at,
	d.id, d.username, d.email, d.full_name, d.phone, d.user_type, d.is_active, d.created_at
	FROM bookings b
	LEFT JOIN schedules s ON s.id = b.schedule_id
	LEFT JOIN routes r ON r.id = s.route_id
	LEFT JOIN vehicles v ON v.id = s.vehicle_id
	LEFT JOIN users d ON d.id = v.driver_id`

func (r *PGBookingRepository) GetWithDetails(ctx context.Context, id int64) (*domain.BookingWithDetails, error) {
	row := r.db.QueryRow(ctx, bookingDetailQuery+` WHERE b.id=$1`, id)
	var bd domain.BookingWithDetails
	if err := scanBookingDetails(row, &bd); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("booking %d: %w", id, domain.ErrNotFound)
		}
		return nil, err
	}
	return &bd, nil
}

func (r *PGBookingRepository) ListForUser(ctx context.Context, userID int64) ([]domain.BookingWithDetails, error) {
	return r.listDetails(ctx, bookingDetailQuery+` WHERE b.user_id=$1 ORDER BY b.booking_date DESC`, userID)
}

// ListForDriver walks driver -> vehicles -> schedules -> bookings. Custom
// bookings have no schedule and therefore never appear in a driver listing.
func (r *PGBookingRepository) ListForDriver(ctx context.Context, driverID int64) ([]domain.BookingWithDetails, error) {
	return r.listDetails(ctx, bookingDetailQuery+` WHERE v.driver_id=$1 ORDER BY b.booking_date DESC`, driverID)
}

func (r *PGBookingRepository) listDetails(ctx context.Context, query string, args ...any) ([]domain.BookingWithDetails, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	bookings := make([]domain.BookingWithDetails, 0)
	for rows.Next() {
		var bd domain.BookingWithDetails
		if err := scanBookingDetails(rows, &bd); err != nil {
			return nil, err
		}
		bookings = append(bookings, bd)
	}
	return bookings, rows.Err()
}

func scanBooking(row pgx.Row, b *domain.Booking) error {
	return row.Scan(&b.ID, &b.BookingNumber, &b.UserID, &b.ScheduleID, &b.PickupPoint, &b.DropoffPoint,
		&b.CustomPickupPoint, &b.CustomDropoffPoint, &b.PickupCoordinates, &b.DropoffCoordinates,
		&b.NumberOfSeats, &b.TotalFareCents, &b.Status, &b.DriverResponse, &b.AlternativePickup,
		&b.AlternativeDropoff, &b.DriverNotes, &b.PaymentStatus, &b.PaymentMethod, &b.BookingDate, &b.TravelDate, &b.UpdatedAt)
}

// scanBookingDetails reads the booking plus its (possibly absent) schedule
// chain. Every joined column scans into a nullable holder because custom
// bookings join nothing.
func scanBookingDetails(row pgx.Row, bd *domain.BookingWithDetails) error {
	var (
		s struct {
			id            *int64
			routeID       *int64
			vehicleID     *int64
			departureTime *string
			arrivalTime   *string
			daysOfWeek    []string
			isActive      *bool
		}
		rt struct {
			id                *int64
			name              *string
			origin            *string
			destination       *string
			pickupPoints      []string
			dropoffPoints     []string
			baseFareCents     *int64
			estimatedDuration *int
			maxSeats          *int
			routeType         *domain.RouteType
			isActive          *bool
		}
		v struct {
			id            *int64
			vehicleNumber *string
			driverID      *int64
			capacity      *int
			vehicleType   *string
			isActive      *bool
			createdAt     *time.Time
			updatedAt     *time.Time
		}
		d struct {
			id        *int64
			username  *string
			email     *string
			fullName  *string
			phone     *string
			userType  *domain.UserType
			isActive  *bool
			createdAt *time.Time
		}
	)

	err := row.Scan(&bd.ID, &bd.BookingNumber, &bd.UserID, &bd.ScheduleID, &bd.PickupPoint, &bd.DropoffPoint,
		&bd.CustomPickupPoint, &bd.CustomDropoffPoint, &bd.PickupCoordinates, &bd.DropoffCoordinates,
		&bd.NumberOfSeats, &bd.TotalFareCents, &bd.Status, &bd.DriverResponse, &bd.AlternativePickup,
		&bd.AlternativeDropoff, &bd.DriverNotes, &bd.PaymentStatus, &bd.PaymentMethod, &bd.BookingDate, &bd.TravelDate, &bd.UpdatedAt,
		&s.id, &s.routeID, &s.vehicleID, &s.departureTime, &s.arrivalTime, &s.daysOfWeek, &s.isActive,
		&rt.id, &rt.name, &rt.origin, &rt.destination, &rt.pickupPoints, &rt.dropoffPoints, &rt.baseFareCents,
		&rt.estimatedDuration, &rt.maxSeats, &rt.routeType, &rt.isActive,
		&v.id, &v.vehicleNumber, &v.driverID, &v.capacity, &v.vehicleType, &v.isActive, &v.createdAt, &v.updatedAt,
		&d.id, &d.username, &d.email, &d.fullName, &d.phone, &d.userType, &d.isActive, &d.createdAt)
	if err != nil {
		return err
	}

	if s.id != nil {
		bd.Schedule = &domain.Schedule{
			ID: *s.id, RouteID: *s.routeID, VehicleID: *s.vehicleID,
			DepartureTime: *s.departureTime, ArrivalTime: *s.arrivalTime,
			DaysOfWeek: s.daysOfWeek, IsActive: *s.isActive,
		}
	}
	if rt.id != nil {
		bd.Route = &domain.Route{
			ID: *rt.id, Name: *rt.name, Origin: *rt.origin, Destination: *rt.destination,
			PickupPoints: rt.pickupPoints, DropoffPoints: rt.dropoffPoints,
			BaseFareCents: *rt.baseFareCents, EstimatedDuration: *rt.estimatedDuration,
			MaxSeats: *rt.maxSeats, RouteType: *rt.routeType, IsActive: *rt.isActive,
		}
	}
	if v.id != nil {
		bd.Vehicle = &domain.Vehicle{
			ID: *v.id, VehicleNumber: *v.vehicleNumber, DriverID: v.driverID,
			Capacity: *v.capacity, VehicleType: *v.vehicleType, IsActive: *v.isActive,
			CreatedAt: *v.createdAt, UpdatedAt: *v.updatedAt,
		}
	}
	if d.id != nil {
		bd.Driver = &domain.User{
			ID: *d.id, Username: *d.username, Email: *d.email, FullName: *d.fullName,
			Phone: *d.phone, UserType: *d.userType, IsActive: *d.isActive, CreatedAt: *d.createdAt,
		}
	}
	return nil
}

var _ BookingRepository = (*PGBookingRepository)(nil)
