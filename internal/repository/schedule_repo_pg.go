package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tmakoni/omnibus/internal/domain"
)

type ScheduleRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Schedule, error)
	ListByRoute(ctx context.Context, routeID int64) ([]domain.Schedule, error)
	ListActiveByDay(ctx context.Context, day string) ([]domain.Schedule, error)
	Create(ctx context.Context, schedule *domain.Schedule) error
}

type PGScheduleRepository struct {
	db *pgxpool.Pool
}

func NewScheduleRepository(db *pgxpool.Pool) ScheduleRepository {
	return &PGScheduleRepository{db: db}
}

const scheduleColumns = `id, route_id, vehicle_id, departure_time, arrival_time, days_of_week, is_active`

func (r *PGScheduleRepository) GetByID(ctx context.Context, id int64) (*domain.Schedule, error) {
	row := r.db.QueryRow(ctx, `SELECT `+scheduleColumns+` FROM schedules WHERE id=$1`, id)
	var s domain.Schedule
	if err := scanSchedule(row, &s); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("schedule %d: %w", id, domain.ErrNotFound)
		}
		return nil, err
	}
	return &s, nil
}

func (r *PGScheduleRepository) ListByRoute(ctx context.Context, routeID int64) ([]domain.Schedule, error) {
	return r.list(ctx, `SELECT `+scheduleColumns+` FROM schedules WHERE route_id=$1 ORDER BY departure_time`, routeID)
}

// ListActiveByDay returns active schedules operating on the given lowercase
// weekday name.
func (r *PGScheduleRepository) ListActiveByDay(ctx context.Context, day string) ([]domain.Schedule, error) {
	return r.list(ctx, `SELECT `+scheduleColumns+` FROM schedules WHERE is_active AND $1 = ANY(days_of_week) ORDER BY departure_time`, day)
}

func (r *PGScheduleRepository) list(ctx context.Context, query string, args ...any) ([]domain.Schedule, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	schedules := make([]domain.Schedule, 0)
	for rows.Next() {
		var s domain.Schedule
		if err := scanSchedule(rows, &s); err != nil {
			return nil, err
		}
		schedules = append(schedules, s)
	}
	return schedules, rows.Err()
}

func (r *PGScheduleRepository) Create(ctx context.Context, schedule *domain.Schedule) error {
	return r.db.QueryRow(ctx, `INSERT INTO schedules (route_id, vehicle_id, departure_time, arrival_time, days_of_week, is_active)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`,
		schedule.RouteID, schedule.VehicleID, schedule.DepartureTime, schedule.ArrivalTime, schedule.DaysOfWeek, schedule.IsActive).
		Scan(&schedule.ID)
}

func scanSchedule(row pgx.Row, s *domain.Schedule) error {
	return row.Scan(&s.ID, &s.RouteID, &s.VehicleID, &s.DepartureTime, &s.ArrivalTime, &s.DaysOfWeek, &s.IsActive)
}

var _ ScheduleRepository = (*PGScheduleRepository)(nil)
