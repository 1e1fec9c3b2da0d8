package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tmakoni/omnibus/internal/domain"
)

type RouteRepository interface {
	ListActive(ctx context.Context) ([]domain.Route, error)
	GetByID(ctx context.Context, id int64) (*domain.Route, error)
	Create(ctx context.Context, route *domain.Route) error
}

type PGRouteRepository struct {
	db *pgxpool.Pool
}

func NewRouteRepository(db *pgxpool.Pool) RouteRepository {
	return &PGRouteRepository{db: db}
}

const routeColumns = `id, name, origin, destination, pickup_points, dropoff_points, base_fare_cents, estimated_duration, max_seats, route_type, is_active`

func (r *PGRouteRepository) ListActive(ctx context.Context) ([]domain.Route, error) {
	return r.list(ctx, `SELECT `+routeColumns+` FROM routes WHERE is_active ORDER BY id`)
}

func (r *PGRouteRepository) list(ctx context.Context, query string) ([]domain.Route, error) {
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	routes := make([]domain.Route, 0)
	for rows.Next() {
		var rt domain.Route
		if err := scanRoute(rows, &rt); err != nil {
			return nil, err
		}
		routes = append(routes, rt)
	}
	return routes, rows.Err()
}

func (r *PGRouteRepository) GetByID(ctx context.Context, id int64) (*domain.Route, error) {
	row := r.db.QueryRow(ctx, `SELECT `+routeColumns+` FROM routes WHERE id=$1`, id)
	var rt domain.Route
	if err := scanRoute(row, &rt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("route %d: %w", id, domain.ErrNotFound)
		}
		return nil, err
	}
	return &rt, nil
}

func (r *PGRouteRepository) Create(ctx context.Context, route *domain.Route) error {
	return r.db.QueryRow(ctx, `INSERT INTO routes (name, origin, destination, pickup_points, dropoff_points, base_fare_cents, estimated_duration, max_seats, route_type, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id`,
		route.Name, route.Origin, route.Destination, route.PickupPoints, route.DropoffPoints,
		route.BaseFareCents, route.EstimatedDuration, route.MaxSeats, route.RouteType, route.IsActive).
		Scan(&route.ID)
}

func scanRoute(row pgx.Row, rt *domain.Route) error {
	return row.Scan(&rt.ID, &rt.Name, &rt.Origin, &rt.Destination, &rt.PickupPoints, &rt.DropoffPoints,
		&rt.BaseFareCents, &rt.EstimatedDuration, &rt.MaxSeats, &rt.RouteType, &rt.IsActive)
}

var _ RouteRepository = (*PGRouteRepository)(nil)
