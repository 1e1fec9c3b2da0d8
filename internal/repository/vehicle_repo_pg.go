package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tmakoni/omnibus/internal/domain"
)

type VehicleRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Vehicle, error)
	ListByDriver(ctx context.Context, driverID int64) ([]domain.Vehicle, error)
	Create(ctx context.Context, vehicle *domain.Vehicle) error
}

type PGVehicleRepository struct {
	db *pgxpool.Pool
}

func NewVehicleRepository(db *pgxpool.Pool) VehicleRepository {
	return &PGVehicleRepository{db: db}
}

const vehicleColumns = `id, vehicle_number, driver_id, capacity, vehicle_type, is_active, created_at, updated_at`

func (r *PGVehicleRepository) GetByID(ctx context.Context, id int64) (*domain.Vehicle, error) {
	row := r.db.QueryRow(ctx, `SELECT `+vehicleColumns+` FROM vehicles WHERE id=$1`, id)
	var v domain.Vehicle
	if err := scanVehicle(row, &v); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("vehicle %d: %w", id, domain.ErrNotFound)
		}
		return nil, err
	}
	return &v, nil
}

func (r *PGVehicleRepository) ListByDriver(ctx context.Context, driverID int64) ([]domain.Vehicle, error) {
	rows, err := r.db.Query(ctx, `SELECT `+vehicleColumns+` FROM vehicles WHERE driver_id=$1 ORDER BY id`, driverID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	vehicles := make([]domain.Vehicle, 0)
	for rows.Next() {
		var v domain.Vehicle
		if err := scanVehicle(rows, &v); err != nil {
			return nil, err
		}
		vehicles = append(vehicles, v)
	}
	return vehicles, rows.Err()
}

func (r *PGVehicleRepository) Create(ctx context.Context, vehicle *domain.Vehicle) error {
	return r.db.QueryRow(ctx, `INSERT INTO vehicles (vehicle_number, driver_id, capacity, vehicle_type, is_active)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at`,
		vehicle.VehicleNumber, vehicle.DriverID, vehicle.Capacity, vehicle.VehicleType, vehicle.IsActive).
		Scan(&vehicle.ID, &vehicle.CreatedAt, &vehicle.UpdatedAt)
}

func scanVehicle(row pgx.Row, v *domain.Vehicle) error {
	return row.Scan(&v.ID, &v.VehicleNumber, &v.DriverID, &v.Capacity, &v.VehicleType, &v.IsActive, &v.CreatedAt, &v.UpdatedAt)
}

var _ VehicleRepository = (*PGVehicleRepository)(nil)
