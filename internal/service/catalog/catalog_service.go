package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/tmakoni/omnibus/internal/domain"
	"github.com/tmakoni/omnibus/internal/repository"
)

type CatalogUseCase interface {
	ListActiveRoutes(ctx context.Context) ([]domain.Route, error)
	GetRouteWithSchedules(ctx context.Context, id int64) (*domain.RouteWithSchedules, error)
	AvailableSchedules(ctx context.Context, date string) ([]domain.ScheduleWithDetails, error)
	DriverVehicles(ctx context.Context, driverID int64) ([]domain.Vehicle, error)
}

type RouteCache interface {
	GetRoutes(ctx context.Context) ([]domain.Route, error)
	SetRoutes(ctx context.Context, routes []domain.Route) error
}

type CatalogService struct {
	routes    repository.RouteRepository
	schedules repository.ScheduleRepository
	vehicles  repository.VehicleRepository
	users     repository.UserRepository
	cache     RouteCache
}

func NewCatalogService(routes repository.RouteRepository, schedules repository.ScheduleRepository,
	vehicles repository.VehicleRepository, users repository.UserRepository, cache RouteCache) *CatalogService {
	return &CatalogService{routes: routes, schedules: schedules, vehicles: vehicles, users: users, cache: cache}
}

func (s *CatalogService) ListActiveRoutes(ctx context.Context) ([]domain.Route, error) {
	if s.cache != nil {
		if cached, err := s.cache.GetRoutes(ctx); err == nil && cached != nil {
			return cached, nil
		}
	}

	routes, err := s.routes.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		_ = s.cache.SetRoutes(ctx, routes)
	}
	return routes, nil
}

func (s *CatalogService) GetRouteWithSchedules(ctx context.Context, id int64) (*domain.RouteWithSchedules, error) {
	route, err := s.routes.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	schedules, err := s.schedules.ListByRoute(ctx, id)
	if err != nil {
		return nil, err
	}

	out := &domain.RouteWithSchedules{Route: *route, Schedules: make([]domain.ScheduleWithDetails, 0, len(schedules))}
	for i := range schedules {
		detail, err := s.enrich(ctx, &schedules[i], route)
		if err != nil {
			return nil, err
		}
		out.Schedules = append(out.Schedules, *detail)
	}
	return out, nil
}

// AvailableSchedules lists active schedules running on the given date, joined
// with route, vehicle and driver. The weekday always comes from the date.
func (s *CatalogService) AvailableSchedules(ctx context.Context, date string) ([]domain.ScheduleWithDetails, error) {
	parsed, err := domain.ParseDate(date)
	if err != nil {
		return nil, fmt.Errorf("travel date %q: %w", date, domain.ErrValidation)
	}

	day := strings.ToLower(parsed.Weekday().String())
	schedules, err := s.schedules.ListActiveByDay(ctx, day)
	if err != nil {
		return nil, err
	}

	available := make([]domain.ScheduleWithDetails, 0, len(schedules))
	for i := range schedules {
		detail, err := s.enrich(ctx, &schedules[i], nil)
		if err != nil {
			return nil, err
		}
		if detail.Route != nil && !detail.Route.IsActive {
			continue
		}
		available = append(available, *detail)
	}
	return available, nil
}

// DriverVehicles lists the vehicles assigned to a driver, for the driver's
// own view of upcoming runs.
func (s *CatalogService) DriverVehicles(ctx context.Context, driverID int64) ([]domain.Vehicle, error) {
	return s.vehicles.ListByDriver(ctx, driverID)
}

func (s *CatalogService) enrich(ctx context.Context, schedule *domain.Schedule, route *domain.Route) (*domain.ScheduleWithDetails, error) {
	detail := &domain.ScheduleWithDetails{Schedule: *schedule, Route: route}

	if detail.Route == nil {
		r, err := s.routes.GetByID(ctx, schedule.RouteID)
		if err != nil {
			return nil, err
		}
		detail.Route = r
	}

	vehicle, err := s.vehicles.GetByID(ctx, schedule.VehicleID)
	if err != nil {
		return nil, err
	}
	detail.Vehicle = vehicle

	if vehicle.DriverID != nil {
		driver, err := s.users.GetByID(ctx, *vehicle.DriverID)
		if err != nil {
			return nil, err
		}
		detail.Driver = driver
	}
	return detail, nil
}

var _ CatalogUseCase = (*CatalogService)(nil)
