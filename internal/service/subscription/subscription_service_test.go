package subscription

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/tmakoni/omnibus/internal/domain"
)

type MockSubscriptionRepository struct {
	mock.Mock
}

func (m *MockSubscriptionRepository) Create(ctx context.Context, sub *domain.Subscription) error {
	args := m.Called(ctx, sub)
	return args.Error(0)
}

func (m *MockSubscriptionRepository) GetByID(ctx context.Context, id int64) (*domain.Subscription, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Subscription), args.Error(1)
}

func (m *MockSubscriptionRepository) ListForUser(ctx context.Context, userID int64) ([]domain.Subscription, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]domain.Subscription), args.Error(1)
}

func (m *MockSubscriptionRepository) UpdateStatus(ctx context.Context, id int64, from, to domain.SubscriptionStatus) (*domain.Subscription, error) {
	args := m.Called(ctx, id, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Subscription), args.Error(1)
}

func (m *MockSubscriptionRepository) IncrementRidesUsed(ctx context.Context, id int64) (*domain.Subscription, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Subscription), args.Error(1)
}

func (m *MockSubscriptionRepository) ExpireActiveBefore(ctx context.Context, date string) ([]domain.Subscription, error) {
	args := m.Called(ctx, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Subscription), args.Error(1)
}

type MockRouteRepository struct {
	mock.Mock
}

func (m *MockRouteRepository) ListActive(ctx context.Context) ([]domain.Route, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Route), args.Error(1)
}

func (m *MockRouteRepository) GetByID(ctx context.Context, id int64) (*domain.Route, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Route), args.Error(1)
}

func (m *MockRouteRepository) Create(ctx context.Context, route *domain.Route) error {
	args := m.Called(ctx, route)
	return args.Error(0)
}

func commuterRoute() *domain.Route {
	return &domain.Route{
		ID:            3,
		Name:          "CBD Express",
		BaseFareCents: 350,
		RouteType:     domain.RouteTypeWork,
		IsActive:      true,
	}
}

func TestCreate_ThreeMonthPackage(t *testing.T) {
	subs := &MockSubscriptionRepository{}
	routes := &MockRouteRepository{}
	service := NewSubscriptionService(subs, routes, nil, "")

	ctx := context.Background()
	routes.On("GetByID", ctx, int64(3)).Return(commuterRoute(), nil).Once()
	subs.On("Create", ctx, mock.AnythingOfType("*domain.Subscription")).Run(func(args mock.Arguments) {
		args.Get(1).(*domain.Subscription).ID = 9
	}).Return(nil).Once()

	sub, err := service.Create(ctx, CreateSubscriptionInput{
		UserID: 42, RouteID: 3, PackageType: domain.Package3Months,
		StartDate: "2025-01-15", PaymentMethod: "ecocash",
	})

	assert.NoError(t, err)
	// 350c per trip, 10% off, priced over 90 nominal days: 350*90*90/100.
	assert.Equal(t, int64(28350), sub.TotalAmountCents)
	assert.Equal(t, 10, sub.DiscountPercent)
	assert.Equal(t, "2025-04-15", sub.EndDate)
	assert.Equal(t, 90, sub.MaxRides)
	assert.Equal(t, 0, sub.RidesUsed)
	assert.Equal(t, domain.SubscriptionStatusActive, sub.Status)
	assert.Equal(t, domain.PaymentStatusPending, sub.PaymentStatus)

	subs.AssertExpectations(t)
	routes.AssertExpectations(t)
}

func TestCreate_TwelveMonthPackage(t *testing.T) {
	subs := &MockSubscriptionRepository{}
	routes := &MockRouteRepository{}
	service := NewSubscriptionService(subs, routes, nil, "")

	ctx := context.Background()
	routes.On("GetByID", ctx, int64(3)).Return(commuterRoute(), nil).Once()
	subs.On("Create", ctx, mock.AnythingOfType("*domain.Subscription")).Return(nil).Once()

	sub, err := service.Create(ctx, CreateSubscriptionInput{
		UserID: 42, RouteID: 3, PackageType: domain.Package12Months,
		StartDate: "2025-03-01", PaymentMethod: "cash",
	})

	assert.NoError(t, err)
	// 350*365*75/100
	assert.Equal(t, int64(95812), sub.TotalAmountCents)
	assert.Equal(t, 25, sub.DiscountPercent)
	assert.Equal(t, "2026-03-01", sub.EndDate)
	assert.Equal(t, 365, sub.MaxRides)
}

func TestCreate_UnknownPackage(t *testing.T) {
	service := NewSubscriptionService(&MockSubscriptionRepository{}, &MockRouteRepository{}, nil, "")

	_, err := service.Create(context.Background(), CreateSubscriptionInput{
		UserID: 42, RouteID: 3, PackageType: "2weeks",
		StartDate: "2025-01-15", PaymentMethod: "cash",
	})

	assert.ErrorIs(t, err, domain.ErrInvalidPackageType)
}

func TestCreate_MissingPaymentMethod(t *testing.T) {
	service := NewSubscriptionService(&MockSubscriptionRepository{}, &MockRouteRepository{}, nil, "")

	_, err := service.Create(context.Background(), CreateSubscriptionInput{
		UserID: 42, RouteID: 3, PackageType: domain.Package1Month, StartDate: "2025-01-15",
	})

	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestCreate_BadStartDate(t *testing.T) {
	service := NewSubscriptionService(&MockSubscriptionRepository{}, &MockRouteRepository{}, nil, "")

	_, err := service.Create(context.Background(), CreateSubscriptionInput{
		UserID: 42, RouteID: 3, PackageType: domain.Package1Month,
		StartDate: "15 Jan 2025", PaymentMethod: "cash",
	})

	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestUseRide(t *testing.T) {
	subs := &MockSubscriptionRepository{}
	service := NewSubscriptionService(subs, &MockRouteRepository{}, nil, "")

	ctx := context.Background()
	used := &domain.Subscription{ID: 9, RidesUsed: 31, MaxRides: 90, Status: domain.SubscriptionStatusActive}
	subs.On("IncrementRidesUsed", ctx, int64(9)).Return(used, nil).Once()

	sub, err := service.UseRide(ctx, 9)

	assert.NoError(t, err)
	assert.Equal(t, 31, sub.RidesUsed)
}

func TestUseRide_QuotaExhausted(t *testing.T) {
	subs := &MockSubscriptionRepository{}
	service := NewSubscriptionService(subs, &MockRouteRepository{}, nil, "")

	ctx := context.Background()
	quotaErr := fmt.Errorf("subscription 9 is active with 90 of 90 rides used: %w", domain.ErrInvalidState)
	subs.On("IncrementRidesUsed", ctx, int64(9)).Return(nil, quotaErr).Once()

	_, err := service.UseRide(ctx, 9)

	assert.ErrorIs(t, err, domain.ErrInvalidState)
}

func TestPauseAndResume(t *testing.T) {
	subs := &MockSubscriptionRepository{}
	service := NewSubscriptionService(subs, &MockRouteRepository{}, nil, "")

	ctx := context.Background()
	paused := &domain.Subscription{ID: 9, Status: domain.SubscriptionStatusPaused}
	active := &domain.Subscription{ID: 9, Status: domain.SubscriptionStatusActive}
	subs.On("UpdateStatus", ctx, int64(9), domain.SubscriptionStatusActive, domain.SubscriptionStatusPaused).Return(paused, nil).Once()
	subs.On("UpdateStatus", ctx, int64(9), domain.SubscriptionStatusPaused, domain.SubscriptionStatusActive).Return(active, nil).Once()

	sub, err := service.Pause(ctx, 9)
	assert.NoError(t, err)
	assert.Equal(t, domain.SubscriptionStatusPaused, sub.Status)

	sub, err = service.Resume(ctx, 9)
	assert.NoError(t, err)
	assert.Equal(t, domain.SubscriptionStatusActive, sub.Status)
}

func TestCancel_ExpiredIsRejected(t *testing.T) {
	subs := &MockSubscriptionRepository{}
	service := NewSubscriptionService(subs, &MockRouteRepository{}, nil, "")

	ctx := context.Background()
	expired := &domain.Subscription{ID: 9, Status: domain.SubscriptionStatusExpired}
	subs.On("GetByID", ctx, int64(9)).Return(expired, nil).Once()

	_, err := service.Cancel(ctx, 9)

	assert.ErrorIs(t, err, domain.ErrInvalidState)
}

func TestCancel_AlreadyCancelledIsIdempotent(t *testing.T) {
	subs := &MockSubscriptionRepository{}
	service := NewSubscriptionService(subs, &MockRouteRepository{}, nil, "")

	ctx := context.Background()
	cancelled := &domain.Subscription{ID: 9, Status: domain.SubscriptionStatusCancelled}
	subs.On("GetByID", ctx, int64(9)).Return(cancelled, nil).Once()

	sub, err := service.Cancel(ctx, 9)

	assert.NoError(t, err)
	assert.Equal(t, cancelled, sub)
	subs.AssertNotCalled(t, "UpdateStatus")
}

func TestExpireDue(t *testing.T) {
	subs := &MockSubscriptionRepository{}
	service := NewSubscriptionService(subs, &MockRouteRepository{}, nil, "")

	ctx := context.Background()
	expired := []domain.Subscription{{ID: 9, Status: domain.SubscriptionStatusExpired}}
	subs.On("ExpireActiveBefore", ctx, mock.AnythingOfType("string")).Return(expired, nil).Once()

	result, err := service.ExpireDue(ctx)

	assert.NoError(t, err)
	assert.Len(t, result, 1)
}
