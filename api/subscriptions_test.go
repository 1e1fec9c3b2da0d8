package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/tmakoni/omnibus/internal/domain"
	"github.com/tmakoni/omnibus/internal/service/subscription"
)

type MockSubscriptionUseCase struct {
	mock.Mock
}

func (m *MockSubscriptionUseCase) Create(ctx context.Context, input subscription.CreateSubscriptionInput) (*domain.Subscription, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Subscription), args.Error(1)
}

func (m *MockSubscriptionUseCase) Get(ctx context.Context, id int64) (*domain.Subscription, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Subscription), args.Error(1)
}

func (m *MockSubscriptionUseCase) ListForUser(ctx context.Context, userID int64) ([]domain.Subscription, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]domain.Subscription), args.Error(1)
}

func (m *MockSubscriptionUseCase) UseRide(ctx context.Context, id int64) (*domain.Subscription, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Subscription), args.Error(1)
}

func (m *MockSubscriptionUseCase) Pause(ctx context.Context, id int64) (*domain.Subscription, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Subscription), args.Error(1)
}

func (m *MockSubscriptionUseCase) Resume(ctx context.Context, id int64) (*domain.Subscription, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Subscription), args.Error(1)
}

func (m *MockSubscriptionUseCase) Cancel(ctx context.Context, id int64) (*domain.Subscription, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Subscription), args.Error(1)
}

func (m *MockSubscriptionUseCase) ExpireDue(ctx context.Context) ([]domain.Subscription, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Subscription), args.Error(1)
}

func TestSubscriptionHandler_create(t *testing.T) {
	mockService := &MockSubscriptionUseCase{}
	handler := NewSubscriptionHandler(mockService)

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	body, _ := json.Marshal(map[string]interface{}{
		"user_id":        42,
		"route_id":       3,
		"package_type":   "3months",
		"start_date":     "2025-01-15",
		"payment_method": "ecocash",
	})
	c.Request = httptest.NewRequest("POST", "/api/subscriptions", bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")

	created := &domain.Subscription{
		ID: 9, UserID: 42, RouteID: 3,
		PackageType: domain.Package3Months, EndDate: "2025-04-15",
		TotalAmountCents: 28350, MaxRides: 90,
		Status: domain.SubscriptionStatusActive,
	}
	mockService.On("Create", c.Request.Context(), subscription.CreateSubscriptionInput{
		UserID: 42, RouteID: 3, PackageType: domain.Package3Months,
		StartDate: "2025-01-15", PaymentMethod: "ecocash",
	}).Return(created, nil)

	handler.create(c)

	assert.Equal(t, http.StatusCreated, w.Code)

	var response domain.Subscription
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, int64(28350), response.TotalAmountCents)
	assert.Equal(t, "2025-04-15", response.EndDate)

	mockService.AssertExpectations(t)
}

func TestSubscriptionHandler_createUnknownPackage(t *testing.T) {
	mockService := &MockSubscriptionUseCase{}
	handler := NewSubscriptionHandler(mockService)

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	body, _ := json.Marshal(map[string]interface{}{
		"user_id": 42, "route_id": 3, "package_type": "2weeks",
		"start_date": "2025-01-15", "payment_method": "cash",
	})
	c.Request = httptest.NewRequest("POST", "/api/subscriptions", bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")

	pkgErr := fmt.Errorf("package type %q: %w", "2weeks", domain.ErrInvalidPackageType)
	mockService.On("Create", c.Request.Context(), mock.AnythingOfType("subscription.CreateSubscriptionInput")).Return(nil, pkgErr)

	handler.create(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSubscriptionHandler_useRideExhausted(t *testing.T) {
	mockService := &MockSubscriptionUseCase{}
	handler := NewSubscriptionHandler(mockService)

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest("POST", "/api/subscriptions/9/use-ride", nil)
	c.Params = gin.Params{{Key: "id", Value: "9"}}

	quotaErr := fmt.Errorf("subscription 9 is active with 90 of 90 rides used: %w", domain.ErrInvalidState)
	mockService.On("UseRide", c.Request.Context(), int64(9)).Return(nil, quotaErr)

	handler.useRide(c)

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestSubscriptionHandler_updateStatusPause(t *testing.T) {
	mockService := &MockSubscriptionUseCase{}
	handler := NewSubscriptionHandler(mockService)

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	body, _ := json.Marshal(map[string]interface{}{"status": "paused"})
	c.Request = httptest.NewRequest("PATCH", "/api/subscriptions/9/status", bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Params = gin.Params{{Key: "id", Value: "9"}}

	paused := &domain.Subscription{ID: 9, Status: domain.SubscriptionStatusPaused}
	mockService.On("Pause", c.Request.Context(), int64(9)).Return(paused, nil)

	handler.updateStatus(c)

	assert.Equal(t, http.StatusOK, w.Code)
	mockService.AssertExpectations(t)
}

func TestSubscriptionHandler_updateStatusExpiredRejected(t *testing.T) {
	handler := NewSubscriptionHandler(&MockSubscriptionUseCase{})

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	body, _ := json.Marshal(map[string]interface{}{"status": "expired"})
	c.Request = httptest.NewRequest("PATCH", "/api/subscriptions/9/status", bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Params = gin.Params{{Key: "id", Value: "9"}}

	handler.updateStatus(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
