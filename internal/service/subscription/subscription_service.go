package subscription

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/tmakoni/omnibus/internal/domain"
	"github.com/tmakoni/omnibus/internal/kafka"
	"github.com/tmakoni/omnibus/internal/repository"
)

type SubscriptionUseCase interface {
	Create(ctx context.Context, input CreateSubscriptionInput) (*domain.Subscription, error)
	Get(ctx context.Context, id int64) (*domain.Subscription, error)
	ListForUser(ctx context.Context, userID int64) ([]domain.Subscription, error)
	UseRide(ctx context.Context, id int64) (*domain.Subscription, error)
	Pause(ctx context.Context, id int64) (*domain.Subscription, error)
	Resume(ctx context.Context, id int64) (*domain.Subscription, error)
	Cancel(ctx context.Context, id int64) (*domain.Subscription, error)
	ExpireDue(ctx context.Context) ([]domain.Subscription, error)
}

type Producer interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
}

type SubscriptionService struct {
	subscriptions repository.SubscriptionRepository
	routes        repository.RouteRepository
	producer      Producer
	topic         string
}

type CreateSubscriptionInput struct {
	UserID        int64              `json:"user_id"`
	RouteID       int64              `json:"route_id"`
	PackageType   domain.PackageType `json:"package_type"`
	StartDate     string             `json:"start_date"`
	PaymentMethod string             `json:"payment_method"`
}

func NewSubscriptionService(subscriptions repository.SubscriptionRepository, routes repository.RouteRepository,
	producer Producer, topic string) *SubscriptionService {
	return &SubscriptionService{subscriptions: subscriptions, routes: routes, producer: producer, topic: topic}
}

// Create prices the package off the route's base fare. The total is the
// discounted per-trip fare times the package's nominal day count, while the
// end date follows the calendar, so a 3-month package is always priced as 90
// trips however long the actual months run.
func (s *SubscriptionService) Create(ctx context.Context, input CreateSubscriptionInput) (*domain.Subscription, error) {
	if !input.PackageType.Valid() {
		return nil, fmt.Errorf("package type %q: %w", input.PackageType, domain.ErrInvalidPackageType)
	}
	if input.PaymentMethod == "" {
		return nil, fmt.Errorf("payment method is required: %w", domain.ErrValidation)
	}
	start, err := domain.ParseDate(input.StartDate)
	if err != nil {
		return nil, fmt.Errorf("start date %q: %w", input.StartDate, domain.ErrValidation)
	}

	route, err := s.routes.GetByID(ctx, input.RouteID)
	if err != nil {
		return nil, err
	}

	days := input.PackageType.NominalDays()
	discount := input.PackageType.DiscountPercent()
	// Multiply before dividing so the discount never truncates per trip.
	total := route.BaseFareCents * int64(days) * int64(100-discount) / 100

	sub := &domain.Subscription{
		UserID:           input.UserID,
		RouteID:          input.RouteID,
		PackageType:      input.PackageType,
		StartDate:        input.StartDate,
		EndDate:          start.AddDate(0, input.PackageType.Months(), 0).Format(domain.DateLayout),
		TotalAmountCents: total,
		DiscountPercent:  discount,
		PaymentMethod:    input.PaymentMethod,
		PaymentStatus:    domain.PaymentStatusPending,
		Status:           domain.SubscriptionStatusActive,
		RidesUsed:        0,
		MaxRides:         days,
	}

	if err := s.subscriptions.Create(ctx, sub); err != nil {
		return nil, err
	}

	s.publish(ctx, "subscription_created", sub)
	return sub, nil
}

func (s *SubscriptionService) Get(ctx context.Context, id int64) (*domain.Subscription, error) {
	return s.subscriptions.GetByID(ctx, id)
}

func (s *SubscriptionService) ListForUser(ctx context.Context, userID int64) ([]domain.Subscription, error) {
	return s.subscriptions.ListForUser(ctx, userID)
}

func (s *SubscriptionService) UseRide(ctx context.Context, id int64) (*domain.Subscription, error) {
	return s.subscriptions.IncrementRidesUsed(ctx, id)
}

func (s *SubscriptionService) Pause(ctx context.Context, id int64) (*domain.Subscription, error) {
	return s.subscriptions.UpdateStatus(ctx, id, domain.SubscriptionStatusActive, domain.SubscriptionStatusPaused)
}

func (s *SubscriptionService) Resume(ctx context.Context, id int64) (*domain.Subscription, error) {
	return s.subscriptions.UpdateStatus(ctx, id, domain.SubscriptionStatusPaused, domain.SubscriptionStatusActive)
}

func (s *SubscriptionService) Cancel(ctx context.Context, id int64) (*domain.Subscription, error) {
	current, err := s.subscriptions.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.Status == domain.SubscriptionStatusCancelled {
		return current, nil
	}
	if current.Status == domain.SubscriptionStatusExpired {
		return nil, fmt.Errorf("subscription %d is expired: %w", id, domain.ErrInvalidState)
	}

	updated, err := s.subscriptions.UpdateStatus(ctx, id, current.Status, domain.SubscriptionStatusCancelled)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, "subscription_cancelled", updated)
	return updated, nil
}

// ExpireDue flips active subscriptions whose end date has passed. Called from
// the worker sweep.
func (s *SubscriptionService) ExpireDue(ctx context.Context) ([]domain.Subscription, error) {
	today := time.Now().Format(domain.DateLayout)
	expired, err := s.subscriptions.ExpireActiveBefore(ctx, today)
	if err != nil {
		return nil, err
	}
	for i := range expired {
		s.publish(ctx, "subscription_expired", &expired[i])
	}
	return expired, nil
}

func (s *SubscriptionService) publish(ctx context.Context, eventType string, sub *domain.Subscription) {
	if s.producer == nil || s.topic == "" {
		return
	}
	event := kafka.SubscriptionEvent{
		Type:           eventType,
		SubscriptionID: sub.ID,
		UserID:         sub.UserID,
		RouteID:        sub.RouteID,
		PackageType:    string(sub.PackageType),
		EndDate:        sub.EndDate,
		Status:         string(sub.Status),
	}
	if err := s.producer.Publish(ctx, s.topic, fmt.Sprintf("subscription-%d", sub.ID), event); err != nil {
		log.Printf("failed to publish %s event for subscription %d: %v", eventType, sub.ID, err)
	}
}

var _ SubscriptionUseCase = (*SubscriptionService)(nil)
