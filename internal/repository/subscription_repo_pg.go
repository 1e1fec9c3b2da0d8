package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tmakoni/omnibus/internal/domain"
)

type SubscriptionRepository interface {
	Create(ctx context.Context, sub *domain.Subscription) error
	GetByID(ctx context.Context, id int64) (*domain.Subscription, error)
	ListForUser(ctx context.Context, userID int64) ([]domain.Subscription, error)
	UpdateStatus(ctx context.Context, id int64, from, to domain.SubscriptionStatus) (*domain.Subscription, error)
	// IncrementRidesUsed consumes one ride. The quota guard is in the WHERE
	// clause, so two concurrent check-ins never push rides_used past max_rides.
	IncrementRidesUsed(ctx context.Context, id int64) (*domain.Subscription, error)
	// ExpireActiveBefore flips active subscriptions whose end date has passed
	// and returns them. Used by the worker sweep.
	ExpireActiveBefore(ctx context.Context, date string) ([]domain.Subscription, error)
}

type PGSubscriptionRepository struct {
	db *pgxpool.Pool
}

func NewSubscriptionRepository(db *pgxpool.Pool) SubscriptionRepository {
	return &PGSubscriptionRepository{db: db}
}

const subscriptionColumns = `id, user_id, route_id, package_type, start_date, end_date,
	total_amount_cents, discount_percent, payment_method, payment_status, status, rides_used, max_rides, created_at`

func (r *PGSubscriptionRepository) Create(ctx context.Context, sub *domain.Subscription) error {
	return r.db.QueryRow(ctx, `INSERT INTO subscriptions (user_id, route_id, package_type, start_date, end_date,
		total_amount_cents, discount_percent, payment_method, payment_status, status, rides_used, max_rides)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id, created_at`,
		sub.UserID, sub.RouteID, sub.PackageType, sub.StartDate, sub.EndDate,
		sub.TotalAmountCents, sub.DiscountPercent, sub.PaymentMethod, sub.PaymentStatus,
		sub.Status, sub.RidesUsed, sub.MaxRides).
		Scan(&sub.ID, &sub.CreatedAt)
}

func (r *PGSubscriptionRepository) GetByID(ctx context.Context, id int64) (*domain.Subscription, error) {
	row := r.db.QueryRow(ctx, `SELECT `+subscriptionColumns+` FROM subscriptions WHERE id=$1`, id)
	var s domain.Subscription
	if err := scanSubscription(row, &s); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("subscription %d: %w", id, domain.ErrNotFound)
		}
		return nil, err
	}
	return &s, nil
}

func (r *PGSubscriptionRepository) ListForUser(ctx context.Context, userID int64) ([]domain.Subscription, error) {
	rows, err := r.db.Query(ctx, `SELECT `+subscriptionColumns+` FROM subscriptions WHERE user_id=$1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	subs := make([]domain.Subscription, 0)
	for rows.Next() {
		var s domain.Subscription
		if err := scanSubscription(rows, &s); err != nil {
			return nil, err
		}
		subs = append(subs, s)
	}
	return subs, rows.Err()
}

func (r *PGSubscriptionRepository) UpdateStatus(ctx context.Context, id int64, from, to domain.SubscriptionStatus) (*domain.Subscription, error) {
	row := r.db.QueryRow(ctx, `UPDATE subscriptions SET status=$1 WHERE id=$2 AND status=$3
		RETURNING `+subscriptionColumns, to, id, from)
	var s domain.Subscription
	if err := scanSubscription(row, &s); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, r.statusConflict(ctx, id, from)
		}
		return nil, err
	}
	return &s, nil
}

func (r *PGSubscriptionRepository) IncrementRidesUsed(ctx context.Context, id int64) (*domain.Subscription, error) {
	row := r.db.QueryRow(ctx, `UPDATE subscriptions SET rides_used = rides_used + 1
		WHERE id=$1 AND status=$2 AND rides_used < max_rides
		RETURNING `+subscriptionColumns, id, domain.SubscriptionStatusActive)
	var s domain.Subscription
	if err := scanSubscription(row, &s); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, r.rideConflict(ctx, id)
		}
		return nil, err
	}
	return &s, nil
}

func (r *PGSubscriptionRepository) ExpireActiveBefore(ctx context.Context, date string) ([]domain.Subscription, error) {
	rows, err := r.db.Query(ctx, `UPDATE subscriptions SET status=$1
		WHERE status=$2 AND end_date < $3
		RETURNING `+subscriptionColumns,
		domain.SubscriptionStatusExpired, domain.SubscriptionStatusActive, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var expired []domain.Subscription
	for rows.Next() {
		var s domain.Subscription
		if err := scanSubscription(rows, &s); err != nil {
			return nil, err
		}
		expired = append(expired, s)
	}
	return expired, rows.Err()
}

func (r *PGSubscriptionRepository) statusConflict(ctx context.Context, id int64, expected domain.SubscriptionStatus) error {
	var current domain.SubscriptionStatus
	err := r.db.QueryRow(ctx, `SELECT status FROM subscriptions WHERE id=$1`, id).Scan(&current)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("subscription %d: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return err
	}
	return fmt.Errorf("subscription %d is %s, expected %s: %w", id, current, expected, domain.ErrInvalidState)
}

func (r *PGSubscriptionRepository) rideConflict(ctx context.Context, id int64) error {
	var (
		current   domain.SubscriptionStatus
		used, max int
	)
	err := r.db.QueryRow(ctx, `SELECT status, rides_used, max_rides FROM subscriptions WHERE id=$1`, id).Scan(&current, &used, &max)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("subscription %d: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return err
	}
	return fmt.Errorf("subscription %d is %s with %d of %d rides used: %w", id, current, used, max, domain.ErrInvalidState)
}

func scanSubscription(row pgx.Row, s *domain.Subscription) error {
	return row.Scan(&s.ID, &s.UserID, &s.RouteID, &s.PackageType, &s.StartDate, &s.EndDate,
		&s.TotalAmountCents, &s.DiscountPercent, &s.PaymentMethod, &s.PaymentStatus,
		&s.Status, &s.RidesUsed, &s.MaxRides, &s.CreatedAt)
}

var _ SubscriptionRepository = (*PGSubscriptionRepository)(nil)
