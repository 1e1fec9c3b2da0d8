package domain

import "time"

type PackageType string

const (
	Package1Month   PackageType = "1month"
	Package3Months  PackageType = "3months"
	Package6Months  PackageType = "6months"
	Package12Months PackageType = "12months"
)

type SubscriptionStatus string

const (
	SubscriptionStatusActive    SubscriptionStatus = "active"
	SubscriptionStatusPaused    SubscriptionStatus = "paused"
	SubscriptionStatusCancelled SubscriptionStatus = "cancelled"
	SubscriptionStatusExpired   SubscriptionStatus = "expired"
)

type Subscription struct {
	ID               int64              `json:"id"`
	UserID           int64              `json:"user_id"`
	RouteID          int64              `json:"route_id"`
	PackageType      PackageType        `json:"package_type"`
	StartDate        string             `json:"start_date"` // YYYY-MM-DD
	EndDate          string             `json:"end_date"`   // derived, never settable
	TotalAmountCents int64              `json:"total_amount_cents"`
	DiscountPercent  int                `json:"discount_percent"`
	PaymentMethod    string             `json:"payment_method"`
	PaymentStatus    PaymentStatus      `json:"payment_status"`
	Status           SubscriptionStatus `json:"status"`
	RidesUsed        int                `json:"rides_used"`
	MaxRides         int                `json:"max_rides"`
	CreatedAt        time.Time          `json:"created_at"`
}

func (p PackageType) Valid() bool {
	switch p {
	case Package1Month, Package3Months, Package6Months, Package12Months:
		return true
	}
	return false
}

// Months is the calendar duration used for the end date.
func (p PackageType) Months() int {
	switch p {
	case Package1Month:
		return 1
	case Package3Months:
		return 3
	case Package6Months:
		return 6
	case Package12Months:
		return 12
	}
	return 0
}

// NominalDays is the fixed day count used for pricing. It is intentionally not
// the calendar distance between start and end date: 3 months is always priced
// as 90 days so the quoted amount never depends on which month the package
// starts in.
func (p PackageType) NominalDays() int {
	switch p {
	case Package1Month:
		return 30
	case Package3Months:
		return 90
	case Package6Months:
		return 180
	case Package12Months:
		return 365
	}
	return 0
}

// DiscountPercent is the tier applied to the per-trip fare.
func (p PackageType) DiscountPercent() int {
	switch p {
	case Package1Month:
		return 0
	case Package3Months:
		return 10
	case Package6Months:
		return 15
	case Package12Months:
		return 25
	}
	return 0
}
