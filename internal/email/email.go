package email

import (
	"context"
	"fmt"

	"github.com/tmakoni/omnibus/internal/kafka"
)

// Sender delivers passenger notifications. The current transport prints to
// stdout; the worker resolves the recipient address before calling it.
type Sender struct{}

func NewSender() *Sender {
	return &Sender{}
}

func (s *Sender) SendBookingUpdate(ctx context.Context, to string, event kafka.BookingEvent) error {
	fmt.Printf("send email to %s: booking %s is now %s (travel date %s, %d seats)\n",
		to, event.BookingNumber, event.Status, event.TravelDate, event.NumberOfSeats)
	return nil
}

func (s *Sender) SendSubscriptionUpdate(ctx context.Context, to string, event kafka.SubscriptionEvent) error {
	fmt.Printf("send email to %s: %s subscription %d is now %s (valid until %s)\n",
		to, event.PackageType, event.SubscriptionID, event.Status, event.EndDate)
	return nil
}
