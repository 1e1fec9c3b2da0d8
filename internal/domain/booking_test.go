package domain

import "testing"

// TestCanTransition verifies the booking state machine table.
func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to BookingStatus
		want     bool
	}{
		// driver decisions on fresh bookings
		{BookingStatusPending, BookingStatusConfirmed, true},
		{BookingStatusPending, BookingStatusDriverAlternative, true},
		{BookingStatusPending, BookingStatusCancelled, true},
		{BookingStatusPendingDriver, BookingStatusConfirmed, true},
		{BookingStatusPendingDriver, BookingStatusDriverAlternative, true},
		{BookingStatusPendingDriver, BookingStatusCancelled, true},
		// passenger decision on a counter-offer
		{BookingStatusDriverAlternative, BookingStatusConfirmed, true},
		{BookingStatusDriverAlternative, BookingStatusCancelled, true},
		// trip progress
		{BookingStatusConfirmed, BookingStatusInTransit, true},
		{BookingStatusConfirmed, BookingStatusCancelled, true},
		{BookingStatusInTransit, BookingStatusCompleted, true},
		// invalid: terminal states have no outgoing transitions
		{BookingStatusCompleted, BookingStatusInTransit, false},
		{BookingStatusCompleted, BookingStatusCancelled, false},
		{BookingStatusCancelled, BookingStatusConfirmed, false},
		{BookingStatusCancelled, BookingStatusPending, false},
		// invalid: skipping states
		{BookingStatusPending, BookingStatusInTransit, false},
		{BookingStatusPending, BookingStatusCompleted, false},
		{BookingStatusDriverAlternative, BookingStatusInTransit, false},
		{BookingStatusInTransit, BookingStatusCancelled, false},
		{BookingStatusConfirmed, BookingStatusDriverAlternative, false},
	}
	for _, tc := range cases {
		if got := CanTransition(tc.from, tc.to); got != tc.want {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestIsTerminal(t *testing.T) {
	for _, s := range []BookingStatus{BookingStatusCompleted, BookingStatusCancelled} {
		if !s.IsTerminal() {
			t.Errorf("%s should be terminal", s)
		}
	}
	for _, s := range []BookingStatus{
		BookingStatusPending, BookingStatusPendingDriver, BookingStatusConfirmed,
		BookingStatusDriverAlternative, BookingStatusInTransit,
	} {
		if s.IsTerminal() {
			t.Errorf("%s should not be terminal", s)
		}
	}
}
