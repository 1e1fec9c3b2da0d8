package domain

import "time"

// Message is a direct message between two users, optionally attached to a
// booking (passenger and driver coordinating a pickup).
type Message struct {
	ID         int64     `json:"id"`
	SenderID   int64     `json:"sender_id"`
	ReceiverID int64     `json:"receiver_id"`
	BookingID  *int64    `json:"booking_id,omitempty"`
	Content    string    `json:"content"`
	IsRead     bool      `json:"is_read"`
	SentAt     time.Time `json:"sent_at"`
}
