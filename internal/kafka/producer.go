package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/segmentio/kafka-go"
)

// BookingEvent is published on every booking lifecycle transition. Type names
// the transition (created, driver_responded, confirmed, started, completed,
// cancelled, expired).
type BookingEvent struct {
	Type          string `json:"type"`
	BookingID     int64  `json:"booking_id"`
	BookingNumber string `json:"booking_number"`
	UserID        int64  `json:"user_id"`
	ScheduleID    *int64 `json:"schedule_id,omitempty"`
	TravelDate    string `json:"travel_date"`
	NumberOfSeats int    `json:"number_of_seats"`
	Status        string `json:"status"`
}

// SubscriptionEvent is published when a subscription is purchased, cancelled
// or expired.
type SubscriptionEvent struct {
	Type           string `json:"type"`
	SubscriptionID int64  `json:"subscription_id"`
	UserID         int64  `json:"user_id"`
	RouteID        int64  `json:"route_id"`
	PackageType    string `json:"package_type"`
	EndDate        string `json:"end_date"`
	Status         string `json:"status"`
}

type Producer struct {
	writer *kafka.Writer
}

func NewProducer(brokers []string) *Producer {
	return &Producer{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Balancer:     &kafka.LeastBytes{},
			BatchTimeout: 50 * time.Millisecond,
			RequiredAcks: kafka.RequireOne,
		},
	}
}

func (p *Producer) Publish(ctx context.Context, topic, key string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: data,
		Time:  time.Now(),
	})
	if err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}
	return nil
}

// Publisher is the send surface shared by Producer and its wrappers.
type Publisher interface {
	Publish(ctx context.Context, topic, key string, payload interface{}) error
}

// RetryingPublisher retries failed publishes with linear backoff. The worker
// wraps its producer in one: sweep events have no caller to report a failure
// to, so a broker hiccup would otherwise drop them.
type RetryingPublisher struct {
	pub      Publisher
	attempts int
	backoff  time.Duration
}

func NewRetryingPublisher(pub Publisher, attempts int) *RetryingPublisher {
	return &RetryingPublisher{pub: pub, attempts: attempts, backoff: 500 * time.Millisecond}
}

func (r *RetryingPublisher) Publish(ctx context.Context, topic, key string, payload interface{}) error {
	var lastErr error
	for i := 0; i < r.attempts; i++ {
		err := r.pub.Publish(ctx, topic, key, payload)
		if err == nil {
			return nil
		}
		lastErr = err
		log.Printf("publish attempt %d to %s failed: %v", i+1, topic, err)
		if i < r.attempts-1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(i+1) * r.backoff):
			}
		}
	}
	return fmt.Errorf("failed after %d attempts: %w", r.attempts, lastErr)
}

func (p *Producer) Close() error {
	if p.writer != nil {
		return p.writer.Close()
	}
	return nil
}
