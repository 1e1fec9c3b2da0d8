package main

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	kafkaGo "github.com/segmentio/kafka-go"

	"github.com/tmakoni/omnibus/config"
	"github.com/tmakoni/omnibus/internal/email"
	"github.com/tmakoni/omnibus/internal/kafka"
	"github.com/tmakoni/omnibus/internal/repository"
	"github.com/tmakoni/omnibus/internal/service/booking"
	"github.com/tmakoni/omnibus/internal/service/subscription"
)

func main() {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	producer := kafka.NewProducer(cfg.Kafka.Brokers)
	defer producer.Close()
	// Sweep events have no requester waiting on them; retry publishes instead
	// of dropping them on a broker hiccup.
	publisher := kafka.NewRetryingPublisher(producer, 3)

	routeRepo := repository.NewRouteRepository(pool)
	vehicleRepo := repository.NewVehicleRepository(pool)
	scheduleRepo := repository.NewScheduleRepository(pool)
	userRepo := repository.NewUserRepository(pool)
	bookingRepo := repository.NewBookingRepository(pool)
	subscriptionRepo := repository.NewSubscriptionRepository(pool)

	bookingService := booking.NewBookingService(
		bookingRepo,
		scheduleRepo,
		routeRepo,
		vehicleRepo,
		nil,
		publisher,
		cfg.Kafka.BookingTopic,
		cfg.Booking.ServiceFeeCents,
		time.Duration(cfg.Booking.HoldTTLSeconds)*time.Second,
		booking.WithNotificationsTopic(cfg.Kafka.NotificationsTopic),
	)
	subscriptionService := subscription.NewSubscriptionService(subscriptionRepo, routeRepo, publisher, cfg.Kafka.NotificationsTopic)

	consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID, cfg.Kafka.NotificationsTopic)
	defer consumer.Close()

	sender := email.NewSender()

	go func() {
		if err := consumer.Consume(ctx, func(ctx context.Context, msg kafkaGo.Message) error {
			notify(ctx, userRepo, sender, msg)
			return nil
		}); err != nil {
			log.Printf("consumer stopped: %v", err)
		}
	}()

	sweepTicker := time.NewTicker(time.Duration(cfg.Worker.ExpirationSweepMinutes) * time.Minute)
	defer sweepTicker.Stop()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	for {
		select {
		case <-sweepTicker.C:
			cancelled, err := bookingService.CancelStale(ctx)
			if err != nil {
				log.Printf("cancel stale bookings: %v", err)
			} else if len(cancelled) > 0 {
				log.Printf("cancelled %d stale bookings", len(cancelled))
			}

			expired, err := subscriptionService.ExpireDue(ctx)
			if err != nil {
				log.Printf("expire subscriptions: %v", err)
			} else if len(expired) > 0 {
				log.Printf("expired %d subscriptions", len(expired))
			}
		case s := <-sig:
			log.Printf("received signal %v, shutting down", s)
			return
		}
	}
}

// notify resolves the recipient address and mails the decoded event. Message
// keys distinguish subscription events from booking events.
func notify(ctx context.Context, users repository.UserRepository, sender *email.Sender, msg kafkaGo.Message) {
	if strings.HasPrefix(string(msg.Key), "subscription-") {
		var event kafka.SubscriptionEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			log.Printf("decode subscription event: %v", err)
			return
		}
		user, err := users.GetByID(ctx, event.UserID)
		if err != nil {
			log.Printf("lookup user %d: %v", event.UserID, err)
			return
		}
		if err := sender.SendSubscriptionUpdate(ctx, user.Email, event); err != nil {
			log.Printf("send subscription email: %v", err)
		}
		return
	}

	var event kafka.BookingEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		log.Printf("decode booking event: %v", err)
		return
	}
	user, err := users.GetByID(ctx, event.UserID)
	if err != nil {
		log.Printf("lookup user %d: %v", event.UserID, err)
		return
	}
	if err := sender.SendBookingUpdate(ctx, user.Email, event); err != nil {
		log.Printf("send booking email: %v", err)
	}
}
