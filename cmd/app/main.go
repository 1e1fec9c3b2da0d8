package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tmakoni/omnibus/config"
	"github.com/tmakoni/omnibus/internal/bootstrap"
	"github.com/tmakoni/omnibus/internal/cache"
	"github.com/tmakoni/omnibus/internal/kafka"
	"github.com/tmakoni/omnibus/internal/repository"
	"github.com/tmakoni/omnibus/internal/service/booking"
	"github.com/tmakoni/omnibus/internal/service/catalog"
	"github.com/tmakoni/omnibus/internal/service/messaging"
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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	redisCache := cache.NewRedisCache(cfg.Redis, time.Duration(cfg.Booking.RoutesCacheTTL)*time.Second)
	producer := kafka.NewProducer(cfg.Kafka.Brokers)
	defer producer.Close()

	routeRepo := repository.NewRouteRepository(pool)
	vehicleRepo := repository.NewVehicleRepository(pool)
	scheduleRepo := repository.NewScheduleRepository(pool)
	userRepo := repository.NewUserRepository(pool)
	bookingRepo := repository.NewBookingRepository(pool)
	subscriptionRepo := repository.NewSubscriptionRepository(pool)
	messageRepo := repository.NewMessageRepository(pool)

	catalogService := catalog.NewCatalogService(routeRepo, scheduleRepo, vehicleRepo, userRepo, redisCache)
	bookingService := booking.NewBookingService(
		bookingRepo,
		scheduleRepo,
		routeRepo,
		vehicleRepo,
		redisCache,
		producer,
		cfg.Kafka.BookingTopic,
		cfg.Booking.ServiceFeeCents,
		time.Duration(cfg.Booking.HoldTTLSeconds)*time.Second,
		booking.WithNotificationsTopic(cfg.Kafka.NotificationsTopic),
	)
	subscriptionService := subscription.NewSubscriptionService(subscriptionRepo, routeRepo, producer, cfg.Kafka.NotificationsTopic)
	messagingService := messaging.NewMessagingService(messageRepo)

	if err := bootstrap.Run(ctx, cfg, catalogService, bookingService, subscriptionService, messagingService); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
