package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/akarpov91/milesbook/config"
	"github.com/akarpov91/milesbook/internal/bootstrap"
	"github.com/akarpov91/milesbook/internal/cache"
	"github.com/akarpov91/milesbook/internal/kafka"
	"github.com/akarpov91/milesbook/internal/pricing"
	"github.com/akarpov91/milesbook/internal/repository"
	"github.com/akarpov91/milesbook/internal/service/booking"
	"github.com/akarpov91/milesbook/internal/service/flights"
	"github.com/akarpov91/milesbook/internal/service/loyalty"
	"github.com/akarpov91/milesbook/internal/service/settlement"
	"github.com/jackc/pgx/v5/pgxpool"
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

	redisCache := cache.NewRedisCache(cfg.Redis, time.Duration(cfg.Booking.FlightsCacheTTL)*time.Second)
	producer := kafka.NewProducer(cfg.Kafka.Brokers)
	defer producer.Close()

	runner := repository.NewTxRunner(pool, time.Duration(cfg.Booking.LockTimeoutMS)*time.Millisecond)
	flightRepo := repository.NewFlightRepository(pool)
	bookingRepo := repository.NewBookingRepository(pool)
	loyaltyRepo := repository.NewLoyaltyRepository(pool)

	loyaltyService := loyalty.NewLoyaltyService(loyaltyRepo, runner)
	flightService := flights.NewFlightService(flightRepo, redisCache)
	bookingService := booking.NewBookingService(
		bookingRepo,
		flightRepo,
		loyaltyService,
		pricing.NewPredictor(cfg.Pricing),
		producer,
		runner,
		cfg.Kafka.BookingEventsTopic,
		booking.WithNotificationsTopic(cfg.Kafka.NotificationsTopic),
	)
	settlementService := settlement.NewSettlementService(
		flightRepo,
		bookingRepo,
		loyaltyService,
		producer,
		runner,
		cfg.Kafka.NotificationsTopic,
		settlement.WithFlightCache(redisCache),
	)

	if err := bootstrap.Run(ctx, cfg, bootstrap.Services{
		Flights:    flightService,
		Bookings:   bookingService,
		Loyalty:    loyaltyService,
		Settlement: settlementService,
	}); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
