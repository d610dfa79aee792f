package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/akarpov91/milesbook/config"
	"github.com/akarpov91/milesbook/internal/cache"
	"github.com/akarpov91/milesbook/internal/email"
	"github.com/akarpov91/milesbook/internal/kafka"
	"github.com/akarpov91/milesbook/internal/repository"
	"github.com/akarpov91/milesbook/internal/service/loyalty"
	"github.com/akarpov91/milesbook/internal/service/settlement"
	"github.com/jackc/pgx/v5/pgxpool"
	kafkaGo "github.com/segmentio/kafka-go"
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

	redisCache := cache.NewRedisCache(cfg.Redis, time.Duration(cfg.Booking.FlightsCacheTTL)*time.Second)
	producer := kafka.NewProducer(cfg.Kafka.Brokers)
	defer producer.Close()

	runner := repository.NewTxRunner(pool, time.Duration(cfg.Booking.LockTimeoutMS)*time.Millisecond)
	flightRepo := repository.NewFlightRepository(pool)
	bookingRepo := repository.NewBookingRepository(pool)
	loyaltyRepo := repository.NewLoyaltyRepository(pool)

	loyaltyService := loyalty.NewLoyaltyService(loyaltyRepo, runner)
	settlementService := settlement.NewSettlementService(
		flightRepo,
		bookingRepo,
		loyaltyService,
		producer,
		runner,
		cfg.Kafka.NotificationsTopic,
		settlement.WithFlightCache(redisCache),
	)

	consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID, cfg.Kafka.NotificationsTopic)
	defer consumer.Close()

	emailSender := email.NewSender()

	go func() {
		if err := consumer.Consume(ctx, func(ctx context.Context, msg kafkaGo.Message) error {
			return emailSender.Handle(ctx, msg.Value)
		}); err != nil {
			log.Printf("consumer stopped: %v", err)
		}
	}()

	sweepInterval := time.Duration(cfg.Settlement.SweepIntervalMinutes) * time.Minute
	if sweepInterval <= 0 {
		sweepInterval = 24 * time.Hour
	}
	sweepTicker := time.NewTicker(sweepInterval)
	defer sweepTicker.Stop()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	for {
		select {
		case <-sweepTicker.C:
			report, err := settlementService.RunSweep(ctx, time.Now())
			if err != nil {
				log.Printf("settlement sweep error: %v", err)
				continue
			}
			if report.FlightsProcessed > 0 {
				log.Printf("settled %d flights, awarded %d points", report.FlightsProcessed, report.PointsAwarded)
			}
		case s := <-sig:
			log.Printf("received signal %v, shutting down", s)
			return
		}
	}
}
