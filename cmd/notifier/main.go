package main

import (
	"context"
	"errors"
	"log"
	"os/signal"
	"syscall"

	"courtbooking/internal/config"
	"courtbooking/internal/database"
	"courtbooking/internal/notification"
	"courtbooking/internal/pkg/mq"
	"courtbooking/internal/repository"
	"courtbooking/internal/telemetry"
)

// notifier consumes notification events from RabbitMQ and delivers them.
// The API publishes to the bus instead of delivering in-process when
// RABBIT_URL is set.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	if cfg.RabbitURL == "" {
		log.Fatal("RABBIT_URL is empty")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Init(ctx, "courtbooking-notifier", cfg.OTLPEndpoint)
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = shutdownTracing(context.Background()) }()

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal(err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatal(err)
	}

	var sender notification.Sender = notification.LogSender{}
	if cfg.ExpoAccessToken != "" {
		sender = notification.NewExpoSender(cfg.ExpoAccessToken)
	}
	// websocket sessions live in the API process; here only the inbox and push apply
	dispatcher := notification.NewDispatcher(1, repository.NewUserRepository(db), sender, notification.NewStore(db), nil)

	cons, err := mq.NewConsumer(cfg.RabbitURL, cfg.RabbitExchange, cfg.RabbitQueue, []string{notification.RoutingPattern})
	if err != nil {
		log.Fatal(err)
	}
	defer cons.Close()

	log.Printf("notifier consuming queue=%s exchange=%s", cfg.RabbitQueue, cfg.RabbitExchange)
	if err := notification.Consume(ctx, cons, dispatcher); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal(err)
	}
	log.Println("notifier stopped")
}
