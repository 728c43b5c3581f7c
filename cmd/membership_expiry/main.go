package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"syscall"
	"time"

	"courtbooking/internal/config"
	"courtbooking/internal/database"
	"courtbooking/internal/domain"
	"courtbooking/internal/modules/membership"
	"courtbooking/internal/notification"
	"courtbooking/internal/pkg/mq"
	"courtbooking/internal/repository"
)

// membership_expiry runs one expiry scan and exits. It is meant for an
// external daily timer when the in-process scheduler is disabled.
func main() {
	date := flag.String("date", "", "scan as of this day (YYYY-MM-DD), default today in EXPIRY_TIMEZONE")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, 10*time.Minute)
	defer cancel()

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal(err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatal(err)
	}

	userRepo := repository.NewUserRepository(db)

	var events notification.Publisher
	if cfg.RabbitURL != "" {
		pub, err := mq.NewPublisher(cfg.RabbitURL, cfg.RabbitExchange)
		if err != nil {
			log.Fatal(err)
		}
		defer pub.Close()
		events = notification.NewBusPublisher(pub)
	} else {
		var sender notification.Sender = notification.LogSender{}
		if cfg.ExpoAccessToken != "" {
			sender = notification.NewExpoSender(cfg.ExpoAccessToken)
		}
		d := notification.NewDispatcher(1, userRepo, sender, notification.NewStore(db), nil)
		events = notification.Inline{D: d}
	}

	svc := membership.NewService(repository.NewTransactor(db, cfg.TxRetries), userRepo, events, cfg.Location())
	day := svc.Today()
	if *date != "" {
		day, err = domain.ParseDay(*date)
		if err != nil {
			log.Fatalf("invalid -date: %v", err)
		}
	}

	report, err := svc.RunExpiryScan(ctx, day)
	if err != nil {
		log.Fatal(err)
	}
	if report.Failed > 0 {
		log.Fatalf("membership_expiry finished with %d failures", report.Failed)
	}
}
