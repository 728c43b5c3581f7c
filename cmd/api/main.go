package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"courtbooking/internal/config"
	"courtbooking/internal/database"
	"courtbooking/internal/modules/booking"
	"courtbooking/internal/modules/joinrequest"
	"courtbooking/internal/modules/membership"
	"courtbooking/internal/notification"
	jwtsvc "courtbooking/internal/pkg/jwt"
	"courtbooking/internal/pkg/mq"
	"courtbooking/internal/repository"
	"courtbooking/internal/telemetry"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	gin.SetMode(cfg.GinMode)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Init(ctx, "courtbooking-api", cfg.OTLPEndpoint)
	if err != nil {
		log.Fatal(err)
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			log.Printf("telemetry shutdown error=%q", err.Error())
		}
	}()

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal(err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatal(err)
	}

	tx := repository.NewTransactor(db, cfg.TxRetries)
	userRepo := repository.NewUserRepository(db)
	courtRepo := repository.NewCourtRepository(db)
	bookingRepo := repository.NewBookingRepository(db)
	joinRepo := repository.NewJoinRequestRepository(db)

	j := jwtsvc.New(cfg.JWTSecret, cfg.JWTTTL)

	hub := notification.NewHub()
	store := notification.NewStore(db)
	var sender notification.Sender = notification.LogSender{}
	if cfg.ExpoAccessToken != "" {
		sender = notification.NewExpoSender(cfg.ExpoAccessToken)
	}
	dispatcher := notification.NewDispatcher(cfg.NotifyQueueSize, userRepo, sender, store, hub)

	var events notification.Publisher = dispatcher
	if cfg.RabbitURL != "" {
		pub, err := mq.NewPublisher(cfg.RabbitURL, cfg.RabbitExchange)
		if err != nil {
			log.Fatal(err)
		}
		defer pub.Close()
		events = notification.NewBusPublisher(pub)
		log.Printf("notifications routed to exchange=%s", cfg.RabbitExchange)

		// cmd/notifier stores and pushes; this process only feeds its own sessions
		live, err := mq.NewConsumer(cfg.RabbitURL, cfg.RabbitExchange, "", []string{notification.RoutingPattern})
		if err != nil {
			log.Fatal(err)
		}
		defer live.Close()
		go func() {
			if err := notification.Consume(ctx, live, notification.NewLiveDispatcher(userRepo, hub)); err != nil && !errors.Is(err, context.Canceled) {
				log.Printf("live notification consumer stopped error=%q", err.Error())
			}
		}()
	} else {
		go dispatcher.Run(ctx)
	}

	bookingService := booking.NewService(tx, bookingRepo, courtRepo, userRepo, events, booking.Config{
		MaxPlayers:     cfg.MaxTeamSize,
		MaxBookingDays: cfg.MaxBookingDays,
	})
	bookingHandler := booking.NewHandler(bookingService)

	joinService := joinrequest.NewService(tx, bookingRepo, joinRepo, bookingService.Quota(), events, cfg.MaxTeamSize)
	joinHandler := joinrequest.NewHandler(joinService)

	membershipService := membership.NewService(tx, userRepo, events, cfg.Location())
	scheduler, err := membership.NewScheduler(membershipService, cfg.ExpiryRunAt, cfg.Location())
	if err != nil {
		log.Fatal(err)
	}
	if cfg.ExpiryEnabled {
		go scheduler.Start(ctx)
	}
	membershipHandler := membership.NewHandler(membershipService, scheduler)

	r := newRouter(cfg, j, handlers{
		booking:       bookingHandler,
		joinRequests:  joinHandler,
		membership:    membershipHandler,
		notifications: notification.NewHandler(store, hub, j),
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("api listening addr=%s env=%s", cfg.HTTPAddr, cfg.AppEnv)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err)
		}
	}()

	<-ctx.Done()
	log.Println("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("http shutdown error=%q", err.Error())
	}
}
