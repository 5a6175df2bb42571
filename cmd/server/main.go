package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/minsu-hwang/event-ticket-reservation/internal/config"
	"github.com/minsu-hwang/event-ticket-reservation/internal/database"
	"github.com/minsu-hwang/event-ticket-reservation/internal/handler"
	"github.com/minsu-hwang/event-ticket-reservation/internal/queue"
	"github.com/minsu-hwang/event-ticket-reservation/internal/repository"
	"github.com/minsu-hwang/event-ticket-reservation/internal/router"
	"github.com/minsu-hwang/event-ticket-reservation/internal/service"
	"github.com/minsu-hwang/event-ticket-reservation/pkg/logger"
)

func main() {
	// .env is optional; real deployments inject the environment directly.
	_ = godotenv.Load()

	log := logger.WithComponent("server")
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatal("database connection failed", zap.Error(err))
	}
	defer func() { _ = db.Close() }()

	// Redis backs rate limiting and the availability cache; both degrade to
	// pass-through when it is unreachable.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Warn("redis unavailable, rate limiting and caching disabled")
	}

	// Repositories.
	ticketRepo := repository.NewTicketRepo(db)
	reservationRepo := repository.NewReservationRepo(db)
	scheduleRepo := repository.NewScheduleRepo(db)
	venueRepo := repository.NewVenueRepo(db)
	paymentRepo := repository.NewPaymentRepo(db)
	userRepo := repository.NewUserRepo(db)
	tokenRepo := repository.NewTokenRepo(db)

	// Services.
	publisher := queue.NewPublisher()
	reservationSvc := service.NewReservationService(ticketRepo, reservationRepo, scheduleRepo, publisher, cfg.HoldDuration)
	paymentSvc := service.NewPaymentService(reservationSvc, paymentRepo, publisher)
	scheduleSvc := service.NewScheduleService(scheduleRepo, venueRepo, ticketRepo)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// The expiry sweeper reclaims lapsed holds in the background.
	sweeper := service.NewSweeper(reservationRepo, reservationSvc, cfg.SweepInterval, cfg.SweepBatchSize)
	go sweeper.Run(ctx)

	// Broker consumer writes the audit log; it reconnects forever on its own.
	go func() {
		if err := queue.StartAuditConsumer(); err != nil {
			log.Warn("audit consumer stopped", zap.Error(err))
		}
	}()

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())

	rlCfg := config.LoadRateLimitConfig()
	cacheCfg := config.LoadCacheConfig()

	router.RegisterHealth(e)
	router.RegisterAuth(e, handler.NewAuthHandler(cfg, userRepo, tokenRepo), cfg.JWTSecret)
	router.RegisterBrowse(e, handler.NewBrowseHandler(scheduleRepo, ticketRepo), cacheCfg, rdb)
	router.RegisterReservations(e, handler.NewReservationHandler(reservationSvc, paymentSvc), cfg.JWTSecret, rlCfg, rdb)
	router.RegisterPayments(e, handler.NewPaymentHandler(paymentSvc))
	router.RegisterAdmin(e, handler.NewAdminHandler(venueRepo, scheduleRepo, scheduleSvc), cfg.JWTSecret)

	go func() {
		addr := ":" + cfg.Port
		log.Info("listening", zap.String("addr", addr), zap.String("env", cfg.Env))
		if err := e.Start(addr); err != nil {
			log.Info("http server closed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Warn("graceful shutdown failed", zap.Error(err))
	}
}
