package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"github.com/clinicbook/booking-api/internal/config"
	"github.com/clinicbook/booking-api/internal/email"
	"github.com/clinicbook/booking-api/internal/handler"
	authHandler "github.com/clinicbook/booking-api/internal/handler/auth"
	bookingHandler "github.com/clinicbook/booking-api/internal/handler/booking"
	dashboardHandler "github.com/clinicbook/booking-api/internal/handler/dashboard"
	notificationHandler "github.com/clinicbook/booking-api/internal/handler/notification"
	"github.com/clinicbook/booking-api/internal/middleware"
	"github.com/clinicbook/booking-api/internal/repository/postgres"
	"github.com/clinicbook/booking-api/internal/router"
	authService "github.com/clinicbook/booking-api/internal/service/auth"
	bookingService "github.com/clinicbook/booking-api/internal/service/booking"
	dashboardService "github.com/clinicbook/booking-api/internal/service/dashboard"
	notificationService "github.com/clinicbook/booking-api/internal/service/notification"
	userService "github.com/clinicbook/booking-api/internal/service/user"
	"github.com/clinicbook/booking-api/pkg/auth"
	"github.com/clinicbook/booking-api/pkg/messaging/redis"
	"github.com/clinicbook/booking-api/pkg/metrics"
	"github.com/clinicbook/booking-api/pkg/security"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	broker, err := redis.NewRedisBroker(redis.Config{
		URL:          cfg.Redis.URL,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
	}, &log.Logger)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to Redis")
	}
	defer broker.Close()

	// Initialize repositories
	bookingRepo := postgres.NewBookingRepository(db)
	notificationRepo := postgres.NewNotificationRepository(db)
	userRepo := postgres.NewUserRepository(db)

	// Initialize services
	m := metrics.NewMetrics("booking_api")
	jwtSvc := auth.NewJWTService(cfg.JWT.Secret, time.Duration(cfg.JWT.ExpiryHours)*time.Hour)
	hasher := security.NewBcryptHasher(bcrypt.DefaultCost)

	mailer := newMailer()

	notificationSvc := notificationService.NewService(notificationRepo, broker, log.Logger)
	directorySvc := userService.NewService(userRepo)
	bookingSvc := bookingService.NewService(bookingRepo, notificationSvc, directorySvc, mailer, m, log.Logger)
	authSvc := authService.NewService(userRepo, jwtSvc, hasher)
	dashboardSvc := dashboardService.NewService(bookingRepo, userRepo)

	// Initialize middleware and handlers
	authMiddleware := middleware.NewAuthMiddleware(jwtSvc)
	h := handler.NewHandler(db)

	r := router.NewRouter(
		authMiddleware,
		authHandler.NewHandler(authSvc),
		bookingHandler.NewHandler(bookingSvc),
		notificationHandler.NewHandler(notificationSvc),
		dashboardHandler.NewHandler(dashboardSvc),
		h,
		router.RouterConfig{
			RateLimitRPS:   cfg.RateLimit.RPS,
			RateLimitBurst: cfg.RateLimit.Burst,
			RequestTimeout: time.Duration(cfg.Server.TimeoutSeconds) * time.Second,
			CORSConfig:     middleware.DefaultCORSConfig(),
			MetricsPrefix:  "booking_api",
		},
	)
	r.Setup()

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: r.Engine(),
	}

	go func() {
		log.Info().Int("port", cfg.Server.Port).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server exited properly")
}

func newMailer() email.Service {
	smtpCfg, err := email.LoadSMTPConfig()
	if err != nil {
		log.Warn().Err(err).Msg("failed to load SMTP config, email disabled")
		return email.NewNoopService()
	}
	if smtpCfg.Host == "" {
		log.Info().Msg("no SMTP host configured, email disabled")
		return email.NewNoopService()
	}
	return email.NewSMTPService(smtpCfg)
}
