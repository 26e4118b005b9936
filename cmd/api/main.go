package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/tripmate/tripmate-api/internal/handlers"
	"github.com/tripmate/tripmate-api/internal/mailer"
	"github.com/tripmate/tripmate-api/internal/payments"
	"github.com/tripmate/tripmate-api/internal/repository"
	"github.com/tripmate/tripmate-api/internal/service"
	"github.com/tripmate/tripmate-api/pkg/config"
	"github.com/tripmate/tripmate-api/pkg/database"
	"github.com/tripmate/tripmate-api/pkg/events"
	"github.com/tripmate/tripmate-api/pkg/logger"
	mw "github.com/tripmate/tripmate-api/pkg/middleware"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	ctx := context.Background()
	pool, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	eventBus, err := events.NewNATSEventBus(cfg.NATS.URL)
	if err != nil {
		logger.Error("Failed to connect to NATS", "error", err)
		os.Exit(1)
	}
	defer eventBus.Close()

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	// Repositories
	userRepo := repository.NewUserRepository(pool)
	tokenRepo := repository.NewRefreshTokenRepository(pool)
	tourRepo := repository.NewTourRepository(pool)
	bookingRepo := repository.NewBookingRepository(pool)
	postRepo := repository.NewPostRepository(pool)
	notificationRepo := repository.NewNotificationRepository(pool)

	// Mail transport: dev logger, MailerSend, or plain SMTP
	var mailService mailer.Service
	switch {
	case cfg.Email.DevMode:
		mailService = mailer.NewDevMailer()
	case cfg.Email.MailerSendKey != "":
		mailService = mailer.NewMailerSend(cfg.Email.MailerSendKey, cfg.Email.FromName, cfg.Email.FromEmail)
	default:
		mailService = mailer.NewSMTPMailer(cfg.Email.SMTPHost, cfg.Email.SMTPPort,
			cfg.Email.FromEmail, cfg.Email.SMTPUser, cfg.Email.SMTPPass, cfg.Email.SMTPUseTLS)
	}

	provider := payments.NewStripeProvider(cfg.Stripe.SecretKey, cfg.Stripe.WebhookSecret)

	// Services
	authService := service.NewAuthService(userRepo, tokenRepo, mailService, eventBus, cfg)
	tourService := service.NewTourService(tourRepo)
	bookingService := service.NewBookingService(bookingRepo, tourRepo, notificationRepo, provider, eventBus, cfg)
	socialService := service.NewSocialService(postRepo, userRepo, notificationRepo, eventBus)
	notificationService := service.NewNotificationService(notificationRepo)

	h := handlers.New(authService, tourService, bookingService, socialService,
		notificationService, provider, pool, cfg)

	authLimiter := mw.NewRateLimiter(redisClient, mw.RateLimitConfig{
		Requests: 10,
		Window:   time.Minute,
	}, nil)

	router := h.Routes(authLimiter.Middleware())

	handler := mw.RequestID(mw.Logging(mw.CORS(cfg.CORS.Origins)(router)))

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		logger.Info("Shutting down API server...")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
	}()

	logger.Info("Starting API server", "port", cfg.Server.Port)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", "error", err)
		os.Exit(1)
	}
}
