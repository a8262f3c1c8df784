package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/sss135790/quick-clinic/internal/config"
	"github.com/sss135790/quick-clinic/internal/email"
	"github.com/sss135790/quick-clinic/internal/handler"
	adminHandler "github.com/sss135790/quick-clinic/internal/handler/admin"
	appointmentHandler "github.com/sss135790/quick-clinic/internal/handler/appointment"
	authHandler "github.com/sss135790/quick-clinic/internal/handler/auth"
	"github.com/sss135790/quick-clinic/internal/handler/health"
	notificationHandler "github.com/sss135790/quick-clinic/internal/handler/notification"
	"github.com/sss135790/quick-clinic/internal/handler/page"
	paymentHandler "github.com/sss135790/quick-clinic/internal/handler/payment"
	ratingHandler "github.com/sss135790/quick-clinic/internal/handler/rating"
	slotHandler "github.com/sss135790/quick-clinic/internal/handler/slot"
	statsHandler "github.com/sss135790/quick-clinic/internal/handler/stats"
	userHandler "github.com/sss135790/quick-clinic/internal/handler/user"
	"github.com/sss135790/quick-clinic/internal/middleware"
	"github.com/sss135790/quick-clinic/internal/repository/postgres"
	"github.com/sss135790/quick-clinic/internal/router"
	appointmentService "github.com/sss135790/quick-clinic/internal/service/appointment"
	auditService "github.com/sss135790/quick-clinic/internal/service/audit"
	authService "github.com/sss135790/quick-clinic/internal/service/auth"
	notificationService "github.com/sss135790/quick-clinic/internal/service/notification"
	otpService "github.com/sss135790/quick-clinic/internal/service/otp"
	paymentService "github.com/sss135790/quick-clinic/internal/service/payment"
	ratingService "github.com/sss135790/quick-clinic/internal/service/rating"
	slotService "github.com/sss135790/quick-clinic/internal/service/slot"
	statsService "github.com/sss135790/quick-clinic/internal/service/stats"
	userService "github.com/sss135790/quick-clinic/internal/service/user"
	"github.com/sss135790/quick-clinic/pkg/auth"
	"github.com/sss135790/quick-clinic/pkg/gateway"
	"github.com/sss135790/quick-clinic/pkg/logger"
	"github.com/sss135790/quick-clinic/pkg/messaging/redis"
	"github.com/sss135790/quick-clinic/pkg/metrics"
	"github.com/sss135790/quick-clinic/pkg/security"
	"github.com/sss135790/quick-clinic/pkg/validator"
)

const (
	metricsNamespace = "quick_clinic"
	statsCacheTTL    = time.Minute
	shutdownTimeout  = 10 * time.Second
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	logger.Setup(logger.Config{Level: cfg.Log.Level, JSON: cfg.Log.JSON}, "api")

	if err := validator.RegisterWithGin(); err != nil {
		log.Fatal().Err(err).Msg("failed to register validators")
	}

	ctx := context.Background()

	// Initialize database
	db, err := postgres.NewDB(ctx, cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	// Initialize Redis
	redisClient, err := redis.NewClient(ctx, cfg.Redis.URL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to Redis")
	}
	defer redisClient.Close()
	broker := redis.NewRedisBroker(redisClient)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.NewMetrics(registry, metricsNamespace)

	key, err := cfg.Security.EncryptionKeyBytes()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid encryption key")
	}
	var encryptor security.Encryptor = security.NoopEncryptor{}
	if key != nil {
		if encryptor, err = security.NewAESEncryptor(key); err != nil {
			log.Fatal().Err(err).Msg("failed to build encryptor")
		}
	} else {
		log.Warn().Msg("no encryption key configured, medical history is stored in plain text")
	}

	clinicTZ, err := cfg.Booking.Location()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid booking time zone")
	}

	var mailer email.Service
	if cfg.Email.Host != "" {
		mailer = email.NewService(cfg.Email)
	} else {
		log.Warn().Msg("no SMTP host configured, emails are logged only")
		mailer = email.NewLogService()
	}

	// Initialize repositories
	userRepo := postgres.NewUserRepository(db)
	profileRepo := postgres.NewProfileRepository(db)
	slotRepo := postgres.NewSlotRepository(db)
	appointmentRepo := postgres.NewAppointmentRepository(db)
	paymentRepo := postgres.NewPaymentRepository(db)
	notificationRepo := postgres.NewNotificationRepository(db)
	ratingRepo := postgres.NewRatingRepository(db)
	auditRepo := postgres.NewAuditRepository(db)
	statsRepo := postgres.NewStatsRepository(db)

	// Initialize services
	tokens := auth.NewTokenService(cfg.JWT.Secret, cfg.JWT.TTL())
	auditSvc := auditService.NewService(auditRepo)
	notificationSvc := notificationService.NewService(notificationRepo, broker, m)
	authSvc := authService.NewService(userRepo, tokens, security.NewBcryptHasher(0), auditSvc)
	otpSvc := otpService.NewService(otpService.NewRedisStore(redisClient), userRepo, mailer, auditSvc, m, cfg.RateLimit.OTPPerHour)
	userSvc := userService.NewService(userRepo, profileRepo, encryptor, auditSvc)
	slotSvc := slotService.NewService(slotRepo, profileRepo, auditSvc)
	appointmentSvc := appointmentService.NewService(appointmentRepo, slotRepo, notificationSvc, auditSvc, m, cfg.Booking.HoldDuration).
		WithLocation(clinicTZ)
	statsSvc := statsService.NewService(statsRepo, profileRepo, cfg.Payment.Currency, statsCacheTTL).
		WithLocation(clinicTZ)
	ratingSvc := ratingService.NewService(ratingRepo, profileRepo, appointmentRepo, statsSvc, auditSvc)
	paymentSvc := paymentService.NewService(
		paymentService.Repositories{
			Payments:     paymentRepo,
			Appointments: appointmentRepo,
			Profiles:     profileRepo,
			Users:        userRepo,
		},
		gateway.NewRazorpay(cfg.Payment.KeyID, cfg.Payment.KeySecret),
		mailer,
		notificationSvc,
		auditSvc,
		m,
		cfg.Payment,
	)

	// Initialize handlers
	credentialLimit := middleware.PerMinute(cfg.RateLimit.AuthPerMinute).RateLimit(middleware.ClientIPKey)
	api := []handler.Registrar{
		authHandler.NewHandler(authSvc, otpSvc, cfg.Cookie, tokens.TTL(), credentialLimit),
		userHandler.NewHandler(userSvc),
		slotHandler.NewHandler(slotSvc),
		appointmentHandler.NewHandler(appointmentSvc),
		paymentHandler.NewHandler(paymentSvc, cfg.Payment.KeyID),
		statsHandler.NewHandler(statsSvc),
		ratingHandler.NewHandler(ratingSvc),
		notificationHandler.NewHandler(notificationSvc),
		adminHandler.NewHandler(auditSvc),
	}
	healthHandler := health.NewHandler(map[string]health.Check{
		"database": db.PingContext,
		"redis": func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		},
	})
	pages := page.NewHandler(statsSvc, tokens, auth.DefaultPolicy)

	// Setup router
	r := router.NewRouter(tokens, auditRepo, healthHandler, pages, api, router.RouterConfig{
		Mode:          cfg.Server.Mode,
		RateLimit:     rate.Limit(cfg.RateLimit.RequestsPerSecond),
		RateBurst:     cfg.RateLimit.Burst,
		CORSConfig:    middleware.DefaultCORSConfig(cfg.Security.AllowedOrigins),
		Security:      middleware.DefaultSecurityConfig(cfg.Cookie.Secure),
		SizeLimit:     middleware.DefaultSizeLimitConfig(),
		MetricsPrefix: metricsNamespace,
		Registry:      registry,
	})
	r.Setup()

	// Create server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r.Engine(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server exited properly")
}
