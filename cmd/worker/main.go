package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/sss135790/quick-clinic/internal/config"
	"github.com/sss135790/quick-clinic/internal/handler/health"
	"github.com/sss135790/quick-clinic/internal/middleware"
	"github.com/sss135790/quick-clinic/internal/repository/postgres"
	appointmentService "github.com/sss135790/quick-clinic/internal/service/appointment"
	auditService "github.com/sss135790/quick-clinic/internal/service/audit"
	notificationService "github.com/sss135790/quick-clinic/internal/service/notification"
	"github.com/sss135790/quick-clinic/internal/worker"
	"github.com/sss135790/quick-clinic/pkg/logger"
	"github.com/sss135790/quick-clinic/pkg/messaging/redis"
	"github.com/sss135790/quick-clinic/pkg/metrics"
)

const (
	metricsNamespace = "quick_clinic_worker"
	healthAddr       = ":8081"
)

func setupHealthCheck(reg *prometheus.Registry, checks map[string]health.Check) *http.Server {
	engine := gin.New()
	engine.Use(middleware.Recovery())
	health.NewHandler(checks).RegisterRoutes(engine)
	engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	srv := &http.Server{Addr: healthAddr, Handler: engine, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("health check server failed")
		}
	}()
	return srv
}

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	logger.Setup(logger.Config{Level: cfg.Log.Level, JSON: cfg.Log.JSON}, "worker")
	gin.SetMode(gin.ReleaseMode)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := postgres.NewDB(ctx, cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	redisClient, err := redis.NewClient(ctx, cfg.Redis.URL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to Redis")
	}
	defer redisClient.Close()

	registry := prometheus.NewRegistry()
	m := metrics.NewMetrics(registry, metricsNamespace)

	auditSvc := auditService.NewService(postgres.NewAuditRepository(db))
	notificationSvc := notificationService.NewService(postgres.NewNotificationRepository(db), redis.NewRedisBroker(redisClient), m)
	appointmentSvc := appointmentService.NewService(
		postgres.NewAppointmentRepository(db),
		postgres.NewSlotRepository(db),
		notificationSvc,
		auditSvc,
		m,
		cfg.Booking.HoldDuration,
	)

	holds := worker.NewHoldReleaseWorker(appointmentSvc, cfg.Worker.HoldReleaseInterval, log.Logger)
	cleanup := worker.NewAuditCleanupWorker(auditSvc, cfg.Worker.AuditRetentionDays, cfg.Worker.AuditCleanupInterval, m, log.Logger)

	healthSrv := setupHealthCheck(registry, map[string]health.Check{
		"database": db.PingContext,
		"redis": func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		},
	})

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Info().Msg("shutting down...")
		cancel()
	}()

	var wg sync.WaitGroup
	for _, start := range []func(context.Context){holds.Start, cleanup.Start} {
		wg.Add(1)
		go func(start func(context.Context)) {
			defer wg.Done()
			start(ctx)
		}(start)
	}
	wg.Wait()

	shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
	defer stop()
	if err := healthSrv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("health server forced to shutdown")
	}
	log.Info().Msg("worker exited")
}
