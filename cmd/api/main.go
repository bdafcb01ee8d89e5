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

	"github.com/dmehra2102/prod-golang-projects/optiflow/config"
	"github.com/dmehra2102/prod-golang-projects/optiflow/internal/availability"
	v1 "github.com/dmehra2102/prod-golang-projects/optiflow/internal/handler/v1"
	"github.com/dmehra2102/prod-golang-projects/optiflow/internal/middleware"
	"github.com/dmehra2102/prod-golang-projects/optiflow/internal/notify"
	"github.com/dmehra2102/prod-golang-projects/optiflow/internal/seed"
	"github.com/dmehra2102/prod-golang-projects/optiflow/internal/service"
	"github.com/dmehra2102/prod-golang-projects/optiflow/pkg/auth"
	"github.com/dmehra2102/prod-golang-projects/optiflow/pkg/logger"
	"github.com/dmehra2102/prod-golang-projects/optiflow/pkg/metrics"
	"github.com/dmehra2102/prod-golang-projects/optiflow/pkg/tracer"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/rs/cors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "optiflow-api: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log, err := logger.New(cfg.Log, cfg.App)
	if err != nil {
		return fmt.Errorf("building logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tp, err := tracer.Init(ctx, cfg.Tracing, cfg.App)
	if err != nil {
		return fmt.Errorf("initialising tracer: %w", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.NewCollector("optiflow", reg)

	loc, err := cfg.Schedule.Location()
	if err != nil {
		return err
	}

	store, err := openStorage(cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.close(); err != nil {
			log.Warn("closing storage", zap.Error(err))
		}
	}()

	var publisher notify.Publisher = notify.NewLogPublisher(log)
	if cfg.Kafka.Enabled() {
		kp, err := notify.NewKafkaPublisher(cfg.Kafka, log)
		if err != nil {
			return err
		}
		publisher = kp
		log.Info("publishing appointment events to kafka",
			zap.Strings("brokers", cfg.Kafka.Brokers),
			zap.String("topic", cfg.Kafka.Topic),
		)
	}
	dispatcher := notify.NewDispatcher(publisher, cfg.Kafka.QueueSize, m, log)

	auditSvc := service.NewAuditService(store.audit, m, log)
	jwtManager := auth.NewJWTManager(cfg.JWT)

	patientSvc := service.NewPatientService(store.patients, store.medicalAids, auditSvc, m, log)
	doctorSvc := service.NewDoctorService(store.doctors, auditSvc, log)
	catalogSvc := service.NewCatalogService(store.services, store.medicalAids, auditSvc, log)
	authSvc := service.NewAuthService(store.users, patientSvc, jwtManager, auditSvc, log)
	appointmentSvc := service.NewAppointmentService(service.AppointmentServiceDeps{
		Appointments: store.appointments,
		Patients:     store.patients,
		Services:     store.services,
		MedicalAids:  store.medicalAids,
		Checker:      availability.NewChecker(store.appointments, loc),
		Notifier:     dispatcher,
		Audit:        auditSvc,
		Metrics:      m,
		Log:          log,
		SlotStep:     cfg.Schedule.SlotStep,
	})

	if cfg.Bootstrap.Seed {
		seeder := seed.NewSeeder(store.services, store.medicalAids, store.doctors, log)
		if err := seed.Bootstrap(ctx, seeder, authSvc, cfg.Bootstrap.AdminEmail, cfg.Bootstrap.AdminPassword); err != nil {
			return fmt.Errorf("seeding: %w", err)
		}
	}

	limiter, closeLimiter := newLimiter(ctx, cfg, log)
	defer closeLimiter()

	if cfg.App.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := v1.NewRouter(v1.RouterDeps{
		Auth:              authSvc,
		Patients:          patientSvc,
		Doctors:           doctorSvc,
		Catalog:           catalogSvc,
		Appointments:      appointmentSvc,
		Tokens:            jwtManager,
		DB:                store.pinger,
		Metrics:           m,
		Log:               log,
		Version:           cfg.App.Version,
		BodyLimit:         cfg.Server.BodyLimitBytes,
		RateLimiter:       limiter,
		RateLimitFailOpen: cfg.RateLimit.FailOpen,
	})

	handler := cors.New(cors.Options{
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
		AllowedMethods:   cfg.CORS.AllowedMethods,
		AllowedHeaders:   cfg.CORS.AllowedHeaders,
		AllowCredentials: cfg.CORS.AllowCredentials,
		MaxAge:           int(cfg.CORS.MaxAge.Seconds()),
	}).Handler(router)

	srv := &http.Server{
		Addr:              cfg.Server.Address(),
		Handler:           otelhttp.NewHandler(handler, cfg.App.Name),
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("http server starting",
			zap.String("addr", srv.Addr),
			zap.String("env", cfg.App.Environment),
			zap.String("db_driver", cfg.Database.Driver),
			zap.String("timezone", loc.String()),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http server shutdown error", zap.Error(err))
	}
	if err := dispatcher.Shutdown(shutdownCtx); err != nil {
		log.Warn("closing event publisher", zap.Error(err))
	}
	auditSvc.Shutdown(shutdownCtx)
	if err := tp.Shutdown(shutdownCtx); err != nil {
		log.Warn("tracer shutdown error", zap.Error(err))
	}

	log.Info("http server stopped")
	return nil
}

// newLimiter picks the Redis fixed window when REDIS_ADDR is set and the in-process
// token bucket otherwise. A nil limiter disables rate limiting.
func newLimiter(ctx context.Context, cfg *config.Config, log *zap.Logger) (middleware.Limiter, func()) {
	if !cfg.RateLimit.Enabled {
		return nil, func() {}
	}

	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			log.Warn("redis unreachable at startup", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
		}
		return middleware.NewRedisLimiter(rdb, cfg.RateLimit), func() { _ = rdb.Close() }
	}

	local := middleware.NewLocalLimiter(cfg.RateLimit)
	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				local.Sweep()
			}
		}
	}()
	return local, func() {}
}
