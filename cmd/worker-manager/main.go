// cmd/worker-manager/main.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/dark-devil9/Krishi-Mitra/internal/assistant"
	"github.com/dark-devil9/Krishi-Mitra/internal/assistant/market"
	"github.com/dark-devil9/Krishi-Mitra/internal/common/aws"
	"github.com/dark-devil9/Krishi-Mitra/internal/common/camunda"
	"github.com/dark-devil9/Krishi-Mitra/internal/common/config"
	"github.com/dark-devil9/Krishi-Mitra/internal/common/database"
	"github.com/dark-devil9/Krishi-Mitra/internal/common/logger"
	"github.com/dark-devil9/Krishi-Mitra/internal/common/observability"
	"github.com/dark-devil9/Krishi-Mitra/internal/profile"
	"github.com/dark-devil9/Krishi-Mitra/internal/upstream/geocode"
	"github.com/dark-devil9/Krishi-Mitra/internal/upstream/mandi"
	"github.com/dark-devil9/Krishi-Mitra/internal/upstream/weather"
	"github.com/dark-devil9/Krishi-Mitra/pkg/registry"

	// Assistant pipeline workers (5)
	ba "github.com/dark-devil9/Krishi-Mitra/internal/workers/assistant/build-answer"
	ci "github.com/dark-devil9/Krishi-Mitra/internal/workers/assistant/classify-intent"
	fmp "github.com/dark-devil9/Krishi-Mitra/internal/workers/assistant/fetch-market-prices"
	fw "github.com/dark-devil9/Krishi-Mitra/internal/workers/assistant/fetch-weather"
	rq "github.com/dark-devil9/Krishi-Mitra/internal/workers/assistant/resolve-query"

	// Alert worker (1)
	ga "github.com/dark-devil9/Krishi-Mitra/internal/workers/alerts/generate-alerts"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2 // Exponential backoff
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	zapLog := logger.New("info", "console")
	defer zapLog.Sync()

	// Wrap zap logger with our logger interface
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting worker manager...")

	cfg, err := config.Load()
	if err != nil {
		zapLog.Fatal("config load failed", zap.Error(err))
	}

	obs := observability.New("worker-manager")
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Init Zeebe Client with retry ---
	var camundaClient *camunda.Client
	err = retryWithBackoff(func() error {
		var err error
		camundaClient, err = camunda.NewClientWithConfig(&camunda.ClientConfig{
			GatewayAddress:         cfg.Camunda.BrokerAddress,
			UsePlaintextConnection: true,
			ConnectionTimeout:      config.GetDuration(cfg.Camunda.Timeout),
			RequestTimeout:         config.GetDuration(cfg.Camunda.RequestTimeout),
		})
		return err
	}, 10, 2*time.Second, zapLog, "Zeebe client initialization")

	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	zeebeClient := camundaClient.GetClient()
	zapLog.Info("Zeebe client connected successfully")

	// --- Init PostgreSQL with retry ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		// Test the connection with context
		return pg.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")

	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()
	zapLog.Info("PostgreSQL connected successfully")

	// --- Init Redis with retry ---
	var redis *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		redis, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		// Test the connection with context
		return redis.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")

	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer redis.Close()
	zapLog.Info("Redis connected successfully")

	// --- Load Entity Registry ---
	var tables *registry.Tables
	if cfg.Tables.Path != "" {
		tables, err = registry.Load(cfg.Tables.Path)
		if err != nil {
			zapLog.Fatal("registry load failed", zap.Error(err), zap.String("path", cfg.Tables.Path))
		}
	} else {
		tables = registry.Default()
	}
	zapLog.Info("Entity registry loaded",
		zap.String("version", tables.Version()),
		zap.Int("states", len(tables.States())),
		zap.Int("commodities", len(tables.Commodities())),
	)

	// --- Init Notification Clients ---
	var emailSender assistant.EmailSender
	if cfg.Notifications.Email.Enabled {
		sesClient, err := aws.NewSESClient(ctx, cfg.Notifications.AWS.Region)
		if err != nil {
			zapLog.Fatal("SES client failed", zap.Error(err))
		}
		emailSender = sesClient
		zapLog.Info("SES client initialized", zap.String("region", cfg.Notifications.AWS.Region))
	}

	var smsSender assistant.SMSSender
	if cfg.Notifications.SMS.Enabled {
		snsClient, err := aws.NewSNSClient(ctx, cfg.Notifications.AWS.Region)
		if err != nil {
			zapLog.Fatal("SNS client failed", zap.Error(err))
		}
		smsSender = snsClient
		zapLog.Info("SNS client initialized", zap.String("region", cfg.Notifications.AWS.Region))
	}

	// --- Init Upstream Clients & Services ---
	mandiClient := mandi.NewClient(cfg, redis, log)
	geocodeClient := geocode.NewClient(cfg, tables, redis, log)
	weatherClient := weather.NewClient(cfg, log)

	aggregator := market.NewAggregator(mandiClient, cfg.Market.RecencyDays, log)
	profileStore := profile.NewStore(pg, log)

	svc := assistant.NewService(assistant.Deps{
		Tables:        tables,
		Geocoder:      geocodeClient,
		Aggregator:    aggregator,
		Places:        geocodeClient,
		Forecasts:     weatherClient,
		Profiles:      profileStore,
		Timeout:       config.GetDuration(cfg.APIs.Geocoding.Timeout),
		Observability: obs,
		Logger:        log,
	})

	alertService := assistant.NewAlertService(svc, profileStore, emailSender, smsSender, cfg, log)

	zapLog.Info("All upstream clients and services initialized")

	// --- Register Workers ---
	var workers []*camunda.CamundaWorker

	register := func(taskType string, handler camunda.JobHandler) {
		if !config.IsWorkerEnabled(cfg, taskType) {
			zapLog.Info("worker disabled", zap.String("taskType", taskType))
			return
		}
		wc := config.GetWorkerConfig(cfg, taskType)
		w := camunda.NewWorker(zeebeClient, taskType, wc.MaxJobsActive, config.GetDuration(wc.Timeout), handler, zapLog)
		w.Start()
		workers = append(workers, w)
	}

	register(ci.TaskType, ci.NewHandler(
		ci.FromWorkerConfig(config.GetWorkerConfig(cfg, ci.TaskType)),
		tables, log,
	))

	register(rq.TaskType, rq.NewHandler(
		rq.FromWorkerConfig(config.GetWorkerConfig(cfg, rq.TaskType)),
		tables, geocodeClient, profileStore, log,
	))

	register(fmp.TaskType, fmp.NewHandler(
		fmp.FromWorkerConfig(config.GetWorkerConfig(cfg, fmp.TaskType)),
		aggregator, log,
	))

	register(fw.TaskType, fw.NewHandler(
		fw.FromWorkerConfig(config.GetWorkerConfig(cfg, fw.TaskType)),
		geocodeClient, weatherClient, log,
	))

	register(ba.TaskType, ba.NewHandler(
		ba.FromWorkerConfig(config.GetWorkerConfig(cfg, ba.TaskType)),
		tables, log,
	))

	register(ga.TaskType, ga.NewHandler(
		ga.FromWorkerConfig(config.GetWorkerConfig(cfg, ga.TaskType)),
		alertService, log,
	))

	zapLog.Info("Worker registration complete", zap.Int("active", len(workers)))

	// --- Health & Metrics Server ---
	go func() {
		http.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]string{
				"status": "healthy",
				"time":   time.Now().Format(time.RFC3339),
			})
		})
		http.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]string{
				"status":   "ready",
				"registry": tables.Version(),
				"time":     time.Now().Format(time.RFC3339),
			})
		})
		http.Handle("/metrics", promhttp.Handler())
		zapLog.Info("Health/Metrics server listening on :8080")
		if err := http.ListenAndServe(":8080", nil); err != nil {
			zapLog.Error("Health/Metrics server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping workers...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for _, w := range workers {
		w.Stop(shutdownCtx)
	}

	if err := camundaClient.Close(); err != nil {
		zapLog.Error("Error closing Zeebe client", zap.Error(err))
	}

	zapLog.Info("Worker manager stopped gracefully")
}
