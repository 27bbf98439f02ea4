package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/vantapay/compliance/internal/audit"
	"github.com/vantapay/compliance/internal/compliance"
	"github.com/vantapay/compliance/internal/compliance/detection"
	"github.com/vantapay/compliance/internal/compliance/ocdd"
	"github.com/vantapay/compliance/internal/compliance/reporting"
	"github.com/vantapay/compliance/internal/compliance/scoring"
	"github.com/vantapay/compliance/internal/compliance/screening"
	"github.com/vantapay/compliance/internal/infrastructure/config"
	"github.com/vantapay/compliance/internal/infrastructure/metrics"
	"github.com/vantapay/compliance/internal/notification"
	"github.com/vantapay/compliance/internal/storage"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger, err := buildLogger(cfg.LogLevel)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer logger.Sync()
	sugar := logger.Sugar()

	if err := run(cfg, sugar); err != nil {
		sugar.Fatalw("service exited with error", "error", err)
	}
}

func run(cfg *config.Config, logger *zap.SugaredLogger) error {
	db, err := gorm.Open(postgres.Open(cfg.Database.DSN), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Warn),
		TranslateError: true,
	})
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("access connection pool: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)
	defer sqlDB.Close()

	store := storage.NewGormStore(db, logger)
	if cfg.Database.AutoMigrate {
		if err := store.AutoMigrate(); err != nil {
			return fmt.Errorf("migrate schema: %w", err)
		}
	}

	var dedup reporting.DedupStore
	if cfg.Redis.Enabled {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer client.Close()
		dedup = storage.NewRedisDedupStore(client)
		logger.Infow("alert dedup using redis", "addr", cfg.Redis.Addr)
	} else {
		dedup = storage.NewGormDedupStore(db)
		logger.Infow("alert dedup using database markers")
	}

	var notifier notification.Notifier
	if cfg.Kafka.Enabled {
		kn := notification.NewKafkaNotifier(notification.KafkaConfig{
			Brokers:      cfg.Kafka.Brokers,
			Topic:        cfg.Kafka.Topic,
			WriteTimeout: cfg.Kafka.WriteTimeout,
		}, logger)
		defer kn.Close()
		notifier = kn
		logger.Infow("notifications publishing to kafka",
			"brokers", cfg.Kafka.Brokers, "topic", cfg.Kafka.Topic)
	} else {
		notifier = notification.NewLogNotifier(logger)
	}

	var lists []screening.List
	if cfg.Screener.ListPath != "" {
		lists, err = screening.LoadLists(cfg.Screener.ListPath)
		if err != nil {
			return fmt.Errorf("load watchlists: %w", err)
		}
		logger.Infow("watchlists loaded", "path", cfg.Screener.ListPath, "lists", len(lists))
	} else {
		logger.Warnw("no watchlist file configured, screening will return no matches")
	}
	screener := screening.NewListScreener(lists, screening.ListScreenerConfig{
		MatchThreshold: cfg.Screener.MatchThreshold,
	}, logger)

	auditor := audit.NewService(db, logger)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	m := metrics.New(registry)

	engine := scoring.NewEngine(scoring.DefaultWeights())
	detector := detection.NewDetector(store, logger)
	tracker := reporting.NewTracker(store, dedup, notifier, logger)
	scheduler := ocdd.NewScheduler(store, screener, nil, notifier, auditor, dedup, logger)

	svc := compliance.NewService(store, engine, detector, tracker, scheduler,
		auditor, notifier, m, cfg.Schedule.PerTenantTimeout, logger)

	metricsServer := &http.Server{
		Addr:    cfg.Metrics.Addr,
		Handler: promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
	}
	go func() {
		logger.Infow("metrics endpoint listening", "addr", cfg.Metrics.Addr)
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Errorw("metrics server stopped", "error", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Infow("compliance service started",
		"interval", cfg.Schedule.Interval,
		"per_tenant_timeout", cfg.Schedule.PerTenantTimeout,
	)

	ticker := time.NewTicker(cfg.Schedule.Interval)
	defer ticker.Stop()

	runSweep := func() {
		summary, err := svc.RunPeriodicChecks(ctx)
		if err != nil {
			logger.Errorw("periodic sweep failed", "error", err)
			return
		}
		logger.Infow("periodic sweep done",
			"tenants", summary.TenantsChecked,
			"failures", len(summary.Errors),
		)
	}
	runSweep()

	for {
		select {
		case <-ticker.C:
			runSweep()
		case <-ctx.Done():
			logger.Infow("shutdown signal received")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := metricsServer.Shutdown(shutdownCtx); err != nil {
				logger.Warnw("metrics server shutdown", "error", err)
			}
			return nil
		}
	}
}

func buildLogger(level string) (*zap.Logger, error) {
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = zapcore.InfoLevel
	}
	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(lvl)
	return zcfg.Build()
}
