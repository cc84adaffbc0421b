package main

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"stockintel/internal/analytics"
	"stockintel/internal/cache"
	"stockintel/internal/collector"
	"stockintel/internal/config"
	"stockintel/internal/httpapi"
	"stockintel/internal/store"
	"stockintel/internal/util"
)

func main() {
	// Load config.
	cfgPath := "config/stockintel.yaml"
	if p := os.Getenv("STOCKINTEL_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	// Setup logging.
	logFile, err := util.OpenDailyLog(cfg.Logging.Dir, "stockintel-server")
	if err != nil {
		log.Fatalf("opening log file: %v", err)
	}
	defer logFile.Close()

	logger := util.NewLogger(cfg.Logging.Level, cfg.Logging.Format, io.MultiWriter(os.Stdout, logFile))
	util.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Stores.
	db, err := store.NewSQLiteStore(cfg.Storage.SQLitePath)
	if err != nil {
		log.Fatalf("opening sqlite: %v", err)
	}
	defer db.Close()
	archive := store.NewParquetArchive(cfg.Storage.DataDir, "nse")

	// Queries, optionally behind Redis.
	var rdb *redis.Client
	if cfg.Redis.Addr != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Warn("redis unreachable, continuing without cache", "addr", cfg.Redis.Addr, "error", err)
			rdb = nil
		}
	}
	queries := cache.NewQuerier(rdb, cfg.Redis.TTL, analytics.NewService(db), "stockintel")

	// Collector.
	var fetcher collector.Fetcher
	switch cfg.Collector.Source {
	case "alpaca":
		fetcher = collector.NewAlpacaFetcher(cfg.Alpaca.APIKey, cfg.Alpaca.APISecret, cfg.Alpaca.DataURL, cfg.Alpaca.Feed)
	default:
		fetcher = collector.NewYahooFetcher(cfg.Collector.Proxy, cfg.Collector.Timeout)
	}
	calendar := util.NSECalendar()
	col := collector.New(fetcher, db, []store.BarStore{db, archive}, cfg.Collector.Universe, collector.Options{
		LookbackDays: cfg.Collector.LookbackDays,
		MaxWorkers:   cfg.Collector.MaxWorkers,
		RatePerMin:   cfg.Collector.RatePerMin,
		Calendar:     calendar,
		Logger:       logger,
		AfterRun:     queries.Invalidate,
	})

	if cfg.Collector.OnStart {
		go func() {
			if _, err := col.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("initial collection failed", "error", err)
			}
		}()
	}

	var sched *collector.Scheduler
	if cfg.Collector.Cron != "" {
		sched, err = collector.NewScheduler(ctx, col, cfg.Collector.Cron, calendar.Location())
		if err != nil {
			log.Fatalf("scheduling collector: %v", err)
		}
		sched.Start()
	}

	// Start HTTP server.
	api := httpapi.NewServer(queries, logger)
	httpServer := &http.Server{
		Addr:    cfg.Server.Addr(),
		Handler: api.Handler(),
	}

	go func() {
		logger.Info("stockintel server listening", "addr", httpServer.Addr, "source", fetcher.Name(), "cache", rdb != nil)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server error", "error", err)
			cancel()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down stockintel server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
	if sched != nil {
		sched.Stop()
	}
}
