package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"DrawdownSentinel/internal/collector"
	"DrawdownSentinel/internal/config"
	"DrawdownSentinel/internal/recorder"
	"DrawdownSentinel/internal/registry"
	"DrawdownSentinel/internal/scheduler"
	"DrawdownSentinel/internal/storage"

	"github.com/joho/godotenv"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("[INFO] DrawdownSentinel starting...")

	// .env is optional; real deployments inject credentials directly.
	_ = godotenv.Load()

	// Load config
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("[FATAL] load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("[FATAL] config validation: %v", err)
	}

	// Init fetcher
	var fetcher collector.Fetcher
	if cfg.DataSource.Source == "mock" {
		fetcher = &collector.MockFetcher{Price: 100}
	} else {
		fetcher = collector.NewKuCoinFetcher(cfg.DataSource.BaseURL, cfg.Proxy)
	}
	log.Printf("[INFO] data source: %s", fetcher.Name())

	// Init collector
	col := collector.NewCollector(fetcher,
		cfg.Analysis.LookbackDays, cfg.Analysis.ChartDays, cfg.Analysis.ChartInterval)

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Init storage client
	store, err := storage.NewR2Client(ctx,
		cfg.Storage.EndpointURL, cfg.Storage.AccessKeyID,
		cfg.Storage.SecretAccessKey, cfg.Storage.Bucket)
	if err != nil {
		log.Fatalf("[FATAL] init storage: %v", err)
	}

	// Init extreme registry
	reg := registry.New(store, cfg.Storage.RegistryKey)

	// Init recorder
	var rec recorder.Recorder
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath)
		if err != nil {
			log.Printf("[WARN] init sqlite recorder failed, using noop: %v", err)
			rec = recorder.NewNoopRecorder()
		} else {
			rec = sr
			defer sr.Close()
		}
	} else {
		rec = recorder.NewNoopRecorder()
	}

	// Init scheduler
	sched := scheduler.NewScheduler(ctx, col, store, reg, rec, cfg)
	if err := sched.RegisterAll(cfg.Schedule.UploadCron); err != nil {
		log.Fatalf("[FATAL] register cron tasks: %v", err)
	}
	sched.Start()
	defer sched.Stop()

	// Optional: run immediately on start
	if os.Getenv("RUN_ON_START") == "true" {
		log.Println("[INFO] RUN_ON_START enabled, executing upload task now")
		go sched.RunNow()
	}

	log.Println("[INFO] DrawdownSentinel is running. Press Ctrl+C to stop.")

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("[INFO] shutdown signal received, stopping...")
	cancel()
	log.Println("[INFO] DrawdownSentinel stopped")
}
