package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"threat-monitor/internal/actions"
	"threat-monitor/internal/api"
	"threat-monitor/internal/config"
	"threat-monitor/internal/db"
	"threat-monitor/internal/ingest"
	"threat-monitor/internal/logging"
	"threat-monitor/internal/models"
	"threat-monitor/internal/monitor"
	"threat-monitor/internal/sources"
	"threat-monitor/internal/store"
)

func main() {
	// Load config
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.New(cfg.Logging.Dir, cfg.Logging.Level)
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	var wg sync.WaitGroup

	// Stores
	ruleStore := store.NewRuleStore()
	alertStore := store.NewAlertStore(logger)
	for _, draft := range monitor.DefaultRules() {
		ruleStore.Add(draft)
	}

	// Source adapters
	registry := buildRegistry(ctx, cfg, logger, &wg)

	// Delivery channels
	dispatcher := actions.NewDispatcher(cfg, logger)

	// Engine + dashboard
	fetchTimeout := time.Duration(cfg.Monitor.FetchTimeoutSeconds) * time.Second
	engine := monitor.New(ruleStore, alertStore, registry, dispatcher, logger, fetchTimeout)
	aggregator := monitor.NewAggregator(ruleStore, alertStore)

	// Optional Postgres archive
	var archiver *db.Archiver
	if cfg.DB.DSN != "" {
		dbConn, err := db.New(ctx, cfg.DB.DSN)
		if err != nil {
			log.Fatalf("Database connection failed: %v", err)
		}
		defer dbConn.Close()

		archiver, err = db.NewArchiver(dbConn, logger)
		if err != nil {
			log.Fatalf("Archive init failed: %v", err)
		}
		alertStore.Subscribe(archiver.Listener())
		logger.Infof("Alert archive enabled")
	}

	// Websocket push
	hub := api.NewHub(logger)
	alertStore.Subscribe(hub.Broadcast)

	// Background poller. The engine serializes cycles internally, so a
	// manual run through the API overlapping a tick just waits its turn.
	interval := time.Duration(cfg.Monitor.CycleIntervalMinutes) * time.Minute
	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		logger.Infof("Monitoring poller started (interval %s)", interval)
		for {
			select {
			case <-ctx.Done():
				logger.Infof("Monitoring poller stopped")
				return
			case <-ticker.C:
				created := engine.RunMonitoringCycle(ctx)
				logger.Infof("Cycle finished: %d new alert(s)", len(created))
			}
		}
	}()

	// API server
	handler := api.NewHandler(ruleStore, alertStore, engine, aggregator, archiver, logger)
	router := api.NewRouter(handler, hub, logger, cfg)
	server := &http.Server{Addr: cfg.API.Port, Handler: router}
	go func() {
		logger.Infof("API started on %s", cfg.API.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Errorf("API run failed: %v", err)
		}
	}()

	// Graceful shutdown
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	<-c
	logger.Infof("Shutting down...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("API shutdown failed: %v", err)
	}
	wg.Wait()
	logger.Infof("Service stopped")
}

// buildRegistry wires every configured source adapter, each wrapped with
// per-source refresh caching.
func buildRegistry(ctx context.Context, cfg config.Config, logger *logging.Logger, wg *sync.WaitGroup) *sources.Registry {
	fetchTimeout := time.Duration(cfg.Monitor.FetchTimeoutSeconds) * time.Second
	client := &http.Client{Timeout: fetchTimeout}
	registry := sources.NewRegistry()

	register := func(t models.SourceType, a sources.Adapter) {
		registry.Register(t, sources.NewCachedAdapter(a))
		logger.Infof("Source adapter registered: %s", t)
	}

	register(models.SourceRansomwatch,
		&sources.RansomwatchAdapter{BaseURL: cfg.Sources.RansomwatchURL, Client: client})
	register(models.SourceThreatFox,
		&sources.ThreatFoxAdapter{BaseURL: cfg.Sources.ThreatFoxURL, Client: client})
	register(models.SourceURLHaus,
		&sources.URLHausAdapter{BaseURL: cfg.Sources.URLHausURL, Client: client})

	if cfg.Sources.ForumsURL != "" {
		register(models.SourceForums,
			&sources.ForumsAdapter{BaseURL: cfg.Sources.ForumsURL, Client: client})
	}

	if cfg.Telegram.BotToken != "" {
		tg, err := sources.NewTelegramAdapter(cfg.Telegram.BotToken)
		if err != nil {
			logger.Errorf("Telegram adapter init failed: %v", err)
		} else {
			tg.Start(ctx, wg)
			// The adapter drains its post buffer on every fetch; refresh
			// caching would swallow posts, so it stays unwrapped.
			registry.Register(models.SourceTelegram, tg)
			logger.Infof("Source adapter registered: telegram")
		}
	}

	if cfg.Kafka.Broker != "" {
		buf := ingest.NewBuffer()
		consumer := ingest.NewConsumer(cfg, buf, logger)
		consumer.Start(ctx, wg)
		go func() {
			<-ctx.Done()
			consumer.Close()
		}()
		// The custom adapter drains the buffer directly; refresh caching
		// would swallow records, so it stays unwrapped.
		registry.Register(models.SourceCustom, &sources.CustomAdapter{Buffer: buf})
		logger.Infof("Source adapter registered: custom (kafka)")
	}

	return registry
}
