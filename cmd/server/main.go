// Command server runs the full pipeline: scheduled directory syncs,
// announcement ingestion, the Telegram webhook, and the query API, all in
// one process.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"pravaha/internal/announce"
	"pravaha/internal/announce/feed"
	"pravaha/internal/directory"
	"pravaha/internal/directory/source"
	dirsync "pravaha/internal/directory/sync"
	"pravaha/internal/enrich"
	"pravaha/internal/fanout"
	"pravaha/internal/ingest"
	"pravaha/internal/platform/config"
	"pravaha/internal/platform/httpserver"
	"pravaha/internal/platform/logger"
	"pravaha/internal/platform/metrics"
	"pravaha/internal/platform/postgres"
	platformredis "pravaha/internal/platform/redis"
	"pravaha/internal/query"
	"pravaha/internal/scheduler"
	"pravaha/internal/subscriber"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log := logger.New(cfg.LogLevel)
	slog.SetDefault(log)
	m := metrics.NewDefault()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := postgres.Open(ctx, cfg.Postgres.DSN)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := postgres.Bootstrap(ctx, db); err != nil {
		return err
	}

	companyStore := directory.NewPostgresStore(db)
	recordStore := announce.NewPostgresStore(db)
	subscriberStore := subscriber.NewPostgresStore(db)

	// Optional sinks and capabilities come up only when configured; the
	// pipeline itself runs with any subset of them.
	fanoutOpts := []fanout.Option{fanout.WithLogger(log), fanout.WithMetrics(m)}

	redisClient, err := platformredis.New(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
		live, err := fanout.NewRedisLiveFeed(redisClient, cfg.Redis.Channel)
		if err != nil {
			return err
		}
		fanoutOpts = append(fanoutOpts, fanout.WithBroadcaster(live))
		log.Info("redis live feed enabled", "channel", cfg.Redis.Channel)
	}

	if len(cfg.Kafka.Brokers) > 0 {
		durable, err := fanout.NewKafkaLiveFeed(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		if err != nil {
			return err
		}
		defer durable.Close()
		fanoutOpts = append(fanoutOpts, fanout.WithBroadcaster(durable))
		log.Info("kafka feed enabled", "topic", cfg.Kafka.Topic)
	}

	var sender subscriber.Sender
	if cfg.Telegram.BotToken != "" {
		telegramSender, err := subscriber.NewTelegramSender(nil, cfg.Telegram.BaseURL, cfg.Telegram.BotToken)
		if err != nil {
			return err
		}
		sender = telegramSender
		log.Info("telegram push enabled")
	}

	dispatcher, err := fanout.New(subscriberStore, sender, fanoutOpts...)
	if err != nil {
		return err
	}

	syncEngine, err := dirsync.New(companyStore,
		dirsync.WithLogger(log), dirsync.WithMetrics(m))
	if err != nil {
		return err
	}
	bseSource := source.NewBSESource(nil)
	nseSource := source.NewNSESource(nil)

	analyzer, err := enrich.NewGeminiClient(nil, cfg.Gemini.BaseURL, cfg.Gemini.Model, cfg.Gemini.APIKey, cfg.Gemini.Timeout)
	if err != nil {
		return err
	}
	enricher, err := enrich.New(analyzer,
		enrich.WithLogger(log),
		enrich.WithMetrics(m),
		enrich.WithRetryPolicy(enrich.RetryPolicy{
			MaxAttempts:    cfg.Enrich.MaxAttempts,
			InitialBackoff: cfg.Enrich.InitialBackoff,
			Factor:         cfg.Enrich.BackoffFactor,
		}))
	if err != nil {
		return err
	}

	feedClient := feed.NewClient(nil, cfg.Feed.AnnouncementsURL, cfg.Feed.Timeout)
	extractor, err := feed.NewDocumentFetcher(nil, feed.NewPdftotextExtractor(nil), 0)
	if err != nil {
		return err
	}

	orchestrator, err := ingest.New(feedClient, extractor, enricher, recordStore, companyStore, dispatcher,
		ingest.WithLogger(log), ingest.WithMetrics(m))
	if err != nil {
		return err
	}

	subscriberService, err := subscriber.NewService(subscriberStore, sender, subscriber.WithLogger(log))
	if err != nil {
		return err
	}

	router := chi.NewRouter()
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)
	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := db.PingContext(r.Context()); err != nil {
			http.Error(w, "database unreachable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	router.Handle("/metrics", promhttp.Handler())
	subscriber.NewHandler(subscriberService, log).Register(router)
	query.NewHandler(recordStore, companyStore, log).Register(router)

	jobs := scheduler.New(scheduler.WithLogger(log))
	if err := jobs.Add("bse-directory-sync", cfg.Schedule.BSESyncInterval, func(ctx context.Context) error {
		_, err := syncEngine.Sync(ctx, bseSource)
		return err
	}); err != nil {
		return err
	}
	if err := jobs.Add("nse-directory-sync", cfg.Schedule.NSESyncInterval, func(ctx context.Context) error {
		_, err := syncEngine.Sync(ctx, nseSource)
		return err
	}); err != nil {
		return err
	}
	if err := jobs.Add("announcement-poll", cfg.Schedule.PollInterval, func(ctx context.Context) error {
		_, err := orchestrator.RunCycle(ctx)
		return err
	}); err != nil {
		return err
	}

	srv := httpserver.New(cfg.Addr, router)
	serverErr := make(chan error, 1)
	go func() {
		log.Info("http server listening", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	jobsDone := make(chan struct{})
	go func() {
		jobs.Run(ctx)
		close(jobsDone)
	}()

	select {
	case err := <-serverErr:
		stop()
		<-jobsDone
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	<-jobsDone
	return nil
}
