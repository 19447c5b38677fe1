package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/piratesdroid/travel-guide/internal/config"
	"github.com/piratesdroid/travel-guide/internal/elasticsearch"
	"github.com/piratesdroid/travel-guide/internal/logger"
	"github.com/piratesdroid/travel-guide/internal/pincode"
)

func main() {
	log := logger.New("refresh")
	cfg, err := config.LoadRefresh()
	if err != nil {
		log.Error("load config", slog.Any("err", err))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	esClient := connect(ctx, log, cfg)

	postal, err := pincode.NewStack(ctx, cfg.Postal, log)
	if err != nil {
		log.Error("init postal lookup", slog.Any("err", err))
		os.Exit(1)
	}
	defer postal.Close()

	job := &refresher{
		log:         log,
		store:       esClient,
		resolver:    postal.Resolver,
		batchSize:   cfg.BatchSize,
		concurrency: cfg.Concurrency,
	}

	ticker := time.NewTicker(cfg.Interval)
	defer ticker.Stop()

	log.Info("refresh job running",
		slog.Duration("interval", cfg.Interval),
		slog.Int("batch_size", cfg.BatchSize),
		slog.Int("concurrency", cfg.Concurrency),
	)

	runOnce(ctx, log, job)

	for {
		select {
		case <-ctx.Done():
			log.Info("shutdown signal received")
			return
		case <-ticker.C:
			runOnce(ctx, log, job)
		}
	}
}

// connect retries the Elasticsearch connection with exponential backoff.
func connect(ctx context.Context, log *slog.Logger, cfg *config.Refresh) *elasticsearch.Client {
	var esClient *elasticsearch.Client
	var err error
	maxRetries := 10
	retryDelay := 2 * time.Second

	for i := 0; i < maxRetries; i++ {
		esClient, err = elasticsearch.New(cfg.ElasticsearchAddr, cfg.ElasticsearchIndex, log)
		if err != nil {
			log.Warn("failed to create elasticsearch client, retrying",
				slog.Any("err", err),
				slog.Int("attempt", i+1),
				slog.Int("max_retries", maxRetries),
			)
		} else {
			pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			pingErr := esClient.Ping(pingCtx)
			cancel()
			if pingErr == nil {
				log.Info("connected to elasticsearch")
				return esClient
			}
			log.Warn("elasticsearch ping failed, retrying",
				slog.Any("err", pingErr),
				slog.Int("attempt", i+1),
				slog.Int("max_retries", maxRetries),
				slog.Duration("retry_in", retryDelay),
			)
		}

		select {
		case <-time.After(retryDelay):
		case <-ctx.Done():
			log.Info("shutdown signal received during startup")
			os.Exit(0)
		}
		retryDelay *= 2
		if retryDelay > 30*time.Second {
			retryDelay = 30 * time.Second
		}
	}

	log.Error("failed to connect to elasticsearch after retries")
	os.Exit(1)
	return nil
}

func runOnce(ctx context.Context, log *slog.Logger, job *refresher) {
	subCtx, cancel := context.WithTimeout(ctx, 10*time.Minute)
	defer cancel()

	stats, err := job.run(subCtx)
	if err != nil {
		log.Warn("refresh run failed (will retry on next interval)", slog.Any("err", err))
		return
	}

	if stats.scanned > 0 {
		log.Info("refresh run completed",
			slog.Int("scanned", stats.scanned),
			slog.Int64("updated", stats.updated),
		)
	} else {
		log.Debug("refresh run completed, no records missing a pincode")
	}
}
