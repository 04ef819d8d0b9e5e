// Package main wires together the insights service binary.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cloud.google.com/go/pubsub"
	gcstorage "cloud.google.com/go/storage"
	"go.uber.org/zap"

	"github.com/damndeepesh/shopify-insights-fetcher/internal/api"
	archivegcs "github.com/damndeepesh/shopify-insights-fetcher/internal/archive/gcs"
	archivelocal "github.com/damndeepesh/shopify-insights-fetcher/internal/archive/local"
	archivememory "github.com/damndeepesh/shopify-insights-fetcher/internal/archive/memory"
	rediscache "github.com/damndeepesh/shopify-insights-fetcher/internal/cache/redis"
	"github.com/damndeepesh/shopify-insights-fetcher/internal/clock/system"
	"github.com/damndeepesh/shopify-insights-fetcher/internal/competitors"
	"github.com/damndeepesh/shopify-insights-fetcher/internal/config"
	"github.com/damndeepesh/shopify-insights-fetcher/internal/extractor"
	collyfetcher "github.com/damndeepesh/shopify-insights-fetcher/internal/fetcher/colly"
	"github.com/damndeepesh/shopify-insights-fetcher/internal/hash/sha256"
	"github.com/damndeepesh/shopify-insights-fetcher/internal/id/uuid"
	"github.com/damndeepesh/shopify-insights-fetcher/internal/insights"
	"github.com/damndeepesh/shopify-insights-fetcher/internal/logging"
	"github.com/damndeepesh/shopify-insights-fetcher/internal/metrics"
	memorypublisher "github.com/damndeepesh/shopify-insights-fetcher/internal/publisher/memory"
	pubsubpublisher "github.com/damndeepesh/shopify-insights-fetcher/internal/publisher/pubsub"
	"github.com/damndeepesh/shopify-insights-fetcher/internal/service"
	"github.com/damndeepesh/shopify-insights-fetcher/internal/storage/memory"
	"github.com/damndeepesh/shopify-insights-fetcher/internal/storage/postgres"
)

func main() {
	cfgPath := flag.String("config", "", "Path to config file")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config failed: %v\n", err)
		os.Exit(1)
	}
	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init failed: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		if syncErr := logger.Sync(); syncErr != nil {
			fmt.Fprintf(os.Stderr, "logger sync failed: %v\n", syncErr)
		}
	}()
	zap.ReplaceGlobals(logger)
	metrics.Init()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := buildStore(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("store init failed", zap.Error(err))
	}
	defer closeStore()

	archive, err := buildArchive(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("archive init failed", zap.Error(err))
	}

	fetcher := collyfetcher.New(collyfetcher.Config{
		UserAgent:   cfg.HTTP.UserAgent,
		Timeout:     cfg.FetchTimeout(),
		MaxRetries:  cfg.HTTP.MaxRetries,
		BackoffStep: cfg.BackoffStep(),
	}, logging.Named(logger, "fetcher"))
	engine := extractor.New(fetcher, logging.Named(logger, "extractor"))

	opts := []service.Option{service.WithArchive(archive)}

	if cfg.Cache.Addr != "" {
		cache, cacheErr := rediscache.New(ctx, rediscache.Config{
			Addr:     cfg.Cache.Addr,
			Password: cfg.Cache.Password,
			DB:       cfg.Cache.DB,
			TTL:      cfg.CacheTTL(),
		})
		if cacheErr != nil {
			logger.Fatal("cache init failed", zap.Error(cacheErr))
		}
		defer func() {
			if closeErr := cache.Close(); closeErr != nil {
				logger.Warn("cache close failed", zap.Error(closeErr))
			}
		}()
		opts = append(opts, service.WithCache(cache))
	} else {
		logger.Info("snapshot cache disabled")
	}

	if cfg.PubSub.ProjectID != "" && cfg.PubSub.TopicName != "" {
		psClient, psErr := pubsub.NewClient(ctx, cfg.PubSub.ProjectID)
		if psErr != nil {
			logger.Fatal("pubsub client init failed", zap.Error(psErr))
		}
		defer func() {
			if closeErr := psClient.Close(); closeErr != nil {
				logger.Warn("pubsub close failed", zap.Error(closeErr))
			}
		}()
		opts = append(opts, service.WithPublisher(pubsubpublisher.New(psClient)))
	} else {
		opts = append(opts, service.WithPublisher(memorypublisher.New()))
		logger.Info("pubsub not configured, run events stay in memory")
	}

	svc := service.New(
		service.Config{
			ArchivePrefix: cfg.Archive.Prefix,
			Topic:         cfg.PubSub.TopicName,
		},
		engine,
		store,
		sha256.New(),
		system.New(),
		uuid.New(),
		logging.Named(logger, "service"),
		opts...,
	)

	finder := competitors.New(competitors.Config{
		MaxCandidates: cfg.Competitors.MaxCandidates,
		MaxConfirmed:  cfg.Competitors.MaxConfirmed,
		Concurrency:   cfg.Competitors.Concurrency,
	}, fetcher, svc, logging.Named(logger, "competitors"))

	apiServer := api.NewServer(svc, finder, cfg, logging.Named(logger, "api"))

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           apiServer.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("http server started", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", zap.Error(err))
	}
	logger.Info("shutdown complete")
}

func buildStore(ctx context.Context, cfg config.Config, logger *zap.Logger) (insights.InsightsStore, func(), error) {
	if cfg.DB.DSN == "" {
		logger.Info("using in-memory insights store")
		return memory.NewInsightsStore(), func() {}, nil
	}
	pg, err := postgres.NewInsightsStore(ctx, postgres.InsightsStoreConfig{
		DSN:      cfg.DB.DSN,
		MaxConns: int32(cfg.DB.MaxOpenConns),
	})
	if err != nil {
		return nil, nil, err
	}
	logger.Info("using postgres insights store")
	return pg, pg.Close, nil
}

func buildArchive(ctx context.Context, cfg config.Config, logger *zap.Logger) (insights.BlobStore, error) {
	switch cfg.Archive.Backend {
	case "gcs":
		client, err := gcstorage.NewClient(ctx)
		if err != nil {
			return nil, fmt.Errorf("gcs client: %w", err)
		}
		logger.Info("archiving raw documents to gcs", zap.String("bucket", cfg.Archive.GCSBucket))
		return archivegcs.New(client, archivegcs.Config{Bucket: cfg.Archive.GCSBucket})
	case "local":
		logger.Info("archiving raw documents locally", zap.String("dir", cfg.Archive.LocalDir))
		return archivelocal.New(archivelocal.Config{BaseDir: cfg.Archive.LocalDir})
	case "memory":
		return archivememory.NewBlobStore(), nil
	default:
		return nil, fmt.Errorf("unknown archive backend %q", cfg.Archive.Backend)
	}
}
