package main

import (
	"context"
	"fmt"
	"io/fs"
	"math"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/gosuda/newsroom/internal/analysis"
	"github.com/gosuda/newsroom/internal/auth"
	"github.com/gosuda/newsroom/internal/config"
	"github.com/gosuda/newsroom/internal/feed"
	"github.com/gosuda/newsroom/internal/relay"
	"github.com/gosuda/newsroom/internal/server"
	"github.com/gosuda/newsroom/internal/share"
	"github.com/gosuda/newsroom/internal/store/postgres"
	redisstore "github.com/gosuda/newsroom/internal/store/redis"
	"github.com/gosuda/newsroom/web"
)

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("startup failed")
	}
}

func run() error {
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("no .env file found, using environment variables")
	}

	ctx := context.Background()

	// Load configuration from environment.
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	setupLogging(cfg.Log)

	if cfg.Database.MaxConns < 0 || cfg.Database.MaxConns > math.MaxInt32 {
		return fmt.Errorf("database max_conns %d out of int32 range", cfg.Database.MaxConns)
	}

	// Connect to PostgreSQL and bring the schema up to date.
	store, err := postgres.New(ctx, cfg.Database.DSN(), int32(cfg.Database.MaxConns)) //nolint:gosec // bounds checked above
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.Migrate(ctx); err != nil {
		return err
	}

	// Connect to Redis.
	rdb, err := redisstore.New(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		return err
	}
	defer rdb.Close()

	authSvc := auth.NewService(store.Users(), cfg.JWT.Secret, cfg.JWT.AccessTTL, cfg.JWT.RefreshTTL)

	aggregator, err := buildFeed(cfg.Feed, rdb)
	if err != nil {
		return err
	}

	sharers := buildSharers(cfg.Share)

	client := analysis.NewClient(
		cfg.Analysis.Endpoint,
		cfg.Analysis.APIKey,
		analysis.StreamingHTTPClient(cfg.Analysis.HeaderTimeout),
	)
	runs := relay.NewManager(client, rdb, rdb, store.Reports(), relay.Options{
		ReportTTL:      cfg.Analysis.ReportTTL,
		RetainFinished: cfg.Analysis.RetainFinished,
		MaxRunsPerUser: cfg.Analysis.MaxRunsPerUser,
	})

	// Prepare embedded web assets (strip "build/" prefix from fs paths).
	webAssets, err := fs.Sub(web.Assets, "build")
	if err != nil {
		return fmt.Errorf("web assets: %w", err)
	}

	// Graceful shutdown on SIGINT / SIGTERM.
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	srv := server.New(ctx, cfg, server.Deps{
		Store:  store,
		Auth:   authSvc,
		Feed:   aggregator,
		Runs:   runs,
		Share:  sharers,
		PubSub: rdb,
		Health: map[string]server.Pinger{
			"postgres": store,
			"redis":    rdb,
		},
		WebAssets: webAssets,
	})

	// Start server in background goroutine.
	go func() {
		log.Info().Str("addr", cfg.Server.Addr).Msg("starting server")
		if startErr := srv.Start(ctx); startErr != nil {
			log.Error().Err(startErr).Msg("server error")
			cancel()
		}
	}()

	// Block until shutdown signal.
	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if shutdownErr := srv.Shutdown(shutdownCtx); shutdownErr != nil {
		return shutdownErr
	}
	if shutdownErr := runs.Shutdown(shutdownCtx); shutdownErr != nil {
		log.Warn().Err(shutdownErr).Msg("analysis runs did not stop cleanly")
	}

	log.Info().Msg("stopped")
	return nil
}

func setupLogging(cfg config.LogConfig) {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.Format == "text" {
		log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	} else {
		log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
	}
}

func buildFeed(cfg config.FeedConfig, cache feed.Cache) (*feed.Aggregator, error) {
	sources, err := feed.LoadSources(cfg.SourcesFile)
	if err != nil {
		return nil, err
	}

	base := feed.HTTPClient(cfg.SourceTimeout)
	parsers := feed.DefaultRegistry()

	fetchers := make([]*feed.Fetcher, 0, len(sources))
	for _, src := range sources {
		fetchers = append(fetchers, feed.NewFetcher(src, base, parsers))
	}
	log.Info().Int("sources", len(fetchers)).Str("file", cfg.SourcesFile).Msg("news sources loaded")

	return feed.NewAggregator(fetchers, cache, feed.AggregatorOptions{
		CacheKey:      redisstore.FeedKey(),
		TTL:           cfg.TTL,
		Concurrency:   cfg.Concurrency,
		SourceTimeout: cfg.SourceTimeout,
	}, log.With().Str("component", "feed").Logger()), nil
}

func buildSharers(cfg config.ShareConfig) *share.Registry {
	registry := share.NewRegistry()
	if cfg.SlackWebhookURL != "" {
		registry.Register(share.NewSlackSharer(cfg.SlackWebhookURL, nil))
	}
	if cfg.Links {
		for _, l := range share.LinkSharers() {
			registry.Register(l)
		}
	}
	log.Info().Strs("platforms", registry.Available()).Msg("share platforms enabled")
	return registry
}
