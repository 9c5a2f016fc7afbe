// Package main runs the dashboard service: the periodic refresh
// pipeline, the HTTP API and the websocket fan-out.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/dvth-dev/VN-Alpha-Scan/internal/cache"
	"github.com/dvth-dev/VN-Alpha-Scan/internal/config"
	"github.com/dvth-dev/VN-Alpha-Scan/internal/dashboard"
	"github.com/dvth-dev/VN-Alpha-Scan/internal/exchange"
	"github.com/dvth-dev/VN-Alpha-Scan/internal/fetcher"
	"github.com/dvth-dev/VN-Alpha-Scan/internal/gate"
	"github.com/dvth-dev/VN-Alpha-Scan/internal/logging"
	"github.com/dvth-dev/VN-Alpha-Scan/internal/server"
	"github.com/dvth-dev/VN-Alpha-Scan/internal/server/websocket"
	"github.com/dvth-dev/VN-Alpha-Scan/internal/storage"
	chstore "github.com/dvth-dev/VN-Alpha-Scan/internal/storage/clickhouse"
	"github.com/dvth-dev/VN-Alpha-Scan/internal/storage/memory"
	"github.com/dvth-dev/VN-Alpha-Scan/internal/storage/migrations"
	mongostore "github.com/dvth-dev/VN-Alpha-Scan/internal/storage/mongo"
	pgstore "github.com/dvth-dev/VN-Alpha-Scan/internal/storage/postgres"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Path to YAML config file")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage regardless of configured DSNs")
	flag.Parse()

	if err := run(*configPath, *useMemory); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string, useMemory bool) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := logging.NewWithConfig(cfg.Log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client := exchange.NewClient(cfg.Exchange.BaseURL,
		exchange.WithTimeout(cfg.Exchange.Timeout),
		exchange.WithBrowserHeaders(
			orDefault(cfg.Exchange.Referer, exchange.DefaultReferer),
			orDefault(cfg.Exchange.UserAgent, exchange.DefaultUserAgent),
		),
		exchange.WithLogger(logger),
	)

	competitions, closeCompetitions, err := openCompetitionStore(ctx, cfg.Storage, useMemory, logger)
	if err != nil {
		return err
	}
	defer closeCompetitions()

	history, closeHistory, err := openVolumeHistoryStore(ctx, cfg.Storage, useMemory, logger)
	if err != nil {
		return err
	}
	defer closeHistory()

	hub := websocket.NewHub(logger)

	manager := dashboard.New(dashboard.Options{
		Fetcher:      fetcher.New(client, logger),
		Competitions: competitions,
		History:      history,
		Broadcaster:  hub,
		Logger:       logger,
		Refresh:      cfg.Refresh,
	})

	proxyCache := cache.New()

	handlers := server.NewHandlers(server.HandlerOptions{
		Manager:      manager,
		Competitions: competitions,
		History:      history,
		Gate:         gate.New(cfg.Gate.Secret),
		Exchange:     client,
		Cache:        proxyCache,
		CacheTTL:     cfg.Cache,
		Hub:          hub,
		Logger:       logger,
	})

	srv := server.New(cfg.Server.Addr(), cfg.Server.ShutdownTimeout, handlers, logger)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		hub.Run(ctx)
		return nil
	})

	g.Go(func() error {
		return srv.Run(ctx)
	})

	g.Go(func() error {
		proxyCache.Janitor(ctx, time.Minute)
		return nil
	})

	g.Go(func() error {
		if err := manager.InitialLoad(ctx); err != nil {
			// Not fatal: the periodic loop retries the catalog.
			logger.Error().Err(err).Msg("initial load failed")
		}
		manager.RunPeriodic(ctx)
		return nil
	})

	logger.Info().Str("addr", cfg.Server.Addr()).Msg("alphascan started")
	return g.Wait()
}

// openCompetitionStore picks the competition backend: postgres when a
// DSN is set, mongo when a URI is set, in-memory otherwise.
func openCompetitionStore(ctx context.Context, cfg config.StorageConfig, useMemory bool, logger zerolog.Logger) (storage.CompetitionStore, func(), error) {
	switch {
	case useMemory || (cfg.PostgresDSN == "" && cfg.MongoURI == ""):
		logger.Info().Msg("competitions: using in-memory store")
		return memory.NewCompetitionStore(), func() {}, nil

	case cfg.PostgresDSN != "":
		pool, err := pgstore.NewPool(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("open postgres: %w", err)
		}
		if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("postgres migrations: %w", err)
		}
		logger.Info().Msg("competitions: using postgres store")
		return pgstore.NewCompetitionStore(pool), pool.Close, nil

	default:
		mongoClient, err := mongostore.NewClient(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, nil, fmt.Errorf("open mongo: %w", err)
		}
		logger.Info().Msg("competitions: using mongo store")
		closeFn := func() {
			closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := mongoClient.Close(closeCtx); err != nil {
				logger.Warn().Err(err).Msg("mongo disconnect failed")
			}
		}
		return mongostore.NewCompetitionStore(mongoClient), closeFn, nil
	}
}

// openVolumeHistoryStore uses clickhouse when a DSN is set and falls
// back to in-memory so the history endpoint works in dev mode.
func openVolumeHistoryStore(ctx context.Context, cfg config.StorageConfig, useMemory bool, logger zerolog.Logger) (storage.VolumeHistoryStore, func(), error) {
	if useMemory || cfg.ClickhouseDSN == "" {
		logger.Info().Msg("volume history: using in-memory store")
		return memory.NewVolumeHistoryStore(), func() {}, nil
	}

	conn, err := migrations.RunClickhouseMigrations(ctx, cfg.ClickhouseDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("clickhouse migrations: %w", err)
	}
	logger.Info().Msg("volume history: using clickhouse store")
	closeFn := func() {
		if err := conn.Close(); err != nil {
			logger.Warn().Err(err).Msg("clickhouse close failed")
		}
	}
	return chstore.NewVolumeHistoryStore(conn), closeFn, nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
