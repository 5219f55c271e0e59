package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"

	"github.com/Clark-Hu/reelpick/internal/catalog"
	"github.com/Clark-Hu/reelpick/internal/config"
	httpserver "github.com/Clark-Hu/reelpick/internal/http"
	"github.com/Clark-Hu/reelpick/internal/logging"
	"github.com/Clark-Hu/reelpick/internal/metrics"
	"github.com/Clark-Hu/reelpick/internal/picker"
	"github.com/Clark-Hu/reelpick/internal/prefs"
	"github.com/Clark-Hu/reelpick/internal/repository"
	"github.com/Clark-Hu/reelpick/internal/store"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	logger, err := logging.New(os.Stdout, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	if cfg.CatalogAPIKey == "" {
		logger.Warn("TMDB_API_KEY is not set; catalog endpoints will report CONFIG_ERROR")
	}
	catalogClient, err := catalog.NewHTTPClient(cfg.CatalogURL, catalog.Options{
		APIKey:  cfg.CatalogAPIKey,
		Region:  cfg.CatalogRegion,
		Timeout: time.Duration(cfg.CatalogTimeoutSec) * time.Second,
		Logger:  logger,
		Metrics: m,
	})
	if err != nil {
		logger.WithError(err).Fatal("init catalog client")
	}

	prefStore, closePrefs, err := openPrefs(ctx, cfg, logger, m)
	if err != nil {
		logger.WithError(err).Fatal("init preference store")
	}
	defer closePrefs()

	pk := picker.New(catalogClient, picker.WithLogger(logger), picker.WithMetrics(m))
	server := httpserver.New(cfg, pk, prefStore, reg, logger)

	logger.WithFields(logrus.Fields{
		"port":  cfg.Port,
		"prefs": cfg.PrefsBackend,
	}).Info("reelpick listening")

	serverErrCh := make(chan error, 1)
	go func() {
		if err := server.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			serverErrCh <- err
			return
		}
		serverErrCh <- nil
	}()

	select {
	case err := <-serverErrCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) && !errors.Is(err, context.Canceled) {
			logger.WithError(err).Error("server error")
		}
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.WithError(err).Error("graceful shutdown error")
	}
}

// openPrefs builds the configured preference backend and returns its closer.
func openPrefs(ctx context.Context, cfg config.Config, logger *logrus.Logger, m *metrics.Metrics) (prefs.Store, func(), error) {
	switch cfg.PrefsBackend {
	case config.BackendPostgres:
		dbCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()

		st, err := store.New(dbCtx, cfg.DBURL, store.Options{
			MaxConns:               int32(cfg.DBMaxConns),
			MinConns:               int32(cfg.DBMinConns),
			MaxConnIdleTime:        time.Duration(cfg.DBMaxIdleSecs) * time.Second,
			MaxConnLifetime:        time.Duration(cfg.DBMaxLifeSecs) * time.Second,
			ConnTimeout:            time.Duration(cfg.DBConnTimeoutSecs) * time.Second,
			StatementCacheCapacity: cfg.DBStatementCache,
			Logger:                 logger,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("connect database: %w", err)
		}
		if cfg.DBMigrate {
			if err := st.Migrate(dbCtx); err != nil {
				st.Close()
				return nil, nil, fmt.Errorf("migrate database: %w", err)
			}
		}
		repo := repository.New(st)
		return prefs.NewPostgresStore(repo.Preferences, st, m), st.Close, nil

	case config.BackendRedis:
		redisCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()

		client, err := prefs.OpenRedis(redisCtx, cfg.RedisURL)
		if err != nil {
			return nil, nil, err
		}
		ttl := time.Duration(cfg.PrefsTTLHours) * time.Hour
		return prefs.NewRedisStore(client, ttl), func() { _ = client.Close() }, nil

	default:
		return prefs.NewMemoryStore(), func() {}, nil
	}
}
