package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"sync"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Kelvi11/smart-warehouse/pkg/config"
	"github.com/Kelvi11/smart-warehouse/pkg/events"
	"github.com/Kelvi11/smart-warehouse/pkg/httputil"
	mw "github.com/Kelvi11/smart-warehouse/pkg/httputil/middleware"
	"github.com/Kelvi11/smart-warehouse/pkg/metrics"
	pgxstore "github.com/Kelvi11/smart-warehouse/pkg/pgx"
	"github.com/Kelvi11/smart-warehouse/pkg/warehouse"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long:  `Starts the REST API server exposing the warehouse resources`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return serve(ctx, cfg, logger)
	},
}

func init() {
	f := serveCmd.Flags()
	f.StringP("rest.listenAddr", "l", "", "REST server listen address")
	f.String("rest.baseURL", "", "Base URL for API endpoints")
	f.Int("rest.notFoundStatus", 0, "HTTP status of a fetch or update of a missing entity")
	f.Bool("storage.autoMigrate", false, "Create missing tables on startup")
	f.String("events.driver", "", "Change event driver (none, nats, kafka)")
	f.Bool("metrics.enabled", false, "Serve Prometheus metrics")
	f.String("metrics.addr", "", "Prometheus metrics listen address")

	bindFlags(v,
		f.Lookup("rest.listenAddr"),
		f.Lookup("rest.baseURL"),
		f.Lookup("rest.notFoundStatus"),
		f.Lookup("storage.autoMigrate"),
		f.Lookup("events.driver"),
		f.Lookup("metrics.enabled"),
		f.Lookup("metrics.addr"),
	)
}

// serve runs the API until ctx is canceled, then shuts the servers down.
func serve(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	stores, ping, closeStorage, err := openStorage(ctx, cfg.Storage, logger)
	if err != nil {
		return err
	}
	defer closeStorage()

	publisher, err := events.NewPublisher(cfg.Events)
	if err != nil {
		return fmt.Errorf("events: %w", err)
	}
	defer publisher.Close()

	r := httputil.NewRouter(httputil.WithServerOptions(func(s *http.Server) {
		s.ErrorLog = zap.NewStdLog(logger)
	}))
	cors := mw.DefaultCORSOptions()
	if len(cfg.REST.CORSOrigins) > 0 {
		cors.AllowedOrigins = cfg.REST.CORSOrigins
	}
	r.Use(mw.RequestID, mw.LoggerWithOptions(&mw.LoggerOptions{Logger: logger}), mw.CORSWithOptions(cors))
	r.HandleFunc("GET /healthz", warehouse.Health(ping))

	api := r.Group(cfg.REST.BaseURL)
	if len(cfg.REST.BasicAuth) > 0 {
		api.Use(mw.BasicAuth("warehouse", cfg.REST.BasicAuth))
	}
	if _, err := warehouse.Register(api, stores, warehouse.Options{
		Logger:         logger,
		Publisher:      publisher,
		NotFoundStatus: cfg.REST.NotFoundStatus,
	}); err != nil {
		return err
	}

	var wg sync.WaitGroup
	metricsCtx, cancelMetrics := context.WithCancel(ctx)
	defer func() {
		cancelMetrics()
		wg.Wait()
	}()
	if cfg.Metrics.Enabled {
		metrics.StartPrometheusServer(metricsCtx, &wg, &metrics.PromServerOpts{
			Addr:   cfg.Metrics.Addr,
			Path:   cfg.Metrics.Path,
			Logger: logger,
		})
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- r.ListenAndServe(cfg.REST.ListenAddr)
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down", zap.Duration("timeout", cfg.REST.ShutdownTimeout))
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.REST.ShutdownTimeout)
	defer cancel()
	if err := r.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	return nil
}

// openStorage returns the resource stores selected by cfg, a health check
// and a func releasing the connection.
func openStorage(ctx context.Context, cfg config.StorageConfig, logger *zap.Logger) (warehouse.Stores, func(context.Context) error, func(), error) {
	if cfg.Driver == config.StorageMemory {
		logger.Warn("using in-memory storage; data is lost on exit")
		return warehouse.MemoryStores(), nil, func() {}, nil
	}

	pool, err := pgxstore.Connect(ctx, pgxstore.PoolConfig{
		ConnString:     cfg.ConnString,
		ConnectTimeout: cfg.ConnectTimeout,
		Logger:         logger,
	})
	if err != nil {
		return warehouse.Stores{}, nil, nil, err
	}
	if cfg.AutoMigrate {
		if err := warehouse.Migrate(ctx, pool, cfg.Schema); err != nil {
			pool.Close()
			return warehouse.Stores{}, nil, nil, fmt.Errorf("migrate: %w", err)
		}
		logger.Info("schema migrated", zap.String("schema", cfg.Schema))
	}
	return warehouse.PostgresStores(pool, cfg.Schema), pool.Ping, pool.Close, nil
}
