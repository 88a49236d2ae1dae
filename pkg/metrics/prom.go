package metrics

import (
	"cmp"
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

var (
	Requests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "warehouse_requests_total",
			Help: "Total number of resource API requests by resource, operation and status code",
		},
		[]string{"resource", "operation", "status"},
	)

	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "warehouse_request_duration_seconds",
			Help:    "Duration of resource API requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"resource", "operation"},
	)

	ListSize = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "warehouse_list_size",
			Help:    "Total number of rows matched by list requests",
			Buckets: prometheus.ExponentialBuckets(1, 4, 8),
		},
		[]string{"resource"},
	)

	EventPublishErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "warehouse_event_publish_errors_total",
			Help: "Total number of change event publish errors by driver",
		},
		[]string{"driver"},
	)
)

// PromServerOpts configures StartPrometheusServer. Zero fields take defaults.
type PromServerOpts struct {
	Addr              string
	Path              string        // Path for metrics endpoint, defaults to "/metrics"
	ShutdownTimeout   time.Duration // Timeout for server shutdown, defaults to 5 seconds
	ReadHeaderTimeout time.Duration // Timeout for reading request headers, defaults to 3 seconds
	Logger            *zap.Logger
}

// StartPrometheusServer serves the default registry on opts.Addr until ctx
// is canceled. wg is done once the server has stopped.
func StartPrometheusServer(ctx context.Context, wg *sync.WaitGroup, opts *PromServerOpts) {
	var o PromServerOpts
	if opts != nil {
		o = *opts
	}
	o.Addr = cmp.Or(o.Addr, ":9100")
	o.Path = cmp.Or(o.Path, "/metrics")
	o.ShutdownTimeout = cmp.Or(o.ShutdownTimeout, 5*time.Second)
	o.ReadHeaderTimeout = cmp.Or(o.ReadHeaderTimeout, 3*time.Second)
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	logger := o.Logger.With(zap.String("addr", o.Addr))

	mux := http.NewServeMux()
	mux.Handle("GET "+o.Path, promhttp.Handler())
	srv := &http.Server{Addr: o.Addr, Handler: mux, ReadHeaderTimeout: o.ReadHeaderTimeout}

	stopped := make(chan struct{})
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer close(stopped)
		logger.Info("metrics server listening", zap.String("path", o.Path))
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", zap.Error(err))
		}
	}()

	go func() {
		select {
		case <-ctx.Done():
		case <-stopped:
			return
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), o.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("metrics server shutdown", zap.Error(err))
		}
	}()
}
