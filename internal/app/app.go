package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"kolejka/internal/config"
	"kolejka/internal/queue"
	"kolejka/internal/state"
	"kolejka/internal/wsstore"
)

// Options configure the monitor.
type Options struct {
	ConfigPath string
	PollEvery  int // seconds; zero uses the config value
}

// Run boots the monitor and blocks until the context is cancelled.
func Run(ctx context.Context, opts Options) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	client, err := wsstore.NewClient(cfg.APIURL, cfg.DirectoryURL, cfg.APIKey)
	if err != nil {
		return fmt.Errorf("init wsstore client: %w", err)
	}

	repo := queue.NewRepository(client, 0)

	registry := prometheus.NewRegistry()
	repo.Instrument(registry)
	if cfg.MetricsBind != "" {
		startMetricsServer(ctx, cfg.MetricsBind, registry)
	}

	offices := cfg.Offices
	if len(offices) == 0 {
		listed, err := repo.ListOffices(ctx)
		if err != nil {
			return fmt.Errorf("list offices: %w", err)
		}
		if len(listed) == 0 {
			return fmt.Errorf("office directory is empty and no offices are configured")
		}
		for _, office := range listed {
			offices = append(offices, office.Key)
			log.Printf("monitoring %s (%s)", office.Name, office.Key)
		}
	}

	interval := time.Duration(cfg.PollSeconds) * time.Second
	if opts.PollEvery > 0 {
		interval = time.Duration(opts.PollEvery) * time.Second
	}

	store := &state.Store{}
	StartPoller(ctx, store, repo, offices, interval)

	<-ctx.Done()
	return nil
}

// startMetricsServer exposes the registry on /metrics until the context is
// cancelled.
func startMetricsServer(ctx context.Context, bind string, registry *prometheus.Registry) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: bind, Handler: mux}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("metrics listener failed: %v", err)
		}
	}()
}
