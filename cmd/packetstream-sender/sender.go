package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/tinytelemetry/packetstream/internal/client"
	"github.com/tinytelemetry/packetstream/internal/clock"
	"github.com/tinytelemetry/packetstream/internal/csvsource"
	"github.com/tinytelemetry/packetstream/internal/metrics"
	"github.com/tinytelemetry/packetstream/internal/replay"
)

var errInterrupted = errors.New("interrupted")

// runSender replays the source file once against the target URL.
func runSender(cfg senderConfig) error {
	src, err := csvsource.Open(cfg.SourcePath, csvsource.Options{
		MaxFieldBytes: cfg.MaxFieldBytes,
		MaxRecords:    cfg.MaxRecords,
	})
	if err != nil {
		return err
	}
	defer src.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	registry := prometheus.NewRegistry()
	opts := replay.Options{
		Speed:                    cfg.Speed,
		ContinueOnTransportError: cfg.ContinueOnTransportError,
		Logger:                   log.StandardLogger(),
		Metrics:                  metrics.NewSenderMetrics(registry),
	}

	httpClient := client.New(cfg.TargetURL, client.Options{Timeout: cfg.RequestTimeout})
	emitter := replay.New(src, httpClient, clock.NewRealClock(), opts)

	log.WithFields(log.Fields{
		"source": cfg.SourcePath,
		"target": httpClient.URL(),
		"speed":  cfg.Speed,
	}).Info("replay started")

	g, gctx := errgroup.WithContext(ctx)

	var metricsServer *http.Server
	if cfg.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
		metricsServer = &http.Server{
			Addr:              cfg.MetricsAddr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
		g.Go(func() error {
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return errors.Wrap(err, "metrics server")
			}
			return nil
		})
	}

	var summary *replay.Summary
	g.Go(func() error {
		var runErr error
		summary, runErr = emitter.Run(gctx)
		if metricsServer != nil {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = metricsServer.Shutdown(shutdownCtx)
		}
		return runErr
	})

	err = g.Wait()
	if summary != nil {
		entry := log.WithFields(log.Fields{
			"read":             summary.Read,
			"sent":             summary.Sent,
			"failed":           summary.Failed,
			"transport_errors": summary.TransportErrors,
			"span":             summary.Span.String(),
			"wall_duration":    summary.WallDuration.String(),
		})
		if err != nil {
			entry.Warn("replay stopped early")
		} else {
			entry.Info("replay finished")
		}
	}
	if errors.Is(err, context.Canceled) && ctx.Err() != nil {
		return errInterrupted
	}
	return err
}
