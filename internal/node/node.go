// Copyright 2026 Sengol AI
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package node builds and runs the conclave service from the loaded
// configuration, along with the Prometheus metrics listener and
// OS signal handling.
package node

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sengol-ai/conclave"
	"github.com/sengol-ai/conclave/internal/config"
)

func Run(cfg *config.Config, logger *slog.Logger) error {
	opts := []conclave.ConfigOptionFunc{
		conclave.WithLogger(logger),
		conclave.WithDataDir(cfg.DataDir),
		conclave.WithMetadataPlugin(cfg.MetadataPlugin),
		conclave.WithBlobPlugin(cfg.BlobPlugin),
		conclave.WithApiListenAddress(
			fmt.Sprintf("%s:%d", cfg.BindAddr, cfg.ApiPort),
		),
		conclave.WithPrometheusRegistry(prometheus.DefaultRegisterer),
		conclave.WithTracing(cfg.Tracing),
		conclave.WithTracingStdout(cfg.TracingStdout),
		conclave.WithTracingOtlpEndpoint(cfg.TracingOtlpEndpoint),
	}
	if cfg.ShutdownTimeout != "" {
		timeout, err := time.ParseDuration(cfg.ShutdownTimeout)
		if err != nil {
			return fmt.Errorf("invalid shutdown timeout: %w", err)
		}
		opts = append(opts, conclave.WithShutdownTimeout(timeout))
	}
	svc, err := conclave.New(conclave.NewConfig(opts...))
	if err != nil {
		return err
	}

	// Metrics listener
	http.Handle("/metrics", promhttp.Handler())
	metricsListenAddr := fmt.Sprintf("%s:%d", cfg.BindAddr, cfg.MetricsPort)
	logger.Info(
		"starting listener for prometheus metrics connections on " + metricsListenAddr,
		"component", "node",
	)
	metricsSrv := &http.Server{
		Addr:              metricsListenAddr,
		ReadHeaderTimeout: 60 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	go func() {
		if err := metricsSrv.ListenAndServe(); err != nil &&
			!errors.Is(err, http.ErrServerClosed) {
			logger.Error(
				fmt.Sprintf("failed to start metrics listener: %s", err),
				"component", "node",
			)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signals for graceful shutdown
	signalCtx, signalCtxStop := signal.NotifyContext(
		context.Background(),
		syscall.SIGINT,
		syscall.SIGTERM,
	)
	defer signalCtxStop()

	// Run service in a goroutine so we can monitor for shutdown signals
	errChan := make(chan error, 1)
	go func() {
		runErr := svc.Run(signalCtx)
		select {
		case errChan <- runErr:
		case <-signalCtx.Done():
		}
	}()

	select {
	case <-signalCtx.Done():
		logger.Info(
			"received signal, shutting down gracefully",
			"component", "node",
		)
		shutdownCtx, cancel := context.WithTimeout(
			context.Background(),
			30*time.Second,
		)
		defer cancel()
		if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
			logger.Error(
				fmt.Sprintf("failed to shutdown metrics listener: %s", err),
				"component", "node",
			)
		}
		if err := svc.Stop(); err != nil {
			logger.Error(
				fmt.Sprintf("failed to stop service: %s", err),
				"component", "node",
			)
		}
	case err := <-errChan:
		signalCtxStop()
		if err != nil {
			stopErr := svc.Stop()
			if stopErr != nil {
				logger.Error(
					fmt.Sprintf("failed to stop service: %s", stopErr),
					"component", "node",
				)
			}
			shutdownCtx, cancel := context.WithTimeout(
				context.Background(),
				5*time.Second,
			)
			defer cancel()
			//nolint:errcheck
			metricsSrv.Shutdown(shutdownCtx)
			return err
		}
		shutdownCtx, cancel := context.WithTimeout(
			context.Background(),
			5*time.Second,
		)
		defer cancel()
		//nolint:errcheck
		metricsSrv.Shutdown(shutdownCtx)
	}
	return nil
}
