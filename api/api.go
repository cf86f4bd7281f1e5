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

// Package api exposes the governance ledger over REST: decision submission,
// chain queries and verification, consensus verdicts, and council
// administration.
package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sengol-ai/conclave/council"
	"github.com/sengol-ai/conclave/ledger"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
)

// Config holds API server settings.
type Config struct {
	ListenAddress string
	PromRegistry  prometheus.Registerer
}

// Server is the REST API server.
type Server struct {
	config         Config
	logger         *slog.Logger
	councilManager *council.Manager
	ledgerManager  *ledger.Manager
	httpServer     *http.Server
	mu             sync.Mutex
}

// New creates a new API server instance.
func New(
	cfg Config,
	councilManager *council.Manager,
	ledgerManager *ledger.Manager,
	logger *slog.Logger,
) *Server {
	if logger == nil {
		logger = slog.New(
			slog.NewJSONHandler(io.Discard, nil),
		)
	}
	logger = logger.With("component", "api")
	if cfg.ListenAddress == "" {
		cfg.ListenAddress = ":8080"
	}
	return &Server{
		config:         cfg,
		logger:         logger,
		councilManager: councilManager,
		ledgerManager:  ledgerManager,
	}
}

// newMux builds the route table.
func (s *Server) newMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc(
		"POST /api/v1/assessments/{assessmentId}/decisions",
		s.handleSubmitDecision,
	)
	mux.HandleFunc(
		"GET /api/v1/assessments/{assessmentId}/ledger",
		s.handleLedgerEntries,
	)
	mux.HandleFunc(
		"GET /api/v1/assessments/{assessmentId}/ledger/verify",
		s.handleLedgerVerify,
	)
	mux.HandleFunc(
		"GET /api/v1/assessments/{assessmentId}/approval-status",
		s.handleApprovalStatus,
	)
	mux.HandleFunc(
		"PUT /api/v1/assessments/{assessmentId}/council",
		s.handleAssignCouncil,
	)
	mux.HandleFunc(
		"DELETE /api/v1/assessments/{assessmentId}/council",
		s.handleUnassignCouncil,
	)
	mux.HandleFunc(
		"POST /api/v1/councils",
		s.handleCreateCouncil,
	)
	mux.HandleFunc(
		"GET /api/v1/councils",
		s.handleListCouncils,
	)
	mux.HandleFunc(
		"GET /api/v1/councils/{councilId}",
		s.handleGetCouncil,
	)
	mux.HandleFunc(
		"PATCH /api/v1/councils/{councilId}",
		s.handleUpdateCouncil,
	)
	mux.HandleFunc(
		"POST /api/v1/councils/{councilId}/archive",
		s.handleArchiveCouncil,
	)
	mux.HandleFunc(
		"POST /api/v1/councils/{councilId}/members",
		s.handleAddMember,
	)
	mux.HandleFunc(
		"GET /api/v1/councils/{councilId}/members",
		s.handleListMembers,
	)
	mux.HandleFunc(
		"DELETE /api/v1/councils/{councilId}/members/{userId}",
		s.handleRevokeMember,
	)
	return mux
}

// instrumentHandler wraps the route table with request count, duration,
// and in-flight gauges.
func (s *Server) instrumentHandler(next http.Handler) http.Handler {
	inFlight := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "api_requests_in_flight",
		Help: "Current in-flight API requests",
	})
	requests := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total API requests, by status code and method",
		},
		[]string{"code", "method"},
	)
	duration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"code", "method"},
	)
	s.config.PromRegistry.MustRegister(inFlight, requests, duration)
	return promhttp.InstrumentHandlerInFlight(
		inFlight,
		promhttp.InstrumentHandlerCounter(
			requests,
			promhttp.InstrumentHandlerDuration(duration, next),
		),
	)
}

// Start starts the HTTP server in a background goroutine.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.httpServer != nil {
		s.mu.Unlock()
		return errors.New("server already started")
	}

	var handler http.Handler = s.newMux()
	if s.config.PromRegistry != nil {
		handler = s.instrumentHandler(handler)
	}
	server := &http.Server{
		Addr: s.config.ListenAddress,
		// h2c allows gRPC-style HTTP/2 clients on the same cleartext port
		Handler:           h2c.NewHandler(handler, &http2.Server{}),
		ReadHeaderTimeout: 60 * time.Second,
	}
	s.httpServer = server
	s.mu.Unlock()

	if err := s.startServer(server); err != nil {
		s.mu.Lock()
		s.httpServer = nil
		s.mu.Unlock()
		return err
	}

	s.logger.Info(
		"API listener started on " + s.config.ListenAddress,
	)

	// Monitor context for cancellation
	go func() {
		<-ctx.Done()
		s.mu.Lock()
		srv := s.httpServer
		s.httpServer = nil
		s.mu.Unlock()

		if srv != nil {
			s.logger.Debug(
				"context cancelled, shutting down API server",
			)
			//nolint:contextcheck
			shutdownCtx, cancel := context.WithTimeout(
				context.Background(),
				30*time.Second,
			)
			defer cancel()
			//nolint:contextcheck
			if err := srv.Shutdown(shutdownCtx); err != nil {
				s.logger.Error(
					"failed to shutdown API server on context cancellation",
					"error", err,
				)
			}
		}
	}()

	return nil
}

// Stop gracefully shuts down the HTTP server.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	srv := s.httpServer
	s.httpServer = nil
	s.mu.Unlock()

	if srv != nil {
		s.logger.Debug("shutting down API server")
		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf(
				"failed to shutdown API server: %w",
				err,
			)
		}
	}
	return nil
}

// startServer binds the listening socket first so port conflicts are
// detected immediately, then serves in a background goroutine.
func (s *Server) startServer(server *http.Server) error {
	listenConfig := net.ListenConfig{
		Control: socketControl,
	}
	ln, err := listenConfig.Listen(
		context.Background(),
		"tcp",
		server.Addr,
	)
	if err != nil {
		return fmt.Errorf(
			"failed to listen for API server: %w",
			err,
		)
	}
	go func() {
		if err := server.Serve(ln); err != nil &&
			!errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()
	return nil
}
