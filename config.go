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

package conclave

import (
	"fmt"
	"io"
	"log/slog"
	"net"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type Config struct {
	promRegistry        prometheus.Registerer
	logger              *slog.Logger
	dataDir             string
	metadataPlugin      string
	blobPlugin          string
	apiListenAddress    string
	apiPort             uint
	tracing             bool
	tracingStdout       bool
	tracingOtlpEndpoint string
	shutdownTimeout     time.Duration
}

// validMetadataPlugins are the known metadata storage plugin names
var validMetadataPlugins = map[string]bool{
	"":         true,
	"sqlite":   true,
	"postgres": true,
}

// validBlobPlugins are the known blob storage plugin names
var validBlobPlugins = map[string]bool{
	"":       true,
	"badger": true,
	"gcs":    true,
}

func (c *Config) configValidate() error {
	if !validMetadataPlugins[c.metadataPlugin] {
		return fmt.Errorf(
			"unknown metadata plugin: %s",
			c.metadataPlugin,
		)
	}
	if !validBlobPlugins[c.blobPlugin] &&
		!strings.HasPrefix(c.dataDir, "gcs://") {
		return fmt.Errorf("unknown blob plugin: %s", c.blobPlugin)
	}
	if c.apiPort > 65535 {
		return fmt.Errorf("invalid API port: %d", c.apiPort)
	}
	if c.apiListenAddress != "" {
		if _, _, err := net.SplitHostPort(c.apiListenAddress); err != nil {
			return fmt.Errorf(
				"invalid API listen address: %w",
				err,
			)
		}
	}
	if c.shutdownTimeout < 0 {
		return fmt.Errorf(
			"invalid shutdown timeout: %s",
			c.shutdownTimeout,
		)
	}
	return nil
}

// apiAddress returns the effective API listen address. An explicit listen
// address wins over a bare port.
func (c *Config) apiAddress() string {
	if c.apiListenAddress != "" {
		return c.apiListenAddress
	}
	if c.apiPort > 0 {
		return fmt.Sprintf(":%d", c.apiPort)
	}
	return ""
}

// ConfigOptionFunc is a type that represents functions that modify the
// service config
type ConfigOptionFunc func(*Config)

// NewConfig creates a new conclave config with the specified options
func NewConfig(opts ...ConfigOptionFunc) Config {
	c := Config{
		// Default logger will throw away logs
		// We do this so we don't have to add guards around every log operation
		logger: slog.New(slog.NewJSONHandler(io.Discard, nil)),
	}
	// Apply options
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// WithLogger specifies the logger to use. This defaults to discarding log output
func WithLogger(logger *slog.Logger) ConfigOptionFunc {
	return func(c *Config) {
		c.logger = logger
	}
}

// WithDataDir specifies the persistent data directory to use. The default is to store everything in memory
func WithDataDir(dataDir string) ConfigOptionFunc {
	return func(c *Config) {
		c.dataDir = dataDir
	}
}

// WithDatabasePath specifies the persistent data directory to use. It is an alias for WithDataDir
func WithDatabasePath(dataDir string) ConfigOptionFunc {
	return func(c *Config) {
		c.dataDir = dataDir
	}
}

// WithMetadataPlugin specifies the metadata storage plugin to use.
func WithMetadataPlugin(plugin string) ConfigOptionFunc {
	return func(c *Config) {
		c.metadataPlugin = plugin
	}
}

// WithBlobPlugin specifies the blob storage plugin to use.
func WithBlobPlugin(plugin string) ConfigOptionFunc {
	return func(c *Config) {
		c.blobPlugin = plugin
	}
}

// WithApiListenAddress specifies the listen address for the REST API
// server. An empty string disables the server unless a port is set.
func WithApiListenAddress(addr string) ConfigOptionFunc {
	return func(c *Config) {
		c.apiListenAddress = addr
	}
}

// WithApiPort specifies the port to use for the REST API listener
func WithApiPort(port uint) ConfigOptionFunc {
	return func(c *Config) {
		c.apiPort = port
	}
}

// WithPrometheusRegistry specifies a prometheus.Registerer instance to add metrics to. In most cases, prometheus.DefaultRegistry would be
// a good choice to get metrics working
func WithPrometheusRegistry(registry prometheus.Registerer) ConfigOptionFunc {
	return func(c *Config) {
		c.promRegistry = registry
	}
}

// WithTracing enables tracing. By default, spans are submitted to a HTTP(s) endpoint using OTLP. This can be configured
// using the OTEL_EXPORTER_OTLP_* env vars documented in the README for [go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp]
func WithTracing(tracing bool) ConfigOptionFunc {
	return func(c *Config) {
		c.tracing = tracing
	}
}

// WithTracingStdout enables tracing output to stdout. This also requires tracing to enabled separately. This is mostly useful for debugging
func WithTracingStdout(stdout bool) ConfigOptionFunc {
	return func(c *Config) {
		c.tracingStdout = stdout
	}
}

// WithTracingOtlpEndpoint specifies the OTLP HTTP endpoint URL for trace
// submission. The default follows the OTEL_EXPORTER_OTLP_* env vars
func WithTracingOtlpEndpoint(endpoint string) ConfigOptionFunc {
	return func(c *Config) {
		c.tracingOtlpEndpoint = endpoint
	}
}

// WithShutdownTimeout specifies the timeout for graceful shutdown. The default is 30 seconds
func WithShutdownTimeout(timeout time.Duration) ConfigOptionFunc {
	return func(c *Config) {
		c.shutdownTimeout = timeout
	}
}
