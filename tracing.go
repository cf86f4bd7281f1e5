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
	"context"
	"fmt"

	"github.com/sengol-ai/conclave/internal/version"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
)

// setupTracing installs the OpenTelemetry tracer provider. Span export
// goes to stdout or an OTLP HTTP endpoint depending on config; the
// provider shutdown is registered for graceful service shutdown.
func (c *Conclave) setupTracing() error {
	ctx := context.Background()

	exporter, err := c.newTraceExporter(ctx)
	if err != nil {
		return fmt.Errorf("failed to create trace exporter: %w", err)
	}

	res, err := resource.New(
		ctx,
		resource.WithAttributes(
			semconv.ServiceName("conclave"),
			semconv.ServiceVersion(version.Version),
		),
	)
	if err != nil {
		return fmt.Errorf("failed to create trace resource: %w", err)
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(provider)
	c.shutdownFuncs = append(c.shutdownFuncs, provider.Shutdown)
	return nil
}

func (c *Conclave) newTraceExporter(
	ctx context.Context,
) (sdktrace.SpanExporter, error) {
	if c.config.tracingStdout {
		return stdouttrace.New(stdouttrace.WithPrettyPrint())
	}
	var opts []otlptracehttp.Option
	if c.config.tracingOtlpEndpoint != "" {
		opts = append(
			opts,
			otlptracehttp.WithEndpointURL(c.config.tracingOtlpEndpoint),
		)
	}
	return otlptracehttp.New(ctx, opts...)
}
