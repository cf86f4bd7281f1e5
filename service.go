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

// Package conclave wires the governance evidence ledger service together:
// storage, event bus, ledger and council managers, and the REST API.
package conclave

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sengol-ai/conclave/api"
	"github.com/sengol-ai/conclave/council"
	"github.com/sengol-ai/conclave/database"
	"github.com/sengol-ai/conclave/event"
	"github.com/sengol-ai/conclave/ledger"
)

type Conclave struct {
	eventBus       *event.EventBus
	db             *database.Database
	ledgerManager  *ledger.Manager
	councilManager *council.Manager
	apiServer      *api.Server
	shutdownFuncs  []func(context.Context) error
	config         Config
	done           chan struct{}
	shutdownOnce   sync.Once
}

func New(cfg Config) (*Conclave, error) {
	c := &Conclave{
		config: cfg,
		done:   make(chan struct{}),
	}
	if err := cfg.configValidate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return c, nil
}

// Run starts every component in dependency order and blocks until the
// context is cancelled or Stop is called.
func (c *Conclave) Run(ctx context.Context) error {
	// Configure tracing
	if c.config.tracing {
		if err := c.setupTracing(); err != nil {
			return err
		}
	}
	c.eventBus = event.NewEventBus(
		c.config.promRegistry,
		c.config.logger,
	)
	// Load database
	db, err := database.New(database.Config{
		DataDir:        c.config.dataDir,
		Logger:         c.config.logger,
		PromRegistry:   c.config.promRegistry,
		MetadataPlugin: c.config.metadataPlugin,
		BlobPlugin:     c.config.blobPlugin,
	})
	if err != nil {
		var dbErr database.CommitTimestampError
		if errors.As(err, &dbErr) {
			// The stores committed at different times; operator
			// intervention is required before serving
			c.config.logger.Error(
				"database commit timestamp mismatch, manual recovery required",
				"error", err,
			)
		}
		return fmt.Errorf("failed to open database: %w", err)
	}
	c.db = db
	// Managers
	c.ledgerManager = ledger.NewManager(
		c.db,
		c.eventBus,
		c.config.logger,
	)
	if c.config.promRegistry != nil {
		c.ledgerManager.RegisterMetrics(c.config.promRegistry)
	}
	c.councilManager = council.NewManager(
		c.db,
		c.ledgerManager,
		c.eventBus,
		c.config.logger,
	)
	if c.config.promRegistry != nil {
		c.councilManager.RegisterMetrics(c.config.promRegistry)
	}
	// REST API
	if addr := c.config.apiAddress(); addr != "" {
		c.apiServer = api.New(
			api.Config{
				ListenAddress: addr,
				PromRegistry:  c.config.promRegistry,
			},
			c.councilManager,
			c.ledgerManager,
			c.config.logger,
		)
		if err := c.apiServer.Start(ctx); err != nil {
			return err
		}
	}

	// Wait for shutdown
	select {
	case <-ctx.Done():
		return c.Stop()
	case <-c.done:
		return nil
	}
}

// LedgerManager returns the evidence ledger manager. It is nil until Run
// has started the service.
func (c *Conclave) LedgerManager() *ledger.Manager {
	return c.ledgerManager
}

// CouncilManager returns the council manager. It is nil until Run has
// started the service.
func (c *Conclave) CouncilManager() *council.Manager {
	return c.councilManager
}

func (c *Conclave) Stop() error {
	var err error
	c.shutdownOnce.Do(func() {
		err = c.shutdown()
	})
	return err
}

func (c *Conclave) shutdown() error {
	// Create shutdown context with timeout (default 30s if not configured)
	shutdownTimeout := 30 * time.Second
	if c.config.shutdownTimeout > 0 {
		shutdownTimeout = c.config.shutdownTimeout
	}
	ctx, cancel := context.WithTimeout(
		context.Background(),
		shutdownTimeout,
	)
	defer cancel()

	var err error

	c.config.logger.Debug("starting graceful shutdown")

	// Phase 1: stop accepting new work
	if c.apiServer != nil {
		if stopErr := c.apiServer.Stop(ctx); stopErr != nil {
			err = errors.Join(
				err,
				fmt.Errorf("api shutdown: %w", stopErr),
			)
		}
	}

	// Phase 2: stop event delivery
	if c.eventBus != nil {
		c.eventBus.Stop()
	}

	// Phase 3: flush and close storage
	if c.db != nil {
		if closeErr := c.db.Close(); closeErr != nil {
			err = errors.Join(
				err,
				fmt.Errorf("database close: %w", closeErr),
			)
		}
	}

	// Phase 4: cleanup resources
	for _, fn := range c.shutdownFuncs {
		if fnErr := fn(ctx); fnErr != nil {
			err = errors.Join(
				err,
				fmt.Errorf("shutdown function: %w", fnErr),
			)
		}
	}
	c.shutdownFuncs = nil

	c.config.logger.Debug("graceful shutdown complete")
	close(c.done)
	return err
}
