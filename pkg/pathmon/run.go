// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

// Package pathmon wires the components of a pathmon instance and runs them
// until the first non-recoverable error or the end of the context.
package pathmon

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/telekom/pathmon/internal/helper"
	"github.com/telekom/pathmon/internal/logger"
	"github.com/telekom/pathmon/internal/probe"
	"github.com/telekom/pathmon/internal/resolver"
	"github.com/telekom/pathmon/internal/traceroute"
	"github.com/telekom/pathmon/pkg/api"
	"github.com/telekom/pathmon/pkg/config"
	"github.com/telekom/pathmon/pkg/pathmon/metrics"
	"github.com/telekom/pathmon/pkg/session"
	"github.com/telekom/pathmon/pkg/store"
)

const shutdownTimeout = time.Second * 30

// controller runs the sessions of the instance.
type controller interface {
	session.Manager
	// Run publishes snapshots until ctx is done.
	Run(ctx context.Context) error
}

// sessionStore persists sessions and keeps the auto-saved one.
type sessionStore interface {
	store.Store
	LoadAutoSave(ctx context.Context) (*session.Snapshot, error)
}

// Pathmon is the main struct of the pathmon application
type Pathmon struct {
	// config is the startup configuration
	config *config.Config
	// api serves the session API
	api api.API
	// metrics is used to collect metrics and traces
	metrics metrics.Provider
	// names caches forward and reverse DNS lookups
	names *resolver.Cache
	// controller drives the session lifecycle
	controller controller
	// store saves sessions to disk
	store sessionStore
	// cErr is used to handle non-recoverable errors of the components
	cErr chan error
	// cDone is used to signal that pathmon was shut down
	cDone chan struct{}
	// shutOnce is used to ensure that the shutdown function is only called once
	shutOnce sync.Once
}

// New creates a new pathmon instance from the given startup configuration
func New(ctx context.Context, cfg *config.Config) (*Pathmon, error) {
	m := metrics.New(cfg.Telemetry)
	sm := session.NewMetrics()
	for _, c := range sm.GetCollectors() {
		if err := m.GetRegistry().Register(c); err != nil {
			return nil, fmt.Errorf("failed to register session metrics: %w", err)
		}
	}
	name := cfg.Name
	if name == "" {
		name = "pathmon"
	}
	if err := metrics.RegisterInstanceInfo(m.GetRegistry(), name, cfg.Metadata.Labels()); err != nil {
		return nil, fmt.Errorf("failed to register instance info: %w", err)
	}

	format, err := store.ParseFormat(string(cfg.Store.Format))
	if err != nil {
		return nil, err
	}
	fs, err := store.NewFileStore(ctx, cfg.Store.Path, format)
	if err != nil {
		return nil, err
	}

	names := resolver.NewCache(resolver.New(), resolver.DefaultNameTTL, helper.RetryConfig{Count: 2, Delay: 100 * time.Millisecond})
	p := probe.NewProber(cfg.Monitor.Mode)
	c := session.NewController(traceroute.NewDiscoverer(p, names), p, cfg.Monitor.Session(), sm)

	return &Pathmon{
		config:     cfg,
		api:        api.New(cfg.Api),
		metrics:    m,
		names:      names,
		controller: c,
		store:      fs,
		cErr:       make(chan error, 1),
		cDone:      make(chan struct{}, 1),
		shutOnce:   sync.Once{},
	}, nil
}

// Run starts pathmon and blocks until it was shut down.
// It returns [ErrFinalShutdown] unless tracing or the API routes
// could not be set up, in which case nothing is started.
func (p *Pathmon) Run(ctx context.Context) error {
	ctx, cancel := logger.NewContextWithLogger(ctx)
	log := logger.FromContext(ctx)
	defer cancel()

	err := p.metrics.InitTracing(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}
	// Routes are registered before anything can trigger a shutdown.
	if err = p.registerRoutes(ctx); err != nil {
		return errors.Join(err, p.metrics.Shutdown(ctx))
	}
	if p.names != nil {
		go p.names.Start()
	}

	go func() {
		p.cErr <- p.api.Run(ctx)
	}()

	go func() {
		p.cErr <- p.controller.Run(ctx)
	}()

	go p.autoSave(ctx)
	go p.startSession(ctx)

	for {
		select {
		case <-ctx.Done():
			p.shutdown(ctx)
		case err := <-p.cErr:
			if err != nil && !errors.Is(err, context.Canceled) {
				log.ErrorContext(ctx, "Non-recoverable error in pathmon component", "error", err)
				p.shutdown(ctx)
			}
		case <-p.cDone:
			log.InfoContext(ctx, "Pathmon was shut down")
			return ErrFinalShutdown
		}
	}
}

// registerRoutes registers the session routes on the API
func (p *Pathmon) registerRoutes(ctx context.Context) error {
	h := api.NewHandler(p.controller, p.store, p.metrics.GetRegistry())
	if err := p.api.RegisterRoutes(ctx, h.Routes()...); err != nil {
		return fmt.Errorf("failed to register routes: %w", err)
	}
	return nil
}

// startSession starts the configured target. Without a target the last
// auto-saved session is restored for viewing.
func (p *Pathmon) startSession(ctx context.Context) {
	log := logger.FromContext(ctx)
	if !p.config.HasTarget() {
		s, err := p.store.LoadAutoSave(ctx)
		if err != nil {
			if !errors.Is(err, store.ErrNotFound) {
				log.WarnContext(ctx, "Failed to load auto-saved session", "error", err)
			}
			return
		}
		if err := p.controller.Restore(s); err != nil {
			log.WarnContext(ctx, "Failed to restore auto-saved session", "error", err)
			return
		}
		log.InfoContext(ctx, "Restored auto-saved session", "target", s.Target)
		return
	}

	target, interval := p.config.Monitor.Target, p.config.Monitor.ProbeInterval()
	if err := p.controller.Start(ctx, target, interval); err != nil {
		log.ErrorContext(ctx, "Failed to start session", "target", target, "error", err)
	}
}

// autoSave periodically saves the current session until ctx is done
func (p *Pathmon) autoSave(ctx context.Context) {
	interval := p.config.Store.AutoSaveInterval
	if interval <= 0 {
		return
	}

	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if err := p.saveCurrent(ctx); err != nil {
				logger.FromContext(ctx).WarnContext(ctx, "Auto-save failed", "error", err)
			}
		}
	}
}

// saveCurrent auto-saves the current session if it has a path
func (p *Pathmon) saveCurrent(ctx context.Context) error {
	s := p.controller.Snapshot()
	if s.State == session.StateIdle || len(s.Hops) == 0 {
		return nil
	}
	return p.store.AutoSave(ctx, &s)
}

// shutdown shuts down pathmon and all managed components gracefully.
// The running session is stopped and saved before the API goes down.
func (p *Pathmon) shutdown(ctx context.Context) {
	errC := ctx.Err()
	log := logger.FromContext(ctx)
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	p.shutOnce.Do(func() {
		log.InfoContext(ctx, "Shutting down pathmon")
		var sErrs ErrShutdown
		if state := p.controller.Snapshot().State; state.Live() || state == session.StateDiscovering {
			sErrs.errSession = p.controller.Stop()
		}
		sErrs.errStore = p.saveCurrent(ctx)
		sErrs.errAPI = p.api.Shutdown(ctx)
		sErrs.errMetrics = p.metrics.Shutdown(ctx)
		if p.names != nil {
			p.names.Stop()
		}

		if sErrs.HasError() {
			log.ErrorContext(ctx, "Failed to shutdown gracefully", "contextError", errC, "error", sErrs)
		}

		// Signal that shutdown is complete
		p.cDone <- struct{}{}
	})
}
