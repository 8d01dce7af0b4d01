// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

// Package api serves the HTTP interface of pathmon: the lifecycle of the
// monitoring session, its snapshots and exports, saved sessions, a live
// snapshot stream, the OpenAPI document and the Prometheus metrics.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/telekom/pathmon/internal/logger"
)

var _ API = (*api)(nil)

//go:generate go tool moq -out api_moq.go . API
type API interface {
	// Run serves the API until the context is canceled or the server fails.
	Run(ctx context.Context) error
	// Shutdown gracefully stops the server.
	Shutdown(ctx context.Context) error
	// RegisterRoutes adds routes to the router. Routes must be registered before Run.
	RegisterRoutes(ctx context.Context, routes ...Route) error
}

type api struct {
	server *http.Server
	router chi.Router
	tls    TLSConfig
}

// Route is a single endpoint of the API.
type Route struct {
	Path    string
	Method  string
	Handler http.HandlerFunc
}

const (
	readHeaderTimeout = 5 * time.Second
	// methodAny registers a route for every HTTP method.
	methodAny = "*"
)

// New creates a new API server listening on the configured address.
func New(cfg Config) API {
	r := chi.NewRouter()
	return &api{
		server: &http.Server{
			Addr:              cfg.ListeningAddress,
			Handler:           r,
			ReadHeaderTimeout: readHeaderTimeout,
		},
		router: r,
		tls:    cfg.TLS,
	}
}

// Run serves the API. It returns when the context is canceled or the
// server fails; a graceful [api.Shutdown] makes it return nil.
func (a *api) Run(ctx context.Context) error {
	log := logger.FromContext(ctx)
	cErr := make(chan error, 1)

	go func(cErr chan<- error) {
		defer close(cErr)
		log.InfoContext(ctx, "Serving API", "addr", a.server.Addr, "tls", a.tls.Enabled)

		var err error
		if a.tls.Enabled {
			err = a.server.ListenAndServeTLS(a.tls.CertPath, a.tls.KeyPath)
		} else {
			err = a.server.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.ErrorContext(ctx, "Failed to serve API", "error", err)
			cErr <- fmt.Errorf("failed serving API: %w", err)
		}
	}(cErr)

	select {
	case <-ctx.Done():
		return fmt.Errorf("failed serving API: %w", ctx.Err())
	case err := <-cErr:
		return err
	}
}

// Shutdown gracefully stops the server, waiting for active connections
// until the context expires.
func (a *api) Shutdown(ctx context.Context) error {
	err := a.server.Shutdown(ctx)
	if err != nil {
		logger.FromContext(ctx).ErrorContext(ctx, "Failed to shutdown API server", "error", err)
		return fmt.Errorf("failed shutting down API: %w", err)
	}
	return nil
}

// RegisterRoutes adds the request logger, the recoverer and the given routes to the router.
func (a *api) RegisterRoutes(ctx context.Context, routes ...Route) error {
	a.router.Use(logger.Middleware(ctx), middleware.Recoverer)
	for _, route := range routes {
		if route.Path == "" || route.Handler == nil {
			return &ErrInvalidRoute{Route: route}
		}
		if route.Method == methodAny {
			a.router.HandleFunc(route.Path, route.Handler)
			continue
		}
		a.router.MethodFunc(route.Method, route.Path, route.Handler)
	}

	a.router.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, ErrNotFound)
	})
	a.router.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, ErrMethodNotAllowed)
	})
	return nil
}
