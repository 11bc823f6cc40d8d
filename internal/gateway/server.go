// Copyright (c) 2026 IJAA. All rights reserved.
// Author: platform@ijaa.dev

package gateway

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/ijaa/alumni/internal/platform/apperr"
	"github.com/ijaa/alumni/internal/platform/config"
	"github.com/ijaa/alumni/internal/platform/constants"
	"github.com/ijaa/alumni/internal/platform/middleware"
	"github.com/ijaa/alumni/internal/platform/respond"
)

// Server is the runnable gateway process: middleware chain, routing table,
// auth filter, and backend registry behind one [http.Server].
type Server struct {
	httpServer *http.Server
	log        *slog.Logger
}

// NewServer wires the gateway pipeline.
//
// # Request Path
//
//	client -> platform prefix strip -> rule match -> auth filter -> proxy
//
// Requests outside the platform prefix or without a matching rule never
// reach a backend.
func NewServer(ctx context.Context, cfg *config.GatewayConfig, log *slog.Logger, filter *AuthFilter, table *Table, registry *Registry) *Server {
	r := chi.NewRouter()

	r.Use(middleware.RequestID())
	r.Use(middleware.StructuredLogger(log))
	r.Use(chimw.Timeout(constants.GlobalRequestTimeout))
	r.Use(middleware.RateLimit(ctx))
	r.Use(middleware.PanicRecovery(log))
	r.Use(middleware.CORS(cfg))

	// Gateway's own probe, outside the platform prefix.
	r.Get("/health", func(writer http.ResponseWriter, request *http.Request) {
		respond.OK(writer, map[string]string{"status": "ok"})
	})

	dispatch := newDispatcher(filter, table, registry, log)
	r.Handle(constants.GatewayPrefix+"/*", http.StripPrefix(constants.GatewayPrefix, dispatch))

	return &Server{
		log: log,
		httpServer: &http.Server{
			Addr:              ":" + cfg.ServerPort,
			Handler:           r,
			ReadTimeout:       constants.DefaultReadTimeout,
			WriteTimeout:      constants.DefaultWriteTimeout,
			IdleTimeout:       constants.DefaultIdleTimeout,
			ReadHeaderTimeout: constants.DefaultReadHeaderTimeout,
		},
	}
}

// newDispatcher resolves the routing rule for each request and runs the
// auth filter in front of the proxy.
func newDispatcher(filter *AuthFilter, table *Table, registry *Registry, log *slog.Logger) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		path := request.URL.Path
		if !strings.HasPrefix(path, "/") {
			path = "/" + path
		}

		rule, ok := table.Match(path)
		if !ok {
			respond.Error(writer, request, apperr.NotFound("Route"))
			return
		}

		forward := http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			registry.Forward(rule.Service, writer, request)
		})

		filter.Apply(rule, forward).ServeHTTP(writer, request)
	})
}

// ListenAndServe starts the gateway. It blocks until closed.
func (s *Server) ListenAndServe() error {
	s.log.Info("gateway starting", slog.String("addr", s.httpServer.Addr))
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the gateway, waiting for in-flight requests.
func (s *Server) Shutdown(timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return s.httpServer.Shutdown(ctx)
}
