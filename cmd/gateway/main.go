// Copyright (c) 2026 IJAA. All rights reserved.
// Author: platform@ijaa.dev

// Command gateway is the single public entrance of the IJAA platform. It
// terminates client authentication, mints identity assertions, and
// reverse-proxies requests to the backend services.
//
// # Startup Sequence
//
//  1. Initialize structured logger.
//  2. Load configuration from environment variables.
//  3. Build the token verifier from the shared signing secret.
//  4. Build the routing table and backend registry.
//  5. Start HTTP server with graceful shutdown.
//
// The gateway holds no storage connections: token verification is pure
// signature checking against the shared symmetric key.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/ijaa/alumni/internal/gateway"
	"github.com/ijaa/alumni/internal/platform/config"
	"github.com/ijaa/alumni/internal/platform/constants"
	"github.com/ijaa/alumni/internal/platform/sec"
)

func main() {
	// ── 1. Logger ──────────────────────────────────────────────────────────
	rawLog := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	log := rawLog.With(slog.String("app", constants.AppName), slog.String("service", "gateway"))
	slog.SetDefault(log)

	log.Info("gateway_initializing")

	// ── 2. Configuration ──────────────────────────────────────────────────
	cfg, err := config.LoadGateway()
	must(log, err, "load configuration")

	if cfg.Debug {
		debugLog := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))
		log = debugLog.With(slog.String("app", constants.AppName), slog.String("service", "gateway"))
		slog.SetDefault(log)
	}

	log.Info("configuration_loaded",
		slog.String("environment", cfg.Environment),
		slog.String("port", cfg.ServerPort),
	)

	// ── 3. Token Verifier ─────────────────────────────────────────────────
	// Same symmetric key as the user service; the gateway only verifies.
	tokenService, err := sec.NewTokenService(cfg.JWTSecret, constants.AuthIssuer, constants.DefaultAccessTokenTTL)
	must(log, err, "initialize token verifier")

	// ── 4. Routing ────────────────────────────────────────────────────────
	table := gateway.NewTable(gateway.DefaultRules())
	filter := gateway.NewAuthFilter(tokenService, log)

	registry, err := gateway.NewRegistry(map[string]string{
		gateway.ServiceUser:  cfg.UserServiceURL,
		gateway.ServiceEvent: cfg.EventServiceURL,
		gateway.ServiceFile:  cfg.FileServiceURL,
	}, log)
	must(log, err, "build backend registry")

	// ── 5. HTTP Server ────────────────────────────────────────────────────
	rootCtx, rootCancel := context.WithCancel(context.Background())
	defer rootCancel()

	server := gateway.NewServer(rootCtx, cfg, log, filter, table, registry)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)

	serverErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case sig := <-quit:
		log.Info("shutdown signal received", slog.String("signal", sig.String()))
	case err := <-serverErr:
		log.Error("server startup error", slog.Any("error", err))
	}

	shutdownTimeout := constants.ShutdownTimeout
	log.Info("shutting down gateway", slog.Duration("timeout", shutdownTimeout))

	if err := server.Shutdown(shutdownTimeout); err != nil {
		log.Error("shutdown error", slog.Any("error", err))
		os.Exit(1)
	}

	log.Info("gateway stopped cleanly")
}

// must logs a structured fatal error and terminates the process if err is non-nil.
func must(log *slog.Logger, err error, context string) {
	if err != nil {
		log.Error("startup failure",
			slog.String("context", context),
			slog.Any("error", err),
		)
		os.Exit(1)
	}
}
