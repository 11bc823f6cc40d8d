// Copyright (c) 2026 IJAA. All rights reserved.
// Author: platform@ijaa.dev

package gateway

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httputil"
	"net/url"
	"time"

	"github.com/ijaa/alumni/internal/platform/apperr"
	"github.com/ijaa/alumni/internal/platform/constants"
	"github.com/ijaa/alumni/internal/platform/ctxutil"
	"github.com/ijaa/alumni/internal/platform/respond"
)

// Registry maps logical service names to their reverse proxies.
type Registry struct {
	proxies map[string]*httputil.ReverseProxy
	logger  *slog.Logger
}

// NewRegistry builds one [httputil.ReverseProxy] per backend.
//
// Backend errors (connection refused, timeouts) surface as a uniform 502
// naming only the logical service, never the internal address.
func NewRegistry(backends map[string]string, logger *slog.Logger) (*Registry, error) {
	registry := &Registry{
		proxies: make(map[string]*httputil.ReverseProxy, len(backends)),
		logger:  logger,
	}

	for service, rawURL := range backends {
		target, err := url.Parse(rawURL)
		if err != nil {
			return nil, fmt.Errorf("gateway_registry_bad_backend_url: %s: %w", service, err)
		}

		proxy := httputil.NewSingleHostReverseProxy(target)

		service := service // captured by the error handler below
		proxy.ErrorHandler = func(writer http.ResponseWriter, request *http.Request, err error) {
			logger.Error("gateway_backend_unreachable",
				slog.String("service", service),
				slog.String("path", request.URL.Path),
				slog.Any("error", err),
				slog.String("request_id", ctxutil.GetRequestID(request.Context())),
			)
			respond.Error(writer, request, apperr.BadGateway(service))
		}

		registry.proxies[service] = proxy
	}

	return registry, nil
}

// Forward proxies the request to the named backend, stamping the response
// duration header on the way out.
func (registry *Registry) Forward(service string, writer http.ResponseWriter, request *http.Request) {
	proxy, ok := registry.proxies[service]
	if !ok {
		respond.Error(writer, request, apperr.BadGateway(service))
		return
	}

	started := time.Now()
	proxy.ServeHTTP(&timingWriter{ResponseWriter: writer, started: started}, request)
}

// timingWriter injects the X-Response-Time header just before the first
// byte of the response is committed.
type timingWriter struct {
	http.ResponseWriter
	started     time.Time
	wroteHeader bool
}

func (writer *timingWriter) WriteHeader(statusCode int) {
	if !writer.wroteHeader {
		writer.wroteHeader = true
		elapsed := time.Since(writer.started)
		writer.Header().Set(constants.HeaderResponseTime, elapsed.String())
	}
	writer.ResponseWriter.WriteHeader(statusCode)
}

func (writer *timingWriter) Write(data []byte) (int, error) {
	if !writer.wroteHeader {
		writer.WriteHeader(http.StatusOK)
	}
	return writer.ResponseWriter.Write(data)
}
