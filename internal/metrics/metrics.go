package metrics

// Package metrics provides Prometheus metrics collection for the transfer
// services.
//
// This package includes:
// - HTTP request metrics (count, latency, errors)
// - Preparation worker metrics (count, latency, failures per chain)
// - Metrics HTTP server on configurable port
// - Echo middleware for automatic request instrumentation
//
// Usage:
//
//	import "github.com/vultisig/app-transfer/internal/metrics"
//
//	// Start metrics server
//	metricsServer := metrics.StartMetricsServer(cfg.Metrics, []string{metrics.ServiceHTTP}, logger)
//	defer metricsServer.Stop(context.Background())
//
//	// Add middleware to Echo
//	e.Use(metrics.HTTPMiddleware())

import (
	"context"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

const (
	ServiceHTTP   = "http"
	ServiceWorker = "worker"
)

type Config struct {
	Enabled bool `envconfig:"METRICS_ENABLED" default:"true"`
	Port    int  `envconfig:"METRICS_PORT" default:"8088"`
}

// Server serves the Prometheus scrape endpoint.
type Server struct {
	e    *echo.Echo
	port int
}

// StartMetricsServer registers the requested metric sets and starts the
// scrape endpoint in a background goroutine. Returns nil when metrics are
// disabled.
func StartMetricsServer(cfg Config, services []string, logger *logrus.Logger) *Server {
	if !cfg.Enabled {
		logger.Info("metrics disabled")
		return nil
	}

	RegisterMetrics(services, logger)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	srv := &Server{
		e:    e,
		port: cfg.Port,
	}

	go func() {
		logger.Infof("metrics server listening on :%d", cfg.Port)
		err := e.Start(fmt.Sprintf(":%d", cfg.Port))
		if err != nil && err != http.ErrServerClosed {
			logger.Errorf("metrics server failed: %v", err)
		}
	}()

	return srv
}

func (s *Server) Stop(ctx context.Context) error {
	if err := s.e.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown metrics server: %w", err)
	}
	return nil
}
