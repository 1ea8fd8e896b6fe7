// Package http serves the provider's status endpoints.
package http

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

const shutdownTimeout = 5 * time.Second

type Server struct {
	app  *fiber.App
	addr string
	log  *logrus.Entry
}

// NewServer builds the status server. Metrics are served from gatherer.
func NewServer(addr string, services ServiceLister, gatherer prometheus.Gatherer, log *logrus.Entry) *Server {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		AppName:               "pingap-docker-provider",
	})
	app.Use(recover.New())

	handler := NewStatusHandler(services)
	app.Get("/healthz", handler.Health)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	v1 := app.Group("/api/v1")
	v1.Get("/services", handler.ListServices)

	return &Server{app: app, addr: addr, log: log}
}

// Run listens until ctx is canceled, then shuts the server down.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.WithField("addr", s.addr).Info("Status server starting")
		errCh <- s.app.Listen(s.addr)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		s.log.Info("Status server shutting down")
		return s.app.ShutdownWithContext(shutdownCtx)
	}
}
