package health

import (
	"context"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

// Server exposes a liveness endpoint for orchestration probes.
type Server struct {
	e    *echo.Echo
	port int
}

func New(port int) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	return &Server{
		e:    e,
		port: port,
	}
}

func (s *Server) Start(ctx context.Context, logger *logrus.Logger) error {
	go func() {
		<-ctx.Done()
		if err := s.e.Shutdown(context.Background()); err != nil {
			logger.Errorf("failed to shutdown health server: %v", err)
		}
	}()

	logger.Infof("health server listening on :%d", s.port)
	err := s.e.Start(fmt.Sprintf(":%d", s.port))
	if err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start health server: %w", err)
	}
	return nil
}
