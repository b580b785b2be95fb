// Package admin exposes the ops HTTP surface: health and metrics. It is
// separate from the command protocol port and can be disabled entirely.
package admin

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"github.com/taskhub/core/internal/infrastructure/config"
	"github.com/taskhub/core/internal/infrastructure/logger"
	"github.com/taskhub/core/internal/infrastructure/metrics"
)

// Server is the admin HTTP server.
type Server struct {
	echo *echo.Echo
	cfg  config.AdminConfig
	log  *logger.Logger
}

// New creates the admin server with health and metrics routes.
func New(cfg config.AdminConfig, m *metrics.Metrics, log *logger.Logger) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	adminLog := log.WithComponent("admin")

	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:    true,
		LogStatus: true,
		LogMethod: true,
		LogError:  true,
		LogValuesFunc: func(c echo.Context, values middleware.RequestLoggerValues) error {
			fields := []interface{}{
				"method", values.Method,
				"uri", values.URI,
				"status", values.Status,
			}
			if values.Error != nil {
				fields = append(fields, "error", values.Error.Error())
				adminLog.Errorw("admin request failed", fields...)
			} else {
				adminLog.Debugw("admin request", fields...)
			}
			return nil
		},
	}))
	e.Use(middleware.RateLimiter(middleware.NewRateLimiterMemoryStore(
		rate.Limit(cfg.RateLimitRequests),
	)))

	e.GET("/health", healthCheck)
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})))

	return &Server{echo: e, cfg: cfg, log: adminLog}
}

func healthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// Start serves until Shutdown is called.
func (s *Server) Start() error {
	s.log.Infow("admin surface listening", "addr", s.cfg.Addr())
	err := s.echo.Start(s.cfg.Addr())
	if err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully stops the admin server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}
