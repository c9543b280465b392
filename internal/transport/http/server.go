// Package http provides the HTTP server implementation for the spend agent.
package http

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"github.com/xiaot623/spendagent/internal/config"
	"github.com/xiaot623/spendagent/internal/log"
	"github.com/xiaot623/spendagent/internal/service"
	"github.com/xiaot623/spendagent/internal/telemetry"
	v1 "github.com/xiaot623/spendagent/internal/transport/http/v1"
)

// NewServer creates and configures the public HTTP server: the agent
// endpoints, the WebSocket channel, health and metrics.
func NewServer(svc *service.Service, cfg config.Server) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Middleware
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: func() string { return "req_" + uuid.NewString() },
		RequestIDHandler: func(c echo.Context, id string) {
			req := c.Request()
			c.SetRequest(req.WithContext(log.ContextWithRequestID(req.Context(), id)))
		},
	}))
	e.Use(requestLogger())
	e.Use(middleware.Recover())
	e.Use(corsMiddleware(cfg.CORSOrigin))
	if cfg.RatePerSecond > 0 {
		e.Use(middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
			Skipper: func(c echo.Context) bool {
				return c.Path() == "/health" || c.Path() == "/metrics"
			},
			Store: middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
				Rate:      rate.Limit(cfg.RatePerSecond),
				Burst:     max(1, int(cfg.RatePerSecond)),
				ExpiresIn: 3 * time.Minute,
			}),
		}))
	}
	e.Use(echo.WrapMiddleware(func(next http.Handler) http.Handler {
		return telemetry.Handler(next, "spendagent")
	}))

	// Handlers
	v1Handler := v1.NewHandler(svc)
	v1Handler.RegisterRoutes(e)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	return e
}

func corsMiddleware(origin string) echo.MiddlewareFunc {
	if origin == "" {
		return middleware.CORS()
	}
	return middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{origin},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
	})
}

func requestLogger() echo.MiddlewareFunc {
	logger := log.WithComponent("http")
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			event := logger.Info()
			if v.Error != nil || v.Status >= http.StatusInternalServerError {
				event = logger.Error().Err(v.Error)
			}
			event.
				Str("request_id", v.RequestID).
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Msg("request")
			return nil
		},
	})
}
