// Package server hosts the HTTP API.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"

	"github.com/rackline/rackline/internal/metrics"
	"github.com/rackline/rackline/internal/profile"
	"github.com/rackline/rackline/internal/util"
	apiv1 "github.com/rackline/rackline/server/router/api/v1"
	"github.com/rackline/rackline/store"
)

type Server struct {
	Profile *profile.Profile
	Store   *store.Store

	echoServer *echo.Echo
	exporter   *metrics.Exporter
	apiV1      *apiv1.APIV1Service
}

func NewServer(ctx context.Context, profile *profile.Profile, store *store.Store) (*Server, error) {
	e := echo.New()
	e.Debug = profile.IsDev()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: util.GenUUID,
	}))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{echo.GET, echo.POST, echo.DELETE, echo.OPTIONS},
	}))
	e.Use(middleware.RateLimiter(middleware.NewRateLimiterMemoryStore(rate.Limit(30))))
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:    true,
		LogStatus: true,
		LogMethod: true,
		LogError:  true,
		LogValuesFunc: func(_ echo.Context, v middleware.RequestLoggerValues) error {
			if v.Error != nil {
				slog.Warn("http request",
					"method", v.Method,
					"uri", v.URI,
					"status", v.Status,
					"error", v.Error,
				)
				return nil
			}
			slog.Debug("http request",
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
			)
			return nil
		},
	}))

	exporter := metrics.NewExporter(metrics.DefaultConfig())

	s := &Server{
		Profile:    profile,
		Store:      store,
		echoServer: e,
		exporter:   exporter,
	}

	e.GET("/healthz", func(c echo.Context) error {
		return c.String(200, "Service ready.")
	})
	e.GET("/metrics", echo.WrapHandler(exporter.Handler()))

	apiV1Service, err := apiv1.NewAPIV1Service(profile, store, exporter)
	if err != nil {
		return nil, err
	}
	apiV1Service.RegisterRoutes(e.Group("/api/v1"))
	s.apiV1 = apiV1Service

	return s, nil
}

func (s *Server) Start(_ context.Context) error {
	address := fmt.Sprintf("%s:%d", s.Profile.Addr, s.Profile.Port)
	go func() {
		if err := s.echoServer.Start(address); err != nil {
			slog.Error("failed to start echo server", "error", err)
		}
	}()
	return nil
}

func (s *Server) Shutdown(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	// Shutdown echo server
	if err := s.echoServer.Shutdown(ctx); err != nil {
		slog.Error("failed to shutdown server", "error", err)
	}

	// Close database connection
	if err := s.Store.Close(); err != nil {
		slog.Error("failed to close database", "error", err)
	}

	slog.Info("rackline stopped properly")
}
