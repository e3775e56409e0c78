package v1

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// HealthResponse is the response body of the health endpoint.
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Database  string `json:"database"`
}

// Initialize handles POST /api/v1/initialize: create the database schema
// and vector indexes. Safe to call more than once.
func (s *APIV1Service) Initialize(c echo.Context) error {
	if err := s.Store.Migrate(c.Request().Context()); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to initialize database").SetInternal(err)
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "Database initialized successfully"})
}

// Health handles GET /api/v1/health.
func (s *APIV1Service) Health(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := s.Store.Ping(ctx); err != nil {
		return c.JSON(http.StatusServiceUnavailable, HealthResponse{
			Status:    "unhealthy",
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Database:  "disconnected",
		})
	}
	return c.JSON(http.StatusOK, HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Database:  "connected",
	})
}
