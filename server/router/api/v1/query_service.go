package v1

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/rackline/rackline/ai/recommend"
)

// PluginQueryRequest is the request body of the query endpoint.
type PluginQueryRequest struct {
	Text         string   `json:"text"`
	Genre        string   `json:"genre,omitempty"`
	Instrument   string   `json:"instrument,omitempty"`
	OwnedPlugins []string `json:"owned_plugins,omitempty"`
	MaxResults   int      `json:"max_results,omitempty"`
}

// Query handles POST /api/v1/query: the full RAG recommendation flow.
func (s *APIV1Service) Query(c echo.Context) error {
	if !s.aiAvailable() {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "AI features are not configured")
	}

	request := &PluginQueryRequest{}
	if err := c.Bind(request); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed query request").SetInternal(err)
	}
	if strings.TrimSpace(request.Text) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "query text cannot be empty")
	}
	if request.MaxResults < 0 || request.MaxResults > 50 {
		return echo.NewHTTPError(http.StatusBadRequest, "max_results must be between 1 and 50")
	}

	startTime := time.Now()
	response, err := s.Recommender.Recommend(c.Request().Context(), &recommend.Query{
		Text:         request.Text,
		Genre:        request.Genre,
		Instrument:   request.Instrument,
		OwnedPlugins: request.OwnedPlugins,
		MaxResults:   request.MaxResults,
	})
	if err != nil {
		s.Exporter.ObserveQuery("query", "error", time.Since(startTime))
		if errors.Is(err, recommend.ErrUpstream) {
			return echo.NewHTTPError(http.StatusBadGateway, "upstream AI service failed").SetInternal(err)
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to run recommendation query").SetInternal(err)
	}

	s.Exporter.ObserveQuery("query", "ok", time.Since(startTime))
	s.Exporter.CountVectorSearch("plugin_chain")
	if response.LLMStats != nil {
		s.Exporter.ObserveLLMCall(
			response.LLMStats.PromptTokens,
			response.LLMStats.CompletionTokens,
			time.Duration(response.LLMStats.TotalDurationMs)*time.Millisecond,
		)
	}
	return c.JSON(http.StatusOK, convertRAGResponse(response))
}
