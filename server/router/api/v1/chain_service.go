package v1

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/rackline/rackline/ai/recommend"
	"github.com/rackline/rackline/store"
)

// CreateChainResponse is the response body of the chain-add endpoint.
type CreateChainResponse struct {
	ID      int32  `json:"id"`
	UID     string `json:"uid"`
	Message string `json:"message"`
}

// SearchChainsResponse is the response body of the direct search endpoint.
type SearchChainsResponse struct {
	Results []SearchResultPayload `json:"results"`
	Total   int                   `json:"total"`
}

// ListChainsResponse is the response body of the chain list endpoint.
type ListChainsResponse struct {
	Chains []PluginChainPayload `json:"chains"`
	Total  int                  `json:"total"`
}

// CreateChain handles POST /api/v1/chains.
func (s *APIV1Service) CreateChain(c echo.Context) error {
	if s.Embedding == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "AI features are not configured")
	}

	payload := &PluginChainPayload{}
	if err := c.Bind(payload); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed plugin chain").SetInternal(err)
	}
	if strings.TrimSpace(payload.Name) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "chain name is required")
	}
	if strings.TrimSpace(payload.Description) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "chain description is required")
	}
	if len(payload.Plugins) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "chain must contain at least one plugin")
	}
	for _, plugin := range payload.Plugins {
		if strings.TrimSpace(plugin.Name) == "" {
			return echo.NewHTTPError(http.StatusBadRequest, "every plugin needs a name")
		}
	}

	ctx := c.Request().Context()
	chain := convertPluginChainToStore(payload)

	embedding, err := s.Embedding.Embed(ctx, chain.EmbeddingText())
	if err != nil {
		s.Exporter.CountEmbeddingCall("error")
		return echo.NewHTTPError(http.StatusBadGateway, "embedding service failed").SetInternal(err)
	}
	s.Exporter.CountEmbeddingCall("ok")

	created, err := s.Store.CreatePluginChain(ctx, chain, embedding)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to create plugin chain").SetInternal(err)
	}
	s.Exporter.CountChainCreated()

	return c.JSON(http.StatusOK, CreateChainResponse{
		ID:      created.ID,
		UID:     created.UID,
		Message: "Plugin chain added successfully",
	})
}

// ListChains handles GET /api/v1/chains.
func (s *APIV1Service) ListChains(c echo.Context) error {
	limit := parseIntQuery(c, "limit", 20)
	offset := parseIntQuery(c, "offset", 0)
	if limit <= 0 || limit > 100 {
		return echo.NewHTTPError(http.StatusBadRequest, "limit must be between 1 and 100")
	}
	if offset < 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "offset cannot be negative")
	}

	find := &store.FindPluginChain{Limit: &limit, Offset: &offset}
	if genre := c.QueryParam("genre"); genre != "" {
		find.Genre = &genre
	}
	if instrument := c.QueryParam("instrument"); instrument != "" {
		find.Instrument = &instrument
	}

	chains, err := s.Store.ListPluginChains(c.Request().Context(), find)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list plugin chains").SetInternal(err)
	}

	payloads := make([]PluginChainPayload, 0, len(chains))
	for _, chain := range chains {
		payloads = append(payloads, convertPluginChainFromStore(chain))
	}
	return c.JSON(http.StatusOK, ListChainsResponse{Chains: payloads, Total: len(payloads)})
}

// GetChain handles GET /api/v1/chains/:uid.
func (s *APIV1Service) GetChain(c echo.Context) error {
	uid := c.Param("uid")
	chain, err := s.Store.GetPluginChain(c.Request().Context(), &store.FindPluginChain{UID: &uid})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to get plugin chain").SetInternal(err)
	}
	if chain == nil {
		return echo.NewHTTPError(http.StatusNotFound, "plugin chain not found")
	}
	return c.JSON(http.StatusOK, convertPluginChainFromStore(chain))
}

// DeleteChain handles DELETE /api/v1/chains/:uid.
func (s *APIV1Service) DeleteChain(c echo.Context) error {
	uid := c.Param("uid")
	ctx := c.Request().Context()

	chain, err := s.Store.GetPluginChain(ctx, &store.FindPluginChain{UID: &uid})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to get plugin chain").SetInternal(err)
	}
	if chain == nil {
		return echo.NewHTTPError(http.StatusNotFound, "plugin chain not found")
	}

	if err := s.Store.DeletePluginChain(ctx, &store.DeletePluginChain{ID: &chain.ID}); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to delete plugin chain").SetInternal(err)
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "Plugin chain deleted successfully"})
}

// SearchChains handles GET /api/v1/chains/search: nearest-neighbor search
// without the LLM step.
func (s *APIV1Service) SearchChains(c echo.Context) error {
	if !s.aiAvailable() {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "AI features are not configured")
	}

	queryText := c.QueryParam("q")
	if strings.TrimSpace(queryText) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "query parameter q cannot be empty")
	}
	limit := parseIntQuery(c, "limit", 5)
	if limit <= 0 || limit > 50 {
		return echo.NewHTTPError(http.StatusBadRequest, "limit must be between 1 and 50")
	}

	startTime := time.Now()
	results, err := s.Recommender.Search(c.Request().Context(), &recommend.Query{
		Text:       queryText,
		Genre:      c.QueryParam("genre"),
		Instrument: c.QueryParam("instrument"),
		MaxResults: limit,
	})
	if err != nil {
		s.Exporter.ObserveQuery("chains_search", "error", time.Since(startTime))
		if errors.Is(err, recommend.ErrUpstream) {
			return echo.NewHTTPError(http.StatusBadGateway, "upstream AI service failed").SetInternal(err)
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to search plugin chains").SetInternal(err)
	}

	s.Exporter.ObserveQuery("chains_search", "ok", time.Since(startTime))
	s.Exporter.CountVectorSearch("plugin_chain")

	payloads := make([]SearchResultPayload, 0, len(results))
	for _, result := range results {
		payloads = append(payloads, SearchResultPayload{
			Chain:           convertPluginChainFromStore(result.Chain),
			SimilarityScore: result.Similarity,
		})
	}
	return c.JSON(http.StatusOK, SearchChainsResponse{Results: payloads, Total: len(payloads)})
}

// parseIntQuery parses an integer query parameter with a default.
func parseIntQuery(c echo.Context, name string, defaultValue int) int {
	raw := c.QueryParam(name)
	if raw == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return defaultValue
	}
	return value
}
