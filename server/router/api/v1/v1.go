// Package v1 implements the REST API surface.
package v1

import (
	"context"
	"log/slog"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/rackline/rackline/ai"
	"github.com/rackline/rackline/ai/recommend"
	"github.com/rackline/rackline/internal/metrics"
	"github.com/rackline/rackline/internal/profile"
	"github.com/rackline/rackline/store"
)

// APIV1Service bundles the route handlers and their dependencies.
type APIV1Service struct {
	Profile  *profile.Profile
	Store    *store.Store
	Exporter *metrics.Exporter

	// AI services are nil when no LLM API key is configured; the endpoints
	// that need them report 503 in that case.
	Embedding   ai.EmbeddingService
	LLM         ai.LLMService
	Recommender *recommend.Recommender
}

// NewAPIV1Service creates the API service and its AI dependencies.
func NewAPIV1Service(profile *profile.Profile, store *store.Store, exporter *metrics.Exporter) (*APIV1Service, error) {
	service := &APIV1Service{
		Profile:  profile,
		Store:    store,
		Exporter: exporter,
	}

	if !profile.IsAIEnabled() {
		slog.Warn("AI is not configured; query, search and document endpoints will be unavailable",
			"hint", "set RACKLINE_AI_LLM_API_KEY",
		)
		return service, nil
	}

	aiConfig := ai.NewConfigFromProfile(profile)
	if err := aiConfig.Validate(); err != nil {
		return nil, err
	}

	embeddingService, err := ai.NewEmbeddingService(&aiConfig.Embedding)
	if err != nil {
		return nil, err
	}

	llmService, err := ai.NewLLMService(&aiConfig.LLM)
	if err != nil {
		return nil, err
	}
	slog.Info("LLM service initialized",
		"provider", aiConfig.LLM.Provider,
		"model", aiConfig.LLM.Model,
	)

	// Warmup the LLM connection asynchronously to reduce first-request latency.
	// Best-effort: warmup failures don't affect service startup.
	go func() {
		warmupCtx, warmupCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer warmupCancel()
		llmService.Warmup(warmupCtx)
	}()

	rerankerService := ai.NewRerankerService(&aiConfig.Reranker)
	if rerankerService.IsEnabled() {
		slog.Info("reranker service initialized",
			"provider", aiConfig.Reranker.Provider,
			"model", aiConfig.Reranker.Model,
		)
	}

	service.Embedding = embeddingService
	service.LLM = llmService
	service.Recommender = recommend.NewRecommender(store, embeddingService, llmService, rerankerService)

	return service, nil
}

// RegisterRoutes wires all v1 routes onto the group.
func (s *APIV1Service) RegisterRoutes(g *echo.Group) {
	g.POST("/query", s.Query)

	g.POST("/chains", s.CreateChain)
	g.GET("/chains", s.ListChains)
	g.GET("/chains/search", s.SearchChains)
	g.GET("/chains/:uid", s.GetChain)
	g.DELETE("/chains/:uid", s.DeleteChain)

	g.POST("/documents", s.CreateDocument)
	g.GET("/documents/search", s.SearchDocuments)

	g.POST("/initialize", s.Initialize)
	g.GET("/health", s.Health)
}

// aiAvailable reports whether the AI-backed endpoints can serve.
func (s *APIV1Service) aiAvailable() bool {
	return s.Recommender != nil
}
