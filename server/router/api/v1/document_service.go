package v1

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/rackline/rackline/ai/recommend"
	"github.com/rackline/rackline/store"
)

// DocumentPayload is the JSON representation of a knowledge base chunk.
type DocumentPayload struct {
	ID         int32          `json:"id,omitempty"`
	Content    string         `json:"content"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Source     string         `json:"source,omitempty"`
	ChunkIndex int            `json:"chunk_index,omitempty"`
}

// CreateDocumentResponse is the response body of the document-add endpoint.
type CreateDocumentResponse struct {
	ID      int32  `json:"id"`
	Message string `json:"message"`
}

// DocumentSearchResultPayload is one knowledge base search hit.
type DocumentSearchResultPayload struct {
	Document        DocumentPayload `json:"document"`
	SimilarityScore float32         `json:"similarity_score"`
}

// SearchDocumentsResponse is the response body of the knowledge search endpoint.
type SearchDocumentsResponse struct {
	Results []DocumentSearchResultPayload `json:"results"`
	Total   int                           `json:"total"`
}

// CreateDocument handles POST /api/v1/documents: ingest a knowledge base
// chunk and embed it for retrieval.
func (s *APIV1Service) CreateDocument(c echo.Context) error {
	if s.Embedding == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "AI features are not configured")
	}

	payload := &DocumentPayload{}
	if err := c.Bind(payload); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed document").SetInternal(err)
	}
	if strings.TrimSpace(payload.Content) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "document content cannot be empty")
	}

	ctx := c.Request().Context()
	embedding, err := s.Embedding.Embed(ctx, payload.Content)
	if err != nil {
		s.Exporter.CountEmbeddingCall("error")
		return echo.NewHTTPError(http.StatusBadGateway, "embedding service failed").SetInternal(err)
	}
	s.Exporter.CountEmbeddingCall("ok")

	chunk := &store.DocumentChunk{
		Content:    payload.Content,
		Metadata:   payload.Metadata,
		Source:     payload.Source,
		ChunkIndex: payload.ChunkIndex,
	}
	created, err := s.Store.CreateDocumentChunk(ctx, chunk, embedding)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to create document chunk").SetInternal(err)
	}

	return c.JSON(http.StatusOK, CreateDocumentResponse{
		ID:      created.ID,
		Message: "Document added successfully",
	})
}

// SearchDocuments handles GET /api/v1/documents/search.
func (s *APIV1Service) SearchDocuments(c echo.Context) error {
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

	results, err := s.Recommender.SearchKnowledge(c.Request().Context(), queryText, limit)
	if err != nil {
		if errors.Is(err, recommend.ErrUpstream) {
			return echo.NewHTTPError(http.StatusBadGateway, "upstream AI service failed").SetInternal(err)
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to search documents").SetInternal(err)
	}
	s.Exporter.CountVectorSearch("document_chunk")

	payloads := make([]DocumentSearchResultPayload, 0, len(results))
	for _, result := range results {
		payloads = append(payloads, DocumentSearchResultPayload{
			Document: DocumentPayload{
				ID:         result.Chunk.ID,
				Content:    result.Chunk.Content,
				Metadata:   result.Chunk.Metadata,
				Source:     result.Chunk.Source,
				ChunkIndex: result.Chunk.ChunkIndex,
			},
			SimilarityScore: result.Similarity,
		})
	}
	return c.JSON(http.StatusOK, SearchDocumentsResponse{Results: payloads, Total: len(payloads)})
}
