// Package recommend implements the retrieval-augmented recommendation flow:
// embed the query, fetch nearest plugin chains and knowledge chunks from the
// database, and ask the LLM for explanations over the retrieved context.
// Similarity ordering always comes from pgvector; nothing is ranked locally.
package recommend

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/rackline/rackline/ai"
	"github.com/rackline/rackline/ai/internal/strutil"
	"github.com/rackline/rackline/store"
)

// ErrUpstream marks failures of the external embedding or LLM APIs,
// as opposed to database or validation failures.
var ErrUpstream = fmt.Errorf("upstream AI service error")

// Query is a plugin chain recommendation request.
type Query struct {
	Text         string
	Genre        string
	Instrument   string
	OwnedPlugins []string
	MaxResults   int
}

// Recommendation is a single recommended plugin chain.
type Recommendation struct {
	Chain           *store.PluginChain
	SimilarityScore float32
	Confidence      float32
	Explanation     string
}

// Response is the result of a recommendation query.
type Response struct {
	Recommendations []*Recommendation
	QueryContext    string
	AdditionalTips  string
	TotalResults    int
	SearchTimeMs    float64

	// LLMStats carries token usage from the LLM call, nil when the
	// retrieval came back empty and no LLM call was made.
	LLMStats *ai.LLMCallStats
}

// Recommender runs the RAG flow over the store and the AI services.
type Recommender struct {
	store     *store.Store
	embedding ai.EmbeddingService
	llm       ai.LLMService
	reranker  ai.RerankerService
}

// NewRecommender creates a new Recommender.
func NewRecommender(st *store.Store, embedding ai.EmbeddingService, llm ai.LLMService, reranker ai.RerankerService) *Recommender {
	return &Recommender{
		store:     st,
		embedding: embedding,
		llm:       llm,
		reranker:  reranker,
	}
}

// knowledgeChunkLimit bounds how many background chunks go into the prompt.
const knowledgeChunkLimit = 3

// Recommend runs the full query → retrieve → LLM → shape flow.
func (r *Recommender) Recommend(ctx context.Context, q *Query) (*Response, error) {
	if strings.TrimSpace(q.Text) == "" {
		return nil, fmt.Errorf("query text cannot be empty")
	}

	startTime := time.Now()
	queryContext := QueryContext(q)

	vector, err := r.embedding.Embed(ctx, q.Text)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	chains, err := r.store.PluginChainVectorSearch(ctx, &store.PluginChainVectorSearchOptions{
		Vector:           vector,
		Limit:            q.MaxResults,
		GenreFilter:      q.Genre,
		InstrumentFilter: q.Instrument,
	})
	if err != nil {
		return nil, err
	}

	if len(chains) == 0 {
		return &Response{
			Recommendations: []*Recommendation{},
			QueryContext:    queryContext,
			SearchTimeMs:    float64(time.Since(startTime).Microseconds()) / 1000.0,
		}, nil
	}

	chunks, err := r.store.DocumentChunkVectorSearch(ctx, &store.DocumentChunkVectorSearchOptions{
		Vector: vector,
		Limit:  knowledgeChunkLimit,
	})
	if err != nil {
		return nil, err
	}

	userPrompt, err := buildUserPrompt(q, chains, chunks)
	if err != nil {
		return nil, err
	}

	content, stats, err := r.llm.Chat(ctx, []ai.Message{
		ai.SystemPrompt(systemPrompt),
		ai.UserMessage(userPrompt),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	if stats != nil {
		slog.Debug("recommend: LLM call finished",
			"total_tokens", stats.TotalTokens,
			"duration_ms", stats.TotalDurationMs,
			"content", strutil.Truncate(content, 200),
		)
	}

	output, err := parseLLMOutput(content)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	response := shapeResponse(chains, output)
	response.QueryContext = queryContext
	response.SearchTimeMs = float64(time.Since(startTime).Microseconds()) / 1000.0
	response.LLMStats = stats
	return response, nil
}

// Search performs the direct nearest-neighbor search, bypassing the LLM.
// When the reranker is enabled the retrieved rows are reordered by the
// external rerank API; otherwise database order is kept.
func (r *Recommender) Search(ctx context.Context, q *Query) ([]*store.PluginChainWithSimilarity, error) {
	if strings.TrimSpace(q.Text) == "" {
		return nil, fmt.Errorf("query text cannot be empty")
	}

	vector, err := r.embedding.Embed(ctx, q.Text)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	results, err := r.store.PluginChainVectorSearch(ctx, &store.PluginChainVectorSearchOptions{
		Vector:           vector,
		Limit:            q.MaxResults,
		GenreFilter:      q.Genre,
		InstrumentFilter: q.Instrument,
	})
	if err != nil {
		return nil, err
	}

	if r.reranker == nil || !r.reranker.IsEnabled() || len(results) < 2 {
		return results, nil
	}

	documents := make([]string, len(results))
	for i, result := range results {
		documents[i] = result.Chain.EmbeddingText()
	}
	ranked, err := r.reranker.Rerank(ctx, q.Text, documents, len(documents))
	if err != nil {
		// Reranking is best-effort; keep database order on failure.
		slog.Warn("recommend: rerank failed, keeping similarity order", "error", err)
		return results, nil
	}

	reordered := make([]*store.PluginChainWithSimilarity, 0, len(results))
	for _, item := range ranked {
		if item.Index < 0 || item.Index >= len(results) {
			continue
		}
		reordered = append(reordered, results[item.Index])
	}
	if len(reordered) != len(results) {
		return results, nil
	}
	return reordered, nil
}

// SearchKnowledge performs the direct knowledge base search.
func (r *Recommender) SearchKnowledge(ctx context.Context, text string, limit int) ([]*store.DocumentChunkWithSimilarity, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("query text cannot be empty")
	}

	vector, err := r.embedding.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	return r.store.DocumentChunkVectorSearch(ctx, &store.DocumentChunkVectorSearchOptions{
		Vector: vector,
		Limit:  limit,
	})
}

// llmOutput is the JSON object the model is asked to produce.
type llmOutput struct {
	Recommendations []struct {
		UID         string `json:"uid"`
		Explanation string `json:"explanation"`
	} `json:"recommendations"`
	Confidence     float64 `json:"confidence"`
	AdditionalTips string  `json:"additional_tips"`
}

// parseLLMOutput extracts the JSON object from the model response.
// Models occasionally wrap JSON in markdown fences or prose; tolerate both.
func parseLLMOutput(content string) (*llmOutput, error) {
	trimmed := strings.TrimSpace(content)

	start := strings.Index(trimmed, "{")
	end := strings.LastIndex(trimmed, "}")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("no JSON object in LLM response")
	}

	var output llmOutput
	if err := json.Unmarshal([]byte(trimmed[start:end+1]), &output); err != nil {
		return nil, fmt.Errorf("failed to parse LLM response: %w", err)
	}
	return &output, nil
}

// shapeResponse merges database similarity scores with LLM explanations.
// Retrieval order is preserved; explanations are matched by chain uid.
func shapeResponse(chains []*store.PluginChainWithSimilarity, output *llmOutput) *Response {
	confidence := clampConfidence(output.Confidence)

	explanations := make(map[string]string, len(output.Recommendations))
	for _, rec := range output.Recommendations {
		explanations[rec.UID] = rec.Explanation
	}

	recommendations := make([]*Recommendation, 0, len(chains))
	for _, result := range chains {
		explanation, ok := explanations[result.Chain.UID]
		if !ok || explanation == "" {
			explanation = fmt.Sprintf("Retrieved as a close match for the query (similarity %.2f).", result.Similarity)
		}
		recommendations = append(recommendations, &Recommendation{
			Chain:           result.Chain,
			SimilarityScore: result.Similarity,
			Confidence:      confidence,
			Explanation:     explanation,
		})
	}

	return &Response{
		Recommendations: recommendations,
		AdditionalTips:  output.AdditionalTips,
		TotalResults:    len(recommendations),
	}
}

func clampConfidence(v float64) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return float32(v)
}
