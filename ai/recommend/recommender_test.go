package recommend

import (
	"context"
	"database/sql"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rackline/rackline/ai"
	"github.com/rackline/rackline/internal/profile"
	"github.com/rackline/rackline/store"
)

// mockEmbedding returns a fixed vector.
type mockEmbedding struct {
	vector []float32
	err    error
}

func (m *mockEmbedding) Embed(_ context.Context, _ string) ([]float32, error) {
	return m.vector, m.err
}

func (m *mockEmbedding) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	if m.err != nil {
		return nil, m.err
	}
	vectors := make([][]float32, len(texts))
	for i := range texts {
		vectors[i] = m.vector
	}
	return vectors, nil
}

func (m *mockEmbedding) Dimensions() int { return len(m.vector) }

// mockLLM returns a canned completion.
type mockLLM struct {
	content string
	err     error
	lastMsg []ai.Message
}

func (m *mockLLM) Chat(_ context.Context, messages []ai.Message) (string, *ai.LLMCallStats, error) {
	m.lastMsg = messages
	if m.err != nil {
		return "", nil, m.err
	}
	return m.content, &ai.LLMCallStats{TotalTokens: 42}, nil
}

func (m *mockLLM) Warmup(_ context.Context) {}

// fakeDriver implements store.Driver over in-memory fixtures.
type fakeDriver struct {
	chains    []*store.PluginChainWithSimilarity
	chunks    []*store.DocumentChunkWithSimilarity
	searchErr error
}

func (d *fakeDriver) GetDB() *sql.DB                  { return nil }
func (d *fakeDriver) Close() error                    { return nil }
func (d *fakeDriver) Ping(_ context.Context) error    { return nil }
func (d *fakeDriver) Migrate(_ context.Context) error { return nil }

func (d *fakeDriver) CreatePluginChain(_ context.Context, create *store.PluginChain, _ []float32) (*store.PluginChain, error) {
	return create, nil
}

func (d *fakeDriver) ListPluginChains(_ context.Context, _ *store.FindPluginChain) ([]*store.PluginChain, error) {
	return nil, nil
}

func (d *fakeDriver) DeletePluginChain(_ context.Context, _ *store.DeletePluginChain) error {
	return nil
}

func (d *fakeDriver) PluginChainVectorSearch(_ context.Context, _ *store.PluginChainVectorSearchOptions) ([]*store.PluginChainWithSimilarity, error) {
	if d.searchErr != nil {
		return nil, d.searchErr
	}
	return d.chains, nil
}

func (d *fakeDriver) CreateDocumentChunk(_ context.Context, create *store.DocumentChunk, _ []float32) (*store.DocumentChunk, error) {
	return create, nil
}

func (d *fakeDriver) DocumentChunkVectorSearch(_ context.Context, _ *store.DocumentChunkVectorSearchOptions) ([]*store.DocumentChunkWithSimilarity, error) {
	return d.chunks, nil
}

func testStore(driver store.Driver) *store.Store {
	return store.New(driver, &profile.Profile{Mode: "dev"})
}

func testChains() []*store.PluginChainWithSimilarity {
	return []*store.PluginChainWithSimilarity{
		{
			Chain: &store.PluginChain{
				ID: 1, UID: "chain-a", Name: "Vocal Polish",
				Description: "Clean pop vocal chain",
				Plugins: []*store.Plugin{
					{Name: "Pro-Q 4", Manufacturer: "FabFilter", Category: "EQ", Order: 1},
					{Name: "CLA-2A", Manufacturer: "Waves", Category: "Compressor", Order: 2},
				},
			},
			Similarity: 0.91,
		},
		{
			Chain: &store.PluginChain{
				ID: 2, UID: "chain-b", Name: "Warm Tape Vocal",
				Description: "Saturated vintage vocal chain",
			},
			Similarity: 0.84,
		},
	}
}

func TestRecommend_EmptyQueryRejected(t *testing.T) {
	r := NewRecommender(testStore(&fakeDriver{}), &mockEmbedding{}, &mockLLM{}, nil)

	_, err := r.Recommend(context.Background(), &Query{Text: "   "})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty")
}

func TestRecommend_Success(t *testing.T) {
	driver := &fakeDriver{
		chains: testChains(),
		chunks: []*store.DocumentChunkWithSimilarity{
			{Chunk: &store.DocumentChunk{ID: 1, Content: "Compress vocals after EQ.", Source: "handbook"}, Similarity: 0.7},
		},
	}
	llm := &mockLLM{content: `{
		"recommendations": [
			{"uid": "chain-a", "explanation": "EQ into opto compression suits clean pop vocals."}
		],
		"confidence": 0.85,
		"additional_tips": "Cut 200-400Hz mud before compressing."
	}`}
	r := NewRecommender(testStore(driver), &mockEmbedding{vector: []float32{0.1, 0.2}}, llm, nil)

	resp, err := r.Recommend(context.Background(), &Query{Text: "clean pop vocal chain", Genre: "pop"})

	require.NoError(t, err)
	require.Len(t, resp.Recommendations, 2)

	first := resp.Recommendations[0]
	assert.Equal(t, "chain-a", first.Chain.UID)
	assert.InDelta(t, 0.91, float64(first.SimilarityScore), 1e-6, "similarity must come from the database")
	assert.InDelta(t, 0.85, float64(first.Confidence), 1e-6)
	assert.Contains(t, first.Explanation, "opto compression")

	// Second chain had no explanation from the model; a fallback is generated.
	second := resp.Recommendations[1]
	assert.Equal(t, "chain-b", second.Chain.UID)
	assert.NotEmpty(t, second.Explanation)

	assert.Equal(t, 2, resp.TotalResults)
	assert.Equal(t, "Query: clean pop vocal chain | Genre: pop", resp.QueryContext)
	assert.Equal(t, "Cut 200-400Hz mud before compressing.", resp.AdditionalTips)
	assert.GreaterOrEqual(t, resp.SearchTimeMs, 0.0)

	// The prompt must carry the retrieved context.
	require.Len(t, llm.lastMsg, 2)
	assert.Contains(t, llm.lastMsg[1].Content, "chain-a")
	assert.Contains(t, llm.lastMsg[1].Content, "Compress vocals after EQ.")
}

func TestRecommend_EmptyRetrievalReturnsEmptyResponse(t *testing.T) {
	llm := &mockLLM{content: "should not be called"}
	r := NewRecommender(testStore(&fakeDriver{}), &mockEmbedding{vector: []float32{0.1}}, llm, nil)

	resp, err := r.Recommend(context.Background(), &Query{Text: "anything"})

	require.NoError(t, err)
	assert.Empty(t, resp.Recommendations)
	assert.Nil(t, llm.lastMsg, "LLM must not be called when retrieval is empty")
}

func TestRecommend_EmbeddingFailureIsUpstream(t *testing.T) {
	r := NewRecommender(testStore(&fakeDriver{}), &mockEmbedding{err: fmt.Errorf("boom")}, &mockLLM{}, nil)

	_, err := r.Recommend(context.Background(), &Query{Text: "anything"})

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUpstream)
}

func TestRecommend_LLMFailureIsUpstream(t *testing.T) {
	driver := &fakeDriver{chains: testChains()}
	r := NewRecommender(testStore(driver), &mockEmbedding{vector: []float32{0.1}}, &mockLLM{err: fmt.Errorf("boom")}, nil)

	_, err := r.Recommend(context.Background(), &Query{Text: "anything"})

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUpstream)
}

func TestRecommend_DatabaseFailureIsNotUpstream(t *testing.T) {
	driver := &fakeDriver{searchErr: fmt.Errorf("connection refused")}
	r := NewRecommender(testStore(driver), &mockEmbedding{vector: []float32{0.1}}, &mockLLM{}, nil)

	_, err := r.Recommend(context.Background(), &Query{Text: "anything"})

	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrUpstream)
}

func TestRecommend_ClampsConfidence(t *testing.T) {
	driver := &fakeDriver{chains: testChains()}
	llm := &mockLLM{content: `{"recommendations": [], "confidence": 4.2}`}
	r := NewRecommender(testStore(driver), &mockEmbedding{vector: []float32{0.1}}, llm, nil)

	resp, err := r.Recommend(context.Background(), &Query{Text: "anything"})

	require.NoError(t, err)
	require.NotEmpty(t, resp.Recommendations)
	assert.Equal(t, float32(1), resp.Recommendations[0].Confidence)
}

func TestParseLLMOutput(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr bool
	}{
		{"plain JSON", `{"recommendations": [], "confidence": 0.5}`, false},
		{"fenced JSON", "```json\n{\"recommendations\": [], \"confidence\": 0.5}\n```", false},
		{"JSON with prose", "Here you go:\n{\"recommendations\": [], \"confidence\": 0.5}\nHope that helps!", false},
		{"no JSON", "sorry, I cannot help with that", true},
		{"broken JSON", `{"recommendations": [`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			output, err := parseLLMOutput(tt.content)
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
				assert.InDelta(t, 0.5, output.Confidence, 1e-6)
			}
		})
	}
}

func TestQueryContext(t *testing.T) {
	q := &Query{
		Text:         "warm analog glue on the drum bus",
		Genre:        "rock",
		Instrument:   "drums",
		OwnedPlugins: []string{"SSL Bus Compressor", "API 2500"},
	}

	assert.Equal(t,
		"Query: warm analog glue on the drum bus | Genre: rock | Instrument: drums | Owned plugins: SSL Bus Compressor, API 2500",
		QueryContext(q))
}

func TestSearch_RerankerReordersResults(t *testing.T) {
	driver := &fakeDriver{chains: testChains()}
	reranker := &mockReranker{results: []ai.RerankResult{{Index: 1, Score: 0.95}, {Index: 0, Score: 0.4}}}
	r := NewRecommender(testStore(driver), &mockEmbedding{vector: []float32{0.1}}, &mockLLM{}, reranker)

	results, err := r.Search(context.Background(), &Query{Text: "vintage vocal"})

	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "chain-b", results[0].Chain.UID)
}

func TestSearch_RerankerFailureKeepsOrder(t *testing.T) {
	driver := &fakeDriver{chains: testChains()}
	reranker := &mockReranker{err: fmt.Errorf("rerank down")}
	r := NewRecommender(testStore(driver), &mockEmbedding{vector: []float32{0.1}}, &mockLLM{}, reranker)

	results, err := r.Search(context.Background(), &Query{Text: "vintage vocal"})

	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "chain-a", results[0].Chain.UID)
}

type mockReranker struct {
	results []ai.RerankResult
	err     error
}

func (m *mockReranker) Rerank(_ context.Context, _ string, _ []string, _ int) ([]ai.RerankResult, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.results, nil
}

func (m *mockReranker) IsEnabled() bool { return true }
