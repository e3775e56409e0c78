package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReranker_DisabledPreservesOrder(t *testing.T) {
	svc := NewRerankerService(&RerankerConfig{Enabled: false})

	results, err := svc.Rerank(context.Background(), "query", []string{"a", "b", "c"}, 0)

	require.NoError(t, err)
	require.Len(t, results, 3)
	for i, r := range results {
		assert.Equal(t, i, r.Index)
	}
	assert.False(t, svc.IsEnabled())
}

func TestReranker_DisabledRespectsTopN(t *testing.T) {
	svc := NewRerankerService(&RerankerConfig{Enabled: false})

	results, err := svc.Rerank(context.Background(), "query", []string{"a", "b", "c"}, 2)

	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestReranker_CallsAPI(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/rerank", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "test-model", req["model"])

		_ = json.NewEncoder(w).Encode(map[string]any{
			"results": []map[string]any{
				{"index": 1, "relevance_score": 0.9},
				{"index": 0, "relevance_score": 0.4},
			},
		})
	}))
	defer server.Close()

	svc := NewRerankerService(&RerankerConfig{
		Enabled: true,
		APIKey:  "test-key",
		Model:   "test-model",
		BaseURL: server.URL,
	})

	results, err := svc.Rerank(context.Background(), "query", []string{"a", "b"}, 2)

	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, 1, results[0].Index)
	assert.InDelta(t, 0.9, results[0].Score, 1e-6)
}

func TestReranker_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "upstream broken", http.StatusBadGateway)
	}))
	defer server.Close()

	svc := NewRerankerService(&RerankerConfig{
		Enabled: true,
		APIKey:  "test-key",
		Model:   "test-model",
		BaseURL: server.URL,
	})

	_, err := svc.Rerank(context.Background(), "query", []string{"a"}, 1)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP 502")
}
