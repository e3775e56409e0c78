package v1

import (
	"github.com/rackline/rackline/ai/recommend"
	"github.com/rackline/rackline/store"
)

// PluginPayload is the JSON representation of a plugin in a chain.
type PluginPayload struct {
	Name         string         `json:"name"`
	Manufacturer string         `json:"manufacturer"`
	Category     string         `json:"category"`
	Order        int            `json:"order"`
	Settings     string         `json:"settings,omitempty"`
	Parameters   map[string]any `json:"parameters,omitempty"`
}

// PluginChainPayload is the JSON representation of a plugin chain.
type PluginChainPayload struct {
	ID          int32           `json:"id,omitempty"`
	UID         string          `json:"uid,omitempty"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Plugins     []PluginPayload `json:"plugins"`
	Genre       string          `json:"genre,omitempty"`
	Instrument  string          `json:"instrument,omitempty"`
	Tags        []string        `json:"tags"`
	Rating      *float64        `json:"rating,omitempty"`
	CreatedBy   string          `json:"created_by,omitempty"`
	CreatedTs   int64           `json:"created_ts,omitempty"`
}

// RecommendationPayload wraps a chain with its scores and explanation.
type RecommendationPayload struct {
	Chain           PluginChainPayload `json:"chain"`
	SimilarityScore float32            `json:"similarity_score"`
	Confidence      float32            `json:"confidence"`
	Explanation     string             `json:"explanation"`
}

// RAGResponsePayload is the response body of the query endpoint.
type RAGResponsePayload struct {
	Recommendations []RecommendationPayload `json:"recommendations"`
	QueryContext    string                  `json:"query_context"`
	AdditionalTips  string                  `json:"additional_tips,omitempty"`
	TotalResults    int                     `json:"total_results"`
	SearchTimeMs    float64                 `json:"search_time_ms"`
}

// SearchResultPayload is one direct search hit.
type SearchResultPayload struct {
	Chain           PluginChainPayload `json:"chain"`
	SimilarityScore float32            `json:"similarity_score"`
}

func convertPluginChainFromStore(chain *store.PluginChain) PluginChainPayload {
	plugins := make([]PluginPayload, 0, len(chain.Plugins))
	for _, plugin := range chain.Plugins {
		plugins = append(plugins, PluginPayload{
			Name:         plugin.Name,
			Manufacturer: plugin.Manufacturer,
			Category:     plugin.Category,
			Order:        plugin.Order,
			Settings:     plugin.Settings,
			Parameters:   plugin.Parameters,
		})
	}
	tags := chain.Tags
	if tags == nil {
		tags = []string{}
	}
	return PluginChainPayload{
		ID:          chain.ID,
		UID:         chain.UID,
		Name:        chain.Name,
		Description: chain.Description,
		Plugins:     plugins,
		Genre:       chain.Genre,
		Instrument:  chain.Instrument,
		Tags:        tags,
		Rating:      chain.Rating,
		CreatedBy:   chain.CreatedBy,
		CreatedTs:   chain.CreatedTs,
	}
}

func convertPluginChainToStore(payload *PluginChainPayload) *store.PluginChain {
	plugins := make([]*store.Plugin, 0, len(payload.Plugins))
	for _, plugin := range payload.Plugins {
		plugins = append(plugins, &store.Plugin{
			Name:         plugin.Name,
			Manufacturer: plugin.Manufacturer,
			Category:     plugin.Category,
			Order:        plugin.Order,
			Settings:     plugin.Settings,
			Parameters:   plugin.Parameters,
		})
	}
	return &store.PluginChain{
		Name:        payload.Name,
		Description: payload.Description,
		Plugins:     plugins,
		Genre:       payload.Genre,
		Instrument:  payload.Instrument,
		Tags:        payload.Tags,
		Rating:      payload.Rating,
		CreatedBy:   payload.CreatedBy,
	}
}

func convertRAGResponse(response *recommend.Response) RAGResponsePayload {
	recommendations := make([]RecommendationPayload, 0, len(response.Recommendations))
	for _, rec := range response.Recommendations {
		recommendations = append(recommendations, RecommendationPayload{
			Chain:           convertPluginChainFromStore(rec.Chain),
			SimilarityScore: rec.SimilarityScore,
			Confidence:      rec.Confidence,
			Explanation:     rec.Explanation,
		})
	}
	return RAGResponsePayload{
		Recommendations: recommendations,
		QueryContext:    response.QueryContext,
		AdditionalTips:  response.AdditionalTips,
		TotalResults:    response.TotalResults,
		SearchTimeMs:    response.SearchTimeMs,
	}
}
