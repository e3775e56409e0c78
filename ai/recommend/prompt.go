package recommend

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rackline/rackline/store"
)

const systemPrompt = `You are an expert audio engineer and plugin specialist with deep knowledge of music production.
Your role is to recommend optimal plugin chains for specific audio engineering tasks.

When making recommendations:
1. Consider the musical genre and target instrument
2. Explain the signal flow and why each plugin works in the chain
3. Provide specific settings recommendations when available
4. Consider the user's owned plugins if provided
5. Explain the sonic characteristics each plugin contributes

Be practical, educational, and focus on achieving professional results.

Respond with a single JSON object and nothing else, using this shape:
{
  "recommendations": [{"uid": "<chain uid>", "explanation": "<why this chain fits>"}],
  "confidence": <number between 0 and 1>,
  "additional_tips": "<optional free-text tips>"
}
Only reference chains by the uid values given in the context.`

// QueryContext renders the query as a compact context string.
func QueryContext(q *Query) string {
	context := fmt.Sprintf("Query: %s", q.Text)
	if q.Genre != "" {
		context += fmt.Sprintf(" | Genre: %s", q.Genre)
	}
	if q.Instrument != "" {
		context += fmt.Sprintf(" | Instrument: %s", q.Instrument)
	}
	if len(q.OwnedPlugins) > 0 {
		context += fmt.Sprintf(" | Owned plugins: %s", strings.Join(q.OwnedPlugins, ", "))
	}
	return context
}

// chainContext is the retrieved chain representation handed to the model.
type chainContext struct {
	UID             string          `json:"uid"`
	Name            string          `json:"name"`
	Description     string          `json:"description"`
	Plugins         []*store.Plugin `json:"plugins"`
	Genre           string          `json:"genre,omitempty"`
	Instrument      string          `json:"instrument,omitempty"`
	Tags            []string        `json:"tags,omitempty"`
	Rating          *float64        `json:"rating,omitempty"`
	SimilarityScore float32         `json:"similarity_score"`
}

// knowledgeContext is the retrieved knowledge chunk representation handed to the model.
type knowledgeContext struct {
	Content         string  `json:"content"`
	Source          string  `json:"source,omitempty"`
	SimilarityScore float32 `json:"similarity_score"`
}

// buildUserPrompt assembles the user message with the retrieved context.
func buildUserPrompt(q *Query, chains []*store.PluginChainWithSimilarity, chunks []*store.DocumentChunkWithSimilarity) (string, error) {
	chainCtx := make([]chainContext, 0, len(chains))
	for _, result := range chains {
		chainCtx = append(chainCtx, chainContext{
			UID:             result.Chain.UID,
			Name:            result.Chain.Name,
			Description:     result.Chain.Description,
			Plugins:         result.Chain.Plugins,
			Genre:           result.Chain.Genre,
			Instrument:      result.Chain.Instrument,
			Tags:            result.Chain.Tags,
			Rating:          result.Chain.Rating,
			SimilarityScore: result.Similarity,
		})
	}
	chainJSON, err := json.MarshalIndent(chainCtx, "", "  ")
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	sb.WriteString(QueryContext(q))
	sb.WriteString("\n\nCandidate plugin chains (from the database, ordered by similarity):\n")
	sb.Write(chainJSON)

	if len(chunks) > 0 {
		knowledgeCtx := make([]knowledgeContext, 0, len(chunks))
		for _, result := range chunks {
			knowledgeCtx = append(knowledgeCtx, knowledgeContext{
				Content:         result.Chunk.Content,
				Source:          result.Chunk.Source,
				SimilarityScore: result.Similarity,
			})
		}
		knowledgeJSON, err := json.MarshalIndent(knowledgeCtx, "", "  ")
		if err != nil {
			return "", err
		}
		sb.WriteString("\n\nBackground audio engineering knowledge:\n")
		sb.Write(knowledgeJSON)
	}

	return sb.String(), nil
}
