package store

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPluginChainVectorSearchOptions_Validate(t *testing.T) {
	tests := []struct {
		name    string
		opts    *PluginChainVectorSearchOptions
		wantErr bool
		errMsg  string
	}{
		{"valid defaults", &PluginChainVectorSearchOptions{Vector: []float32{0.1}}, false, ""},
		{"empty Vector", &PluginChainVectorSearchOptions{Vector: []float32{}}, true, "vector cannot be empty"},
		{"nil Vector", &PluginChainVectorSearchOptions{Vector: nil}, true, "vector cannot be empty"},
		{"Limit negative", &PluginChainVectorSearchOptions{Vector: []float32{0.1}, Limit: -1}, true, "limit cannot be negative"},
		{"Limit > 50", &PluginChainVectorSearchOptions{Vector: []float32{0.1}, Limit: 51}, true, "limit too large"},
		{"Limit == 50", &PluginChainVectorSearchOptions{Vector: []float32{0.1}, Limit: 50}, false, ""},
		{"filters allowed", &PluginChainVectorSearchOptions{Vector: []float32{0.1}, GenreFilter: "techno", InstrumentFilter: "vocals"}, false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.Validate()

			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, strings.Contains(err.Error(), tt.errMsg),
					"expected error to contain %q, got %q", tt.errMsg, err.Error())
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestPluginChainVectorSearchOptions_Validate_SetsDefaultLimit(t *testing.T) {
	opts := &PluginChainVectorSearchOptions{Vector: []float32{0.1}, Limit: 0}

	err := opts.Validate()

	require.NoError(t, err)
	assert.Equal(t, 5, opts.Limit, "Limit should be set to default value 5")
}

func TestDocumentChunkVectorSearchOptions_Validate(t *testing.T) {
	opts := &DocumentChunkVectorSearchOptions{Vector: []float32{0.1}}
	require.NoError(t, opts.Validate())
	assert.Equal(t, 5, opts.Limit)

	opts = &DocumentChunkVectorSearchOptions{Vector: nil}
	require.Error(t, opts.Validate())
}

func TestPluginChain_EmbeddingText(t *testing.T) {
	tests := []struct {
		name     string
		chain    *PluginChain
		expected string
	}{
		{
			name: "all fields",
			chain: &PluginChain{
				Name:        "Vocal Polish",
				Description: "Clean pop vocal chain",
				Tags:        []string{"vocal", "pop"},
				Genre:       "pop",
				Instrument:  "vocals",
			},
			expected: "Vocal Polish Clean pop vocal chain vocal pop pop vocals",
		},
		{
			name: "no optional fields",
			chain: &PluginChain{
				Name:        "Drum Glue",
				Description: "Bus compression for drums",
			},
			expected: "Drum Glue Bus compression for drums",
		},
		{
			name: "genre only",
			chain: &PluginChain{
				Name:        "Lo-fi Crush",
				Description: "Bitcrushed texture",
				Genre:       "lo-fi",
			},
			expected: "Lo-fi Crush Bitcrushed texture lo-fi",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.chain.EmbeddingText())
		})
	}
}
