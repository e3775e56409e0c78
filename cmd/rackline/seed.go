package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/rackline/rackline/ai"
	"github.com/rackline/rackline/store"
	"github.com/rackline/rackline/store/db"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Initialize the database and load the built-in sample plugin chains and knowledge base",
	RunE: func(cmd *cobra.Command, _ []string) error {
		instanceProfile := buildProfile()
		if err := instanceProfile.Validate(); err != nil {
			return err
		}
		if !instanceProfile.IsAIEnabled() {
			return fmt.Errorf("seeding requires an embedding service; set RACKLINE_AI_LLM_API_KEY")
		}

		ctx := cmd.Context()
		dbDriver, err := db.NewDBDriver(instanceProfile)
		if err != nil {
			printDatabaseError(err)
			return err
		}
		storeInstance := store.New(dbDriver, instanceProfile)
		defer storeInstance.Close()

		if err := storeInstance.Migrate(ctx); err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}

		aiConfig := ai.NewConfigFromProfile(instanceProfile)
		if err := aiConfig.Validate(); err != nil {
			return err
		}
		embeddingService, err := ai.NewEmbeddingService(&aiConfig.Embedding)
		if err != nil {
			return err
		}

		if err := seedSampleData(ctx, storeInstance, embeddingService); err != nil {
			return err
		}
		fmt.Println("Sample data loaded successfully!")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)
}

// seedSampleData embeds and stores the sample chains and knowledge chunks.
// Embedding calls run concurrently, bounded to keep within API rate limits.
// Wait drains every in-flight goroutine before returning, so the caller can
// close the store immediately afterwards.
func seedSampleData(ctx context.Context, storeInstance *store.Store, embeddingService ai.EmbeddingService) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4) // Limit concurrent embedding API calls

	for _, chain := range sampleChains {
		g.Go(func() error {
			embedding, err := embeddingService.Embed(gctx, chain.EmbeddingText())
			if err != nil {
				return fmt.Errorf("failed to embed chain %q: %w", chain.Name, err)
			}
			if _, err := storeInstance.CreatePluginChain(gctx, chain, embedding); err != nil {
				return fmt.Errorf("failed to store chain %q: %w", chain.Name, err)
			}
			slog.Info("seeded plugin chain", "name", chain.Name)
			return nil
		})
	}

	for _, chunk := range sampleChunks {
		g.Go(func() error {
			embedding, err := embeddingService.Embed(gctx, chunk.Content)
			if err != nil {
				return fmt.Errorf("failed to embed chunk from %q: %w", chunk.Source, err)
			}
			if _, err := storeInstance.CreateDocumentChunk(gctx, chunk, embedding); err != nil {
				return fmt.Errorf("failed to store chunk from %q: %w", chunk.Source, err)
			}
			slog.Info("seeded knowledge chunk", "source", chunk.Source)
			return nil
		})
	}

	return g.Wait()
}

var sampleChains = []*store.PluginChain{
	{
		Name:        "Classic SSL Console Chain",
		Description: "SSL console emulation for professional mixing",
		Plugins: []*store.Plugin{
			{Name: "SSL 4000 E Channel", Manufacturer: "Waves", Category: "channel strip", Order: 1},
			{Name: "SSL G-Master Bus Compressor", Manufacturer: "SSL", Category: "compressor", Order: 2},
		},
		Genre:      "any",
		Instrument: "mix bus",
		Tags:       []string{"ssl", "console", "professional"},
	},
	{
		Name:        "Analog Mastering Chain",
		Description: "Vintage mastering chain for warm, musical results",
		Plugins: []*store.Plugin{
			{Name: "Pultec EQP-1A", Manufacturer: "Universal Audio", Category: "EQ", Order: 1},
			{Name: "Fairchild 670", Manufacturer: "Universal Audio", Category: "compressor", Order: 2},
			{Name: "Studer A800", Manufacturer: "Universal Audio", Category: "tape", Order: 3},
		},
		Genre:      "any",
		Instrument: "master",
		Tags:       []string{"mastering", "vintage", "warm"},
	},
	{
		Name:        "Modern Pop Vocal Chain",
		Description: "Bright, polished lead vocal chain for contemporary pop production",
		Plugins: []*store.Plugin{
			{Name: "Pro-Q 4", Manufacturer: "FabFilter", Category: "EQ", Order: 1},
			{Name: "CLA-2A", Manufacturer: "Waves", Category: "compressor", Order: 2},
			{Name: "De-Esser", Manufacturer: "FabFilter", Category: "de-esser", Order: 3},
			{Name: "Valhalla VintageVerb", Manufacturer: "Valhalla DSP", Category: "reverb", Order: 4},
		},
		Genre:      "pop",
		Instrument: "vocals",
		Tags:       []string{"vocal", "bright", "polished"},
	},
	{
		Name:        "Tight Metal Rhythm Guitar",
		Description: "Aggressive, tight rhythm guitar chain for modern metal",
		Plugins: []*store.Plugin{
			{Name: "TSE 808", Manufacturer: "TSE Audio", Category: "overdrive", Order: 1},
			{Name: "Neural DSP Archetype", Manufacturer: "Neural DSP", Category: "amp sim", Order: 2},
			{Name: "Pro-Q 4", Manufacturer: "FabFilter", Category: "EQ", Order: 3},
		},
		Genre:      "metal",
		Instrument: "guitar",
		Tags:       []string{"tight", "aggressive", "high gain"},
	},
}

var sampleChunks = []*store.DocumentChunk{
	{
		Content:    "Compression reduces the dynamic range of audio by attenuating loud signals above a threshold. Key parameters include ratio, attack, release, and threshold.",
		Metadata:   map[string]any{"topic": "compression", "type": "definition"},
		Source:     "Audio Engineering Handbook",
		ChunkIndex: 1,
	},
	{
		Content:    "EQ (equalization) adjusts the balance of frequency components. High-pass filters remove low-end rumble, while shelving EQs boost or cut frequency ranges.",
		Metadata:   map[string]any{"topic": "EQ", "type": "definition"},
		Source:     "Mixing Fundamentals",
		ChunkIndex: 1,
	},
	{
		Content:    "Serial compression applies two or more compressors in a row, each doing a small amount of gain reduction. The result is tighter control with fewer artifacts than a single heavy compressor.",
		Metadata:   map[string]any{"topic": "compression", "type": "technique"},
		Source:     "Mixing Fundamentals",
		ChunkIndex: 2,
	},
}
