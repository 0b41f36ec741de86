// Package cli implements the docdex command line interface.
package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yoanbernabeu/docdex/config"
	"github.com/yoanbernabeu/docdex/embedder"
	"github.com/yoanbernabeu/docdex/extract"
	"github.com/yoanbernabeu/docdex/indexer"
	"github.com/yoanbernabeu/docdex/search"
	"github.com/yoanbernabeu/docdex/store"
	"github.com/yoanbernabeu/docdex/summarizer"
)

var rootCmd = &cobra.Command{
	Use:   "docdex",
	Short: "Multi-tenant semantic document index",
	Long: `docdex keeps per-tenant vector collections synchronized with a
filesystem corpus of documents (Markdown, plain text, PDF, DOCX) and serves
semantic search at two granularities: whole-document overviews and
fine-grained chunks.`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(mcpServeCmd)
}

// app bundles the long-lived clients a command needs. Close releases the
// store and embedder connections.
type app struct {
	projectRoot string
	cfg         *config.Config
	store       store.TenantStore
	embedder    embedder.Embedder
	searcher    *search.Searcher
	syncer      *indexer.Syncer
}

func (a *app) Close() {
	if a.store != nil {
		_ = a.store.Close()
	}
	if a.embedder != nil {
		_ = a.embedder.Close()
	}
}

// loadApp locates the project, loads configuration, and connects the store
// and embedder.
func loadApp(ctx context.Context) (*app, error) {
	projectRoot, err := config.FindProjectRoot()
	if err != nil {
		return nil, err
	}

	cfg, err := config.Load(projectRoot)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	emb, err := embedder.NewFromConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize embedder: %w", err)
	}

	st, err := store.NewFromConfig(ctx, cfg)
	if err != nil {
		emb.Close()
		return nil, fmt.Errorf("failed to initialize store: %w", err)
	}

	sum := summarizer.NewFromConfig(cfg)

	syncer := indexer.NewSyncer(st, emb, sum,
		extract.NewRegistry(nil),
		indexer.NewChunker(cfg.Chunking.Size, cfg.Chunking.Overlap),
		indexer.SyncerConfig{
			BatchSize:       cfg.Sync.BatchSize,
			Parallelism:     cfg.Sync.Parallelism,
			MinSummaryChars: cfg.Summarizer.MinChars,
			IgnorePatterns:  cfg.Ignore,
			IgnoreFileName:  config.IgnoreFileName,
		})

	return &app{
		projectRoot: projectRoot,
		cfg:         cfg,
		store:       st,
		embedder:    emb,
		searcher:    search.NewSearcher(st, emb, cfg.TenantNames()),
		syncer:      syncer,
	}, nil
}
