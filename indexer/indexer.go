package indexer

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"time"

	"github.com/yoanbernabeu/docdex/embedder"
	"github.com/yoanbernabeu/docdex/extract"
	"github.com/yoanbernabeu/docdex/store"
	"github.com/yoanbernabeu/docdex/summarizer"
)

// Syncer drives one tenant's corpus through the full pipeline: scan,
// extract, fingerprint, classify, chunk, summarize, embed, write.
type Syncer struct {
	store      store.TenantStore
	embedder   embedder.Embedder
	summarizer summarizer.Summarizer
	extractor  *extract.Registry
	chunker    *Chunker

	batchSize       int
	parallelism     int
	minSummaryChars int
	ignorePatterns  []string
	ignoreFileName  string
}

// SyncerConfig carries the tunables the Syncer needs from configuration.
type SyncerConfig struct {
	BatchSize       int
	Parallelism     int
	MinSummaryChars int
	IgnorePatterns  []string
	IgnoreFileName  string
}

// Options modify one sync run. Overwrite re-indexes every present document
// regardless of fingerprints; ValidateOnly classifies without touching the
// store or the embedding backend.
type Options struct {
	Overwrite    bool
	ValidateOnly bool
}

// Report summarizes one sync run. Counts are per path.
type Report struct {
	Added    int           `json:"added"`
	Updated  int           `json:"updated"`
	Skipped  int           `json:"skipped"`
	Deleted  int           `json:"deleted"`
	Failed   int           `json:"failed"`
	Duration time.Duration `json:"duration"`
}

func NewSyncer(
	st store.TenantStore,
	emb embedder.Embedder,
	sum summarizer.Summarizer,
	extractor *extract.Registry,
	chunker *Chunker,
	cfg SyncerConfig,
) *Syncer {
	return &Syncer{
		store:           st,
		embedder:        emb,
		summarizer:      sum,
		extractor:       extractor,
		chunker:         chunker,
		batchSize:       cfg.BatchSize,
		parallelism:     cfg.Parallelism,
		minSummaryChars: cfg.MinSummaryChars,
		ignorePatterns:  cfg.IgnorePatterns,
		ignoreFileName:  cfg.IgnoreFileName,
	}
}

// pendingDoc is one ADD/UPDATE document with everything derived before
// embedding. embedStart is its offset into the flat embedding input: the
// overview slot (when hasCatalog) followed by one slot per chunk.
type pendingDoc struct {
	doc        *Document
	action     Action
	chunks     []TextChunk
	overview   string
	hasCatalog bool
	embedStart int
}

// Sync runs one full pass for a tenant. Per-path failures are logged and
// counted in the report; only scan, configuration, and store-connection
// level errors abort the run.
func (s *Syncer) Sync(ctx context.Context, tenant, root string, opts Options) (*Report, error) {
	start := time.Now()
	report := &Report{}

	if !opts.ValidateOnly {
		if err := s.store.EnsureTenant(ctx, tenant); err != nil {
			return nil, fmt.Errorf("failed to ensure collections for tenant %s: %w", tenant, err)
		}
	}

	docs, failedPaths, err := s.scanAndExtract(ctx, root)
	if err != nil {
		return nil, err
	}

	stored, err := s.store.StoredFingerprints(ctx, tenant)
	if err != nil {
		// Treat every scanned document as new rather than aborting; the
		// stable point IDs make the resulting re-upserts idempotent.
		log.Printf("Failed to list stored fingerprints for %s, re-indexing all: %v", tenant, err)
		stored = map[string]string{}
	}

	actions := Detect(docs, stored, opts.Overwrite)

	if opts.ValidateOnly {
		for _, pa := range actions {
			switch pa.Action {
			case ActionAdd:
				report.Added++
			case ActionUpdate:
				report.Updated++
			case ActionSkip:
				report.Skipped++
			case ActionDelete:
				report.Deleted++
			}
		}
		report.Failed = len(failedPaths)
		report.Duration = time.Since(start)
		return report, nil
	}

	pending, inputs := s.buildPending(ctx, actions, failedPaths)

	vectors, embedFailed := embedder.EmbedMany(ctx, s.embedder, inputs, s.batchSize, s.parallelism)
	if embedFailed > 0 {
		log.Printf("Embedding failed for %d of %d texts in tenant %s", embedFailed, len(inputs), tenant)
	}

	for _, p := range pending {
		if err := s.writeDoc(ctx, tenant, p, vectors, failedPaths); err != nil {
			log.Printf("Failed to write %s: %v", p.doc.Path, err)
			failedPaths[p.doc.Path] = true
			continue
		}
		if p.action == ActionAdd {
			report.Added++
		} else {
			report.Updated++
		}
	}

	for _, pa := range actions {
		switch pa.Action {
		case ActionSkip:
			report.Skipped++
		case ActionDelete:
			if err := s.store.DeleteByPath(ctx, tenant, pa.Path); err != nil {
				log.Printf("Failed to delete %s: %v", pa.Path, err)
				failedPaths[pa.Path] = true
				continue
			}
			report.Deleted++
		}
	}

	report.Failed = len(failedPaths)
	report.Duration = time.Since(start)
	return report, nil
}

// scanAndExtract walks the corpus and extracts every supported file.
// Unreadable files are recorded in failedPaths; empty documents are dropped
// silently (nothing to index).
func (s *Syncer) scanAndExtract(ctx context.Context, root string) ([]Document, map[string]bool, error) {
	ignorer, err := NewIgnoreMatcher(root, s.ignoreFileName, s.ignorePatterns)
	if err != nil {
		return nil, nil, err
	}

	paths, err := NewScanner(root, ignorer).Scan()
	if err != nil {
		return nil, nil, err
	}

	failedPaths := make(map[string]bool)
	docs := make([]Document, 0, len(paths))
	now := time.Now().UTC()

	for _, relPath := range paths {
		text, err := s.extractor.Text(ctx, filepath.Join(root, relPath))
		if err != nil {
			log.Printf("Failed to extract %s: %v", relPath, err)
			failedPaths[relPath] = true
			continue
		}
		if strings.TrimSpace(text) == "" {
			continue
		}
		docs = append(docs, Document{
			Path:        relPath,
			Fingerprint: Fingerprint(text),
			Text:        text,
			CreatedAt:   now,
		})
	}

	return docs, failedPaths, nil
}

// buildPending chunks and summarizes every ADD/UPDATE document and lays out
// the flat embedding input: per document, the overview first (when the
// document is long enough for a catalog entry), then its chunks.
func (s *Syncer) buildPending(ctx context.Context, actions []PathAction, failedPaths map[string]bool) ([]pendingDoc, []string) {
	var pending []pendingDoc
	var inputs []string

	for _, pa := range actions {
		if pa.Action != ActionAdd && pa.Action != ActionUpdate {
			continue
		}

		p := pendingDoc{
			doc:    pa.Doc,
			action: pa.Action,
			chunks: s.chunker.Chunk(pa.Doc.Text),
		}

		if len(pa.Doc.Text) >= s.minSummaryChars {
			p.hasCatalog = true
			overview, err := s.summarizer.Summarize(ctx, pa.Doc.Text)
			if err != nil {
				log.Printf("Failed to summarize %s: %v", pa.Doc.Path, err)
				overview = summarizer.FailureMarker
				failedPaths[pa.Doc.Path] = true
			}
			p.overview = overview
		}

		p.embedStart = len(inputs)
		if p.hasCatalog {
			inputs = append(inputs, p.overview)
		}
		for _, c := range p.chunks {
			inputs = append(inputs, c.Text)
		}
		pending = append(pending, p)
	}

	return pending, inputs
}

// writeDoc purges the document's previous records when updating, then
// upserts its catalog entry and chunks. Items whose embedding failed are
// dropped from the write set and the path is marked failed; a nil vector is
// never upserted.
func (s *Syncer) writeDoc(ctx context.Context, tenant string, p pendingDoc, vectors [][]float32, failedPaths map[string]bool) error {
	if p.action == ActionUpdate {
		if err := s.store.DeleteByPath(ctx, tenant, p.doc.Path); err != nil {
			return fmt.Errorf("failed to purge previous records: %w", err)
		}
	}

	slot := p.embedStart

	if p.hasCatalog {
		vec := vectors[slot]
		slot++
		if vec == nil {
			failedPaths[p.doc.Path] = true
		} else {
			entry := store.CatalogEntry{
				Path:        p.doc.Path,
				Fingerprint: p.doc.Fingerprint,
				RawText:     p.doc.Text,
				Overview:    p.overview,
				CreatedAt:   p.doc.CreatedAt,
				Vector:      vec,
			}
			if err := s.store.UpsertCatalog(ctx, tenant, []store.CatalogEntry{entry}); err != nil {
				return err
			}
		}
	}

	chunks := make([]store.Chunk, 0, len(p.chunks))
	for _, c := range p.chunks {
		vec := vectors[slot]
		slot++
		if vec == nil {
			failedPaths[p.doc.Path] = true
			continue
		}
		chunks = append(chunks, store.Chunk{
			Path:        p.doc.Path,
			Fingerprint: p.doc.Fingerprint,
			ChunkIndex:  c.Index,
			ChunkTotal:  c.Total,
			Text:        c.Text,
			CreatedAt:   p.doc.CreatedAt,
			Vector:      vec,
		})
	}
	if len(chunks) > 0 {
		if err := s.store.UpsertChunks(ctx, tenant, chunks); err != nil {
			return err
		}
	}

	return nil
}
