// Package search answers semantic queries against the tenant collections,
// either scoped to one tenant or fanned out across all of them.
package search

import (
	"context"
	"fmt"
	"log"
	"math"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/yoanbernabeu/docdex/embedder"
	"github.com/yoanbernabeu/docdex/store"
)

const (
	MinLimit = 1
	MaxLimit = 100
)

// ValidationError reports a rejected query parameter. Invalid input is never
// silently coerced.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Msg)
}

// Searcher routes queries to the right tenant collections. It holds the
// long-lived store and embedder clients and is safe for concurrent use.
type Searcher struct {
	store    store.TenantStore
	embedder embedder.Embedder
	tenants  []string
}

func NewSearcher(st store.TenantStore, emb embedder.Embedder, tenants []string) *Searcher {
	return &Searcher{store: st, embedder: emb, tenants: tenants}
}

// Catalog searches one tenant's document overviews.
func (s *Searcher) Catalog(ctx context.Context, query, tenant string, limit int) ([]store.CatalogHit, error) {
	if err := s.validate(query, tenant, limit); err != nil {
		return nil, err
	}

	vector, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	return s.store.SearchCatalog(ctx, tenant, vector, limit)
}

// Chunks searches one tenant's chunk spans. A non-empty source restricts
// results to chunks of that exact document path.
func (s *Searcher) Chunks(ctx context.Context, query, tenant, source string, limit int) ([]store.ChunkHit, error) {
	if err := s.validate(query, tenant, limit); err != nil {
		return nil, err
	}

	vector, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	return s.store.SearchChunks(ctx, tenant, vector, source, limit)
}

// AllCatalog fans a catalog search out to every configured tenant with the
// same quota, merge, and failure semantics as AllChunks.
func (s *Searcher) AllCatalog(ctx context.Context, query string, limit int) ([]store.CatalogHit, error) {
	if err := s.validateQueryAndLimit(query, limit); err != nil {
		return nil, err
	}
	if len(s.tenants) == 0 {
		return nil, nil
	}

	vector, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	perTenant := int(math.Ceil(float64(limit) / float64(len(s.tenants))))

	var mu sync.Mutex
	var merged []store.CatalogHit

	g, gctx := errgroup.WithContext(ctx)
	for _, tenant := range s.tenants {
		tenant := tenant
		g.Go(func() error {
			hits, err := s.store.SearchCatalog(gctx, tenant, vector, perTenant)
			if err != nil {
				log.Printf("Search failed for tenant %s, skipping: %v", tenant, err)
				return nil
			}
			for i := range hits {
				hits[i].Tenant = tenant
			}
			mu.Lock()
			merged = append(merged, hits...)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Score > merged[j].Score
	})
	if len(merged) > limit {
		merged = merged[:limit]
	}
	return merged, nil
}

// AllChunks fans the query out to every configured tenant, asking each for
// ceil(limit/n) results, then merges by descending score and truncates to
// limit. The query is embedded once. Tenants that fail are logged and
// skipped; their quota is not redistributed.
func (s *Searcher) AllChunks(ctx context.Context, query string, limit int) ([]store.ChunkHit, error) {
	if err := s.validateQueryAndLimit(query, limit); err != nil {
		return nil, err
	}
	if len(s.tenants) == 0 {
		return nil, nil
	}

	vector, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	perTenant := int(math.Ceil(float64(limit) / float64(len(s.tenants))))

	var mu sync.Mutex
	var merged []store.ChunkHit

	g, gctx := errgroup.WithContext(ctx)
	for _, tenant := range s.tenants {
		tenant := tenant
		g.Go(func() error {
			hits, err := s.store.SearchChunks(gctx, tenant, vector, "", perTenant)
			if err != nil {
				log.Printf("Search failed for tenant %s, skipping: %v", tenant, err)
				return nil
			}
			for i := range hits {
				hits[i].Tenant = tenant
			}
			mu.Lock()
			merged = append(merged, hits...)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Score > merged[j].Score
	})
	if len(merged) > limit {
		merged = merged[:limit]
	}
	return merged, nil
}

// Status reports the configured tenants with their per-collection point
// counts. A tenant whose stats cannot be read gets zero counts rather than
// failing the whole call.
func (s *Searcher) Status(ctx context.Context) ([]store.TenantStats, error) {
	stats := make([]store.TenantStats, 0, len(s.tenants))
	for _, tenant := range s.tenants {
		ts, err := s.store.Stats(ctx, tenant)
		if err != nil {
			log.Printf("Failed to read stats for tenant %s: %v", tenant, err)
			stats = append(stats, store.TenantStats{Tenant: tenant})
			continue
		}
		stats = append(stats, *ts)
	}
	return stats, nil
}

func (s *Searcher) validate(query, tenant string, limit int) error {
	if err := s.validateQueryAndLimit(query, limit); err != nil {
		return err
	}
	for _, t := range s.tenants {
		if t == tenant {
			return nil
		}
	}
	return &ValidationError{Field: "tenant", Msg: fmt.Sprintf("unknown tenant %q", tenant)}
}

func (s *Searcher) validateQueryAndLimit(query string, limit int) error {
	if query == "" {
		return &ValidationError{Field: "query", Msg: "must not be empty"}
	}
	if limit < MinLimit || limit > MaxLimit {
		return &ValidationError{Field: "limit", Msg: fmt.Sprintf("must be between %d and %d", MinLimit, MaxLimit)}
	}
	return nil
}
