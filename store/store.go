// Package store persists catalog entries and chunks in a vector store, one
// pair of collections per tenant.
package store

import (
	"context"
	"time"
)

// CatalogEntry is the document-level record: one per successfully summarized
// document, embedded over its overview.
type CatalogEntry struct {
	Path        string
	Fingerprint string
	RawText     string
	Overview    string
	CreatedAt   time.Time
	Vector      []float32
}

// Chunk is one span of a document, embedded over its text. ChunkIndex runs
// from 0 to ChunkTotal-1 for a fully indexed document.
type Chunk struct {
	Path        string
	Fingerprint string
	ChunkIndex  int
	ChunkTotal  int
	Text        string
	CreatedAt   time.Time
	Vector      []float32
}

// CatalogHit is a scored catalog search result. Tenant is filled by
// cross-tenant queries so merged results stay attributable.
type CatalogHit struct {
	Tenant      string    `json:"tenant,omitempty"`
	Path        string    `json:"path"`
	Overview    string    `json:"overview"`
	Fingerprint string    `json:"fingerprint"`
	CreatedAt   time.Time `json:"created_at"`
	Score       float32   `json:"score"`
}

// ChunkHit is a scored chunk search result. Tenant is filled by cross-tenant
// queries so merged results stay attributable.
type ChunkHit struct {
	Tenant     string  `json:"tenant,omitempty"`
	Path       string  `json:"path"`
	ChunkIndex int     `json:"chunk_index"`
	ChunkTotal int     `json:"chunk_total"`
	Text       string  `json:"text"`
	Score      float32 `json:"score"`
}

// TenantStats reports per-collection point counts for one tenant.
type TenantStats struct {
	Tenant        string `json:"tenant"`
	CatalogPoints uint64 `json:"catalog_points"`
	ChunkPoints   uint64 `json:"chunk_points"`
}

// TenantStore is the contract both backends implement. All writes are
// idempotent: point identity is derived from tenant and path (and chunk
// index), so re-upserting the same record overwrites rather than duplicates.
type TenantStore interface {
	// EnsureTenant creates the tenant's catalog and chunk collections if
	// they do not exist.
	EnsureTenant(ctx context.Context, tenant string) error

	// StoredFingerprints returns the path→fingerprint map of every indexed
	// document, paging through the tenant's chunk collection (every indexed
	// document has at least one chunk; not every one has a catalog entry).
	StoredFingerprints(ctx context.Context, tenant string) (map[string]string, error)

	UpsertCatalog(ctx context.Context, tenant string, entries []CatalogEntry) error
	UpsertChunks(ctx context.Context, tenant string, chunks []Chunk) error

	// DeleteByPath removes every record for the path from both collections.
	DeleteByPath(ctx context.Context, tenant, path string) error

	SearchCatalog(ctx context.Context, tenant string, vector []float32, limit int) ([]CatalogHit, error)
	// SearchChunks searches the tenant's chunk collection; a non-empty
	// source restricts results to chunks of that exact path.
	SearchChunks(ctx context.Context, tenant string, vector []float32, source string, limit int) ([]ChunkHit, error)

	Stats(ctx context.Context, tenant string) (*TenantStats, error)

	Close() error
}
