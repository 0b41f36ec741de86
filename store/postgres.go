package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgvector "github.com/pgvector/pgvector-go"
	pgxvector "github.com/pgvector/pgvector-go/pgx"
)

// PostgresStore implements TenantStore on Postgres with the pgvector
// extension. All tenants share two tables keyed by (tenant, path); row-level
// filtering gives the same isolation the Qdrant backend gets from separate
// collections.
type PostgresStore struct {
	pool       *pgxpool.Pool
	dimensions int
}

// NewPostgresStore connects to Postgres, enables pgvector, and creates the
// docdex tables if they do not exist.
func NewPostgresStore(ctx context.Context, dsn string, dimensions int) (*PostgresStore, error) {
	if dimensions <= 0 {
		return nil, fmt.Errorf("invalid vector dimensions: %d", dimensions)
	}

	poolCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse postgres DSN: %w", err)
	}
	poolCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return pgxvector.RegisterTypes(ctx, conn)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create postgres pool: %w", err)
	}

	s := &PostgresStore{pool: pool, dimensions: dimensions}
	if err := s.migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

func (s *PostgresStore) migrate(ctx context.Context) error {
	statements := []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS docdex_catalog (
			tenant      TEXT NOT NULL,
			path        TEXT NOT NULL,
			fingerprint TEXT NOT NULL,
			raw_text    TEXT NOT NULL,
			overview    TEXT NOT NULL,
			created_at  TIMESTAMPTZ NOT NULL,
			embedding   vector(%d) NOT NULL,
			PRIMARY KEY (tenant, path)
		)`, s.dimensions),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS docdex_chunks (
			tenant      TEXT NOT NULL,
			path        TEXT NOT NULL,
			chunk_index INT NOT NULL,
			chunk_total INT NOT NULL,
			fingerprint TEXT NOT NULL,
			text        TEXT NOT NULL,
			created_at  TIMESTAMPTZ NOT NULL,
			embedding   vector(%d) NOT NULL,
			PRIMARY KEY (tenant, path, chunk_index)
		)`, s.dimensions),
	}

	for _, stmt := range statements {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to run migration: %w", err)
		}
	}
	return nil
}

// EnsureTenant validates the name; the shared tables already exist.
func (s *PostgresStore) EnsureTenant(_ context.Context, tenant string) error {
	return ValidateTenantName(tenant)
}

func (s *PostgresStore) StoredFingerprints(ctx context.Context, tenant string) (map[string]string, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT DISTINCT path, fingerprint FROM docdex_chunks WHERE tenant = $1`, tenant)
	if err != nil {
		return nil, fmt.Errorf("failed to list fingerprints: %w", err)
	}
	defer rows.Close()

	fps := make(map[string]string)
	for rows.Next() {
		var path, fingerprint string
		if err := rows.Scan(&path, &fingerprint); err != nil {
			return nil, fmt.Errorf("failed to scan fingerprint row: %w", err)
		}
		fps[path] = fingerprint
	}
	return fps, rows.Err()
}

func (s *PostgresStore) UpsertCatalog(ctx context.Context, tenant string, entries []CatalogEntry) error {
	for _, e := range entries {
		if e.Vector == nil {
			return fmt.Errorf("catalog entry %s has no vector", e.Path)
		}
		_, err := s.pool.Exec(ctx,
			`INSERT INTO docdex_catalog (tenant, path, fingerprint, raw_text, overview, created_at, embedding)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)
			 ON CONFLICT (tenant, path) DO UPDATE SET
				fingerprint = EXCLUDED.fingerprint,
				raw_text    = EXCLUDED.raw_text,
				overview    = EXCLUDED.overview,
				created_at  = EXCLUDED.created_at,
				embedding   = EXCLUDED.embedding`,
			tenant, e.Path, e.Fingerprint, e.RawText, e.Overview, e.CreatedAt.UTC(),
			pgvector.NewVector(e.Vector))
		if err != nil {
			return fmt.Errorf("failed to upsert catalog entry %s: %w", e.Path, err)
		}
	}
	return nil
}

func (s *PostgresStore) UpsertChunks(ctx context.Context, tenant string, chunks []Chunk) error {
	for _, c := range chunks {
		if c.Vector == nil {
			return fmt.Errorf("chunk %s[%d] has no vector", c.Path, c.ChunkIndex)
		}
		_, err := s.pool.Exec(ctx,
			`INSERT INTO docdex_chunks (tenant, path, chunk_index, chunk_total, fingerprint, text, created_at, embedding)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			 ON CONFLICT (tenant, path, chunk_index) DO UPDATE SET
				chunk_total = EXCLUDED.chunk_total,
				fingerprint = EXCLUDED.fingerprint,
				text        = EXCLUDED.text,
				created_at  = EXCLUDED.created_at,
				embedding   = EXCLUDED.embedding`,
			tenant, c.Path, c.ChunkIndex, c.ChunkTotal, c.Fingerprint, c.Text, c.CreatedAt.UTC(),
			pgvector.NewVector(c.Vector))
		if err != nil {
			return fmt.Errorf("failed to upsert chunk %s[%d]: %w", c.Path, c.ChunkIndex, err)
		}
	}
	return nil
}

func (s *PostgresStore) DeleteByPath(ctx context.Context, tenant, path string) error {
	if _, err := s.pool.Exec(ctx,
		`DELETE FROM docdex_catalog WHERE tenant = $1 AND path = $2`, tenant, path); err != nil {
		return fmt.Errorf("failed to delete catalog entry %s: %w", path, err)
	}
	if _, err := s.pool.Exec(ctx,
		`DELETE FROM docdex_chunks WHERE tenant = $1 AND path = $2`, tenant, path); err != nil {
		return fmt.Errorf("failed to delete chunks for %s: %w", path, err)
	}
	return nil
}

func (s *PostgresStore) SearchCatalog(ctx context.Context, tenant string, vector []float32, limit int) ([]CatalogHit, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT path, overview, fingerprint, created_at, 1 - (embedding <=> $2) AS score
		 FROM docdex_catalog
		 WHERE tenant = $1
		 ORDER BY embedding <=> $2
		 LIMIT $3`,
		tenant, pgvector.NewVector(vector), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search catalog: %w", err)
	}
	defer rows.Close()

	var hits []CatalogHit
	for rows.Next() {
		var hit CatalogHit
		var score float64
		var createdAt time.Time
		if err := rows.Scan(&hit.Path, &hit.Overview, &hit.Fingerprint, &createdAt, &score); err != nil {
			return nil, fmt.Errorf("failed to scan catalog hit: %w", err)
		}
		hit.CreatedAt = createdAt
		hit.Score = float32(score)
		hits = append(hits, hit)
	}
	return hits, rows.Err()
}

func (s *PostgresStore) SearchChunks(ctx context.Context, tenant string, vector []float32, source string, limit int) ([]ChunkHit, error) {
	query := `SELECT path, chunk_index, chunk_total, text, 1 - (embedding <=> $2) AS score
		 FROM docdex_chunks
		 WHERE tenant = $1`
	args := []any{tenant, pgvector.NewVector(vector)}

	if source != "" {
		query += ` AND path = $3`
		args = append(args, source)
	}
	query += fmt.Sprintf(` ORDER BY embedding <=> $2 LIMIT $%d`, len(args)+1)
	args = append(args, limit)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to search chunks: %w", err)
	}
	defer rows.Close()

	var hits []ChunkHit
	for rows.Next() {
		var hit ChunkHit
		var score float64
		if err := rows.Scan(&hit.Path, &hit.ChunkIndex, &hit.ChunkTotal, &hit.Text, &score); err != nil {
			return nil, fmt.Errorf("failed to scan chunk hit: %w", err)
		}
		hit.Score = float32(score)
		hits = append(hits, hit)
	}
	return hits, rows.Err()
}

func (s *PostgresStore) Stats(ctx context.Context, tenant string) (*TenantStats, error) {
	stats := &TenantStats{Tenant: tenant}

	if err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM docdex_catalog WHERE tenant = $1`, tenant).
		Scan(&stats.CatalogPoints); err != nil {
		return nil, fmt.Errorf("failed to count catalog entries: %w", err)
	}
	if err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM docdex_chunks WHERE tenant = $1`, tenant).
		Scan(&stats.ChunkPoints); err != nil {
		return nil, fmt.Errorf("failed to count chunks: %w", err)
	}
	return stats, nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
