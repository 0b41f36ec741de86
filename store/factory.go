package store

import (
	"context"
	"fmt"

	"github.com/yoanbernabeu/docdex/config"
)

// NewFromConfig creates the configured TenantStore backend.
func NewFromConfig(ctx context.Context, cfg *config.Config) (TenantStore, error) {
	switch cfg.Store.Backend {
	case "qdrant":
		return NewQdrantStore(&QdrantConfig{
			Host:       cfg.Store.Qdrant.Host,
			Port:       cfg.Store.Qdrant.Port,
			APIKey:     cfg.Store.Qdrant.APIKey,
			UseTLS:     cfg.Store.Qdrant.UseTLS,
			Dimensions: cfg.Embedder.GetDimensions(),
		})
	case "postgres":
		return NewPostgresStore(ctx, cfg.Store.Postgres.DSN, cfg.Embedder.GetDimensions())
	default:
		return nil, fmt.Errorf("unknown storage backend: %s", cfg.Store.Backend)
	}
}
