package store

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
)

const scrollPageSize = 256

// QdrantConfig configures the Qdrant gRPC backend.
type QdrantConfig struct {
	Host   string
	Port   int // gRPC port (6334), not the HTTP REST port
	APIKey string
	UseTLS bool

	// Dimensions is the vector size used when creating collections.
	Dimensions int

	RequestTimeout time.Duration
	RetryAttempts  int
}

func (c *QdrantConfig) applyDefaults() {
	if c.Host == "" {
		c.Host = "localhost"
	}
	if c.Port == 0 {
		c.Port = 6334
	}
	if c.RequestTimeout == 0 {
		c.RequestTimeout = 30 * time.Second
	}
	if c.RetryAttempts == 0 {
		c.RetryAttempts = 3
	}
}

func (c *QdrantConfig) validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid qdrant port: %d", c.Port)
	}
	if c.Dimensions <= 0 {
		return fmt.Errorf("invalid vector dimensions: %d", c.Dimensions)
	}
	return nil
}

// QdrantStore implements TenantStore on Qdrant over gRPC, one
// "{tenant}_catalog" and one "{tenant}_chunks" collection per tenant.
type QdrantStore struct {
	client *qdrant.Client
	cfg    *QdrantConfig
}

// NewQdrantStore connects to Qdrant and verifies the connection with a
// health check.
func NewQdrantStore(cfg *QdrantConfig) (*QdrantStore, error) {
	if cfg == nil {
		cfg = &QdrantConfig{}
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid qdrant config: %w", err)
	}

	qcfg := &qdrant.Config{
		Host:   cfg.Host,
		Port:   cfg.Port,
		UseTLS: cfg.UseTLS,
		APIKey: cfg.APIKey,
	}
	if !cfg.UseTLS {
		qcfg.GrpcOptions = append(qcfg.GrpcOptions,
			grpc.WithTransportCredentials(insecure.NewCredentials()),
		)
	}

	client, err := qdrant.NewClient(qcfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create qdrant client: %w", err)
	}

	s := &QdrantStore{client: client, cfg: cfg}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.RequestTimeout)
	defer cancel()
	if _, err := client.HealthCheck(ctx); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to reach qdrant at %s:%d: %w", cfg.Host, cfg.Port, err)
	}

	return s, nil
}

func (s *QdrantStore) EnsureTenant(ctx context.Context, tenant string) error {
	if err := ValidateTenantName(tenant); err != nil {
		return err
	}
	for _, coll := range []string{CatalogCollection(tenant), ChunkCollection(tenant)} {
		if err := s.ensureCollection(ctx, coll); err != nil {
			return err
		}
	}
	return nil
}

func (s *QdrantStore) ensureCollection(ctx context.Context, name string) error {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.RequestTimeout)
	defer cancel()

	return s.retryOperation(ctx, func() error {
		_, err := s.client.GetCollectionInfo(ctx, name)
		if err == nil {
			return nil
		}
		if st, ok := status.FromError(err); !ok || st.Code() != codes.NotFound {
			return err
		}
		return s.client.CreateCollection(ctx, &qdrant.CreateCollection{
			CollectionName: name,
			VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
				Size:     uint64(s.cfg.Dimensions),
				Distance: qdrant.Distance_Cosine,
			}),
		})
	})
}

func (s *QdrantStore) StoredFingerprints(ctx context.Context, tenant string) (map[string]string, error) {
	coll := ChunkCollection(tenant)
	fps := make(map[string]string)

	var offset *qdrant.PointId
	for {
		var resp *qdrant.ScrollResponse
		err := s.retryOperation(ctx, func() error {
			reqCtx, cancel := context.WithTimeout(ctx, s.cfg.RequestTimeout)
			defer cancel()

			var err error
			resp, err = s.client.GetPointsClient().Scroll(reqCtx, &qdrant.ScrollPoints{
				CollectionName: coll,
				Limit:          qdrant.PtrOf(uint32(scrollPageSize)),
				Offset:         offset,
				WithPayload:    qdrant.NewWithPayloadInclude("path", "fingerprint"),
			})
			return err
		})
		if err != nil {
			return nil, fmt.Errorf("failed to scroll %s: %w", coll, err)
		}

		for _, point := range resp.GetResult() {
			payload := point.GetPayload()
			path := payload["path"].GetStringValue()
			if path == "" {
				continue
			}
			fps[path] = payload["fingerprint"].GetStringValue()
		}

		offset = resp.GetNextPageOffset()
		if offset == nil {
			break
		}
	}

	return fps, nil
}

func (s *QdrantStore) UpsertCatalog(ctx context.Context, tenant string, entries []CatalogEntry) error {
	if len(entries) == 0 {
		return nil
	}

	points := make([]*qdrant.PointStruct, 0, len(entries))
	for _, e := range entries {
		if e.Vector == nil {
			return fmt.Errorf("catalog entry %s has no vector", e.Path)
		}
		points = append(points, &qdrant.PointStruct{
			Id:      qdrant.NewIDUUID(CatalogPointID(tenant, e.Path)),
			Vectors: qdrant.NewVectors(e.Vector...),
			Payload: map[string]*qdrant.Value{
				"path":        stringValue(e.Path),
				"fingerprint": stringValue(e.Fingerprint),
				"raw_text":    stringValue(e.RawText),
				"overview":    stringValue(e.Overview),
				"created_at":  stringValue(e.CreatedAt.UTC().Format(time.RFC3339)),
			},
		})
	}

	return s.upsert(ctx, CatalogCollection(tenant), points)
}

func (s *QdrantStore) UpsertChunks(ctx context.Context, tenant string, chunks []Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	points := make([]*qdrant.PointStruct, 0, len(chunks))
	for _, c := range chunks {
		if c.Vector == nil {
			return fmt.Errorf("chunk %s[%d] has no vector", c.Path, c.ChunkIndex)
		}
		points = append(points, &qdrant.PointStruct{
			Id:      qdrant.NewIDUUID(ChunkPointID(tenant, c.Path, c.ChunkIndex)),
			Vectors: qdrant.NewVectors(c.Vector...),
			Payload: map[string]*qdrant.Value{
				"path":        stringValue(c.Path),
				"fingerprint": stringValue(c.Fingerprint),
				"chunk_index": intValue(int64(c.ChunkIndex)),
				"chunk_total": intValue(int64(c.ChunkTotal)),
				"text":        stringValue(c.Text),
				"created_at":  stringValue(c.CreatedAt.UTC().Format(time.RFC3339)),
			},
		})
	}

	return s.upsert(ctx, ChunkCollection(tenant), points)
}

func (s *QdrantStore) upsert(ctx context.Context, collection string, points []*qdrant.PointStruct) error {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.RequestTimeout)
	defer cancel()

	return s.retryOperation(ctx, func() error {
		_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
			CollectionName: collection,
			Points:         points,
		})
		return err
	})
}

func (s *QdrantStore) DeleteByPath(ctx context.Context, tenant, path string) error {
	for _, coll := range []string{CatalogCollection(tenant), ChunkCollection(tenant)} {
		if err := s.deleteByPath(ctx, coll, path); err != nil {
			return fmt.Errorf("failed to delete %s from %s: %w", path, coll, err)
		}
	}
	return nil
}

func (s *QdrantStore) deleteByPath(ctx context.Context, collection, path string) error {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.RequestTimeout)
	defer cancel()

	return s.retryOperation(ctx, func() error {
		_, err := s.client.Delete(ctx, &qdrant.DeletePoints{
			CollectionName: collection,
			Points: &qdrant.PointsSelector{
				PointsSelectorOneOf: &qdrant.PointsSelector_Filter{
					Filter: pathFilter(path),
				},
			},
		})
		return err
	})
}

func (s *QdrantStore) SearchCatalog(ctx context.Context, tenant string, vector []float32, limit int) ([]CatalogHit, error) {
	results, err := s.query(ctx, CatalogCollection(tenant), vector, limit, nil)
	if err != nil {
		return nil, err
	}

	hits := make([]CatalogHit, 0, len(results))
	for _, r := range results {
		payload := r.GetPayload()
		hit := CatalogHit{
			Path:        payload["path"].GetStringValue(),
			Overview:    payload["overview"].GetStringValue(),
			Fingerprint: payload["fingerprint"].GetStringValue(),
			Score:       r.GetScore(),
		}
		if ts, err := time.Parse(time.RFC3339, payload["created_at"].GetStringValue()); err == nil {
			hit.CreatedAt = ts
		}
		hits = append(hits, hit)
	}
	return hits, nil
}

func (s *QdrantStore) SearchChunks(ctx context.Context, tenant string, vector []float32, source string, limit int) ([]ChunkHit, error) {
	var filter *qdrant.Filter
	if source != "" {
		filter = pathFilter(source)
	}

	results, err := s.query(ctx, ChunkCollection(tenant), vector, limit, filter)
	if err != nil {
		return nil, err
	}

	hits := make([]ChunkHit, 0, len(results))
	for _, r := range results {
		payload := r.GetPayload()
		hits = append(hits, ChunkHit{
			Path:       payload["path"].GetStringValue(),
			ChunkIndex: int(payload["chunk_index"].GetIntegerValue()),
			ChunkTotal: int(payload["chunk_total"].GetIntegerValue()),
			Text:       payload["text"].GetStringValue(),
			Score:      r.GetScore(),
		})
	}
	return hits, nil
}

func (s *QdrantStore) query(ctx context.Context, collection string, vector []float32, limit int, filter *qdrant.Filter) ([]*qdrant.ScoredPoint, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.RequestTimeout)
	defer cancel()

	var results []*qdrant.ScoredPoint
	err := s.retryOperation(ctx, func() error {
		res, err := s.client.Query(ctx, &qdrant.QueryPoints{
			CollectionName: collection,
			Query:          qdrant.NewQuery(vector...),
			Limit:          qdrant.PtrOf(uint64(limit)),
			WithPayload:    qdrant.NewWithPayload(true),
			Filter:         filter,
		})
		if err != nil {
			return err
		}
		results = res
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", collection, err)
	}
	return results, nil
}

func (s *QdrantStore) Stats(ctx context.Context, tenant string) (*TenantStats, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.RequestTimeout)
	defer cancel()

	stats := &TenantStats{Tenant: tenant}

	catalogInfo, err := s.client.GetCollectionInfo(ctx, CatalogCollection(tenant))
	if err != nil {
		return nil, fmt.Errorf("failed to get stats for %s: %w", tenant, err)
	}
	stats.CatalogPoints = catalogInfo.GetPointsCount()

	chunkInfo, err := s.client.GetCollectionInfo(ctx, ChunkCollection(tenant))
	if err != nil {
		return nil, fmt.Errorf("failed to get stats for %s: %w", tenant, err)
	}
	stats.ChunkPoints = chunkInfo.GetPointsCount()

	return stats, nil
}

func (s *QdrantStore) Close() error {
	if s.client != nil {
		return s.client.Close()
	}
	return nil
}

// retryOperation retries transient failures with exponential backoff.
func (s *QdrantStore) retryOperation(ctx context.Context, operation func() error) error {
	var lastErr error
	backoff := time.Second

	for attempt := 0; attempt <= s.cfg.RetryAttempts; attempt++ {
		err := operation()
		if err == nil {
			return nil
		}
		lastErr = err

		if !isTransientError(err) {
			return err
		}
		if attempt == s.cfg.RetryAttempts {
			break
		}

		log.Printf("Retrying qdrant operation after transient error (attempt %d/%d): %v",
			attempt+1, s.cfg.RetryAttempts, err)

		select {
		case <-ctx.Done():
			return fmt.Errorf("operation canceled: %w", ctx.Err())
		case <-time.After(backoff):
			backoff *= 2
		}
	}

	return fmt.Errorf("operation failed after %d retries: %w", s.cfg.RetryAttempts, lastErr)
}

func isTransientError(err error) bool {
	if err == nil {
		return false
	}
	st, ok := status.FromError(err)
	if !ok {
		return false
	}
	switch st.Code() {
	case codes.Unavailable, codes.DeadlineExceeded, codes.Aborted, codes.ResourceExhausted:
		return true
	default:
		return false
	}
}

func pathFilter(path string) *qdrant.Filter {
	return &qdrant.Filter{
		Must: []*qdrant.Condition{
			{
				ConditionOneOf: &qdrant.Condition_Field{
					Field: &qdrant.FieldCondition{
						Key: "path",
						Match: &qdrant.Match{
							MatchValue: &qdrant.Match_Keyword{Keyword: path},
						},
					},
				},
			},
		},
	}
}

func stringValue(v string) *qdrant.Value {
	return &qdrant.Value{Kind: &qdrant.Value_StringValue{StringValue: v}}
}

func intValue(v int64) *qdrant.Value {
	return &qdrant.Value{Kind: &qdrant.Value_IntegerValue{IntegerValue: v}}
}
