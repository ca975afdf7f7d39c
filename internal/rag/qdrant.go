package rag

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/qdrant/go-client/qdrant"
)

const (
	// contentKey is the payload field holding the chunk text. Every other
	// payload field is course metadata.
	contentKey = "content"

	// upsertBatchSize caps the points sent per Upsert request so large
	// catalogs stay under Qdrant's gRPC message limit.
	upsertBatchSize = 256
)

// qdrantAPI is the subset of *qdrant.Client the store uses.
type qdrantAPI interface {
	HealthCheck(ctx context.Context) (*qdrant.HealthCheckReply, error)
	CollectionExists(ctx context.Context, name string) (bool, error)
	GetCollectionInfo(ctx context.Context, name string) (*qdrant.CollectionInfo, error)
	CreateCollection(ctx context.Context, req *qdrant.CreateCollection) error
	DeleteCollection(ctx context.Context, name string) error
	ListAliases(ctx context.Context) ([]*qdrant.AliasDescription, error)
	UpdateAliases(ctx context.Context, actions []*qdrant.AliasOperations) error
	Upsert(ctx context.Context, req *qdrant.UpsertPoints) (*qdrant.UpdateResult, error)
	Query(ctx context.Context, req *qdrant.QueryPoints) ([]*qdrant.ScoredPoint, error)
	Close() error
}

// QdrantConfig holds connection parameters for a Qdrant vector store instance.
type QdrantConfig struct {
	// Host is the Qdrant server hostname (default: localhost).
	Host string

	// Port is the Qdrant gRPC port (default: 6334).
	Port int

	// Collection is the name queries use. It is an alias for a versioned
	// collection "<Collection>_<n>" that Replace swaps atomically.
	Collection string

	// VectorSize is the embedding dimensionality. When zero it is taken from
	// the first vector written or from the live collection.
	VectorSize uint64

	// APIKey is the optional Qdrant API key for authenticated clusters.
	APIKey string

	// UseTLS enables TLS for the gRPC connection.
	UseTLS bool
}

// QdrantStore implements VectorStore backed by a Qdrant collection using
// cosine distance, so scores share LocalStore's polarity.
type QdrantStore struct {
	client qdrantAPI
	cfg    QdrantConfig
	now    func() time.Time

	mu         sync.Mutex
	vectorSize uint64
}

// NewQdrantStore connects to Qdrant and, when the vector size is known,
// ensures the collection exists.
func NewQdrantStore(ctx context.Context, cfg QdrantConfig) (*QdrantStore, error) {
	if cfg.Host == "" {
		cfg.Host = "localhost"
	}
	if cfg.Port == 0 {
		cfg.Port = 6334
	}
	if cfg.Collection == "" {
		return nil, fmt.Errorf("qdrant: collection name must not be empty")
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   cfg.Host,
		Port:   cfg.Port,
		APIKey: cfg.APIKey,
		UseTLS: cfg.UseTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("qdrant: failed to create client: %w: %v", ErrIndexUnavailable, err)
	}

	s := newQdrantStore(client, cfg)
	if cfg.VectorSize > 0 {
		if err := s.ensureCollection(ctx, cfg.VectorSize); err != nil {
			_ = client.Close()
			return nil, err
		}
	}
	return s, nil
}

func newQdrantStore(client qdrantAPI, cfg QdrantConfig) *QdrantStore {
	return &QdrantStore{client: client, cfg: cfg, now: time.Now, vectorSize: cfg.VectorSize}
}

// target reports what the configured name currently resolves to: the
// versioned collection behind the alias, or the name itself when a plain
// collection predates aliasing. Both are empty when nothing exists yet.
func (s *QdrantStore) target(ctx context.Context) (aliased, plain string, err error) {
	aliases, err := s.client.ListAliases(ctx)
	if err != nil {
		return "", "", fmt.Errorf("qdrant: list aliases: %w: %v", ErrIndexUnavailable, err)
	}
	for _, a := range aliases {
		if a.GetAliasName() == s.cfg.Collection {
			return a.GetCollectionName(), "", nil
		}
	}
	exists, err := s.client.CollectionExists(ctx, s.cfg.Collection)
	if err != nil {
		return "", "", fmt.Errorf("qdrant: failed to check collection existence: %w: %v", ErrIndexUnavailable, err)
	}
	if exists {
		return "", s.cfg.Collection, nil
	}
	return "", "", nil
}

// ensureCollection creates a versioned collection and points the alias at
// it when the configured name resolves to nothing.
func (s *QdrantStore) ensureCollection(ctx context.Context, size uint64) error {
	aliased, plain, err := s.target(ctx)
	if err != nil {
		return err
	}
	if aliased != "" || plain != "" {
		return nil
	}
	name, err := s.createVersion(ctx, size)
	if err != nil {
		return err
	}
	if err := s.client.UpdateAliases(ctx, []*qdrant.AliasOperations{
		qdrant.NewAliasCreate(s.cfg.Collection, name),
	}); err != nil {
		_ = s.client.DeleteCollection(ctx, name)
		return fmt.Errorf("qdrant: alias %q: %w", s.cfg.Collection, err)
	}
	return nil
}

func (s *QdrantStore) createVersion(ctx context.Context, size uint64) (string, error) {
	name := fmt.Sprintf("%s_%d", s.cfg.Collection, s.now().UnixNano())
	err := s.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: name,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     size,
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return "", fmt.Errorf("qdrant: failed to create collection %q: %w", name, err)
	}
	return name, nil
}

// resolveSize picks the vector size for a new collection: configured, then
// previously seen, then the first entry, then the live collection.
func (s *QdrantStore) resolveSize(ctx context.Context, entries []Entry, current string) (uint64, error) {
	s.mu.Lock()
	size := s.vectorSize
	s.mu.Unlock()
	if size == 0 && len(entries) > 0 {
		size = uint64(len(entries[0].Vector))
	}
	if size == 0 && current != "" {
		info, err := s.client.GetCollectionInfo(ctx, current)
		if err != nil {
			return 0, fmt.Errorf("qdrant: collection info %q: %w: %v", current, ErrIndexUnavailable, err)
		}
		size = info.GetConfig().GetParams().GetVectorsConfig().GetParams().GetSize()
	}
	if size == 0 {
		return 0, fmt.Errorf("qdrant: vector size unknown for an empty rebuild, set EMBEDDING_DIMENSIONS")
	}
	s.mu.Lock()
	s.vectorSize = size
	s.mu.Unlock()
	return size, nil
}

// upsert writes entries into collection in batches of upsertBatchSize.
func (s *QdrantStore) upsert(ctx context.Context, collection string, entries []Entry) error {
	for start := 0; start < len(entries); start += upsertBatchSize {
		batch := entries[start:min(start+upsertBatchSize, len(entries))]
		points := make([]*qdrant.PointStruct, 0, len(batch))
		for _, e := range batch {
			payload := make(map[string]any, len(e.Metadata)+1)
			for k, v := range e.Metadata {
				payload[k] = v
			}
			payload[contentKey] = e.Text

			points = append(points, &qdrant.PointStruct{
				Id:      qdrant.NewIDUUID(e.ID),
				Vectors: qdrant.NewVectors(e.Vector...),
				Payload: qdrant.NewValueMap(payload),
			})
		}
		_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
			CollectionName: collection,
			Wait:           qdrant.PtrOf(true),
			Points:         points,
		})
		if err != nil {
			return fmt.Errorf("qdrant: upsert points %d-%d: %w", start, start+len(batch)-1, err)
		}
	}
	return nil
}

// Add upserts entries as points. Entry IDs must be UUIDs (see ChunkID).
func (s *QdrantStore) Add(ctx context.Context, entries []Entry) error {
	if len(entries) == 0 {
		return nil
	}
	aliased, plain, err := s.target(ctx)
	if err != nil {
		return err
	}
	size, err := s.resolveSize(ctx, entries, aliased+plain)
	if err != nil {
		return err
	}
	if err := s.ensureCollection(ctx, size); err != nil {
		return err
	}
	return s.upsert(ctx, s.cfg.Collection, entries)
}

// Replace builds a new versioned collection holding exactly entries, then
// repoints the alias in one request and drops the previous version. A
// failure before the swap deletes the half-built collection and leaves the
// live one untouched. An empty entries slice still produces an empty,
// queryable collection.
func (s *QdrantStore) Replace(ctx context.Context, entries []Entry) error {
	aliased, plain, err := s.target(ctx)
	if err != nil {
		return err
	}
	size, err := s.resolveSize(ctx, entries, aliased+plain)
	if err != nil {
		return err
	}

	next, err := s.createVersion(ctx, size)
	if err != nil {
		return err
	}
	if err := s.upsert(ctx, next, entries); err != nil {
		_ = s.client.DeleteCollection(ctx, next)
		return err
	}

	var ops []*qdrant.AliasOperations
	if aliased != "" {
		ops = append(ops, qdrant.NewAliasDelete(s.cfg.Collection))
	}
	if plain != "" {
		// A plain collection cannot coexist with an alias of the same name.
		if err := s.client.DeleteCollection(ctx, plain); err != nil {
			_ = s.client.DeleteCollection(ctx, next)
			return fmt.Errorf("qdrant: failed to drop collection %q: %w", plain, err)
		}
	}
	ops = append(ops, qdrant.NewAliasCreate(s.cfg.Collection, next))
	if err := s.client.UpdateAliases(ctx, ops); err != nil {
		_ = s.client.DeleteCollection(ctx, next)
		return fmt.Errorf("qdrant: swap alias %q: %w", s.cfg.Collection, err)
	}

	if aliased != "" {
		_ = s.client.DeleteCollection(ctx, aliased)
	}
	return nil
}

// Search performs a cosine similarity query and returns the top-k points.
func (s *QdrantStore) Search(ctx context.Context, query []float32, k int) ([]Candidate, error) {
	if k <= 0 {
		return []Candidate{}, nil
	}
	limit := uint64(k)
	results, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: s.cfg.Collection,
		Query:          qdrant.NewQuery(query...),
		Limit:          &limit,
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("qdrant: search failed: %w: %v", ErrIndexUnavailable, err)
	}

	out := make([]Candidate, 0, len(results))
	for _, r := range results {
		c := Candidate{
			ID:       r.GetId().GetUuid(),
			Score:    r.GetScore(),
			Metadata: make(map[string]string, len(r.GetPayload())),
		}
		for k, v := range r.GetPayload() {
			if k == contentKey {
				c.Content = v.GetStringValue()
				continue
			}
			c.Metadata[k] = v.GetStringValue()
		}
		out = append(out, c)
	}
	return out, nil
}

// Reset replaces the collection with an empty one. It is a no-op when
// nothing has been indexed yet.
func (s *QdrantStore) Reset(ctx context.Context) error {
	aliased, plain, err := s.target(ctx)
	if err != nil {
		return err
	}
	if aliased == "" && plain == "" {
		return nil
	}
	return s.Replace(ctx, nil)
}

// Ping checks server health and that the collection exists.
func (s *QdrantStore) Ping(ctx context.Context) error {
	if _, err := s.client.HealthCheck(ctx); err != nil {
		return fmt.Errorf("qdrant: health check: %w: %v", ErrIndexUnavailable, err)
	}
	aliased, plain, err := s.target(ctx)
	if err != nil {
		return err
	}
	if aliased == "" && plain == "" {
		return fmt.Errorf("qdrant: collection %q: %w", s.cfg.Collection, ErrIndexUnavailable)
	}
	return nil
}

// Close closes the underlying Qdrant gRPC connection.
func (s *QdrantStore) Close() error {
	return s.client.Close()
}
