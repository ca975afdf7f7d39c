package rag

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/qdrant/go-client/qdrant"
)

// fakeQdrant is an in-memory stand-in for the Qdrant collections and
// points APIs, including alias resolution.
type fakeQdrant struct {
	collections map[string]*fakeCollection
	aliases     map[string]string

	upsertCalls  int
	batchSizes   []int
	failUpsertAt int // 1-based call number that fails; 0 never fails
}

type fakeCollection struct {
	vectors *qdrant.VectorsConfig
	points  []*qdrant.PointStruct
}

func newFakeQdrant() *fakeQdrant {
	return &fakeQdrant{
		collections: map[string]*fakeCollection{},
		aliases:     map[string]string{},
	}
}

func (f *fakeQdrant) resolve(name string) (*fakeCollection, bool) {
	if target, ok := f.aliases[name]; ok {
		name = target
	}
	c, ok := f.collections[name]
	return c, ok
}

func (f *fakeQdrant) HealthCheck(context.Context) (*qdrant.HealthCheckReply, error) {
	return &qdrant.HealthCheckReply{}, nil
}

func (f *fakeQdrant) CollectionExists(_ context.Context, name string) (bool, error) {
	_, ok := f.collections[name]
	return ok, nil
}

func (f *fakeQdrant) GetCollectionInfo(_ context.Context, name string) (*qdrant.CollectionInfo, error) {
	c, ok := f.resolve(name)
	if !ok {
		return nil, fmt.Errorf("collection %q not found", name)
	}
	return &qdrant.CollectionInfo{
		Config: &qdrant.CollectionConfig{Params: &qdrant.CollectionParams{VectorsConfig: c.vectors}},
	}, nil
}

func (f *fakeQdrant) CreateCollection(_ context.Context, req *qdrant.CreateCollection) error {
	name := req.GetCollectionName()
	if _, ok := f.collections[name]; ok {
		return fmt.Errorf("collection %q already exists", name)
	}
	if _, ok := f.aliases[name]; ok {
		return fmt.Errorf("alias %q already exists", name)
	}
	f.collections[name] = &fakeCollection{vectors: req.GetVectorsConfig()}
	return nil
}

func (f *fakeQdrant) DeleteCollection(_ context.Context, name string) error {
	delete(f.collections, name)
	for alias, target := range f.aliases {
		if target == name {
			delete(f.aliases, alias)
		}
	}
	return nil
}

func (f *fakeQdrant) ListAliases(context.Context) ([]*qdrant.AliasDescription, error) {
	out := make([]*qdrant.AliasDescription, 0, len(f.aliases))
	for alias, target := range f.aliases {
		out = append(out, &qdrant.AliasDescription{AliasName: alias, CollectionName: target})
	}
	return out, nil
}

func (f *fakeQdrant) UpdateAliases(_ context.Context, actions []*qdrant.AliasOperations) error {
	next := make(map[string]string, len(f.aliases))
	for k, v := range f.aliases {
		next[k] = v
	}
	for _, a := range actions {
		switch {
		case a.GetDeleteAlias() != nil:
			delete(next, a.GetDeleteAlias().GetAliasName())
		case a.GetCreateAlias() != nil:
			ca := a.GetCreateAlias()
			if _, ok := f.collections[ca.GetAliasName()]; ok {
				return fmt.Errorf("alias %q collides with a collection", ca.GetAliasName())
			}
			if _, ok := next[ca.GetAliasName()]; ok {
				return fmt.Errorf("alias %q already exists", ca.GetAliasName())
			}
			next[ca.GetAliasName()] = ca.GetCollectionName()
		}
	}
	f.aliases = next
	return nil
}

func (f *fakeQdrant) Upsert(_ context.Context, req *qdrant.UpsertPoints) (*qdrant.UpdateResult, error) {
	f.upsertCalls++
	if f.failUpsertAt == f.upsertCalls {
		return nil, errors.New("message too large")
	}
	c, ok := f.resolve(req.GetCollectionName())
	if !ok {
		return nil, fmt.Errorf("collection %q not found", req.GetCollectionName())
	}
	f.batchSizes = append(f.batchSizes, len(req.GetPoints()))
	c.points = append(c.points, req.GetPoints()...)
	return &qdrant.UpdateResult{}, nil
}

func (f *fakeQdrant) Query(_ context.Context, req *qdrant.QueryPoints) ([]*qdrant.ScoredPoint, error) {
	c, ok := f.resolve(req.GetCollectionName())
	if !ok {
		return nil, fmt.Errorf("collection %q not found", req.GetCollectionName())
	}
	var out []*qdrant.ScoredPoint
	for _, p := range c.points {
		if uint64(len(out)) == req.GetLimit() {
			break
		}
		out = append(out, &qdrant.ScoredPoint{Id: p.GetId(), Payload: p.GetPayload(), Score: 1})
	}
	return out, nil
}

func (f *fakeQdrant) Close() error { return nil }

func (f *fakeQdrant) collectionNames() []string {
	names := make([]string, 0, len(f.collections))
	for n := range f.collections {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func newTestQdrant(t *testing.T, vectorSize uint64) (*QdrantStore, *fakeQdrant) {
	t.Helper()
	fake := newFakeQdrant()
	s := newQdrantStore(fake, QdrantConfig{Collection: "courses", VectorSize: vectorSize})
	tick := time.Unix(0, 0)
	s.now = func() time.Time {
		tick = tick.Add(time.Nanosecond)
		return tick
	}
	return s, fake
}

func qdrantEntries(n int) []Entry {
	out := make([]Entry, n)
	for i := range out {
		out[i] = Entry{
			ID:       ChunkID("course:1", i),
			Vector:   []float32{1, 0},
			Text:     fmt.Sprintf("chunk %d", i),
			Metadata: map[string]string{"subject_name": "인공지능개론"},
		}
	}
	return out
}

func Test_QdrantStore_ReplaceBatchesUpserts(t *testing.T) {
	t.Parallel()
	s, fake := newTestQdrant(t, 0)
	ctx := context.Background()

	if err := s.Replace(ctx, qdrantEntries(600)); err != nil {
		t.Fatalf("replace: %v", err)
	}

	want := []int{256, 256, 88}
	if fmt.Sprint(fake.batchSizes) != fmt.Sprint(want) {
		t.Errorf("batch sizes: want %v, got %v", want, fake.batchSizes)
	}
	live, ok := fake.resolve("courses")
	if !ok || len(live.points) != 600 {
		t.Fatalf("alias should serve 600 points, got ok=%v", ok)
	}
	if err := s.Ping(ctx); err != nil {
		t.Errorf("ping after replace: %v", err)
	}
}

func Test_QdrantStore_ReplaceFailureKeepsLiveCollection(t *testing.T) {
	t.Parallel()
	s, fake := newTestQdrant(t, 0)
	ctx := context.Background()

	if err := s.Replace(ctx, qdrantEntries(2)); err != nil {
		t.Fatalf("first replace: %v", err)
	}
	before := fake.aliases["courses"]

	fake.failUpsertAt = fake.upsertCalls + 2
	if err := s.Replace(ctx, qdrantEntries(300)); err == nil {
		t.Fatal("want error from failing upsert")
	}

	if got := fake.aliases["courses"]; got != before {
		t.Errorf("alias moved on failure: want %q, got %q", before, got)
	}
	if names := fake.collectionNames(); len(names) != 1 || names[0] != before {
		t.Errorf("half-built collection must be dropped, have %v", names)
	}
	got, err := s.Search(ctx, []float32{1, 0}, 10)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("previous entries must survive, got %d", len(got))
	}
}

func Test_QdrantStore_ReplaceDropsPreviousVersion(t *testing.T) {
	t.Parallel()
	s, fake := newTestQdrant(t, 0)
	ctx := context.Background()

	for range 3 {
		if err := s.Replace(ctx, qdrantEntries(3)); err != nil {
			t.Fatalf("replace: %v", err)
		}
	}
	if names := fake.collectionNames(); len(names) != 1 || fake.aliases["courses"] != names[0] {
		t.Errorf("want exactly the aliased collection, have %v aliases=%v", names, fake.aliases)
	}
}

func Test_QdrantStore_EmptyRebuildStaysQueryable(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	tests := []struct {
		name    string
		size    uint64
		seed    bool
		wantErr bool
	}{
		{name: "size from live collection", seed: true},
		{name: "size from config", size: 2},
		{name: "size unknown", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			s, _ := newTestQdrant(t, tt.size)
			if tt.seed {
				if err := s.Replace(ctx, qdrantEntries(2)); err != nil {
					t.Fatalf("seed: %v", err)
				}
				s.vectorSize = 0
			}

			err := s.Replace(ctx, nil)
			if tt.wantErr {
				if err == nil {
					t.Fatal("want error when vector size cannot be resolved")
				}
				return
			}
			if err != nil {
				t.Fatalf("replace: %v", err)
			}
			if err := s.Ping(ctx); err != nil {
				t.Errorf("empty index must stay queryable: %v", err)
			}
			got, err := s.Search(ctx, []float32{1, 0}, 5)
			if err != nil {
				t.Fatalf("search: %v", err)
			}
			if len(got) != 0 {
				t.Errorf("want no candidates, got %d", len(got))
			}
		})
	}
}

func Test_QdrantStore_ResetKeepsCollection(t *testing.T) {
	t.Parallel()
	s, _ := newTestQdrant(t, 0)
	ctx := context.Background()

	if err := s.Reset(ctx); err != nil {
		t.Fatalf("reset on nothing: %v", err)
	}
	if err := s.Add(ctx, qdrantEntries(4)); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := s.Reset(ctx); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if err := s.Ping(ctx); err != nil {
		t.Errorf("ping after reset: %v", err)
	}
}

func Test_QdrantStore_ReplaceMigratesPlainCollection(t *testing.T) {
	t.Parallel()
	s, fake := newTestQdrant(t, 2)
	ctx := context.Background()
	fake.collections["courses"] = &fakeCollection{}

	if err := s.Replace(ctx, qdrantEntries(1)); err != nil {
		t.Fatalf("replace: %v", err)
	}
	if _, plain := fake.collections["courses"]; plain {
		t.Error("plain collection should be replaced by an alias")
	}
	if fake.aliases["courses"] == "" {
		t.Error("alias not created")
	}
}

func Test_QdrantStore_PingMissingCollection(t *testing.T) {
	t.Parallel()
	s, _ := newTestQdrant(t, 0)
	if err := s.Ping(context.Background()); !errors.Is(err, ErrIndexUnavailable) {
		t.Fatalf("want ErrIndexUnavailable, got %v", err)
	}
}
