package ingestion

import (
	"context"
	"errors"
	"maps"
	"strings"
	"testing"

	"github.com/54b3r/coursematch/internal/catalog"
	"github.com/54b3r/coursematch/internal/document"
	"github.com/54b3r/coursematch/internal/rag"
)

// ---------------------------------------------------------------------------
// Fakes
// ---------------------------------------------------------------------------

type fakeCourses struct {
	records []catalog.CourseRecord
	err     error
}

func (f *fakeCourses) List(_ context.Context, _ int) ([]catalog.CourseRecord, error) {
	return f.records, f.err
}

// fakeEmbedder maps texts mentioning "인공지능" near (1,0) and everything
// else near (0,1). Texts containing emptyFor get an empty vector.
type fakeEmbedder struct {
	err      error
	emptyFor string
	calls    int
}

func (f *fakeEmbedder) EmbedEach(_ context.Context, texts []string, progress func(int)) ([][]float32, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		if f.emptyFor != "" && strings.Contains(t, f.emptyFor) {
			out[i] = []float32{}
			continue
		}
		if strings.Contains(t, "인공지능") {
			out[i] = []float32{1, 0.1}
		} else {
			out[i] = []float32{0.1, 1}
		}
	}
	if progress != nil {
		progress(len(out))
	}
	return out, nil
}

func twoCourses() []catalog.CourseRecord {
	return []catalog.CourseRecord{
		{ID: 1, SubjectName: "인공지능개론", Professor: "김교수", Course: catalog.CourseInfo{CourseObjective: "인공지능 기초"}},
		{ID: 2, SubjectName: "영어회화", Professor: "Smith"},
	}
}

// longCourse renders to several chunks under the default chunk size.
func longCourse() catalog.CourseRecord {
	return catalog.CourseRecord{
		ID:          3,
		SubjectName: "딥러닝",
		Professor:   "이교수",
		Basic: catalog.BasicInfo{
			CourseObjective: strings.Repeat("인공지능 모델의 학습 원리와 응용을 실습한다. ", 60),
		},
	}
}

// recordingStore keeps the entries of the last Replace.
type recordingStore struct {
	*rag.LocalStore
	replaced []rag.Entry
}

func (r *recordingStore) Replace(ctx context.Context, entries []rag.Entry) error {
	r.replaced = entries
	return r.LocalStore.Replace(ctx, entries)
}

func openTestStore(t *testing.T) *rag.LocalStore {
	t.Helper()
	s, err := rag.OpenLocalStore(t.TempDir(), "courses", rag.ModeCreate)
	if err != nil {
		t.Fatalf("open local store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

// ---------------------------------------------------------------------------
// Tests
// ---------------------------------------------------------------------------

func Test_Pipeline_Build(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := openTestStore(t)

	p, err := NewPipeline(&fakeCourses{records: twoCourses()}, &fakeEmbedder{}, store, nil)
	if err != nil {
		t.Fatalf("NewPipeline: %v", err)
	}

	var chunked, embedded int
	stats, err := p.Build(ctx, &Progress{
		Chunked:  func(_, chunks int) { chunked = chunks },
		Embedded: func(done int) { embedded = done },
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if stats.Courses != 2 || stats.Skipped != 0 || stats.Chunks == 0 {
		t.Errorf("unexpected stats %+v", stats)
	}
	if chunked != stats.Chunks || embedded != stats.Chunks {
		t.Errorf("progress: chunked=%d embedded=%d, want %d", chunked, embedded, stats.Chunks)
	}

	n, err := store.Count(ctx)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != stats.Chunks {
		t.Errorf("store count: want %d, got %d", stats.Chunks, n)
	}

	got, err := store.Search(ctx, []float32{1, 0}, 1)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(got) != 1 || got[0].Metadata[document.KeySubjectName] != "인공지능개론" {
		t.Errorf("want 인공지능개론 first, got %+v", got)
	}
	if len(got[0].Metadata) != len(document.MetadataKeys) {
		t.Errorf("want %d metadata keys, got %d", len(document.MetadataKeys), len(got[0].Metadata))
	}
}

func Test_Pipeline_RebuildReplaces(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := openTestStore(t)
	src := &fakeCourses{records: twoCourses()}

	p, err := NewPipeline(src, &fakeEmbedder{}, store, nil)
	if err != nil {
		t.Fatalf("NewPipeline: %v", err)
	}
	first, err := p.Build(ctx, nil)
	if err != nil {
		t.Fatalf("first build: %v", err)
	}
	if _, err := p.Build(ctx, nil); err != nil {
		t.Fatalf("second build: %v", err)
	}

	n, _ := store.Count(ctx)
	if n != first.Chunks {
		t.Errorf("rebuild should replace, not append: want %d, got %d", first.Chunks, n)
	}
}

func Test_Pipeline_EmbeddingFailureLeavesStoreUntouched(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := openTestStore(t)

	good, err := NewPipeline(&fakeCourses{records: twoCourses()}, &fakeEmbedder{}, store, nil)
	if err != nil {
		t.Fatalf("NewPipeline: %v", err)
	}
	before, err := good.Build(ctx, nil)
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	failing := &fakeEmbedder{err: errors.Join(rag.ErrEmbeddingService, errors.New("timeout"))}
	bad, _ := NewPipeline(&fakeCourses{records: twoCourses()[:1]}, failing, store, nil)
	if _, err := bad.Build(ctx, nil); !errors.Is(err, rag.ErrEmbeddingService) {
		t.Fatalf("want ErrEmbeddingService, got %v", err)
	}

	n, _ := store.Count(ctx)
	if n != before.Chunks {
		t.Errorf("store modified after embedding failure: want %d, got %d", before.Chunks, n)
	}
}

func Test_Pipeline_StoreFailureLeavesPreviousIndex(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := openTestStore(t)

	good, err := NewPipeline(&fakeCourses{records: twoCourses()}, &fakeEmbedder{}, store, nil)
	if err != nil {
		t.Fatalf("NewPipeline: %v", err)
	}
	before, err := good.Build(ctx, nil)
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	// The second course embeds to an empty vector, which the store rejects
	// after the first course has already been written inside the swap.
	bad, _ := NewPipeline(&fakeCourses{records: twoCourses()}, &fakeEmbedder{emptyFor: "영어회화"}, store, nil)
	if _, err := bad.Build(ctx, nil); err == nil {
		t.Fatal("want error from store")
	}

	n, _ := store.Count(ctx)
	if n != before.Chunks {
		t.Errorf("previous index lost: want %d chunks, got %d", before.Chunks, n)
	}
	got, err := store.Search(ctx, []float32{0, 1}, 1)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(got) != 1 || got[0].Metadata[document.KeySubjectName] != "영어회화" {
		t.Errorf("want previous 영어회화 chunk still searchable, got %+v", got)
	}
}

func Test_Pipeline_MultiChunkCourse(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := &recordingStore{LocalStore: openTestStore(t)}

	p, err := NewPipeline(&fakeCourses{records: []catalog.CourseRecord{longCourse()}}, &fakeEmbedder{}, store, nil)
	if err != nil {
		t.Fatalf("NewPipeline: %v", err)
	}
	stats, err := p.Build(ctx, nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	entries := store.replaced
	if stats.Chunks < 2 || len(entries) != stats.Chunks {
		t.Fatalf("want at least 2 chunks, stats=%+v entries=%d", stats, len(entries))
	}

	ids := make(map[string]bool, len(entries))
	for i, e := range entries {
		if ids[e.ID] {
			t.Errorf("chunk %d reuses id %s", i, e.ID)
		}
		ids[e.ID] = true

		if n := len([]rune(e.Text)); n > DefaultChunkSize {
			t.Errorf("chunk %d has %d runes, max %d", i, n, DefaultChunkSize)
		}
		if !maps.Equal(e.Metadata, entries[0].Metadata) {
			t.Errorf("chunk %d metadata differs from chunk 0", i)
		}
		if i == 0 {
			continue
		}
		prev, cur := []rune(entries[i-1].Text), []rune(e.Text)
		if string(prev[len(prev)-DefaultChunkOverlap:]) != string(cur[:DefaultChunkOverlap]) {
			t.Errorf("chunks %d/%d do not share %d runes", i-1, i, DefaultChunkOverlap)
		}
	}
	if entries[0].Metadata[document.KeySubjectName] != "딥러닝" {
		t.Errorf("unexpected metadata %v", entries[0].Metadata)
	}
}

func Test_NewPipeline_ChunkDefaults(t *testing.T) {
	t.Parallel()
	store := openTestStore(t)
	tests := []struct {
		name        string
		cfg         *Config
		wantSize    int
		wantOverlap int
	}{
		{"nil config", nil, DefaultChunkSize, DefaultChunkOverlap},
		{"zero config", &Config{}, DefaultChunkSize, DefaultChunkOverlap},
		{"negative values", &Config{ChunkSize: -1, ChunkOverlap: -1}, DefaultChunkSize, DefaultChunkOverlap},
		{"explicit size, zero overlap", &Config{ChunkSize: 300}, 300, 0},
		{"default size, explicit overlap", &Config{ChunkOverlap: 50}, DefaultChunkSize, 50},
		{"explicit both", &Config{ChunkSize: 800, ChunkOverlap: 150}, 800, 150},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			p, err := NewPipeline(&fakeCourses{}, &fakeEmbedder{}, store, tt.cfg)
			if err != nil {
				t.Fatalf("NewPipeline: %v", err)
			}
			if p.splitter.MaxSize() != tt.wantSize || p.splitter.Overlap() != tt.wantOverlap {
				t.Errorf("want %d/%d, got %d/%d", tt.wantSize, tt.wantOverlap,
					p.splitter.MaxSize(), p.splitter.Overlap())
			}
		})
	}
}

func Test_Pipeline_EmptyCatalogResets(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := openTestStore(t)
	if err := store.Add(ctx, []rag.Entry{{ID: "old", Vector: []float32{1}, Text: "stale"}}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	emb := &fakeEmbedder{}
	p, _ := NewPipeline(&fakeCourses{}, emb, store, nil)
	stats, err := p.Build(ctx, nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if stats.Chunks != 0 {
		t.Errorf("want 0 chunks, got %d", stats.Chunks)
	}
	if n, _ := store.Count(ctx); n != 0 {
		t.Errorf("want empty store, got %d", n)
	}
}

func Test_Pipeline_ListError(t *testing.T) {
	t.Parallel()
	p, _ := NewPipeline(&fakeCourses{err: catalog.ErrInvalidRecord}, &fakeEmbedder{}, openTestStore(t), nil)
	if _, err := p.Build(context.Background(), nil); !errors.Is(err, catalog.ErrInvalidRecord) {
		t.Fatalf("want ErrInvalidRecord, got %v", err)
	}
}

func Test_NewPipeline_Validation(t *testing.T) {
	t.Parallel()
	store := openTestStore(t)
	tests := []struct {
		name    string
		courses CourseSource
		emb     BatchEmbedder
		store   rag.VectorStore
		cfg     *Config
		wantErr bool
	}{
		{"ok defaults", &fakeCourses{}, &fakeEmbedder{}, store, nil, false},
		{"nil courses", nil, &fakeEmbedder{}, store, nil, true},
		{"nil embedder", &fakeCourses{}, nil, store, nil, true},
		{"nil store", &fakeCourses{}, &fakeEmbedder{}, nil, nil, true},
		{"overlap too large", &fakeCourses{}, &fakeEmbedder{}, store, &Config{ChunkSize: 10, ChunkOverlap: 10}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := NewPipeline(tt.courses, tt.emb, tt.store, tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Errorf("wantErr=%v, got %v", tt.wantErr, err)
			}
		})
	}
}

func Test_courseKey(t *testing.T) {
	t.Parallel()
	if got := courseKey(catalog.CourseRecord{ID: 7}); got != "course:7" {
		t.Errorf("stored record: got %q", got)
	}
	if got := courseKey(catalog.CourseRecord{SubjectCode: "CS101", ClassNumber: "01"}); got != "course:CS101-01" {
		t.Errorf("unstored record: got %q", got)
	}
}
