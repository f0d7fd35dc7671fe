package indexer

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/bookfinder-io/bookfinder/internal/domain"
	"github.com/bookfinder-io/bookfinder/internal/index"
	"github.com/bookfinder-io/bookfinder/internal/vectorizer/tfidf"
)

// --- Mocks ---

type mockSource struct {
	books []domain.Book
	err   error
}

func (m *mockSource) Recent(_ context.Context, _ int) ([]domain.Book, error) {
	return m.books, m.err
}

// mockBuilder publishes a prepared corpus on Build, like the real builder.
type mockBuilder struct {
	holder    *index.Holder
	corpus    *index.Corpus
	report    index.BuildReport
	err       error
	lastForce bool
	built     int
}

func (m *mockBuilder) Build(_ context.Context, _ []domain.Book, force bool) (index.BuildReport, error) {
	m.lastForce = force
	m.built++
	if m.err != nil {
		return index.BuildReport{}, m.err
	}
	if m.corpus != nil {
		m.holder.Swap(m.corpus)
	}
	return m.report, nil
}

func (m *mockBuilder) Stats() index.Statistics {
	return index.Statistics{Count: m.report.Indexed, Indexed: m.report.Indexed > 0}
}

func testCorpus(t *testing.T) *index.Corpus {
	t.Helper()
	books := []domain.Book{
		{ISBN: "1111111111", Title: "Wizard School", Description: "A wizard learns magic."},
	}
	space := tfidf.New(100)
	space.Fit([]string{books[0].IndexText(500)})

	corpus, err := index.NewCorpus(
		books,
		[][]float32{{0.5, 0.5}},
		[]map[string]float64{space.Transform(books[0].IndexText(500))},
		space, "test-model", 2,
	)
	if err != nil {
		t.Fatalf("NewCorpus: %v", err)
	}
	return corpus
}

// --- Tests ---

func TestRebuild_ForcesBuildAndPersists(t *testing.T) {
	dir := t.TempDir()
	holder := index.NewHolder()
	builder := &mockBuilder{holder: holder, corpus: testCorpus(t), report: index.BuildReport{Indexed: 1}}
	source := &mockSource{books: []domain.Book{{ISBN: "1111111111", Title: "Wizard School"}}}

	svc := New(source, builder, holder, dir, index.PrecisionFloat16, zap.NewNop())

	report, err := svc.Rebuild(context.Background())
	if err != nil {
		t.Fatalf("Rebuild: %v", err)
	}
	if !builder.lastForce {
		t.Error("rebuild must force")
	}
	if report.Indexed != 1 {
		t.Errorf("report = %+v", report)
	}

	// The persisted cache must be loadable again.
	loaded, err := index.Load(dir)
	if err != nil {
		t.Fatalf("load persisted cache: %v", err)
	}
	if loaded.Len() != 1 {
		t.Errorf("persisted corpus len = %d, want 1", loaded.Len())
	}
}

func TestRebuild_SourceErrorPropagates(t *testing.T) {
	srcErr := errors.New("db gone")
	holder := index.NewHolder()
	svc := New(&mockSource{err: srcErr}, &mockBuilder{holder: holder}, holder,
		t.TempDir(), index.PrecisionFloat16, zap.NewNop())

	if _, err := svc.Rebuild(context.Background()); !errors.Is(err, srcErr) {
		t.Fatalf("err = %v, want wrapped source error", err)
	}
}

func TestRebuild_BuilderErrorPropagates(t *testing.T) {
	buildErr := errors.New("provider down")
	holder := index.NewHolder()
	builder := &mockBuilder{holder: holder, err: buildErr}
	svc := New(&mockSource{}, builder, holder, t.TempDir(), index.PrecisionFloat16, zap.NewNop())

	if _, err := svc.Rebuild(context.Background()); !errors.Is(err, buildErr) {
		t.Fatalf("err = %v, want builder error", err)
	}
}

func TestBootstrap_LoadsPersistedIndex(t *testing.T) {
	dir := t.TempDir()
	corpus := testCorpus(t)
	if err := index.Save(corpus, dir, index.PrecisionFloat16); err != nil {
		t.Fatalf("seed cache: %v", err)
	}

	holder := index.NewHolder()
	svc := New(&mockSource{}, &mockBuilder{holder: holder}, holder,
		dir, index.PrecisionFloat16, zap.NewNop())

	svc.Bootstrap(context.Background())

	if !holder.Ready() {
		t.Fatal("bootstrap should publish the cached corpus")
	}
	if _, ok := holder.Corpus().IndexOf("1111111111"); !ok {
		t.Error("cached record missing after bootstrap")
	}
}

func TestBootstrap_MissingCacheStartsEmpty(t *testing.T) {
	holder := index.NewHolder()
	svc := New(&mockSource{}, &mockBuilder{holder: holder}, holder,
		t.TempDir(), index.PrecisionFloat16, zap.NewNop())

	svc.Bootstrap(context.Background())

	if holder.Corpus() != nil {
		t.Error("missing cache must leave the holder empty")
	}
}
