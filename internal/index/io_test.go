package index

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/bookfinder-io/bookfinder/internal/domain"
)

func buildTestCorpus(t *testing.T, precision string) *Corpus {
	t.Helper()
	embedder := &stubEmbedder{dims: 8}
	b, holder := newTestBuilder(embedder, precision)
	if _, err := b.Build(context.Background(), testBooks(), false); err != nil {
		t.Fatalf("build corpus: %v", err)
	}
	return holder.Corpus()
}

func TestSaveLoad_RoundTripFloat16(t *testing.T) {
	dir := t.TempDir()
	corpus := buildTestCorpus(t, PrecisionFloat16)

	if err := Save(corpus, dir, PrecisionFloat16); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := Load(dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if loaded.Len() != corpus.Len() {
		t.Fatalf("len = %d, want %d", loaded.Len(), corpus.Len())
	}
	if loaded.Model() != corpus.Model() {
		t.Errorf("model = %q, want %q", loaded.Model(), corpus.Model())
	}

	// Build-time quantization means vectors survive the cycle bit-exact.
	for i := 0; i < corpus.Len(); i++ {
		if loaded.Book(i).ISBN != corpus.Book(i).ISBN {
			t.Errorf("record %d: isbn %q != %q", i, loaded.Book(i).ISBN, corpus.Book(i).ISBN)
		}
		want, got := corpus.Embedding(i), loaded.Embedding(i)
		for j := range want {
			if got[j] != want[j] {
				t.Fatalf("embedding %d[%d] = %v, want %v", i, j, got[j], want[j])
			}
		}
	}

	// The restored keyword space transforms queries identically.
	query := "wizard magic school"
	want := corpus.KeywordSpace().Transform(query)
	got := loaded.KeywordSpace().Transform(query)
	if len(want) != len(got) {
		t.Fatalf("keyword transform differs: %v vs %v", want, got)
	}
	for term, w := range want {
		if got[term] != w {
			t.Errorf("term %q: %v != %v", term, got[term], w)
		}
	}
}

func TestSaveLoad_RoundTripFloat32(t *testing.T) {
	dir := t.TempDir()
	corpus := buildTestCorpus(t, PrecisionFloat32)

	if err := Save(corpus, dir, PrecisionFloat32); err != nil {
		t.Fatalf("save: %v", err)
	}
	loaded, err := Load(dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	for i := 0; i < corpus.Len(); i++ {
		want, got := corpus.Embedding(i), loaded.Embedding(i)
		for j := range want {
			if got[j] != want[j] {
				t.Fatalf("embedding %d[%d] = %v, want %v", i, j, got[j], want[j])
			}
		}
	}
}

func TestLoad_MissingDirFailsClosed(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Fatal("expected error for missing cache")
	}
}

func TestLoad_PartialPairFailsClosed(t *testing.T) {
	dir := t.TempDir()
	corpus := buildTestCorpus(t, PrecisionFloat16)
	if err := Save(corpus, dir, PrecisionFloat16); err != nil {
		t.Fatalf("save: %v", err)
	}

	// Drop one half of the pair.
	if err := writeGob(filepath.Join(dir, recordsFileName), recordsFile{}); err != nil {
		t.Fatalf("overwrite records: %v", err)
	}

	if _, err := Load(dir); err == nil {
		t.Fatal("expected error for inconsistent pair")
	}
}

func TestLoad_DimensionMismatchFailsClosed(t *testing.T) {
	dir := t.TempDir()

	vf := vectorsFile{Precision: PrecisionFloat32, Dimensions: 4, Full: [][]float32{{1, 2, 3, 4}}}
	rf := recordsFile{Books: []domain.Book{{ISBN: "1111111111", Title: "A"}}, Dimensions: 8}
	if err := writeGob(filepath.Join(dir, vectorsFileName), vf); err != nil {
		t.Fatalf("write vectors: %v", err)
	}
	if err := writeGob(filepath.Join(dir, recordsFileName), rf); err != nil {
		t.Fatalf("write records: %v", err)
	}

	_, err := Load(dir)
	if !errors.Is(err, domain.ErrInconsistentIndex) {
		t.Fatalf("err = %v, want ErrInconsistentIndex", err)
	}
}

func TestLoad_EmptyVectorFileFailsClosed(t *testing.T) {
	dir := t.TempDir()

	if err := writeGob(filepath.Join(dir, vectorsFileName), vectorsFile{Dimensions: 4}); err != nil {
		t.Fatalf("write vectors: %v", err)
	}
	if err := writeGob(filepath.Join(dir, recordsFileName), recordsFile{Dimensions: 4}); err != nil {
		t.Fatalf("write records: %v", err)
	}

	_, err := Load(dir)
	if !errors.Is(err, domain.ErrInconsistentIndex) {
		t.Fatalf("err = %v, want ErrInconsistentIndex", err)
	}
}
