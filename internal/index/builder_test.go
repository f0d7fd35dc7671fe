package index

import (
	"context"
	"errors"
	"sync"
	"testing"

	"go.uber.org/zap"

	"github.com/bookfinder-io/bookfinder/internal/domain"
)

// --- Mocks ---

// stubEmbedder derives a deterministic vector from the text so ranking
// tests are reproducible without a provider.
type stubEmbedder struct {
	dims  int
	err   error
	calls int
}

func (s *stubEmbedder) Embed(_ context.Context, text string) (domain.EmbeddingResult, error) {
	s.calls++
	if s.err != nil {
		return domain.EmbeddingResult{}, s.err
	}
	vec := make([]float32, s.dims)
	for i, r := range text {
		vec[i%s.dims] += float32(r%13) / 13
	}
	return domain.EmbeddingResult{Embedding: vec, TotalTokens: len(text)}, nil
}

func testBooks() []domain.Book {
	return []domain.Book{
		{ISBN: "1111111111", Title: "Wizard School", Description: "A young wizard learns magic at school.", Genres: "Fantasy"},
		{ISBN: "2222222222", Title: "Space Opera", Description: "A ship crew crosses the galaxy.", Genres: "Science Fiction"},
		{ISBN: "3333333333", Title: "No Blurb"},
	}
}

func newTestBuilder(embedder domain.Embedder, precision string) (*Builder, *Holder) {
	holder := NewHolder()
	b := NewBuilder(embedder, holder, Options{
		TruncationLength: 500,
		TFIDFMaxFeatures: 100,
		Precision:        precision,
		Model:            "test-model",
	}, zap.NewNop())
	return b, holder
}

// --- Tests ---

func TestBuild_SkipsBooksWithoutDescription(t *testing.T) {
	embedder := &stubEmbedder{dims: 8}
	b, holder := newTestBuilder(embedder, PrecisionFloat32)

	report, err := b.Build(context.Background(), testBooks(), false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.Indexed != 2 || report.Skipped != 1 {
		t.Errorf("report = %+v, want 2 indexed / 1 skipped", report)
	}
	if !holder.Ready() {
		t.Fatal("corpus should be published")
	}
	if holder.Corpus().Len() != 2 {
		t.Errorf("corpus len = %d, want 2", holder.Corpus().Len())
	}
	if _, ok := holder.Corpus().IndexOf("3333333333"); ok {
		t.Error("description-less book must not be indexed")
	}
}

func TestBuild_AlreadyBuiltWithoutForce(t *testing.T) {
	embedder := &stubEmbedder{dims: 8}
	b, _ := newTestBuilder(embedder, PrecisionFloat32)

	if _, err := b.Build(context.Background(), testBooks(), false); err != nil {
		t.Fatalf("first build: %v", err)
	}
	callsAfterFirst := embedder.calls

	report, err := b.Build(context.Background(), testBooks(), false)
	if err != nil {
		t.Fatalf("second build: %v", err)
	}
	if !report.AlreadyBuilt {
		t.Error("expected AlreadyBuilt without force")
	}
	if embedder.calls != callsAfterFirst {
		t.Error("no embedding calls expected for a skipped build")
	}
}

func TestBuild_ForceRebuilds(t *testing.T) {
	embedder := &stubEmbedder{dims: 8}
	b, holder := newTestBuilder(embedder, PrecisionFloat32)

	if _, err := b.Build(context.Background(), testBooks(), false); err != nil {
		t.Fatalf("first build: %v", err)
	}
	first := holder.Corpus()

	report, err := b.Build(context.Background(), testBooks(), true)
	if err != nil {
		t.Fatalf("forced build: %v", err)
	}
	if report.AlreadyBuilt {
		t.Error("forced build must not report AlreadyBuilt")
	}
	if holder.Corpus() == first {
		t.Error("forced build should publish a new corpus snapshot")
	}
}

func TestBuild_NoValidRecordsLeavesCorpusUntouched(t *testing.T) {
	embedder := &stubEmbedder{dims: 8}
	b, holder := newTestBuilder(embedder, PrecisionFloat32)

	if _, err := b.Build(context.Background(), testBooks(), false); err != nil {
		t.Fatalf("seed build: %v", err)
	}
	previous := holder.Corpus()

	report, err := b.Build(context.Background(), []domain.Book{{ISBN: "4444444444", Title: "Bare"}}, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.Indexed != 0 || report.Skipped != 1 {
		t.Errorf("report = %+v, want 0 indexed / 1 skipped", report)
	}
	if holder.Corpus() != previous {
		t.Error("a no-op build must not touch the active corpus")
	}
}

func TestBuild_EmbedFailureLeavesCorpusUntouched(t *testing.T) {
	good := &stubEmbedder{dims: 8}
	b, holder := newTestBuilder(good, PrecisionFloat32)
	if _, err := b.Build(context.Background(), testBooks(), false); err != nil {
		t.Fatalf("seed build: %v", err)
	}
	previous := holder.Corpus()

	good.err = errors.New("provider down")
	if _, err := b.Build(context.Background(), testBooks(), true); err == nil {
		t.Fatal("expected error from failing embedder")
	}
	if holder.Corpus() != previous {
		t.Error("failed build must leave the previous corpus active")
	}
}

func TestBuild_Float16QuantizesInMemory(t *testing.T) {
	embedder := &stubEmbedder{dims: 8}
	b, holder := newTestBuilder(embedder, PrecisionFloat16)

	if _, err := b.Build(context.Background(), testBooks(), false); err != nil {
		t.Fatalf("build: %v", err)
	}

	c := holder.Corpus()
	for i := 0; i < c.Len(); i++ {
		for j, f := range c.Embedding(i) {
			if round := float16frombits(float16bits(f)); round != f {
				t.Fatalf("embedding %d[%d] = %v not half-precision quantized", i, j, f)
			}
		}
	}
}

func TestBuild_ConcurrentReadersSeeConsistentSnapshots(t *testing.T) {
	embedder := &stubEmbedder{dims: 8}
	b, holder := newTestBuilder(embedder, PrecisionFloat32)
	if _, err := b.Build(context.Background(), testBooks(), false); err != nil {
		t.Fatalf("seed build: %v", err)
	}

	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			c := holder.Corpus()
			if c == nil {
				t.Error("corpus vanished during rebuild")
				return
			}
			// Every snapshot a reader grabs must be internally aligned,
			// whichever side of the swap it came from.
			for i := 0; i < c.Len(); i++ {
				if len(c.Embedding(i)) != c.Dimensions() {
					t.Errorf("record %d: %d dimensions, corpus says %d", i, len(c.Embedding(i)), c.Dimensions())
					return
				}
				if c.Keyword(i) == nil {
					t.Errorf("record %d has no keyword vector", i)
					return
				}
			}
			select {
			case <-done:
				return
			default:
			}
		}
	}()

	bigger := append(testBooks(), domain.Book{
		ISBN: "5555555555", Title: "Wizard School Sequel",
		Description: "The wizard returns for a second year of magic.", Genres: "Fantasy",
	})
	for i := 0; i < 25; i++ {
		books := testBooks()
		if i%2 == 1 {
			books = bigger
		}
		if _, err := b.Build(context.Background(), books, true); err != nil {
			t.Fatalf("rebuild %d: %v", i, err)
		}
	}
	close(done)
	wg.Wait()
}

func TestStats(t *testing.T) {
	embedder := &stubEmbedder{dims: 8}
	b, _ := newTestBuilder(embedder, PrecisionFloat16)

	stats := b.Stats()
	if stats.Indexed {
		t.Error("empty builder should not report indexed")
	}
	if stats.Model != "test-model" {
		t.Errorf("model = %q", stats.Model)
	}

	if _, err := b.Build(context.Background(), testBooks(), false); err != nil {
		t.Fatalf("build: %v", err)
	}

	stats = b.Stats()
	if !stats.Indexed || stats.Count != 2 || stats.Dimensions != 8 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestNewCorpus_AlignmentInvariant(t *testing.T) {
	books := []domain.Book{{ISBN: "1111111111", Title: "A"}}

	_, err := NewCorpus(books, nil, nil, nil, "m", 0)
	if !errors.Is(err, domain.ErrInconsistentIndex) {
		t.Errorf("misaligned corpus: err = %v, want ErrInconsistentIndex", err)
	}

	_, err = NewCorpus(books, [][]float32{{1, 2}}, []map[string]float64{{}}, nil, "m", 3)
	if !errors.Is(err, domain.ErrInconsistentIndex) {
		t.Errorf("dimension mismatch: err = %v, want ErrInconsistentIndex", err)
	}
}

func TestHolder_SwapAndClear(t *testing.T) {
	holder := NewHolder()
	if holder.Ready() {
		t.Error("new holder must not be ready")
	}

	c, err := NewCorpus(
		[]domain.Book{{ISBN: "1111111111", Title: "A"}},
		[][]float32{{1, 0}},
		[]map[string]float64{{}},
		nil, "m", 2,
	)
	if err != nil {
		t.Fatalf("NewCorpus: %v", err)
	}

	holder.Swap(c)
	if !holder.Ready() || holder.Corpus() != c {
		t.Error("swap did not publish the corpus")
	}

	holder.Clear()
	if holder.Corpus() != nil {
		t.Error("clear did not drop the corpus")
	}
}
