package index

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/bookfinder-io/bookfinder/internal/domain"
	"github.com/bookfinder-io/bookfinder/internal/metrics"
	"github.com/bookfinder-io/bookfinder/internal/vectorizer/tfidf"
)

// Options holds the index build knobs.
type Options struct {
	TruncationLength int    // description runes fed to the vectorizer (0 = no cap)
	TFIDFMaxFeatures int    // keyword vocabulary cap
	Precision        string // "float32" | "float16"
	Model            string // embedding model identifier, for statistics
}

// Precision values.
const (
	PrecisionFloat32 = "float32"
	PrecisionFloat16 = "float16"
)

// BuildReport summarizes an index build.
type BuildReport struct {
	Indexed      int  `json:"indexed"`
	Skipped      int  `json:"skipped"` // records without a description
	AlreadyBuilt bool `json:"already_built,omitempty"`
}

// Statistics describes the active corpus.
type Statistics struct {
	Count      int    `json:"total_books"`
	Dimensions int    `json:"embedding_dimension"`
	Model      string `json:"model_name"`
	Indexed    bool   `json:"indexed"`
	Precision  string `json:"precision"`
}

// Builder constructs corpora and publishes them through a Holder.
// Builds are serialized; readers keep their snapshot throughout.
type Builder struct {
	mu       sync.Mutex
	embedder domain.Embedder
	holder   *Holder
	opts     Options
	logger   *zap.Logger
}

// NewBuilder creates a corpus builder.
func NewBuilder(embedder domain.Embedder, holder *Holder, opts Options, logger *zap.Logger) *Builder {
	return &Builder{embedder: embedder, holder: holder, opts: opts, logger: logger}
}

// Build vectorizes the given records and swaps the result in as the active
// corpus. Records without a description are skipped and counted. Without
// force, a build over an existing corpus is a no-op reporting AlreadyBuilt.
// A vectorization failure leaves the previous corpus untouched.
func (b *Builder) Build(ctx context.Context, books []domain.Book, force bool) (BuildReport, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.holder.Ready() && !force {
		b.logger.Info("Index already built, skipping (use force to rebuild)")
		return BuildReport{
			Indexed:      b.holder.Corpus().Len(),
			AlreadyBuilt: true,
		}, nil
	}

	valid := make([]domain.Book, 0, len(books))
	for _, book := range books {
		if book.HasDescription() {
			valid = append(valid, book)
		}
	}
	skipped := len(books) - len(valid)

	if len(valid) == 0 {
		b.logger.Warn("No records with descriptions, index left unchanged",
			zap.Int("skipped", skipped))
		return BuildReport{Skipped: skipped}, nil
	}

	start := time.Now()
	b.logger.Info("Building search index",
		zap.Int("records", len(valid)),
		zap.Int("skipped", skipped),
		zap.String("precision", b.opts.Precision),
	)

	texts := make([]string, len(valid))
	for i, book := range valid {
		texts[i] = book.IndexText(b.opts.TruncationLength)
	}

	embeddings := make([][]float32, len(texts))
	dimensions := 0
	for i, text := range texts {
		res, err := b.embedder.Embed(ctx, text)
		if err != nil {
			return BuildReport{}, fmt.Errorf("embed record %s: %w", valid[i].ISBN, err)
		}
		if b.opts.Precision == PrecisionFloat16 {
			// Quantize now so in-memory scores match a save/load cycle.
			quantizeHalf(res.Embedding)
		}
		embeddings[i] = res.Embedding
		if i == 0 {
			dimensions = len(res.Embedding)
		}
	}

	space := tfidf.New(b.opts.TFIDFMaxFeatures)
	space.Fit(texts)

	keywords := make([]map[string]float64, len(texts))
	for i, text := range texts {
		keywords[i] = space.Transform(text)
	}

	corpus, err := NewCorpus(valid, embeddings, keywords, space, b.opts.Model, dimensions)
	if err != nil {
		return BuildReport{}, fmt.Errorf("assemble corpus: %w", err)
	}

	b.holder.Swap(corpus)
	metrics.IndexedBooks.Set(float64(corpus.Len()))
	metrics.IndexBuildDuration.Observe(time.Since(start).Seconds())

	b.logger.Info("Search index built",
		zap.Int("indexed", corpus.Len()),
		zap.Int("skipped", skipped),
		zap.Int("dimensions", dimensions),
		zap.Int("vocabulary", space.Dimensions()),
		zap.Duration("took", time.Since(start)),
	)

	return BuildReport{Indexed: corpus.Len(), Skipped: skipped}, nil
}

// Stats describes the active corpus.
func (b *Builder) Stats() Statistics {
	stats := Statistics{
		Model:     b.opts.Model,
		Precision: b.opts.Precision,
	}
	if c := b.holder.Corpus(); c != nil {
		stats.Count = c.Len()
		stats.Dimensions = c.Dimensions()
		stats.Indexed = c.Len() > 0
		if c.Model() != "" {
			stats.Model = c.Model()
		}
	}
	return stats
}
