// Package index holds the searchable corpus: book records aligned by
// position with their dense embeddings and sparse keyword vectors, plus the
// fitted keyword space the vectors were built with.
package index

import (
	"fmt"

	"github.com/bookfinder-io/bookfinder/internal/domain"
	"github.com/bookfinder-io/bookfinder/internal/vectorizer/tfidf"
)

// Corpus is an immutable snapshot of the indexed catalog. Position i in
// books, embeddings and keywords refers to the same record. Rebuilds
// construct a new Corpus and publish it through a Holder swap; an existing
// Corpus is never mutated.
type Corpus struct {
	books      []domain.Book
	embeddings [][]float32
	keywords   []map[string]float64
	space      *tfidf.Vectorizer
	byISBN     map[string]int
	model      string
	dimensions int
}

// NewCorpus assembles a corpus and verifies the alignment invariant.
func NewCorpus(
	books []domain.Book,
	embeddings [][]float32,
	keywords []map[string]float64,
	space *tfidf.Vectorizer,
	model string,
	dimensions int,
) (*Corpus, error) {
	if len(books) != len(embeddings) || len(books) != len(keywords) {
		return nil, fmt.Errorf(
			"%w: %d records, %d embeddings, %d keyword vectors",
			domain.ErrInconsistentIndex, len(books), len(embeddings), len(keywords),
		)
	}
	for i, emb := range embeddings {
		if len(emb) != dimensions {
			return nil, fmt.Errorf(
				"%w: embedding %d has %d dimensions, want %d",
				domain.ErrInconsistentIndex, i, len(emb), dimensions,
			)
		}
	}

	byISBN := make(map[string]int, len(books))
	for i, b := range books {
		byISBN[b.ISBN] = i
	}

	return &Corpus{
		books:      books,
		embeddings: embeddings,
		keywords:   keywords,
		space:      space,
		byISBN:     byISBN,
		model:      model,
		dimensions: dimensions,
	}, nil
}

// Len returns the number of indexed records.
func (c *Corpus) Len() int { return len(c.books) }

// Book returns the record at position i.
func (c *Corpus) Book(i int) domain.Book { return c.books[i] }

// Embedding returns the dense vector at position i.
func (c *Corpus) Embedding(i int) []float32 { return c.embeddings[i] }

// Keyword returns the sparse TF-IDF vector at position i.
func (c *Corpus) Keyword(i int) map[string]float64 { return c.keywords[i] }

// KeywordSpace returns the fitted vectorizer queries must be transformed with.
func (c *Corpus) KeywordSpace() *tfidf.Vectorizer { return c.space }

// IndexOf returns the position of the record with the given ISBN.
func (c *Corpus) IndexOf(isbn string) (int, bool) {
	i, ok := c.byISBN[isbn]
	return i, ok
}

// Model returns the embedding model identifier the corpus was built with.
func (c *Corpus) Model() string { return c.model }

// Dimensions returns the dense vector dimensionality.
func (c *Corpus) Dimensions() int { return c.dimensions }
