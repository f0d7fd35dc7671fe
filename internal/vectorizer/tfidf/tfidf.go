// Package tfidf implements a fit/transform TF-IDF keyword space with a
// serializable fitted state. The vocabulary is fit once per index build and
// reused for every query transform; vectors are sparse term->weight maps.
package tfidf

import (
	"math"
	"sort"
	"strings"
	"sync"
)

// DefaultMaxFeatures caps the vocabulary when no limit is configured.
const DefaultMaxFeatures = 2000

// Vectorizer converts text into sparse TF-IDF vectors over a fitted
// vocabulary of unigrams and bigrams.
type Vectorizer struct {
	mu          sync.RWMutex
	maxFeatures int
	idf         map[string]float64
	vocabulary  []string
	totalDocs   int
	fitted      bool
}

// New creates an unfitted vectorizer. maxFeatures <= 0 uses DefaultMaxFeatures.
func New(maxFeatures int) *Vectorizer {
	if maxFeatures <= 0 {
		maxFeatures = DefaultMaxFeatures
	}
	return &Vectorizer{
		maxFeatures: maxFeatures,
		idf:         make(map[string]float64),
	}
}

// Fit builds the vocabulary and IDF weights from the document corpus.
// Terms are ranked by document frequency (ties broken lexicographically,
// so fitting is deterministic) and capped at maxFeatures.
func (v *Vectorizer) Fit(documents []string) {
	v.mu.Lock()
	defer v.mu.Unlock()

	docFreq := make(map[string]int)
	for _, doc := range documents {
		seen := make(map[string]struct{})
		for _, term := range tokenize(doc) {
			if _, ok := seen[term]; ok {
				continue
			}
			seen[term] = struct{}{}
			docFreq[term]++
		}
	}

	terms := make([]string, 0, len(docFreq))
	for term := range docFreq {
		terms = append(terms, term)
	}
	sort.Slice(terms, func(i, j int) bool {
		if docFreq[terms[i]] != docFreq[terms[j]] {
			return docFreq[terms[i]] > docFreq[terms[j]]
		}
		return terms[i] < terms[j]
	})
	if len(terms) > v.maxFeatures {
		terms = terms[:v.maxFeatures]
	}

	v.totalDocs = len(documents)
	v.vocabulary = terms
	v.idf = make(map[string]float64, len(terms))
	for _, term := range terms {
		// Smoothed IDF keeps weights positive even for terms present
		// in every document.
		v.idf[term] = math.Log(float64(1+v.totalDocs)/float64(1+docFreq[term])) + 1
	}
	v.fitted = true
}

// Transform converts text into a sparse vector in the fitted space.
// Terms outside the vocabulary are dropped; empty or out-of-vocabulary
// text yields an empty (zero) vector, never an error.
func (v *Vectorizer) Transform(text string) map[string]float64 {
	v.mu.RLock()
	defer v.mu.RUnlock()

	vec := make(map[string]float64)
	if !v.fitted {
		return vec
	}

	for _, term := range tokenize(text) {
		if _, ok := v.idf[term]; ok {
			vec[term]++
		}
	}
	for term, tf := range vec {
		vec[term] = tf * v.idf[term]
	}
	return vec
}

// Fitted reports whether Fit has been called.
func (v *Vectorizer) Fitted() bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.fitted
}

// Vocabulary returns the fitted terms in selection order.
func (v *Vectorizer) Vocabulary() []string {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.vocabulary
}

// Dimensions returns the vocabulary size.
func (v *Vectorizer) Dimensions() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return len(v.vocabulary)
}

// Snapshot is the serializable fitted state, persisted alongside the
// corpus so queries always transform in the space the corpus was built with.
type Snapshot struct {
	MaxFeatures int
	TotalDocs   int
	Vocabulary  []string
	IDF         map[string]float64
}

// Snapshot exports the fitted state.
func (v *Vectorizer) Snapshot() Snapshot {
	v.mu.RLock()
	defer v.mu.RUnlock()

	idf := make(map[string]float64, len(v.idf))
	for k, val := range v.idf {
		idf[k] = val
	}
	vocab := make([]string, len(v.vocabulary))
	copy(vocab, v.vocabulary)

	return Snapshot{
		MaxFeatures: v.maxFeatures,
		TotalDocs:   v.totalDocs,
		Vocabulary:  vocab,
		IDF:         idf,
	}
}

// Restore rebuilds a fitted vectorizer from a snapshot.
func Restore(s Snapshot) *Vectorizer {
	v := New(s.MaxFeatures)
	v.totalDocs = s.TotalDocs
	v.vocabulary = s.Vocabulary
	if s.IDF != nil {
		v.idf = s.IDF
	}
	v.fitted = len(s.Vocabulary) > 0 || s.TotalDocs > 0
	return v
}

// Cosine computes cosine similarity between two sparse vectors.
// Either vector being zero yields 0.
func Cosine(a, b map[string]float64) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for term, wa := range a {
		dot += wa * b[term]
		normA += wa * wa
	}
	for _, wb := range b {
		normB += wb * wb
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// stopWords is the english stop list applied before ngram extraction.
var stopWords = map[string]struct{}{
	"a": {}, "an": {}, "the": {}, "and": {}, "or": {}, "but": {},
	"in": {}, "on": {}, "at": {}, "to": {}, "for": {}, "of": {},
	"with": {}, "by": {}, "from": {}, "as": {}, "is": {}, "are": {},
	"was": {}, "were": {}, "be": {}, "been": {}, "being": {},
	"this": {}, "that": {}, "these": {}, "those": {}, "it": {},
	"its": {}, "his": {}, "her": {}, "their": {}, "has": {}, "have": {},
	"had": {}, "not": {}, "no": {}, "so": {}, "if": {}, "then": {},
	"than": {}, "into": {}, "about": {}, "over": {}, "after": {},
	"before": {}, "between": {}, "through": {}, "during": {},
	"he": {}, "she": {}, "they": {}, "we": {}, "you": {}, "i": {},
	"who": {}, "what": {}, "which": {}, "when": {}, "where": {},
	"will": {}, "would": {}, "can": {}, "could": {}, "all": {},
	"each": {}, "more": {}, "most": {}, "other": {}, "some": {},
	"such": {}, "only": {}, "own": {}, "same": {}, "very": {},
	"also": {}, "there": {}, "out": {}, "up": {}, "down": {},
}

// tokenize lowercases, splits on non-alphanumeric runes, drops stop words
// and single characters, and returns unigrams plus adjacent bigrams.
func tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !isAlnum(r)
	})

	words := fields[:0]
	for _, w := range fields {
		if len(w) < 2 {
			continue
		}
		if _, ok := stopWords[w]; ok {
			continue
		}
		words = append(words, w)
	}

	terms := make([]string, 0, len(words)*2)
	terms = append(terms, words...)
	for i := 0; i+1 < len(words); i++ {
		terms = append(terms, words[i]+" "+words[i+1])
	}
	return terms
}

func isAlnum(r rune) bool {
	return r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r >= 0x80
}
