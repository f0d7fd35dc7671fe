package domain

import "errors"

var (
	// ErrBookNotFound signals a missing book record.
	ErrBookNotFound = errors.New("book not found")
	// ErrAlreadyIndexed signals a rebuild attempt without the force flag.
	ErrAlreadyIndexed = errors.New("index already built")
	// ErrNotIndexed signals that the corpus is empty.
	ErrNotIndexed = errors.New("index is empty")
	// ErrInconsistentIndex signals that persisted vectors and the fitted
	// keyword space disagree; the load fails closed.
	ErrInconsistentIndex = errors.New("inconsistent index cache")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrNoValidRecords signals a rebuild with zero indexable records.
	ErrNoValidRecords = errors.New("no records with descriptions to index")
)
