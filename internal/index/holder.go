package index

import "sync/atomic"

// Holder owns the active corpus reference. Readers take a snapshot with
// Corpus() and keep using it for the whole request; a concurrent rebuild
// swaps the pointer without disturbing in-flight readers.
type Holder struct {
	current atomic.Pointer[Corpus]
}

// NewHolder creates an empty holder.
func NewHolder() *Holder {
	return &Holder{}
}

// Corpus returns the active snapshot, or nil when nothing is indexed.
func (h *Holder) Corpus() *Corpus {
	return h.current.Load()
}

// Swap publishes a new corpus atomically.
func (h *Holder) Swap(c *Corpus) {
	h.current.Store(c)
}

// Ready reports whether a non-empty corpus is active.
func (h *Holder) Ready() bool {
	c := h.current.Load()
	return c != nil && c.Len() > 0
}

// Clear drops the active corpus.
func (h *Holder) Clear() {
	h.current.Store(nil)
}
