package core

import "sync"

// DefaultHistorySize is the number of outcomes kept when none is configured.
const DefaultHistorySize = 100

// History keeps the most recent run outcomes in memory, oldest evicted
// first.
type History struct {
	mu    sync.RWMutex
	items []Outcome
	limit int
}

// NewHistory returns a history holding at most limit outcomes.
func NewHistory(limit int) *History {
	if limit <= 0 {
		limit = DefaultHistorySize
	}
	return &History{limit: limit}
}

// Add records an outcome.
func (h *History) Add(o Outcome) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.items = append(h.items, o)
	if over := len(h.items) - h.limit; over > 0 {
		h.items = append(h.items[:0:0], h.items[over:]...)
	}
}

// Recent returns up to n outcomes, newest first. n <= 0 returns all.
func (h *History) Recent(n int) []Outcome {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if n <= 0 || n > len(h.items) {
		n = len(h.items)
	}
	out := make([]Outcome, 0, n)
	for i := len(h.items) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, h.items[i])
	}
	return out
}

// Last returns the newest outcome for a source.
func (h *History) Last(source string) (Outcome, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for i := len(h.items) - 1; i >= 0; i-- {
		if h.items[i].Source == source {
			return h.items[i], true
		}
	}
	return Outcome{}, false
}
