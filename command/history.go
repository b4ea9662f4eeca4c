package command

import (
	"sync"

	"taskdash-api/domain"
)

// history is the bounded terminal scrollback. Only the most recent limit
// entries are retained.
type history struct {
	mu      sync.Mutex
	limit   int
	entries []domain.HistoryEntry
}

func newHistory(limit int) *history {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	return &history{limit: limit}
}

func (h *history) append(entry domain.HistoryEntry) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.entries = append(h.entries, entry)
	if len(h.entries) > h.limit {
		h.entries = h.entries[len(h.entries)-h.limit:]
	}
}

func (h *history) snapshot() []domain.HistoryEntry {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make([]domain.HistoryEntry, len(h.entries))
	copy(out, h.entries)
	return out
}

func (h *history) clear() {
	h.mu.Lock()
	h.entries = nil
	h.mu.Unlock()
}
