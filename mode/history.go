package mode

import (
	"sync"
	"time"
)

const (
	// duplicateWindow is how recently an execution must have happened
	// for a repeat to be suppressed.
	duplicateWindow = 2 * time.Second
	// retention bounds how long records are kept at all.
	retention = 5 * time.Second
)

// History suppresses rapid duplicate executions. Whisper often hears
// the tail of an utterance twice across adjacent segments; the window
// absorbs that without blocking deliberate repeats.
type History struct {
	mu      sync.Mutex
	now     func() time.Time
	records map[string]time.Time
}

// NewHistory creates an empty execution history.
func NewHistory() *History {
	return &History{
		now:     time.Now,
		records: make(map[string]time.Time),
	}
}

// Suppress reports whether key executed within the duplicate window.
// When it did not, the execution is recorded.
func (h *History) Suppress(key string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	now := h.now()
	for k, at := range h.records {
		if now.Sub(at) > retention {
			delete(h.records, k)
		}
	}

	if at, ok := h.records[key]; ok && now.Sub(at) <= duplicateWindow {
		return true
	}
	h.records[key] = now
	return false
}
