package mode

import (
	"testing"
	"time"
)

func TestHistory_Suppress(t *testing.T) {
	now := time.Now()
	h := NewHistory()
	h.now = func() time.Time { return now }

	if h.Suppress("firefox") {
		t.Fatal("first execution suppressed")
	}
	if !h.Suppress("firefox") {
		t.Fatal("immediate repeat not suppressed")
	}
	if h.Suppress("kgx") {
		t.Fatal("unrelated key suppressed")
	}

	// Just past the duplicate window: allowed again.
	now = now.Add(duplicateWindow + time.Millisecond)
	if h.Suppress("firefox") {
		t.Fatal("repeat after window suppressed")
	}

	// Past retention the record is purged entirely.
	now = now.Add(retention + time.Millisecond)
	if h.Suppress("firefox") {
		t.Fatal("repeat after retention suppressed")
	}
	if len(h.records) != 1 {
		t.Errorf("records = %d after purge, want 1", len(h.records))
	}
}
