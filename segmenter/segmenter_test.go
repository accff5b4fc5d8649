package segmenter

import (
	"context"
	"sync"
	"testing"
	"time"
)

type fakeEngine struct {
	mu       sync.Mutex
	text     string
	err      error
	segments [][]float32
}

func (f *fakeEngine) Transcribe(_ context.Context, samples []float32) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.segments = append(f.segments, samples)
	return f.text, f.err
}

func (f *fakeEngine) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.segments)
}

func testTuning() Tuning {
	return Tuning{
		VADThreshold:      0.0005,
		SilenceDuration:   100 * time.Millisecond, // 5 frames
		MinSpeechDuration: 60 * time.Millisecond,  // 3 frames
	}
}

// frames builds a chunk of n frames at the given per-sample amplitude.
func frames(n int, amplitude float32) []float32 {
	out := make([]float32, n*FrameSize)
	for i := range out {
		out[i] = amplitude
	}
	return out
}

const (
	loud  = 0.1   // energy 0.01, well above threshold
	quiet = 0.001 // energy 1e-6, below threshold
)

func TestSegmentation_SpeechBurstTranscribed(t *testing.T) {
	engine := &fakeEngine{text: "Hello, World!"}
	seg := New(testTuning(), nil)
	seg.SetEngine(engine)

	var got []string
	seg.SetCallback(func(text string) { got = append(got, text) })

	ctx := context.Background()
	seg.ProcessChunk(ctx, frames(10, loud))
	seg.ProcessChunk(ctx, frames(5, quiet))

	if engine.calls() != 1 {
		t.Fatalf("Transcribe called %d times, want 1", engine.calls())
	}
	if len(got) != 1 || got[0] != "hello world" {
		t.Errorf("callback got %v, want [hello world]", got)
	}

	// Speech frames plus the silence frames that closed the segment.
	if n := len(engine.segments[0]); n != 15*FrameSize {
		t.Errorf("segment length = %d samples, want %d", n, 15*FrameSize)
	}
}

func TestSegmentation_ShortBurstDiscarded(t *testing.T) {
	engine := &fakeEngine{text: "hm"}
	seg := New(testTuning(), nil)
	seg.SetEngine(engine)

	ctx := context.Background()
	seg.ProcessChunk(ctx, frames(2, loud))
	seg.ProcessChunk(ctx, frames(5, quiet))

	if engine.calls() != 0 {
		t.Errorf("Transcribe called %d times, want 0", engine.calls())
	}
}

func TestSegmentation_SilenceGapKeepsSegmentOpen(t *testing.T) {
	engine := &fakeEngine{text: "one two"}
	seg := New(testTuning(), nil)
	seg.SetEngine(engine)

	ctx := context.Background()
	seg.ProcessChunk(ctx, frames(5, loud))
	seg.ProcessChunk(ctx, frames(3, quiet)) // below silence limit
	seg.ProcessChunk(ctx, frames(5, loud))
	seg.ProcessChunk(ctx, frames(5, quiet))

	if engine.calls() != 1 {
		t.Fatalf("Transcribe called %d times, want 1", engine.calls())
	}
	if n := len(engine.segments[0]); n != 18*FrameSize {
		t.Errorf("segment length = %d samples, want %d", n, 18*FrameSize)
	}
}

func TestSegmentation_PureSilenceNeverOpens(t *testing.T) {
	engine := &fakeEngine{text: "ghost"}
	seg := New(testTuning(), nil)
	seg.SetEngine(engine)

	seg.ProcessChunk(context.Background(), frames(100, quiet))

	if engine.calls() != 0 {
		t.Errorf("Transcribe called %d times, want 0", engine.calls())
	}
}

func TestSegmentation_NoEngineDropsSegment(t *testing.T) {
	seg := New(testTuning(), nil)

	called := false
	seg.SetCallback(func(string) { called = true })

	ctx := context.Background()
	seg.ProcessChunk(ctx, frames(10, loud))
	seg.ProcessChunk(ctx, frames(5, quiet))

	if called {
		t.Error("callback fired without an engine")
	}

	// Installing an engine afterwards must not resurrect the segment.
	engine := &fakeEngine{text: "late"}
	seg.SetEngine(engine)
	seg.ProcessChunk(ctx, frames(5, quiet))
	if engine.calls() != 0 {
		t.Errorf("Transcribe called %d times after late install, want 0", engine.calls())
	}
}

func TestSegmentation_EmptyTranscriptionSkipsCallback(t *testing.T) {
	engine := &fakeEngine{text: "[BLANK_AUDIO]"}
	seg := New(testTuning(), nil)
	seg.SetEngine(engine)

	called := false
	seg.SetCallback(func(string) { called = true })

	ctx := context.Background()
	seg.ProcessChunk(ctx, frames(10, loud))
	seg.ProcessChunk(ctx, frames(5, quiet))

	if engine.calls() != 1 {
		t.Fatalf("Transcribe called %d times, want 1", engine.calls())
	}
	if called {
		t.Error("callback fired for annotation-only transcription")
	}
}

func TestFlush(t *testing.T) {
	engine := &fakeEngine{text: "cut off"}
	seg := New(testTuning(), nil)
	seg.SetEngine(engine)

	ctx := context.Background()
	seg.ProcessChunk(ctx, frames(10, loud))
	seg.Flush(ctx)

	if engine.calls() != 1 {
		t.Errorf("Transcribe called %d times after Flush, want 1", engine.calls())
	}

	// Flushing again is a no-op.
	seg.Flush(ctx)
	if engine.calls() != 1 {
		t.Errorf("Transcribe called %d times after second Flush, want 1", engine.calls())
	}
}

func TestProcessChunk_PartialFrameIgnored(t *testing.T) {
	engine := &fakeEngine{text: "x"}
	seg := New(testTuning(), nil)
	seg.SetEngine(engine)

	chunk := frames(1, loud)
	seg.ProcessChunk(context.Background(), chunk[:FrameSize-1])

	if seg.speaking {
		t.Error("partial frame opened a segment")
	}
}
