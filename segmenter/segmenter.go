// Package segmenter turns a continuous 16 kHz mono sample stream into
// discrete speech segments using energy-based voice activity
// detection, and hands each segment to a speech engine.
package segmenter

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/saim/willow/metrics"
)

// Stream format constants. All audio entering the segmenter is 16 kHz
// mono float32.
const (
	SampleRate      = 16000
	FramesPerSecond = 50
	FrameSize       = SampleRate / FramesPerSecond // 20 ms
)

// Engine transcribes a finished speech segment.
type Engine interface {
	Transcribe(ctx context.Context, samples []float32) (string, error)
}

// Tuning holds the per-mode detection parameters.
type Tuning struct {
	// VADThreshold is the mean-square energy above which a frame
	// counts as voice.
	VADThreshold float32
	// SilenceDuration is how long silence must persist before an open
	// segment closes.
	SilenceDuration time.Duration
	// MinSpeechDuration is the shortest segment worth transcribing.
	MinSpeechDuration time.Duration
}

// Segmenter accumulates frames into speech segments. ProcessChunk is
// called from a single capture goroutine; tuning, engine, and callback
// may be swapped concurrently from control paths.
type Segmenter struct {
	mu       sync.RWMutex
	tuning   Tuning
	engine   Engine
	callback func(text string)

	log *slog.Logger

	// Segment state, owned by the capture goroutine.
	speaking      bool
	buffer        []float32
	speechFrames  int
	silenceFrames int
}

// New creates a Segmenter with the given initial tuning.
func New(tuning Tuning, log *slog.Logger) *Segmenter {
	if log == nil {
		log = slog.Default()
	}
	return &Segmenter{
		tuning: tuning,
		log:    log.With("component", "segmenter"),
	}
}

// SetEngine swaps the speech engine. A nil engine drops finished
// segments until a new one is installed.
func (s *Segmenter) SetEngine(engine Engine) {
	s.mu.Lock()
	s.engine = engine
	s.mu.Unlock()
}

// EngineLoaded reports whether a speech engine is installed.
func (s *Segmenter) EngineLoaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.engine != nil
}

// SetTuning swaps the detection parameters. The current segment keeps
// accumulating; new parameters apply from the next frame.
func (s *Segmenter) SetTuning(tuning Tuning) {
	s.mu.Lock()
	s.tuning = tuning
	s.mu.Unlock()
}

// SetCallback installs the function invoked with each non-empty
// normalized transcription.
func (s *Segmenter) SetCallback(fn func(text string)) {
	s.mu.Lock()
	s.callback = fn
	s.mu.Unlock()
}

// Reset discards any open segment.
func (s *Segmenter) Reset() {
	s.speaking = false
	s.buffer = nil
	s.speechFrames = 0
	s.silenceFrames = 0
}

// ProcessChunk feeds captured samples through the detector frame by
// frame. A trailing partial frame is ignored.
func (s *Segmenter) ProcessChunk(ctx context.Context, samples []float32) {
	s.mu.RLock()
	tuning := s.tuning
	s.mu.RUnlock()

	silenceLimit := int(tuning.SilenceDuration.Seconds() * FramesPerSecond)

	for off := 0; off+FrameSize <= len(samples); off += FrameSize {
		frame := samples[off : off+FrameSize]
		voice := frameEnergy(frame) > tuning.VADThreshold

		switch {
		case voice:
			if !s.speaking {
				s.speaking = true
				s.log.Debug("segment opened")
			}
			s.buffer = append(s.buffer, frame...)
			s.speechFrames++
			s.silenceFrames = 0

		case s.speaking:
			// Silence inside an open segment is kept so the engine
			// sees natural word boundaries.
			s.buffer = append(s.buffer, frame...)
			s.silenceFrames++
			if s.silenceFrames >= silenceLimit {
				s.closeSegment(ctx, tuning)
			}
		}
	}
}

// Flush closes any open segment immediately, as if silence had
// elapsed.
func (s *Segmenter) Flush(ctx context.Context) {
	if !s.speaking {
		return
	}
	s.mu.RLock()
	tuning := s.tuning
	s.mu.RUnlock()
	s.closeSegment(ctx, tuning)
}

func (s *Segmenter) closeSegment(ctx context.Context, tuning Tuning) {
	segment := s.buffer
	speechFrames := s.speechFrames
	s.Reset()

	metrics.SegmentsClosed.Inc()

	speech := time.Duration(speechFrames) * time.Second / FramesPerSecond
	if speech < tuning.MinSpeechDuration {
		metrics.SegmentsDiscarded.Inc()
		s.log.Debug("segment discarded", "speech", speech)
		return
	}

	s.mu.RLock()
	engine := s.engine
	callback := s.callback
	s.mu.RUnlock()

	if engine == nil {
		s.log.Warn("segment dropped, no engine loaded")
		return
	}

	start := time.Now()
	text, err := engine.Transcribe(ctx, segment)
	metrics.TranscribeDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		s.log.Error("transcription failed", "error", err)
		return
	}

	text = Normalize(text)
	if text == "" {
		return
	}

	metrics.TranscriptionsAccepted.Inc()
	s.log.Info("transcription", "text", text, "speech", speech)
	if callback != nil {
		callback(text)
	}
}

// frameEnergy returns the mean-square energy of a frame.
func frameEnergy(frame []float32) float32 {
	var sum float32
	for _, v := range frame {
		sum += v * v
	}
	return sum / float32(len(frame))
}
