package stt

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/ggerganov/whisper.cpp/bindings/go/pkg/whisper"
)

// WhisperLocal transcribes with an in-process whisper.cpp model.
type WhisperLocal struct {
	mu    sync.Mutex
	model whisper.Model
	path  string
}

// NewWhisperLocal loads the model named by cfg from cfg.ModelDir.
// cfg.GPU is accepted for configuration compatibility but has no
// effect: these bindings expose no GPU toggle, so placement is
// decided at whisper.cpp build time.
func NewWhisperLocal(cfg Config) (*WhisperLocal, error) {
	dir := cfg.ModelDir
	if dir == "" {
		var err error
		dir, err = DefaultModelDir()
		if err != nil {
			return nil, err
		}
	}
	name := cfg.Model
	if name == "" {
		name = "ggml-tiny.en.bin"
	}

	path := filepath.Join(dir, name)
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("model %s: %w", path, err)
	}

	model, err := whisper.New(path)
	if err != nil {
		return nil, fmt.Errorf("load model %s: %w", path, err)
	}

	return &WhisperLocal{model: model, path: path}, nil
}

// Transcribe runs the model over samples and concatenates the segment
// texts. whisper.cpp contexts are not reusable across concurrent
// calls, so transcriptions are serialized.
func (w *WhisperLocal) Transcribe(ctx context.Context, samples []float32) (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return "", err
	}

	wctx, err := w.model.NewContext()
	if err != nil {
		return "", fmt.Errorf("new whisper context: %w", err)
	}

	if err := wctx.Process(samples, nil); err != nil {
		return "", fmt.Errorf("process audio: %w", err)
	}

	var b strings.Builder
	for {
		segment, err := wctx.NextSegment()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("read segment: %w", err)
		}
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(strings.TrimSpace(segment.Text))
	}
	return b.String(), nil
}

// Close releases the model.
func (w *WhisperLocal) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.model == nil {
		return nil
	}
	err := w.model.Close()
	w.model = nil
	return err
}
