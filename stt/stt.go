// Package stt provides the speech-to-text engine interface and its
// local and API-backed implementations.
package stt

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// Backend names accepted by New.
const (
	BackendLocal  = "local"
	BackendOpenAI = "openai"
)

// Engine transcribes 16 kHz mono float32 audio.
type Engine interface {
	Transcribe(ctx context.Context, samples []float32) (string, error)
	Close() error
}

// Config selects and parameterizes an engine backend.
type Config struct {
	Backend  string
	ModelDir string // Directory holding local model files.
	Model    string // Local model file name, e.g. "ggml-tiny.en.bin".
	GPU      bool
	APIKey   string
}

// DefaultModelDir returns the directory local models are stored in.
func DefaultModelDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	return filepath.Join(home, ".local", "share", "willow", "models"), nil
}

// New builds the engine for cfg.Backend.
func New(cfg Config) (Engine, error) {
	switch cfg.Backend {
	case BackendLocal, "":
		return NewWhisperLocal(cfg)
	case BackendOpenAI:
		return NewWhisperAPI(cfg)
	default:
		return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
	}
}
