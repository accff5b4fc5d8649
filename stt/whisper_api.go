package stt

import (
	"bytes"
	"context"
	"fmt"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// WhisperAPI transcribes through OpenAI's hosted Whisper endpoint.
type WhisperAPI struct {
	client openai.Client
}

// NewWhisperAPI creates the API-backed engine. cfg.APIKey is required.
func NewWhisperAPI(cfg Config) (*WhisperAPI, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai backend requires an API key")
	}
	return &WhisperAPI{
		client: openai.NewClient(option.WithAPIKey(cfg.APIKey)),
	}, nil
}

// Transcribe uploads samples as a WAV file and returns the
// transcription text.
func (w *WhisperAPI) Transcribe(ctx context.Context, samples []float32) (string, error) {
	wav := encodeWAV(samples, 16000)

	resp, err := w.client.Audio.Transcriptions.New(ctx, openai.AudioTranscriptionNewParams{
		File:  openai.File(bytes.NewReader(wav), "segment.wav", "audio/wav"),
		Model: openai.AudioModelWhisper1,
	})
	if err != nil {
		return "", fmt.Errorf("transcription request: %w", err)
	}
	return resp.Text, nil
}

// Close is a no-op; the API client holds no resources.
func (w *WhisperAPI) Close() error { return nil }
