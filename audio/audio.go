// Package audio captures microphone input as 16 kHz mono float32
// chunks.
package audio

import (
	"fmt"
	"sync"

	"github.com/gordonklaus/portaudio"
)

// Stream format. ChunkSize is the number of samples delivered per
// Read.
const (
	SampleRate = 16000
	ChunkSize  = 4096
)

// Source delivers successive chunks of captured audio. Read blocks
// until a chunk is available; it returns an error once the source is
// closed.
type Source interface {
	Read() ([]float32, error)
	Close() error
}

// Microphone captures from the default input device through
// PortAudio.
type Microphone struct {
	stream *portaudio.Stream
	buf    []float32

	mu     sync.Mutex
	closed bool
}

// NewMicrophone initializes PortAudio and opens the default input
// device.
func NewMicrophone() (*Microphone, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("initialize portaudio: %w", err)
	}

	m := &Microphone{buf: make([]float32, ChunkSize)}

	stream, err := portaudio.OpenDefaultStream(1, 0, SampleRate, len(m.buf), m.buf)
	if err != nil {
		_ = portaudio.Terminate()
		return nil, fmt.Errorf("open input stream: %w", err)
	}
	m.stream = stream

	if err := stream.Start(); err != nil {
		_ = stream.Close()
		_ = portaudio.Terminate()
		return nil, fmt.Errorf("start input stream: %w", err)
	}
	return m, nil
}

// Read blocks until the next chunk is captured. The returned slice is
// a copy and safe to retain.
func (m *Microphone) Read() ([]float32, error) {
	if err := m.stream.Read(); err != nil {
		m.mu.Lock()
		closed := m.closed
		m.mu.Unlock()
		if closed {
			return nil, fmt.Errorf("microphone closed: %w", err)
		}
		return nil, fmt.Errorf("read microphone: %w", err)
	}

	out := make([]float32, len(m.buf))
	copy(out, m.buf)
	return out, nil
}

// Close stops the stream and shuts PortAudio down. Any blocked Read
// returns with an error.
func (m *Microphone) Close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	m.mu.Unlock()

	err := m.stream.Abort()
	if cerr := m.stream.Close(); err == nil {
		err = cerr
	}
	if terr := portaudio.Terminate(); err == nil {
		err = terr
	}
	return err
}
