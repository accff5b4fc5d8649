package stt

import (
	"bytes"
	"encoding/binary"
	"testing"
)

func TestEncodeWAV(t *testing.T) {
	samples := []float32{0, 0.5, -0.5, 1.0, -1.0, 2.0, -2.0}
	data := encodeWAV(samples, 16000)

	if len(data) != 44+len(samples)*2 {
		t.Fatalf("len = %d, want %d", len(data), 44+len(samples)*2)
	}
	if !bytes.Equal(data[:4], []byte("RIFF")) || !bytes.Equal(data[8:12], []byte("WAVE")) {
		t.Error("missing RIFF/WAVE header")
	}

	rate := binary.LittleEndian.Uint32(data[24:28])
	if rate != 16000 {
		t.Errorf("sample rate = %d, want 16000", rate)
	}
	channels := binary.LittleEndian.Uint16(data[22:24])
	if channels != 1 {
		t.Errorf("channels = %d, want 1", channels)
	}

	// Out-of-range samples clamp rather than wrap.
	pcm := data[44:]
	over := int16(binary.LittleEndian.Uint16(pcm[10:12]))
	under := int16(binary.LittleEndian.Uint16(pcm[12:14]))
	if over != 32767 {
		t.Errorf("clamped high sample = %d, want 32767", over)
	}
	if under != -32767 {
		t.Errorf("clamped low sample = %d, want -32767", under)
	}
}

func TestNew_UnknownBackend(t *testing.T) {
	if _, err := New(Config{Backend: "cloud"}); err == nil {
		t.Fatal("New() error = nil, want unknown backend error")
	}
}

func TestNewWhisperAPI_RequiresKey(t *testing.T) {
	if _, err := NewWhisperAPI(Config{}); err == nil {
		t.Fatal("NewWhisperAPI() error = nil, want missing key error")
	}
}
