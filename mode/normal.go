package mode

import (
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
)

// NormalWorker waits for the hotword and switches to command mode
// when it hears it.
type NormalWorker struct {
	log     *slog.Logger
	running atomic.Bool

	mu      sync.Mutex
	hotword string

	onModeChange func(Mode)
}

// NewNormalWorker creates the hotword listener. hotword is matched
// case-insensitively anywhere in the transcription.
func NewNormalWorker(hotword string, log *slog.Logger) *NormalWorker {
	if log == nil {
		log = slog.Default()
	}
	return &NormalWorker{
		log:     log.With("mode", Normal.String()),
		hotword: strings.ToLower(hotword),
	}
}

// SetModeChangeFunc installs the mode-transition callback.
func (w *NormalWorker) SetModeChangeFunc(fn func(Mode)) { w.onModeChange = fn }

// SetHotword swaps the hotword without restarting the worker.
func (w *NormalWorker) SetHotword(hotword string) {
	w.mu.Lock()
	w.hotword = strings.ToLower(hotword)
	w.mu.Unlock()
}

func (w *NormalWorker) Start() {
	w.running.Store(true)
	w.mu.Lock()
	hotword := w.hotword
	w.mu.Unlock()
	w.log.Info("listening for hotword", "hotword", hotword)
}

func (w *NormalWorker) Stop()          { w.running.Store(false) }
func (w *NormalWorker) Running() bool  { return w.running.Load() }
func (w *NormalWorker) Buffer() string { return "" }

// ProcessTranscription switches to command mode when the hotword
// appears.
func (w *NormalWorker) ProcessTranscription(text string) {
	if !w.running.Load() {
		return
	}
	w.mu.Lock()
	hotword := w.hotword
	w.mu.Unlock()
	if !strings.Contains(strings.ToLower(text), hotword) {
		return
	}
	w.log.Info("hotword detected", "text", text)
	if w.onModeChange != nil {
		w.onModeChange(Command)
	}
}
