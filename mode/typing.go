package mode

import (
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
)

// TypingWorker dictates transcriptions into the focused window until
// an exit phrase is heard.
type TypingWorker struct {
	log     *slog.Logger
	actions Actions
	running atomic.Bool

	mu          sync.Mutex
	exitPhrases []string
	buffer      string

	onModeChange func(Mode)
	onError      func(err error)
}

// NewTypingWorker creates the dictation worker. exitPhrases are
// matched as substrings of the lowercased transcription.
func NewTypingWorker(actions Actions, exitPhrases []string, log *slog.Logger) *TypingWorker {
	if log == nil {
		log = slog.Default()
	}
	return &TypingWorker{
		log:         log.With("mode", Typing.String()),
		actions:     actions,
		exitPhrases: exitPhrases,
	}
}

// SetModeChangeFunc installs the mode-transition callback.
func (w *TypingWorker) SetModeChangeFunc(fn func(Mode)) { w.onModeChange = fn }

// SetErrorFunc installs the callback for keystroke failures.
func (w *TypingWorker) SetErrorFunc(fn func(err error)) { w.onError = fn }

// SetExitPhrases swaps the exit phrase list.
func (w *TypingWorker) SetExitPhrases(phrases []string) {
	w.mu.Lock()
	w.exitPhrases = phrases
	w.mu.Unlock()
}

func (w *TypingWorker) Start() {
	w.mu.Lock()
	w.buffer = ""
	w.mu.Unlock()
	w.running.Store(true)
	w.log.Info("typing mode started")
}

func (w *TypingWorker) Stop()         { w.running.Store(false) }
func (w *TypingWorker) Running() bool { return w.running.Load() }

// Buffer returns the most recently dictated transcription.
func (w *TypingWorker) Buffer() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.buffer
}

// ProcessTranscription types text verbatim, or exits typing mode when
// an exit phrase appears.
func (w *TypingWorker) ProcessTranscription(text string) {
	if !w.running.Load() {
		return
	}

	lower := strings.ToLower(text)
	w.mu.Lock()
	phrases := w.exitPhrases
	w.mu.Unlock()
	for _, phrase := range phrases {
		if strings.Contains(lower, phrase) {
			w.log.Info("exit phrase heard", "phrase", phrase)
			if w.onModeChange != nil {
				w.onModeChange(Normal)
			}
			return
		}
	}

	if err := w.actions.TypeText(text); err != nil {
		w.log.Error("typing failed", "error", err)
		if w.onError != nil {
			w.onError(err)
		}
		return
	}

	w.mu.Lock()
	w.buffer = text
	w.mu.Unlock()
}
