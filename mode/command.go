package mode

import (
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/saim/willow/executor"
	"github.com/saim/willow/internal/types"
	"github.com/saim/willow/metrics"
)

// smartOpenTriggers start a dynamic application launch, e.g. "open
// spotify" for an app no configured command names.
var smartOpenTriggers = []string{"open ", "launch ", "start "}

// CommandWorker matches transcriptions against configured commands,
// smart-open requests, and smart-search requests, and executes the
// winner.
type CommandWorker struct {
	log     *slog.Logger
	actions Actions
	history *History
	running atomic.Bool

	mu        sync.Mutex
	commands  []types.Command
	threshold float64
	buffer    string

	onModeChange func(Mode)
	onExecuted   func(action, phrase string, score float64)
	onError      func(err error)
}

// NewCommandWorker creates the command-mode worker. threshold is the
// minimum match score (0-1) a configured command needs to execute.
func NewCommandWorker(actions Actions, commands []types.Command, threshold float64, log *slog.Logger) *CommandWorker {
	if log == nil {
		log = slog.Default()
	}
	return &CommandWorker{
		log:       log.With("mode", Command.String()),
		actions:   actions,
		history:   NewHistory(),
		commands:  commands,
		threshold: threshold,
	}
}

// SetModeChangeFunc installs the mode-transition callback.
func (w *CommandWorker) SetModeChangeFunc(fn func(Mode)) { w.onModeChange = fn }

// SetExecutedFunc installs the callback invoked after each execution.
func (w *CommandWorker) SetExecutedFunc(fn func(action, phrase string, score float64)) {
	w.onExecuted = fn
}

// SetErrorFunc installs the callback for execution failures.
func (w *CommandWorker) SetErrorFunc(fn func(err error)) { w.onError = fn }

// SetCommands swaps the command table without restarting the worker.
func (w *CommandWorker) SetCommands(commands []types.Command, threshold float64) {
	w.mu.Lock()
	w.commands = commands
	w.threshold = threshold
	w.mu.Unlock()
}

// CommandCount returns the size of the command table.
func (w *CommandWorker) CommandCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.commands)
}

func (w *CommandWorker) Start() {
	w.mu.Lock()
	w.buffer = ""
	w.mu.Unlock()
	w.running.Store(true)
	w.log.Info("command mode started", "commands", w.CommandCount())
}

func (w *CommandWorker) Stop()         { w.running.Store(false) }
func (w *CommandWorker) Running() bool { return w.running.Load() }

// Buffer returns the last transcription heard in command mode.
func (w *CommandWorker) Buffer() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.buffer
}

// ProcessTranscription tries, in order: smart open, smart search, and
// the configured command table. An unresolved smart request falls
// through to the command table.
func (w *CommandWorker) ProcessTranscription(text string) {
	if !w.running.Load() {
		return
	}

	w.mu.Lock()
	w.buffer = text
	commands := w.commands
	threshold := w.threshold
	w.mu.Unlock()

	if w.trySmartOpen(text) {
		return
	}
	if w.trySmartSearch(text) {
		return
	}

	cmd, phrase, score := executor.FindBestMatch(text, commands)
	if cmd == nil || score < threshold {
		w.log.Debug("no command matched", "text", text, "score", score)
		return
	}

	if w.history.Suppress(cmd.Name) {
		metrics.DuplicatesSuppressed.Inc()
		w.log.Info("duplicate suppressed", "command", cmd.Name)
		return
	}

	switch cmd.Action {
	case ActionExitCommandMode:
		w.log.Info("returning to normal mode", "phrase", phrase)
		if w.onModeChange != nil {
			w.onModeChange(Normal)
		}
		return
	case ActionStartTypingMode:
		w.log.Info("entering typing mode", "phrase", phrase)
		if w.onModeChange != nil {
			w.onModeChange(Typing)
		}
		return
	}

	w.execute(cmd.Action, phrase, score)
}

// trySmartOpen handles "open <app>" style requests. It reports
// whether the transcription was consumed; an unknown app falls
// through so a configured command can still match.
func (w *CommandWorker) trySmartOpen(text string) bool {
	var spokenName string
	for _, trigger := range smartOpenTriggers {
		if strings.HasPrefix(text, trigger) {
			spokenName = strings.TrimSpace(strings.TrimPrefix(text, trigger))
			break
		}
	}
	if spokenName == "" {
		return false
	}

	app := w.actions.FindApp(spokenName)
	if app == "" {
		w.log.Debug("no app for smart open", "spoken", spokenName)
		return false
	}

	if w.history.Suppress("smart_open_" + spokenName) {
		metrics.DuplicatesSuppressed.Inc()
		w.log.Info("duplicate smart open suppressed", "app", app)
		return true
	}

	w.log.Info("smart open", "spoken", spokenName, "app", app)
	w.execute(app, text, 1.0)
	return true
}

// trySmartSearch handles "search <engine> for <query>" requests.
func (w *CommandWorker) trySmartSearch(text string) bool {
	rest, ok := strings.CutPrefix(text, "search ")
	if !ok {
		return false
	}
	engine, query, ok := strings.Cut(rest, " for ")
	if !ok || strings.TrimSpace(query) == "" {
		return false
	}
	engine = strings.TrimSpace(engine)
	query = strings.TrimSpace(query)

	url, ok := w.actions.SearchURL(engine, query)
	if !ok {
		w.log.Debug("unknown search engine", "engine", engine)
		return false
	}

	if w.history.Suppress("smart_search_" + engine + "_" + query) {
		metrics.DuplicatesSuppressed.Inc()
		w.log.Info("duplicate smart search suppressed", "engine", engine)
		return true
	}

	w.log.Info("smart search", "engine", engine, "query", query)
	if err := w.actions.OpenURL(url); err != nil {
		w.log.Error("open search url failed", "error", err)
		if w.onError != nil {
			w.onError(err)
		}
		return true
	}
	metrics.CommandsExecuted.Inc()
	if w.onExecuted != nil {
		w.onExecuted(url, text, 1.0)
	}
	return true
}

func (w *CommandWorker) execute(action, phrase string, score float64) {
	if err := w.actions.Run(action); err != nil {
		w.log.Error("execution failed", "action", action, "error", err)
		if w.onError != nil {
			w.onError(err)
		}
		return
	}
	metrics.CommandsExecuted.Inc()
	if w.onExecuted != nil {
		w.onExecuted(action, phrase, score)
	}
}
