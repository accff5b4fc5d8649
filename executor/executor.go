// Package executor provides the side-effecting primitives shared by
// all mode workers: spawning actions, simulating keystrokes, phrase
// matching, and app/search resolution.
package executor

import (
	"fmt"
	"log/slog"
	"os/exec"
	"strings"

	"github.com/spf13/afero"
)

// ydotool simulates keyboard input on Wayland; it is probed on PATH
// before every use so a missing install degrades to a logged error.
const keystrokeTool = "ydotool"

// Executor runs actions and keystroke simulations. Spawned actions are
// detached into the user session and never waited on.
type Executor struct {
	log *slog.Logger
	ctx ContextConfig

	// Injection points for tests.
	lookPath func(file string) (string, error)
	spawn    func(name string, args ...string) error
}

// New creates an Executor, loading the context configuration from its
// fixed path on fsys. A missing context document is not an error.
func New(fsys afero.Fs, log *slog.Logger) *Executor {
	if log == nil {
		log = slog.Default()
	}
	return &Executor{
		log:      log.With("component", "executor"),
		ctx:      LoadContext(fsys, log),
		lookPath: exec.LookPath,
		spawn:    spawnDetached,
	}
}

// Context returns the loaded context configuration.
func (e *Executor) Context() ContextConfig { return e.ctx }

// Run launches action as a detached, session-scoped background
// process. systemd-run gives the process the interactive session's
// environment and keeps it alive after the assistant exits. The call
// returns as soon as the process is started.
func (e *Executor) Run(action string) error {
	e.log.Info("executing action", "action", action)

	err := e.spawn("systemd-run", "--user", "--scope", "--slice=app.slice", "sh", "-c", action)
	if err != nil {
		return fmt.Errorf("spawn %q: %w", action, err)
	}
	return nil
}

// OpenURL opens url in the default browser.
func (e *Executor) OpenURL(url string) error {
	return e.Run("xdg-open " + shellQuote(url))
}

// TypeText sends text to the focused window through the keystroke
// tool.
func (e *Executor) TypeText(text string) error {
	if text == "" {
		return nil
	}
	if _, err := e.lookPath(keystrokeTool); err != nil {
		return fmt.Errorf("%s not available: %w", keystrokeTool, err)
	}

	e.log.Info("typing text", "length", len(text))
	return e.spawn("sh", "-c", keystrokeTool+" type "+shellQuote(text))
}

// PressKey presses a single key code.
func (e *Executor) PressKey(keyCode string) error {
	return e.PressKeyCombo(keyCode)
}

// PressKeyCombo presses a sequence of key codes in one invocation.
func (e *Executor) PressKeyCombo(keyCodes ...string) error {
	if len(keyCodes) == 0 {
		return nil
	}
	if _, err := e.lookPath(keystrokeTool); err != nil {
		return fmt.Errorf("%s not available: %w", keystrokeTool, err)
	}

	args := append([]string{"key"}, keyCodes...)
	return e.spawn(keystrokeTool, args...)
}

// spawnDetached starts the process and reaps it in the background so
// the capture thread never blocks on an action's runtime.
func spawnDetached(name string, args ...string) error {
	cmd := exec.Command(name, args...)
	if err := cmd.Start(); err != nil {
		return err
	}
	go func() { _ = cmd.Wait() }()
	return nil
}

// shellQuote wraps s in single quotes for the shell, escaping embedded
// single quotes.
func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
