// Package mode implements the assistant's interaction modes. Each
// mode owns a worker that interprets transcriptions: normal mode
// listens for the hotword, command mode matches and executes
// commands, typing mode dictates text into the focused window.
package mode

import (
	"time"

	"github.com/saim/willow/segmenter"
)

// Mode identifies an interaction mode.
type Mode int

const (
	Normal Mode = iota
	Command
	Typing
)

func (m Mode) String() string {
	switch m {
	case Command:
		return "command"
	case Typing:
		return "typing"
	default:
		return "normal"
	}
}

// Parse maps a mode name to its Mode. Unknown names fall back to
// Normal.
func Parse(name string) Mode {
	switch name {
	case "command":
		return Command
	case "typing":
		return Typing
	default:
		return Normal
	}
}

// Tuning returns the detection parameters for a mode. Normal mode is
// sensitive and quick so the hotword lands fast; command and typing
// modes demand clearer speech and longer pauses so whole utterances
// arrive in one segment.
func (m Mode) Tuning() segmenter.Tuning {
	switch m {
	case Command:
		return segmenter.Tuning{
			VADThreshold:      0.001,
			SilenceDuration:   800 * time.Millisecond,
			MinSpeechDuration: 300 * time.Millisecond,
		}
	case Typing:
		return segmenter.Tuning{
			VADThreshold:      0.001,
			SilenceDuration:   time.Second,
			MinSpeechDuration: 300 * time.Millisecond,
		}
	default:
		return segmenter.Tuning{
			VADThreshold:      0.0005,
			SilenceDuration:   500 * time.Millisecond,
			MinSpeechDuration: 150 * time.Millisecond,
		}
	}
}

// Worker interprets transcriptions while its mode is active.
type Worker interface {
	Start()
	Stop()
	Running() bool
	// ProcessTranscription handles one normalized transcription.
	ProcessTranscription(text string)
	// Buffer returns the worker's visible text state, e.g. the text
	// typed so far in typing mode.
	Buffer() string
}

// Actions is the executor surface workers act through.
type Actions interface {
	Run(action string) error
	TypeText(text string) error
	FindApp(spokenName string) string
	SearchURL(engine, query string) (string, bool)
	OpenURL(url string) error
}

// Reserved command actions that request mode transitions instead of
// spawning a process.
const (
	ActionExitCommandMode = "exit_command_mode"
	ActionStartTypingMode = "start_typing_mode"
)
