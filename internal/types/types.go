// Package types provides shared type definitions for the service.
package types

// Command maps a set of spoken trigger phrases to a shell action.
// Action names the mode package reserves (exit_command_mode,
// start_typing_mode) request mode transitions instead of spawning a
// process.
type Command struct {
	Name    string   `json:"name"`
	Action  string   `json:"command"`
	Phrases []string `json:"phrases"`
}

// Status is the snapshot reported to the control surface.
type Status struct {
	Running      bool   `json:"is_running"`
	Mode         string `json:"current_mode"`
	Buffer       string `json:"current_buffer"`
	CommandCount int    `json:"command_count"`
	EngineLoaded bool   `json:"engine_loaded"`
}
