package app

// Event names emitted over the control surface.
const (
	EventModeChanged     = "mode-changed"
	EventBufferChanged   = "buffer-changed"
	EventCommandExecuted = "command-executed"
	EventError           = "error"
	EventNotification    = "notification"
	EventConfigChanged   = "config-changed"
)

// Emitter receives service events. The control surface implements
// this to forward events as D-Bus signals.
type Emitter interface {
	Emit(name string, data any)
}

// ModeChange is the payload of EventModeChanged.
type ModeChange struct {
	Old string `json:"old"`
	New string `json:"new"`
}

// BufferChange is the payload of EventBufferChanged.
type BufferChange struct {
	Text string `json:"text"`
}

// CommandExecution is the payload of EventCommandExecuted.
type CommandExecution struct {
	Action string  `json:"action"`
	Phrase string  `json:"phrase"`
	Score  float64 `json:"score"`
}

// ErrorEvent is the payload of EventError.
type ErrorEvent struct {
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

// Notification is the payload of EventNotification.
type Notification struct {
	Title   string `json:"title"`
	Message string `json:"message"`
	Urgency string `json:"urgency"`
}

// ConfigChange is the payload of EventConfigChanged.
type ConfigChange struct {
	Document string `json:"document"`
}
