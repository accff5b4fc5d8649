// Package control exposes the service over the D-Bus session bus.
package control

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/godbus/dbus/v5"
	"github.com/godbus/dbus/v5/introspect"

	"github.com/saim/willow/internal/app"
	"github.com/saim/willow/mode"
)

const (
	// BusName is the well-known name claimed on the session bus.
	BusName = "com.github.saim.Willow"
	// ObjectPath is where the assistant object is exported.
	ObjectPath = "/com/github/saim/VoiceAssistant"
	// Interface is the D-Bus interface all methods and signals live
	// on.
	Interface = "com.github.saim.Willow"
)

// Server exports the service on the session bus and forwards service
// events as signals.
type Server struct {
	log  *slog.Logger
	svc  *app.Service
	conn *dbus.Conn
}

// New connects to the session bus, claims the well-known name, and
// exports the control object.
func New(svc *app.Service, log *slog.Logger) (*Server, error) {
	if log == nil {
		log = slog.Default()
	}

	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, fmt.Errorf("connect session bus: %w", err)
	}

	s := &Server{
		log:  log.With("component", "control"),
		svc:  svc,
		conn: conn,
	}

	if err := conn.Export(s, ObjectPath, Interface); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("export object: %w", err)
	}
	if err := conn.Export(introspect.NewIntrospectable(s.node()), ObjectPath,
		"org.freedesktop.DBus.Introspectable"); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("export introspection: %w", err)
	}

	reply, err := conn.RequestName(BusName, dbus.NameFlagDoNotQueue)
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("request name: %w", err)
	}
	if reply != dbus.RequestNameReplyPrimaryOwner {
		_ = conn.Close()
		return nil, fmt.Errorf("name %s already taken", BusName)
	}

	s.log.Info("control surface ready", "name", BusName, "path", ObjectPath)
	return s, nil
}

// Close releases the bus connection.
func (s *Server) Close() error {
	return s.conn.Close()
}

// Start begins audio capture.
func (s *Server) Start() *dbus.Error {
	if err := s.svc.Start(); err != nil {
		return dbus.MakeFailedError(err)
	}
	return nil
}

// Stop halts audio capture.
func (s *Server) Stop() *dbus.Error {
	if err := s.svc.Stop(); err != nil {
		return dbus.MakeFailedError(err)
	}
	return nil
}

// Restart stops and restarts capture.
func (s *Server) Restart() *dbus.Error {
	if err := s.svc.Restart(); err != nil {
		return dbus.MakeFailedError(err)
	}
	return nil
}

// GetStatus returns the service status as a JSON document.
func (s *Server) GetStatus() (string, *dbus.Error) {
	data, err := json.Marshal(s.svc.Status())
	if err != nil {
		return "", dbus.MakeFailedError(err)
	}
	return string(data), nil
}

// GetMode returns the active mode name.
func (s *Server) GetMode() (string, *dbus.Error) {
	return s.svc.Mode().String(), nil
}

// SetMode switches the active mode by name.
func (s *Server) SetMode(name string) *dbus.Error {
	s.svc.SetMode(mode.Parse(name))
	return nil
}

// GetBuffer returns the active worker's text buffer.
func (s *Server) GetBuffer() (string, *dbus.Error) {
	return s.svc.Status().Buffer, nil
}

// GetConfig returns the configuration as a JSON document.
func (s *Server) GetConfig() (string, *dbus.Error) {
	doc, err := s.svc.GetConfig()
	if err != nil {
		return "", dbus.MakeFailedError(err)
	}
	return doc, nil
}

// UpdateConfig replaces the configuration from a JSON document.
func (s *Server) UpdateConfig(doc string) *dbus.Error {
	if err := s.svc.UpdateConfig(doc); err != nil {
		return dbus.MakeFailedError(err)
	}
	return nil
}

// SetConfigValue updates one configuration key.
func (s *Server) SetConfigValue(key string, value dbus.Variant) *dbus.Error {
	if err := s.svc.SetConfigValue(key, value.Value()); err != nil {
		return dbus.MakeFailedError(err)
	}
	return nil
}

// GetRecentTranscripts returns up to n recent transcriptions as a
// JSON array, newest first.
func (s *Server) GetRecentTranscripts(n int32) (string, *dbus.Error) {
	entries, err := s.svc.RecentTranscripts(int(n))
	if err != nil {
		return "", dbus.MakeFailedError(err)
	}
	data, err := json.Marshal(entries)
	if err != nil {
		return "", dbus.MakeFailedError(err)
	}
	return string(data), nil
}

// Emit forwards a service event as a D-Bus signal.
func (s *Server) Emit(name string, data any) {
	var err error
	switch payload := data.(type) {
	case app.ModeChange:
		err = s.conn.Emit(ObjectPath, Interface+".ModeChanged", payload.New, payload.Old)
	case app.BufferChange:
		err = s.conn.Emit(ObjectPath, Interface+".BufferChanged", payload.Text)
	case app.CommandExecution:
		err = s.conn.Emit(ObjectPath, Interface+".CommandExecuted", payload.Action, payload.Phrase, payload.Score)
	case app.ErrorEvent:
		err = s.conn.Emit(ObjectPath, Interface+".Error", payload.Message, payload.Detail)
	case app.Notification:
		err = s.conn.Emit(ObjectPath, Interface+".Notification", payload.Title, payload.Message, payload.Urgency)
	case app.ConfigChange:
		err = s.conn.Emit(ObjectPath, Interface+".ConfigChanged", payload.Document)
	default:
		s.log.Warn("unhandled event", "event", name)
		return
	}
	if err != nil {
		s.log.Warn("emit signal failed", "event", name, "error", err)
	}
}

func (s *Server) node() *introspect.Node {
	return &introspect.Node{
		Name: ObjectPath,
		Interfaces: []introspect.Interface{
			introspect.IntrospectData,
			{
				Name: Interface,
				Methods: []introspect.Method{
					{Name: "Start"},
					{Name: "Stop"},
					{Name: "Restart"},
					{Name: "GetStatus", Args: []introspect.Arg{{Name: "status", Type: "s", Direction: "out"}}},
					{Name: "GetMode", Args: []introspect.Arg{{Name: "mode", Type: "s", Direction: "out"}}},
					{Name: "SetMode", Args: []introspect.Arg{{Name: "mode", Type: "s", Direction: "in"}}},
					{Name: "GetBuffer", Args: []introspect.Arg{{Name: "buffer", Type: "s", Direction: "out"}}},
					{Name: "GetConfig", Args: []introspect.Arg{{Name: "config", Type: "s", Direction: "out"}}},
					{Name: "UpdateConfig", Args: []introspect.Arg{{Name: "config", Type: "s", Direction: "in"}}},
					{Name: "SetConfigValue", Args: []introspect.Arg{
						{Name: "key", Type: "s", Direction: "in"},
						{Name: "value", Type: "v", Direction: "in"},
					}},
					{Name: "GetRecentTranscripts", Args: []introspect.Arg{
						{Name: "count", Type: "i", Direction: "in"},
						{Name: "transcripts", Type: "s", Direction: "out"},
					}},
				},
				Signals: []introspect.Signal{
					{Name: "ModeChanged", Args: []introspect.Arg{{Name: "new", Type: "s"}, {Name: "old", Type: "s"}}},
					{Name: "BufferChanged", Args: []introspect.Arg{{Name: "text", Type: "s"}}},
					{Name: "CommandExecuted", Args: []introspect.Arg{
						{Name: "action", Type: "s"}, {Name: "phrase", Type: "s"}, {Name: "score", Type: "d"},
					}},
					{Name: "Error", Args: []introspect.Arg{{Name: "message", Type: "s"}, {Name: "detail", Type: "s"}}},
					{Name: "Notification", Args: []introspect.Arg{
						{Name: "title", Type: "s"}, {Name: "message", Type: "s"}, {Name: "urgency", Type: "s"},
					}},
					{Name: "ConfigChanged", Args: []introspect.Arg{{Name: "document", Type: "s"}}},
				},
			},
		},
	}
}
