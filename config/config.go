// Package config handles the service configuration document.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"github.com/saim/willow/internal/types"
)

const (
	appName        = "willow"
	configFileName = "config.json"
)

// Backend names accepted by the "backend" key.
const (
	BackendLocal  = "local"
	BackendOpenAI = "openai"
)

// Config represents the main configuration document. The on-disk
// command_threshold is a percentage (0-100); use Threshold for the
// 0-1 value the matcher compares against.
type Config struct {
	Hotword            string          `json:"hotword"`
	CommandThreshold   float64         `json:"command_threshold"`
	ProcessingInterval float64         `json:"processing_interval"`
	Backend            string          `json:"backend"`
	WhisperModel       string          `json:"whisper_model"`
	GPUAcceleration    bool            `json:"gpu_acceleration"`
	OpenAIAPIKey       string          `json:"openai_api_key,omitempty"`
	TypingMode         TypingMode      `json:"typing_mode"`
	Logging            Logging         `json:"logging"`
	Commands           []types.Command `json:"commands"`
}

// TypingMode holds the typing-mode settings.
type TypingMode struct {
	ExitPhrases []string `json:"exit_phrases"`
}

// Logging holds the log output settings.
type Logging struct {
	Level string `json:"level"`
	File  string `json:"file"`
}

// Default returns the built-in configuration used when no document
// exists on disk.
func Default() *Config {
	return &Config{
		Hotword:            "hey",
		CommandThreshold:   80,
		ProcessingInterval: 1.0,
		Backend:            BackendLocal,
		WhisperModel:       "ggml-tiny.en.bin",
		TypingMode: TypingMode{
			ExitPhrases: []string{"stop typing", "exit typing", "normal mode", "go to normal mode"},
		},
		Logging: Logging{
			Level: "info",
			File:  "/tmp/willow.log",
		},
		Commands: defaultCommands(),
	}
}

func defaultCommands() []types.Command {
	return []types.Command{
		{Name: "terminal", Action: "kgx", Phrases: []string{"open terminal", "start terminal", "launch terminal"}},
		{Name: "firefox", Action: "firefox", Phrases: []string{"open firefox", "launch firefox", "start web browser"}},
		{Name: "files", Action: "nautilus", Phrases: []string{"open files", "launch files", "start file manager"}},
		{Name: "volume_up", Action: "pactl set-sink-volume @DEFAULT_SINK@ +5%", Phrases: []string{"volume up", "turn up the volume"}},
		{Name: "volume_down", Action: "pactl set-sink-volume @DEFAULT_SINK@ -5%", Phrases: []string{"volume down", "turn down the volume"}},
		{Name: "mute", Action: "pactl set-sink-mute @DEFAULT_SINK@ toggle", Phrases: []string{"mute", "mute audio"}},
		{Name: "lock_screen", Action: "gnome-screensaver-command --lock", Phrases: []string{"lock screen", "lock my screen"}},
		{Name: "typing_mode", Action: "start_typing_mode", Phrases: []string{"go to typing mode", "typing mode", "start typing"}},
		{Name: "normal_mode", Action: "exit_command_mode", Phrases: []string{"go to normal mode", "exit command mode", "stop listening"}},
	}
}

// Path returns the location of the configuration document.
func Path() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("get config dir: %w", err)
	}
	return filepath.Join(dir, appName, configFileName), nil
}

// Load reads the configuration document from fsys. A missing file is
// not an error; defaults apply.
func Load(fsys afero.Fs) (*Config, error) {
	path, err := Path()
	if err != nil {
		return nil, err
	}

	data, err := afero.ReadFile(fsys, path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	return Parse(data)
}

// Parse decodes a configuration document, filling unset sections with
// defaults.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if cfg.Backend == "" {
		cfg.Backend = BackendLocal
	}
	for i, p := range cfg.TypingMode.ExitPhrases {
		cfg.TypingMode.ExitPhrases[i] = strings.ToLower(p)
	}
	return cfg, nil
}

// Save persists the configuration document to fsys.
func (c *Config) Save(fsys afero.Fs) error {
	path, err := Path()
	if err != nil {
		return err
	}

	if err := fsys.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := afero.WriteFile(fsys, path, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Threshold returns the command matching threshold as a 0-1 score.
func (c *Config) Threshold() float64 {
	return c.CommandThreshold / 100.0
}

// SetValue updates a single configuration key. It reports whether the
// key affects the speech engine and therefore requires a reload.
func (c *Config) SetValue(key string, value any) (backend bool, err error) {
	switch key {
	case "hotword":
		s, ok := value.(string)
		if !ok {
			return false, fmt.Errorf("hotword: expected string, got %T", value)
		}
		c.Hotword = s
	case "command_threshold":
		f, ok := toFloat(value)
		if !ok {
			return false, fmt.Errorf("command_threshold: expected number, got %T", value)
		}
		c.CommandThreshold = f
	case "processing_interval":
		f, ok := toFloat(value)
		if !ok {
			return false, fmt.Errorf("processing_interval: expected number, got %T", value)
		}
		c.ProcessingInterval = f
	case "whisper_model":
		s, ok := value.(string)
		if !ok {
			return false, fmt.Errorf("whisper_model: expected string, got %T", value)
		}
		c.WhisperModel = s
		return true, nil
	case "gpu_acceleration":
		b, ok := value.(bool)
		if !ok {
			return false, fmt.Errorf("gpu_acceleration: expected bool, got %T", value)
		}
		c.GPUAcceleration = b
		return true, nil
	case "backend":
		s, ok := value.(string)
		if !ok {
			return false, fmt.Errorf("backend: expected string, got %T", value)
		}
		if s != BackendLocal && s != BackendOpenAI {
			return false, fmt.Errorf("backend: unknown value %q", s)
		}
		c.Backend = s
		return true, nil
	case "openai_api_key":
		s, ok := value.(string)
		if !ok {
			return false, fmt.Errorf("openai_api_key: expected string, got %T", value)
		}
		c.OpenAIAPIKey = s
		return true, nil
	default:
		return false, fmt.Errorf("unknown config key: %s", key)
	}
	return false, nil
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}
