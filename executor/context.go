package executor

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

const contextFileName = "context.json"

// ContextConfig describes the user's desktop environment: which
// applications exist, what they are called in speech, and which search
// engines are available.
type ContextConfig struct {
	DefaultApps   map[string]string   `json:"default_apps"`
	SearchEngines map[string]string   `json:"search_engines"`
	AppAliases    map[string][]string `json:"app_aliases"`
}

// DefaultContext returns the built-in desktop context.
func DefaultContext() ContextConfig {
	return ContextConfig{
		DefaultApps: map[string]string{
			"browser":      "firefox",
			"terminal":     "kgx",
			"files":        "nautilus",
			"editor":       "gnome-text-editor",
			"calculator":   "gnome-calculator",
			"music":        "rhythmbox",
			"settings":     "gnome-control-center",
			"screenshot":   "gnome-screenshot",
			"text editor":  "gnome-text-editor",
			"file manager": "nautilus",
		},
		SearchEngines: map[string]string{
			"google":     "https://www.google.com/search?q=%s",
			"duckduckgo": "https://duckduckgo.com/?q=%s",
			"youtube":    "https://www.youtube.com/results?search_query=%s",
			"wikipedia":  "https://en.wikipedia.org/wiki/Special:Search?search=%s",
			"github":     "https://github.com/search?q=%s",
		},
		AppAliases: map[string][]string{
			"firefox":  {"browser", "web browser", "internet"},
			"kgx":      {"terminal", "console", "command line"},
			"nautilus": {"files", "file manager", "file browser"},
		},
	}
}

// LoadContext reads the context document from its fixed location on
// fsys, merging it over the defaults. A missing or malformed file
// leaves the defaults in place.
func LoadContext(fsys afero.Fs, log *slog.Logger) ContextConfig {
	ctx := DefaultContext()

	dir, err := os.UserConfigDir()
	if err != nil {
		return ctx
	}
	path := filepath.Join(dir, "willow", contextFileName)

	data, err := afero.ReadFile(fsys, path)
	if err != nil {
		return ctx
	}

	var loaded ContextConfig
	if err := json.Unmarshal(data, &loaded); err != nil {
		if log != nil {
			log.Warn("ignoring malformed context file", "path", path, "error", err)
		}
		return ctx
	}

	for k, v := range loaded.DefaultApps {
		ctx.DefaultApps[k] = v
	}
	for k, v := range loaded.SearchEngines {
		ctx.SearchEngines[k] = v
	}
	for k, v := range loaded.AppAliases {
		ctx.AppAliases[k] = v
	}
	return ctx
}
