package executor

import (
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/spf13/afero"
)

// testExecutor returns an Executor whose lookPath reports the given
// binaries as installed and whose spawn records invocations.
func testExecutor(t *testing.T, installed ...string) (*Executor, *[][]string) {
	t.Helper()

	var calls [][]string
	e := New(afero.NewMemMapFs(), slog.New(slog.NewTextHandler(testWriter{t}, nil)))
	e.lookPath = func(file string) (string, error) {
		for _, name := range installed {
			if name == file {
				return "/usr/bin/" + file, nil
			}
		}
		return "", errors.New("not found")
	}
	e.spawn = func(name string, args ...string) error {
		calls = append(calls, append([]string{name}, args...))
		return nil
	}
	return e, &calls
}

type testWriter struct{ t *testing.T }

func (w testWriter) Write(p []byte) (int, error) {
	w.t.Log(strings.TrimSpace(string(p)))
	return len(p), nil
}

func TestRun(t *testing.T) {
	e, calls := testExecutor(t)

	if err := e.Run("firefox"); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	want := []string{"systemd-run", "--user", "--scope", "--slice=app.slice", "sh", "-c", "firefox"}
	if len(*calls) != 1 {
		t.Fatalf("spawn called %d times, want 1", len(*calls))
	}
	got := (*calls)[0]
	if len(got) != len(want) {
		t.Fatalf("spawn args = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("spawn arg[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestTypeText(t *testing.T) {
	e, calls := testExecutor(t, "ydotool")

	if err := e.TypeText("hello 'world'"); err != nil {
		t.Fatalf("TypeText() error = %v", err)
	}
	if len(*calls) != 1 {
		t.Fatalf("spawn called %d times, want 1", len(*calls))
	}
	cmdline := (*calls)[0][2]
	if !strings.Contains(cmdline, `'\''`) {
		t.Errorf("cmdline %q does not escape single quotes", cmdline)
	}
}

func TestTypeText_MissingTool(t *testing.T) {
	e, calls := testExecutor(t)

	if err := e.TypeText("hello"); err == nil {
		t.Fatal("TypeText() error = nil, want missing tool error")
	}
	if len(*calls) != 0 {
		t.Errorf("spawn called %d times, want 0", len(*calls))
	}
}

func TestTypeText_Empty(t *testing.T) {
	e, calls := testExecutor(t)

	if err := e.TypeText(""); err != nil {
		t.Fatalf("TypeText() error = %v", err)
	}
	if len(*calls) != 0 {
		t.Errorf("spawn called %d times, want 0", len(*calls))
	}
}

func TestPressKeyCombo(t *testing.T) {
	e, calls := testExecutor(t, "ydotool")

	if err := e.PressKeyCombo("29:1", "28:1", "28:0", "29:0"); err != nil {
		t.Fatalf("PressKeyCombo() error = %v", err)
	}
	got := (*calls)[0]
	if got[0] != "ydotool" || got[1] != "key" || len(got) != 6 {
		t.Errorf("spawn args = %v", got)
	}
}

func TestFindApp(t *testing.T) {
	tests := []struct {
		name      string
		spoken    string
		installed []string
		want      string
	}{
		{name: "direct hit", spoken: "Firefox", installed: []string{"firefox"}, want: "firefox"},
		{name: "alias", spoken: "web browser", installed: []string{"firefox"}, want: "firefox"},
		{name: "default app", spoken: "editor", installed: []string{"gnome-text-editor"}, want: "gnome-text-editor"},
		{name: "not installed", spoken: "browser", installed: nil, want: ""},
		{name: "unknown", spoken: "flurble", installed: []string{"firefox"}, want: ""},
		{name: "empty", spoken: "  ", installed: []string{"firefox"}, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, _ := testExecutor(t, tt.installed...)
			if got := e.FindApp(tt.spoken); got != tt.want {
				t.Errorf("FindApp(%q) = %q, want %q", tt.spoken, got, tt.want)
			}
		})
	}
}

func TestSearchURL(t *testing.T) {
	e, _ := testExecutor(t)

	url, ok := e.SearchURL("google", "go generics tutorial")
	if !ok {
		t.Fatal("SearchURL() ok = false, want true")
	}
	want := "https://www.google.com/search?q=go+generics+tutorial"
	if url != want {
		t.Errorf("SearchURL() = %q, want %q", url, want)
	}

	if _, ok := e.SearchURL("altavista", "anything"); ok {
		t.Error("SearchURL() ok = true for unknown engine")
	}
}

func TestURLEncode(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"hello world", "hello+world"},
		{"a-b_c.d~e", "a-b_c.d~e"},
		{"c++ & go?", "c%2B%2B+%26+go%3F"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := URLEncode(tt.in); got != tt.want {
			t.Errorf("URLEncode(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
