package executor

import (
	"testing"

	"github.com/saim/willow/internal/types"
)

func TestMatchPhrase(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		phrase string
		want   float64
	}{
		{name: "exact", text: "open terminal", phrase: "open terminal", want: 1.0},
		{name: "substring", text: "please open terminal now", phrase: "open terminal", want: 1.0},
		{name: "case folded", text: "OPEN Terminal", phrase: "open terminal", want: 1.0},
		{name: "no match", text: "close the window", phrase: "open terminal", want: 0.0},
		{name: "partial words", text: "open term", phrase: "open terminal", want: 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MatchPhrase(tt.text, tt.phrase); got != tt.want {
				t.Errorf("MatchPhrase(%q, %q) = %v, want %v", tt.text, tt.phrase, got, tt.want)
			}
		})
	}
}

func TestFindBestMatch(t *testing.T) {
	commands := []types.Command{
		{Name: "terminal", Action: "kgx", Phrases: []string{"open terminal"}},
		{Name: "files", Action: "nautilus", Phrases: []string{"open files", "file manager"}},
	}

	cmd, phrase, score := FindBestMatch("could you open files please", commands)
	if cmd == nil || cmd.Name != "files" {
		t.Fatalf("FindBestMatch() cmd = %+v, want files", cmd)
	}
	if phrase != "open files" || score != 1.0 {
		t.Errorf("FindBestMatch() = %q, %v, want %q, 1.0", phrase, score, "open files")
	}

	cmd, _, score = FindBestMatch("nothing relevant here", commands)
	if cmd != nil || score != 0.0 {
		t.Errorf("FindBestMatch() = %+v, %v, want nil, 0.0", cmd, score)
	}
}

func TestFindBestMatch_TiesKeepFirst(t *testing.T) {
	commands := []types.Command{
		{Name: "first", Action: "a", Phrases: []string{"open terminal"}},
		{Name: "second", Action: "b", Phrases: []string{"open terminal"}},
	}

	cmd, _, _ := FindBestMatch("open terminal", commands)
	if cmd == nil || cmd.Name != "first" {
		t.Errorf("FindBestMatch() cmd = %+v, want first", cmd)
	}
}
