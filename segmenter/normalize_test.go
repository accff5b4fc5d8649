package segmenter

import "testing"

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "plain", in: "Open Terminal", want: "open terminal"},
		{name: "punctuation", in: "Hello, world!", want: "hello world"},
		{name: "bracket annotation", in: "[BLANK_AUDIO]", want: ""},
		{name: "paren annotation", in: "(coughing) open files", want: "open files"},
		{name: "brace annotation", in: "{music} stop typing", want: "stop typing"},
		{name: "mixed", in: " [noise]  Go to, Typing Mode!  ", want: "go to typing mode"},
		{name: "whitespace collapse", in: "a   b\tc", want: "a b c"},
		{name: "empty", in: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.in); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
