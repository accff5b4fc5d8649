package segmenter

import (
	"regexp"
	"strings"
)

var (
	// Whisper emits non-speech annotations like [BLANK_AUDIO],
	// (coughing), {music}.
	annotationRE = regexp.MustCompile(`\[[^\]]*\]|\{[^\}]*\}|\([^\)]*\)`)
	punctRE      = regexp.MustCompile(`[.,!?;:]`)
	spaceRE      = regexp.MustCompile(`\s+`)
)

// Normalize strips engine annotations and punctuation from a raw
// transcription and lowercases it for phrase matching.
func Normalize(text string) string {
	text = annotationRE.ReplaceAllString(text, "")
	text = punctRE.ReplaceAllString(text, "")
	text = spaceRE.ReplaceAllString(text, " ")
	return strings.ToLower(strings.TrimSpace(text))
}
