package executor

import (
	"strings"

	"golang.org/x/text/cases"

	"github.com/saim/willow/internal/types"
)

// MatchPhrase scores how well a spoken transcript matches a trigger
// phrase. The score is 1.0 when the folded phrase occurs inside the
// folded transcript and 0.0 otherwise.
func MatchPhrase(text, phrase string) float64 {
	// cases.Caser carries internal state; create one per call.
	fold := cases.Fold()
	if strings.Contains(fold.String(text), fold.String(phrase)) {
		return 1.0
	}
	return 0.0
}

// FindBestMatch scores text against every phrase of every command and
// returns the best command, the phrase that matched, and its score.
// Ties keep the earliest command, preserving configuration order. A
// nil command means nothing scored above zero.
func FindBestMatch(text string, commands []types.Command) (*types.Command, string, float64) {
	var (
		best       *types.Command
		bestPhrase string
		bestScore  float64
	)
	for i := range commands {
		for _, phrase := range commands[i].Phrases {
			if score := MatchPhrase(text, phrase); score > bestScore {
				best = &commands[i]
				bestPhrase = phrase
				bestScore = score
			}
		}
	}
	return best, bestPhrase, bestScore
}
