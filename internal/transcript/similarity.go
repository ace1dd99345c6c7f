// Package transcript scores how closely a recognition result matches the
// text it came from. The score is surfaced in the UI after a round trip
// (speak, record the playback, transcribe) so users can judge recognition
// quality at a glance.
package transcript

import (
	"strings"
	"unicode"

	"github.com/antzucaro/matchr"
)

// Normalize lowercases s, strips punctuation, and collapses whitespace so
// that "Hello, world!" and "hello world" compare as equal.
func Normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	lastSpace := true
	for _, r := range strings.ToLower(s) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '\'':
			b.WriteRune(r)
			lastSpace = false
		case unicode.IsSpace(r):
			if !lastSpace {
				b.WriteRune(' ')
				lastSpace = true
			}
		}
	}
	return strings.TrimSpace(b.String())
}

// Similarity returns a score in [0, 1] for how closely two utterances match,
// after normalisation. It takes the best of a full-string and a
// space-stripped Jaro-Winkler comparison, so word-boundary disagreements
// between recognizers ("can not" vs "cannot") do not tank the score.
func Similarity(a, b string) float64 {
	na, nb := Normalize(a), Normalize(b)
	if na == "" || nb == "" {
		return 0
	}
	if na == nb {
		return 1
	}

	score := matchr.JaroWinkler(na, nb, false)
	ca := strings.ReplaceAll(na, " ", "")
	cb := strings.ReplaceAll(nb, " ", "")
	if s := matchr.JaroWinkler(ca, cb, false); s > score {
		score = s
	}
	return score
}
