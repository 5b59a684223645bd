// Package captions groups a word timeline into timed caption cues.
package captions

import (
	"strings"

	"github.com/lexiqai/narration-pipeline/internal/stt"
)

// Cue is one caption. Times are seconds on the source timeline.
type Cue struct {
	Text      string  `json:"text"`
	StartTime float64 `json:"startTime"`
	EndTime   float64 `json:"endTime"`
}

// Constraints bound a single cue. A zero limit disables that check.
type Constraints struct {
	MaxWords           int     `json:"maxWords"`
	MaxChars           int     `json:"maxChars"`
	MaxDuration        float64 `json:"maxDuration"`
	BreakOnSentenceEnd bool    `json:"breakOnSentenceEnd"`
}

// DefaultConstraints returns 8 words, 42 characters and 4 seconds per cue.
func DefaultConstraints() Constraints {
	return Constraints{
		MaxWords:           8,
		MaxChars:           42,
		MaxDuration:        4.0,
		BreakOnSentenceEnd: true,
	}
}

// ShouldBreak reports whether the buffered words must be closed as a cue
// before next is added. An empty buffer never breaks, so a single word is
// never split however long it is.
func ShouldBreak(buffer []stt.Word, next stt.Word, c Constraints) bool {
	if len(buffer) == 0 {
		return false
	}
	return exceedsWords(buffer, c) ||
		exceedsChars(buffer, next, c) ||
		exceedsDuration(buffer, next, c) ||
		endsSentence(buffer, c)
}

func exceedsWords(buffer []stt.Word, c Constraints) bool {
	return c.MaxWords > 0 && len(buffer) >= c.MaxWords
}

func exceedsChars(buffer []stt.Word, next stt.Word, c Constraints) bool {
	if c.MaxChars <= 0 {
		return false
	}
	candidate := append(append([]stt.Word{}, buffer...), next)
	return len([]rune(CueText(candidate))) > c.MaxChars
}

func exceedsDuration(buffer []stt.Word, next stt.Word, c Constraints) bool {
	return c.MaxDuration > 0 && next.EndTime-buffer[0].StartTime > c.MaxDuration
}

func endsSentence(buffer []stt.Word, c Constraints) bool {
	if !c.BreakOnSentenceEnd {
		return false
	}
	text := CueText(buffer)
	return strings.HasSuffix(text, ".") || strings.HasSuffix(text, "!") || strings.HasSuffix(text, "?")
}

// Group walks words in order and closes a cue whenever ShouldBreak says so.
// Every word lands in exactly one cue. Empty input yields an empty slice.
// A cue never ends after the next cue starts.
func Group(words []stt.Word, c Constraints) []Cue {
	cues := []Cue{}
	var buffer []stt.Word
	for _, w := range words {
		if ShouldBreak(buffer, w, c) {
			cue := flush(buffer)
			cue.EndTime = max(cue.StartTime, min(cue.EndTime, w.StartTime))
			cues = append(cues, cue)
			buffer = nil
		}
		buffer = append(buffer, w)
	}
	if len(buffer) > 0 {
		cues = append(cues, flush(buffer))
	}
	return cues
}

func flush(buffer []stt.Word) Cue {
	return Cue{
		Text:      CueText(buffer),
		StartTime: buffer[0].StartTime,
		EndTime:   buffer[len(buffer)-1].EndTime,
	}
}

// CueText joins word texts with single spaces, collapsing inner whitespace
// and dropping the space before trailing punctuation.
func CueText(words []stt.Word) string {
	parts := make([]string, 0, len(words))
	for _, w := range words {
		if t := strings.Join(strings.Fields(w.Text), " "); t != "" {
			parts = append(parts, t)
		}
	}
	return tightenPunctuation(strings.Join(parts, " "))
}

var punctuationSpacer = strings.NewReplacer(
	" ,", ",",
	" .", ".",
	" !", "!",
	" ?", "?",
	" ;", ";",
	" :", ":",
)

func tightenPunctuation(s string) string {
	return punctuationSpacer.Replace(s)
}
