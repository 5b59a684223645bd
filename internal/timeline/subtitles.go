package timeline

import (
	"fmt"
	"strings"

	"github.com/lexiqai/narration-pipeline/internal/captions"
)

// WriteSRT renders cues as SubRip.
func WriteSRT(cues []captions.Cue) (string, error) {
	if err := validateCues(cues); err != nil {
		return "", err
	}
	var b strings.Builder
	writeCues(&b, cues, StyleSRT)
	return b.String(), nil
}

// WriteVTT renders cues as WebVTT.
func WriteVTT(cues []captions.Cue) (string, error) {
	if err := validateCues(cues); err != nil {
		return "", err
	}
	var b strings.Builder
	b.WriteString("WEBVTT\n\n")
	writeCues(&b, cues, StyleVTT)
	return b.String(), nil
}

func writeCues(b *strings.Builder, cues []captions.Cue, style Style) {
	for i, c := range cues {
		fmt.Fprintf(b, "%d\n%s --> %s\n%s\n\n",
			i+1,
			Timecode(c.StartTime, DefaultFPS, style),
			Timecode(c.EndTime, DefaultFPS, style),
			c.Text,
		)
	}
}
