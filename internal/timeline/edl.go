package timeline

import (
	"fmt"
	"strings"
)

// Entry is one placed item on an exported timeline, typically a scene.
type Entry struct {
	Range     TimeRange `json:"range"`
	Name      string    `json:"name,omitempty"`
	Comment   string    `json:"comment,omitempty"`
	AssetPath string    `json:"assetPath,omitempty"`
}

func (e Entry) clipName(i int) string {
	if e.Name != "" {
		return e.Name
	}
	return fmt.Sprintf("clip_%03d", i+1)
}

// EDLConfig controls edit list output.
type EDLConfig struct {
	Title string
	FPS   float64
}

// WriteEDL renders a CMX3600-style edit list. Source in is always zero and
// source out is the entry's duration; record in and out are the absolute range.
func WriteEDL(entries []Entry, cfg EDLConfig) (string, error) {
	if err := validateEntries(entries); err != nil {
		return "", err
	}
	fps := cfg.FPS
	if fps <= 0 {
		fps = DefaultFPS
	}
	title := cfg.Title
	if title == "" {
		title = "Narration Timeline"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "TITLE: %s\n", title)
	b.WriteString("FCM: NON-DROP FRAME\n")
	for i, e := range entries {
		b.WriteString("\n")
		fmt.Fprintf(&b, "%03d  AX       V     C        %s %s %s %s\n",
			i+1,
			Timecode(0, fps, StyleFrames),
			Timecode(e.Range.Duration(), fps, StyleFrames),
			Timecode(e.Range.StartTime, fps, StyleFrames),
			Timecode(e.Range.EndTime, fps, StyleFrames),
		)
		fmt.Fprintf(&b, "* FROM CLIP NAME: %s\n", e.clipName(i))
		fmt.Fprintf(&b, "* COMMENT: %s\n", oneLine(e.Comment))
	}
	return b.String(), nil
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
