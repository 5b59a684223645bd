package timeline

import (
	"errors"
	"fmt"

	"github.com/lexiqai/narration-pipeline/internal/captions"
	"github.com/lexiqai/narration-pipeline/internal/stt"
)

// ErrUnknownFormat is returned by Export for an unsupported format name.
var ErrUnknownFormat = errors.New("unknown export format")

var contentTypes = map[string]string{
	"edl":    "text/plain; charset=utf-8",
	"srt":    "application/x-subrip; charset=utf-8",
	"vtt":    "text/vtt; charset=utf-8",
	"fcpxml": "application/xml; charset=utf-8",
}

// ContentType returns the MIME type of a format.
func ContentType(format string) (string, bool) {
	ct, ok := contentTypes[format]
	return ct, ok
}

// ExportRequest carries everything any format may need. Edit lists and
// FCPXML read Entries; caption formats read Cues, or group Words when no
// cues are given.
type ExportRequest struct {
	Title         string         `json:"title,omitempty"`
	FPS           float64        `json:"fps,omitempty"`
	Width         int            `json:"width,omitempty"`
	Height        int            `json:"height,omitempty"`
	AudioPath     string         `json:"audioPath,omitempty"`
	AudioDuration float64        `json:"audioDuration,omitempty"`
	Entries       []Entry        `json:"entries,omitempty"`
	Cues          []captions.Cue `json:"cues,omitempty"`
	Words         []stt.Word     `json:"words,omitempty"`
}

// Export renders req in format. fps is used when req.FPS is unset and c
// groups Words into cues.
func Export(format string, req ExportRequest, c captions.Constraints, fps float64) (string, error) {
	if req.FPS > 0 {
		fps = req.FPS
	}
	switch format {
	case "edl":
		return WriteEDL(req.Entries, EDLConfig{Title: req.Title, FPS: fps})
	case "fcpxml":
		return WriteFCPXML(req.Entries, FCPXMLConfig{
			ProjectName:   req.Title,
			FPS:           fps,
			Width:         req.Width,
			Height:        req.Height,
			AudioPath:     req.AudioPath,
			AudioDuration: req.AudioDuration,
		})
	case "srt", "vtt":
		cues := req.Cues
		if len(cues) == 0 && len(req.Words) > 0 {
			cues = captions.Group(req.Words, c)
		}
		if format == "vtt" {
			return WriteVTT(cues)
		}
		return WriteSRT(cues)
	}
	return "", fmt.Errorf("%w %q", ErrUnknownFormat, format)
}
