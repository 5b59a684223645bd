package timeline

import (
	"encoding/xml"
	"fmt"
	"path/filepath"

	"github.com/google/uuid"
)

// FCPXMLConfig controls structured timeline output.
type FCPXMLConfig struct {
	ProjectName string
	FPS         float64
	Width       int
	Height      int

	// AudioPath and AudioDuration describe the narration track. With an empty
	// path no audio elements are written.
	AudioPath     string
	AudioDuration float64
	AudioRate     int
}

type fcpxmlDoc struct {
	XMLName   xml.Name       `xml:"fcpxml"`
	Version   string         `xml:"version,attr"`
	Resources fcpxmlResource `xml:"resources"`
	Library   fcpxmlLibrary  `xml:"library"`
}

type fcpxmlResource struct {
	Format fcpxmlFormat  `xml:"format"`
	Assets []fcpxmlAsset `xml:"asset"`
}

type fcpxmlFormat struct {
	ID            string `xml:"id,attr"`
	Name          string `xml:"name,attr,omitempty"`
	FrameDuration string `xml:"frameDuration,attr"`
	Width         int    `xml:"width,attr"`
	Height        int    `xml:"height,attr"`
}

type fcpxmlAsset struct {
	ID            string `xml:"id,attr"`
	Name          string `xml:"name,attr"`
	UID           string `xml:"uid,attr"`
	Start         string `xml:"start,attr"`
	Duration      string `xml:"duration,attr"`
	HasVideo      string `xml:"hasVideo,attr,omitempty"`
	HasAudio      string `xml:"hasAudio,attr,omitempty"`
	Format        string `xml:"format,attr,omitempty"`
	AudioSources  string `xml:"audioSources,attr,omitempty"`
	AudioChannels string `xml:"audioChannels,attr,omitempty"`
	AudioRate     string `xml:"audioRate,attr,omitempty"`

	MediaRep fcpxmlMediaRep `xml:"media-rep"`
}

// fcpxmlMediaRep carries the media location; 1.9 no longer accepts src on
// the asset itself.
type fcpxmlMediaRep struct {
	Kind string `xml:"kind,attr"`
	Src  string `xml:"src,attr"`
}

func originalMedia(src string) fcpxmlMediaRep {
	return fcpxmlMediaRep{Kind: "original-media", Src: src}
}

type fcpxmlLibrary struct {
	Event fcpxmlEvent `xml:"event"`
}

type fcpxmlEvent struct {
	Name    string        `xml:"name,attr"`
	Project fcpxmlProject `xml:"project"`
}

type fcpxmlProject struct {
	Name     string         `xml:"name,attr"`
	Sequence fcpxmlSequence `xml:"sequence"`
}

type fcpxmlSequence struct {
	Format   string      `xml:"format,attr"`
	Duration string      `xml:"duration,attr"`
	TCStart  string      `xml:"tcStart,attr"`
	TCFormat string      `xml:"tcFormat,attr"`
	Spine    fcpxmlSpine `xml:"spine"`
}

type fcpxmlSpine struct {
	Gap fcpxmlGap `xml:"gap"`
}

// fcpxmlGap anchors connected clips so placements may leave holes.
type fcpxmlGap struct {
	Name      string            `xml:"name,attr"`
	Offset    string            `xml:"offset,attr"`
	Start     string            `xml:"start,attr"`
	Duration  string            `xml:"duration,attr"`
	Videos    []fcpxmlPlacement `xml:"video"`
	AudioClip *fcpxmlPlacement  `xml:"asset-clip,omitempty"`
}

type fcpxmlPlacement struct {
	Ref      string `xml:"ref,attr"`
	Lane     string `xml:"lane,attr"`
	Name     string `xml:"name,attr"`
	Offset   string `xml:"offset,attr"`
	Start    string `xml:"start,attr"`
	Duration string `xml:"duration,attr"`
}

// rational renders sec as an FCPXML rational time using the shared
// quantization, so placements land on the same frame as EDL timecodes.
func rational(sec, fps float64) string {
	frames := quantize(sec).totalFrames(fps)
	if frames == 0 {
		return "0s"
	}
	if isNTSC(fps) {
		return fmt.Sprintf("%d/%ds", frames*1001, nominalRate(fps)*1000)
	}
	return fmt.Sprintf("%d/%ds", frames, nominalRate(fps))
}

func frameDuration(fps float64) string {
	if isNTSC(fps) {
		return fmt.Sprintf("1001/%ds", nominalRate(fps)*1000)
	}
	return fmt.Sprintf("1/%ds", nominalRate(fps))
}

func assetUID(src string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(src)).String()
}

// WriteFCPXML renders a Final Cut Pro XML 1.9 document with one still asset
// and one placement per entry.
func WriteFCPXML(entries []Entry, cfg FCPXMLConfig) (string, error) {
	if err := validateEntries(entries); err != nil {
		return "", err
	}
	if cfg.AudioPath != "" {
		if err := Validate(len(entries), TimeRange{EndTime: cfg.AudioDuration}); err != nil {
			return "", err
		}
	}
	fps := cfg.FPS
	if fps <= 0 {
		fps = DefaultFPS
	}
	width, height := cfg.Width, cfg.Height
	if width <= 0 || height <= 0 {
		width, height = 1920, 1080
	}
	project := cfg.ProjectName
	if project == "" {
		project = "Narration Timeline"
	}

	total := cfg.AudioDuration
	for _, e := range entries {
		if e.Range.EndTime > total {
			total = e.Range.EndTime
		}
	}

	doc := fcpxmlDoc{
		Version: "1.9",
		Resources: fcpxmlResource{
			Format: fcpxmlFormat{
				ID:            "r1",
				Name:          fmt.Sprintf("FFVideoFormat%dp%s", height, fpsLabel(fps)),
				FrameDuration: frameDuration(fps),
				Width:         width,
				Height:        height,
			},
		},
	}
	gap := fcpxmlGap{
		Name:     "Gap",
		Offset:   "0s",
		Start:    "0s",
		Duration: rational(total, fps),
	}

	for i, e := range entries {
		id := fmt.Sprintf("r%d", i+2)
		src := e.AssetPath
		if src == "" {
			src = fmt.Sprintf("scene_%03d.png", i+1)
		}
		name := e.Name
		if name == "" {
			name = filepath.Base(src)
		}
		dur := rational(e.Range.Duration(), fps)
		doc.Resources.Assets = append(doc.Resources.Assets, fcpxmlAsset{
			ID:       id,
			Name:     name,
			UID:      assetUID(src),
			Start:    "0s",
			Duration: dur,
			HasVideo: "1",
			Format:   "r1",
			MediaRep: originalMedia(src),
		})
		gap.Videos = append(gap.Videos, fcpxmlPlacement{
			Ref:      id,
			Lane:     "1",
			Name:     name,
			Offset:   rational(e.Range.StartTime, fps),
			Start:    "0s",
			Duration: dur,
		})
	}

	if cfg.AudioPath != "" {
		id := fmt.Sprintf("r%d", len(entries)+2)
		name := filepath.Base(cfg.AudioPath)
		dur := rational(cfg.AudioDuration, fps)
		rate := cfg.AudioRate
		if rate <= 0 {
			rate = 16000
		}
		doc.Resources.Assets = append(doc.Resources.Assets, fcpxmlAsset{
			ID:            id,
			Name:          name,
			UID:           assetUID(cfg.AudioPath),
			Start:         "0s",
			Duration:      dur,
			HasAudio:      "1",
			AudioSources:  "1",
			AudioChannels: "1",
			AudioRate:     fmt.Sprintf("%d", rate),
			MediaRep:      originalMedia(cfg.AudioPath),
		})
		gap.AudioClip = &fcpxmlPlacement{
			Ref:      id,
			Lane:     "-1",
			Name:     name,
			Offset:   "0s",
			Start:    "0s",
			Duration: dur,
		}
	}

	doc.Library = fcpxmlLibrary{Event: fcpxmlEvent{
		Name: project,
		Project: fcpxmlProject{
			Name: project,
			Sequence: fcpxmlSequence{
				Format:   "r1",
				Duration: rational(total, fps),
				TCStart:  "0s",
				TCFormat: "NDF",
				Spine:    fcpxmlSpine{Gap: gap},
			},
		},
	}}

	out, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal fcpxml: %w", err)
	}
	return xml.Header + "<!DOCTYPE fcpxml>\n" + string(out) + "\n", nil
}

func fpsLabel(fps float64) string {
	if isNTSC(fps) {
		return fmt.Sprintf("%.2f", fps)
	}
	return fmt.Sprintf("%d", nominalRate(fps))
}
