package timeline

import (
	"encoding/xml"
	"errors"
	"regexp"
	"strings"
	"testing"

	"github.com/lexiqai/narration-pipeline/internal/captions"
	"github.com/lexiqai/narration-pipeline/internal/stt"
)

func sampleEntries() []Entry {
	return []Entry{
		{Range: TimeRange{StartTime: 0, EndTime: 5}, Name: "intro", Comment: "opening\nshot"},
		{Range: TimeRange{StartTime: 5, EndTime: 3661.5}, AssetPath: "/renders/scene_b.png"},
	}
}

func TestWriteEDL(t *testing.T) {
	got, err := WriteEDL(sampleEntries(), EDLConfig{Title: "Episode 1", FPS: 24})
	if err != nil {
		t.Fatalf("WriteEDL failed: %v", err)
	}

	want := "TITLE: Episode 1\n" +
		"FCM: NON-DROP FRAME\n" +
		"\n" +
		"001  AX       V     C        00:00:00:00 00:00:05:00 00:00:00:00 00:00:05:00\n" +
		"* FROM CLIP NAME: intro\n" +
		"* COMMENT: opening shot\n" +
		"\n" +
		"002  AX       V     C        00:00:00:00 01:00:56:12 00:00:05:00 01:01:01:12\n" +
		"* FROM CLIP NAME: clip_002\n" +
		"* COMMENT: \n"
	if got != want {
		t.Errorf("Expected:\n%s\ngot:\n%s", want, got)
	}
}

func TestWriteEDL_RejectsBadRange(t *testing.T) {
	entries := sampleEntries()
	entries[1].Range.EndTime = 4

	out, err := WriteEDL(entries, EDLConfig{})
	var ve *ValidationError
	if !errors.As(err, &ve) || ve.Index != 1 {
		t.Fatalf("Expected ValidationError for entry 1, got %v", err)
	}
	if out != "" {
		t.Errorf("Expected no output on validation failure, got %q", out)
	}
}

func sampleCues() []captions.Cue {
	return []captions.Cue{
		{Text: "a b", StartTime: 0, EndTime: 0.9},
		{Text: "c d", StartTime: 0.9, EndTime: 3661.5},
	}
}

func TestWriteSRT(t *testing.T) {
	got, err := WriteSRT(sampleCues())
	if err != nil {
		t.Fatalf("WriteSRT failed: %v", err)
	}
	want := "1\n00:00:00,000 --> 00:00:00,900\na b\n\n" +
		"2\n00:00:00,900 --> 01:01:01,500\nc d\n\n"
	if got != want {
		t.Errorf("Expected %q, got %q", want, got)
	}
}

func TestWriteVTT(t *testing.T) {
	got, err := WriteVTT(sampleCues())
	if err != nil {
		t.Fatalf("WriteVTT failed: %v", err)
	}
	want := "WEBVTT\n\n" +
		"1\n00:00:00.000 --> 00:00:00.900\na b\n\n" +
		"2\n00:00:00.900 --> 01:01:01.500\nc d\n\n"
	if got != want {
		t.Errorf("Expected %q, got %q", want, got)
	}
}

func TestWriteSRT_Empty(t *testing.T) {
	got, err := WriteSRT(nil)
	if err != nil || got != "" {
		t.Errorf("Expected empty output, got %q, %v", got, err)
	}
}

func TestWriteVTT_RejectsBadCue(t *testing.T) {
	_, err := WriteVTT([]captions.Cue{{Text: "x", StartTime: 2, EndTime: 1}})
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Errorf("Expected ValidationError, got %v", err)
	}
}

func TestWriteFCPXML_WithAudio(t *testing.T) {
	cfg := FCPXMLConfig{ProjectName: "Episode 1", FPS: 24, AudioPath: "file:///audio/narration.wav", AudioDuration: 3661.5}
	got, err := WriteFCPXML(sampleEntries(), cfg)
	if err != nil {
		t.Fatalf("WriteFCPXML failed: %v", err)
	}

	var doc fcpxmlDoc
	if err := xml.Unmarshal([]byte(got), &doc); err != nil {
		t.Fatalf("Expected well-formed XML, got %v", err)
	}
	if doc.Version != "1.9" {
		t.Errorf("Expected version 1.9, got %s", doc.Version)
	}
	if doc.Resources.Format.FrameDuration != "1/24s" || doc.Resources.Format.Width != 1920 {
		t.Errorf("Unexpected format %+v", doc.Resources.Format)
	}
	if len(doc.Resources.Assets) != 3 {
		t.Fatalf("Expected 2 scene assets and 1 audio asset, got %d", len(doc.Resources.Assets))
	}
	audio := doc.Resources.Assets[2]
	if audio.MediaRep.Kind != "original-media" || audio.MediaRep.Src != "file:///audio/narration.wav" {
		t.Errorf("Expected original-media rep for the narration, got %+v", audio.MediaRep)
	}
	if src := doc.Resources.Assets[1].MediaRep.Src; src != "/renders/scene_b.png" {
		t.Errorf("Expected scene media-rep src /renders/scene_b.png, got %q", src)
	}
	if regexp.MustCompile(`<asset [^>]*\bsrc=`).MatchString(got) {
		t.Error("Expected no src attribute on asset elements")
	}

	gap := doc.Library.Event.Project.Sequence.Spine.Gap
	if len(gap.Videos) != 2 {
		t.Fatalf("Expected 2 placements, got %d", len(gap.Videos))
	}
	if gap.Videos[1].Offset != "120/24s" {
		t.Errorf("Expected second placement at 120/24s, got %s", gap.Videos[1].Offset)
	}
	if gap.AudioClip == nil || gap.AudioClip.Lane != "-1" || gap.AudioClip.Duration != "87876/24s" {
		t.Errorf("Expected audio clip spanning the narration, got %+v", gap.AudioClip)
	}
	if doc.Library.Event.Project.Sequence.Duration != "87876/24s" {
		t.Errorf("Expected sequence duration 87876/24s, got %s", doc.Library.Event.Project.Sequence.Duration)
	}

	again, _ := WriteFCPXML(sampleEntries(), cfg)
	if again != got {
		t.Error("Expected deterministic output")
	}
}

func TestWriteFCPXML_WithoutAudio(t *testing.T) {
	got, err := WriteFCPXML(sampleEntries(), FCPXMLConfig{})
	if err != nil {
		t.Fatalf("WriteFCPXML failed: %v", err)
	}
	if strings.Contains(got, "asset-clip") || strings.Contains(got, "hasAudio") {
		t.Error("Expected no audio elements when no audio is configured")
	}
	var doc fcpxmlDoc
	if err := xml.Unmarshal([]byte(got), &doc); err != nil {
		t.Fatalf("Expected well-formed XML, got %v", err)
	}
	if len(doc.Resources.Assets) != 2 {
		t.Errorf("Expected 2 assets, got %d", len(doc.Resources.Assets))
	}
}

func TestExport(t *testing.T) {
	req := ExportRequest{
		Title:   "Ep",
		Entries: sampleEntries()[:1],
		Words: []stt.Word{
			{Text: "one", StartTime: 0, EndTime: 0.5},
			{Text: "two", StartTime: 0.5, EndTime: 1},
		},
	}
	c := captions.DefaultConstraints()

	srt, err := Export("srt", req, c, 24)
	if err != nil {
		t.Fatalf("Export srt failed: %v", err)
	}
	if srt != "1\n00:00:00,000 --> 00:00:01,000\none two\n\n" {
		t.Errorf("Unexpected srt %q", srt)
	}

	req.FPS = 25
	edl, err := Export("edl", req, c, 24)
	if err != nil {
		t.Fatalf("Export edl failed: %v", err)
	}
	if !strings.Contains(edl, "00:00:05:00") {
		t.Errorf("Expected 5 s record out, got %q", edl)
	}

	if _, err := Export("docx", req, c, 24); !errors.Is(err, ErrUnknownFormat) {
		t.Errorf("Expected ErrUnknownFormat, got %v", err)
	}
	if _, ok := ContentType("vtt"); !ok {
		t.Error("Expected a content type for vtt")
	}
}
