package audio

import (
	"bytes"
	"errors"
	"testing"
)

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		name string
		head []byte
		want SourceFormat
	}{
		{"talk.wav", nil, FormatWAV},
		{"talk.MP3", nil, FormatMP3},
		{"talk.flac", nil, FormatFLAC},
		{"talk.ogg", nil, FormatVorbis},
		{"blob", []byte("RIFF\x00\x00\x00\x00WAVE"), FormatWAV},
		{"blob", []byte("fLaC\x00\x00"), FormatFLAC},
		{"blob", []byte("OggS\x00"), FormatVorbis},
		{"blob", []byte("ID3\x04"), FormatMP3},
		{"blob", []byte{0xFF, 0xFB, 0x90}, FormatMP3},
		{"blob", []byte("hello"), FormatUnknown},
	}
	for _, tt := range tests {
		if got := DetectFormat(tt.name, tt.head); got != tt.want {
			t.Errorf("DetectFormat(%q, %q): expected %q, got %q", tt.name, tt.head, tt.want, got)
		}
	}
}

func TestDecode_WAV(t *testing.T) {
	buf, err := EncodeCanonical(tone(16000, 1600, 1, 0.5))
	if err != nil {
		t.Fatalf("EncodeCanonical failed: %v", err)
	}

	d, err := Decode(bytes.NewReader(buf), "tone.wav")
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if d.SampleRate != 16000 {
		t.Errorf("Expected sample rate 16000, got %d", d.SampleRate)
	}
	if len(d.Channels) != 1 {
		t.Errorf("Expected 1 channel, got %d", len(d.Channels))
	}
	if d.Frames() != 1600 {
		t.Errorf("Expected 1600 frames, got %d", d.Frames())
	}
}

func TestDecode_Unrecognized(t *testing.T) {
	_, err := Decode(bytes.NewReader([]byte("definitely not audio")), "notes.txt")
	var de *DecodeError
	if !errors.As(err, &de) {
		t.Fatalf("Expected DecodeError, got %v", err)
	}
	if de.Source != "notes.txt" {
		t.Errorf("Expected source notes.txt, got %q", de.Source)
	}
}
