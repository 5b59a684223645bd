package audio

import (
	"errors"
	"math"
	"testing"

	"github.com/lexiqai/narration-pipeline/internal/progress"
)

func TestSegmentCount(t *testing.T) {
	tests := []struct {
		total, target float64
		want          int
	}{
		{1500, 600, 3},
		{1200, 600, 2},
		{1, 600, 1},
		{0, 600, 0},
		{2.1, 0.3, 7},
		{10.5, 0.7, 15},
	}
	for _, tt := range tests {
		if got := SegmentCount(tt.total, tt.target); got != tt.want {
			t.Errorf("SegmentCount(%v, %v): expected %d, got %d", tt.total, tt.target, tt.want, got)
		}
	}
}

func TestSafeSegmentDuration(t *testing.T) {
	got := SafeSegmentDuration(DefaultMaxSegmentBytes)
	if got != 655 {
		t.Errorf("Expected 655 s, got %v", got)
	}
	if DefaultSegmentDuration > got {
		t.Errorf("Default segment duration %v exceeds safe duration %v", DefaultSegmentDuration, got)
	}
	if err := NewSegmenter().CheckCeiling(); err != nil {
		t.Errorf("Expected default configuration to pass, got %v", err)
	}

	s := &Segmenter{SegmentDuration: 900, MaxSegmentBytes: DefaultMaxSegmentBytes}
	if err := s.CheckCeiling(); !errors.Is(err, ErrSegmentTooLarge) {
		t.Errorf("Expected ErrSegmentTooLarge, got %v", err)
	}
}

func TestSegmenter_Split(t *testing.T) {
	// 15 s at 8 kHz with 6 s segments mirrors 1500 s with 600 s segments
	d := tone(8000, 15*8000, 1, 0.5)

	var events []progress.Event
	s := &Segmenter{
		SegmentDuration: 6,
		Progress:        func(e progress.Event) { events = append(events, e) },
	}
	segments, err := s.Split(d)
	if err != nil {
		t.Fatalf("Split failed: %v", err)
	}

	want := []struct{ start, end float64 }{{0, 6}, {6, 12}, {12, 15}}
	if len(segments) != len(want) {
		t.Fatalf("Expected %d segments, got %d", len(want), len(segments))
	}
	for i, w := range want {
		seg := segments[i]
		if seg.Index != i {
			t.Errorf("Segment %d: expected index %d, got %d", i, i, seg.Index)
		}
		if seg.StartTime != w.start || seg.EndTime != w.end {
			t.Errorf("Segment %d: expected [%v, %v), got [%v, %v)", i, w.start, w.end, seg.StartTime, seg.EndTime)
		}
		if seg.Duration != w.end-w.start {
			t.Errorf("Segment %d: expected duration %v, got %v", i, w.end-w.start, seg.Duration)
		}

		c, err := ParseHeader(seg.Payload)
		if err != nil {
			t.Fatalf("Segment %d: ParseHeader failed: %v", i, err)
		}
		if !c.IsCanonical() {
			t.Errorf("Segment %d: expected canonical header", i)
		}
		if math.Abs(c.Duration()-seg.Duration) > 1e-9 {
			t.Errorf("Segment %d: payload lasts %v s, expected %v", i, c.Duration(), seg.Duration)
		}
		if seg.Level.Silent {
			t.Errorf("Segment %d: tone flagged as silent", i)
		}
	}

	if len(events) != 3 {
		t.Fatalf("Expected 3 progress events, got %d", len(events))
	}
	if events[2].Percent != 100 || events[2].Stage != progress.StageSegmenting {
		t.Errorf("Expected final segmenting event at 100%%, got %+v", events[2])
	}
}

func TestSegmenter_Split_ShortSource(t *testing.T) {
	segments, err := (&Segmenter{SegmentDuration: 600}).Split(tone(16000, 16000, 1, 0.5))
	if err != nil {
		t.Fatalf("Split failed: %v", err)
	}
	if len(segments) != 1 {
		t.Fatalf("Expected 1 segment, got %d", len(segments))
	}
	if segments[0].EndTime != 1 {
		t.Errorf("Expected end time 1, got %v", segments[0].EndTime)
	}
}

func TestSegmenter_Split_Silence(t *testing.T) {
	segments, err := (&Segmenter{SegmentDuration: 1}).Split(tone(16000, 16000, 1, 0))
	if err != nil {
		t.Fatalf("Split failed: %v", err)
	}
	if !segments[0].Level.Silent {
		t.Error("Expected silent segment to be flagged")
	}
}

func TestSegmenter_Split_Empty(t *testing.T) {
	_, err := NewSegmenter().Split(&Decoded{SampleRate: 16000, Channels: [][]float32{{}}})
	if !errors.Is(err, ErrEmptyAudio) {
		t.Errorf("Expected ErrEmptyAudio, got %v", err)
	}
	var de *DecodeError
	if !errors.As(err, &de) {
		t.Errorf("Expected DecodeError, got %T", err)
	}
}

func TestSegmenter_Split_TooLarge(t *testing.T) {
	s := &Segmenter{SegmentDuration: 6, MaxSegmentBytes: 1000}
	segments, err := s.Split(tone(8000, 15*8000, 1, 0.5))
	if !errors.Is(err, ErrSegmentTooLarge) {
		t.Errorf("Expected ErrSegmentTooLarge, got %v", err)
	}
	if segments != nil {
		t.Errorf("Expected no partial segments, got %d", len(segments))
	}
}

func TestSegmenter_Split_FractionalTargets(t *testing.T) {
	tests := []struct {
		name    string
		frames  int
		target  float64
		wantLen int
	}{
		{"2.1 s in 0.3 s segments", 33600, 0.3, 7},
		{"10.5 s in 0.7 s segments", 168000, 0.7, 15},
		{"1 s in 0.35 s segments", 16000, 0.35, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := tone(16000, tt.frames, 1, 0.5)
			segments, err := (&Segmenter{SegmentDuration: tt.target}).Split(d)
			if err != nil {
				t.Fatalf("Split failed: %v", err)
			}
			if len(segments) != tt.wantLen {
				t.Fatalf("Expected %d segments, got %d", tt.wantLen, len(segments))
			}
			if segments[0].StartTime != 0 {
				t.Errorf("Expected first segment to start at 0, got %v", segments[0].StartTime)
			}
			for i := 1; i < len(segments); i++ {
				if segments[i].StartTime != segments[i-1].EndTime {
					t.Errorf("Segment %d starts at %v, previous ends at %v", i, segments[i].StartTime, segments[i-1].EndTime)
				}
			}
			if last := segments[len(segments)-1]; last.EndTime != d.Duration() {
				t.Errorf("Expected last segment to end at %v, got %v", d.Duration(), last.EndTime)
			}
		})
	}
}
