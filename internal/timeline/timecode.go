// Package timeline renders time ranges and caption cues into editing and
// caption interchange formats. Every format shares one timecode quantization
// so the same instant renders consistently across files.
package timeline

import (
	"fmt"
	"math"
)

// DefaultFPS is the frame rate used when none is configured.
const DefaultFPS = 24.0

// Style selects a timecode rendering.
type Style int

const (
	// StyleFrames renders HH:MM:SS:FF for edit lists.
	StyleFrames Style = iota
	// StyleSRT renders HH:MM:SS,mmm.
	StyleSRT
	// StyleVTT renders HH:MM:SS.mmm.
	StyleVTT
)

// TimeRange is a span of source time in seconds.
type TimeRange struct {
	StartTime float64 `json:"startTime"`
	EndTime   float64 `json:"endTime"`
}

// Duration returns EndTime - StartTime.
func (r TimeRange) Duration() float64 {
	return r.EndTime - r.StartTime
}

// clock is one instant quantized to whole milliseconds.
type clock struct {
	hours, minutes, seconds, millis int64
}

func quantize(sec float64) clock {
	if sec < 0 || math.IsNaN(sec) {
		sec = 0
	}
	ms := int64(math.Round(sec * 1000))
	whole := ms / 1000
	return clock{
		hours:   whole / 3600,
		minutes: whole % 3600 / 60,
		seconds: whole % 60,
		millis:  ms % 1000,
	}
}

// frames derives the frame field from the millisecond remainder.
func (c clock) frames(fps float64) int64 {
	return int64(math.Floor(float64(c.millis) * fps / 1000))
}

// totalFrames counts frames at the nominal rate, matching the timecode label.
func (c clock) totalFrames(fps float64) int64 {
	whole := c.hours*3600 + c.minutes*60 + c.seconds
	return whole*nominalRate(fps) + c.frames(fps)
}

// Timecode renders sec in the given style. Negative values render as zero;
// writers reject them before they get here.
func Timecode(sec, fps float64, style Style) string {
	if fps <= 0 {
		fps = DefaultFPS
	}
	c := quantize(sec)
	switch style {
	case StyleSRT:
		return fmt.Sprintf("%02d:%02d:%02d,%03d", c.hours, c.minutes, c.seconds, c.millis)
	case StyleVTT:
		return fmt.Sprintf("%02d:%02d:%02d.%03d", c.hours, c.minutes, c.seconds, c.millis)
	default:
		return fmt.Sprintf("%02d:%02d:%02d:%02d", c.hours, c.minutes, c.seconds, c.frames(fps))
	}
}

// nominalRate is the integer frame count per timecode second.
func nominalRate(fps float64) int64 {
	return int64(math.Round(fps))
}

// isNTSC reports a 1000/1001 rate such as 23.976 or 29.97.
func isNTSC(fps float64) bool {
	return math.Abs(fps-math.Round(fps)) > 0.001
}
