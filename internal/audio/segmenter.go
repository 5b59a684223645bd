package audio

import (
	"errors"
	"fmt"
	"math"

	"github.com/lexiqai/narration-pipeline/internal/progress"
)

const (
	// DefaultSegmentDuration keeps a worst-case canonical segment at
	// 600 s * 32000 B/s = 19.2 MB, under 80 % of a 25 MiB upload ceiling.
	DefaultSegmentDuration = 600.0

	// DefaultMaxSegmentBytes is the transcription upload ceiling.
	DefaultMaxSegmentBytes = 25 * 1024 * 1024

	// ceilingMargin is the fraction of the byte ceiling a segment may use.
	ceilingMargin = 0.8
)

// ErrSegmentTooLarge means the configured segment duration cannot fit the
// byte ceiling. It is a configuration error, never resolved by truncation.
var ErrSegmentTooLarge = errors.New("encoded segment exceeds byte ceiling")

// Segment is one bounded, independently decodable slice of a source.
// Times are seconds on the source timeline.
type Segment struct {
	Index     int     `json:"index"`
	StartTime float64 `json:"startTime"`
	EndTime   float64 `json:"endTime"`
	Duration  float64 `json:"duration"`
	Payload   []byte  `json:"-"`
	Level     Level   `json:"level"`
}

// Segmenter slices audio into fixed-duration canonical segments.
type Segmenter struct {
	// SegmentDuration is the target length in seconds; DefaultSegmentDuration when zero.
	SegmentDuration float64
	// MaxSegmentBytes is the per-segment ceiling; zero disables the check.
	MaxSegmentBytes int
	// SilenceThreshold is the RMS level under which a segment is flagged silent.
	SilenceThreshold float64
	// Progress receives one event per produced segment.
	Progress progress.Reporter
}

// NewSegmenter returns a Segmenter with default duration and ceiling.
func NewSegmenter() *Segmenter {
	return &Segmenter{
		SegmentDuration:  DefaultSegmentDuration,
		MaxSegmentBytes:  DefaultMaxSegmentBytes,
		SilenceThreshold: DefaultSilenceThreshold,
	}
}

func (s *Segmenter) segmentDuration() float64 {
	if s.SegmentDuration <= 0 {
		return DefaultSegmentDuration
	}
	return s.SegmentDuration
}

func (s *Segmenter) silenceThreshold() float64 {
	if s.SilenceThreshold <= 0 {
		return DefaultSilenceThreshold
	}
	return s.SilenceThreshold
}

// SegmentCount returns ceil(total/target). Quotients within a nanosecond of
// a whole number count as that number.
func SegmentCount(total, target float64) int {
	if total <= 0 || target <= 0 {
		return 0
	}
	n := total / target
	if r := math.Round(n); math.Abs(n-r) < 1e-9 {
		return int(r)
	}
	return int(math.Ceil(n))
}

// framesPerSegment converts the target duration to whole sample frames.
func framesPerSegment(target float64, sampleRate int) int {
	n := int(math.Round(target * float64(sampleRate)))
	if n < 1 {
		return 1
	}
	return n
}

// SafeSegmentDuration returns the longest whole-second duration whose
// canonical encoding stays within 80 % of ceilingBytes.
func SafeSegmentDuration(ceilingBytes int) float64 {
	usable := float64(ceilingBytes)*ceilingMargin - HeaderSize
	perSecond := float64(CanonicalHeader().ByteRate())
	if usable < perSecond {
		return 0
	}
	return math.Floor(usable / perSecond)
}

// CheckCeiling reports whether the configured duration leaves the documented
// margin under the configured ceiling.
func (s *Segmenter) CheckCeiling() error {
	if s.MaxSegmentBytes <= 0 {
		return nil
	}
	if safe := SafeSegmentDuration(s.MaxSegmentBytes); s.segmentDuration() > safe {
		return fmt.Errorf("%w: %.0f s segments need %d bytes, ceiling %d allows at most %.0f s",
			ErrSegmentTooLarge, s.segmentDuration(),
			int(s.segmentDuration())*CanonicalHeader().ByteRate()+HeaderSize, s.MaxSegmentBytes, safe)
	}
	return nil
}

// Split slices d into ceil(duration/SegmentDuration) canonical segments.
// Any failure aborts the whole call; no partial list is returned.
func (s *Segmenter) Split(d *Decoded) ([]Segment, error) {
	if d.Frames() == 0 || d.SampleRate <= 0 {
		return nil, &DecodeError{Err: ErrEmptyAudio}
	}

	frames := d.Frames()
	perSegment := framesPerSegment(s.segmentDuration(), d.SampleRate)
	count := (frames + perSegment - 1) / perSegment
	rate := float64(d.SampleRate)

	segments := make([]Segment, 0, count)
	for i := 0; i < count; i++ {
		from := i * perSegment
		to := min(from+perSegment, frames)
		start := float64(from) / rate
		end := float64(to) / rate

		payload, err := EncodeCanonical(d.Slice(from, to))
		if err != nil {
			return nil, fmt.Errorf("encode segment %d: %w", i, err)
		}
		if s.MaxSegmentBytes > 0 && len(payload) > s.MaxSegmentBytes {
			return nil, fmt.Errorf("%w: segment %d is %d bytes, ceiling is %d",
				ErrSegmentTooLarge, i, len(payload), s.MaxSegmentBytes)
		}

		segments = append(segments, Segment{
			Index:     i,
			StartTime: start,
			EndTime:   end,
			Duration:  end - start,
			Payload:   payload,
			Level:     payloadLevel(payload[HeaderSize:], CanonicalBitDepth, s.silenceThreshold()),
		})
		s.Progress.Units(progress.StageSegmenting, i+1, count, fmt.Sprintf("segment %d of %d encoded", i+1, count))
	}
	return segments, nil
}
