package audio

import (
	"fmt"

	"github.com/lexiqai/narration-pipeline/internal/progress"
)

// SplitContainer carves an already-encoded PCM container into sub-containers
// without decoding it. Each sub-container gets a freshly encoded header whose
// length fields match its slice, so concatenating the payloads reproduces the
// original payload exactly.
func (s *Segmenter) SplitContainer(b []byte) ([]Segment, error) {
	c, err := ParseHeader(b)
	if err != nil {
		return nil, err
	}
	if c.DataLength == 0 {
		return nil, formatErrorf("container has an empty payload")
	}

	byteRate := c.ByteRate()
	align := c.BlockAlign()
	sliceLen := int(s.segmentDuration() * float64(byteRate))
	sliceLen -= sliceLen % align
	if sliceLen <= 0 {
		return nil, fmt.Errorf("segment duration %.3f s is shorter than one sample frame", s.segmentDuration())
	}

	payload := c.Payload(b)
	count := (len(payload) + sliceLen - 1) / sliceLen
	segments := make([]Segment, 0, count)
	for i, off := 0, 0; off < len(payload); i, off = i+1, off+sliceLen {
		end := off + sliceLen
		if end > len(payload) {
			end = len(payload)
		}
		slice := payload[off:end]

		sub := make([]byte, 0, HeaderSize+len(slice))
		sub = append(sub, c.Header.Encode(len(slice))...)
		sub = append(sub, slice...)
		if s.MaxSegmentBytes > 0 && len(sub) > s.MaxSegmentBytes {
			return nil, fmt.Errorf("%w: segment %d is %d bytes, ceiling is %d",
				ErrSegmentTooLarge, i, len(sub), s.MaxSegmentBytes)
		}

		start := float64(off) / float64(byteRate)
		stop := float64(end) / float64(byteRate)
		segments = append(segments, Segment{
			Index:     i,
			StartTime: start,
			EndTime:   stop,
			Duration:  stop - start,
			Payload:   sub,
			Level:     payloadLevel(slice, int(c.BitsPerSample), s.silenceThreshold()),
		})
		s.Progress.Units(progress.StageSegmenting, i+1, count, fmt.Sprintf("container slice %d of %d", i+1, count))
	}
	return segments, nil
}
