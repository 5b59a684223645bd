package audio

import (
	"errors"
	"fmt"
	"math"
)

// ErrEmptyAudio is returned when there is no audio to encode.
var ErrEmptyAudio = errors.New("audio has zero duration")

// DecodeError reports source audio that could not be read.
type DecodeError struct {
	Source string
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Source == "" {
		return fmt.Sprintf("decode audio: %v", e.Err)
	}
	return fmt.Sprintf("decode audio %s: %v", e.Source, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Decoded is audio held fully in memory as one float buffer per channel,
// samples in [-1, 1]. All channel buffers have the same length.
type Decoded struct {
	SampleRate int
	Channels   [][]float32
}

// Frames returns the number of samples per channel.
func (d *Decoded) Frames() int {
	if d == nil || len(d.Channels) == 0 {
		return 0
	}
	return len(d.Channels[0])
}

// Duration returns the length in seconds.
func (d *Decoded) Duration() float64 {
	if d == nil || d.SampleRate <= 0 {
		return 0
	}
	return float64(d.Frames()) / float64(d.SampleRate)
}

// Slice returns a view of frames [from, to). Bounds are clamped to the buffer.
func (d *Decoded) Slice(from, to int) *Decoded {
	n := d.Frames()
	if from < 0 {
		from = 0
	}
	if to > n {
		to = n
	}
	if from > to {
		from = to
	}
	out := &Decoded{SampleRate: d.SampleRate, Channels: make([][]float32, len(d.Channels))}
	for c, samples := range d.Channels {
		out.Channels[c] = samples[from:to]
	}
	return out
}

// EncodeCanonical converts decoded audio into a mono 16 kHz 16-bit PCM
// container. It never returns an empty container.
func EncodeCanonical(d *Decoded) ([]byte, error) {
	samples, err := ResampleMono(d, CanonicalSampleRate)
	if err != nil {
		return nil, err
	}
	payload := SamplesToBytes(samples)
	out := make([]byte, 0, HeaderSize+len(payload))
	out = append(out, CanonicalHeader().Encode(len(payload))...)
	out = append(out, payload...)
	return out, nil
}

// ResampleMono down-mixes and resamples d to targetRate with nearest-neighbour
// mapping: output sample i reads source index floor(srcRate*i/targetRate).
// Source indices past the end read as silence.
func ResampleMono(d *Decoded, targetRate int) ([]int16, error) {
	if d == nil || len(d.Channels) == 0 || d.SampleRate <= 0 || d.Frames() == 0 {
		return nil, ErrEmptyAudio
	}
	if targetRate <= 0 {
		return nil, fmt.Errorf("invalid target sample rate %d", targetRate)
	}

	frames := int64(d.Frames())
	srcRate := int64(d.SampleRate)
	dstRate := int64(targetRate)
	outLen := (frames*dstRate + srcRate - 1) / srcRate

	channels := float32(len(d.Channels))
	out := make([]int16, outLen)
	for i := int64(0); i < outLen; i++ {
		src := srcRate * i / dstRate
		if src >= frames {
			continue
		}
		var sum float32
		for _, ch := range d.Channels {
			sum += ch[src]
		}
		out[i] = quantize(sum / channels)
	}
	return out, nil
}

// quantize clamps v to [-1, 1] and scales asymmetrically so that -1 maps
// to math.MinInt16 and 1 maps to math.MaxInt16.
func quantize(v float32) int16 {
	if math.IsNaN(float64(v)) {
		return 0
	}
	if v > 1 {
		v = 1
	} else if v < -1 {
		v = -1
	}
	if v < 0 {
		return int16(v * -math.MinInt16)
	}
	return int16(v * math.MaxInt16)
}

// SamplesToBytes encodes samples as little-endian 16-bit PCM.
func SamplesToBytes(samples []int16) []byte {
	b := make([]byte, len(samples)*2)
	for i, sample := range samples {
		b[i*2] = byte(sample)
		b[i*2+1] = byte(sample >> 8)
	}
	return b
}

// BytesToSamples decodes little-endian 16-bit PCM.
func BytesToSamples(b []byte) ([]int16, error) {
	if len(b)%2 != 0 {
		return nil, fmt.Errorf("PCM data length must be even (16-bit samples)")
	}
	samples := make([]int16, len(b)/2)
	for i := range samples {
		samples[i] = int16(b[i*2]) | int16(b[i*2+1])<<8
	}
	return samples, nil
}
