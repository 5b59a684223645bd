package audio

import (
	"errors"
	"math"
	"testing"
)

func tone(rate, frames, channels int, amplitude float32) *Decoded {
	d := &Decoded{SampleRate: rate, Channels: make([][]float32, channels)}
	for c := range d.Channels {
		d.Channels[c] = make([]float32, frames)
		for i := range d.Channels[c] {
			d.Channels[c][i] = amplitude * float32(math.Sin(2*math.Pi*440*float64(i)/float64(rate)))
		}
	}
	return d
}

func TestEncodeCanonical(t *testing.T) {
	// one second of 44.1 kHz stereo
	buf, err := EncodeCanonical(tone(44100, 44100, 2, 0.5))
	if err != nil {
		t.Fatalf("EncodeCanonical failed: %v", err)
	}

	c, err := ParseHeader(buf)
	if err != nil {
		t.Fatalf("ParseHeader failed: %v", err)
	}
	if !c.IsCanonical() {
		t.Errorf("Expected canonical header, got %+v", c.Header)
	}
	if c.DataLength != 32000 {
		t.Errorf("Expected 32000 payload bytes, got %d", c.DataLength)
	}
	if len(buf) != HeaderSize+32000 {
		t.Errorf("Expected %d bytes, got %d", HeaderSize+32000, len(buf))
	}
}

func TestEncodeCanonical_Empty(t *testing.T) {
	_, err := EncodeCanonical(&Decoded{SampleRate: 16000, Channels: [][]float32{{}}})
	if !errors.Is(err, ErrEmptyAudio) {
		t.Errorf("Expected ErrEmptyAudio, got %v", err)
	}
}

func TestResampleMono_Length(t *testing.T) {
	tests := []struct {
		rate, frames, want int
	}{
		{16000, 160, 160},
		{8000, 80, 160},
		{48000, 480, 160},
		{44100, 3, 2},
	}
	for _, tt := range tests {
		out, err := ResampleMono(tone(tt.rate, tt.frames, 1, 0.1), CanonicalSampleRate)
		if err != nil {
			t.Fatalf("ResampleMono failed: %v", err)
		}
		if len(out) != tt.want {
			t.Errorf("rate %d frames %d: expected %d samples, got %d", tt.rate, tt.frames, tt.want, len(out))
		}
	}
}

func TestResampleMono_Downmix(t *testing.T) {
	d := &Decoded{SampleRate: 16000, Channels: [][]float32{{0.5, 0.5}, {-0.5, 0.5}}}
	out, err := ResampleMono(d, 16000)
	if err != nil {
		t.Fatalf("ResampleMono failed: %v", err)
	}
	if out[0] != 0 {
		t.Errorf("Expected opposite channels to cancel, got %d", out[0])
	}
	if out[1] != quantize(0.5) {
		t.Errorf("Expected %d, got %d", quantize(0.5), out[1])
	}
}

func TestQuantize(t *testing.T) {
	tests := []struct {
		in   float32
		want int16
	}{
		{0, 0},
		{1, math.MaxInt16},
		{-1, math.MinInt16},
		{2, math.MaxInt16},
		{-3, math.MinInt16},
		{float32(math.NaN()), 0},
	}
	for _, tt := range tests {
		if got := quantize(tt.in); got != tt.want {
			t.Errorf("quantize(%v): expected %d, got %d", tt.in, tt.want, got)
		}
	}
}

func TestSamplesBytes_RoundTrip(t *testing.T) {
	samples := []int16{0, 1, -1, 32767, -32768, 1234}
	got, err := BytesToSamples(SamplesToBytes(samples))
	if err != nil {
		t.Fatalf("BytesToSamples failed: %v", err)
	}
	for i := range samples {
		if got[i] != samples[i] {
			t.Errorf("Sample %d: expected %d, got %d", i, samples[i], got[i])
		}
	}

	if _, err := BytesToSamples([]byte{1, 2, 3}); err == nil {
		t.Error("Expected error for odd-length PCM data")
	}
}

func TestDecodedSlice_Clamps(t *testing.T) {
	d := tone(100, 10, 2, 1)
	s := d.Slice(-5, 50)
	if s.Frames() != 10 {
		t.Errorf("Expected 10 frames, got %d", s.Frames())
	}
	if s := d.Slice(8, 3); s.Frames() != 0 {
		t.Errorf("Expected empty slice, got %d frames", s.Frames())
	}
}
