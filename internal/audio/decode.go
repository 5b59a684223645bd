package audio

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/flac"
	"github.com/gopxl/beep/mp3"
	"github.com/gopxl/beep/vorbis"
	"github.com/gopxl/beep/wav"
)

// SourceFormat identifies a decodable source container.
type SourceFormat string

const (
	FormatWAV     SourceFormat = "wav"
	FormatMP3     SourceFormat = "mp3"
	FormatFLAC    SourceFormat = "flac"
	FormatVorbis  SourceFormat = "ogg"
	FormatUnknown SourceFormat = ""
)

const decodeBlockFrames = 4096

// DetectFormat picks a decoder from the file extension, falling back to the
// leading magic bytes.
func DetectFormat(name string, head []byte) SourceFormat {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".wav", ".wave":
		return FormatWAV
	case ".mp3":
		return FormatMP3
	case ".flac":
		return FormatFLAC
	case ".ogg", ".oga":
		return FormatVorbis
	}

	switch {
	case len(head) >= 12 && bytes.Equal(head[0:4], []byte("RIFF")) && bytes.Equal(head[8:12], []byte("WAVE")):
		return FormatWAV
	case bytes.HasPrefix(head, []byte("fLaC")):
		return FormatFLAC
	case bytes.HasPrefix(head, []byte("OggS")):
		return FormatVorbis
	case bytes.HasPrefix(head, []byte("ID3")):
		return FormatMP3
	case len(head) >= 2 && head[0] == 0xFF && head[1]&0xE0 == 0xE0:
		return FormatMP3
	}
	return FormatUnknown
}

// Decode reads an entire source asset into memory. name is used for format
// detection and error messages only.
func Decode(r io.Reader, name string) (*Decoded, error) {
	br := bufio.NewReader(r)
	head, _ := br.Peek(12)

	var (
		stream beep.StreamSeekCloser
		format beep.Format
		err    error
	)
	switch DetectFormat(name, head) {
	case FormatWAV:
		stream, format, err = wav.Decode(br)
	case FormatMP3:
		stream, format, err = mp3.Decode(io.NopCloser(br))
	case FormatFLAC:
		stream, format, err = flac.Decode(br)
	case FormatVorbis:
		stream, format, err = vorbis.Decode(io.NopCloser(br))
	default:
		return nil, &DecodeError{Source: name, Err: fmt.Errorf("unsupported or unrecognized audio format")}
	}
	if err != nil {
		return nil, &DecodeError{Source: name, Err: err}
	}
	defer stream.Close()

	return drain(stream, format, name)
}

// drain copies the whole stream into per-channel buffers. beep always yields
// stereo frames; mono sources carry the same sample on both sides, so only
// format.NumChannels channels are kept.
func drain(stream beep.StreamSeekCloser, format beep.Format, name string) (*Decoded, error) {
	channels := format.NumChannels
	if channels < 1 {
		return nil, &DecodeError{Source: name, Err: fmt.Errorf("source declares %d channels", channels)}
	}
	if channels > 2 {
		channels = 2
	}
	if format.SampleRate <= 0 {
		return nil, &DecodeError{Source: name, Err: fmt.Errorf("source declares sample rate %d", format.SampleRate)}
	}

	capacity := stream.Len()
	if capacity < 0 {
		capacity = 0
	}
	d := &Decoded{SampleRate: int(format.SampleRate), Channels: make([][]float32, channels)}
	for c := range d.Channels {
		d.Channels[c] = make([]float32, 0, capacity)
	}

	block := make([][2]float64, decodeBlockFrames)
	for {
		n, ok := stream.Stream(block)
		for _, frame := range block[:n] {
			for c := range d.Channels {
				d.Channels[c] = append(d.Channels[c], float32(frame[c]))
			}
		}
		if !ok {
			break
		}
	}
	if err := stream.Err(); err != nil {
		return nil, &DecodeError{Source: name, Err: err}
	}
	if d.Frames() == 0 {
		return nil, &DecodeError{Source: name, Err: ErrEmptyAudio}
	}
	return d, nil
}
