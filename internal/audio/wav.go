package audio

import (
	"encoding/binary"
	"fmt"
)

// Canonical encoding produced by EncodeCanonical and accepted by SplitContainer.
const (
	CanonicalSampleRate = 16000
	CanonicalChannels   = 1
	CanonicalBitDepth   = 16

	formatPCM = 1

	// HeaderSize is the size of the minimal RIFF/WAVE header written by Header.Encode.
	HeaderSize = 44

	riffPreambleSize = 12
	chunkHeaderSize  = 8
	fmtChunkSize     = 16
)

// FormatError reports a container that is unrecognized or internally inconsistent.
type FormatError struct {
	Reason string
}

func (e *FormatError) Error() string {
	return "wav: " + e.Reason
}

func formatErrorf(format string, args ...interface{}) error {
	return &FormatError{Reason: fmt.Sprintf(format, args...)}
}

// Header holds the fmt sub-block of a linear PCM container.
// Byte rate and block alignment are always derived, never stored.
type Header struct {
	FormatCode    uint16
	Channels      uint16
	SampleRate    uint32
	BitsPerSample uint16
}

// CanonicalHeader returns the header for mono 16 kHz 16-bit PCM.
func CanonicalHeader() Header {
	return Header{
		FormatCode:    formatPCM,
		Channels:      CanonicalChannels,
		SampleRate:    CanonicalSampleRate,
		BitsPerSample: CanonicalBitDepth,
	}
}

// BlockAlign is the number of bytes per sample frame.
func (h Header) BlockAlign() int {
	return int(h.Channels) * int(h.BitsPerSample/8)
}

// ByteRate is the number of payload bytes per second of audio.
func (h Header) ByteRate() int {
	return int(h.SampleRate) * h.BlockAlign()
}

// IsCanonical reports whether h describes the encoding EncodeCanonical produces.
func (h Header) IsCanonical() bool {
	return h == CanonicalHeader()
}

// Encode renders a 44-byte header for a payload of payloadLen bytes.
// The RIFF size and data size fields are both computed from payloadLen.
func (h Header) Encode(payloadLen int) []byte {
	b := make([]byte, HeaderSize)
	le := binary.LittleEndian

	copy(b[0:4], "RIFF")
	le.PutUint32(b[4:8], uint32(HeaderSize-8+payloadLen))
	copy(b[8:12], "WAVE")

	copy(b[12:16], "fmt ")
	le.PutUint32(b[16:20], fmtChunkSize)
	le.PutUint16(b[20:22], h.FormatCode)
	le.PutUint16(b[22:24], h.Channels)
	le.PutUint32(b[24:28], h.SampleRate)
	le.PutUint32(b[28:32], uint32(h.ByteRate()))
	le.PutUint16(b[32:34], uint16(h.BlockAlign()))
	le.PutUint16(b[34:36], h.BitsPerSample)

	copy(b[36:40], "data")
	le.PutUint32(b[40:44], uint32(payloadLen))
	return b
}

// Container is a parsed RIFF/WAVE buffer: its format plus where the payload lives.
type Container struct {
	Header

	// RIFFSize is the outer size field as declared in the buffer.
	RIFFSize int

	DataOffset int
	DataLength int
}

// Payload returns the sample bytes of b described by c.
func (c Container) Payload(b []byte) []byte {
	return b[c.DataOffset : c.DataOffset+c.DataLength]
}

// Duration is the payload length expressed in seconds.
func (c Container) Duration() float64 {
	rate := c.ByteRate()
	if rate == 0 {
		return 0
	}
	return float64(c.DataLength) / float64(rate)
}

// ParseHeader walks the chunk list of a RIFF/WAVE buffer. It validates the
// outer signature and the fmt chunk, then stops at the first data chunk.
// It never guesses an offset: any missing or inconsistent field is an error.
func ParseHeader(b []byte) (Container, error) {
	if len(b) < riffPreambleSize {
		return Container{}, formatErrorf("buffer of %d bytes is shorter than the RIFF preamble", len(b))
	}
	if string(b[0:4]) != "RIFF" || string(b[8:12]) != "WAVE" {
		return Container{}, formatErrorf("unrecognized outer tag %q/%q", b[0:4], b[8:12])
	}

	le := binary.LittleEndian
	c := Container{RIFFSize: int(le.Uint32(b[4:8]))}
	haveFmt := false

	pos := riffPreambleSize
	for pos+chunkHeaderSize <= len(b) {
		id := string(b[pos : pos+4])
		size := int(le.Uint32(b[pos+4 : pos+8]))
		body := pos + chunkHeaderSize

		switch id {
		case "fmt ":
			if size < fmtChunkSize || body+fmtChunkSize > len(b) {
				return Container{}, formatErrorf("fmt chunk of %d bytes is truncated", size)
			}
			c.FormatCode = le.Uint16(b[body : body+2])
			c.Channels = le.Uint16(b[body+2 : body+4])
			c.SampleRate = le.Uint32(b[body+4 : body+8])
			c.BitsPerSample = le.Uint16(b[body+14 : body+16])
			if err := validateFormat(c.Header); err != nil {
				return Container{}, err
			}
			declaredRate := int(le.Uint32(b[body+8 : body+12]))
			declaredAlign := int(le.Uint16(b[body+12 : body+14]))
			if declaredRate != c.ByteRate() || declaredAlign != c.BlockAlign() {
				return Container{}, formatErrorf("fmt chunk declares byte rate %d / block align %d, expected %d / %d",
					declaredRate, declaredAlign, c.ByteRate(), c.BlockAlign())
			}
			haveFmt = true

		case "data":
			if !haveFmt {
				return Container{}, formatErrorf("data chunk at offset %d precedes fmt chunk", pos)
			}
			if body+size > len(b) {
				return Container{}, formatErrorf("declared payload length %d exceeds the %d bytes available", size, len(b)-body)
			}
			c.DataOffset = body
			c.DataLength = size
			return c, nil
		}

		// chunks are word aligned
		pos = body + size + size&1
	}

	return Container{}, formatErrorf("no data chunk found before end of buffer (%d bytes)", len(b))
}

func validateFormat(h Header) error {
	if h.FormatCode != formatPCM {
		return formatErrorf("format code %d is not linear PCM", h.FormatCode)
	}
	if h.Channels == 0 {
		return formatErrorf("channel count is zero")
	}
	if h.SampleRate == 0 {
		return formatErrorf("sample rate is zero")
	}
	if h.BitsPerSample == 0 || h.BitsPerSample%8 != 0 {
		return formatErrorf("unsupported bit depth %d", h.BitsPerSample)
	}
	return nil
}
