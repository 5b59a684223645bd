package audio

import "math"

// DefaultSilenceThreshold is the RMS level below which a segment is treated as
// silent. It is on the int16 scale.
const DefaultSilenceThreshold = 150.0

// Level summarizes the loudness of a run of samples.
type Level struct {
	RMS    float64 `json:"rms"`
	Peak   int     `json:"peak"`
	Silent bool    `json:"silent"`
}

// MeasureLevel computes RMS and peak amplitude and flags the run as silent
// when RMS is under threshold.
func MeasureLevel(samples []int16, threshold float64) Level {
	peak := 0
	for _, s := range samples {
		abs := int(s)
		if abs < 0 {
			abs = -abs
		}
		if abs > peak {
			peak = abs
		}
	}
	rms := CalculateRMS(samples)
	return Level{RMS: rms, Peak: peak, Silent: rms < threshold}
}

// CalculateRMS calculates the root mean square of audio samples.
func CalculateRMS(samples []int16) float64 {
	if len(samples) == 0 {
		return 0.0
	}

	sum := 0.0
	for _, sample := range samples {
		sum += float64(sample) * float64(sample)
	}

	return math.Sqrt(sum / float64(len(samples)))
}

// payloadLevel measures a 16-bit PCM payload. Payloads of other bit depths
// report a zero level.
func payloadLevel(payload []byte, bitDepth int, threshold float64) Level {
	if bitDepth != 16 {
		return Level{}
	}
	samples, err := BytesToSamples(payload[:len(payload)&^1])
	if err != nil {
		return Level{}
	}
	return MeasureLevel(samples, threshold)
}
