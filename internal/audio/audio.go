// Package audio post-processes and serialises synthesized waveforms.
package audio

import (
	"time"
)

const (
	// SampleRate is the rate of every waveform the model produces.
	SampleRate = 24000
	// NormalizeTarget is the peak level synthesized audio is raised to.
	NormalizeTarget float32 = 0.95
)

// Buffer is a mono float32 waveform.
type Buffer struct {
	Samples    []float32
	SampleRate int
}

// Duration reports the playback length of b.
func (b *Buffer) Duration() time.Duration {
	return Duration(len(b.Samples), b.SampleRate)
}

// Peak returns the largest absolute sample value, or 0 for empty input.
func Peak(samples []float32) float32 {
	var peak float32
	for _, s := range samples {
		if s < 0 {
			s = -s
		}
		if s > peak {
			peak = s
		}
	}
	return peak
}

// Normalize scales samples in place so the peak reaches target. Audio that is
// silent or already at or above target is left unchanged.
func Normalize(samples []float32, target float32) {
	peak := Peak(samples)
	if peak <= 0 || peak >= target {
		return
	}
	gain := target / peak
	for i := range samples {
		samples[i] *= gain
	}
}

// Concat joins chunks in order with no padding between them. The result is
// never nil.
func Concat(chunks [][]float32) []float32 {
	n := 0
	for _, c := range chunks {
		n += len(c)
	}
	out := make([]float32, 0, n)
	for _, c := range chunks {
		out = append(out, c...)
	}
	return out
}

// Duration converts a sample count at rate into wall-clock time.
func Duration(n, rate int) time.Duration {
	if rate <= 0 {
		return 0
	}
	return time.Duration(int64(n) * int64(time.Second) / int64(rate))
}
