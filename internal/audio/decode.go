package audio

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/cwbudde/wav"
)

// ErrFormatMismatch is returned when a decoded WAV is not 24 kHz mono.
var ErrFormatMismatch = errors.New("WAV format mismatch")

// DecodeWAV decodes a 24 kHz mono WAV of any supported sample encoding into
// float32 samples.
func DecodeWAV(data []byte) (*Buffer, error) {
	if len(data) == 0 {
		return nil, errors.New("empty WAV input")
	}

	dec := wav.NewDecoder(bytes.NewReader(data))
	if !dec.IsValidFile() {
		return nil, errors.New("invalid WAV file")
	}

	if dec.SampleRate != SampleRate {
		return nil, fmt.Errorf("%w: sample rate %d, want %d", ErrFormatMismatch, dec.SampleRate, SampleRate)
	}
	if dec.NumChans != Channels {
		return nil, fmt.Errorf("%w: channels %d, want %d", ErrFormatMismatch, dec.NumChans, Channels)
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("reading PCM data: %w", err)
	}

	return &Buffer{Samples: buf.Data, SampleRate: SampleRate}, nil
}
