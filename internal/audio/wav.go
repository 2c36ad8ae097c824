package audio

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/cwbudde/wav"
	goaudio "github.com/go-audio/audio"

	"github.com/example/go-kokoro-tts/internal/errs"
)

// WAV layout written by EncodeWAV.
const (
	Channels        = 1
	BitDepth        = 32
	FormatIEEEFloat = 3
)

// EncodeWAV encodes samples as a mono 32-bit IEEE float WAV.
func EncodeWAV(samples []float32, sampleRate int) ([]byte, error) {
	if sampleRate < 1 {
		return nil, fmt.Errorf("invalid sample rate: %d", sampleRate)
	}

	var buf bytes.Buffer

	// wav.NewEncoder requires an io.WriteSeeker; bytes.Buffer is not one.
	sw := &seekBuffer{buf: &buf}

	enc := wav.NewEncoder(sw, sampleRate, BitDepth, Channels, FormatIEEEFloat)

	pcmBuf := &goaudio.Float32Buffer{
		Data:           samples,
		Format:         &goaudio.Format{SampleRate: sampleRate, NumChannels: Channels},
		SourceBitDepth: BitDepth,
	}

	if err := enc.Write(pcmBuf); err != nil {
		return nil, fmt.Errorf("writing samples: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("closing encoder: %w", err)
	}

	return buf.Bytes(), nil
}

// WriteWAV encodes b and writes it to w.
func WriteWAV(w io.Writer, b *Buffer) error {
	data, err := EncodeWAV(b.Samples, b.SampleRate)
	if err != nil {
		return errs.E(errs.KindAudioIOFailed, "audio.write", "", err)
	}
	if _, err := w.Write(data); err != nil {
		return errs.E(errs.KindAudioIOFailed, "audio.write", "", err)
	}
	return nil
}

// WriteWAVFile writes b to path, replacing any existing file. Failures are
// reported once as AudioIOFailed.
func WriteWAVFile(path string, b *Buffer) (err error) {
	data, err := EncodeWAV(b.Samples, b.SampleRate)
	if err != nil {
		return errs.E(errs.KindAudioIOFailed, "audio.write_file", path, err)
	}

	f, err := os.Create(path)
	if err != nil {
		return errs.E(errs.KindAudioIOFailed, "audio.write_file", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = errs.E(errs.KindAudioIOFailed, "audio.write_file", path, cerr)
		}
	}()

	if _, err := f.Write(data); err != nil {
		return errs.E(errs.KindAudioIOFailed, "audio.write_file", path, err)
	}
	return nil
}

// seekBuffer wraps a bytes.Buffer to satisfy io.WriteSeeker.
type seekBuffer struct {
	buf *bytes.Buffer
	pos int
}

func (s *seekBuffer) Write(p []byte) (int, error) {
	if s.pos == s.buf.Len() {
		n, err := s.buf.Write(p)
		s.pos += n
		return n, err
	}
	// Writing in the middle: overwrite existing bytes.
	data := s.buf.Bytes()
	n := copy(data[s.pos:], p)
	if n < len(p) {
		s.buf.Write(p[n:])
		n = len(p)
	}
	s.pos += n
	return n, nil
}

func (s *seekBuffer) Seek(offset int64, whence int) (int64, error) {
	var newPos int
	switch whence {
	case io.SeekStart:
		newPos = int(offset)
	case io.SeekCurrent:
		newPos = s.pos + int(offset)
	case io.SeekEnd:
		newPos = s.buf.Len() + int(offset)
	default:
		return 0, fmt.Errorf("invalid whence %d", whence)
	}
	if newPos < 0 {
		return 0, errors.New("seek before start")
	}
	if newPos > s.buf.Len() {
		return 0, errors.New("seek past end")
	}
	s.pos = newPos
	return int64(newPos), nil
}
