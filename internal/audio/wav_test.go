package audio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/example/go-kokoro-tts/internal/errs"
)

// makeWAV builds a minimal valid 16-bit PCM WAV file for testing.
func makeWAV(sampleRate uint32, numChannels uint16, bitDepth uint16, numSamples int) []byte {
	blockAlign := numChannels * bitDepth / 8
	byteRate := sampleRate * uint32(blockAlign)
	dataSize := uint32(numSamples) * uint32(blockAlign)
	riffSize := 4 + (8 + 16) + (8 + dataSize)

	buf := &bytes.Buffer{}
	buf.WriteString("RIFF")
	_ = binary.Write(buf, binary.LittleEndian, uint32(riffSize))
	buf.WriteString("WAVE")

	// fmt chunk
	buf.WriteString("fmt ")
	_ = binary.Write(buf, binary.LittleEndian, uint32(16)) // chunk size
	_ = binary.Write(buf, binary.LittleEndian, uint16(1))  // PCM
	_ = binary.Write(buf, binary.LittleEndian, numChannels)
	_ = binary.Write(buf, binary.LittleEndian, sampleRate)
	_ = binary.Write(buf, binary.LittleEndian, byteRate)
	_ = binary.Write(buf, binary.LittleEndian, blockAlign)
	_ = binary.Write(buf, binary.LittleEndian, bitDepth)

	// data chunk
	buf.WriteString("data")
	_ = binary.Write(buf, binary.LittleEndian, dataSize)
	for range numSamples * int(numChannels) {
		_ = binary.Write(buf, binary.LittleEndian, int16(0))
	}

	return buf.Bytes()
}

func TestDecodeWAV(t *testing.T) {
	t.Run("decodes 24kHz mono 16-bit WAV", func(t *testing.T) {
		b, err := DecodeWAV(makeWAV(24000, 1, 16, 100))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(b.Samples) != 100 {
			t.Errorf("got %d samples, want 100", len(b.Samples))
		}
		if b.SampleRate != SampleRate {
			t.Errorf("sample rate = %d, want %d", b.SampleRate, SampleRate)
		}
	})

	t.Run("rejects wrong sample rate", func(t *testing.T) {
		_, err := DecodeWAV(makeWAV(44100, 1, 16, 10))
		if !errors.Is(err, ErrFormatMismatch) {
			t.Errorf("expected ErrFormatMismatch, got %v", err)
		}
	})

	t.Run("rejects stereo", func(t *testing.T) {
		_, err := DecodeWAV(makeWAV(24000, 2, 16, 10))
		if !errors.Is(err, ErrFormatMismatch) {
			t.Errorf("expected ErrFormatMismatch, got %v", err)
		}
	})

	t.Run("rejects invalid WAV data", func(t *testing.T) {
		if _, err := DecodeWAV([]byte("not a wav file")); err == nil {
			t.Fatal("expected error for invalid WAV")
		}
	})

	t.Run("rejects empty input", func(t *testing.T) {
		if _, err := DecodeWAV(nil); err == nil {
			t.Fatal("expected error for nil input")
		}
	})
}

func TestEncodeWAV(t *testing.T) {
	t.Run("writes float32 mono header", func(t *testing.T) {
		data, err := EncodeWAV(make([]float32, 50), SampleRate)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(data) < 44 {
			t.Fatalf("WAV too short: %d bytes", len(data))
		}
		if string(data[:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
			t.Fatalf("missing RIFF/WAVE header")
		}

		format := binary.LittleEndian.Uint16(data[20:22])
		numChans := binary.LittleEndian.Uint16(data[22:24])
		sampleRate := binary.LittleEndian.Uint32(data[24:28])
		bitDepth := binary.LittleEndian.Uint16(data[34:36])

		if format != FormatIEEEFloat {
			t.Errorf("format = %d, want %d", format, FormatIEEEFloat)
		}
		if numChans != Channels {
			t.Errorf("channels = %d, want %d", numChans, Channels)
		}
		if sampleRate != SampleRate {
			t.Errorf("sample rate = %d, want %d", sampleRate, SampleRate)
		}
		if bitDepth != BitDepth {
			t.Errorf("bit depth = %d, want %d", bitDepth, BitDepth)
		}
	})

	t.Run("rejects invalid sample rate", func(t *testing.T) {
		if _, err := EncodeWAV([]float32{0}, 0); err == nil {
			t.Fatal("expected error for zero sample rate")
		}
	})
}

func TestDecodeEncodeRoundtrip(t *testing.T) {
	original := []float32{0.0, 0.5, -0.5, 0.95, -0.25}
	encoded, err := EncodeWAV(original, SampleRate)
	if err != nil {
		t.Fatalf("encode error: %v", err)
	}

	decoded, err := DecodeWAV(encoded)
	if err != nil {
		t.Fatalf("decode error: %v", err)
	}

	if len(decoded.Samples) != len(original) {
		t.Fatalf("roundtrip: got %d samples, want %d", len(decoded.Samples), len(original))
	}

	const tolerance = 1e-6
	for i, want := range original {
		got := decoded.Samples[i]
		if math.Abs(float64(got-want)) > tolerance {
			t.Errorf("sample[%d] = %f, want %f", i, got, want)
		}
	}
}

func TestWriteWAVFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.wav")
	b := &Buffer{Samples: []float32{0.1, 0.2, 0.3}, SampleRate: SampleRate}

	if err := WriteWAVFile(path, b); err != nil {
		t.Fatalf("WriteWAVFile: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if string(data[:4]) != "RIFF" {
		t.Fatalf("file is not a WAV")
	}
}

func TestWriteWAVFileUnwritablePath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing-dir", "out.wav")

	err := WriteWAVFile(path, &Buffer{Samples: []float32{0}, SampleRate: SampleRate})
	if !errors.Is(err, errs.ErrAudioIOFailed) {
		t.Fatalf("expected AudioIOFailed, got %v", err)
	}
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestWriteWAV(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteWAV(&buf, &Buffer{Samples: []float32{0.5}, SampleRate: SampleRate}); err != nil {
		t.Fatalf("WriteWAV: %v", err)
	}
	if buf.Len() < 44 {
		t.Fatalf("short output: %d bytes", buf.Len())
	}

	err := WriteWAV(failingWriter{}, &Buffer{Samples: []float32{0.5}, SampleRate: SampleRate})
	if !errors.Is(err, errs.ErrAudioIOFailed) {
		t.Fatalf("expected AudioIOFailed, got %v", err)
	}
}

func TestSeekBuffer(t *testing.T) {
	var b bytes.Buffer
	sb := &seekBuffer{buf: &b}

	_, _ = sb.Write([]byte("abcdef"))
	if _, err := sb.Seek(2, io.SeekStart); err != nil {
		t.Fatalf("Seek: %v", err)
	}
	_, _ = sb.Write([]byte("XYZWV"))

	if got := b.String(); got != "abXYZWV" {
		t.Fatalf("buffer = %q, want %q", got, "abXYZWV")
	}

	if _, err := sb.Seek(-1, io.SeekStart); err == nil {
		t.Fatal("expected error seeking before start")
	}
}
