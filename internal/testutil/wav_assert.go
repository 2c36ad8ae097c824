package testutil

import (
	"encoding/binary"
	"fmt"
	"testing"
	"time"
)

// Layout the synthesizer writes: 24 kHz mono IEEE float.
const (
	wavRate     = 24000
	wavChannels = 1
	wavBits     = 32
	wavFloatTag = 3
)

type wavInfo struct {
	format   uint16
	channels uint16
	rate     uint32
	bits     uint16
	dataLen  uint32
}

func (w wavInfo) samples() int { return int(w.dataLen) / (int(w.bits) / 8) / int(w.channels) }

func (w wavInfo) duration() time.Duration {
	return time.Duration(w.samples()) * time.Second / time.Duration(w.rate)
}

// parseWAV walks the RIFF chunk list and returns the fmt fields together with
// the size of the data chunk.
func parseWAV(data []byte) (wavInfo, error) {
	var info wavInfo
	if len(data) < 12 || string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return info, fmt.Errorf("not a RIFF/WAVE stream (%d bytes)", len(data))
	}

	var sawFmt, sawData bool
	for off := 12; off+8 <= len(data); {
		id := string(data[off : off+4])
		size := int(binary.LittleEndian.Uint32(data[off+4 : off+8]))
		body := data[off+8:]

		switch id {
		case "fmt ":
			if len(body) < 16 {
				return info, fmt.Errorf("truncated fmt chunk")
			}
			info.format = binary.LittleEndian.Uint16(body[0:2])
			info.channels = binary.LittleEndian.Uint16(body[2:4])
			info.rate = binary.LittleEndian.Uint32(body[4:8])
			info.bits = binary.LittleEndian.Uint16(body[14:16])
			sawFmt = true
		case "data":
			info.dataLen = uint32(size)
			sawData = true
		}

		off += 8 + size + size%2
	}

	switch {
	case !sawFmt:
		return info, fmt.Errorf("fmt chunk not found")
	case !sawData:
		return info, fmt.Errorf("data chunk not found")
	case info.channels == 0 || info.bits < 8 || info.rate == 0:
		return info, fmt.Errorf("degenerate fmt chunk %+v", info)
	}
	return info, nil
}

// AssertValidWAV fails tb unless data is a non-empty 24 kHz mono float32 WAV.
func AssertValidWAV(tb testing.TB, data []byte) {
	tb.Helper()

	info, err := parseWAV(data)
	if err != nil {
		tb.Fatalf("WAV: %v", err)
	}

	if info.format != wavFloatTag || info.bits != wavBits {
		tb.Fatalf("WAV: format %d/%d-bit, want IEEE float (%d) 32-bit", info.format, info.bits, wavFloatTag)
	}
	if info.channels != wavChannels {
		tb.Fatalf("WAV: %d channels, want mono", info.channels)
	}
	if info.rate != wavRate {
		tb.Fatalf("WAV: sample rate %d, want %d", info.rate, wavRate)
	}
	if info.samples() == 0 {
		tb.Fatal("WAV: no samples")
	}
}

// AssertWAVDurationApprox fails tb unless the WAV plays for between minSec and
// maxSec seconds.
func AssertWAVDurationApprox(tb testing.TB, data []byte, minSec, maxSec float64) {
	tb.Helper()

	info, err := parseWAV(data)
	if err != nil {
		tb.Fatalf("WAV duration: %v", err)
	}

	got := info.duration().Seconds()
	if got < minSec || got > maxSec {
		tb.Fatalf("WAV duration %.3fs outside [%.3fs, %.3fs]", got, minSec, maxSec)
	}
}
