package voice

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/kshedden/gonpy"
)

var (
	ErrNPYHeader    = errors.New("npy: malformed header")
	ErrNPYDtype     = errors.New("npy: unsupported dtype")
	ErrNPYLength    = errors.New("npy: payload does not match shape")
	ErrNPYAlignment = errors.New("npy: payload length not a multiple of 4")
)

// parseNPYFloat32 decodes one .npy array (format 1.0 or 2.0) of little-endian
// float32 in C order. The shape is not checked beyond matching the payload;
// callers validate the element count.
func parseNPYFloat32(data []byte) (out []float32, err error) {
	// gonpy panics on a non-numeric shape entry.
	defer func() {
		if r := recover(); r != nil {
			out, err = nil, fmt.Errorf("%w: %v", ErrNPYHeader, r)
		}
	}()

	src := bytes.NewReader(data)
	rdr, err := gonpy.NewReader(src)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNPYHeader, err)
	}
	if rdr.Dtype != "f4" || rdr.Endian != binary.LittleEndian {
		return nil, fmt.Errorf("%w: %s (%v)", ErrNPYDtype, rdr.Dtype, rdr.Endian)
	}
	if rdr.ColumnMajor {
		return nil, fmt.Errorf("%w: fortran order", ErrNPYHeader)
	}

	out, err = rdr.GetFloat32()
	if err != nil {
		return nil, fmt.Errorf("%w: shape %v: %w", ErrNPYLength, rdr.Shape, err)
	}
	if src.Len() != 0 {
		return nil, fmt.Errorf("%w: %d trailing bytes after shape %v", ErrNPYLength, src.Len(), rdr.Shape)
	}
	return out, nil
}

// parseRawFloat32 decodes little-endian float32 values.
func parseRawFloat32(raw []byte) ([]float32, error) {
	if len(raw)%4 != 0 {
		return nil, ErrNPYAlignment
	}
	out := make([]float32, len(raw)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[i*4:]))
	}
	return out, nil
}
