// Package voice loads Kokoro style embeddings.
//
// A voice is a 510x256 float32 matrix. Row N is the style vector used for
// an utterance of N tokens, so style varies with utterance length.
package voice

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/klauspost/compress/zip"

	"github.com/example/go-kokoro-tts/internal/errs"
)

const (
	// MaxTokenLen is the number of rows in a voice matrix.
	MaxTokenLen = 510
	// StyleDim is the width of one style vector.
	StyleDim = 256
	// ExpectedFloats is the element count of a voice matrix.
	ExpectedFloats = MaxTokenLen * StyleDim
	// ExpectedBytes is the size of a raw .bin voice file.
	ExpectedBytes = ExpectedFloats * 4
)

// Voice is an immutable style matrix.
type Voice struct {
	Name string
	data []float32
}

// NewVoice wraps data, which must hold exactly ExpectedFloats values.
func NewVoice(name string, data []float32) (*Voice, error) {
	if len(data) != ExpectedFloats {
		return nil, errs.E(errs.KindVoiceLoadFailed, "voice.new",
			fmt.Sprintf("voice %q has %d floats, want %d", name, len(data), ExpectedFloats), nil)
	}
	return &Voice{Name: name, data: data}, nil
}

// Embedding returns a copy of the style vector for an utterance of tokenLen
// tokens (before padding).
func (v *Voice) Embedding(tokenLen int) ([]float32, error) {
	if tokenLen < 0 || tokenLen >= MaxTokenLen {
		return nil, errs.E(errs.KindVoiceIndexOutOfRange, "voice.embedding",
			fmt.Sprintf("token length %d outside [0, %d)", tokenLen, MaxTokenLen), nil)
	}
	start := tokenLen * StyleDim
	return slices.Clone(v.data[start : start+StyleDim]), nil
}

// Store is a read-only set of voices keyed by name.
type Store struct {
	voices map[string]*Voice
}

// NewStore builds a store from already decoded voices.
func NewStore(voices ...*Voice) *Store {
	s := &Store{voices: make(map[string]*Voice, len(voices))}
	for _, v := range voices {
		s.voices[v.Name] = v
	}
	return s
}

// Get returns the named voice. Names are case-sensitive.
func (s *Store) Get(name string) (*Voice, error) {
	v, ok := s.voices[name]
	if !ok {
		return nil, errs.E(errs.KindUnknownVoice, "voice.get", fmt.Sprintf("%q", name), nil)
	}
	return v, nil
}

// Names returns all voice names, sorted.
func (s *Store) Names() []string {
	names := make([]string, 0, len(s.voices))
	for name := range s.voices {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Len returns the number of voices.
func (s *Store) Len() int { return len(s.voices) }

// Load reads voices from path: a directory of raw .bin files, or a single
// NPZ archive.
func Load(path string) (*Store, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, errs.E(errs.KindVoiceLoadFailed, "voice.load", path, err)
	}
	if info.IsDir() {
		return LoadDir(path)
	}
	return LoadArchive(path)
}

// LoadDir loads every <name>.bin file in dir. Files of the wrong size or
// that cannot be read are skipped with a warning; a directory that yields
// no voices is an error.
func LoadDir(dir string) (*Store, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errs.E(errs.KindVoiceLoadFailed, "voice.load_dir", dir, err)
	}

	store := &Store{voices: make(map[string]*Voice)}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".bin" {
			continue
		}
		name := strings.TrimSuffix(entry.Name(), ".bin")
		if name == "" {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		raw, err := os.ReadFile(path)
		if err != nil {
			slog.Warn("skipping voice", "voice", name, "path", path, "error", err)
			continue
		}
		if len(raw) != ExpectedBytes {
			slog.Warn("skipping voice", "voice", name, "size", len(raw), "expected", ExpectedBytes)
			continue
		}

		data, err := parseRawFloat32(raw)
		if err != nil {
			slog.Warn("skipping voice", "voice", name, "error", err)
			continue
		}
		store.voices[name] = &Voice{Name: name, data: data}
	}

	if len(store.voices) == 0 {
		return nil, errs.E(errs.KindVoiceLoadFailed, "voice.load_dir",
			fmt.Sprintf("no valid voice files found in %s", dir), nil)
	}

	slog.Info("loaded voices", "count", len(store.voices), "dir", dir)
	return store, nil
}

// LoadArchive loads an NPZ archive of <name>.npy float32 arrays. Any
// malformed or wrong-size entry fails the whole load.
func LoadArchive(path string) (*Store, error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return nil, errs.E(errs.KindVoiceLoadFailed, "voice.load_archive", path, err)
	}
	defer r.Close()

	store := &Store{voices: make(map[string]*Voice, len(r.File))}
	for _, f := range r.File {
		if f.FileInfo().IsDir() {
			continue
		}
		name := strings.TrimSuffix(f.Name, ".npy")

		buf, err := readZipEntry(f)
		if err != nil {
			return nil, errs.E(errs.KindVoiceLoadFailed, "voice.load_archive",
				fmt.Sprintf("read entry %q", f.Name), err)
		}

		data, err := parseNPYFloat32(buf)
		if err != nil {
			return nil, errs.E(errs.KindVoiceLoadFailed, "voice.load_archive",
				fmt.Sprintf("entry %q", f.Name), err)
		}

		v, err := NewVoice(name, data)
		if err != nil {
			return nil, err
		}
		store.voices[name] = v
	}

	if len(store.voices) == 0 {
		return nil, errs.E(errs.KindVoiceLoadFailed, "voice.load_archive",
			fmt.Sprintf("archive %s contains no voices", path), nil)
	}

	slog.Info("loaded voices", "count", len(store.voices), "archive", path)
	return store, nil
}

func readZipEntry(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}
