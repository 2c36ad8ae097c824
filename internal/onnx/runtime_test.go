package onnx

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/example/go-kokoro-tts/internal/config"
)

func writeFakeLib(t *testing.T, name string) string {
	t.Helper()

	lib := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(lib, []byte("fake"), 0o644); err != nil {
		t.Fatalf("write fake lib: %v", err)
	}

	return lib
}

func TestDetectRuntimePrefersConfig(t *testing.T) {
	lib := writeFakeLib(t, "libonnxruntime.so.1.22.0")
	t.Setenv("KOKOROTTS_ORT_LIB", filepath.Join(t.TempDir(), "does-not-exist"))

	info, err := DetectRuntime(config.RuntimeConfig{ORTLibraryPath: lib})
	if err != nil {
		t.Fatalf("DetectRuntime failed: %v", err)
	}

	if info.LibraryPath != lib {
		t.Fatalf("expected %q, got %q", lib, info.LibraryPath)
	}

	if info.Version != "1.22.0" {
		t.Fatalf("expected version inferred from filename, got %q", info.Version)
	}
}

func TestDetectRuntimePrefersKOKOROTTSORTLIB(t *testing.T) {
	lib := writeFakeLib(t, "libonnxruntime.so")

	t.Setenv("KOKOROTTS_ORT_LIB", lib)
	t.Setenv("ORT_LIBRARY_PATH", filepath.Join(t.TempDir(), "does-not-exist"))

	info, err := DetectRuntime(config.RuntimeConfig{})
	if err != nil {
		t.Fatalf("DetectRuntime failed: %v", err)
	}

	if info.LibraryPath != lib {
		t.Fatalf("expected %q, got %q", lib, info.LibraryPath)
	}
}

func TestDetectRuntimeVersionOverride(t *testing.T) {
	lib := writeFakeLib(t, "libonnxruntime.so.1.22.0")
	t.Setenv("ORT_VERSION", "")

	info, err := DetectRuntime(config.RuntimeConfig{ORTLibraryPath: lib, ORTVersion: "1.23.2"})
	if err != nil {
		t.Fatalf("DetectRuntime failed: %v", err)
	}

	if info.Version != "1.23.2" {
		t.Fatalf("expected configured version, got %q", info.Version)
	}
}

func TestDetectRuntimeMissingFile(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "libonnxruntime.so")

	info, err := DetectRuntime(config.RuntimeConfig{ORTLibraryPath: missing})
	if err == nil {
		t.Fatal("expected error for missing library")
	}

	if info.LibraryPath != missing || info.Version != "unknown" {
		t.Fatalf("unexpected info: %+v", info)
	}
}

func TestInferVersionFromPath(t *testing.T) {
	tests := map[string]string{
		"/opt/ort/libonnxruntime.so.1.20.1":    "1.20.1",
		"/opt/ort/libonnxruntime.1.19.2.dylib": "1.19.2",
		"/usr/lib/libonnxruntime.so":           "",
	}

	for path, want := range tests {
		if got := inferVersionFromPath(path); got != want {
			t.Errorf("inferVersionFromPath(%q) = %q, want %q", path, got, want)
		}
	}
}
