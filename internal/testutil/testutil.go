// Package testutil provides shared skip helpers for integration tests.
//
// Each helper calls t.Skipf with a clear human-readable reason when the named
// prerequisite is absent, so integration tests remain runnable in partial
// environments without failing noisily.
//
// Typical usage:
//
//	func TestMyIntegration(t *testing.T) {
//	    lib := testutil.RequireONNXRuntime(t)
//	    model := testutil.RequireModelFile(t)
//	    ...
//	}
package testutil

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"
)

// RequireEspeak skips the test if espeak-ng is not found in PATH or at the
// path given by KOKOROTTS_TTS_ESPEAK_PATH. It returns the resolved binary.
func RequireEspeak(tb testing.TB) string {
	tb.Helper()

	exe := os.Getenv("KOKOROTTS_TTS_ESPEAK_PATH")
	if exe == "" {
		exe = "espeak-ng"
	}

	path, err := exec.LookPath(exe)
	if err != nil {
		tb.Skipf("espeak-ng not available (%q not in PATH); set KOKOROTTS_TTS_ESPEAK_PATH to override", exe)
		return ""
	}

	return path
}

// RequireONNXRuntime skips the test if no ONNX Runtime shared library can be
// located. It checks (in order): the KOKOROTTS_ORT_LIB env var, then
// ORT_LIBRARY_PATH, then common system library paths.
func RequireONNXRuntime(tb testing.TB) string {
	tb.Helper()

	for _, env := range []string{"KOKOROTTS_ORT_LIB", "ORT_LIBRARY_PATH"} {
		if p := os.Getenv(env); p != "" {
			if _, err := os.Stat(p); err == nil {
				return p
			}

			tb.Skipf("ONNX Runtime library not found at %s=%q", env, p)
			return ""
		}
	}

	candidates := []string{
		"/usr/lib/libonnxruntime.so",
		"/usr/local/lib/libonnxruntime.so",
		"/usr/lib/x86_64-linux-gnu/libonnxruntime.so",
		"/opt/homebrew/lib/libonnxruntime.dylib",
	}
	for _, p := range candidates {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	tb.Skipf("ONNX Runtime shared library not found; set KOKOROTTS_ORT_LIB or ORT_LIBRARY_PATH")
	return ""
}

// RequireModelFile skips the test unless the Kokoro model exists at
// KOKOROTTS_PATHS_MODEL_PATH or models/kokoro-v1.0.onnx under the repository
// root.
func RequireModelFile(tb testing.TB) string {
	tb.Helper()

	return requirePath(tb, "KOKOROTTS_PATHS_MODEL_PATH", filepath.Join("models", "kokoro-v1.0.onnx"), "Kokoro model")
}

// RequireVoices skips the test unless a voice directory or NPZ archive exists
// at KOKOROTTS_PATHS_VOICES_PATH or models/voices under the repository root.
func RequireVoices(tb testing.TB) string {
	tb.Helper()

	return requirePath(tb, "KOKOROTTS_PATHS_VOICES_PATH", filepath.Join("models", "voices"), "voice store")
}

func requirePath(tb testing.TB, env, rel, what string) string {
	tb.Helper()

	if p := os.Getenv(env); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}

		tb.Skipf("%s not found at %s=%q", what, env, p)
		return ""
	}

	// Package tests run from their own directory; walk up to the module root.
	for _, prefix := range []string{".", "..", filepath.Join("..", ".."), filepath.Join("..", "..", "..")} {
		p := filepath.Join(prefix, rel)
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	tb.Skipf("%s not found at %s; set %s to override", what, rel, env)
	return ""
}
