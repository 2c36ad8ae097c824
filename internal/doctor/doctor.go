// Package doctor provides environment preflight checks for kokorotts.
package doctor

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
)

// PassMark and FailMark are the prefix symbols printed for each check result.
const (
	PassMark = "✓"
	FailMark = "✗"
)

// MinORTMinor is the oldest supported ONNX Runtime 1.x release.
const MinORTMinor = 17

// VersionFunc returns a version string or an error if the component is unavailable.
type VersionFunc func() (string, error)

// RuntimeFunc reports the resolved ONNX Runtime library and its version.
type RuntimeFunc func() (path, version string, err error)

// Config holds injectable dependencies for each doctor check.
// A nil func skips its check.
type Config struct {
	// EspeakVersion returns the output of `espeak-ng --version`.
	EspeakVersion VersionFunc
	// Runtime locates the ONNX Runtime shared library.
	Runtime RuntimeFunc
	// ModelPath is the ONNX model file; empty skips the check.
	ModelPath string
	// VoiceCount loads the voice store and returns how many voices it holds.
	VoiceCount func() (int, error)
}

// Result collects the outcome of all checks.
type Result struct {
	failures []string
}

// Failed returns true if any check failed.
func (r *Result) Failed() bool { return len(r.failures) > 0 }

// Failures returns the list of failure messages.
func (r *Result) Failures() []string { return append([]string(nil), r.failures...) }

// AddFailure appends an external failure message to the result.
func (r *Result) AddFailure(msg string) { r.failures = append(r.failures, msg) }

func (r *Result) fail(msg string) { r.failures = append(r.failures, msg) }

// Run executes all configured checks and writes human-readable output to w.
// Each check line is prefixed with PassMark or FailMark.
func Run(cfg Config, w io.Writer) Result {
	var res Result

	// ---- espeak-ng --------------------------------------------------------
	// The in-process G2P covers English, so a missing espeak-ng only limits
	// other languages; it is still reported as a failure.
	if cfg.EspeakVersion == nil {
		fmt.Fprintf(w, "%s espeak-ng: skipped\n", PassMark)
	} else {
		ver, err := cfg.EspeakVersion()
		if err != nil {
			res.fail(fmt.Sprintf("espeak-ng: %v", err))
			fmt.Fprintf(w, "%s espeak-ng: not found (%v)\n", FailMark, err)
		} else {
			fmt.Fprintf(w, "%s espeak-ng: %s\n", PassMark, ver)
		}
	}

	// ---- ONNX Runtime -----------------------------------------------------
	if cfg.Runtime == nil {
		fmt.Fprintf(w, "%s onnx runtime: skipped\n", PassMark)
	} else {
		path, ver, err := cfg.Runtime()
		switch {
		case err != nil:
			res.fail(fmt.Sprintf("onnx runtime: %v", err))
			fmt.Fprintf(w, "%s onnx runtime: not found (%v)\n", FailMark, err)
		case ver != "" && ver != "unknown":
			if verErr := checkORTVersion(ver); verErr != nil {
				res.fail(fmt.Sprintf("onnx runtime version: %v", verErr))
				fmt.Fprintf(w, "%s onnx runtime %s: %v\n", FailMark, ver, verErr)
			} else {
				fmt.Fprintf(w, "%s onnx runtime: %s (%s)\n", PassMark, ver, path)
			}
		default:
			fmt.Fprintf(w, "%s onnx runtime: %s (version unknown)\n", PassMark, path)
		}
	}

	// ---- model file -------------------------------------------------------
	if cfg.ModelPath != "" {
		if err := checkModelFile(cfg.ModelPath); err != nil {
			res.fail(fmt.Sprintf("model file %q: %v", cfg.ModelPath, err))
			fmt.Fprintf(w, "%s model file %s: %v\n", FailMark, cfg.ModelPath, err)
		} else {
			info, _ := os.Stat(cfg.ModelPath)
			fmt.Fprintf(w, "%s model file: %s (%s)\n", PassMark, cfg.ModelPath, humanize.Bytes(uint64(info.Size())))
		}
	}

	// ---- voices -----------------------------------------------------------
	if cfg.VoiceCount != nil {
		n, err := cfg.VoiceCount()
		if err != nil {
			res.fail(fmt.Sprintf("voices: %v", err))
			fmt.Fprintf(w, "%s voices: %v\n", FailMark, err)
		} else {
			fmt.Fprintf(w, "%s voices: %d loaded\n", PassMark, n)
		}
	}

	return res
}

func checkModelFile(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if info.IsDir() {
		return errors.New("is a directory")
	}
	if info.Size() == 0 {
		return errors.New("file is empty")
	}
	return nil
}

// checkORTVersion returns an error if ver is older than 1.MinORTMinor.
// ver is expected to be a string like "1.23.0".
func checkORTVersion(ver string) error {
	major, minor, err := parseMajorMinor(ver)
	if err != nil {
		return fmt.Errorf("cannot parse %q: %w", ver, err)
	}
	if major != 1 {
		return fmt.Errorf("requires ONNX Runtime 1.x, got %d", major)
	}
	if minor < MinORTMinor {
		return fmt.Errorf("requires ONNX Runtime >=1.%d, got 1.%d", MinORTMinor, minor)
	}
	return nil
}

func parseMajorMinor(ver string) (major, minor int, err error) {
	parts := strings.SplitN(ver, ".", 3)
	if len(parts) < 2 {
		return 0, 0, fmt.Errorf("unexpected version format %q", ver)
	}
	major, err = strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, fmt.Errorf("bad major in %q: %w", ver, err)
	}
	minor, err = strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, fmt.Errorf("bad minor in %q: %w", ver, err)
	}
	return major, minor, nil
}
