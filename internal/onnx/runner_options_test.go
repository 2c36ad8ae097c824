//go:build !windows

package onnx

import (
	"testing"

	"github.com/spf13/pflag"

	"github.com/example/go-kokoro-tts/internal/config"
)

type flagSet struct{ fs *pflag.FlagSet }

func (f flagSet) Flags() *pflag.FlagSet { return f.fs }

func TestRunnerConfigSessionOptions(t *testing.T) {
	if opts := (RunnerConfig{}).sessionOptions(); opts != nil {
		t.Errorf("zero threads should keep ORT defaults, got %+v", opts)
	}

	opts := RunnerConfig{Threads: 3}.sessionOptions()
	if opts == nil || opts.IntraOpNumThreads != 3 {
		t.Fatalf("sessionOptions = %+v, want IntraOpNumThreads 3", opts)
	}
}

func TestRuntimeThreadsReachSession(t *testing.T) {
	defaults := config.DefaultConfig()

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	config.RegisterFlags(fs, defaults)
	if err := fs.Parse([]string{"--runtime-threads=2"}); err != nil {
		t.Fatalf("Parse: %v", err)
	}

	cfg, err := config.Load(config.LoadOptions{
		Cmd:         flagSet{fs: fs},
		Defaults:    defaults,
		SearchPaths: []string{t.TempDir()},
	})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	opts := ModelConfigFrom(cfg.Runtime, "/opt/libonnxruntime.so").Runner.sessionOptions()
	if opts == nil || opts.IntraOpNumThreads != 2 {
		t.Fatalf("session options = %+v, want IntraOpNumThreads 2", opts)
	}

	opts = ModelConfigFrom(defaults.Runtime, "").Runner.sessionOptions()
	if opts == nil || opts.IntraOpNumThreads != 4 {
		t.Fatalf("default session options = %+v, want IntraOpNumThreads 4", opts)
	}
}
