//go:build windows

package onnx

import (
	"context"
	"fmt"
)

// Runner is unavailable in windows builds.
type Runner struct {
	name string
}

// NewRunner always returns an error in windows builds.
func NewRunner(name, _ string, _ RunnerConfig) (*Runner, error) {
	return nil, fmt.Errorf("%w: native onnx runner is unavailable on windows for graph %q", ErrSessionCreate, name)
}

// Run always returns an error in windows builds.
func (r *Runner) Run(_ context.Context, _ map[string]*Tensor) (map[string]*Tensor, error) {
	return nil, fmt.Errorf("%w: native onnx runner is unavailable on windows for graph %q", ErrExecution, r.name)
}

// Close is a no-op in windows builds.
func (r *Runner) Close() {}

// Name returns the graph name.
func (r *Runner) Name() string {
	return r.name
}
