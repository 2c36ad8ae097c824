//go:build !windows

package onnx

import (
	"context"
	"fmt"
	"strings"

	ort "github.com/shota3506/onnxruntime-purego/onnxruntime"
)

const defaultAPIVersion = 23

// Runner owns one ORT session together with the runtime and env it was
// created from.
type Runner struct {
	name    string
	runtime *ort.Runtime
	env     *ort.Env
	session *ort.Session
}

// sessionOptions maps c onto ORT session options. Nil leaves every setting at
// the ORT default.
func (c RunnerConfig) sessionOptions() *ort.SessionOptions {
	if c.Threads <= 0 {
		return nil
	}
	return &ort.SessionOptions{IntraOpNumThreads: c.Threads}
}

// NewRunner opens the graph at path and checks it declares cfg.Inputs.
// Failures wrap ErrSessionCreate and release whatever was already opened.
func NewRunner(name, path string, cfg RunnerConfig) (*Runner, error) {
	if cfg.APIVersion == 0 {
		cfg.APIVersion = defaultAPIVersion
	}

	r := &Runner{name: name}
	fail := func(stage string, err error) (*Runner, error) {
		r.Close()
		return nil, fmt.Errorf("%w: %s for %q: %w", ErrSessionCreate, stage, name, err)
	}

	var err error
	if r.runtime, err = ort.NewRuntime(cfg.LibraryPath, cfg.APIVersion); err != nil {
		return fail("load runtime "+cfg.LibraryPath, err)
	}
	if r.env, err = r.runtime.NewEnv("kokorotts-"+name, ort.LoggingLevelWarning); err != nil {
		return fail("create env", err)
	}
	if r.session, err = r.runtime.NewSession(r.env, path, cfg.sessionOptions()); err != nil {
		return fail("open "+path, err)
	}

	if missing := missingNames(r.session.InputNames(), cfg.Inputs); len(missing) > 0 {
		return fail("check inputs", fmt.Errorf("graph declares %v, missing %s",
			r.session.InputNames(), strings.Join(missing, ", ")))
	}
	return r, nil
}

// Run feeds inputs to the graph and copies every output back into a Tensor.
// ORT values never escape this call.
func (r *Runner) Run(ctx context.Context, inputs map[string]*Tensor) (map[string]*Tensor, error) {
	feeds := make(map[string]*ort.Value, len(inputs))
	defer releaseValues(feeds)

	for name, t := range inputs {
		v, err := toValue(r.runtime, t)
		if err != nil {
			return nil, fmt.Errorf("%w: input %q: %w", ErrTensorCreate, name, err)
		}
		feeds[name] = v
	}

	fetched, err := r.session.Run(ctx, feeds)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrExecution, r.name, err)
	}
	defer releaseValues(fetched)

	out := make(map[string]*Tensor, len(fetched))
	for name, v := range fetched {
		t, err := fromValue(v)
		if err != nil {
			return nil, fmt.Errorf("%w: output %q: %w", ErrOutputExtract, name, err)
		}
		out[name] = t
	}
	return out, nil
}

// Close releases the session, env and runtime in reverse order of creation.
// Safe to call more than once.
func (r *Runner) Close() {
	if r.session != nil {
		r.session.Close()
		r.session = nil
	}
	if r.env != nil {
		r.env.Close()
		r.env = nil
	}
	if r.runtime != nil {
		_ = r.runtime.Close()
		r.runtime = nil
	}
}

func (r *Runner) Name() string { return r.name }

func toValue(rt *ort.Runtime, t *Tensor) (*ort.Value, error) {
	switch data := t.Data().(type) {
	case []int64:
		return ort.NewTensorValue(rt, data, t.Shape())
	case []float32:
		return ort.NewTensorValue(rt, data, t.Shape())
	}
	return nil, fmt.Errorf("tensor dtype %s has no ORT mapping", t.DType())
}

func fromValue(v *ort.Value) (*Tensor, error) {
	kind, err := v.GetTensorElementType()
	if err != nil {
		return nil, err
	}

	switch kind {
	case ort.ONNXTensorElementDataTypeFloat:
		data, shape, err := ort.GetTensorData[float32](v)
		if err != nil {
			return nil, err
		}
		return NewTensor(data, shape)
	case ort.ONNXTensorElementDataTypeInt64:
		data, shape, err := ort.GetTensorData[int64](v)
		if err != nil {
			return nil, err
		}
		return NewTensor(data, shape)
	}
	return nil, fmt.Errorf("ORT element type %d is neither float32 nor int64", kind)
}

func releaseValues(vals map[string]*ort.Value) {
	for _, v := range vals {
		if v != nil {
			v.Close()
		}
	}
}
