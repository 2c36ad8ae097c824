// Package onnx runs the Kokoro acoustic model through ONNX Runtime.
//
// The model is a black box: token ids [1,N] int64, a style vector [1,256]
// float32 and a speed scalar [1] float32 go in, a float32 waveform comes out.
package onnx

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sort"
	"sync"

	"github.com/example/go-kokoro-tts/internal/config"
	"github.com/example/go-kokoro-tts/internal/errs"
)

// Failure stages. Each is wrapped inside an errs.Error so callers can match
// either the stage or the service kind.
var (
	ErrSessionCreate = errors.New("onnx session create")
	ErrTensorCreate  = errors.New("onnx tensor create")
	ErrExecution     = errors.New("onnx execution")
	ErrOutputExtract = errors.New("onnx output extract")
)

// GraphRunner is the minimal runner contract the model needs. *Runner
// satisfies it; tests substitute fakes.
type GraphRunner interface {
	Run(ctx context.Context, inputs map[string]*Tensor) (map[string]*Tensor, error)
	Name() string
	Close()
}

// Inferencer turns padded token ids plus a style vector into audio samples.
type Inferencer interface {
	Infer(ctx context.Context, ids []int64, style []float32, speed float32) ([]float32, error)
	Close() error
}

// RunnerConfig holds the ORT library and session settings for one graph.
type RunnerConfig struct {
	LibraryPath string
	APIVersion  uint32
	// Threads is the intra-op thread count; zero keeps the ORT default.
	Threads int
	// Inputs lists tensor names the graph must declare. Empty skips the check.
	Inputs []string
}

// ModelConfig names the graph's tensors and the ORT library to load.
type ModelConfig struct {
	Runner       RunnerConfig
	InputIDsName string
	StyleName    string
	SpeedName    string
	OutputName   string
}

// ModelConfigFrom maps runtime settings onto a ModelConfig. libraryPath is
// the detected ORT library, which may differ from rc.ORTLibraryPath.
func ModelConfigFrom(rc config.RuntimeConfig, libraryPath string) ModelConfig {
	return ModelConfig{
		Runner: RunnerConfig{
			LibraryPath: libraryPath,
			APIVersion:  uint32(rc.ORTAPIVersion),
			Threads:     rc.Threads,
		},
		InputIDsName: rc.InputIDsName,
		StyleName:    rc.StyleName,
		SpeedName:    rc.SpeedName,
		OutputName:   rc.OutputName,
	}
}

func (c ModelConfig) withDefaults() ModelConfig {
	if c.InputIDsName == "" {
		c.InputIDsName = "input_ids"
	}
	if c.StyleName == "" {
		c.StyleName = "style"
	}
	if c.SpeedName == "" {
		c.SpeedName = "speed"
	}
	if c.OutputName == "" {
		c.OutputName = "waveform"
	}
	return c
}

// Model serialises inference over one session.
type Model struct {
	mu     sync.Mutex
	runner GraphRunner
	cfg    ModelConfig
	closed bool
}

// LoadModel opens the ONNX graph at path.
func LoadModel(path string, cfg ModelConfig) (*Model, error) {
	cfg = cfg.withDefaults()
	cfg.Runner.Inputs = []string{cfg.InputIDsName, cfg.StyleName, cfg.SpeedName}

	r, err := NewRunner("kokoro", path, cfg.Runner)
	if err != nil {
		return nil, errs.E(errs.KindModelLoadFailed, "onnx.load", path, err)
	}
	return NewModel(r, cfg), nil
}

// NewModel wraps an already open runner. The model owns r from here on.
func NewModel(r GraphRunner, cfg ModelConfig) *Model {
	return &Model{runner: r, cfg: cfg.withDefaults()}
}

// Infer runs one forward pass. ids must already carry boundary padding.
func (m *Model) Infer(ctx context.Context, ids []int64, style []float32, speed float32) ([]float32, error) {
	const op = "onnx.infer"

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, errs.E(errs.KindModelInferenceFailed, op, "model is closed", nil)
	}

	inputs, err := m.inputs(ids, style, speed)
	if err != nil {
		return nil, errs.E(errs.KindModelInferenceFailed, op, "", err)
	}

	outputs, err := m.runner.Run(ctx, inputs)
	if err != nil {
		if !errors.Is(err, ErrTensorCreate) && !errors.Is(err, ErrOutputExtract) && !errors.Is(err, ErrExecution) {
			err = fmt.Errorf("%w: %w", ErrExecution, err)
		}
		return nil, errs.E(errs.KindModelInferenceFailed, op, "", err)
	}

	out, err := m.waveform(outputs)
	if err != nil {
		return nil, errs.E(errs.KindModelInferenceFailed, op, "", fmt.Errorf("%w: %w", ErrOutputExtract, err))
	}

	samples, err := ExtractFloat32(out)
	if err != nil {
		return nil, errs.E(errs.KindModelInferenceFailed, op, "", fmt.Errorf("%w: %w", ErrOutputExtract, err))
	}
	return samples, nil
}

func (m *Model) inputs(ids []int64, style []float32, speed float32) (map[string]*Tensor, error) {
	idsT, err := NewTensor(ids, []int64{1, int64(len(ids))})
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrTensorCreate, m.cfg.InputIDsName, err)
	}

	styleT, err := NewTensor(style, []int64{1, int64(len(style))})
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrTensorCreate, m.cfg.StyleName, err)
	}

	speedT, err := NewTensor([]float32{speed}, []int64{1})
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrTensorCreate, m.cfg.SpeedName, err)
	}

	return map[string]*Tensor{
		m.cfg.InputIDsName: idsT,
		m.cfg.StyleName:    styleT,
		m.cfg.SpeedName:    speedT,
	}, nil
}

// waveform picks the configured output, or the only output when the graph
// uses another name.
func (m *Model) waveform(outputs map[string]*Tensor) (*Tensor, error) {
	if t, ok := outputs[m.cfg.OutputName]; ok {
		return t, nil
	}
	if len(outputs) == 1 {
		for _, t := range outputs {
			return t, nil
		}
	}

	names := make([]string, 0, len(outputs))
	for name := range outputs {
		names = append(names, name)
	}
	sort.Strings(names)
	return nil, fmt.Errorf("output %q not found (have %v)", m.cfg.OutputName, names)
}

// Close releases the session. Safe to call multiple times.
func (m *Model) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil
	}
	m.closed = true
	m.runner.Close()
	return nil
}

// missingNames returns the entries of want absent from have, in want order.
func missingNames(have, want []string) []string {
	var missing []string
	for _, name := range want {
		if !slices.Contains(have, name) {
			missing = append(missing, name)
		}
	}
	return missing
}
