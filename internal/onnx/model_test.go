package onnx

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/example/go-kokoro-tts/internal/config"
	"github.com/example/go-kokoro-tts/internal/errs"
)

type fakeRunner struct {
	name   string
	fn     func(ctx context.Context, inputs map[string]*Tensor) (map[string]*Tensor, error)
	closed int
}

func (f *fakeRunner) Run(ctx context.Context, inputs map[string]*Tensor) (map[string]*Tensor, error) {
	return f.fn(ctx, inputs)
}

func (f *fakeRunner) Name() string { return f.name }

func (f *fakeRunner) Close() { f.closed++ }

func waveformOutput(t *testing.T, name string, samples []float32) map[string]*Tensor {
	t.Helper()

	out, err := NewTensor(samples, []int64{int64(len(samples))})
	if err != nil {
		t.Fatalf("NewTensor: %v", err)
	}

	return map[string]*Tensor{name: out}
}

func TestModelInferBuildsInputs(t *testing.T) {
	var got map[string]*Tensor
	r := &fakeRunner{name: "kokoro", fn: func(_ context.Context, in map[string]*Tensor) (map[string]*Tensor, error) {
		got = in
		return waveformOutput(t, "waveform", []float32{0.1, -0.2}), nil
	}}

	m := NewModel(r, ModelConfig{})
	style := make([]float32, 256)
	style[3] = 0.5

	samples, err := m.Infer(context.Background(), []int64{0, 50, 47, 0}, style, 1.25)
	if err != nil {
		t.Fatalf("Infer: %v", err)
	}

	if !reflect.DeepEqual(samples, []float32{0.1, -0.2}) {
		t.Fatalf("unexpected samples: %v", samples)
	}

	ids := got["input_ids"]
	if ids == nil || ids.DType() != DTypeInt64 || !reflect.DeepEqual(ids.Shape(), []int64{1, 4}) {
		t.Fatalf("unexpected input_ids tensor: %+v", ids)
	}

	st := got["style"]
	if st == nil || st.DType() != DTypeFloat32 || !reflect.DeepEqual(st.Shape(), []int64{1, 256}) {
		t.Fatalf("unexpected style tensor: %+v", st)
	}

	sp := got["speed"]
	if sp == nil || !reflect.DeepEqual(sp.Shape(), []int64{1}) {
		t.Fatalf("unexpected speed tensor: %+v", sp)
	}

	if v, _ := ExtractFloat32(sp); v[0] != 1.25 {
		t.Fatalf("speed = %v, want 1.25", v[0])
	}
}

func TestModelCustomTensorNames(t *testing.T) {
	r := &fakeRunner{fn: func(_ context.Context, in map[string]*Tensor) (map[string]*Tensor, error) {
		for _, name := range []string{"tokens", "ref_s", "rate"} {
			if _, ok := in[name]; !ok {
				t.Errorf("missing input %q", name)
			}
		}
		return waveformOutput(t, "audio", []float32{1}), nil
	}}

	m := NewModel(r, ModelConfig{InputIDsName: "tokens", StyleName: "ref_s", SpeedName: "rate", OutputName: "audio"})
	if _, err := m.Infer(context.Background(), []int64{0, 1, 0}, make([]float32, 256), 1); err != nil {
		t.Fatalf("Infer: %v", err)
	}
}

func TestModelSingleOutputFallback(t *testing.T) {
	r := &fakeRunner{fn: func(context.Context, map[string]*Tensor) (map[string]*Tensor, error) {
		return waveformOutput(t, "output_0", []float32{0.3}), nil
	}}

	samples, err := NewModel(r, ModelConfig{}).Infer(context.Background(), []int64{0, 0}, make([]float32, 256), 1)
	if err != nil {
		t.Fatalf("Infer: %v", err)
	}

	if len(samples) != 1 || samples[0] != 0.3 {
		t.Fatalf("unexpected samples: %v", samples)
	}
}

func TestModelErrorStages(t *testing.T) {
	twoOutputs := func(context.Context, map[string]*Tensor) (map[string]*Tensor, error) {
		a, _ := NewTensor([]float32{1}, []int64{1})
		b, _ := NewTensor([]float32{2}, []int64{1})
		return map[string]*Tensor{"a": a, "b": b}, nil
	}
	intOutput := func(context.Context, map[string]*Tensor) (map[string]*Tensor, error) {
		v, _ := NewTensor([]int64{1}, []int64{1})
		return map[string]*Tensor{"waveform": v}, nil
	}
	runFails := func(context.Context, map[string]*Tensor) (map[string]*Tensor, error) {
		return nil, errors.New("kernel exploded")
	}

	tests := []struct {
		name  string
		fn    func(context.Context, map[string]*Tensor) (map[string]*Tensor, error)
		ids   []int64
		stage error
	}{
		{"empty ids", twoOutputs, nil, ErrTensorCreate},
		{"execution", runFails, []int64{0, 0}, ErrExecution},
		{"ambiguous outputs", twoOutputs, []int64{0, 0}, ErrOutputExtract},
		{"wrong dtype", intOutput, []int64{0, 0}, ErrOutputExtract},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewModel(&fakeRunner{fn: tt.fn}, ModelConfig{})

			_, err := m.Infer(context.Background(), tt.ids, make([]float32, 256), 1)
			if !errors.Is(err, tt.stage) {
				t.Fatalf("expected %v, got %v", tt.stage, err)
			}

			if !errors.Is(err, errs.ErrModelInferenceFailed) {
				t.Fatalf("expected ModelInferenceFailed kind, got %v", err)
			}
		})
	}
}

func TestModelSerialisesInference(t *testing.T) {
	var active, maxActive atomic.Int32
	r := &fakeRunner{fn: func(context.Context, map[string]*Tensor) (map[string]*Tensor, error) {
		n := active.Add(1)
		for {
			old := maxActive.Load()
			if n <= old || maxActive.CompareAndSwap(old, n) {
				break
			}
		}
		time.Sleep(2 * time.Millisecond)
		active.Add(-1)
		return waveformOutput(t, "waveform", []float32{0}), nil
	}}
	m := NewModel(r, ModelConfig{})

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := m.Infer(context.Background(), []int64{0, 0}, make([]float32, 256), 1); err != nil {
				t.Errorf("Infer: %v", err)
			}
		}()
	}
	wg.Wait()

	if maxActive.Load() != 1 {
		t.Fatalf("expected exclusive access, saw %d concurrent runs", maxActive.Load())
	}
}

func TestModelCloseIsIdempotent(t *testing.T) {
	r := &fakeRunner{fn: func(context.Context, map[string]*Tensor) (map[string]*Tensor, error) {
		t.Fatal("Run called after Close")
		return nil, nil
	}}
	m := NewModel(r, ModelConfig{})

	if err := m.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := m.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}

	if r.closed != 1 {
		t.Fatalf("runner closed %d times, want 1", r.closed)
	}

	if _, err := m.Infer(context.Background(), []int64{0, 0}, make([]float32, 256), 1); !errors.Is(err, errs.ErrModelInferenceFailed) {
		t.Fatalf("expected inference error after Close, got %v", err)
	}
}

func TestLoadModelMissingLibrary(t *testing.T) {
	_, err := LoadModel("does-not-exist.onnx", ModelConfig{Runner: RunnerConfig{LibraryPath: "/nonexistent/libonnxruntime.so"}})
	if !errors.Is(err, errs.ErrModelLoadFailed) {
		t.Fatalf("expected ModelLoadFailed, got %v", err)
	}

	if !errors.Is(err, ErrSessionCreate) {
		t.Fatalf("expected ErrSessionCreate stage, got %v", err)
	}
}

func TestModelConfigFrom(t *testing.T) {
	rc := config.DefaultConfig().Runtime

	got := ModelConfigFrom(rc, "/opt/libonnxruntime.so")
	want := ModelConfig{
		Runner:       RunnerConfig{LibraryPath: "/opt/libonnxruntime.so", APIVersion: 23, Threads: 4},
		InputIDsName: "input_ids",
		StyleName:    "style",
		SpeedName:    "speed",
		OutputName:   "waveform",
	}

	if !reflect.DeepEqual(got, want) {
		t.Fatalf("ModelConfigFrom = %+v, want %+v", got, want)
	}
}

func TestMissingNames(t *testing.T) {
	have := []string{"input_ids", "style", "speed"}

	tests := []struct {
		want []string
		miss []string
	}{
		{nil, nil},
		{[]string{"style", "input_ids"}, nil},
		{[]string{"tokens", "style", "ref_s"}, []string{"tokens", "ref_s"}},
	}

	for _, tt := range tests {
		if got := missingNames(have, tt.want); !reflect.DeepEqual(got, tt.miss) {
			t.Errorf("missingNames(%v) = %v, want %v", tt.want, got, tt.miss)
		}
	}
}
