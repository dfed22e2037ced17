// Package backend provides the model runtimes behind a uniform load/infer
// contract. Callers above this package only see float32 logits; quantized
// tensor I/O is handled inside the adapters.
package backend

import (
	"fmt"

	"github.com/dermaven/skinsight-api/internal/tensor"
)

// Kind identifies a runtime. The values double as the model_type field of
// the JSON response.
type Kind string

const (
	KindTFLite Kind = "tflite"
	KindONNX   Kind = "onnx"
	KindMock   Kind = "mock"
)

// Descriptor points at a model artifact. Descriptors are resolved once at
// startup and never mutated.
type Descriptor struct {
	Kind    Kind
	Path    string
	Version string
}

// Adapter is the uniform capability every runtime exposes. Load is expensive
// and called at most once per process; Infer must be safe for concurrent use
// after a successful Load.
type Adapter interface {
	Kind() Kind
	// Layout is the input layout the runtime expects.
	Layout() tensor.Layout
	Load(desc Descriptor) error
	// Infer runs the model and returns the raw logit vector.
	Infer(t *tensor.Tensor) ([]float32, error)
	Close() error
}

// LoadError reports that a backend artifact could not be loaded. It is
// absorbed by the dispatcher, which downgrades to the next tier.
type LoadError struct {
	Kind Kind
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("loading %s model: %v", e.Kind, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// InferenceError reports that a loaded backend failed during a single call.
// It triggers per-call fallback only, never a permanent downgrade.
type InferenceError struct {
	Kind Kind
	Err  error
}

func (e *InferenceError) Error() string {
	return fmt.Sprintf("%s inference: %v", e.Kind, e.Err)
}

func (e *InferenceError) Unwrap() error { return e.Err }
