package backend

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/mattn/go-tflite"

	"github.com/dermaven/skinsight-api/internal/classes"
	"github.com/dermaven/skinsight-api/internal/tensor"
)

// TFLiteAdapter runs the compact flat-buffer artifact exported for mobile.
// The exported model is usually uint8-quantized; the adapter reads the
// scale/zero-point the artifact declares and converts at the boundary so
// callers only ever see float32.
type TFLiteAdapter struct {
	mu          sync.Mutex
	model       *tflite.Model
	options     *tflite.InterpreterOptions
	interpreter *tflite.Interpreter
	inputQuant  tensor.QuantParams
	outputQuant tensor.QuantParams
	numThreads  int
}

// NewTFLiteAdapter returns an unloaded adapter. numThreads <= 0 leaves the
// interpreter default in place.
func NewTFLiteAdapter(numThreads int) *TFLiteAdapter {
	return &TFLiteAdapter{numThreads: numThreads}
}

func (a *TFLiteAdapter) Kind() Kind            { return KindTFLite }
func (a *TFLiteAdapter) Layout() tensor.Layout { return tensor.NHWC }

func (a *TFLiteAdapter) Load(desc Descriptor) error {
	if _, err := os.Stat(desc.Path); err != nil {
		return &LoadError{Kind: KindTFLite, Err: fmt.Errorf("artifact %s: %w", desc.Path, err)}
	}

	model := tflite.NewModelFromFile(desc.Path)
	if model == nil {
		return &LoadError{Kind: KindTFLite, Err: fmt.Errorf("artifact %s is not a valid model", desc.Path)}
	}

	options := tflite.NewInterpreterOptions()
	if a.numThreads > 0 {
		options.SetNumThread(a.numThreads)
	}

	interpreter := tflite.NewInterpreter(model, options)
	if interpreter == nil {
		options.Delete()
		model.Delete()
		return &LoadError{Kind: KindTFLite, Err: errors.New("failed to create interpreter")}
	}
	if status := interpreter.AllocateTensors(); status != tflite.OK {
		interpreter.Delete()
		options.Delete()
		model.Delete()
		return &LoadError{Kind: KindTFLite, Err: errors.New("failed to allocate tensors")}
	}

	a.model = model
	a.options = options
	a.interpreter = interpreter
	a.inputQuant = quantParamsOf(interpreter.GetInputTensor(0))
	a.outputQuant = quantParamsOf(interpreter.GetOutputTensor(0))
	return nil
}

func (a *TFLiteAdapter) Infer(t *tensor.Tensor) ([]float32, error) {
	if a.interpreter == nil {
		return nil, &InferenceError{Kind: KindTFLite, Err: errors.New("model not loaded")}
	}

	// The interpreter owns its tensor buffers; serialize access.
	a.mu.Lock()
	defer a.mu.Unlock()

	input := a.interpreter.GetInputTensor(0)
	if a.inputQuant.Quantized() {
		copy(input.UInt8s(), tensor.Quantize(t.Data, a.inputQuant))
	} else {
		copy(input.Float32s(), t.Data)
	}

	if status := a.interpreter.Invoke(); status != tflite.OK {
		return nil, &InferenceError{Kind: KindTFLite, Err: errors.New("invoke failed")}
	}

	output := a.interpreter.GetOutputTensor(0)
	var logits []float32
	if a.outputQuant.Quantized() {
		logits = tensor.Dequantize(output.UInt8s(), a.outputQuant)
	} else {
		logits = append([]float32(nil), output.Float32s()...)
	}

	if len(logits) != classes.TotalLogits {
		return nil, &InferenceError{
			Kind: KindTFLite,
			Err:  fmt.Errorf("expected %d logits, got %d", classes.TotalLogits, len(logits)),
		}
	}
	return logits, nil
}

func (a *TFLiteAdapter) Close() error {
	if a.interpreter != nil {
		a.interpreter.Delete()
		a.interpreter = nil
	}
	if a.options != nil {
		a.options.Delete()
		a.options = nil
	}
	if a.model != nil {
		a.model.Delete()
		a.model = nil
	}
	return nil
}

// quantParamsOf reads the affine quantization parameters a tensor declares.
// Float32 tensors declare a zero scale, which the codec treats as
// pass-through.
func quantParamsOf(t *tflite.Tensor) tensor.QuantParams {
	if t == nil || t.Type() != tflite.UInt8 {
		return tensor.QuantParams{}
	}
	qp := t.QuantizationParams()
	return tensor.QuantParams{
		Scale:     float32(qp.Scale),
		ZeroPoint: int32(qp.ZeroPoint),
	}
}
