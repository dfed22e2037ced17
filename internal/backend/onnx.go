package backend

import (
	"fmt"
	"os"
	"sync"

	ort "github.com/yalue/onnxruntime_go"

	"github.com/dermaven/skinsight-api/internal/classes"
	"github.com/dermaven/skinsight-api/internal/preprocess"
	"github.com/dermaven/skinsight-api/internal/tensor"
)

// The ONNX runtime environment is process-global and must be initialized
// exactly once, regardless of how many sessions are created.
var (
	ortInitOnce sync.Once
	ortInitErr  error
)

func initONNXEnvironment() error {
	ortInitOnce.Do(func() {
		ortInitErr = ort.InitializeEnvironment()
	})
	return ortInitErr
}

// ONNXAdapter runs the portable graph artifact through ONNX Runtime. The
// export is float32-native with channel-first input: the session tensors
// are typed float32, so the quantization codec is a pass-through here
// (its zero-scale no-op, the same contract the compact adapter checks).
type ONNXAdapter struct {
	mu           sync.Mutex
	session      *ort.AdvancedSession
	inputTensor  *ort.Tensor[float32]
	outputTensor *ort.Tensor[float32]
}

func NewONNXAdapter() *ONNXAdapter { return &ONNXAdapter{} }

func (a *ONNXAdapter) Kind() Kind            { return KindONNX }
func (a *ONNXAdapter) Layout() tensor.Layout { return tensor.NCHW }

func (a *ONNXAdapter) Load(desc Descriptor) error {
	if _, err := os.Stat(desc.Path); err != nil {
		return &LoadError{Kind: KindONNX, Err: fmt.Errorf("artifact %s: %w", desc.Path, err)}
	}
	if err := initONNXEnvironment(); err != nil {
		return &LoadError{Kind: KindONNX, Err: fmt.Errorf("initializing ONNX environment: %w", err)}
	}

	size := int64(preprocess.TargetSize)
	inputShape := ort.NewShape(1, 3, size, size)
	outputShape := ort.NewShape(1, classes.TotalLogits)

	inputTensor, err := ort.NewEmptyTensor[float32](inputShape)
	if err != nil {
		return &LoadError{Kind: KindONNX, Err: fmt.Errorf("creating input tensor: %w", err)}
	}

	outputTensor, err := ort.NewEmptyTensor[float32](outputShape)
	if err != nil {
		inputTensor.Destroy()
		return &LoadError{Kind: KindONNX, Err: fmt.Errorf("creating output tensor: %w", err)}
	}

	session, err := ort.NewAdvancedSession(desc.Path,
		[]string{"input"}, []string{"output"},
		[]ort.ArbitraryTensor{inputTensor}, []ort.ArbitraryTensor{outputTensor},
		nil)
	if err != nil {
		inputTensor.Destroy()
		outputTensor.Destroy()
		return &LoadError{Kind: KindONNX, Err: fmt.Errorf("creating session: %w", err)}
	}

	a.session = session
	a.inputTensor = inputTensor
	a.outputTensor = outputTensor
	return nil
}

func (a *ONNXAdapter) Infer(t *tensor.Tensor) ([]float32, error) {
	if a.session == nil {
		return nil, &InferenceError{Kind: KindONNX, Err: fmt.Errorf("model not loaded")}
	}

	// The session reads and writes fixed tensor buffers; serialize access.
	a.mu.Lock()
	defer a.mu.Unlock()

	copy(a.inputTensor.GetData(), t.Data)

	if err := a.session.Run(); err != nil {
		return nil, &InferenceError{Kind: KindONNX, Err: err}
	}

	out := a.outputTensor.GetData()
	if len(out) != classes.TotalLogits {
		return nil, &InferenceError{
			Kind: KindONNX,
			Err:  fmt.Errorf("expected %d logits, got %d", classes.TotalLogits, len(out)),
		}
	}

	return append([]float32(nil), out...), nil
}

func (a *ONNXAdapter) Close() error {
	if a.inputTensor != nil {
		a.inputTensor.Destroy()
		a.inputTensor = nil
	}
	if a.outputTensor != nil {
		a.outputTensor.Destroy()
		a.outputTensor = nil
	}
	if a.session != nil {
		a.session.Destroy()
		a.session = nil
	}
	return nil
}
