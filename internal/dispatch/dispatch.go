// Package dispatch selects the model backend, loads it once, and routes
// every analysis call through it with fallback to lower tiers. Priority is
// fixed: tflite, then onnx, then the mock responder.
package dispatch

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/dermaven/skinsight-api/internal/backend"
	"github.com/dermaven/skinsight-api/internal/preprocess"
	"github.com/dermaven/skinsight-api/internal/result"
	"github.com/dermaven/skinsight-api/internal/tensor"
)

// Artifact names under the export directory. The export pipeline writes
// these fixed names; a missing file is a fallback trigger, not an error.
const (
	compactArtifact = "model.tflite"
	graphArtifact   = "model.onnx"
	metadataFile    = "metadata.json"
)

const (
	defaultVersion = "1.0.0"
	mockVersion    = "mock"
)

// Options configure a Dispatcher. The zero value works: no artifacts means
// every call is served by the mock responder.
type Options struct {
	// ModelDir is the export directory holding the model artifacts.
	ModelDir string
	// DebugDir, when non-empty, receives the last analysis result as JSON.
	DebugDir string
	// TFLiteThreads caps the compact runtime's thread count; 0 keeps the
	// runtime default.
	TFLiteThreads int
	Logger        *slog.Logger
}

// tier wraps an adapter with once-only loading so a load failure is
// permanent for the process, whether it happens during probing or during a
// per-call fallback.
type tier struct {
	adapter backend.Adapter
	desc    backend.Descriptor
	once    sync.Once
	err     error
}

func (t *tier) load() error {
	t.once.Do(func() {
		t.err = t.adapter.Load(t.desc)
	})
	return t.err
}

// Dispatcher owns the loaded backend handle for the process lifetime.
// Analyze is safe for concurrent use; the only mutable shared state is the
// one-time probe, guarded by sync.Once.
type Dispatcher struct {
	log      *slog.Logger
	debugDir string
	version  string

	tiers     []*tier
	probeOnce sync.Once
	active    int // index into tiers after probing; len(tiers) means mock only

	mock *MockResponder
}

// New builds a Dispatcher. No model is loaded until the first Analyze call.
func New(opts Options) *Dispatcher {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}

	version := resolveVersion(opts.ModelDir, log)

	d := &Dispatcher{
		log:      log,
		debugDir: opts.DebugDir,
		version:  version,
		mock:     NewMockResponder(),
	}
	d.tiers = []*tier{
		{
			adapter: backend.NewTFLiteAdapter(opts.TFLiteThreads),
			desc: backend.Descriptor{
				Kind:    backend.KindTFLite,
				Path:    filepath.Join(opts.ModelDir, compactArtifact),
				Version: version,
			},
		},
		{
			adapter: backend.NewONNXAdapter(),
			desc: backend.Descriptor{
				Kind:    backend.KindONNX,
				Path:    filepath.Join(opts.ModelDir, graphArtifact),
				Version: version,
			},
		},
	}
	d.active = len(d.tiers)
	return d
}

// ensureReady performs the one-time backend probe. The first tier that
// loads becomes the active backend for the process lifetime; per-call
// fallback never changes it.
func (d *Dispatcher) ensureReady() {
	d.probeOnce.Do(func() {
		for i, t := range d.tiers {
			if err := t.load(); err != nil {
				d.log.Warn("backend unavailable", "backend", t.desc.Kind, "error", err)
				continue
			}
			d.log.Info("backend loaded", "backend", t.desc.Kind, "path", t.desc.Path, "version", t.desc.Version)
			d.active = i
			return
		}
		d.log.Warn("no model backend available, serving mock predictions")
	})
}

// Analyze runs the full pipeline on encoded image bytes and returns the
// structured analysis. Backend failures are absorbed by falling through the
// remaining tiers; only a genuinely broken pipeline surfaces an error.
func (d *Dispatcher) Analyze(data []byte) (*result.Result, error) {
	d.ensureReady()

	if res := d.analyzeReal(data); res != nil {
		return res, nil
	}

	res, err := result.Format(d.mock.Logits(data), backend.KindMock, mockVersion)
	if err != nil {
		return nil, fmt.Errorf("mock responder: %w", err)
	}
	d.writeDebug(res)
	return res, nil
}

// analyzeReal runs the request through the real backend tiers, starting at
// the active one. Returns nil when the request must be served by the mock
// responder instead.
func (d *Dispatcher) analyzeReal(data []byte) *result.Result {
	if d.active >= len(d.tiers) {
		return nil
	}

	// Decode and normalize once; a tier that needs the other layout gets a
	// transpose of the same array.
	base, err := preprocess.FromBytes(data, tensor.NHWC)
	if err != nil {
		// Undecodable bytes degrade to the mock responder so the caller
		// still gets a structurally valid response.
		d.log.Warn("image decode failed, using mock responder", "error", err)
		return nil
	}

	for i := d.active; i < len(d.tiers); i++ {
		t := d.tiers[i]
		if t.load() != nil {
			continue
		}

		logits, err := t.adapter.Infer(base.AsLayout(t.adapter.Layout()))
		if err != nil {
			d.log.Warn("inference failed, trying next tier", "backend", t.desc.Kind, "error", err)
			continue
		}

		res, err := result.Format(logits, t.desc.Kind, t.desc.Version)
		if err != nil {
			d.log.Warn("malformed model output", "backend", t.desc.Kind, "error", err)
			continue
		}
		d.writeDebug(res)
		return res
	}
	return nil
}

// AnalyzeFile is a convenience wrapper over Analyze for filesystem inputs.
// A missing path is a hard error, unlike undecodable content.
func (d *Dispatcher) AnalyzeFile(path string) (*result.Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", preprocess.ErrImageNotFound, path)
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return d.Analyze(data)
}

// Close releases any loaded backend. Safe to call on a never-probed
// dispatcher.
func (d *Dispatcher) Close() {
	for _, t := range d.tiers {
		if err := t.adapter.Close(); err != nil {
			d.log.Warn("closing backend", "backend", t.desc.Kind, "error", err)
		}
	}
}

// resolveVersion reads the optional metadata sidecar the export pipeline
// writes next to the artifacts.
func resolveVersion(modelDir string, log *slog.Logger) string {
	raw, err := os.ReadFile(filepath.Join(modelDir, metadataFile))
	if err != nil {
		return defaultVersion
	}
	var md struct {
		ModelVersion string `json:"model_version"`
	}
	if err := json.Unmarshal(raw, &md); err != nil {
		log.Warn("invalid model metadata, using default version", "error", err)
		return defaultVersion
	}
	if md.ModelVersion == "" {
		return defaultVersion
	}
	return md.ModelVersion
}
