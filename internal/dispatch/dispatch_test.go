package dispatch

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/jpeg"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dermaven/skinsight-api/internal/preprocess"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestDispatcher(t *testing.T, opts Options) *Dispatcher {
	t.Helper()
	if opts.ModelDir == "" {
		// An empty directory: no artifacts, so probing lands on the mock.
		opts.ModelDir = t.TempDir()
	}
	if opts.Logger == nil {
		opts.Logger = testLogger()
	}
	d := New(opts)
	t.Cleanup(d.Close)
	return d
}

func jpegBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 64, 64))
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 4), G: uint8(y * 4), B: 90, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, nil))
	return buf.Bytes()
}

func TestAnalyzeWithoutArtifactsServesMock(t *testing.T) {
	req := require.New(t)
	d := newTestDispatcher(t, Options{})

	res, err := d.Analyze(jpegBytes(t))
	req.NoError(err)

	req.Equal("mock", res.ModelType)
	req.NotEmpty(res.SkinType)
	req.NotEmpty(res.HairType)
	req.NotNil(res.ConditionsDetected)
	req.NotEmpty(res.ModelVersion)
	req.InDelta(0.5, res.ConfidenceScores.SkinType, 0.5)
	req.InDelta(0.5, res.ConfidenceScores.HairType, 0.5)
	req.InDelta(0.5, res.ConfidenceScores.Condition, 0.5)
}

func TestAnalyzeIsDeterministic(t *testing.T) {
	req := require.New(t)
	d := newTestDispatcher(t, Options{})
	input := jpegBytes(t)

	first, err := d.Analyze(input)
	req.NoError(err)
	second, err := d.Analyze(input)
	req.NoError(err)

	firstJSON, err := json.Marshal(first)
	req.NoError(err)
	secondJSON, err := json.Marshal(second)
	req.NoError(err)
	req.Equal(firstJSON, secondJSON)
}

func TestAnalyzeCorruptBytesFallsSoft(t *testing.T) {
	req := require.New(t)
	d := newTestDispatcher(t, Options{})

	// Garbage bytes are not a caller error: the mock responder still
	// produces a structurally valid response.
	res, err := d.Analyze([]byte("not an image at all"))
	req.NoError(err)
	req.Equal("mock", res.ModelType)
}

func TestAnalyzeFileMissingPathIsHardError(t *testing.T) {
	req := require.New(t)
	d := newTestDispatcher(t, Options{})

	_, err := d.AnalyzeFile(filepath.Join(t.TempDir(), "missing.jpg"))
	req.ErrorIs(err, preprocess.ErrImageNotFound)
}

func TestAnalyzeFileRoundTrip(t *testing.T) {
	req := require.New(t)
	d := newTestDispatcher(t, Options{})

	path := filepath.Join(t.TempDir(), "input.jpg")
	req.NoError(os.WriteFile(path, jpegBytes(t), 0o644))

	res, err := d.AnalyzeFile(path)
	req.NoError(err)
	req.Equal("mock", res.ModelType)
}

func TestAnalyzeConcurrent(t *testing.T) {
	req := require.New(t)
	d := newTestDispatcher(t, Options{})
	input := jpegBytes(t)

	baseline, err := d.Analyze(input)
	req.NoError(err)

	var wg sync.WaitGroup
	results := make([]string, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := d.Analyze(input)
			if err == nil {
				results[i] = res.SkinType
			}
		}(i)
	}
	wg.Wait()

	for _, skin := range results {
		req.Equal(baseline.SkinType, skin)
	}
}

func TestDebugSinkWritesLastResult(t *testing.T) {
	req := require.New(t)
	debugDir := t.TempDir()
	d := newTestDispatcher(t, Options{DebugDir: debugDir})

	res, err := d.Analyze(jpegBytes(t))
	req.NoError(err)

	raw, err := os.ReadFile(filepath.Join(debugDir, debugResultFile))
	req.NoError(err)

	var persisted map[string]any
	req.NoError(json.Unmarshal(raw, &persisted))
	req.Equal(res.ModelType, persisted["model_type"])
}

func TestDebugSinkFailureDoesNotPropagate(t *testing.T) {
	req := require.New(t)
	d := newTestDispatcher(t, Options{DebugDir: filepath.Join(t.TempDir(), "does", "not", "exist")})

	_, err := d.Analyze(jpegBytes(t))
	req.NoError(err)
}

func TestResolveVersion(t *testing.T) {
	req := require.New(t)
	log := testLogger()

	// No sidecar.
	req.Equal(defaultVersion, resolveVersion(t.TempDir(), log))

	// Valid sidecar.
	dir := t.TempDir()
	req.NoError(os.WriteFile(filepath.Join(dir, metadataFile),
		[]byte(`{"model_version":"2.3.1"}`), 0o644))
	req.Equal("2.3.1", resolveVersion(dir, log))

	// Corrupt sidecar falls back to the default.
	dir = t.TempDir()
	req.NoError(os.WriteFile(filepath.Join(dir, metadataFile), []byte("{"), 0o644))
	req.Equal(defaultVersion, resolveVersion(dir, log))
}
