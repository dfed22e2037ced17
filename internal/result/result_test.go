package result

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dermaven/skinsight-api/internal/backend"
	"github.com/dermaven/skinsight-api/internal/classes"
)

func TestFormatScenario(t *testing.T) {
	req := require.New(t)

	// Skin head peaks at index 0, hair at relative index 1, condition at
	// relative index 0 ("healthy").
	logits := []float32{5, 1, 1, 1, 1, 2, 5, 1, 1, 9, 1, 1, 1, 1}

	res, err := Format(logits, backend.KindONNX, "1.0.0")
	req.NoError(err)

	req.Equal("normal", res.SkinType)
	req.Equal("wavy", res.HairType)
	req.Empty(res.ConditionsDetected)
	req.Equal("onnx", res.ModelType)
	req.Equal("1.0.0", res.ModelVersion)
}

func TestSoftmaxIndependentPerSegment(t *testing.T) {
	req := require.New(t)

	logits := []float32{0.3, -1.2, 2.1, 0.4, -0.5, 1.1, 0.2, 0.9, -2.0, 0.1, 0.7, 3.3, -0.4, 0.0}

	segments := [][]float32{
		logits[classes.SkinOffset:classes.HairOffset],
		logits[classes.HairOffset:classes.ConditionOffset],
		logits[classes.ConditionOffset:classes.TotalLogits],
	}
	for _, seg := range segments {
		probs := softmax(seg)
		sum := 0.0
		for _, p := range probs {
			sum += p
		}
		req.InDelta(1.0, sum, 1e-6)
	}
}

func TestFormatDetectsCondition(t *testing.T) {
	req := require.New(t)

	logits := make([]float32, classes.TotalLogits)
	// Peak on "eczema" (condition relative index 3).
	logits[classes.ConditionOffset+3] = 6

	res, err := Format(logits, backend.KindTFLite, "1.0.0")
	req.NoError(err)
	req.Equal([]string{"eczema"}, res.ConditionsDetected)
	req.Greater(res.ConfidenceScores.Condition, 0.9)
}

func TestFormatTieBreaksToLowestIndex(t *testing.T) {
	req := require.New(t)

	// All-equal logits tie everywhere; the lowest index wins each head.
	logits := make([]float32, classes.TotalLogits)

	res, err := Format(logits, backend.KindMock, "mock")
	req.NoError(err)
	req.Equal("normal", res.SkinType)
	req.Equal("straight", res.HairType)
	req.Empty(res.ConditionsDetected)
	req.InDelta(1.0/5.0, res.ConfidenceScores.SkinType, 1e-6)
	req.InDelta(1.0/4.0, res.ConfidenceScores.HairType, 1e-6)
	req.InDelta(1.0/5.0, res.ConfidenceScores.Condition, 1e-6)
}

func TestFormatRejectsWrongLength(t *testing.T) {
	req := require.New(t)

	_, err := Format(make([]float32, 13), backend.KindONNX, "1.0.0")
	req.Error(err)
}

func TestJSONShape(t *testing.T) {
	req := require.New(t)

	logits := make([]float32, classes.TotalLogits)
	res, err := Format(logits, backend.KindMock, "mock")
	req.NoError(err)

	raw, err := json.Marshal(res)
	req.NoError(err)

	var decoded map[string]json.RawMessage
	req.NoError(json.Unmarshal(raw, &decoded))
	for _, key := range []string{
		"skin_type", "hair_type", "conditions_detected",
		"confidence_scores", "model_version", "model_type",
	} {
		req.Contains(decoded, key)
	}

	// An empty detection list serializes as [], never null.
	req.JSONEq(`[]`, string(decoded["conditions_detected"]))

	var scores map[string]float64
	req.NoError(json.Unmarshal(decoded["confidence_scores"], &scores))
	req.Contains(scores, "skin_type")
	req.Contains(scores, "hair_type")
	req.Contains(scores, "condition")
}
