// Package result maps a raw logit vector onto the labeled, confidence-scored
// response returned to callers.
package result

import (
	"fmt"
	"math"

	"github.com/samber/lo"

	"github.com/dermaven/skinsight-api/internal/backend"
	"github.com/dermaven/skinsight-api/internal/classes"
)

// ConfidenceScores holds the softmax probability of the selected class in
// each head.
type ConfidenceScores struct {
	SkinType  float64 `json:"skin_type"`
	HairType  float64 `json:"hair_type"`
	Condition float64 `json:"condition"`
}

// Result is the analysis response. The JSON keys are part of the public API
// contract and must not change.
type Result struct {
	SkinType           string           `json:"skin_type"`
	HairType           string           `json:"hair_type"`
	ConditionsDetected []string         `json:"conditions_detected"`
	ConfidenceScores   ConfidenceScores `json:"confidence_scores"`
	ModelVersion       string           `json:"model_version"`
	ModelType          string           `json:"model_type"`
}

// Format converts the 14-logit model output into a Result. Each head gets
// its own softmax; the heads never share a denominator.
func Format(logits []float32, kind backend.Kind, version string) (*Result, error) {
	if len(logits) != classes.TotalLogits {
		return nil, fmt.Errorf("expected %d logits, got %d", classes.TotalLogits, len(logits))
	}

	skinIdx, skinConf := top(softmax(logits[classes.SkinOffset:classes.HairOffset]))
	hairIdx, hairConf := top(softmax(logits[classes.HairOffset:classes.ConditionOffset]))
	condIdx, condConf := top(softmax(logits[classes.ConditionOffset:classes.TotalLogits]))

	condition := classes.Conditions[condIdx]
	detected := []string{}
	if condition != classes.Healthy {
		detected = append(detected, condition)
	}

	return &Result{
		SkinType:           classes.SkinTypes[skinIdx],
		HairType:           classes.HairTypes[hairIdx],
		ConditionsDetected: detected,
		ConfidenceScores: ConfidenceScores{
			SkinType:  skinConf,
			HairType:  hairConf,
			Condition: condConf,
		},
		ModelVersion: version,
		ModelType:    string(kind),
	}, nil
}

// softmax computes probabilities for one head, shifted by the segment max
// for numeric stability.
func softmax(segment []float32) []float64 {
	max := float64(lo.Max(segment))
	exps := make([]float64, len(segment))
	for i, v := range segment {
		exps[i] = math.Exp(float64(v) - max)
	}
	sum := lo.Sum(exps)
	for i := range exps {
		exps[i] /= sum
	}
	return exps
}

// top returns the argmax and its probability. Ties resolve to the lowest
// index.
func top(probs []float64) (int, float64) {
	best := 0
	for i, p := range probs {
		if p > probs[best] {
			best = i
		}
	}
	return best, probs[best]
}
