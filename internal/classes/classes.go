// Package classes defines the fixed label vocabulary of the analysis model
// and the geometry of its output vector. The model emits a single vector of
// 14 logits split into three independent classification heads; the offsets
// below are part of the model contract and must match the export pipeline.
package classes

// Segment offsets into the logit vector. Skin-type logits occupy
// [SkinOffset, HairOffset), hair-type logits [HairOffset, ConditionOffset),
// condition logits [ConditionOffset, TotalLogits).
const (
	SkinOffset      = 0
	HairOffset      = 5
	ConditionOffset = 9
	TotalLogits     = 14
)

// SkinTypes are the skin-type head labels, in logit order.
var SkinTypes = []string{"normal", "dry", "oily", "combination", "sensitive"}

// HairTypes are the hair-type head labels, in logit order.
var HairTypes = []string{"straight", "wavy", "curly", "coily"}

// Conditions are the condition head labels, in logit order. Index 0 is the
// "no finding" class.
var Conditions = []string{"healthy", "mild_acne", "severe_acne", "eczema", "psoriasis"}

// Healthy is the condition label that maps to an empty detection list.
const Healthy = "healthy"
