package dispatch

import (
	"hash/fnv"

	"github.com/dermaven/skinsight-api/internal/classes"
)

// MockResponder is the last fallback tier. It produces a structurally valid
// logit vector without any runtime library: the input bytes seed a small
// PRNG, so the same input always yields the same prediction and tests stay
// reproducible.
type MockResponder struct{}

func NewMockResponder() *MockResponder { return &MockResponder{} }

// Logits returns a deterministic 14-logit vector for the given input.
func (m *MockResponder) Logits(data []byte) []float32 {
	h := fnv.New64a()
	h.Write(data)
	state := h.Sum64()
	if state == 0 {
		state = 0x9e3779b97f4a7c15
	}

	logits := make([]float32, classes.TotalLogits)
	for i := range logits {
		// xorshift64; keeps the values in a plausible logit range.
		state ^= state << 13
		state ^= state >> 7
		state ^= state << 17
		logits[i] = float32(state%4000) / 1000.0
	}
	return logits
}
