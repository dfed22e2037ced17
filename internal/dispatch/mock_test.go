package dispatch

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dermaven/skinsight-api/internal/classes"
)

func TestMockLogitsShapeAndDeterminism(t *testing.T) {
	req := require.New(t)
	m := NewMockResponder()

	input := []byte("same bytes in, same logits out")
	first := m.Logits(input)
	second := m.Logits(input)

	req.Len(first, classes.TotalLogits)
	req.Equal(first, second)
}

func TestMockLogitsVaryWithInput(t *testing.T) {
	req := require.New(t)
	m := NewMockResponder()

	req.NotEqual(m.Logits([]byte("image a")), m.Logits([]byte("image b")))
}

func TestMockLogitsEmptyInput(t *testing.T) {
	req := require.New(t)
	m := NewMockResponder()

	// Even empty input must produce a usable vector.
	logits := m.Logits(nil)
	req.Len(logits, classes.TotalLogits)
	for _, v := range logits {
		req.GreaterOrEqual(v, float32(0))
		req.Less(v, float32(4))
	}
}
