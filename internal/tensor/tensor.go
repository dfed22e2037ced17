// Package tensor holds the numeric value types exchanged between the
// preprocessor and the model backends: a float32 tensor with an explicit
// memory layout, and the fixed-point codec used by quantized models.
package tensor

import "fmt"

// Layout describes the channel ordering of an image tensor.
type Layout int

const (
	// NHWC is channel-last: [batch, height, width, channel].
	NHWC Layout = iota
	// NCHW is channel-first: [batch, channel, height, width].
	NCHW
)

func (l Layout) String() string {
	if l == NCHW {
		return "NCHW"
	}
	return "NHWC"
}

// Tensor is a float32 image tensor with batch dimension 1.
type Tensor struct {
	Data   []float32
	Shape  []int64
	Layout Layout
}

// NewNHWC builds a channel-last tensor of the given spatial size.
// len(data) must equal height*width*3.
func NewNHWC(data []float32, height, width int) *Tensor {
	return &Tensor{
		Data:   data,
		Shape:  []int64{1, int64(height), int64(width), 3},
		Layout: NHWC,
	}
}

// AsLayout returns the tensor in the requested layout. The receiver is
// returned unchanged when it already matches; otherwise the data is
// transposed into a fresh tensor. No pixel data is re-decoded.
func (t *Tensor) AsLayout(l Layout) *Tensor {
	if t.Layout == l {
		return t
	}
	if t.Layout == NHWC && l == NCHW {
		h := int(t.Shape[1])
		w := int(t.Shape[2])
		out := make([]float32, len(t.Data))
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				for c := 0; c < 3; c++ {
					out[c*h*w+y*w+x] = t.Data[(y*w+x)*3+c]
				}
			}
		}
		return &Tensor{Data: out, Shape: []int64{1, 3, int64(h), int64(w)}, Layout: NCHW}
	}
	// NCHW -> NHWC
	h := int(t.Shape[2])
	w := int(t.Shape[3])
	out := make([]float32, len(t.Data))
	for c := 0; c < 3; c++ {
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				out[(y*w+x)*3+c] = t.Data[c*h*w+y*w+x]
			}
		}
	}
	return &Tensor{Data: out, Shape: []int64{1, int64(h), int64(w), 3}, Layout: NHWC}
}

// Len returns the number of elements implied by the shape.
func (t *Tensor) Len() int {
	n := 1
	for _, d := range t.Shape {
		n *= int(d)
	}
	return n
}

// Validate checks that the data length matches the shape.
func (t *Tensor) Validate() error {
	if len(t.Data) != t.Len() {
		return fmt.Errorf("tensor data length %d does not match shape %v", len(t.Data), t.Shape)
	}
	return nil
}
