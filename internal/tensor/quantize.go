package tensor

// QuantParams are the affine quantization parameters a model declares for a
// fixed-point tensor. A zero Scale means the tensor is float32-native and the
// codec is a pass-through.
type QuantParams struct {
	Scale     float32
	ZeroPoint int32
}

// Quantized returns true when the parameters describe a real fixed-point
// mapping.
func (q QuantParams) Quantized() bool {
	return q.Scale != 0
}

// Quantize converts float32 values to uint8 using
// q = round(v/scale + zeroPoint), clamped to [0, 255].
func Quantize(data []float32, qp QuantParams) []uint8 {
	out := make([]uint8, len(data))
	for i, v := range data {
		q := v/qp.Scale + float32(qp.ZeroPoint)
		switch {
		case q <= 0:
			out[i] = 0
		case q >= 255:
			out[i] = 255
		default:
			out[i] = uint8(q + 0.5)
		}
	}
	return out
}

// Dequantize converts uint8 values back to float32 using
// v = (q - zeroPoint) * scale.
func Dequantize(data []uint8, qp QuantParams) []float32 {
	out := make([]float32, len(data))
	for i, q := range data {
		out[i] = (float32(q) - float32(qp.ZeroPoint)) * qp.Scale
	}
	return out
}
