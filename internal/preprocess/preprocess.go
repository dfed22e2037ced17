// Package preprocess turns an encoded image into the normalized float32
// tensor the analysis model expects: 224x224 RGB, scaled to [0,1] and
// standardized with ImageNet channel statistics.
package preprocess

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"github.com/nfnt/resize"

	"github.com/dermaven/skinsight-api/internal/tensor"
)

// TargetSize is the spatial size of the model input.
const TargetSize = 224

var (
	// ErrImageNotFound reports that an input path does not resolve to an
	// existing file.
	ErrImageNotFound = errors.New("image file not found")
	// ErrImageDecode reports that input bytes are not a decodable image.
	ErrImageDecode = errors.New("image could not be decoded")
)

// ImageNet channel statistics, matching the training-time normalization.
var (
	imagenetMean = [3]float32{0.485, 0.456, 0.406}
	imagenetStd  = [3]float32{0.229, 0.224, 0.225}
)

// FromBytes decodes an encoded image (JPEG, PNG, GIF) and returns the model
// input tensor in the requested layout. The image is decoded once; a layout
// change is a transpose of the same normalized values.
func FromBytes(data []byte, layout tensor.Layout) (*tensor.Tensor, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrImageDecode, err)
	}
	return fromImage(img, layout), nil
}

// FromFile reads an image from disk and preprocesses it. A missing path is
// reported as ErrImageNotFound, distinct from undecodable content.
func FromFile(path string, layout tensor.Layout) (*tensor.Tensor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrImageNotFound, path)
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return FromBytes(data, layout)
}

func fromImage(img image.Image, layout tensor.Layout) *tensor.Tensor {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	// Small inputs are upscaled first so the short side reaches the target
	// size, then everything is resized (not cropped) to exactly 224x224.
	if w < TargetSize || h < TargetSize {
		if w < h {
			img = resize.Resize(TargetSize, 0, img, resize.Bilinear)
		} else {
			img = resize.Resize(0, TargetSize, img, resize.Bilinear)
		}
	}
	resized := resize.Resize(TargetSize, TargetSize, img, resize.Bilinear)

	data := make([]float32, TargetSize*TargetSize*3)
	for y := 0; y < TargetSize; y++ {
		for x := 0; x < TargetSize; x++ {
			r, g, b, _ := resized.At(x, y).RGBA()

			// RGBA returns 16-bit channels.
			rNorm := float32(r) / 65535.0
			gNorm := float32(g) / 65535.0
			bNorm := float32(b) / 65535.0

			i := (y*TargetSize + x) * 3
			data[i] = (rNorm - imagenetMean[0]) / imagenetStd[0]
			data[i+1] = (gNorm - imagenetMean[1]) / imagenetStd[1]
			data[i+2] = (bNorm - imagenetMean[2]) / imagenetStd[2]
		}
	}

	return tensor.NewNHWC(data, TargetSize, TargetSize).AsLayout(layout)
}
