package analyzer

import (
	"errors"
	"image"

	"github.com/disintegration/imaging"
)

// TensorSize is the square input edge expected by the fraud model
const TensorSize = 224

var (
	imageNetMean = [3]float32{0.485, 0.456, 0.406}
	imageNetStd  = [3]float32{0.229, 0.224, 0.225}
)

// ErrEmptyImage is returned when an image has no pixels
var ErrEmptyImage = errors.New("image has no pixels")

type ocrPreprocessor struct {
	mc *metricsCalculator
}

// NewOCRPreprocessor creates the OCR preparation chain
func NewOCRPreprocessor(opts PrimitiveOptions) OCRPreprocessor {
	return &ocrPreprocessor{mc: newMetricsCalculator(opts)}
}

// PrepareForOCR applies grayscale, denoise, adaptive threshold and contrast
// enhancement, in that order.
func (p *ocrPreprocessor) PrepareForOCR(img image.Image) *image.Gray {
	gray := p.mc.ToGray(img)
	if gray.Bounds().Empty() {
		return gray
	}

	denoised := p.mc.ToGray(imaging.Blur(gray, p.mc.opts.DenoiseSigma))
	binary := p.mc.adaptiveThreshold(denoised)
	return p.mc.ToGray(imaging.AdjustContrast(binary, p.mc.opts.ContrastPercent))
}

// PrepareTensor resizes to TensorSize x TensorSize with bilinear
// interpolation and returns ImageNet-normalized RGB values in CHW order.
func PrepareTensor(img image.Image) ([]float32, error) {
	if img == nil || img.Bounds().Empty() {
		return nil, ErrEmptyImage
	}

	resized := imaging.Resize(img, TensorSize, TensorSize, imaging.Linear)
	plane := TensorSize * TensorSize
	tensor := make([]float32, 3*plane)
	for y := 0; y < TensorSize; y++ {
		for x := 0; x < TensorSize; x++ {
			i := y*resized.Stride + x*4
			p := y*TensorSize + x
			for c := 0; c < 3; c++ {
				v := float32(resized.Pix[i+c]) / 255
				tensor[c*plane+p] = (v - imageNetMean[c]) / imageNetStd[c]
			}
		}
	}
	return tensor, nil
}
