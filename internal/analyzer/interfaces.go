package analyzer

import "image"

// PixelAnalyzer computes the pixel-level measurements consumed by the
// quality gate and the document classifier.
type PixelAnalyzer interface {
	// ToGray converts any image into a zero-origin 8-bit grayscale copy
	ToGray(img image.Image) *image.Gray
	// LaplacianVariance is the sharpness measure; low values mean blur
	LaplacianVariance(gray *image.Gray) float64
	// ChannelVariance compares color-channel and grayscale spread
	ChannelVariance(img image.Image) ChannelStats
	// EdgeMap returns a binary (0/255) edge image
	EdgeMap(gray *image.Gray) *image.Gray
	// EdgeDensity is the fraction of edge pixels in an edge map
	EdgeDensity(edges *image.Gray) float64
	// DetectLines reports long horizontal and vertical edge runs
	DetectLines(edges *image.Gray) LineStructure
	// CountFourSidedRegions counts rectangular regions after adaptive thresholding
	CountFourSidedRegions(gray *image.Gray) int
}

// OCRPreprocessor prepares evidence for the OCR engine
type OCRPreprocessor interface {
	PrepareForOCR(img image.Image) *image.Gray
}

// ChannelStats holds variance measurements used to tell scans from photos
type ChannelStats struct {
	ColorVariance float64
	GrayVariance  float64
	IsColor       bool
}

// DocumentLike reports whether color spread is close to grayscale spread,
// which is typical for scanned paper. Grayscale sources are never document-like.
func (s ChannelStats) DocumentLike() bool {
	return s.IsColor && s.ColorVariance < s.GrayVariance*1.2
}

// LineStructure reports long straight edge runs
type LineStructure struct {
	Horizontal bool
	Vertical   bool
}
