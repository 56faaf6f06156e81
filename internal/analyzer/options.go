package analyzer

// PrimitiveOptions tunes the pixel primitives
type PrimitiveOptions struct {
	// Hysteresis thresholds on Sobel gradient magnitude
	EdgeLowThreshold  float64
	EdgeHighThreshold float64

	// Minimum run of edge pixels that counts as a line
	LineMinLength int

	// Adaptive threshold block size (odd) and constant
	AdaptiveBlockSize int
	AdaptiveC         float64

	// Region filtering for four-sided counting
	MinRegionArea  int
	MinRegionSide  int
	Rectangularity float64

	// OCR preprocessing
	DenoiseSigma    float64
	ContrastPercent float64

	// Parallel strips for per-pixel passes; 0 means NumCPU
	MaxWorkers int
}

// DefaultOptions returns default primitive options
func DefaultOptions() PrimitiveOptions {
	return PrimitiveOptions{
		EdgeLowThreshold:  50,
		EdgeHighThreshold: 150,
		LineMinLength:     40,
		AdaptiveBlockSize: 11,
		AdaptiveC:         2,
		MinRegionArea:     64,
		MinRegionSide:     4,
		Rectangularity:    0.9,
		DenoiseSigma:      0.8,
		ContrastPercent:   20,
		MaxWorkers:        0,
	}
}

// WithEdgeThresholds overrides the hysteresis thresholds
func (opts PrimitiveOptions) WithEdgeThresholds(low, high float64) PrimitiveOptions {
	opts.EdgeLowThreshold = low
	opts.EdgeHighThreshold = high
	return opts
}

// WithLineMinLength overrides the minimum line run
func (opts PrimitiveOptions) WithLineMinLength(n int) PrimitiveOptions {
	opts.LineMinLength = n
	return opts
}

// WithAdaptiveThreshold overrides the adaptive threshold block and constant
func (opts PrimitiveOptions) WithAdaptiveThreshold(blockSize int, c float64) PrimitiveOptions {
	if blockSize%2 == 0 {
		blockSize++
	}
	opts.AdaptiveBlockSize = blockSize
	opts.AdaptiveC = c
	return opts
}

// WithMaxWorkers bounds the goroutines used by per-pixel passes
func (opts PrimitiveOptions) WithMaxWorkers(n int) PrimitiveOptions {
	opts.MaxWorkers = n
	return opts
}

// gaussianSigma mirrors the sigma OpenCV derives from a block size
func (opts PrimitiveOptions) gaussianSigma() float64 {
	return 0.3*((float64(opts.AdaptiveBlockSize)-1)*0.5-1) + 0.8
}
