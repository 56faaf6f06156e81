package analyzer

import (
	"image"
	"image/color"
	"image/draw"
	"runtime"
	"sync"

	"gonum.org/v1/gonum/stat"
)

// metricsCalculator implements PixelAnalyzer with Gonum statistics
type metricsCalculator struct {
	opts      PrimitiveOptions
	slicePool sync.Pool
}

// NewPixelAnalyzer creates a pixel analyzer with default options
func NewPixelAnalyzer() PixelAnalyzer {
	return NewPixelAnalyzerWithOptions(DefaultOptions())
}

// NewPixelAnalyzerWithOptions creates a pixel analyzer with custom options
func NewPixelAnalyzerWithOptions(opts PrimitiveOptions) PixelAnalyzer {
	return newMetricsCalculator(opts)
}

func newMetricsCalculator(opts PrimitiveOptions) *metricsCalculator {
	return &metricsCalculator{
		opts: opts,
		slicePool: sync.Pool{
			New: func() interface{} {
				return make([]float64, 0, 1024)
			},
		},
	}
}

// ToGray converts to luma with the BT.601 weights used by color.GrayModel
func (mc *metricsCalculator) ToGray(img image.Image) *image.Gray {
	b := img.Bounds()
	gray := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(gray, gray.Bounds(), img, b.Min, draw.Src)
	return gray
}

// LaplacianVariance computes the variance of the 4-neighbour Laplacian
func (mc *metricsCalculator) LaplacianVariance(gray *image.Gray) float64 {
	b := gray.Bounds()
	width, height := b.Dx(), b.Dy()
	if width < 3 || height < 3 {
		return 0
	}

	data := mc.slicePool.Get().([]float64)[:0]
	if cap(data) < (width-2)*(height-2) {
		data = make([]float64, 0, (width-2)*(height-2))
	}
	defer func() { mc.slicePool.Put(data[:0]) }()

	// Laplacian kernel: [0, 1, 0; 1, -4, 1; 0, 1, 0]
	for y := b.Min.Y + 1; y < b.Max.Y-1; y++ {
		for x := b.Min.X + 1; x < b.Max.X-1; x++ {
			center := float64(gray.GrayAt(x, y).Y)
			top := float64(gray.GrayAt(x, y-1).Y)
			bottom := float64(gray.GrayAt(x, y+1).Y)
			left := float64(gray.GrayAt(x-1, y).Y)
			right := float64(gray.GrayAt(x+1, y).Y)

			data = append(data, -4*center+top+bottom+left+right)
		}
	}

	return stat.Variance(data, nil)
}

// ChannelVariance compares the spread of all RGB samples with the spread of
// the grayscale rendition.
func (mc *metricsCalculator) ChannelVariance(img image.Image) ChannelStats {
	b := img.Bounds()
	n := b.Dx() * b.Dy()
	if n == 0 {
		return ChannelStats{}
	}

	grayValues := make([]float64, 0, n)
	isColor := isColorModel(img.ColorModel())
	var colorValues []float64
	if isColor {
		colorValues = make([]float64, 0, 3*n)
	}

	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := img.At(x, y)
			grayValues = append(grayValues, float64(color.GrayModel.Convert(c).(color.Gray).Y))
			if isColor {
				r, g, bl, _ := c.RGBA()
				colorValues = append(colorValues, float64(r>>8), float64(g>>8), float64(bl>>8))
			}
		}
	}

	stats := ChannelStats{
		GrayVariance: stat.Variance(grayValues, nil),
		IsColor:      isColor,
	}
	if isColor {
		stats.ColorVariance = stat.Variance(colorValues, nil)
	} else {
		stats.ColorVariance = stats.GrayVariance
	}
	return stats
}

// EdgeDensity counts non-zero pixels in parallel strips
func (mc *metricsCalculator) EdgeDensity(edges *image.Gray) float64 {
	b := edges.Bounds()
	width, height := b.Dx(), b.Dy()
	if width == 0 || height == 0 {
		return 0
	}

	numWorkers := mc.workers(height)
	rowsPerWorker := (height + numWorkers - 1) / numWorkers

	results := make(chan int, numWorkers)
	var wg sync.WaitGroup
	for i := 0; i < numWorkers; i++ {
		startY := b.Min.Y + i*rowsPerWorker
		endY := startY + rowsPerWorker
		if endY > b.Max.Y {
			endY = b.Max.Y
		}
		wg.Add(1)
		go func(startY, endY int) {
			defer wg.Done()
			count := 0
			for y := startY; y < endY; y++ {
				for x := b.Min.X; x < b.Max.X; x++ {
					if edges.GrayAt(x, y).Y > 0 {
						count++
					}
				}
			}
			results <- count
		}(startY, endY)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	total := 0
	for count := range results {
		total += count
	}
	return float64(total) / float64(width*height)
}

func (mc *metricsCalculator) workers(rows int) int {
	n := mc.opts.MaxWorkers
	if n <= 0 {
		n = runtime.NumCPU()
	}
	if rows < n {
		n = rows
	}
	if n <= 0 {
		n = 1
	}
	return n
}

func isColorModel(m color.Model) bool {
	return m != color.GrayModel && m != color.Gray16Model
}

// IsColor reports whether the image was decoded with a color model
func IsColor(img image.Image) bool {
	return img != nil && isColorModel(img.ColorModel())
}
