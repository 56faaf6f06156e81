package analyzer

import (
	"image"

	"github.com/disintegration/imaging"
)

type region struct {
	minX, minY, maxX, maxY int
	pixels                 int
	touchesBorder          bool
}

func (r region) width() int  { return r.maxX - r.minX + 1 }
func (r region) height() int { return r.maxY - r.minY + 1 }

// CountFourSidedRegions inverts an adaptive threshold so ink becomes
// foreground, then counts foreground shapes and enclosed background cells
// that are close to axis-aligned rectangles. Table cells show up as
// enclosed cells of the grid.
func (mc *metricsCalculator) CountFourSidedRegions(gray *image.Gray) int {
	b := gray.Bounds()
	width, height := b.Dx(), b.Dy()
	if width == 0 || height == 0 {
		return 0
	}

	binary := mc.adaptiveThreshold(gray)
	ink := make([]bool, width*height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			ink[y*width+x] = binary.Pix[y*binary.Stride+x] == 0
		}
	}

	count := 0
	for _, r := range labelRegions(ink, width, height, true) {
		if mc.isRectangularShape(r, ink, width) {
			count++
		}
	}

	background := make([]bool, len(ink))
	for i, v := range ink {
		background[i] = !v
	}
	for _, r := range labelRegions(background, width, height, false) {
		if r.touchesBorder {
			continue
		}
		if mc.largeEnough(r) && mc.filled(r) {
			count++
		}
	}
	return count
}

// adaptiveThreshold marks pixels brighter than their Gaussian-weighted
// neighbourhood mean minus C as white (255) and the rest as black.
func (mc *metricsCalculator) adaptiveThreshold(gray *image.Gray) *image.Gray {
	b := gray.Bounds()
	width, height := b.Dx(), b.Dy()
	mean := imaging.Blur(gray, mc.opts.gaussianSigma())

	out := image.NewGray(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			src := float64(gray.GrayAt(b.Min.X+x, b.Min.Y+y).Y)
			local := float64(mean.Pix[y*mean.Stride+x*4])
			if src > local-mc.opts.AdaptiveC {
				out.Pix[y*out.Stride+x] = 255
			}
		}
	}
	return out
}

func (mc *metricsCalculator) largeEnough(r region) bool {
	return r.width() >= mc.opts.MinRegionSide &&
		r.height() >= mc.opts.MinRegionSide &&
		r.width()*r.height() >= mc.opts.MinRegionArea
}

func (mc *metricsCalculator) filled(r region) bool {
	return float64(r.pixels) >= mc.opts.Rectangularity*float64(r.width()*r.height())
}

// isRectangularShape accepts solid blocks and closed rectangular outlines
func (mc *metricsCalculator) isRectangularShape(r region, mask []bool, width int) bool {
	if !mc.largeEnough(r) {
		return false
	}
	if mc.filled(r) {
		return true
	}

	perimeter, covered := 0, 0
	check := func(x, y int) {
		perimeter++
		if mask[y*width+x] {
			covered++
		}
	}
	for x := r.minX; x <= r.maxX; x++ {
		check(x, r.minY)
		check(x, r.maxY)
	}
	for y := r.minY + 1; y < r.maxY; y++ {
		check(r.minX, y)
		check(r.maxX, y)
	}
	return float64(covered) >= mc.opts.Rectangularity*float64(perimeter)
}

// labelRegions finds connected components of true pixels
func labelRegions(mask []bool, width, height int, eightConnected bool) []region {
	visited := make([]bool, len(mask))
	var regions []region
	var stack []int

	for start := range mask {
		if !mask[start] || visited[start] {
			continue
		}
		r := region{minX: width, minY: height, maxX: -1, maxY: -1}
		visited[start] = true
		stack = append(stack[:0], start)

		for len(stack) > 0 {
			i := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			x, y := i%width, i/width

			r.pixels++
			r.minX, r.maxX = min(r.minX, x), max(r.maxX, x)
			r.minY, r.maxY = min(r.minY, y), max(r.maxY, y)
			if x == 0 || y == 0 || x == width-1 || y == height-1 {
				r.touchesBorder = true
			}

			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					if dx == 0 && dy == 0 {
						continue
					}
					if !eightConnected && dx != 0 && dy != 0 {
						continue
					}
					nx, ny := x+dx, y+dy
					if nx < 0 || ny < 0 || nx >= width || ny >= height {
						continue
					}
					j := ny*width + nx
					if mask[j] && !visited[j] {
						visited[j] = true
						stack = append(stack, j)
					}
				}
			}
		}
		regions = append(regions, r)
	}
	return regions
}
