package analyzer

import (
	"image"
	"math"
)

// EdgeMap runs Sobel gradients, thins them with non-maximum suppression and
// keeps weak edges only when they touch a strong one.
func (mc *metricsCalculator) EdgeMap(gray *image.Gray) *image.Gray {
	b := gray.Bounds()
	width, height := b.Dx(), b.Dy()
	edges := image.NewGray(image.Rect(0, 0, width, height))
	if width < 3 || height < 3 {
		return edges
	}

	magnitude := make([]float64, width*height)
	direction := make([]uint8, width*height)
	for y := 1; y < height-1; y++ {
		for x := 1; x < width-1; x++ {
			gx := mc.sobelX(gray, b.Min.X+x, b.Min.Y+y)
			gy := mc.sobelY(gray, b.Min.X+x, b.Min.Y+y)
			i := y*width + x
			magnitude[i] = math.Hypot(float64(gx), float64(gy))
			direction[i] = quantizeDirection(gx, gy)
		}
	}

	const (
		none   = 0
		weak   = 1
		strong = 2
	)
	class := make([]uint8, width*height)
	var stack []int
	for y := 1; y < height-1; y++ {
		for x := 1; x < width-1; x++ {
			i := y*width + x
			m := magnitude[i]
			if m <= mc.opts.EdgeLowThreshold || !isLocalMax(magnitude, direction[i], i, width) {
				continue
			}
			if m > mc.opts.EdgeHighThreshold {
				class[i] = strong
				stack = append(stack, i)
			} else {
				class[i] = weak
			}
		}
	}

	// Hysteresis: promote weak pixels 8-connected to strong ones
	for len(stack) > 0 {
		i := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		edges.Pix[(i/width)*edges.Stride+i%width] = 255
		x, y := i%width, i/width
		for dy := -1; dy <= 1; dy++ {
			for dx := -1; dx <= 1; dx++ {
				nx, ny := x+dx, y+dy
				if nx < 0 || ny < 0 || nx >= width || ny >= height {
					continue
				}
				j := ny*width + nx
				if class[j] == weak {
					class[j] = strong
					stack = append(stack, j)
				}
			}
		}
	}

	return edges
}

// DetectLines finds rows or columns holding an unbroken edge run of at
// least LineMinLength pixels, which is what a morphological opening with a
// 1-pixel-thick line kernel would keep.
func (mc *metricsCalculator) DetectLines(edges *image.Gray) LineStructure {
	b := edges.Bounds()
	minLen := mc.opts.LineMinLength
	var lines LineStructure

	for y := b.Min.Y; y < b.Max.Y && !lines.Horizontal; y++ {
		run := 0
		for x := b.Min.X; x < b.Max.X; x++ {
			if edges.GrayAt(x, y).Y > 0 {
				run++
				if run >= minLen {
					lines.Horizontal = true
					break
				}
			} else {
				run = 0
			}
		}
	}

	for x := b.Min.X; x < b.Max.X && !lines.Vertical; x++ {
		run := 0
		for y := b.Min.Y; y < b.Max.Y; y++ {
			if edges.GrayAt(x, y).Y > 0 {
				run++
				if run >= minLen {
					lines.Vertical = true
					break
				}
			} else {
				run = 0
			}
		}
	}

	return lines
}

func (mc *metricsCalculator) sobelX(gray *image.Gray, x, y int) int {
	return -1*int(gray.GrayAt(x-1, y-1).Y) + 1*int(gray.GrayAt(x+1, y-1).Y) +
		-2*int(gray.GrayAt(x-1, y).Y) + 2*int(gray.GrayAt(x+1, y).Y) +
		-1*int(gray.GrayAt(x-1, y+1).Y) + 1*int(gray.GrayAt(x+1, y+1).Y)
}

func (mc *metricsCalculator) sobelY(gray *image.Gray, x, y int) int {
	return -1*int(gray.GrayAt(x-1, y-1).Y) - 2*int(gray.GrayAt(x, y-1).Y) - 1*int(gray.GrayAt(x+1, y-1).Y) +
		1*int(gray.GrayAt(x-1, y+1).Y) + 2*int(gray.GrayAt(x, y+1).Y) + 1*int(gray.GrayAt(x+1, y+1).Y)
}

// quantizeDirection buckets the gradient angle into 0, 45, 90 or 135 degrees
func quantizeDirection(gx, gy int) uint8 {
	angle := math.Atan2(float64(gy), float64(gx)) * 180 / math.Pi
	if angle < 0 {
		angle += 180
	}
	switch {
	case angle < 22.5 || angle >= 157.5:
		return 0
	case angle < 67.5:
		return 1
	case angle < 112.5:
		return 2
	default:
		return 3
	}
}

func isLocalMax(magnitude []float64, dir uint8, i, width int) bool {
	var a, c int
	switch dir {
	case 0:
		a, c = i-1, i+1
	case 1:
		a, c = i-width-1, i+width+1
	case 2:
		a, c = i-width, i+width
	default:
		a, c = i-width+1, i+width-1
	}
	m := magnitude[i]
	return m >= magnitude[a] && m >= magnitude[c]
}
