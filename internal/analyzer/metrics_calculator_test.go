package analyzer

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"math"
	"testing"
)

func createTestImage(width, height int, fillColor color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, fillColor)
		}
	}
	return img
}

func createCheckerboard(width, height, cell int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if ((x/cell)+(y/cell))%2 == 0 {
				img.Set(x, y, color.RGBA{255, 255, 255, 255})
			} else {
				img.Set(x, y, color.RGBA{0, 0, 0, 255})
			}
		}
	}
	return img
}

// createGrid draws a table of cells x cells with black rules of the given thickness
func createGrid(size, cells, thickness int) *image.RGBA {
	img := createTestImage(size, size, color.RGBA{255, 255, 255, 255})
	margin := 10
	step := (size - 2*margin) / cells
	black := color.RGBA{0, 0, 0, 255}
	for i := 0; i <= cells; i++ {
		pos := margin + i*step
		for t := 0; t < thickness; t++ {
			for k := margin; k <= margin+cells*step+thickness-1; k++ {
				img.Set(k, pos+t, black)
				img.Set(pos+t, k, black)
			}
		}
	}
	return img
}

func TestToGray(t *testing.T) {
	mc := NewPixelAnalyzer()
	img := createTestImage(20, 10, color.RGBA{128, 128, 128, 255})

	gray := mc.ToGray(img)
	if gray.Bounds().Dx() != 20 || gray.Bounds().Dy() != 10 {
		t.Fatalf("Expected 20x10 grayscale image, got %v", gray.Bounds())
	}
	if got := gray.GrayAt(5, 5).Y; got != 128 {
		t.Errorf("Expected gray value 128, got %d", got)
	}
}

func TestToGray_NonZeroOrigin(t *testing.T) {
	mc := NewPixelAnalyzer()
	src := createTestImage(40, 40, color.RGBA{200, 200, 200, 255})
	sub := src.SubImage(image.Rect(10, 10, 30, 30))

	gray := mc.ToGray(sub)
	if gray.Bounds().Min != (image.Point{}) {
		t.Errorf("Expected zero origin, got %v", gray.Bounds().Min)
	}
	if gray.Bounds().Dx() != 20 {
		t.Errorf("Expected width 20, got %d", gray.Bounds().Dx())
	}
}

func TestLaplacianVariance(t *testing.T) {
	mc := NewPixelAnalyzer()

	uniform := mc.ToGray(createTestImage(100, 100, color.RGBA{90, 90, 90, 255}))
	if v := mc.LaplacianVariance(uniform); v != 0 {
		t.Errorf("Expected zero variance for uniform image, got %f", v)
	}

	sharp := mc.ToGray(createCheckerboard(100, 100, 2))
	if v := mc.LaplacianVariance(sharp); v < 1000 {
		t.Errorf("Expected high variance for checkerboard, got %f", v)
	}

	tiny := mc.ToGray(createTestImage(2, 2, color.RGBA{0, 0, 0, 255}))
	if v := mc.LaplacianVariance(tiny); v != 0 {
		t.Errorf("Expected zero variance for 2x2 image, got %f", v)
	}
}

func TestChannelVariance(t *testing.T) {
	mc := NewPixelAnalyzer()

	t.Run("grayscale source is never document-like", func(t *testing.T) {
		gray := image.NewGray(image.Rect(0, 0, 50, 50))
		for i := range gray.Pix {
			gray.Pix[i] = uint8(i % 256)
		}
		stats := mc.ChannelVariance(gray)
		if stats.IsColor {
			t.Error("Expected grayscale image to report IsColor=false")
		}
		if stats.DocumentLike() {
			t.Error("Expected grayscale image not to be document-like")
		}
	})

	t.Run("neutral scan is document-like", func(t *testing.T) {
		img := createTestImage(60, 60, color.RGBA{250, 250, 250, 255})
		for y := 10; y < 50; y += 6 {
			for x := 5; x < 55; x++ {
				img.Set(x, y, color.RGBA{20, 20, 20, 255})
			}
		}
		stats := mc.ChannelVariance(img)
		if !stats.IsColor {
			t.Error("Expected RGBA image to report IsColor=true")
		}
		if !stats.DocumentLike() {
			t.Errorf("Expected neutral scan to be document-like, color=%f gray=%f", stats.ColorVariance, stats.GrayVariance)
		}
	})

	t.Run("saturated photo is not document-like", func(t *testing.T) {
		img := createTestImage(60, 60, color.RGBA{255, 0, 0, 255})
		for y := 0; y < 60; y++ {
			for x := 30; x < 60; x++ {
				img.Set(x, y, color.RGBA{0, 0, 255, 255})
			}
		}
		stats := mc.ChannelVariance(img)
		if stats.DocumentLike() {
			t.Errorf("Expected saturated image not to be document-like, color=%f gray=%f", stats.ColorVariance, stats.GrayVariance)
		}
	})
}

func TestEdgeMapAndLines(t *testing.T) {
	mc := NewPixelAnalyzer()

	img := createTestImage(200, 200, color.RGBA{255, 255, 255, 255})
	black := color.RGBA{0, 0, 0, 255}
	for x := 20; x < 180; x++ {
		img.Set(x, 100, black)
		img.Set(x, 101, black)
	}
	for y := 20; y < 180; y++ {
		img.Set(60, y, black)
		img.Set(61, y, black)
	}

	edges := mc.EdgeMap(mc.ToGray(img))
	density := mc.EdgeDensity(edges)
	if density <= 0 || density > 0.2 {
		t.Errorf("Expected small positive edge density, got %f", density)
	}

	lines := mc.DetectLines(edges)
	if !lines.Horizontal {
		t.Error("Expected horizontal line to be detected")
	}
	if !lines.Vertical {
		t.Error("Expected vertical line to be detected")
	}
}

func TestEdgeMap_Uniform(t *testing.T) {
	mc := NewPixelAnalyzer()
	edges := mc.EdgeMap(mc.ToGray(createTestImage(80, 80, color.RGBA{30, 60, 90, 255})))

	if d := mc.EdgeDensity(edges); d != 0 {
		t.Errorf("Expected zero edge density, got %f", d)
	}
	if lines := mc.DetectLines(edges); lines.Horizontal || lines.Vertical {
		t.Errorf("Expected no lines, got %+v", lines)
	}
}

func TestCountFourSidedRegions(t *testing.T) {
	mc := NewPixelAnalyzer()

	grid := mc.ToGray(createGrid(200, 4, 2))
	if n := mc.CountFourSidedRegions(grid); n <= 5 {
		t.Errorf("Expected more than 5 four-sided regions in a 4x4 table, got %d", n)
	}

	blank := mc.ToGray(createTestImage(200, 200, color.RGBA{255, 255, 255, 255}))
	if n := mc.CountFourSidedRegions(blank); n != 0 {
		t.Errorf("Expected no regions in a blank page, got %d", n)
	}
}

func TestDecodeImage(t *testing.T) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, createTestImage(30, 20, color.RGBA{1, 2, 3, 255})); err != nil {
		t.Fatalf("Failed to encode fixture: %v", err)
	}

	img, format, err := DecodeImage(buf.Bytes())
	if err != nil {
		t.Fatalf("Expected PNG to decode, got %v", err)
	}
	if format != "png" {
		t.Errorf("Expected format png, got %s", format)
	}
	if img.Bounds().Dx() != 30 {
		t.Errorf("Expected width 30, got %d", img.Bounds().Dx())
	}

	if _, _, err := DecodeImage([]byte("not an image")); err == nil {
		t.Error("Expected error for garbage bytes")
	}
}

func TestResizeForAnalysis(t *testing.T) {
	large := createTestImage(2048, 1024, color.RGBA{0, 0, 0, 255})
	resized := ResizeForAnalysis(large, 1024)
	if resized.Bounds().Dx() != 1024 || resized.Bounds().Dy() != 512 {
		t.Errorf("Expected 1024x512, got %v", resized.Bounds())
	}

	small := createTestImage(300, 200, color.RGBA{0, 0, 0, 255})
	if ResizeForAnalysis(small, 1024) != image.Image(small) {
		t.Error("Expected small image to be returned unchanged")
	}
}

func TestPrepareTensor(t *testing.T) {
	tensor, err := PrepareTensor(createTestImage(640, 480, color.RGBA{255, 255, 255, 255}))
	if err != nil {
		t.Fatalf("Expected tensor, got %v", err)
	}
	if len(tensor) != 3*TensorSize*TensorSize {
		t.Fatalf("Expected %d values, got %d", 3*TensorSize*TensorSize, len(tensor))
	}

	plane := TensorSize * TensorSize
	want := []float64{(1 - 0.485) / 0.229, (1 - 0.456) / 0.224, (1 - 0.406) / 0.225}
	for c := 0; c < 3; c++ {
		if got := float64(tensor[c*plane]); math.Abs(got-want[c]) > 1e-3 {
			t.Errorf("Channel %d: expected %f, got %f", c, want[c], got)
		}
	}

	if _, err := PrepareTensor(image.NewRGBA(image.Rect(0, 0, 0, 0))); err == nil {
		t.Error("Expected error for empty image")
	}
}

func TestPrepareForOCR(t *testing.T) {
	pre := NewOCRPreprocessor(DefaultOptions())
	out := pre.PrepareForOCR(createGrid(120, 3, 2))

	if out.Bounds().Dx() != 120 || out.Bounds().Dy() != 120 {
		t.Fatalf("Expected 120x120 output, got %v", out.Bounds())
	}
	for _, v := range out.Pix {
		if v != 0 && v != 255 {
			t.Fatalf("Expected a binary image after thresholding, found value %d", v)
		}
	}
}
