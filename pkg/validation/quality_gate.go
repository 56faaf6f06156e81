package validation

import (
	"image"
	"math"

	"github.com/anime-shed/claim-evidence-inspector/internal/analyzer"
	"github.com/anime-shed/claim-evidence-inspector/pkg/models"
)

// Quality gate rejection reasons
const (
	ReasonFileTooLarge  = "File size exceeds limit"
	ReasonLowResolution = "Resolution too low"
	ReasonUnreadable    = "Unreadable image"
)

// QualityThresholds defines the admission limits of the quality gate
type QualityThresholds struct {
	MaxFileSizeBytes int64
	MinWidth         int
	MinHeight        int
}

// DefaultQualityThresholds returns the default admission limits
func DefaultQualityThresholds() QualityThresholds {
	return QualityThresholds{
		MaxFileSizeBytes: 10 * 1024 * 1024,
		MinWidth:         100,
		MinHeight:        100,
	}
}

// QualityGate admits evidence images and measures their sharpness
type QualityGate struct {
	thresholds QualityThresholds
	pixels     analyzer.PixelAnalyzer
}

// NewQualityGate creates a quality gate with default thresholds
func NewQualityGate(pixels analyzer.PixelAnalyzer) *QualityGate {
	return NewQualityGateWithThresholds(pixels, DefaultQualityThresholds())
}

// NewQualityGateWithThresholds creates a quality gate with custom thresholds
func NewQualityGateWithThresholds(pixels analyzer.PixelAnalyzer, thresholds QualityThresholds) *QualityGate {
	return &QualityGate{
		thresholds: thresholds,
		pixels:     pixels,
	}
}

// Thresholds returns the admission limits in use
func (g *QualityGate) Thresholds() QualityThresholds {
	return g.thresholds
}

// Validate checks an already decoded image. A nil image means decoding failed.
func (g *QualityGate) Validate(img image.Image, fileSizeBytes int64) models.ImageQualityReport {
	report := models.ImageQualityReport{FileSizeBytes: fileSizeBytes}

	if fileSizeBytes > g.thresholds.MaxFileSizeBytes {
		return reject(report, ReasonFileTooLarge)
	}
	if img == nil {
		return reject(report, ReasonUnreadable)
	}

	b := img.Bounds()
	report.Width, report.Height = b.Dx(), b.Dy()
	if report.Width < g.thresholds.MinWidth || report.Height < g.thresholds.MinHeight {
		return reject(report, ReasonLowResolution)
	}

	variance := g.pixels.LaplacianVariance(g.pixels.ToGray(img))
	report.Valid = true
	report.SharpnessVariance = round2(variance)
	report.QualityScore = QualityScore(variance)
	report.BlurScore = BlurScore(variance)
	return report
}

// ValidateBytes runs the gate on raw evidence bytes: size first, then the
// header dimensions, then a full decode. The decoded image is returned only
// when the report is valid.
func (g *QualityGate) ValidateBytes(data []byte) (models.ImageQualityReport, image.Image) {
	size := int64(len(data))
	report := models.ImageQualityReport{FileSizeBytes: size}

	if size > g.thresholds.MaxFileSizeBytes {
		return reject(report, ReasonFileTooLarge), nil
	}

	cfg, _, err := analyzer.DecodeConfig(data)
	if err != nil {
		return reject(report, ReasonUnreadable), nil
	}
	if cfg.Width < g.thresholds.MinWidth || cfg.Height < g.thresholds.MinHeight {
		report.Width, report.Height = cfg.Width, cfg.Height
		return reject(report, ReasonLowResolution), nil
	}

	img, _, err := analyzer.DecodeImage(data)
	if err != nil {
		report.Width, report.Height = cfg.Width, cfg.Height
		return reject(report, ReasonUnreadable), nil
	}

	report = g.Validate(img, size)
	if !report.Valid {
		return report, nil
	}
	return report, img
}

// QualityScore maps sharpness variance onto [0,100]
func QualityScore(variance float64) float64 {
	return round2(math.Min(100, math.Max(0, variance/10)))
}

// BlurScore is a step function of sharpness variance; higher means blurrier
func BlurScore(variance float64) float64 {
	switch {
	case variance > 100:
		return 0
	case variance > 50:
		return 30
	case variance > 20:
		return 60
	default:
		return 90
	}
}

func reject(report models.ImageQualityReport, reason string) models.ImageQualityReport {
	report.Valid = false
	report.ErrorReason = reason
	return report
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
