package classifier

import (
	"fmt"
	"image"

	"github.com/anime-shed/claim-evidence-inspector/internal/analyzer"
	"github.com/anime-shed/claim-evidence-inspector/pkg/models"
)

const (
	analysisMaxDim     = 1024
	edgeDensityMin     = 0.05
	tableRegionMin     = 5
	textWordMin        = 10
	unknownScoreCutoff = 30
	unknownConfidence  = 20
)

// Classifier assigns an evidence category from pixels and OCR text
type Classifier struct {
	pixels analyzer.PixelAnalyzer
}

// NewClassifier creates a classifier using the given pixel primitives
func NewClassifier(pixels analyzer.PixelAnalyzer) *Classifier {
	return &Classifier{pixels: pixels}
}

// Classify extracts features and scores every category
func (c *Classifier) Classify(img image.Image, ocrText string) models.ClassificationResult {
	if img == nil || img.Bounds().Empty() {
		return models.ClassificationResult{
			DocumentType: models.Unknown,
			DisplayName:  models.Unknown.DisplayName(),
			Confidence:   0,
			Success:      false,
			Error:        "no decodable image supplied",
		}
	}
	return ClassifyFeatures(c.ExtractFeatures(img, ocrText))
}

// ExtractFeatures measures layout and text statistics. Large images are
// downscaled first; dimensions and color model come from the original.
func (c *Classifier) ExtractFeatures(img image.Image, ocrText string) models.ClassificationFeatures {
	b := img.Bounds()
	f := models.ClassificationFeatures{
		Width:   b.Dx(),
		Height:  b.Dy(),
		IsColor: analyzer.IsColor(img),
	}
	if f.Height > 0 {
		f.AspectRatio = float64(f.Width) / float64(f.Height)
	}

	work := analyzer.ResizeForAnalysis(img, analysisMaxDim)
	stats := c.pixels.ChannelVariance(work)
	stats.IsColor = f.IsColor
	f.IsDocumentLike = stats.DocumentLike()

	text := CountKeywords(ocrText)
	f.WordCount = text.WordCount
	f.HasText = text.WordCount > textWordMin
	f.MedicalKeywords = text.Medical
	f.VehicleKeywords = text.Vehicle
	f.PropertyKeywords = text.Property
	f.FinancialKeywords = text.Financial

	gray := c.pixels.ToGray(work)
	edges := c.pixels.EdgeMap(gray)
	lines := c.pixels.DetectLines(edges)
	f.EdgeDensity = c.pixels.EdgeDensity(edges)
	f.HasHorizontalLines = lines.Horizontal
	f.HasVerticalLines = lines.Vertical
	f.IsStructured = f.EdgeDensity > edgeDensityMin && lines.Horizontal && lines.Vertical

	f.FourSidedRegions = c.pixels.CountFourSidedRegions(gray)
	f.HasTables = f.FourSidedRegions > tableRegionMin

	return f
}

// ClassifyFeatures applies the additive category rules. Identical features
// always yield identical results; ties go to the earlier category in
// models.DocumentTypes.
func ClassifyFeatures(f models.ClassificationFeatures) models.ClassificationResult {
	scores := scoreCategories(f)

	best, bestScore := models.Unknown, 0
	for _, t := range models.DocumentTypes {
		if s, ok := scores[t]; ok && s > bestScore {
			best, bestScore = t, s
		}
	}

	result := models.ClassificationResult{
		Features:       f,
		CategoryScores: scores,
		Success:        true,
	}
	if bestScore < unknownScoreCutoff {
		result.DocumentType = models.Unknown
		result.Confidence = unknownConfidence
	} else {
		result.DocumentType = best
		result.Confidence = min(100, bestScore)
	}
	result.DisplayName = result.DocumentType.DisplayName()
	return result
}

func scoreCategories(f models.ClassificationFeatures) map[models.DocumentType]int {
	scores := make(map[models.DocumentType]int)
	add := func(t models.DocumentType, points int) {
		scores[t] += points
	}

	if f.MedicalKeywords > 2 && f.FinancialKeywords > 2 {
		add(models.HospitalBill, 60)
		if f.HasTables {
			add(models.HospitalBill, 20)
		}
	}

	if f.MedicalKeywords > 3 && f.WordCount > 50 {
		add(models.DischargeSummary, 50)
		if !f.HasTables {
			add(models.DischargeSummary, 10)
		}
	}

	if (!f.HasText || f.WordCount < 20) && f.IsColor && !f.IsDocumentLike {
		add(models.DamagePhoto, 70)
	}

	if f.VehicleKeywords > 2 {
		add(models.VehicleRC, 50)
		if f.IsStructured {
			add(models.VehicleRC, 30)
		}
	}

	if f.PropertyKeywords > 2 {
		add(models.PropertyDocument, 50)
		if f.IsStructured {
			add(models.PropertyDocument, 20)
		}
	}

	if f.FinancialKeywords > 2 && f.MedicalKeywords == 0 {
		add(models.RepairEstimate, 40)
		if f.HasTables {
			add(models.RepairEstimate, 20)
		}
	}

	if f.IsStructured && f.WordCount < 100 && f.AspectRatio > 1.4 && f.AspectRatio < 1.8 {
		add(models.IDDocument, 50)
	}

	return scores
}

// VerifyDocumentMatch compares a classification with a declared type
func VerifyDocumentMatch(result models.ClassificationResult, expected models.DocumentType) models.DocumentMatch {
	match := models.DocumentMatch{
		Matches:      result.DocumentType == expected,
		DetectedType: result.DocumentType,
		ExpectedType: expected,
		Confidence:   result.Confidence,
	}
	if match.Matches {
		match.Message = fmt.Sprintf("Document matches expected type: %s", expected.DisplayName())
	} else {
		match.Message = fmt.Sprintf("Expected %s but detected %s", expected.DisplayName(), result.DocumentType.DisplayName())
	}
	return match
}
