package fraud

import (
	"context"
	"fmt"
	"image"
	"math"

	"github.com/anime-shed/claim-evidence-inspector/pkg/models"
)

const (
	suspiciousThreshold = 30.0
	fraudThreshold      = 70.0
)

// Input is what a scorer sees for one image
type Input struct {
	Image    image.Image
	Quality  models.ImageQualityReport
	Metadata models.MetadataReport
}

// Scorer produces a fraud risk result for one image
type Scorer interface {
	Score(ctx context.Context, in Input) (models.FraudRiskResult, error)
	Method() models.ScoringMethod
}

// ClassifyScore maps a final score to a status with the thresholds shared by
// every scoring path
func ClassifyScore(score float64) models.RiskStatus {
	switch {
	case score < suspiciousThreshold:
		return models.StatusGenuine
	case score < fraudThreshold:
		return models.StatusSuspicious
	default:
		return models.StatusFraud
	}
}

// ResolveStatus returns the status a caller reports for a result. Neural
// results keep the model's probability verdict; every other method is
// classified by score.
func ResolveStatus(r models.FraudRiskResult) models.RiskStatus {
	if r.Method == models.MethodNeural && r.ModelStatus != "" {
		return r.ModelStatus
	}
	return ClassifyScore(r.Score)
}

// ValidationFailureResult is returned for images the quality gate rejected
func ValidationFailureResult(reason string) models.FraudRiskResult {
	return models.FraudRiskResult{
		Score:      60,
		Confidence: 70,
		Status:     models.StatusSuspicious,
		Method:     models.MethodHeuristic,
		Remarks:    fmt.Sprintf("Image validation failed: %s", reason),
		Warnings:   []string{reason},
		Breakdown:  map[string]float64{},
	}
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
