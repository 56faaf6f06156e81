package fraud

import (
	"context"
	"fmt"
	"strings"

	"github.com/anime-shed/claim-evidence-inspector/internal/metadata"
	"github.com/anime-shed/claim-evidence-inspector/pkg/models"
)

const (
	lowQualityCutoff    = 20.0
	highBlurCutoff      = 70.0
	bytesPerPixelCutoff = 0.03
	tamperWeight        = 0.4

	heuristicBaseConfidence = 85.0
	maxRemarkFactors        = 3
)

// HeuristicScorer combines quality and metadata signals additively. It is
// always available and never fails.
type HeuristicScorer struct {
	perturbation Perturbation
}

// NewHeuristicScorer creates the heuristic path
func NewHeuristicScorer(p Perturbation) *HeuristicScorer {
	if p == nil {
		p = noPerturbation{}
	}
	return &HeuristicScorer{perturbation: p}
}

func (s *HeuristicScorer) Method() models.ScoringMethod {
	return models.MethodHeuristic
}

func (s *HeuristicScorer) Score(_ context.Context, in Input) (models.FraudRiskResult, error) {
	return s.Evaluate(in), nil
}

// Evaluate scores the reports without any I/O
func (s *HeuristicScorer) Evaluate(in Input) models.FraudRiskResult {
	q, m := in.Quality, in.Metadata
	score := 0.0
	warnings := []string{}

	if q.QualityScore < lowQualityCutoff {
		score += 15
		warnings = append(warnings, "Very low image quality")
	}
	if q.BlurScore > highBlurCutoff {
		score += 10
		warnings = append(warnings, "High blur level")
	}

	score += m.TamperScore * tamperWeight

	pixels := float64(q.Width) * float64(q.Height)
	if q.FileSizeBytes > 0 && float64(q.FileSizeBytes) < pixels*bytesPerPixelCutoff {
		score += 10
		warnings = append(warnings, "Unusual file size ratio")
	}

	if metadata.HasEditingSignature(m.Software) {
		score += 15
		warnings = append(warnings, "Image editing software detected")
	}

	offset := s.perturbation.Offset(in)
	score = round2(clamp(score+offset, 0, 100))

	confidence := heuristicBaseConfidence - 3*float64(len(m.Flags))
	if !m.Valid {
		confidence -= 15
	}
	if !q.Valid {
		confidence -= 20
	}
	confidence = clamp(confidence, 30, 100)

	status := ClassifyScore(score)
	return models.FraudRiskResult{
		Score:      score,
		Confidence: confidence,
		Status:     status,
		Method:     models.MethodHeuristic,
		Remarks:    heuristicRemarks(status, warnings),
		Warnings:   warnings,
		Breakdown: map[string]float64{
			"quality_factor":  q.QualityScore,
			"metadata_factor": m.TamperScore,
			"blur_factor":     q.BlurScore,
			"perturbation":    offset,
		},
	}
}

func heuristicRemarks(status models.RiskStatus, factors []string) string {
	var remark string
	switch status {
	case models.StatusGenuine:
		remark = "No significant fraud indicators."
	case models.StatusSuspicious:
		remark = "Suspicious image, recommend manual review."
	default:
		remark = "High fraud probability, recommend rejection."
	}
	if len(factors) > maxRemarkFactors {
		factors = factors[:maxRemarkFactors]
	}
	if len(factors) > 0 {
		remark += " " + strings.Join(factors, "; ")
	}
	return fmt.Sprintf("[heuristic] %s", remark)
}
