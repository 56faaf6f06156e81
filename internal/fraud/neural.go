package fraud

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/anime-shed/claim-evidence-inspector/internal/analyzer"
	apperrors "github.com/anime-shed/claim-evidence-inspector/internal/errors"
	"github.com/anime-shed/claim-evidence-inspector/internal/metadata"
	"github.com/anime-shed/claim-evidence-inspector/pkg/models"
)

const (
	suspiciousWeight = 0.4
	boostCap         = 20.0
	boostTamperRate  = 0.2
	boostEditing     = 5.0
	maxBoostFlags    = 3

	probabilityTolerance = 1e-6
)

// InferenceBackend runs the fraud model on a normalized CHW tensor and
// returns (genuine, suspicious, fraud) probabilities
type InferenceBackend interface {
	Predict(ctx context.Context, tensor []float32) ([]float64, error)
}

// NeuralScorer scores images with the model and adds a metadata boost
type NeuralScorer struct {
	backend InferenceBackend
}

// NewNeuralScorer creates the neural path around a backend
func NewNeuralScorer(backend InferenceBackend) *NeuralScorer {
	return &NeuralScorer{backend: backend}
}

func (s *NeuralScorer) Method() models.ScoringMethod {
	return models.MethodNeural
}

// Score returns an InferenceFailure for anything that prevents a model
// prediction
func (s *NeuralScorer) Score(ctx context.Context, in Input) (models.FraudRiskResult, error) {
	if in.Image == nil {
		return models.FraudRiskResult{}, apperrors.NewInferenceFailure("no image for inference", nil)
	}

	tensor, err := analyzer.PrepareTensor(in.Image)
	if err != nil {
		return models.FraudRiskResult{}, apperrors.NewInferenceFailure("tensor preparation failed", err)
	}

	raw, err := s.backend.Predict(ctx, tensor)
	if err != nil {
		return models.FraudRiskResult{}, apperrors.NewInferenceFailure("model prediction failed", err)
	}

	probs, err := normalizeProbabilities(raw)
	if err != nil {
		return models.FraudRiskResult{}, apperrors.NewInferenceFailure("invalid model output", err)
	}

	return Combine(probs, in), nil
}

// Combine turns model probabilities and the reports into a result
func Combine(probs [3]float64, in Input) models.FraudRiskResult {
	pG, pS, pF := probs[0], probs[1], probs[2]

	dlScore := (pS*suspiciousWeight + pF) * 100
	confidence := math.Max(pG, math.Max(pS, pF)) * 100
	boost, flags := metadataBoost(in.Metadata)
	score := round2(math.Min(100, dlScore+boost))

	remarks := fmt.Sprintf("[neural] model probabilities genuine %.1f%%, suspicious %.1f%%, fraud %.1f%%", pG*100, pS*100, pF*100)
	if len(flags) > 0 {
		shown := flags
		if len(shown) > maxBoostFlags {
			shown = shown[:maxBoostFlags]
		}
		remarks += ". " + strings.Join(shown, "; ")
	}

	status := modelStatus(pS, pF)
	return models.FraudRiskResult{
		Score:       score,
		Confidence:  round2(confidence),
		Status:      status,
		ModelStatus: status,
		Method:      models.MethodNeural,
		Remarks:     remarks,
		Warnings:    flags,
		Breakdown: map[string]float64{
			"genuine_prob":    round4(pG),
			"suspicious_prob": round4(pS),
			"fraud_prob":      round4(pF),
			"dl_score":        round2(dlScore),
			"metadata_boost":  round2(boost),
			"quality_score":   in.Quality.QualityScore,
			"blur_score":      in.Quality.BlurScore,
		},
	}
}

func modelStatus(pS, pF float64) models.RiskStatus {
	switch {
	case pF > 0.6:
		return models.StatusFraud
	case pS > 0.6 || pS+pF > 0.7:
		return models.StatusSuspicious
	default:
		return models.StatusGenuine
	}
}

func metadataBoost(m models.MetadataReport) (float64, []string) {
	boost := m.TamperScore * boostTamperRate
	flags := []string{}
	for i, f := range m.Flags {
		if i == maxBoostFlags {
			break
		}
		flags = append(flags, f)
	}
	if metadata.HasEditingSignature(m.Software) {
		boost += boostEditing
		flags = append(flags, "Editing software detected")
	}
	return math.Min(boostCap, boost), flags
}

func normalizeProbabilities(raw []float64) ([3]float64, error) {
	var p [3]float64
	if len(raw) != 3 {
		return p, fmt.Errorf("expected 3 probabilities, got %d", len(raw))
	}
	sum := 0.0
	for i, v := range raw {
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return p, fmt.Errorf("probability %d is %v", i, v)
		}
		p[i] = v
		sum += v
	}
	if sum <= 0 {
		return p, fmt.Errorf("probabilities sum to %v", sum)
	}
	if math.Abs(sum-1) > probabilityTolerance {
		for i := range p {
			p[i] /= sum
		}
	}
	return p, nil
}
