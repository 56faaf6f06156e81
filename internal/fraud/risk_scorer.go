package fraud

import (
	"context"

	"github.com/anime-shed/claim-evidence-inspector/internal/logger"
	"github.com/anime-shed/claim-evidence-inspector/pkg/models"
)

// FallbackHook is told why the neural path was abandoned
type FallbackHook func(err error)

// RiskScorer selects the neural path when a backend was configured and
// recovers from its failures with the heuristic path
type RiskScorer struct {
	neural     Scorer
	heuristic  *HeuristicScorer
	onFallback FallbackHook
}

// NewRiskScorer creates a scorer. A nil neural scorer means heuristic only.
func NewRiskScorer(neural Scorer, heuristic *HeuristicScorer) *RiskScorer {
	if heuristic == nil {
		heuristic = NewHeuristicScorer(nil)
	}
	return &RiskScorer{neural: neural, heuristic: heuristic}
}

// OnFallback registers a hook called each time the neural path fails
func (r *RiskScorer) OnFallback(hook FallbackHook) {
	r.onFallback = hook
}

// NeuralEnabled reports whether a neural path is configured
func (r *RiskScorer) NeuralEnabled() bool {
	return r.neural != nil
}

// Method is the method tried first
func (r *RiskScorer) Method() models.ScoringMethod {
	if r.neural != nil {
		return r.neural.Method()
	}
	return models.MethodHeuristic
}

// Score never fails: neural errors are logged and answered by the heuristic
// path. Images that failed validation skip the model.
func (r *RiskScorer) Score(ctx context.Context, in Input) (models.FraudRiskResult, error) {
	if r.neural != nil && in.Quality.Valid && in.Image != nil {
		result, err := r.neural.Score(ctx, in)
		if err == nil {
			return result, nil
		}

		logger.ForComponent("fraud").WithError(err).Warn("Neural scoring failed, using heuristic path")
		if r.onFallback != nil {
			r.onFallback(err)
		}
	}
	return r.heuristic.Evaluate(in), nil
}
