package factory

import (
	"fmt"
	"io"

	"github.com/anime-shed/claim-evidence-inspector/internal/analyzer"
	"github.com/anime-shed/claim-evidence-inspector/internal/classifier"
	"github.com/anime-shed/claim-evidence-inspector/internal/config"
	"github.com/anime-shed/claim-evidence-inspector/internal/extraction"
	"github.com/anime-shed/claim-evidence-inspector/internal/fraud"
	"github.com/anime-shed/claim-evidence-inspector/internal/metadata"
	"github.com/anime-shed/claim-evidence-inspector/internal/storage"
	"github.com/anime-shed/claim-evidence-inspector/pkg/validation"
)

// StorageType represents different evidence sources
type StorageType string

const (
	// HTTPStorage for plain HTTP(S) downloads
	HTTPStorage StorageType = "http"
	// AzureStorage for Azure blob storage
	AzureStorage StorageType = "azure"
)

// ScorerType represents the first fraud scoring path tried
type ScorerType string

const (
	// NeuralScorer uses the remote model and falls back to heuristics
	NeuralScorer ScorerType = "neural"
	// HeuristicScorer never contacts a model
	HeuristicScorer ScorerType = "heuristic"
)

// AnalyzerFactory creates the per-document pipeline stages
type AnalyzerFactory interface {
	CreateQualityGate() *validation.QualityGate
	CreateTamperAnalyzer() *metadata.TamperAnalyzer
	CreateClassifier() *classifier.Classifier
	CreateExtractor() *extraction.FieldExtractor
}

// StorageFactory creates evidence sources
type StorageFactory interface {
	CreateStorage(storageType StorageType) (storage.EvidenceFetcher, error)
}

// ScorerFactory creates the fraud risk scorer. The returned closer releases
// the inference connection, if any.
type ScorerFactory interface {
	ScorerType() ScorerType
	CreateScorer() (*fraud.RiskScorer, io.Closer, error)
}

// analyzerFactory implements AnalyzerFactory
type analyzerFactory struct {
	cfg    *config.Config
	pixels analyzer.PixelAnalyzer
	engine extraction.OCREngine
}

// NewAnalyzerFactory creates stages sharing one pixel analyzer. A nil engine
// selects tesseract with the configured language.
func NewAnalyzerFactory(cfg *config.Config, engine extraction.OCREngine) AnalyzerFactory {
	if engine == nil {
		engine = extraction.NewTesseractEngine(cfg.OCRLanguage)
	}
	return &analyzerFactory{
		cfg:    cfg,
		pixels: analyzer.NewPixelAnalyzerWithOptions(analyzer.DefaultOptions().WithMaxWorkers(cfg.WorkerCount)),
		engine: engine,
	}
}

func (f *analyzerFactory) CreateQualityGate() *validation.QualityGate {
	thresholds := validation.DefaultQualityThresholds()
	thresholds.MaxFileSizeBytes = f.cfg.MaxUploadSize
	return validation.NewQualityGateWithThresholds(f.pixels, thresholds)
}

func (f *analyzerFactory) CreateTamperAnalyzer() *metadata.TamperAnalyzer {
	return metadata.NewTamperAnalyzer(metadata.NewExifTagReader())
}

func (f *analyzerFactory) CreateClassifier() *classifier.Classifier {
	return classifier.NewClassifier(f.pixels)
}

func (f *analyzerFactory) CreateExtractor() *extraction.FieldExtractor {
	return extraction.NewFieldExtractor(f.engine, analyzer.NewOCRPreprocessor(analyzer.DefaultOptions()))
}

// storageFactory implements StorageFactory
type storageFactory struct {
	cfg *config.Config
}

// NewStorageFactory creates a new storage factory
func NewStorageFactory(cfg *config.Config) StorageFactory {
	return &storageFactory{cfg: cfg}
}

// CreateStorage creates a fetcher for the specified source
func (f *storageFactory) CreateStorage(storageType StorageType) (storage.EvidenceFetcher, error) {
	switch storageType {
	case HTTPStorage:
		return storage.NewHTTPFetcher(storage.HTTPFetcherOptions{
			Timeout:  f.cfg.ImageFetchTimeout,
			MaxBytes: f.cfg.MaxUploadSize,
		}), nil
	case AzureStorage:
		if !f.cfg.AzureEnabled() {
			return nil, fmt.Errorf("azure storage credentials not configured")
		}
		fetcher, err := storage.NewAzureFetcher(f.cfg.AzureStorageAccount, f.cfg.AzureStorageKey, f.cfg.MaxUploadSize)
		if err != nil {
			return nil, err
		}
		return fetcher, nil
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", storageType)
	}
}

// scorerFactory implements ScorerFactory
type scorerFactory struct {
	cfg *config.Config
}

// NewScorerFactory creates a new scorer factory
func NewScorerFactory(cfg *config.Config) ScorerFactory {
	return &scorerFactory{cfg: cfg}
}

func (f *scorerFactory) ScorerType() ScorerType {
	if f.cfg.NeuralEnabled() {
		return NeuralScorer
	}
	return HeuristicScorer
}

// CreateScorer builds the heuristic path and, when an inference address is
// configured, a lazily connected neural path in front of it
func (f *scorerFactory) CreateScorer() (*fraud.RiskScorer, io.Closer, error) {
	perturbation := fraud.NewPerturbation(f.cfg.PerturbationMode, f.cfg.PerturbationSeed)
	heuristic := fraud.NewHeuristicScorer(perturbation)

	switch f.ScorerType() {
	case HeuristicScorer:
		return fraud.NewRiskScorer(nil, heuristic), nopCloser{}, nil
	case NeuralScorer:
		backend := fraud.NewGRPCBackend(f.cfg.InferenceAddr, f.cfg.InferenceTimeout)
		return fraud.NewRiskScorer(fraud.NewNeuralScorer(backend), heuristic), backend, nil
	default:
		return nil, nil, fmt.Errorf("unsupported scorer type: %s", f.ScorerType())
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// ComponentFactory combines all factories
type ComponentFactory struct {
	AnalyzerFactory AnalyzerFactory
	StorageFactory  StorageFactory
	ScorerFactory   ScorerFactory
}

// NewComponentFactory creates a new component factory
func NewComponentFactory(cfg *config.Config, engine extraction.OCREngine) *ComponentFactory {
	return &ComponentFactory{
		AnalyzerFactory: NewAnalyzerFactory(cfg, engine),
		StorageFactory:  NewStorageFactory(cfg),
		ScorerFactory:   NewScorerFactory(cfg),
	}
}
