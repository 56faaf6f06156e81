package container

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/anime-shed/claim-evidence-inspector/internal/analyzer"
	"github.com/anime-shed/claim-evidence-inspector/internal/config"
	"github.com/anime-shed/claim-evidence-inspector/internal/extraction"
	"github.com/anime-shed/claim-evidence-inspector/internal/factory"
	"github.com/anime-shed/claim-evidence-inspector/internal/fraud"
	"github.com/anime-shed/claim-evidence-inspector/internal/logger"
	"github.com/anime-shed/claim-evidence-inspector/internal/observer"
	"github.com/anime-shed/claim-evidence-inspector/internal/relevance"
	"github.com/anime-shed/claim-evidence-inspector/internal/repository"
	"github.com/anime-shed/claim-evidence-inspector/internal/service"
	"github.com/anime-shed/claim-evidence-inspector/internal/storage"
	"github.com/anime-shed/claim-evidence-inspector/internal/transport"
	"github.com/anime-shed/claim-evidence-inspector/pkg/models"
	"github.com/anime-shed/claim-evidence-inspector/pkg/validation"
)

// Container holds all application dependencies
type Container struct {
	config          *config.Config
	pool            *analyzer.WorkerPool
	events          *observer.EventPublisher
	metrics         *observer.MetricsObserver
	repository      repository.EvidenceRepository
	scorer          *fraud.RiskScorer
	scorerCloser    io.Closer
	evidenceService service.EvidenceService
	handler         http.Handler
}

// NewContainer builds the dependency graph with the tesseract OCR engine
func NewContainer(cfg *config.Config) (*Container, error) {
	return NewContainerWithEngine(cfg, nil)
}

// NewContainerWithEngine builds the dependency graph around a custom OCR
// engine. A nil engine selects tesseract.
func NewContainerWithEngine(cfg *config.Config, engine extraction.OCREngine) (*Container, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	logger.SetLevel(cfg.LogLevel)

	components := factory.NewComponentFactory(cfg, engine)

	httpFetcher, err := components.StorageFactory.CreateStorage(factory.HTTPStorage)
	if err != nil {
		return nil, err
	}
	var azureFetcher storage.EvidenceFetcher
	if cfg.AzureEnabled() {
		if azureFetcher, err = components.StorageFactory.CreateStorage(factory.AzureStorage); err != nil {
			return nil, err
		}
	}
	evidenceRepository := repository.NewEvidenceRepository(validation.NewURLValidator(), httpFetcher, azureFetcher)

	events := observer.NewEventPublisher()
	metrics := observer.NewMetricsObserver()
	events.Subscribe(observer.NewLoggingObserver(logger.Logger))
	events.Subscribe(metrics)

	scorer, scorerCloser, err := components.ScorerFactory.CreateScorer()
	if err != nil {
		return nil, err
	}
	scorer.OnFallback(func(err error) {
		events.NotifyObservers(context.Background(), observer.EvidenceEvent{
			EventType:    observer.NeuralFallback,
			Source:       cfg.InferenceAddr,
			ErrorMessage: err.Error(),
			Metadata:     map[string]interface{}{observer.MetaMethod: string(models.MethodHeuristic)},
		})
	})

	pool := analyzer.NewWorkerPool(cfg.WorkerCount)
	pool.Start()

	af := components.AnalyzerFactory
	evidenceService := service.NewEvidenceService(service.Dependencies{
		Repository: evidenceRepository,
		Gate:       af.CreateQualityGate(),
		Tamper:     af.CreateTamperAnalyzer(),
		Classifier: af.CreateClassifier(),
		Extractor:  af.CreateExtractor(),
		Scorer:     scorer,
		Relevance:  relevance.NewAnalyzer(),
		Pool:       pool,
		Events:     events,
	})

	health := map[string]bool{
		"neural_backend": scorer.NeuralEnabled(),
		"ocr_engine":     true,
		"http_storage":   true,
		"azure_storage":  azureFetcher != nil,
	}
	handler := transport.NewHandler(evidenceService, metrics, health, cfg)

	return &Container{
		config:          cfg,
		pool:            pool,
		events:          events,
		metrics:         metrics,
		repository:      evidenceRepository,
		scorer:          scorer,
		scorerCloser:    scorerCloser,
		evidenceService: evidenceService,
		handler:         handler,
	}, nil
}

// Handler returns the HTTP handler
func (c *Container) Handler() http.Handler {
	return c.handler
}

// Service returns the evidence service
func (c *Container) Service() service.EvidenceService {
	return c.evidenceService
}

// Metrics returns the pipeline counters
func (c *Container) Metrics() *observer.MetricsObserver {
	return c.metrics
}

// Config returns the configuration
func (c *Container) Config() *config.Config {
	return c.config
}

// Close stops the worker pool, drains pending events and releases the
// inference connection
func (c *Container) Close() error {
	c.pool.Close()
	c.events.Wait()
	return c.scorerCloser.Close()
}
