package service

import (
	"context"
	"errors"
	"fmt"
	"image"
	"math"
	"time"

	"github.com/anime-shed/claim-evidence-inspector/internal/analyzer"
	"github.com/anime-shed/claim-evidence-inspector/internal/classifier"
	apperrors "github.com/anime-shed/claim-evidence-inspector/internal/errors"
	"github.com/anime-shed/claim-evidence-inspector/internal/extraction"
	"github.com/anime-shed/claim-evidence-inspector/internal/fraud"
	"github.com/anime-shed/claim-evidence-inspector/internal/logger"
	"github.com/anime-shed/claim-evidence-inspector/internal/metadata"
	"github.com/anime-shed/claim-evidence-inspector/internal/observer"
	"github.com/anime-shed/claim-evidence-inspector/internal/relevance"
	"github.com/anime-shed/claim-evidence-inspector/internal/repository"
	"github.com/anime-shed/claim-evidence-inspector/pkg/models"
	"github.com/anime-shed/claim-evidence-inspector/pkg/validation"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// EvidenceService defines the per-document pipeline and bundle analysis
type EvidenceService interface {
	// Full pipeline
	AnalyzeEvidence(ctx context.Context, data []byte, opts AnalysisOptions) (*models.EvidenceAssessment, error)
	AnalyzeEvidenceURL(ctx context.Context, req models.AnalyzeURLRequest) (*models.EvidenceAssessment, error)
	AnalyzeClaim(ctx context.Context, claimType string, files []EvidenceFile) (*models.ClaimAnalysis, error)

	// Single stages
	ValidateImage(data []byte) models.ImageQualityReport
	AnalyzeMetadata(data []byte) models.MetadataReport
	ClassifyDocument(ctx context.Context, data []byte, expected models.DocumentType) (*models.ClassificationResponse, error)
	ExtractFields(ctx context.Context, data []byte, opts AnalysisOptions) (*models.ExtractionResult, error)
	ScoreFraudRisk(ctx context.Context, data []byte) (models.FraudRiskResult, error)
	AnalyzeRelevance(claimType string, docs []models.BundleDocument) models.RelevanceConsistencyReport
}

// AnalysisOptions carries the caller's optional declarations for one file
type AnalysisOptions struct {
	Source string
	// DocumentType overrides the classifier's decision as the extraction hint
	DocumentType models.DocumentType
	// ExpectedText enables declared-text verification
	ExpectedText string
}

// EvidenceFile is one uploaded document of a claim bundle
type EvidenceFile struct {
	Name string
	Data []byte
}

// RejectedEvidenceError is returned by stages that need decodable pixels when
// the quality gate refused the file
type RejectedEvidenceError struct {
	Quality models.ImageQualityReport
}

func (e *RejectedEvidenceError) Error() string {
	return fmt.Sprintf("evidence rejected by quality gate: %s", e.Quality.ErrorReason)
}

// Dependencies are the collaborators of the evidence service
type Dependencies struct {
	Repository repository.EvidenceRepository
	Gate       *validation.QualityGate
	Tamper     *metadata.TamperAnalyzer
	Classifier *classifier.Classifier
	Extractor  *extraction.FieldExtractor
	Scorer     fraud.Scorer
	Relevance  *relevance.Analyzer
	Pool       *analyzer.WorkerPool
	Events     observer.Subject
}

type evidenceService struct {
	repo       repository.EvidenceRepository
	gate       *validation.QualityGate
	tamper     *metadata.TamperAnalyzer
	classifier *classifier.Classifier
	extractor  *extraction.FieldExtractor
	scorer     fraud.Scorer
	relevance  *relevance.Analyzer
	pool       *analyzer.WorkerPool
	events     observer.Subject
}

// NewEvidenceService creates the service. The pool must already be started;
// a nil pool analyzes claim documents sequentially.
func NewEvidenceService(deps Dependencies) EvidenceService {
	return &evidenceService{
		repo:       deps.Repository,
		gate:       deps.Gate,
		tamper:     deps.Tamper,
		classifier: deps.Classifier,
		extractor:  deps.Extractor,
		scorer:     deps.Scorer,
		relevance:  deps.Relevance,
		pool:       deps.Pool,
		events:     deps.Events,
	}
}

// AnalyzeEvidence runs gate, metadata, classification, extraction and fraud
// scoring for one file. Quality gate rejections are reported in the result.
func (s *evidenceService) AnalyzeEvidence(ctx context.Context, data []byte, opts AnalysisOptions) (*models.EvidenceAssessment, error) {
	start := time.Now()
	if len(data) == 0 {
		return nil, s.fail(ctx, opts.Source, start, apperrors.NewValidationError("evidence file is empty", nil))
	}
	if err := ctx.Err(); err != nil {
		return nil, s.fail(ctx, opts.Source, start, contextError(err))
	}

	log := logger.ForComponent("service").WithField("source", opts.Source)

	quality, img := s.gate.ValidateBytes(data)
	log.WithFields(logrus.Fields{
		"valid":         quality.Valid,
		"quality_score": quality.QualityScore,
	}).Debug("Quality gate finished")

	meta := s.tamper.AnalyzeImage(data)
	log.WithField("tamper_score", meta.TamperScore).Debug("Metadata analysis finished")

	assessment := &models.EvidenceAssessment{
		ID:                uuid.NewString(),
		Source:            opts.Source,
		Timestamp:         start.UTC(),
		Quality:           quality,
		Metadata:          meta,
		Synthetic:         metadata.DetectSyntheticIndicators(meta),
		AuthenticityScore: metadata.AuthenticityScore(meta),
	}

	if !quality.Valid {
		assessment.FraudRisk = fraud.ValidationFailureResult(quality.ErrorReason)
	} else {
		classification, extracted := s.readDocument(ctx, img, opts)
		assessment.Classification = &classification
		assessment.Extraction = &extracted
		log.WithFields(logrus.Fields{
			"document_type": classification.DocumentType,
			"confidence":    classification.Confidence,
			"ocr_success":   extracted.Success,
		}).Debug("Document read finished")

		risk, err := s.scorer.Score(ctx, fraud.Input{Image: img, Quality: quality, Metadata: meta})
		if err != nil {
			return nil, s.fail(ctx, opts.Source, start, apperrors.NewInternalError("fraud scoring failed", err))
		}
		assessment.FraudRisk = risk
	}

	if err := ctx.Err(); err != nil {
		return nil, s.fail(ctx, opts.Source, start, contextError(err))
	}

	assessment.FraudRisk.Status = fraud.ResolveStatus(assessment.FraudRisk)
	assessment.Status = assessment.FraudRisk.Status

	elapsed := time.Since(start)
	assessment.ProcessingTimeSec = seconds(elapsed)

	s.publish(ctx, observer.EvidenceEvent{
		EventType:      observer.EvidenceAnalyzed,
		Source:         opts.Source,
		ProcessingTime: elapsed,
		Success:        true,
		Metadata: map[string]interface{}{
			observer.MetaStatus: string(assessment.Status),
			observer.MetaMethod: string(assessment.FraudRisk.Method),
			"assessment_id":     assessment.ID,
		},
	})
	return assessment, nil
}

// readDocument runs OCR once and feeds the text to both the classifier and
// the field rules
func (s *evidenceService) readDocument(ctx context.Context, img image.Image, opts AnalysisOptions) (models.ClassificationResult, models.ExtractionResult) {
	text, ocrErr := s.extractor.Recognize(ctx, img)
	classification := s.classifier.Classify(img, text.Text)

	hint := opts.DocumentType
	if hint == "" {
		hint = classification.DocumentType
	}

	if ocrErr != nil {
		return classification, extraction.FailureResult(hint, ocrErr)
	}

	extracted := s.extractor.ExtractFromText(text.Text, hint)
	if opts.ExpectedText != "" {
		v := extraction.VerifyText(text.Text, opts.ExpectedText)
		extracted.Verification = &v
	}
	return classification, extracted
}

// AnalyzeEvidenceURL downloads the file through the repository first
func (s *evidenceService) AnalyzeEvidenceURL(ctx context.Context, req models.AnalyzeURLRequest) (*models.EvidenceAssessment, error) {
	opts := AnalysisOptions{Source: req.URL, ExpectedText: req.ExpectedText}
	if req.DocumentType != "" {
		t, ok := models.ParseDocumentType(req.DocumentType)
		if !ok {
			return nil, apperrors.NewValidationError(fmt.Sprintf("unknown document type %q", req.DocumentType), nil)
		}
		opts.DocumentType = t
	}

	data, err := s.fetch(ctx, req.URL)
	if err != nil {
		return nil, err
	}
	return s.AnalyzeEvidence(ctx, data, opts)
}

func (s *evidenceService) fetch(ctx context.Context, evidenceURL string) ([]byte, error) {
	if s.repo == nil {
		return nil, apperrors.NewInternalError("no evidence repository configured", nil)
	}

	start := time.Now()
	data, err := s.repo.Fetch(ctx, evidenceURL)
	if err != nil {
		appErr := fetchError(err)
		s.publish(ctx, observer.EvidenceEvent{
			EventType:      observer.EvidenceFetchFailed,
			Source:         evidenceURL,
			ProcessingTime: time.Since(start),
			ErrorMessage:   appErr.Error(),
		})
		return nil, appErr
	}

	s.publish(ctx, observer.EvidenceEvent{
		EventType:      observer.EvidenceFetched,
		Source:         evidenceURL,
		ProcessingTime: time.Since(start),
		Success:        true,
		Metadata:       map[string]interface{}{"bytes": len(data)},
	})
	return data, nil
}

func fetchError(err error) *apperrors.AppError {
	switch {
	case errors.Is(err, repository.ErrInvalidEvidenceURL):
		return apperrors.NewValidationError("invalid evidence URL", err)
	case errors.Is(err, repository.ErrEvidenceTooLarge):
		return apperrors.NewValidationError("evidence exceeds size limit", err)
	case errors.Is(err, repository.ErrEvidenceNotFound):
		return apperrors.NewNotFoundError("evidence not found", err)
	case errors.Is(err, context.DeadlineExceeded):
		return apperrors.NewTimeoutError("evidence fetch timeout", err)
	default:
		return apperrors.NewNetworkError("failed to fetch evidence", err)
	}
}

// AnalyzeClaim runs the per-document pipeline for every file on the worker
// pool and then cross-checks the bundle. Documents keep upload order.
func (s *evidenceService) AnalyzeClaim(ctx context.Context, claimType string, files []EvidenceFile) (*models.ClaimAnalysis, error) {
	start := time.Now()

	assessments := make([]*models.EvidenceAssessment, len(files))
	errs := make([]error, len(files))
	jobs := make([]func(), len(files))
	for i, f := range files {
		i, f := i, f
		jobs[i] = func() {
			assessments[i], errs[i] = s.AnalyzeEvidence(ctx, f.Data, AnalysisOptions{Source: f.Name})
		}
	}
	if s.pool != nil {
		s.pool.Run(jobs)
	} else {
		for _, job := range jobs {
			job()
		}
	}

	for i, err := range errs {
		if err != nil {
			return nil, fmt.Errorf("document %q: %w", files[i].Name, err)
		}
	}

	docs := make([]models.EvidenceAssessment, len(assessments))
	bundle := make([]models.BundleDocument, len(assessments))
	for i, a := range assessments {
		docs[i] = *a
		bundle[i] = a.BundleDocument()
	}

	report := s.relevance.Analyze(claimType, bundle)
	elapsed := time.Since(start)

	s.publish(ctx, observer.EvidenceEvent{
		EventType:      observer.ClaimAnalyzed,
		Source:         string(report.ClaimType),
		ProcessingTime: elapsed,
		Success:        true,
		Metadata: map[string]interface{}{
			"documents":         len(files),
			"relevance_score":   report.RelevanceScore,
			"consistency_score": report.ConsistencyScore,
		},
	})

	return &models.ClaimAnalysis{
		ID:                uuid.NewString(),
		ClaimType:         claimType,
		Timestamp:         start.UTC(),
		ProcessingTimeSec: seconds(elapsed),
		Documents:         docs,
		Relevance:         report,
	}, nil
}

func (s *evidenceService) ValidateImage(data []byte) models.ImageQualityReport {
	report, _ := s.gate.ValidateBytes(data)
	return report
}

func (s *evidenceService) AnalyzeMetadata(data []byte) models.MetadataReport {
	return s.tamper.AnalyzeImage(data)
}

func (s *evidenceService) ClassifyDocument(ctx context.Context, data []byte, expected models.DocumentType) (*models.ClassificationResponse, error) {
	img, err := s.admit(data)
	if err != nil {
		return nil, err
	}

	text, ocrErr := s.extractor.Recognize(ctx, img)
	if ocrErr != nil {
		logger.ForComponent("service").WithError(ocrErr).Debug("Classifying without OCR text")
	}

	resp := &models.ClassificationResponse{Classification: s.classifier.Classify(img, text.Text)}
	if expected != "" {
		match := classifier.VerifyDocumentMatch(resp.Classification, expected)
		resp.Match = &match
	}
	return resp, nil
}

func (s *evidenceService) ExtractFields(ctx context.Context, data []byte, opts AnalysisOptions) (*models.ExtractionResult, error) {
	img, err := s.admit(data)
	if err != nil {
		return nil, err
	}
	_, extracted := s.readDocument(ctx, img, opts)
	return &extracted, nil
}

// ScoreFraudRisk scores rejected images with the validation failure result
// instead of failing
func (s *evidenceService) ScoreFraudRisk(ctx context.Context, data []byte) (models.FraudRiskResult, error) {
	quality, img := s.gate.ValidateBytes(data)
	if !quality.Valid {
		return fraud.ValidationFailureResult(quality.ErrorReason), nil
	}

	risk, err := s.scorer.Score(ctx, fraud.Input{
		Image:    img,
		Quality:  quality,
		Metadata: s.tamper.AnalyzeImage(data),
	})
	if err != nil {
		return models.FraudRiskResult{}, apperrors.NewInternalError("fraud scoring failed", err)
	}
	risk.Status = fraud.ResolveStatus(risk)
	return risk, nil
}

func (s *evidenceService) AnalyzeRelevance(claimType string, docs []models.BundleDocument) models.RelevanceConsistencyReport {
	return s.relevance.Analyze(claimType, docs)
}

// admit returns the decoded image or a ValidationFailure wrapping the report
func (s *evidenceService) admit(data []byte) (image.Image, error) {
	if len(data) == 0 {
		return nil, apperrors.NewValidationError("evidence file is empty", nil)
	}
	quality, img := s.gate.ValidateBytes(data)
	if !quality.Valid {
		return nil, apperrors.NewValidationFailure("image validation failed", &RejectedEvidenceError{Quality: quality})
	}
	return img, nil
}

func (s *evidenceService) fail(ctx context.Context, source string, start time.Time, err *apperrors.AppError) error {
	s.publish(ctx, observer.EvidenceEvent{
		EventType:      observer.EvidenceFailed,
		Source:         source,
		ProcessingTime: time.Since(start),
		ErrorMessage:   err.Error(),
	})
	return err
}

func (s *evidenceService) publish(ctx context.Context, event observer.EvidenceEvent) {
	if s.events != nil {
		s.events.NotifyObservers(ctx, event)
	}
}

func contextError(err error) *apperrors.AppError {
	if errors.Is(err, context.DeadlineExceeded) {
		return apperrors.NewTimeoutError("analysis timeout", err)
	}
	return apperrors.NewProcessingError("analysis cancelled", err)
}

func seconds(d time.Duration) float64 {
	return math.Round(d.Seconds()*1000) / 1000
}
