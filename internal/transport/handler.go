package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/anime-shed/claim-evidence-inspector/internal/config"
	apperrors "github.com/anime-shed/claim-evidence-inspector/internal/errors"
	"github.com/anime-shed/claim-evidence-inspector/internal/fraud"
	"github.com/anime-shed/claim-evidence-inspector/internal/logger"
	"github.com/anime-shed/claim-evidence-inspector/internal/service"
	"github.com/anime-shed/claim-evidence-inspector/pkg/models"
	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const version = "1.0.0"

// Multipart field names
const (
	fieldImage        = "image"
	fieldDocuments    = "documents"
	fieldClaimType    = "claim_type"
	fieldDocumentType = "document_type"
	fieldExpectedType = "expected_type"
	fieldExpectedText = "expected_text"
)

// MetricsSource exposes observer counters
type MetricsSource interface {
	GetMetrics() map[string]interface{}
}

// Handler serves the evidence API
type Handler struct {
	svc        service.EvidenceService
	metrics    MetricsSource
	components map[string]bool
	cfg        *config.Config
}

// NewHandler builds the gin engine. components is reported by /health.
func NewHandler(svc service.EvidenceService, metrics MetricsSource, components map[string]bool, cfg *config.Config) http.Handler {
	h := &Handler{
		svc:        svc,
		metrics:    metrics,
		components: components,
		cfg:        cfg,
	}

	r := gin.Default()
	r.Use(
		corsMiddleware(cfg.CORSAllowedOrigins),
		requestSizeLimiter(cfg.MaxRequestBodySize),
		errorHandler(),
	)
	h.Register(r)
	return r
}

// Register mounts public routes and the /api group, which requires a bearer
// token when a secret is configured
func (h *Handler) Register(r *gin.Engine) {
	r.GET("/health", h.healthCheck)
	r.GET("/metrics", h.getMetrics)

	api := r.Group("/api")
	if h.cfg.AuthEnabled() {
		api.Use(jwtAuth(h.cfg.JWTSecret))
	}
	{
		api.POST("/analyze", h.analyzeEvidence)
		api.POST("/analyze-url", h.analyzeEvidenceURL)
		api.POST("/validate", h.validateImage)
		api.POST("/metadata", h.analyzeMetadata)
		api.POST("/classify-evidence", h.classifyEvidence)
		api.POST("/extract-ocr", h.extractFields)
		api.POST("/score-fraud", h.scoreFraudRisk)
		api.POST("/analyze-relevance", h.analyzeRelevance)
		api.POST("/analyze-claim", h.analyzeClaim)
	}
}

func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, models.HealthResponse{
		Status:     "available",
		Version:    version,
		Time:       time.Now().UTC().Format(time.RFC3339),
		Components: h.components,
	})
}

func (h *Handler) getMetrics(c *gin.Context) {
	if h.metrics == nil {
		c.JSON(http.StatusOK, gin.H{})
		return
	}
	c.JSON(http.StatusOK, h.metrics.GetMetrics())
}

func (h *Handler) analyzeEvidence(c *gin.Context) {
	start := time.Now()
	name, data, ok := h.readImage(c, fieldImage)
	if !ok {
		return
	}
	opts, ok := h.analysisOptions(c, name)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.cfg.AnalysisTimeout)
	defer cancel()

	assessment, err := h.svc.AnalyzeEvidence(ctx, data, opts)
	if err != nil {
		respondError(c, apperrors.GetStatusCode(err), "evidence analysis failed", err)
		return
	}

	logCompletion(c, start, logrus.Fields{
		"source": name,
		"status": assessment.Status,
		"method": assessment.FraudRisk.Method,
	})
	c.JSON(http.StatusOK, assessment)
}

func (h *Handler) analyzeEvidenceURL(c *gin.Context) {
	start := time.Now()

	var req models.AnalyzeURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid request format", err)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.cfg.RequestTimeout)
	defer cancel()

	assessment, err := h.svc.AnalyzeEvidenceURL(ctx, req)
	if err != nil {
		respondError(c, apperrors.GetStatusCode(err), "evidence analysis failed", err)
		return
	}

	logCompletion(c, start, logrus.Fields{
		"url":    req.URL,
		"status": assessment.Status,
		"method": assessment.FraudRisk.Method,
	})
	c.JSON(http.StatusOK, assessment)
}

func (h *Handler) validateImage(c *gin.Context) {
	if _, data, ok := h.readImage(c, fieldImage); ok {
		c.JSON(http.StatusOK, h.svc.ValidateImage(data))
	}
}

func (h *Handler) analyzeMetadata(c *gin.Context) {
	if _, data, ok := h.readImage(c, fieldImage); ok {
		c.JSON(http.StatusOK, h.svc.AnalyzeMetadata(data))
	}
}

func (h *Handler) classifyEvidence(c *gin.Context) {
	_, data, ok := h.readImage(c, fieldImage)
	if !ok {
		return
	}

	var expected models.DocumentType
	if raw := c.PostForm(fieldExpectedType); raw != "" {
		t, known := models.ParseDocumentType(raw)
		if !known {
			respondError(c, http.StatusBadRequest, "invalid expected type",
				apperrors.NewValidationError(fmt.Sprintf("unknown document type %q", raw), nil))
			return
		}
		expected = t
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.cfg.AnalysisTimeout)
	defer cancel()

	resp, err := h.svc.ClassifyDocument(ctx, data, expected)
	if err != nil {
		h.respondStageError(c, "classification failed", err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) extractFields(c *gin.Context) {
	name, data, ok := h.readImage(c, fieldImage)
	if !ok {
		return
	}
	opts, ok := h.analysisOptions(c, name)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.cfg.AnalysisTimeout)
	defer cancel()

	result, err := h.svc.ExtractFields(ctx, data, opts)
	if err != nil {
		h.respondStageError(c, "field extraction failed", err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *Handler) scoreFraudRisk(c *gin.Context) {
	_, data, ok := h.readImage(c, fieldImage)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.cfg.AnalysisTimeout)
	defer cancel()

	result, err := h.svc.ScoreFraudRisk(ctx, data)
	if err != nil {
		respondError(c, apperrors.GetStatusCode(err), "fraud scoring failed", err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *Handler) analyzeRelevance(c *gin.Context) {
	var req models.RelevanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid request format", err)
		return
	}
	c.JSON(http.StatusOK, h.svc.AnalyzeRelevance(req.ClaimType, req.Documents))
}

func (h *Handler) analyzeClaim(c *gin.Context) {
	start := time.Now()

	claimType := strings.TrimSpace(c.PostForm(fieldClaimType))
	if claimType == "" {
		respondError(c, http.StatusBadRequest, "invalid request format",
			apperrors.NewValidationError("claim_type is required", nil))
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid multipart form", err)
		return
	}

	headers := form.File[fieldDocuments]
	files := make([]service.EvidenceFile, 0, len(headers))
	for _, fh := range headers {
		data, err := readFile(fh)
		if err != nil {
			respondError(c, http.StatusBadRequest, "failed to read upload", err)
			return
		}
		if err := requireImage(data); err != nil {
			respondError(c, http.StatusBadRequest, fmt.Sprintf("invalid document %q", fh.Filename), err)
			return
		}
		files = append(files, service.EvidenceFile{Name: fh.Filename, Data: data})
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.cfg.AnalysisTimeout)
	defer cancel()

	result, err := h.svc.AnalyzeClaim(ctx, claimType, files)
	if err != nil {
		respondError(c, apperrors.GetStatusCode(err), "claim analysis failed", err)
		return
	}

	logCompletion(c, start, logrus.Fields{
		"claim_type":        result.Relevance.ClaimType,
		"documents":         len(files),
		"relevance_score":   result.Relevance.RelevanceScore,
		"consistency_score": result.Relevance.ConsistencyScore,
	})
	c.JSON(http.StatusOK, result)
}

// readImage loads one multipart file and rejects non-image content
func (h *Handler) readImage(c *gin.Context, field string) (string, []byte, bool) {
	fh, err := c.FormFile(field)
	if err != nil {
		respondError(c, http.StatusBadRequest, fmt.Sprintf("missing multipart field %q", field), err)
		return "", nil, false
	}

	data, err := readFile(fh)
	if err != nil {
		respondError(c, http.StatusBadRequest, "failed to read upload", err)
		return "", nil, false
	}
	if err := requireImage(data); err != nil {
		respondError(c, http.StatusBadRequest, "invalid upload", err)
		return "", nil, false
	}
	return fh.Filename, data, true
}

func (h *Handler) analysisOptions(c *gin.Context, source string) (service.AnalysisOptions, bool) {
	opts := service.AnalysisOptions{
		Source:       source,
		ExpectedText: c.PostForm(fieldExpectedText),
	}
	if raw := c.PostForm(fieldDocumentType); raw != "" {
		t, ok := models.ParseDocumentType(raw)
		if !ok {
			respondError(c, http.StatusBadRequest, "invalid document type",
				apperrors.NewValidationError(fmt.Sprintf("unknown document type %q", raw), nil))
			return opts, false
		}
		opts.DocumentType = t
	}
	return opts, true
}

// respondStageError answers quality gate rejections with the report and the
// validation failure score instead of a bare error
func (h *Handler) respondStageError(c *gin.Context, message string, err error) {
	var rejected *service.RejectedEvidenceError
	if errors.As(err, &rejected) {
		logger.WithField("reason", rejected.Quality.ErrorReason).Info("Evidence rejected by quality gate")
		c.AbortWithStatusJSON(http.StatusUnprocessableEntity, models.ValidationFailureResponse{
			Quality:   rejected.Quality,
			FraudRisk: fraud.ValidationFailureResult(rejected.Quality.ErrorReason),
		})
		return
	}
	respondError(c, apperrors.GetStatusCode(err), message, err)
}

func readFile(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

func requireImage(data []byte) error {
	if len(data) == 0 {
		return apperrors.NewValidationError("empty upload", nil)
	}
	if mt := mimetype.Detect(data); !strings.HasPrefix(mt.String(), "image/") {
		return apperrors.NewValidationError(fmt.Sprintf("unsupported content type %s", mt.String()), nil)
	}
	return nil
}

func logCompletion(c *gin.Context, start time.Time, fields logrus.Fields) {
	fields["path"] = c.Request.URL.Path
	fields["ip"] = c.ClientIP()
	fields["processing_time_ms"] = time.Since(start).Milliseconds()
	logger.WithFields(fields).Info("Request completed successfully")
}
