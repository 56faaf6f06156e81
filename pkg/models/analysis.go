package models

import (
	"strings"
	"time"
)

// DocumentType is the evidence category assigned by the classifier
type DocumentType string

const (
	HospitalBill     DocumentType = "HOSPITAL_BILL"
	DamagePhoto      DocumentType = "DAMAGE_PHOTO"
	IDDocument       DocumentType = "ID_DOCUMENT"
	VehicleRC        DocumentType = "VEHICLE_RC"
	PropertyDocument DocumentType = "PROPERTY_DOCUMENT"
	DischargeSummary DocumentType = "DISCHARGE_SUMMARY"
	RepairEstimate   DocumentType = "REPAIR_ESTIMATE"
	PoliceReport     DocumentType = "POLICE_REPORT"
	Unknown          DocumentType = "UNKNOWN"
)

// DocumentTypes lists every category in declaration order. Classification
// ties resolve to the earliest entry.
var DocumentTypes = []DocumentType{
	HospitalBill,
	DamagePhoto,
	IDDocument,
	VehicleRC,
	PropertyDocument,
	DischargeSummary,
	RepairEstimate,
	PoliceReport,
	Unknown,
}

var documentDisplayNames = map[DocumentType]string{
	HospitalBill:     "Hospital Bill",
	DamagePhoto:      "Damage Photo",
	IDDocument:       "ID Document",
	VehicleRC:        "Vehicle Registration",
	PropertyDocument: "Property Document",
	DischargeSummary: "Discharge Summary",
	RepairEstimate:   "Repair Estimate",
	PoliceReport:     "Police Report",
	Unknown:          "Unknown Document",
}

// DisplayName returns the human readable category name
func (d DocumentType) DisplayName() string {
	if name, ok := documentDisplayNames[d]; ok {
		return name
	}
	return documentDisplayNames[Unknown]
}

// ParseDocumentType maps a case-insensitive name onto a known category
func ParseDocumentType(s string) (DocumentType, bool) {
	for _, t := range DocumentTypes {
		if strings.EqualFold(string(t), strings.TrimSpace(s)) {
			return t, true
		}
	}
	return Unknown, false
}

// ClaimType is the normalized insurance line a claim was filed under
type ClaimType string

const (
	ClaimAuto   ClaimType = "AUTO"
	ClaimHealth ClaimType = "HEALTH"
	ClaimHome   ClaimType = "HOME"
	ClaimLife   ClaimType = "LIFE"
	ClaimTravel ClaimType = "TRAVEL"
)

// RiskStatus is the fraud verdict derived from a score
type RiskStatus string

const (
	StatusGenuine    RiskStatus = "GENUINE"
	StatusSuspicious RiskStatus = "SUSPICIOUS"
	StatusFraud      RiskStatus = "FRAUD"
)

// ScoringMethod records which scorer produced a FraudRiskResult
type ScoringMethod string

const (
	MethodNeural    ScoringMethod = "NEURAL"
	MethodHeuristic ScoringMethod = "HEURISTIC"
)

// ImageQualityReport is the output of the quality gate
type ImageQualityReport struct {
	Valid             bool    `json:"valid"`
	Width             int     `json:"width"`
	Height            int     `json:"height"`
	FileSizeBytes     int64   `json:"file_size_bytes"`
	SharpnessVariance float64 `json:"sharpness_variance"`
	QualityScore      float64 `json:"quality_score"`
	BlurScore         float64 `json:"blur_score"`
	ErrorReason       string  `json:"error_reason,omitempty"`
}

// MetadataReport summarizes descriptive tags and their tamper indicators
type MetadataReport struct {
	Valid                   bool              `json:"valid"`
	Tags                    map[string]string `json:"tags"`
	TamperScore             float64           `json:"tamper_score"`
	Flags                   []string          `json:"flags"`
	CameraMake              string            `json:"camera_make,omitempty"`
	CameraModel             string            `json:"camera_model,omitempty"`
	Software                string            `json:"software,omitempty"`
	Timestamp               string            `json:"timestamp,omitempty"`
	FileType                string            `json:"file_type,omitempty"`
	EditingSoftwareDetected bool              `json:"editing_software_detected"`
}

// SyntheticReport scores indicators of AI-generated imagery
type SyntheticReport struct {
	Score           float64  `json:"score"`
	Indicators      []string `json:"indicators"`
	LikelySynthetic bool     `json:"likely_synthetic"`
}

// ClassificationFeatures holds the visual and textual evidence used for classification
type ClassificationFeatures struct {
	Width              int     `json:"width"`
	Height             int     `json:"height"`
	AspectRatio        float64 `json:"aspect_ratio"`
	IsColor            bool    `json:"is_color"`
	IsDocumentLike     bool    `json:"is_document_like"`
	WordCount          int     `json:"word_count"`
	HasText            bool    `json:"has_text"`
	MedicalKeywords    int     `json:"medical_keywords"`
	VehicleKeywords    int     `json:"vehicle_keywords"`
	PropertyKeywords   int     `json:"property_keywords"`
	FinancialKeywords  int     `json:"financial_keywords"`
	EdgeDensity        float64 `json:"edge_density"`
	HasHorizontalLines bool    `json:"has_horizontal_lines"`
	HasVerticalLines   bool    `json:"has_vertical_lines"`
	IsStructured       bool    `json:"is_structured"`
	FourSidedRegions   int     `json:"four_sided_regions"`
	HasTables          bool    `json:"has_tables"`
}

// ClassificationResult is the category decision for one piece of evidence
type ClassificationResult struct {
	DocumentType   DocumentType           `json:"document_type"`
	DisplayName    string                 `json:"display_name"`
	Confidence     int                    `json:"confidence"`
	Features       ClassificationFeatures `json:"features"`
	CategoryScores map[DocumentType]int   `json:"category_scores,omitempty"`
	Success        bool                   `json:"success"`
	Error          string                 `json:"error,omitempty"`
}

// DocumentMatch compares a classification with the type the caller declared
type DocumentMatch struct {
	Matches      bool         `json:"matches"`
	DetectedType DocumentType `json:"detected_type"`
	ExpectedType DocumentType `json:"expected_type"`
	Confidence   int          `json:"confidence"`
	Message      string       `json:"message"`
}

// ExtractedFields are the structured values read from OCR text
type ExtractedFields struct {
	Dates         []string `json:"dates,omitempty"`
	PrimaryDate   string   `json:"primary_date,omitempty"`
	Amounts       []string `json:"amounts,omitempty"`
	TotalAmount   string   `json:"total_amount,omitempty"`
	InvoiceNumber string   `json:"invoice_number,omitempty"`
	ProviderName  string   `json:"provider_name,omitempty"`
	PatientName   string   `json:"patient_name,omitempty"`

	// Hospital bill specific
	Diagnosis     string `json:"diagnosis,omitempty"`
	AdmissionDate string `json:"admission_date,omitempty"`
	DischargeDate string `json:"discharge_date,omitempty"`

	// Vehicle registration specific
	RegistrationNumber string `json:"registration_number,omitempty"`
	EngineNumber       string `json:"engine_number,omitempty"`
	ChassisNumber      string `json:"chassis_number,omitempty"`
}

// TextVerification compares OCR output with text the caller expected
type TextVerification struct {
	ExpectedText string  `json:"expected_text"`
	WordErrors   int     `json:"word_errors"`
	WER          float64 `json:"wer"`
	CER          float64 `json:"cer"`
	MatchScore   float64 `json:"match_score"`
}

// ExtractionResult is the output of field extraction and validation
type ExtractionResult struct {
	DocumentType  DocumentType      `json:"document_type,omitempty"`
	Fields        ExtractedFields   `json:"fields"`
	MissingFields []string          `json:"missing_fields"`
	Warnings      []string          `json:"warnings"`
	Confidence    int               `json:"confidence"`
	RawText       string            `json:"raw_text,omitempty"`
	Verification  *TextVerification `json:"verification,omitempty"`
	Success       bool              `json:"success"`
	Error         string            `json:"error,omitempty"`
}

// FraudRiskResult is the scored fraud verdict for one piece of evidence
type FraudRiskResult struct {
	Score       float64            `json:"score"`
	Confidence  float64            `json:"confidence"`
	Status      RiskStatus         `json:"status"`
	ModelStatus RiskStatus         `json:"model_status,omitempty"`
	Method      ScoringMethod      `json:"method"`
	Remarks     string             `json:"remarks"`
	Warnings    []string           `json:"warnings"`
	Breakdown   map[string]float64 `json:"breakdown"`
}

// BundleDocument pairs the per-document results consumed by bundle analysis
type BundleDocument struct {
	Classification ClassificationResult `json:"classification"`
	Extraction     ExtractionResult     `json:"extraction"`
}

// RelevanceConsistencyReport cross-checks an evidence bundle against its claim
type RelevanceConsistencyReport struct {
	ClaimType        ClaimType      `json:"claim_type"`
	DocumentCount    int            `json:"document_count"`
	RelevanceScore   int            `json:"relevance_score"`
	ConsistencyScore int            `json:"consistency_score"`
	Consistent       bool           `json:"consistent"`
	CriticalMismatch bool           `json:"critical_mismatch"`
	ExpectedTypes    []DocumentType `json:"expected_types"`
	UploadedTypes    []DocumentType `json:"uploaded_types"`
	MatchedTypes     []DocumentType `json:"matched_types"`
	MismatchedTypes  []DocumentType `json:"mismatched_types"`
	Warnings         []string       `json:"warnings"`
	Recommendations  []string       `json:"recommendations"`
}

// EvidenceAssessment is the full per-document pipeline output
type EvidenceAssessment struct {
	ID                string                `json:"id"`
	Source            string                `json:"source,omitempty"`
	Timestamp         time.Time             `json:"timestamp"`
	ProcessingTimeSec float64               `json:"processing_time_sec"`
	Status            RiskStatus            `json:"status"`
	Quality           ImageQualityReport    `json:"quality"`
	Metadata          MetadataReport        `json:"metadata"`
	Synthetic         SyntheticReport       `json:"synthetic"`
	AuthenticityScore float64               `json:"authenticity_score"`
	Classification    *ClassificationResult `json:"classification,omitempty"`
	Extraction        *ExtractionResult     `json:"extraction,omitempty"`
	FraudRisk         FraudRiskResult       `json:"fraud_risk"`
}

// BundleDocument returns the classification and extraction pair for bundle
// analysis. Evidence that never reached those stages counts as UNKNOWN.
func (a EvidenceAssessment) BundleDocument() BundleDocument {
	doc := BundleDocument{
		Classification: ClassificationResult{DocumentType: Unknown, DisplayName: Unknown.DisplayName()},
	}
	if a.Classification != nil {
		doc.Classification = *a.Classification
	}
	if a.Extraction != nil {
		doc.Extraction = *a.Extraction
	}
	return doc
}

// ClaimAnalysis is the output of analyzing every document of one claim
type ClaimAnalysis struct {
	ID                string                     `json:"id"`
	ClaimType         string                     `json:"claim_type"`
	Timestamp         time.Time                  `json:"timestamp"`
	ProcessingTimeSec float64                    `json:"processing_time_sec"`
	Documents         []EvidenceAssessment       `json:"documents"`
	Relevance         RelevanceConsistencyReport `json:"relevance"`
}
