package models

// AnalyzeURLRequest asks the service to fetch and assess remote evidence
type AnalyzeURLRequest struct {
	URL          string `json:"url" binding:"required,url"`
	DocumentType string `json:"document_type,omitempty"`
	ExpectedText string `json:"expected_text,omitempty"`
}

// RelevanceRequest carries already-produced per-document results
type RelevanceRequest struct {
	ClaimType string           `json:"claim_type" binding:"required"`
	Documents []BundleDocument `json:"documents"`
}

// ValidationFailureResponse is returned when evidence fails the quality gate
// on endpoints that need decodable pixels.
type ValidationFailureResponse struct {
	Quality   ImageQualityReport `json:"quality"`
	FraudRisk FraudRiskResult    `json:"fraud_risk"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// HealthResponse reports component availability
type HealthResponse struct {
	Status     string          `json:"status"`
	Version    string          `json:"version"`
	Time       string          `json:"time"`
	Components map[string]bool `json:"components"`
}

// ClassificationResponse is returned by the classification endpoint. Match is
// set when the caller declared the type they expected.
type ClassificationResponse struct {
	Classification ClassificationResult `json:"classification"`
	Match          *DocumentMatch       `json:"match,omitempty"`
}
