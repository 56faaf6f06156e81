package relevance

import (
	"fmt"
	"math"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/anime-shed/claim-evidence-inspector/internal/extraction"
	"github.com/anime-shed/claim-evidence-inspector/pkg/models"
	"github.com/shopspring/decimal"
)

const (
	unknownPoints     = 50.0
	mismatchPoints    = 20.0
	criticalCap       = 40.0
	recommendBelow    = 70
	consistentAtLeast = 70

	maxDateSpanDays = 60
	datePenalty     = 20
	amountPenalty   = 15
	providerPenalty = 10
)

var amountRatio = decimal.NewFromInt(10)

var expectedTypes = map[models.ClaimType][]models.DocumentType{
	models.ClaimAuto:   {models.DamagePhoto, models.VehicleRC, models.RepairEstimate, models.PoliceReport},
	models.ClaimHealth: {models.HospitalBill, models.DischargeSummary, models.IDDocument},
	models.ClaimHome:   {models.DamagePhoto, models.PropertyDocument, models.RepairEstimate, models.PoliceReport},
	models.ClaimLife:   {models.IDDocument, models.HospitalBill, models.DischargeSummary},
	models.ClaimTravel: {models.IDDocument, models.HospitalBill, models.DamagePhoto},
}

// criticalTypes are mismatches that cap relevance for a claim type
var criticalTypes = map[models.ClaimType][]models.DocumentType{
	models.ClaimAuto:   {models.HospitalBill, models.DischargeSummary},
	models.ClaimHealth: {models.VehicleRC},
}

// NormalizeClaimType maps free-form claim names onto the supported lines.
// Anything unrecognized is treated as AUTO.
func NormalizeClaimType(raw string) models.ClaimType {
	s := strings.ReplaceAll(strings.ToUpper(raw), " ", "_")
	switch {
	case strings.Contains(s, "AUTO") || strings.Contains(s, "VEHICLE"):
		return models.ClaimAuto
	case strings.Contains(s, "HEALTH") || strings.Contains(s, "MEDICAL"):
		return models.ClaimHealth
	case strings.Contains(s, "HOME") || strings.Contains(s, "PROPERTY"):
		return models.ClaimHome
	case strings.Contains(s, "LIFE"):
		return models.ClaimLife
	case strings.Contains(s, "TRAVEL"):
		return models.ClaimTravel
	default:
		return models.ClaimAuto
	}
}

// ExpectedTypes returns the document types a claim line should include
func ExpectedTypes(claim models.ClaimType) []models.DocumentType {
	return slices.Clone(expectedTypes[claim])
}

// Analyzer scores a document bundle against its claim
type Analyzer struct{}

// NewAnalyzer creates a bundle analyzer
func NewAnalyzer() *Analyzer {
	return &Analyzer{}
}

// Analyze computes relevance and consistency for the bundle. It has no side
// effects and returns the same report for the same input.
func (a *Analyzer) Analyze(claimType string, docs []models.BundleDocument) models.RelevanceConsistencyReport {
	claim := NormalizeClaimType(claimType)
	expected := ExpectedTypes(claim)

	report := models.RelevanceConsistencyReport{
		ClaimType:       claim,
		DocumentCount:   len(docs),
		ExpectedTypes:   expected,
		UploadedTypes:   []models.DocumentType{},
		MatchedTypes:    []models.DocumentType{},
		MismatchedTypes: []models.DocumentType{},
		Warnings:        []string{},
		Recommendations: []string{},
	}

	if len(docs) == 0 {
		report.Warnings = append(report.Warnings, "No documents provided for analysis")
		report.Recommendations = append(report.Recommendations, "Upload required documents for this claim type")
		return report
	}

	a.scoreRelevance(&report, docs)
	a.scoreConsistency(&report, docs)

	if report.RelevanceScore < recommendBelow {
		report.Recommendations = append(report.Recommendations,
			fmt.Sprintf("Consider uploading documents of type: %s", joinTypes(expected)))
	}
	return report
}

func (a *Analyzer) scoreRelevance(report *models.RelevanceConsistencyReport, docs []models.BundleDocument) {
	total := 0.0
	for _, doc := range docs {
		c := doc.Classification
		docType := c.DocumentType
		if docType == "" {
			docType = models.Unknown
		}
		report.UploadedTypes = append(report.UploadedTypes, docType)

		switch {
		case slices.Contains(report.ExpectedTypes, docType):
			report.MatchedTypes = append(report.MatchedTypes, docType)
			total += float64(c.Confidence)
		case docType == models.Unknown:
			total += unknownPoints
		default:
			report.MismatchedTypes = append(report.MismatchedTypes, docType)
			total += mismatchPoints
			report.Warnings = append(report.Warnings,
				fmt.Sprintf("Document type '%s' may not be relevant for %s claim", docType, report.ClaimType))
		}
	}

	avg := total / float64(len(docs))
	for _, t := range report.MismatchedTypes {
		if slices.Contains(criticalTypes[report.ClaimType], t) {
			report.CriticalMismatch = true
			break
		}
	}
	if report.CriticalMismatch {
		avg = math.Min(avg, criticalCap)
	}
	report.RelevanceScore = int(avg)
}

func (a *Analyzer) scoreConsistency(report *models.RelevanceConsistencyReport, docs []models.BundleDocument) {
	score := 100

	if span, ok := dateSpanDays(docs); ok && span > maxDateSpanDays {
		score -= datePenalty
		report.Warnings = append(report.Warnings,
			fmt.Sprintf("Documents have dates spanning %d days - may be from different incidents", span))
	}

	if lo, hi, ok := amountRange(docs); ok && hi.GreaterThan(lo.Mul(amountRatio)) {
		score -= amountPenalty
		report.Warnings = append(report.Warnings,
			fmt.Sprintf("Large discrepancy in amounts across documents (₹%s vs ₹%s)", lo.StringFixed(2), hi.StringFixed(2)))
	}

	if providers, count := distinctProviders(docs); len(providers) > 1 && count > 1 {
		score -= providerPenalty
		report.Warnings = append(report.Warnings,
			fmt.Sprintf("Documents appear to be from different providers: %s", strings.Join(providers, ", ")))
	}

	report.ConsistencyScore = max(0, score)
	report.Consistent = report.ConsistencyScore >= consistentAtLeast
}

// dateSpanDays needs at least two parseable dates across the bundle
func dateSpanDays(docs []models.BundleDocument) (int, bool) {
	var earliest, latest time.Time
	parsed := 0
	for _, doc := range docs {
		f := doc.Extraction.Fields
		candidates := append([]string{f.PrimaryDate}, f.Dates...)
		for _, s := range candidates {
			if s == "" {
				continue
			}
			t, ok := extraction.ParseDate(s)
			if !ok {
				continue
			}
			if parsed == 0 || t.Before(earliest) {
				earliest = t
			}
			if parsed == 0 || t.After(latest) {
				latest = t
			}
			parsed++
		}
	}
	if parsed < 2 {
		return 0, false
	}
	return int(latest.Sub(earliest).Hours() / 24), true
}

func amountRange(docs []models.BundleDocument) (lo, hi decimal.Decimal, ok bool) {
	n := 0
	for _, doc := range docs {
		raw := doc.Extraction.Fields.TotalAmount
		if raw == "" {
			continue
		}
		v, err := decimal.NewFromString(raw)
		if err != nil {
			continue
		}
		if n == 0 || v.LessThan(lo) {
			lo = v
		}
		if n == 0 || v.GreaterThan(hi) {
			hi = v
		}
		n++
	}
	return lo, hi, n > 1
}

func distinctProviders(docs []models.BundleDocument) ([]string, int) {
	seen := make(map[string]bool)
	count := 0
	for _, doc := range docs {
		if p := doc.Extraction.Fields.ProviderName; p != "" {
			seen[p] = true
			count++
		}
	}
	providers := make([]string, 0, len(seen))
	for p := range seen {
		providers = append(providers, p)
	}
	sort.Strings(providers)
	return providers, count
}

func joinTypes(types []models.DocumentType) string {
	names := make([]string, len(types))
	for i, t := range types {
		names[i] = string(t)
	}
	return strings.Join(names, ", ")
}
