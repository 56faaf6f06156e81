package relevance

import (
	"reflect"
	"slices"
	"testing"

	"github.com/anime-shed/claim-evidence-inspector/pkg/models"
)

func doc(t models.DocumentType, confidence int) models.BundleDocument {
	return models.BundleDocument{
		Classification: models.ClassificationResult{DocumentType: t, Confidence: confidence},
	}
}

func docWithFields(t models.DocumentType, confidence int, fields models.ExtractedFields) models.BundleDocument {
	d := doc(t, confidence)
	d.Extraction = models.ExtractionResult{Fields: fields, Success: true}
	return d
}

func TestNormalizeClaimType(t *testing.T) {
	tests := []struct {
		in       string
		expected models.ClaimType
	}{
		{"auto", models.ClaimAuto},
		{"Motor Vehicle", models.ClaimAuto},
		{"Medical Insurance", models.ClaimHealth},
		{"health", models.ClaimHealth},
		{"property damage", models.ClaimHome},
		{"HOME", models.ClaimHome},
		{"term life", models.ClaimLife},
		{"Travel", models.ClaimTravel},
		{"marine", models.ClaimAuto},
		{"", models.ClaimAuto},
	}

	for _, tt := range tests {
		if got := NormalizeClaimType(tt.in); got != tt.expected {
			t.Errorf("NormalizeClaimType(%q): expected %s, got %s", tt.in, tt.expected, got)
		}
	}
}

func TestAnalyze_AutoClaimWithMedicalBill(t *testing.T) {
	report := NewAnalyzer().Analyze("AUTO", []models.BundleDocument{
		doc(models.VehicleRC, 90),
		doc(models.HospitalBill, 80),
	})

	if !report.CriticalMismatch {
		t.Error("Expected critical mismatch")
	}
	if report.RelevanceScore > 40 {
		t.Errorf("Expected relevance capped at 40, got %d", report.RelevanceScore)
	}
	if !slices.Contains(report.Warnings, "Document type 'HOSPITAL_BILL' may not be relevant for AUTO claim") {
		t.Errorf("Expected mismatch warning, got %v", report.Warnings)
	}
	want := "Consider uploading documents of type: DAMAGE_PHOTO, VEHICLE_RC, REPAIR_ESTIMATE, POLICE_REPORT"
	if !slices.Contains(report.Recommendations, want) {
		t.Errorf("Expected recommendation %q, got %v", want, report.Recommendations)
	}
	if !slices.Equal(report.MatchedTypes, []models.DocumentType{models.VehicleRC}) {
		t.Errorf("Expected VEHICLE_RC matched, got %v", report.MatchedTypes)
	}
}

func TestAnalyze_HealthClaimWithVehicleDocument(t *testing.T) {
	report := NewAnalyzer().Analyze("medical", []models.BundleDocument{
		doc(models.HospitalBill, 100),
		doc(models.DischargeSummary, 100),
		doc(models.VehicleRC, 100),
	})

	if report.ClaimType != models.ClaimHealth {
		t.Errorf("Expected HEALTH, got %s", report.ClaimType)
	}
	if !report.CriticalMismatch || report.RelevanceScore != 40 {
		t.Errorf("Expected critical mismatch capped at 40, got %v/%d", report.CriticalMismatch, report.RelevanceScore)
	}
}

func TestAnalyze_RelevanceScoring(t *testing.T) {
	tests := []struct {
		name      string
		claim     string
		docs      []models.BundleDocument
		relevance int
		recommend bool
	}{
		{
			name:      "expected types weighted by confidence",
			claim:     "HEALTH",
			docs:      []models.BundleDocument{doc(models.HospitalBill, 80), doc(models.DischargeSummary, 60)},
			relevance: 70,
			recommend: false,
		},
		{
			name:      "unknown documents are neutral",
			claim:     "HOME",
			docs:      []models.BundleDocument{doc(models.Unknown, 20)},
			relevance: 50,
			recommend: true,
		},
		{
			name:      "non-critical mismatch",
			claim:     "TRAVEL",
			docs:      []models.BundleDocument{doc(models.VehicleRC, 90), doc(models.IDDocument, 75)},
			relevance: 47,
			recommend: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report := NewAnalyzer().Analyze(tt.claim, tt.docs)
			if report.RelevanceScore != tt.relevance {
				t.Errorf("Expected relevance %d, got %d", tt.relevance, report.RelevanceScore)
			}
			if got := len(report.Recommendations) > 0; got != tt.recommend {
				t.Errorf("Expected recommendation=%v, got %v", tt.recommend, report.Recommendations)
			}
			if report.CriticalMismatch {
				t.Error("Expected no critical mismatch")
			}
		})
	}
}

func TestAnalyze_EmptyBundle(t *testing.T) {
	report := NewAnalyzer().Analyze("AUTO", nil)

	if report.RelevanceScore != 0 || report.ConsistencyScore != 0 {
		t.Errorf("Expected zero scores, got %d/%d", report.RelevanceScore, report.ConsistencyScore)
	}
	if report.Consistent {
		t.Error("Expected empty bundle not to be consistent")
	}
	if !slices.Equal(report.Warnings, []string{"No documents provided for analysis"}) {
		t.Errorf("Unexpected warnings %v", report.Warnings)
	}
	if !slices.Equal(report.Recommendations, []string{"Upload required documents for this claim type"}) {
		t.Errorf("Unexpected recommendations %v", report.Recommendations)
	}
}

func TestAnalyze_Consistency(t *testing.T) {
	docs := []models.BundleDocument{
		docWithFields(models.HospitalBill, 90, models.ExtractedFields{
			PrimaryDate:  "01-01-2024",
			Dates:        []string{"01-01-2024"},
			TotalAmount:  "500",
			ProviderName: "B Clinic",
		}),
		docWithFields(models.DischargeSummary, 90, models.ExtractedFields{
			PrimaryDate:  "2024-04-15",
			Dates:        []string{"2024-04-15", "not a date"},
			TotalAmount:  "10000",
			ProviderName: "A Hospital",
		}),
	}

	report := NewAnalyzer().Analyze("HEALTH", docs)

	if report.ConsistencyScore != 55 {
		t.Errorf("Expected consistency 55, got %d", report.ConsistencyScore)
	}
	if report.Consistent {
		t.Error("Expected inconsistent bundle")
	}
	wantWarnings := []string{
		"Documents have dates spanning 105 days - may be from different incidents",
		"Large discrepancy in amounts across documents (₹500.00 vs ₹10000.00)",
		"Documents appear to be from different providers: A Hospital, B Clinic",
	}
	for _, w := range wantWarnings {
		if !slices.Contains(report.Warnings, w) {
			t.Errorf("Expected warning %q, got %v", w, report.Warnings)
		}
	}
}

func TestAnalyze_ConsistentBundle(t *testing.T) {
	docs := []models.BundleDocument{
		docWithFields(models.HospitalBill, 90, models.ExtractedFields{
			PrimaryDate: "10-05-2024", TotalAmount: "12500.50", ProviderName: "City Care Hospital",
		}),
		docWithFields(models.DischargeSummary, 90, models.ExtractedFields{
			PrimaryDate: "12-05-2024", TotalAmount: "2000", ProviderName: "City Care Hospital",
		}),
	}

	report := NewAnalyzer().Analyze("HEALTH", docs)
	if report.ConsistencyScore != 100 || !report.Consistent {
		t.Errorf("Expected fully consistent bundle, got %d (%v)", report.ConsistencyScore, report.Warnings)
	}
	if len(report.Warnings) != 0 {
		t.Errorf("Expected no warnings, got %v", report.Warnings)
	}
}

func TestAnalyze_Deterministic(t *testing.T) {
	docs := []models.BundleDocument{
		docWithFields(models.RepairEstimate, 60, models.ExtractedFields{ProviderName: "Zed Motors", TotalAmount: "100"}),
		docWithFields(models.DamagePhoto, 70, models.ExtractedFields{ProviderName: "Alpha Garage", TotalAmount: "5000"}),
		doc(models.PoliceReport, 55),
	}

	first := NewAnalyzer().Analyze("auto", docs)
	for i := 0; i < 5; i++ {
		if next := NewAnalyzer().Analyze("auto", docs); !reflect.DeepEqual(first, next) {
			t.Fatalf("Expected identical reports, got %+v and %+v", first, next)
		}
	}
}

func TestExpectedTypesReturnsCopy(t *testing.T) {
	types := ExpectedTypes(models.ClaimAuto)
	types[0] = models.Unknown
	if ExpectedTypes(models.ClaimAuto)[0] != models.DamagePhoto {
		t.Error("Expected caller mutation not to leak into the table")
	}
}
