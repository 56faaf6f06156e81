package classifier

import (
	"image"
	"image/color"
	"reflect"
	"testing"

	"github.com/anime-shed/claim-evidence-inspector/internal/analyzer"
	"github.com/anime-shed/claim-evidence-inspector/pkg/models"
)

func TestCountKeywords(t *testing.T) {
	stats := CountKeywords("Hospital bill for patient. Total: amount invoice")

	if stats.WordCount != 7 {
		t.Errorf("Expected 7 words, got %d", stats.WordCount)
	}
	if stats.Medical != 4 {
		t.Errorf("Expected 4 medical keywords, got %d", stats.Medical)
	}
	if stats.Financial != 3 {
		t.Errorf("Expected 3 financial keywords, got %d", stats.Financial)
	}
	if stats.Vehicle != 0 || stats.Property != 0 {
		t.Errorf("Expected no vehicle/property keywords, got %d/%d", stats.Vehicle, stats.Property)
	}
}

func TestCountKeywords_SharedVocabulary(t *testing.T) {
	stats := CountKeywords("OWNER owner Owner")
	if stats.Vehicle != 3 || stats.Property != 3 {
		t.Errorf("Expected owner to count for vehicle and property, got %d/%d", stats.Vehicle, stats.Property)
	}
}

func TestClassifyFeatures_HospitalBill(t *testing.T) {
	result := ClassifyFeatures(models.ClassificationFeatures{
		MedicalKeywords:   3,
		FinancialKeywords: 3,
		WordCount:         40,
		HasText:           true,
		HasTables:         true,
		AspectRatio:       0.7,
	})

	if result.DocumentType != models.HospitalBill {
		t.Fatalf("Expected HOSPITAL_BILL, got %s", result.DocumentType)
	}
	if result.CategoryScores[models.HospitalBill] != 80 {
		t.Errorf("Expected score 80, got %d", result.CategoryScores[models.HospitalBill])
	}
	if result.Confidence != 80 {
		t.Errorf("Expected confidence 80, got %d", result.Confidence)
	}
	if result.DisplayName != "Hospital Bill" {
		t.Errorf("Expected display name Hospital Bill, got %q", result.DisplayName)
	}
}

func TestClassifyFeatures_Rules(t *testing.T) {
	tests := []struct {
		name       string
		features   models.ClassificationFeatures
		expected   models.DocumentType
		confidence int
	}{
		{
			name:       "nothing detected",
			features:   models.ClassificationFeatures{AspectRatio: 1},
			expected:   models.Unknown,
			confidence: 20,
		},
		{
			name:       "damage photo",
			features:   models.ClassificationFeatures{IsColor: true, WordCount: 3, AspectRatio: 1.33},
			expected:   models.DamagePhoto,
			confidence: 70,
		},
		{
			name:       "scanned page is not a damage photo",
			features:   models.ClassificationFeatures{IsColor: true, IsDocumentLike: true, AspectRatio: 0.7},
			expected:   models.Unknown,
			confidence: 20,
		},
		{
			name:       "discharge summary without tables",
			features:   models.ClassificationFeatures{MedicalKeywords: 4, WordCount: 120, HasText: true},
			expected:   models.DischargeSummary,
			confidence: 60,
		},
		{
			name:       "structured vehicle registration",
			features:   models.ClassificationFeatures{VehicleKeywords: 3, IsStructured: true, WordCount: 150, HasText: true},
			expected:   models.VehicleRC,
			confidence: 80,
		},
		{
			name:       "repair estimate with tables",
			features:   models.ClassificationFeatures{FinancialKeywords: 5, HasTables: true, WordCount: 60, HasText: true},
			expected:   models.RepairEstimate,
			confidence: 60,
		},
		{
			name:       "id card aspect ratio",
			features:   models.ClassificationFeatures{IsStructured: true, WordCount: 30, HasText: true, AspectRatio: 1.58},
			expected:   models.IDDocument,
			confidence: 50,
		},
		{
			name:       "id card aspect ratio bounds are exclusive",
			features:   models.ClassificationFeatures{IsStructured: true, WordCount: 30, HasText: true, AspectRatio: 1.8},
			expected:   models.Unknown,
			confidence: 20,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ClassifyFeatures(tt.features)
			if result.DocumentType != tt.expected {
				t.Errorf("Expected %s, got %s (scores %v)", tt.expected, result.DocumentType, result.CategoryScores)
			}
			if result.Confidence != tt.confidence {
				t.Errorf("Expected confidence %d, got %d", tt.confidence, result.Confidence)
			}
		})
	}
}

func TestClassifyFeatures_TieGoesToEarlierCategory(t *testing.T) {
	// Damage photo (70) and structured property document (50+20) tie
	result := ClassifyFeatures(models.ClassificationFeatures{
		IsColor:          true,
		WordCount:        12,
		HasText:          true,
		PropertyKeywords: 3,
		IsStructured:     true,
		AspectRatio:      1,
	})

	if result.CategoryScores[models.DamagePhoto] != 70 || result.CategoryScores[models.PropertyDocument] != 70 {
		t.Fatalf("Expected a 70/70 tie, got %v", result.CategoryScores)
	}
	if result.DocumentType != models.DamagePhoto {
		t.Errorf("Expected DAMAGE_PHOTO to win the tie, got %s", result.DocumentType)
	}
}

func TestClassifyFeatures_Idempotent(t *testing.T) {
	features := models.ClassificationFeatures{
		MedicalKeywords:   5,
		FinancialKeywords: 4,
		WordCount:         80,
		HasText:           true,
		HasTables:         true,
	}

	first := ClassifyFeatures(features)
	for i := 0; i < 10; i++ {
		next := ClassifyFeatures(features)
		if !reflect.DeepEqual(first, next) {
			t.Fatalf("Expected identical results, got %+v and %+v", first, next)
		}
	}
}

func TestClassify_ColorPhoto(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 300, 200))
	for y := 0; y < 200; y++ {
		for x := 0; x < 300; x++ {
			if x < 150 {
				img.Set(x, y, color.RGBA{200, 30, 30, 255})
			} else {
				img.Set(x, y, color.RGBA{30, 60, 200, 255})
			}
		}
	}

	result := NewClassifier(analyzer.NewPixelAnalyzer()).Classify(img, "")
	if result.DocumentType != models.DamagePhoto {
		t.Errorf("Expected DAMAGE_PHOTO, got %s (features %+v)", result.DocumentType, result.Features)
	}
	if result.Features.Width != 300 || result.Features.Height != 200 {
		t.Errorf("Expected 300x200 features, got %dx%d", result.Features.Width, result.Features.Height)
	}
	if !result.Success {
		t.Error("Expected success")
	}
}

func TestClassify_GrayscaleNeverDamagePhoto(t *testing.T) {
	gray := image.NewGray(image.Rect(0, 0, 200, 200))
	for i := range gray.Pix {
		gray.Pix[i] = uint8((i * 7) % 256)
	}

	result := NewClassifier(analyzer.NewPixelAnalyzer()).Classify(gray, "")
	if result.Features.IsColor {
		t.Error("Expected grayscale source to report IsColor=false")
	}
	if result.DocumentType == models.DamagePhoto {
		t.Error("Expected grayscale image not to be classified as DAMAGE_PHOTO")
	}
}

func TestClassify_NoImage(t *testing.T) {
	result := NewClassifier(analyzer.NewPixelAnalyzer()).Classify(nil, "hospital bill")
	if result.Success {
		t.Error("Expected failure without an image")
	}
	if result.DocumentType != models.Unknown || result.Confidence != 0 {
		t.Errorf("Expected UNKNOWN with confidence 0, got %s/%d", result.DocumentType, result.Confidence)
	}
}

func TestVerifyDocumentMatch(t *testing.T) {
	result := models.ClassificationResult{DocumentType: models.VehicleRC, Confidence: 80}

	match := VerifyDocumentMatch(result, models.VehicleRC)
	if !match.Matches {
		t.Error("Expected match")
	}

	mismatch := VerifyDocumentMatch(result, models.HospitalBill)
	if mismatch.Matches {
		t.Error("Expected mismatch")
	}
	if mismatch.Message != "Expected Hospital Bill but detected Vehicle Registration" {
		t.Errorf("Unexpected message %q", mismatch.Message)
	}
}
