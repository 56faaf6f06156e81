package metadata

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/anime-shed/claim-evidence-inspector/pkg/models"
)

func cameraTags() map[string]string {
	return map[string]string{
		TagMake:             "Canon",
		TagModel:            "EOS 80D",
		TagDateTime:         "2024:03:01 10:00:00",
		TagDateTimeOriginal: "2024:03:01 10:00:00",
		"ExposureTime":      "1/125",
		"FNumber":           "56/10",
	}
}

func containsFlag(flags []string, want string) bool {
	for _, f := range flags {
		if f == want {
			return true
		}
	}
	return false
}

func TestAnalyze_PhotoshopOnly(t *testing.T) {
	a := NewTamperAnalyzer(NewExifTagReader())

	report := a.Analyze(map[string]string{TagSoftware: "Adobe Photoshop 2024"})

	if report.TamperScore < 50 {
		t.Errorf("Expected tamper score >= 50, got %f", report.TamperScore)
	}
	if report.TamperScore != 60 {
		t.Errorf("Expected 30 editing + 20 limited + 10 no camera = 60, got %f", report.TamperScore)
	}
	if !containsFlag(report.Flags, "Edited with Adobe Photoshop 2024") {
		t.Errorf("Expected editing flag, got %v", report.Flags)
	}
	if !containsFlag(report.Flags, FlagLimitedMetadata) {
		t.Errorf("Expected limited metadata flag, got %v", report.Flags)
	}
	if !report.EditingSoftwareDetected {
		t.Error("Expected EditingSoftwareDetected to be true")
	}
	if !report.Valid {
		t.Error("Expected report to be valid")
	}
}

func TestAnalyze_Conditions(t *testing.T) {
	a := NewTamperAnalyzer(NewExifTagReader())

	tests := []struct {
		name          string
		mutate        func(map[string]string)
		expectedScore float64
		expectedFlag  string
	}{
		{"clean camera output", func(map[string]string) {}, 0, ""},
		{"date mismatch", func(m map[string]string) { m[TagDateTimeOriginal] = "2023:12:25 08:00:00" }, 15, FlagDateInconsistency},
		{"no camera", func(m map[string]string) { delete(m, TagMake); delete(m, TagModel); m["A"] = "1"; m["B"] = "2" }, 10, FlagNoCamera},
		{"model alone counts as camera", func(m map[string]string) { delete(m, TagMake); m["A"] = "1" }, 0, ""},
		{"lowercase editor name is not a tool match", func(m map[string]string) { m[TagSoftware] = "gimp 2.10" }, 0, ""},
		{"lightroom", func(m map[string]string) { m[TagSoftware] = "Adobe Lightroom Classic" }, 30, "Edited with Adobe Lightroom Classic"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tags := cameraTags()
			tt.mutate(tags)
			report := a.Analyze(tags)
			if report.TamperScore != tt.expectedScore {
				t.Errorf("Expected score %f, got %f (flags %v)", tt.expectedScore, report.TamperScore, report.Flags)
			}
			if tt.expectedFlag != "" && !containsFlag(report.Flags, tt.expectedFlag) {
				t.Errorf("Expected flag %q, got %v", tt.expectedFlag, report.Flags)
			}
			if tt.expectedFlag == "" && len(report.Flags) != 0 {
				t.Errorf("Expected no flags, got %v", report.Flags)
			}
		})
	}
}

func TestAnalyze_AllConditions(t *testing.T) {
	a := NewTamperAnalyzer(NewExifTagReader())
	report := a.Analyze(map[string]string{
		TagSoftware:         "GIMP 2.10",
		TagDateTime:         "2024:01:02 00:00:00",
		TagDateTimeOriginal: "2024:01:01 00:00:00",
	})

	if report.TamperScore != 75 {
		t.Errorf("Expected 75, got %f", report.TamperScore)
	}
	if len(report.Flags) != 4 {
		t.Errorf("Expected 4 flags, got %v", report.Flags)
	}
	if report.Timestamp != "2024:01:02 00:00:00" {
		t.Errorf("Expected DateTime to be preferred as timestamp, got %q", report.Timestamp)
	}
}

func TestAnalyze_NilTags(t *testing.T) {
	report := NewTamperAnalyzer(NewExifTagReader()).Analyze(nil)
	if report.TamperScore != 30 {
		t.Errorf("Expected 30 for empty tags, got %f", report.TamperScore)
	}
}

func TestFailedReport(t *testing.T) {
	report := FailedReport()
	if report.Valid {
		t.Error("Expected failed report to be invalid")
	}
	if report.TamperScore != 40 {
		t.Errorf("Expected fixed score 40, got %f", report.TamperScore)
	}
	if len(report.Flags) != 1 || report.Flags[0] != FlagReadFailure {
		t.Errorf("Expected single read failure flag, got %v", report.Flags)
	}
}

type stubReader struct {
	tags map[string]string
	err  error
}

func (s stubReader) ReadTags([]byte) (map[string]string, error) {
	return s.tags, s.err
}

func TestAnalyzeImage(t *testing.T) {
	var buf bytes.Buffer
	img := image.NewRGBA(image.Rect(0, 0, 10, 10))
	img.Set(1, 1, color.RGBA{255, 0, 0, 255})
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("Failed to encode fixture: %v", err)
	}

	t.Run("png without tags", func(t *testing.T) {
		report := NewTamperAnalyzer(NewExifTagReader()).AnalyzeImage(buf.Bytes())
		if !report.Valid {
			t.Fatal("Expected png without tags to be readable")
		}
		if report.TamperScore != 30 {
			t.Errorf("Expected 30 for missing tags, got %f", report.TamperScore)
		}
		if report.FileType != "image/png" {
			t.Errorf("Expected image/png, got %q", report.FileType)
		}
	})

	t.Run("unreadable bytes", func(t *testing.T) {
		report := NewTamperAnalyzer(NewExifTagReader()).AnalyzeImage([]byte("garbage"))
		if report.Valid || report.TamperScore != 40 {
			t.Errorf("Expected fixed failure report, got %+v", report)
		}
	})

	t.Run("reader tags flow into report", func(t *testing.T) {
		report := NewTamperAnalyzer(stubReader{tags: cameraTags()}).AnalyzeImage(buf.Bytes())
		if report.CameraMake != "Canon" {
			t.Errorf("Expected Canon, got %q", report.CameraMake)
		}
	})
}

func TestHasEditingSignature(t *testing.T) {
	tests := map[string]bool{
		"Adobe Photoshop CC": true,
		"gimp":               true,
		"Edited on iPhone":   true,
		"Canon Firmware 1.0": false,
		"":                   false,
	}
	for software, expected := range tests {
		if got := HasEditingSignature(software); got != expected {
			t.Errorf("HasEditingSignature(%q): expected %v, got %v", software, expected, got)
		}
	}
}

func TestDetectSyntheticIndicators(t *testing.T) {
	report := models.MetadataReport{Software: "Stable Diffusion XL"}
	result := DetectSyntheticIndicators(report)
	if result.Score != 75 {
		t.Errorf("Expected 75, got %f", result.Score)
	}
	if !result.LikelySynthetic {
		t.Error("Expected image to be flagged as likely synthetic")
	}

	camera := DetectSyntheticIndicators(models.MetadataReport{CameraMake: "Nikon"})
	if camera.Score != 0 || camera.LikelySynthetic {
		t.Errorf("Expected camera image to score 0, got %+v", camera)
	}
}

func TestAuthenticityScore(t *testing.T) {
	if got := AuthenticityScore(models.MetadataReport{CameraMake: "Sony", Timestamp: "2024:01:01 00:00:00"}); got != 100 {
		t.Errorf("Expected 100, got %f", got)
	}
	if got := AuthenticityScore(models.MetadataReport{EditingSoftwareDetected: true}); got != 40 {
		t.Errorf("Expected 40, got %f", got)
	}
}
