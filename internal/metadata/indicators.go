package metadata

import (
	"math"
	"strings"

	"github.com/anime-shed/claim-evidence-inspector/pkg/models"
)

var syntheticKeywords = []string{"midjourney", "stable diffusion", "dall-e", "generated"}

// DetectSyntheticIndicators looks for signs that an image was produced by a
// generative model rather than a camera.
func DetectSyntheticIndicators(report models.MetadataReport) models.SyntheticReport {
	result := models.SyntheticReport{Indicators: []string{}}

	software := strings.ToLower(report.Software)
	for _, keyword := range syntheticKeywords {
		if strings.Contains(software, keyword) {
			result.Score += 50
			result.Indicators = append(result.Indicators, "AI generation software detected: "+report.Software)
			break
		}
	}

	if report.CameraMake == "" && report.CameraModel == "" {
		result.Score += 25
		result.Indicators = append(result.Indicators, "No camera information")
	}

	result.Score = math.Min(100, result.Score)
	result.LikelySynthetic = result.Score >= 50
	return result
}

// AuthenticityScore rates how camera-original a document looks, 100 being
// untouched camera output.
func AuthenticityScore(report models.MetadataReport) float64 {
	score := 100.0
	if report.CameraMake == "" && report.CameraModel == "" {
		score -= 20
	}
	if report.Timestamp == "" {
		score -= 15
	}
	if report.EditingSoftwareDetected {
		score -= 25
	}
	return math.Max(0, math.Min(100, score))
}
