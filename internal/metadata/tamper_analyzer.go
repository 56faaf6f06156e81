package metadata

import (
	"strings"

	"github.com/anime-shed/claim-evidence-inspector/internal/logger"
	"github.com/anime-shed/claim-evidence-inspector/pkg/models"
	"github.com/gabriel-vasile/mimetype"
)

// Tag names read from EXIF
const (
	TagMake             = "Make"
	TagModel            = "Model"
	TagSoftware         = "Software"
	TagDateTime         = "DateTime"
	TagDateTimeOriginal = "DateTimeOriginal"
)

// Tamper flags
const (
	FlagLimitedMetadata   = "Limited/missing metadata"
	FlagDateInconsistency = "Date/time inconsistency"
	FlagNoCamera          = "No camera information"
	FlagReadFailure       = "Failed to read metadata"
	flagEditedPrefix      = "Edited with "
)

// Score contributions
const (
	editingToolPoints     = 30
	limitedMetadataPoints = 20
	dateMismatchPoints    = 15
	noCameraPoints        = 10
	readFailureScore      = 40
	minimumTagCount       = 5
)

// editingTools are matched case-sensitively as substrings of the Software tag
var editingTools = []string{
	"Adobe Photoshop",
	"GIMP",
	"Paint.NET",
	"Affinity Photo",
	"Corel",
	"PhotoDirector",
	"Lightroom",
	"Snapseed",
}

// TamperAnalyzer scores descriptive image tags for manipulation indicators
type TamperAnalyzer struct {
	reader TagReader
}

// NewTamperAnalyzer creates an analyzer reading tags with the given reader
func NewTamperAnalyzer(reader TagReader) *TamperAnalyzer {
	return &TamperAnalyzer{reader: reader}
}

// AnalyzeImage reads tags from raw evidence bytes and scores them
func (a *TamperAnalyzer) AnalyzeImage(data []byte) models.MetadataReport {
	fileType := mimetype.Detect(data).String()

	tags, err := a.reader.ReadTags(data)
	if err != nil {
		logger.ForComponent("metadata").WithError(err).Debug("Descriptive tags could not be read")
		report := FailedReport()
		report.FileType = fileType
		return report
	}

	report := a.Analyze(tags)
	report.FileType = fileType
	return report
}

// Analyze scores a tag map. Every condition adds independently and the
// total is clamped to 100.
func (a *TamperAnalyzer) Analyze(tags map[string]string) models.MetadataReport {
	if tags == nil {
		tags = map[string]string{}
	}

	report := models.MetadataReport{
		Valid:       true,
		Tags:        tags,
		Flags:       []string{},
		CameraMake:  tags[TagMake],
		CameraModel: tags[TagModel],
		Software:    tags[TagSoftware],
		Timestamp:   firstNonEmpty(tags[TagDateTime], tags[TagDateTimeOriginal]),
	}

	score := 0.0
	if MatchesEditingTool(report.Software) {
		score += editingToolPoints
		report.EditingSoftwareDetected = true
		report.Flags = append(report.Flags, flagEditedPrefix+report.Software)
	}

	if len(tags) < minimumTagCount {
		score += limitedMetadataPoints
		report.Flags = append(report.Flags, FlagLimitedMetadata)
	}

	created, original := tags[TagDateTime], tags[TagDateTimeOriginal]
	if created != "" && original != "" && created != original {
		score += dateMismatchPoints
		report.Flags = append(report.Flags, FlagDateInconsistency)
	}

	if report.CameraMake == "" && report.CameraModel == "" {
		score += noCameraPoints
		report.Flags = append(report.Flags, FlagNoCamera)
	}

	if score > 100 {
		score = 100
	}
	report.TamperScore = score
	return report
}

// FailedReport is the fixed result used when tags cannot be read at all
func FailedReport() models.MetadataReport {
	return models.MetadataReport{
		Valid:       false,
		Tags:        map[string]string{},
		TamperScore: readFailureScore,
		Flags:       []string{FlagReadFailure},
	}
}

// MatchesEditingTool reports whether software names a known photo editor
func MatchesEditingTool(software string) bool {
	if software == "" {
		return false
	}
	for _, tool := range editingTools {
		if strings.Contains(software, tool) {
			return true
		}
	}
	return false
}

// HasEditingSignature is the looser, case-insensitive check used by fraud
// scoring.
func HasEditingSignature(software string) bool {
	s := strings.ToLower(software)
	return strings.Contains(s, "photoshop") || strings.Contains(s, "gimp") || strings.Contains(s, "edited")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
