package extraction

import (
	"context"
	"fmt"
	"image"
	"strings"
	"time"

	"github.com/anime-shed/claim-evidence-inspector/internal/analyzer"
	"github.com/anime-shed/claim-evidence-inspector/internal/logger"
	"github.com/anime-shed/claim-evidence-inspector/pkg/models"
	"github.com/shopspring/decimal"
)

const (
	rawTextLimit = 500

	missingDate    = "date"
	missingAmount  = "amount"
	missingInvoice = "invoice/bill number"
)

var (
	amountLow  = decimal.NewFromInt(100)
	amountHigh = decimal.NewFromInt(10_000_000)
)

// FieldExtractor recognizes page text and pulls structured claim fields out
// of it
type FieldExtractor struct {
	engine OCREngine
	pre    analyzer.OCRPreprocessor
	now    func() time.Time
}

// NewFieldExtractor creates an extractor around an OCR engine
func NewFieldExtractor(engine OCREngine, pre analyzer.OCRPreprocessor) *FieldExtractor {
	return &FieldExtractor{
		engine: engine,
		pre:    pre,
		now:    time.Now,
	}
}

// WithClock replaces the clock used for date validation
func (e *FieldExtractor) WithClock(now func() time.Time) *FieldExtractor {
	e.now = now
	return e
}

// Extract preprocesses the page, runs OCR and applies the field rules. OCR
// failures degrade to an unsuccessful result instead of an error.
func (e *FieldExtractor) Extract(ctx context.Context, img image.Image, hint models.DocumentType) models.ExtractionResult {
	text, err := e.Recognize(ctx, img)
	if err != nil {
		return FailureResult(hint, err)
	}

	return e.ExtractFromText(text.Text, hint)
}

// Recognize preprocesses the page and returns the engine output
func (e *FieldExtractor) Recognize(ctx context.Context, img image.Image) (OCRText, error) {
	if img == nil || img.Bounds().Empty() {
		return OCRText{}, fmt.Errorf("no decodable image supplied")
	}

	page := e.pre.PrepareForOCR(img)
	text, err := e.engine.Recognize(ctx, page)
	if err != nil {
		logger.ForComponent("extraction").WithError(err).Warn("OCR engine failed")
		return OCRText{}, err
	}
	return text, nil
}

// ExtractFromText applies the pattern rules and validation to recognized text
func (e *FieldExtractor) ExtractFromText(text string, hint models.DocumentType) models.ExtractionResult {
	fields := extractFields(text, hint)
	missing, warnings := e.validate(fields)

	raw := text
	if r := []rune(raw); len(r) > rawTextLimit {
		raw = string(r[:rawTextLimit])
	}

	return models.ExtractionResult{
		DocumentType:  hint,
		Fields:        fields,
		MissingFields: missing,
		Warnings:      warnings,
		Confidence:    confidence(fields, missing, warnings),
		RawText:       raw,
		Success:       true,
	}
}

// FailureResult is the unsuccessful result reported when OCR could not run
func FailureResult(hint models.DocumentType, err error) models.ExtractionResult {
	return models.ExtractionResult{
		DocumentType:  hint,
		MissingFields: []string{},
		Warnings:      []string{},
		Success:       false,
		Error:         fmt.Sprintf("OCR extraction failed: %v", err),
	}
}

func extractFields(text string, hint models.DocumentType) models.ExtractedFields {
	var f models.ExtractedFields

	f.Dates = extractDates(text)
	if len(f.Dates) > 0 {
		f.PrimaryDate = f.Dates[0]
	}

	f.Amounts = extractAmounts(text)
	if len(f.Amounts) > 0 {
		f.TotalAmount = f.Amounts[len(f.Amounts)-1]
	}

	f.InvoiceNumber = firstSubmatch(invoicePatterns, text)
	f.ProviderName = extractProvider(text)
	f.PatientName = firstSubmatch(patientPatterns, text)

	switch hint {
	case models.HospitalBill:
		f.Diagnosis = submatch(diagnosisPattern, text)
		f.AdmissionDate = submatch(admissionDatePattern, text)
		f.DischargeDate = submatch(dischargeDatePattern, text)
	case models.VehicleRC:
		f.RegistrationNumber = firstSubmatch(registrationPatterns, text)
		f.EngineNumber = submatch(enginePattern, text)
		f.ChassisNumber = submatch(chassisPattern, text)
	}

	return f
}

// extractDates collects matches pattern by pattern, keeping first occurrences
func extractDates(text string) []string {
	var dates []string
	seen := make(map[string]bool)
	for _, p := range datePatterns {
		for _, d := range p.FindAllString(text, -1) {
			if !seen[d] {
				seen[d] = true
				dates = append(dates, d)
			}
		}
	}
	return dates
}

func extractAmounts(text string) []string {
	var amounts []string
	for _, p := range amountPatterns {
		for _, m := range p.FindAllStringSubmatch(text, -1) {
			if a := strings.ReplaceAll(m[1], ",", ""); a != "" {
				amounts = append(amounts, a)
			}
		}
	}
	return amounts
}

func extractProvider(text string) string {
	lines := strings.Split(text, "\n")
	if len(lines) > providerMaxLines {
		lines = lines[:providerMaxLines]
	}
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if len(line) >= providerMinLen && len(line) <= providerMaxLen && providerLine.MatchString(line) {
			return line
		}
	}
	return ""
}

func (e *FieldExtractor) validate(f models.ExtractedFields) (missing, warnings []string) {
	missing = []string{}
	warnings = []string{}

	if f.PrimaryDate == "" {
		missing = append(missing, missingDate)
	} else if w := e.validateDate(f.PrimaryDate); w != "" {
		warnings = append(warnings, w)
	}

	if f.TotalAmount == "" {
		missing = append(missing, missingAmount)
	} else if w := validateAmount(f.TotalAmount); w != "" {
		warnings = append(warnings, w)
	}

	if f.InvoiceNumber == "" {
		missing = append(missing, missingInvoice)
	}

	if f.ProviderName == "" {
		warnings = append(warnings, "Provider name not detected")
	}
	return missing, warnings
}

func (e *FieldExtractor) validateDate(date string) string {
	parsed, ok := ParseDate(date)
	if !ok {
		return fmt.Sprintf("Date %s format could not be validated", date)
	}

	now := e.now()
	if parsed.After(now) {
		return fmt.Sprintf("Date %s is in the future", date)
	}
	days := int(now.Sub(parsed).Hours() / 24)
	if float64(days)/365 > 2 {
		return fmt.Sprintf("Date %s is more than 2 years old", date)
	}
	return ""
}

func validateAmount(amount string) string {
	value, err := decimal.NewFromString(amount)
	if err != nil {
		return fmt.Sprintf("Amount %s format is invalid", amount)
	}
	if value.LessThan(amountLow) {
		return fmt.Sprintf("Amount %s seems unusually low", amount)
	}
	if value.GreaterThan(amountHigh) {
		return fmt.Sprintf("Amount %s seems unusually high", amount)
	}
	return ""
}

func confidence(f models.ExtractedFields, missing, warnings []string) int {
	score := 100 - 15*len(missing) - 10*len(warnings)
	for _, present := range []bool{f.PrimaryDate != "", f.TotalAmount != "", f.InvoiceNumber != "", f.ProviderName != ""} {
		if present {
			score += 5
		}
	}
	return max(0, min(100, score))
}
