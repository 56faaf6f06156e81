package extraction

import (
	"regexp"
	"strings"
	"time"
)

const amountExpr = `(\d{1,3}(?:,\d{3})+(?:\.\d{2})?|\d+(?:\.\d{2})?)`

var (
	datePatterns = []*regexp.Regexp{
		regexp.MustCompile(`\d{2}[-/]\d{2}[-/]\d{4}`),
		regexp.MustCompile(`\d{4}[-/]\d{2}[-/]\d{2}`),
		regexp.MustCompile(`\d{2}\s+[A-Za-z]{3,9}\s+\d{4}`),
	}

	amountPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(?:Rs\.?|INR|₹)\s*` + amountExpr),
		regexp.MustCompile(`(?i)` + amountExpr + `\s*(?:Rs\.?|INR|₹)`),
		regexp.MustCompile(`(?i)Total[:\s]+(?:Rs\.?|INR|₹)?\s*` + amountExpr),
	}

	invoicePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)Invoice\s*(?:No|Number|#)[:\s]*([A-Z0-9\-/]+)`),
		regexp.MustCompile(`(?i)Bill\s*(?:No|Number|#)[:\s]*([A-Z0-9\-/]+)`),
		regexp.MustCompile(`(?i)Receipt\s*(?:No|Number|#)[:\s]*([A-Z0-9\-/]+)`),
	}

	patientPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)Patient\s*Name[: \t]+([A-Za-z \t]+)`),
		regexp.MustCompile(`(?i)Name[: \t]+([A-Za-z \t]+)`),
		regexp.MustCompile(`(?i)Customer[: \t]+([A-Za-z \t]+)`),
	}

	providerLine = regexp.MustCompile(`^[A-Za-z\s&.]+$`)

	diagnosisPattern     = regexp.MustCompile(`(?i)Diagnosis[: \t]+([^\n]+)`)
	admissionDatePattern = regexp.MustCompile(`(?i)Admission\s*Date[: \t]+([^\n]+)`)
	dischargeDatePattern = regexp.MustCompile(`(?i)Discharge\s*Date[: \t]+([^\n]+)`)

	registrationPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)Registration\s*(?:No|Number)[:\s]+([A-Z]{2}[-\s]?\d{2}[-\s]?[A-Z]{1,2}[-\s]?\d{4})`),
		regexp.MustCompile(`(?i)([A-Z]{2}[-\s]?\d{2}[-\s]?[A-Z]{1,2}[-\s]?\d{4})`),
	}
	enginePattern  = regexp.MustCompile(`(?i)Engine\s*(?:No|Number)[:\s]+([A-Z0-9]+)`)
	chassisPattern = regexp.MustCompile(`(?i)Chassis\s*(?:No|Number)[:\s]+([A-Z0-9]+)`)
)

const (
	providerMinLen   = 5
	providerMaxLen   = 99
	providerMaxLines = 10
)

// dateLayouts are tried in order by ParseDate
var dateLayouts = []string{
	"02-01-2006",
	"02/01/2006",
	"2006-01-02",
	"2006/01/02",
	"02 January 2006",
	"02 Jan 2006",
}

// ParseDate parses a date string in any of the formats the extractor
// recognizes
func ParseDate(s string) (time.Time, bool) {
	s = strings.Join(strings.Fields(s), " ")
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func firstSubmatch(patterns []*regexp.Regexp, text string) string {
	for _, p := range patterns {
		if m := p.FindStringSubmatch(text); m != nil {
			if v := strings.TrimSpace(m[1]); v != "" {
				return v
			}
		}
	}
	return ""
}

func submatch(p *regexp.Regexp, text string) string {
	if m := p.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}
	return ""
}
