package classifier

import "strings"

type vocabulary map[string]struct{}

func newVocabulary(words ...string) vocabulary {
	v := make(vocabulary, len(words))
	for _, w := range words {
		v[w] = struct{}{}
	}
	return v
}

var (
	medicalVocabulary = newVocabulary(
		"hospital", "patient", "diagnosis", "treatment", "doctor", "medical",
		"discharge", "admission", "prescription", "bill", "invoice", "amount",
	)
	vehicleVocabulary = newVocabulary(
		"vehicle", "registration", "engine", "chassis", "owner", "model",
		"license", "rc", "rto", "insurance",
	)
	propertyVocabulary = newVocabulary(
		"property", "owner", "deed", "title", "address", "premises",
		"building", "plot", "survey",
	)
	financialVocabulary = newVocabulary(
		"total", "amount", "paid", "due", "invoice", "bill", "receipt",
		"payment", "date", "number", "tax", "gst",
	)
)

// TextStats are the word and keyword counts of OCR text
type TextStats struct {
	WordCount int
	Medical   int
	Vehicle   int
	Property  int
	Financial int
}

// CountKeywords splits on whitespace and counts exact lowercase matches.
// Tokens with attached punctuation ("Total:") do not match.
func CountKeywords(text string) TextStats {
	words := strings.Fields(text)
	stats := TextStats{WordCount: len(words)}
	for _, w := range words {
		w = strings.ToLower(w)
		if _, ok := medicalVocabulary[w]; ok {
			stats.Medical++
		}
		if _, ok := vehicleVocabulary[w]; ok {
			stats.Vehicle++
		}
		if _, ok := propertyVocabulary[w]; ok {
			stats.Property++
		}
		if _, ok := financialVocabulary[w]; ok {
			stats.Financial++
		}
	}
	return stats
}
