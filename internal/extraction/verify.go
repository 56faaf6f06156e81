package extraction

import (
	"math"
	"strings"

	"github.com/anime-shed/claim-evidence-inspector/pkg/models"
	"github.com/arbovm/levenshtein"
	"github.com/codycollier/wer"
)

// VerifyText compares recognized text with the text the caller declared.
// Both sides are lowercased and whitespace-normalized before comparison.
func VerifyText(extracted, expected string) models.TextVerification {
	ref := normalizeText(expected)
	hyp := normalizeText(extracted)

	v := models.TextVerification{ExpectedText: expected}
	refWords := strings.Fields(ref)
	if len(refWords) == 0 {
		if hyp == "" {
			v.MatchScore = 1
		}
		return v
	}

	v.WordErrors, v.WER = wer.WER(refWords, strings.Fields(hyp))
	v.WER = round4(v.WER)

	v.CER = round4(float64(levenshtein.Distance(ref, hyp)) / float64(len([]rune(ref))))
	v.MatchScore = round4(math.Max(0, 1-v.CER))
	return v
}

func normalizeText(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
