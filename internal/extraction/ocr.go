package extraction

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"

	apperrors "github.com/anime-shed/claim-evidence-inspector/internal/errors"
	"github.com/otiai10/gosseract/v2"
)

// Word is a recognized word and its position on the page
type Word struct {
	Text       string          `json:"text"`
	Box        image.Rectangle `json:"box"`
	Confidence float64         `json:"confidence"`
}

// OCRText is the output of a recognition pass
type OCRText struct {
	Text  string
	Words []Word
}

// OCREngine recognizes text in a preprocessed page image
type OCREngine interface {
	Recognize(ctx context.Context, img image.Image) (OCRText, error)
}

// TesseractEngine runs recognition through libtesseract
type TesseractEngine struct {
	language string
}

// NewTesseractEngine creates an engine for the given tesseract language code
func NewTesseractEngine(language string) *TesseractEngine {
	if language == "" {
		language = "eng"
	}
	return &TesseractEngine{language: language}
}

// Language returns the configured recognition language
func (e *TesseractEngine) Language() string {
	return e.language
}

// Recognize encodes the image as PNG and hands it to a fresh client. Clients
// are not safe for concurrent use, so one is created per call.
func (e *TesseractEngine) Recognize(ctx context.Context, img image.Image) (OCRText, error) {
	if err := ctx.Err(); err != nil {
		return OCRText{}, err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return OCRText{}, fmt.Errorf("failed to encode page: %w", err)
	}

	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(e.language); err != nil {
		return OCRText{}, fmt.Errorf("failed to set language %q: %w", e.language, err)
	}
	if err := client.SetImageFromBytes(buf.Bytes()); err != nil {
		return OCRText{}, fmt.Errorf("failed to load page: %w", err)
	}

	text, err := client.Text()
	if err != nil {
		return OCRText{}, apperrors.NewExtractionFailure("recognition failed", err)
	}

	out := OCRText{Text: text}
	boxes, err := client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		// Word positions are optional
		return out, nil
	}
	out.Words = make([]Word, 0, len(boxes))
	for _, b := range boxes {
		out.Words = append(out.Words, Word{Text: b.Word, Box: b.Box, Confidence: b.Confidence})
	}
	return out, nil
}
