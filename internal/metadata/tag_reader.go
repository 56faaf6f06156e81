package metadata

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/anime-shed/claim-evidence-inspector/internal/analyzer"
	"github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/tiff"
)

// TagReader returns the descriptive tags embedded in an image
type TagReader interface {
	// ReadTags returns an empty map for images without a tag segment and an
	// error only when the bytes are not a readable image.
	ReadTags(data []byte) (map[string]string, error)
}

type exifTagReader struct{}

// NewExifTagReader creates a TagReader backed by EXIF decoding
func NewExifTagReader() TagReader {
	return &exifTagReader{}
}

func (r *exifTagReader) ReadTags(data []byte) (map[string]string, error) {
	if _, _, err := analyzer.DecodeConfig(data); err != nil {
		return nil, fmt.Errorf("unreadable image: %w", err)
	}

	tags := make(map[string]string)
	x, err := exif.Decode(bytes.NewReader(data))
	if x == nil || (err != nil && exif.IsCriticalError(err)) {
		// No usable EXIF segment (PNG, stripped JPEG, ...)
		return tags, nil
	}

	if err := x.Walk(tagCollector(tags)); err != nil {
		return nil, fmt.Errorf("failed to walk exif tags: %w", err)
	}
	return tags, nil
}

type tagCollector map[string]string

func (c tagCollector) Walk(name exif.FieldName, tag *tiff.Tag) error {
	switch tag.Format() {
	case tiff.StringVal:
		if s, err := tag.StringVal(); err == nil {
			c[string(name)] = strings.TrimSpace(strings.TrimRight(s, "\x00"))
			return nil
		}
	case tiff.UndefVal:
		c[string(name)] = fmt.Sprintf("<%d bytes>", tag.Count)
		return nil
	}
	c[string(name)] = strings.Trim(tag.String(), "\"")
	return nil
}
