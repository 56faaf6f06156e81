package repository

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/anime-shed/claim-evidence-inspector/internal/storage"
	"github.com/anime-shed/claim-evidence-inspector/pkg/validation"
)

// EvidenceRepository defines data access for remote evidence files
type EvidenceRepository interface {
	// Fetch validates the URL and downloads the file from the matching source
	Fetch(ctx context.Context, evidenceURL string) ([]byte, error)

	// Validate checks the URL and reports which source would serve it
	Validate(evidenceURL string) (validation.SourceKind, error)

	// Sources lists the configured source kinds
	Sources() []validation.SourceKind
}

type evidenceRepository struct {
	validator *validation.URLValidator
	fetchers  map[validation.SourceKind]storage.EvidenceFetcher
}

// NewEvidenceRepository dispatches by source kind. A nil azure fetcher makes
// blob URLs fail with ErrSourceUnavailable.
func NewEvidenceRepository(validator *validation.URLValidator, httpFetcher, azureFetcher storage.EvidenceFetcher) EvidenceRepository {
	fetchers := map[validation.SourceKind]storage.EvidenceFetcher{}
	if httpFetcher != nil {
		fetchers[validation.SourceHTTP] = httpFetcher
	}
	if azureFetcher != nil {
		fetchers[validation.SourceAzure] = azureFetcher
	}
	return &evidenceRepository{validator: validator, fetchers: fetchers}
}

func (r *evidenceRepository) Validate(evidenceURL string) (validation.SourceKind, error) {
	kind, err := r.validator.ValidateEvidenceURL(evidenceURL)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidEvidenceURL, err)
	}
	return kind, nil
}

func (r *evidenceRepository) Sources() []validation.SourceKind {
	var kinds []validation.SourceKind
	for _, k := range []validation.SourceKind{validation.SourceHTTP, validation.SourceAzure} {
		if _, ok := r.fetchers[k]; ok {
			kinds = append(kinds, k)
		}
	}
	return kinds
}

func (r *evidenceRepository) Fetch(ctx context.Context, evidenceURL string) ([]byte, error) {
	kind, err := r.Validate(evidenceURL)
	if err != nil {
		return nil, err
	}

	fetcher, ok := r.fetchers[kind]
	if !ok {
		return nil, fmt.Errorf("%w: no %s source configured", ErrSourceUnavailable, kind)
	}

	data, err := fetcher.Fetch(ctx, evidenceURL)
	if err != nil {
		return nil, classifyFetchError(err)
	}
	return data, nil
}

func classifyFetchError(err error) error {
	var statusErr *storage.StatusError
	var tooLarge *storage.TooLargeError
	switch {
	case errors.As(err, &statusErr) && (statusErr.Code == http.StatusNotFound || statusErr.Code == http.StatusGone):
		return fmt.Errorf("%w: %w", ErrEvidenceNotFound, err)
	case storage.IsBlobNotFound(err):
		return fmt.Errorf("%w: %w", ErrEvidenceNotFound, err)
	case errors.As(err, &tooLarge):
		return fmt.Errorf("%w: %w", ErrEvidenceTooLarge, err)
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled):
		return err
	default:
		return fmt.Errorf("%w: %w", ErrSourceUnavailable, err)
	}
}
