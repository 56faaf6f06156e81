package repository

import "errors"

var (
	// ErrInvalidEvidenceURL indicates the URL failed validation
	ErrInvalidEvidenceURL = errors.New("invalid evidence URL")

	// ErrEvidenceNotFound indicates the source has no file at the URL
	ErrEvidenceNotFound = errors.New("evidence not found")

	// ErrSourceUnavailable indicates the source for the URL is not configured
	// or could not be reached
	ErrSourceUnavailable = errors.New("evidence source unavailable")

	// ErrEvidenceTooLarge indicates the file exceeds the upload limit
	ErrEvidenceTooLarge = errors.New("evidence exceeds size limit")
)
