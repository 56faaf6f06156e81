package validation

import (
	"net/url"
	"strings"

	apperrors "github.com/anime-shed/claim-evidence-inspector/internal/errors"
)

// SourceKind identifies where remote evidence is stored
type SourceKind string

const (
	SourceHTTP  SourceKind = "http"
	SourceAzure SourceKind = "azure"
)

const azureBlobHostSuffix = ".blob.core.windows.net"

// URLValidator checks remote evidence locations before they are fetched
type URLValidator struct {
	allowedSchemes []string
	allowedHosts   []string
}

// NewURLValidator allows any http(s) host
func NewURLValidator() *URLValidator {
	return &URLValidator{
		allowedSchemes: []string{"http", "https"},
	}
}

// NewURLValidatorWithOptions restricts schemes and hosts. A host entry that
// starts with "." matches any subdomain.
func NewURLValidatorWithOptions(schemes []string, hosts []string) *URLValidator {
	return &URLValidator{
		allowedSchemes: schemes,
		allowedHosts:   hosts,
	}
}

// ValidateEvidenceURL validates the URL and reports which source serves it
func (v *URLValidator) ValidateEvidenceURL(evidenceURL string) (SourceKind, error) {
	if strings.TrimSpace(evidenceURL) == "" {
		return "", apperrors.NewValidationError("URL cannot be empty", nil)
	}

	parsedURL, err := url.Parse(evidenceURL)
	if err != nil {
		return "", apperrors.NewValidationError("Invalid URL format", err)
	}
	if !v.isSchemeAllowed(parsedURL.Scheme) {
		return "", apperrors.NewValidationError("URL scheme not allowed", nil)
	}
	if parsedURL.Host == "" {
		return "", apperrors.NewValidationError("URL must have a valid host", nil)
	}
	if !v.isHostAllowed(parsedURL.Hostname()) {
		return "", apperrors.NewValidationError("URL host not allowed", nil)
	}

	if strings.HasSuffix(strings.ToLower(parsedURL.Hostname()), azureBlobHostSuffix) {
		return SourceAzure, nil
	}
	return SourceHTTP, nil
}

func (v *URLValidator) isSchemeAllowed(scheme string) bool {
	for _, allowed := range v.allowedSchemes {
		if strings.EqualFold(scheme, allowed) {
			return true
		}
	}
	return false
}

func (v *URLValidator) isHostAllowed(host string) bool {
	if len(v.allowedHosts) == 0 {
		return true
	}
	host = strings.ToLower(host)
	for _, allowed := range v.allowedHosts {
		allowed = strings.ToLower(allowed)
		if host == allowed || (strings.HasPrefix(allowed, ".") && strings.HasSuffix(host, allowed)) {
			return true
		}
	}
	return false
}
