package validation

import (
	"testing"

	apperrors "github.com/anime-shed/claim-evidence-inspector/internal/errors"
)

func TestValidateEvidenceURL_Sources(t *testing.T) {
	validator := NewURLValidator()

	tests := []struct {
		url      string
		expected SourceKind
	}{
		{"https://example.com/claims/123/bill.jpg", SourceHTTP},
		{"http://192.168.1.1/evidence.png", SourceHTTP},
		{"https://claimsstore.blob.core.windows.net/evidence/photo.jpg", SourceAzure},
		{"HTTPS://ClaimsStore.Blob.Core.Windows.Net/evidence/photo.jpg", SourceAzure},
	}

	for _, tt := range tests {
		kind, err := validator.ValidateEvidenceURL(tt.url)
		if err != nil {
			t.Errorf("Expected %s to be valid, got %v", tt.url, err)
			continue
		}
		if kind != tt.expected {
			t.Errorf("Expected %s for %s, got %s", tt.expected, tt.url, kind)
		}
	}
}

func TestValidateEvidenceURL_Invalid(t *testing.T) {
	validator := NewURLValidator()

	invalid := []string{
		"",
		"   ",
		"ftp://example.com/image.jpg",
		"https:///no-host.jpg",
		"://broken",
	}

	for _, u := range invalid {
		_, err := validator.ValidateEvidenceURL(u)
		if err == nil {
			t.Errorf("Expected %q to be rejected", u)
			continue
		}
		if !apperrors.IsType(err, apperrors.ErrorTypeValidation) {
			t.Errorf("Expected validation error for %q, got %v", u, err)
		}
	}
}

func TestValidateEvidenceURL_HostRestrictions(t *testing.T) {
	validator := NewURLValidatorWithOptions([]string{"https"}, []string{"evidence.example.com", ".blob.core.windows.net"})

	if _, err := validator.ValidateEvidenceURL("https://evidence.example.com/a.jpg"); err != nil {
		t.Errorf("Expected exact host to be allowed, got %v", err)
	}
	if _, err := validator.ValidateEvidenceURL("https://acct.blob.core.windows.net/c/a.jpg"); err != nil {
		t.Errorf("Expected subdomain match to be allowed, got %v", err)
	}
	if _, err := validator.ValidateEvidenceURL("https://other.example.com/a.jpg"); err == nil {
		t.Error("Expected unlisted host to be rejected")
	}
	if _, err := validator.ValidateEvidenceURL("http://evidence.example.com/a.jpg"); err == nil {
		t.Error("Expected http scheme to be rejected")
	}
}
