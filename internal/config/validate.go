package config

import (
	"net/url"
)

// ValidateAllowlistURL checks one entry of approvals.allowed_repo_urls:
// it must parse, use https, and carry no embedded userinfo (credentials
// belong in the fetcher's auth configuration, never in a logged URL).
func ValidateAllowlistURL(rawURL string) error {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return &ValidationError{Field: "approvals.allowed_repo_urls", Message: "not a valid URL: " + err.Error()}
	}
	if parsed.Scheme != "https" {
		return &ValidationError{Field: "approvals.allowed_repo_urls", Message: "must use https, got " + parsed.Scheme}
	}
	if parsed.User != nil {
		return &ValidationError{Field: "approvals.allowed_repo_urls", Message: "must not embed credentials in the URL"}
	}
	return nil
}

// MaskCredentialsInURL redacts userinfo (user:pass@) embedded in rawURL
// before it reaches a log line.
func MaskCredentialsInURL(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.User == nil {
		return rawURL
	}
	parsed.User = url.User("***")
	return parsed.String()
}

