package dbmcp

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"
)

const (
	// EnvAPIBaseURL names the environment variable selecting the upstream
	// Managed DB API base URL.
	EnvAPIBaseURL = "MANAGED_DB_API_URL"
	// DefaultAPIBaseURL is used when EnvAPIBaseURL is unset.
	DefaultAPIBaseURL = "http://localhost:8080/api"
	// DefaultHTTPTimeout bounds each outbound request to the Managed DB API.
	DefaultHTTPTimeout = 30 * time.Second
)

// APIBaseURLFromEnv resolves the upstream base URL from the environment,
// falling back to DefaultAPIBaseURL.
func APIBaseURLFromEnv() string {
	if v := strings.TrimSpace(os.Getenv(EnvAPIBaseURL)); v != "" {
		return v
	}
	return DefaultAPIBaseURL
}

// NormalizeBaseURL validates and canonicalizes an upstream base URL. Trailing
// slashes are stripped so endpoint paths can be appended verbatim.
func NormalizeBaseURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("dbmcp: api base url required")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("dbmcp: parse api base url %q: %w", raw, err)
	}
	switch u.Scheme {
	case "http", "https":
	default:
		return "", fmt.Errorf("dbmcp: api base url %q must use http or https", raw)
	}
	if u.Host == "" {
		return "", fmt.Errorf("dbmcp: api base url %q missing host", raw)
	}
	u.Path = strings.TrimRight(u.Path, "/")
	u.Fragment = ""
	u.RawQuery = ""
	return u.String(), nil
}
