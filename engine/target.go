package engine

import (
	"net"
	"net/url"
	"strings"

	"github.com/use-agent/golbat/models"
)

// IsLoopback reports whether host names the local machine and should be
// fetched with the DirectEngine.
func IsLoopback(host string) bool {
	host = strings.ToLower(strings.TrimSuffix(host, "."))
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

// FormatTarget turns user input into an absolute URL. Input without a scheme
// gets "http://" when it points at localhost/127.0.0.1 and "https://"
// otherwise.
func FormatTarget(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", models.NewMetadataError(models.ErrCodeInvalidInput, "Please enter a URL", nil)
	}
	lower := strings.ToLower(raw)
	if !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") && !strings.Contains(raw, "://") {
		scheme := "https://"
		if u, err := url.Parse("http://" + raw); err == nil && IsLoopback(u.Hostname()) {
			scheme = "http://"
		}
		raw = scheme + raw
	}
	if _, err := ParseTarget(raw); err != nil {
		return "", err
	}
	return raw, nil
}

// ParseTarget validates that raw is an absolute http(s) URL with a host.
func ParseTarget(raw string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return nil, models.NewMetadataError(models.ErrCodeInvalidInput, "Invalid URL. Check the scheme and domain.", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, models.NewMetadataError(models.ErrCodeInvalidInput, "URL must start with http:// or https://", nil)
	}
	if u.Hostname() == "" {
		return nil, models.NewMetadataError(models.ErrCodeInvalidInput, "URL must include a domain", nil)
	}
	return u, nil
}
