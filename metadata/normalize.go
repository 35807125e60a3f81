package metadata

import (
	"fmt"
	"net/url"
	"strings"
)

// resourceKeyMarkers select the fields whose values are resource references.
var resourceKeyMarkers = []string{"image", "icon", "url", "href", "link"}

// IsResourceKey reports whether the field named key holds a URL that must be
// made absolute. Matching is a case-insensitive substring test on the key.
func IsResourceKey(key string) bool {
	lower := strings.ToLower(key)
	for _, m := range resourceKeyMarkers {
		if strings.Contains(lower, m) {
			return true
		}
	}
	return false
}

// BaseURL returns "scheme://host" of origin, dropping path, query and fragment.
func BaseURL(origin string) (string, error) {
	u, err := url.Parse(origin)
	if err != nil {
		return "", fmt.Errorf("metadata: parse origin: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("metadata: origin %q is not absolute", origin)
	}
	return u.Scheme + "://" + u.Host, nil
}

// Normalize returns, for every resource field of rec whose value is not
// already absolute, the absolute URL relative to origin. Only rewritten
// fields are returned; rec itself is never modified. Normalizing an
// already-absolute value is a no-op, so Normalize is idempotent.
func Normalize(rec Record, origin string) (Record, error) {
	base, err := BaseURL(origin)
	if err != nil {
		return nil, err
	}
	scheme := base[:strings.Index(base, ":")]

	out := Record{}
	for key, value := range rec {
		if value == "" || !IsResourceKey(key) {
			continue
		}
		if abs := Absolute(base, scheme, value); abs != value {
			out[key] = abs
		}
	}
	return out, nil
}

// Absolute resolves value against base ("scheme://host"). Only http(s) URLs
// and inline data: URIs pass through unchanged; protocol-relative values
// ("//cdn.example.com/x.png") inherit scheme. Anything else, including
// javascript: or mailto: references, is treated as a path under base.
func Absolute(base, scheme, value string) string {
	switch {
	case isAbsolute(value):
		return value
	case strings.HasPrefix(value, "//"):
		return scheme + ":" + value
	case strings.HasPrefix(value, "/"):
		return base + value
	default:
		return base + "/" + value
	}
}

var absolutePrefixes = []string{"http://", "https://", "data:"}

// isAbsolute reports whether value starts with one of absolutePrefixes,
// ignoring case.
func isAbsolute(value string) bool {
	for _, prefix := range absolutePrefixes {
		if len(value) >= len(prefix) && strings.EqualFold(value[:len(prefix)], prefix) {
			return true
		}
	}
	return false
}
