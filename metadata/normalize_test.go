package metadata

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsResourceKey(t *testing.T) {
	tests := []struct {
		key  string
		want bool
	}{
		{KeyOGImage, true},
		{KeyTwitterImage, true},
		{KeyOGURL, true},
		{KeyMobileAppURL, true},
		{KeyIcon, true},
		{KeyFavicon, true},
		{"link_canonical", true},
		{"meta_og_image", true},
		{"meta_HREF_thing", true},
		{KeyTitle, false},
		{KeyCanonical, false},
		{KeyDescription, false},
		{KeyTwitterSite, false},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			assert.Equal(t, tt.want, IsResourceKey(tt.key))
		})
	}
}

func TestBaseURL(t *testing.T) {
	base, err := BaseURL("https://example.com:8443/a/b?q=1#frag")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com:8443", base)

	_, err = BaseURL("/relative/only")
	assert.Error(t, err)
}

func TestAbsolute(t *testing.T) {
	const base = "https://example.com"
	tests := []struct {
		name  string
		value string
		want  string
	}{
		{"already absolute", "https://example.com/x.png", "https://example.com/x.png"},
		{"other host absolute", "http://cdn.example.net/x.png", "http://cdn.example.net/x.png"},
		{"root relative", "/img.png", "https://example.com/img.png"},
		{"path relative gets slash", "img.png", "https://example.com/img.png"},
		{"protocol relative", "//cdn.example.net/x.png", "https://cdn.example.net/x.png"},
		{"http prefix without scheme", "httpfoo", "https://example.com/httpfoo"},
		{"data uri", "data:image/png;base64,AAAA", "data:image/png;base64,AAAA"},
		{"uppercase scheme", "HTTPS://cdn.example.net/x.png", "HTTPS://cdn.example.net/x.png"},
		{"javascript is not a resource", "javascript:alert(1)", "https://example.com/javascript:alert(1)"},
		{"mailto is not a resource", "mailto:x@y.z", "https://example.com/mailto:x@y.z"},
		{"app deep link", "example://open", "https://example.com/example://open"},
		{"colon in relative path", "img:v2.png", "https://example.com/img:v2.png"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Absolute(base, "https", tt.value))
		})
	}
}

func TestNormalize(t *testing.T) {
	rec := Record{
		KeyTitle:        "Hello",
		KeyOGImage:      "/og.png",
		KeyTwitterImage: "tw.png",
		KeyOGURL:        "https://example.com/page",
		KeyFavicon:      "/favicon.png",
		KeyCanonical:    "/canonical",
		"link_icon":     "icons/a.png",
	}

	got, err := Normalize(rec, "https://example.com/deep/path?x=1")
	require.NoError(t, err)

	assert.Equal(t, Record{
		KeyOGImage:      "https://example.com/og.png",
		KeyTwitterImage: "https://example.com/tw.png",
		KeyFavicon:      "https://example.com/favicon.png",
		"link_icon":     "https://example.com/icons/a.png",
	}, got)

	// Input is untouched.
	assert.Equal(t, "/og.png", rec[KeyOGImage])
}

func TestNormalize_Idempotent(t *testing.T) {
	rec := Record{KeyOGImage: "/og.png", KeyIcon: "https://example.com/x.png"}

	first, err := Normalize(rec, "https://example.com")
	require.NoError(t, err)
	merged := Assemble(rec, first, nil)

	second, err := Normalize(merged, "https://other.example")
	require.NoError(t, err)
	assert.Empty(t, second)
}

func TestNormalize_InvalidOrigin(t *testing.T) {
	_, err := Normalize(Record{KeyOGImage: "/x.png"}, "not a url")
	assert.Error(t, err)
}

func TestAssemble_Precedence(t *testing.T) {
	extracted := Record{KeyTitle: "T", KeyOGImage: "/og.png", KeyFavicon: "/f.png"}
	normalized := Record{KeyOGImage: "https://h/og.png", KeyFavicon: "https://h/f.png"}
	probed := map[string]string{KeyRobotsFile: "https://h/robots.txt", KeySitemap: ""}

	got := Assemble(extracted, normalized, probed)

	assert.Equal(t, Record{
		KeyTitle:      "T",
		KeyOGImage:    "https://h/og.png",
		KeyFavicon:    "https://h/f.png",
		KeyRobotsFile: "https://h/robots.txt",
	}, got)
	assert.Equal(t, "/og.png", extracted[KeyOGImage])
}

func TestNormalize_NonHTTPReferencesStayUnderOrigin(t *testing.T) {
	rec := Record{
		KeyOGImage:   "javascript:alert(1)",
		KeyFavicon:   "mailto:x@y.z",
		KeyIcon:      "data:image/png;base64,AAAA",
		"link_image": "img:v2.png",
	}

	got, err := Normalize(rec, "https://example.com")
	require.NoError(t, err)

	assert.Equal(t, Record{
		KeyOGImage:   "https://example.com/javascript:alert(1)",
		KeyFavicon:   "https://example.com/mailto:x@y.z",
		"link_image": "https://example.com/img:v2.png",
	}, got)
}
