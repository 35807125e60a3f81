// Package metadata turns raw HTML into a flat, normalized social/SEO
// metadata record.
//
// The pipeline is split into pure steps so each can be tested alone:
//
//	Extract   → read well-known meta/link tags (and, in full mode, all of them)
//	Normalize → rewrite resource references to absolute URLs
//	Assemble  → merge extractor output, normalized URLs and probe results
package metadata

// Record maps a field name to its value. A field whose source tag or
// attribute does not exist is absent from the map; empty values are never
// stored.
type Record map[string]string

// Set stores value under key, or removes key when value is empty.
func (r Record) Set(key, value string) {
	if value == "" {
		delete(r, key)
		return
	}
	r[key] = value
}

// Get returns the value of key and whether it is present.
func (r Record) Get(key string) (string, bool) {
	v, ok := r[key]
	return v, ok && v != ""
}

// Clone returns a shallow copy of r.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Known field names.
const (
	KeyTitle       = "title"
	KeyDescription = "description"

	KeyOGTitle       = "ogTitle"
	KeyOGDescription = "ogDescription"
	KeyOGImage       = "ogImage"
	KeyOGType        = "ogType"
	KeyOGURL         = "ogUrl"
	KeyOGSiteName    = "ogSiteName"
	KeyOGLocale      = "ogLocale"

	KeyTwitterCard        = "twitterCard"
	KeyTwitterTitle       = "twitterTitle"
	KeyTwitterDescription = "twitterDescription"
	KeyTwitterImage       = "twitterImage"
	KeyTwitterSite        = "twitterSite"
	KeyTwitterCreator     = "twitterCreator"

	KeyCharset    = "charset"
	KeyViewport   = "viewport"
	KeyRobots     = "robots"
	KeyGenerator  = "generator"
	KeyThemeColor = "themeColor"
	KeyLanguage   = "language"

	KeyCanonical = "canonical"
	KeyAlternate = "alternate"
	KeyAuthor    = "author"
	KeyPrev      = "prev"
	KeyNext      = "next"
	KeySearch    = "search"
	KeyIcon      = "icon"
	KeyFavicon   = "favicon"

	KeyMobileApp                = "mobileApp"
	KeyMobileAppURL             = "mobileAppUrl"
	KeyAppleItunesApp           = "appleItunesApp"
	KeyAppleMobileWebAppCapable = "appleMobileWebAppCapable"
	KeyAppleMobileWebAppTitle   = "appleMobileWebAppTitle"
	KeyFormatDetection          = "formatDetection"

	KeyRobotsFile = "robotsFile"
	KeySitemap    = "sitemap"
)

// Prefixes of the dynamic full-mode fields.
const (
	MetaPrefix = "meta_"
	LinkPrefix = "link_"
)
