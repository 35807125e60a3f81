package metadata

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
)

// field reads one known key from the first element matched by its selector.
type field struct {
	key   string
	attr  string
	match goquery.Matcher
}

func newField(key, attr, selector string) field {
	return field{key: key, attr: attr, match: cascadia.MustCompile(selector)}
}

func metaName(key, name string) field {
	return newField(key, "content", `meta[name="`+name+`"]`)
}

func metaProperty(key, property string) field {
	return newField(key, "content", `meta[property="`+property+`"]`)
}

func linkRel(key, rel string) field {
	return newField(key, "href", `link[rel="`+rel+`"]`)
}

var knownFields = []field{
	metaName(KeyDescription, "description"),

	metaProperty(KeyOGTitle, "og:title"),
	metaProperty(KeyOGDescription, "og:description"),
	metaProperty(KeyOGImage, "og:image"),
	metaProperty(KeyOGType, "og:type"),
	metaProperty(KeyOGURL, "og:url"),
	metaProperty(KeyOGSiteName, "og:site_name"),
	metaProperty(KeyOGLocale, "og:locale"),

	metaName(KeyTwitterCard, "twitter:card"),
	metaName(KeyTwitterTitle, "twitter:title"),
	metaName(KeyTwitterDescription, "twitter:description"),
	metaName(KeyTwitterImage, "twitter:image"),
	metaName(KeyTwitterSite, "twitter:site"),
	metaName(KeyTwitterCreator, "twitter:creator"),

	newField(KeyCharset, "charset", `meta[charset]`),
	metaName(KeyViewport, "viewport"),
	metaName(KeyRobots, "robots"),
	metaName(KeyGenerator, "generator"),
	metaName(KeyThemeColor, "theme-color"),
	newField(KeyLanguage, "lang", `html`),

	linkRel(KeyCanonical, "canonical"),
	linkRel(KeyAlternate, "alternate"),
	linkRel(KeyAuthor, "author"),
	linkRel(KeyPrev, "prev"),
	linkRel(KeyNext, "next"),
	linkRel(KeySearch, "search"),
	linkRel(KeyIcon, "icon"),
	// Whichever icon relation appears first in the document wins.
	newField(KeyFavicon, "href", `link[rel="icon"], link[rel="shortcut icon"], `+
		`link[rel="apple-touch-icon"], link[rel="apple-touch-icon-precomposed"], `+
		`link[rel="mask-icon"], link[rel="fluid-icon"]`),

	metaName(KeyMobileApp, "apple-itunes-app"),
	metaName(KeyMobileAppURL, "al:ios:url"),
	metaName(KeyAppleItunesApp, "apple-itunes-app"),
	metaName(KeyAppleMobileWebAppCapable, "apple-mobile-web-app-capable"),
	metaName(KeyAppleMobileWebAppTitle, "apple-mobile-web-app-title"),
	metaName(KeyFormatDetection, "format-detection"),
}

var (
	titleMatcher        = cascadia.MustCompile(`head title`)
	ogTitleMatcher      = cascadia.MustCompile(`meta[property="og:title"]`)
	twitterTitleMatcher = cascadia.MustCompile(`meta[name="twitter:title"]`)
	httpEquivMatcher    = cascadia.MustCompile(`meta[http-equiv]`)
)

// Extract parses rawHTML and reads the known metadata fields. When full is
// set, every <meta> and <link> element is additionally emitted as a
// meta_<name> / link_<rel> field. Extract never fails: malformed markup is
// read best-effort and missing tags simply leave their field absent.
func Extract(rawHTML string, full bool) Record {
	rec := Record{}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return rec
	}

	rec.Set(KeyTitle, resolveTitle(doc))

	for _, f := range knownFields {
		rec.Set(f.key, firstAttr(doc, f.match, f.attr))
	}
	if _, ok := rec.Get(KeyCharset); !ok {
		rec.Set(KeyCharset, contentTypeCharset(doc))
	}

	if full {
		extractAll(doc, rec)
	}

	return rec
}

// resolveTitle returns the first non-empty cleaned candidate among the
// document title, og:title and twitter:title.
func resolveTitle(doc *goquery.Document) string {
	if t := CleanText(doc.FindMatcher(titleMatcher).First().Text()); t != "" {
		return t
	}
	if t := CleanText(firstAttr(doc, ogTitleMatcher, "content")); t != "" {
		return t
	}
	return CleanText(firstAttr(doc, twitterTitleMatcher, "content"))
}

// firstAttr reads attr from the first element matched by m only; a later
// element carrying the attribute is not consulted.
func firstAttr(doc *goquery.Document, m goquery.Matcher, attr string) string {
	v, _ := doc.FindMatcher(m).First().Attr(attr)
	return v
}

// contentTypeCharset reads the content of the first
// <meta http-equiv="Content-Type">, matching the header name
// case-insensitively as browsers do.
func contentTypeCharset(doc *goquery.Document) string {
	var v string
	doc.FindMatcher(httpEquivMatcher).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if equiv, _ := s.Attr("http-equiv"); strings.EqualFold(equiv, "content-type") {
			v, _ = s.Attr("content")
			return false
		}
		return true
	})
	return v
}

// extractAll emits every meta and link element under a derived key. Later
// elements overwrite earlier ones that derive the same key.
func extractAll(doc *goquery.Document, rec Record) {
	doc.Find("meta").Each(func(_ int, s *goquery.Selection) {
		name := firstNonEmptyAttr(s, "name", "property", "http-equiv")
		content, _ := s.Attr("content")
		if name == "" || content == "" {
			return
		}
		rec.Set(MetaPrefix+DynamicKey(name), content)
	})

	doc.Find("link").Each(func(_ int, s *goquery.Selection) {
		rel, _ := s.Attr("rel")
		href, _ := s.Attr("href")
		if rel == "" || href == "" {
			return
		}
		rec.Set(LinkPrefix+DynamicKey(rel), href)
	})
}

func firstNonEmptyAttr(s *goquery.Selection, attrs ...string) string {
	for _, a := range attrs {
		if v, _ := s.Attr(a); v != "" {
			return v
		}
	}
	return ""
}

var dynamicKeyReplacer = strings.NewReplacer(":", "_", ".", "_")

// DynamicKey derives the suffix of a full-mode field from a meta name or
// link rel: "fb:app_id" → "fb_app_id".
func DynamicKey(name string) string {
	return dynamicKeyReplacer.Replace(name)
}
