// Package normalize turns raw source records into canonical text and links.
package normalize

import (
	"html"
	"net/url"
	"regexp"
	"strings"
)

var (
	whitespaceExpr = regexp.MustCompile(`\s+`)
	tagExpr        = regexp.MustCompile(`<[^>]*>`)
)

// Tracking query parameters stripped during link canonicalization.
var trackingParams = []string{
	"utm_source", "utm_medium", "utm_campaign", "utm_term", "utm_content",
	"ref", "source",
}

// Text trims and collapses all runs of whitespace into single spaces.
func Text(value string) string {
	return strings.TrimSpace(whitespaceExpr.ReplaceAllString(value, " "))
}

// StripHTML removes markup, then decodes entities and collapses whitespace.
// Tags go first so escaped markup in the source text survives as text.
func StripHTML(value string) string {
	return Text(html.UnescapeString(tagExpr.ReplaceAllString(value, " ")))
}

// CanonicalLink canonicalizes a link: tracking query parameters, the URL
// fragment, and any trailing slash are removed. The result is idempotent:
// CanonicalLink(CanonicalLink(x)) == CanonicalLink(x).
//
// An unparseable value falls back to trimming the trailing slash only.
func CanonicalLink(raw string) string {
	value := strings.TrimSpace(raw)
	if value == "" {
		return ""
	}

	u, err := url.Parse(value)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return strings.TrimSuffix(value, "/")
	}

	q := u.Query()
	for _, param := range trackingParams {
		q.Del(param)
	}
	u.RawQuery = q.Encode()
	u.Fragment = ""

	return strings.TrimSuffix(u.String(), "/")
}

// ResolveURL resolves a possibly relative reference against base. Returns ""
// when the reference cannot be resolved to an absolute URL.
func ResolveURL(base, ref string) string {
	ref = Text(ref)
	if ref == "" {
		return ""
	}

	baseURL, err := url.Parse(base)
	if err != nil {
		return ""
	}
	refURL, err := url.Parse(ref)
	if err != nil {
		return ""
	}

	resolved := baseURL.ResolveReference(refURL)
	if resolved.Scheme == "" || resolved.Host == "" {
		return ""
	}
	return resolved.String()
}
