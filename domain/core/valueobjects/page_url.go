package valueobjects

import (
	"net/url"
	"strings"
)

// DomainUnknown is the domain label used when a URL cannot be parsed
const DomainUnknown = "unknown"

// PageURL is a value object wrapping a visited URL together with its
// canonical form. Normalization strips the fragment and a trailing slash
// on the path; query parameters are kept as reported, so two URLs that
// differ only in tracking parameters stay distinct visits.
type PageURL struct {
	raw        string
	normalized string
	domain     string
}

// NewPageURL parses and canonicalizes a raw URL. Parsing never fails the
// caller: a malformed URL keeps its raw string as the canonical form and
// reports the domain as "unknown".
func NewPageURL(raw string) PageURL {
	u, err := url.Parse(raw)
	if err != nil {
		return PageURL{raw: raw, normalized: raw, domain: DomainUnknown}
	}

	u.Fragment = ""
	u.RawFragment = ""
	u.Path = strings.TrimSuffix(u.Path, "/")

	domain := strings.TrimPrefix(u.Hostname(), "www.")
	if domain == "" {
		domain = DomainUnknown
	}

	return PageURL{
		raw:        raw,
		normalized: u.String(),
		domain:     domain,
	}
}

// Raw returns the URL as reported by the browser
func (u PageURL) Raw() string {
	return u.raw
}

// Normalized returns the canonical form of the URL
func (u PageURL) Normalized() string {
	return u.normalized
}

// Domain returns the hostname with a leading "www." stripped, or
// "unknown" when the URL has no usable host
func (u PageURL) Domain() string {
	return u.domain
}

// Equals reports whether two URLs canonicalize to the same page
func (u PageURL) Equals(other PageURL) bool {
	return u.normalized == other.normalized
}

// IsZero checks if the PageURL is the zero value
func (u PageURL) IsZero() bool {
	return u.raw == "" && u.normalized == ""
}
