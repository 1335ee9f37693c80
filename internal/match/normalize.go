// Package match implements the string heuristics behind competitor and
// product comparison: domain normalization, name similarity, and the
// tenant-vs-competitor product matcher.
package match

import (
	"net/url"
	"regexp"
	"strings"
	"unicode"
)

// hostnamePattern accepts a bare hostname: alphanumeric start, alnum/dot/
// hyphen body, and a final TLD of at least two letters.
var hostnamePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9.-]*\.[a-z]{2,}$`)

// NormalizeDomain canonicalizes a free-text URL or website string into a
// bare lowercase hostname for comparison and deduplication. It returns ""
// for empty input, input containing whitespace, or anything that does not
// reduce to a plausible hostname. Hostnames are lowercased uniformly; DNS
// names are case-insensitive, so dedup stays deterministic.
func NormalizeDomain(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}
	if strings.ContainsFunc(s, unicode.IsSpace) {
		return ""
	}

	host := hostFromURL(s)
	if host == "" {
		host = hostFromText(s)
	}

	host = strings.TrimPrefix(strings.ToLower(host), "www.")
	if !hostnamePattern.MatchString(host) {
		return ""
	}
	return host
}

// hostFromURL parses the input as a URL, prefixing https:// when no scheme
// is present, and returns the hostname. Empty on parse failure.
func hostFromURL(s string) string {
	candidate := s
	if !strings.Contains(candidate, "://") {
		candidate = "https://" + candidate
	}
	u, err := url.Parse(candidate)
	if err != nil {
		return ""
	}
	return u.Hostname()
}

// hostFromText is the textual fallback: strip a leading http(s):// and
// www., then take the segment before the first slash.
func hostFromText(s string) string {
	s = strings.TrimPrefix(s, "https://")
	s = strings.TrimPrefix(s, "http://")
	s = strings.TrimPrefix(s, "www.")
	if i := strings.IndexByte(s, '/'); i >= 0 {
		s = s[:i]
	}
	return s
}
