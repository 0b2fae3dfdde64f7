package joburl

import (
	"fmt"
	"net/url"
	"strings"
)

// Tracking query parameters stripped during normalization.
var trackingParams = map[string]bool{
	"ref":        true,
	"source":     true,
	"refId":      true,
	"trk":        true,
	"trackingId": true,
}

// Normalize canonicalizes a job posting URL so that claims, duplicate
// detection and blacklist matching all key on the same string.
//
// Lowercases scheme and host, strips default ports, drops the fragment,
// removes tracking query parameters (utm_* and common referral keys) and
// trims a trailing slash from the path.
func Normalize(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("empty url")
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("parse url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return "", fmt.Errorf("missing host")
	}

	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)

	// Strip default ports
	if u.Scheme == "http" {
		u.Host = strings.TrimSuffix(u.Host, ":80")
	} else {
		u.Host = strings.TrimSuffix(u.Host, ":443")
	}

	u.Fragment = ""

	// Drop tracking params, keep the rest in stable order
	if u.RawQuery != "" {
		q := u.Query()
		for key := range q {
			if trackingParams[key] || strings.HasPrefix(key, "utm_") {
				q.Del(key)
			}
		}
		u.RawQuery = q.Encode()
	}

	u.Path = strings.TrimSuffix(u.Path, "/")

	return u.String(), nil
}

// Host returns the lowercased host of a job URL without port, or ""
// if the URL does not parse.
func Host(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return ""
	}
	host := strings.ToLower(u.Host)
	if i := strings.IndexByte(host, ':'); i >= 0 {
		host = host[:i]
	}
	return host
}

// ContainsDomain reports whether the normalized URL matches a blacklist
// domain entry. The entry matches if it is a substring of the full URL
// (case-insensitive), so "acme.com" matches "https://jobs.acme.com/1"
// and "https://boards.example.com/jobs/acme.com/1" alike.
func ContainsDomain(rawURL, domain string) bool {
	domain = strings.ToLower(strings.TrimSpace(domain))
	if domain == "" {
		return false
	}
	return strings.Contains(strings.ToLower(rawURL), domain)
}
