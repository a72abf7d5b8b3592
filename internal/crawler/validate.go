package crawler

import (
	"net"
	"net/url"
	"regexp"
	"strings"
)

// hostRe accepts dotted hostnames with an alphabetic top-level label.
var hostRe = regexp.MustCompile(`^([a-zA-Z0-9-]+\.)*[a-zA-Z0-9-]+\.[a-zA-Z]{2,}$`)

// hostDenylist rejects generic infra/CDN/social hosts that leak into crawls
// through tracking pixels and embed widgets.
var hostDenylist = []string{"localhost", "twitter", "cloudflare"}

// IsValidURL reports whether a crawled URL should be included in the final
// found list. It rejects URLs with an empty or malformed host and anything on
// the host denylist. IP literals are accepted so crawls against raw addresses
// still report their pages.
func IsValidURL(raw string) bool {
	parsed, err := url.Parse(raw)
	if err != nil {
		return false
	}
	if parsed.Host == "" && !strings.Contains(raw, "://") {
		// Scheme-less URL, retry with one so the host parses.
		parsed, err = url.Parse("https://" + raw)
		if err != nil {
			return false
		}
	}

	hostname := parsed.Hostname()
	if hostname == "" {
		return false
	}
	for _, deny := range hostDenylist {
		if strings.Contains(hostname, deny) {
			return false
		}
	}
	if net.ParseIP(hostname) != nil {
		return true
	}
	return hostRe.MatchString(hostname)
}
