// File: internal/browser/validate.go
package browser

import (
	"fmt"
	"net"
	"net/url"
	"strings"
)

// privateRanges is parsed once at init for the target checks below.
var privateRanges []*net.IPNet

func init() {
	for _, cidr := range []string{
		"127.0.0.0/8",    // IPv4 loopback
		"10.0.0.0/8",     // RFC 1918
		"172.16.0.0/12",  // RFC 1918
		"192.168.0.0/16", // RFC 1918
		"169.254.0.0/16", // link-local / cloud metadata
		"0.0.0.0/8",      // unspecified
		"::1/128",        // IPv6 loopback
		"fc00::/7",       // IPv6 unique local
		"fe80::/10",      // IPv6 link-local
	} {
		_, ipNet, _ := net.ParseCIDR(cidr)
		privateRanges = append(privateRanges, ipNet)
	}
}

func isPrivateIP(ip net.IP) bool {
	if ip.IsUnspecified() || ip.IsLoopback() {
		return true
	}
	for _, cidr := range privateRanges {
		if cidr.Contains(ip) {
			return true
		}
	}
	return false
}

// ValidateTarget rejects URLs the capture workflow must never drive a
// browser to: non-http(s) schemes and local or private-range hosts. Only
// literal addresses are checked; hostname resolution is left to the browser.
func ValidateTarget(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid target URL %q: %w", rawURL, err)
	}

	switch u.Scheme {
	case "http", "https":
	default:
		return fmt.Errorf("unsupported scheme %q in target %q", u.Scheme, rawURL)
	}

	host := u.Hostname()
	if host == "" {
		return fmt.Errorf("target %q has no host", rawURL)
	}

	lower := strings.ToLower(host)
	if lower == "localhost" || strings.HasSuffix(lower, ".localhost") {
		return fmt.Errorf("refusing local target host %q", host)
	}
	if ip := net.ParseIP(host); ip != nil && isPrivateIP(ip) {
		return fmt.Errorf("refusing private or loopback target %q", host)
	}
	return nil
}
