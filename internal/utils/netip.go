package utils

import (
	"net"
	"net/http"
	"net/netip"
	"strings"
)

// proxyHeaders are read in order when the origin sits behind a trusted proxy.
var proxyHeaders = []string{"CF-Connecting-IP", "X-Forwarded-For", "X-Real-IP"}

// StripPort returns the host part of "ip:port", "[v6]:port" or "host".
func StripPort(s string) string {
	if s == "" {
		return ""
	}
	if h, _, err := net.SplitHostPort(s); err == nil {
		return h
	}
	return strings.Trim(s, "[]")
}

// ClientIP resolves the caller address. Proxy headers are only honoured with
// trustProxy, and X-Forwarded-For contributes its left-most entry.
func ClientIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		for _, h := range proxyHeaders {
			v := r.Header.Get(h)
			if first, _, found := strings.Cut(v, ","); found {
				v = first
			}
			if ip := StripPort(strings.TrimSpace(v)); ip != "" {
				return ip
			}
		}
	}
	return StripPort(r.RemoteAddr)
}

// AddrSet is an allow-list of addresses and prefixes. An entry without a
// prefix length matches that single address.
type AddrSet struct {
	prefixes []netip.Prefix
}

// NewAddrSet parses the list and returns the entries it could not parse.
func NewAddrSet(list []string) (*AddrSet, []string) {
	s := &AddrSet{}
	var invalid []string
	for _, raw := range list {
		entry := strings.TrimSpace(raw)
		if entry == "" {
			continue
		}
		if p, err := netip.ParsePrefix(entry); err == nil {
			s.prefixes = append(s.prefixes, p.Masked())
			continue
		}
		if a, err := netip.ParseAddr(entry); err == nil {
			s.prefixes = append(s.prefixes, netip.PrefixFrom(a.Unmap(), a.Unmap().BitLen()))
			continue
		}
		invalid = append(invalid, entry)
	}
	return s, invalid
}

func (s *AddrSet) Len() int { return len(s.prefixes) }

// Contains reports whether ip falls in one of the prefixes. IPv4-mapped
// IPv6 addresses are compared as IPv4.
func (s *AddrSet) Contains(ip string) bool {
	a, err := netip.ParseAddr(ip)
	if err != nil {
		return false
	}
	a = a.Unmap()
	for _, p := range s.prefixes {
		if p.Contains(a) {
			return true
		}
	}
	return false
}

// HostAllowed matches a Host header against exact names and "*.example.com"
// patterns, ignoring case and port. A wildcard does not match the bare domain.
func HostAllowed(host string, patterns []string) bool {
	host = strings.ToLower(StripPort(host))
	for _, p := range patterns {
		p = strings.ToLower(strings.TrimSpace(p))
		if p == host {
			return true
		}
		if suffix, ok := strings.CutPrefix(p, "*"); ok && strings.HasPrefix(suffix, ".") && strings.HasSuffix(host, suffix) {
			return true
		}
	}
	return false
}
