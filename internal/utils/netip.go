package utils

import (
	"net"
	"net/http"
	"net/netip"
	"strings"
)

// proxyHeaders are consulted in order when the proxy is trusted.
// X-Forwarded-For contributes its left-most entry only.
var proxyHeaders = []string{"CF-Connecting-IP", "X-Forwarded-For", "X-Real-IP"}

// ClientIP resolves the caller's address. With trustProxy the proxy headers
// win, skipping any that do not hold a valid address; otherwise only
// RemoteAddr counts. IPv4-mapped IPv6 addresses are reported as IPv4.
func ClientIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		for _, h := range proxyHeaders {
			v := r.Header.Get(h)
			if i := strings.IndexByte(v, ','); i >= 0 {
				v = v[:i]
			}
			if addr, ok := parseAddr(v); ok {
				return addr.String()
			}
		}
	}
	if addr, ok := parseAddr(r.RemoteAddr); ok {
		return addr.String()
	}
	return r.RemoteAddr
}

// parseAddr accepts "ip", "ip:port" and "[v6]:port".
func parseAddr(s string) (netip.Addr, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return netip.Addr{}, false
	}
	if host, _, err := net.SplitHostPort(s); err == nil {
		s = host
	}
	addr, err := netip.ParseAddr(s)
	if err != nil {
		return netip.Addr{}, false
	}
	return addr.Unmap(), true
}

// IPMatcher matches addresses against a list of prefixes. A bare IP is
// stored as a single-address prefix.
type IPMatcher struct {
	prefixes []netip.Prefix
}

// NewIPMatcher parses list and returns the entries it could not read.
func NewIPMatcher(list []string) (*IPMatcher, []string) {
	m := &IPMatcher{}
	var invalid []string
	for _, raw := range list {
		s := strings.TrimSpace(raw)
		if s == "" {
			continue
		}
		if p, err := netip.ParsePrefix(s); err == nil {
			m.prefixes = append(m.prefixes, p.Masked())
			continue
		}
		if addr, err := netip.ParseAddr(s); err == nil {
			addr = addr.Unmap()
			m.prefixes = append(m.prefixes, netip.PrefixFrom(addr, addr.BitLen()))
			continue
		}
		invalid = append(invalid, s)
	}
	return m, invalid
}

func (m *IPMatcher) IsEmpty() bool {
	return len(m.prefixes) == 0
}

func (m *IPMatcher) Allow(ip string) bool {
	addr, ok := parseAddr(ip)
	if !ok {
		return false
	}
	for _, p := range m.prefixes {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}
