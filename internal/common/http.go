package common

import (
	"net"
	"net/http"
	"net/netip"
	"strings"
)

// ClientIP returns the caller's address for rate-limit keys. The API router
// runs chi's RealIP first, which moves X-Forwarded-For or X-Real-IP into
// RemoteAddr, so only RemoteAddr is read here. Unparseable values yield
// "unknown" so junk never becomes a Redis key.
func ClientIP(r *http.Request) string {
	if r == nil {
		return "unknown"
	}
	raw := strings.TrimSpace(r.RemoteAddr)
	if host, _, err := net.SplitHostPort(raw); err == nil {
		raw = host
	}
	addr, err := netip.ParseAddr(raw)
	if err != nil {
		return "unknown"
	}
	return addr.Unmap().String()
}
