package middleware

import (
	"net"
	"net/http"
	"net/netip"
	"strings"
)

// clientIP resolves the caller address, trusting the first valid entry of
// X-Forwarded-For, then X-Real-IP, then the socket peer. The service runs
// behind a single proxy that sets these headers.
func clientIP(r *http.Request) string {
	for _, candidate := range strings.Split(r.Header.Get("X-Forwarded-For"), ",") {
		if ip, ok := parseIP(candidate); ok {
			return ip
		}
	}
	if ip, ok := parseIP(r.Header.Get("X-Real-IP")); ok {
		return ip
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		if ip, ok := parseIP(host); ok {
			return ip
		}
	}
	ip, _ := parseIP(r.RemoteAddr)
	return ip
}

func parseIP(raw string) (string, bool) {
	addr, err := netip.ParseAddr(strings.TrimSpace(raw))
	if err != nil {
		return "", false
	}
	return addr.Unmap().String(), true
}
