package api

import (
	"net"
	"net/http"
	"strings"
)

// clientIPHeaders are consulted in order before the connection address. Any client
// that reaches the server without a proxy rewriting these headers can set them, so
// the resulting IP is only as trustworthy as the proxy in front.
var clientIPHeaders = []string{
	"CF-Connecting-IP",
	"Client-IP",
	"X-Forwarded-For",
	"X-Forwarded",
	"X-Cluster-Client-IP",
	"Forwarded-For",
	"Forwarded",
}

const maxIPLength = 100

// clientIP resolves the submitter address from forwarding headers or the connection
func clientIP(r *http.Request) string {
	for _, h := range clientIPHeaders {
		if v := r.Header.Get(h); v != "" {
			v = firstEntry(v)
			if h == "Forwarded" {
				v = forwardedFor(v)
			}
			return sanitizeIP(v)
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return sanitizeIP(strings.TrimSpace(host))
}

func firstEntry(v string) string {
	if i := strings.IndexByte(v, ','); i >= 0 {
		v = v[:i]
	}
	return strings.TrimSpace(v)
}

// forwardedFor extracts the for= parameter of an RFC 7239 element
func forwardedFor(v string) string {
	for _, part := range strings.Split(v, ";") {
		part = strings.TrimSpace(part)
		if len(part) > 4 && strings.EqualFold(part[:4], "for=") {
			addr := strings.Trim(part[4:], `"`)
			if strings.HasPrefix(addr, "[") {
				if end := strings.IndexByte(addr, ']'); end > 0 {
					return addr[1:end]
				}
			}
			if host, _, err := net.SplitHostPort(addr); err == nil {
				return host
			}
			return addr
		}
	}
	return v
}

// sanitizeIP keeps only characters that appear in IPv4 and IPv6 addresses
func sanitizeIP(ip string) string {
	ip = strings.Map(func(r rune) rune {
		switch {
		case r >= '0' && r <= '9', r >= 'a' && r <= 'f', r >= 'A' && r <= 'F':
			return r
		case r == ':' || r == '.' || r == ',' || r == ' ':
			return r
		}
		return -1
	}, ip)
	if len(ip) > maxIPLength {
		ip = ip[:maxIPLength]
	}
	return ip
}
