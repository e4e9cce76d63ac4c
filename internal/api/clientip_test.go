package api

import (
	"net/http/httptest"
	"testing"
)

func TestClientIP(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{"remote address", nil, "192.0.2.1:5555", "192.0.2.1"},
		{"ipv6 remote", nil, "[2001:db8::1]:443", "2001:db8::1"},
		{"cloudflare wins", map[string]string{"CF-Connecting-IP": "203.0.113.5", "X-Forwarded-For": "198.51.100.1"}, "192.0.2.1:1", "203.0.113.5"},
		{"client ip before forwarded-for", map[string]string{"Client-IP": "203.0.113.6", "X-Forwarded-For": "198.51.100.1"}, "192.0.2.1:1", "203.0.113.6"},
		{"first forwarded entry", map[string]string{"X-Forwarded-For": " 198.51.100.1 , 10.0.0.1"}, "192.0.2.1:1", "198.51.100.1"},
		{"cluster header", map[string]string{"X-Cluster-Client-IP": "198.51.100.2"}, "192.0.2.1:1", "198.51.100.2"},
		{"rfc 7239", map[string]string{"Forwarded": `for="[2001:db8::2]:4711";proto=https, for=198.51.100.3`}, "192.0.2.1:1", "2001:db8::2"},
		{"strips junk", map[string]string{"X-Forwarded-For": "198.51.100.4<script>"}, "192.0.2.1:1", "198.51.100.4c"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			if got := clientIP(req); got != tt.want {
				t.Errorf("clientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}
