package httputil

import (
	"net"
	"net/http"
)

// ClientIP extracts the client address used for rate limiting. The RealIP
// middleware has already folded X-Forwarded-For into RemoteAddr.
func ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
