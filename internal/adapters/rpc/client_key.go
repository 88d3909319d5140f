package rpc

import (
	"net"
	"net/http"
	"strings"
)

// clientKey identifies the caller for rate and stream limits by remote
// host. Forwarding headers are not trusted.
func clientKey(r *http.Request) string {
	remote := strings.TrimSpace(r.RemoteAddr)
	if remote == "" {
		return "ip:unknown"
	}
	host, _, err := net.SplitHostPort(remote)
	if err != nil {
		return "ip:" + remote
	}
	if strings.TrimSpace(host) == "" {
		return "ip:unknown"
	}
	return "ip:" + host
}
