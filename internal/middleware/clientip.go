package middleware

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net"
	"net/netip"
	"strings"

	"github.com/danielgtaylor/huma/v2"
)

// ClientIPResolver finds the originating client address. Forwarding headers
// are honored only when the direct peer is a trusted proxy, so clients cannot
// pick their own rate-limit key. A nil resolver trusts no proxy.
type ClientIPResolver struct {
	trusted []netip.Prefix
}

// NewClientIPResolver trusts the given proxies, each a CIDR or a single address.
func NewClientIPResolver(trustedProxies []string) (*ClientIPResolver, error) {
	r := &ClientIPResolver{}

	for _, raw := range trustedProxies {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}

		if prefix, err := netip.ParsePrefix(raw); err == nil {
			r.trusted = append(r.trusted, prefix.Masked())

			continue
		}

		addr, err := netip.ParseAddr(raw)
		if err != nil {
			return nil, fmt.Errorf("trusted proxy %q: %w", raw, err)
		}

		r.trusted = append(r.trusted, netip.PrefixFrom(addr.Unmap(), addr.Unmap().BitLen()))
	}

	return r, nil
}

// ClientIP returns the address of the client behind any trusted proxies.
// X-Forwarded-For is walked from the right, skipping trusted hops.
func (r *ClientIPResolver) ClientIP(ctx huma.Context) string {
	peer := remoteHost(ctx.RemoteAddr())
	if !r.isTrusted(peer) {
		return peer
	}

	if xff := ctx.Header("X-Forwarded-For"); xff != "" {
		hops := strings.Split(xff, ",")

		for i := len(hops) - 1; i >= 0; i-- {
			hop := strings.TrimSpace(hops[i])
			if _, err := netip.ParseAddr(hop); err != nil {
				break
			}

			if i == 0 || !r.isTrusted(hop) {
				return hop
			}
		}
	}

	if xri := strings.TrimSpace(ctx.Header("X-Real-IP")); xri != "" {
		if _, err := netip.ParseAddr(xri); err == nil {
			return xri
		}
	}

	return peer
}

func (r *ClientIPResolver) isTrusted(ip string) bool {
	if r == nil {
		return false
	}

	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return false
	}

	addr = addr.Unmap()

	for _, prefix := range r.trusted {
		if prefix.Contains(addr) {
			return true
		}
	}

	return false
}

func remoteHost(addr string) string {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}

	return host
}

// clientKey identifies a client for rate limiting without storing its raw
// address in Redis.
func clientKey(ip, userAgent string) string {
	sum := sha256.Sum256([]byte(ip + "|" + userAgent))

	return hex.EncodeToString(sum[:])
}
