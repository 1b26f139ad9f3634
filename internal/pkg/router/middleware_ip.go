package router

import (
	"log/slog"
	"net"
	"net/http"
	"net/netip"
	"strings"

	"github.com/samber/lo"
	"github.com/shandysiswandi/ahoum/internal/pkg/config"
)

// middlewareIP rewrites RemoteAddr to the client address. Forwarding headers
// are honored only when the direct peer is inside http.trusted_proxies.
func middlewareIP(cfg config.Config) Middleware {
	trusted := lo.FilterMap(configList(cfg, "http.trusted_proxies", strings.TrimSpace), func(v string, _ int) (netip.Prefix, bool) {
		if !strings.Contains(v, "/") {
			addr, err := netip.ParseAddr(v)
			if err != nil {
				slog.Warn("ignoring invalid trusted proxy", "value", v, "error", err)
				return netip.Prefix{}, false
			}
			return netip.PrefixFrom(addr, addr.BitLen()), true
		}
		p, err := netip.ParsePrefix(v)
		if err != nil {
			slog.Warn("ignoring invalid trusted proxy", "value", v, "error", err)
			return netip.Prefix{}, false
		}
		return p.Masked(), true
	})

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if ip := clientIP(r, trusted); ip != "" {
				r.RemoteAddr = ip
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request, trusted []netip.Prefix) string {
	peer, ok := peerAddr(r.RemoteAddr)
	if !ok {
		return ""
	}

	if !lo.ContainsBy(trusted, func(p netip.Prefix) bool { return p.Contains(peer) }) {
		return peer.String()
	}

	for _, h := range [...]string{"True-Client-IP", "X-Real-IP"} {
		if addr, err := netip.ParseAddr(strings.TrimSpace(r.Header.Get(h))); err == nil {
			return addr.Unmap().String()
		}
	}

	// right-most untrusted hop of X-Forwarded-For
	hops := strings.Split(r.Header.Get("X-Forwarded-For"), ",")
	for i := len(hops) - 1; i >= 0; i-- {
		addr, err := netip.ParseAddr(strings.TrimSpace(hops[i]))
		if err != nil {
			break
		}
		addr = addr.Unmap()
		if !lo.ContainsBy(trusted, func(p netip.Prefix) bool { return p.Contains(addr) }) {
			return addr.String()
		}
	}

	return peer.String()
}

func peerAddr(remote string) (netip.Addr, bool) {
	host, _, err := net.SplitHostPort(remote)
	if err != nil {
		host = remote
	}
	addr, err := netip.ParseAddr(host)
	if err != nil {
		return netip.Addr{}, false
	}
	return addr.Unmap(), true
}
