package ratelimit

import (
	"net"
	"net/http"
	"strings"
)

// Tier names. Unknown or anonymous clients land on the most restrictive tier.
const (
	TierFree       = "free"
	TierPro        = "pro"
	TierEnterprise = "enterprise"
)

// API keys encode their tier in a prefix so tier resolution needs no lookup.
const (
	prefixEnterprise = "lq_ent_"
	prefixPro        = "lq_pro_"
)

// Identity is the client identifier a rate-limit decision is keyed on.
type Identity struct {
	Key  string // API key, bearer token, or client IP
	Tier string
}

// IdentityFromRequest extracts the client identity with the precedence
// API key > bearer token > source IP.
func IdentityFromRequest(r *http.Request) Identity {
	if key := strings.TrimSpace(r.Header.Get("X-API-Key")); key != "" {
		return Identity{Key: key, Tier: TierForKey(key)}
	}

	if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		token := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
		if token != "" {
			return Identity{Key: token, Tier: TierForKey(token)}
		}
	}

	return Identity{Key: clientIP(r), Tier: TierFree}
}

// TierForKey maps an API key to its tier via the key-prefix convention.
func TierForKey(key string) string {
	switch {
	case strings.HasPrefix(key, prefixEnterprise):
		return TierEnterprise
	case strings.HasPrefix(key, prefixPro):
		return TierPro
	default:
		return TierFree
	}
}

// clientIP returns the first X-Forwarded-For entry, else the socket address.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if first, _, ok := strings.Cut(fwd, ","); ok {
			return strings.TrimSpace(first)
		}
		return strings.TrimSpace(fwd)
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil || host == "" {
		return r.RemoteAddr
	}
	return host
}
