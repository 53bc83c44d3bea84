package ratelimit

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIdentityFromRequest_Precedence(t *testing.T) {
	r := httptest.NewRequest("POST", "/qualify", nil)
	r.Header.Set("X-API-Key", "lq_ent_abc123")
	r.Header.Set("Authorization", "Bearer lq_pro_zzz")
	r.RemoteAddr = "10.0.0.1:5000"

	id := IdentityFromRequest(r)
	assert.Equal(t, "lq_ent_abc123", id.Key)
	assert.Equal(t, TierEnterprise, id.Tier)
}

func TestIdentityFromRequest_BearerFallback(t *testing.T) {
	r := httptest.NewRequest("POST", "/qualify", nil)
	r.Header.Set("Authorization", "Bearer lq_pro_zzz")

	id := IdentityFromRequest(r)
	assert.Equal(t, "lq_pro_zzz", id.Key)
	assert.Equal(t, TierPro, id.Tier)
}

func TestIdentityFromRequest_AnonymousUsesIP(t *testing.T) {
	tests := []struct {
		name      string
		forwarded string
		remote    string
		wantKey   string
	}{
		{"forwarded single", "203.0.113.9", "10.0.0.1:5000", "203.0.113.9"},
		{"forwarded chain takes first", "203.0.113.9, 70.41.3.18", "10.0.0.1:5000", "203.0.113.9"},
		{"socket address", "", "10.0.0.1:5000", "10.0.0.1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("POST", "/qualify", nil)
			if tt.forwarded != "" {
				r.Header.Set("X-Forwarded-For", tt.forwarded)
			}
			r.RemoteAddr = tt.remote

			id := IdentityFromRequest(r)
			assert.Equal(t, tt.wantKey, id.Key)
			assert.Equal(t, TierFree, id.Tier)
		})
	}
}

func TestTierForKey(t *testing.T) {
	assert.Equal(t, TierEnterprise, TierForKey("lq_ent_x"))
	assert.Equal(t, TierPro, TierForKey("lq_pro_x"))
	assert.Equal(t, TierFree, TierForKey("lq_free_x"))
	assert.Equal(t, TierFree, TierForKey("anything"))
}
