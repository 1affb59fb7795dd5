package middleware

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	corsMethods = "GET, POST, OPTIONS"
	corsHeaders = "Content-Type, " + HeaderRequestID
	corsMaxAge  = "600"
)

// OriginPolicy decides which browser origins may call the editor API.
// An empty allowlist admits every origin.
type OriginPolicy struct {
	allowed map[string]struct{}
}

func NewOriginPolicy(allowlist []string) *OriginPolicy {
	allowed := make(map[string]struct{}, len(allowlist))
	for _, origin := range allowlist {
		trimmed := strings.TrimSuffix(strings.TrimSpace(origin), "/")
		if trimmed == "" {
			continue
		}
		allowed[trimmed] = struct{}{}
	}
	return &OriginPolicy{allowed: allowed}
}

func (p *OriginPolicy) AllowAll() bool {
	return len(p.allowed) == 0
}

func (p *OriginPolicy) Allowed(origin string) bool {
	if p.AllowAll() {
		return true
	}
	_, ok := p.allowed[origin]
	return ok
}

// CheckWebSocketOrigin admits non-browser clients, pages served by this
// process and allowlisted origins.
func (p *OriginPolicy) CheckWebSocketOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || p.Allowed(origin) {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	return strings.EqualFold(u.Host, r.Host)
}

// CORS lets the editor frontend run on another origin. The request id header is
// exposed so the frontend can quote it when reporting a failed save.
// Preflights from origins outside the allowlist are refused with 403.
func CORS(policy *OriginPolicy) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		h := c.Writer.Header()
		allowed := origin != "" && policy.Allowed(origin)
		switch {
		case policy.AllowAll():
			h.Set("Access-Control-Allow-Origin", "*")
		case allowed:
			h.Set("Access-Control-Allow-Origin", origin)
		}
		if !policy.AllowAll() {
			h.Add("Vary", "Origin")
		}
		if policy.AllowAll() || allowed {
			h.Set("Access-Control-Expose-Headers", HeaderRequestID)
		}
		if c.Request.Method != http.MethodOptions {
			c.Next()
			return
		}
		if origin != "" && !policy.Allowed(origin) {
			c.AbortWithStatus(http.StatusForbidden)
			return
		}
		h.Set("Access-Control-Allow-Methods", corsMethods)
		h.Set("Access-Control-Allow-Headers", corsHeaders)
		h.Set("Access-Control-Max-Age", corsMaxAge)
		c.AbortWithStatus(http.StatusNoContent)
	}
}
