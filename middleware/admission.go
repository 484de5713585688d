// Package middleware provides the gin middleware for per-tenant admission
// control.
package middleware

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/aquafarm-pro/tenantcore/admission"
	"github.com/aquafarm-pro/tenantcore/errcode"
	"github.com/aquafarm-pro/tenantcore/httpx"
)

// Context keys set by upstream auth middleware
const (
	ContextKeyTenantID = "tenant_id"
	ContextKeyUserID   = "user_id"
)

// Rate limit response headers
const (
	HeaderLimit     = "X-RateLimit-Limit"
	HeaderRemaining = "X-RateLimit-Remaining"
	HeaderReset     = "X-RateLimit-Reset"
)

// AdmissionConfig admission middleware configuration
type AdmissionConfig struct {
	// Engine the rate limit engine (required)
	Engine *admission.Engine

	// Classifier maps paths to endpoint classes (default PrefixClassifier)
	Classifier ClassifierFunc

	// TenantFunc extracts the tenant id (default: gin context key
	// "tenant_id"); empty result skips admission control
	TenantFunc func(*gin.Context) string

	// UserFunc extracts the user id (default: gin context key "user_id")
	UserFunc func(*gin.Context) string

	// SkipPaths exact paths exempt from admission control
	SkipPaths []string
}

// Admission creates the admission middleware with default extraction
func Admission(engine *admission.Engine) gin.HandlerFunc {
	return AdmissionWithConfig(AdmissionConfig{Engine: engine})
}

// AdmissionWithConfig creates the admission middleware.
// Requests without a tenant id pass through untouched; upstream auth owns
// tenant identification. An engine-degraded decision also passes through:
// quota system trouble never takes the platform down.
func AdmissionWithConfig(cfg AdmissionConfig) gin.HandlerFunc {
	if cfg.Engine == nil {
		panic("AdmissionConfig.Engine cannot be nil")
	}
	if cfg.Classifier == nil {
		cfg.Classifier = PrefixClassifier
	}
	if cfg.TenantFunc == nil {
		cfg.TenantFunc = func(c *gin.Context) string {
			return c.GetString(ContextKeyTenantID)
		}
	}
	if cfg.UserFunc == nil {
		cfg.UserFunc = func(c *gin.Context) string {
			return c.GetString(ContextKeyUserID)
		}
	}

	skip := make(map[string]struct{}, len(cfg.SkipPaths))
	for _, path := range cfg.SkipPaths {
		skip[path] = struct{}{}
	}

	return func(c *gin.Context) {
		if _, ok := skip[c.Request.URL.Path]; ok {
			c.Next()
			return
		}

		tenantID := cfg.TenantFunc(c)
		if tenantID == "" {
			c.Next()
			return
		}

		class := cfg.Classifier(c.Request.URL.Path)
		result := cfg.Engine.Admit(c.Request.Context(), tenantID, class, cfg.UserFunc(c))

		setRateLimitHeaders(c, result)

		if !result.Allowed {
			httpx.AbortError(c, errcode.ErrRateLimitExceeded.
				WithData("class", string(class)).
				WithData("limit", result.Limit).
				WithData("reset_seconds", result.ResetSeconds()))
			return
		}

		c.Next()
	}
}

// setRateLimitHeaders writes the standard X-RateLimit-* headers; decisions
// without a limit (no rule, degraded) carry none
func setRateLimitHeaders(c *gin.Context, result admission.Result) {
	if result.Limit <= 0 || result.Degraded() {
		return
	}
	c.Header(HeaderLimit, strconv.FormatInt(result.Limit, 10))
	c.Header(HeaderRemaining, strconv.FormatInt(result.Remaining, 10))
	c.Header(HeaderReset, strconv.FormatInt(result.ResetSeconds(), 10))
}
