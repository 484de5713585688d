package middleware

import "github.com/gin-gonic/gin"

// Identity headers forwarded by the edge gateway
const (
	HeaderTenantID = "X-Tenant-ID"
	HeaderUserID   = "X-User-ID"
)

// Identity copies the forwarded identity headers into the context keys the
// admission middleware reads. Stands in for the authentication layer when
// the service runs behind a gateway that has already identified the caller;
// deployments with in-process auth set the context keys themselves.
func Identity() gin.HandlerFunc {
	return func(c *gin.Context) {
		if v := c.GetHeader(HeaderTenantID); v != "" {
			c.Set(ContextKeyTenantID, v)
		}
		if v := c.GetHeader(HeaderUserID); v != "" {
			c.Set(ContextKeyUserID, v)
		}
		c.Next()
	}
}
