// Package admin exposes the operator surface: counter resets, usage
// snapshots and cost queries per tenant.
package admin

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/aquafarm-pro/tenantcore/admission"
	"github.com/aquafarm-pro/tenantcore/cost"
	"github.com/aquafarm-pro/tenantcore/errcode"
	"github.com/aquafarm-pro/tenantcore/httpx"
	"github.com/aquafarm-pro/tenantcore/quota"
)

const defaultPeriodHours = 24

// Handler admin HTTP handlers
type Handler struct {
	engine     *admission.Engine
	aggregator *cost.Aggregator
}

// NewHandler creates the admin handler set
func NewHandler(engine *admission.Engine, aggregator *cost.Aggregator) *Handler {
	return &Handler{engine: engine, aggregator: aggregator}
}

// Register mounts the admin routes on a router group
func (h *Handler) Register(group *gin.RouterGroup) {
	tenants := group.Group("/tenants/:id")
	tenants.POST("/limits/reset", h.ResetLimits)
	tenants.GET("/usage", h.Usage)
	tenants.GET("/cost/breakdown", h.CostBreakdown)
	tenants.GET("/cost/history", h.CostHistory)
}

// ResetLimits clears a tenant's counters, one class when ?class= is given
func (h *Handler) ResetLimits(c *gin.Context) {
	tenantID := c.Param("id")

	class := quota.EndpointClass(c.Query("class"))
	if class != "" && !knownClass(class) {
		httpx.HandleError(c, errcode.ErrUnknownEndpointClass.
			WithData("class", string(class)))
		return
	}

	if err := h.engine.Reset(c.Request.Context(), tenantID, class); err != nil {
		httpx.HandleError(c, errcode.ErrResetFailed.WithCause(err))
		return
	}

	httpx.OkJson(c, gin.H{
		"tenant_id": tenantID,
		"class":     string(class),
	})
}

// Usage reports the tenant's current window counts per endpoint class
func (h *Handler) Usage(c *gin.Context) {
	tenantID := c.Param("id")

	snapshot, err := h.engine.Snapshot(c.Request.Context(), tenantID)
	if err != nil {
		httpx.HandleError(c, errcode.ErrSnapshotFailed.WithCause(err))
		return
	}

	httpx.OkJson(c, gin.H{
		"tenant_id": tenantID,
		"usage":     snapshot,
	})
}

// CostBreakdown reports per-resource cost over the trailing period
// (?hours=, default 24)
func (h *Handler) CostBreakdown(c *gin.Context) {
	tenantID := c.Param("id")

	hours, err := periodHours(c)
	if err != nil {
		httpx.HandleError(c, err)
		return
	}

	end := time.Now().UTC()
	start := end.Add(-time.Duration(hours) * time.Hour)
	breakdown, err := h.aggregator.Breakdown(c.Request.Context(), tenantID, start, end)
	if err != nil {
		httpx.HandleError(c, errcode.ErrBreakdownFailed.WithCause(err))
		return
	}

	httpx.OkJson(c, breakdown)
}

// CostHistory reports persisted usage samples over the trailing period
// (?hours=, default 24), newest first
func (h *Handler) CostHistory(c *gin.Context) {
	tenantID := c.Param("id")

	hours, err := periodHours(c)
	if err != nil {
		httpx.HandleError(c, err)
		return
	}

	since := time.Now().UTC().Add(-time.Duration(hours) * time.Hour)
	history, err := h.aggregator.History(c.Request.Context(), tenantID, since)
	if err != nil {
		httpx.HandleError(c, errcode.ErrHistoryFailed.WithCause(err))
		return
	}

	httpx.OkJson(c, gin.H{
		"tenant_id": tenantID,
		"hours":     hours,
		"history":   history,
	})
}

// periodHours parses the ?hours= query parameter
func periodHours(c *gin.Context) (int, error) {
	raw := c.Query("hours")
	if raw == "" {
		return defaultPeriodHours, nil
	}
	hours, err := strconv.Atoi(raw)
	if err != nil || hours <= 0 {
		return 0, errcode.ErrBadRequest.WithMsgf("hours must be a positive integer, got %q", raw)
	}
	return hours, nil
}

// knownClass reports whether the class is a configured endpoint class
func knownClass(class quota.EndpointClass) bool {
	for _, known := range quota.Classes() {
		if known == class {
			return true
		}
	}
	return false
}
