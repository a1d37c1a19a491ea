package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/irfndi/celebrum-odds/internal/middleware"
)

// AdminHandler triggers background jobs on demand.
type AdminHandler struct {
	collector Collector
	cleaner   Cleaner
	passes    PassRunner
}

// NewAdminHandler creates an admin handler. A nil collector means odds
// collection is disabled.
func NewAdminHandler(collector Collector, cleaner Cleaner, passes PassRunner) *AdminHandler {
	return &AdminHandler{collector: collector, cleaner: cleaner, passes: passes}
}

// TriggerCollection handles POST /admin/collect.
func (h *AdminHandler) TriggerCollection(c *gin.Context) {
	if h.collector == nil {
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{
			Error:     "Odds collection is disabled",
			RequestID: middleware.GetRequestID(c),
		})
		return
	}

	summary, err := h.collector.CollectOnce(c.Request.Context())
	if err != nil {
		middleware.RecordError(c, err, "collection failed")
		c.JSON(http.StatusBadGateway, gin.H{
			"error":      "Odds collection failed: " + err.Error(),
			"summary":    summary,
			"request_id": middleware.GetRequestID(c),
		})
		return
	}
	c.JSON(http.StatusOK, summary)
}

// TriggerCleanup handles POST /admin/cleanup.
func (h *AdminHandler) TriggerCleanup(c *gin.Context) {
	result, err := h.cleaner.RunCleanup(c.Request.Context())
	if err != nil {
		respondError(c, err, "Cleanup failed")
		return
	}
	c.JSON(http.StatusOK, result)
}

// TriggerDetection handles POST /admin/detect.
func (h *AdminHandler) TriggerDetection(c *gin.Context) {
	pass, err := h.passes.RunPass(c.Request.Context())
	if err != nil {
		respondError(c, err, "Detection pass failed")
		return
	}
	c.JSON(http.StatusOK, pass)
}
