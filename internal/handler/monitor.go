package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/wk-archive/meetingmind/internal/logger"
	"github.com/wk-archive/meetingmind/internal/monitor"
)

// MonitorHandler exposes the SourceMonitor control plane (spec.md §6's
// /monitor/* routes).
type MonitorHandler struct {
	mon *monitor.Monitor
}

// NewMonitorHandler wraps a running (or not-yet-started) monitor.
func NewMonitorHandler(mon *monitor.Monitor) *MonitorHandler {
	return &MonitorHandler{mon: mon}
}

type monitorStatusResponse struct {
	Running        bool   `json:"running"`
	LastScan       string `json:"last_scan"`
	ProcessedCount int    `json:"processed_count"`
	ErrorCount     int    `json:"error_count"`
}

// Status reports the monitor's current scan state.
func (h *MonitorHandler) Status(c *gin.Context) {
	st := h.mon.Status()
	c.JSON(200, monitorStatusResponse{
		Running:        st.Running,
		LastScan:       st.LastScan.Format("2006-01-02T15:04:05Z07:00"),
		ProcessedCount: st.ProcessedCount,
		ErrorCount:     st.ErrorCount,
	})
}

// Trigger requests an out-of-band scan without waiting for the next poll
// interval. The scan itself runs asynchronously; this always returns 202.
func (h *MonitorHandler) Trigger(c *gin.Context) {
	h.mon.TriggerNow()
	c.JSON(202, gin.H{"triggered": true})
}

// Start begins the monitor's poll loop in the background.
func (h *MonitorHandler) Start(c *gin.Context) {
	ctx := logger.CloneContext(c.Request.Context())
	go h.mon.Start(ctx)
	c.JSON(202, gin.H{"started": true})
}

// Stop halts the monitor's poll loop.
func (h *MonitorHandler) Stop(c *gin.Context) {
	h.mon.Stop()
	c.JSON(200, gin.H{"stopped": true})
}
