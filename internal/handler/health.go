package handler

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/wk-archive/meetingmind/internal/logger"
	"github.com/wk-archive/meetingmind/internal/monitor"
	"github.com/wk-archive/meetingmind/internal/types/interfaces"
)

// HealthHandler reports the status of every external dependency this
// module relies on (spec.md §6's /health contract). It replaces the
// teacher's system info endpoint, which reported build metadata and a
// RETRIEVE_DRIVER-derived engine list that has no analogue here.
type HealthHandler struct {
	graph      interfaces.GraphStore
	relational interfaces.RelationalStore
	chat       interfaces.ChatModel
	mon        *monitor.Monitor
}

// NewHealthHandler wires the stores and monitor a health check pings.
func NewHealthHandler(graph interfaces.GraphStore, relational interfaces.RelationalStore, chat interfaces.ChatModel, mon *monitor.Monitor) *HealthHandler {
	return &HealthHandler{graph: graph, relational: relational, chat: chat, mon: mon}
}

type serviceStatus struct {
	Status    string `json:"status"`
	LatencyMS int64  `json:"latency_ms,omitempty"`
	Error     string `json:"error,omitempty"`
}

type monitorStatus struct {
	Running  bool      `json:"running"`
	Pending  int       `json:"pending"`
	LastScan time.Time `json:"last_scan"`
}

type healthResponse struct {
	Status   string `json:"status"`
	Services struct {
		Graph      serviceStatus `json:"graph"`
		LLM        serviceStatus `json:"llm"`
		Relational serviceStatus `json:"relational"`
		Monitor    monitorStatus `json:"monitor"`
	} `json:"services"`
}

// Health reports "ok" only when every pingable dependency succeeds, and
// "degraded" otherwise. It never fails the HTTP request itself: callers
// read the body to tell which dependency is unhealthy.
func (h *HealthHandler) Health(c *gin.Context) {
	ctx := logger.CloneContext(c.Request.Context())
	var resp healthResponse
	healthy := true

	resp.Services.Graph = ping(ctx, func(ctx context.Context) error { return h.graph.Ping(ctx) })
	resp.Services.Relational = ping(ctx, func(ctx context.Context) error { return h.relational.Ping(ctx) })
	resp.Services.LLM = pingChat(ctx, h.chat)

	for _, s := range []serviceStatus{resp.Services.Graph, resp.Services.Relational, resp.Services.LLM} {
		if s.Status != "ok" {
			healthy = false
		}
	}

	if h.mon != nil {
		st := h.mon.Status()
		resp.Services.Monitor = monitorStatus{Running: st.Running, Pending: st.PendingCount, LastScan: st.LastScan}
	}

	resp.Status = "ok"
	if !healthy {
		resp.Status = "degraded"
	}

	c.JSON(200, resp)
}

func ping(ctx context.Context, fn func(context.Context) error) serviceStatus {
	start := time.Now()
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := fn(pingCtx); err != nil {
		return serviceStatus{Status: "error", LatencyMS: time.Since(start).Milliseconds(), Error: err.Error()}
	}
	return serviceStatus{Status: "ok", LatencyMS: time.Since(start).Milliseconds()}
}

// pingChat has no dedicated Ping method on interfaces.ChatModel, so it
// issues a minimal chat call instead.
func pingChat(ctx context.Context, chat interfaces.ChatModel) serviceStatus {
	start := time.Now()
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	_, err := chat.Chat(pingCtx, []interfaces.ChatMessage{{Role: "user", Content: "ping"}}, nil)
	if err != nil {
		return serviceStatus{Status: "error", LatencyMS: time.Since(start).Milliseconds(), Error: err.Error()}
	}
	return serviceStatus{Status: "ok", LatencyMS: time.Since(start).Milliseconds()}
}
