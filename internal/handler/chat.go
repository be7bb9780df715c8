package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/wk-archive/meetingmind/internal/agent/supervisor"
	"github.com/wk-archive/meetingmind/internal/logger"
	"github.com/wk-archive/meetingmind/internal/security"
	"github.com/wk-archive/meetingmind/internal/types"
)

// ChatHandler drives the supervisor directly for the admin console, which
// bypasses WhitelistGate and trigger detection (spec.md §6's /admin/chat).
type ChatHandler struct {
	pool *supervisor.Pool
	deps supervisor.Deps
}

// NewChatHandler wires a pooled supervisor and its shared dependencies.
func NewChatHandler(pool *supervisor.Pool, deps supervisor.Deps) *ChatHandler {
	return &ChatHandler{pool: pool, deps: deps}
}

type chatTurn struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

type chatRequest struct {
	Message string     `json:"message"`
	History []chatTurn `json:"history"`
}

type chatResponse struct {
	Response  string `json:"response"`
	SessionID string `json:"session_id"`
}

// Chat handles one admin-console question synchronously.
func (h *ChatHandler) Chat(c *gin.Context) {
	ctx := logger.CloneContext(c.Request.Context())

	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"error": "invalid request body"})
		return
	}

	message, ok := security.ValidateInput(req.Message)
	if !ok || message == "" {
		c.JSON(400, gin.H{"error": "message rejected"})
		return
	}

	history := make([]types.Turn, 0, len(req.History))
	for _, t := range req.History {
		history = append(history, types.Turn{Role: t.Role, Content: t.Content, At: t.Timestamp})
	}

	sessionID := supervisor.NewSessionID()
	answerCh, errCh := h.pool.Submit(ctx, sessionID, message, history, h.deps)

	select {
	case answer := <-answerCh:
		c.JSON(200, chatResponse{Response: answer.Text, SessionID: sessionID})
	case err := <-errCh:
		logger.Errorf(ctx, "admin chat session %s failed: %v", sessionID, err)
		c.JSON(502, gin.H{"error": "the assistant could not complete this request", "session_id": sessionID})
	case <-ctx.Done():
		c.JSON(504, gin.H{"error": "request timed out", "session_id": sessionID})
	}
}
