package handler

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/wk-archive/meetingmind/internal/logger"
	"github.com/wk-archive/meetingmind/internal/phone"
	"github.com/wk-archive/meetingmind/internal/types"
)

// whitelistStore is the subset of relational.WhitelistRepo this handler
// needs, narrowed so tests can exercise it against a fake instead of a
// live database.
type whitelistStore interface {
	List(ctx context.Context) ([]types.WhitelistEntry, error)
	Upsert(ctx context.Context, entry types.WhitelistEntry) error
	Delete(ctx context.Context, identity string) error
}

// WhitelistHandler exposes CRUD over whitelist entries for the admin
// console (spec.md §6's /admin/whitelist routes).
type WhitelistHandler struct {
	repo whitelistStore
}

// NewWhitelistHandler wraps a whitelist repository. repo is nil whenever
// relational storage is disabled (a legal graph-only deployment); every
// route then reports the feature unavailable instead of nil-dereferencing.
func NewWhitelistHandler(repo whitelistStore) *WhitelistHandler {
	return &WhitelistHandler{repo: repo}
}

func (h *WhitelistHandler) unavailable(c *gin.Context) bool {
	if h.repo != nil {
		return false
	}
	c.JSON(503, gin.H{"error": "whitelist administration requires relational storage, which is disabled"})
	return true
}

type whitelistEntryRequest struct {
	Identity    string `json:"identity"`
	Active      bool   `json:"active"`
	DisplayName string `json:"display_name"`
}

// List returns every whitelist entry.
func (h *WhitelistHandler) List(c *gin.Context) {
	if h.unavailable(c) {
		return
	}
	ctx := logger.CloneContext(c.Request.Context())
	entries, err := h.repo.List(ctx)
	if err != nil {
		logger.Errorf(ctx, "list whitelist: %v", err)
		c.JSON(500, gin.H{"error": "could not list whitelist entries"})
		return
	}
	c.JSON(200, gin.H{"entries": entries})
}

// Upsert creates or updates one whitelist entry. The identity is
// normalized to E.164 before being persisted; requests with no recognizable
// digits are rejected.
func (h *WhitelistHandler) Upsert(c *gin.Context) {
	if h.unavailable(c) {
		return
	}
	ctx := logger.CloneContext(c.Request.Context())

	var req whitelistEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"error": "invalid request body"})
		return
	}

	normalized := phone.Normalize(req.Identity)
	if normalized == "" {
		c.JSON(400, gin.H{"error": "identity must contain a valid phone number"})
		return
	}

	entry := types.WhitelistEntry{
		ID:          uuid.NewString(),
		Identity:    normalized,
		Active:      req.Active,
		DisplayName: req.DisplayName,
		CreatedAt:   time.Now(),
	}
	if err := h.repo.Upsert(ctx, entry); err != nil {
		logger.Errorf(ctx, "upsert whitelist entry %s: %v", normalized, err)
		c.JSON(500, gin.H{"error": "could not save whitelist entry"})
		return
	}
	c.JSON(200, gin.H{"identity": normalized})
}

// Delete removes one whitelist entry by its path identity parameter.
func (h *WhitelistHandler) Delete(c *gin.Context) {
	if h.unavailable(c) {
		return
	}
	ctx := logger.CloneContext(c.Request.Context())

	normalized := phone.Normalize(c.Param("id"))
	if normalized == "" {
		c.JSON(400, gin.H{"error": "identity must contain a valid phone number"})
		return
	}

	if err := h.repo.Delete(ctx, normalized); err != nil {
		logger.Errorf(ctx, "delete whitelist entry %s: %v", normalized, err)
		c.JSON(500, gin.H{"error": "could not delete whitelist entry"})
		return
	}
	c.JSON(200, gin.H{"identity": normalized})
}
