package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"shiftdesk/pkg/outbox"
)

// Replayer is the outbox replay surface.
type Replayer interface {
	ReplayEvent(ctx context.Context, eventID int64) error
	ReplayFailedEvents(ctx context.Context, limit int) (int, error)
	ListFailed(ctx context.Context, limit int) ([]*outbox.Event, error)
}

type AdminHandler struct {
	replayer Replayer
	logger   *zap.Logger
}

func NewAdminHandler(replayer Replayer, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{replayer: replayer, logger: logger}
}

func queryLimit(c *gin.Context) int {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "100"))
	if err != nil || limit <= 0 {
		limit = 100
	}
	return limit
}

// ListFailedEvents lists events whose delivery failed.
// GET /api/admin/outbox/failed?limit=100
func (h *AdminHandler) ListFailedEvents(c *gin.Context) {
	events, err := h.replayer.ListFailed(c.Request.Context(), queryLimit(c))
	if err != nil {
		h.logger.Error("Failed to list failed events", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list events", "details": err.Error()})
		return
	}
	if events == nil {
		events = []*outbox.Event{}
	}
	c.JSON(http.StatusOK, gin.H{"events": events, "count": len(events)})
}

// ReplayOutboxEvent replays one outbox event.
// POST /api/admin/outbox/replay?id=xxx
func (h *AdminHandler) ReplayOutboxEvent(c *gin.Context) {
	idStr := c.Query("id")
	if idStr == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing id parameter"})
		return
	}

	eventID, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id parameter"})
		return
	}

	if err := h.replayer.ReplayEvent(c.Request.Context(), eventID); err != nil {
		h.logger.Error("Failed to replay event",
			zap.Int64("event_id", eventID),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "failed to replay event",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "replayed", "event_id": eventID})
}

// ReplayFailedEvents replays every failed event.
// POST /api/admin/outbox/replay-failed?limit=100
func (h *AdminHandler) ReplayFailedEvents(c *gin.Context) {
	limit := queryLimit(c)
	replayed, err := h.replayer.ReplayFailedEvents(c.Request.Context(), limit)
	if err != nil {
		h.logger.Error("Failed to replay failed events", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "failed to replay failed events",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":         "completed",
		"replayed_count": replayed,
		"limit":          limit,
	})
}
