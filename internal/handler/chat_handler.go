package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"shiftdesk/internal/assistant"
	"shiftdesk/pkg/logger"
)

// Bot answers one inbound chat message.
type Bot interface {
	Handle(ctx context.Context, sender, text string) (string, error)
}

// ChatHandler serves the messaging gateway webhooks for coordinators and nurses.
type ChatHandler struct {
	coordinator Bot
	nurse       Bot
	logger      *zap.Logger
}

func NewChatHandler(coordinator, nurse Bot, logger *zap.Logger) *ChatHandler {
	return &ChatHandler{coordinator: coordinator, nurse: nurse, logger: logger}
}

type chatRequest struct {
	Sender string `json:"sender" binding:"required"`
	Text   string `json:"text"`
}

// POST /api/chat
func (h *ChatHandler) Coordinator(c *gin.Context) {
	h.handle(c, "coordinator", h.coordinator)
}

// POST /api/chat_nurse
func (h *ChatHandler) Nurse(c *gin.Context) {
	h.handle(c, "nurse", h.nurse)
}

func (h *ChatHandler) handle(c *gin.Context, party string, bot Bot) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": "sender and text are required"})
		return
	}

	ctx := c.Request.Context()
	log := logger.WithTrace(ctx, h.logger).With(zap.String("party", party), zap.String("sender", req.Sender))

	msg, err := bot.Handle(ctx, req.Sender, req.Text)
	if errors.Is(err, assistant.ErrBadReply) {
		log.Warn("Model reply could not be parsed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "Invalid AI response format."})
		return
	}
	if err != nil {
		log.Error("Chat handling failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "Sorry, something went wrong."})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": msg})
}
