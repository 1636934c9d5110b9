package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"shiftdesk/internal/model"
	"shiftdesk/internal/service"
	"shiftdesk/internal/util"
	"shiftdesk/pkg/logger"
)

type Authenticator interface {
	Login(ctx context.Context, email, password string) (*model.Admin, string, error)
	TTL() time.Duration
}

type AuthHandler struct {
	auth   Authenticator
	secure bool
	logger *zap.Logger
}

// NewAuthHandler secure sets the Secure flag on the session cookie.
func NewAuthHandler(auth Authenticator, secure bool, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{auth: auth, secure: secure, logger: logger}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// POST /api/admin/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if !bindJSON(c, &req) {
		return
	}

	admin, token, err := h.auth.Login(c.Request.Context(), req.Email, req.Password)
	if errors.Is(err, service.ErrUnauthorized) {
		reply(c, http.StatusNotFound, "Invalid email or password")
		return
	}
	if err != nil {
		fail(c, h.logger, err, "Invalid email or password")
		return
	}

	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(util.AuthCookie, token, int(h.auth.TTL().Seconds()), "/", "", h.secure, true)

	logger.WithTrace(c.Request.Context(), h.logger).Info("Admin logged in", zap.Int("admin_id", admin.ID))
	c.JSON(http.StatusOK, gin.H{
		"message": "Login successful",
		"user":    gin.H{"id": admin.ID, "email": admin.Email},
		"token":   token,
		"status":  http.StatusOK,
	})
}

// POST /api/admin/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(util.AuthCookie, "", -1, "/", "", h.secure, true)
	reply(c, http.StatusOK, "Logout successful")
}
