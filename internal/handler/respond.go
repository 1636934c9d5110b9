package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"shiftdesk/internal/service"
	"shiftdesk/pkg/logger"
)

const (
	defaultPage  = 1
	defaultLimit = 10
)

// reply writes the {message, status} envelope the admin UI reads; the HTTP
// status always matches the body.
func reply(c *gin.Context, code int, message string) {
	c.JSON(code, gin.H{"message": message, "status": code})
}

// fail maps a service error to a response. notFound is the message used for
// service.ErrNotFound.
func fail(c *gin.Context, log *zap.Logger, err error, notFound string) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		reply(c, http.StatusNotFound, notFound)
	case errors.Is(err, service.ErrLocationIncomplete):
		reply(c, http.StatusBadRequest, "Facility location incomplete.")
	case errors.Is(err, service.ErrInvalidInput):
		reply(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrGeocodeFailed):
		logger.WithTrace(c.Request.Context(), log).Warn("Geocoding failed", zap.Error(err))
		reply(c, http.StatusBadGateway, "Could not resolve the location. Please try again later.")
	default:
		logger.WithTrace(c.Request.Context(), log).Error("Request failed",
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
		reply(c, http.StatusInternalServerError, "An error has occurred")
	}
}

// pathID parses an integer path parameter, answering 400 when it is not one.
func pathID(c *gin.Context, name string) (int, bool) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil || id <= 0 {
		reply(c, http.StatusBadRequest, "invalid "+name+" parameter")
		return 0, false
	}
	return id, true
}

// paging reads ?page=&limit=, falling back to 1 and 10.
func paging(c *gin.Context) (page, limit int) {
	page, err := strconv.Atoi(c.Query("page"))
	if err != nil || page < 1 {
		page = defaultPage
	}
	limit, err = strconv.Atoi(c.Query("limit"))
	if err != nil || limit < 1 {
		limit = defaultLimit
	}
	return page, limit
}

func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		reply(c, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}
