package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"shiftdesk/internal/model"
)

type CoordinatorService interface {
	ListByFacility(ctx context.Context, facilityID int) ([]model.Coordinator, error)
	Get(ctx context.Context, id int) (*model.Coordinator, error)
	Delete(ctx context.Context, id int) error
}

type CoordinatorHandler struct {
	coordinators CoordinatorService
	logger       *zap.Logger
}

func NewCoordinatorHandler(coordinators CoordinatorService, logger *zap.Logger) *CoordinatorHandler {
	return &CoordinatorHandler{coordinators: coordinators, logger: logger}
}

// GET /api/admin/get-coordinators-by-facility/:id
func (h *CoordinatorHandler) ListByFacility(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	list, err := h.coordinators.ListByFacility(c.Request.Context(), id)
	if err != nil {
		fail(c, h.logger, err, "Facility not found")
		return
	}
	if list == nil {
		list = []model.Coordinator{}
	}
	c.JSON(http.StatusOK, gin.H{"coordinators": list, "status": http.StatusOK})
}

// GET /api/admin/get-coordinator-by-id/:id
func (h *CoordinatorHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	co, err := h.coordinators.Get(c.Request.Context(), id)
	if err != nil {
		fail(c, h.logger, err, "Coordinator not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"coordinatorData": []*model.Coordinator{co}, "status": http.StatusOK})
}

// DELETE /api/admin/delete-coordinator/:id
func (h *CoordinatorHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.coordinators.Delete(c.Request.Context(), id); err != nil {
		fail(c, h.logger, err, "Coordinator not found")
		return
	}
	reply(c, http.StatusOK, "Coordinator deleted successfully")
}
