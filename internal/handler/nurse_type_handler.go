package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"shiftdesk/internal/model"
)

type NurseTypeService interface {
	Add(ctx context.Context, name string) (*model.NurseType, error)
	List(ctx context.Context) ([]model.NurseType, error)
	Delete(ctx context.Context, id int) error
	Rename(ctx context.Context, id int, name string) error
}

type NurseTypeHandler struct {
	types  NurseTypeService
	logger *zap.Logger
}

func NewNurseTypeHandler(types NurseTypeService, logger *zap.Logger) *NurseTypeHandler {
	return &NurseTypeHandler{types: types, logger: logger}
}

type nurseTypeRequest struct {
	NurseType string `json:"nurse_type"`
}

// POST /api/admin/add-nurse-type
func (h *NurseTypeHandler) Add(c *gin.Context) {
	var req nurseTypeRequest
	if !bindJSON(c, &req) {
		return
	}
	if _, err := h.types.Add(c.Request.Context(), req.NurseType); err != nil {
		fail(c, h.logger, err, "Nurse type not found")
		return
	}
	reply(c, http.StatusOK, "Position added successfully")
}

// GET /api/admin/get-nurse-type and /api/admin/get-nurse-types
func (h *NurseTypeHandler) List(c *gin.Context) {
	list, err := h.types.List(c.Request.Context())
	if err != nil {
		fail(c, h.logger, err, "Nurse type not found")
		return
	}
	if list == nil {
		list = []model.NurseType{}
	}
	c.JSON(http.StatusOK, gin.H{
		"message":     "Nurse types fetched successfully",
		"nurse_types": list,
		"status":      http.StatusOK,
	})
}

// DELETE /api/admin/delete-nurse-type/:id
func (h *NurseTypeHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.types.Delete(c.Request.Context(), id); err != nil {
		fail(c, h.logger, err, "Nurse type not found")
		return
	}
	reply(c, http.StatusOK, "Nurse type deleted successfully")
}

// PUT /api/admin/edit-nurse-type/:id
func (h *NurseTypeHandler) Edit(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req nurseTypeRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.types.Rename(c.Request.Context(), id, req.NurseType); err != nil {
		fail(c, h.logger, err, "Nurse type not found")
		return
	}
	reply(c, http.StatusOK, "Nurse type updated successfully")
}
